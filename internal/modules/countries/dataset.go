package countries

import "github.com/aristath/marketglobe/internal/domain"

// seed is one entry of the built-in country list.
type seed struct {
	id, name, code string
}

// builtinCountries is the local dataset, in display order. Codes are ISO-3.
var builtinCountries = []seed{
	{"1", "United States", "USA"},
	{"2", "Japan", "JPN"},
	{"3", "United Kingdom", "GBR"},
	{"4", "Germany", "DEU"},
	{"5", "France", "FRA"},
	{"6", "China", "CHN"},
	{"7", "India", "IND"},
	{"8", "Australia", "AUS"},
	{"9", "Canada", "CAN"},
	{"10", "Brazil", "BRA"},
	{"11", "South Korea", "KOR"},
	{"12", "Italy", "ITA"},
	{"13", "Spain", "ESP"},
	{"14", "Mexico", "MEX"},
	{"15", "Russia", "RUS"},
	{"16", "South Africa", "ZAF"},
	{"17", "Singapore", "SGP"},
	{"18", "Malaysia", "MYS"},
	{"19", "Indonesia", "IDN"},
	{"20", "Thailand", "THA"},
	{"21", "Philippines", "PHL"},
	{"22", "Vietnam", "VNM"},
	{"23", "Argentina", "ARG"},
	{"24", "Chile", "CHL"},
	{"25", "Colombia", "COL"},
	{"26", "Peru", "PER"},
	{"27", "Turkey", "TUR"},
	{"28", "Poland", "POL"},
	{"29", "Hungary", "HUN"},
	{"30", "Czech Republic", "CZE"},
	{"31", "Sweden", "SWE"},
	{"32", "Norway", "NOR"},
	{"33", "Denmark", "DNK"},
	{"34", "Finland", "FIN"},
	{"35", "Belgium", "BEL"},
	{"36", "Netherlands", "NLD"},
	{"37", "Switzerland", "CHE"},
	{"38", "Austria", "AUT"},
	{"39", "Portugal", "PRT"},
	{"40", "Greece", "GRC"},
	{"41", "Israel", "ISR"},
	{"42", "Egypt", "EGY"},
	{"43", "Saudi Arabia", "SAU"},
	{"44", "United Arab Emirates", "ARE"},
	{"45", "Qatar", "QAT"},
	{"46", "Kuwait", "KWT"},
	{"47", "Pakistan", "PAK"},
	{"48", "Bangladesh", "BGD"},
	{"49", "New Zealand", "NZL"},
	{"50", "Ireland", "IRL"},
	{"51", "Ukraine", "UKR"},
	{"52", "Luxembourg", "LUX"},
	{"53", "Taiwan", "TWN"},
	{"54", "Hong Kong", "HKG"},
	{"55", "Nigeria", "NGA"},
	{"56", "Kenya", "KEN"},
	{"57", "Morocco", "MAR"},
	{"58", "Jordan", "JOR"},
	{"59", "Bahrain", "BHR"},
	{"60", "Oman", "OMN"},
	{"61", "Sri Lanka", "LKA"},
	{"62", "Albania", "ALB"},
	{"63", "Armenia", "ARM"},
	{"64", "Azerbaijan", "AZE"},
	{"65", "Belarus", "BLR"},
	{"66", "Bosnia and Herzegovina", "BIH"},
	{"67", "Bulgaria", "BGR"},
	{"68", "Croatia", "HRV"},
	{"69", "Cyprus", "CYP"},
	{"70", "Estonia", "EST"},
	{"71", "Georgia", "GEO"},
	{"72", "Iceland", "ISL"},
	{"73", "Kazakhstan", "KAZ"},
	{"74", "Latvia", "LVA"},
	{"75", "Lithuania", "LTU"},
	{"76", "North Macedonia", "MKD"},
	{"77", "Moldova", "MDA"},
	{"78", "Montenegro", "MNE"},
	{"79", "Romania", "ROU"},
	{"80", "Serbia", "SRB"},
	{"81", "Slovakia", "SVK"},
	{"82", "Slovenia", "SVN"},
	{"83", "Algeria", "DZA"},
	{"84", "Angola", "AGO"},
	{"85", "Botswana", "BWA"},
	{"86", "Ivory Coast", "CIV"},
	{"87", "Ethiopia", "ETH"},
	{"88", "Ghana", "GHA"},
	{"89", "Mauritius", "MUS"},
	{"90", "Namibia", "NAM"},
	{"91", "Nicaragua", "NIC"},
	{"92", "Panama", "PAN"},
	{"93", "Paraguay", "PRY"},
	{"94", "Uruguay", "URY"},
	{"95", "Venezuela", "VEN"},
	{"96", "Belize", "BLZ"},
	{"97", "Bolivia", "BOL"},
	{"98", "Costa Rica", "CRI"},
	{"99", "Dominican Republic", "DOM"},
	{"100", "Ecuador", "ECU"},
	{"101", "El Salvador", "SLV"},
	{"102", "Guatemala", "GTM"},
	{"103", "Honduras", "HND"},
	{"104", "Jamaica", "JAM"},
	{"105", "Trinidad and Tobago", "TTO"},
	{"106", "Iran", "IRN"},
	{"107", "Iraq", "IRQ"},
	{"108", "Lebanon", "LBN"},
	{"109", "Libya", "LBY"},
	{"110", "Palestine", "PSE"},
	{"111", "Syria", "SYR"},
	{"112", "Tunisia", "TUN"},
}

// MajorMarkets lists the stock indices shown for each country, keyed by ISO-3 code.
var MajorMarkets = map[string][]string{
	"USA": {"NYSE", "NASDAQ", "S&P 500"},
	"JPN": {"Nikkei 225"},
	"GBR": {"FTSE 100"},
	"DEU": {"DAX"},
	"FRA": {"CAC 40"},
	"CHN": {"Shanghai Composite", "Hang Seng"},
	"IND": {"BSE SENSEX"},
	"AUS": {"ASX 200"},
	"CAN": {"TSX"},
	"BRA": {"BOVESPA"},
	"KOR": {"KOSPI"},
	"ITA": {"FTSE MIB"},
	"ESP": {"IBEX 35"},
	"MEX": {"IPC"},
	"RUS": {"MOEX"},
	"ZAF": {"JSE"},
	"SGP": {"STI"},
	"MYS": {"KLCI"},
	"IDN": {"IDX Composite"},
	"THA": {"SET"},
	"PHL": {"PSEi"},
	"VNM": {"VN-Index"},
	"ARG": {"MERVAL"},
	"CHL": {"IPSA"},
	"COL": {"COLCAP"},
	"PER": {"S&P/BVL"},
	"TUR": {"BIST 100"},
	"POL": {"WIG20"},
	"HUN": {"BUX"},
	"CZE": {"PX"},
	"SWE": {"OMX Stockholm 30"},
	"NOR": {"Oslo Børs"},
	"DNK": {"OMX Copenhagen 20"},
	"FIN": {"OMX Helsinki 25"},
	"BEL": {"BEL 20"},
	"NLD": {"AEX"},
	"CHE": {"SMI"},
	"AUT": {"ATX"},
	"PRT": {"PSI 20"},
	"GRC": {"ATHEX"},
	"ISR": {"TA-35"},
	"EGY": {"EGX 30"},
	"SAU": {"TASI"},
	"ARE": {"ADX"},
	"QAT": {"QE Index"},
	"KWT": {"Kuwait Main Market"},
	"PAK": {"KSE 100"},
	"BGD": {"DSEX"},
	"NZL": {"NZX 50"},
	"IRL": {"ISEQ Overall"},
	"UKR": {"UX Index"},
	"LUX": {"LuxX Index"},
	"TWN": {"TAIEX"},
	"HKG": {"Hang Seng"},
	"NGA": {"NSE ASI"},
	"KEN": {"NSE 20"},
	"MAR": {"MASI"},
	"JOR": {"ASE Index"},
	"BHR": {"Bahrain All Share"},
	"OMN": {"MSM 30"},
	"LKA": {"CSE All-Share"},
	"ALB": {"ALSI"},
	"ARM": {"AMX"},
	"AZE": {"BSE"},
	"BLR": {"BCSE"},
	"BIH": {"SASX-10"},
	"BGR": {"SOFIX"},
	"HRV": {"CROBEX"},
	"CYP": {"CSE Main"},
	"EST": {"OMX Tallinn"},
	"GEO": {"GSX"},
	"ISL": {"ICEX Main"},
	"KAZ": {"KASE"},
	"LVA": {"OMX Riga"},
	"LTU": {"OMX Vilnius"},
	"MKD": {"MBI10"},
	"MDA": {"MOLDEX"},
	"MNE": {"MONEX"},
	"ROU": {"BET"},
	"SRB": {"BELEX15"},
	"SVK": {"SAX"},
	"SVN": {"SBITOP"},
	"DZA": {"SGBV"},
	"AGO": {"BODIVA"},
	"BWA": {"BSE DCI"},
	"CIV": {"BRVM"},
	"ETH": {"ESX"},
	"GHA": {"GSE"},
	"MUS": {"SEMDEX"},
	"NAM": {"NSX"},
	"NIC": {"BCN"},
	"PAN": {"BVP"},
	"PRY": {"BVPASA"},
	"URY": {"BVM"},
	"VEN": {"BVC"},
	"BLZ": {"BSE"},
	"BOL": {"BBV"},
	"CRI": {"BNV"},
	"DOM": {"BVRD"},
	"ECU": {"BVQ"},
	"SLV": {"BVES"},
	"GTM": {"BVG"},
	"HND": {"BVC"},
	"JAM": {"JSE"},
	"TTO": {"TTSE"},
	"IRN": {"TSE"},
	"IRQ": {"ISX"},
	"LBN": {"BSE"},
	"LBY": {"LSM"},
	"PSE": {"PEX"},
	"SYR": {"DSE"},
	"TUN": {"BVMT"},
}

// fallbackCountries is served when no other source is available. It uses
// ISO-2 codes, like the upstream API.
var fallbackCountries = []domain.Country{
	{ID: "US", Name: "United States", ISOCode: "US", Performance: domain.Float(1.2)},
	{ID: "JP", Name: "Japan", ISOCode: "JP", Performance: domain.Float(-0.8)},
	{ID: "GB", Name: "United Kingdom", ISOCode: "GB", Performance: domain.Float(0.5)},
	{ID: "DE", Name: "Germany", ISOCode: "DE", Performance: domain.Float(2.3)},
	{ID: "FR", Name: "France", ISOCode: "FR", Performance: domain.Float(-1.5)},
	{ID: "CN", Name: "China", ISOCode: "CN", Performance: domain.Float(3.1)},
	{ID: "IN", Name: "India", ISOCode: "IN", Performance: domain.Float(2.7)},
	{ID: "BR", Name: "Brazil", ISOCode: "BR", Performance: domain.Float(-2.4)},
	{ID: "CA", Name: "Canada", ISOCode: "CA", Performance: domain.Float(0.9)},
	{ID: "AU", Name: "Australia", ISOCode: "AU", Performance: domain.Float(-0.3)},
}

// alpha3 maps the ISO-2 codes of the fallback list to ISO-3.
var alpha3 = map[string]string{
	"US": "USA", "JP": "JPN", "GB": "GBR", "DE": "DEU", "FR": "FRA",
	"CN": "CHN", "IN": "IND", "BR": "BRA", "CA": "CAN", "AU": "AUS",
}

// FallbackCountries returns a copy of the fixed fallback list.
func FallbackCountries() []domain.Country {
	out := make([]domain.Country, len(fallbackCountries))
	for i, c := range fallbackCountries {
		out[i] = c
		out[i].Performance = domain.Float(*c.Performance)
	}
	return out
}

// marketsFor returns the index names for a 2- or 3-letter code.
func marketsFor(code string) []string {
	if len(code) == 2 {
		code = alpha3[code]
	}
	return MajorMarkets[code]
}
