package interaction

import (
	"strings"

	"github.com/aristath/marketglobe/internal/domain"
	"github.com/aristath/marketglobe/internal/geo"
)

// FocusSource names where a camera target came from.
type FocusSource string

const (
	FocusLabel    FocusSource = "label"
	FocusCentroid FocusSource = "centroid"
	FocusTable    FocusSource = "table"
	FocusNone     FocusSource = "none"
)

type knownLocation struct {
	iso2, iso3 string
	at         domain.LatLng
}

// knownLocations is used when a country's geometry cannot be found.
var knownLocations = []knownLocation{
	{"US", "USA", domain.LatLng{Lat: 37.0902, Lng: -95.7129}},
	{"GB", "GBR", domain.LatLng{Lat: 55.3781, Lng: -3.4360}},
	{"JP", "JPN", domain.LatLng{Lat: 36.2048, Lng: 138.2529}},
	{"DE", "DEU", domain.LatLng{Lat: 51.1657, Lng: 10.4515}},
	{"FR", "FRA", domain.LatLng{Lat: 46.2276, Lng: 2.2137}},
	{"CN", "CHN", domain.LatLng{Lat: 35.8617, Lng: 104.1954}},
	{"IN", "IND", domain.LatLng{Lat: 20.5937, Lng: 78.9629}},
	{"BR", "BRA", domain.LatLng{Lat: -14.2350, Lng: -51.9253}},
	{"CA", "CAN", domain.LatLng{Lat: 56.1304, Lng: -106.3468}},
	{"AU", "AUS", domain.LatLng{Lat: -25.2744, Lng: 133.7751}},
	{"RU", "RUS", domain.LatLng{Lat: 61.5240, Lng: 105.3188}},
	{"MX", "MEX", domain.LatLng{Lat: 23.6345, Lng: -102.5528}},
	{"IT", "ITA", domain.LatLng{Lat: 41.8719, Lng: 12.5674}},
	{"ES", "ESP", domain.LatLng{Lat: 40.4637, Lng: -3.7492}},
	{"KR", "KOR", domain.LatLng{Lat: 35.9078, Lng: 127.7669}},
	{"ZA", "ZAF", domain.LatLng{Lat: -30.5595, Lng: 22.9375}},
	{"AR", "ARG", domain.LatLng{Lat: -38.4161, Lng: -63.6167}},
	{"TR", "TUR", domain.LatLng{Lat: 38.9637, Lng: 35.2433}},
	{"SA", "SAU", domain.LatLng{Lat: 23.8859, Lng: 45.0792}},
	{"ID", "IDN", domain.LatLng{Lat: -0.7893, Lng: 113.9213}},
	{"NL", "NLD", domain.LatLng{Lat: 52.1326, Lng: 5.2913}},
	{"CH", "CHE", domain.LatLng{Lat: 46.8182, Lng: 8.2275}},
	{"SE", "SWE", domain.LatLng{Lat: 60.1282, Lng: 18.6435}},
	{"PL", "POL", domain.LatLng{Lat: 51.9194, Lng: 19.1451}},
	{"BE", "BEL", domain.LatLng{Lat: 50.5039, Lng: 4.4699}},
	{"TH", "THA", domain.LatLng{Lat: 15.8700, Lng: 100.9925}},
	{"IR", "IRN", domain.LatLng{Lat: 32.4279, Lng: 53.6880}},
	{"NG", "NGA", domain.LatLng{Lat: 9.0820, Lng: 8.6753}},
	{"VN", "VNM", domain.LatLng{Lat: 14.0583, Lng: 108.2772}},
	{"EG", "EGY", domain.LatLng{Lat: 26.8206, Lng: 30.8025}},
}

// KnownLocation returns the fixed coordinates for a 2- or 3-letter code.
func KnownLocation(code string) (domain.LatLng, bool) {
	code = strings.ToUpper(code)
	for _, k := range knownLocations {
		if code == k.iso2 || code == k.iso3 {
			return k.at, true
		}
	}
	return domain.LatLng{}, false
}

// Focus returns where the camera should look for a country: the feature's
// label coordinates, then its spherical centroid, then the fixed table.
// f may be nil when the feature is unknown.
func Focus(c domain.Country, f *geo.Feature) (domain.LatLng, FocusSource) {
	if f != nil {
		if at, ok := f.LabelAnchor(); ok {
			return domain.LatLng{Lat: at.Lat(), Lng: at.Lon()}, FocusLabel
		}
		if at, ok := geo.SphericalCentroid(f.Geometry); ok {
			return domain.LatLng{Lat: at.Lat(), Lng: at.Lon()}, FocusCentroid
		}
	}
	if at, ok := KnownLocation(c.ISOCode); ok {
		return at, FocusTable
	}
	return domain.LatLng{}, FocusNone
}

// CentroidFocus prefers the geometric centroid; it is used to turn the
// orthographic globe towards a searched country.
func CentroidFocus(c domain.Country, f *geo.Feature) (domain.LatLng, FocusSource) {
	if f != nil {
		if at, ok := geo.SphericalCentroid(f.Geometry); ok {
			return domain.LatLng{Lat: at.Lat(), Lng: at.Lon()}, FocusCentroid
		}
	}
	return Focus(c, f)
}
