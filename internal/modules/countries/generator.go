package countries

import (
	"fmt"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/aristath/marketglobe/internal/domain"
	"github.com/aristath/marketglobe/pkg/formulas"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	// performanceRange bounds generated performance to [-5, 5].
	performanceRange = 5.0
	// movingAverageWindow is the length of the synthetic close series.
	movingAverageWindow = 20
)

// newsTemplate is a headline with a %s placeholder for the country name.
type newsTemplate struct {
	title   string
	source  string
	date    string
	summary string
}

var newsTemplates = []newsTemplate{
	{
		title:   "%s's Economy Shows Signs of Recovery",
		source:  "Financial Times",
		date:    "2023-03-22",
		summary: "Analysts point to stronger output and hiring data as %s's economy regains momentum.",
	},
	{
		title:   "Inflation Concerns Rise in %s",
		source:  "Bloomberg",
		date:    "2023-03-21",
		summary: "Consumer prices in %s climbed faster than expected, raising pressure on policymakers.",
	},
	{
		title:   "%s's Market Volatility Increases",
		source:  "Reuters",
		date:    "2023-03-20",
		summary: "Trading in %s has turned choppy as investors weigh rates and earnings.",
	},
}

// Generator produces plausible mock market data. It is safe for concurrent use.
type Generator struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewGenerator creates a generator. A zero seed uses the current time.
func NewGenerator(seed int64) *Generator {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Generator{rng: rand.New(rand.NewSource(seed))}
}

func (g *Generator) float() float64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.rng.Float64()
}

func (g *Generator) intn(n int) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.rng.Intn(n)
}

// Performance returns a random percentage in [-5, 5] with two decimals.
func (g *Generator) Performance() float64 {
	return formulas.Round(g.float()*2*performanceRange-performanceRange, 2)
}

// Countries returns the built-in dataset with fresh random performance.
func (g *Generator) Countries() []domain.Country {
	out := make([]domain.Country, len(builtinCountries))
	for i, s := range builtinCountries {
		out[i] = domain.Country{
			ID:          s.id,
			Name:        s.name,
			ISOCode:     s.code,
			Performance: domain.Float(g.Performance()),
		}
	}
	return out
}

// Detail generates quotes for the country's major indices and templated news.
func (g *Generator) Detail(c domain.Country) *domain.CountryDetail {
	markets := marketsFor(c.ISOCode)
	detail := &domain.CountryDetail{
		ID:           c.ID,
		Name:         c.Name,
		StockMarkets: make([]domain.MarketQuote, 0, len(markets)),
		News:         News(c.Name),
	}

	for _, name := range markets {
		detail.StockMarkets = append(detail.StockMarkets, g.quote(name))
	}
	return detail
}

func (g *Generator) quote(marketName string) domain.MarketQuote {
	value := decimal.NewFromInt(int64(g.intn(30000) + 1000))
	change := decimal.NewFromFloat(g.Performance())

	prev := PreviousClose(value, change)
	closes := g.closeSeries(value.InexactFloat64(), prev.InexactFloat64())

	var ma *float64
	if sma := formulas.SMA(closes, movingAverageWindow); sma != nil {
		ma = domain.Float(formulas.Round(*sma, 2))
	}

	return domain.MarketQuote{
		MarketName:    marketName,
		CurrentValue:  value.InexactFloat64(),
		PreviousClose: prev.InexactFloat64(),
		ChangePercent: ChangePercent(value, prev).InexactFloat64(),
		Volume:        fmt.Sprintf("%dM", g.intn(900)+100),
		MovingAverage: ma,
	}
}

// closeSeries walks backwards from the latest two closes with daily moves
// of at most 2%.
func (g *Generator) closeSeries(current, previous float64) []float64 {
	closes := make([]float64, movingAverageWindow)
	closes[len(closes)-1] = current
	closes[len(closes)-2] = previous
	for i := len(closes) - 3; i >= 0; i-- {
		move := (g.float()*4 - 2) / 100
		closes[i] = closes[i+1] / (1 + move)
	}
	return closes
}

// PreviousClose derives the prior close from the current value and a
// percentage change, rounded to cents.
func PreviousClose(value, changePercent decimal.Decimal) decimal.Decimal {
	factor := decimal.NewFromInt(1).Add(changePercent.Div(decimal.NewFromInt(100)))
	if factor.IsZero() {
		return value
	}
	return value.Div(factor).Round(2)
}

// ChangePercent returns (value - prev) / prev * 100 with two decimals.
func ChangePercent(value, prev decimal.Decimal) decimal.Decimal {
	if prev.IsZero() {
		return decimal.Zero
	}
	return value.Sub(prev).Div(prev).Mul(decimal.NewFromInt(100)).Round(2)
}

// News returns the templated headlines for a country, newest first.
func News(countryName string) []domain.NewsItem {
	items := make([]domain.NewsItem, len(newsTemplates))
	for i, t := range newsTemplates {
		items[i] = domain.NewsItem{
			ID:      uuid.NewSHA1(uuid.NameSpaceURL, []byte(countryName+"/"+t.date+"/"+t.source)).String(),
			Title:   fmt.Sprintf(t.title, countryName),
			Source:  t.source,
			URL:     "#",
			Date:    t.date,
			Summary: fmt.Sprintf(t.summary, countryName),
		}
	}
	return items
}

// clampPerformance keeps upstream values finite; non-finite becomes no data.
func clampPerformance(p *float64) *float64 {
	if p == nil || math.IsNaN(*p) || math.IsInf(*p, 0) {
		return nil
	}
	return p
}
