// Package domain holds the shared data model of the market globe.
package domain

import "errors"

// Sentinel errors shared across modules.
var (
	ErrCountryNotFound  = errors.New("country not found")
	ErrGeometryNotReady = errors.New("geometry not ready")
	ErrNoMatch          = errors.New("no matching country")
)

// Country is one market with its latest performance.
// Performance is a percentage; nil means no data.
type Country struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	ISOCode     string   `json:"isoCode"`
	Performance *float64 `json:"stockMarketChange,omitempty"`
}

// HasData reports whether the country carries a performance value.
func (c Country) HasData() bool {
	return c.Performance != nil
}

// MarketQuote is a stock index snapshot for a country.
type MarketQuote struct {
	MarketName    string   `json:"marketName"`
	CurrentValue  float64  `json:"currentValue"`
	PreviousClose float64  `json:"previousClose"`
	ChangePercent float64  `json:"change"`
	Volume        string   `json:"volume,omitempty"`
	MovingAverage *float64 `json:"movingAverage,omitempty"`
}

// NewsItem is a headline attached to a country's detail view.
type NewsItem struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Source  string `json:"source"`
	URL     string `json:"url"`
	Date    string `json:"date"` // YYYY-MM-DD
	Summary string `json:"summary"`
}

// CountryDetail is the payload of the detail overlay.
type CountryDetail struct {
	ID           string        `json:"id"`
	Name         string        `json:"name"`
	StockMarkets []MarketQuote `json:"stockMarkets"`
	News         []NewsItem    `json:"news"`
}

// LatLng is a geographic point in degrees.
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Float returns a pointer to v.
func Float(v float64) *float64 {
	return &v
}
