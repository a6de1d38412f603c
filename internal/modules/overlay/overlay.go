// Package overlay is the display model of the country detail card.
package overlay

import (
	"sort"

	"github.com/aristath/marketglobe/internal/domain"
	"github.com/aristath/marketglobe/internal/modules/palette"
)

// State of the card.
type State string

const (
	StateClosed  State = "closed"
	StateLoading State = "loading"
	StateReady   State = "ready"
)

// MarketView is one formatted quote row.
type MarketView struct {
	Name          string        `json:"name" msgpack:"name"`
	CurrentValue  float64       `json:"currentValue" msgpack:"currentValue"`
	PreviousClose float64       `json:"previousClose" msgpack:"previousClose"`
	Change        string        `json:"change" msgpack:"change"`
	Trend         palette.Trend `json:"trend" msgpack:"trend"`
	Color         string        `json:"color" msgpack:"color"`
	Volume        string        `json:"volume,omitempty" msgpack:"volume,omitempty"`
	MovingAverage *float64      `json:"movingAverage,omitempty" msgpack:"movingAverage,omitempty"`
}

// View is what the client renders.
type View struct {
	Open        bool              `json:"open" msgpack:"open"`
	State       State             `json:"state" msgpack:"state"`
	CountryID   string            `json:"countryId,omitempty" msgpack:"countryId,omitempty"`
	CountryName string            `json:"countryName,omitempty" msgpack:"countryName,omitempty"`
	Performance string            `json:"performance,omitempty" msgpack:"performance,omitempty"`
	Color       string            `json:"color,omitempty" msgpack:"color,omitempty"`
	Markets     []MarketView      `json:"markets" msgpack:"markets"`
	News        []domain.NewsItem `json:"news" msgpack:"news"`
}

// Overlay holds the card for one session. It is not safe for concurrent
// use; the owning controller serializes access.
type Overlay struct {
	country *domain.Country
	detail  *domain.CountryDetail
	onClose func()
}

// New creates a closed overlay. onClose runs whenever Close is called.
func New(onClose func()) *Overlay {
	return &Overlay{onClose: onClose}
}

// Open shows the card for c with a placeholder body.
func (o *Overlay) Open(c domain.Country) {
	o.country = &c
	o.detail = nil
}

// Attach fills the card with detail data. Data for any country other than
// the one shown is ignored; the return value reports whether it was used.
func (o *Overlay) Attach(d *domain.CountryDetail) bool {
	if o.country == nil || d == nil || d.ID != o.country.ID {
		return false
	}
	o.detail = d
	return true
}

// Close hides the card and notifies the owner.
func (o *Overlay) Close() {
	o.country = nil
	o.detail = nil
	if o.onClose != nil {
		o.onClose()
	}
}

// IsOpen reports whether the card is visible.
func (o *Overlay) IsOpen() bool {
	return o.country != nil
}

// CountryID returns the ID of the shown country, or "".
func (o *Overlay) CountryID() string {
	if o.country == nil {
		return ""
	}
	return o.country.ID
}

// View renders the current state.
func (o *Overlay) View() View {
	if o.country == nil {
		return View{State: StateClosed, Markets: []MarketView{}, News: []domain.NewsItem{}}
	}

	v := View{
		Open:        true,
		State:       StateLoading,
		CountryID:   o.country.ID,
		CountryName: o.country.Name,
		Performance: palette.FormatPercent(o.country.Performance),
		Color:       palette.ColorFor(o.country.Performance).Hex(),
		Markets:     []MarketView{},
		News:        []domain.NewsItem{},
	}
	if o.detail == nil {
		return v
	}

	v.State = StateReady
	if o.detail.Name != "" {
		v.CountryName = o.detail.Name
	}
	for _, q := range o.detail.StockMarkets {
		v.Markets = append(v.Markets, marketView(q))
	}
	v.News = SortNews(o.detail.News)
	return v
}

func marketView(q domain.MarketQuote) MarketView {
	change := q.ChangePercent
	return MarketView{
		Name:          q.MarketName,
		CurrentValue:  q.CurrentValue,
		PreviousClose: q.PreviousClose,
		Change:        palette.FormatPercent(&change),
		Trend:         palette.TrendOf(change),
		Color:         palette.ColorFor(&change).Hex(),
		Volume:        q.Volume,
		MovingAverage: q.MovingAverage,
	}
}

// SortNews returns a copy of items ordered newest first. Dates are
// YYYY-MM-DD, so they compare lexically; ties keep their input order.
func SortNews(items []domain.NewsItem) []domain.NewsItem {
	out := make([]domain.NewsItem, len(items))
	copy(out, items)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date > out[j].Date
	})
	return out
}
