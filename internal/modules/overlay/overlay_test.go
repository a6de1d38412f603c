package overlay

import (
	"testing"

	"github.com/aristath/marketglobe/internal/domain"
	"github.com/aristath/marketglobe/internal/modules/palette"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var japan = domain.Country{ID: "2", Name: "Japan", ISOCode: "JPN", Performance: domain.Float(3.4)}

func TestOverlay_ClosedView(t *testing.T) {
	o := New(nil)
	v := o.View()
	assert.False(t, v.Open)
	assert.Equal(t, StateClosed, v.State)
	assert.Empty(t, v.Markets)
	assert.NotNil(t, v.News)
}

func TestOverlay_OpenShowsPlaceholder(t *testing.T) {
	o := New(nil)
	o.Open(japan)

	v := o.View()
	assert.True(t, v.Open)
	assert.Equal(t, StateLoading, v.State)
	assert.Equal(t, "Japan", v.CountryName)
	assert.Equal(t, "+3.40%", v.Performance)
	assert.Equal(t, "2", o.CountryID())
	assert.Empty(t, v.Markets)
}

func TestOverlay_Attach(t *testing.T) {
	o := New(nil)
	o.Open(japan)

	ok := o.Attach(&domain.CountryDetail{
		ID:   "2",
		Name: "Japan",
		StockMarkets: []domain.MarketQuote{
			{MarketName: "Nikkei 225", CurrentValue: 27000, PreviousClose: 27500, ChangePercent: -1.82},
		},
		News: []domain.NewsItem{
			{ID: "a", Date: "2023-03-20"},
			{ID: "b", Date: "2023-03-22"},
			{ID: "c", Date: "2023-03-21"},
		},
	})
	require.True(t, ok)

	v := o.View()
	assert.Equal(t, StateReady, v.State)
	require.Len(t, v.Markets, 1)
	assert.Equal(t, "-1.82%", v.Markets[0].Change)
	assert.Equal(t, palette.TrendDown, v.Markets[0].Trend)

	ids := []string{v.News[0].ID, v.News[1].ID, v.News[2].ID}
	assert.Equal(t, []string{"b", "c", "a"}, ids)
}

func TestOverlay_AttachIgnoresOtherCountries(t *testing.T) {
	o := New(nil)
	assert.False(t, o.Attach(&domain.CountryDetail{ID: "2"}), "closed card")

	o.Open(japan)
	assert.False(t, o.Attach(&domain.CountryDetail{ID: "3"}))
	assert.False(t, o.Attach(nil))
	assert.Equal(t, StateLoading, o.View().State)
}

func TestOverlay_ReopenClearsDetail(t *testing.T) {
	o := New(nil)
	o.Open(japan)
	require.True(t, o.Attach(&domain.CountryDetail{ID: "2"}))

	o.Open(domain.Country{ID: "4", Name: "Germany"})
	assert.Equal(t, StateLoading, o.View().State)
	assert.Equal(t, "N/A", o.View().Performance)
}

func TestOverlay_CloseCallsOwner(t *testing.T) {
	calls := 0
	o := New(func() { calls++ })
	o.Open(japan)

	o.Close()
	assert.False(t, o.IsOpen())
	assert.Equal(t, "", o.CountryID())
	assert.Equal(t, 1, calls)
}

func TestSortNews_DoesNotMutateInput(t *testing.T) {
	in := []domain.NewsItem{{ID: "old", Date: "2023-01-01"}, {ID: "new", Date: "2023-02-01"}}
	out := SortNews(in)
	assert.Equal(t, "new", out[0].ID)
	assert.Equal(t, "old", in[0].ID)
}
