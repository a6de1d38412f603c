package marketdata

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aristath/marketglobe/internal/clientdata"
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupCache(t *testing.T) *clientdata.Repository {
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`
		CREATE TABLE country_list (source TEXT PRIMARY KEY, data TEXT NOT NULL, expires_at INTEGER NOT NULL);
		CREATE TABLE country_details (country_id TEXT PRIMARY KEY, data TEXT NOT NULL, expires_at INTEGER NOT NULL);
	`)
	require.NoError(t, err)
	return clientdata.NewRepository(db)
}

func quietLog() zerolog.Logger {
	return zerolog.New(nil).Level(zerolog.Disabled)
}

func TestFetchCountries(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		assert.Equal(t, "/api/countries", r.URL.Path)
		_, _ = w.Write([]byte(`[{"id":"US","name":"United States","isoCode":"US","stockMarketChange":1.5},{"id":"JP","name":"Japan"}]`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, setupCache(t), quietLog())

	countries, err := c.FetchCountries(context.Background())
	require.NoError(t, err)
	require.Len(t, countries, 2)
	assert.Equal(t, 1.5, *countries[0].Performance)
	assert.Nil(t, countries[1].Performance)

	// Second call is served from the fresh cache
	_, err = c.FetchCountries(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
}

func TestFetchCountries_StaleFallback(t *testing.T) {
	cache := setupCache(t)
	require.NoError(t, cache.Store(clientdata.TableCountryList, countryListKey,
		[]map[string]interface{}{{"id": "DE", "name": "Germany"}}, -time.Hour))

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, cache, quietLog())
	countries, err := c.FetchCountries(context.Background())
	require.NoError(t, err)
	require.Len(t, countries, 1)
	assert.Equal(t, "Germany", countries[0].Name)
}

func TestFetchCountries_ErrorWithoutCache(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, nil, quietLog())
	_, err := c.FetchCountries(context.Background())
	assert.Error(t, err)
}

func TestFetchDetail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/countries/JP", r.URL.Path)
		_, _ = w.Write([]byte(`{"id":"JP","name":"Japan","stockMarkets":[{"marketName":"Nikkei 225","currentValue":100,"previousClose":99,"change":1.01}],"news":[]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, setupCache(t), quietLog())
	detail, err := c.FetchDetail(context.Background(), "JP")
	require.NoError(t, err)
	assert.Equal(t, "Japan", detail.Name)
	require.Len(t, detail.StockMarkets, 1)
	assert.Equal(t, 1.01, detail.StockMarkets[0].ChangePercent)
}

func TestDisabled(t *testing.T) {
	c := NewClient("", nil, quietLog())
	assert.False(t, c.Enabled())

	_, err := c.FetchCountries(context.Background())
	assert.ErrorIs(t, err, ErrDisabled)
	_, err = c.FetchDetail(context.Background(), "US")
	assert.ErrorIs(t, err, ErrDisabled)
}
