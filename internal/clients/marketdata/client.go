// Package marketdata fetches country performance and detail data from the
// optional upstream market API.
package marketdata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/aristath/marketglobe/internal/clientdata"
	"github.com/aristath/marketglobe/internal/domain"
	"github.com/rs/zerolog"
)

// ErrDisabled is returned when no upstream URL is configured.
var ErrDisabled = errors.New("market API not configured")

const countryListKey = "upstream"

// Client for the upstream market API
type Client struct {
	baseURL   string
	client    *http.Client
	log       zerolog.Logger
	cacheRepo *clientdata.Repository
}

// NewClient creates a new market API client.
// cacheRepo is optional - if nil, caching is disabled
func NewClient(baseURL string, cacheRepo *clientdata.Repository, log zerolog.Logger) *Client {
	return &Client{
		baseURL:   baseURL,
		client:    &http.Client{Timeout: 10 * time.Second},
		log:       log.With().Str("client", "market-api").Logger(),
		cacheRepo: cacheRepo,
	}
}

// Enabled reports whether an upstream URL is configured.
func (c *Client) Enabled() bool {
	return c != nil && c.baseURL != ""
}

// FetchCountries returns the upstream country list.
// If the API fails, returns stale cached data if available.
func (c *Client) FetchCountries(ctx context.Context) ([]domain.Country, error) {
	if !c.Enabled() {
		return nil, ErrDisabled
	}

	var countries []domain.Country
	if c.fromCache(clientdata.TableCountryList, countryListKey, true, &countries) {
		c.log.Debug().Int("count", len(countries)).Msg("Country list cache hit")
		return countries, nil
	}

	if err := c.getJSON(ctx, "/api/countries", &countries); err != nil {
		if c.fromCache(clientdata.TableCountryList, countryListKey, false, &countries) {
			c.log.Warn().Err(err).Msg("API failed, using stale cached country list")
			return countries, nil
		}
		return nil, err
	}

	c.store(clientdata.TableCountryList, countryListKey, countries, clientdata.TTLCountryList)
	c.log.Info().Int("count", len(countries)).Msg("Fetched country list")
	return countries, nil
}

// FetchDetail returns the upstream detail for one country.
// If the API fails, returns stale cached data if available.
func (c *Client) FetchDetail(ctx context.Context, id string) (*domain.CountryDetail, error) {
	if !c.Enabled() {
		return nil, ErrDisabled
	}

	var detail domain.CountryDetail
	if c.fromCache(clientdata.TableCountryDetails, id, true, &detail) {
		return &detail, nil
	}

	if err := c.getJSON(ctx, "/api/countries/"+url.PathEscape(id), &detail); err != nil {
		if c.fromCache(clientdata.TableCountryDetails, id, false, &detail) {
			c.log.Warn().Err(err).Str("country", id).Msg("API failed, using stale cached detail")
			return &detail, nil
		}
		return nil, err
	}

	c.store(clientdata.TableCountryDetails, id, detail, clientdata.TTLCountryDetail)
	return &detail, nil
}

func (c *Client) getJSON(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("API returned status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

// fromCache decodes a cached entry into out. fresh selects GetIfFresh over
// the stale Get fallback.
func (c *Client) fromCache(table, key string, fresh bool, out interface{}) bool {
	if c.cacheRepo == nil {
		return false
	}

	get := c.cacheRepo.Get
	if fresh {
		get = c.cacheRepo.GetIfFresh
	}

	data, err := get(table, key)
	if err != nil || data == nil {
		return false
	}
	return json.Unmarshal(data, out) == nil
}

func (c *Client) store(table, key string, data interface{}, ttl time.Duration) {
	if c.cacheRepo == nil {
		return
	}
	if err := c.cacheRepo.Store(table, key, data, ttl); err != nil {
		c.log.Warn().Err(err).Str("table", table).Str("key", key).Msg("Failed to cache response")
	}
}
