// Package geometry downloads the world country boundaries.
package geometry

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/aristath/marketglobe/internal/clientdata"
	"github.com/aristath/marketglobe/internal/geo"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

// maxBodySize caps the GeoJSON download.
const maxBodySize = 64 << 20

// Result is a decoded feature collection and whether it came from an
// expired cache entry.
type Result struct {
	Collection *geo.FeatureCollection
	Stale      bool
}

// Client fetches the GeoJSON feature collection. Concurrent fetches of the
// same URL share one request.
type Client struct {
	url       string
	client    *http.Client
	log       zerolog.Logger
	cacheRepo *clientdata.Repository
	group     singleflight.Group
}

// NewClient creates a geometry client.
// cacheRepo is optional - if nil, caching is disabled
func NewClient(url string, cacheRepo *clientdata.Repository, log zerolog.Logger) *Client {
	return &Client{
		url:       url,
		client:    &http.Client{Timeout: 30 * time.Second},
		log:       log.With().Str("client", "geometry").Logger(),
		cacheRepo: cacheRepo,
	}
}

// URL returns the source URL.
func (c *Client) URL() string {
	return c.url
}

// Fetch returns the feature collection: fresh cache first, then the network,
// then stale cache.
func (c *Client) Fetch(ctx context.Context) (*Result, error) {
	v, err, shared := c.group.Do(c.url, func() (interface{}, error) {
		return c.fetch(ctx)
	})
	if err != nil {
		return nil, err
	}
	if shared {
		c.log.Debug().Msg("Joined in-flight geometry fetch")
	}
	return v.(*Result), nil
}

func (c *Client) fetch(ctx context.Context) (*Result, error) {
	if fc, ok := c.fromCache(true); ok {
		c.log.Debug().Int("features", len(fc.Features)).Msg("Geometry cache hit")
		return &Result{Collection: fc}, nil
	}

	body, err := c.download(ctx)
	if err == nil {
		var fc *geo.FeatureCollection
		fc, err = geo.Decode(body)
		if err == nil {
			c.store(body)
			c.log.Info().Int("features", len(fc.Features)).Int("bytes", len(body)).Msg("Fetched geometry")
			return &Result{Collection: fc}, nil
		}
	}

	if fc, ok := c.fromCache(false); ok {
		c.log.Warn().Err(err).Msg("Geometry fetch failed, using stale cache")
		return &Result{Collection: fc, Stale: true}, nil
	}
	return nil, err
}

func (c *Client) download(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/geo+json, application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("geometry request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("geometry source returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("failed to read geometry: %w", err)
	}
	return body, nil
}

func (c *Client) fromCache(fresh bool) (*geo.FeatureCollection, bool) {
	if c.cacheRepo == nil {
		return nil, false
	}

	get := c.cacheRepo.Get
	if fresh {
		get = c.cacheRepo.GetIfFresh
	}

	data, err := get(clientdata.TableGeometry, c.url)
	if err != nil || data == nil {
		return nil, false
	}
	fc, err := geo.Decode(data)
	if err != nil {
		c.log.Warn().Err(err).Msg("Discarding undecodable cached geometry")
		return nil, false
	}
	return fc, true
}

func (c *Client) store(body []byte) {
	if c.cacheRepo == nil {
		return
	}
	if err := c.cacheRepo.Store(clientdata.TableGeometry, c.url, json.RawMessage(body), clientdata.TTLGeometry); err != nil {
		c.log.Warn().Err(err).Msg("Failed to cache geometry")
	}
}
