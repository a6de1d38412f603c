// Package globe renders the orthographic market globe: it owns the loaded
// country geometry, the per-view renderer state machine and frame output.
package globe

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/aristath/marketglobe/internal/clients/geometry"
	"github.com/aristath/marketglobe/internal/domain"
	"github.com/aristath/marketglobe/internal/events"
	"github.com/aristath/marketglobe/internal/geo"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

// State is a renderer state.
type State string

const (
	StateUninitialized   State = "uninitialized"
	StateGeometryLoading State = "geometry_loading"
	StateReady           State = "ready"
	StateRotating        State = "rotating"
)

// Fetcher downloads the raw feature collection.
type Fetcher interface {
	Fetch(ctx context.Context) (*geometry.Result, error)
}

// Status describes the loaded geometry.
type Status struct {
	State     State               `json:"state"`
	Features  int                 `json:"features"`
	Stale     bool                `json:"stale"`
	LoadedAt  *time.Time          `json:"loadedAt,omitempty"`
	LastError string              `json:"lastError,omitempty"`
	Stats     geo.PreprocessStats `json:"stats"`
}

// Store holds the preprocessed geometry shared by every view. Once
// published, the feature slice is never mutated.
type Store struct {
	fetcher Fetcher
	events  *events.Manager
	log     zerolog.Logger
	group   singleflight.Group

	mu       sync.RWMutex
	state    State
	features []geo.Feature
	stats    geo.PreprocessStats
	stale    bool
	loadedAt time.Time
	lastErr  string
}

// NewStore creates an empty geometry store.
func NewStore(fetcher Fetcher, eventManager *events.Manager, log zerolog.Logger) *Store {
	return &Store{
		fetcher: fetcher,
		events:  eventManager,
		log:     log.With().Str("component", "globe_store").Logger(),
		state:   StateUninitialized,
	}
}

// Load fetches and preprocesses the geometry. Concurrent calls share one
// load. Once fresh geometry is loaded further calls return immediately;
// geometry served from a stale cache is reloaded on the next call.
//
// A failure leaves the store in GeometryLoading (or Ready with the
// previous geometry) and is returned to the caller.
func (s *Store) Load(ctx context.Context) error {
	s.mu.Lock()
	if s.state == StateReady && !s.stale {
		s.mu.Unlock()
		return nil
	}
	if s.state == StateUninitialized {
		s.state = StateGeometryLoading
	}
	s.mu.Unlock()

	_, err, _ := s.group.Do("load", func() (interface{}, error) {
		return nil, s.load(ctx)
	})
	return err
}

func (s *Store) load(ctx context.Context) error {
	res, err := s.fetcher.Fetch(ctx)
	if err == nil && (res == nil || res.Collection == nil) {
		err = errors.New("empty geometry response")
	}
	if err != nil {
		return s.fail(fmt.Errorf("failed to fetch geometry: %w", err))
	}

	fc, stats := geo.Preprocess(res.Collection)
	if len(fc.Features) == 0 {
		return s.fail(errors.New("geometry contains no usable features"))
	}

	s.mu.Lock()
	s.features = fc.Features
	s.stats = stats
	s.stale = res.Stale
	s.loadedAt = time.Now()
	s.lastErr = ""
	s.state = StateReady
	s.mu.Unlock()

	s.log.Info().
		Int("input", stats.Input).
		Int("kept", stats.Kept).
		Int("dropped_rings", stats.DroppedRings).
		Int("dropped_features", stats.DroppedFeatures).
		Int("malformed", stats.Malformed).
		Bool("stale", res.Stale).
		Msg("Geometry loaded")

	s.events.Emit("globe", &events.GeometryLoadedData{Features: stats.Kept, Stale: res.Stale})
	return nil
}

func (s *Store) fail(err error) error {
	s.mu.Lock()
	s.lastErr = err.Error()
	s.mu.Unlock()

	s.log.Warn().Err(err).Msg("Geometry unavailable, renderer stays in loading state")
	s.events.Emit("globe", &events.GeometryFailedData{Error: err.Error()})
	return err
}

// State returns the geometry state: Uninitialized, GeometryLoading or Ready.
func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Features returns the published features. The slice must not be modified.
func (s *Store) Features() ([]geo.Feature, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state != StateReady {
		return nil, domain.ErrGeometryNotReady
	}
	return s.features, nil
}

// Status reports the store state for diagnostics.
func (s *Store) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := Status{
		State:     s.state,
		Features:  len(s.features),
		Stale:     s.stale,
		LastError: s.lastErr,
		Stats:     s.stats,
	}
	if !s.loadedAt.IsZero() {
		t := s.loadedAt
		st.LoadedAt = &t
	}
	return st
}

// LoadJob retries the geometry load from the scheduler until it succeeds
// with fresh data.
type LoadJob struct {
	store   *Store
	timeout time.Duration
}

// NewLoadJob creates the geometry retry job.
func NewLoadJob(store *Store) *LoadJob {
	return &LoadJob{store: store, timeout: time.Minute}
}

// Run loads the geometry if it is missing or stale.
func (j *LoadJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()
	return j.store.Load(ctx)
}

// Name returns the job name for scheduling and logging.
func (j *LoadJob) Name() string {
	return "geometry_load"
}
