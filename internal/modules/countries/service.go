// Package countries owns the country dataset: where it comes from, how it
// is refreshed, and how it is searched.
package countries

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/aristath/marketglobe/internal/domain"
	"github.com/aristath/marketglobe/internal/events"
	"github.com/rs/zerolog"
)

// Snapshot sources.
const (
	SourceUpstream  = "upstream"
	SourceLocal     = "local"
	SourceFallback  = "fallback"
	SourceGenerated = "generated"
)

// Upstream is the optional remote market API.
type Upstream interface {
	Enabled() bool
	FetchCountries(ctx context.Context) ([]domain.Country, error)
	FetchDetail(ctx context.Context, id string) (*domain.CountryDetail, error)
}

// Service serves immutable snapshots of the dataset. Refresh builds a new
// snapshot and swaps it in atomically; readers always get copies.
type Service struct {
	upstream  Upstream
	repo      *Repository
	generator *Generator
	events    *events.Manager
	log       zerolog.Logger

	mu       sync.RWMutex
	snapshot []domain.Country
	byID     map[string]int
	source   string
}

// NewService creates the dataset service. upstream and repo may be nil.
func NewService(upstream Upstream, repo *Repository, generator *Generator, eventManager *events.Manager, log zerolog.Logger) *Service {
	return &Service{
		upstream:  upstream,
		repo:      repo,
		generator: generator,
		events:    eventManager,
		log:       log.With().Str("service", "countries").Logger(),
	}
}

// Refresh reloads the dataset. With an upstream configured the upstream list
// is used; otherwise the local repository is refreshed with generated
// performance. Any failure falls back to the fixed list, so Refresh only
// errors when ctx is done.
func (s *Service) Refresh(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	countries, source := s.load(ctx)
	s.publish(countries, source)

	s.events.Emit("countries", &events.CountriesRefreshedData{Count: len(countries), Source: source})
	return nil
}

func (s *Service) load(ctx context.Context) ([]domain.Country, string) {
	if s.upstream != nil && s.upstream.Enabled() {
		countries, err := s.upstream.FetchCountries(ctx)
		if err == nil && len(countries) > 0 {
			s.persist(countries)
			return sanitize(countries), SourceUpstream
		}
		s.log.Warn().Err(err).Msg("Upstream country list unavailable, using fallback list")
		return FallbackCountries(), SourceFallback
	}

	generated := s.generator.Countries()
	if s.repo == nil {
		return generated, SourceGenerated
	}

	if err := s.repo.ReplaceAll(generated); err != nil {
		s.log.Warn().Err(err).Msg("Failed to store generated countries, using fallback list")
		return FallbackCountries(), SourceFallback
	}
	stored, err := s.repo.GetAll()
	if err != nil || len(stored) == 0 {
		s.log.Warn().Err(err).Msg("Failed to read countries, using fallback list")
		return FallbackCountries(), SourceFallback
	}
	return stored, SourceLocal
}

func (s *Service) persist(countries []domain.Country) {
	if s.repo == nil {
		return
	}
	if err := s.repo.ReplaceAll(countries); err != nil {
		s.log.Warn().Err(err).Msg("Failed to persist upstream countries")
	}
}

func sanitize(countries []domain.Country) []domain.Country {
	out := make([]domain.Country, 0, len(countries))
	for _, c := range countries {
		if c.ID == "" {
			continue
		}
		if c.ISOCode == "" && (len(c.ID) == 2 || len(c.ID) == 3) {
			c.ISOCode = strings.ToUpper(c.ID)
		}
		c.Performance = clampPerformance(c.Performance)
		out = append(out, c)
	}
	return out
}

func (s *Service) publish(countries []domain.Country, source string) {
	byID := make(map[string]int, len(countries))
	for i, c := range countries {
		byID[c.ID] = i
	}

	s.mu.Lock()
	s.snapshot = countries
	s.byID = byID
	s.source = source
	s.mu.Unlock()

	s.log.Info().Int("count", len(countries)).Str("source", source).Msg("Country dataset refreshed")
}

// List returns a copy of the current snapshot in load order. Before the
// first refresh this is the fallback list.
func (s *Service) List() []domain.Country {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.snapshot == nil {
		return FallbackCountries()
	}
	return copyCountries(s.snapshot)
}

// Source reports where the current snapshot came from.
func (s *Service) Source() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.snapshot == nil {
		return SourceFallback
	}
	return s.source
}

// Get returns one country by ID.
func (s *Service) Get(id string) (domain.Country, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.snapshot == nil {
		for _, c := range FallbackCountries() {
			if c.ID == id {
				return c, nil
			}
		}
	} else if i, ok := s.byID[id]; ok {
		return copyCountry(s.snapshot[i]), nil
	}
	return domain.Country{}, fmt.Errorf("country %s: %w", id, domain.ErrCountryNotFound)
}

// Detail returns market and news data for a country: upstream when
// available, generated otherwise.
func (s *Service) Detail(ctx context.Context, id string) (*domain.CountryDetail, error) {
	c, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	return s.DetailFor(ctx, c)
}

// DetailFor builds the detail of c without looking it up again, so a pinned
// snapshot resolves countries a later refresh has dropped.
func (s *Service) DetailFor(ctx context.Context, c domain.Country) (*domain.CountryDetail, error) {
	if s.upstream != nil && s.upstream.Enabled() {
		detail, err := s.upstream.FetchDetail(ctx, c.ID)
		if err == nil {
			sortNews(detail.News)
			return detail, nil
		}
		s.log.Warn().Err(err).Str("country", c.ID).Msg("Upstream detail unavailable, generating")
	}

	return s.generator.Detail(c), nil
}

// Snapshot pins the current dataset. Later refreshes do not affect it.
func (s *Service) Snapshot() *Snapshot {
	return NewSnapshot(s.List(), s)
}

// Search resolves a free-text query to one country: exact name or ID,
// then name prefix, then name substring. Case-insensitive.
func (s *Service) Search(query string) (domain.Country, bool) {
	return search(s.List(), query)
}

// Suggest returns up to limit countries whose name contains the query,
// ordered exact match first, then prefix matches, then the rest, each group
// alphabetical. Queries shorter than two characters yield nothing.
func (s *Service) Suggest(query string, limit int) []domain.Country {
	return suggest(s.List(), query, limit)
}

func search(countries []domain.Country, query string) (domain.Country, bool) {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return domain.Country{}, false
	}

	for _, c := range countries {
		if strings.ToLower(c.Name) == q || strings.ToLower(c.ID) == q {
			return c, true
		}
	}
	for _, c := range countries {
		if strings.HasPrefix(strings.ToLower(c.Name), q) {
			return c, true
		}
	}
	for _, c := range countries {
		if strings.Contains(strings.ToLower(c.Name), q) {
			return c, true
		}
	}
	return domain.Country{}, false
}

func suggest(countries []domain.Country, query string, limit int) []domain.Country {
	q := strings.ToLower(strings.TrimSpace(query))
	if len(q) <= 1 {
		return nil
	}

	type ranked struct {
		c    domain.Country
		rank int
	}
	var matches []ranked
	for _, c := range countries {
		name := strings.ToLower(c.Name)
		switch {
		case name == q:
			matches = append(matches, ranked{c, 0})
		case strings.HasPrefix(name, q):
			matches = append(matches, ranked{c, 1})
		case strings.Contains(name, q):
			matches = append(matches, ranked{c, 2})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].rank != matches[j].rank {
			return matches[i].rank < matches[j].rank
		}
		return matches[i].c.Name < matches[j].c.Name
	})

	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	out := make([]domain.Country, len(matches))
	for i, m := range matches {
		out[i] = copyCountry(m.c)
	}
	return out
}

func sortNews(items []domain.NewsItem) {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Date > items[j].Date
	})
}

func copyCountry(c domain.Country) domain.Country {
	if c.Performance != nil {
		c.Performance = domain.Float(*c.Performance)
	}
	return c
}

func copyCountries(in []domain.Country) []domain.Country {
	out := make([]domain.Country, len(in))
	for i, c := range in {
		out[i] = copyCountry(c)
	}
	return out
}
