package countries

import (
	"context"
	"fmt"

	"github.com/aristath/marketglobe/internal/domain"
)

// Detailer builds the detail view of a country.
type Detailer interface {
	DetailFor(ctx context.Context, c domain.Country) (*domain.CountryDetail, error)
}

// Snapshot is a fixed copy of the dataset. A session holds one from connect
// to disconnect, so colors, labels and the selected country stay put while
// the service refreshes underneath.
type Snapshot struct {
	countries []domain.Country
	byID      map[string]int
	details   Detailer
}

// NewSnapshot copies countries. details may be nil, in which case Detail
// returns the bare country.
func NewSnapshot(countries []domain.Country, details Detailer) *Snapshot {
	snap := &Snapshot{
		countries: copyCountries(countries),
		byID:      make(map[string]int, len(countries)),
		details:   details,
	}
	for i, c := range snap.countries {
		if _, dup := snap.byID[c.ID]; !dup {
			snap.byID[c.ID] = i
		}
	}
	return snap
}

// List returns a copy of the pinned countries in load order.
func (s *Snapshot) List() []domain.Country {
	return copyCountries(s.countries)
}

// Get returns one pinned country by ID.
func (s *Snapshot) Get(id string) (domain.Country, error) {
	i, ok := s.byID[id]
	if !ok {
		return domain.Country{}, fmt.Errorf("country %s: %w", id, domain.ErrCountryNotFound)
	}
	return copyCountry(s.countries[i]), nil
}

// Search works like Service.Search over the pinned countries.
func (s *Snapshot) Search(query string) (domain.Country, bool) {
	c, ok := search(s.countries, query)
	return copyCountry(c), ok
}

// Suggest works like Service.Suggest over the pinned countries.
func (s *Snapshot) Suggest(query string, limit int) []domain.Country {
	return suggest(s.countries, query, limit)
}

// Detail returns the detail of a pinned country.
func (s *Snapshot) Detail(ctx context.Context, id string) (*domain.CountryDetail, error) {
	c, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if s.details == nil {
		return &domain.CountryDetail{ID: c.ID, Name: c.Name}, nil
	}
	return s.details.DetailFor(ctx, c)
}
