package interaction

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aristath/marketglobe/internal/clients/geometry"
	"github.com/aristath/marketglobe/internal/clock"
	"github.com/aristath/marketglobe/internal/domain"
	"github.com/aristath/marketglobe/internal/events"
	"github.com/aristath/marketglobe/internal/geo"
	"github.com/aristath/marketglobe/internal/modules/globe"
	"github.com/rs/zerolog"
)

func quietLog() zerolog.Logger {
	return zerolog.New(nil).Level(zerolog.Disabled)
}

func square(lon, lat, size float64) geo.Geometry {
	ring := geo.Ring{{lon, lat}, {lon + size, lat}, {lon + size, lat + size}, {lon, lat + size}, {lon, lat}}
	return geo.Geometry{Type: "Polygon", Polygons: []geo.Polygon{{ring}}}
}

func feature(code, name string, g geo.Geometry, props map[string]interface{}) geo.Feature {
	p := map[string]interface{}{"ISO_A3": code, "NAME": name}
	for k, v := range props {
		p[k] = v
	}
	return geo.Feature{Type: "Feature", Properties: p, Geometry: g}
}

var (
	japan   = domain.Country{ID: "2", Name: "Japan", ISOCode: "JPN", Performance: domain.Float(3.4)}
	germany = domain.Country{ID: "4", Name: "Germany", ISOCode: "DEU", Performance: domain.Float(-1.2)}
	brazil  = domain.Country{ID: "10", Name: "Brazil", ISOCode: "BRA", Performance: domain.Float(0.5)}
	nowhere = domain.Country{ID: "99", Name: "Atlantis", ISOCode: "ATL"}

	japanFeature   = feature("JPN", "Japan", square(135, 33, 5), map[string]interface{}{"LABEL_X": 138.0, "LABEL_Y": 36.0})
	germanyFeature = feature("DEU", "Germany", square(8, 48, 4), nil)
	oceanFeature   = feature("ZZZ", "Open Sea", square(-30, 0, 5), nil)
)

type fakeCountries struct {
	countries []domain.Country

	mu        sync.Mutex
	gates     map[string]chan struct{}
	detailErr error
	requested []string
}

func (f *fakeCountries) List() []domain.Country {
	return append([]domain.Country(nil), f.countries...)
}

func (f *fakeCountries) Search(query string) (domain.Country, bool) {
	q := strings.ToLower(strings.TrimSpace(query))
	for _, c := range f.countries {
		if strings.ToLower(c.Name) == q || c.ID == q {
			return c, true
		}
	}
	return domain.Country{}, false
}

func (f *fakeCountries) Suggest(query string, limit int) []domain.Country {
	var out []domain.Country
	for _, c := range f.countries {
		if len(query) > 1 && strings.Contains(strings.ToLower(c.Name), strings.ToLower(query)) {
			out = append(out, c)
		}
	}
	return out
}

func (f *fakeCountries) Detail(ctx context.Context, id string) (*domain.CountryDetail, error) {
	f.mu.Lock()
	f.requested = append(f.requested, id)
	gate := f.gates[id]
	err := f.detailErr
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}
	return &domain.CountryDetail{
		ID:           id,
		StockMarkets: []domain.MarketQuote{{MarketName: "Index " + id, CurrentValue: 100, PreviousClose: 99, ChangePercent: 1.01}},
		News:         []domain.NewsItem{{ID: "n1", Title: "Headline", Date: "2023-03-22"}},
	}, nil
}

func (f *fakeCountries) gate(id string) chan struct{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.gates == nil {
		f.gates = map[string]chan struct{}{}
	}
	ch := make(chan struct{})
	f.gates[id] = ch
	return ch
}

type recorder struct {
	mu   sync.Mutex
	msgs []Message
}

func (r *recorder) send(m Message) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, m)
}

func (r *recorder) ofType(t string) []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Message
	for _, m := range r.msgs {
		if m.Type == t {
			out = append(out, m)
		}
	}
	return out
}

func (r *recorder) lastAnimation(t *testing.T) AnimationStarted {
	t.Helper()
	msgs := r.ofType(MsgAnimationStarted)
	if len(msgs) == 0 {
		t.Fatal("no animation started")
	}
	return msgs[len(msgs)-1].Data.(AnimationStarted)
}

type fetcherFunc func(ctx context.Context) (*geometry.Result, error)

func (f fetcherFunc) Fetch(ctx context.Context) (*geometry.Result, error) { return f(ctx) }

type fixture struct {
	ctrl      *Controller
	clock     *clock.Fake
	countries *fakeCountries
	renderer  *globe.Renderer
	sent      *recorder
	bus       *events.Bus
}

func newFixture(t *testing.T, opts Options, withGeometry bool) *fixture {
	t.Helper()

	fetch := fetcherFunc(func(ctx context.Context) (*geometry.Result, error) {
		fc := &geo.FeatureCollection{Features: []geo.Feature{japanFeature, germanyFeature, oceanFeature}}
		return &geometry.Result{Collection: fc}, nil
	})
	store := globe.NewStore(fetch, nil, quietLog())
	if withGeometry {
		if err := store.Load(context.Background()); err != nil {
			t.Fatal(err)
		}
	}

	clk := clock.NewFake(time.Unix(1700000000, 0))
	countries := &fakeCountries{countries: []domain.Country{japan, germany, brazil, nowhere}}
	renderer := globe.NewRenderer(store, countries, globe.DefaultOptions(), clk, quietLog())

	bus := events.NewBus(quietLog())
	sent := &recorder{}
	ctrl := NewController(countries, renderer, clk, opts, events.NewManager(bus, quietLog()), sent.send, quietLog())
	t.Cleanup(ctrl.Shutdown)

	return &fixture{ctrl: ctrl, clock: clk, countries: countries, renderer: renderer, sent: sent, bus: bus}
}
