package globe

import (
	"context"
	"sync"

	"github.com/aristath/marketglobe/internal/clock"
	"github.com/aristath/marketglobe/internal/domain"
	"github.com/aristath/marketglobe/internal/geo"
	"github.com/rs/zerolog"
)

// Default viewport used until the client reports its size.
const (
	DefaultWidth  = 960
	DefaultHeight = 600
)

// CountrySource supplies the current dataset snapshot.
type CountrySource interface {
	List() []domain.Country
}

// Renderer is the view of one client: viewport, rotation and the
// Ready/Rotating half of the state machine. Geometry comes from the shared
// Store.
type Renderer struct {
	store     *Store
	countries CountrySource
	opts      Options
	clock     clock.Clock
	log       zerolog.Logger

	mu            sync.Mutex
	rotating      bool
	width, height float64
	lambda, phi   float64

	pendingW, pendingH float64
	resizeTimer        clock.Timer
	recomputes         int
	onResize           func(width, height float64)
	stopped            bool
}

// NewRenderer creates a renderer with the default viewport.
func NewRenderer(store *Store, countries CountrySource, opts Options, clk clock.Clock, log zerolog.Logger) *Renderer {
	return &Renderer{
		store:     store,
		countries: countries,
		opts:      opts,
		clock:     clk,
		log:       log.With().Str("component", "globe_renderer").Logger(),
		width:     DefaultWidth,
		height:    DefaultHeight,
	}
}

// State returns the renderer state.
func (r *Renderer) State() State {
	geometryState := r.store.State()

	r.mu.Lock()
	defer r.mu.Unlock()
	if geometryState == StateReady && r.rotating {
		return StateRotating
	}
	return geometryState
}

// Load starts or joins the shared geometry load.
func (r *Renderer) Load(ctx context.Context) error {
	return r.store.Load(ctx)
}

// BeginRotate enters Rotating. It reports false when geometry is not ready.
func (r *Renderer) BeginRotate() bool {
	if r.store.State() != StateReady {
		return false
	}
	r.mu.Lock()
	r.rotating = true
	r.mu.Unlock()
	return true
}

// EndRotate returns to Ready.
func (r *Renderer) EndRotate() {
	r.mu.Lock()
	r.rotating = false
	r.mu.Unlock()
}

// SetRotation sets the orthographic rotation [lambda, phi] in degrees.
func (r *Renderer) SetRotation(lambda, phi float64) {
	r.mu.Lock()
	r.lambda, r.phi = lambda, phi
	r.mu.Unlock()
}

// Rotation returns the current rotation.
func (r *Renderer) Rotation() (lambda, phi float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lambda, r.phi
}

// OnResize registers a callback run after each applied resize, outside the
// renderer lock.
func (r *Renderer) OnResize(f func(width, height float64)) {
	r.mu.Lock()
	r.onResize = f
	r.mu.Unlock()
}

// Resize records a new container size. Calls inside the throttle window are
// coalesced; the last size wins and is applied once the window has passed
// without further calls. Non-positive sizes are ignored.
func (r *Renderer) Resize(width, height float64) {
	if width <= 0 || height <= 0 {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stopped {
		return
	}

	r.pendingW, r.pendingH = width, height
	if r.resizeTimer != nil {
		r.resizeTimer.Stop()
	}
	r.resizeTimer = r.clock.AfterFunc(r.opts.ResizeThrottle, r.applyResize)
}

func (r *Renderer) applyResize() {
	r.mu.Lock()
	if r.stopped {
		r.mu.Unlock()
		return
	}
	r.width, r.height = r.pendingW, r.pendingH
	r.resizeTimer = nil
	r.recomputes++
	if r.store.State() == StateReady {
		r.rotating = false
	}
	w, h, hook := r.width, r.height, r.onResize
	r.mu.Unlock()

	r.log.Debug().Float64("width", w).Float64("height", h).Msg("Viewport resized")
	if hook != nil {
		hook(w, h)
	}
}

// Stop cancels a pending resize and ignores later ones. The renderer keeps
// answering queries.
func (r *Renderer) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stopped = true
	r.onResize = nil
	if r.resizeTimer != nil {
		r.resizeTimer.Stop()
		r.resizeTimer = nil
	}
}

// Viewport returns the applied container size.
func (r *Renderer) Viewport() (width, height float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.width, r.height
}

// View returns the current projection input.
func (r *Renderer) View() View {
	r.mu.Lock()
	defer r.mu.Unlock()
	return View{Width: r.width, Height: r.height, Lambda: r.lambda, Phi: r.phi}
}

// Frame renders the current view. It fails with domain.ErrGeometryNotReady
// until geometry is loaded.
func (r *Renderer) Frame() (*Frame, error) {
	features, err := r.store.Features()
	if err != nil {
		return nil, err
	}
	return BuildFrame(features, r.countries.List(), r.View(), r.opts, r.log), nil
}

// FeatureAt returns the feature under a screen point.
func (r *Renderer) FeatureAt(pt geo.Point) (geo.Feature, bool) {
	features, err := r.store.Features()
	if err != nil {
		return geo.Feature{}, false
	}
	return FeatureAt(features, r.View(), pt)
}

// FeatureByKey returns the loaded feature with the given key.
func (r *Renderer) FeatureByKey(key string) (geo.Feature, bool) {
	features, err := r.store.Features()
	if err != nil {
		return geo.Feature{}, false
	}
	for _, f := range features {
		if f.Key() == key {
			return f, true
		}
	}
	return geo.Feature{}, false
}

// Features returns the loaded features, or nil while loading.
func (r *Renderer) Features() []geo.Feature {
	features, _ := r.store.Features()
	return features
}

// FeatureAt finds the feature whose geometry contains the screen point.
func FeatureAt(features []geo.Feature, view View, pt geo.Point) (geo.Feature, bool) {
	pos, ok := view.Projection().Invert(pt)
	if !ok {
		return geo.Feature{}, false
	}
	for _, f := range features {
		if geo.Contains(f.Geometry, pos) {
			return f, true
		}
	}
	return geo.Feature{}, false
}
