// Package interaction implements the per-session interaction controller:
// selection, camera movement and the camera-then-overlay sequence.
package interaction

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/aristath/marketglobe/internal/clock"
	"github.com/aristath/marketglobe/internal/config"
	"github.com/aristath/marketglobe/internal/domain"
	"github.com/aristath/marketglobe/internal/events"
	"github.com/aristath/marketglobe/internal/geo"
	"github.com/aristath/marketglobe/internal/modules/globe"
	"github.com/aristath/marketglobe/internal/modules/matcher"
	"github.com/aristath/marketglobe/internal/modules/overlay"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Camera limits.
const (
	DefaultAltitude = 1.5
	FocusAltitude   = 0.8
	zoomInFactor    = 0.65
	zoomOutFactor   = 1.5
	minZoomAltitude = 0.3
	maxZoomAltitude = 5.0
	suggestLimit    = 8
	detailTimeout   = 10 * time.Second
)

// Mode selects the globe variant a session drives.
type Mode string

const (
	// ModeCamera is the WebGL globe: searches animate the camera and open
	// the overlay like clicks.
	ModeCamera Mode = "camera"
	// ModeOrthographic is the SVG globe: searches turn the country's
	// centroid towards the viewer.
	ModeOrthographic Mode = "orthographic"
)

// Selection sources.
const (
	SourceClick  = "click"
	SourceSearch = "search"
)

// Countries is the dataset the controller reads.
type Countries interface {
	List() []domain.Country
	Search(query string) (domain.Country, bool)
	Suggest(query string, limit int) []domain.Country
	Detail(ctx context.Context, id string) (*domain.CountryDetail, error)
}

// Options tune the controller.
type Options struct {
	Mode               Mode
	AnimationDuration  time.Duration
	OverlayDelay       time.Duration
	SearchOpensOverlay bool
	DragSensitivity    float64
}

// DefaultOptions returns the stock timings.
func DefaultOptions() Options {
	return Options{
		Mode:               ModeCamera,
		AnimationDuration:  time.Second,
		OverlayDelay:       1200 * time.Millisecond,
		SearchOpensOverlay: true,
		DragSensitivity:    1.0,
	}
}

// OptionsFromConfig maps globe configuration to controller options.
func OptionsFromConfig(cfg config.GlobeConfig, mode Mode) Options {
	return Options{
		Mode:               mode,
		AnimationDuration:  cfg.AnimationDuration,
		OverlayDelay:       cfg.OverlayDelay,
		SearchOpensOverlay: cfg.SearchOpensOverlay,
		DragSensitivity:    cfg.DragSensitivity,
	}
}

// pendingOpen is an overlay waiting for its camera animation.
type pendingOpen struct {
	id        string
	country   domain.Country
	startedAt time.Time
	timer     clock.Timer
}

// Controller owns one session's selection, camera and overlay. All
// handlers and timer callbacks run under one mutex, so they never
// interleave.
type Controller struct {
	sessionID string
	countries Countries
	renderer  *globe.Renderer
	clock     clock.Clock
	opts      Options
	events    *events.Manager
	send      Sink
	log       zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu       sync.Mutex
	camera   Camera
	selected *domain.Country
	overlay  *overlay.Overlay
	pending  *pendingOpen
	detail   *domain.CountryDetail
	detailID string
	dragging bool
	closed   bool
}

// NewController creates a controller for one session.
func NewController(countries Countries, renderer *globe.Renderer, clk clock.Clock, opts Options, eventManager *events.Manager, send Sink, log zerolog.Logger) *Controller {
	ctx, cancel := context.WithCancel(context.Background())
	sessionID := uuid.NewString()

	c := &Controller{
		sessionID: sessionID,
		countries: countries,
		renderer:  renderer,
		clock:     clk,
		opts:      opts,
		events:    eventManager,
		send:      send,
		log:       log.With().Str("component", "interaction").Str("session", sessionID).Logger(),
		ctx:       ctx,
		cancel:    cancel,
		camera:    Camera{Altitude: DefaultAltitude},
	}
	c.overlay = overlay.New(c.overlayClosedLocked)
	c.syncRotationLocked()
	return c
}

// SessionID returns the session identifier.
func (c *Controller) SessionID() string {
	return c.sessionID
}

// Camera returns the current camera.
func (c *Controller) Camera() Camera {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.camera
}

// Selected returns the selected country.
func (c *Controller) Selected() (domain.Country, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.selected == nil {
		return domain.Country{}, false
	}
	return *c.selected, true
}

// Overlay returns the current card view.
func (c *Controller) Overlay() overlay.View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.overlay.View()
}

// PendingAnimation returns the ID of the animation the overlay waits for.
func (c *Controller) PendingAnimation() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pending == nil {
		return "", false
	}
	return c.pending.id, true
}

// SelectByClick selects the country drawn by a feature, moves the camera
// to it and opens the overlay once the move completes. Features without a
// country are ignored with domain.ErrNoMatch.
func (c *Controller) SelectByClick(f geo.Feature) (domain.Country, error) {
	country, ok := matcher.New(c.countries.List(), c.log).Match(f)
	if !ok {
		c.log.Debug().Str("feature", f.Key()).Msg("Click on feature without market data")
		return domain.Country{}, fmt.Errorf("feature %s: %w", f.Key(), domain.ErrNoMatch)
	}

	at, source := Focus(country, &f)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return domain.Country{}, context.Canceled
	}
	c.selectLocked(country, at, source, true, SourceClick)
	return country, nil
}

// SelectByKey selects by feature key, as sent by clients.
func (c *Controller) SelectByKey(key string) (domain.Country, error) {
	f, ok := c.renderer.FeatureByKey(key)
	if !ok {
		return domain.Country{}, fmt.Errorf("feature %s: %w", key, domain.ErrNoMatch)
	}
	return c.SelectByClick(f)
}

// SelectAt selects the feature under a screen point of the current view.
func (c *Controller) SelectAt(pt geo.Point) (domain.Country, error) {
	f, ok := c.renderer.FeatureAt(pt)
	if !ok {
		return domain.Country{}, fmt.Errorf("point %.0f,%.0f: %w", pt.X, pt.Y, domain.ErrNoMatch)
	}
	return c.SelectByClick(f)
}

// SelectBySearch resolves a free-text query and turns the globe to the
// country. In camera mode, or when SearchOpensOverlay is set, the overlay
// opens after the move as for clicks.
func (c *Controller) SelectBySearch(query string) (domain.Country, error) {
	country, ok := c.countries.Search(query)
	if !ok {
		return domain.Country{}, fmt.Errorf("search %q: %w", query, domain.ErrCountryNotFound)
	}

	var feature *geo.Feature
	if f, ok := matcher.FeatureFor(country, c.renderer.Features()); ok {
		feature = &f
	}

	var at domain.LatLng
	var source FocusSource
	if c.opts.Mode == ModeOrthographic {
		at, source = CentroidFocus(country, feature)
	} else {
		at, source = Focus(country, feature)
	}
	opens := c.opts.Mode == ModeCamera || c.opts.SearchOpensOverlay

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return domain.Country{}, context.Canceled
	}
	c.selectLocked(country, at, source, opens, SourceSearch)
	return country, nil
}

// selectLocked replaces the selection. Any pending overlay open is
// cancelled and the current card closes while the camera moves.
func (c *Controller) selectLocked(country domain.Country, at domain.LatLng, source FocusSource, openOverlay bool, origin string) {
	c.cancelPendingLocked()
	if c.overlay.IsOpen() {
		c.overlay.Close()
	}

	c.selected = &country
	c.send(Message{Type: MsgSelection, Data: Selection{Country: &country, Source: origin}})
	c.events.Emit("interaction", &events.CountrySelectedData{
		SessionID: c.sessionID,
		CountryID: country.ID,
		Source:    origin,
	})

	if openOverlay {
		c.fetchDetailLocked(country.ID)
	}

	if source == FocusNone {
		c.log.Debug().Str("country", country.ID).Msg("No coordinates for country, camera stays")
		if openOverlay {
			c.openOverlayLocked(country)
		}
		return
	}

	from := c.camera
	c.camera = Camera{Lat: clampLat(at.Lat), Lng: wrapLng(at.Lng), Altitude: FocusAltitude}
	c.renderer.BeginRotate()
	c.syncRotationLocked()

	id := uuid.NewString()
	c.send(Message{Type: MsgAnimationStarted, Data: AnimationStarted{
		ID:         id,
		CountryID:  country.ID,
		From:       from,
		To:         c.camera,
		Focus:      source,
		DurationMs: c.opts.AnimationDuration.Milliseconds(),
	}})
	c.send(Message{Type: MsgCamera, Data: c.camera})

	if !openOverlay {
		c.renderer.EndRotate()
		return
	}

	c.pending = &pendingOpen{
		id:        id,
		country:   country,
		startedAt: c.clock.Now(),
	}
	c.pending.timer = c.clock.AfterFunc(c.opts.OverlayDelay, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		c.completeLocked(id, "timer")
	})
}

// AnimationComplete handles the client's acknowledgement that animation id
// finished. Acknowledgements for superseded animations, or arriving before
// the nominal duration has elapsed, are ignored.
func (c *Controller) AnimationComplete(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.pending == nil || c.pending.id != id {
		c.log.Debug().Str("animation", id).Msg("Ignoring stale animation acknowledgement")
		return false
	}
	if c.clock.Now().Sub(c.pending.startedAt) < c.opts.AnimationDuration {
		c.log.Debug().Str("animation", id).Msg("Ignoring early animation acknowledgement")
		return false
	}
	return c.completeLocked(id, "ack")
}

func (c *Controller) completeLocked(id, via string) bool {
	if c.closed || c.pending == nil || c.pending.id != id {
		return false
	}
	p := c.pending
	c.pending = nil
	if p.timer != nil {
		p.timer.Stop()
	}
	if !c.dragging {
		c.renderer.EndRotate()
	}

	c.log.Debug().Str("animation", id).Str("via", via).Msg("Camera animation complete")
	c.openOverlayLocked(p.country)
	return true
}

func (c *Controller) openOverlayLocked(country domain.Country) {
	c.overlay.Open(country)
	if c.detail != nil && c.detailID == country.ID {
		c.overlay.Attach(c.detail)
	}
	c.send(Message{Type: MsgOverlay, Data: c.overlay.View()})
	c.events.Emit("interaction", &events.OverlayData{SessionID: c.sessionID, CountryID: country.ID, Open: true})
}

// overlayClosedLocked is the overlay's close callback.
func (c *Controller) overlayClosedLocked() {
	c.send(Message{Type: MsgOverlay, Data: c.overlay.View()})
	c.events.Emit("interaction", &events.OverlayData{SessionID: c.sessionID, Open: false})
}

func (c *Controller) cancelPendingLocked() {
	if c.pending == nil {
		return
	}
	if c.pending.timer != nil {
		c.pending.timer.Stop()
	}
	c.log.Debug().Str("animation", c.pending.id).Msg("Pending overlay cancelled")
	c.pending = nil
	if !c.dragging {
		c.renderer.EndRotate()
	}
}

// fetchDetailLocked loads detail data in the background. Results for a
// country that is no longer selected are dropped.
func (c *Controller) fetchDetailLocked(id string) {
	c.detail, c.detailID = nil, id

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()

		ctx, cancel := context.WithTimeout(c.ctx, detailTimeout)
		defer cancel()
		detail, err := c.countries.Detail(ctx, id)

		c.mu.Lock()
		defer c.mu.Unlock()
		if c.closed || c.detailID != id {
			return
		}
		if err != nil {
			c.log.Warn().Err(err).Str("country", id).Msg("Country detail unavailable")
			c.send(Message{Type: MsgError, Data: ErrorMessage{Message: "Market data for this country is unavailable"}})
			return
		}
		c.detail = detail
		if c.overlay.CountryID() == id && c.overlay.Attach(detail) {
			c.send(Message{Type: MsgOverlay, Data: c.overlay.View()})
		}
	}()
}

// Close clears the selection and any pending overlay. The camera stays.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.cancelPendingLocked()
	c.detail, c.detailID = nil, ""
	wasSelected := c.selected != nil
	c.selected = nil
	if c.overlay.IsOpen() {
		c.overlay.Close()
	}
	if wasSelected {
		c.send(Message{Type: MsgSelection, Data: Selection{}})
	}
}

// DragStart begins a manual rotation. It cancels a pending overlay open.
func (c *Controller) DragStart() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.dragging = true
	c.cancelPendingLocked()
	c.renderer.BeginRotate()
}

// Drag rotates by a cursor delta in pixels. Latitude stays within ±90.
func (c *Controller) Drag(dx, dy float64) {
	if !finite(dx) || !finite(dy) {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.cancelPendingLocked()
	s := c.opts.DragSensitivity
	c.camera.Lng = wrapLng(c.camera.Lng - dx*s)
	c.camera.Lat = clampLat(c.camera.Lat + dy*s)
	c.syncRotationLocked()
	c.send(Message{Type: MsgCamera, Data: c.camera})
}

// DragEnd finishes a manual rotation.
func (c *Controller) DragEnd() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.dragging = false
	if c.pending == nil {
		c.renderer.EndRotate()
	}
}

// ZoomIn moves the camera closer while above the minimum altitude.
func (c *Controller) ZoomIn() Camera {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.camera.Altitude > minZoomAltitude {
		c.camera.Altitude *= zoomInFactor
	}
	c.send(Message{Type: MsgCamera, Data: c.camera})
	return c.camera
}

// ZoomOut moves the camera away while below the maximum altitude.
func (c *Controller) ZoomOut() Camera {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.camera.Altitude < maxZoomAltitude {
		c.camera.Altitude *= zoomOutFactor
	}
	c.send(Message{Type: MsgCamera, Data: c.camera})
	return c.camera
}

// Reset returns to the default view.
func (c *Controller) Reset() Camera {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.camera = Camera{Altitude: DefaultAltitude}
	c.syncRotationLocked()
	c.send(Message{Type: MsgCamera, Data: c.camera})
	return c.camera
}

// Suggest returns search suggestions for a partial query.
func (c *Controller) Suggest(query string) []domain.Country {
	out := c.countries.Suggest(query, suggestLimit)
	if out == nil {
		out = []domain.Country{}
	}
	c.send(Message{Type: MsgSuggestions, Data: Suggestions{Query: query, Countries: out}})
	return out
}

// Resize forwards the client viewport to the renderer; a frame is pushed
// once the resize is applied.
func (c *Controller) Resize(width, height float64) {
	c.renderer.Resize(width, height)
}

// PushFrame renders the current view and sends it to the client.
func (c *Controller) PushFrame() {
	frame, err := c.renderer.Frame()
	if err != nil {
		c.send(Message{Type: MsgError, Data: ErrorMessage{Message: "Globe geometry is still loading"}})
		return
	}
	c.send(Message{Type: MsgFrame, Data: frame})
}

// Shutdown stops timers and waits for background fetches.
func (c *Controller) Shutdown() {
	c.mu.Lock()
	c.closed = true
	if c.pending != nil && c.pending.timer != nil {
		c.pending.timer.Stop()
	}
	c.pending = nil
	c.mu.Unlock()

	c.cancel()
	c.wg.Wait()
}

func (c *Controller) syncRotationLocked() {
	c.renderer.SetRotation(c.camera.Rotation())
}

func clampLat(lat float64) float64 {
	return math.Max(-90, math.Min(90, lat))
}

// wrapLng maps a longitude into [-180, 180).
func wrapLng(lng float64) float64 {
	lng = math.Mod(lng+180, 360)
	if lng < 0 {
		lng += 360
	}
	return lng - 180
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
