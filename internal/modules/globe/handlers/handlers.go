// Package handlers provides HTTP handlers for globe frames and geometry.
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/aristath/marketglobe/internal/domain"
	"github.com/aristath/marketglobe/internal/modules/globe"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// maxDimension bounds requested frame sizes.
const maxDimension = 8192

// Handler serves stateless globe frames. Interactive sessions are served by
// the optional session handler mounted at /globe/ws.
type Handler struct {
	store     *globe.Store
	countries globe.CountrySource
	opts      globe.Options
	sessions  http.Handler
	log       zerolog.Logger
}

// NewHandler creates a globe handler. sessions may be nil.
func NewHandler(store *globe.Store, countries globe.CountrySource, opts globe.Options, sessions http.Handler, log zerolog.Logger) *Handler {
	return &Handler{
		store:     store,
		countries: countries,
		opts:      opts,
		sessions:  sessions,
		log:       log.With().Str("handler", "globe").Logger(),
	}
}

// RegisterRoutes registers globe routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/globe", func(r chi.Router) {
		r.Get("/frame", h.HandleFrame)
		r.Get("/frame.svg", h.HandleFrameSVG)
		r.Get("/polygons", h.HandlePolygons)
		r.Get("/status", h.HandleStatus)
		if h.sessions != nil {
			r.Get("/ws", h.sessions.ServeHTTP)
		}
	})
}

// HandleFrame handles GET /api/globe/frame?width&height&lat&lng&format
func (h *Handler) HandleFrame(w http.ResponseWriter, r *http.Request) {
	frame, ok := h.frame(w, r)
	if !ok {
		return
	}

	switch format := r.URL.Query().Get("format"); format {
	case "", "json":
		h.writeJSON(w, http.StatusOK, frame)
	case "msgpack":
		data, err := frame.Msgpack()
		if err != nil {
			h.log.Error().Err(err).Msg("Failed to encode frame")
			http.Error(w, "Failed to encode frame", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/msgpack")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
	default:
		http.Error(w, fmt.Sprintf("Unsupported format %q", format), http.StatusBadRequest)
	}
}

// HandleFrameSVG handles GET /api/globe/frame.svg
func (h *Handler) HandleFrameSVG(w http.ResponseWriter, r *http.Request) {
	frame, ok := h.frame(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(frame.SVG())
}

// HandlePolygons handles GET /api/globe/polygons
func (h *Handler) HandlePolygons(w http.ResponseWriter, r *http.Request) {
	features, err := h.store.Features()
	if err != nil {
		h.notReady(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, globe.Polygons(features, h.countries.List(), h.log))
}

// HandleStatus handles GET /api/globe/status
func (h *Handler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.store.Status())
}

func (h *Handler) frame(w http.ResponseWriter, r *http.Request) (*globe.Frame, bool) {
	view, err := parseView(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return nil, false
	}

	features, err := h.store.Features()
	if err != nil {
		h.notReady(w, err)
		return nil, false
	}
	return globe.BuildFrame(features, h.countries.List(), view, h.opts, h.log), true
}

func (h *Handler) notReady(w http.ResponseWriter, err error) {
	if errors.Is(err, domain.ErrGeometryNotReady) {
		w.Header().Set("Retry-After", "5")
		http.Error(w, "Geometry is still loading", http.StatusServiceUnavailable)
		return
	}
	h.log.Error().Err(err).Msg("Failed to read geometry")
	http.Error(w, "Failed to read geometry", http.StatusInternalServerError)
}

// parseView reads the viewport and camera from the query. The camera
// lat/lng becomes the rotation [-lng, -lat].
func parseView(r *http.Request) (globe.View, error) {
	q := r.URL.Query()

	width, err := floatParam(q.Get("width"), globe.DefaultWidth)
	if err != nil || width <= 0 || width > maxDimension {
		return globe.View{}, fmt.Errorf("invalid width")
	}
	height, err := floatParam(q.Get("height"), globe.DefaultHeight)
	if err != nil || height <= 0 || height > maxDimension {
		return globe.View{}, fmt.Errorf("invalid height")
	}
	lat, err := floatParam(q.Get("lat"), 0)
	if err != nil || lat < -90 || lat > 90 {
		return globe.View{}, fmt.Errorf("invalid lat")
	}
	lng, err := floatParam(q.Get("lng"), 0)
	if err != nil || lng < -180 || lng > 180 {
		return globe.View{}, fmt.Errorf("invalid lng")
	}

	return globe.View{Width: width, Height: height, Lambda: -lng, Phi: -lat}, nil
}

func floatParam(raw string, def float64) (float64, error) {
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("non-finite value %q", raw)
	}
	return v, nil
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	response := map[string]interface{}{
		"data": data,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	}

	if err := json.NewEncoder(w).Encode(response); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
