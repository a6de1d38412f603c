// Package handlers provides HTTP handlers for the country dataset.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/aristath/marketglobe/internal/domain"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// defaultSuggestLimit caps search suggestions when no limit is given.
const defaultSuggestLimit = 8

// CountryService is the dataset used by the handlers.
type CountryService interface {
	List() []domain.Country
	Detail(ctx context.Context, id string) (*domain.CountryDetail, error)
	Suggest(query string, limit int) []domain.Country
	Source() string
}

// Handler handles country HTTP requests
type Handler struct {
	service CountryService
	log     zerolog.Logger
}

// NewHandler creates a new country handler
func NewHandler(service CountryService, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "countries").Logger(),
	}
}

// RegisterRoutes registers country routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/countries", func(r chi.Router) {
		r.Get("/", h.HandleList)
		r.Get("/search", h.HandleSearch)
		r.Get("/{id}", h.HandleDetail)
	})
}

// HandleList handles GET /api/countries. The body is the bare array the
// front ends expect.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("X-Data-Source", h.service.Source())
	h.writeRaw(w, http.StatusOK, h.service.List())
}

// HandleDetail handles GET /api/countries/{id}
func (h *Handler) HandleDetail(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	detail, err := h.service.Detail(r.Context(), id)
	if errors.Is(err, domain.ErrCountryNotFound) {
		http.Error(w, "Country not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.log.Error().Err(err).Str("country", id).Msg("Failed to get country detail")
		http.Error(w, "Failed to get country detail", http.StatusInternalServerError)
		return
	}

	h.writeRaw(w, http.StatusOK, detail)
}

// HandleSearch handles GET /api/countries/search?q=&limit=
func (h *Handler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")

	limit := defaultSuggestLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			http.Error(w, "Invalid limit", http.StatusBadRequest)
			return
		}
		limit = n
	}

	suggestions := h.service.Suggest(query, limit)
	if suggestions == nil {
		suggestions = []domain.Country{}
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"query":       query,
		"suggestions": suggestions,
	})
}

func (h *Handler) writeRaw(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	h.writeRaw(w, status, map[string]interface{}{
		"data": data,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}
