package server

import (
	"encoding/json"
	"net/http"

	"github.com/aristath/marketglobe/internal/modules/globe"
)

// healthResponse is the body of GET /health. The service is "degraded"
// while the globe has no geometry: the API answers, but frames are empty.
type healthResponse struct {
	Status    string      `json:"status"`
	Version   string      `json:"version"`
	Service   string      `json:"service"`
	Geometry  globe.State `json:"geometry"`
	Countries int         `json:"countries"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{
		Status:    "healthy",
		Version:   Version,
		Service:   "marketglobe",
		Geometry:  s.container.GlobeStore.State(),
		Countries: len(s.container.CountryService.List()),
	}
	if resp.Geometry != globe.StateReady {
		resp.Status = "degraded"
	}

	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
