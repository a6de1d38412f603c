package server

import (
	"encoding/json"
	"net/http"
	"sort"
	"time"

	"github.com/aristath/marketglobe/internal/database"
	"github.com/aristath/marketglobe/internal/domain"
	"github.com/aristath/marketglobe/internal/modules/globe"
	"github.com/aristath/marketglobe/internal/scheduler"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"
)

// CountrySource is the dataset view used by the status endpoint.
type CountrySource interface {
	List() []domain.Country
	Source() string
}

// GlobeStatus reports the geometry state.
type GlobeStatus interface {
	Status() globe.Status
}

// JobRunner reports and triggers scheduled jobs.
type JobRunner interface {
	Status() []scheduler.JobStatus
	RunNow(job scheduler.Job) error
}

// SessionCounter reports connected globe sessions.
type SessionCounter interface {
	Active() int
}

// SystemHandlers handles system-wide monitoring and operations endpoints.
type SystemHandlers struct {
	log         zerolog.Logger
	dataDir     string
	startupTime time.Time
	databases   map[string]*database.DB
	countries   CountrySource
	globe       GlobeStatus
	scheduler   JobRunner
	sessions    SessionCounter
	jobs        map[string]scheduler.Job
}

// NewSystemHandlers creates a new system handlers instance. sessions and
// jobs may be nil.
func NewSystemHandlers(
	log zerolog.Logger,
	dataDir string,
	databases map[string]*database.DB,
	countries CountrySource,
	globeStatus GlobeStatus,
	runner JobRunner,
	sessions SessionCounter,
	jobs map[string]scheduler.Job,
) *SystemHandlers {
	return &SystemHandlers{
		log:         log.With().Str("component", "system_handlers").Logger(),
		dataDir:     dataDir,
		startupTime: time.Now(),
		databases:   databases,
		countries:   countries,
		globe:       globeStatus,
		scheduler:   runner,
		sessions:    sessions,
		jobs:        jobs,
	}
}

// RegisterRoutes registers system routes
func (h *SystemHandlers) RegisterRoutes(r chi.Router) {
	r.Route("/system", func(r chi.Router) {
		r.Get("/status", h.HandleSystemStatus)
		r.Get("/jobs", h.HandleJobsStatus)
		r.Post("/jobs/{name}", h.HandleTriggerJob)
		r.Get("/database/stats", h.HandleDatabaseStats)
	})
}

// SystemStatusResponse is the body of GET /api/system/status.
type SystemStatusResponse struct {
	Status         string       `json:"status"`
	UptimeSeconds  int64        `json:"uptime_seconds"`
	CPUPercent     float64      `json:"cpu_percent"`
	MemoryPercent  float64      `json:"memory_percent"`
	DiskFreeMB     float64      `json:"disk_free_mb"`
	CountryCount   int          `json:"country_count"`
	CountrySource  string       `json:"country_source"`
	Globe          globe.Status `json:"globe"`
	ActiveSessions int          `json:"active_sessions"`
}

// JobsStatusResponse is the body of GET /api/system/jobs.
type JobsStatusResponse struct {
	TotalJobs int                   `json:"total_jobs"`
	Jobs      []scheduler.JobStatus `json:"jobs"`
}

// DatabaseStatsResponse is the body of GET /api/system/database/stats.
type DatabaseStatsResponse struct {
	Databases   []database.Stats `json:"databases"`
	TotalSizeMB float64          `json:"total_size_mb"`
	LastChecked string           `json:"last_checked"`
}

// HandleSystemStatus returns a snapshot of the service state.
func (h *SystemHandlers) HandleSystemStatus(w http.ResponseWriter, r *http.Request) {
	cpuPercent, memPercent := h.getSystemStats()

	response := SystemStatusResponse{
		Status:        "healthy",
		UptimeSeconds: int64(time.Since(h.startupTime).Seconds()),
		CPUPercent:    cpuPercent,
		MemoryPercent: memPercent,
		DiskFreeMB:    h.getDiskFree(),
	}

	if h.countries != nil {
		response.CountryCount = len(h.countries.List())
		response.CountrySource = h.countries.Source()
	}
	if h.globe != nil {
		response.Globe = h.globe.Status()
		if response.Globe.State != globe.StateReady {
			response.Status = "degraded"
		}
	}
	if h.sessions != nil {
		response.ActiveSessions = h.sessions.Active()
	}

	h.writeJSON(w, http.StatusOK, response)
}

// HandleJobsStatus returns the registered jobs and their last outcome.
func (h *SystemHandlers) HandleJobsStatus(w http.ResponseWriter, r *http.Request) {
	var jobs []scheduler.JobStatus
	if h.scheduler != nil {
		jobs = h.scheduler.Status()
	}
	sort.Slice(jobs, func(i, j int) bool { return jobs[i].Name < jobs[j].Name })

	h.writeJSON(w, http.StatusOK, JobsStatusResponse{TotalJobs: len(jobs), Jobs: jobs})
}

// HandleTriggerJob runs a registered job immediately.
// POST /api/system/jobs/{name}
func (h *SystemHandlers) HandleTriggerJob(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	job, ok := h.jobs[name]
	if !ok || h.scheduler == nil {
		http.Error(w, "Unknown job", http.StatusNotFound)
		return
	}

	if err := h.scheduler.RunNow(job); err != nil {
		h.log.Error().Err(err).Str("job", name).Msg("Manual job run failed")
		h.writeJSON(w, http.StatusInternalServerError, map[string]interface{}{
			"status":  "error",
			"job":     name,
			"message": err.Error(),
		})
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": "success",
		"job":    name,
	})
}

// HandleDatabaseStats returns file and page statistics per database.
func (h *SystemHandlers) HandleDatabaseStats(w http.ResponseWriter, r *http.Request) {
	names := make([]string, 0, len(h.databases))
	for name := range h.databases {
		names = append(names, name)
	}
	sort.Strings(names)

	response := DatabaseStatsResponse{
		Databases:   []database.Stats{},
		LastChecked: time.Now().Format(time.RFC3339),
	}

	for _, name := range names {
		db := h.databases[name]
		if db == nil {
			continue
		}
		stats, err := db.GetStats()
		if err != nil {
			h.log.Warn().Err(err).Str("database", name).Msg("Failed to get database stats")
			continue
		}
		response.Databases = append(response.Databases, *stats)
		response.TotalSizeMB += float64(stats.SizeBytes+stats.WALSizeBytes) / 1024 / 1024
	}

	h.writeJSON(w, http.StatusOK, response)
}

// getSystemStats returns CPU and RAM usage percentages. The CPU sample is
// kept short so the endpoint stays responsive.
func (h *SystemHandlers) getSystemStats() (float64, float64) {
	cpuPercent, err := cpu.Percent(100*time.Millisecond, false)
	if err != nil || len(cpuPercent) == 0 {
		h.log.Warn().Err(err).Msg("Failed to get CPU percentage")
		cpuPercent = []float64{0}
	}

	memStat, err := mem.VirtualMemory()
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get memory statistics")
		return cpuPercent[0], 0
	}

	return cpuPercent[0], memStat.UsedPercent
}

func (h *SystemHandlers) getDiskFree() float64 {
	if h.dataDir == "" {
		return 0
	}
	usage, err := disk.Usage(h.dataDir)
	if err != nil {
		h.log.Warn().Err(err).Str("dir", h.dataDir).Msg("Failed to get disk usage")
		return 0
	}
	return float64(usage.Free) / 1024 / 1024
}

// writeJSON writes a JSON response
func (h *SystemHandlers) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
