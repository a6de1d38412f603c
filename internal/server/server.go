// Package server provides the HTTP server and routing for the market globe.
package server

import (
	"context"
	"fmt"
	"io/fs"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/aristath/marketglobe/internal/config"
	"github.com/aristath/marketglobe/internal/di"
	countryhandlers "github.com/aristath/marketglobe/internal/modules/countries/handlers"
	"github.com/aristath/marketglobe/internal/modules/globe"
	globehandlers "github.com/aristath/marketglobe/internal/modules/globe/handlers"
	"github.com/aristath/marketglobe/internal/modules/interaction"
	settingshandlers "github.com/aristath/marketglobe/internal/modules/settings/handlers"
	"github.com/aristath/marketglobe/internal/scheduler"
	"github.com/aristath/marketglobe/pkg/embedded"
)

// Version is reported by /health.
const Version = "1.0.0"

// Config holds server configuration
type Config struct {
	Log       zerolog.Logger
	Config    *config.Config
	Container *di.Container
	Jobs      *di.JobInstances
	Port      int
	DevMode   bool
}

// Server represents the HTTP server
type Server struct {
	router         *chi.Mux
	server         *http.Server
	log            zerolog.Logger
	cfg            *config.Config
	port           int
	container      *di.Container
	sessions       *SessionHandler
	systemHandlers *SystemHandlers
}

// New creates a new HTTP server
func New(cfg Config) *Server {
	log := cfg.Log.With().Str("component", "server").Logger()
	container := cfg.Container

	sessions := NewSessionHandler(
		container.CountryService,
		container.GlobeStore,
		globe.OptionsFromConfig(cfg.Config.Globe),
		interaction.OptionsFromConfig(cfg.Config.Globe, interaction.ModeCamera),
		container.Clock,
		container.EventManager,
		cfg.Log,
	)

	var jobs map[string]scheduler.Job
	if cfg.Jobs != nil {
		jobs = cfg.Jobs.All()
	}

	s := &Server{
		router:    chi.NewRouter(),
		log:       log,
		cfg:       cfg.Config,
		port:      cfg.Port,
		container: container,
		sessions:  sessions,
		systemHandlers: NewSystemHandlers(
			cfg.Log,
			cfg.Config.DataDir,
			container.Databases(),
			container.CountryService,
			container.GlobeStore,
			container.Scheduler,
			sessions,
			jobs,
		),
	}

	s.setupMiddleware(cfg.DevMode)
	s.setupRoutes()

	// WriteTimeout stays zero: SSE and WebSocket responses are long-lived.
	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           s.router,
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	return s
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// setupMiddleware configures middleware
func (s *Server) setupMiddleware(devMode bool) {
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.loggingMiddleware)

	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link", "X-Data-Source"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	if !devMode {
		s.router.Use(middleware.Compress(5))
	}
}

// setupRoutes configures all routes
func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealth)

	s.router.Route("/api", func(r chi.Router) {
		// Streaming routes carry no request timeout.
		eventsStream := NewEventsStreamHandler(s.container.EventBus, s.log)
		r.Get("/events/stream", eventsStream.ServeHTTP)
		r.Get("/globe/ws", s.sessions.ServeHTTP)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(60 * time.Second))

			s.systemHandlers.RegisterRoutes(r)

			countryhandlers.NewHandler(s.container.CountryService, s.log).RegisterRoutes(r)
			settingshandlers.NewHandler(s.container.SettingsRepo, s.container.EventManager, s.log).RegisterRoutes(r)
			globehandlers.NewHandler(
				s.container.GlobeStore,
				s.container.CountryService,
				globe.OptionsFromConfig(s.cfg.Globe),
				nil,
				s.log,
			).RegisterRoutes(r)
		})
	})

	viewer, err := fs.Sub(embedded.Files, "viewer")
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to open embedded viewer")
		return
	}
	s.router.Handle("/*", http.FileServer(http.FS(viewer)))
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.log.Info().Int("port", s.port).Msg("Starting HTTP server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

// loggingMiddleware logs HTTP requests
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration_ms", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("HTTP request")
	})
}
