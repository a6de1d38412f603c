// Package main is the entry point for the market globe service.
//
// The service keeps a dataset of country market performance, projects it
// onto an orthographic globe and serves interactive globe sessions over
// WebSocket alongside a small REST API.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aristath/marketglobe/internal/config"
	"github.com/aristath/marketglobe/internal/di"
	"github.com/aristath/marketglobe/internal/server"
	"github.com/aristath/marketglobe/pkg/logger"
)

// main loads configuration, wires dependencies, loads the dataset and
// geometry, then serves until SIGINT or SIGTERM.
func main() {
	cfg, err := config.Load()
	if err != nil {
		fallbackLog := logger.New(logger.Config{Level: "info", Pretty: true})
		fallbackLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})

	log.Info().Msg("Starting market globe")

	// Stored settings are applied inside Wire, before services are created.
	container, jobs, err := di.Wire(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to wire dependencies")
	}
	defer container.Close()

	startupCtx, startupCancel := context.WithTimeout(context.Background(), time.Minute)
	if err := di.Startup(startupCtx, container, log); err != nil {
		log.Error().Err(err).Msg("Startup loading incomplete")
	}
	startupCancel()

	container.Scheduler.Start()

	srv := server.New(server.Config{
		Log:       log,
		Config:    cfg,
		Container: container,
		Jobs:      jobs,
		Port:      cfg.Port,
		DevMode:   cfg.DevMode,
	})

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	log.Info().Int("port", cfg.Port).Msg("Server started successfully")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	container.Scheduler.Stop()

	log.Info().Msg("Server stopped")
}
