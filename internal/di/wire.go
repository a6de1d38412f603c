package di

import (
	"context"
	"fmt"

	"github.com/aristath/marketglobe/internal/config"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Wire initializes all dependencies and returns a fully configured container
// This is the main entry point for dependency injection
// Order of operations:
// 1. Initialize databases
// 2. Initialize repositories (applies stored settings)
// 3. Initialize services
// 4. Register jobs
func Wire(cfg *config.Config, log zerolog.Logger) (*Container, *JobInstances, error) {
	container, err := InitializeDatabases(cfg, log)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize databases: %w", err)
	}

	if err := InitializeRepositories(container, cfg, log); err != nil {
		container.Close()
		return nil, nil, fmt.Errorf("failed to initialize repositories: %w", err)
	}

	if err := InitializeServices(container, cfg, log); err != nil {
		container.Close()
		return nil, nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	jobs, err := RegisterJobs(container, cfg, log)
	if err != nil {
		container.Close()
		return nil, nil, fmt.Errorf("failed to register jobs: %w", err)
	}

	return container, jobs, nil
}

// Startup loads the country dataset and the globe geometry concurrently.
// A geometry failure is not fatal: the renderer stays in its loading state
// and the retry job picks it up.
func Startup(ctx context.Context, container *Container, log zerolog.Logger) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := container.CountryService.Refresh(gctx); err != nil {
			return fmt.Errorf("failed to load countries: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		if err := container.GlobeStore.Load(gctx); err != nil {
			log.Warn().Err(err).Msg("Geometry not available yet, will retry")
		}
		return nil
	})

	return g.Wait()
}
