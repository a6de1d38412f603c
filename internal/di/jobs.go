package di

import (
	"fmt"

	"github.com/aristath/marketglobe/internal/clientdata"
	"github.com/aristath/marketglobe/internal/config"
	"github.com/aristath/marketglobe/internal/modules/globe"
	"github.com/aristath/marketglobe/internal/reliability"
	"github.com/aristath/marketglobe/internal/scheduler"
	"github.com/rs/zerolog"
)

// RegisterJobs creates the background jobs and registers them with the
// scheduler. Returns JobInstances for manual triggering via API.
func RegisterJobs(container *Container, cfg *config.Config, log zerolog.Logger) (*JobInstances, error) {
	if container == nil {
		return nil, fmt.Errorf("container cannot be nil")
	}

	instances := &JobInstances{
		CountriesRefresh: scheduler.NewRefreshCountriesJob(container.CountryService, log),
		ClientDataClean:  clientdata.NewCleanupJob(container.ClientDataRepo, log),
		GeometryLoad:     globe.NewLoadJob(container.GlobeStore),
		Maintenance:      reliability.NewDailyMaintenanceJob(container.Databases(), cfg.DataDir, log),
	}
	if container.SnapshotService != nil {
		instances.SnapshotUpload = reliability.NewSnapshotJob(container.SnapshotService)
	}

	schedules := []struct {
		schedule string
		job      scheduler.Job
	}{
		{cfg.Schedules.Refresh, instances.CountriesRefresh},
		{cfg.Schedules.Cleanup, instances.ClientDataClean},
		{cfg.Schedules.GeometryRetry, instances.GeometryLoad},
		{cfg.Schedules.Maintenance, instances.Maintenance},
		{cfg.Schedules.SnapshotUpload, instances.SnapshotUpload},
	}

	for _, s := range schedules {
		if s.job == nil {
			continue
		}
		if err := container.Scheduler.AddJob(s.schedule, s.job); err != nil {
			return nil, fmt.Errorf("failed to register %s: %w", s.job.Name(), err)
		}
	}

	log.Info().Int("jobs", len(instances.All())).Msg("Jobs registered")
	return instances, nil
}
