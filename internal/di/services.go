package di

import (
	"context"
	"fmt"

	"github.com/aristath/marketglobe/internal/clients/geometry"
	"github.com/aristath/marketglobe/internal/clients/marketdata"
	"github.com/aristath/marketglobe/internal/clock"
	"github.com/aristath/marketglobe/internal/config"
	"github.com/aristath/marketglobe/internal/events"
	"github.com/aristath/marketglobe/internal/modules/countries"
	"github.com/aristath/marketglobe/internal/modules/globe"
	"github.com/aristath/marketglobe/internal/reliability"
	"github.com/aristath/marketglobe/internal/scheduler"
	"github.com/rs/zerolog"
)

// InitializeServices creates clients and services. Order matters: the event
// bus comes first, then clients, then the services that use them.
func InitializeServices(container *Container, cfg *config.Config, log zerolog.Logger) error {
	if container == nil {
		return fmt.Errorf("container cannot be nil")
	}

	container.EventBus = events.NewBus(log)
	container.EventManager = events.NewManager(container.EventBus, log)
	container.Clock = clock.Real{}

	container.MarketClient = marketdata.NewClient(cfg.MarketAPIURL, container.ClientDataRepo, log)
	container.GeometryClient = geometry.NewClient(cfg.GeoJSONURL, container.ClientDataRepo, log)

	container.CountryService = countries.NewService(
		container.MarketClient,
		container.CountryRepo,
		countries.NewGenerator(0),
		container.EventManager,
		log,
	)

	container.GlobeStore = globe.NewStore(container.GeometryClient, container.EventManager, log)

	// Snapshots render the default view at rest.
	container.SnapshotRenderer = globe.NewRenderer(
		container.GlobeStore,
		container.CountryService,
		globe.OptionsFromConfig(cfg.Globe),
		container.Clock,
		log,
	)

	if cfg.Snapshot.Enabled() {
		s3Client, err := reliability.NewS3Client(context.Background(), cfg.Snapshot, log)
		if err != nil {
			return fmt.Errorf("failed to create snapshot storage client: %w", err)
		}
		container.SnapshotService = reliability.NewSnapshotService(
			s3Client,
			container.SnapshotRenderer,
			cfg.Snapshot.Prefix,
			container.EventManager,
			log,
		)
	} else {
		log.Info().Msg("Snapshot bucket not configured, snapshot uploads disabled")
	}

	container.Scheduler = scheduler.New(log)

	log.Info().Msg("Services initialized")
	return nil
}
