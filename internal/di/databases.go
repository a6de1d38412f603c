package di

import (
	"fmt"
	"path/filepath"

	"github.com/aristath/marketglobe/internal/config"
	"github.com/aristath/marketglobe/internal/database"
	"github.com/rs/zerolog"
)

// InitializeDatabases opens the three databases and applies their schemas
func InitializeDatabases(cfg *config.Config, log zerolog.Logger) (*Container, error) {
	container := &Container{}

	databases := []struct {
		name    string
		profile database.DatabaseProfile
		target  **database.DB
	}{
		// countries.db - country dataset, rewritten on each refresh
		{"countries", database.ProfileStandard, &container.CountriesDB},
		// config.db - runtime settings overriding the environment
		{"config", database.ProfileStandard, &container.ConfigDB},
		// client_data.db - upstream response cache, rebuildable
		{"client_data", database.ProfileCache, &container.ClientDataDB},
	}

	for _, d := range databases {
		db, err := database.New(database.Config{
			Path:    filepath.Join(cfg.DataDir, d.name+".db"),
			Profile: d.profile,
			Name:    d.name,
		})
		if err != nil {
			container.Close()
			return nil, fmt.Errorf("failed to initialize %s database: %w", d.name, err)
		}
		*d.target = db

		if err := db.Migrate(); err != nil {
			container.Close()
			return nil, fmt.Errorf("failed to apply schema to %s: %w", d.name, err)
		}
	}

	log.Info().Msg("All databases initialized and schemas applied")
	return container, nil
}
