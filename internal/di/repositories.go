package di

import (
	"fmt"

	"github.com/aristath/marketglobe/internal/clientdata"
	"github.com/aristath/marketglobe/internal/config"
	"github.com/aristath/marketglobe/internal/modules/countries"
	"github.com/aristath/marketglobe/internal/modules/settings"
	"github.com/rs/zerolog"
)

// InitializeRepositories creates the repositories and applies stored
// settings on top of the environment configuration.
func InitializeRepositories(container *Container, cfg *config.Config, log zerolog.Logger) error {
	if container == nil {
		return fmt.Errorf("container cannot be nil")
	}

	container.CountryRepo = countries.NewRepository(container.CountriesDB.Conn(), log)
	container.SettingsRepo = settings.NewRepository(container.ConfigDB.Conn(), log)
	container.ClientDataRepo = clientdata.NewRepository(container.ClientDataDB.Conn())

	if err := cfg.UpdateFromSettings(container.SettingsRepo); err != nil {
		return fmt.Errorf("failed to apply stored settings: %w", err)
	}

	log.Info().Msg("Repositories initialized")
	return nil
}
