package scheduler

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Refresher reloads a dataset.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// RefreshCountriesJob reloads country performance so every refresh
// publishes a new snapshot.
type RefreshCountriesJob struct {
	countries Refresher
	timeout   time.Duration
	log       zerolog.Logger
}

// NewRefreshCountriesJob creates the refresh job.
func NewRefreshCountriesJob(countries Refresher, log zerolog.Logger) *RefreshCountriesJob {
	return &RefreshCountriesJob{
		countries: countries,
		timeout:   time.Minute,
		log:       log.With().Str("job", "countries_refresh").Logger(),
	}
}

// Name returns the job name
func (j *RefreshCountriesJob) Name() string {
	return "countries_refresh"
}

// Run executes the refresh
func (j *RefreshCountriesJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	if err := j.countries.Refresh(ctx); err != nil {
		j.log.Warn().Err(err).Msg("Country refresh failed")
		return err
	}
	return nil
}
