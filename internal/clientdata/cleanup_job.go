package clientdata

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// expirer is the part of Repository the cleanup job needs.
type expirer interface {
	DeleteExpiredBefore(table string, grace time.Duration) (int64, error)
}

// CleanupJob drops cache entries that have outlived their stale grace
// period. Entries that merely expired are kept for upstream outages.
type CleanupJob struct {
	repo  expirer
	grace map[string]time.Duration
	log   zerolog.Logger
}

// NewCleanupJob creates the cleanup job using StaleGrace.
func NewCleanupJob(repo *Repository, log zerolog.Logger) *CleanupJob {
	return &CleanupJob{
		repo:  repo,
		grace: StaleGrace,
		log:   log.With().Str("job", "client_data_cleanup").Logger(),
	}
}

// Run cleans every table. A failing table does not stop the others; the
// first error is returned.
func (j *CleanupJob) Run() error {
	var firstErr error
	var total int64

	for _, table := range AllTables {
		deleted, err := j.repo.DeleteExpiredBefore(table, j.grace[table])
		if err != nil {
			j.log.Error().Err(err).Str("table", table).Msg("Failed to delete stale cache entries")
			if firstErr == nil {
				firstErr = fmt.Errorf("cleanup %s: %w", table, err)
			}
			continue
		}
		if deleted > 0 {
			j.log.Debug().Str("table", table).Int64("deleted", deleted).Msg("Dropped stale cache entries")
		}
		total += deleted
	}

	if total > 0 {
		j.log.Info().Int64("total_deleted", total).Msg("Client data cleanup completed")
	}
	return firstErr
}

// Name returns the job name for scheduling and logging.
func (j *CleanupJob) Name() string {
	return "client_data_cleanup"
}
