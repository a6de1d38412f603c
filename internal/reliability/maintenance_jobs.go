// Package reliability keeps the service's databases healthy and publishes
// globe snapshots to object storage.
package reliability

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/aristath/marketglobe/internal/database"
	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/disk"
)

// Disk space thresholds in bytes.
const (
	criticalFreeBytes = 200 << 20
	lowFreeBytes      = 1 << 30
)

// DailyMaintenanceJob checks integrity and checkpoints the WAL of every
// database, then verifies free disk space in the data directory.
type DailyMaintenanceJob struct {
	databases map[string]*database.DB
	dataDir   string
	usage     func(path string) (*disk.UsageStat, error)
	log       zerolog.Logger
}

// NewDailyMaintenanceJob creates the job. Nil databases are skipped.
func NewDailyMaintenanceJob(databases map[string]*database.DB, dataDir string, log zerolog.Logger) *DailyMaintenanceJob {
	return &DailyMaintenanceJob{
		databases: databases,
		dataDir:   dataDir,
		usage:     disk.Usage,
		log:       log.With().Str("job", "daily_maintenance").Logger(),
	}
}

// Name returns the job name for scheduler
func (j *DailyMaintenanceJob) Name() string {
	return "daily_maintenance"
}

// Run executes the daily maintenance job
func (j *DailyMaintenanceJob) Run() error {
	j.log.Info().Msg("Starting daily maintenance")
	startTime := time.Now()

	names := make([]string, 0, len(j.databases))
	for name := range j.databases {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		db := j.databases[name]
		if db == nil {
			j.log.Warn().Str("database", name).Msg("Database not initialized, skipping")
			continue
		}
		if err := j.checkIntegrity(name, db); err != nil {
			j.log.Error().Err(err).Str("database", name).Msg("Integrity check failed")
			return err
		}

		if err := db.WALCheckpoint("TRUNCATE"); err != nil {
			// Not critical
			j.log.Warn().Err(err).Str("database", name).Msg("WAL checkpoint failed")
		}
	}

	if err := j.checkDiskSpace(); err != nil {
		return err
	}

	j.log.Info().
		Dur("duration_ms", time.Since(startTime)).
		Msg("Daily maintenance completed successfully")
	return nil
}

func (j *DailyMaintenanceJob) checkIntegrity(name string, db *database.DB) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.QuickCheck(ctx); err != nil {
		return fmt.Errorf("database %s unreachable: %w", name, err)
	}

	var result string
	if err := db.Conn().QueryRowContext(ctx, "PRAGMA integrity_check").Scan(&result); err != nil {
		return fmt.Errorf("integrity check failed for %s: %w", name, err)
	}
	if result != "ok" {
		return fmt.Errorf("database %s is corrupted: %s", name, result)
	}
	return nil
}

func (j *DailyMaintenanceJob) checkDiskSpace() error {
	if j.dataDir == "" {
		return nil
	}
	stat, err := j.usage(j.dataDir)
	if err != nil {
		j.log.Warn().Err(err).Msg("Failed to read disk usage")
		return nil
	}

	j.log.Debug().Uint64("free_bytes", stat.Free).Msg("Disk space check")
	switch {
	case stat.Free < criticalFreeBytes:
		return fmt.Errorf("only %d MB free in %s", stat.Free>>20, j.dataDir)
	case stat.Free < lowFreeBytes:
		j.log.Warn().Uint64("free_bytes", stat.Free).Msg("Disk space running low")
	}
	return nil
}
