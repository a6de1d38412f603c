package reliability

import (
	"errors"
	"testing"

	"github.com/aristath/marketglobe/internal/database"
	testingdb "github.com/aristath/marketglobe/internal/testing"
	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/stretchr/testify/assert"
)

func quietLog() zerolog.Logger {
	return zerolog.New(nil).Level(zerolog.Disabled)
}

func TestDailyMaintenanceJob(t *testing.T) {
	countries, cleanup := testingdb.NewTestDB(t, "countries")
	defer cleanup()
	clientData, cleanupClient := testingdb.NewTestDB(t, "client_data")
	defer cleanupClient()

	job := NewDailyMaintenanceJob(map[string]*database.DB{
		"countries":   countries,
		"client_data": clientData,
		"config":      nil,
	}, t.TempDir(), quietLog())

	assert.Equal(t, "daily_maintenance", job.Name())
	assert.NoError(t, job.Run())
}

func TestDailyMaintenanceJob_ClosedDatabase(t *testing.T) {
	db, cleanup := testingdb.NewTestDB(t, "countries")
	cleanup()

	job := NewDailyMaintenanceJob(map[string]*database.DB{"countries": db}, "", quietLog())
	assert.ErrorContains(t, job.Run(), "unreachable")
}

func TestDailyMaintenanceJob_DiskSpace(t *testing.T) {
	tests := []struct {
		name    string
		free    uint64
		err     error
		wantErr bool
	}{
		{"plenty", 50 << 30, nil, false},
		{"low", 500 << 20, nil, false},
		{"critical", 10 << 20, nil, true},
		{"unreadable", 0, errors.New("no such device"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			job := NewDailyMaintenanceJob(nil, "/data", quietLog())
			job.usage = func(path string) (*disk.UsageStat, error) {
				assert.Equal(t, "/data", path)
				if tt.err != nil {
					return nil, tt.err
				}
				return &disk.UsageStat{Path: path, Free: tt.free}, nil
			}

			err := job.Run()
			if tt.wantErr {
				assert.ErrorContains(t, err, "MB free")
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
