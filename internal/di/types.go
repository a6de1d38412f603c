// Package di wires the application's databases, repositories, services and
// jobs into a single container.
package di

import (
	"github.com/aristath/marketglobe/internal/clientdata"
	"github.com/aristath/marketglobe/internal/clients/geometry"
	"github.com/aristath/marketglobe/internal/clients/marketdata"
	"github.com/aristath/marketglobe/internal/clock"
	"github.com/aristath/marketglobe/internal/database"
	"github.com/aristath/marketglobe/internal/events"
	"github.com/aristath/marketglobe/internal/modules/countries"
	"github.com/aristath/marketglobe/internal/modules/globe"
	"github.com/aristath/marketglobe/internal/modules/settings"
	"github.com/aristath/marketglobe/internal/reliability"
	"github.com/aristath/marketglobe/internal/scheduler"
)

// Container holds all application dependencies. It is the single source of
// truth for service instances and is handed to the server.
type Container struct {
	// Databases
	CountriesDB  *database.DB // Country dataset
	ConfigDB     *database.DB // Runtime settings
	ClientDataDB *database.DB // Upstream response cache

	// Repositories
	CountryRepo    *countries.Repository
	SettingsRepo   *settings.Repository
	ClientDataRepo *clientdata.Repository

	// Events
	EventBus     *events.Bus
	EventManager *events.Manager

	// Clients
	MarketClient   *marketdata.Client
	GeometryClient *geometry.Client

	// Services
	Clock            clock.Clock
	CountryService   *countries.Service
	GlobeStore       *globe.Store
	SnapshotRenderer *globe.Renderer
	SnapshotService  *reliability.SnapshotService // nil unless a bucket is configured
	Scheduler        *scheduler.Scheduler
}

// JobInstances holds the registered jobs for manual triggering.
type JobInstances struct {
	CountriesRefresh scheduler.Job
	ClientDataClean  scheduler.Job
	GeometryLoad     scheduler.Job
	Maintenance      scheduler.Job
	SnapshotUpload   scheduler.Job // nil when snapshots are disabled
}

// All returns the non-nil jobs keyed by name.
func (j *JobInstances) All() map[string]scheduler.Job {
	out := make(map[string]scheduler.Job)
	for _, job := range []scheduler.Job{j.CountriesRefresh, j.ClientDataClean, j.GeometryLoad, j.Maintenance, j.SnapshotUpload} {
		if job != nil {
			out[job.Name()] = job
		}
	}
	return out
}

// Databases returns the open databases keyed by name.
func (c *Container) Databases() map[string]*database.DB {
	return map[string]*database.DB{
		"countries":   c.CountriesDB,
		"config":      c.ConfigDB,
		"client_data": c.ClientDataDB,
	}
}

// Close closes every open database.
func (c *Container) Close() {
	for _, db := range []*database.DB{c.CountriesDB, c.ConfigDB, c.ClientDataDB} {
		if db != nil {
			db.Close()
		}
	}
}
