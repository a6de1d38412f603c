// Package testing provides database helpers for package tests.
package testing

import (
	"path/filepath"
	"testing"

	"github.com/aristath/marketglobe/internal/database"
)

// NewTestDB opens a migrated database named name in a per-test directory.
// The name selects the schema ("countries", "config", "client_data"); any
// other name yields an empty database. The returned func closes it early;
// it also runs automatically when the test ends and is safe to call twice.
func NewTestDB(t *testing.T, name string) (*database.DB, func()) {
	t.Helper()

	db, err := database.New(database.Config{
		Path:    filepath.Join(t.TempDir(), name+".db"),
		Profile: database.ProfileStandard,
		Name:    name,
	})
	if err != nil {
		t.Fatalf("open test database %s: %v", name, err)
	}

	closed := false
	closeDB := func() {
		if closed {
			return
		}
		closed = true
		if err := db.Close(); err != nil {
			t.Logf("close test database %s: %v", name, err)
		}
	}
	t.Cleanup(closeDB)

	if err := db.Migrate(); err != nil {
		closeDB()
		t.Fatalf("migrate test database %s: %v", name, err)
	}
	return db, closeDB
}
