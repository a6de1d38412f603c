package di

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/aristath/marketglobe/internal/config"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitializeDatabases(t *testing.T) {
	tmpDir := t.TempDir()
	cfg := &config.Config{DataDir: tmpDir}

	container, err := InitializeDatabases(cfg, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(container.Close)

	for name, db := range container.Databases() {
		require.NotNil(t, db, name)
		assert.Equal(t, name, db.Name())
		_, err := os.Stat(filepath.Join(tmpDir, name+".db"))
		assert.NoError(t, err, name)
	}

	var count int
	err = container.CountriesDB.Conn().QueryRow("SELECT COUNT(*) FROM countries").Scan(&count)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestInitializeDatabases_BadDirectory(t *testing.T) {
	file := filepath.Join(t.TempDir(), "not-a-dir")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0644))

	_, err := InitializeDatabases(&config.Config{DataDir: file}, zerolog.Nop())
	assert.Error(t, err)
}
