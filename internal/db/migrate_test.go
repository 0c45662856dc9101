package db

import (
	"io/fs"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddedMigrationsFS(t *testing.T) {
	entries, err := fs.ReadDir(migrationsFS, "migrations")
	require.NoError(t, err)

	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.Contains(t, names, "000001_create_scan_history.up.sql")
	assert.Contains(t, names, "000001_create_scan_history.down.sql")
}

func TestNewDBMigratesToLatest(t *testing.T) {
	db := setupTestDB(t)

	version, dirty, err := db.MigrateVersion()
	require.NoError(t, err)
	assert.False(t, dirty)
	assert.Equal(t, uint(1), version)

	// Re-running is a no-op.
	require.NoError(t, db.MigrateUp())
}

func TestOpenDBLeavesSchemaAlone(t *testing.T) {
	db, err := OpenDB(filepath.Join(t.TempDir(), "raw.db"))
	require.NoError(t, err)
	defer db.Close()

	version, dirty, err := db.MigrateVersion()
	require.NoError(t, err)
	assert.False(t, dirty)
	assert.Zero(t, version)
}

func TestMigrateDownDropsTables(t *testing.T) {
	db := setupTestDB(t)
	require.NoError(t, db.MigrateDown())

	var count int
	require.NoError(t, db.QueryRow(
		`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name IN ('scan_runs', 'scan_detections')`,
	).Scan(&count))
	assert.Zero(t, count)

	require.NoError(t, db.MigrateUp())
	_, err := db.Runs(1)
	assert.NoError(t, err)
}
