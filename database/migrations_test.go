package database

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddedMigrations(t *testing.T) {
	t.Parallel()

	d := migrationsFromSource()
	defer d.Close()

	first, err := d.First()
	require.NoError(t, err)
	assert.Equal(t, uint(1), first)

	up, ident, err := d.ReadUp(first)
	require.NoError(t, err)
	defer up.Close()
	assert.Equal(t, "init", ident)

	body, err := io.ReadAll(up)
	require.NoError(t, err)
	assert.Contains(t, string(body), "CREATE TABLE documents")
	assert.Contains(t, string(body), "CREATE TABLE sync_runs")

	down, _, err := d.ReadDown(first)
	require.NoError(t, err)
	defer down.Close()
}

func TestUp_InvalidConnectionString(t *testing.T) {
	t.Parallel()

	err := Up("unknown://localhost/db")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to create migrator")
}

func TestSetupTestDB(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}

	pool, cleanup := SetupTestDB(t)
	defer cleanup()

	var count int
	require.NoError(t, pool.QueryRow(t.Context(), "SELECT COUNT(*) FROM documents").Scan(&count))
	assert.Zero(t, count)
}
