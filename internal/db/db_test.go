package db

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureSchemaIdempotent(t *testing.T) {
	database := NewTestDB(t)

	require.NoError(t, EnsureSchema(database), "second EnsureSchema")

	for _, table := range []string{"users", "customers", "quotes", "items", "settings", "revoked_tokens"} {
		var name string
		err := database.QueryRow(`SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`, table).Scan(&name)
		assert.NoError(t, err, "table %s", table)
	}
}

func TestOpenEnablesForeignKeys(t *testing.T) {
	database, err := Open(filepath.Join(t.TempDir(), "fk.sqlite3"))
	require.NoError(t, err)
	defer database.Close()

	var on int
	require.NoError(t, database.QueryRow(`PRAGMA foreign_keys`).Scan(&on))
	assert.Equal(t, 1, on)

	var mode string
	require.NoError(t, database.QueryRow(`PRAGMA journal_mode`).Scan(&mode))
	assert.Equal(t, "wal", mode)
}

func TestDSN(t *testing.T) {
	want := "file:test.db?mode=rwc&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)&_pragma=synchronous(NORMAL)&_time_format=sqlite"
	assert.Equal(t, want, dsn("file:test.db?mode=rwc"))
}
