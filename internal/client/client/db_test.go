package client

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

func tableNames(t *testing.T, db *sql.DB) []string {
	t.Helper()
	rows, err := db.Query(`SELECT name FROM sqlite_master WHERE type='table' ORDER BY name`)
	require.NoError(t, err)
	defer rows.Close()

	var names []string
	for rows.Next() {
		var n string
		require.NoError(t, rows.Scan(&n))
		names = append(names, n)
	}
	require.NoError(t, rows.Err())
	return names
}

func TestInitDatabase(t *testing.T) {
	tests := []struct {
		name string
		path func(t *testing.T) string
	}{
		{"file", func(t *testing.T) string { return filepath.Join(t.TempDir(), "mediaqr.db") }},
		{"nested directory", func(t *testing.T) string { return filepath.Join(t.TempDir(), "state", "local", "mediaqr.db") }},
		{"memory", func(*testing.T) string { return ":memory:" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()

			db, err := InitDatabase(ctx, tt.path(t))
			require.NoError(t, err)
			defer db.Close()

			names := tableNames(t, db)
			assert.Contains(t, names, "goose_db_version")
			assert.Contains(t, names, "kv")
		})
	}
}

func TestInitDatabase_HistoryBlobRoundTrip(t *testing.T) {
	ctx := context.Background()
	db, err := InitDatabase(ctx, ":memory:")
	require.NoError(t, err)
	defer db.Close()

	payload := []byte(`[{"id":"abc","filename":"cat.png"}]`)
	_, err = db.ExecContext(ctx, `INSERT INTO kv(key, value) VALUES (?, ?)`, "mediaHistory", payload)
	require.NoError(t, err)

	var got []byte
	require.NoError(t, db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, "mediaHistory").Scan(&got))
	assert.Equal(t, payload, got)

	_, err = db.ExecContext(ctx, `INSERT INTO kv(key, value) VALUES (?, ?)`, "mediaHistory", payload)
	assert.Error(t, err, "key is the primary key")
}

func TestRunMigrations_Reapply(t *testing.T) {
	ctx := context.Background()
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "mediaqr.db"))
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, RunMigrations(ctx, db))
	require.NoError(t, RunMigrations(ctx, db))

	var version int64
	require.NoError(t, db.QueryRowContext(ctx, `SELECT MAX(version_id) FROM goose_db_version`).Scan(&version))
	assert.Equal(t, int64(1), version)
}

func TestInitDatabase_BadPath(t *testing.T) {
	dir := t.TempDir()
	// A regular file where a directory is expected.
	blocker := filepath.Join(dir, "blocker")
	db, err := sql.Open("sqlite", blocker)
	require.NoError(t, err)
	_, err = db.Exec(`CREATE TABLE t (x INTEGER)`)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	_, err = InitDatabase(context.Background(), filepath.Join(blocker, "mediaqr.db"))
	assert.Error(t, err)
}
