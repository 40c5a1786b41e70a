package sqlite_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/fwojciec/warmup/sqlite"
	"github.com/stretchr/testify/require"
)

func TestDB_Open(t *testing.T) {
	t.Parallel()

	t.Run("creates schema on first open", func(t *testing.T) {
		t.Parallel()

		db := sqlite.NewDB(":memory:")
		err := db.Open()
		require.NoError(t, err)
		defer db.Close()

		ctx := context.Background()
		for _, table := range []string{"runs", "run_results"} {
			var count int
			err = db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(&count)
			require.NoError(t, err, table)
		}

		var version int
		require.NoError(t, db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version))
		require.Equal(t, sqlite.SchemaVersion, version)
	})

	t.Run("refuses databases written by a newer version", func(t *testing.T) {
		t.Parallel()

		dbPath := t.TempDir() + "/future.db"
		db := sqlite.NewDB(dbPath)
		require.NoError(t, db.Open())
		_, err := db.ExecContext(context.Background(), fmt.Sprintf("PRAGMA user_version = %d", sqlite.SchemaVersion+1))
		require.NoError(t, err)
		require.NoError(t, db.Close())

		err = sqlite.NewDB(dbPath).Open()

		require.Error(t, err)
		require.Contains(t, err.Error(), "newer than supported")
	})

	t.Run("returns error for invalid path", func(t *testing.T) {
		t.Parallel()

		db := sqlite.NewDB("/nonexistent/path/db.sqlite")
		err := db.Open()
		require.Error(t, err)
	})

	t.Run("enables WAL mode for file-based databases", func(t *testing.T) {
		t.Parallel()

		dbPath := t.TempDir() + "/test.db"
		db := sqlite.NewDB(dbPath)
		err := db.Open()
		require.NoError(t, err)
		defer db.Close()

		ctx := context.Background()
		var journalMode string
		err = db.QueryRowContext(ctx, "PRAGMA journal_mode").Scan(&journalMode)
		require.NoError(t, err)
		require.Equal(t, "wal", journalMode)
	})

	t.Run("reopening keeps existing rows", func(t *testing.T) {
		t.Parallel()

		dbPath := t.TempDir() + "/history.db"
		ctx := context.Background()

		db := sqlite.NewDB(dbPath)
		require.NoError(t, db.Open())
		_, err := db.ExecContext(ctx, `INSERT INTO runs (id, started_at, finished_at) VALUES ('r1', '2026-01-01T00:00:00Z', '2026-01-01T00:00:01Z')`)
		require.NoError(t, err)
		require.NoError(t, db.Close())

		db = sqlite.NewDB(dbPath)
		require.NoError(t, db.Open())
		defer db.Close()

		var count int
		require.NoError(t, db.QueryRowContext(ctx, "SELECT COUNT(*) FROM runs").Scan(&count))
		require.Equal(t, 1, count)
	})
}
