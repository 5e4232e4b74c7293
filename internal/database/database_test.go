package database

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func openTest(t *testing.T) *sql.DB {
	t.Helper()
	db, err := Open(context.Background(), Config{Path: filepath.Join(t.TempDir(), "sub", "test.db")}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestOpenAppliesMigrations(t *testing.T) {
	db := openTest(t)

	var n int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM migrations").Scan(&n))
	assert.Equal(t, 1, n)

	for _, table := range []string{"location_samples", "place_visits", "route_segments", "trips", "photos", "processing_runs", "geocode_cache", "regions"} {
		var name string
		err := db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		assert.NoError(t, err, table)
	}

	// running again is a no-op
	require.NoError(t, NewMigrationManager(db, zap.NewNop()).RunMigrations(context.Background()))
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM migrations").Scan(&n))
	assert.Equal(t, 1, n)
}

func TestTransactionRollback(t *testing.T) {
	db := openTest(t)
	ctx := context.Background()
	boom := errors.New("boom")

	err := Transaction(ctx, db, func(tx *sql.Tx) error {
		_, err := tx.Exec("INSERT INTO regions (id, user_id, latitude, longitude, radius_meters) VALUES ('r1', 'u1', 0, 0, 10)")
		require.NoError(t, err)
		return boom
	})
	assert.ErrorIs(t, err, boom)

	var n int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM regions").Scan(&n))
	assert.Zero(t, n)

	require.NoError(t, Transaction(ctx, db, func(tx *sql.Tx) error {
		_, err := tx.Exec("INSERT INTO regions (id, user_id, latitude, longitude, radius_meters) VALUES ('r1', 'u1', 0, 0, 10)")
		return err
	}))
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM regions").Scan(&n))
	assert.Equal(t, 1, n)
}
