package postgres

import (
	"context"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
)

// TestDB represents a test database connection
type TestDB struct {
	Pool *pgxpool.Pool
}

// NewTestDB connects to INGEST_TEST_DATABASE_URL or skips the test.
func NewTestDB(t *testing.T) *TestDB {
	t.Helper()

	connString := os.Getenv("INGEST_TEST_DATABASE_URL")
	if connString == "" {
		t.Skip("INGEST_TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, connString)
	require.NoError(t, err, "Failed to connect to test database")
	require.NoError(t, pool.Ping(ctx), "Failed to ping test database")

	return &TestDB{Pool: pool}
}

// RunTest prepares a clean catalog table, runs fn and closes the pool.
func RunTest(t *testing.T, fn func(t *testing.T, db *TestDB)) {
	db := NewTestDB(t)
	defer db.Pool.Close()

	ctx := context.Background()
	_, err := db.Pool.Exec(ctx, Schema)
	require.NoError(t, err, "Failed to create catalog table")
	_, err = db.Pool.Exec(ctx, "TRUNCATE catalog_entries")
	require.NoError(t, err, "Failed to truncate catalog table")

	fn(t, db)
}
