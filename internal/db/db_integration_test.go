//go:build integration

package db

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

func getTestDB(t *testing.T) *DB {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set, skipping integration test")
	}

	ctx := context.Background()
	require.NoError(t, Migrate(ctx, dsn))

	db, err := Connect(ctx, dsn)
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}
	t.Cleanup(db.Close)
	return db
}

func TestDB_RepositoryContract(t *testing.T) {
	db := getTestDB(t)
	runRepositoryContract(t, func(t *testing.T) Repository { return db })
}

func TestMigrationVersion(t *testing.T) {
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set, skipping integration test")
	}
	ctx := context.Background()
	require.NoError(t, Migrate(ctx, dsn))

	version, err := MigrationVersion(ctx, dsn)
	require.NoError(t, err)
	require.GreaterOrEqual(t, version, int64(1))
}
