package testdb

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/phrazzld/lazycard/internal/config"
	"github.com/phrazzld/lazycard/internal/platform/logger"
	"github.com/phrazzld/lazycard/internal/platform/sqldb"
	"github.com/stretchr/testify/require"
)

// EnvDatabaseURL selects a PostgreSQL test database when set.
const EnvDatabaseURL = "LAZYCARD_TEST_DATABASE_URL"

// Config returns the database configuration tests should use.
func Config(t *testing.T) config.DatabaseConfig {
	t.Helper()
	if url := os.Getenv(EnvDatabaseURL); url != "" {
		return config.DatabaseConfig{Driver: "postgres", URL: url}
	}
	return config.DatabaseConfig{Driver: "sqlite", Path: filepath.Join(t.TempDir(), "test.db")}
}

// Open returns a database with the latest schema applied. It is closed when
// the test ends.
func Open(t *testing.T) *sqlx.DB {
	t.Helper()
	ctx := context.Background()
	log := logger.Discard()
	cfg := Config(t)

	db, err := sqldb.Open(ctx, cfg, log)
	require.NoError(t, err, "failed to open test database")
	t.Cleanup(func() { _ = db.Close() })

	if cfg.Driver == "postgres" {
		require.NoError(t, sqldb.Migrate(ctx, db, sqldb.MigrateReset, log), "failed to reset test database")
	}
	require.NoError(t, sqldb.Migrate(ctx, db, sqldb.MigrateUp, log), "failed to migrate test database")
	return db
}
