package sqldb

import (
	"context"
	"embed"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

const migrationsDir = "migrations"

// Migration commands accepted by Migrate.
const (
	MigrateUp     = "up"
	MigrateDown   = "down"
	MigrateStatus = "status"
	MigrateReset  = "reset"
)

// goose keeps its configuration in package globals.
var gooseMu sync.Mutex

// slogGooseLogger adapts goose's logger interface to slog.
type slogGooseLogger struct {
	logger *slog.Logger
}

// Printf implements the goose.Logger Printf method by forwarding messages to slog.Info
func (l *slogGooseLogger) Printf(format string, v ...any) {
	l.logger.Info(fmt.Sprintf(format, v...))
}

// Fatalf implements the goose.Logger Fatalf method by forwarding error messages to slog.Error.
// Unlike the standard Fatalf behavior, this does NOT call os.Exit; the error is
// returned to the caller instead.
func (l *slogGooseLogger) Fatalf(format string, v ...any) {
	l.logger.Error(fmt.Sprintf(format, v...))
}

// Migrate runs the embedded schema migrations against db.
func Migrate(ctx context.Context, db *sqlx.DB, command string, logger *slog.Logger) error {
	migrationLogger := logger.With(
		slog.String("component", "migrations"),
		slog.String("command", command),
	)

	gooseMu.Lock()
	defer gooseMu.Unlock()

	goose.SetLogger(&slogGooseLogger{logger: migrationLogger})
	goose.SetBaseFS(migrationsFS)
	defer goose.SetBaseFS(nil)

	if err := goose.SetDialect(dialectFor(db.DriverName())); err != nil {
		return fmt.Errorf("failed to set migration dialect: %w", err)
	}

	startTime := time.Now()
	var err error
	switch command {
	case MigrateUp:
		err = goose.UpContext(ctx, db.DB, migrationsDir)
	case MigrateDown:
		err = goose.DownContext(ctx, db.DB, migrationsDir)
	case MigrateStatus:
		err = goose.StatusContext(ctx, db.DB, migrationsDir)
	case MigrateReset:
		err = goose.ResetContext(ctx, db.DB, migrationsDir)
	default:
		return fmt.Errorf("unknown migration command %q", command)
	}
	if err != nil {
		migrationLogger.Error("migration failed", slog.String("error", err.Error()))
		return fmt.Errorf("migration %s failed: %w", command, err)
	}

	migrationLogger.Debug("migration completed",
		slog.Int64("duration_ms", time.Since(startTime).Milliseconds()))
	return nil
}

// SchemaVersion returns the currently applied migration version.
func SchemaVersion(ctx context.Context, db *sqlx.DB) (int64, error) {
	gooseMu.Lock()
	defer gooseMu.Unlock()

	if err := goose.SetDialect(dialectFor(db.DriverName())); err != nil {
		return 0, fmt.Errorf("failed to set migration dialect: %w", err)
	}
	return goose.GetDBVersionContext(ctx, db.DB)
}

func dialectFor(driverName string) string {
	if driverName == DriverPostgres {
		return string(goose.DialectPostgres)
	}
	return string(goose.DialectSQLite3)
}
