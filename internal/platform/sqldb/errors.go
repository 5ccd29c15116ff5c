package sqldb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/phrazzld/lazycard/internal/store"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// PostgreSQL error codes
const (
	uniqueViolationCode     = "23505"
	foreignKeyViolationCode = "23503"
	checkViolationCode      = "23514"
	notNullViolationCode    = "23502"
)

// errForeignKey marks a mapped foreign key violation so stores can translate
// it into an entity-specific conflict.
var errForeignKey = errors.New("foreign key violation")

// MapError maps a database error to an appropriate store error.
// It wraps the original error to preserve context. Unrecognized driver
// errors become store.ErrPersistence.
func MapError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %v", store.ErrNotFound, err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case uniqueViolationCode:
			return fmt.Errorf("%w: %v", store.ErrDuplicate, err)
		case foreignKeyViolationCode:
			return fmt.Errorf("%w: %w (%s): %v", store.ErrConflict, errForeignKey, pgErr.ConstraintName, err)
		case checkViolationCode, notNullViolationCode:
			return fmt.Errorf("%w: constraint violation (%s): %v", store.ErrInvalidEntity, pgErr.ConstraintName, err)
		}
		return fmt.Errorf("%w: %v", store.ErrPersistence, err)
	}

	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		switch liteErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return fmt.Errorf("%w: %v", store.ErrDuplicate, err)
		case sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY:
			return fmt.Errorf("%w: %w: %v", store.ErrConflict, errForeignKey, err)
		case sqlite3.SQLITE_CONSTRAINT_CHECK, sqlite3.SQLITE_CONSTRAINT_NOTNULL:
			return fmt.Errorf("%w: constraint violation: %v", store.ErrInvalidEntity, err)
		}
		if liteErr.Code()&0xff == sqlite3.SQLITE_CONSTRAINT {
			return fmt.Errorf("%w: %v", store.ErrConflict, err)
		}
		return fmt.Errorf("%w: %v", store.ErrPersistence, err)
	}

	return fmt.Errorf("%w: %v", store.ErrPersistence, err)
}

// isForeignKeyViolation reports whether a mapped error came from a foreign key constraint.
func isForeignKeyViolation(err error) bool {
	return errors.Is(err, errForeignKey)
}

// CheckRowsAffected returns notFound when a statement touched no rows.
func CheckRowsAffected(result sql.Result, notFound error) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return MapError(err)
	}
	if rows == 0 {
		return notFound
	}
	return nil
}
