package repositories

import (
	"context"
	"errors"
	"net"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// Store error taxonomy. Handlers branch on these to pick a response: a
// missing schema object is a setup precondition failure and gets actionable
// instructions, everything else is a runtime fault.
var (
	// ErrSchemaNotProvisioned means a backing table or view does not exist
	ErrSchemaNotProvisioned = errors.New("store schema not provisioned")

	// ErrStoreConflict is a constraint violation other than the expected
	// upsert key
	ErrStoreConflict = errors.New("store write conflict")

	// ErrStoreUnavailable covers connectivity and timeout failures
	ErrStoreUnavailable = errors.New("store unavailable")
)

// Postgres SQLSTATE codes this layer branches on
const (
	pgUniqueViolation = "23505"
	pgUndefinedTable  = "42P01"
	pgUndefinedColumn = "42703"
)

// isUniqueViolation reports whether err is a Postgres unique-constraint
// violation, optionally on the named constraint. Matching the concrete
// SQLSTATE instead of guessing from message text matters: the lazy user
// insert and the achievement unlock both rely on treating exactly this error
// as success.
func isUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}

	if pgErr.Code != pgUniqueViolation {
		return false
	}

	return constraint == "" || pgErr.ConstraintName == constraint
}

// normalizeStoreError maps raw driver errors onto the taxonomy above.
// gorm.ErrRecordNotFound passes through untouched so callers can keep using
// errors.Is on it.
func normalizeStoreError(err error) error {
	if err == nil || errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUndefinedTable, pgUndefinedColumn:
			return errors.Join(ErrSchemaNotProvisioned, err)
		case pgUniqueViolation:
			return errors.Join(ErrStoreConflict, err)
		}
		return err
	}

	var netErr net.Error
	if errors.As(err, &netErr) || errors.Is(err, context.DeadlineExceeded) {
		return errors.Join(ErrStoreUnavailable, err)
	}

	// The pgx connect path wraps dial failures in plain errors
	msg := err.Error()
	if strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "failed to connect") {
		return errors.Join(ErrStoreUnavailable, err)
	}

	return err
}
