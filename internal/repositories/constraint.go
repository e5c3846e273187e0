package repositories

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
)

const pgUniqueViolation = "23505"

// classifyConstraintError maps a unique-index violation on insert to the
// matching sentinel error. Other errors are wrapped unchanged.
func classifyConstraintError(err error) error {
	var target string

	var pgErr *pgconn.PgError
	var sqliteErr sqlite3.Error
	switch {
	case errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation:
		target = pgErr.ConstraintName + " " + pgErr.Detail
	case errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique:
		target = sqliteErr.Error()
	default:
		return fmt.Errorf("failed to create participant: %w", err)
	}

	switch {
	case strings.Contains(target, "email"):
		return ErrDuplicateEmail
	case strings.Contains(target, "unique_id"):
		return ErrDuplicateUniqueID
	default:
		return fmt.Errorf("failed to create participant: %w", err)
	}
}
