package postgres

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/oksasatya/teamsync/internal/domain/repository"
)

const (
	codeUniqueViolation = "23505"
	codeInvalidText     = "22P02" // malformed uuid in a lookup
)

// mapErr translates driver errors into repository errors.
func mapErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return repository.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case codeUniqueViolation:
			return fmt.Errorf("%s: %w", op, repository.ErrConflict)
		case codeInvalidText:
			return repository.ErrNotFound
		}
	}
	return fmt.Errorf("db error: %s: %w", op, err)
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
