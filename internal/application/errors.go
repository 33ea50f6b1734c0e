package application

import (
	"errors"
	"fmt"

	repo "github.com/oksasatya/teamsync/internal/domain/repository"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")
	ErrNotFound           = errors.New("not found")
	ErrConflict           = errors.New("user already exists")
	ErrStoreFailure       = errors.New("credential store failure")
	ErrInvalidProvider    = errors.New("invalid provider identity")

	// ErrRoleNotSeeded means provisioning could not find a built-in role.
	// It is a deployment misconfiguration, not a user error.
	ErrRoleNotSeeded = fmt.Errorf("role not seeded: %w", ErrNotFound)
)

// storeErr classifies a store error for op into the application taxonomy.
func storeErr(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repo.ErrNotFound):
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	case errors.Is(err, repo.ErrConflict):
		return fmt.Errorf("%s: %w", op, ErrConflict)
	default:
		return fmt.Errorf("%s: %w: %w", op, ErrStoreFailure, err)
	}
}
