// Package dberr maps backend storage failures onto the small error
// taxonomy the API layer exposes to users.
package dberr

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

var (
	// ErrNotFound no row matches the given key.
	ErrNotFound = errors.New("record not found")
	// ErrPermissionDenied the backend rejected the caller's role.
	ErrPermissionDenied = errors.New("permission denied")
	// ErrConflict a uniqueness constraint was violated.
	ErrConflict = errors.New("record already exists")
	// ErrInvalidKey the caller passed a placeholder key that was never
	// assigned by the server. Rejected before any store access.
	ErrInvalidKey = errors.New("invalid record key")
	// ErrNoKey the backend confirmed a create but returned no key.
	// Distinct from a transport or constraint failure.
	ErrNoKey = errors.New("create confirmed without a key")
)

// Postgres error codes worth distinguishing. Everything else falls
// through to the generic message.
const (
	pgInsufficientPrivilege = "42501"
	pgUniqueViolation       = "23505"
	pgRLSViolation          = "42P17"
)

// Translate converts a gorm/pgx error into the façade taxonomy. nil maps
// to nil; unmapped backend codes come back wrapped with their raw text.
func Translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrConflict
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgInsufficientPrivilege, pgRLSViolation:
			return ErrPermissionDenied
		case pgUniqueViolation:
			return ErrConflict
		}
		return fmt.Errorf("backend error %s: %s", pgErr.Code, pgErr.Message)
	}
	return fmt.Errorf("backend error: %s", err.Error())
}

// UserMessage renders a translated error as a single user-facing line.
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNotFound):
		return "The record no longer exists"
	case errors.Is(err, ErrPermissionDenied):
		return "You do not have permission to perform this action"
	case errors.Is(err, ErrConflict):
		return "A record with the same identity already exists"
	case errors.Is(err, ErrInvalidKey):
		return "The record has not been saved yet"
	default:
		return err.Error()
	}
}
