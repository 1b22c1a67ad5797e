package service

import (
	"context"
	"errors"
	"fmt"

	"projector/models"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrValidation marks rejected input; nothing was written
	ErrValidation = errors.New("validation failed")

	// ErrNotFound marks a missing analysis or an empty result tier
	ErrNotFound = errors.New("not found")

	// ErrConflict marks an operation that is not allowed in the current state
	ErrConflict = errors.New("conflict")

	// ErrPersistence marks a storage failure; the operation can be retried
	ErrPersistence = errors.New("persistence failure")

	// ErrForbidden marks an operation the caller may not perform
	ErrForbidden = errors.New("forbidden")
)

var (
	// ErrNothingToPromote is returned when an analysis has no staging rows
	ErrNothingToPromote = fmt.Errorf("%w: no staging results to promote", ErrConflict)

	// ErrAlreadyPromoted is returned when re-promotion is disabled and permanent rows exist
	ErrAlreadyPromoted = fmt.Errorf("%w: analysis already has permanent results", ErrConflict)

	// ErrHasPermanentResults is returned when deleting an analysis with promoted results
	ErrHasPermanentResults = fmt.Errorf("%w: analysis has permanent results", ErrConflict)

	// ErrUserExists is returned when registering a taken username or email
	ErrUserExists = fmt.Errorf("%w: user already exists", ErrConflict)
)

// ValidationError describes one rejected input field
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// notFound wraps ErrNotFound with what was missing
func notFound(what string, id int64) error {
	return fmt.Errorf("%w: %s %d", ErrNotFound, what, id)
}

// persistenceError wraps a storage failure with the operation and analysis it belongs to
func persistenceError(operation string, analysisID int64, err error) error {
	return fmt.Errorf("%w: %s analysis %d: %w", ErrPersistence, operation, analysisID, err)
}

// tierWriteError wraps a failed tier write. Rows of the wrong analysis are a caller bug and stay out of ErrPersistence.
func tierWriteError(operation string, analysisID int64, err error) error {
	if errors.Is(err, models.ErrForeignResultRow) {
		return fmt.Errorf("%s analysis %d: %w", operation, analysisID, err)
	}
	return persistenceError(operation, analysisID, err)
}

// IsRetryable reports whether err is a transient storage failure
func IsRetryable(err error) bool {
	return errors.Is(err, ErrPersistence)
}

// isSerializationFailure reports PostgreSQL errors raised by concurrent transactions
func isSerializationFailure(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "40001", "40P01":
			return true
		}
	}
	return errors.Is(err, context.DeadlineExceeded)
}

// isForeignKeyViolation reports a rejected delete or insert due to a foreign key
func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23503"
}

// isUniqueViolation reports a duplicate key error
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
