/*
errors.go - Centralized error types for the fuel tracking core

PURPOSE:
  All error categories in one place. Transports map these onto their own
  status codes; the core never retries and never swallows a category.

ERROR CATEGORIES:
  1. Validation errors - rejected before any store mutation
  2. Not-found errors  - update targeting an unknown record id
  3. Forbidden errors  - ownership mismatch without the admin role
  4. Storage errors    - underlying store failures, wrapped as-is

Note that delete-by-id of an unknown id is NOT an error (idempotent delete),
and statistics over an empty record set is a zero-valued success.

USAGE:
  if errors.Is(err, fuelup.ErrValidation) { ... 400 ... }
  var nf *fuelup.NotFoundError
  if errors.As(err, &nf) { ... nf.ID ... }
*/
package fuelup

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrValidation is the category for business-rule violations
	// (non-positive quantity or price, missing date, inverted range).
	ErrValidation = errors.New("validation failed")

	// ErrNotFound is returned when an update targets an unknown record id,
	// or a lookup targets an unknown user.
	ErrNotFound = errors.New("not found")

	// ErrForbidden is returned when the acting identity neither owns the
	// target data nor carries the admin role.
	ErrForbidden = errors.New("forbidden")

	// ErrStorage is the category for failures of the underlying store.
	// The core performs no automatic retry; callers decide.
	ErrStorage = errors.New("storage failure")

	// ErrDuplicateUser is returned when registration collides on id or email.
	ErrDuplicateUser = errors.New("user already exists")

	// ErrInvalidCredentials is returned on a failed login. Deliberately
	// does not distinguish unknown email from wrong password.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// ValidationError identifies which field violated which rule.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// NotFoundError identifies the missing record.
type NotFoundError struct {
	Kind string // "record" or "user"
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// ForbiddenError identifies the denied access attempt.
type ForbiddenError struct {
	ActorID  string
	TargetID string
}

func (e *ForbiddenError) Error() string {
	return fmt.Sprintf("user %s may not access data owned by %s", e.ActorID, e.TargetID)
}

func (e *ForbiddenError) Unwrap() error { return ErrForbidden }

// StorageError wraps an underlying store failure with the operation name.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

// Unwrap exposes the underlying cause for errors.Is/As chains.
func (e *StorageError) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrStorage) match regardless of the wrapped cause.
func (e *StorageError) Is(target error) bool { return target == ErrStorage }
