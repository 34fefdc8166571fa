/*
store.go - Persistence interfaces for records, users, and the audit trail

PURPOSE:
  Defines the boundary between the domain logic and the database. Any
  engine offering atomic create/update/delete, point lookup by id, and
  ordered/range queries scoped by owner satisfies the contract — the core
  never depends on a specific database.

CONTRACT NOTES:
  - Create validates gallons > 0 and price > 0 before touching storage,
    assigns id and createdAt, truncates the purchase date to day
    granularity, and applies the cost invariant. No partial writes are
    observable.
  - Update is a read-modify-write inside one store transaction: it merges
    the mutation with the most recently committed state and rederives
    TotalCost. Field-level last-write-wins is explicitly disallowed.
  - GetByUser orders by purchase date descending, ties broken by id
    descending, so listings are deterministic.
  - GetByUserInRange is inclusive on both bounds and rejects start > end.
  - DeleteByID is idempotent: deleting an unknown id succeeds silently.
  - DeleteUser cascades deletion of the user's records; no orphans.

IMPLEMENTATIONS:
  - store/sqlite: production SQLite (WAL, foreign-key cascade)
  - store/postgres: PostgreSQL via pgx
  - fuelup/store: in-memory, for tests and development
*/
package fuelup

import (
	"context"
	"time"
)

// RecordStore persists fuel purchase records.
type RecordStore interface {
	// Create validates the record, assigns id and createdAt, truncates the
	// purchase date to day granularity, applies the cost invariant, and
	// persists atomically. Returns the stored record including derived
	// fields.
	Create(ctx context.Context, rec Record) (Record, error)

	// Update applies the mutation to the identified record within one
	// transaction, reapplying the cost invariant after the merge.
	// Returns a NotFoundError if the id is unknown.
	Update(ctx context.Context, id int64, m RecordMutation) (Record, error)

	// GetByID returns the record, or a NotFoundError if absent.
	GetByID(ctx context.Context, id int64) (Record, error)

	// GetByUser returns all records owned by userID, most recent purchase
	// first. An empty slice (not an error) when none exist.
	GetByUser(ctx context.Context, userID string) ([]Record, error)

	// GetByUserInRange is GetByUser filtered to start <= date <= end
	// inclusive. Returns a ValidationError if start > end.
	GetByUserInRange(ctx context.Context, userID string, start, end time.Time) ([]Record, error)

	// DeleteByID removes the record if present; silently succeeds if absent.
	DeleteByID(ctx context.Context, id int64) error
}

// UserStore persists user accounts.
type UserStore interface {
	// CreateUser persists a new user. Returns ErrDuplicateUser when the id
	// or email is already taken.
	CreateUser(ctx context.Context, u User) error

	// GetUser returns the user, or a NotFoundError if absent.
	GetUser(ctx context.Context, id string) (User, error)

	// GetUserByEmail returns the user owning the email, or a NotFoundError.
	GetUserByEmail(ctx context.Context, email string) (User, error)

	// TouchLastLogin records a successful login.
	TouchLastLogin(ctx context.Context, id string, at time.Time) error

	// DeleteUser removes the user and cascades deletion of all their
	// records in one transaction. Idempotent like DeleteByID.
	DeleteUser(ctx context.Context, id string) error
}

// AuditLog stores access-trail entries. Append-only.
type AuditLog interface {
	AppendAudit(ctx context.Context, e AuditEntry) error
	QueryAudit(ctx context.Context, targetID string, limit int) ([]AuditEntry, error)
}

// Store is the full persistence surface the service needs.
type Store interface {
	RecordStore
	UserStore
	AuditLog
}

// ValidateRange enforces the shared range-query precondition so every store
// rejects inverted ranges identically.
func ValidateRange(start, end time.Time) error {
	if start.After(end) {
		return &ValidationError{Field: "range", Message: "start date is after end date"}
	}
	return nil
}
