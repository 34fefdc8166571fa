/*
service.go - The operations exposed to transport layers

PURPOSE:
  Service is the core's entire external surface: create/update/delete/list
  records, compute statistics, and manage users. Every user-scoped call
  passes through the access guard before touching the store, so ownership
  is enforced identically no matter which transport invokes it.

REQUEST FLOW:
  1. Authorize acting identity against the target user
  2. Invoke the store (which enforces the record invariant on writes)
  3. Append an audit entry
  4. Return domain values; transports handle serialization

AUDIT:
  Audit writes are best-effort. A failed audit append is logged and does
  not fail the operation that triggered it.
*/
package fuelup

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// PasswordHasher abstracts credential hashing so the domain stays free of
// crypto dependencies. The auth package provides the production
// implementation.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) error
}

// Service wires the guard, store, and audit trail into the operation set
// consumed by transports.
type Service struct {
	store  Store
	hasher PasswordHasher
	log    *slog.Logger
}

// NewService creates a Service. A nil logger falls back to slog.Default().
func NewService(store Store, hasher PasswordHasher, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{store: store, hasher: hasher, log: log}
}

// =============================================================================
// RECORD OPERATIONS
// =============================================================================

// CreateRecord persists a new fuel purchase for its owner.
func (s *Service) CreateRecord(ctx context.Context, actor Identity, rec Record) (Record, error) {
	if err := Authorize(actor, rec.UserID); err != nil {
		return Record{}, err
	}

	stored, err := s.store.Create(ctx, rec)
	if err != nil {
		return Record{}, err
	}

	s.log.Info("fuel-up created", "user_id", stored.UserID, "record_id", stored.ID)
	s.audit(ctx, actor, AuditRecordCreated, stored.UserID, stored.ID, "")
	return stored, nil
}

// UpdateRecord applies a partial update to an existing record. The store
// merges the mutation with the committed state and rederives the total cost
// inside one transaction.
func (s *Service) UpdateRecord(ctx context.Context, actor Identity, id int64, m RecordMutation) (Record, error) {
	current, err := s.store.GetByID(ctx, id)
	if err != nil {
		return Record{}, err
	}
	if err := Authorize(actor, current.UserID); err != nil {
		return Record{}, err
	}

	updated, err := s.store.Update(ctx, id, m)
	if err != nil {
		return Record{}, err
	}

	s.audit(ctx, actor, AuditRecordUpdated, updated.UserID, updated.ID, "")
	return updated, nil
}

// DeleteRecord removes a record. Deleting an unknown id is a successful
// no-op; when the record exists, only its owner or an admin may delete it.
func (s *Service) DeleteRecord(ctx context.Context, actor Identity, id int64) error {
	current, err := s.store.GetByID(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if err := Authorize(actor, current.UserID); err != nil {
		return err
	}

	if err := s.store.DeleteByID(ctx, id); err != nil {
		return err
	}

	s.log.Info("fuel-up deleted", "user_id", current.UserID, "record_id", id)
	s.audit(ctx, actor, AuditRecordDeleted, current.UserID, id, "")
	return nil
}

// ListRecordsByUser returns a user's records, most recent purchase first.
func (s *Service) ListRecordsByUser(ctx context.Context, actor Identity, userID string) ([]Record, error) {
	if err := Authorize(actor, userID); err != nil {
		return nil, err
	}

	records, err := s.store.GetByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	s.audit(ctx, actor, AuditRecordsAccessed, userID, 0, "")
	return records, nil
}

// ListRecordsByUserInRange returns a user's records with purchase dates in
// [start, end] inclusive.
func (s *Service) ListRecordsByUserInRange(ctx context.Context, actor Identity, userID string, start, end time.Time) ([]Record, error) {
	if err := Authorize(actor, userID); err != nil {
		return nil, err
	}

	records, err := s.store.GetByUserInRange(ctx, userID, start, end)
	if err != nil {
		return nil, err
	}

	s.audit(ctx, actor, AuditRecordsAccessed, userID, 0, "range query")
	return records, nil
}

// GetStatistics computes the aggregate summary over the user's full record
// set. Always the loaded-record path: statistics never take a SQL shortcut,
// so the rounding point is identical for every store engine.
func (s *Service) GetStatistics(ctx context.Context, actor Identity, userID string) (Statistics, error) {
	if err := Authorize(actor, userID); err != nil {
		return Statistics{}, err
	}

	records, err := s.store.GetByUser(ctx, userID)
	if err != nil {
		return Statistics{}, err
	}

	stats := ComputeStatistics(records)
	s.audit(ctx, actor, AuditStatsComputed, userID, 0, "")
	return stats, nil
}

// =============================================================================
// USER OPERATIONS
// =============================================================================

// RegisterUser creates an account with a hashed password credential.
func (s *Service) RegisterUser(ctx context.Context, u User, password string) (User, error) {
	if err := u.Validate(); err != nil {
		return User{}, err
	}
	if len(password) < 8 {
		return User{}, &ValidationError{Field: "password", Message: "must be at least 8 characters"}
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return User{}, &StorageError{Op: "hash password", Err: err}
	}
	u.PasswordHash = hash
	u.CreatedAt = time.Now().UTC()

	if err := s.store.CreateUser(ctx, u); err != nil {
		return User{}, err
	}

	s.log.Info("user registered", "user_id", u.ID)
	return u, nil
}

// Authenticate verifies credentials and records the login time. It returns
// ErrInvalidCredentials for both unknown emails and wrong passwords.
func (s *Service) Authenticate(ctx context.Context, email, password string) (User, error) {
	u, err := s.store.GetUserByEmail(ctx, email)
	if errors.Is(err, ErrNotFound) {
		return User{}, ErrInvalidCredentials
	}
	if err != nil {
		return User{}, err
	}

	if err := s.hasher.Compare(u.PasswordHash, password); err != nil {
		return User{}, ErrInvalidCredentials
	}

	now := time.Now().UTC()
	if err := s.store.TouchLastLogin(ctx, u.ID, now); err != nil {
		// Login still succeeds; the timestamp is advisory.
		s.log.Warn("failed to record last login", "user_id", u.ID, "error", err)
	}
	u.LastLogin = &now

	s.log.Info("user logged in", "user_id", u.ID)
	return u, nil
}

// GetUser returns account details. Same ownership rule as records: a user
// sees their own account, admins see any.
func (s *Service) GetUser(ctx context.Context, actor Identity, userID string) (User, error) {
	if err := Authorize(actor, userID); err != nil {
		return User{}, err
	}
	return s.store.GetUser(ctx, userID)
}

// DeleteUser removes an account and all records it owns. Ownership
// termination implies record termination; no orphans survive.
func (s *Service) DeleteUser(ctx context.Context, actor Identity, userID string) error {
	if err := Authorize(actor, userID); err != nil {
		return err
	}

	if err := s.store.DeleteUser(ctx, userID); err != nil {
		return err
	}

	s.log.Info("user deleted", "user_id", userID)
	s.audit(ctx, actor, AuditUserDeleted, userID, 0, "cascade delete")
	return nil
}

// =============================================================================
// HELPERS
// =============================================================================

func (s *Service) audit(ctx context.Context, actor Identity, action AuditAction, targetID string, recordID int64, detail string) {
	entry := AuditEntry{
		ID:       uuid.NewString(),
		At:       time.Now().UTC(),
		ActorID:  actor.UserID,
		Action:   action,
		TargetID: targetID,
		RecordID: recordID,
		Detail:   detail,
	}
	if err := s.store.AppendAudit(ctx, entry); err != nil {
		s.log.Warn("audit append failed", "action", string(action), "error", err)
	}
}
