/*
Package sqlite provides the SQLite-backed implementation of the fuelup
storage interfaces.

PURPOSE:
  Implements fuelup.Store (records, users, audit trail) on SQLite. The
  same patterns apply to PostgreSQL — see store/postgres for the dialect
  twin.

KEY TABLES:
  users:         Accounts; email unique; deleting cascades to fuel_ups
  fuel_ups:      Fuel purchase records with derived total_cost
  audit_entries: Append-only access trail

INVARIANT ENFORCEMENT:
  Every write path validates first and calls ApplyCostInvariant before
  touching the database, so a stored total_cost is always the product of
  the stored gallons and price_per_gallon. Update re-reads the committed
  row inside the transaction before merging, so concurrent updates to the
  same record cannot interleave at field level.

STORAGE FORMATS:
  Decimals are stored as TEXT to preserve exact precision, purchase dates
  as YYYY-MM-DD (lexicographic order == chronological order), timestamps
  as RFC3339.

WAL MODE:
  SQLite is opened with WAL and foreign keys on. A sync.RWMutex serializes
  writers; with PostgreSQL the database handles this instead.

SEE ALSO:
  - fuelup/store.go: Interface contracts
  - fuelup/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"github.com/tsanders-rh/boat-fuel-tracker/fuelup"
)

const dateLayout = "2006-01-02"

// Store implements fuelup.Store using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a SQLite store at the given path. Use ":memory:" for an
// in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// One connection: keeps ":memory:" databases stable across the pool and
	// matches the store-level write serialization.
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		email TEXT NOT NULL UNIQUE COLLATE NOCASE,
		display_name TEXT NOT NULL DEFAULT '',
		password_hash TEXT NOT NULL DEFAULT '',
		is_admin BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TEXT NOT NULL,
		last_login TEXT
	);

	CREATE TABLE IF NOT EXISTS fuel_ups (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		fuel_date TEXT NOT NULL,
		gallons TEXT NOT NULL,
		price_per_gallon TEXT NOT NULL,
		total_cost TEXT NOT NULL,
		engine_hours TEXT,
		location TEXT NOT NULL DEFAULT '',
		notes TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL
	);

	-- Listing hot path: per-user, newest purchase first
	CREATE INDEX IF NOT EXISTS idx_fuel_ups_user_date
		ON fuel_ups(user_id, fuel_date DESC, id DESC);

	CREATE TABLE IF NOT EXISTS audit_entries (
		id TEXT PRIMARY KEY,
		at TEXT NOT NULL,
		actor_id TEXT NOT NULL,
		action TEXT NOT NULL,
		target_id TEXT NOT NULL,
		record_id INTEGER NOT NULL DEFAULT 0,
		detail TEXT NOT NULL DEFAULT ''
	);

	CREATE INDEX IF NOT EXISTS idx_audit_target
		ON audit_entries(target_id, at DESC);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// RECORD STORE (fuelup.RecordStore interface)
// =============================================================================

// Create validates, assigns id and createdAt, applies the cost invariant,
// and inserts the record atomically.
func (s *Store) Create(ctx context.Context, rec fuelup.Record) (fuelup.Record, error) {
	if err := rec.Validate(); err != nil {
		return fuelup.Record{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	rec.Date = fuelup.DayOf(rec.Date)
	rec.ApplyCostInvariant()

	query := `
		INSERT INTO fuel_ups
		(user_id, fuel_date, gallons, price_per_gallon, total_cost, engine_hours, location, notes, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	res, err := s.db.ExecContext(ctx, query,
		rec.UserID,
		rec.Date.Format(dateLayout),
		rec.Gallons.String(),
		rec.PricePerGallon.String(),
		rec.TotalCost.String(),
		nullDecimal(rec.EngineHours),
		rec.Location,
		rec.Notes,
		rec.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fuelup.Record{}, &fuelup.StorageError{Op: "create record", Err: err}
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fuelup.Record{}, &fuelup.StorageError{Op: "create record", Err: err}
	}
	rec.ID = id
	return rec, nil
}

// Update merges the mutation with the committed row inside one transaction
// and rederives total_cost. Returns a NotFoundError for unknown ids.
func (s *Store) Update(ctx context.Context, id int64, m fuelup.RecordMutation) (fuelup.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fuelup.Record{}, &fuelup.StorageError{Op: "begin update", Err: err}
	}
	defer tx.Rollback()

	current, err := s.getByID(ctx, tx, id)
	if err != nil {
		return fuelup.Record{}, err
	}

	merged := m.Apply(current)
	merged.CreatedAt = current.CreatedAt // createdAt is set once, never updated
	if err := merged.Validate(); err != nil {
		return fuelup.Record{}, err
	}

	query := `
		UPDATE fuel_ups
		SET fuel_date = ?, gallons = ?, price_per_gallon = ?, total_cost = ?,
		    engine_hours = ?, location = ?, notes = ?
		WHERE id = ?
	`

	if _, err := tx.ExecContext(ctx, query,
		merged.Date.Format(dateLayout),
		merged.Gallons.String(),
		merged.PricePerGallon.String(),
		merged.TotalCost.String(),
		nullDecimal(merged.EngineHours),
		merged.Location,
		merged.Notes,
		id,
	); err != nil {
		return fuelup.Record{}, &fuelup.StorageError{Op: "update record", Err: err}
	}

	if err := tx.Commit(); err != nil {
		return fuelup.Record{}, &fuelup.StorageError{Op: "commit update", Err: err}
	}
	return merged, nil
}

// GetByID returns a single record.
func (s *Store) GetByID(ctx context.Context, id int64) (fuelup.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.getByID(ctx, s.db, id)
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *Store) getByID(ctx context.Context, db queryer, id int64) (fuelup.Record, error) {
	row := db.QueryRowContext(ctx, `
		SELECT id, user_id, fuel_date, gallons, price_per_gallon, total_cost,
		       engine_hours, location, notes, created_at
		FROM fuel_ups WHERE id = ?
	`, id)

	rec, err := scanRecord(row)
	if err == sql.ErrNoRows {
		return fuelup.Record{}, &fuelup.NotFoundError{Kind: "record", ID: strconv.FormatInt(id, 10)}
	}
	if err != nil {
		return fuelup.Record{}, &fuelup.StorageError{Op: "get record", Err: err}
	}
	return rec, nil
}

// GetByUser returns all records for a user, newest purchase first, ties
// broken by id descending.
func (s *Store) GetByUser(ctx context.Context, userID string) ([]fuelup.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT id, user_id, fuel_date, gallons, price_per_gallon, total_cost,
		       engine_hours, location, notes, created_at
		FROM fuel_ups
		WHERE user_id = ?
		ORDER BY fuel_date DESC, id DESC
	`
	return s.queryRecords(ctx, query, userID)
}

// GetByUserInRange filters to start <= fuel_date <= end inclusive.
func (s *Store) GetByUserInRange(ctx context.Context, userID string, start, end time.Time) ([]fuelup.Record, error) {
	if err := fuelup.ValidateRange(start, end); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT id, user_id, fuel_date, gallons, price_per_gallon, total_cost,
		       engine_hours, location, notes, created_at
		FROM fuel_ups
		WHERE user_id = ? AND fuel_date >= ? AND fuel_date <= ?
		ORDER BY fuel_date DESC, id DESC
	`
	return s.queryRecords(ctx, query, userID, start.Format(dateLayout), end.Format(dateLayout))
}

// DeleteByID removes the record if present. Deleting an unknown id is a
// successful no-op.
func (s *Store) DeleteByID(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.ExecContext(ctx, "DELETE FROM fuel_ups WHERE id = ?", id); err != nil {
		return &fuelup.StorageError{Op: "delete record", Err: err}
	}
	return nil
}

func (s *Store) queryRecords(ctx context.Context, query string, args ...any) ([]fuelup.Record, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, &fuelup.StorageError{Op: "query records", Err: err}
	}
	defer rows.Close()

	records := []fuelup.Record{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, &fuelup.StorageError{Op: "scan record", Err: err}
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, &fuelup.StorageError{Op: "query records", Err: err}
	}
	return records, nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanRecord(row scannable) (fuelup.Record, error) {
	var (
		rec         fuelup.Record
		fuelDate    string
		gallons     string
		price       string
		totalCost   string
		engineHours sql.NullString
		createdAt   string
	)

	err := row.Scan(&rec.ID, &rec.UserID, &fuelDate, &gallons, &price, &totalCost,
		&engineHours, &rec.Location, &rec.Notes, &createdAt)
	if err != nil {
		return rec, err
	}

	rec.Date, err = time.Parse(dateLayout, fuelDate)
	if err != nil {
		return rec, fmt.Errorf("bad fuel_date %q: %w", fuelDate, err)
	}
	if rec.Gallons, err = decimal.NewFromString(gallons); err != nil {
		return rec, fmt.Errorf("bad gallons %q: %w", gallons, err)
	}
	if rec.PricePerGallon, err = decimal.NewFromString(price); err != nil {
		return rec, fmt.Errorf("bad price_per_gallon %q: %w", price, err)
	}
	if rec.TotalCost, err = decimal.NewFromString(totalCost); err != nil {
		return rec, fmt.Errorf("bad total_cost %q: %w", totalCost, err)
	}
	if engineHours.Valid {
		h, err := decimal.NewFromString(engineHours.String)
		if err != nil {
			return rec, fmt.Errorf("bad engine_hours %q: %w", engineHours.String, err)
		}
		rec.EngineHours = &h
	}
	rec.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return rec, nil
}

// =============================================================================
// USER STORE (fuelup.UserStore interface)
// =============================================================================

// CreateUser inserts a new account. Collisions on id or email map to
// ErrDuplicateUser.
func (s *Store) CreateUser(ctx context.Context, u fuelup.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO users (id, email, display_name, password_hash, is_admin, created_at, last_login)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		u.ID, u.Email, u.DisplayName, u.PasswordHash, u.Admin,
		u.CreatedAt.Format(time.RFC3339),
		nullTime(u.LastLogin),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return fuelup.ErrDuplicateUser
		}
		return &fuelup.StorageError{Op: "create user", Err: err}
	}
	return nil
}

// GetUser retrieves an account by id.
func (s *Store) GetUser(ctx context.Context, id string) (fuelup.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.getUserWhere(ctx, "id = ?", id)
}

// GetUserByEmail retrieves an account by email, case-insensitively.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (fuelup.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.getUserWhere(ctx, "email = ? COLLATE NOCASE", email)
}

func (s *Store) getUserWhere(ctx context.Context, where string, arg string) (fuelup.User, error) {
	var (
		u         fuelup.User
		createdAt string
		lastLogin sql.NullString
	)

	err := s.db.QueryRowContext(ctx,
		"SELECT id, email, display_name, password_hash, is_admin, created_at, last_login FROM users WHERE "+where,
		arg,
	).Scan(&u.ID, &u.Email, &u.DisplayName, &u.PasswordHash, &u.Admin, &createdAt, &lastLogin)

	if err == sql.ErrNoRows {
		return fuelup.User{}, &fuelup.NotFoundError{Kind: "user", ID: arg}
	}
	if err != nil {
		return fuelup.User{}, &fuelup.StorageError{Op: "get user", Err: err}
	}

	u.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	if lastLogin.Valid {
		t, _ := time.Parse(time.RFC3339, lastLogin.String)
		u.LastLogin = &t
	}
	return u, nil
}

// TouchLastLogin records a successful login time.
func (s *Store) TouchLastLogin(ctx context.Context, id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		"UPDATE users SET last_login = ? WHERE id = ?",
		at.Format(time.RFC3339), id,
	)
	if err != nil {
		return &fuelup.StorageError{Op: "touch last login", Err: err}
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &fuelup.NotFoundError{Kind: "user", ID: id}
	}
	return nil
}

// DeleteUser removes the account; ON DELETE CASCADE removes the user's
// records in the same statement, so no orphans are observable.
func (s *Store) DeleteUser(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.ExecContext(ctx, "DELETE FROM users WHERE id = ?", id); err != nil {
		return &fuelup.StorageError{Op: "delete user", Err: err}
	}
	return nil
}

// =============================================================================
// AUDIT LOG (fuelup.AuditLog interface)
// =============================================================================

// AppendAudit adds one entry to the access trail.
func (s *Store) AppendAudit(ctx context.Context, e fuelup.AuditEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO audit_entries (id, at, actor_id, action, target_id, record_id, detail)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		e.ID, e.At.Format(time.RFC3339), e.ActorID, string(e.Action),
		e.TargetID, e.RecordID, e.Detail,
	)
	if err != nil {
		return &fuelup.StorageError{Op: "append audit", Err: err}
	}
	return nil
}

// QueryAudit returns the most recent entries for a target user. An empty
// targetID returns entries across all users.
func (s *Store) QueryAudit(ctx context.Context, targetID string, limit int) ([]fuelup.AuditEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 100
	}

	query := `
		SELECT id, at, actor_id, action, target_id, record_id, detail
		FROM audit_entries
	`
	args := []any{}
	if targetID != "" {
		query += " WHERE target_id = ?"
		args = append(args, targetID)
	}
	query += " ORDER BY at DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, &fuelup.StorageError{Op: "query audit", Err: err}
	}
	defer rows.Close()

	var entries []fuelup.AuditEntry
	for rows.Next() {
		var (
			e      fuelup.AuditEntry
			at     string
			action string
		)
		if err := rows.Scan(&e.ID, &at, &e.ActorID, &action, &e.TargetID, &e.RecordID, &e.Detail); err != nil {
			return nil, &fuelup.StorageError{Op: "scan audit", Err: err}
		}
		e.At, _ = time.Parse(time.RFC3339, at)
		e.Action = fuelup.AuditAction(action)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// =============================================================================
// HELPERS
// =============================================================================

func nullDecimal(d *decimal.Decimal) sql.NullString {
	if d == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: d.String(), Valid: true}
}

func nullTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: t.Format(time.RFC3339), Valid: true}
}

func isUniqueConstraintError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
