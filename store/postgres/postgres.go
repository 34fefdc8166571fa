/*
Package postgres provides the PostgreSQL-backed implementation of the
fuelup storage interfaces, using the pgx driver through database/sql.

Same contract as store/sqlite, different dialect: NUMERIC columns hold
exact decimals, SELECT ... FOR UPDATE serializes the read-modify-write in
Update, and ON DELETE CASCADE keeps record ownership free of orphans.
Unlike the SQLite store there is no process-level mutex; the database's
own concurrency control does the serializing.
*/
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/shopspring/decimal"
	"github.com/tsanders-rh/boat-fuel-tracker/fuelup"
)

// Store implements fuelup.Store using PostgreSQL.
type Store struct {
	db *sql.DB
}

// New connects to PostgreSQL with the given DSN and ensures the schema.
func New(dsn string) (*Store, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return s, nil
}

// Close closes the connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		email TEXT NOT NULL UNIQUE,
		display_name TEXT NOT NULL DEFAULT '',
		password_hash TEXT NOT NULL DEFAULT '',
		is_admin BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMPTZ NOT NULL,
		last_login TIMESTAMPTZ
	);

	CREATE UNIQUE INDEX IF NOT EXISTS idx_users_email_lower ON users (LOWER(email));

	CREATE TABLE IF NOT EXISTS fuel_ups (
		id BIGSERIAL PRIMARY KEY,
		user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		fuel_date DATE NOT NULL,
		gallons NUMERIC NOT NULL,
		price_per_gallon NUMERIC NOT NULL,
		total_cost NUMERIC NOT NULL,
		engine_hours NUMERIC,
		location TEXT NOT NULL DEFAULT '',
		notes TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_fuel_ups_user_date
		ON fuel_ups (user_id, fuel_date DESC, id DESC);

	CREATE TABLE IF NOT EXISTS audit_entries (
		id TEXT PRIMARY KEY,
		at TIMESTAMPTZ NOT NULL,
		actor_id TEXT NOT NULL,
		action TEXT NOT NULL,
		target_id TEXT NOT NULL,
		record_id BIGINT NOT NULL DEFAULT 0,
		detail TEXT NOT NULL DEFAULT ''
	);

	CREATE INDEX IF NOT EXISTS idx_audit_target ON audit_entries (target_id, at DESC);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// RECORD STORE
// =============================================================================

func (s *Store) Create(ctx context.Context, rec fuelup.Record) (fuelup.Record, error) {
	if err := rec.Validate(); err != nil {
		return fuelup.Record{}, err
	}

	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	rec.Date = fuelup.DayOf(rec.Date)
	rec.ApplyCostInvariant()

	query := `
		INSERT INTO fuel_ups
		(user_id, fuel_date, gallons, price_per_gallon, total_cost, engine_hours, location, notes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`

	err := s.db.QueryRowContext(ctx, query,
		rec.UserID,
		rec.Date,
		rec.Gallons.String(),
		rec.PricePerGallon.String(),
		rec.TotalCost.String(),
		nullDecimal(rec.EngineHours),
		rec.Location,
		rec.Notes,
		rec.CreatedAt,
	).Scan(&rec.ID)
	if err != nil {
		return fuelup.Record{}, &fuelup.StorageError{Op: "create record", Err: err}
	}
	return rec, nil
}

// Update locks the row with SELECT ... FOR UPDATE so the merge always sees
// the most recently committed state.
func (s *Store) Update(ctx context.Context, id int64, m fuelup.RecordMutation) (fuelup.Record, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fuelup.Record{}, &fuelup.StorageError{Op: "begin update", Err: err}
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx, selectRecord+" WHERE id = $1 FOR UPDATE", id)
	current, err := scanRecord(row)
	if err == sql.ErrNoRows {
		return fuelup.Record{}, &fuelup.NotFoundError{Kind: "record", ID: strconv.FormatInt(id, 10)}
	}
	if err != nil {
		return fuelup.Record{}, &fuelup.StorageError{Op: "get record", Err: err}
	}

	merged := m.Apply(current)
	merged.CreatedAt = current.CreatedAt
	if err := merged.Validate(); err != nil {
		return fuelup.Record{}, err
	}

	query := `
		UPDATE fuel_ups
		SET fuel_date = $1, gallons = $2, price_per_gallon = $3, total_cost = $4,
		    engine_hours = $5, location = $6, notes = $7
		WHERE id = $8
	`

	if _, err := tx.ExecContext(ctx, query,
		merged.Date,
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

func (s *Store) GetByID(ctx context.Context, id int64) (fuelup.Record, error) {
	row := s.db.QueryRowContext(ctx, selectRecord+" WHERE id = $1", id)
	rec, err := scanRecord(row)
	if err == sql.ErrNoRows {
		return fuelup.Record{}, &fuelup.NotFoundError{Kind: "record", ID: strconv.FormatInt(id, 10)}
	}
	if err != nil {
		return fuelup.Record{}, &fuelup.StorageError{Op: "get record", Err: err}
	}
	return rec, nil
}

func (s *Store) GetByUser(ctx context.Context, userID string) ([]fuelup.Record, error) {
	query := selectRecord + `
		WHERE user_id = $1
		ORDER BY fuel_date DESC, id DESC
	`
	return s.queryRecords(ctx, query, userID)
}

func (s *Store) GetByUserInRange(ctx context.Context, userID string, start, end time.Time) ([]fuelup.Record, error) {
	if err := fuelup.ValidateRange(start, end); err != nil {
		return nil, err
	}

	query := selectRecord + `
		WHERE user_id = $1 AND fuel_date >= $2 AND fuel_date <= $3
		ORDER BY fuel_date DESC, id DESC
	`
	return s.queryRecords(ctx, query, userID, start, end)
}

func (s *Store) DeleteByID(ctx context.Context, id int64) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM fuel_ups WHERE id = $1", id); err != nil {
		return &fuelup.StorageError{Op: "delete record", Err: err}
	}
	return nil
}

const selectRecord = `
	SELECT id, user_id, fuel_date, gallons, price_per_gallon, total_cost,
	       engine_hours, location, notes, created_at
	FROM fuel_ups
`

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
		gallons     string
		price       string
		totalCost   string
		engineHours sql.NullString
	)

	err := row.Scan(&rec.ID, &rec.UserID, &rec.Date, &gallons, &price, &totalCost,
		&engineHours, &rec.Location, &rec.Notes, &rec.CreatedAt)
	if err != nil {
		return rec, err
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
	rec.Date = rec.Date.UTC()
	return rec, nil
}

// =============================================================================
// USER STORE
// =============================================================================

func (s *Store) CreateUser(ctx context.Context, u fuelup.User) error {
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO users (id, email, display_name, password_hash, is_admin, created_at, last_login)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := s.db.ExecContext(ctx, query,
		u.ID, u.Email, u.DisplayName, u.PasswordHash, u.Admin, u.CreatedAt, u.LastLogin,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fuelup.ErrDuplicateUser
		}
		return &fuelup.StorageError{Op: "create user", Err: err}
	}
	return nil
}

func (s *Store) GetUser(ctx context.Context, id string) (fuelup.User, error) {
	return s.getUserWhere(ctx, "id = $1", id)
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (fuelup.User, error) {
	return s.getUserWhere(ctx, "LOWER(email) = LOWER($1)", email)
}

func (s *Store) getUserWhere(ctx context.Context, where string, arg string) (fuelup.User, error) {
	var (
		u         fuelup.User
		lastLogin sql.NullTime
	)

	err := s.db.QueryRowContext(ctx,
		"SELECT id, email, display_name, password_hash, is_admin, created_at, last_login FROM users WHERE "+where,
		arg,
	).Scan(&u.ID, &u.Email, &u.DisplayName, &u.PasswordHash, &u.Admin, &u.CreatedAt, &lastLogin)

	if err == sql.ErrNoRows {
		return fuelup.User{}, &fuelup.NotFoundError{Kind: "user", ID: arg}
	}
	if err != nil {
		return fuelup.User{}, &fuelup.StorageError{Op: "get user", Err: err}
	}

	if lastLogin.Valid {
		t := lastLogin.Time.UTC()
		u.LastLogin = &t
	}
	return u, nil
}

func (s *Store) TouchLastLogin(ctx context.Context, id string, at time.Time) error {
	res, err := s.db.ExecContext(ctx, "UPDATE users SET last_login = $1 WHERE id = $2", at, id)
	if err != nil {
		return &fuelup.StorageError{Op: "touch last login", Err: err}
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &fuelup.NotFoundError{Kind: "user", ID: id}
	}
	return nil
}

func (s *Store) DeleteUser(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM users WHERE id = $1", id); err != nil {
		return &fuelup.StorageError{Op: "delete user", Err: err}
	}
	return nil
}

// =============================================================================
// AUDIT LOG
// =============================================================================

func (s *Store) AppendAudit(ctx context.Context, e fuelup.AuditEntry) error {
	query := `
		INSERT INTO audit_entries (id, at, actor_id, action, target_id, record_id, detail)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := s.db.ExecContext(ctx, query,
		e.ID, e.At, e.ActorID, string(e.Action), e.TargetID, e.RecordID, e.Detail,
	)
	if err != nil {
		return &fuelup.StorageError{Op: "append audit", Err: err}
	}
	return nil
}

func (s *Store) QueryAudit(ctx context.Context, targetID string, limit int) ([]fuelup.AuditEntry, error) {
	if limit <= 0 {
		limit = 100
	}

	query := `
		SELECT id, at, actor_id, action, target_id, record_id, detail
		FROM audit_entries
	`
	args := []any{}
	if targetID != "" {
		query += " WHERE target_id = $1 ORDER BY at DESC LIMIT $2"
		args = append(args, targetID, limit)
	} else {
		query += " ORDER BY at DESC LIMIT $1"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, &fuelup.StorageError{Op: "query audit", Err: err}
	}
	defer rows.Close()

	var entries []fuelup.AuditEntry
	for rows.Next() {
		var (
			e      fuelup.AuditEntry
			action string
		)
		if err := rows.Scan(&e.ID, &e.At, &e.ActorID, &action, &e.TargetID, &e.RecordID, &e.Detail); err != nil {
			return nil, &fuelup.StorageError{Op: "scan audit", Err: err}
		}
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

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
