// Package store provides an in-memory Store implementation for tests and
// development. It honors the same contract as the SQL-backed stores:
// writes validate and apply the cost invariant, updates merge against the
// committed state under the lock, and listings are ordered by purchase
// date descending with id descending as the tiebreak.
package store

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/tsanders-rh/boat-fuel-tracker/fuelup"
)

// =============================================================================
// MEMORY STORE
// =============================================================================

type Memory struct {
	mu      sync.RWMutex
	nextID  int64
	records map[int64]fuelup.Record
	users   map[string]fuelup.User
	audit   []fuelup.AuditEntry
}

func NewMemory() *Memory {
	return &Memory{
		nextID:  1,
		records: make(map[int64]fuelup.Record),
		users:   make(map[string]fuelup.User),
	}
}

// Create validates, assigns id and createdAt, applies the cost invariant,
// and stores the record.
func (m *Memory) Create(_ context.Context, rec fuelup.Record) (fuelup.Record, error) {
	if err := rec.Validate(); err != nil {
		return fuelup.Record{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	rec.ID = m.nextID
	m.nextID++
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	rec.Date = fuelup.DayOf(rec.Date)
	rec.ApplyCostInvariant()

	m.records[rec.ID] = rec
	return rec, nil
}

// Update merges the mutation with the committed record under the write
// lock, so a concurrent update always observes the latest committed state.
func (m *Memory) Update(_ context.Context, id int64, mut fuelup.RecordMutation) (fuelup.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	current, ok := m.records[id]
	if !ok {
		return fuelup.Record{}, &fuelup.NotFoundError{Kind: "record", ID: itoa(id)}
	}

	merged := mut.Apply(current)
	merged.CreatedAt = current.CreatedAt // immutable after first commit
	if err := merged.Validate(); err != nil {
		return fuelup.Record{}, err
	}

	m.records[id] = merged
	return merged, nil
}

func (m *Memory) GetByID(_ context.Context, id int64) (fuelup.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.records[id]
	if !ok {
		return fuelup.Record{}, &fuelup.NotFoundError{Kind: "record", ID: itoa(id)}
	}
	return rec, nil
}

func (m *Memory) GetByUser(_ context.Context, userID string) ([]fuelup.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.listLocked(userID, nil, nil), nil
}

func (m *Memory) GetByUserInRange(_ context.Context, userID string, start, end time.Time) ([]fuelup.Record, error) {
	if err := fuelup.ValidateRange(start, end); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.listLocked(userID, &start, &end), nil
}

// DeleteByID is idempotent; deleting an absent id succeeds.
func (m *Memory) DeleteByID(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.records, id)
	return nil
}

func (m *Memory) listLocked(userID string, start, end *time.Time) []fuelup.Record {
	result := []fuelup.Record{}
	for _, rec := range m.records {
		if rec.UserID != userID {
			continue
		}
		if start != nil && rec.Date.Before(*start) {
			continue
		}
		if end != nil && rec.Date.After(*end) {
			continue
		}
		result = append(result, rec)
	}

	sort.Slice(result, func(i, j int) bool {
		if !result[i].Date.Equal(result[j].Date) {
			return result[i].Date.After(result[j].Date)
		}
		return result[i].ID > result[j].ID
	})
	return result
}

// =============================================================================
// USER STORE
// =============================================================================

func (m *Memory) CreateUser(_ context.Context, u fuelup.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.users[u.ID]; ok {
		return fuelup.ErrDuplicateUser
	}
	for _, existing := range m.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return fuelup.ErrDuplicateUser
		}
	}

	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	m.users[u.ID] = u
	return nil
}

func (m *Memory) GetUser(_ context.Context, id string) (fuelup.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := m.users[id]
	if !ok {
		return fuelup.User{}, &fuelup.NotFoundError{Kind: "user", ID: id}
	}
	return u, nil
}

func (m *Memory) GetUserByEmail(_ context.Context, email string) (fuelup.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, u := range m.users {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return fuelup.User{}, &fuelup.NotFoundError{Kind: "user", ID: email}
}

func (m *Memory) TouchLastLogin(_ context.Context, id string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[id]
	if !ok {
		return &fuelup.NotFoundError{Kind: "user", ID: id}
	}
	u.LastLogin = &at
	m.users[id] = u
	return nil
}

// DeleteUser removes the user and every record they own atomically under
// the write lock.
func (m *Memory) DeleteUser(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.users, id)
	for recID, rec := range m.records {
		if rec.UserID == id {
			delete(m.records, recID)
		}
	}
	return nil
}

// =============================================================================
// AUDIT LOG
// =============================================================================

func (m *Memory) AppendAudit(_ context.Context, e fuelup.AuditEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.audit = append(m.audit, e)
	return nil
}

func (m *Memory) QueryAudit(_ context.Context, targetID string, limit int) ([]fuelup.AuditEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []fuelup.AuditEntry
	for i := len(m.audit) - 1; i >= 0 && (limit <= 0 || len(result) < limit); i-- {
		if targetID == "" || m.audit[i].TargetID == targetID {
			result = append(result, m.audit[i])
		}
	}
	return result, nil
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
