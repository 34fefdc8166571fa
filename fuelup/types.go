/*
Package fuelup provides the core domain logic for tracking boat fuel purchases.

PURPOSE:
  This package contains the Record entity, the cost-derivation invariant,
  the statistics aggregator, and the ownership-based access guard. It has
  no knowledge of HTTP, JSON, or any specific database engine — persistence
  is abstracted behind the Store interfaces in store.go.

KEY CONCEPTS IN THIS FILE (types.go):
  - Record: One fuel purchase with a derived total cost
  - RecordMutation: A partial update (nil field = leave unchanged)
  - User: Account owning zero or more records
  - Identity: Authenticated principal (user id + roles)
  - Statistics: Aggregate summary over a user's records

DESIGN PRINCIPLES:
  1. Precision: Uses decimal.Decimal to avoid floating-point errors
  2. Derived fields: TotalCost is never independently authoritative
  3. Plain data: Records carry no persistence context; finders live on Store

SEE ALSO:
  - cost.go: The cost-derivation invariant
  - store.go: Persistence interfaces
  - service.go: The operations exposed to transport layers
*/
package fuelup

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// RECORD - One fuel purchase
// =============================================================================

// Record is a single fuel purchase owned by exactly one user.
//
// TotalCost is derived from Gallons and PricePerGallon by DeriveCost. A caller
// may set it before a commit, but the store recomputes it on every create and
// update, so a manual value never survives persistence.
type Record struct {
	ID             int64
	UserID         string
	Date           time.Time // purchase date, day granularity
	Gallons        decimal.Decimal
	PricePerGallon decimal.Decimal
	TotalCost      decimal.Decimal

	// Optional fields
	EngineHours *decimal.Decimal
	Location    string
	Notes       string

	CreatedAt time.Time // set once at first commit, immutable afterwards
}

// ApplyCostInvariant recomputes TotalCost from Gallons and PricePerGallon.
// This is the only code path allowed to set TotalCost persistently; stores
// call it on every write.
func (r *Record) ApplyCostInvariant() {
	if c := DeriveCost(&r.Gallons, &r.PricePerGallon); c != nil {
		r.TotalCost = *c
	}
}

// RecordMutation describes a partial update to a record. Nil fields are left
// unchanged. TotalCost is accepted for convenience but is always overwritten
// by the cost invariant when the merged record has both inputs.
type RecordMutation struct {
	Date           *time.Time
	Gallons        *decimal.Decimal
	PricePerGallon *decimal.Decimal
	TotalCost      *decimal.Decimal
	EngineHours    *decimal.Decimal
	Location       *string
	Notes          *string
}

// Apply merges the mutation into a copy of the record and reapplies the cost
// invariant on the merged result.
func (m RecordMutation) Apply(r Record) Record {
	if m.Date != nil {
		r.Date = DayOf(*m.Date)
	}
	if m.Gallons != nil {
		r.Gallons = *m.Gallons
	}
	if m.PricePerGallon != nil {
		r.PricePerGallon = *m.PricePerGallon
	}
	if m.TotalCost != nil {
		r.TotalCost = *m.TotalCost // transient; overwritten below
	}
	if m.EngineHours != nil {
		h := *m.EngineHours
		r.EngineHours = &h
	}
	if m.Location != nil {
		r.Location = *m.Location
	}
	if m.Notes != nil {
		r.Notes = *m.Notes
	}
	r.ApplyCostInvariant()
	return r
}

// Validate checks the business rules enforced before any store mutation.
func (r Record) Validate() error {
	if r.UserID == "" {
		return &ValidationError{Field: "user_id", Message: "owner is required"}
	}
	if r.Date.IsZero() {
		return &ValidationError{Field: "date", Message: "purchase date is required"}
	}
	if !r.Gallons.IsPositive() {
		return &ValidationError{Field: "gallons", Message: "must be greater than zero"}
	}
	if !r.PricePerGallon.IsPositive() {
		return &ValidationError{Field: "price_per_gallon", Message: "must be greater than zero"}
	}
	return nil
}

// Day returns a purchase date normalized to midnight UTC.
func Day(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// DayOf truncates an arbitrary timestamp to its purchase day. Stores apply
// it on every create so all engines persist the same day-granular date and
// same-day range queries stay boundary inclusive.
func DayOf(t time.Time) time.Time {
	return Day(t.Year(), t.Month(), t.Day())
}

// =============================================================================
// USER - Account owning records
// =============================================================================

// User is an account. Deleting a user cascades deletion of all their records.
type User struct {
	ID           string
	Email        string
	DisplayName  string
	PasswordHash string
	Admin        bool
	CreatedAt    time.Time
	LastLogin    *time.Time
}

// Validate checks the fields required at registration.
func (u User) Validate() error {
	if strings.TrimSpace(u.ID) == "" {
		return &ValidationError{Field: "id", Message: "user id is required"}
	}
	if !strings.Contains(u.Email, "@") {
		return &ValidationError{Field: "email", Message: "valid email is required"}
	}
	return nil
}

// =============================================================================
// IDENTITY - Authenticated principal
// =============================================================================

// RoleAdmin grants access to other users' data.
const RoleAdmin = "admin"

// Identity is the acting principal for a request. Authentication mechanics
// live outside the core; transports construct an Identity and pass it in.
type Identity struct {
	UserID string
	Roles  []string
}

// HasRole reports whether the identity carries the given role.
func (id Identity) HasRole(role string) bool {
	for _, r := range id.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// =============================================================================
// STATISTICS - Aggregate summary
// =============================================================================

// Statistics summarizes a user's full record set. A user with no records gets
// a zero-valued Statistics, never an error.
type Statistics struct {
	Count                 int
	TotalGallons          decimal.Decimal
	TotalSpent            decimal.Decimal
	AveragePricePerGallon decimal.Decimal
}

// =============================================================================
// AUDIT - Access trail
// =============================================================================

// AuditEntry records who did what when. Entries are append-only.
type AuditEntry struct {
	ID        string
	At        time.Time
	ActorID   string
	Action    AuditAction
	TargetID  string // user whose data was touched
	RecordID  int64  // zero when the action is not record-scoped
	Detail    string
}

type AuditAction string

const (
	AuditRecordsAccessed AuditAction = "records_accessed"
	AuditRecordCreated   AuditAction = "record_created"
	AuditRecordUpdated   AuditAction = "record_updated"
	AuditRecordDeleted   AuditAction = "record_deleted"
	AuditStatsComputed   AuditAction = "statistics_computed"
	AuditUserDeleted     AuditAction = "user_deleted"
)
