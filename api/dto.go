/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  JSON structures decoupling the domain model from the wire contract.
  Decimal fields travel as strings so precision survives the round trip;
  dates as YYYY-MM-DD; timestamps as RFC3339.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
*/
package api

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/tsanders-rh/boat-fuel-tracker/fuelup"
)

// =============================================================================
// REQUEST/RESPONSE TYPES
// =============================================================================

// FuelUpDTO represents a fuel purchase in API responses.
type FuelUpDTO struct {
	ID             int64  `json:"id"`
	UserID         string `json:"user_id"`
	Date           string `json:"date"`
	Gallons        string `json:"gallons"`
	PricePerGallon string `json:"price_per_gallon"`
	TotalCost      string `json:"total_cost"`
	EngineHours    string `json:"engine_hours,omitempty"`
	Location       string `json:"location,omitempty"`
	Notes          string `json:"notes,omitempty"`
	CreatedAt      string `json:"created_at,omitempty"`
}

// CreateFuelUpRequest is the request to record a purchase.
type CreateFuelUpRequest struct {
	UserID         string `json:"user_id"`
	Date           string `json:"date"`
	Gallons        string `json:"gallons"`
	PricePerGallon string `json:"price_per_gallon"`
	EngineHours    string `json:"engine_hours,omitempty"`
	Location       string `json:"location,omitempty"`
	Notes          string `json:"notes,omitempty"`
}

// UpdateFuelUpRequest is a partial update; absent fields stay unchanged.
type UpdateFuelUpRequest struct {
	Date           *string `json:"date,omitempty"`
	Gallons        *string `json:"gallons,omitempty"`
	PricePerGallon *string `json:"price_per_gallon,omitempty"`
	TotalCost      *string `json:"total_cost,omitempty"`
	EngineHours    *string `json:"engine_hours,omitempty"`
	Location       *string `json:"location,omitempty"`
	Notes          *string `json:"notes,omitempty"`
}

// StatisticsDTO summarizes a user's purchases.
type StatisticsDTO struct {
	Count                 int    `json:"total_fillups"`
	TotalGallons          string `json:"total_gallons"`
	TotalSpent            string `json:"total_spent"`
	AveragePricePerGallon string `json:"average_price_per_gallon"`
}

// RegisterRequest creates an account.
type RegisterRequest struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	Password    string `json:"password"`
}

// LoginRequest exchanges credentials for a token.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// TokenResponse carries the issued bearer token.
type TokenResponse struct {
	Token  string `json:"token"`
	UserID string `json:"user_id"`
}

// UserDTO represents an account in API responses. The credential hash
// never leaves the server.
type UserDTO struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	Admin       bool   `json:"admin"`
	CreatedAt   string `json:"created_at,omitempty"`
	LastLogin   string `json:"last_login,omitempty"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details any    `json:"details,omitempty"`
}

// =============================================================================
// CONVERSION HELPERS
// =============================================================================

func toFuelUpDTO(r fuelup.Record) FuelUpDTO {
	dto := FuelUpDTO{
		ID:             r.ID,
		UserID:         r.UserID,
		Date:           r.Date.Format("2006-01-02"),
		Gallons:        r.Gallons.String(),
		PricePerGallon: r.PricePerGallon.String(),
		TotalCost:      r.TotalCost.String(),
		Location:       r.Location,
		Notes:          r.Notes,
	}
	if r.EngineHours != nil {
		dto.EngineHours = r.EngineHours.String()
	}
	if !r.CreatedAt.IsZero() {
		dto.CreatedAt = r.CreatedAt.Format(time.RFC3339)
	}
	return dto
}

func toFuelUpDTOs(records []fuelup.Record) []FuelUpDTO {
	dtos := make([]FuelUpDTO, len(records))
	for i, r := range records {
		dtos[i] = toFuelUpDTO(r)
	}
	return dtos
}

func toStatisticsDTO(s fuelup.Statistics) StatisticsDTO {
	return StatisticsDTO{
		Count:                 s.Count,
		TotalGallons:          s.TotalGallons.String(),
		TotalSpent:            s.TotalSpent.String(),
		AveragePricePerGallon: s.AveragePricePerGallon.StringFixed(2),
	}
}

func toUserDTO(u fuelup.User) UserDTO {
	dto := UserDTO{
		ID:          u.ID,
		Email:       u.Email,
		DisplayName: u.DisplayName,
		Admin:       u.Admin,
	}
	if !u.CreatedAt.IsZero() {
		dto.CreatedAt = u.CreatedAt.Format(time.RFC3339)
	}
	if u.LastLogin != nil {
		dto.LastLogin = u.LastLogin.Format(time.RFC3339)
	}
	return dto
}

func parseDecimalField(s, field string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, &fuelup.ValidationError{Field: field, Message: "must be a decimal number"}
	}
	return d, nil
}

func parseDateField(s, field string) (time.Time, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, &fuelup.ValidationError{Field: field, Message: "must be a date in YYYY-MM-DD form"}
	}
	return t, nil
}
