/*
handlers.go - HTTP API handlers for the fuel tracking service

PURPOSE:
  Exposes the fuelup core via REST. Handlers parse and validate input,
  construct the acting identity from the request context, delegate to
  fuelup.Service, and serialize responses. No business rules live here.

ENDPOINTS:
  Auth:
    POST   /api/auth/register                   Create account
    POST   /api/auth/login                      Exchange credentials for a token

  Fuel-ups (authenticated):
    POST   /api/fuelups                         Record a purchase
    PUT    /api/fuelups/{id}                    Update a purchase
    DELETE /api/fuelups/{id}                    Delete (idempotent)
    GET    /api/fuelups/user/{userId}           List, newest first
    GET    /api/fuelups/user/{userId}/range     List within ?start=&end=
    GET    /api/fuelups/user/{userId}/statistics  Aggregate summary

  Users (authenticated):
    GET    /api/users/{userId}                  Account details
    DELETE /api/users/{userId}                  Delete account + records

ERROR HANDLING:
  Core error categories map onto status codes:
  - ValidationError  -> 400
  - NotFoundError    -> 404
  - ForbiddenError   -> 403
  - duplicate user   -> 409
  - StorageError     -> 500
*/
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/tsanders-rh/boat-fuel-tracker/auth"
	"github.com/tsanders-rh/boat-fuel-tracker/fuelup"
)

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Service *fuelup.Service
	Tokens  *auth.TokenIssuer
}

// NewHandler creates a handler backed by the given service and issuer.
func NewHandler(service *fuelup.Service, tokens *auth.TokenIssuer) *Handler {
	return &Handler{Service: service, Tokens: tokens}
}

// =============================================================================
// AUTH HANDLERS
// =============================================================================

// Register creates an account.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	u := fuelup.User{
		ID:          req.ID,
		Email:       req.Email,
		DisplayName: req.DisplayName,
	}

	created, err := h.Service.RegisterUser(r.Context(), u, req.Password)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toUserDTO(created))
}

// Login verifies credentials and issues a bearer token.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	u, err := h.Service.Authenticate(r.Context(), req.Email, req.Password)
	if errors.Is(err, fuelup.ErrInvalidCredentials) {
		writeError(w, http.StatusUnauthorized, "Invalid credentials", nil)
		return
	}
	if err != nil {
		writeDomainError(w, err)
		return
	}

	token, err := h.Tokens.Issue(u)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to issue token", err)
		return
	}

	writeJSON(w, http.StatusOK, TokenResponse{Token: token, UserID: u.ID})
}

// =============================================================================
// FUEL-UP HANDLERS
// =============================================================================

// CreateFuelUp records a purchase for its owner.
func (h *Handler) CreateFuelUp(w http.ResponseWriter, r *http.Request) {
	actor, ok := IdentityFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Not authenticated", nil)
		return
	}

	var req CreateFuelUpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	rec, err := recordFromCreateRequest(req, actor)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	stored, err := h.Service.CreateRecord(r.Context(), actor, rec)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toFuelUpDTO(stored))
}

func recordFromCreateRequest(req CreateFuelUpRequest, actor fuelup.Identity) (fuelup.Record, error) {
	userID := req.UserID
	if userID == "" {
		userID = actor.UserID
	}

	date, err := parseDateField(req.Date, "date")
	if err != nil {
		return fuelup.Record{}, err
	}
	gallons, err := parseDecimalField(req.Gallons, "gallons")
	if err != nil {
		return fuelup.Record{}, err
	}
	price, err := parseDecimalField(req.PricePerGallon, "price_per_gallon")
	if err != nil {
		return fuelup.Record{}, err
	}

	rec := fuelup.Record{
		UserID:         userID,
		Date:           fuelup.Day(date.Year(), date.Month(), date.Day()),
		Gallons:        gallons,
		PricePerGallon: price,
		Location:       req.Location,
		Notes:          req.Notes,
	}

	if req.EngineHours != "" {
		hours, err := parseDecimalField(req.EngineHours, "engine_hours")
		if err != nil {
			return fuelup.Record{}, err
		}
		rec.EngineHours = &hours
	}
	return rec, nil
}

// UpdateFuelUp applies a partial update to a purchase.
func (h *Handler) UpdateFuelUp(w http.ResponseWriter, r *http.Request) {
	actor, ok := IdentityFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Not authenticated", nil)
		return
	}

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid record id", err)
		return
	}

	var req UpdateFuelUpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	mutation, err := mutationFromUpdateRequest(req)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	updated, err := h.Service.UpdateRecord(r.Context(), actor, id, mutation)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toFuelUpDTO(updated))
}

func mutationFromUpdateRequest(req UpdateFuelUpRequest) (fuelup.RecordMutation, error) {
	var m fuelup.RecordMutation

	if req.Date != nil {
		d, err := parseDateField(*req.Date, "date")
		if err != nil {
			return m, err
		}
		m.Date = &d
	}

	decimals := []struct {
		src   *string
		dst   **decimal.Decimal
		field string
	}{
		{req.Gallons, &m.Gallons, "gallons"},
		{req.PricePerGallon, &m.PricePerGallon, "price_per_gallon"},
		{req.TotalCost, &m.TotalCost, "total_cost"},
		{req.EngineHours, &m.EngineHours, "engine_hours"},
	}
	for _, f := range decimals {
		if f.src == nil {
			continue
		}
		d, err := parseDecimalField(*f.src, f.field)
		if err != nil {
			return m, err
		}
		*f.dst = &d
	}

	m.Location = req.Location
	m.Notes = req.Notes
	return m, nil
}

// DeleteFuelUp removes a purchase. Unknown ids return 204 as well —
// delete is idempotent end to end.
func (h *Handler) DeleteFuelUp(w http.ResponseWriter, r *http.Request) {
	actor, ok := IdentityFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Not authenticated", nil)
		return
	}

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid record id", err)
		return
	}

	if err := h.Service.DeleteRecord(r.Context(), actor, id); err != nil {
		writeDomainError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListFuelUps returns a user's purchases, newest first.
func (h *Handler) ListFuelUps(w http.ResponseWriter, r *http.Request) {
	actor, ok := IdentityFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Not authenticated", nil)
		return
	}

	userID := chi.URLParam(r, "userId")
	records, err := h.Service.ListRecordsByUser(r.Context(), actor, userID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toFuelUpDTOs(records))
}

// ListFuelUpsInRange returns purchases with start <= date <= end.
func (h *Handler) ListFuelUpsInRange(w http.ResponseWriter, r *http.Request) {
	actor, ok := IdentityFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Not authenticated", nil)
		return
	}

	userID := chi.URLParam(r, "userId")

	start, err := parseDateField(r.URL.Query().Get("start"), "start")
	if err != nil {
		writeDomainError(w, err)
		return
	}
	end, err := parseDateField(r.URL.Query().Get("end"), "end")
	if err != nil {
		writeDomainError(w, err)
		return
	}

	records, err := h.Service.ListRecordsByUserInRange(r.Context(), actor, userID, start, end)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toFuelUpDTOs(records))
}

// GetStatistics returns the aggregate summary for a user.
func (h *Handler) GetStatistics(w http.ResponseWriter, r *http.Request) {
	actor, ok := IdentityFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Not authenticated", nil)
		return
	}

	userID := chi.URLParam(r, "userId")
	stats, err := h.Service.GetStatistics(r.Context(), actor, userID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toStatisticsDTO(stats))
}

// =============================================================================
// USER HANDLERS
// =============================================================================

// GetUser returns account details.
func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	actor, ok := IdentityFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Not authenticated", nil)
		return
	}

	userID := chi.URLParam(r, "userId")
	u, err := h.Service.GetUser(r.Context(), actor, userID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toUserDTO(u))
}

// DeleteUser removes an account and every record it owns.
func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	actor, ok := IdentityFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Not authenticated", nil)
		return
	}

	userID := chi.URLParam(r, "userId")
	if err := h.Service.DeleteUser(r.Context(), actor, userID); err != nil {
		writeDomainError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeDomainError maps core error categories onto HTTP status codes.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, fuelup.ErrValidation):
		writeError(w, http.StatusBadRequest, err.Error(), nil)
	case errors.Is(err, fuelup.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error(), nil)
	case errors.Is(err, fuelup.ErrForbidden):
		writeError(w, http.StatusForbidden, err.Error(), nil)
	case errors.Is(err, fuelup.ErrDuplicateUser):
		writeError(w, http.StatusConflict, err.Error(), nil)
	default:
		writeError(w, http.StatusInternalServerError, "Internal error", err)
	}
}
