/*
handlers.go - HTTP API handlers for the cash flow forecaster

PURPOSE:
  Exposes profiles, accounts, recurring items and the forecast engine via
  REST. Handles HTTP request/response, JSON serialization, and delegates
  to the forecast package.

ENDPOINTS:
  Reference:
    GET    /api/frequencies                   Supported recurrence rules

  Profiles:
    GET    /api/profiles                      List profiles
    POST   /api/profiles                      Create profile
    GET    /api/profiles/{id}                 Get profile
    PUT    /api/profiles/{id}                 Update profile settings

  Accounts and items:
    GET    /api/profiles/{id}/accounts        List accounts
    POST   /api/profiles/{id}/accounts        Add account
    DELETE /api/accounts/{id}                 Remove account
    GET    /api/profiles/{id}/items           List income and bills
    POST   /api/profiles/{id}/items           Add income or bill
    PUT    /api/profiles/{id}/items/{itemID}  Replace income or bill
    DELETE /api/items/{id}                    Remove income or bill

  Forecast:
    GET    /api/profiles/{id}/forecast?days=N Day-by-day projection

  Tools:
    POST   /api/tools/afford                  "Can I afford it?" calculator

  Admin:
    POST   /api/admin/jobs/{job}              Run alerts or digest now

REQUEST FLOW:
  1. Parse HTTP request
  2. Validate input (forecast.Parse* helpers)
  3. Load data through forecast.Store, build the forecast
  4. Serialize response

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Invalid date, amount, kind, frequency, timezone or body
  - 404: Profile, account or item not found
  - 500: Internal errors (logged)

SECURITY NOTE:
  No authentication. All endpoints are public.

SEE ALSO:
  - dto.go: Request/response data structures
  - scenarios.go: Demo data loaders
  - server.go: Router setup and middleware
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/omarqouqas/cashflowforecaster/buildinfo"
	"github.com/omarqouqas/cashflowforecaster/config"
	"github.com/omarqouqas/cashflowforecaster/forecast"
	"github.com/omarqouqas/cashflowforecaster/jobs"
)

// DefaultAffordDays is the calculator window when the request sets none.
const DefaultAffordDays = 30

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store    forecast.Store
	Tiers    config.Tiers
	Defaults config.ForecastConfig
	Runner   *jobs.Runner // nil disables /api/admin/jobs
	Logger   *logrus.Logger

	// Now overrides the clock in tests.
	Now func() time.Time

	mu              sync.Mutex
	currentScenario string
}

// NewHandler creates a new handler.
func NewHandler(store forecast.Store, cfg *config.Config, runner *jobs.Runner, logger *logrus.Logger) *Handler {
	return &Handler{
		Store:    store,
		Tiers:    cfg.Forecast.Tiers,
		Defaults: cfg.Forecast,
		Runner:   runner,
		Logger:   logger,
	}
}

func (h *Handler) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}

// Health reports liveness and, when the store supports it, connectivity.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if p, ok := h.Store.(interface{ Ping(context.Context) error }); ok {
		if err := p.Ping(r.Context()); err != nil {
			writeError(w, http.StatusServiceUnavailable, "Database unavailable", err)
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "version": buildinfo.String()})
}

// ListFrequencies returns the recurrence rules an item may use.
func (h *Handler) ListFrequencies(w http.ResponseWriter, r *http.Request) {
	names := make([]string, len(forecast.Frequencies))
	for i, f := range forecast.Frequencies {
		names[i] = string(f)
	}
	writeJSON(w, http.StatusOK, names)
}

// =============================================================================
// PROFILE HANDLERS
// =============================================================================

// ListProfiles returns all profiles.
func (h *Handler) ListProfiles(w http.ResponseWriter, r *http.Request) {
	profiles, err := h.Store.ListProfiles(r.Context())
	if err != nil {
		h.fail(w, "Failed to list profiles", err)
		return
	}

	dtos := make([]ProfileDTO, len(profiles))
	for i, p := range profiles {
		dtos[i] = toProfileDTO(p)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetProfile returns a single profile.
func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	p, err := h.Store.GetProfile(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, "Failed to get profile", err)
		return
	}
	writeJSON(w, http.StatusOK, toProfileDTO(*p))
}

// CreateProfile creates a new profile with configured defaults.
func (h *Handler) CreateProfile(w http.ResponseWriter, r *http.Request) {
	var req ProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		writeError(w, http.StatusBadRequest, "name is required", nil)
		return
	}

	base := forecast.Profile{
		Timezone:      h.Defaults.DefaultTimezone,
		SafetyBuffer:  h.Defaults.SafetyBuffer(),
		Tier:          h.Defaults.DefaultTier,
		DigestEnabled: true,
		AlertsEnabled: true,
	}
	p, err := applyProfileRequest(base, req)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid profile", err)
		return
	}

	saved, err := h.Store.SaveProfile(r.Context(), p)
	if err != nil {
		h.fail(w, "Failed to create profile", err)
		return
	}
	writeJSON(w, http.StatusCreated, toProfileDTO(saved))
}

// UpdateProfile changes profile settings. Omitted fields keep their values.
func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	existing, err := h.Store.GetProfile(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, "Failed to get profile", err)
		return
	}

	var req ProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	p, err := applyProfileRequest(*existing, req)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid profile", err)
		return
	}

	saved, err := h.Store.SaveProfile(r.Context(), p)
	if err != nil {
		h.fail(w, "Failed to update profile", err)
		return
	}
	writeJSON(w, http.StatusOK, toProfileDTO(saved))
}

func applyProfileRequest(p forecast.Profile, req ProfileRequest) (forecast.Profile, error) {
	if req.Name != "" {
		p.Name = strings.TrimSpace(req.Name)
	}
	if req.Email != "" {
		p.Email = strings.TrimSpace(req.Email)
	}
	if req.Timezone != "" {
		if _, err := time.LoadLocation(req.Timezone); err != nil {
			return p, err
		}
		p.Timezone = req.Timezone
	}
	if req.SafetyBuffer != "" {
		buffer, err := forecast.ParseAmount(req.SafetyBuffer)
		if err != nil {
			return p, err
		}
		p.SafetyBuffer = buffer
	}
	if req.Tier != "" {
		p.Tier = strings.ToLower(req.Tier)
	}
	if req.DigestEnabled != nil {
		p.DigestEnabled = *req.DigestEnabled
	}
	if req.AlertsEnabled != nil {
		p.AlertsEnabled = *req.AlertsEnabled
	}
	return p, nil
}

// =============================================================================
// ACCOUNT HANDLERS
// =============================================================================

// ListAccounts returns a profile's accounts.
func (h *Handler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := h.Store.GetProfile(r.Context(), id); err != nil {
		h.fail(w, "Failed to get profile", err)
		return
	}
	accounts, err := h.Store.ListAccounts(r.Context(), id)
	if err != nil {
		h.fail(w, "Failed to list accounts", err)
		return
	}

	dtos := make([]AccountDTO, len(accounts))
	for i, a := range accounts {
		dtos[i] = toAccountDTO(a)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateAccount adds an account to a profile.
func (h *Handler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	var req AccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	balance, err := decimal.NewFromString(req.CurrentBalance)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid current_balance", err)
		return
	}

	a := forecast.Account{
		Name:           req.Name,
		CurrentBalance: forecast.ClampAmount(balance),
		IsSpendable:    req.IsSpendable == nil || *req.IsSpendable,
	}
	saved, err := h.Store.SaveAccount(r.Context(), chi.URLParam(r, "id"), a)
	if err != nil {
		h.fail(w, "Failed to create account", err)
		return
	}
	writeJSON(w, http.StatusCreated, toAccountDTO(saved))
}

// DeleteAccount removes an account.
func (h *Handler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.DeleteAccount(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.fail(w, "Failed to delete account", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// RECURRING ITEM HANDLERS
// =============================================================================

// ListItems returns a profile's income and bills. ?active=true filters.
func (h *Handler) ListItems(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := h.Store.GetProfile(r.Context(), id); err != nil {
		h.fail(w, "Failed to get profile", err)
		return
	}
	activeOnly := r.URL.Query().Get("active") == "true"
	items, err := h.Store.ListItems(r.Context(), id, activeOnly)
	if err != nil {
		h.fail(w, "Failed to list items", err)
		return
	}

	dtos := make([]ItemDTO, len(items))
	for i, it := range items {
		dtos[i] = toItemDTO(it)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateItem adds an income source or bill.
func (h *Handler) CreateItem(w http.ResponseWriter, r *http.Request) {
	h.saveItem(w, r, "", http.StatusCreated)
}

// UpdateItem replaces an income source or bill.
func (h *Handler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	h.saveItem(w, r, chi.URLParam(r, "itemID"), http.StatusOK)
}

func (h *Handler) saveItem(w http.ResponseWriter, r *http.Request, itemID string, status int) {
	var req ItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	it, err := parseItemRequest(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid item", err)
		return
	}
	it.ID = itemID

	saved, err := h.Store.SaveItem(r.Context(), chi.URLParam(r, "id"), it)
	if err != nil {
		h.fail(w, "Failed to save item", err)
		return
	}
	writeJSON(w, status, toItemDTO(saved))
}

func parseItemRequest(req ItemRequest) (forecast.RecurringItem, error) {
	var it forecast.RecurringItem
	if strings.TrimSpace(req.Name) == "" {
		return it, errors.New("name is required")
	}
	kind, err := forecast.ParseKind(req.Kind)
	if err != nil {
		return it, err
	}
	amount, err := forecast.ParseAmount(req.Amount)
	if err != nil {
		return it, err
	}
	freq, err := forecast.ParseFrequency(req.Frequency)
	if err != nil {
		return it, err
	}
	anchor, err := forecast.ParseDate(req.AnchorDate)
	if err != nil {
		return it, err
	}
	return forecast.RecurringItem{
		Name:       strings.TrimSpace(req.Name),
		Kind:       kind,
		Amount:     amount,
		Frequency:  freq,
		AnchorDate: anchor,
		IsActive:   req.IsActive == nil || *req.IsActive,
	}, nil
}

// DeleteItem removes an income source or bill.
func (h *Handler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.DeleteItem(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.fail(w, "Failed to delete item", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// FORECAST HANDLERS
// =============================================================================

// GetForecast projects a profile's balance. days is clamped to the
// profile tier's maximum; omitted means the maximum.
func (h *Handler) GetForecast(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	requested := 0
	if v := r.URL.Query().Get("days"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "days must be a non-negative integer", err)
			return
		}
		requested = n
	}

	profile, err := h.Store.GetProfile(r.Context(), id)
	if err != nil {
		h.fail(w, "Failed to get profile", err)
		return
	}
	horizon := h.Tiers.HorizonFor(profile.Tier, requested)

	g, err := forecast.Gather(r.Context(), h.Store, id, horizon, h.now())
	if err != nil {
		h.fail(w, "Failed to load forecast data", err)
		return
	}
	result := forecast.BuildForecast(g.Input)

	dto := NewForecastDTO(id, horizon, result)
	if g.TZError != nil {
		dto.Warnings = append(dto.Warnings, g.TZError.Error()+"; using UTC")
	}
	if requested > horizon {
		dto.Warnings = append(dto.Warnings, "horizon limited to "+strconv.Itoa(horizon)+" days for tier "+profile.Tier)
	}
	writeJSON(w, http.StatusOK, dto)
}

// =============================================================================
// TOOL HANDLERS
// =============================================================================

// Afford runs the "can I afford it?" calculator. It needs no stored data.
func (h *Handler) Afford(w http.ResponseWriter, r *http.Request) {
	var req AffordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	in, err := h.parseAffordRequest(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid calculator input", err)
		return
	}

	res, err := forecast.Afford(in)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid calculator input", err)
		return
	}
	writeJSON(w, http.StatusOK, AffordDTO{
		CanAfford: res.CanAfford,
		Headroom:  res.Headroom,
		Risks:     toRiskDTO(res.Risks),
		Baseline:  toRiskDTO(res.Baseline),
		Days:      toDayDTOs(res.Days),
	})
}

func (h *Handler) parseAffordRequest(req AffordRequest) (forecast.AffordInput, error) {
	var in forecast.AffordInput
	var err error

	if in.StartingBalance, err = decimal.NewFromString(req.StartingBalance); err != nil {
		return in, &forecast.ParseError{Field: "starting_balance", Value: req.StartingBalance, Err: forecast.ErrInvalidAmount}
	}
	in.StartingBalance = forecast.ClampAmount(in.StartingBalance)
	if in.PurchaseAmount, err = forecast.ParseAmount(req.PurchaseAmount); err != nil {
		return in, err
	}
	if in.PurchaseDate, err = forecast.ParseDate(req.PurchaseDate); err != nil {
		return in, err
	}
	in.SafetyBuffer = decimal.Zero
	if req.SafetyBuffer != "" {
		if in.SafetyBuffer, err = forecast.ParseAmount(req.SafetyBuffer); err != nil {
			return in, err
		}
	}
	in.PurchaseName = req.PurchaseName

	start := forecast.Today(h.now(), time.UTC)
	if req.StartDate != "" {
		if start, err = forecast.ParseDate(req.StartDate); err != nil {
			return in, err
		}
	}
	days := req.Days
	if days <= 0 {
		days = DefaultAffordDays
	}
	if days > config.DefaultProHorizon {
		days = config.DefaultProHorizon
	}
	in.Window = forecast.WindowFromHorizon(start, days)

	if in.Bills, err = parseDatedAmounts(req.Bills); err != nil {
		return in, err
	}
	if in.Income, err = parseDatedAmounts(req.Income); err != nil {
		return in, err
	}
	return in, nil
}

func parseDatedAmounts(reqs []DatedAmountRequest) ([]forecast.DatedAmount, error) {
	out := make([]forecast.DatedAmount, 0, len(reqs))
	for _, r := range reqs {
		amount, err := forecast.ParseAmount(r.Amount)
		if err != nil {
			return nil, err
		}
		date, err := forecast.ParseDate(r.Date)
		if err != nil {
			return nil, err
		}
		out = append(out, forecast.DatedAmount{Name: r.Name, Amount: amount, Date: date})
	}
	return out, nil
}

// =============================================================================
// ADMIN HANDLERS
// =============================================================================

// RunJob runs the alert or digest job synchronously and returns its summary.
func (h *Handler) RunJob(w http.ResponseWriter, r *http.Request) {
	if h.Runner == nil {
		writeError(w, http.StatusServiceUnavailable, "Jobs are not configured", nil)
		return
	}

	var run func(context.Context) (jobs.Summary, error)
	switch chi.URLParam(r, "job") {
	case "alerts":
		run = h.Runner.RunAlerts
	case "digest":
		run = h.Runner.RunDigest
	default:
		writeError(w, http.StatusNotFound, "Unknown job (use alerts or digest)", nil)
		return
	}

	summary, err := run(r.Context())
	if err != nil {
		h.fail(w, "Job failed", err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// ResetDatabase clears all data.
func (h *Handler) ResetDatabase(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.Reset(r.Context()); err != nil {
		h.fail(w, "Failed to reset database", err)
		return
	}

	h.mu.Lock()
	h.currentScenario = ""
	h.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
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

// fail maps store and parse errors to a status; anything else is a
// logged 500.
func (h *Handler) fail(w http.ResponseWriter, message string, err error) {
	switch {
	case forecast.IsNotFound(err):
		writeError(w, http.StatusNotFound, message, err)
	case forecast.IsClientError(err):
		writeError(w, http.StatusBadRequest, message, err)
	default:
		h.Logger.WithError(err).Error(message)
		writeError(w, http.StatusInternalServerError, message, err)
	}
}
