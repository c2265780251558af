/*
scenarios.go - Demo data loaders

PURPOSE:
  Populates the store with realistic profiles so the dashboard, the
  calculator and the batch jobs have something to show.

AVAILABLE SCENARIOS:
  freelancer:  Semi-monthly retainer, lumpy invoices, quarterly taxes
  salaried:    Biweekly paycheck, end-of-month car payment (clamps in Feb)
  tight-month: Low balance with rent and two bills landing on the same day

HOW SCENARIOS WORK:
 1. Reset database (clear all data)
 2. Create the profile
 3. Create accounts (one non-spendable savings account each)
 4. Create income and bills, anchored relative to today

USAGE VIA API:
  POST /api/scenarios/load
  {"scenario_id": "freelancer"}

NOTE:
  Scenarios reset the database. Only use in development/demo environments.
*/
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/omarqouqas/cashflowforecaster/forecast"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

var scenarios = []ScenarioDTO{
	{
		ID:          "freelancer",
		Name:        "Freelancer",
		Description: "Retainer on the 1st and 15th, client invoices, quarterly estimated taxes",
	},
	{
		ID:          "salaried",
		Name:        "Salaried",
		Description: "Biweekly paycheck, rent, car payment on the 31st",
	},
	{
		ID:          "tight-month",
		Name:        "Tight Month",
		Description: "Low balance, three bills due together before the next payment",
	},
}

type scenarioItem struct {
	name    string
	kind    forecast.Kind
	amount  string
	freq    forecast.Frequency
	offset  int // anchor = today + offset days
	dayOfMo int // if set, anchor is this day of the current month instead
}

type scenarioData struct {
	profile  forecast.Profile
	accounts []forecast.Account
	items    []scenarioItem
}

func scenarioFor(id string) (scenarioData, bool) {
	switch id {
	case "freelancer":
		return scenarioData{
			profile: forecast.Profile{Name: "Maya Freelancer", Email: "maya@example.com", Timezone: "America/Chicago",
				SafetyBuffer: decimal.NewFromInt(500), Tier: "pro", DigestEnabled: true, AlertsEnabled: true},
			accounts: []forecast.Account{
				{Name: "Business Checking", CurrentBalance: decimal.RequireFromString("3250.00"), IsSpendable: true},
				{Name: "Tax Savings", CurrentBalance: decimal.RequireFromString("4100.00"), IsSpendable: false},
			},
			items: []scenarioItem{
				{name: "Acme retainer", kind: forecast.KindIncome, amount: "1800", freq: forecast.FreqSemiMonthly, dayOfMo: 1},
				{name: "Client invoice", kind: forecast.KindIncome, amount: "2400", freq: forecast.FreqMonthly, offset: 12},
				{name: "Rent", kind: forecast.KindBill, amount: "1650", freq: forecast.FreqMonthly, dayOfMo: 1},
				{name: "Health insurance", kind: forecast.KindBill, amount: "420", freq: forecast.FreqMonthly, dayOfMo: 5},
				{name: "Coworking", kind: forecast.KindBill, amount: "250", freq: forecast.FreqMonthly, dayOfMo: 1},
				{name: "Estimated taxes", kind: forecast.KindBill, amount: "2100", freq: forecast.FreqQuarterly, offset: 20},
				{name: "Design software", kind: forecast.KindBill, amount: "599", freq: forecast.FreqAnnually, offset: 40},
				{name: "Groceries", kind: forecast.KindBill, amount: "140", freq: forecast.FreqWeekly, offset: 2},
			},
		}, true
	case "salaried":
		return scenarioData{
			profile: forecast.Profile{Name: "Jordan Salaried", Email: "jordan@example.com", Timezone: "America/New_York",
				SafetyBuffer: decimal.NewFromInt(1000), Tier: "free", DigestEnabled: true, AlertsEnabled: true},
			accounts: []forecast.Account{
				{Name: "Checking", CurrentBalance: decimal.RequireFromString("2800.00"), IsSpendable: true},
				{Name: "Emergency Fund", CurrentBalance: decimal.RequireFromString("12000.00"), IsSpendable: false},
			},
			items: []scenarioItem{
				{name: "Paycheck", kind: forecast.KindIncome, amount: "2350", freq: forecast.FreqBiweekly, offset: 3},
				{name: "Rent", kind: forecast.KindBill, amount: "1800", freq: forecast.FreqMonthly, dayOfMo: 1},
				{name: "Car payment", kind: forecast.KindBill, amount: "385", freq: forecast.FreqMonthly, dayOfMo: 31},
				{name: "Phone", kind: forecast.KindBill, amount: "75", freq: forecast.FreqMonthly, dayOfMo: 18},
				{name: "Streaming", kind: forecast.KindBill, amount: "15.99", freq: forecast.FreqMonthly, dayOfMo: 9},
				{name: "Groceries", kind: forecast.KindBill, amount: "120", freq: forecast.FreqWeekly, offset: 1},
			},
		}, true
	case "tight-month":
		return scenarioData{
			profile: forecast.Profile{Name: "Sam Gig", Email: "sam@example.com", Timezone: "UTC",
				SafetyBuffer: decimal.NewFromInt(200), Tier: "free", DigestEnabled: true, AlertsEnabled: true},
			accounts: []forecast.Account{
				{Name: "Checking", CurrentBalance: decimal.RequireFromString("640.00"), IsSpendable: true},
			},
			items: []scenarioItem{
				{name: "Delivery payout", kind: forecast.KindIncome, amount: "450", freq: forecast.FreqWeekly, offset: 6},
				{name: "Rent share", kind: forecast.KindBill, amount: "700", freq: forecast.FreqMonthly, offset: 3},
				{name: "Car insurance", kind: forecast.KindBill, amount: "160", freq: forecast.FreqMonthly, offset: 3},
				{name: "Phone", kind: forecast.KindBill, amount: "55", freq: forecast.FreqMonthly, offset: 3},
				{name: "Side gig", kind: forecast.KindIncome, amount: "300", freq: forecast.FreqOneTime, offset: 10},
			},
		}, true
	}
	return scenarioData{}, false
}

// ListScenarios returns available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// GetCurrentScenario returns the currently loaded scenario, if any.
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	current := h.currentScenario
	h.mu.Unlock()

	for _, s := range scenarios {
		if s.ID == current {
			writeJSON(w, http.StatusOK, s)
			return
		}
	}
	writeJSON(w, http.StatusOK, nil)
}

// LoadScenario resets the database and loads a scenario.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	profile, err := h.loadScenario(r.Context(), req.ScenarioID)
	if err != nil {
		if _, ok := scenarioFor(req.ScenarioID); !ok {
			writeError(w, http.StatusBadRequest, "Unknown scenario", err)
			return
		}
		h.fail(w, "Failed to load scenario", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status":     "ok",
		"scenario":   req.ScenarioID,
		"profile_id": profile.ID,
	})
}

// loadScenario replaces the store contents with scenario id.
func (h *Handler) loadScenario(ctx context.Context, id string) (forecast.Profile, error) {
	data, ok := scenarioFor(id)
	if !ok {
		return forecast.Profile{}, fmt.Errorf("unknown scenario %q", id)
	}
	if err := h.Store.Reset(ctx); err != nil {
		return forecast.Profile{}, err
	}

	profile, err := h.Store.SaveProfile(ctx, data.profile)
	if err != nil {
		return forecast.Profile{}, err
	}
	for _, a := range data.accounts {
		if _, err := h.Store.SaveAccount(ctx, profile.ID, a); err != nil {
			return forecast.Profile{}, err
		}
	}

	loc, err := profile.Location()
	if err != nil {
		return forecast.Profile{}, err
	}
	today := forecast.Today(h.now(), loc)
	for _, si := range data.items {
		anchor := today.AddDays(si.offset)
		if si.dayOfMo > 0 {
			anchor = forecast.ClampedDate(today.Year, today.Month, si.dayOfMo)
		}
		item := forecast.RecurringItem{
			Name:       si.name,
			Kind:       si.kind,
			Amount:     decimal.RequireFromString(si.amount),
			Frequency:  si.freq,
			AnchorDate: anchor,
			IsActive:   true,
		}
		if _, err := h.Store.SaveItem(ctx, profile.ID, item); err != nil {
			return forecast.Profile{}, err
		}
	}

	h.mu.Lock()
	h.currentScenario = id
	h.mu.Unlock()
	return profile, nil
}
