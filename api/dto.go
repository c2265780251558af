/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the forecast engine's types from the external API contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

AMOUNTS:
  Responses carry decimals as JSON strings ("1234.56"). Requests take
  strings too and are parsed in the handlers so bad input is a 400.

VALIDATION:
  Validation is done in handlers, not in DTOs. DTOs are pure data carriers.

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/omarqouqas/cashflowforecaster/forecast"
)

// =============================================================================
// PROFILES
// =============================================================================

// ProfileDTO represents a profile in API responses.
type ProfileDTO struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	Email         string          `json:"email"`
	Timezone      string          `json:"timezone"`
	SafetyBuffer  decimal.Decimal `json:"safety_buffer"`
	Tier          string          `json:"tier"`
	DigestEnabled bool            `json:"digest_enabled"`
	AlertsEnabled bool            `json:"alerts_enabled"`
	CreatedAt     string          `json:"created_at,omitempty"`
}

// ProfileRequest creates or updates a profile. Nil booleans default to
// true on create and keep the stored value on update.
type ProfileRequest struct {
	Name          string `json:"name"`
	Email         string `json:"email"`
	Timezone      string `json:"timezone"`
	SafetyBuffer  string `json:"safety_buffer"`
	Tier          string `json:"tier"`
	DigestEnabled *bool  `json:"digest_enabled"`
	AlertsEnabled *bool  `json:"alerts_enabled"`
}

// =============================================================================
// ACCOUNTS AND ITEMS
// =============================================================================

// AccountDTO represents an account in API responses.
type AccountDTO struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	CurrentBalance decimal.Decimal `json:"current_balance"`
	IsSpendable    bool            `json:"is_spendable"`
}

// AccountRequest creates an account. Balances may be negative.
type AccountRequest struct {
	Name           string `json:"name"`
	CurrentBalance string `json:"current_balance"`
	IsSpendable    *bool  `json:"is_spendable"`
}

// ItemDTO is an income source or bill.
type ItemDTO struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Kind       forecast.Kind   `json:"kind"`
	Amount     decimal.Decimal `json:"amount"`
	Frequency  string          `json:"frequency"`
	AnchorDate forecast.Date   `json:"anchor_date"`
	IsActive   bool            `json:"is_active"`
}

// ItemRequest creates or replaces an income source or bill.
type ItemRequest struct {
	Name       string `json:"name"`
	Kind       string `json:"kind"`
	Amount     string `json:"amount"`
	Frequency  string `json:"frequency"`
	AnchorDate string `json:"anchor_date"`
	IsActive   *bool  `json:"is_active"`
}

// =============================================================================
// FORECAST
// =============================================================================

// OccurrenceDTO is one dated credit or debit.
type OccurrenceDTO struct {
	Date       forecast.Date   `json:"date"`
	Amount     decimal.Decimal `json:"amount"`
	SourceID   string          `json:"source_id"`
	SourceName string          `json:"source_name"`
	SourceKind forecast.Kind   `json:"source_kind"`
}

// DaySnapshotDTO is one simulated day.
type DaySnapshotDTO struct {
	Date            forecast.Date   `json:"date"`
	StartingBalance decimal.Decimal `json:"starting_balance"`
	EndingBalance   decimal.Decimal `json:"ending_balance"`
	NetChange       decimal.Decimal `json:"net_change"`
	LowBalance      decimal.Decimal `json:"low_balance"`
	Occurrences     []OccurrenceDTO `json:"occurrences"`
}

type CollisionDTO struct {
	Date            forecast.Date   `json:"date"`
	OccurrenceCount int             `json:"occurrence_count"`
	Total           decimal.Decimal `json:"total"`
}

type LowestPointDTO struct {
	Amount decimal.Decimal `json:"amount"`
	Date   forecast.Date   `json:"date"`
}

// RiskReportDTO mirrors forecast.RiskReport with non-null arrays.
type RiskReportDTO struct {
	LowBalanceDays []forecast.Date `json:"low_balance_days"`
	OverdraftDays  []forecast.Date `json:"overdraft_days"`
	Collisions     []CollisionDTO  `json:"collisions"`
	LowestPoint    *LowestPointDTO `json:"lowest_point"`
}

type CollisionReportDTO struct {
	Dates []forecast.Date `json:"dates"`
	Count int             `json:"count"`
}

// ForecastDTO is the dashboard payload.
type ForecastDTO struct {
	ProfileID       string             `json:"profile_id"`
	Start           forecast.Date      `json:"start"`
	End             forecast.Date      `json:"end"`
	HorizonDays     int                `json:"horizon_days"`
	StartingBalance decimal.Decimal    `json:"starting_balance"`
	EndingBalance   decimal.Decimal    `json:"ending_balance"`
	SafetyBuffer    decimal.Decimal    `json:"safety_buffer"`
	SafeToSpend     decimal.Decimal    `json:"safe_to_spend"`
	Days            []DaySnapshotDTO   `json:"days"`
	Risks           RiskReportDTO      `json:"risks"`
	Collisions      CollisionReportDTO `json:"collisions"`
	Warnings        []string           `json:"warnings,omitempty"`
}

// =============================================================================
// TOOLS
// =============================================================================

// DatedAmountRequest is a one-off bill or payment for the calculator.
type DatedAmountRequest struct {
	Name   string `json:"name"`
	Amount string `json:"amount"`
	Date   string `json:"date"`
}

// AffordRequest is the "can I afford it?" calculator input. Start
// defaults to today (UTC) and Days to 30.
type AffordRequest struct {
	StartingBalance string               `json:"starting_balance"`
	PurchaseName    string               `json:"purchase_name"`
	PurchaseAmount  string               `json:"purchase_amount"`
	PurchaseDate    string               `json:"purchase_date"`
	SafetyBuffer    string               `json:"safety_buffer"`
	StartDate       string               `json:"start_date"`
	Days            int                  `json:"days"`
	Bills           []DatedAmountRequest `json:"bills"`
	Income          []DatedAmountRequest `json:"income"`
}

// AffordDTO is the calculator's answer.
type AffordDTO struct {
	CanAfford bool             `json:"can_afford"`
	Headroom  decimal.Decimal  `json:"headroom"`
	Risks     RiskReportDTO    `json:"risks"`
	Baseline  RiskReportDTO    `json:"baseline"`
	Days      []DaySnapshotDTO `json:"days"`
}

// =============================================================================
// SCENARIOS / ERRORS
// =============================================================================

// ScenarioDTO describes a demo data set.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// LoadScenarioRequest is the request to load a scenario.
type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id"`
}

// ErrorResponse is returned on errors.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// =============================================================================
// CONVERSIONS
// =============================================================================

func toProfileDTO(p forecast.Profile) ProfileDTO {
	dto := ProfileDTO{
		ID:            p.ID,
		Name:          p.Name,
		Email:         p.Email,
		Timezone:      p.Timezone,
		SafetyBuffer:  p.SafetyBuffer,
		Tier:          p.Tier,
		DigestEnabled: p.DigestEnabled,
		AlertsEnabled: p.AlertsEnabled,
	}
	if !p.CreatedAt.IsZero() {
		dto.CreatedAt = p.CreatedAt.UTC().Format(time.RFC3339)
	}
	return dto
}

func toAccountDTO(a forecast.Account) AccountDTO {
	return AccountDTO{ID: a.ID, Name: a.Name, CurrentBalance: a.CurrentBalance, IsSpendable: a.IsSpendable}
}

func toItemDTO(it forecast.RecurringItem) ItemDTO {
	return ItemDTO{
		ID:         it.ID,
		Name:       it.Name,
		Kind:       it.Kind,
		Amount:     it.Amount,
		Frequency:  string(it.Frequency),
		AnchorDate: it.AnchorDate,
		IsActive:   it.IsActive,
	}
}

func toDayDTOs(days []forecast.DaySnapshot) []DaySnapshotDTO {
	out := make([]DaySnapshotDTO, len(days))
	for i, d := range days {
		occ := make([]OccurrenceDTO, len(d.Occurrences))
		for j, o := range d.Occurrences {
			occ[j] = OccurrenceDTO{
				Date:       o.Date,
				Amount:     o.Amount,
				SourceID:   o.SourceID,
				SourceName: o.SourceName,
				SourceKind: o.SourceKind,
			}
		}
		out[i] = DaySnapshotDTO{
			Date:            d.Date,
			StartingBalance: d.StartingBalance,
			EndingBalance:   d.EndingBalance,
			NetChange:       d.NetChange,
			LowBalance:      d.LowBalance,
			Occurrences:     occ,
		}
	}
	return out
}

func toRiskDTO(r forecast.RiskReport) RiskReportDTO {
	dto := RiskReportDTO{
		LowBalanceDays: nonNil(r.LowBalanceDays),
		OverdraftDays:  nonNil(r.OverdraftDays),
		Collisions:     make([]CollisionDTO, len(r.Collisions)),
	}
	for i, c := range r.Collisions {
		dto.Collisions[i] = CollisionDTO{Date: c.Date, OccurrenceCount: c.OccurrenceCount, Total: c.Total}
	}
	if r.LowestPoint != nil {
		dto.LowestPoint = &LowestPointDTO{Amount: r.LowestPoint.Amount, Date: r.LowestPoint.Date}
	}
	return dto
}

// NewForecastDTO converts an engine result for the API and the CLI.
func NewForecastDTO(profileID string, horizon int, res forecast.ForecastResult) ForecastDTO {
	return ForecastDTO{
		ProfileID:       profileID,
		Start:           res.Window.Start,
		End:             res.Window.End,
		HorizonDays:     horizon,
		StartingBalance: res.StartingBalance,
		EndingBalance:   res.EndingBalance(),
		SafetyBuffer:    res.SafetyBuffer,
		SafeToSpend:     res.SafeToSpend(),
		Days:            toDayDTOs(res.Days),
		Risks:           toRiskDTO(res.Risks),
		Collisions: CollisionReportDTO{
			Dates: nonNil(res.Collisions.Dates),
			Count: res.Collisions.Count,
		},
	}
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
