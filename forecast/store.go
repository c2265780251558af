/*
store.go - Data-access collaborators

PURPOSE:
  The engine is handed plain slices; something has to fetch them. These
  interfaces are that something. Implementations:
  - store/sqlite/sqlite.go: SQLite or PostgreSQL
  - forecast/store/memory.go: in-memory, for tests and the demo server

  Gather is the glue every caller (dashboard, digest job, alert job, CLI)
  uses to turn a profile ID into a forecast Input.
*/
package forecast

import (
	"context"
	"fmt"
	"strings"
	"time"
	_ "time/tzdata" // profile zones must resolve on hosts without zoneinfo

	"github.com/shopspring/decimal"
)

// Profile is the per-user forecast configuration.
type Profile struct {
	ID            string
	Name          string
	Email         string
	Timezone      string // IANA name, e.g. "America/Chicago"
	SafetyBuffer  decimal.Decimal
	Tier          string
	DigestEnabled bool
	AlertsEnabled bool
	CreatedAt     time.Time
}

// Location resolves the profile's time zone. An empty zone is UTC.
func (p Profile) Location() (*time.Location, error) {
	tz := strings.TrimSpace(p.Timezone)
	if tz == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("profile %s: timezone %q: %w", p.ID, tz, err)
	}
	return loc, nil
}

// =============================================================================
// STORE INTERFACES
// =============================================================================

// Source is the read side the forecast needs.
type Source interface {
	GetProfile(ctx context.Context, id string) (*Profile, error)

	// ListAccounts returns all accounts owned by ownerID, spendable or not.
	ListAccounts(ctx context.Context, ownerID string) ([]Account, error)

	// ListItems returns income and bills owned by ownerID.
	ListItems(ctx context.Context, ownerID string, activeOnly bool) ([]RecurringItem, error)
}

// Store adds the write side used by the API and the batch jobs.
type Store interface {
	Source

	ListProfiles(ctx context.Context) ([]Profile, error)
	SaveProfile(ctx context.Context, p Profile) (Profile, error)

	// Save* insert when ID is empty (a new ID is generated). Otherwise
	// they update the existing record, which must belong to ownerID, and
	// return the kind's not-found error if it doesn't.
	SaveAccount(ctx context.Context, ownerID string, a Account) (Account, error)
	DeleteAccount(ctx context.Context, id string) error
	SaveItem(ctx context.Context, ownerID string, it RecurringItem) (RecurringItem, error)
	DeleteItem(ctx context.Context, id string) error

	// MarkAlertSent records that an alert of kind went to ownerID on day.
	// It returns false if one was already recorded.
	MarkAlertSent(ctx context.Context, ownerID, kind string, day Date) (bool, error)

	// Reset deletes everything. Dev and demo only.
	Reset(ctx context.Context) error
}

// =============================================================================
// GATHER - Fetch + build input
// =============================================================================

// Gathered is a profile together with the forecast input built for it.
type Gathered struct {
	Profile Profile
	Input   Input
	TZError error // non-nil if the profile's zone was invalid and UTC was used
}

// Gather loads a profile's accounts and active items into an Input.
// An invalid time zone falls back to UTC and is reported in TZError.
func Gather(ctx context.Context, src Source, profileID string, horizonDays int, now time.Time) (*Gathered, error) {
	profile, err := src.GetProfile(ctx, profileID)
	if err != nil {
		return nil, err
	}
	accounts, err := src.ListAccounts(ctx, profileID)
	if err != nil {
		return nil, fmt.Errorf("loading accounts for %s: %w", profileID, err)
	}
	items, err := src.ListItems(ctx, profileID, true)
	if err != nil {
		return nil, fmt.Errorf("loading items for %s: %w", profileID, err)
	}

	loc, tzErr := profile.Location()
	if tzErr != nil {
		loc = time.UTC
	}
	income, bills := SplitByKind(items)

	return &Gathered{
		Profile: *profile,
		Input: Input{
			Accounts:     accounts,
			Income:       income,
			Bills:        bills,
			SafetyBuffer: profile.SafetyBuffer,
			Location:     loc,
			HorizonDays:  horizonDays,
			Now:          now,
		},
		TZError: tzErr,
	}, nil
}
