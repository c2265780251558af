/*
Package sqlite provides a SQL-backed implementation of forecast.Store.

PURPOSE:
  Persists profiles, accounts, recurring income/bills and the alert log.
  The same code runs against SQLite (mattn/go-sqlite3) and PostgreSQL
  (lib/pq); queries are written with ? placeholders and rebound to $n
  for postgres.

KEY TABLES:
  profiles:        Per-user settings (timezone, safety buffer, tier)
  accounts:        Balances; only is_spendable rows count toward the forecast
  recurring_items: Income and bills with frequency + anchor date
  alert_log:       One row per (owner, kind, day), dedupes alert emails

AMOUNTS:
  Stored as TEXT decimal strings so no float rounding reaches the engine.

DATES:
  Anchor dates are YYYY-MM-DD TEXT. Timestamps are RFC3339 UTC.

CONCURRENCY:
  Uses sync.RWMutex for thread-safety. SQLite allows one writer at a
  time; with PostgreSQL the database handles this instead.

USAGE:
  store, err := sqlite.New("./data/cashflow.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  g, err := forecast.Gather(ctx, store, profileID, 60, time.Now())

SEE ALSO:
  - forecast/store.go: Interface definitions
  - forecast/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/omarqouqas/cashflowforecaster/forecast"
)

const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
)

// Store implements forecast.Store on database/sql.
type Store struct {
	db     *sql.DB
	driver string
	mu     sync.RWMutex
}

// New opens a SQLite store at dbPath. Use ":memory:" for an in-memory
// database.
func New(dbPath string) (*Store, error) {
	return Open(DriverSQLite, dbPath+"?_foreign_keys=on&_journal_mode=WAL")
}

// Open connects with the given driver ("sqlite3" or "postgres") and
// migrates the schema.
func Open(driver, dsn string) (*Store, error) {
	if driver != DriverSQLite && driver != DriverPostgres {
		return nil, fmt.Errorf("unsupported driver %q", driver)
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if driver == DriverSQLite {
		// Single writer; also keeps one ":memory:" database per Store.
		db.SetMaxOpenConns(1)
	}

	store := &Store{db: db, driver: driver}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks the connection, used by the health endpoint.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS profiles (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			email TEXT NOT NULL DEFAULT '',
			timezone TEXT NOT NULL DEFAULT 'UTC',
			safety_buffer TEXT NOT NULL DEFAULT '0',
			tier TEXT NOT NULL DEFAULT 'free',
			digest_enabled BOOLEAN NOT NULL DEFAULT TRUE,
			alerts_enabled BOOLEAN NOT NULL DEFAULT TRUE,
			created_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS accounts (
			id TEXT PRIMARY KEY,
			owner_id TEXT NOT NULL REFERENCES profiles(id) ON DELETE CASCADE,
			name TEXT NOT NULL,
			current_balance TEXT NOT NULL,
			is_spendable BOOLEAN NOT NULL DEFAULT TRUE
		)`,
		`CREATE INDEX IF NOT EXISTS idx_accounts_owner ON accounts(owner_id)`,
		`CREATE TABLE IF NOT EXISTS recurring_items (
			id TEXT PRIMARY KEY,
			owner_id TEXT NOT NULL REFERENCES profiles(id) ON DELETE CASCADE,
			kind TEXT NOT NULL,
			name TEXT NOT NULL,
			amount TEXT NOT NULL,
			frequency TEXT NOT NULL,
			anchor_date TEXT NOT NULL,
			is_active BOOLEAN NOT NULL DEFAULT TRUE
		)`,
		// Hot path: ListItems(owner, activeOnly=true) on every forecast
		`CREATE INDEX IF NOT EXISTS idx_items_owner_active ON recurring_items(owner_id, is_active)`,
		`CREATE TABLE IF NOT EXISTS alert_log (
			owner_id TEXT NOT NULL,
			kind TEXT NOT NULL,
			sent_on TEXT NOT NULL,
			created_at TEXT NOT NULL,
			PRIMARY KEY (owner_id, kind, sent_on)
		)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// =============================================================================
// PROFILES
// =============================================================================

const profileColumns = `id, name, email, timezone, safety_buffer, tier, digest_enabled, alerts_enabled, created_at`

// GetProfile retrieves a profile by ID.
func (s *Store) GetProfile(ctx context.Context, id string) (*forecast.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, s.rebind("SELECT "+profileColumns+" FROM profiles WHERE id = ?"), id)
	p, err := scanProfile(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, forecast.ErrProfileNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// ListProfiles returns all profiles ordered by name.
func (s *Store) ListProfiles(ctx context.Context) ([]forecast.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, "SELECT "+profileColumns+" FROM profiles ORDER BY name, id")
	if err != nil {
		return nil, fmt.Errorf("failed to query profiles: %w", err)
	}
	defer rows.Close()

	var profiles []forecast.Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, p)
	}
	return profiles, rows.Err()
}

// SaveProfile inserts or replaces a profile.
func (s *Store) SaveProfile(ctx context.Context, p forecast.Profile) (forecast.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO profiles (` + profileColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			email = excluded.email,
			timezone = excluded.timezone,
			safety_buffer = excluded.safety_buffer,
			tier = excluded.tier,
			digest_enabled = excluded.digest_enabled,
			alerts_enabled = excluded.alerts_enabled
	`
	_, err := s.db.ExecContext(ctx, s.rebind(query),
		p.ID, p.Name, p.Email, p.Timezone,
		p.SafetyBuffer.String(), p.Tier,
		p.DigestEnabled, p.AlertsEnabled,
		p.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return forecast.Profile{}, fmt.Errorf("failed to save profile: %w", err)
	}
	return p, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanProfile(row scanner) (forecast.Profile, error) {
	var p forecast.Profile
	var buffer, createdAt string
	if err := row.Scan(&p.ID, &p.Name, &p.Email, &p.Timezone, &buffer, &p.Tier,
		&p.DigestEnabled, &p.AlertsEnabled, &createdAt); err != nil {
		return p, err
	}
	var err error
	if p.SafetyBuffer, err = decimal.NewFromString(buffer); err != nil {
		return p, fmt.Errorf("profile %s: safety_buffer %q: %w", p.ID, buffer, err)
	}
	if p.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
		return p, fmt.Errorf("profile %s: created_at %q: %w", p.ID, createdAt, err)
	}
	return p, nil
}

// =============================================================================
// ACCOUNTS
// =============================================================================

// ListAccounts returns every account owned by ownerID.
func (s *Store) ListAccounts(ctx context.Context, ownerID string) ([]forecast.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, s.rebind(`
		SELECT id, name, current_balance, is_spendable
		FROM accounts WHERE owner_id = ? ORDER BY name, id
	`), ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query accounts: %w", err)
	}
	defer rows.Close()

	var accounts []forecast.Account
	for rows.Next() {
		var a forecast.Account
		var balance string
		if err := rows.Scan(&a.ID, &a.Name, &balance, &a.IsSpendable); err != nil {
			return nil, err
		}
		if a.CurrentBalance, err = decimal.NewFromString(balance); err != nil {
			return nil, fmt.Errorf("account %s: balance %q: %w", a.ID, balance, err)
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

// SaveAccount inserts an account, or updates one ownerID already owns.
func (s *Store) SaveAccount(ctx context.Context, ownerID string, a forecast.Account) (forecast.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireProfile(ctx, ownerID); err != nil {
		return forecast.Account{}, err
	}

	if a.ID == "" {
		a.ID = uuid.NewString()
		_, err := s.db.ExecContext(ctx, s.rebind(`
			INSERT INTO accounts (id, owner_id, name, current_balance, is_spendable)
			VALUES (?, ?, ?, ?, ?)
		`), a.ID, ownerID, a.Name, a.CurrentBalance.String(), a.IsSpendable)
		if err != nil {
			return forecast.Account{}, fmt.Errorf("failed to save account: %w", err)
		}
		return a, nil
	}

	res, err := s.db.ExecContext(ctx, s.rebind(`
		UPDATE accounts SET name = ?, current_balance = ?, is_spendable = ?
		WHERE id = ? AND owner_id = ?
	`), a.Name, a.CurrentBalance.String(), a.IsSpendable, a.ID, ownerID)
	if err != nil {
		return forecast.Account{}, fmt.Errorf("failed to save account: %w", err)
	}
	if err := requireOneRow(res, forecast.ErrAccountNotFound); err != nil {
		return forecast.Account{}, err
	}
	return a, nil
}

// DeleteAccount removes an account.
func (s *Store) DeleteAccount(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.deleteByID(ctx, "accounts", id, forecast.ErrAccountNotFound)
}

// =============================================================================
// RECURRING ITEMS
// =============================================================================

// ListItems returns income and bills owned by ownerID. A stored frequency
// or kind the engine doesn't know is a load error.
func (s *Store) ListItems(ctx context.Context, ownerID string, activeOnly bool) ([]forecast.RecurringItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT id, kind, name, amount, frequency, anchor_date, is_active
		FROM recurring_items WHERE owner_id = ?`
	if activeOnly {
		query += ` AND is_active = TRUE`
	}
	query += ` ORDER BY anchor_date, name, id`

	rows, err := s.db.QueryContext(ctx, s.rebind(query), ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query items: %w", err)
	}
	defer rows.Close()

	var items []forecast.RecurringItem
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func scanItem(row scanner) (forecast.RecurringItem, error) {
	var it forecast.RecurringItem
	var kind, amount, freq, anchor string
	if err := row.Scan(&it.ID, &kind, &it.Name, &amount, &freq, &anchor, &it.IsActive); err != nil {
		return it, err
	}

	var err error
	if it.Kind, err = forecast.ParseKind(kind); err != nil {
		return it, fmt.Errorf("item %s: %w", it.ID, err)
	}
	if it.Frequency, err = forecast.ParseFrequency(freq); err != nil {
		return it, fmt.Errorf("item %s: %w", it.ID, err)
	}
	if it.AnchorDate, err = forecast.ParseDate(anchor); err != nil {
		return it, fmt.Errorf("item %s: %w", it.ID, err)
	}
	if it.Amount, err = decimal.NewFromString(amount); err != nil {
		return it, fmt.Errorf("item %s: amount %q: %w", it.ID, amount, err)
	}
	return it, nil
}

// SaveItem inserts a recurring item, or updates one ownerID already owns.
func (s *Store) SaveItem(ctx context.Context, ownerID string, it forecast.RecurringItem) (forecast.RecurringItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireProfile(ctx, ownerID); err != nil {
		return forecast.RecurringItem{}, err
	}

	if it.ID == "" {
		it.ID = uuid.NewString()
		_, err := s.db.ExecContext(ctx, s.rebind(`
			INSERT INTO recurring_items (id, owner_id, kind, name, amount, frequency, anchor_date, is_active)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`), it.ID, ownerID, string(it.Kind), it.Name, it.Amount.String(),
			string(it.Frequency), it.AnchorDate.String(), it.IsActive)
		if err != nil {
			return forecast.RecurringItem{}, fmt.Errorf("failed to save item: %w", err)
		}
		return it, nil
	}

	res, err := s.db.ExecContext(ctx, s.rebind(`
		UPDATE recurring_items
		SET kind = ?, name = ?, amount = ?, frequency = ?, anchor_date = ?, is_active = ?
		WHERE id = ? AND owner_id = ?
	`), string(it.Kind), it.Name, it.Amount.String(), string(it.Frequency),
		it.AnchorDate.String(), it.IsActive, it.ID, ownerID)
	if err != nil {
		return forecast.RecurringItem{}, fmt.Errorf("failed to save item: %w", err)
	}
	if err := requireOneRow(res, forecast.ErrItemNotFound); err != nil {
		return forecast.RecurringItem{}, err
	}
	return it, nil
}

// DeleteItem removes a recurring item.
func (s *Store) DeleteItem(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.deleteByID(ctx, "recurring_items", id, forecast.ErrItemNotFound)
}

// =============================================================================
// ALERT LOG
// =============================================================================

// MarkAlertSent records an alert for (ownerID, kind, day). It returns
// false when the row already existed.
func (s *Store) MarkAlertSent(ctx context.Context, ownerID, kind string, day forecast.Date) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, s.rebind(`
		INSERT INTO alert_log (owner_id, kind, sent_on, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (owner_id, kind, sent_on) DO NOTHING
	`), ownerID, kind, day.String(), time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return false, fmt.Errorf("failed to record alert: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// =============================================================================
// UTILITIES
// =============================================================================

// Reset clears all data (for testing/demo).
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tables := []string{"alert_log", "recurring_items", "accounts", "profiles"}
	for _, table := range tables {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) requireProfile(ctx context.Context, id string) error {
	var count int
	err := s.db.QueryRowContext(ctx, s.rebind("SELECT COUNT(*) FROM profiles WHERE id = ?"), id).Scan(&count)
	if err != nil {
		return err
	}
	if count == 0 {
		return forecast.ErrProfileNotFound
	}
	return nil
}

func (s *Store) deleteByID(ctx context.Context, table, id string, notFound error) error {
	res, err := s.db.ExecContext(ctx, s.rebind("DELETE FROM "+table+" WHERE id = ?"), id)
	if err != nil {
		return err
	}
	return requireOneRow(res, notFound)
}

// requireOneRow maps "no row touched" to notFound.
func requireOneRow(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound
	}
	return nil
}

// rebind rewrites ? placeholders to $1, $2... for postgres.
func (s *Store) rebind(query string) string {
	if s.driver != DriverPostgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

var _ forecast.Store = (*Store)(nil)
