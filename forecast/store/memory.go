// Package store provides in-memory forecast.Store implementations.
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/omarqouqas/cashflowforecaster/forecast"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu       sync.RWMutex
	profiles map[string]forecast.Profile
	accounts map[string]ownedAccount
	items    map[string]ownedItem
	alerts   map[alertKey]bool
}

type ownedAccount struct {
	OwnerID string
	Account forecast.Account
}

type ownedItem struct {
	OwnerID string
	Item    forecast.RecurringItem
}

type alertKey struct {
	OwnerID string
	Kind    string
	Day     forecast.Date
}

func NewMemory() *Memory {
	m := &Memory{}
	m.resetLocked()
	return m
}

func (m *Memory) resetLocked() {
	m.profiles = make(map[string]forecast.Profile)
	m.accounts = make(map[string]ownedAccount)
	m.items = make(map[string]ownedItem)
	m.alerts = make(map[alertKey]bool)
}

func (m *Memory) GetProfile(_ context.Context, id string) (*forecast.Profile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.profiles[id]
	if !ok {
		return nil, forecast.ErrProfileNotFound
	}
	return &p, nil
}

func (m *Memory) ListProfiles(_ context.Context) ([]forecast.Profile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]forecast.Profile, 0, len(m.profiles))
	for _, p := range m.profiles {
		result = append(result, p)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (m *Memory) SaveProfile(_ context.Context, p forecast.Profile) (forecast.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	m.profiles[p.ID] = p
	return p, nil
}

func (m *Memory) ListAccounts(_ context.Context, ownerID string) ([]forecast.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []forecast.Account
	for _, a := range m.accounts {
		if a.OwnerID == ownerID {
			result = append(result, a.Account)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (m *Memory) SaveAccount(_ context.Context, ownerID string, a forecast.Account) (forecast.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.profiles[ownerID]; !ok {
		return forecast.Account{}, forecast.ErrProfileNotFound
	}
	if a.ID == "" {
		a.ID = uuid.NewString()
	} else if cur, ok := m.accounts[a.ID]; !ok || cur.OwnerID != ownerID {
		return forecast.Account{}, forecast.ErrAccountNotFound
	}
	m.accounts[a.ID] = ownedAccount{OwnerID: ownerID, Account: a}
	return a, nil
}

func (m *Memory) DeleteAccount(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.accounts[id]; !ok {
		return forecast.ErrAccountNotFound
	}
	delete(m.accounts, id)
	return nil
}

func (m *Memory) ListItems(_ context.Context, ownerID string, activeOnly bool) ([]forecast.RecurringItem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []forecast.RecurringItem
	for _, it := range m.items {
		if it.OwnerID != ownerID || (activeOnly && !it.Item.IsActive) {
			continue
		}
		result = append(result, it.Item)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (m *Memory) SaveItem(_ context.Context, ownerID string, it forecast.RecurringItem) (forecast.RecurringItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.profiles[ownerID]; !ok {
		return forecast.RecurringItem{}, forecast.ErrProfileNotFound
	}
	if it.ID == "" {
		it.ID = uuid.NewString()
	} else if cur, ok := m.items[it.ID]; !ok || cur.OwnerID != ownerID {
		return forecast.RecurringItem{}, forecast.ErrItemNotFound
	}
	m.items[it.ID] = ownedItem{OwnerID: ownerID, Item: it}
	return it, nil
}

func (m *Memory) DeleteItem(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.items[id]; !ok {
		return forecast.ErrItemNotFound
	}
	delete(m.items, id)
	return nil
}

func (m *Memory) MarkAlertSent(_ context.Context, ownerID, kind string, day forecast.Date) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	k := alertKey{OwnerID: ownerID, Kind: kind, Day: day}
	if m.alerts[k] {
		return false, nil
	}
	m.alerts[k] = true
	return true, nil
}

func (m *Memory) Reset(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resetLocked()
	return nil
}

var _ forecast.Store = (*Memory)(nil)
