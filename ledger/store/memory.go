// Package store provides in-memory store implementations for tests and
// local development.
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/warp/balance-engine/ledger"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

// Memory implements all four store interfaces. Every map is keyed by
// tenant first; nothing is shared across tenants.
type Memory struct {
	mu        sync.RWMutex
	entries   map[string][]ledger.LedgerEntry        // tenant -> entries, sorted by date
	accounts  map[string]map[string]ledger.Account   // tenant -> account id -> account
	snapshots map[string]map[string]ledger.BalanceSnapshot // tenant -> key -> snapshot
	periods   map[string]map[string]ledger.FiscalPeriod    // tenant -> key -> period
}

func NewMemory() *Memory {
	return &Memory{
		entries:   make(map[string][]ledger.LedgerEntry),
		accounts:  make(map[string]map[string]ledger.Account),
		snapshots: make(map[string]map[string]ledger.BalanceSnapshot),
		periods:   make(map[string]map[string]ledger.FiscalPeriod),
	}
}

// =============================================================================
// LEDGER STORE
// =============================================================================

// AppendEntries adds a batch atomically. Append-only.
func (m *Memory) AppendEntries(_ context.Context, tenant string, entries []ledger.LedgerEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Validate everything before touching state (atomic batch).
	for _, e := range entries {
		if err := e.Validate(); err != nil {
			return err
		}
	}
	for _, e := range entries {
		m.insertSorted(tenant, e)
	}
	return nil
}

func (m *Memory) insertSorted(tenant string, e ledger.LedgerEntry) {
	list := m.entries[tenant]

	// Binary search for the insertion point keeps the slice ordered by
	// entry date with stable order among same-day entries.
	i := sort.Search(len(list), func(i int) bool {
		return list[i].EntryDate.After(e.EntryDate)
	})

	list = append(list, ledger.LedgerEntry{})
	copy(list[i+1:], list[i:])
	list[i] = e
	m.entries[tenant] = list
}

// EntriesThrough returns entries ascending by date; nil after means
// from inception, otherwise the lower bound is exclusive. Upper bound
// is inclusive.
func (m *Memory) EntriesThrough(_ context.Context, tenant string, after *ledger.Date, upTo ledger.Date) ([]ledger.LedgerEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []ledger.LedgerEntry
	for _, e := range m.entries[tenant] {
		if after != nil && !e.EntryDate.After(*after) {
			continue
		}
		if e.EntryDate.After(upTo) {
			break
		}
		result = append(result, e)
	}
	return result, nil
}

// =============================================================================
// ACCOUNT STORE
// =============================================================================

func (m *Memory) SaveAccount(_ context.Context, tenant string, account ledger.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.accounts[tenant] == nil {
		m.accounts[tenant] = make(map[string]ledger.Account)
	}
	m.accounts[tenant][account.ID] = account
	return nil
}

func (m *Memory) ListAccounts(_ context.Context, tenant string) ([]ledger.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	accounts := make([]ledger.Account, 0, len(m.accounts[tenant]))
	for _, a := range m.accounts[tenant] {
		accounts = append(accounts, a)
	}
	sort.Slice(accounts, func(i, j int) bool { return accounts[i].Code < accounts[j].Code })
	return accounts, nil
}

// =============================================================================
// SNAPSHOT STORE
// =============================================================================

func (m *Memory) SaveSnapshot(_ context.Context, tenant string, snap ledger.BalanceSnapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.snapshots[tenant] == nil {
		m.snapshots[tenant] = make(map[string]ledger.BalanceSnapshot)
	}
	m.snapshots[tenant][ledger.SnapshotKey(snap.Year, snap.Period)] = snap
	return nil
}

func (m *Memory) GetSnapshot(_ context.Context, tenant, key string) (*ledger.BalanceSnapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	snap, ok := m.snapshots[tenant][key]
	if !ok {
		return nil, nil
	}
	// Copy so callers cannot mutate stored state through the slice.
	out := snap
	out.Accounts = append([]ledger.BalanceSnapshotEntry(nil), snap.Accounts...)
	return &out, nil
}

func (m *Memory) DeleteSnapshot(_ context.Context, tenant, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.snapshots[tenant], key)
	return nil
}

// =============================================================================
// PERIOD STORE
// =============================================================================

func (m *Memory) SavePeriod(_ context.Context, tenant string, period ledger.FiscalPeriod) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.periods[tenant] == nil {
		m.periods[tenant] = make(map[string]ledger.FiscalPeriod)
	}
	m.periods[tenant][ledger.SnapshotKey(period.Year, period.Period)] = period
	return nil
}

func (m *Memory) GetPeriod(_ context.Context, tenant string, year, periodNum int) (*ledger.FiscalPeriod, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.periods[tenant][ledger.SnapshotKey(year, periodNum)]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (m *Memory) SetPeriodClosed(_ context.Context, tenant string, year, periodNum int, closed bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := ledger.SnapshotKey(year, periodNum)
	p, ok := m.periods[tenant][key]
	if !ok {
		return ledger.ErrPeriodNotFound
	}
	p.Closed = closed
	m.periods[tenant][key] = p
	return nil
}
