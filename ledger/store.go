/*
store.go - Persistence interfaces for the snapshot engine

PURPOSE:
  Defines the boundary between the engine and its collaborators'
  storage. The engine reads ledger entries and accounts, and owns the
  snapshot store. Different implementations can use SQLite, PostgreSQL,
  or in-memory storage.

TENANCY:
  Every operation takes an opaque tenant identifier and must scope all
  reads and writes to it. This is the one hard security invariant the
  engine carries: no call may cross a tenant boundary.

APPEND-ONLY CONTRACT:
  The ledger is append-only. AppendEntries is the only write; there is
  no update or delete. Corrections are posted as reversal entries by
  the workflows that own the ledger-writing paths.

IMPLEMENTATIONS:
  - store/sqlite/sqlite.go: Production SQLite
  - ledger/store/memory.go: In-memory for testing

SEE ALSO:
  - generator.go: Consumes all three interfaces
  - delta.go: The delta-query primitive over LedgerStore
*/
package ledger

import "context"

// =============================================================================
// LEDGER STORE - Append-only entry log with date-range reads
// =============================================================================

// LedgerStore reads and appends ledger entries for one tenant at a time.
type LedgerStore interface {
	// EntriesThrough returns entries ascending by entry date. A nil
	// after means "from ledger inception"; otherwise the lower bound is
	// exclusive. The upper bound is always inclusive. These exact
	// boundary semantics are load-bearing: an off-by-one here either
	// double-counts or drops an entry when a snapshot and its delta are
	// combined.
	EntriesThrough(ctx context.Context, tenant string, after *Date, upTo Date) ([]LedgerEntry, error)

	// AppendEntries persists a batch atomically. Append-only: there is
	// no update or delete on ledger entries, ever.
	AppendEntries(ctx context.Context, tenant string, entries []LedgerEntry) error
}

// =============================================================================
// ACCOUNT STORE - Chart-of-accounts reads
// =============================================================================

// AccountStore exposes the account directory. The engine only lists;
// SaveAccount exists for the directory's owning workflows and tests.
type AccountStore interface {
	ListAccounts(ctx context.Context, tenant string) ([]Account, error)
	SaveAccount(ctx context.Context, tenant string, account Account) error
}

// =============================================================================
// SNAPSHOT STORE - Keyed snapshot persistence
// =============================================================================

// SnapshotStore persists one BalanceSnapshot per (tenant, key), where
// key is SnapshotKey(year, period).
type SnapshotStore interface {
	// SaveSnapshot upserts: writing an existing key overwrites the
	// previous snapshot wholesale.
	SaveSnapshot(ctx context.Context, tenant string, snap BalanceSnapshot) error

	// GetSnapshot returns nil (not an error) when no snapshot exists at
	// the key.
	GetSnapshot(ctx context.Context, tenant, key string) (*BalanceSnapshot, error)

	// DeleteSnapshot removes the snapshot at the key. Only the
	// period-reopening workflow calls this. Deleting a missing key is
	// not an error.
	DeleteSnapshot(ctx context.Context, tenant, key string) error
}

// =============================================================================
// PERIOD STORE - Fiscal period registry
// =============================================================================

// PeriodStore backs the period close/reopen workflow. GetPeriod returns
// nil when the period was never registered.
type PeriodStore interface {
	SavePeriod(ctx context.Context, tenant string, period FiscalPeriod) error
	GetPeriod(ctx context.Context, tenant string, year, periodNum int) (*FiscalPeriod, error)
	SetPeriodClosed(ctx context.Context, tenant string, year, periodNum int, closed bool) error
}
