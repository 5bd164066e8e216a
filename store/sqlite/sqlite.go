/*
Package sqlite provides a SQLite-backed implementation of the storage
interfaces.

PURPOSE:
  Implements ledger.LedgerStore, ledger.AccountStore,
  ledger.SnapshotStore and ledger.PeriodStore using SQLite. The same
  patterns apply to PostgreSQL - only minor SQL dialect differences.

TENANCY:
  Every table carries a tenant_id column and every query filters on it.
  No statement in this package reads or writes without a tenant scope.

APPEND-ONLY ENFORCEMENT:
  The ledger_entries table has no UPDATE or DELETE path. Corrections
  are posted as reversal entries by the workflows that own posting.

KEY TABLES:
  ledger_entries:    Immutable double-entry lines
  accounts:          Chart-of-accounts directory
  fiscal_periods:    Period registry with close/reopen state
  balance_snapshots: One snapshot per (tenant_id, snapshot_key);
                     per-account entries stored as a JSON document,
                     scalar totals alongside for cheap inspection

DATES:
  Stored as "2006-01-02" text, so lexicographic SQL comparison matches
  chronological order and range predicates line up exactly with the
  engine's Date comparisons.

WAL MODE:
  SQLite is opened with WAL for better concurrency: multiple readers
  don't block and crash recovery is cleaner.

USAGE:
  store, err := sqlite.New("./data/ledger.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

SEE ALSO:
  - ledger/store.go: Interface definitions
  - ledger/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"github.com/warp/balance-engine/ledger"
)

// Store implements all storage interfaces using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
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

func (s *Store) migrate() error {
	schema := `
	-- Ledger entries (append-only; no UPDATE/DELETE path exists)
	CREATE TABLE IF NOT EXISTS ledger_entries (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		tenant_id TEXT NOT NULL,
		entry_date TEXT NOT NULL,
		account_id TEXT NOT NULL,
		account_code TEXT NOT NULL,
		account_name TEXT NOT NULL DEFAULT '',
		debit TEXT NOT NULL,
		credit TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL
	);

	-- Hot path: date-range scans per tenant
	CREATE INDEX IF NOT EXISTS idx_entries_tenant_date
		ON ledger_entries(tenant_id, entry_date);
	CREATE INDEX IF NOT EXISTS idx_entries_tenant_account
		ON ledger_entries(tenant_id, account_id);

	-- Chart of accounts
	CREATE TABLE IF NOT EXISTS accounts (
		tenant_id TEXT NOT NULL,
		id TEXT NOT NULL,
		code TEXT NOT NULL,
		name TEXT NOT NULL,
		account_type TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		PRIMARY KEY (tenant_id, id)
	);

	CREATE INDEX IF NOT EXISTS idx_accounts_tenant_code
		ON accounts(tenant_id, code);

	-- Fiscal period registry (close/reopen state)
	CREATE TABLE IF NOT EXISTS fiscal_periods (
		tenant_id TEXT NOT NULL,
		year INTEGER NOT NULL,
		period INTEGER NOT NULL,
		start_date TEXT NOT NULL,
		end_date TEXT NOT NULL,
		period_id TEXT NOT NULL,
		closed INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		PRIMARY KEY (tenant_id, year, period)
	);

	-- Balance snapshots, one per (tenant, year-period) key
	CREATE TABLE IF NOT EXISTS balance_snapshots (
		tenant_id TEXT NOT NULL,
		snapshot_key TEXT NOT NULL,
		year INTEGER NOT NULL,
		period INTEGER NOT NULL,
		period_end_date TEXT NOT NULL,
		fiscal_period_id TEXT NOT NULL DEFAULT '',
		accounts_json TEXT NOT NULL,
		total_cumulative_debit TEXT NOT NULL,
		total_cumulative_credit TEXT NOT NULL,
		is_balanced INTEGER NOT NULL,
		generated_at TEXT NOT NULL,
		generated_by TEXT NOT NULL DEFAULT '',
		version INTEGER NOT NULL,
		PRIMARY KEY (tenant_id, snapshot_key)
	);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// LEDGER STORE (ledger.LedgerStore interface)
// =============================================================================

// AppendEntries persists a batch of entries atomically.
func (s *Store) AppendEntries(ctx context.Context, tenant string, entries []ledger.LedgerEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range entries {
		if err := e.Validate(); err != nil {
			return err
		}
	}

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	query := `
		INSERT INTO ledger_entries
		(tenant_id, entry_date, account_id, account_code, account_name, debit, credit, description, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	now := time.Now().UTC().Format(time.RFC3339)
	for _, e := range entries {
		_, err := sqlTx.ExecContext(ctx, query,
			tenant,
			e.EntryDate.String(),
			e.AccountID,
			e.AccountCode,
			e.AccountName,
			e.Debit.String(),
			e.Credit.String(),
			e.Description,
			now,
		)
		if err != nil {
			return fmt.Errorf("failed to append ledger entry: %w", err)
		}
	}

	return sqlTx.Commit()
}

// EntriesThrough returns entries ascending by date. Nil after means
// from inception; otherwise the lower bound is exclusive. The upper
// bound is inclusive.
func (s *Store) EntriesThrough(ctx context.Context, tenant string, after *ledger.Date, upTo ledger.Date) ([]ledger.LedgerEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		query string
		args  []any
	)
	if after != nil {
		query = `
			SELECT entry_date, account_id, account_code, account_name, debit, credit, description
			FROM ledger_entries
			WHERE tenant_id = ? AND entry_date > ? AND entry_date <= ?
			ORDER BY entry_date ASC, id ASC
		`
		args = []any{tenant, after.String(), upTo.String()}
	} else {
		query = `
			SELECT entry_date, account_id, account_code, account_name, debit, credit, description
			FROM ledger_entries
			WHERE tenant_id = ? AND entry_date <= ?
			ORDER BY entry_date ASC, id ASC
		`
		args = []any{tenant, upTo.String()}
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query ledger entries: %w", err)
	}
	defer rows.Close()

	var entries []ledger.LedgerEntry
	for rows.Next() {
		var (
			e       ledger.LedgerEntry
			dateStr string
			debit   string
			credit  string
		)
		if err := rows.Scan(&dateStr, &e.AccountID, &e.AccountCode, &e.AccountName, &debit, &credit, &e.Description); err != nil {
			return nil, fmt.Errorf("failed to scan ledger entry: %w", err)
		}
		if e.EntryDate, err = ledger.ParseDate(dateStr); err != nil {
			return nil, err
		}
		if e.Debit, err = decimal.NewFromString(debit); err != nil {
			return nil, fmt.Errorf("corrupt debit amount %q: %w", debit, err)
		}
		if e.Credit, err = decimal.NewFromString(credit); err != nil {
			return nil, fmt.Errorf("corrupt credit amount %q: %w", credit, err)
		}
		entries = append(entries, e)
	}

	return entries, rows.Err()
}

// =============================================================================
// ACCOUNT STORE (ledger.AccountStore interface)
// =============================================================================

// SaveAccount upserts an account record.
func (s *Store) SaveAccount(ctx context.Context, tenant string, account ledger.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO accounts (tenant_id, id, code, name, account_type, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(tenant_id, id) DO UPDATE SET
			code = excluded.code,
			name = excluded.name,
			account_type = excluded.account_type,
			updated_at = excluded.updated_at
	`

	now := time.Now().UTC().Format(time.RFC3339)
	_, err := s.db.ExecContext(ctx, query,
		tenant, account.ID, account.Code, account.Name, string(account.Type), now, now,
	)
	return err
}

// ListAccounts returns the tenant's chart of accounts ordered by code.
func (s *Store) ListAccounts(ctx context.Context, tenant string) ([]ledger.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, code, name, account_type FROM accounts WHERE tenant_id = ? ORDER BY code",
		tenant,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var accounts []ledger.Account
	for rows.Next() {
		var a ledger.Account
		var accountType string
		if err := rows.Scan(&a.ID, &a.Code, &a.Name, &accountType); err != nil {
			return nil, err
		}
		a.Type = ledger.AccountType(accountType)
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

// =============================================================================
// PERIOD STORE (ledger.PeriodStore interface)
// =============================================================================

// SavePeriod upserts a fiscal period record.
func (s *Store) SavePeriod(ctx context.Context, tenant string, period ledger.FiscalPeriod) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO fiscal_periods (tenant_id, year, period, start_date, end_date, period_id, closed, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(tenant_id, year, period) DO UPDATE SET
			start_date = excluded.start_date,
			end_date = excluded.end_date,
			period_id = excluded.period_id,
			closed = excluded.closed,
			updated_at = excluded.updated_at
	`

	now := time.Now().UTC().Format(time.RFC3339)
	_, err := s.db.ExecContext(ctx, query,
		tenant, period.Year, period.Period,
		period.Start.String(), period.End.String(),
		period.ID, boolToInt(period.Closed), now, now,
	)
	return err
}

// GetPeriod returns nil when the period was never registered.
func (s *Store) GetPeriod(ctx context.Context, tenant string, year, periodNum int) (*ledger.FiscalPeriod, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		p          ledger.FiscalPeriod
		start, end string
		closed     int
	)
	err := s.db.QueryRowContext(ctx,
		"SELECT year, period, start_date, end_date, period_id, closed FROM fiscal_periods WHERE tenant_id = ? AND year = ? AND period = ?",
		tenant, year, periodNum,
	).Scan(&p.Year, &p.Period, &start, &end, &p.ID, &closed)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if p.Start, err = ledger.ParseDate(start); err != nil {
		return nil, err
	}
	if p.End, err = ledger.ParseDate(end); err != nil {
		return nil, err
	}
	p.Closed = closed != 0
	return &p, nil
}

// SetPeriodClosed flips a period's close state.
func (s *Store) SetPeriodClosed(ctx context.Context, tenant string, year, periodNum int, closed bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		"UPDATE fiscal_periods SET closed = ?, updated_at = ? WHERE tenant_id = ? AND year = ? AND period = ?",
		boolToInt(closed), time.Now().UTC().Format(time.RFC3339), tenant, year, periodNum,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ledger.ErrPeriodNotFound
	}
	return nil
}

// =============================================================================
// SNAPSHOT STORE (ledger.SnapshotStore interface)
// =============================================================================

// snapshotEntryRecord is the on-disk JSON shape of one per-account
// entry. Kept separate from the domain type so the stored form stays
// stable; the snapshot's version column governs migration.
type snapshotEntryRecord struct {
	AccountID        string `json:"account_id"`
	AccountCode      string `json:"account_code"`
	AccountName      string `json:"account_name"`
	AccountType      string `json:"account_type"`
	CumulativeDebit  string `json:"cumulative_debit"`
	CumulativeCredit string `json:"cumulative_credit"`
	CumulativeNet    string `json:"cumulative_net"`
	PeriodDebit      string `json:"period_debit"`
	PeriodCredit     string `json:"period_credit"`
	PeriodNet        string `json:"period_net"`
}

// SaveSnapshot upserts a snapshot at its deterministic key.
func (s *Store) SaveSnapshot(ctx context.Context, tenant string, snap ledger.BalanceSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	records := make([]snapshotEntryRecord, len(snap.Accounts))
	for i, e := range snap.Accounts {
		records[i] = snapshotEntryRecord{
			AccountID:        e.AccountID,
			AccountCode:      e.AccountCode,
			AccountName:      e.AccountName,
			AccountType:      string(e.AccountType),
			CumulativeDebit:  e.CumulativeDebit.String(),
			CumulativeCredit: e.CumulativeCredit.String(),
			CumulativeNet:    e.CumulativeNet.String(),
			PeriodDebit:      e.PeriodDebit.String(),
			PeriodCredit:     e.PeriodCredit.String(),
			PeriodNet:        e.PeriodNet.String(),
		}
	}
	accountsJSON, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot accounts: %w", err)
	}

	query := `
		INSERT INTO balance_snapshots
		(tenant_id, snapshot_key, year, period, period_end_date, fiscal_period_id, accounts_json,
		 total_cumulative_debit, total_cumulative_credit, is_balanced, generated_at, generated_by, version)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(tenant_id, snapshot_key) DO UPDATE SET
			period_end_date = excluded.period_end_date,
			fiscal_period_id = excluded.fiscal_period_id,
			accounts_json = excluded.accounts_json,
			total_cumulative_debit = excluded.total_cumulative_debit,
			total_cumulative_credit = excluded.total_cumulative_credit,
			is_balanced = excluded.is_balanced,
			generated_at = excluded.generated_at,
			generated_by = excluded.generated_by,
			version = excluded.version
	`

	_, err = s.db.ExecContext(ctx, query,
		tenant,
		ledger.SnapshotKey(snap.Year, snap.Period),
		snap.Year,
		snap.Period,
		snap.PeriodEndDate.String(),
		snap.FiscalPeriodID,
		string(accountsJSON),
		snap.TotalCumulativeDebit.String(),
		snap.TotalCumulativeCredit.String(),
		boolToInt(snap.IsBalanced),
		snap.GeneratedAt.UTC().Format(time.RFC3339),
		snap.GeneratedBy,
		snap.Version,
	)
	return err
}

// GetSnapshot returns nil when no snapshot exists at the key.
func (s *Store) GetSnapshot(ctx context.Context, tenant, key string) (*ledger.BalanceSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		snap         ledger.BalanceSnapshot
		endDate      string
		accountsJSON string
		totalDebit   string
		totalCredit  string
		isBalanced   int
		generatedAt  string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT year, period, period_end_date, fiscal_period_id, accounts_json,
		        total_cumulative_debit, total_cumulative_credit, is_balanced, generated_at, generated_by, version
		 FROM balance_snapshots WHERE tenant_id = ? AND snapshot_key = ?`,
		tenant, key,
	).Scan(&snap.Year, &snap.Period, &endDate, &snap.FiscalPeriodID, &accountsJSON,
		&totalDebit, &totalCredit, &isBalanced, &generatedAt, &snap.GeneratedBy, &snap.Version)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if snap.PeriodEndDate, err = ledger.ParseDate(endDate); err != nil {
		return nil, err
	}
	if snap.TotalCumulativeDebit, err = decimal.NewFromString(totalDebit); err != nil {
		return nil, fmt.Errorf("corrupt snapshot total debit: %w", err)
	}
	if snap.TotalCumulativeCredit, err = decimal.NewFromString(totalCredit); err != nil {
		return nil, fmt.Errorf("corrupt snapshot total credit: %w", err)
	}
	snap.IsBalanced = isBalanced != 0
	snap.GeneratedAt, _ = time.Parse(time.RFC3339, generatedAt)

	var records []snapshotEntryRecord
	if err := json.Unmarshal([]byte(accountsJSON), &records); err != nil {
		return nil, fmt.Errorf("corrupt snapshot accounts: %w", err)
	}
	snap.Accounts = make([]ledger.BalanceSnapshotEntry, len(records))
	for i, r := range records {
		entry, err := r.toDomain()
		if err != nil {
			return nil, err
		}
		snap.Accounts[i] = entry
	}

	return &snap, nil
}

func (r snapshotEntryRecord) toDomain() (ledger.BalanceSnapshotEntry, error) {
	e := ledger.BalanceSnapshotEntry{
		AccountID:   r.AccountID,
		AccountCode: r.AccountCode,
		AccountName: r.AccountName,
		AccountType: ledger.AccountType(r.AccountType),
	}
	var err error
	if e.CumulativeDebit, err = decimal.NewFromString(r.CumulativeDebit); err != nil {
		return e, fmt.Errorf("corrupt snapshot entry: %w", err)
	}
	if e.CumulativeCredit, err = decimal.NewFromString(r.CumulativeCredit); err != nil {
		return e, fmt.Errorf("corrupt snapshot entry: %w", err)
	}
	if e.CumulativeNet, err = decimal.NewFromString(r.CumulativeNet); err != nil {
		return e, fmt.Errorf("corrupt snapshot entry: %w", err)
	}
	if e.PeriodDebit, err = decimal.NewFromString(r.PeriodDebit); err != nil {
		return e, fmt.Errorf("corrupt snapshot entry: %w", err)
	}
	if e.PeriodCredit, err = decimal.NewFromString(r.PeriodCredit); err != nil {
		return e, fmt.Errorf("corrupt snapshot entry: %w", err)
	}
	if e.PeriodNet, err = decimal.NewFromString(r.PeriodNet); err != nil {
		return e, fmt.Errorf("corrupt snapshot entry: %w", err)
	}
	return e, nil
}

// DeleteSnapshot removes the snapshot at the key. Deleting a missing
// key is not an error.
func (s *Store) DeleteSnapshot(ctx context.Context, tenant, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		"DELETE FROM balance_snapshots WHERE tenant_id = ? AND snapshot_key = ?",
		tenant, key,
	)
	return err
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
