/*
Package ledger provides the balance-snapshot aggregation engine.

PURPOSE:
  This package turns an append-only, double-entry general ledger into
  fast point-in-time account balances. Instead of rescanning the full
  ledger on every report, a BalanceSnapshot is materialized at each
  fiscal-period close and later reports combine "nearest snapshot" +
  "delta since then".

KEY CONCEPTS IN THIS FILE (types.go):
  - LedgerEntry: One immutable debit/credit line posted to an account
  - Account: Chart-of-accounts record (read-only for this engine)
  - BalanceSnapshotEntry: Per-account cumulative and period figures
  - BalanceSnapshot: The aggregate persisted once per (tenant, period)

DESIGN PRINCIPLES:
  1. Immutability: Ledger entries are never edited; corrections are
     new reversal entries
  2. Precision: Uses decimal.Decimal to avoid floating-point errors
  3. Determinism: Snapshot identity is a pure function of
     (year, period); writes are idempotent upserts
  4. Tenancy: Every store operation is scoped by an opaque tenant
     identifier; nothing reads or writes across tenants

SEE ALSO:
  - generator.go: Snapshot generation (incremental and cold-start)
  - locator.go: Backward snapshot lookup by deterministic-key probing
  - store.go: Persistence interfaces
*/
package ledger

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// ACCOUNTS
// =============================================================================

// AccountType classifies an account in the chart of accounts.
// The zero value (empty string) means "unresolved": the entry referenced
// an account the directory no longer knows about.
type AccountType string

const (
	AccountAsset     AccountType = "asset"
	AccountLiability AccountType = "liability"
	AccountEquity    AccountType = "equity"
	AccountRevenue   AccountType = "revenue"
	AccountExpense   AccountType = "expense"
)

// Account is a chart-of-accounts record. The engine only reads accounts,
// and only for enrichment; a missing account is tolerated.
type Account struct {
	ID   string
	Code string
	Name string
	Type AccountType
}

// =============================================================================
// LEDGER ENTRY - One immutable debit/credit line
// =============================================================================

// LedgerEntry is a single posted line. Code and name are denormalized at
// write time so the entry stays self-describing even if the account is
// later renamed. Debit and Credit are both non-negative; exactly one of
// them is normally non-zero.
type LedgerEntry struct {
	EntryDate   Date
	AccountID   string
	AccountCode string
	AccountName string
	Debit       decimal.Decimal
	Credit      decimal.Decimal
	Description string
}

// Validate checks the structural constraints stores enforce on append:
// a usable entry date and non-negative amounts. Direction is expressed
// by which column an amount lands in, never by sign.
func (e LedgerEntry) Validate() error {
	if e.EntryDate.IsZero() {
		return fmt.Errorf("ledger entry requires an entry date")
	}
	if e.Debit.IsNegative() || e.Credit.IsNegative() {
		return fmt.Errorf("%w: debit=%s credit=%s", ErrNegativeAmount, e.Debit, e.Credit)
	}
	return nil
}

// =============================================================================
// BALANCE SNAPSHOT - Materialized per-period aggregate
// =============================================================================

// SnapshotSchemaVersion is stamped on every generated snapshot so the
// shape can be migrated later without guessing from field presence.
const SnapshotSchemaVersion = 1

// balanceTolerance is the money tolerance under which total debits and
// credits are considered equal.
var balanceTolerance = decimal.NewFromFloat(0.01)

// BalanceSnapshotEntry holds one account's figures within a snapshot.
//
// "Cumulative" runs from ledger inception through the period end,
// inclusive. "Period" is activity strictly within the period's range.
type BalanceSnapshotEntry struct {
	AccountID        string
	AccountCode      string
	AccountName      string
	AccountType      AccountType
	CumulativeDebit  decimal.Decimal
	CumulativeCredit decimal.Decimal
	CumulativeNet    decimal.Decimal
	PeriodDebit      decimal.Decimal
	PeriodCredit     decimal.Decimal
	PeriodNet        decimal.Decimal
}

// BalanceSnapshot is the aggregate persisted once per (tenant, year,
// period), addressed by SnapshotKey. It is replaced wholesale on
// regeneration and deleted only when its fiscal period is reopened.
type BalanceSnapshot struct {
	Year           int
	Period         int
	PeriodEndDate  Date
	FiscalPeriodID string

	// Accounts is sorted by account code. Totals are commutative so the
	// order carries no meaning, but deterministic output aids diffing.
	Accounts []BalanceSnapshotEntry

	TotalCumulativeDebit  decimal.Decimal
	TotalCumulativeCredit decimal.Decimal

	// IsBalanced is a data-quality signal, not a validity gate. An
	// unbalanced snapshot is still persisted; the imbalance is the
	// caller's cue to investigate upstream postings.
	IsBalanced bool

	GeneratedAt time.Time
	GeneratedBy string
	Version     int
}

// SnapshotKey returns the deterministic identity of a snapshot within a
// tenant: "2026-02" for year 2026, period 2. Writing to an existing key
// overwrites the previous snapshot.
func SnapshotKey(year, period int) string {
	return fmt.Sprintf("%d-%02d", year, period)
}

// balanced reports whether debit and credit agree within tolerance.
func balanced(debit, credit decimal.Decimal) bool {
	return debit.Sub(credit).Abs().LessThan(balanceTolerance)
}
