/*
generator.go - Snapshot generation (incremental and cold-start paths)

PURPOSE:
  Produces a BalanceSnapshot for a closed fiscal period. The generator
  probes exactly one prior snapshot; if found, only the current
  period's entries are read (incremental path), so generation cost is
  bounded by one period's activity no matter how much history exists.
  With no prior snapshot it falls back to a full ledger scan
  (cold-start path).

CORRECTNESS CONTRACT:
  For adjacent periods P and P+1 over an unchanged ledger:
    snapshot(P+1).cumulativeDebit ==
      snapshot(P).cumulativeDebit + sum(debits dated within P+1)
  and symmetrically for credit. The two paths must agree: regenerating
  any snapshot cold must reproduce what the incremental path built.

NON-TRANSACTIONAL BY DESIGN:
  Prior-snapshot read, ledger read, and snapshot write are three
  separate operations. A crash before the write leaves the old state in
  place and the call is safe to retry: the key is deterministic and the
  write is a full overwrite, never a merge.

KNOWN GAP (deliberate):
  Only the immediate predecessor period is probed. If that snapshot is
  missing but an older one survives, the generator still takes the full
  cold-start scan rather than walking further back. Correct but
  pessimistic; kept until a behavioral change is explicitly requested.

SEE ALSO:
  - locator.go: Bounded backward walk used by report generation
  - delta.go: The range-query primitive both paths are built on
*/
package ledger

import (
	"context"
	"fmt"
	"sort"
	"time"
)

// =============================================================================
// SNAPSHOT GENERATOR
// =============================================================================

// SnapshotGenerator materializes period-end balance snapshots.
type SnapshotGenerator struct {
	Ledger    LedgerStore
	Accounts  AccountStore
	Snapshots SnapshotStore

	// Clock is used for the GeneratedAt stamp. Nil means time.Now.
	Clock func() time.Time
}

// NewSnapshotGenerator wires a generator over the given stores.
func NewSnapshotGenerator(l LedgerStore, a AccountStore, s SnapshotStore) *SnapshotGenerator {
	return &SnapshotGenerator{Ledger: l, Accounts: a, Snapshots: s}
}

// Generate produces, persists, and returns the snapshot for a closed
// fiscal period. The write happens once, after all aggregation is
// complete; collaborator failures propagate unmodified.
func (g *SnapshotGenerator) Generate(ctx context.Context, tenant string, period FiscalPeriod, generatedBy string) (*BalanceSnapshot, error) {
	if !period.Valid() {
		return nil, fmt.Errorf("%w: year=%d period=%d", ErrInvalidPeriod, period.Year, period.Period)
	}
	if !period.Closed {
		return nil, fmt.Errorf("%w: %s", ErrPeriodNotClosed, SnapshotKey(period.Year, period.Period))
	}

	accounts, err := g.Accounts.ListAccounts(ctx, tenant)
	if err != nil {
		return nil, fmt.Errorf("load account directory: %w", err)
	}
	dir := NewAccountDirectory(accounts)

	// Single deterministic probe at period-1. No deeper walk; a missing
	// predecessor silently selects the cold-start path.
	prevYear, prevPeriod := DecrementPeriod(period.Year, period.Period)
	prior, err := g.Snapshots.GetSnapshot(ctx, tenant, SnapshotKey(prevYear, prevPeriod))
	if err != nil {
		return nil, fmt.Errorf("probe prior snapshot: %w", err)
	}

	var acc *accumulator
	if prior != nil {
		acc, err = g.incremental(ctx, tenant, prior, period)
	} else {
		acc, err = g.coldStart(ctx, tenant, period)
	}
	if err != nil {
		return nil, err
	}

	snap := acc.build(period, dir)
	snap.GeneratedAt = g.now()
	snap.GeneratedBy = generatedBy
	snap.Version = SnapshotSchemaVersion

	if err := g.Snapshots.SaveSnapshot(ctx, tenant, snap); err != nil {
		return nil, fmt.Errorf("persist snapshot %s: %w", SnapshotKey(period.Year, period.Period), err)
	}
	return &snap, nil
}

// DeleteSnapshot removes a snapshot. Invoked by the period-reopening
// workflow only; snapshots are otherwise durable and immutable.
func (g *SnapshotGenerator) DeleteSnapshot(ctx context.Context, tenant, key string) error {
	return g.Snapshots.DeleteSnapshot(ctx, tenant, key)
}

// incremental builds on the prior period's snapshot plus only this
// period's delta. Every prior account is carried forward; accounts with
// no activity keep their cumulative figures and report zero period
// figures. Accounts first active this period seed cumulative equal to
// the period delta.
func (g *SnapshotGenerator) incremental(ctx context.Context, tenant string, prior *BalanceSnapshot, period FiscalPeriod) (*accumulator, error) {
	// Exclusive lower bound: the day before the period starts, so the
	// query covers exactly [period.Start, period.End].
	after := period.Start.AddDays(-1)
	delta, err := QueryGLDelta(ctx, g.Ledger, tenant, &after, period.End)
	if err != nil {
		return nil, fmt.Errorf("query period delta: %w", err)
	}

	acc := newAccumulator()
	for _, pe := range prior.Accounts {
		acc.carry(pe)
	}
	for _, e := range delta {
		acc.apply(e, true)
	}
	return acc, nil
}

// coldStart scans the full ledger through period end. Every entry adds
// to cumulative figures; entries dated inside the period additionally
// add to period figures. O(total history), acceptable because this path
// is rare (first snapshot ever, or a broken chain).
func (g *SnapshotGenerator) coldStart(ctx context.Context, tenant string, period FiscalPeriod) (*accumulator, error) {
	entries, err := QueryGLDelta(ctx, g.Ledger, tenant, nil, period.End)
	if err != nil {
		return nil, fmt.Errorf("scan ledger history: %w", err)
	}

	acc := newAccumulator()
	for _, e := range entries {
		acc.apply(e, period.Contains(e.EntryDate))
	}
	return acc, nil
}

func (g *SnapshotGenerator) now() time.Time {
	if g.Clock != nil {
		return g.Clock()
	}
	return time.Now().UTC()
}

// =============================================================================
// ACCUMULATOR - Per-account rollup state
// =============================================================================

// accumulator collects per-account figures during one generation. Keyed
// by account id (falling back to code for id-less historical entries);
// output ordering is by account code, fixed at build time, so map
// iteration order never leaks into results.
type accumulator struct {
	order   []string
	entries map[string]*BalanceSnapshotEntry
}

func newAccumulator() *accumulator {
	return &accumulator{entries: make(map[string]*BalanceSnapshotEntry)}
}

func accountKey(id, code string) string {
	if id != "" {
		return id
	}
	return code
}

func (a *accumulator) get(id, code, name string) *BalanceSnapshotEntry {
	k := accountKey(id, code)
	if e, ok := a.entries[k]; ok {
		return e
	}
	e := &BalanceSnapshotEntry{AccountID: id, AccountCode: code, AccountName: name}
	a.entries[k] = e
	a.order = append(a.order, k)
	return e
}

// carry seeds an account from the prior snapshot: cumulative figures
// carry over, period figures start at zero.
func (a *accumulator) carry(prior BalanceSnapshotEntry) {
	e := a.get(prior.AccountID, prior.AccountCode, prior.AccountName)
	e.CumulativeDebit = prior.CumulativeDebit
	e.CumulativeCredit = prior.CumulativeCredit
}

// apply folds one ledger entry in. Cumulative figures always move;
// period figures move only when the entry is dated inside the period.
func (a *accumulator) apply(entry LedgerEntry, inPeriod bool) {
	e := a.get(entry.AccountID, entry.AccountCode, entry.AccountName)
	e.CumulativeDebit = e.CumulativeDebit.Add(entry.Debit)
	e.CumulativeCredit = e.CumulativeCredit.Add(entry.Credit)
	if inPeriod {
		e.PeriodDebit = e.PeriodDebit.Add(entry.Debit)
		e.PeriodCredit = e.PeriodCredit.Add(entry.Credit)
	}
}

// build finalizes the snapshot: account-type enrichment, net figures,
// code-ordered output, totals, and the balance signal.
func (a *accumulator) build(period FiscalPeriod, dir *AccountDirectory) BalanceSnapshot {
	snap := BalanceSnapshot{
		Year:           period.Year,
		Period:         period.Period,
		PeriodEndDate:  period.End,
		FiscalPeriodID: period.ID,
		Accounts:       make([]BalanceSnapshotEntry, 0, len(a.order)),
	}

	for _, k := range a.order {
		e := *a.entries[k]
		if acct, ok := dir.Resolve(e.AccountID, e.AccountCode); ok {
			e.AccountType = acct.Type
		} else {
			// Unresolved accounts still count toward totals; they just
			// carry no categorization.
			e.AccountType = ""
		}
		e.CumulativeNet = e.CumulativeDebit.Sub(e.CumulativeCredit)
		e.PeriodNet = e.PeriodDebit.Sub(e.PeriodCredit)
		snap.Accounts = append(snap.Accounts, e)

		snap.TotalCumulativeDebit = snap.TotalCumulativeDebit.Add(e.CumulativeDebit)
		snap.TotalCumulativeCredit = snap.TotalCumulativeCredit.Add(e.CumulativeCredit)
	}

	sort.Slice(snap.Accounts, func(i, j int) bool {
		if snap.Accounts[i].AccountCode != snap.Accounts[j].AccountCode {
			return snap.Accounts[i].AccountCode < snap.Accounts[j].AccountCode
		}
		return snap.Accounts[i].AccountID < snap.Accounts[j].AccountID
	})

	snap.IsBalanced = balanced(snap.TotalCumulativeDebit, snap.TotalCumulativeCredit)
	return snap
}
