/*
locator.go - Backward snapshot lookup by deterministic-key probing

PURPOSE:
  Given an arbitrary as-of date, find the most recent snapshot whose
  coverage ends strictly before it. The locator never scans the
  snapshot store: it derives candidate (year, period) keys month by
  month and issues bounded O(1) point lookups. This avoids a secondary
  index over snapshot end dates at the cost of at most
  MaxLookbackMonths probes.

SEE ALSO:
  - period.go: DecrementPeriod, shared with the generator's lookback
  - delta.go: Report generation combines the located snapshot with the
    delta since its PeriodEndDate
*/
package ledger

import (
	"context"
	"fmt"
)

// MaxLookbackMonths bounds the locator's backward walk. Snapshots are
// monthly, so 36 probes cover a three-year reporting window; a caller
// needing older data must regenerate snapshots or raise the bound.
const MaxLookbackMonths = 36

// SnapshotLocator finds snapshots by walking deterministic keys
// backward in time.
type SnapshotLocator struct {
	Snapshots SnapshotStore
}

func NewSnapshotLocator(s SnapshotStore) *SnapshotLocator {
	return &SnapshotLocator{Snapshots: s}
}

// FindLatestBefore returns the most recent snapshot with
// PeriodEndDate < before, or nil if none exists within the lookback
// bound. It never returns a snapshot covering the given date or later.
func (l *SnapshotLocator) FindLatestBefore(ctx context.Context, tenant string, before Date) (*BalanceSnapshot, error) {
	// Start at the month immediately preceding the month containing
	// `before`; the containing month's snapshot ends on or after most
	// `before` dates and is excluded by the strict end-date check.
	year, period := DecrementPeriod(before.Year(), int(before.Month()))

	for i := 0; i < MaxLookbackMonths; i++ {
		snap, err := l.Snapshots.GetSnapshot(ctx, tenant, SnapshotKey(year, period))
		if err != nil {
			return nil, fmt.Errorf("probe snapshot %s: %w", SnapshotKey(year, period), err)
		}
		if snap != nil && snap.PeriodEndDate.Before(before) {
			return snap, nil
		}
		year, period = DecrementPeriod(year, period)
	}
	return nil, nil
}
