package ledger

import "context"

// =============================================================================
// DELTA QUERY - The range-read primitive snapshots are combined with
// =============================================================================

// QueryGLDelta returns ledger entries ascending by entry date.
//
// With a nil after, it returns everything up to and including upTo (the
// cold-start read). With after set, it returns entries strictly after
// `after`, up to and including upTo (the incremental read, and the read
// report generation performs after obtaining a snapshot from the
// locator: pass the snapshot's PeriodEndDate as after).
//
// The boundary semantics (exclusive lower, inclusive upper) are exact
// by contract; getting them wrong double-counts or drops a day's
// entries at the seam between snapshot and delta.
func QueryGLDelta(ctx context.Context, store LedgerStore, tenant string, after *Date, upTo Date) ([]LedgerEntry, error) {
	return store.EntriesThrough(ctx, tenant, after, upTo)
}
