package ledger_test

import (
	"context"
	"testing"

	"github.com/warp/balance-engine/ledger"
	"github.com/warp/balance-engine/ledger/store"
)

func seedSnapshot(t *testing.T, mem *store.Memory, tenant string, year, period int, end string) {
	t.Helper()
	snap := ledger.BalanceSnapshot{
		Year:          year,
		Period:        period,
		PeriodEndDate: date(end),
		Version:       ledger.SnapshotSchemaVersion,
	}
	if err := mem.SaveSnapshot(context.Background(), tenant, snap); err != nil {
		t.Fatalf("seed snapshot %d-%02d: %v", year, period, err)
	}
}

func TestFindLatestBefore_PicksMostRecentPrior(t *testing.T) {
	// GIVEN: January and February snapshots
	// WHEN: Locating the latest snapshot before March 15
	// THEN: February wins

	mem := store.NewMemory()
	loc := ledger.NewSnapshotLocator(mem)
	seedSnapshot(t, mem, testTenant, 2026, 1, "2026-01-31")
	seedSnapshot(t, mem, testTenant, 2026, 2, "2026-02-28")

	snap, err := loc.FindLatestBefore(context.Background(), testTenant, date("2026-03-15"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if snap == nil {
		t.Fatal("expected a snapshot")
	}
	if snap.Period != 2 {
		t.Errorf("expected February, got %d-%02d", snap.Year, snap.Period)
	}
	if !snap.PeriodEndDate.Equal(date("2026-02-28")) {
		t.Errorf("period end: got %s", snap.PeriodEndDate)
	}
}

func TestFindLatestBefore_WalksPastMissingMonths(t *testing.T) {
	// GIVEN: Only a January snapshot, nothing for February onwards
	// WHEN: Locating before June 15
	// THEN: The walk skips the empty months and lands on January

	mem := store.NewMemory()
	loc := ledger.NewSnapshotLocator(mem)
	seedSnapshot(t, mem, testTenant, 2026, 1, "2026-01-31")

	snap, err := loc.FindLatestBefore(context.Background(), testTenant, date("2026-06-15"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if snap == nil || snap.Period != 1 {
		t.Fatalf("expected January snapshot, got %+v", snap)
	}
}

func TestFindLatestBefore_CrossesYearBoundary(t *testing.T) {
	// GIVEN: A December 2025 snapshot
	// WHEN: Locating before mid-January 2026
	// THEN: The walk rolls into the prior year and finds it

	mem := store.NewMemory()
	loc := ledger.NewSnapshotLocator(mem)
	seedSnapshot(t, mem, testTenant, 2025, 12, "2025-12-31")

	snap, err := loc.FindLatestBefore(context.Background(), testTenant, date("2026-01-15"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if snap == nil || snap.Year != 2025 || snap.Period != 12 {
		t.Fatalf("expected 2025-12 snapshot, got %+v", snap)
	}
}

func TestFindLatestBefore_StrictlyBefore(t *testing.T) {
	// GIVEN: A February period with a late custom end date (March 5)
	// WHEN: Locating before March 1
	// THEN: That snapshot is skipped (its end is not strictly earlier)
	//       and the walk continues to January

	mem := store.NewMemory()
	loc := ledger.NewSnapshotLocator(mem)
	seedSnapshot(t, mem, testTenant, 2026, 1, "2026-01-31")
	seedSnapshot(t, mem, testTenant, 2026, 2, "2026-03-05")

	snap, err := loc.FindLatestBefore(context.Background(), testTenant, date("2026-03-01"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if snap == nil || snap.Period != 1 {
		t.Fatalf("expected January snapshot, got %+v", snap)
	}
}

func TestFindLatestBefore_NothingFound(t *testing.T) {
	// GIVEN: An empty snapshot store
	// WHEN: Locating before any date
	// THEN: nil snapshot, nil error

	mem := store.NewMemory()
	loc := ledger.NewSnapshotLocator(mem)

	snap, err := loc.FindLatestBefore(context.Background(), testTenant, date("2026-03-15"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if snap != nil {
		t.Fatalf("expected nil, got %+v", snap)
	}
}

func TestFindLatestBefore_LookbackBound(t *testing.T) {
	// GIVEN: The walk starts at February 2026 and probes 36 months,
	//        reaching back to March 2023
	// WHEN: The only snapshot sits exactly on the last probed month,
	//       then exactly one month past it
	// THEN: The in-bound snapshot is found, the out-of-bound one is not

	before := date("2026-03-15")

	within := store.NewMemory()
	seedSnapshot(t, within, testTenant, 2023, 3, "2023-03-31")
	snap, err := ledger.NewSnapshotLocator(within).FindLatestBefore(context.Background(), testTenant, before)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if snap == nil || snap.Year != 2023 || snap.Period != 3 {
		t.Fatalf("expected 2023-03 within lookback, got %+v", snap)
	}

	beyond := store.NewMemory()
	seedSnapshot(t, beyond, testTenant, 2023, 2, "2023-02-28")
	snap, err = ledger.NewSnapshotLocator(beyond).FindLatestBefore(context.Background(), testTenant, before)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if snap != nil {
		t.Fatalf("2023-02 is outside the lookback window, got %+v", snap)
	}
}

func TestFindLatestBefore_TenantScoped(t *testing.T) {
	// GIVEN: A snapshot under one tenant
	// WHEN: Locating under another tenant
	// THEN: Nothing is found

	mem := store.NewMemory()
	loc := ledger.NewSnapshotLocator(mem)
	seedSnapshot(t, mem, testTenant, 2026, 2, "2026-02-28")

	snap, err := loc.FindLatestBefore(context.Background(), "tenant-b", date("2026-03-15"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if snap != nil {
		t.Fatalf("cross-tenant leak: %+v", snap)
	}
}
