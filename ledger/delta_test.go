package ledger_test

import (
	"context"
	"testing"

	"github.com/warp/balance-engine/ledger"
	"github.com/warp/balance-engine/ledger/store"
)

func TestQueryGLDelta_ExclusiveLowerInclusiveUpper(t *testing.T) {
	// GIVEN: Entries on the 10th, 11th, and 12th
	// WHEN: Querying with after=10th, upTo=12th
	// THEN: The 10th is excluded, the 11th and 12th included

	ctx := context.Background()
	mem := store.NewMemory()
	appendEntries(t, mem,
		entry("2026-01-10", "a-cash", "1000", "Cash", 10, 0),
		entry("2026-01-11", "a-cash", "1000", "Cash", 11, 0),
		entry("2026-01-12", "a-cash", "1000", "Cash", 12, 0),
	)

	after := date("2026-01-10")
	got, err := ledger.QueryGLDelta(ctx, mem, testTenant, &after, date("2026-01-12"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(got))
	}
	if !got[0].EntryDate.Equal(date("2026-01-11")) || !got[1].EntryDate.Equal(date("2026-01-12")) {
		t.Errorf("wrong window: %s, %s", got[0].EntryDate, got[1].EntryDate)
	}
}

func TestQueryGLDelta_NilAfterMeansInception(t *testing.T) {
	// GIVEN: History spread across two months
	// WHEN: Querying with a nil lower bound
	// THEN: Everything up to and including upTo is returned, in
	//       ascending date order

	ctx := context.Background()
	mem := store.NewMemory()
	appendEntries(t, mem,
		entry("2025-12-20", "a-cash", "1000", "Cash", 1, 0),
		entry("2026-01-05", "a-cash", "1000", "Cash", 2, 0),
		entry("2026-01-31", "a-cash", "1000", "Cash", 3, 0),
		entry("2026-02-01", "a-cash", "1000", "Cash", 4, 0),
	)

	got, err := ledger.QueryGLDelta(ctx, mem, testTenant, nil, date("2026-01-31"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(got))
	}
	for i := 1; i < len(got); i++ {
		if got[i].EntryDate.Before(got[i-1].EntryDate) {
			t.Errorf("entries out of order at %d", i)
		}
	}
}

func TestQueryGLDelta_EmptyWindow(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	appendEntries(t, mem,
		entry("2026-01-10", "a-cash", "1000", "Cash", 10, 0),
	)

	after := date("2026-01-10")
	got, err := ledger.QueryGLDelta(ctx, mem, testTenant, &after, date("2026-01-31"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected empty window, got %d entries", len(got))
	}
}

func TestQueryGLDelta_TenantScoped(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	appendEntries(t, mem,
		entry("2026-01-10", "a-cash", "1000", "Cash", 10, 0),
	)

	got, err := ledger.QueryGLDelta(ctx, mem, "tenant-b", nil, date("2026-12-31"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("cross-tenant leak: %d entries", len(got))
	}
}
