package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/balance-engine/store/sqlite"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	srv := httptest.NewServer(NewRouter(NewHandler(store)))
	t.Cleanup(srv.Close)
	return srv
}

func doJSON(t *testing.T, method, url string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, url, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func decode(t *testing.T, resp *http.Response, into any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(into))
}

func seedTenant(t *testing.T, base, tenant string) {
	t.Helper()
	for _, a := range []AccountDTO{
		{ID: "a-cash", Code: "1000", Name: "Cash", Type: "asset"},
		{ID: "a-rev", Code: "4000", Name: "Revenue", Type: "revenue"},
	} {
		resp := doJSON(t, http.MethodPost, base+"/api/tenants/"+tenant+"/accounts", a)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		resp.Body.Close()
	}

	resp := doJSON(t, http.MethodPost, base+"/api/tenants/"+tenant+"/ledger/entries", AppendEntriesRequest{
		Entries: []LedgerEntryDTO{
			{EntryDate: "2026-01-10", AccountID: "a-cash", AccountCode: "1000", AccountName: "Cash", Debit: "1000"},
			{EntryDate: "2026-01-10", AccountID: "a-rev", AccountCode: "4000", AccountName: "Revenue", Credit: "1000"},
		},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()
}

// =============================================================================
// CLOSE / REOPEN WORKFLOW
// =============================================================================

func TestClosePeriod_GeneratesSnapshot(t *testing.T) {
	srv := newTestServer(t)
	seedTenant(t, srv.URL, "acme")

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/tenants/acme/periods/2026/1/close",
		ClosePeriodRequest{GeneratedBy: "jane"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var snap SnapshotDTO
	decode(t, resp, &snap)
	assert.Equal(t, "2026-01", snap.Key)
	assert.Equal(t, "2026-01-31", snap.PeriodEndDate)
	assert.Equal(t, "1000", snap.TotalCumulativeDebit)
	assert.Equal(t, "1000", snap.TotalCumulativeCredit)
	assert.True(t, snap.IsBalanced)
	assert.Equal(t, "jane", snap.GeneratedBy)
	require.Len(t, snap.Accounts, 2)
	assert.Equal(t, "1000", snap.Accounts[0].AccountCode) // sorted by code
	assert.Equal(t, "asset", snap.Accounts[0].AccountType)

	// The snapshot is now fetchable by its key.
	get, err := http.Get(srv.URL + "/api/tenants/acme/snapshots/2026-01")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, get.StatusCode)
	get.Body.Close()
}

func TestReopenPeriod_DeletesSnapshot(t *testing.T) {
	srv := newTestServer(t)
	seedTenant(t, srv.URL, "acme")

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/tenants/acme/periods/2026/1/close", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, http.MethodPost, srv.URL+"/api/tenants/acme/periods/2026/1/reopen", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var body map[string]string
	decode(t, resp, &body)
	assert.Equal(t, "2026-01", body["reopened"])

	get, err := http.Get(srv.URL + "/api/tenants/acme/snapshots/2026-01")
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, get.StatusCode)
	get.Body.Close()
}

func TestReopenPeriod_NeverClosed(t *testing.T) {
	srv := newTestServer(t)

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/tenants/acme/periods/2026/1/reopen", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

func TestClosePeriod_InvalidPeriodNumber(t *testing.T) {
	srv := newTestServer(t)

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/tenants/acme/periods/2026/13/close", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}

func TestClosePeriod_RegisteredCustomPeriod(t *testing.T) {
	// A 4-4-5 style period registered explicitly is honored at close
	// instead of the calendar-month default.
	srv := newTestServer(t)
	seedTenant(t, srv.URL, "acme")

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/tenants/acme/periods", PeriodDTO{
		Year: 2026, Period: 1, StartDate: "2025-12-29", EndDate: "2026-01-25",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, http.MethodPost, srv.URL+"/api/tenants/acme/periods/2026/1/close", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var snap SnapshotDTO
	decode(t, resp, &snap)
	assert.Equal(t, "2026-01-25", snap.PeriodEndDate)
}

// =============================================================================
// SNAPSHOT READS
// =============================================================================

func TestGetSnapshot_NotFound(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/tenants/acme/snapshots/2026-01")
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

func TestLocateSnapshot(t *testing.T) {
	srv := newTestServer(t)
	seedTenant(t, srv.URL, "acme")

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/tenants/acme/periods/2026/1/close", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	get, err := http.Get(srv.URL + "/api/tenants/acme/snapshots/latest?before=2026-03-15")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, get.StatusCode)
	var snap SnapshotDTO
	decode(t, get, &snap)
	assert.Equal(t, "2026-01", snap.Key)

	// Missing the before parameter is a client error.
	get, err = http.Get(srv.URL + "/api/tenants/acme/snapshots/latest")
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, get.StatusCode)
	get.Body.Close()

	// No snapshot strictly before the earliest period end.
	get, err = http.Get(srv.URL + "/api/tenants/acme/snapshots/latest?before=2026-01-31")
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, get.StatusCode)
	get.Body.Close()
}

// =============================================================================
// LEDGER ENDPOINTS
// =============================================================================

func TestAppendEntries_Validation(t *testing.T) {
	srv := newTestServer(t)

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/tenants/acme/ledger/entries", AppendEntriesRequest{})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, http.MethodPost, srv.URL+"/api/tenants/acme/ledger/entries", AppendEntriesRequest{
		Entries: []LedgerEntryDTO{
			{EntryDate: "not-a-date", AccountID: "a-cash", AccountCode: "1000", Debit: "10"},
		},
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, http.MethodPost, srv.URL+"/api/tenants/acme/ledger/entries", AppendEntriesRequest{
		Entries: []LedgerEntryDTO{
			{EntryDate: "2026-01-10", AccountID: "a-cash", AccountCode: "1000", Debit: "-10"},
		},
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}

func TestQueryEntries_BoundarySemantics(t *testing.T) {
	srv := newTestServer(t)
	seedTenant(t, srv.URL, "acme")

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/tenants/acme/ledger/entries", AppendEntriesRequest{
		Entries: []LedgerEntryDTO{
			{EntryDate: "2026-02-05", AccountID: "a-cash", AccountCode: "1000", Debit: "200"},
		},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	// after=2026-01-10 excludes the January 10 postings exactly.
	url := fmt.Sprintf("%s/api/tenants/acme/ledger/entries?after=%s&upTo=%s",
		srv.URL, "2026-01-10", "2026-02-28")
	get, err := http.Get(url)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, get.StatusCode)
	var entries []LedgerEntryDTO
	decode(t, get, &entries)
	require.Len(t, entries, 1)
	assert.Equal(t, "2026-02-05", entries[0].EntryDate)

	// upTo is mandatory.
	get, err = http.Get(srv.URL + "/api/tenants/acme/ledger/entries")
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, get.StatusCode)
	get.Body.Close()
}

// =============================================================================
// TENANCY
// =============================================================================

func TestTenantsAreIsolated(t *testing.T) {
	srv := newTestServer(t)
	seedTenant(t, srv.URL, "acme")

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/tenants/acme/periods/2026/1/close", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	// Another tenant sees neither the accounts nor the snapshot.
	get, err := http.Get(srv.URL + "/api/tenants/globex/accounts")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, get.StatusCode)
	var accounts []AccountDTO
	decode(t, get, &accounts)
	assert.Empty(t, accounts)

	get, err = http.Get(srv.URL + "/api/tenants/globex/snapshots/2026-01")
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, get.StatusCode)
	get.Body.Close()
}
