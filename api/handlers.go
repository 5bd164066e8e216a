/*
handlers.go - HTTP API handlers for the balance-snapshot engine

PURPOSE:
  Exposes the snapshot engine via REST. Handles HTTP request/response,
  JSON serialization, and delegates to the engine and stores.

ENDPOINTS (all tenant-scoped):
  Accounts:
    GET    /api/tenants/{tenant}/accounts           List chart of accounts
    POST   /api/tenants/{tenant}/accounts           Upsert account

  Ledger:
    POST   /api/tenants/{tenant}/ledger/entries     Append entry batch
    GET    /api/tenants/{tenant}/ledger/entries     Delta query (after/upTo)

  Periods:
    POST   /api/tenants/{tenant}/periods                          Register period
    POST   /api/tenants/{tenant}/periods/{year}/{period}/close    Close + snapshot
    POST   /api/tenants/{tenant}/periods/{year}/{period}/reopen   Reopen + delete snapshot

  Snapshots:
    GET    /api/tenants/{tenant}/snapshots/{key}    Fetch by deterministic key
    GET    /api/tenants/{tenant}/snapshots/latest   Locator (before=YYYY-MM-DD)

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input
  - 404: Resource not found
  - 409: Period-state conflicts (closing twice, snapshotting open period)
  - 500: Store failures

  An unbalanced snapshot is NOT an error: it returns 200 with
  is_balanced=false, and the consumer surfaces it as a warning.

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/warp/balance-engine/ledger"
	"github.com/warp/balance-engine/store/sqlite"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store     *sqlite.Store
	Generator *ledger.SnapshotGenerator
	Locator   *ledger.SnapshotLocator
}

// NewHandler creates a new handler with the given store.
func NewHandler(store *sqlite.Store) *Handler {
	return &Handler{
		Store:     store,
		Generator: ledger.NewSnapshotGenerator(store, store, store),
		Locator:   ledger.NewSnapshotLocator(store),
	}
}

// =============================================================================
// ACCOUNT HANDLERS
// =============================================================================

// ListAccounts returns the tenant's chart of accounts.
func (h *Handler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	tenant := chi.URLParam(r, "tenant")

	accounts, err := h.Store.ListAccounts(r.Context(), tenant)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list accounts", err)
		return
	}

	dtos := make([]AccountDTO, len(accounts))
	for i, a := range accounts {
		dtos[i] = AccountDTO{ID: a.ID, Code: a.Code, Name: a.Name, Type: string(a.Type)}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// SaveAccount upserts an account.
func (h *Handler) SaveAccount(w http.ResponseWriter, r *http.Request) {
	tenant := chi.URLParam(r, "tenant")

	var req AccountDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.ID == "" || req.Code == "" {
		writeError(w, http.StatusBadRequest, "Account id and code are required", nil)
		return
	}

	account := ledger.Account{ID: req.ID, Code: req.Code, Name: req.Name, Type: ledger.AccountType(req.Type)}
	if err := h.Store.SaveAccount(r.Context(), tenant, account); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save account", err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}

// =============================================================================
// LEDGER HANDLERS
// =============================================================================

// AppendEntries appends a batch of ledger entries atomically.
func (h *Handler) AppendEntries(w http.ResponseWriter, r *http.Request) {
	tenant := chi.URLParam(r, "tenant")

	var req AppendEntriesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if len(req.Entries) == 0 {
		writeError(w, http.StatusBadRequest, "At least one entry is required", nil)
		return
	}

	entries := make([]ledger.LedgerEntry, len(req.Entries))
	for i, dto := range req.Entries {
		e, err := dto.toDomain()
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid ledger entry", err)
			return
		}
		entries[i] = e
	}

	if err := h.Store.AppendEntries(r.Context(), tenant, entries); err != nil {
		writeDomainError(w, "Failed to append entries", err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]int{"appended": len(entries)})
}

// QueryEntries is the delta-query primitive over HTTP: optional
// exclusive `after`, required inclusive `upTo`.
func (h *Handler) QueryEntries(w http.ResponseWriter, r *http.Request) {
	tenant := chi.URLParam(r, "tenant")

	upToStr := r.URL.Query().Get("upTo")
	if upToStr == "" {
		writeError(w, http.StatusBadRequest, "upTo query parameter is required", nil)
		return
	}
	upTo, err := ledger.ParseDate(upToStr)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid upTo date", err)
		return
	}

	var after *ledger.Date
	if afterStr := r.URL.Query().Get("after"); afterStr != "" {
		d, err := ledger.ParseDate(afterStr)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid after date", err)
			return
		}
		after = &d
	}

	entries, err := ledger.QueryGLDelta(r.Context(), h.Store, tenant, after, upTo)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to query entries", err)
		return
	}

	dtos := make([]LedgerEntryDTO, len(entries))
	for i, e := range entries {
		dtos[i] = toEntryDTO(e)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// PERIOD HANDLERS
// =============================================================================

// SavePeriod registers a fiscal period.
func (h *Handler) SavePeriod(w http.ResponseWriter, r *http.Request) {
	tenant := chi.URLParam(r, "tenant")

	var req PeriodDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	period, err := periodFromDTO(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid fiscal period", err)
		return
	}
	if !period.Valid() {
		writeError(w, http.StatusBadRequest, "Invalid fiscal period", ledger.ErrInvalidPeriod)
		return
	}

	if err := h.Store.SavePeriod(r.Context(), tenant, period); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save period", err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}

// ClosePeriod marks the period closed and generates its snapshot.
func (h *Handler) ClosePeriod(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tenant := chi.URLParam(r, "tenant")

	year, periodNum, ok := parsePeriodParams(w, r)
	if !ok {
		return
	}

	var req ClosePeriodRequest
	if r.Body != nil {
		// Body is optional; a missing generated_by falls back below.
		_ = json.NewDecoder(r.Body).Decode(&req)
	}
	if req.GeneratedBy == "" {
		req.GeneratedBy = "api"
	}

	period, err := h.Store.GetPeriod(ctx, tenant, year, periodNum)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load period", err)
		return
	}
	if period == nil {
		// Unregistered periods default to calendar months.
		p := ledger.MonthPeriod(year, periodNum)
		period = &p
	}
	period.Closed = true

	if err := h.Store.SavePeriod(ctx, tenant, *period); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to close period", err)
		return
	}

	snap, err := h.Generator.Generate(ctx, tenant, *period, req.GeneratedBy)
	if err != nil {
		writeDomainError(w, "Failed to generate snapshot", err)
		return
	}
	writeJSON(w, http.StatusOK, toSnapshotDTO(snap))
}

// ReopenPeriod marks the period open again and deletes its snapshot.
// This is the only path that ever deletes a snapshot.
func (h *Handler) ReopenPeriod(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tenant := chi.URLParam(r, "tenant")

	year, periodNum, ok := parsePeriodParams(w, r)
	if !ok {
		return
	}

	if err := h.Store.SetPeriodClosed(ctx, tenant, year, periodNum, false); err != nil {
		writeDomainError(w, "Failed to reopen period", err)
		return
	}

	key := ledger.SnapshotKey(year, periodNum)
	if err := h.Generator.DeleteSnapshot(ctx, tenant, key); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to delete snapshot", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"reopened": key})
}

// =============================================================================
// SNAPSHOT HANDLERS
// =============================================================================

// GetSnapshot fetches a snapshot by its deterministic key.
func (h *Handler) GetSnapshot(w http.ResponseWriter, r *http.Request) {
	tenant := chi.URLParam(r, "tenant")
	key := chi.URLParam(r, "key")

	snap, err := h.Store.GetSnapshot(r.Context(), tenant, key)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load snapshot", err)
		return
	}
	if snap == nil {
		writeError(w, http.StatusNotFound, "Snapshot not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, toSnapshotDTO(snap))
}

// LocateSnapshot returns the most recent snapshot ending strictly
// before the given date.
func (h *Handler) LocateSnapshot(w http.ResponseWriter, r *http.Request) {
	tenant := chi.URLParam(r, "tenant")

	beforeStr := r.URL.Query().Get("before")
	if beforeStr == "" {
		writeError(w, http.StatusBadRequest, "before query parameter is required", nil)
		return
	}
	before, err := ledger.ParseDate(beforeStr)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid before date", err)
		return
	}

	snap, err := h.Locator.FindLatestBefore(r.Context(), tenant, before)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to locate snapshot", err)
		return
	}
	if snap == nil {
		writeError(w, http.StatusNotFound, "No snapshot found before "+beforeStr, nil)
		return
	}
	writeJSON(w, http.StatusOK, toSnapshotDTO(snap))
}

// =============================================================================
// HELPERS
// =============================================================================

func parsePeriodParams(w http.ResponseWriter, r *http.Request) (int, int, bool) {
	year, err := strconv.Atoi(chi.URLParam(r, "year"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid year", err)
		return 0, 0, false
	}
	periodNum, err := strconv.Atoi(chi.URLParam(r, "period"))
	if err != nil || periodNum < 1 || periodNum > 12 {
		writeError(w, http.StatusBadRequest, "Invalid period (1-12)", err)
		return 0, 0, false
	}
	return year, periodNum, true
}

func periodFromDTO(d PeriodDTO) (ledger.FiscalPeriod, error) {
	start, err := ledger.ParseDate(d.StartDate)
	if err != nil {
		return ledger.FiscalPeriod{}, err
	}
	end, err := ledger.ParseDate(d.EndDate)
	if err != nil {
		return ledger.FiscalPeriod{}, err
	}
	id := d.ID
	if id == "" {
		id = ledger.SnapshotKey(d.Year, d.Period)
	}
	return ledger.FiscalPeriod{
		Year:   d.Year,
		Period: d.Period,
		Start:  start,
		End:    end,
		ID:     id,
		Closed: d.Closed,
	}, nil
}

// writeDomainError maps engine errors onto HTTP statuses.
func writeDomainError(w http.ResponseWriter, message string, err error) {
	switch {
	case errors.Is(err, ledger.ErrPeriodNotFound):
		writeError(w, http.StatusNotFound, message, err)
	case errors.Is(err, ledger.ErrPeriodNotClosed):
		writeError(w, http.StatusConflict, message, err)
	case ledger.IsClientError(err):
		writeError(w, http.StatusBadRequest, message, err)
	default:
		writeError(w, http.StatusInternalServerError, message, err)
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
