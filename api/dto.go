/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types
  decouple the internal domain model from the external API contract.
  Money amounts travel as decimal strings, never JSON floats.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

VALIDATION:
  Validation is done in handlers, not in DTOs. DTOs are pure data
  carriers.

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/balance-engine/ledger"
)

// =============================================================================
// ACCOUNTS
// =============================================================================

// AccountDTO represents a chart-of-accounts record.
type AccountDTO struct {
	ID   string `json:"id"`
	Code string `json:"code"`
	Name string `json:"name"`
	Type string `json:"type"`
}

// =============================================================================
// LEDGER ENTRIES
// =============================================================================

// LedgerEntryDTO represents one posted ledger line.
type LedgerEntryDTO struct {
	EntryDate   string `json:"entry_date"`
	AccountID   string `json:"account_id"`
	AccountCode string `json:"account_code"`
	AccountName string `json:"account_name"`
	Debit       string `json:"debit"`
	Credit      string `json:"credit"`
	Description string `json:"description,omitempty"`
}

// AppendEntriesRequest is an atomic batch of entries to append.
type AppendEntriesRequest struct {
	Entries []LedgerEntryDTO `json:"entries"`
}

// =============================================================================
// FISCAL PERIODS
// =============================================================================

// PeriodDTO represents a fiscal period registration.
type PeriodDTO struct {
	Year      int    `json:"year"`
	Period    int    `json:"period"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	ID        string `json:"id,omitempty"`
	Closed    bool   `json:"closed"`
}

// ClosePeriodRequest carries the audit identity for snapshot
// generation at period close.
type ClosePeriodRequest struct {
	GeneratedBy string `json:"generated_by"`
}

// =============================================================================
// SNAPSHOTS
// =============================================================================

// SnapshotEntryDTO is one account's figures within a snapshot.
type SnapshotEntryDTO struct {
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

// SnapshotDTO is a full balance snapshot.
type SnapshotDTO struct {
	Key                   string             `json:"key"`
	Year                  int                `json:"year"`
	Period                int                `json:"period"`
	PeriodEndDate         string             `json:"period_end_date"`
	FiscalPeriodID        string             `json:"fiscal_period_id,omitempty"`
	Accounts              []SnapshotEntryDTO `json:"accounts"`
	TotalCumulativeDebit  string             `json:"total_cumulative_debit"`
	TotalCumulativeCredit string             `json:"total_cumulative_credit"`
	IsBalanced            bool               `json:"is_balanced"`
	GeneratedAt           string             `json:"generated_at"`
	GeneratedBy           string             `json:"generated_by,omitempty"`
	Version               int                `json:"version"`
}

// ErrorResponse is the JSON error envelope.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// =============================================================================
// CONVERSIONS
// =============================================================================

func toSnapshotDTO(s *ledger.BalanceSnapshot) SnapshotDTO {
	dto := SnapshotDTO{
		Key:                   ledger.SnapshotKey(s.Year, s.Period),
		Year:                  s.Year,
		Period:                s.Period,
		PeriodEndDate:         s.PeriodEndDate.String(),
		FiscalPeriodID:        s.FiscalPeriodID,
		Accounts:              make([]SnapshotEntryDTO, len(s.Accounts)),
		TotalCumulativeDebit:  s.TotalCumulativeDebit.String(),
		TotalCumulativeCredit: s.TotalCumulativeCredit.String(),
		IsBalanced:            s.IsBalanced,
		GeneratedAt:           s.GeneratedAt.UTC().Format(time.RFC3339),
		GeneratedBy:           s.GeneratedBy,
		Version:               s.Version,
	}
	for i, e := range s.Accounts {
		dto.Accounts[i] = SnapshotEntryDTO{
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
	return dto
}

func toEntryDTO(e ledger.LedgerEntry) LedgerEntryDTO {
	return LedgerEntryDTO{
		EntryDate:   e.EntryDate.String(),
		AccountID:   e.AccountID,
		AccountCode: e.AccountCode,
		AccountName: e.AccountName,
		Debit:       e.Debit.String(),
		Credit:      e.Credit.String(),
		Description: e.Description,
	}
}

func (d LedgerEntryDTO) toDomain() (ledger.LedgerEntry, error) {
	date, err := ledger.ParseDate(d.EntryDate)
	if err != nil {
		return ledger.LedgerEntry{}, err
	}
	debit, err := parseAmount(d.Debit)
	if err != nil {
		return ledger.LedgerEntry{}, err
	}
	credit, err := parseAmount(d.Credit)
	if err != nil {
		return ledger.LedgerEntry{}, err
	}
	return ledger.LedgerEntry{
		EntryDate:   date,
		AccountID:   d.AccountID,
		AccountCode: d.AccountCode,
		AccountName: d.AccountName,
		Debit:       debit,
		Credit:      credit,
		Description: d.Description,
	}, nil
}

// parseAmount treats an omitted amount as zero so callers can send only
// the side of the entry that carries a value.
func parseAmount(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(s)
}
