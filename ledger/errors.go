/*
errors.go - Centralized error types for the snapshot engine

PURPOSE:
  All engine error values in one place. Store implementations and the
  API layer wrap these with additional context.

ERROR CATEGORIES:
  1. Input errors - Malformed periods, dates, entries
  2. State errors - Period open/closed conflicts
  3. Collaborator failures - Propagated unmodified, wrapped with %w

NOT ERRORS:
  - A missing prior snapshot silently selects the cold-start path
  - A missing account enriches with an empty type and proceeds
  - An unbalanced snapshot is persisted and returned as-is; the
    IsBalanced flag is the signal
*/
package ledger

import "errors"

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInvalidPeriod is returned when a fiscal period is malformed:
	// sequence outside 1-12, missing boundaries, or end before start.
	ErrInvalidPeriod = errors.New("invalid fiscal period")

	// ErrPeriodNotClosed is returned when snapshot generation is
	// requested for a period still open for ledger writes. A snapshot
	// of an open period would only be valid "as of read time".
	ErrPeriodNotClosed = errors.New("fiscal period is not closed")

	// ErrPeriodNotFound is returned by workflows that need a registered
	// period record and cannot find one.
	ErrPeriodNotFound = errors.New("fiscal period not found")

	// ErrNegativeAmount is returned when a ledger entry carries a
	// negative debit or credit. Signs are expressed by which column an
	// amount lands in, never by negative values.
	ErrNegativeAmount = errors.New("ledger entry amounts must be non-negative")
)

// IsClientError returns true if the error is due to invalid caller input
// rather than a collaborator failure.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidPeriod) ||
		errors.Is(err, ErrPeriodNotClosed) ||
		errors.Is(err, ErrNegativeAmount)
}
