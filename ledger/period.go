package ledger

import "time"

// =============================================================================
// FISCAL PERIOD - The unit of snapshot granularity
// =============================================================================

// FiscalPeriod is a closed accounting month. Periods are owned by the
// surrounding application's period registry; the engine consumes them
// and requires a period to be closed before snapshotting it.
type FiscalPeriod struct {
	Year   int
	Period int // 1-12
	Start  Date
	End    Date
	ID     string
	Closed bool
}

// MonthPeriod builds a calendar-month fiscal period. The surrounding
// application may register arbitrary boundaries; this helper covers the
// common case and is what the HTTP close workflow falls back to when a
// period was never explicitly registered.
func MonthPeriod(year, period int) FiscalPeriod {
	month := time.Month(period)
	return FiscalPeriod{
		Year:   year,
		Period: period,
		Start:  StartOfMonth(year, month),
		End:    EndOfMonth(year, month),
		ID:     SnapshotKey(year, period),
	}
}

// Valid reports whether the period's shape is usable: a sequence number
// in 1-12 and an end date that does not precede the start date.
func (p FiscalPeriod) Valid() bool {
	if p.Period < 1 || p.Period > 12 {
		return false
	}
	if p.Start.IsZero() || p.End.IsZero() {
		return false
	}
	return !p.End.Before(p.Start)
}

// Contains returns true if the date falls within [Start, End].
func (p FiscalPeriod) Contains(d Date) bool {
	return d.AfterOrEqual(p.Start) && d.BeforeOrEqual(p.End)
}

// =============================================================================
// PERIOD ARITHMETIC
// =============================================================================

// DecrementPeriod steps one period back, rolling the year at period 1.
// Both the generator's single-step prior-snapshot lookup and the
// locator's bounded backward walk use this; the rollover logic lives
// here and nowhere else.
func DecrementPeriod(year, period int) (int, int) {
	if period <= 1 {
		return year - 1, 12
	}
	return year, period - 1
}
