package models

import (
	"fmt"
	"time"
)

// Accounting periods are "YYYY-MM" strings; they are the authoritative P&L
// month of a row, distinct from the calendar expense date.

const periodLayout = "2006-01"

func FormatPeriod(year int, month time.Month) string {
	return fmt.Sprintf("%04d-%02d", year, int(month))
}

func PeriodOf(t time.Time) string {
	return FormatPeriod(t.Year(), t.Month())
}

func ParsePeriod(period string) (int, time.Month, error) {
	t, err := time.Parse(periodLayout, period)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid accounting period %q: %w", period, err)
	}
	return t.Year(), t.Month(), nil
}

// FirstOfMonth truncates t to midnight UTC on the first of its month.
func FirstOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// periodIndex maps an accounting period into the 24-slot reporting window
// [baseYear-1 .. baseYear]: index 0-11 is the prior year, 12-23 the base
// year. Returns false for periods outside the window or unparseable ones.
func periodIndex(period string, baseYear int) (int, bool) {
	year, month, err := ParsePeriod(period)
	if err != nil {
		return 0, false
	}
	return YearMonthIndex(year, int(month), baseYear)
}

func YearMonthIndex(year int, month int, baseYear int) (int, bool) {
	if month < 1 || month > 12 {
		return 0, false
	}
	switch year {
	case baseYear - 1:
		return month - 1, true
	case baseYear:
		return 12 + month - 1, true
	}
	return 0, false
}

// MonthIndexOf resolves a ledger row's bucket in the 24-slot window,
// preferring the accounting period and falling back to the expense date.
func MonthIndexOf(e *LedgerExpense, baseYear int) (int, bool) {
	if e.AccountingPeriod != "" {
		if idx, ok := periodIndex(e.AccountingPeriod, baseYear); ok {
			return idx, true
		}
		// A set but out-of-window period excludes the row; the date must
		// not resurrect it in a different bucket.
		return 0, false
	}
	return YearMonthIndex(e.ExpenseDate.Year(), int(e.ExpenseDate.Month()), baseYear)
}

// earliestEditableMonth is the first month whose amounts may still change:
// the current calendar month, advanced to next month when the current
// month's obligation is already reconciled. Template revisions may not
// start before it.
func earliestEditableMonth(now time.Time, currentMonthReconciled bool) time.Time {
	month := FirstOfMonth(now)
	if currentMonthReconciled {
		month = month.AddDate(0, 1, 0)
	}
	return month
}
