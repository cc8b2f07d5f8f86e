package models

import (
	"testing"
	"time"
)

func TestMonthIndexOf_WindowBuckets(t *testing.T) {
	baseYear := 2025
	cases := []struct {
		name    string
		period  string
		date    time.Time
		wantIdx int
		wantOk  bool
	}{
		{"prior year january is slot zero", "2024-01", time.Time{}, 0, true},
		{"prior year june", "2024-06", time.Time{}, 5, true},
		{"base year january starts second half", "2025-01", time.Time{}, 12, true},
		{"base year december is the last slot", "2025-12", time.Time{}, 23, true},
		{"period before the window is excluded", "2023-12", time.Time{}, 0, false},
		{"period after the window is excluded", "2026-01", time.Time{}, 0, false},
		{"date fallback when no period is set", "", time.Date(2025, time.March, 17, 0, 0, 0, 0, time.UTC), 14, true},
		{"date outside the window is excluded", "", time.Date(2023, time.March, 17, 0, 0, 0, 0, time.UTC), 0, false},
	}
	for _, tc := range cases {
		e := &LedgerExpense{AccountingPeriod: tc.period, ExpenseDate: tc.date}
		idx, ok := MonthIndexOf(e, baseYear)
		if ok != tc.wantOk || (ok && idx != tc.wantIdx) {
			t.Fatalf("%s: expected (%d,%v), got (%d,%v)", tc.name, tc.wantIdx, tc.wantOk, idx, ok)
		}
	}
}

// A row whose period lies outside the window stays excluded even when its
// expense date falls inside it.
func TestMonthIndexOf_DateDoesNotResurrectOutOfWindowPeriod(t *testing.T) {
	e := &LedgerExpense{
		AccountingPeriod: "2023-12",
		ExpenseDate:      time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC),
	}
	if _, ok := MonthIndexOf(e, 2025); ok {
		t.Fatal("expected row with out-of-window period to be excluded")
	}
}

func TestParsePeriod(t *testing.T) {
	year, month, err := ParsePeriod("2026-09")
	if err != nil {
		t.Fatalf("ParsePeriod: %v", err)
	}
	if year != 2026 || month != time.September {
		t.Fatalf("expected 2026 September, got %d %s", year, month)
	}
	for _, bad := range []string{"", "2026", "2026-13", "09-2026", "2026/09"} {
		if _, _, err := ParsePeriod(bad); err == nil {
			t.Fatalf("ParsePeriod(%q) expected error", bad)
		}
	}
}

func TestEarliestEditableMonth(t *testing.T) {
	now := time.Date(2026, time.September, 14, 10, 30, 0, 0, time.UTC)

	got := earliestEditableMonth(now, false)
	if want := time.Date(2026, time.September, 1, 0, 0, 0, 0, time.UTC); !got.Equal(want) {
		t.Fatalf("open current month: expected %s, got %s", want, got)
	}

	got = earliestEditableMonth(now, true)
	if want := time.Date(2026, time.October, 1, 0, 0, 0, 0, time.UTC); !got.Equal(want) {
		t.Fatalf("reconciled current month: expected %s, got %s", want, got)
	}

	// year boundary
	got = earliestEditableMonth(time.Date(2026, time.December, 31, 23, 0, 0, 0, time.UTC), true)
	if want := time.Date(2027, time.January, 1, 0, 0, 0, 0, time.UTC); !got.Equal(want) {
		t.Fatalf("december rollover: expected %s, got %s", want, got)
	}
}
