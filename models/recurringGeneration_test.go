package models

import (
	"testing"
	"time"
)

func TestGenerationEligible(t *testing.T) {
	start := time.Date(2026, time.March, 10, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, time.June, 20, 0, 0, 0, 0, time.UTC)
	active := true
	inactive := false
	retiredAt := time.Date(2026, time.March, 15, 0, 0, 0, 0, time.UTC)

	cases := []struct {
		name     string
		template RecurringTemplate
		month    time.Time
		want     bool
	}{
		{"start month itself qualifies",
			RecurringTemplate{IsActive: &active, StartDate: start},
			time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC), true},
		{"month before start never qualifies",
			RecurringTemplate{IsActive: &active, StartDate: start},
			time.Date(2026, time.February, 1, 0, 0, 0, 0, time.UTC), false},
		{"open-ended template keeps generating",
			RecurringTemplate{IsActive: &active, StartDate: start},
			time.Date(2030, time.December, 1, 0, 0, 0, 0, time.UTC), true},
		{"end month itself still qualifies",
			RecurringTemplate{IsActive: &active, StartDate: start, EndDate: &end},
			time.Date(2026, time.June, 1, 0, 0, 0, 0, time.UTC), true},
		{"month after end does not",
			RecurringTemplate{IsActive: &active, StartDate: start, EndDate: &end},
			time.Date(2026, time.July, 1, 0, 0, 0, 0, time.UTC), false},
		{"inactive template generates nothing",
			RecurringTemplate{IsActive: &inactive, StartDate: start},
			time.Date(2026, time.April, 1, 0, 0, 0, 0, time.UTC), false},
		{"retired version generates nothing",
			RecurringTemplate{IsActive: &active, StartDate: start, SupersededAt: &retiredAt},
			time.Date(2026, time.April, 1, 0, 0, 0, 0, time.UTC), false},
	}
	for _, tc := range cases {
		if got := generationEligible(&tc.template, tc.month); got != tc.want {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, got)
		}
	}
}

func TestObligationRow_CopiesTemplateTerms(t *testing.T) {
	template := &RecurringTemplate{
		ID:            7,
		TenantId:      "t-1",
		Supplier:      "Orange Romania",
		Description:   "office internet",
		Amount:        dec("250"),
		AmountWithVat: decPtr("297.50"),
		VatDeductible: boolPtr(false),
		DayOfMonth:    10,
		StartDate:     time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC),
		CreatedBy:     3,
	}

	row := obligationRow(template, time.Date(2026, time.September, 1, 0, 0, 0, 0, time.UTC))

	if row.Status != ExpenseStatusRecurent {
		t.Fatalf("expected recurent status, got %s", row.Status)
	}
	if row.TemplateId == nil || *row.TemplateId != 7 {
		t.Fatalf("expected template id 7, got %v", row.TemplateId)
	}
	if row.AccountingPeriod != "2026-09" {
		t.Fatalf("expected period 2026-09, got %s", row.AccountingPeriod)
	}
	if want := time.Date(2026, time.September, 10, 0, 0, 0, 0, time.UTC); !row.ExpenseDate.Equal(want) {
		t.Fatalf("expected expense date %s, got %s", want, row.ExpenseDate)
	}
	if row.ResolveAmount().String() != "297.5" {
		t.Fatalf("expected resolved amount 297.5, got %s", row.ResolveAmount())
	}
}

// Day 31 templates land on the last day of shorter months instead of
// rolling into the next one.
func TestObligationRow_ClampsDayOfMonth(t *testing.T) {
	template := &RecurringTemplate{ID: 1, TenantId: "t-1", DayOfMonth: 31}

	cases := []struct {
		month time.Time
		day   int
	}{
		{time.Date(2026, time.February, 1, 0, 0, 0, 0, time.UTC), 28},
		{time.Date(2028, time.February, 1, 0, 0, 0, 0, time.UTC), 29},
		{time.Date(2026, time.April, 1, 0, 0, 0, 0, time.UTC), 30},
		{time.Date(2026, time.May, 1, 0, 0, 0, 0, time.UTC), 31},
	}
	for _, tc := range cases {
		row := obligationRow(template, tc.month)
		if row.ExpenseDate.Day() != tc.day {
			t.Fatalf("%s: expected day %d, got %d", tc.month.Month(), tc.day, row.ExpenseDate.Day())
		}
	}
}

// A month can be skipped and unskipped any number of times while it is
// unreconciled; once closed it is immutable history.
func TestSkipUnskipRoundTrip(t *testing.T) {
	expenseId := 42
	instance := RecurringInstance{Status: InstanceStatusOpen, RecurentExpenseId: &expenseId}

	if err := unskipAllowed(&instance); err == nil {
		t.Fatal("expected unskip of an open month to be rejected")
	}
	if err := skipAllowed(&instance); err != nil {
		t.Fatalf("expected open month to be skippable, got %v", err)
	}

	instance.Status = InstanceStatusSkipped
	if err := skipAllowed(&instance); err == nil {
		t.Fatal("expected double skip to be rejected")
	}
	if err := unskipAllowed(&instance); err != nil {
		t.Fatalf("expected skipped month to be unskippable, got %v", err)
	}

	instance.Status = InstanceStatusOpen
	if err := skipAllowed(&instance); err != nil {
		t.Fatalf("expected unskipped month to be skippable again, got %v", err)
	}
}

func TestSkipReconciledMonthRejected(t *testing.T) {
	expenseId := 42
	finalId := 77
	instance := RecurringInstance{
		Status:            InstanceStatusClosed,
		RecurentExpenseId: &expenseId,
		FinalExpenseId:    &finalId,
	}

	if err := skipAllowed(&instance); err == nil {
		t.Fatal("expected skip of a reconciled month to be rejected")
	}
	if err := unskipAllowed(&instance); err == nil {
		t.Fatal("expected unskip of a reconciled month to be rejected")
	}
}
