package models

import (
	"testing"
	"time"

	"github.com/contaflow/expenses_backend/utils"
)

// A revision may not start before the earliest editable month; the caller
// gets a rejection, not a silently adjusted date.
func TestValidateRevisionStart(t *testing.T) {
	floor := time.Date(2026, time.September, 1, 0, 0, 0, 0, time.UTC)

	cases := []struct {
		name      string
		startDate time.Time
		wantErr   bool
	}{
		{"month before the floor is rejected", time.Date(2026, time.August, 1, 0, 0, 0, 0, time.UTC), true},
		{"day before the floor is rejected", time.Date(2026, time.August, 31, 0, 0, 0, 0, time.UTC), true},
		{"the floor itself is editable", floor, false},
		{"future months are editable", time.Date(2027, time.January, 1, 0, 0, 0, 0, time.UTC), false},
	}
	for _, tc := range cases {
		err := validateRevisionStart(tc.startDate, floor)
		if tc.wantErr {
			if !utils.IsInvalidState(err) {
				t.Fatalf("%s: expected invalid-state error, got %v", tc.name, err)
			}
			continue
		}
		if err != nil {
			t.Fatalf("%s: expected no error, got %v", tc.name, err)
		}
	}
}

// The successor row carries the back-pointer to the version it replaces;
// the retired row is never rewritten to point forward.
func TestNextTemplateVersion(t *testing.T) {
	old := &RecurringTemplate{
		ID:       17,
		TenantId: "t-1",
		Name:     "Chirie birou",
		Supplier: "Imobiliare SRL",
		Amount:   dec("2500"),
		Version:  3,
		IsActive: boolPtr(true),
	}
	input := &NewRecurringTemplate{
		Name:      "Chirie birou",
		Supplier:  "Imobiliare SRL",
		Amount:    dec("2800"),
		StartDate: time.Date(2026, time.October, 1, 0, 0, 0, 0, time.UTC),
	}

	next := nextTemplateVersion(old, input, 5)

	if next.Version != 4 {
		t.Fatalf("expected version 4, got %d", next.Version)
	}
	if next.SupersededTemplateId == nil || *next.SupersededTemplateId != 17 {
		t.Fatalf("expected back-pointer to template 17, got %v", next.SupersededTemplateId)
	}
	if next.SupersededAt != nil {
		t.Fatalf("expected new head without superseded_at, got %v", next.SupersededAt)
	}
	if next.TenantId != "t-1" {
		t.Fatalf("expected tenant t-1, got %s", next.TenantId)
	}
	if !next.Amount.Equal(dec("2800")) {
		t.Fatalf("expected revised amount 2800, got %s", next.Amount)
	}
	if next.CreatedBy != 5 {
		t.Fatalf("expected creator 5, got %d", next.CreatedBy)
	}
}
