package models

import "testing"

func TestBuildCategoryTree(t *testing.T) {
	parentA, parentB := 1, 2
	missing := 99
	categories := []*Category{
		{ID: 1, Name: "Servicii"},
		{ID: 2, Name: "Chirie"},
		{ID: 3, Name: "Hardware", ParentId: &parentA},
		{ID: 4, Name: "Software", ParentId: &parentA},
		{ID: 5, Name: "Birou", ParentId: &parentB},
		{ID: 6, Name: "Orphan", ParentId: &missing},
	}

	roots := BuildCategoryTree(categories)

	if len(roots) != 2 {
		t.Fatalf("expected 2 roots, got %d", len(roots))
	}
	if roots[0].Category.Name != "Servicii" || len(roots[0].Children) != 2 {
		t.Fatalf("unexpected first root: %s with %d children", roots[0].Category.Name, len(roots[0].Children))
	}
	if roots[1].Category.Name != "Chirie" || len(roots[1].Children) != 1 {
		t.Fatalf("unexpected second root: %s with %d children", roots[1].Category.Name, len(roots[1].Children))
	}
	for _, root := range roots {
		for _, child := range root.Children {
			if child.Name == "Orphan" {
				t.Fatal("orphan category must be dropped, not adopted")
			}
		}
	}
}

func TestExpenseStatusSets(t *testing.T) {
	cases := []struct {
		status     ExpenseStatus
		countable  bool
		reconciled bool
	}{
		{ExpenseStatusDraft, true, true},
		{ExpenseStatusPending, true, true},
		{ExpenseStatusApproved, true, true},
		{ExpenseStatusRecurent, true, false},
		{ExpenseStatusFinal, true, true},
		{ExpenseStatusPaid, true, true},
		{ExpenseStatusSkipped, false, false},
		{ExpenseStatusRejected, false, false},
	}
	for _, tc := range cases {
		if got := tc.status.CountsTowardPnl(); got != tc.countable {
			t.Fatalf("%s: CountsTowardPnl expected %v, got %v", tc.status, tc.countable, got)
		}
		if got := tc.status.Reconciled(); got != tc.reconciled {
			t.Fatalf("%s: Reconciled expected %v, got %v", tc.status, tc.reconciled, got)
		}
	}
}
