package reports

import (
	"testing"

	"github.com/contaflow/expenses_backend/models"
)

func TestResolveCategoryLabel(t *testing.T) {
	categories := []*models.Category{
		{ID: 1, Name: "Servicii"},
		{ID: 2, Name: "Hardware"},
		{ID: 3, Name: "Hardware si accesorii"},
		{ID: 4, Name: "Salarii si taxe"},
	}

	cases := []struct {
		name   string
		label  string
		wantId int
	}{
		{"plain name", "Hardware", 2},
		{"numbered top-level label", "3. Servicii", 1},
		{"numbered subcategory label", "3.2 Hardware", 2},
		{"case insensitive", "hardware", 2},
		{"exact beats prefix", "Hardware", 2},
		{"prefix match when no exact name", "3.4 Salarii", 4},
		{"substring as a last resort", "taxe", 4},
	}
	for _, tc := range cases {
		got := resolveCategoryLabel(tc.label, categories)
		if got == nil || got.ID != tc.wantId {
			t.Fatalf("%s: resolveCategoryLabel(%q) expected id %d, got %v", tc.name, tc.label, tc.wantId, got)
		}
	}
}

func TestResolveCategoryLabel_NoMatch(t *testing.T) {
	categories := []*models.Category{{ID: 1, Name: "Servicii"}}
	if got := resolveCategoryLabel("7.1 Marketing", categories); got != nil {
		t.Fatalf("expected nil, got %v", got)
	}
	if got := resolveCategoryLabel("   ", categories); got != nil {
		t.Fatalf("expected nil for blank label, got %v", got)
	}
}

func TestExpenseItem_ResolvesNames(t *testing.T) {
	names := categoryNames([]*models.Category{
		{ID: 1, Name: "Servicii"},
		{ID: 2, Name: "Hardware"},
	})

	templateId := 9
	planned := expenseItem(&models.LedgerExpense{
		ID:            11,
		TemplateId:    &templateId,
		Supplier:      "Vodafone",
		Amount:        dec("85"),
		CategoryId:    intPtr(1),
		SubcategoryId: intPtr(2),
		Status:        models.ExpenseStatusRecurent,
	}, names)

	if planned.ExpenseType != models.ExpenseTypeRecurente {
		t.Fatalf("expected recurente tag, got %s", planned.ExpenseType)
	}
	if planned.CategoryName != "Servicii" || planned.SubcategoryName != "Hardware" {
		t.Fatalf("expected Servicii/Hardware, got %s/%s", planned.CategoryName, planned.SubcategoryName)
	}

	manual := expenseItem(&models.LedgerExpense{
		ID:     12,
		Amount: dec("40"),
		Status: models.ExpenseStatusFinal,
	}, names)

	if manual.ExpenseType != models.ExpenseTypeReale {
		t.Fatalf("expected reale tag, got %s", manual.ExpenseType)
	}
	if manual.CategoryName != "" || manual.SubcategoryName != "" {
		t.Fatalf("expected empty names for uncategorized row, got %s/%s", manual.CategoryName, manual.SubcategoryName)
	}
}
