package reports

import (
	"testing"
	"time"

	"github.com/contaflow/expenses_backend/models"
	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func intPtr(i int) *int { return &i }

func expenseRow(period string, amount string, categoryId, subcategoryId *int, status models.ExpenseStatus) *models.LedgerExpense {
	year, month, _ := models.ParsePeriod(period)
	return &models.LedgerExpense{
		AccountingPeriod: period,
		ExpenseDate:      time.Date(year, month, 15, 0, 0, 0, 0, time.UTC),
		Amount:           dec(amount),
		CategoryId:       categoryId,
		SubcategoryId:    subcategoryId,
		Status:           status,
	}
}

func testCategories() []*models.Category {
	return []*models.Category{
		{ID: 1, Name: "Servicii", CategoryType: models.CategoryTypeExpense},
		{ID: 2, Name: "Hardware", ParentId: intPtr(1), CategoryType: models.CategoryTypeExpense},
		{ID: 3, Name: "Software", ParentId: intPtr(1), CategoryType: models.CategoryTypeExpense},
		{ID: 4, Name: "Chirie", CategoryType: models.CategoryTypeExpense},
	}
}

func TestBuildPnlAggregate_WindowAndTotals(t *testing.T) {
	expenses := []*models.LedgerExpense{
		expenseRow("2024-06", "100", intPtr(4), nil, models.ExpenseStatusFinal),
		expenseRow("2025-06", "250", intPtr(4), nil, models.ExpenseStatusRecurent),
		expenseRow("2025-12", "40", intPtr(4), nil, models.ExpenseStatusPaid),
	}

	aggregate := BuildPnlAggregate("t-1", 2025, expenses, testCategories(), nil, nil)

	if len(aggregate.Months) != 24 || aggregate.Months[0] != "2024-01" || aggregate.Months[23] != "2025-12" {
		t.Fatalf("unexpected window months: %v", aggregate.Months)
	}
	if !aggregate.ExpensesByMonth[5].Equal(dec("100")) {
		t.Fatalf("2024-06 total: expected 100, got %s", aggregate.ExpensesByMonth[5])
	}
	if !aggregate.ExpensesByMonth[17].Equal(dec("250")) {
		t.Fatalf("2025-06 total: expected 250, got %s", aggregate.ExpensesByMonth[17])
	}
	if !aggregate.ExpensesByMonth[23].Equal(dec("40")) {
		t.Fatalf("2025-12 total: expected 40, got %s", aggregate.ExpensesByMonth[23])
	}
}

func TestBuildPnlAggregate_ExcludesNonCountableAndOutOfWindow(t *testing.T) {
	expenses := []*models.LedgerExpense{
		expenseRow("2025-03", "100", intPtr(4), nil, models.ExpenseStatusFinal),
		expenseRow("2025-03", "999", intPtr(4), nil, models.ExpenseStatusSkipped),
		expenseRow("2025-03", "888", intPtr(4), nil, models.ExpenseStatusRejected),
		expenseRow("2023-03", "777", intPtr(4), nil, models.ExpenseStatusFinal),
	}

	aggregate := BuildPnlAggregate("t-1", 2025, expenses, testCategories(), nil, nil)

	if !aggregate.ExpensesByMonth[14].Equal(dec("100")) {
		t.Fatalf("expected only the final row to count, got %s", aggregate.ExpensesByMonth[14])
	}
	for i, v := range aggregate.ExpensesByMonth {
		if i != 14 && !v.IsZero() {
			t.Fatalf("unexpected amount %s in slot %d", v, i)
		}
	}
}

// A row attributed to a subcategory shows up once under the child and once
// in the parent rollup, never twice in the parent.
func TestBuildPnlAggregate_NoDoubleCounting(t *testing.T) {
	expenses := []*models.LedgerExpense{
		expenseRow("2025-05", "100", intPtr(1), intPtr(2), models.ExpenseStatusFinal),
		expenseRow("2025-05", "60", intPtr(1), intPtr(3), models.ExpenseStatusFinal),
		expenseRow("2025-05", "40", intPtr(1), nil, models.ExpenseStatusFinal),
	}

	aggregate := BuildPnlAggregate("t-1", 2025, expenses, testCategories(), nil, nil)

	var servicii *PnlCategory
	for _, row := range aggregate.Categories {
		if row.Name == "Servicii" {
			servicii = row
		}
	}
	if servicii == nil {
		t.Fatal("missing Servicii row")
	}

	idx := 16 // 2025-05
	if !servicii.Values[idx].Equal(dec("200")) {
		t.Fatalf("parent: expected 200 (100+60 children + 40 direct), got %s", servicii.Values[idx])
	}
	if !aggregate.ExpensesByMonth[idx].Equal(dec("200")) {
		t.Fatalf("month total: expected 200, got %s", aggregate.ExpensesByMonth[idx])
	}
	for _, child := range servicii.Children {
		switch child.Name {
		case "Hardware":
			if !child.Values[idx].Equal(dec("100")) {
				t.Fatalf("Hardware: expected 100, got %s", child.Values[idx])
			}
		case "Software":
			if !child.Values[idx].Equal(dec("60")) {
				t.Fatalf("Software: expected 60, got %s", child.Values[idx])
			}
		}
	}
}

func TestBuildPnlAggregate_UncategorizedBucket(t *testing.T) {
	expenses := []*models.LedgerExpense{
		expenseRow("2025-02", "33", nil, nil, models.ExpenseStatusFinal),
	}

	aggregate := BuildPnlAggregate("t-1", 2025, expenses, testCategories(), nil, nil)

	var uncategorized *PnlCategory
	for _, row := range aggregate.Categories {
		if row.Name == "Uncategorized" {
			uncategorized = row
		}
	}
	if uncategorized == nil {
		t.Fatal("expected an Uncategorized row")
	}
	if !uncategorized.Values[13].Equal(dec("33")) {
		t.Fatalf("expected 33 in 2025-02, got %s", uncategorized.Values[13])
	}
}

// The aggregate carries the flattened rows behind its cells: every counted
// expense appears once, with its category names resolved and tagged
// recurente or reale.
func TestBuildPnlAggregate_FlattenedExpenseList(t *testing.T) {
	planned := expenseRow("2025-05", "100", intPtr(1), intPtr(2), models.ExpenseStatusRecurent)
	planned.Supplier = "Orange Romania"
	real := expenseRow("2025-05", "40", intPtr(4), nil, models.ExpenseStatusFinal)
	expenses := []*models.LedgerExpense{
		planned,
		real,
		expenseRow("2025-05", "999", intPtr(4), nil, models.ExpenseStatusSkipped),
		expenseRow("2023-05", "777", intPtr(4), nil, models.ExpenseStatusFinal),
	}

	aggregate := BuildPnlAggregate("t-1", 2025, expenses, testCategories(), nil, nil)

	if len(aggregate.Expenses) != 2 {
		t.Fatalf("expected 2 flattened rows, got %d", len(aggregate.Expenses))
	}
	first := aggregate.Expenses[0]
	if first.Supplier != "Orange Romania" || first.ExpenseType != models.ExpenseTypeRecurente {
		t.Fatalf("expected recurente row from Orange Romania, got %s/%s", first.Supplier, first.ExpenseType)
	}
	if first.CategoryName != "Servicii" || first.SubcategoryName != "Hardware" {
		t.Fatalf("expected resolved names Servicii/Hardware, got %s/%s", first.CategoryName, first.SubcategoryName)
	}
	second := aggregate.Expenses[1]
	if second.ExpenseType != models.ExpenseTypeReale || second.CategoryName != "Chirie" {
		t.Fatalf("expected reale row under Chirie, got %s/%s", second.ExpenseType, second.CategoryName)
	}
	if !second.Amount.Equal(dec("40")) {
		t.Fatalf("expected computed amount 40, got %s", second.Amount)
	}
}

func TestBuildPnlAggregate_RevenueBudgetProfit(t *testing.T) {
	expenses := []*models.LedgerExpense{
		expenseRow("2025-04", "300", intPtr(4), nil, models.ExpenseStatusFinal),
	}
	revenues := []*models.MonthlyRevenue{
		{Year: 2025, Month: time.April, Source: models.RevenueSourceManual, Amount: dec("1000")},
		{Year: 2024, Month: time.April, Source: models.RevenueSourceManual, Amount: dec("800")},
		{Year: 2022, Month: time.April, Source: models.RevenueSourceManual, Amount: dec("999")},
	}
	budgets := map[int]*models.AnnualBudget{
		2025: {Year: 2025, April: dec("350")},
	}

	aggregate := BuildPnlAggregate("t-1", 2025, expenses, testCategories(), revenues, budgets)

	idx := 15 // 2025-04
	if !aggregate.RevenueByMonth[idx].Equal(dec("1000")) {
		t.Fatalf("revenue: expected 1000, got %s", aggregate.RevenueByMonth[idx])
	}
	if !aggregate.RevenueByMonth[3].Equal(dec("800")) {
		t.Fatalf("prior year revenue: expected 800, got %s", aggregate.RevenueByMonth[3])
	}
	if !aggregate.BudgetByMonth[idx].Equal(dec("350")) {
		t.Fatalf("budget: expected 350, got %s", aggregate.BudgetByMonth[idx])
	}
	if !aggregate.ProfitByMonth[idx].Equal(dec("700")) {
		t.Fatalf("profit: expected 700, got %s", aggregate.ProfitByMonth[idx])
	}
}

func TestSummarizePnl(t *testing.T) {
	expenses := []*models.LedgerExpense{
		expenseRow("2025-01", "400", intPtr(4), nil, models.ExpenseStatusFinal),
		expenseRow("2025-02", "100", intPtr(4), nil, models.ExpenseStatusFinal),
	}
	revenues := []*models.MonthlyRevenue{
		{Year: 2025, Month: time.January, Source: models.RevenueSourceManual, Amount: dec("1000")},
	}

	aggregate := BuildPnlAggregate("t-1", 2025, expenses, testCategories(), revenues, nil)
	summary := summarizePnl(aggregate)

	if len(summary.Months) != 12 {
		t.Fatalf("expected 12 month summaries, got %d", len(summary.Months))
	}
	if !summary.YtdExpenses.Equal(dec("500")) {
		t.Fatalf("ytd expenses: expected 500, got %s", summary.YtdExpenses)
	}
	if !summary.YtdProfit.Equal(dec("500")) {
		t.Fatalf("ytd profit: expected 500, got %s", summary.YtdProfit)
	}
	if summary.MarginPercent == nil || !summary.MarginPercent.Equal(dec("50")) {
		t.Fatalf("margin: expected 50, got %v", summary.MarginPercent)
	}

	jan := summary.Months[0]
	if jan.AccountingPeriod != "2025-01" || !jan.Profit.Equal(dec("600")) {
		t.Fatalf("january: expected profit 600, got %s (%s)", jan.Profit, jan.AccountingPeriod)
	}
}
