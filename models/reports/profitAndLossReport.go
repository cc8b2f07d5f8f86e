package reports

import (
	"context"
	"errors"
	"time"

	"github.com/contaflow/expenses_backend/models"
	"github.com/contaflow/expenses_backend/utils"
	"github.com/shopspring/decimal"
)

// PnlAggregate is the 24-month profit & loss matrix for one tenant: the
// base year's twelve months plus the prior year for comparison. Index 0 is
// January of the prior year, index 23 December of the base year.
type PnlAggregate struct {
	TenantId        string            `json:"tenant_id"`
	BaseYear        int               `json:"base_year"`
	Months          []string          `json:"months"`
	Categories      []*PnlCategory    `json:"categories"`
	ExpensesByMonth []decimal.Decimal `json:"expenses_by_month"`
	RevenueByMonth  []decimal.Decimal `json:"revenue_by_month"`
	BudgetByMonth   []decimal.Decimal `json:"budget_by_month"`
	ProfitByMonth   []decimal.Decimal `json:"profit_by_month"`
	Expenses        []*PnlExpenseItem `json:"expenses"`
	GeneratedAt     time.Time         `json:"generated_at"`
}

// PnlCategory is one row of the matrix. A parent's values are its direct
// expenses plus the sum of its children, so a row is never counted twice.
type PnlCategory struct {
	CategoryId int               `json:"category_id"`
	Name       string            `json:"name"`
	Values     []decimal.Decimal `json:"values"`
	Total      decimal.Decimal   `json:"total"`
	Children   []*PnlCategory    `json:"children,omitempty"`
}

const pnlWindowMonths = 24

func zeroRow() []decimal.Decimal {
	row := make([]decimal.Decimal, pnlWindowMonths)
	for i := range row {
		row[i] = decimal.Zero
	}
	return row
}

func windowMonths(baseYear int) []string {
	months := make([]string, 0, pnlWindowMonths)
	for year := baseYear - 1; year <= baseYear; year++ {
		for month := time.January; month <= time.December; month++ {
			months = append(months, models.FormatPeriod(year, month))
		}
	}
	return months
}

// BuildPnlAggregate folds the tenant's rows into the 24-month matrix. Pure:
// everything it needs comes in as arguments. Rows outside the window or in
// a non-countable status are the caller's job to exclude; attribution and
// rollup happen here.
func BuildPnlAggregate(
	tenantId string,
	baseYear int,
	expenses []*models.LedgerExpense,
	categories []*models.Category,
	revenues []*models.MonthlyRevenue,
	budgets map[int]*models.AnnualBudget,
) *PnlAggregate {

	aggregate := &PnlAggregate{
		TenantId:        tenantId,
		BaseYear:        baseYear,
		Months:          windowMonths(baseYear),
		ExpensesByMonth: zeroRow(),
		RevenueByMonth:  zeroRow(),
		BudgetByMonth:   zeroRow(),
		ProfitByMonth:   zeroRow(),
		GeneratedAt:     time.Now().UTC(),
	}

	// category skeleton in tree order
	rows := make(map[int]*PnlCategory, len(categories))
	for _, node := range models.BuildCategoryTree(categories) {
		parent := &PnlCategory{
			CategoryId: node.Category.ID,
			Name:       node.Category.Name,
			Values:     zeroRow(),
		}
		for _, child := range node.Children {
			childRow := &PnlCategory{
				CategoryId: child.ID,
				Name:       child.Name,
				Values:     zeroRow(),
			}
			parent.Children = append(parent.Children, childRow)
			rows[child.ID] = childRow
		}
		aggregate.Categories = append(aggregate.Categories, parent)
		rows[node.Category.ID] = parent
	}

	uncategorized := &PnlCategory{Name: "Uncategorized", Values: zeroRow()}
	names := categoryNames(categories)

	for _, expense := range expenses {
		if !expense.Status.CountsTowardPnl() {
			continue
		}
		idx, ok := models.MonthIndexOf(expense, baseYear)
		if !ok {
			continue
		}
		amount := expense.ResolveAmount()
		aggregate.ExpensesByMonth[idx] = aggregate.ExpensesByMonth[idx].Add(amount)
		aggregate.Expenses = append(aggregate.Expenses, expenseItem(expense, names))

		// attribute to the finest known category; the parent rollup below
		// folds children upward exactly once
		var target *PnlCategory
		if expense.SubcategoryId != nil {
			target = rows[*expense.SubcategoryId]
		}
		if target == nil && expense.CategoryId != nil {
			target = rows[*expense.CategoryId]
		}
		if target == nil {
			target = uncategorized
		}
		target.Values[idx] = target.Values[idx].Add(amount)
	}

	if !rowIsZero(uncategorized.Values) {
		aggregate.Categories = append(aggregate.Categories, uncategorized)
	}

	for _, parent := range aggregate.Categories {
		for _, child := range parent.Children {
			for i := range child.Values {
				parent.Values[i] = parent.Values[i].Add(child.Values[i])
			}
			child.Total = sumRow(child.Values)
		}
		parent.Total = sumRow(parent.Values)
	}

	for _, revenue := range revenues {
		if idx, ok := models.YearMonthIndex(revenue.Year, int(revenue.Month), baseYear); ok {
			aggregate.RevenueByMonth[idx] = aggregate.RevenueByMonth[idx].Add(revenue.Amount)
		}
	}

	for year, budget := range budgets {
		for month := time.January; month <= time.December; month++ {
			if idx, ok := models.YearMonthIndex(year, int(month), baseYear); ok {
				aggregate.BudgetByMonth[idx] = budget.MonthAmount(month)
			}
		}
	}

	for i := 0; i < pnlWindowMonths; i++ {
		aggregate.ProfitByMonth[i] = aggregate.RevenueByMonth[i].Sub(aggregate.ExpensesByMonth[i])
	}

	return aggregate
}

func sumRow(values []decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, v := range values {
		total = total.Add(v)
	}
	return total
}

func rowIsZero(values []decimal.Decimal) bool {
	for _, v := range values {
		if !v.IsZero() {
			return false
		}
	}
	return true
}

// GetPnlReport serves the 24-month matrix for the base year, from redis
// when a fresh copy exists.
func GetPnlReport(ctx context.Context, baseYear int) (*PnlAggregate, error) {
	started := time.Now()

	tenantId, ok := utils.GetTenantIdFromContext(ctx)
	if !ok || tenantId == "" {
		return nil, errors.New("tenant id is required")
	}
	if baseYear == 0 {
		baseYear = time.Now().UTC().Year()
	}
	if baseYear < 2000 || baseYear > 2100 {
		return nil, utils.NewValidationError("base year is out of range")
	}

	cacheKey := models.ReportCacheKey(tenantId, baseYear)
	if reportCacheEnabled() {
		var cached PnlAggregate
		if exists, err := cacheGet(cacheKey, &cached); err == nil && exists {
			return &cached, nil
		}
	}

	expenses, err := models.FetchPnlExpenses(ctx, tenantId, baseYear)
	if err != nil {
		return nil, err
	}
	expenseType := models.CategoryTypeExpense
	categories, err := models.GetCategories(ctx, &expenseType)
	if err != nil {
		return nil, err
	}
	revenues, err := models.FetchRevenues(ctx, tenantId, baseYear)
	if err != nil {
		return nil, err
	}
	budgets, err := models.FetchBudgets(ctx, tenantId, baseYear)
	if err != nil {
		return nil, err
	}

	aggregate := BuildPnlAggregate(tenantId, baseYear, expenses, categories, revenues, budgets)

	if reportCacheEnabled() {
		if err := cacheSet(cacheKey, aggregate, reportCacheTTL()); err == nil {
			_ = models.RegisterReportCacheKey(tenantId, cacheKey)
		}
	}

	logSlowReport(ctx, "pnl_report", started, map[string]any{"base_year": baseYear, "rows": len(expenses)})
	return aggregate, nil
}
