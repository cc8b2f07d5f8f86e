package reports

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/contaflow/expenses_backend/config"
	"github.com/contaflow/expenses_backend/models"
	"github.com/contaflow/expenses_backend/utils"
	"github.com/shopspring/decimal"
)

// PnlExpenseItem is one flattened ledger line as reports show it: the
// computed amount, the resolved category names, and a recurente/reale tag.
type PnlExpenseItem struct {
	ExpenseId        int             `json:"expense_id"`
	TemplateId       *int            `json:"template_id"`
	Supplier         string          `json:"supplier"`
	Description      string          `json:"description"`
	Amount           decimal.Decimal `json:"amount"`
	Status           string          `json:"status"`
	ExpenseType      string          `json:"expense_type"`
	ExpenseDate      time.Time       `json:"expense_date"`
	AccountingPeriod string          `json:"accounting_period"`
	CategoryName     string          `json:"category_name"`
	SubcategoryName  string          `json:"subcategory_name"`
}

func categoryNames(categories []*models.Category) map[int]string {
	names := make(map[int]string, len(categories))
	for _, category := range categories {
		names[category.ID] = category.Name
	}
	return names
}

// expenseItem flattens one ledger row for report output. Generated
// obligations are tagged recurente, everything else reale.
func expenseItem(expense *models.LedgerExpense, names map[int]string) *PnlExpenseItem {
	expenseType := models.ExpenseTypeReale
	if expense.Status == models.ExpenseStatusRecurent {
		expenseType = models.ExpenseTypeRecurente
	}
	item := &PnlExpenseItem{
		ExpenseId:        expense.ID,
		TemplateId:       expense.TemplateId,
		Supplier:         expense.Supplier,
		Description:      expense.Description,
		Amount:           expense.ResolveAmount(),
		Status:           string(expense.Status),
		ExpenseType:      expenseType,
		ExpenseDate:      expense.ExpenseDate,
		AccountingPeriod: expense.AccountingPeriod,
	}
	if expense.CategoryId != nil {
		item.CategoryName = names[*expense.CategoryId]
	}
	if expense.SubcategoryId != nil {
		item.SubcategoryName = names[*expense.SubcategoryId]
	}
	return item
}

// category labels arrive from report consumers with their display
// numbering still attached ("3.2 Hardware")
var labelNumberingPrefix = regexp.MustCompile(`^\d+(\.\d+)*\.?\s+`)

// resolveCategoryLabel maps a display label back to a category. The
// numbering prefix is stripped first; matching is case-insensitive and
// prefers an exact name, then a name the label starts, then a name
// containing it.
func resolveCategoryLabel(label string, categories []*models.Category) *models.Category {
	name := strings.TrimSpace(labelNumberingPrefix.ReplaceAllString(strings.TrimSpace(label), ""))
	if name == "" {
		return nil
	}
	lower := strings.ToLower(name)

	var prefixMatch, substringMatch *models.Category
	for _, category := range categories {
		candidate := strings.ToLower(strings.TrimSpace(category.Name))
		if candidate == lower {
			return category
		}
		if prefixMatch == nil && strings.HasPrefix(candidate, lower) {
			prefixMatch = category
		}
		if substringMatch == nil && strings.Contains(candidate, lower) {
			substringMatch = category
		}
	}
	if prefixMatch != nil {
		return prefixMatch
	}
	return substringMatch
}

// GetExpensesForCategoryMonth lists the rows behind one matrix cell,
// addressed by the category's display label and the accounting period.
func GetExpensesForCategoryMonth(ctx context.Context, label string, period string) ([]*PnlExpenseItem, error) {
	started := time.Now()

	tenantId, ok := utils.GetTenantIdFromContext(ctx)
	if !ok || tenantId == "" {
		return nil, errors.New("tenant id is required")
	}
	year, month, err := models.ParsePeriod(period)
	if err != nil {
		return nil, utils.NewValidationError(err.Error())
	}

	categories, err := models.GetCategories(ctx, nil)
	if err != nil {
		return nil, err
	}
	category := resolveCategoryLabel(label, categories)
	if category == nil {
		return nil, utils.ErrorRecordNotFound
	}

	monthStart := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	monthEnd := monthStart.AddDate(0, 1, 0)

	db := config.GetDB()
	var expenses []*models.LedgerExpense
	err = db.WithContext(ctx).
		Where("tenant_id = ?", tenantId).
		Where("status IN ?", models.PnlCountableStatuses).
		Where("category_id = ? OR subcategory_id = ?", category.ID, category.ID).
		Where("accounting_period = ? OR (accounting_period = '' AND expense_date >= ? AND expense_date < ?)",
			period, monthStart, monthEnd).
		Order("expense_date").
		Find(&expenses).Error
	if err != nil {
		return nil, err
	}

	names := categoryNames(categories)
	items := make([]*PnlExpenseItem, 0, len(expenses))
	for _, expense := range expenses {
		items = append(items, expenseItem(expense, names))
	}

	logSlowReport(ctx, "expense_drilldown", started, map[string]any{"label": label, "period": period})
	return items, nil
}
