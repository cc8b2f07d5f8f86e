package models

import (
	"context"
	"errors"
	"time"

	"github.com/contaflow/expenses_backend/config"
	"github.com/contaflow/expenses_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// conversion requires explicit confirmation when the real amount drifts
// from the expected one by more than this percentage
const conversionTolerancePercent = 10

// RecurringInstance tracks one template-month obligation from generation to
// reconciliation. It records what the template expected at generation time,
// which ledger rows realized it, and how far reality landed from the plan.
type RecurringInstance struct {
	ID                    int              `gorm:"primary_key" json:"id"`
	TenantId              string           `gorm:"index;not null" json:"tenant_id"`
	TemplateId            int              `gorm:"not null;uniqueIndex:uix_instance_period" json:"template_id"`
	AccountingPeriod      string           `gorm:"size:7;not null;uniqueIndex:uix_instance_period" json:"accounting_period"`
	Status                InstanceStatus   `gorm:"size:20;not null;default:open" json:"status"`
	ExpectedAmount        decimal.Decimal  `gorm:"type:decimal(20,4);default:0" json:"expected_amount"`
	ExpectedSupplier      string           `gorm:"size:255" json:"expected_supplier"`
	ExpectedCategoryId    *int             `json:"expected_category_id"`
	ExpectedSubcategoryId *int             `json:"expected_subcategory_id"`
	RecurentExpenseId     *int             `gorm:"index" json:"recurent_expense_id"`
	FinalExpenseId        *int             `gorm:"index" json:"final_expense_id"`
	AmountDifferencePct   *decimal.Decimal `gorm:"type:decimal(8,4)" json:"amount_difference_pct"`
	ConvertedAt           *time.Time       `json:"converted_at"`
	ConvertedBy           *int             `json:"converted_by"`
	CreatedAt             time.Time        `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt             time.Time        `gorm:"autoUpdateTime" json:"updated_at"`
}

func (i RecurringInstance) GetTenantId() string {
	return i.TenantId
}

// ConvertRecurringInput carries the real transaction that settles an
// obligation. Confirm acknowledges an out-of-tolerance amount difference.
type ConvertRecurringInput struct {
	ExpenseDate      time.Time        `json:"expense_date" binding:"required"`
	Amount           decimal.Decimal  `json:"amount"`
	AmountWithoutVat *decimal.Decimal `json:"amount_without_vat"`
	AmountWithVat    *decimal.Decimal `json:"amount_with_vat"`
	VatDeductible    *bool            `json:"vat_deductible"`
	VatRate          *decimal.Decimal `json:"vat_rate"`
	Supplier         string           `json:"supplier"`
	SupplierCui      *string          `json:"supplier_cui"`
	Description      string           `json:"description"`
	Status           ExpenseStatus    `json:"status"`
	Confirm          bool             `json:"confirm"`
}

// ConversionResult is what conversion reports back: either the closed
// obligation or a request to confirm the amount drift. Exactly one branch
// is populated. SuggestNewTemplate is set whenever the drift exceeded the
// tolerance, confirmed or not: a template whose months keep landing that
// far off wants a revised version.
type ConversionResult struct {
	RequiresConfirmation bool               `json:"requires_confirmation"`
	SuggestNewTemplate   bool               `json:"suggest_new_template"`
	DifferencePercent    decimal.Decimal    `json:"difference_percent"`
	Instance             *RecurringInstance `json:"instance,omitempty"`
	Expense              *LedgerExpense     `json:"expense,omitempty"`
}

// hasActualAmount says whether the settlement supplied any real amount.
func (input *ConvertRecurringInput) hasActualAmount() bool {
	return input.AmountWithoutVat != nil || input.AmountWithVat != nil || !input.Amount.IsZero()
}

// conversionDecision compares expected against actual and says whether the
// caller has to confirm before the books change.
func conversionDecision(expected, actual decimal.Decimal) (decimal.Decimal, bool) {
	diff := amountDifferencePercent(expected, actual)
	return diff, diff.GreaterThan(decimal.NewFromInt(conversionTolerancePercent))
}

// conversionResponse shapes the result for a settlement attempt before any
// write happens. RequiresConfirmation set means nothing may change yet.
func conversionResponse(diff decimal.Decimal, outOfTolerance, confirmed bool) *ConversionResult {
	if outOfTolerance && !confirmed {
		return &ConversionResult{
			RequiresConfirmation: true,
			SuggestNewTemplate:   true,
			DifferencePercent:    diff,
		}
	}
	return &ConversionResult{
		SuggestNewTemplate: outOfTolerance,
		DifferencePercent:  diff,
	}
}

// ConvertRecurringInstance settles an obligation with a real transaction.
// The generated recurent row is rewritten in place with the real values,
// so the month's P&L attribution never sees both a planned and a real row.
// Out-of-tolerance conversions return without touching the books until the
// caller confirms.
func ConvertRecurringInstance(ctx context.Context, id int, input *ConvertRecurringInput) (*ConversionResult, error) {

	tenantId, ok := utils.GetTenantIdFromContext(ctx)
	if !ok || tenantId == "" {
		return nil, errors.New("tenant id is required")
	}

	instance, err := utils.FetchModel[RecurringInstance](ctx, tenantId, id)
	if err != nil {
		return nil, err
	}
	if instance.Status != InstanceStatusOpen {
		return nil, utils.NewInvalidState("obligation is already settled")
	}
	if instance.RecurentExpenseId == nil {
		return nil, utils.NewInvalidState("obligation has no pending expense row")
	}

	if input.Status == "" {
		input.Status = ExpenseStatusFinal
	}
	if !input.Status.Reconciled() {
		return nil, utils.NewValidationError("conversion status must be a reconciled status")
	}
	if !input.hasActualAmount() {
		return nil, utils.NewValidationError("an actual amount is required to settle an obligation")
	}
	if input.Amount.IsNegative() {
		return nil, utils.NewValidationError("amount must not be negative")
	}

	actual := resolveAmount(input.VatDeductible, input.AmountWithoutVat, input.AmountWithVat, input.Amount)
	diff, outOfTolerance := conversionDecision(instance.ExpectedAmount, actual)
	result := conversionResponse(diff, outOfTolerance, input.Confirm)
	if result.RequiresConfirmation {
		return result, nil
	}

	supplier := input.Supplier
	if supplier == "" {
		supplier = instance.ExpectedSupplier
	}

	userId, _ := utils.GetUserIdFromContext(ctx)
	now := time.Now().UTC()

	db := config.GetDB()
	tx := db.Begin()

	var expense LedgerExpense
	err = tx.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantId, *instance.RecurentExpenseId).
		First(&expense).Error
	if err != nil {
		tx.Rollback()
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.ErrorRecordNotFound
		}
		return nil, err
	}

	err = tx.WithContext(ctx).Model(&expense).Updates(map[string]interface{}{
		"ExpenseDate":      input.ExpenseDate,
		"Amount":           input.Amount,
		"AmountWithoutVat": input.AmountWithoutVat,
		"AmountWithVat":    input.AmountWithVat,
		"VatDeductible":    input.VatDeductible,
		"VatRate":          input.VatRate,
		"Supplier":         supplier,
		"SupplierCui":      input.SupplierCui,
		"Description":      input.Description,
		"Status":           input.Status,
	}).Error
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	// concurrent converts both pass the read above; the status condition
	// lets exactly one of them close the row
	closing := tx.WithContext(ctx).Model(&instance).
		Where("status = ?", InstanceStatusOpen).
		Updates(map[string]interface{}{
			"Status":              InstanceStatusClosed,
			"FinalExpenseId":      expense.ID,
			"AmountDifferencePct": diff,
			"ConvertedAt":         now,
			"ConvertedBy":         userId,
		})
	if closing.Error != nil {
		tx.Rollback()
		return nil, closing.Error
	}
	if closing.RowsAffected == 0 {
		tx.Rollback()
		return nil, utils.NewInvalidState("obligation is already settled")
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	InvalidateReportCache(tenantId)
	result.Instance = instance
	result.Expense = &expense
	return result, nil
}

// reopenInstanceForExpense puts the obligation realized by expense back to
// open. Runs inside the caller's transaction.
func reopenInstanceForExpense(tx *gorm.DB, ctx context.Context, tenantId string, expense *LedgerExpense) error {
	var instance RecurringInstance
	err := tx.WithContext(ctx).
		Where("tenant_id = ? AND (final_expense_id = ? OR recurent_expense_id = ?)", tenantId, expense.ID, expense.ID).
		First(&instance).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}
	return tx.WithContext(ctx).Model(&instance).Updates(map[string]interface{}{
		"Status":              InstanceStatusOpen,
		"RecurentExpenseId":   nil,
		"FinalExpenseId":      nil,
		"AmountDifferencePct": nil,
		"ConvertedAt":         nil,
		"ConvertedBy":         nil,
	}).Error
}

func GetRecurringInstance(ctx context.Context, id int) (*RecurringInstance, error) {

	tenantId, ok := utils.GetTenantIdFromContext(ctx)
	if !ok || tenantId == "" {
		return nil, errors.New("tenant id is required")
	}
	return utils.FetchModel[RecurringInstance](ctx, tenantId, id)
}

// GetRecurringInstances lists a tenant's obligations, optionally filtered
// by period and status.
func GetRecurringInstances(ctx context.Context, period string, status InstanceStatus) ([]*RecurringInstance, error) {

	tenantId, ok := utils.GetTenantIdFromContext(ctx)
	if !ok || tenantId == "" {
		return nil, errors.New("tenant id is required")
	}

	db := config.GetDB()
	dbCtx := db.WithContext(ctx).Where("tenant_id = ?", tenantId)
	if period != "" {
		if _, _, err := ParsePeriod(period); err != nil {
			return nil, utils.NewValidationError(err.Error())
		}
		dbCtx = dbCtx.Where("accounting_period = ?", period)
	}
	if status != "" {
		dbCtx = dbCtx.Where("status = ?", status)
	}

	var results []*RecurringInstance
	err := dbCtx.Order("accounting_period DESC, template_id").Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}
