package models

import (
	"context"
	"errors"
	"time"

	"github.com/contaflow/expenses_backend/config"
	"github.com/contaflow/expenses_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/plugin/soft_delete"
)

// LedgerExpense is one expense row: either a real-world transaction or, when
// TemplateId is set, the monthly obligation generated from a recurring
// template ("RE-Form"). AccountingPeriod (YYYY-MM) is the authoritative P&L
// month; ExpenseDate is the calendar document date.
//
// DeletedAt is a flag-based soft delete (0 = live) so that the unique index
// over (template_id, accounting_period, deleted_at) holds for live rows
// only: that index, not application checks, is what makes concurrent
// generation safe.
type LedgerExpense struct {
	ID               int                   `gorm:"primary_key" json:"id"`
	TenantId         string                `gorm:"index;not null" json:"tenant_id"`
	TemplateId       *int                  `gorm:"uniqueIndex:uix_template_period" json:"template_id"`
	AccountingPeriod string                `gorm:"size:7;index;uniqueIndex:uix_template_period" json:"accounting_period"`
	ExpenseDate      time.Time             `gorm:"not null" json:"expense_date" binding:"required"`
	Amount           decimal.Decimal       `gorm:"type:decimal(20,4);default:0" json:"amount"`
	AmountWithoutVat *decimal.Decimal      `gorm:"type:decimal(20,4)" json:"amount_without_vat"`
	AmountWithVat    *decimal.Decimal      `gorm:"type:decimal(20,4)" json:"amount_with_vat"`
	VatDeductible    *bool                 `gorm:"not null;default:false" json:"vat_deductible"`
	VatRate          *decimal.Decimal      `gorm:"type:decimal(5,2)" json:"vat_rate"`
	Supplier         string                `gorm:"size:255;not null" json:"supplier"`
	SupplierCui      *string               `gorm:"size:32" json:"supplier_cui"`
	Description      string                `gorm:"type:text" json:"description"`
	CategoryId       *int                  `gorm:"index" json:"category_id"`
	SubcategoryId    *int                  `gorm:"index" json:"subcategory_id"`
	Status           ExpenseStatus         `gorm:"size:20;not null;default:draft" json:"status"`
	CreatedBy        int                   `json:"created_by"`
	CreatedAt        time.Time             `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time             `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt        soft_delete.DeletedAt `gorm:"softDelete:milli;uniqueIndex:uix_template_period" json:"deleted_at"`
}

type NewLedgerExpense struct {
	ExpenseDate      time.Time        `json:"expense_date" binding:"required"`
	AccountingPeriod string           `json:"accounting_period"`
	Amount           decimal.Decimal  `json:"amount"`
	AmountWithoutVat *decimal.Decimal `json:"amount_without_vat"`
	AmountWithVat    *decimal.Decimal `json:"amount_with_vat"`
	VatDeductible    *bool            `json:"vat_deductible"`
	VatRate          *decimal.Decimal `json:"vat_rate"`
	Supplier         string           `json:"supplier" binding:"required"`
	SupplierCui      *string          `json:"supplier_cui"`
	Description      string           `json:"description"`
	CategoryId       *int             `json:"category_id"`
	SubcategoryId    *int             `json:"subcategory_id"`
	Status           ExpenseStatus    `json:"status"`
}

// ResolveAmount applies the VAT-aware amount rule for this row (see
// resolveAmount); every financial total uses this, never the raw fields.
func (e *LedgerExpense) ResolveAmount() decimal.Decimal {
	return resolveAmount(e.VatDeductible, e.AmountWithoutVat, e.AmountWithVat, e.Amount)
}

func (e LedgerExpense) GetTenantId() string {
	return e.TenantId
}

// validate input for both create & update. (id = 0 for create)
func (input *NewLedgerExpense) validate(ctx context.Context, tenantId string, _ int) error {
	if input.Status == "" {
		input.Status = ExpenseStatusDraft
	}
	if !input.Status.Valid() {
		return utils.NewValidationError("invalid expense status")
	}
	if input.Status == ExpenseStatusRecurent || input.Status == ExpenseStatusSkipped {
		return utils.NewValidationError("status is reserved for generated obligations")
	}
	if input.Amount.IsNegative() {
		return utils.NewValidationError("amount must not be negative")
	}
	if input.AccountingPeriod != "" {
		if _, _, err := ParsePeriod(input.AccountingPeriod); err != nil {
			return utils.NewValidationError(err.Error())
		}
	}
	if input.CategoryId != nil && *input.CategoryId > 0 {
		if err := utils.ValidateResourceId[Category](ctx, tenantId, *input.CategoryId); err != nil {
			return utils.NewValidationError("category not found")
		}
	}
	if input.SubcategoryId != nil && *input.SubcategoryId > 0 {
		count, err := utils.ResourceCountWhere[Category](ctx, tenantId, "id = ? AND parent_id IS NOT NULL", *input.SubcategoryId)
		if err != nil {
			return err
		}
		if count == 0 {
			return utils.NewValidationError("subcategory not found")
		}
	}
	return nil
}

func CreateLedgerExpense(ctx context.Context, input *NewLedgerExpense) (*LedgerExpense, error) {

	tenantId, ok := utils.GetTenantIdFromContext(ctx)
	if !ok || tenantId == "" {
		return nil, errors.New("tenant id is required")
	}
	if err := input.validate(ctx, tenantId, 0); err != nil {
		return nil, err
	}

	userId, _ := utils.GetUserIdFromContext(ctx)

	expense := LedgerExpense{
		TenantId:         tenantId,
		ExpenseDate:      input.ExpenseDate,
		AccountingPeriod: input.AccountingPeriod,
		Amount:           input.Amount,
		AmountWithoutVat: input.AmountWithoutVat,
		AmountWithVat:    input.AmountWithVat,
		VatDeductible:    input.VatDeductible,
		VatRate:          input.VatRate,
		Supplier:         input.Supplier,
		SupplierCui:      input.SupplierCui,
		Description:      input.Description,
		CategoryId:       input.CategoryId,
		SubcategoryId:    input.SubcategoryId,
		Status:           input.Status,
		CreatedBy:        userId,
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&expense).Error; err != nil {
		return nil, err
	}

	InvalidateReportCache(tenantId)
	return &expense, nil
}

func UpdateLedgerExpense(ctx context.Context, id int, input *NewLedgerExpense) (*LedgerExpense, error) {

	tenantId, ok := utils.GetTenantIdFromContext(ctx)
	if !ok || tenantId == "" {
		return nil, errors.New("tenant id is required")
	}

	expense, err := utils.FetchModel[LedgerExpense](ctx, tenantId, id)
	if err != nil {
		return nil, err
	}
	if expense.Status == ExpenseStatusSkipped {
		return nil, utils.NewInvalidState("skipped months carry no editable expense")
	}
	if err := input.validate(ctx, tenantId, id); err != nil {
		return nil, err
	}

	db := config.GetDB()
	err = db.WithContext(ctx).Model(&expense).Updates(map[string]interface{}{
		"ExpenseDate":      input.ExpenseDate,
		"AccountingPeriod": input.AccountingPeriod,
		"Amount":           input.Amount,
		"AmountWithoutVat": input.AmountWithoutVat,
		"AmountWithVat":    input.AmountWithVat,
		"VatDeductible":    input.VatDeductible,
		"VatRate":          input.VatRate,
		"Supplier":         input.Supplier,
		"SupplierCui":      input.SupplierCui,
		"Description":      input.Description,
		"CategoryId":       input.CategoryId,
		"SubcategoryId":    input.SubcategoryId,
		"Status":           input.Status,
	}).Error
	if err != nil {
		return nil, err
	}

	InvalidateReportCache(tenantId)
	return expense, nil
}

// SoftDeleteLedgerExpense removes a row from every total. Deleting a
// reconciled RE-Form reopens its obligation and, while the template is
// still active, regenerates a fresh recurent row for the same period: the
// month owes money again until someone reconciles or skips it.
func SoftDeleteLedgerExpense(ctx context.Context, id int) (*LedgerExpense, error) {

	tenantId, ok := utils.GetTenantIdFromContext(ctx)
	if !ok || tenantId == "" {
		return nil, errors.New("tenant id is required")
	}

	expense, err := utils.FetchModel[LedgerExpense](ctx, tenantId, id)
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	tx := db.Begin()

	if err := tx.WithContext(ctx).Delete(&expense).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	if expense.TemplateId != nil && expense.Status.Reconciled() {
		if err := reopenInstanceForExpense(tx, ctx, tenantId, expense); err != nil {
			tx.Rollback()
			return nil, err
		}
		if err := regenerateObligation(tx, ctx, tenantId, expense); err != nil {
			tx.Rollback()
			return nil, err
		}
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	InvalidateReportCache(tenantId)
	return expense, nil
}

// regenerateObligation re-creates the recurent row for a deleted RE-Form's
// period when its template is still active.
func regenerateObligation(tx *gorm.DB, ctx context.Context, tenantId string, deleted *LedgerExpense) error {
	var template RecurringTemplate
	err := tx.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantId, *deleted.TemplateId).
		First(&template).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}
	if template.IsActive == nil || !*template.IsActive {
		return nil
	}
	year, month, err := ParsePeriod(deleted.AccountingPeriod)
	if err != nil {
		return nil
	}
	row := obligationRow(&template, time.Date(year, month, 1, 0, 0, 0, 0, time.UTC))
	_, err = insertObligation(tx, ctx, row)
	return err
}

func GetLedgerExpense(ctx context.Context, id int) (*LedgerExpense, error) {

	tenantId, ok := utils.GetTenantIdFromContext(ctx)
	if !ok || tenantId == "" {
		return nil, errors.New("tenant id is required")
	}
	return utils.FetchModel[LedgerExpense](ctx, tenantId, id)
}

// FetchPnlExpenses returns the tenant's countable, live rows attributed to
// the 24-month window of baseYear. Periods compare lexically; rows without
// a period fall back to the expense date range.
func FetchPnlExpenses(ctx context.Context, tenantId string, baseYear int) ([]*LedgerExpense, error) {

	db := config.GetDB()
	minPeriod := FormatPeriod(baseYear-1, time.January)
	maxPeriod := FormatPeriod(baseYear, time.December)
	windowStart := time.Date(baseYear-1, time.January, 1, 0, 0, 0, 0, time.UTC)
	windowEnd := time.Date(baseYear+1, time.January, 1, 0, 0, 0, 0, time.UTC)

	var results []*LedgerExpense
	err := db.WithContext(ctx).
		Where("tenant_id = ?", tenantId).
		Where("status IN ?", PnlCountableStatuses).
		Where("(accounting_period >= ? AND accounting_period <= ?) OR (accounting_period = '' AND expense_date >= ? AND expense_date < ?)",
			minPeriod, maxPeriod, windowStart, windowEnd).
		Order("expense_date").
		Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}
