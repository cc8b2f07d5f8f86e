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

// RecurringTemplate is the blueprint for a monthly obligation. Financial
// terms never change in place: revising them creates a new version row and
// retires this one, so historical RE-Forms keep pointing at the terms they
// were generated from.
type RecurringTemplate struct {
	ID                   int              `gorm:"primary_key" json:"id"`
	TenantId             string           `gorm:"index;not null" json:"tenant_id"`
	Name                 string           `gorm:"size:255;not null" json:"name" binding:"required"`
	Supplier             string           `gorm:"size:255;not null" json:"supplier" binding:"required"`
	SupplierCui          *string          `gorm:"size:32" json:"supplier_cui"`
	Description          string           `gorm:"type:text" json:"description"`
	CategoryId           *int             `gorm:"index" json:"category_id"`
	SubcategoryId        *int             `gorm:"index" json:"subcategory_id"`
	Amount               decimal.Decimal  `gorm:"type:decimal(20,4);default:0" json:"amount"`
	AmountWithoutVat     *decimal.Decimal `gorm:"type:decimal(20,4)" json:"amount_without_vat"`
	AmountWithVat        *decimal.Decimal `gorm:"type:decimal(20,4)" json:"amount_with_vat"`
	VatDeductible        *bool            `gorm:"not null;default:false" json:"vat_deductible"`
	VatRate              *decimal.Decimal `gorm:"type:decimal(5,2)" json:"vat_rate"`
	DayOfMonth           int              `gorm:"not null;default:1" json:"day_of_month"`
	StartDate            time.Time        `gorm:"not null" json:"start_date" binding:"required"`
	EndDate              *time.Time       `json:"end_date"`
	IsActive             *bool            `gorm:"not null;default:true" json:"is_active"`
	Version              int              `gorm:"not null;default:1" json:"version"`
	SupersededTemplateId *int             `gorm:"index" json:"superseded_template_id"`
	SupersededAt         *time.Time       `json:"superseded_at"`
	Tags                 []string         `gorm:"serializer:json" json:"tags"`
	CreatedBy            int              `json:"created_by"`
	CreatedAt            time.Time        `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt            time.Time        `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewRecurringTemplate struct {
	Name             string           `json:"name" binding:"required"`
	Supplier         string           `json:"supplier" binding:"required"`
	SupplierCui      *string          `json:"supplier_cui"`
	Description      string           `json:"description"`
	CategoryId       *int             `json:"category_id"`
	SubcategoryId    *int             `json:"subcategory_id"`
	Amount           decimal.Decimal  `json:"amount"`
	AmountWithoutVat *decimal.Decimal `json:"amount_without_vat"`
	AmountWithVat    *decimal.Decimal `json:"amount_with_vat"`
	VatDeductible    *bool            `json:"vat_deductible"`
	VatRate          *decimal.Decimal `json:"vat_rate"`
	DayOfMonth       int              `json:"day_of_month"`
	StartDate        time.Time        `json:"start_date" binding:"required"`
	EndDate          *time.Time       `json:"end_date"`
	Tags             []string         `json:"tags"`
}

func (t RecurringTemplate) GetTenantId() string {
	return t.TenantId
}

// ResolveAmount is the expected monthly amount under the VAT rule.
func (t *RecurringTemplate) ResolveAmount() decimal.Decimal {
	return resolveAmount(t.VatDeductible, t.AmountWithoutVat, t.AmountWithVat, t.Amount)
}

func (input *NewRecurringTemplate) validate(ctx context.Context, tenantId string) error {
	if input.DayOfMonth == 0 {
		input.DayOfMonth = 1
	}
	if input.DayOfMonth < 1 || input.DayOfMonth > 31 {
		return utils.NewValidationError("day of month must be between 1 and 31")
	}
	if input.Amount.IsNegative() {
		return utils.NewValidationError("amount must not be negative")
	}
	if input.EndDate != nil && input.EndDate.Before(input.StartDate) {
		return utils.NewValidationError("end date must not precede start date")
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

// requireAdminOrCreator gates destructive template operations.
func requireAdminOrCreator(ctx context.Context, createdBy int) error {
	if isAdmin, _ := utils.GetIsAdminFromContext(ctx); isAdmin {
		return nil
	}
	if userId, ok := utils.GetUserIdFromContext(ctx); ok && userId == createdBy {
		return nil
	}
	return errors.New("only an admin or the creator may modify this template")
}

func CreateRecurringTemplate(ctx context.Context, input *NewRecurringTemplate) (*RecurringTemplate, error) {

	tenantId, ok := utils.GetTenantIdFromContext(ctx)
	if !ok || tenantId == "" {
		return nil, errors.New("tenant id is required")
	}
	if err := input.validate(ctx, tenantId); err != nil {
		return nil, err
	}

	userId, _ := utils.GetUserIdFromContext(ctx)

	template := RecurringTemplate{
		TenantId:         tenantId,
		Name:             input.Name,
		Supplier:         input.Supplier,
		SupplierCui:      input.SupplierCui,
		Description:      input.Description,
		CategoryId:       input.CategoryId,
		SubcategoryId:    input.SubcategoryId,
		Amount:           input.Amount,
		AmountWithoutVat: input.AmountWithoutVat,
		AmountWithVat:    input.AmountWithVat,
		VatDeductible:    input.VatDeductible,
		VatRate:          input.VatRate,
		DayOfMonth:       input.DayOfMonth,
		StartDate:        input.StartDate,
		EndDate:          input.EndDate,
		IsActive:         utils.NewTrue(),
		Version:          1,
		Tags:             input.Tags,
		CreatedBy:        userId,
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&template).Error; err != nil {
		return nil, err
	}
	return &template, nil
}

// UpdateRecurringTemplate edits descriptive fields in place. Financial terms
// (amounts, VAT treatment) go through ReviseRecurringTemplate instead.
func UpdateRecurringTemplate(ctx context.Context, id int, input *NewRecurringTemplate) (*RecurringTemplate, error) {

	tenantId, ok := utils.GetTenantIdFromContext(ctx)
	if !ok || tenantId == "" {
		return nil, errors.New("tenant id is required")
	}

	template, err := utils.FetchModel[RecurringTemplate](ctx, tenantId, id)
	if err != nil {
		return nil, err
	}
	if template.SupersededAt != nil {
		return nil, utils.NewInvalidState("template has been superseded by a newer version")
	}
	if err := input.validate(ctx, tenantId); err != nil {
		return nil, err
	}

	db := config.GetDB()
	err = db.WithContext(ctx).Model(&template).Updates(map[string]interface{}{
		"Name":          input.Name,
		"Supplier":      input.Supplier,
		"SupplierCui":   input.SupplierCui,
		"Description":   input.Description,
		"CategoryId":    input.CategoryId,
		"SubcategoryId": input.SubcategoryId,
		"DayOfMonth":    input.DayOfMonth,
		"StartDate":     input.StartDate,
		"EndDate":       input.EndDate,
		"Tags":          input.Tags,
	}).Error
	if err != nil {
		return nil, err
	}

	if err := utils.RemoveRedis[RecurringTemplate](id); err != nil {
		return nil, err
	}
	return template, nil
}

// validateRevisionStart rejects revisions that would rewrite months already
// closed out. The floor is the earliest month still open for edits.
func validateRevisionStart(startDate, floor time.Time) error {
	if startDate.Before(floor) {
		return utils.NewInvalidState("start date is earlier than the earliest editable month")
	}
	return nil
}

// nextTemplateVersion builds the successor row for a revision. The new
// version carries the back-pointer to the row it replaces; the old row is
// only retired, never rewritten.
func nextTemplateVersion(old *RecurringTemplate, input *NewRecurringTemplate, userId int) RecurringTemplate {
	oldId := old.ID
	return RecurringTemplate{
		TenantId:             old.TenantId,
		Name:                 input.Name,
		Supplier:             input.Supplier,
		SupplierCui:          input.SupplierCui,
		Description:          input.Description,
		CategoryId:           input.CategoryId,
		SubcategoryId:        input.SubcategoryId,
		Amount:               input.Amount,
		AmountWithoutVat:     input.AmountWithoutVat,
		AmountWithVat:        input.AmountWithVat,
		VatDeductible:        input.VatDeductible,
		VatRate:              input.VatRate,
		DayOfMonth:           input.DayOfMonth,
		StartDate:            input.StartDate,
		EndDate:              input.EndDate,
		IsActive:             old.IsActive,
		Version:              old.Version + 1,
		SupersededTemplateId: &oldId,
		Tags:                 input.Tags,
		CreatedBy:            userId,
	}
}

// ReviseRecurringTemplate replaces a template's financial terms by creating
// a new version. The new row points back at the one it supersedes; open
// obligations migrate to the new version so that unreconciled months pick up
// the revised expected amount. Reconciled history stays untouched.
func ReviseRecurringTemplate(ctx context.Context, id int, input *NewRecurringTemplate) (*RecurringTemplate, error) {

	tenantId, ok := utils.GetTenantIdFromContext(ctx)
	if !ok || tenantId == "" {
		return nil, errors.New("tenant id is required")
	}

	old, err := utils.FetchModel[RecurringTemplate](ctx, tenantId, id)
	if err != nil {
		return nil, err
	}
	if err := requireAdminOrCreator(ctx, old.CreatedBy); err != nil {
		return nil, err
	}
	if old.SupersededAt != nil {
		return nil, utils.NewInvalidState("template has been superseded by a newer version")
	}
	if err := input.validate(ctx, tenantId); err != nil {
		return nil, err
	}

	userId, _ := utils.GetUserIdFromContext(ctx)
	now := time.Now().UTC()

	// a revision may not rewrite months that are already settled
	reconciled, err := utils.ResourceCountWhere[RecurringInstance](ctx, tenantId,
		"template_id = ? AND accounting_period = ? AND status = ?", old.ID, PeriodOf(now), InstanceStatusClosed)
	if err != nil {
		return nil, err
	}
	if err := validateRevisionStart(input.StartDate, earliestEditableMonth(now, reconciled > 0)); err != nil {
		return nil, err
	}

	next := nextTemplateVersion(old, input, userId)

	db := config.GetDB()
	tx := db.Begin()

	if err := tx.WithContext(ctx).Create(&next).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	err = tx.WithContext(ctx).Model(&RecurringTemplate{}).
		Where("tenant_id = ? AND id = ?", tenantId, old.ID).
		Updates(map[string]interface{}{
			"IsActive":     false,
			"SupersededAt": now,
		}).Error
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	// open and skipped obligations follow the chain head; reconciled ones
	// keep the version they were settled under
	err = tx.WithContext(ctx).Model(&RecurringInstance{}).
		Where("tenant_id = ? AND template_id = ? AND status IN ?", tenantId, old.ID,
			[]InstanceStatus{InstanceStatusOpen, InstanceStatusSkipped}).
		Updates(map[string]interface{}{
			"TemplateId":            next.ID,
			"ExpectedAmount":        next.ResolveAmount(),
			"ExpectedSupplier":      next.Supplier,
			"ExpectedCategoryId":    next.CategoryId,
			"ExpectedSubcategoryId": next.SubcategoryId,
		}).Error
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	// as do their still-unreconciled ledger rows
	err = tx.WithContext(ctx).Model(&LedgerExpense{}).
		Where("tenant_id = ? AND template_id = ? AND status IN ?", tenantId, old.ID,
			[]ExpenseStatus{ExpenseStatusRecurent, ExpenseStatusSkipped}).
		Updates(map[string]interface{}{
			"TemplateId":       next.ID,
			"Amount":           next.Amount,
			"AmountWithoutVat": next.AmountWithoutVat,
			"AmountWithVat":    next.AmountWithVat,
			"VatDeductible":    next.VatDeductible,
			"VatRate":          next.VatRate,
			"Supplier":         next.Supplier,
			"SupplierCui":      next.SupplierCui,
			"CategoryId":       next.CategoryId,
			"SubcategoryId":    next.SubcategoryId,
		}).Error
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	if err := utils.RemoveRedis[RecurringTemplate](old.ID); err != nil {
		return nil, err
	}
	InvalidateReportCache(tenantId)
	return &next, nil
}

// DeactivateRecurringTemplate stops future generation. Already-open
// obligations stay open: the months that owe money still owe it.
func DeactivateRecurringTemplate(ctx context.Context, id int) (*RecurringTemplate, error) {
	return setTemplateActive(ctx, id, false)
}

func ReactivateRecurringTemplate(ctx context.Context, id int) (*RecurringTemplate, error) {
	return setTemplateActive(ctx, id, true)
}

func setTemplateActive(ctx context.Context, id int, active bool) (*RecurringTemplate, error) {

	tenantId, ok := utils.GetTenantIdFromContext(ctx)
	if !ok || tenantId == "" {
		return nil, errors.New("tenant id is required")
	}

	template, err := utils.FetchModel[RecurringTemplate](ctx, tenantId, id)
	if err != nil {
		return nil, err
	}
	if err := requireAdminOrCreator(ctx, template.CreatedBy); err != nil {
		return nil, err
	}
	if active && template.SupersededAt != nil {
		return nil, utils.NewInvalidState("only the newest version of a template can be reactivated")
	}

	db := config.GetDB()
	err = db.WithContext(ctx).Model(&template).Update("IsActive", active).Error
	if err != nil {
		return nil, err
	}

	if err := utils.RemoveRedis[RecurringTemplate](id); err != nil {
		return nil, err
	}
	return template, nil
}

// DeleteRecurringTemplate removes a template that has no reconciled history.
// Its generated obligations and pending recurent rows go with it.
func DeleteRecurringTemplate(ctx context.Context, id int) (*RecurringTemplate, error) {

	tenantId, ok := utils.GetTenantIdFromContext(ctx)
	if !ok || tenantId == "" {
		return nil, errors.New("tenant id is required")
	}

	template, err := utils.FetchModel[RecurringTemplate](ctx, tenantId, id)
	if err != nil {
		return nil, err
	}
	if err := requireAdminOrCreator(ctx, template.CreatedBy); err != nil {
		return nil, err
	}

	reconciled, err := utils.ResourceCountWhere[LedgerExpense](ctx, tenantId,
		"template_id = ? AND status NOT IN ?", id, []ExpenseStatus{ExpenseStatusRecurent, ExpenseStatusSkipped})
	if err != nil {
		return nil, err
	}
	if reconciled > 0 {
		return nil, utils.NewInvalidState("template has reconciled expenses; deactivate it instead")
	}

	db := config.GetDB()
	tx := db.Begin()

	err = tx.WithContext(ctx).
		Where("tenant_id = ? AND template_id = ?", tenantId, id).
		Delete(&LedgerExpense{}).Error
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	err = tx.WithContext(ctx).
		Where("tenant_id = ? AND template_id = ?", tenantId, id).
		Delete(&RecurringInstance{}).Error
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.WithContext(ctx).Delete(&template).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	if err := utils.RemoveRedis[RecurringTemplate](id); err != nil {
		return nil, err
	}
	InvalidateReportCache(tenantId)
	return template, nil
}

func GetRecurringTemplate(ctx context.Context, id int) (*RecurringTemplate, error) {
	return GetResource[RecurringTemplate](ctx, id)
}

func GetRecurringTemplates(ctx context.Context, activeOnly bool) ([]*RecurringTemplate, error) {

	tenantId, ok := utils.GetTenantIdFromContext(ctx)
	if !ok || tenantId == "" {
		return nil, errors.New("tenant id is required")
	}

	db := config.GetDB()
	dbCtx := db.WithContext(ctx).Where("tenant_id = ?", tenantId)
	if activeOnly {
		dbCtx = dbCtx.Where("is_active = ?", true)
	}

	var results []*RecurringTemplate
	if err := dbCtx.Order("name").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

// currentTemplateVersion follows the supersession chain to its head: each
// successor points back at the row it replaced, so the walk queries forward
// for the row whose back-pointer names the current one.
func currentTemplateVersion(ctx context.Context, db *gorm.DB, tenantId string, id int) (*RecurringTemplate, error) {
	var template RecurringTemplate
	err := db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantId, id).
		First(&template).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.ErrorRecordNotFound
		}
		return nil, err
	}
	for template.SupersededAt != nil {
		var next RecurringTemplate
		err := db.WithContext(ctx).
			Where("tenant_id = ? AND superseded_template_id = ?", tenantId, template.ID).
			First(&next).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				break
			}
			return nil, err
		}
		template = next
	}
	return &template, nil
}

// GetTemplateVersionHistory lists the whole version chain that contains id,
// oldest first.
func GetTemplateVersionHistory(ctx context.Context, id int) ([]*RecurringTemplate, error) {

	tenantId, ok := utils.GetTenantIdFromContext(ctx)
	if !ok || tenantId == "" {
		return nil, errors.New("tenant id is required")
	}

	db := config.GetDB()
	head, err := currentTemplateVersion(ctx, db, tenantId, id)
	if err != nil {
		return nil, err
	}

	chain := []*RecurringTemplate{head}
	prevId := head.SupersededTemplateId
	for prevId != nil {
		var prev RecurringTemplate
		err := db.WithContext(ctx).
			Where("tenant_id = ? AND id = ?", tenantId, *prevId).
			First(&prev).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				break
			}
			return nil, err
		}
		chain = append([]*RecurringTemplate{&prev}, chain...)
		prevId = prev.SupersededTemplateId
	}
	return chain, nil
}
