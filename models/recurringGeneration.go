package models

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bsm/redislock"
	"github.com/contaflow/expenses_backend/config"
	"github.com/contaflow/expenses_backend/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GenerationSummary reports one monthly generation run.
type GenerationSummary struct {
	AccountingPeriod string `json:"accounting_period"`
	Created          int    `json:"created"`
	AlreadyExisted   int    `json:"already_existed"`
	Ineligible       int    `json:"ineligible"`
}

// generationEligible says whether a template owes an obligation for the
// month starting at firstOfMonth. Months before the start date never
// qualify; an end date cuts generation off after its month.
func generationEligible(t *RecurringTemplate, firstOfMonth time.Time) bool {
	if t.IsActive == nil || !*t.IsActive {
		return false
	}
	if t.SupersededAt != nil {
		return false
	}
	if firstOfMonth.Before(FirstOfMonth(t.StartDate)) {
		return false
	}
	if t.EndDate != nil && firstOfMonth.After(FirstOfMonth(*t.EndDate)) {
		return false
	}
	return true
}

// obligationRow builds the recurent ledger row a template owes for the
// month. The document date is the template's day-of-month clamped to the
// month's length.
func obligationRow(t *RecurringTemplate, firstOfMonth time.Time) *LedgerExpense {
	year, month := firstOfMonth.Year(), firstOfMonth.Month()
	lastDay := time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
	day := t.DayOfMonth
	if day > lastDay {
		day = lastDay
	}

	templateId := t.ID
	return &LedgerExpense{
		TenantId:         t.TenantId,
		TemplateId:       &templateId,
		AccountingPeriod: FormatPeriod(year, month),
		ExpenseDate:      time.Date(year, month, day, 0, 0, 0, 0, time.UTC),
		Amount:           t.Amount,
		AmountWithoutVat: t.AmountWithoutVat,
		AmountWithVat:    t.AmountWithVat,
		VatDeductible:    t.VatDeductible,
		VatRate:          t.VatRate,
		Supplier:         t.Supplier,
		SupplierCui:      t.SupplierCui,
		Description:      t.Description,
		CategoryId:       t.CategoryId,
		SubcategoryId:    t.SubcategoryId,
		Status:           ExpenseStatusRecurent,
		CreatedBy:        t.CreatedBy,
	}
}

// insertObligation writes the recurent row and its tracking instance.
// The insert is idempotent: the unique index over (template_id,
// accounting_period, deleted_at) absorbs concurrent runs, and a losing
// insert leaves the month exactly as the winner made it.
func insertObligation(tx *gorm.DB, ctx context.Context, row *LedgerExpense) (bool, error) {
	result := tx.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(row)
	if result.Error != nil {
		return false, result.Error
	}
	if result.RowsAffected == 0 {
		return false, nil
	}

	var template RecurringTemplate
	err := tx.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", row.TenantId, *row.TemplateId).
		First(&template).Error
	if err != nil {
		return false, err
	}

	instance := RecurringInstance{
		TenantId:         row.TenantId,
		TemplateId:       *row.TemplateId,
		AccountingPeriod: row.AccountingPeriod,
	}
	err = tx.WithContext(ctx).
		Where("tenant_id = ? AND template_id = ? AND accounting_period = ?",
			row.TenantId, *row.TemplateId, row.AccountingPeriod).
		FirstOrCreate(&instance).Error
	if err != nil {
		return false, err
	}

	err = tx.WithContext(ctx).Model(&instance).Updates(map[string]interface{}{
		"Status":                InstanceStatusOpen,
		"ExpectedAmount":        template.ResolveAmount(),
		"ExpectedSupplier":      template.Supplier,
		"ExpectedCategoryId":    template.CategoryId,
		"ExpectedSubcategoryId": template.SubcategoryId,
		"RecurentExpenseId":     row.ID,
		"FinalExpenseId":        nil,
		"AmountDifferencePct":   nil,
		"ConvertedAt":           nil,
		"ConvertedBy":           nil,
	}).Error
	if err != nil {
		return false, err
	}
	return true, nil
}

// GenerateMonthlyObligations materializes every active template's recurent
// row for the period. A per-tenant redis lock keeps scheduled and manual
// runs from working the same month at once; if redis is unavailable the run
// proceeds anyway, since the unique index already makes duplicates
// impossible.
func GenerateMonthlyObligations(ctx context.Context, period string) (*GenerationSummary, error) {

	tenantId, ok := utils.GetTenantIdFromContext(ctx)
	if !ok || tenantId == "" {
		return nil, errors.New("tenant id is required")
	}

	year, month, err := ParsePeriod(period)
	if err != nil {
		return nil, utils.NewValidationError(err.Error())
	}
	firstOfMonth := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)

	if locker := config.GetRedisLock(); locker != nil {
		lockKey := fmt.Sprintf("genlock:%s:%s", tenantId, period)
		lock, err := locker.Obtain(ctx, lockKey, 30*time.Second, nil)
		if err == nil {
			defer lock.Release(context.WithoutCancel(ctx))
		} else if errors.Is(err, redislock.ErrNotObtained) {
			return nil, utils.NewInvalidState("generation is already running for this month")
		}
	}

	templates, err := GetRecurringTemplates(ctx, true)
	if err != nil {
		return nil, err
	}

	summary := GenerationSummary{AccountingPeriod: period}

	db := config.GetDB()
	for _, template := range templates {
		if !generationEligible(template, firstOfMonth) {
			summary.Ineligible++
			continue
		}

		err := db.Transaction(func(tx *gorm.DB) error {
			created, err := insertObligation(tx, ctx, obligationRow(template, firstOfMonth))
			if err != nil {
				return err
			}
			if created {
				summary.Created++
			} else {
				summary.AlreadyExisted++
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	if summary.Created > 0 {
		InvalidateReportCache(tenantId)
	}
	return &summary, nil
}

// skipAllowed is the state check for declaring that a month's cost did not
// occur. Reconciled months are immutable history.
func skipAllowed(instance *RecurringInstance) error {
	switch instance.Status {
	case InstanceStatusClosed:
		return utils.NewInvalidState("reconciled months cannot be skipped")
	case InstanceStatusSkipped:
		return utils.NewInvalidState("month is already skipped")
	}
	if instance.RecurentExpenseId == nil {
		return utils.NewInvalidState("obligation has no pending expense row")
	}
	return nil
}

// unskipAllowed is the state check for making a skipped month owe again.
func unskipAllowed(instance *RecurringInstance) error {
	if instance.Status != InstanceStatusSkipped {
		return utils.NewInvalidState("only a skipped month can be unskipped")
	}
	if instance.RecurentExpenseId == nil {
		return utils.NewInvalidState("obligation has no pending expense row")
	}
	return nil
}

// monthInstance addresses one template-month obligation.
func monthInstance(ctx context.Context, tenantId string, templateId, year int, month time.Month) (*RecurringInstance, error) {
	var instance RecurringInstance
	err := config.GetDB().WithContext(ctx).
		Where("tenant_id = ? AND template_id = ? AND accounting_period = ?",
			tenantId, templateId, FormatPeriod(year, month)).
		First(&instance).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.ErrorRecordNotFound
		}
		return nil, err
	}
	return &instance, nil
}

// SkipRecurringMonth declares that a template's cost did not occur for the
// month. The recurent row flips to skipped and drops out of every total;
// the obligation itself is marked skipped, not closed, since nothing
// settled it.
func SkipRecurringMonth(ctx context.Context, templateId, year int, month time.Month) (*RecurringInstance, error) {

	tenantId, ok := utils.GetTenantIdFromContext(ctx)
	if !ok || tenantId == "" {
		return nil, errors.New("tenant id is required")
	}

	instance, err := monthInstance(ctx, tenantId, templateId, year, month)
	if err != nil {
		return nil, err
	}
	if err := skipAllowed(instance); err != nil {
		return nil, err
	}

	db := config.GetDB()
	err = db.Transaction(func(tx *gorm.DB) error {
		result := tx.WithContext(ctx).Model(&LedgerExpense{}).
			Where("tenant_id = ? AND id = ? AND status = ?", tenantId, *instance.RecurentExpenseId, ExpenseStatusRecurent).
			Update("Status", ExpenseStatusSkipped)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return utils.NewInvalidState("reconciled months cannot be skipped")
		}
		return tx.WithContext(ctx).Model(&instance).
			Update("Status", InstanceStatusSkipped).Error
	})
	if err != nil {
		return nil, err
	}

	InvalidateReportCache(tenantId)
	return instance, nil
}

// UnskipRecurringMonth reverses a skip: the month owes money again.
func UnskipRecurringMonth(ctx context.Context, templateId, year int, month time.Month) (*RecurringInstance, error) {

	tenantId, ok := utils.GetTenantIdFromContext(ctx)
	if !ok || tenantId == "" {
		return nil, errors.New("tenant id is required")
	}

	instance, err := monthInstance(ctx, tenantId, templateId, year, month)
	if err != nil {
		return nil, err
	}
	if err := unskipAllowed(instance); err != nil {
		return nil, err
	}

	db := config.GetDB()
	err = db.Transaction(func(tx *gorm.DB) error {
		result := tx.WithContext(ctx).Model(&LedgerExpense{}).
			Where("tenant_id = ? AND id = ? AND status = ?", tenantId, *instance.RecurentExpenseId, ExpenseStatusSkipped).
			Update("Status", ExpenseStatusRecurent)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return utils.NewInvalidState("only a skipped month can be unskipped")
		}
		return tx.WithContext(ctx).Model(&instance).
			Update("Status", InstanceStatusOpen).Error
	})
	if err != nil {
		return nil, err
	}

	InvalidateReportCache(tenantId)
	return instance, nil
}
