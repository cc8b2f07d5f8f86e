package models

import (
	"context"
	"errors"
	"time"

	"github.com/contaflow/expenses_backend/config"
	"github.com/contaflow/expenses_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm/clause"
)

// AnnualBudget holds a tenant's planned spend, one column per month.
type AnnualBudget struct {
	ID        int             `gorm:"primary_key" json:"id"`
	TenantId  string          `gorm:"not null;uniqueIndex:uix_budget_year" json:"tenant_id"`
	Year      int             `gorm:"not null;uniqueIndex:uix_budget_year" json:"year"`
	January   decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"january"`
	February  decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"february"`
	March     decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"march"`
	April     decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"april"`
	May       decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"may"`
	June      decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"june"`
	July      decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"july"`
	August    decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"august"`
	September decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"september"`
	October   decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"october"`
	November  decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"november"`
	December  decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"december"`
	CreatedAt time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewAnnualBudget struct {
	Year   int               `json:"year" binding:"required"`
	Months []decimal.Decimal `json:"months" binding:"required"`
}

func (b AnnualBudget) GetTenantId() string {
	return b.TenantId
}

// MonthAmount returns the planned spend for a calendar month.
func (b *AnnualBudget) MonthAmount(month time.Month) decimal.Decimal {
	switch month {
	case time.January:
		return b.January
	case time.February:
		return b.February
	case time.March:
		return b.March
	case time.April:
		return b.April
	case time.May:
		return b.May
	case time.June:
		return b.June
	case time.July:
		return b.July
	case time.August:
		return b.August
	case time.September:
		return b.September
	case time.October:
		return b.October
	case time.November:
		return b.November
	case time.December:
		return b.December
	}
	return decimal.Zero
}

// UpsertAnnualBudget replaces the tenant's budget for a year. Months must
// carry exactly twelve figures, January first.
func UpsertAnnualBudget(ctx context.Context, input *NewAnnualBudget) (*AnnualBudget, error) {

	tenantId, ok := utils.GetTenantIdFromContext(ctx)
	if !ok || tenantId == "" {
		return nil, errors.New("tenant id is required")
	}
	if len(input.Months) != 12 {
		return nil, utils.NewValidationError("budget must carry twelve monthly figures")
	}
	if input.Year < 2000 || input.Year > 2100 {
		return nil, utils.NewValidationError("year is out of range")
	}
	for _, amount := range input.Months {
		if amount.IsNegative() {
			return nil, utils.NewValidationError("budget figures must not be negative")
		}
	}

	budget := AnnualBudget{
		TenantId:  tenantId,
		Year:      input.Year,
		January:   input.Months[0],
		February:  input.Months[1],
		March:     input.Months[2],
		April:     input.Months[3],
		May:       input.Months[4],
		June:      input.Months[5],
		July:      input.Months[6],
		August:    input.Months[7],
		September: input.Months[8],
		October:   input.Months[9],
		November:  input.Months[10],
		December:  input.Months[11],
	}

	db := config.GetDB()
	err := db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "tenant_id"}, {Name: "year"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"january", "february", "march", "april", "may", "june",
			"july", "august", "september", "october", "november", "december",
			"updated_at",
		}),
	}).Create(&budget).Error
	if err != nil {
		return nil, err
	}

	InvalidateReportCache(tenantId)
	return &budget, nil
}

// FetchBudgets returns the budgets covering a report window, keyed by year.
func FetchBudgets(ctx context.Context, tenantId string, baseYear int) (map[int]*AnnualBudget, error) {

	db := config.GetDB()
	var results []*AnnualBudget
	err := db.WithContext(ctx).
		Where("tenant_id = ? AND year IN ?", tenantId, []int{baseYear - 1, baseYear}).
		Find(&results).Error
	if err != nil {
		return nil, err
	}

	byYear := make(map[int]*AnnualBudget, len(results))
	for _, budget := range results {
		byYear[budget.Year] = budget
	}
	return byYear, nil
}
