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

// MonthlyRevenue is one revenue figure per tenant, month and source.
// Manual entries are upserted; future import sources get their own source
// tag and coexist without clobbering manual figures.
type MonthlyRevenue struct {
	ID        int             `gorm:"primary_key" json:"id"`
	TenantId  string          `gorm:"not null;uniqueIndex:uix_revenue_month" json:"tenant_id"`
	Year      int             `gorm:"not null;uniqueIndex:uix_revenue_month" json:"year"`
	Month     time.Month      `gorm:"not null;uniqueIndex:uix_revenue_month" json:"month"`
	Source    string          `gorm:"size:32;not null;default:manual;uniqueIndex:uix_revenue_month" json:"source"`
	Amount    decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"amount"`
	CreatedAt time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewMonthlyRevenue struct {
	Year   int             `json:"year" binding:"required"`
	Month  time.Month      `json:"month" binding:"required"`
	Amount decimal.Decimal `json:"amount"`
}

func (r MonthlyRevenue) GetTenantId() string {
	return r.TenantId
}

func (input *NewMonthlyRevenue) validate() error {
	if input.Month < time.January || input.Month > time.December {
		return utils.NewValidationError("month must be between 1 and 12")
	}
	if input.Year < 2000 || input.Year > 2100 {
		return utils.NewValidationError("year is out of range")
	}
	if input.Amount.IsNegative() {
		return utils.NewValidationError("amount must not be negative")
	}
	return nil
}

// UpsertManualRevenue writes the manual revenue figure for a month,
// replacing any previous manual entry.
func UpsertManualRevenue(ctx context.Context, input *NewMonthlyRevenue) (*MonthlyRevenue, error) {

	tenantId, ok := utils.GetTenantIdFromContext(ctx)
	if !ok || tenantId == "" {
		return nil, errors.New("tenant id is required")
	}
	if err := input.validate(); err != nil {
		return nil, err
	}

	revenue := MonthlyRevenue{
		TenantId: tenantId,
		Year:     input.Year,
		Month:    input.Month,
		Source:   RevenueSourceManual,
		Amount:   input.Amount,
	}

	db := config.GetDB()
	err := db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "tenant_id"}, {Name: "year"}, {Name: "month"}, {Name: "source"}},
		DoUpdates: clause.AssignmentColumns([]string{"amount", "updated_at"}),
	}).Create(&revenue).Error
	if err != nil {
		return nil, err
	}

	InvalidateReportCache(tenantId)
	return &revenue, nil
}

// FetchRevenues returns every revenue row for the two calendar years of a
// report window.
func FetchRevenues(ctx context.Context, tenantId string, baseYear int) ([]*MonthlyRevenue, error) {

	db := config.GetDB()
	var results []*MonthlyRevenue
	err := db.WithContext(ctx).
		Where("tenant_id = ? AND year IN ?", tenantId, []int{baseYear - 1, baseYear}).
		Order("year, month").
		Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}
