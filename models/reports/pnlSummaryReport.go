package reports

import (
	"context"
	"errors"
	"time"

	"github.com/contaflow/expenses_backend/models"
	"github.com/contaflow/expenses_backend/utils"
	"github.com/shopspring/decimal"
)

// PnlMonthSummary condenses one base-year month to its headline figures.
type PnlMonthSummary struct {
	AccountingPeriod string          `json:"accounting_period"`
	Revenue          decimal.Decimal `json:"revenue"`
	Expenses         decimal.Decimal `json:"expenses"`
	Budget           decimal.Decimal `json:"budget"`
	Profit           decimal.Decimal `json:"profit"`
	BudgetDelta      decimal.Decimal `json:"budget_delta"`
}

// PnlSummary is the base year at a glance: twelve month summaries plus
// year-to-date totals. Margin is only meaningful with revenue on the books.
type PnlSummary struct {
	BaseYear      int                `json:"base_year"`
	Months        []*PnlMonthSummary `json:"months"`
	YtdRevenue    decimal.Decimal    `json:"ytd_revenue"`
	YtdExpenses   decimal.Decimal    `json:"ytd_expenses"`
	YtdProfit     decimal.Decimal    `json:"ytd_profit"`
	MarginPercent *decimal.Decimal   `json:"margin_percent,omitempty"`
}

// summarizePnl condenses an aggregate's base-year half into the summary.
func summarizePnl(aggregate *PnlAggregate) *PnlSummary {
	summary := &PnlSummary{
		BaseYear:    aggregate.BaseYear,
		YtdRevenue:  decimal.Zero,
		YtdExpenses: decimal.Zero,
	}

	for month := time.January; month <= time.December; month++ {
		idx := 12 + int(month) - 1
		row := &PnlMonthSummary{
			AccountingPeriod: models.FormatPeriod(aggregate.BaseYear, month),
			Revenue:          aggregate.RevenueByMonth[idx],
			Expenses:         aggregate.ExpensesByMonth[idx],
			Budget:           aggregate.BudgetByMonth[idx],
			Profit:           aggregate.ProfitByMonth[idx],
			BudgetDelta:      aggregate.BudgetByMonth[idx].Sub(aggregate.ExpensesByMonth[idx]),
		}
		summary.Months = append(summary.Months, row)
		summary.YtdRevenue = summary.YtdRevenue.Add(row.Revenue)
		summary.YtdExpenses = summary.YtdExpenses.Add(row.Expenses)
	}

	summary.YtdProfit = summary.YtdRevenue.Sub(summary.YtdExpenses)
	if summary.YtdRevenue.IsPositive() {
		margin := summary.YtdProfit.Div(summary.YtdRevenue).Mul(decimal.NewFromInt(100)).Round(2)
		summary.MarginPercent = &margin
	}
	return summary
}

func GetPnlSummary(ctx context.Context, baseYear int) (*PnlSummary, error) {

	tenantId, ok := utils.GetTenantIdFromContext(ctx)
	if !ok || tenantId == "" {
		return nil, errors.New("tenant id is required")
	}

	aggregate, err := GetPnlReport(ctx, baseYear)
	if err != nil {
		return nil, err
	}
	return summarizePnl(aggregate), nil
}
