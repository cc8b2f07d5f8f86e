package models

import "github.com/shopspring/decimal"

// resolveAmount applies the VAT-aware amount rule used by every path that
// feeds an expense amount into a financial total: deductible VAT means the
// without-VAT figure is the real cost, otherwise the gross with-VAT figure
// is. Absent optional figures fall back to the flat amount; absent values
// never fail, they contribute zero.
func resolveAmount(vatDeductible *bool, amountWithoutVat *decimal.Decimal, amountWithVat *decimal.Decimal, amount decimal.Decimal) decimal.Decimal {
	if vatDeductible != nil && *vatDeductible {
		if amountWithoutVat != nil {
			return *amountWithoutVat
		}
		return amount
	}
	if amountWithVat != nil {
		return *amountWithVat
	}
	return amount
}

// amountDifferencePercent is |actual-expected| / expected * 100, zero when
// there was no expectation to diverge from.
func amountDifferencePercent(expected decimal.Decimal, actual decimal.Decimal) decimal.Decimal {
	if expected.IsZero() {
		return decimal.Zero
	}
	return actual.Sub(expected).Abs().Div(expected).Mul(decimal.NewFromInt(100))
}
