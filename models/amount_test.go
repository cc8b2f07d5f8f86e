package models

import (
	"testing"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func boolPtr(b bool) *bool { return &b }

func TestResolveAmount_VatRule(t *testing.T) {
	cases := []struct {
		name          string
		vatDeductible *bool
		withoutVat    *decimal.Decimal
		withVat       *decimal.Decimal
		amount        decimal.Decimal
		expected      string
	}{
		{"deductible uses net figure", boolPtr(true), decPtr("100"), decPtr("119"), dec("119"), "100"},
		{"non-deductible uses gross figure", boolPtr(false), decPtr("100"), decPtr("119"), dec("100"), "119"},
		{"nil flag treated as non-deductible", nil, decPtr("100"), decPtr("119"), dec("100"), "119"},
		{"deductible without net falls back to flat", boolPtr(true), nil, decPtr("119"), dec("100"), "100"},
		{"non-deductible without gross falls back to flat", boolPtr(false), decPtr("100"), nil, dec("100"), "100"},
		{"no optional figures at all", nil, nil, nil, dec("42.50"), "42.5"},
	}
	for _, tc := range cases {
		got := resolveAmount(tc.vatDeductible, tc.withoutVat, tc.withVat, tc.amount)
		if got.String() != tc.expected {
			t.Fatalf("%s: expected %s, got %s", tc.name, tc.expected, got.String())
		}
	}
}

func TestAmountDifferencePercent(t *testing.T) {
	cases := []struct {
		name     string
		expected string
		actual   string
		want     string
	}{
		{"exact match", "100", "100", "0"},
		{"ten percent over", "100", "110", "10"},
		{"ten percent under", "100", "90", "10"},
		{"fifteen percent over", "200", "230", "15"},
		{"zero expectation never diverges", "0", "500", "0"},
	}
	for _, tc := range cases {
		got := amountDifferencePercent(dec(tc.expected), dec(tc.actual))
		if !got.Equal(dec(tc.want)) {
			t.Fatalf("%s: expected %s, got %s", tc.name, tc.want, got.String())
		}
	}
}
