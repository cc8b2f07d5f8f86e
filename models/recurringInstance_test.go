package models

import "testing"

func TestConversionDecision(t *testing.T) {
	cases := []struct {
		name        string
		expected    string
		actual      string
		wantDiff    string
		wantConfirm bool
	}{
		{"exact match sails through", "100", "100", "0", false},
		{"9.5 percent drift is within tolerance", "100", "109.50", "9.5", false},
		{"exactly 10 percent is still within tolerance", "100", "110", "10", false},
		{"15 percent drift requires confirmation", "200", "230", "15", true},
		{"undershooting counts the same as overshooting", "100", "80", "20", true},
		{"zero expectation never asks", "0", "750", "0", false},
	}
	for _, tc := range cases {
		diff, confirm := conversionDecision(dec(tc.expected), dec(tc.actual))
		if !diff.Equal(dec(tc.wantDiff)) {
			t.Fatalf("%s: expected diff %s, got %s", tc.name, tc.wantDiff, diff.String())
		}
		if confirm != tc.wantConfirm {
			t.Fatalf("%s: expected confirm=%v, got %v", tc.name, tc.wantConfirm, confirm)
		}
	}
}

// An out-of-tolerance settlement suggests revising the template whether the
// caller confirmed it or not; within tolerance it never does.
func TestConversionResponse(t *testing.T) {
	cases := []struct {
		name           string
		diff           string
		outOfTolerance bool
		confirmed      bool
		wantPending    bool
		wantSuggest    bool
	}{
		{"within tolerance proceeds quietly", "4", false, false, false, false},
		{"drift without confirmation holds the books", "15", true, false, true, true},
		{"confirmed drift proceeds but still suggests a new version", "15", true, true, false, true},
		{"confirmation flag alone changes nothing in tolerance", "4", false, true, false, false},
	}
	for _, tc := range cases {
		result := conversionResponse(dec(tc.diff), tc.outOfTolerance, tc.confirmed)
		if result.RequiresConfirmation != tc.wantPending {
			t.Fatalf("%s: expected requires_confirmation=%v, got %v", tc.name, tc.wantPending, result.RequiresConfirmation)
		}
		if result.SuggestNewTemplate != tc.wantSuggest {
			t.Fatalf("%s: expected suggest_new_template=%v, got %v", tc.name, tc.wantSuggest, result.SuggestNewTemplate)
		}
		if !result.DifferencePercent.Equal(dec(tc.diff)) {
			t.Fatalf("%s: expected diff %s, got %s", tc.name, tc.diff, result.DifferencePercent)
		}
	}
}

func TestConvertInputRequiresActualAmount(t *testing.T) {
	cases := []struct {
		name  string
		input ConvertRecurringInput
		want  bool
	}{
		{"no amounts at all", ConvertRecurringInput{}, false},
		{"zero flat amount only", ConvertRecurringInput{Amount: dec("0")}, false},
		{"flat amount", ConvertRecurringInput{Amount: dec("120")}, true},
		{"net amount only", ConvertRecurringInput{AmountWithoutVat: decPtr("100")}, true},
		{"gross amount only", ConvertRecurringInput{AmountWithVat: decPtr("119")}, true},
	}
	for _, tc := range cases {
		if got := tc.input.hasActualAmount(); got != tc.want {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, got)
		}
	}
}
