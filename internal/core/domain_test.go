package core

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func amt(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestRuleValidate(t *testing.T) {
	good := Rule{
		ID:         NewRuleID(),
		Name:       "Rent",
		Amount:     amt("-1200"),
		Recurrence: Monthly,
		Category:   Rent,
		Anchor:     NewDate(2024, 1, 31),
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bads := []struct {
		mutate func(*Rule)
		want   error
	}{
		{func(r *Rule) { r.Name = "  " }, ErrEmptyName},
		{func(r *Rule) { r.Amount = decimal.Zero }, ErrZeroAmount},
		{func(r *Rule) { r.Recurrence = "fortnightly" }, ErrInvalidRecurrence},
		{func(r *Rule) { r.Category = "misc" }, ErrInvalidCategory},
		{func(r *Rule) { r.Anchor = Date{} }, ErrInvalidDate},
	}
	for i, tc := range bads {
		r := good
		tc.mutate(&r)
		err := r.Validate()
		if err == nil {
			t.Fatalf("case %d expected error", i)
		}
		if !errors.Is(err, tc.want) {
			t.Fatalf("case %d: got %v, want %v", i, err, tc.want)
		}
	}
}

func TestRuleValidateEndBeforeAnchorIsNotAnError(t *testing.T) {
	r := Rule{
		ID:         NewRuleID(),
		Name:       "Short lived",
		Amount:     amt("5"),
		Recurrence: Daily,
		Category:   Other,
		Anchor:     NewDate(2024, 6, 10),
		End:        NewDate(2024, 6, 1),
	}
	// The evaluator simply yields no occurrences for such a rule.
	if err := r.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if OccursOn(r, NewDate(2024, 6, 10)) {
		t.Fatalf("rule with end before anchor should never occur")
	}
}

func TestParseRecurrence(t *testing.T) {
	tests := []struct {
		in   string
		want Recurrence
		ok   bool
	}{
		{"one-time", OneTime, true},
		{"  Monthly ", Monthly, true},
		{"BIWEEKLY", Biweekly, true},
		{"fortnightly", "", false},
		{"", "", false},
	}
	for i, tc := range tests {
		got, err := ParseRecurrence(tc.in)
		if tc.ok != (err == nil) {
			t.Fatalf("case %d: err = %v", i, err)
		}
		if tc.ok && got != tc.want {
			t.Fatalf("case %d: got %q, want %q", i, got, tc.want)
		}
	}
}

func TestParseCategoryRejectsUnknown(t *testing.T) {
	if _, err := ParseCategory("groceries"); err == nil {
		t.Fatalf("expected error for unknown category")
	}
	c, err := ParseCategory("Subscriptions")
	if err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if c != Subscriptions {
		t.Fatalf("got %q", c)
	}
}

func TestCategoryEmoji(t *testing.T) {
	if Salary.Emoji() != "💰" {
		t.Fatalf("salary emoji = %q", Salary.Emoji())
	}
	// Unknown categories fall back to the generic icon for display only;
	// they are still rejected at the data-model boundary.
	if Category("mystery").Emoji() != Other.Emoji() {
		t.Fatalf("unknown category should use fallback icon")
	}
}

func TestSortRulesForDisplay(t *testing.T) {
	rules := []Rule{
		{Name: "coffee", Amount: amt("-4.50")},
		{Name: "salary", Amount: amt("2500")},
		{Name: "rent", Amount: amt("-1200")},
		{Name: "refund", Amount: amt("30")},
	}
	SortRulesForDisplay(rules)

	gotNames := make([]string, len(rules))
	for i, r := range rules {
		gotNames[i] = r.Name
	}
	want := []string{"salary", "refund", "rent", "coffee"}
	for i := range want {
		if gotNames[i] != want[i] {
			t.Fatalf("order = %v, want %v", gotNames, want)
		}
	}
}
