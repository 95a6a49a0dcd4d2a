package ledger

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"billcal/internal/core"
)

func amt(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func rule(name, amount string, kind core.Recurrence, anchor core.Date) core.Rule {
	return core.Rule{
		Name:       name,
		Amount:     amt(amount),
		Recurrence: kind,
		Category:   core.Other,
		Anchor:     anchor,
	}
}

func TestAddAssignsFreshID(t *testing.T) {
	l := New()
	r1, err := l.Add(rule("salary", "2500", core.Monthly, core.NewDate(2024, 1, 1)))
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	r2, err := l.Add(rule("salary", "2500", core.Monthly, core.NewDate(2024, 1, 1)))
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if r1.ID == "" || r2.ID == "" || r1.ID == r2.ID {
		t.Fatalf("expected distinct non-empty ids, got %q and %q", r1.ID, r2.ID)
	}
}

func TestAddRejectsInvalidRule(t *testing.T) {
	l := New()
	bads := []core.Rule{
		rule("", "10", core.Daily, core.NewDate(2024, 1, 1)),
		rule("zero", "0", core.Daily, core.NewDate(2024, 1, 1)),
		rule("bad kind", "10", "quarterly", core.NewDate(2024, 1, 1)),
	}
	for i, r := range bads {
		if _, err := l.Add(r); err == nil {
			t.Fatalf("case %d expected validation error", i)
		}
	}
	if len(l.Rules()) != 0 {
		t.Fatalf("rejected rules must not enter the ledger")
	}
}

func TestRemove(t *testing.T) {
	l := New()
	r, _ := l.Add(rule("gym", "-30", core.Monthly, core.NewDate(2024, 2, 1)))

	if err := l.Remove(r.ID); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if len(l.Rules()) != 0 {
		t.Fatalf("rule still present after remove")
	}

	err := l.Remove("no-such-id")
	if !errors.Is(err, ErrRuleNotFound) {
		t.Fatalf("expected ErrRuleNotFound, got %v", err)
	}
}

func TestRulesOnFilters(t *testing.T) {
	l := New()
	l.Add(rule("rent", "-1200", core.Monthly, core.NewDate(2024, 1, 31)))
	l.Add(rule("coffee", "-4", core.Daily, core.NewDate(2024, 1, 1)))
	l.Add(rule("bonus", "500", core.OneTime, core.NewDate(2024, 3, 1)))

	on := l.RulesOn(core.NewDate(2024, 2, 29))
	if len(on) != 2 {
		t.Fatalf("expected rent (clamped) and coffee, got %d rules", len(on))
	}
	on = l.RulesOn(core.NewDate(2024, 3, 1))
	if len(on) != 2 {
		t.Fatalf("expected coffee and bonus, got %d rules", len(on))
	}
}

func TestReplaceAllIsAtomic(t *testing.T) {
	l := New()
	l.Add(rule("keep me", "10", core.Daily, core.NewDate(2024, 1, 1)))
	before := l.Rules()

	batch := []core.Rule{
		rule("fine", "5", core.Weekly, core.NewDate(2024, 1, 1)),
		rule("", "5", core.Weekly, core.NewDate(2024, 1, 1)), // invalid
	}
	if err := l.ReplaceAll(batch, amt("100"), core.NewDate(2024, 1, 1)); err == nil {
		t.Fatalf("expected error for invalid batch")
	}

	after := l.Rules()
	if len(after) != len(before) || after[0].Name != "keep me" {
		t.Fatalf("failed replace must leave ledger untouched")
	}
	bal, _ := l.InitialBalance()
	if !bal.IsZero() {
		t.Fatalf("failed replace must not change the balance")
	}

	good := []core.Rule{rule("fine", "5", core.Weekly, core.NewDate(2024, 1, 1))}
	if err := l.ReplaceAll(good, amt("100"), core.NewDate(2024, 1, 1)); err != nil {
		t.Fatalf("replace: %v", err)
	}
	if len(l.Rules()) != 1 || l.Rules()[0].Name != "fine" {
		t.Fatalf("replace did not apply")
	}
}

func TestRevisionBumpsOnMutation(t *testing.T) {
	l := New()
	rev := l.Revision()

	r, _ := l.Add(rule("a", "1", core.Daily, core.NewDate(2024, 1, 1)))
	if l.Revision() == rev {
		t.Fatalf("add must bump revision")
	}
	rev = l.Revision()

	l.SetInitialBalance(amt("10"), core.Date{})
	if l.Revision() == rev {
		t.Fatalf("set balance must bump revision")
	}
	rev = l.Revision()

	l.Remove(r.ID)
	if l.Revision() == rev {
		t.Fatalf("remove must bump revision")
	}
}
