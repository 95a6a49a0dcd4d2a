package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"billcal/internal/core"
	"billcal/internal/snapshot"
	"billcal/internal/storage"
)

func newService() *LedgerService {
	return NewLedgerService(storage.NewMemoryStore(), nil)
}

func emptyRuleFixture() core.Rule {
	return core.Rule{
		Name:       "Rent",
		Amount:     amt("-1200"),
		Recurrence: core.Monthly,
		Category:   core.Rent,
		Anchor:     core.NewDate(2024, 1, 31),
	}
}

func TestServiceMutationsPersist(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	svc := NewLedgerService(store, nil)

	svc.SetInitialBalance(ctx, amt("1000"), core.NewDate(2024, 1, 1))
	added, err := svc.AddRule(ctx, emptyRuleFixture())
	if err != nil {
		t.Fatalf("add: %v", err)
	}

	// A fresh service over the same store must see everything back.
	restored := NewLedgerService(store, nil)
	if err := restored.LoadSnapshot(ctx); err != nil {
		t.Fatalf("load: %v", err)
	}
	if got := restored.BalanceAt(core.NewDate(2024, 1, 31)); !got.Equal(amt("-200")) {
		t.Fatalf("restored balance = %s, want -200", got)
	}

	if err := svc.RemoveRule(ctx, added.ID); err != nil {
		t.Fatalf("remove: %v", err)
	}
	restored = NewLedgerService(store, nil)
	restored.LoadSnapshot(ctx)
	if got := restored.BalanceAt(core.NewDate(2024, 1, 31)); !got.Equal(amt("1000")) {
		t.Fatalf("balance after remove = %s, want 1000", got)
	}
}

func TestServiceLoadCorruptSnapshotStartsEmpty(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	store.Save(ctx, []byte("definitely not json"))

	svc := NewLedgerService(store, nil)
	if err := svc.LoadSnapshot(ctx); err != nil {
		t.Fatalf("corrupt snapshot must fall back to empty, got %v", err)
	}
	if got := svc.BalanceAt(core.NewDate(2024, 1, 1)); !got.IsZero() {
		t.Fatalf("balance = %s, want 0 after fallback", got)
	}
}

func TestServiceImportFlow(t *testing.T) {
	ctx := context.Background()
	svc := newService()

	csv := strings.Join([]string{
		"Date,Description,Amount,Balance",
		"01/02/2024,Opening,100.00,100.00",
		"01/03/2024,Grocery Store,20.00,80.00",
	}, "\n")
	report, err := svc.ImportCSV(ctx, strings.NewReader(csv))
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if len(svc.Drafts()) != len(report.Drafts) {
		t.Fatalf("drafts not staged")
	}

	// Deselect the first draft before confirming.
	drafts := svc.Drafts()
	drafts[0].Selected = false
	added, err := svc.ConfirmImport(ctx, drafts)
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if added != 1 {
		t.Fatalf("added = %d, want 1", added)
	}
	if len(svc.Drafts()) != 0 {
		t.Fatalf("buffer must clear after confirm")
	}

	days := svc.RangeView(core.NewDate(2024, 1, 3), core.NewDate(2024, 1, 3))
	if len(days) != 1 || len(days[0].Rules) != 1 {
		t.Fatalf("confirmed rule not visible: %+v", days)
	}
	if days[0].Rules[0].Name != "Grocery Store" {
		t.Fatalf("rule = %+v", days[0].Rules[0])
	}
}

// Confirming an edited draft set with one invalid entry must not apply
// the valid ones, bump the revision, or reach the store.
func TestServiceConfirmImportAllOrNothing(t *testing.T) {
	ctx := context.Background()
	svc := newService()

	drafts := []Draft{
		{Name: "valid", Amount: amt("-5"), Recurrence: core.OneTime,
			Category: core.Other, Date: core.NewDate(2024, 1, 2), Selected: true},
		{Name: "", Amount: amt("-9"), Recurrence: core.OneTime,
			Category: core.Other, Date: core.NewDate(2024, 1, 3), Selected: true},
	}
	revBefore := svc.Revision()

	added, err := svc.ConfirmImport(ctx, drafts)
	if !errors.Is(err, core.ErrEmptyName) {
		t.Fatalf("expected ErrEmptyName, got %v", err)
	}
	if added != 0 {
		t.Fatalf("added = %d, want 0", added)
	}
	if len(svc.Snapshot().Bills) != 0 {
		t.Fatalf("bills = %d after failed confirm, want 0", len(svc.Snapshot().Bills))
	}
	if svc.Revision() != revBefore {
		t.Fatalf("revision moved from %d to %d on a failed confirm", revBefore, svc.Revision())
	}
}

func TestServiceReplaceSnapshotAtomic(t *testing.T) {
	ctx := context.Background()
	svc := newService()
	svc.AddRule(ctx, emptyRuleFixture())

	bad := snapshot.Snapshot{
		Version: snapshot.Version,
		Bills: []core.Rule{
			{Name: "", Amount: amt("1"), Recurrence: core.Daily,
				Category: core.Other, Anchor: core.NewDate(2024, 1, 1)},
		},
	}
	if err := svc.ReplaceSnapshot(ctx, bad); err == nil {
		t.Fatalf("invalid snapshot must be rejected")
	}
	if got := svc.BalanceAt(core.NewDate(2024, 1, 31)); !got.Equal(amt("-1200")) {
		t.Fatalf("failed replace must leave state untouched, balance = %s", got)
	}
}

func TestServiceMonthView(t *testing.T) {
	ctx := context.Background()
	svc := newService()
	svc.SetInitialBalance(ctx, amt("0"), core.NewDate(2024, 1, 1))
	svc.AddRule(ctx, core.Rule{
		Name: "drip", Amount: amt("1"), Recurrence: core.Daily,
		Category: core.Other, Anchor: core.NewDate(2024, 1, 1),
	})

	days := svc.MonthView(2024, 2)
	if len(days) != 29 {
		t.Fatalf("february 2024 has %d days in view", len(days))
	}
	// 31 january days carried over + 1 for february 1st
	if !days[0].Balance.Equal(amt("32")) {
		t.Fatalf("feb 1 balance = %s, want 32", days[0].Balance)
	}
	if !days[0].Summary.Income.Equal(amt("1")) {
		t.Fatalf("summary income = %s", days[0].Summary.Income)
	}
}

func TestServiceRevisionChangesOnMutation(t *testing.T) {
	ctx := context.Background()
	svc := newService()
	rev := svc.Revision()
	svc.AddRule(ctx, emptyRuleFixture())
	if svc.Revision() == rev {
		t.Fatalf("revision must change after a mutation")
	}
}
