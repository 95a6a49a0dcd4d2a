// Package ledger holds the transaction rule store and the balance
// accumulator. It is a pure, side-effect-free library: callers own
// concurrency and persistence, the ledger only computes.
package ledger

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"billcal/internal/core"
)

// ErrRuleNotFound is returned by Remove for an unknown rule id.
var ErrRuleNotFound = errors.New("rule not found")

// Ledger is the set of transaction rules plus the initial balance anchor.
// The revision counter increments on every successful mutation so callers
// can key caches on ledger state.
type Ledger struct {
	initialBalance decimal.Decimal
	initialDate    core.Date // zero when no explicit anchor is set
	rules          []core.Rule
	revision       uint64
}

// New returns an empty ledger with a zero balance and no anchor.
func New() *Ledger {
	return &Ledger{initialBalance: decimal.Zero}
}

// SetInitialBalance sets the balance anchored at the given date. A zero
// date leaves the anchor unset, in which case the earliest rule anchor
// becomes the effective anchor.
func (l *Ledger) SetInitialBalance(amount decimal.Decimal, anchor core.Date) {
	l.initialBalance = amount
	l.initialDate = anchor
	l.revision++
}

// InitialBalance returns the balance and its explicit anchor date.
func (l *Ledger) InitialBalance() (decimal.Decimal, core.Date) {
	return l.initialBalance, l.initialDate
}

// Add validates the rule and appends it. A rule arriving without an id is
// assigned a fresh one; edits therefore re-add under a new identity.
func (l *Ledger) Add(r core.Rule) (core.Rule, error) {
	if r.ID == "" {
		r.ID = core.NewRuleID()
	}
	if err := r.Validate(); err != nil {
		return core.Rule{}, fmt.Errorf("add rule: %w", err)
	}
	l.rules = append(l.rules, r)
	l.revision++
	return r, nil
}

// Remove deletes a rule by id.
func (l *Ledger) Remove(id string) error {
	for i, r := range l.rules {
		if r.ID == id {
			l.rules = append(l.rules[:i], l.rules[i+1:]...)
			l.revision++
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrRuleNotFound, id)
}

// Rule looks up a single rule by id.
func (l *Ledger) Rule(id string) (core.Rule, bool) {
	for _, r := range l.rules {
		if r.ID == id {
			return r, true
		}
	}
	return core.Rule{}, false
}

// Rules returns all rules in insertion order.
func (l *Ledger) Rules() []core.Rule {
	out := make([]core.Rule, len(l.rules))
	copy(out, l.rules)
	return out
}

// RulesOn returns the rules firing on the given day, in insertion order.
func (l *Ledger) RulesOn(day core.Date) []core.Rule {
	var out []core.Rule
	for _, r := range l.rules {
		if core.OccursOn(r, day) {
			out = append(out, r)
		}
	}
	return out
}

// ReplaceAll swaps the whole ledger atomically: every incoming rule is
// validated first and any failure leaves the current state untouched.
// Import and reset go through here.
func (l *Ledger) ReplaceAll(rules []core.Rule, balance decimal.Decimal, anchor core.Date) error {
	next := make([]core.Rule, 0, len(rules))
	for i, r := range rules {
		if r.ID == "" {
			r.ID = core.NewRuleID()
		}
		if err := r.Validate(); err != nil {
			return fmt.Errorf("replace: rule %d (%q): %w", i, r.Name, err)
		}
		next = append(next, r)
	}
	l.rules = next
	l.initialBalance = balance
	l.initialDate = anchor
	l.revision++
	return nil
}

// Revision returns the mutation counter.
func (l *Ledger) Revision() uint64 {
	return l.revision
}

// effectiveAnchor resolves the date balance replay starts from: the
// explicit initial-balance date when set, otherwise the earliest rule
// anchor. The second return is false when neither exists, meaning the
// balance is flat everywhere.
func (l *Ledger) effectiveAnchor() (core.Date, bool) {
	if !l.initialDate.IsEmpty() {
		return l.initialDate, true
	}
	var earliest core.Date
	for _, r := range l.rules {
		if earliest.IsEmpty() || r.Anchor.Before(earliest.Time) {
			earliest = r.Anchor
		}
	}
	return earliest, !earliest.IsEmpty()
}
