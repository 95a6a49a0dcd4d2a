// This file implements the balance accumulator: anchored forward replay.
// Balances are always derived by summing day totals from the effective
// anchor forward; recurring rules make closed-form computation impractical
// without iterating the intervening days. Amounts stay full-precision
// decimals across the whole walk, rounding happens only at display time.

package ledger

import (
	"github.com/shopspring/decimal"

	"billcal/internal/core"
)

// BalancePoint is one day of a balance time series.
type BalancePoint struct {
	Date    core.Date       `json:"date"`
	Balance decimal.Decimal `json:"balance"`
}

// DaySummary is the income/expense breakdown of a single day.
type DaySummary struct {
	Income   decimal.Decimal `json:"income"`
	Expenses decimal.Decimal `json:"expenses"`
	Net      decimal.Decimal `json:"net"`
}

// DayTotal returns the signed sum of all rule occurrences on a day.
func (l *Ledger) DayTotal(day core.Date) decimal.Decimal {
	total := decimal.Zero
	for _, r := range l.rules {
		if core.OccursOn(r, day) {
			total = total.Add(r.Amount)
		}
	}
	return total
}

// Summarize splits a day's occurrences into income, expenses and net.
// Expenses are reported as a positive magnitude.
func (l *Ledger) Summarize(day core.Date) DaySummary {
	s := DaySummary{Income: decimal.Zero, Expenses: decimal.Zero, Net: decimal.Zero}
	for _, r := range l.rules {
		if !core.OccursOn(r, day) {
			continue
		}
		if r.IsIncome() {
			s.Income = s.Income.Add(r.Amount)
		} else {
			s.Expenses = s.Expenses.Add(r.Amount.Abs())
		}
	}
	s.Net = s.Income.Sub(s.Expenses)
	return s
}

// BalanceAt returns the cumulative balance as of the given day: the initial
// balance plus every occurrence from the effective anchor through the day,
// inclusive. Days before the anchor report the flat initial balance; the
// system never replays backward.
func (l *Ledger) BalanceAt(day core.Date) decimal.Decimal {
	anchor, ok := l.effectiveAnchor()
	if !ok || day.Before(anchor.Time) {
		return l.initialBalance
	}
	running := l.initialBalance
	for d := anchor; !d.After(day.Time); d = d.AddDays(1) {
		running = running.Add(l.DayTotal(d))
	}
	return running
}

// BalanceSeries returns one balance point per calendar day in [start, end]
// inclusive. When the range starts after the anchor, the walk pre-rolls
// from the anchor up to the range so carry-over from prior activity is
// reflected; when it starts before, pre-anchor days are flat at the
// initial balance.
func (l *Ledger) BalanceSeries(start, end core.Date) []BalancePoint {
	if end.Before(start.Time) {
		return nil
	}

	points := make([]BalancePoint, 0, start.DaysUntil(end)+1)
	anchor, ok := l.effectiveAnchor()
	if !ok {
		for d := start; !d.After(end.Time); d = d.AddDays(1) {
			points = append(points, BalancePoint{Date: d, Balance: l.initialBalance})
		}
		return points
	}

	running := l.initialBalance
	for d := anchor; d.Before(start.Time); d = d.AddDays(1) {
		running = running.Add(l.DayTotal(d))
	}
	for d := start; !d.After(end.Time); d = d.AddDays(1) {
		if d.Before(anchor.Time) {
			points = append(points, BalancePoint{Date: d, Balance: l.initialBalance})
			continue
		}
		running = running.Add(l.DayTotal(d))
		points = append(points, BalancePoint{Date: d, Balance: running})
	}
	return points
}
