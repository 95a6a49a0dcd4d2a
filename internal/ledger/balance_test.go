package ledger

import (
	"testing"

	"billcal/internal/core"
)

func TestBalanceFlatWithoutRules(t *testing.T) {
	l := New()
	l.SetInitialBalance(amt("250.50"), core.NewDate(2024, 1, 1))

	for _, d := range []core.Date{
		core.NewDate(2023, 6, 1),
		core.NewDate(2024, 1, 1),
		core.NewDate(2026, 12, 31),
	} {
		if got := l.BalanceAt(d); !got.Equal(amt("250.50")) {
			t.Fatalf("BalanceAt(%s) = %s, want 250.50", d.Key(), got)
		}
	}
}

// Initial balance 1000 anchored 2024-01-01; monthly rent -1200 anchored
// 2024-01-31. The rent clamps to Feb 29 in the 2024 leap year.
func TestBalanceEndToEnd(t *testing.T) {
	l := New()
	l.SetInitialBalance(amt("1000"), core.NewDate(2024, 1, 1))
	if _, err := l.Add(rule("rent", "-1200", core.Monthly, core.NewDate(2024, 1, 31))); err != nil {
		t.Fatalf("add: %v", err)
	}

	tests := []struct {
		day  string
		want string
	}{
		{"2024-01-30", "1000"},
		{"2024-01-31", "-200"},
		{"2024-02-28", "-200"},
		{"2024-02-29", "-1400"},
		{"2024-03-31", "-2600"},
	}
	for _, tc := range tests {
		day, err := core.ParseKey(tc.day)
		if err != nil {
			t.Fatalf("parse %s: %v", tc.day, err)
		}
		if got := l.BalanceAt(day); !got.Equal(amt(tc.want)) {
			t.Fatalf("BalanceAt(%s) = %s, want %s", tc.day, got, tc.want)
		}
	}
}

func TestBalanceSeriesMatchesBalanceAt(t *testing.T) {
	l := New()
	l.SetInitialBalance(amt("1000"), core.NewDate(2024, 1, 1))
	l.Add(rule("rent", "-1200", core.Monthly, core.NewDate(2024, 1, 31)))
	l.Add(rule("salary", "2500", core.Biweekly, core.NewDate(2024, 1, 5)))
	l.Add(rule("coffee", "-4.50", core.Daily, core.NewDate(2024, 2, 10)))

	target := core.NewDate(2024, 6, 15)
	want := l.BalanceAt(target)

	starts := []core.Date{
		core.NewDate(2023, 12, 1), // before the anchor
		core.NewDate(2024, 1, 1),  // on the anchor
		core.NewDate(2024, 3, 20), // pre-roll required
		target,                    // single-day series
	}
	for _, start := range starts {
		series := l.BalanceSeries(start, target)
		if len(series) == 0 {
			t.Fatalf("empty series from %s", start.Key())
		}
		last := series[len(series)-1]
		if !last.Date.Equal(target.Time) {
			t.Fatalf("series from %s ends at %s", start.Key(), last.Date.Key())
		}
		if !last.Balance.Equal(want) {
			t.Fatalf("series from %s ends with %s, BalanceAt says %s",
				start.Key(), last.Balance, want)
		}
	}
}

func TestBalanceSeriesLength(t *testing.T) {
	l := New()
	start, end := core.MonthRange(2024, 2)
	series := l.BalanceSeries(start, end)
	if len(series) != 29 {
		t.Fatalf("february 2024 series has %d points, want 29", len(series))
	}
	if l.BalanceSeries(end, start) != nil {
		t.Fatalf("inverted range must yield nil")
	}
}

func TestBalanceFlatBeforeAnchor(t *testing.T) {
	l := New()
	l.SetInitialBalance(amt("500"), core.NewDate(2024, 3, 15))
	l.Add(rule("daily", "-10", core.Daily, core.NewDate(2024, 3, 1)))

	// The rule is anchored before the balance anchor, but the system never
	// replays backward: earlier days report the flat initial balance.
	series := l.BalanceSeries(core.NewDate(2024, 3, 10), core.NewDate(2024, 3, 16))
	for _, p := range series {
		switch {
		case p.Date.Before(core.NewDate(2024, 3, 15).Time):
			if !p.Balance.Equal(amt("500")) {
				t.Fatalf("%s: balance %s, want flat 500", p.Date.Key(), p.Balance)
			}
		case p.Date.Equal(core.NewDate(2024, 3, 15).Time):
			if !p.Balance.Equal(amt("490")) {
				t.Fatalf("anchor day balance %s, want 490", p.Balance)
			}
		case p.Date.Equal(core.NewDate(2024, 3, 16).Time):
			if !p.Balance.Equal(amt("480")) {
				t.Fatalf("day after anchor balance %s, want 480", p.Balance)
			}
		}
	}
}

func TestEarliestRuleActsAsAnchorFallback(t *testing.T) {
	l := New()
	l.SetInitialBalance(amt("100"), core.Date{}) // no explicit anchor
	l.Add(rule("later", "-5", core.OneTime, core.NewDate(2024, 5, 10)))
	l.Add(rule("earliest", "20", core.OneTime, core.NewDate(2024, 4, 1)))

	if got := l.BalanceAt(core.NewDate(2024, 3, 31)); !got.Equal(amt("100")) {
		t.Fatalf("before earliest rule: %s, want flat 100", got)
	}
	if got := l.BalanceAt(core.NewDate(2024, 4, 1)); !got.Equal(amt("120")) {
		t.Fatalf("on earliest rule: %s, want 120", got)
	}
	if got := l.BalanceAt(core.NewDate(2024, 5, 10)); !got.Equal(amt("115")) {
		t.Fatalf("after both rules: %s, want 115", got)
	}
}

func TestPreRollCarriesAcrossMonths(t *testing.T) {
	l := New()
	l.SetInitialBalance(amt("0"), core.NewDate(2024, 1, 1))
	l.Add(rule("drip", "1", core.Daily, core.NewDate(2024, 1, 1)))

	// Viewing March alone must still reflect January and February.
	start, end := core.MonthRange(2024, 3)
	series := l.BalanceSeries(start, end)
	// 31 (jan) + 29 (feb) + 1 (mar 1) = 61
	if !series[0].Balance.Equal(amt("61")) {
		t.Fatalf("march 1 balance %s, want 61", series[0].Balance)
	}
	if !series[len(series)-1].Balance.Equal(amt("91")) {
		t.Fatalf("march 31 balance %s, want 91", series[len(series)-1].Balance)
	}
}

func TestSummarize(t *testing.T) {
	l := New()
	l.Add(rule("salary", "2500", core.OneTime, core.NewDate(2024, 1, 15)))
	l.Add(rule("rent", "-1200", core.OneTime, core.NewDate(2024, 1, 15)))
	l.Add(rule("gym", "-30", core.OneTime, core.NewDate(2024, 1, 15)))

	s := l.Summarize(core.NewDate(2024, 1, 15))
	if !s.Income.Equal(amt("2500")) {
		t.Fatalf("income %s", s.Income)
	}
	if !s.Expenses.Equal(amt("1230")) {
		t.Fatalf("expenses %s", s.Expenses)
	}
	if !s.Net.Equal(amt("1270")) {
		t.Fatalf("net %s", s.Net)
	}
}

func TestNoPrecisionDriftOverLongWalk(t *testing.T) {
	l := New()
	l.SetInitialBalance(amt("0"), core.NewDate(2024, 1, 1))
	l.Add(rule("odd cents", "0.10", core.Daily, core.NewDate(2024, 1, 1)))

	// 1000 days of 0.10 must be exactly 100, not 99.999... .
	day := core.NewDate(2024, 1, 1).AddDays(999)
	if got := l.BalanceAt(day); !got.Equal(amt("100")) {
		t.Fatalf("1000 x 0.10 = %s, want exactly 100", got)
	}
}
