// This file implements the Strategy Pattern for recurrence evaluation.
// Each recurrence kind (one-time, daily, weekly, biweekly, monthly, yearly)
// has its own checker that encapsulates the logic for deciding whether a
// rule fires on a given calendar day.

package core

import "fmt"

// OccurrenceChecker is the strategy interface for a single recurrence kind.
// Implementations are pure: anchor and day are canonical calendar days and
// day is never before anchor when Occurs is called.
type OccurrenceChecker interface {
	// Occurs reports whether a rule anchored at anchor fires on day.
	Occurs(anchor, day Date) bool
}

// OneTimeChecker fires exactly once, on the anchor day itself.
type OneTimeChecker struct{}

func (OneTimeChecker) Occurs(anchor, day Date) bool {
	return day.Equal(anchor.Time)
}

// DailyChecker fires every day from the anchor onward.
type DailyChecker struct{}

func (DailyChecker) Occurs(Date, Date) bool {
	return true
}

// PeriodicChecker fires every fixed number of days from the anchor. It
// covers the weekly (7) and biweekly (14) kinds.
type PeriodicChecker struct {
	PeriodDays int
}

func (c PeriodicChecker) Occurs(anchor, day Date) bool {
	return anchor.DaysUntil(day)%c.PeriodDays == 0
}

// MonthlyChecker fires on the anchor's day of the month, clamped to the
// last day of shorter months: a rule anchored on the 31st fires on Feb 28
// (29 in leap years), Apr 30, and so on.
type MonthlyChecker struct{}

func (MonthlyChecker) Occurs(anchor, day Date) bool {
	effective := anchor.Day()
	if last := DaysInMonth(day.Year(), day.Month()); effective > last {
		effective = last
	}
	return day.Day() == effective
}

// YearlyChecker fires when both day of month and month match the anchor's.
type YearlyChecker struct{}

func (YearlyChecker) Occurs(anchor, day Date) bool {
	return day.Day() == anchor.Day() && day.Month() == anchor.Month()
}

// occurrenceStrategies maps recurrence kinds to their checkers.
var occurrenceStrategies = map[Recurrence]OccurrenceChecker{
	OneTime:  OneTimeChecker{},
	Daily:    DailyChecker{},
	Weekly:   PeriodicChecker{PeriodDays: 7},
	Biweekly: PeriodicChecker{PeriodDays: 14},
	Monthly:  MonthlyChecker{},
	Yearly:   YearlyChecker{},
}

// GetOccurrenceChecker returns the checker for a recurrence kind, or an
// error for kinds outside the enumeration.
func GetOccurrenceChecker(r Recurrence) (OccurrenceChecker, error) {
	checker, ok := occurrenceStrategies[r]
	if !ok {
		return nil, fmt.Errorf("unknown recurrence: %s", r)
	}
	return checker, nil
}

// OccursOn reports whether rule fires on the given day. It is pure and
// stateless: rules never fire before their anchor nor strictly after their
// end date, and an unknown recurrence kind never fires.
func OccursOn(rule Rule, day Date) bool {
	anchor := Canonical(rule.Anchor.Time)
	day = Canonical(day.Time)

	if day.Before(anchor.Time) {
		return false
	}
	if !rule.End.IsEmpty() && day.After(rule.End.Time) {
		return false
	}

	checker, ok := occurrenceStrategies[rule.Recurrence]
	if !ok {
		return false
	}
	return checker.Occurs(anchor, day)
}
