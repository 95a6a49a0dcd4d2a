package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// DateKeyLayout is the canonical serialization of a Date. It is the only
// string form used for equality and lookup.
const DateKeyLayout = "2006-01-02"

// Date is a calendar day. All comparisons in the engine happen at day
// granularity: the embedded time is always midnight UTC, so a day is always
// exactly 24 hours away from its neighbours regardless of DST or zone.
type Date struct {
	time.Time
}

// NewDate creates a Date from year, month, day.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// Canonical truncates an arbitrary instant to its calendar day.
func Canonical(t time.Time) Date {
	return NewDate(t.Year(), int(t.Month()), t.Day())
}

// Today returns the current calendar day.
func Today() Date {
	return Canonical(time.Now())
}

// ParseKey parses a YYYY-MM-DD key. It round-trips exactly with Key.
func ParseKey(s string) (Date, error) {
	t, err := time.ParseInLocation(DateKeyLayout, s, time.UTC)
	if err != nil {
		return Date{}, fmt.Errorf("parse date key %q: %w", s, err)
	}
	return Date{Time: t}, nil
}

// Key returns the canonical YYYY-MM-DD form with zero-padded month and day.
func (d Date) Key() string {
	return d.Format(DateKeyLayout)
}

// Day returns the day of the month.
func (d Date) Day() int {
	return d.Time.Day()
}

// Month returns the month as an int.
func (d Date) Month() int {
	return int(d.Time.Month())
}

// Year returns the year.
func (d Date) Year() int {
	return d.Time.Year()
}

// AddDays returns the date n calendar days later (earlier for negative n).
func (d Date) AddDays(n int) Date {
	return Date{Time: d.Time.AddDate(0, 0, n)}
}

// DaysUntil returns the signed number of whole days from d to other.
func (d Date) DaysUntil(other Date) int {
	return int(other.Time.Sub(d.Time).Hours() / 24)
}

// IsEmpty reports whether the date is unset. Optional dates (end date,
// initial balance anchor) use the zero value as "absent".
func (d Date) IsEmpty() bool {
	return d.IsZero()
}

// DaysInMonth returns the number of days in the given month and year.
func DaysInMonth(year, month int) int {
	// day 0 of the next month is the last day of this one
	return time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// MonthRange returns the first and last day of a calendar month.
func MonthRange(year, month int) (Date, Date) {
	return NewDate(year, month, 1), NewDate(year, month, DaysInMonth(year, month))
}

func (d Date) Validate() error {
	if d.IsZero() {
		return errors.New("date cannot be zero")
	}
	return nil
}

// MarshalJSON encodes the date as its key, or null when unset.
func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.Key())
}

// UnmarshalJSON accepts a YYYY-MM-DD string, an empty string or null.
func (d *Date) UnmarshalJSON(data []byte) error {
	var s *string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("decode date: %w", err)
	}
	if s == nil || *s == "" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseKey(*s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
