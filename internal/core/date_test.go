package core

import (
	"encoding/json"
	"testing"
	"time"
)

func TestDateKeyRoundTrip(t *testing.T) {
	dates := []Date{
		NewDate(2024, 1, 1),
		NewDate(2024, 2, 29), // leap day
		NewDate(1999, 12, 31),
		NewDate(2025, 7, 4),
	}
	for _, d := range dates {
		parsed, err := ParseKey(d.Key())
		if err != nil {
			t.Fatalf("ParseKey(%q): %v", d.Key(), err)
		}
		if !parsed.Equal(d.Time) {
			t.Fatalf("round trip %q: got %v, want %v", d.Key(), parsed, d)
		}
	}
}

func TestParseKeyRejectsGarbage(t *testing.T) {
	for _, s := range []string{"", "2024-13-01", "not-a-date", "2024/01/02"} {
		if _, err := ParseKey(s); err == nil {
			t.Fatalf("ParseKey(%q) expected error", s)
		}
	}
}

func TestCanonicalStripsTimeOfDay(t *testing.T) {
	instant := time.Date(2024, 3, 15, 23, 45, 12, 999, time.UTC)
	d := Canonical(instant)
	if d.Key() != "2024-03-15" {
		t.Fatalf("got %q", d.Key())
	}
	if h, m, s := d.Clock(); h != 0 || m != 0 || s != 0 {
		t.Fatalf("expected midnight, got %02d:%02d:%02d", h, m, s)
	}
}

func TestDaysUntil(t *testing.T) {
	tests := []struct {
		a, b Date
		want int
	}{
		{NewDate(2024, 1, 1), NewDate(2024, 1, 1), 0},
		{NewDate(2024, 1, 1), NewDate(2024, 1, 8), 7},
		{NewDate(2024, 1, 8), NewDate(2024, 1, 1), -7},
		{NewDate(2024, 2, 28), NewDate(2024, 3, 1), 2},  // leap year
		{NewDate(2023, 2, 28), NewDate(2023, 3, 1), 1},  // non-leap
		{NewDate(2024, 1, 1), NewDate(2025, 1, 1), 366}, // leap year length
	}
	for i, tc := range tests {
		if got := tc.a.DaysUntil(tc.b); got != tc.want {
			t.Fatalf("case %d: DaysUntil = %d, want %d", i, got, tc.want)
		}
	}
}

func TestDaysInMonth(t *testing.T) {
	tests := []struct {
		year, month, want int
	}{
		{2024, 2, 29},
		{2023, 2, 28},
		{2024, 4, 30},
		{2024, 1, 31},
		{2024, 12, 31},
	}
	for i, tc := range tests {
		if got := DaysInMonth(tc.year, tc.month); got != tc.want {
			t.Fatalf("case %d: DaysInMonth(%d, %d) = %d, want %d", i, tc.year, tc.month, got, tc.want)
		}
	}
}

func TestDateJSON(t *testing.T) {
	d := NewDate(2024, 6, 9)
	b, err := json.Marshal(d)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(b) != `"2024-06-09"` {
		t.Fatalf("marshal = %s", b)
	}

	var back Date
	if err := json.Unmarshal(b, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !back.Equal(d.Time) {
		t.Fatalf("round trip mismatch: %v != %v", back, d)
	}

	var empty Date
	b, err = json.Marshal(empty)
	if err != nil {
		t.Fatalf("marshal zero: %v", err)
	}
	if string(b) != "null" {
		t.Fatalf("zero date marshal = %s, want null", b)
	}
	var fromNull Date
	if err := json.Unmarshal([]byte("null"), &fromNull); err != nil {
		t.Fatalf("unmarshal null: %v", err)
	}
	if !fromNull.IsEmpty() {
		t.Fatalf("null should decode to empty date")
	}
}
