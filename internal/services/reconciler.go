// Package services provides business logic over the ledger: CSV import
// reconciliation, CSV export, and the orchestrating ledger service.
package services

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"billcal/internal/core"
	"billcal/internal/ledger"
)

// ErrNoImportableRows is returned when every row of an import was skipped.
var ErrNoImportableRows = errors.New("no importable rows")

// Draft is a candidate transaction rule produced by reconciliation. It
// lives in the import buffer until the user confirms it; only then does it
// become a real rule with a fresh id.
type Draft struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Amount     decimal.Decimal `json:"amount"`
	Recurrence core.Recurrence `json:"type"`
	Category   core.Category   `json:"category"`
	Date       core.Date       `json:"date"`
	Selected   bool            `json:"selected"`
}

// ImportReport is the outcome of reconciling one CSV document.
type ImportReport struct {
	Drafts  []Draft `json:"drafts"`
	Skipped int     `json:"skipped"`
}

// descriptions that force an amount negative regardless of the balance
// delta heuristic
var expenseKeywords = []string{"debit card purchase", "withdrawal"}

// importDateFormats are tried in order when a row's date is not a
// canonical key. Two-digit years are read as 2000s.
var importDateFormats = []string{
	"1/2/2006",
	"1/2/06",
	"2006-01-02",
	"01-02-2006",
	"2 Jan 2006",
	"Jan 2, 2006",
}

// ReconcileCSV classifies raw bank rows into draft rules. Column layout is
// detected from the header when one is present; otherwise columns are
// assumed to be date, description, amount and an optional running balance.
//
// Sign inference per row, in priority order: the delta of the running
// balance column when available, otherwise a default of expense; a
// description containing an expense keyword forces the amount negative
// either way. Unparseable rows are skipped, not fatal.
func ReconcileCSV(r io.Reader) (ImportReport, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	report := ImportReport{}
	cols := columnLayout{date: 0, description: 1, amount: 2, balance: -1}
	headerChecked := false
	var prevBalance *decimal.Decimal

	for {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		var parseErr *csv.ParseError
		if errors.As(err, &parseErr) {
			// A structurally broken row (stray quote, ragged quoting) is
			// skipped like any other unparseable row; the rest of the
			// file still imports.
			report.Skipped++
			continue
		}
		if err != nil {
			return report, fmt.Errorf("read csv: %w", err)
		}
		if !headerChecked {
			headerChecked = true
			if detected, ok := detectHeader(rec); ok {
				cols = detected
				continue
			}
			if len(rec) >= 4 {
				cols.balance = 3
			}
		}
		if cols.max() >= len(rec) {
			report.Skipped++
			continue
		}

		amount, err := core.ParseAmount(rec[cols.amount])
		if err != nil || amount.IsZero() {
			report.Skipped++
			continue
		}
		date, err := parseImportDate(rec[cols.date])
		if err != nil {
			report.Skipped++
			continue
		}
		desc := ""
		if cols.description >= 0 && cols.description < len(rec) {
			desc = strings.TrimSpace(rec[cols.description])
		}
		if desc == "" {
			desc = "Imported transaction"
		}

		sign := -1 // without evidence, assume expense
		if cols.balance >= 0 {
			if bal, err := core.ParseAmount(rec[cols.balance]); err == nil {
				if prevBalance != nil {
					if bal.GreaterThan(*prevBalance) {
						sign = 1
					} else {
						sign = -1
					}
				}
				prevBalance = &bal
			}
		}
		amount = amount.Abs()
		if sign < 0 {
			amount = amount.Neg()
		}
		if hasExpenseKeyword(desc) {
			amount = amount.Abs().Neg()
		}

		report.Drafts = append(report.Drafts, Draft{
			ID:         uuid.NewString(),
			Name:       desc,
			Amount:     amount,
			Recurrence: core.OneTime,
			Category:   core.Other,
			Date:       date,
			Selected:   true,
		})
	}

	if len(report.Drafts) == 0 {
		return report, fmt.Errorf("%w: %d rows skipped", ErrNoImportableRows, report.Skipped)
	}
	slog.Info("Reconciled CSV import",
		"drafts", len(report.Drafts),
		"skipped", report.Skipped)
	return report, nil
}

// ConfirmDrafts appends the selected drafts to the ledger as real rules,
// each under a fresh id. Re-confirming the same drafts produces new rules
// again: no deduplication is performed.
//
// Confirmation is all-or-nothing: every selected draft is validated before
// any rule is added, so one bad (user-edited) draft leaves the ledger
// untouched.
func ConfirmDrafts(l *ledger.Ledger, drafts []Draft) (int, error) {
	rules := make([]core.Rule, 0, len(drafts))
	for _, d := range drafts {
		if !d.Selected {
			continue
		}
		r := core.Rule{
			ID:         core.NewRuleID(),
			Name:       d.Name,
			Amount:     d.Amount,
			Recurrence: d.Recurrence,
			Category:   d.Category,
			Anchor:     d.Date,
		}
		if err := r.Validate(); err != nil {
			return 0, fmt.Errorf("confirm draft %q: %w", d.Name, err)
		}
		rules = append(rules, r)
	}

	for _, r := range rules {
		if _, err := l.Add(r); err != nil {
			return 0, fmt.Errorf("confirm draft %q: %w", r.Name, err)
		}
	}
	return len(rules), nil
}

type columnLayout struct {
	date        int
	description int
	amount      int
	balance     int // -1 when absent
}

func (c columnLayout) max() int {
	m := c.date
	for _, i := range []int{c.description, c.amount, c.balance} {
		if i > m {
			m = i
		}
	}
	return m
}

// detectHeader matches common bank export column names. The second return
// is false when the row looks like data rather than a header.
func detectHeader(rec []string) (columnLayout, bool) {
	cols := columnLayout{date: -1, description: -1, amount: -1, balance: -1}
	matched := 0
	for i, cell := range rec {
		switch name := strings.ToLower(strings.TrimSpace(cell)); {
		case cols.date < 0 && strings.Contains(name, "date"):
			cols.date = i
			matched++
		case cols.description < 0 && (strings.Contains(name, "desc") ||
			strings.Contains(name, "memo") || strings.Contains(name, "payee") ||
			strings.Contains(name, "name")):
			cols.description = i
			matched++
		case cols.amount < 0 && strings.Contains(name, "amount"):
			cols.amount = i
			matched++
		case cols.balance < 0 && strings.Contains(name, "balance"):
			cols.balance = i
			matched++
		}
	}
	if cols.date < 0 || cols.amount < 0 || matched < 2 {
		return columnLayout{}, false
	}
	// description stays -1 when absent; rows get the default label
	return cols, true
}

func parseImportDate(s string) (core.Date, error) {
	s = strings.TrimSpace(s)
	if d, err := core.ParseKey(s); err == nil {
		return d, nil
	}
	for _, layout := range importDateFormats {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			// two-digit years are always read as 2000s
			if strings.Contains(layout, "06") && !strings.Contains(layout, "2006") && t.Year() < 2000 {
				t = t.AddDate(100, 0, 0)
			}
			return core.Canonical(t), nil
		}
	}
	return core.Date{}, fmt.Errorf("unparseable date %q", s)
}

func hasExpenseKeyword(desc string) bool {
	lower := strings.ToLower(desc)
	for _, kw := range expenseKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
