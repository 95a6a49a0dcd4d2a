// This file implements the CSV export projection: one row per rule
// occurrence in a date range, with the day's running balance alongside.
// It is a pure read over the ledger, never part of the write path.

package services

import (
	"encoding/csv"
	"fmt"
	"io"

	"billcal/internal/core"
	"billcal/internal/ledger"
)

var exportHeader = []string{
	"date", "description", "category", "recurrence",
	"income", "expense", "balance", "change",
}

// WriteCSV writes the export projection for [start, end] inclusive. Days
// without occurrences produce no rows; amounts render with two decimal
// places.
func WriteCSV(w io.Writer, l *ledger.Ledger, start, end core.Date) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(exportHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	for _, point := range l.BalanceSeries(start, end) {
		rules := l.RulesOn(point.Date)
		if len(rules) == 0 {
			continue
		}
		core.SortRulesForDisplay(rules)
		change := l.DayTotal(point.Date)
		for _, r := range rules {
			income, expense := "", ""
			if r.IsIncome() {
				income = core.FormatAmount(r.Amount)
			} else {
				expense = core.FormatAmount(r.Amount.Abs())
			}
			row := []string{
				point.Date.Key(),
				r.Name,
				string(r.Category),
				string(r.Recurrence),
				income,
				expense,
				core.FormatAmount(point.Balance),
				core.FormatAmount(change),
			}
			if err := cw.Write(row); err != nil {
				return fmt.Errorf("write csv row: %w", err)
			}
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}
