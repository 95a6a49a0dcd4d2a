// Package snapshot serializes the whole ledger as a single versioned JSON
// blob and normalizes structurally older blobs into the current shape
// before they are accepted. The blob is the only persisted form of the
// application state.
package snapshot

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"billcal/internal/core"
	"billcal/internal/ledger"
)

// Version is the current snapshot shape. Blobs without a version field are
// treated as version 1, the shape the original calendar persisted.
const Version = 2

// ErrMalformed wraps any snapshot that cannot be decoded at all. Loaders
// fall back to an empty default rather than partially applying it.
var ErrMalformed = errors.New("malformed snapshot")

// Settings carries presentation preferences along with the data blob.
type Settings struct {
	WeekStart string `json:"weekStart"`
}

// DefaultSettings returns the settings applied to snapshots that carry
// none.
func DefaultSettings() Settings {
	return Settings{WeekStart: "sunday"}
}

// Snapshot is the persisted form of the ledger.
type Snapshot struct {
	Version            int             `json:"version"`
	InitialBalance     decimal.Decimal `json:"initialBalance"`
	InitialBalanceDate core.Date       `json:"initialBalanceDate"`
	Bills              []core.Rule     `json:"bills"`
	Settings           Settings        `json:"settings"`
}

// FromLedger captures the current ledger state.
func FromLedger(l *ledger.Ledger, settings Settings) Snapshot {
	balance, anchor := l.InitialBalance()
	return Snapshot{
		Version:            Version,
		InitialBalance:     balance,
		InitialBalanceDate: anchor,
		Bills:              l.Rules(),
		Settings:           settings,
	}
}

// Apply replaces the ledger's contents with the snapshot's, atomically.
func (s Snapshot) Apply(l *ledger.Ledger) error {
	if err := l.ReplaceAll(s.Bills, s.InitialBalance, s.InitialBalanceDate); err != nil {
		return fmt.Errorf("apply snapshot: %w", err)
	}
	return nil
}

// Encode renders the snapshot as its canonical JSON form.
func (s Snapshot) Encode() ([]byte, error) {
	b, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return b, nil
}

// rawRule is the permissive on-disk shape of a rule. Older snapshots carry
// numeric ids (creation timestamps) and may omit category or end date.
type rawRule struct {
	ID       json.RawMessage `json:"id"`
	Name     string          `json:"name"`
	Amount   decimal.Decimal `json:"amount"`
	Type     string          `json:"type"`
	Category string          `json:"category"`
	Date     core.Date       `json:"date"`
	EndDate  core.Date       `json:"endDate"`
}

type rawSnapshot struct {
	Version            int             `json:"version"`
	InitialBalance     decimal.Decimal `json:"initialBalance"`
	InitialBalanceDate core.Date       `json:"initialBalanceDate"`
	Bills              []rawRule       `json:"bills"`
	Settings           *Settings       `json:"settings"`
}

// Decode parses a snapshot blob, migrating older shapes forward: a missing
// version becomes 1, missing categories default to "other", numeric ids
// become their string form. Values outside the closed enumerations are
// rejected rather than silently defaulted, and non-JSON input fails whole.
func Decode(data []byte) (Snapshot, error) {
	var raw rawSnapshot
	if err := json.Unmarshal(data, &raw); err != nil {
		return Snapshot{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if raw.Version == 0 {
		raw.Version = 1
	}
	if raw.Version > Version {
		return Snapshot{}, fmt.Errorf("%w: version %d is newer than supported %d",
			ErrMalformed, raw.Version, Version)
	}

	snap := Snapshot{
		Version:            Version,
		InitialBalance:     raw.InitialBalance,
		InitialBalanceDate: raw.InitialBalanceDate,
		Settings:           DefaultSettings(),
	}
	if raw.Settings != nil {
		snap.Settings = *raw.Settings
	}

	for i, rr := range raw.Bills {
		rule, err := migrateRule(rr)
		if err != nil {
			return Snapshot{}, fmt.Errorf("bill %d: %w", i, err)
		}
		snap.Bills = append(snap.Bills, rule)
	}
	return snap, nil
}

func migrateRule(rr rawRule) (core.Rule, error) {
	id := decodeID(rr.ID)
	if id == "" {
		id = core.NewRuleID()
	}

	kind, err := core.ParseRecurrence(rr.Type)
	if err != nil {
		return core.Rule{}, err
	}

	category := core.Other
	if strings.TrimSpace(rr.Category) != "" {
		category, err = core.ParseCategory(rr.Category)
		if err != nil {
			return core.Rule{}, err
		}
	}

	return core.Rule{
		ID:         id,
		Name:       rr.Name,
		Amount:     rr.Amount,
		Recurrence: kind,
		Category:   category,
		Anchor:     rr.Date,
		End:        rr.EndDate,
	}, nil
}

// decodeID accepts both the string ids written today and the numeric
// Date.now() ids of the original format.
func decodeID(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return ""
}
