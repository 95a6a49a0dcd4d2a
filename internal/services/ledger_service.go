package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/shopspring/decimal"

	"billcal/internal/amqp"
	"billcal/internal/core"
	"billcal/internal/ledger"
	"billcal/internal/snapshot"
	"billcal/internal/storage"
)

// LedgerService owns the application state: the in-memory ledger, the
// import draft buffer, the snapshot store and the optional event
// publisher. It serializes access with a single mutex; the engine
// underneath stays a pure library. Mutations apply locally first, then
// persist and publish best-effort: the in-memory ledger is the source of
// truth and a failing store or broker never unwinds a mutation.
type LedgerService struct {
	mu       sync.Mutex
	ledger   *ledger.Ledger
	store    storage.Store
	events   *amqp.Client // nil when no broker is configured
	settings snapshot.Settings
	drafts   []Draft
}

func NewLedgerService(store storage.Store, events *amqp.Client) *LedgerService {
	return &LedgerService{
		ledger:   ledger.New(),
		store:    store,
		events:   events,
		settings: snapshot.DefaultSettings(),
	}
}

// LoadSnapshot restores state from the store. A missing snapshot starts
// empty; a corrupt one is abandoned whole and the service starts empty
// with a logged warning rather than partially applying bad data.
func (s *LedgerService) LoadSnapshot(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	blob, err := s.store.Load(ctx)
	if errors.Is(err, storage.ErrNoSnapshot) {
		slog.InfoContext(ctx, "No snapshot stored, starting empty")
		return nil
	}
	if err != nil {
		return fmt.Errorf("load snapshot: %w", err)
	}

	snap, err := snapshot.Decode(blob)
	if err != nil {
		slog.WarnContext(ctx, "Snapshot is malformed, starting empty", "error", err)
		return nil
	}
	if err := snap.Apply(s.ledger); err != nil {
		slog.WarnContext(ctx, "Snapshot could not be applied, starting empty", "error", err)
		return nil
	}
	s.settings = snap.Settings

	slog.InfoContext(ctx, "Snapshot restored",
		"bills", len(snap.Bills),
		"initial_balance", snap.InitialBalance.String())
	return nil
}

// AddRule validates and appends a rule, then persists and publishes.
func (s *LedgerService) AddRule(ctx context.Context, r core.Rule) (core.Rule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	added, err := s.ledger.Add(r)
	if err != nil {
		return core.Rule{}, err
	}
	s.persist(ctx)
	s.publish(ctx, amqp.OpRuleAdded, added.ID)
	return added, nil
}

// RemoveRule deletes a rule by id.
func (s *LedgerService) RemoveRule(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ledger.Remove(id); err != nil {
		return err
	}
	s.persist(ctx)
	s.publish(ctx, amqp.OpRuleRemoved, id)
	return nil
}

// SetInitialBalance anchors the balance at the given date.
func (s *LedgerService) SetInitialBalance(ctx context.Context, amount decimal.Decimal, anchor core.Date) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.ledger.SetInitialBalance(amount, anchor)
	s.persist(ctx)
	s.publish(ctx, amqp.OpBalanceSet, "")
}

// Snapshot captures the current state.
func (s *LedgerService) Snapshot() snapshot.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return snapshot.FromLedger(s.ledger, s.settings)
}

// ReplaceSnapshot swaps the whole ledger for the snapshot's contents.
// Validation failures leave current state untouched.
func (s *LedgerService) ReplaceSnapshot(ctx context.Context, snap snapshot.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := snap.Apply(s.ledger); err != nil {
		return err
	}
	s.settings = snap.Settings
	s.drafts = nil
	s.persist(ctx)
	s.publish(ctx, amqp.OpReplaced, "")
	return nil
}

// Reset clears everything back to an empty ledger.
func (s *LedgerService) Reset(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.ledger = ledger.New()
	s.settings = snapshot.DefaultSettings()
	s.drafts = nil
	s.persist(ctx)
	s.publish(ctx, amqp.OpReplaced, "")
}

// ImportCSV reconciles raw rows into the draft buffer, replacing any
// drafts from a previous unconfirmed import.
func (s *LedgerService) ImportCSV(ctx context.Context, r io.Reader) (ImportReport, error) {
	report, err := ReconcileCSV(r)
	if err != nil {
		return report, err
	}

	s.mu.Lock()
	s.drafts = report.Drafts
	s.mu.Unlock()

	slog.InfoContext(ctx, "Import drafts staged", "count", len(report.Drafts))
	return report, nil
}

// Drafts returns the current reconciliation buffer.
func (s *LedgerService) Drafts() []Draft {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Draft, len(s.drafts))
	copy(out, s.drafts)
	return out
}

// ConfirmImport appends the selected drafts to the ledger and clears the
// buffer. When drafts is nil the staged buffer is confirmed as-is;
// otherwise the caller's (possibly edited) drafts are used.
func (s *LedgerService) ConfirmImport(ctx context.Context, drafts []Draft) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if drafts == nil {
		drafts = s.drafts
	}
	added, err := ConfirmDrafts(s.ledger, drafts)
	if err != nil {
		return added, err
	}
	s.drafts = nil
	if added > 0 {
		s.persist(ctx)
		s.publish(ctx, amqp.OpReplaced, "")
	}
	return added, nil
}

// CalendarDay is one rendered day of a month or range view.
type CalendarDay struct {
	Date    core.Date         `json:"date"`
	Balance decimal.Decimal   `json:"balance"`
	Summary ledger.DaySummary `json:"summary"`
	Rules   []core.Rule       `json:"bills"`
}

// RangeView assembles per-day balances, summaries and occurrences over
// [start, end] inclusive, in display order.
func (s *LedgerService) RangeView(start, end core.Date) []CalendarDay {
	s.mu.Lock()
	defer s.mu.Unlock()

	series := s.ledger.BalanceSeries(start, end)
	days := make([]CalendarDay, 0, len(series))
	for _, p := range series {
		rules := s.ledger.RulesOn(p.Date)
		core.SortRulesForDisplay(rules)
		days = append(days, CalendarDay{
			Date:    p.Date,
			Balance: p.Balance,
			Summary: s.ledger.Summarize(p.Date),
			Rules:   rules,
		})
	}
	return days
}

// MonthView is RangeView over a whole calendar month.
func (s *LedgerService) MonthView(year, month int) []CalendarDay {
	start, end := core.MonthRange(year, month)
	return s.RangeView(start, end)
}

// BalanceAt returns the running balance as of a day.
func (s *LedgerService) BalanceAt(day core.Date) decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.BalanceAt(day)
}

// ExportCSV writes the export projection for the range.
func (s *LedgerService) ExportCSV(w io.Writer, start, end core.Date) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return WriteCSV(w, s.ledger, start, end)
}

// Revision returns the ledger mutation counter, used as a cache key
// component by the HTTP layer.
func (s *LedgerService) Revision() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.Revision()
}

// Save forces a snapshot write outside the mutation path. Used by the
// autosave loop; a failing store is returned to the caller instead of
// only being logged.
func (s *LedgerService) Save(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.store == nil {
		return nil
	}
	blob, err := snapshot.FromLedger(s.ledger, s.settings).Encode()
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if err := s.store.Save(ctx, blob); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

// persist writes the snapshot through the store. Must be called with the
// mutex held.
func (s *LedgerService) persist(ctx context.Context) {
	if s.store == nil {
		return
	}
	blob, err := snapshot.FromLedger(s.ledger, s.settings).Encode()
	if err != nil {
		slog.ErrorContext(ctx, "Failed to encode snapshot", "error", err)
		return
	}
	if err := s.store.Save(ctx, blob); err != nil {
		slog.ErrorContext(ctx, "Failed to persist snapshot", "error", err)
	}
}

// publish emits a ledger event. Must be called with the mutex held.
func (s *LedgerService) publish(ctx context.Context, op, ruleID string) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishLedgerEvent(ctx, op, ruleID, s.ledger.Revision()); err != nil {
		slog.ErrorContext(ctx, "Failed to publish ledger event",
			"op", op, "error", err)
	}
}
