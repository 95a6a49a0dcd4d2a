package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"billcal/internal/core"
	"billcal/internal/ledger"
)

type billRequest struct {
	Name     string          `json:"name"`
	Amount   decimal.Decimal `json:"amount"`
	Type     string          `json:"type"`
	Category string          `json:"category"`
	Date     core.Date       `json:"date"`
	EndDate  core.Date       `json:"endDate"`
}

// handleBills lists, creates, and deletes recurring bill rules
func (s *Server) handleBills(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.listBills(w, r)
	case http.MethodPost:
		s.createBill(w, r)
	case http.MethodDelete:
		s.deleteBill(w, r)
	default:
		methodNotAllowed(w, http.MethodGet, http.MethodPost, http.MethodDelete)
	}
}

func (s *Server) listBills(w http.ResponseWriter, r *http.Request) {
	bills := s.svc.Snapshot().Bills
	core.SortRulesForDisplay(bills)

	writeJSON(w, http.StatusOK, map[string]any{
		"bills": bills,
	})
}

func (s *Server) createBill(w http.ResponseWriter, r *http.Request) {
	var req billRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	rule, err := ruleFromRequest(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	added, err := s.svc.AddRule(r.Context(), rule)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.logx.LogRuleAdded(r.Context(), added.ID, added.Name,
		core.FormatAmount(added.Amount), string(added.Recurrence))

	writeJSON(w, http.StatusCreated, added)
}

func (s *Server) deleteBill(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(r.URL.Query().Get("id"))
	if id == "" {
		writeError(w, http.StatusBadRequest, `missing "id" parameter`)
		return
	}

	if err := s.svc.RemoveRule(r.Context(), id); err != nil {
		if errors.Is(err, ledger.ErrRuleNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func ruleFromRequest(req billRequest) (core.Rule, error) {
	recurrence, err := core.ParseRecurrence(req.Type)
	if err != nil {
		return core.Rule{}, err
	}

	// Category is optional on input; uncategorized bills land in "other".
	category := core.Other
	if strings.TrimSpace(req.Category) != "" {
		category, err = core.ParseCategory(req.Category)
		if err != nil {
			return core.Rule{}, err
		}
	}

	return core.Rule{
		Name:       sanitizeInput(req.Name),
		Amount:     req.Amount,
		Recurrence: recurrence,
		Category:   category,
		Anchor:     req.Date,
		End:        req.EndDate,
	}, nil
}

// handleMeta serves the closed category and recurrence enumerations with
// their display metadata, so clients never hardcode the lists.
func (s *Server) handleMeta(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}

	categories := make([]map[string]string, 0, len(core.Categories()))
	for _, c := range core.Categories() {
		categories = append(categories, map[string]string{
			"value": string(c),
			"emoji": c.Emoji(),
		})
	}

	kinds := []core.Recurrence{
		core.OneTime, core.Daily, core.Weekly,
		core.Biweekly, core.Monthly, core.Yearly,
	}
	recurrences := make([]map[string]string, 0, len(kinds))
	for _, k := range kinds {
		recurrences = append(recurrences, map[string]string{
			"value": string(k),
			"label": k.Label(),
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"categories":  categories,
		"recurrences": recurrences,
	})
}

type balanceRequest struct {
	Amount decimal.Decimal `json:"amount"`
	Date   core.Date       `json:"date"`
}

// handleBalance sets the anchored initial balance
func (s *Server) handleBalance(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		methodNotAllowed(w, http.MethodPut)
		return
	}

	var req balanceRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.svc.SetInitialBalance(r.Context(), req.Amount, req.Date)

	writeJSON(w, http.StatusOK, map[string]any{
		"initialBalance":     req.Amount,
		"initialBalanceDate": req.Date,
	})
}
