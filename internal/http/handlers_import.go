package http

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"billcal/internal/core"
	applog "billcal/internal/log"
	"billcal/internal/services"
)

const maxImportBytes = 8 << 20 // 8 MiB

// handleImportCSV stages bank statement rows as import drafts
func (s *Server) handleImportCSV(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}

	body, err := importBody(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	defer body.Close()

	report, err := s.svc.ImportCSV(r.Context(), io.LimitReader(body, maxImportBytes))
	if err != nil {
		if errors.Is(err, services.ErrNoImportableRows) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, report)
}

// importBody returns the CSV payload, either from a multipart "file" part
// or from the raw request body.
func importBody(r *http.Request) (io.ReadCloser, error) {
	contentType := r.Header.Get("Content-Type")
	if strings.HasPrefix(contentType, "multipart/form-data") {
		if err := r.ParseMultipartForm(maxImportBytes); err != nil {
			return nil, fmt.Errorf("invalid multipart form: %v", err)
		}
		file, _, err := r.FormFile("file")
		if err != nil {
			return nil, fmt.Errorf(`missing "file" form field: %v`, err)
		}
		return file, nil
	}
	return r.Body, nil
}

type confirmRequest struct {
	Drafts []services.Draft `json:"drafts"`
}

// handleImportConfirm converts selected drafts into one-time bill rules.
// Without a body, the drafts staged by the last import are confirmed.
func (s *Server) handleImportConfirm(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}

	var drafts []services.Draft
	if r.ContentLength != 0 {
		var req confirmRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		drafts = req.Drafts
	}

	added, err := s.svc.ConfirmImport(r.Context(), drafts)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"added": added,
	})
}

// handleExportCSV streams the projected calendar as a CSV download
func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}

	// Default to the current month when no range is given
	var start, end core.Date
	if r.URL.Query().Get("start") == "" && r.URL.Query().Get("end") == "" {
		now := time.Now()
		start, end = core.MonthRange(now.Year(), int(now.Month()))
	} else {
		var err error
		start, err = parseDateParam(r, "start")
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		end, err = parseDateParam(r, "end")
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}
	if end.Before(start.Time) {
		writeError(w, http.StatusBadRequest, "end must not precede start")
		return
	}

	filename := fmt.Sprintf("billcal_%s_%s.csv", start.Key(), end.Key())
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)

	if err := s.svc.ExportCSV(w, start, end); err != nil {
		// Headers are already out at this point; nothing to do but log.
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "CSV export failed",
			applog.NewFields().WithError(err).WithOperation(applog.OpExport).ToSlice()...)
	}
}
