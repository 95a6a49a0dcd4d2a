package http

import (
	"io"
	"net/http"

	"billcal/internal/snapshot"
)

// handleSnapshot serves and restores versioned ledger snapshots
func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.getSnapshot(w, r)
	case http.MethodPost:
		s.restoreSnapshot(w, r)
	default:
		methodNotAllowed(w, http.MethodGet, http.MethodPost)
	}
}

func (s *Server) getSnapshot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.svc.Snapshot())
}

func (s *Server) restoreSnapshot(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxImportBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed reading request body")
		return
	}

	// Decode rather than plain unmarshal so legacy blobs are migrated
	// forward before they touch the ledger.
	snap, err := snapshot.Decode(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.svc.ReplaceSnapshot(r.Context(), snap); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, s.svc.Snapshot())
}

// handleReset clears all rules, balance, and staged drafts
func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}

	s.svc.Reset(r.Context())

	writeJSON(w, http.StatusOK, s.svc.Snapshot())
}
