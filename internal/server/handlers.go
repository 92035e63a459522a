package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/roach88/gridmerge/internal/output"
	"github.com/roach88/gridmerge/internal/store"
)

// errorResponse is the JSON body of every non-2xx API response.
type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	runs, err := s.runs.ListRuns(r.Context())
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"runs": runs})
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	run, err := s.runs.ReadRun(r.Context(), chi.URLParam(r, "runID"))
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	s.metrics.runs.WithLabelValues("summary").Inc()
	writeJSON(w, http.StatusOK, run)
}

func (s *Server) handleRunDiagnostics(w http.ResponseWriter, r *http.Request) {
	diagnostics, err := s.runs.ReadDiagnostics(r.Context(), chi.URLParam(r, "runID"))
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	s.metrics.runs.WithLabelValues("diagnostics").Inc()
	writeJSON(w, http.StatusOK, map[string]any{"diagnostics": diagnostics})
}

func (s *Server) handleRunTable(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "runID")

	run, err := s.runs.ReadRun(r.Context(), runID)
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	rows, err := s.runs.ReadRows(r.Context(), runID)
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}

	s.metrics.runs.WithLabelValues("table").Inc()
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+runID+`.csv"`)
	if err := output.WriteCSV(w, output.Table{Headers: run.Headers, Rows: rows}); err != nil {
		// Headers are already sent.
		s.logger.Error("write table", "run", runID, "error", err)
	}
}

// writeStoreError maps store errors to HTTP status codes.
func (s *Server) writeStoreError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, store.ErrRunNotFound) {
		writeJSON(w, http.StatusNotFound, errorResponse{
			Error: "run not found: " + chi.URLParam(r, "runID"),
			Code:  "run_not_found",
		})
		return
	}

	s.logger.Error("store read failed", "path", r.URL.Path, "error", err)
	writeJSON(w, http.StatusInternalServerError, errorResponse{
		Error: "internal error",
		Code:  "internal",
	})
}

// writeJSON encodes v as the response body with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
