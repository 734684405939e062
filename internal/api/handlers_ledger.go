package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/dgallion1/mdledger/internal/ledger"
	"github.com/go-chi/chi/v5"
)

// handleIngest runs a table ingest pass over one file.
func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	var req struct {
		File string `json:"file"`
		H2   string `json:"h2"`
		Full bool   `json:"full"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.File == "" {
		jsonError(w, "file is required", http.StatusBadRequest)
		return
	}
	if !req.Full && req.H2 == "" {
		jsonError(w, "either full or h2 is required", http.StatusBadRequest)
		return
	}

	report, err := s.ledger.Ingest(req.File, ledger.Options{Full: req.Full, H2Target: req.H2})
	if err != nil {
		if errors.Is(err, ledger.ErrMissingFile) {
			jsonError(w, err.Error(), http.StatusNotFound)
			return
		}
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, map[string]any{
		"file":          report.File,
		"rows_ingested": report.RowsIngested,
		"per_h2":        report.PerH2,
		"table_configs": report.TableConfigs,
	})
}

// handleQueryRows returns ledger rows filtered by h2 and/or type.
func (s *Server) handleQueryRows(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	rows, err := s.ledger.Query(q.Get("h2"), q.Get("type"))
	if err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	out := make([]map[string]any, 0, len(rows))
	for _, row := range rows {
		out = append(out, map[string]any{
			"row_id":      row.RowID,
			"h2":          row.H2,
			"text":        row.Text,
			"src":         row.Src,
			"type":        row.Type,
			"file":        row.File,
			"line_no":     row.LineNo,
			"status":      row.Status,
			"ingested_at": row.IngestedAt.Format(time.RFC3339Nano),
		})
	}
	writeJSON(w, map[string]any{"rows": out, "count": len(out)})
}

// handleUpdateRow rewrites one row's text in its source file and ledger.
func (s *Server) handleUpdateRow(w http.ResponseWriter, r *http.Request) {
	rowID := chi.URLParam(r, "rowID")

	var req struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	res, err := s.ledger.Update(rowID, req.Text)
	if err != nil {
		switch {
		case errors.Is(err, ledger.ErrRowNotFound):
			jsonError(w, err.Error(), http.StatusNotFound)
		case errors.Is(err, ledger.ErrMissingFile):
			jsonError(w, err.Error(), http.StatusNotFound)
		case errors.Is(err, ledger.ErrLineOutOfBounds):
			jsonError(w, err.Error(), http.StatusConflict)
		case errors.Is(err, ledger.ErrMalformedRow):
			jsonError(w, err.Error(), http.StatusConflict)
		default:
			jsonError(w, err.Error(), http.StatusInternalServerError)
		}
		return
	}

	writeJSON(w, map[string]any{
		"row_id": rowID,
		"file":   res.File,
		"line":   res.LineNo,
	})
}
