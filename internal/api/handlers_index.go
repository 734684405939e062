package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/dgallion1/mdledger/internal/render"
	"github.com/dgallion1/mdledger/internal/store"
)

type sectionJSON struct {
	File      string `json:"file"`
	Text      string `json:"text"`
	Level     int    `json:"level"`
	LineStart int    `json:"line_start"`
	LineEnd   int    `json:"line_end"`
}

func toSectionJSON(secs []store.Section) []sectionJSON {
	out := make([]sectionJSON, 0, len(secs))
	for _, s := range secs {
		out = append(out, sectionJSON{
			File:      s.File,
			Text:      s.Text,
			Level:     s.Level,
			LineStart: s.LineStart,
			LineEnd:   s.LineEnd,
		})
	}
	return out
}

// handleIndex indexes a file or directory.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Path      string `json:"path"`
		Recursive bool   `json:"recursive"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.Path == "" {
		jsonError(w, "path is required", http.StatusBadRequest)
		return
	}

	res, err := s.indexer.Index(req.Path, req.Recursive)
	if err != nil {
		jsonError(w, err.Error(), http.StatusNotFound)
		return
	}

	writeJSON(w, map[string]any{
		"files_scanned":   res.FilesScanned,
		"files_indexed":   res.FilesIndexed,
		"headers_indexed": res.HeadersIndexed,
	})
}

// handleHeaders returns the ordered section list of a file, reindexing it
// first if stale.
func (s *Server) handleHeaders(w http.ResponseWriter, r *http.Request) {
	file := r.URL.Query().Get("file")
	if file == "" {
		jsonError(w, "file query parameter is required", http.StatusBadRequest)
		return
	}

	sections, err := s.indexer.Headers(file)
	if err != nil {
		jsonError(w, err.Error(), http.StatusNotFound)
		return
	}
	writeJSON(w, map[string]any{"file": file, "sections": toSectionJSON(sections)})
}

// handleFindSection searches indexed header texts.
func (s *Server) handleFindSection(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		jsonError(w, "q query parameter is required", http.StatusBadRequest)
		return
	}

	matches, err := s.indexer.FindSection(query, r.URL.Query().Get("file"))
	if err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]any{"matches": toSectionJSON(matches)})
}

// handleSectionContent returns the raw or rendered lines of a section range.
func (s *Server) handleSectionContent(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	file := q.Get("file")
	start, err1 := strconv.Atoi(q.Get("start"))
	end, err2 := strconv.Atoi(q.Get("end"))
	if file == "" || err1 != nil || err2 != nil {
		jsonError(w, "file, start and end query parameters are required", http.StatusBadRequest)
		return
	}

	lines, err := s.indexer.SectionContent(file, start, end)
	if err != nil {
		jsonError(w, err.Error(), http.StatusNotFound)
		return
	}

	if q.Get("format") == "html" {
		html, err := render.HTML(lines)
		if err != nil {
			jsonError(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, map[string]any{"file": file, "html": html})
		return
	}
	writeJSON(w, map[string]any{"file": file, "lines": lines})
}

// handleFindContent searches raw file content with section provenance.
func (s *Server) handleFindContent(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := q.Get("q")
	if query == "" {
		jsonError(w, "q query parameter is required", http.StatusBadRequest)
		return
	}

	contextLines := s.cfg.DefaultContext
	if v := q.Get("context"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			contextLines = n
		}
	}

	matches, err := s.indexer.FindContent(query, q.Get("file"), contextLines)
	if err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	out := make([]map[string]any, 0, len(matches))
	for _, m := range matches {
		entry := map[string]any{
			"file":    m.File,
			"line_no": m.LineNo,
			"context": m.Context,
		}
		if m.Section != nil {
			entry["section"] = map[string]any{
				"path":       strings.Join(m.Path, " > "),
				"level":      m.Section.Level,
				"line_start": m.Section.LineStart,
				"line_end":   m.Section.LineEnd,
			}
		}
		out = append(out, entry)
	}
	writeJSON(w, map[string]any{"matches": out})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
