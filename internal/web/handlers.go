// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"privacy-sentinel/internal/annotator"
	"privacy-sentinel/internal/core"
	"privacy-sentinel/internal/detector"
	"privacy-sentinel/internal/formatters"
	"privacy-sentinel/internal/ingest"
	"privacy-sentinel/internal/masker"
	"privacy-sentinel/internal/summary"
	"privacy-sentinel/internal/version"

	// Register the report formatters.
	_ "privacy-sentinel/internal/formatters/csv"
	_ "privacy-sentinel/internal/formatters/json"
	_ "privacy-sentinel/internal/formatters/text"
	_ "privacy-sentinel/internal/formatters/yaml"
)

type errorResponse struct {
	Error string `json:"error"`
}

type detectRequest struct {
	Text string `json:"text"`
}

type detectResponse struct {
	Matches []detector.Match  `json:"matches"`
	Summary []summary.Summary `json:"summary"`
}

type summarizeRequest struct {
	Matches []detector.Match `json:"matches"`
}

type summarizeResponse struct {
	Summary []summary.Summary `json:"summary"`
	Total   int               `json:"total"`
	Highest summary.Severity  `json:"highest_severity,omitempty"`
}

type renderRequest struct {
	Text    string           `json:"text"`
	Matches []detector.Match `json:"matches"`
	Masked  bool             `json:"masked"`
}

type renderResponse struct {
	Rendered string `json:"rendered"`
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// decodeJSON reads one JSON document from the capped request body
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit))
			return false
		}
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return false
	}
	return true
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":     "ok",
		"service":    "privacy-sentinel",
		"timestamp":  time.Now().UTC().Format(time.RFC3339),
		"uptime":     time.Since(s.startTime).Round(time.Second).String(),
		"build_info": version.Full(),
	})
}

func (s *Server) handleDetect(w http.ResponseWriter, r *http.Request) {
	var req detectRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	matches := s.engine.Detect(r.Context(), req.Text)
	if matches == nil {
		matches = []detector.Match{}
	}
	writeJSON(w, http.StatusOK, detectResponse{
		Matches: matches,
		Summary: s.engine.Summarize(matches),
	})
}

func (s *Server) handleSummarize(w http.ResponseWriter, r *http.Request) {
	var req summarizeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	for i := range req.Matches {
		c, ok := detector.ParseCategory(string(req.Matches[i].Category))
		if !ok {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("matches[%d]: unknown category %q", i, req.Matches[i].Category))
			return
		}
		req.Matches[i].Category = c
	}
	sums := s.engine.Summarize(req.Matches)
	writeJSON(w, http.StatusOK, summarizeResponse{
		Summary: sums,
		Total:   summary.Total(sums),
		Highest: summary.Highest(sums),
	})
}

// handleRender annotates text with the supplied matches, or with the
// engine's own matches when none are supplied. Supplied matches may omit
// their values; they are taken from the text.
func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	var req renderRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	matches := req.Matches
	if matches == nil {
		matches = s.engine.Detect(r.Context(), req.Text)
	}
	for i := range matches {
		m := &matches[i]
		c, ok := detector.ParseCategory(string(m.Category))
		if !ok {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("matches[%d]: unknown category %q", i, m.Category))
			return
		}
		m.Category = c
		if !m.Span.Valid(len(req.Text)) {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("matches[%d]: span %d-%d outside text", i, m.Span.Start, m.Span.End))
			return
		}
		if m.RawValue == "" {
			m.RawValue = req.Text[m.Span.Start:m.Span.End]
		}
		if m.MaskedValue == "" {
			m.MaskedValue = masker.Mask(m.RawValue, m.Category)
		}
	}

	writeJSON(w, http.StatusOK, renderResponse{
		Rendered: annotator.Render(req.Text, matches, req.Masked),
	})
}

// handleScan ingests an uploaded document and scans its text. The query
// parameters masked and render control rendering; format selects a report
// format instead of the JSON scan result.
func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(s.settings.MaxBodyBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit))
			return
		}
		writeError(w, http.StatusBadRequest, "expected multipart form with a file field")
		return
	}
	if r.MultipartForm != nil {
		defer r.MultipartForm.RemoveAll()
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing file field")
		return
	}
	defer file.Close()

	doc, err := ingest.ExtractReader(header.Filename, file, s.ingest)
	if err != nil {
		s.logger.Warn().Err(err).Str("filename", sanitizeFilename(header.Filename)).Msg("upload rejected")
		writeError(w, ingestStatus(err), err.Error())
		return
	}

	query := r.URL.Query()
	masked := queryBool(query.Get("masked"), true)
	result := core.ScanDocument(r.Context(), core.ScanConfig{
		Engine:             s.engine,
		Render:             queryBool(query.Get("render"), false),
		Masked:             masked,
		SuppressionManager: s.suppressions,
	}, doc)

	format := query.Get("format")
	if format == "" {
		writeJSON(w, http.StatusOK, result)
		return
	}

	content, mimeType, filename, err := formatters.ExportForWeb(format, formatters.NewReport(result), formatters.FormatterOptions{
		ConfidenceLevel: core.ParseConfidenceLevels(query.Get("confidence")),
		Verbose:         queryBool(query.Get("verbose"), false),
		NoColor:         true,
		ShowMatch:       !masked,
		ShowRendered:    result.Rendered != "",
	})
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	w.Header().Set("Content-Type", mimeType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(content))
}

func (s *Server) handleFormats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, formatters.GetSupportedFormats())
}

func (s *Server) handleCategories(w http.ResponseWriter, _ *http.Request) {
	type categoryInfo struct {
		Name     detector.Category `json:"name"`
		Severity summary.Severity  `json:"severity"`
	}
	var out []categoryInfo
	for _, c := range detector.Categories() {
		out = append(out, categoryInfo{Name: c, Severity: summary.SeverityFor(c)})
	}
	writeJSON(w, http.StatusOK, out)
}

func ingestStatus(err error) int {
	switch {
	case errors.Is(err, ingest.ErrUnsupported):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, ingest.ErrTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, ingest.ErrNotUTF8):
		return http.StatusUnprocessableEntity
	}
	return http.StatusUnprocessableEntity
}

func queryBool(v string, fallback bool) bool {
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

// sanitizeFilename keeps log lines printable and short
func sanitizeFilename(name string) string {
	name = strings.Map(func(r rune) rune {
		if r < 0x20 || r == 0x7f {
			return -1
		}
		return r
	}, name)
	if runes := []rune(name); len(runes) > 100 {
		name = string(runes[:100]) + "..."
	}
	return name
}
