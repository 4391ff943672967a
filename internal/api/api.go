// Package api exposes the pipeline operations and result caches over HTTP.
package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/ziadkadry99/mcporch/internal/analysis"
	"github.com/ziadkadry99/mcporch/internal/flow"
	"github.com/ziadkadry99/mcporch/internal/pipeline"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 4 << 20

// SourceRequest is the body of /api/analyze and /api/pipeline.
type SourceRequest struct {
	Language string `json:"language"`
	Code     string `json:"code"`
}

type handler struct {
	svc *pipeline.Service
	md  goldmark.Markdown
}

// RegisterRoutes mounts the pipeline endpoints under /api.
func RegisterRoutes(r chi.Router, svc *pipeline.Service) {
	h := &handler{
		svc: svc,
		md:  goldmark.New(goldmark.WithExtensions(extension.GFM)),
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/languages", h.handleLanguages)
		r.Post("/analyze", h.handleAnalyze)
		r.Post("/summarize", h.handleSummarize)
		r.Post("/prompt", h.handlePrompt)
		r.Post("/pipeline", h.handlePipeline)
		r.Get("/analyses", h.handleAnalyses)
		r.Get("/prompts", h.handlePrompts)
		r.Get("/prompts/latest", h.handleLatestPrompt)
	})
}

// StatusFor maps an analysis error to an HTTP status.
func StatusFor(err error) int {
	switch analysis.KindOf(err) {
	case analysis.KindEmptyInput, analysis.KindUnsupported:
		return http.StatusBadRequest
	case analysis.KindParse:
		return http.StatusUnprocessableEntity
	case analysis.KindTransport:
		return http.StatusBadGateway
	case analysis.KindTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func (h *handler) handleLanguages(w http.ResponseWriter, r *http.Request) {
	type lang struct {
		Language string            `json:"language"`
		Strategy analysis.Strategy `json:"strategy"`
	}
	out := []lang{}
	for _, a := range h.svc.Registry().Analyzers() {
		out = append(out, lang{Language: a.Language(), Strategy: a.Strategy()})
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *handler) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req SourceRequest
	if !decodeBody(w, r, &req) {
		return
	}
	rec, err := h.svc.Analyze(r.Context(), req.Language, req.Code)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (h *handler) handleSummarize(w http.ResponseWriter, r *http.Request) {
	var rec analysis.Record
	if !decodeBody(w, r, &rec) {
		return
	}
	sum, err := h.svc.Summarize(&rec)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

func (h *handler) handlePrompt(w http.ResponseWriter, r *http.Request) {
	var sum flow.Summary
	if !decodeBody(w, r, &sum) {
		return
	}
	rec, err := h.svc.BuildPrompt(sum)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// handlePipeline answers 200 whenever the body decodes; stage failures are
// reported inside the result.
func (h *handler) handlePipeline(w http.ResponseWriter, r *http.Request) {
	var req SourceRequest
	if !decodeBody(w, r, &req) {
		return
	}
	writeJSON(w, http.StatusOK, h.svc.Run(r.Context(), req.Language, req.Code))
}

func (h *handler) handleAnalyses(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Analyses())
}

func (h *handler) handlePrompts(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Prompts())
}

func (h *handler) handleLatestPrompt(w http.ResponseWriter, r *http.Request) {
	entry, ok := h.svc.LatestPrompt()
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no prompts built yet"})
		return
	}
	if r.URL.Query().Get("format") != "html" {
		writeJSON(w, http.StatusOK, entry)
		return
	}

	var buf bytes.Buffer
	if err := h.md.Convert([]byte(entry.Value.Prompt), &buf); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		msg := "invalid request body: " + err.Error()
		if errors.Is(err, io.EOF) {
			msg = "request body is empty"
		}
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": msg})
		return false
	}
	return true
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, StatusFor(err), map[string]string{
		"error": err.Error(),
		"kind":  string(analysis.KindOf(err)),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
