// Package analyzersvc serves a single language analyzer over HTTP so the
// orchestrator can reach it through the remote analyzer client.
package analyzersvc

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ziadkadry99/mcporch/internal/analysis"
)

// maxCodeBytes caps the /analyze request body.
const maxCodeBytes = 4 << 20

// Service wraps one analyzer behind a timeout-bounded registry.
type Service struct {
	language string
	strategy analysis.Strategy
	registry *analysis.Registry
}

// New creates a Service for a. Every call is bounded by timeout.
func New(a analysis.Analyzer, timeout time.Duration) *Service {
	reg := analysis.NewRegistry(timeout)
	reg.Register(a)
	return &Service{language: a.Language(), strategy: a.Strategy(), registry: reg}
}

// Name is the service name reported by /health and /.
func (s *Service) Name() string { return "mcporch-" + s.language + "-analyzer" }

// RegisterRoutes mounts /, /health and /analyze.
func (s *Service) RegisterRoutes(r chi.Router) {
	r.Get("/", s.handleInfo)
	r.Get("/health", s.handleHealth)
	r.Post("/analyze", s.handleAnalyze)
}

func (s *Service) handleInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"service":  s.Name(),
		"language": s.language,
		"strategy": s.strategy,
		"endpoints": map[string]string{
			"analyze": "POST /analyze",
			"health":  "GET /health",
		},
	})
}

func (s *Service) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "UP", "service": s.Name()})
}

// handleAnalyze answers 200 with either the record or {error} for source that
// does not parse; 400 when no code is sent and 5xx for analyzer faults.
func (s *Service) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Code string `json:"code"`
	}
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxCodeBytes)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body: " + err.Error()})
		return
	}
	if strings.TrimSpace(req.Code) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "No code provided"})
		return
	}

	rec, err := s.registry.Analyze(r.Context(), s.language, req.Code)
	switch analysis.KindOf(err) {
	case "":
		writeJSON(w, http.StatusOK, rec)
	case analysis.KindParse:
		writeJSON(w, http.StatusOK, map[string]string{"error": err.Error()})
	case analysis.KindTimeout:
		writeJSON(w, http.StatusGatewayTimeout, map[string]string{"error": err.Error()})
	default:
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
