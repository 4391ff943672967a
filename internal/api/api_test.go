package api

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ziadkadry99/mcporch/internal/analysis"
	"github.com/ziadkadry99/mcporch/internal/flow"
	"github.com/ziadkadry99/mcporch/internal/pipeline"
	"github.com/ziadkadry99/mcporch/internal/prompt"
)

type stubAnalyzer struct{}

func (stubAnalyzer) Language() string            { return "python" }
func (stubAnalyzer) Strategy() analysis.Strategy { return analysis.StrategyHeuristic }

func (stubAnalyzer) Analyze(ctx context.Context, source string) (*analysis.Record, error) {
	switch strings.TrimSpace(source) {
	case "bad":
		return nil, analysis.NewParseError("python", "invalid syntax", nil)
	case "down":
		return nil, analysis.NewTransportError("python", "analyzer returned status 503", nil)
	case "slow":
		<-ctx.Done()
		return nil, ctx.Err()
	}
	fn := analysis.NewFunction("add", []analysis.Param{{Name: "a", Type: "int"}, {Name: "b", Type: "int"}}, []string{"int"}, 1, 2, 0)
	return &analysis.Record{Functions: []analysis.Function{fn}}, nil
}

func setupRouter(t *testing.T) (chi.Router, *pipeline.Service) {
	t.Helper()
	reg := analysis.NewRegistry(50 * time.Millisecond)
	reg.Register(stubAnalyzer{})
	svc := pipeline.New(reg, flow.New(flow.DefaultThresholds()), prompt.NewBuilder(),
		pipeline.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))

	r := chi.NewRouter()
	RegisterRoutes(r, svc)
	return r, svc
}

func do(t *testing.T, r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAnalyzeStatusMapping(t *testing.T) {
	r, _ := setupRouter(t)

	tests := []struct {
		name   string
		body   string
		status int
		kind   string
	}{
		{"ok", `{"language":"python","code":"def add(a, b): return a + b"}`, http.StatusOK, ""},
		{"empty code", `{"language":"python","code":"  "}`, http.StatusBadRequest, "empty_input"},
		{"unsupported", `{"language":"cobol","code":"x"}`, http.StatusBadRequest, "unsupported_language"},
		{"parse", `{"language":"python","code":"bad"}`, http.StatusUnprocessableEntity, "parse_error"},
		{"transport", `{"language":"python","code":"down"}`, http.StatusBadGateway, "transport_error"},
		{"timeout", `{"language":"python","code":"slow"}`, http.StatusGatewayTimeout, "timeout"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, r, http.MethodPost, "/api/analyze", tt.body)
			require.Equal(t, tt.status, w.Code, w.Body.String())

			var body map[string]any
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			if tt.kind == "" {
				assert.Equal(t, "python", body["language"])
				assert.Equal(t, []any{"a: int", "b: int"}, body["inputs"])
				return
			}
			assert.Equal(t, tt.kind, body["kind"])
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestInvalidBody(t *testing.T) {
	r, _ := setupRouter(t)

	w := do(t, r, http.MethodPost, "/api/analyze", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "request body is empty")

	w = do(t, r, http.MethodPost, "/api/prompt", "{not json")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid request body")
}

func TestSummarizeAndPrompt(t *testing.T) {
	r, _ := setupRouter(t)

	rec := `{"language":"python","functions":[{"name":"add","inputs":[{"name":"a","type":"int","optional":false}],"outputs":["int"],"line_start":1,"line_end":2,"branches":0,"local_complexity":1}],"inputs":["a: int"],"outputs":["int"],"complexity":1,"branches":0,"side_effects":[]}`
	w := do(t, r, http.MethodPost, "/api/summarize", rec)
	require.Equal(t, http.StatusOK, w.Code)

	var sum flow.Summary
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &sum))
	assert.Equal(t, []string{"add#path_1"}, sum.KeyPaths)
	assert.Contains(t, sum.EdgeCases, flow.EdgeNumericBoundary)

	w = do(t, r, http.MethodPost, "/api/prompt", w.Body.String())
	require.Equal(t, http.StatusOK, w.Code)

	var pr prompt.Record
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &pr))
	assert.Equal(t, prompt.EstimateTokens(pr.Prompt), pr.TokensEst)
	assert.Equal(t, prompt.BaselineGuardrails, pr.Guardrails)
}

func TestPipelineAlwaysOK(t *testing.T) {
	r, _ := setupRouter(t)

	w := do(t, r, http.MethodPost, "/api/pipeline", `{"language":"python","code":"bad"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var res map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	meta := res["meta"].(map[string]any)
	assert.Equal(t, "start", meta["state"])
	assert.Len(t, meta["errors"], 1)
	assert.Equal(t, true, res["flow"].(map[string]any)["skipped"])

	w = do(t, r, http.MethodPost, "/api/pipeline", `{"language":"python","code":"def add(a, b): pass"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"state":"done"`)
}

func TestCacheListings(t *testing.T) {
	r, svc := setupRouter(t)

	w := do(t, r, http.MethodGet, "/api/prompts/latest", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, r, http.MethodGet, "/api/analyses", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())

	svc.Run(context.Background(), "python", "def add(a, b): pass")

	w = do(t, r, http.MethodGet, "/api/analyses", "")
	var entries []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &entries))
	require.Len(t, entries, 1)
	assert.NotEmpty(t, entries[0]["id"])
	assert.NotEmpty(t, entries[0]["timestamp"])

	w = do(t, r, http.MethodGet, "/api/prompts", "")
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &entries))
	assert.Len(t, entries, 1)

	w = do(t, r, http.MethodGet, "/api/prompts/latest", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"tokens_est"`)

	w = do(t, r, http.MethodGet, "/api/prompts/latest?format=html", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/html; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Body.String(), "<table>")
	assert.Contains(t, w.Body.String(), "<h1>")
}

func TestLanguages(t *testing.T) {
	r, _ := setupRouter(t)

	w := do(t, r, http.MethodGet, "/api/languages", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[{"language":"python","strategy":"heuristic"}]`, w.Body.String())
}

func TestStatusForUnknownError(t *testing.T) {
	assert.Equal(t, http.StatusInternalServerError, StatusFor(analysis.NewInternalError("boom", nil)))
}
