package analyzersvc

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ziadkadry99/mcporch/internal/analysis"
	"github.com/ziadkadry99/mcporch/internal/analyzers/java"
	"github.com/ziadkadry99/mcporch/internal/analyzers/remote"
)

type panicky struct{}

func (panicky) Language() string            { return "java" }
func (panicky) Strategy() analysis.Strategy { return analysis.StrategyAST }
func (panicky) Analyze(context.Context, string) (*analysis.Record, error) {
	panic("index out of range")
}

func newRouter(a analysis.Analyzer) chi.Router {
	r := chi.NewRouter()
	New(a, 5*time.Second).RegisterRoutes(r)
	return r
}

func post(r http.Handler, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/analyze", strings.NewReader(body))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAnalyze(t *testing.T) {
	r := newRouter(java.New())

	w := post(r, `{"code":"public int add(int a, int b) { return a + b; }"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var rec analysis.Record
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rec))
	assert.Equal(t, "java", rec.Language)
	assert.Equal(t, []string{"add"}, rec.FunctionNames())
}

func TestAnalyzeNoCode(t *testing.T) {
	r := newRouter(java.New())

	for _, body := range []string{`{}`, `{"code":"   "}`} {
		w := post(r, body)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.JSONEq(t, `{"error":"No code provided"}`, w.Body.String())
	}

	w := post(r, `not json`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAnalyzeParseErrorIs200(t *testing.T) {
	w := post(newRouter(java.New()), `{"code":"class { void ("}`)
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Contains(t, body["error"], "parse_error")
}

func TestAnalyzePanicIs500(t *testing.T) {
	w := post(newRouter(panicky{}), `{"code":"class A {}"}`)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "index out of range")
}

func TestHealthAndInfo(t *testing.T) {
	r := newRouter(java.New())

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.JSONEq(t, `{"status":"UP","service":"mcporch-java-analyzer"}`, w.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"strategy":"ast"`)
}

func TestRemoteClientRoundTrip(t *testing.T) {
	srv := httptest.NewServer(newRouter(java.New()))
	defer srv.Close()

	client := remote.New("java", srv.URL)

	hs, err := client.Health(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "UP", hs.Status)

	rec, err := client.Analyze(context.Background(), "public void run() { if (x) { go(); } }")
	require.NoError(t, err)
	assert.Equal(t, []string{"run"}, rec.FunctionNames())
	assert.Equal(t, 1, rec.Branches)

	_, err = client.Analyze(context.Background(), "")
	require.Error(t, err)
	assert.Equal(t, analysis.KindTransport, analysis.KindOf(err))
	assert.Contains(t, err.Error(), "No code provided")
}
