package subprocess

import (
	"context"
	"os/exec"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ziadkadry99/mcporch/internal/analysis"
)

func requireShell(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
}

func TestAnalyzeDecodesRecord(t *testing.T) {
	requireShell(t)
	script := `cat >/dev/null; echo '{"functions":[{"name":"f","inputs":[],"outputs":[],"line_start":1,"line_end":1,"branches":0,"local_complexity":1}],"inputs":[],"outputs":["void"],"complexity":1,"branches":0,"side_effects":[]}'`

	rec, err := New("python", []string{"sh", "-c", script}).Analyze(context.Background(), "def f(): pass")
	require.NoError(t, err)
	assert.Equal(t, []string{"f"}, rec.FunctionNames())
	assert.Equal(t, 1, rec.Complexity)
}

func TestAnalyzeReadsStdin(t *testing.T) {
	requireShell(t)
	script := `read line; printf '{"functions":[],"inputs":["%s"],"outputs":[],"complexity":0,"branches":0,"side_effects":[]}\n' "$line"`

	rec, err := New("python", []string{"sh", "-c", script}).Analyze(context.Background(), "hello\n")
	require.NoError(t, err)
	assert.Equal(t, []string{"hello"}, rec.Inputs)
}

func TestAnalyzeErrorLine(t *testing.T) {
	requireShell(t)
	script := `cat >/dev/null; echo '{"error":"invalid syntax (line 1)"}'; exit 1`

	_, err := New("python", []string{"sh", "-c", script}).Analyze(context.Background(), "def (")
	require.Error(t, err)
	assert.Equal(t, analysis.KindParse, analysis.KindOf(err))
	assert.Contains(t, err.Error(), "invalid syntax")
}

func TestAnalyzeTimeoutExitCode(t *testing.T) {
	requireShell(t)
	script := `cat >/dev/null; echo '{"error":"analyzer exceeded time limit"}'; exit 124`

	_, err := New("python", []string{"sh", "-c", script}).Analyze(context.Background(), "x")
	assert.Equal(t, analysis.KindTimeout, analysis.KindOf(err))
}

func TestAnalyzeContextDeadline(t *testing.T) {
	requireShell(t)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := New("python", []string{"sh", "-c", "sleep 5"}).Analyze(ctx, "x")
	assert.Equal(t, analysis.KindTimeout, analysis.KindOf(err))
}

func TestAnalyzeMissingBinary(t *testing.T) {
	_, err := New("python", []string{"/nonexistent/analyzer"}).Analyze(context.Background(), "x")
	assert.Equal(t, analysis.KindTransport, analysis.KindOf(err))
}

func TestAnalyzeNoOutput(t *testing.T) {
	requireShell(t)
	_, err := New("python", []string{"sh", "-c", "cat >/dev/null; echo boom >&2; exit 3"}).Analyze(context.Background(), "x")
	require.Error(t, err)
	assert.Equal(t, analysis.KindTransport, analysis.KindOf(err))
	assert.Contains(t, err.Error(), "status 3: boom")
}

func TestNoCommand(t *testing.T) {
	_, err := New("python", nil).Analyze(context.Background(), "x")
	assert.Equal(t, analysis.KindTransport, analysis.KindOf(err))
}
