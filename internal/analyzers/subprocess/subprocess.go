// Package subprocess delegates analysis to a standalone analyzer process that
// reads source on stdin and prints one JSON line on stdout.
package subprocess

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/ziadkadry99/mcporch/internal/analysis"
)

// TimeoutExitCode is the exit status a standalone analyzer uses on timeout.
const TimeoutExitCode = 124

// waitDelay bounds how long Wait blocks on output pipes after the process
// has been killed.
const waitDelay = time.Second

// Analyzer runs Command once per Analyze call.
type Analyzer struct {
	language string
	command  []string
}

// New creates an analyzer for language that launches argv.
func New(language string, argv []string) *Analyzer {
	return &Analyzer{language: language, command: append([]string{}, argv...)}
}

func (a *Analyzer) Language() string { return a.language }

func (a *Analyzer) Strategy() analysis.Strategy { return analysis.StrategySubprocess }

// Command returns the argv the analyzer launches.
func (a *Analyzer) Command() []string { return append([]string{}, a.command...) }

type lineResult struct {
	analysis.Record
	Error string `json:"error,omitempty"`
}

// Analyze launches the process, writes source to its stdin and decodes the
// first non-empty line of its stdout.
func (a *Analyzer) Analyze(ctx context.Context, source string) (*analysis.Record, error) {
	if len(a.command) == 0 {
		return nil, analysis.NewTransportError(a.language, "no analyzer command configured", nil)
	}

	cmd := exec.CommandContext(ctx, a.command[0], a.command[1:]...)
	var stdout, stderr bytes.Buffer
	cmd.Stdin = strings.NewReader(source)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = waitDelay

	if err := cmd.Start(); err != nil {
		return nil, analysis.NewTransportError(a.language, "failed to start "+a.command[0], err)
	}
	waitErr := cmd.Wait()

	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return nil, analysis.NewTimeoutError(a.language, ctx.Err())
	}

	exitCode := 0
	if waitErr != nil {
		var ee *exec.ExitError
		if !errors.As(waitErr, &ee) {
			return nil, analysis.NewTransportError(a.language, "running "+a.command[0], waitErr)
		}
		exitCode = ee.ExitCode()
	}
	if exitCode == TimeoutExitCode {
		return nil, analysis.NewTimeoutError(a.language, nil)
	}

	line := firstLine(stdout.Bytes())
	if line == "" {
		detail := strings.TrimSpace(stderr.String())
		if detail == "" {
			detail = "no output"
		}
		return nil, analysis.NewTransportError(a.language,
			fmt.Sprintf("analyzer exited with status %d: %s", exitCode, detail), nil)
	}

	var out lineResult
	if err := json.Unmarshal([]byte(line), &out); err != nil {
		return nil, analysis.NewTransportError(a.language, "decoding analyzer output", err)
	}
	if out.Error != "" {
		return nil, analysis.NewParseError(a.language, out.Error, nil)
	}
	if exitCode != 0 {
		return nil, analysis.NewTransportError(a.language,
			fmt.Sprintf("analyzer exited with status %d", exitCode), nil)
	}

	rec := out.Record
	return &rec, nil
}

func firstLine(b []byte) string {
	sc := bufio.NewScanner(bytes.NewReader(b))
	sc.Buffer(make([]byte, 0, 64*1024), 16<<20)
	for sc.Scan() {
		if line := strings.TrimSpace(sc.Text()); line != "" {
			return line
		}
	}
	return ""
}
