// Package history persists finished pipeline runs in sqlite.
package history

import (
	"time"

	"github.com/ziadkadry99/mcporch/internal/pipeline"
)

// Run is one recorded pipeline run.
type Run struct {
	ID             string                `json:"run_id"`
	Language       string                `json:"language"`
	State          pipeline.State        `json:"state"`
	StepsCompleted int                   `json:"steps_completed"`
	StartedAt      time.Time             `json:"started_at"`
	FinishedAt     time.Time             `json:"finished_at"`
	DurationMS     int64                 `json:"duration_ms"`
	FunctionCount  int                   `json:"function_count"`
	Complexity     int                   `json:"complexity"`
	TokensEst      int                   `json:"tokens_est"`
	Errors         []pipeline.StageError `json:"errors"`
	Source         string                `json:"source,omitempty"`
}

// MaxSourceBytes bounds how much of a run's source text is stored.
const MaxSourceBytes = 4096

// FromResult flattens a pipeline result into a Run.
func FromResult(res *pipeline.Result, source string) Run {
	run := Run{
		ID:             res.Meta.RunID,
		Language:       res.Meta.Language,
		State:          res.Meta.State,
		StepsCompleted: res.Meta.StepsCompleted,
		StartedAt:      res.Meta.StartedAt,
		FinishedAt:     res.Meta.FinishedAt,
		DurationMS:     res.Meta.DurationMS,
		Errors:         append([]pipeline.StageError{}, res.Meta.Errors...),
		Source:         truncate(source, MaxSourceBytes),
	}
	if a := res.Analysis.Value; a != nil {
		run.FunctionCount = len(a.Functions)
		run.Complexity = a.Complexity
	}
	if p := res.Prompt.Value; p != nil {
		run.TokensEst = p.TokensEst
	}
	return run
}

// truncate cuts s to at most n bytes without splitting a UTF-8 sequence.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && s[n]&0xC0 == 0x80 {
		n--
	}
	return s[:n]
}
