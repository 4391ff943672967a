package pipeline

import (
	"encoding/json"
	"time"

	"github.com/ziadkadry99/mcporch/internal/analysis"
	"github.com/ziadkadry99/mcporch/internal/flow"
	"github.com/ziadkadry99/mcporch/internal/prompt"
)

// State is a position in the linear run state machine.
type State string

const (
	StateStart      State = "start"
	StateAnalyzed   State = "analyzed"
	StateSummarized State = "summarized"
	StatePrompted   State = "prompted"
	StateDone       State = "done"
)

// Stage names one step of a run.
type Stage string

const (
	StageAnalyze   Stage = "analyze"
	StageSummarize Stage = "summarize"
	StagePrompt    Stage = "prompt"
)

// StageError is a stage-tagged failure recorded in a run's metadata.
type StageError struct {
	Stage   Stage         `json:"stage"`
	Kind    analysis.Kind `json:"kind"`
	Message string        `json:"message"`
}

func newStageError(stage Stage, err error) StageError {
	return StageError{Stage: stage, Kind: analysis.KindOf(err), Message: err.Error()}
}

// Outcome is the result of one stage: a value, a failure or a skip.
type Outcome[T any] struct {
	Value   *T
	Err     *StageError
	Skipped bool
	// SkipReason names the failed stage that caused the skip.
	SkipReason Stage
}

// OK reports whether the stage produced a value.
func (o Outcome[T]) OK() bool { return o.Value != nil }

func succeeded[T any](v T) Outcome[T] { return Outcome[T]{Value: &v} }

func failed[T any](e StageError) Outcome[T] { return Outcome[T]{Err: &e} }

func skipped[T any](after Stage) Outcome[T] { return Outcome[T]{Skipped: true, SkipReason: after} }

// MarshalJSON renders the value itself, {"error","kind"} on failure, or
// {"skipped": true, "error": "skipped: <stage> failed"}.
func (o Outcome[T]) MarshalJSON() ([]byte, error) {
	switch {
	case o.Value != nil:
		return json.Marshal(o.Value)
	case o.Skipped:
		return json.Marshal(struct {
			Skipped bool   `json:"skipped"`
			Error   string `json:"error"`
		}{true, "skipped: " + string(o.SkipReason) + " failed"})
	case o.Err != nil:
		return json.Marshal(struct {
			Error string        `json:"error"`
			Kind  analysis.Kind `json:"kind"`
		}{o.Err.Message, o.Err.Kind})
	default:
		return []byte("null"), nil
	}
}

// Meta describes one run.
type Meta struct {
	RunID          string       `json:"run_id"`
	Language       string       `json:"language"`
	StartedAt      time.Time    `json:"started_at"`
	FinishedAt     time.Time    `json:"finished_at"`
	DurationMS     int64        `json:"duration_ms"`
	Errors         []StageError `json:"errors"`
	StepsCompleted int          `json:"steps_completed"`
	State          State        `json:"state"`
}

// Result is the complete outcome of one run. It is always well formed.
type Result struct {
	Analysis Outcome[analysis.Record] `json:"analysis"`
	Flow     Outcome[flow.Summary]    `json:"flow"`
	Prompt   Outcome[prompt.Record]   `json:"prompt"`
	Meta     Meta                     `json:"meta"`
}
