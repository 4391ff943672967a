// Package pipeline sequences analysis, flow summary and prompt building for
// one request and keeps the bounded caches of recent results.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/ziadkadry99/mcporch/internal/analysis"
	"github.com/ziadkadry99/mcporch/internal/cache"
	"github.com/ziadkadry99/mcporch/internal/flow"
	"github.com/ziadkadry99/mcporch/internal/prompt"
)

// Recorder persists finished runs.
type Recorder interface {
	Record(ctx context.Context, res *Result, source string) error
}

// Service runs the pipeline stages and owns the result caches.
type Service struct {
	registry   *analysis.Registry
	summarizer *flow.Summarizer
	builder    *prompt.Builder
	analyses   *cache.Ring[analysis.Record]
	prompts    *cache.Ring[prompt.Record]
	recorder   Recorder
	logger     *slog.Logger
	now        func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithRecorder records every finished run.
func WithRecorder(r Recorder) Option {
	return func(s *Service) { s.recorder = r }
}

// WithLogger sets the logger used for stage logging.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithCacheCapacity sets the capacity of both result caches.
func WithCacheCapacity(n int) Option {
	return func(s *Service) {
		s.analyses = newAnalysisCache(n)
		s.prompts = newPromptCache(n)
	}
}

func withClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func newAnalysisCache(n int) *cache.Ring[analysis.Record] {
	return cache.NewRing(n, func(r analysis.Record) analysis.Record { return *r.Clone() })
}

func newPromptCache(n int) *cache.Ring[prompt.Record] {
	return cache.NewRing(n, prompt.Record.Clone)
}

// New creates a Service with empty caches of the default capacity.
func New(registry *analysis.Registry, summarizer *flow.Summarizer, builder *prompt.Builder, opts ...Option) *Service {
	s := &Service{
		registry:   registry,
		summarizer: summarizer,
		builder:    builder,
		analyses:   newAnalysisCache(cache.DefaultCapacity),
		prompts:    newPromptCache(cache.DefaultCapacity),
		logger:     slog.Default(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Registry returns the analyzer registry the service dispatches to.
func (s *Service) Registry() *analysis.Registry { return s.registry }

// Analyze runs the analysis stage alone. Successful records are cached.
func (s *Service) Analyze(ctx context.Context, language, source string) (*analysis.Record, error) {
	var rec *analysis.Record
	err := guard(StageAnalyze, func() error {
		var err error
		rec, err = s.registry.Analyze(ctx, language, source)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.analyses.Push(*rec)
	return rec, nil
}

// Summarize runs the flow stage alone.
func (s *Service) Summarize(rec *analysis.Record) (flow.Summary, error) {
	var sum flow.Summary
	err := guard(StageSummarize, func() error {
		sum = s.summarizer.Summarize(rec)
		return nil
	})
	return sum, err
}

// BuildPrompt runs the prompt stage alone. Successful prompts are cached.
func (s *Service) BuildPrompt(sum flow.Summary) (prompt.Record, error) {
	var rec prompt.Record
	err := guard(StagePrompt, func() error {
		rec = s.builder.Build(sum)
		return nil
	})
	if err != nil {
		return prompt.Record{}, err
	}
	s.prompts.Push(rec)
	return rec, nil
}

// Run executes every stage in order and always returns a complete result.
// After a failed stage the remaining stages are skipped, not attempted.
func (s *Service) Run(ctx context.Context, language, source string) *Result {
	started := s.now()
	res := &Result{
		Meta: Meta{
			RunID:     uuid.New().String(),
			Language:  analysis.Canonical(language),
			StartedAt: started.UTC(),
			Errors:    []StageError{},
			State:     StateStart,
		},
	}
	if tag, _, ok := s.registry.Resolve(language); ok {
		res.Meta.Language = tag
	}
	log := s.logger.With("run_id", res.Meta.RunID, "language", res.Meta.Language)
	log.Debug("pipeline started", "bytes", len(source))

	rec, err := stageRun(log, StageAnalyze, func() (*analysis.Record, error) {
		return s.Analyze(ctx, language, source)
	})
	if err != nil {
		res.fail(StageAnalyze, err)
		res.Flow = skipped[flow.Summary](StageAnalyze)
		res.Prompt = skipped[prompt.Record](StageAnalyze)
		return s.finish(ctx, log, res, source)
	}
	res.Analysis = succeeded(*rec)
	res.advance(StateAnalyzed)

	sum, err := stageRun(log, StageSummarize, func() (*flow.Summary, error) {
		sum, err := s.Summarize(rec)
		return &sum, err
	})
	if err != nil {
		res.fail(StageSummarize, err)
		res.Prompt = skipped[prompt.Record](StageSummarize)
		return s.finish(ctx, log, res, source)
	}
	res.Flow = succeeded(*sum)
	res.advance(StateSummarized)

	pr, err := stageRun(log, StagePrompt, func() (*prompt.Record, error) {
		pr, err := s.BuildPrompt(*sum)
		return &pr, err
	})
	if err != nil {
		res.fail(StagePrompt, err)
		return s.finish(ctx, log, res, source)
	}
	res.Prompt = succeeded(*pr)
	res.advance(StatePrompted)
	res.Meta.State = StateDone

	return s.finish(ctx, log, res, source)
}

// stageRun times fn and logs its outcome.
func stageRun[T any](log *slog.Logger, stage Stage, fn func() (*T, error)) (*T, error) {
	start := time.Now()
	v, err := fn()
	if err != nil {
		log.Warn("stage failed", "stage", stage, "kind", analysis.KindOf(err), "duration", time.Since(start), "error", err)
		return nil, err
	}
	log.Debug("stage finished", "stage", stage, "duration", time.Since(start))
	return v, nil
}

func (s *Service) finish(ctx context.Context, log *slog.Logger, res *Result, source string) *Result {
	finished := s.now()
	res.Meta.FinishedAt = finished.UTC()
	res.Meta.DurationMS = finished.Sub(res.Meta.StartedAt).Milliseconds()

	log.Info("pipeline finished",
		"state", res.Meta.State,
		"steps_completed", res.Meta.StepsCompleted,
		"errors", len(res.Meta.Errors),
		"duration_ms", res.Meta.DurationMS,
	)

	if s.recorder != nil {
		if err := s.recorder.Record(context.WithoutCancel(ctx), res, source); err != nil {
			log.Warn("recording run history failed", "error", err)
		}
	}
	return res
}

func (r *Result) fail(stage Stage, err error) {
	se := newStageError(stage, err)
	r.Meta.Errors = append(r.Meta.Errors, se)
	switch stage {
	case StageAnalyze:
		r.Analysis = failed[analysis.Record](se)
	case StageSummarize:
		r.Flow = failed[flow.Summary](se)
	case StagePrompt:
		r.Prompt = failed[prompt.Record](se)
	}
}

func (r *Result) advance(to State) {
	r.Meta.State = to
	r.Meta.StepsCompleted++
}

// guard converts a panic inside a stage into an internal error.
func guard(stage Stage, fn func() error) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = analysis.NewInternalError(fmt.Sprintf("%s stage panicked: %v", stage, p), nil)
		}
	}()
	return fn()
}

// Analyses lists cached analysis records, newest first.
func (s *Service) Analyses() []cache.Entry[analysis.Record] { return s.analyses.List() }

// Prompts lists cached prompt records, newest first.
func (s *Service) Prompts() []cache.Entry[prompt.Record] { return s.prompts.List() }

// LatestPrompt returns the most recently cached prompt.
func (s *Service) LatestPrompt() (cache.Entry[prompt.Record], bool) { return s.prompts.Latest() }
