package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ziadkadry99/mcporch/internal/db"
	"github.com/ziadkadry99/mcporch/internal/pipeline"
)

// timeLayout sorts lexically in the same order as the instants it encodes.
const timeLayout = "2006-01-02 15:04:05.000000"

// ErrNotFound is returned by Get for an unknown run id.
var ErrNotFound = errors.New("run not found")

// Store records and queries pipeline runs.
type Store struct {
	db *db.DB
}

// NewStore creates a Store backed by the given database.
func NewStore(database *db.DB) *Store {
	return &Store{db: database}
}

// Record implements pipeline.Recorder.
func (s *Store) Record(ctx context.Context, res *pipeline.Result, source string) error {
	return s.Insert(ctx, FromResult(res, source))
}

// Insert stores run. A missing id is replaced by a new UUID.
func (s *Store) Insert(ctx context.Context, run Run) error {
	if run.ID == "" {
		run.ID = uuid.New().String()
	}
	if run.State == "" {
		run.State = pipeline.StateStart
	}
	errs := run.Errors
	if errs == nil {
		errs = []pipeline.StageError{}
	}
	errJSON, err := json.Marshal(errs)
	if err != nil {
		return fmt.Errorf("marshalling run errors: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO pipeline_runs (
			id, language, state, steps_completed, started_at, finished_at,
			duration_ms, function_count, complexity, tokens_est, errors, source
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID,
		run.Language,
		string(run.State),
		run.StepsCompleted,
		run.StartedAt.UTC().Format(timeLayout),
		run.FinishedAt.UTC().Format(timeLayout),
		run.DurationMS,
		run.FunctionCount,
		run.Complexity,
		run.TokensEst,
		string(errJSON),
		run.Source,
	)
	if err != nil {
		return fmt.Errorf("inserting pipeline run: %w", err)
	}
	return nil
}

// Get returns one run with its stored source.
func (s *Store) Get(ctx context.Context, id string) (*Run, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+columns+", source FROM pipeline_runs WHERE id = ?", id)
	run, err := scanRun(row, true)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return run, err
}

// Filter selects runs for List.
type Filter struct {
	Language   string
	FailedOnly bool
	Since      *time.Time
	Limit      int
	Offset     int
}

// DefaultListLimit caps List when no limit is given.
const DefaultListLimit = 50

const columns = "id, language, state, steps_completed, started_at, finished_at, duration_ms, function_count, complexity, tokens_est, errors"

// List returns runs newest first. Source text is not loaded.
func (s *Store) List(ctx context.Context, filter Filter) ([]Run, error) {
	var (
		clauses []string
		args    []any
	)
	if filter.Language != "" {
		clauses = append(clauses, "language = ?")
		args = append(args, filter.Language)
	}
	if filter.FailedOnly {
		clauses = append(clauses, "errors != '[]'")
	}
	if filter.Since != nil {
		clauses = append(clauses, "started_at >= ?")
		args = append(args, filter.Since.UTC().Format(timeLayout))
	}

	query := "SELECT " + columns + " FROM pipeline_runs"
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY started_at DESC, rowid DESC"

	limit := filter.Limit
	if limit <= 0 {
		limit = DefaultListLimit
	}
	query += fmt.Sprintf(" LIMIT %d", limit)
	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET %d", filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying pipeline runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		run, err := scanRun(rows, false)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

// DeleteBefore removes runs started before t and returns how many were removed.
func (s *Store) DeleteBefore(ctx context.Context, t time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM pipeline_runs WHERE started_at < ?", t.UTC().Format(timeLayout))
	if err != nil {
		return 0, fmt.Errorf("deleting old pipeline runs: %w", err)
	}
	return res.RowsAffected()
}

// scanner is implemented by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner, withSource bool) (*Run, error) {
	var (
		run            Run
		state          string
		started, ended string
		errJSON        string
	)
	dest := []any{
		&run.ID, &run.Language, &state, &run.StepsCompleted, &started, &ended,
		&run.DurationMS, &run.FunctionCount, &run.Complexity, &run.TokensEst, &errJSON,
	}
	if withSource {
		dest = append(dest, &run.Source)
	}
	if err := sc.Scan(dest...); err != nil {
		return nil, err
	}

	run.State = pipeline.State(state)
	run.StartedAt = parseTime(started)
	run.FinishedAt = parseTime(ended)
	if err := json.Unmarshal([]byte(errJSON), &run.Errors); err != nil || run.Errors == nil {
		run.Errors = []pipeline.StageError{}
	}
	return &run, nil
}

func parseTime(s string) time.Time {
	for _, layout := range []string{timeLayout, time.DateTime, time.RFC3339Nano} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}
