package analysis

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

// DefaultTimeout bounds a single analyzer call.
const DefaultTimeout = 10 * time.Second

// DefaultAliases maps accepted language spellings to canonical tags.
var DefaultAliases = map[string]string{
	"py":     "python",
	"ts":     "typescript",
	"js":     "javascript",
	"golang": "go",
}

// Registry selects an Analyzer by language tag and enforces the per-call
// timeout. It is safe for concurrent use.
type Registry struct {
	mu        sync.RWMutex
	analyzers map[string]Analyzer
	aliases   map[string]string
	timeout   time.Duration
}

// NewRegistry creates an empty registry with the default aliases. A
// non-positive timeout selects DefaultTimeout.
func NewRegistry(timeout time.Duration) *Registry {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	aliases := make(map[string]string, len(DefaultAliases))
	for k, v := range DefaultAliases {
		aliases[k] = v
	}
	return &Registry{
		analyzers: make(map[string]Analyzer),
		aliases:   aliases,
		timeout:   timeout,
	}
}

// Register adds or replaces the analyzer for its language.
func (r *Registry) Register(a Analyzer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.analyzers[Canonical(a.Language())] = a
}

// Alias makes alias resolve to the canonical tag lang.
func (r *Registry) Alias(alias, lang string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.aliases[Canonical(alias)] = Canonical(lang)
}

// Timeout returns the per-call analyzer bound.
func (r *Registry) Timeout() time.Duration {
	return r.timeout
}

// Resolve returns the canonical tag and analyzer for lang.
func (r *Registry) Resolve(lang string) (string, Analyzer, bool) {
	tag := Canonical(lang)
	r.mu.RLock()
	defer r.mu.RUnlock()
	if target, ok := r.aliases[tag]; ok {
		tag = target
	}
	a, ok := r.analyzers[tag]
	return tag, a, ok
}

// Languages lists the registered canonical tags, sorted.
func (r *Registry) Languages() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.analyzers))
	for tag := range r.analyzers {
		out = append(out, tag)
	}
	sort.Strings(out)
	return out
}

// Analyzers returns the registered analyzers ordered by language.
func (r *Registry) Analyzers() []Analyzer {
	langs := r.Languages()
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Analyzer, 0, len(langs))
	for _, l := range langs {
		out = append(out, r.analyzers[l])
	}
	return out
}

type outcome struct {
	rec *Record
	err error
}

// Analyze dispatches source to the analyzer for lang. Unknown tags and empty
// input fail before any analyzer runs; an analyzer that outlives the timeout
// is abandoned and reported as a timeout.
func (r *Registry) Analyze(ctx context.Context, lang, source string) (*Record, error) {
	tag, a, ok := r.Resolve(lang)
	if !ok {
		return nil, NewUnsupportedLanguage(tag)
	}
	if strings.TrimSpace(source) == "" {
		return nil, NewEmptyInputError(tag)
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	done := make(chan outcome, 1)
	go func() {
		defer func() {
			if p := recover(); p != nil {
				done <- outcome{err: NewInternalError(fmt.Sprintf("%s analyzer panicked: %v", tag, p), nil)}
			}
		}()
		rec, err := a.Analyze(ctx, source)
		done <- outcome{rec: rec, err: err}
	}()

	select {
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, NewTimeoutError(tag, ctx.Err())
		}
		return nil, NewInternalError("analysis cancelled", ctx.Err())
	case out := <-done:
		if out.err != nil {
			var ae *Error
			if errors.As(out.err, &ae) {
				return nil, out.err
			}
			if errors.Is(out.err, context.DeadlineExceeded) {
				return nil, NewTimeoutError(tag, out.err)
			}
			return nil, NewInternalError(tag+" analyzer failed", out.err)
		}
		if out.rec == nil {
			return nil, NewInternalError(tag+" analyzer returned no record", nil)
		}
		rec := Normalize(tag, Sanitize(out.rec.Functions), out.rec.SideEffects)
		return &rec, nil
	}
}

// Canonical lowercases and trims a language tag.
func Canonical(lang string) string {
	return strings.ToLower(strings.TrimSpace(lang))
}
