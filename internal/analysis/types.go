package analysis

import (
	"context"
	"fmt"
)

// AnonymousName is used when a function-like unit has no discoverable name.
const AnonymousName = "<anonymous>"

// VoidSentinel is the aggregate output reported when every function is void.
const VoidSentinel = "void"

// Param is one declared parameter of a function.
type Param struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Optional bool   `json:"optional"`
	Variadic bool   `json:"is_varargs,omitempty"`
}

// Function is the structural record of one discovered function unit.
type Function struct {
	Name            string   `json:"name"`
	Inputs          []Param  `json:"inputs"`
	Outputs         []string `json:"outputs"`
	LineStart       int      `json:"line_start"`
	LineEnd         int      `json:"line_end"`
	Branches        int      `json:"branches"`
	LocalComplexity int      `json:"local_complexity"`
}

// Record is the canonical, language-independent analysis of one source unit.
type Record struct {
	Language    string     `json:"language"`
	Functions   []Function `json:"functions"`
	Inputs      []string   `json:"inputs"`
	Outputs     []string   `json:"outputs"`
	Complexity  int        `json:"complexity"`
	Branches    int        `json:"branches"`
	SideEffects []string   `json:"side_effects"`
}

// Strategy names how an analyzer variant understands source text.
type Strategy string

const (
	StrategyAST        Strategy = "ast"
	StrategyHeuristic  Strategy = "heuristic"
	StrategyRemote     Strategy = "remote"
	StrategySubprocess Strategy = "subprocess"
)

// Analyzer parses one source unit of a single language.
type Analyzer interface {
	Language() string
	Strategy() Strategy
	Analyze(ctx context.Context, source string) (*Record, error)
}

// FormatInput renders a parameter the way aggregate inputs are keyed.
func FormatInput(p Param) string {
	return fmt.Sprintf("%s: %s", p.Name, p.Type)
}

// Clone returns a deep copy that shares no slices with r.
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}
	out := *r
	out.Functions = make([]Function, len(r.Functions))
	for i, fn := range r.Functions {
		out.Functions[i] = fn.Clone()
	}
	out.Inputs = append([]string{}, r.Inputs...)
	out.Outputs = append([]string{}, r.Outputs...)
	out.SideEffects = append([]string{}, r.SideEffects...)
	return &out
}

// Clone returns a deep copy of fn.
func (fn Function) Clone() Function {
	out := fn
	out.Inputs = append([]Param{}, fn.Inputs...)
	out.Outputs = append([]string{}, fn.Outputs...)
	return out
}

// FunctionNames lists the function names in source order.
func (r *Record) FunctionNames() []string {
	names := make([]string, 0, len(r.Functions))
	for _, fn := range r.Functions {
		names = append(names, fn.Name)
	}
	return names
}
