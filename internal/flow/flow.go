// Package flow reduces an analysis record to a flow summary: paths worth
// testing, edge cases, an input/output matrix and risk flags.
package flow

import (
	"fmt"
	"strings"

	"github.com/ziadkadry99/mcporch/internal/analysis"
	"github.com/ziadkadry99/mcporch/internal/effects"
)

// HighComplexityRisk is raised when a record exceeds either threshold.
const HighComplexityRisk = "high complexity path"

// Thresholds above which a record is flagged as a high complexity path.
type Thresholds struct {
	Complexity int `json:"complexity" koanf:"complexity" yaml:"complexity"`
	Branches   int `json:"branches" koanf:"branches" yaml:"branches"`
}

// DefaultThresholds returns complexity > 10 or branches > 5.
func DefaultThresholds() Thresholds {
	return Thresholds{Complexity: 10, Branches: 5}
}

// IORow pairs the inputs of one function with its expected outputs.
type IORow struct {
	Function string   `json:"function,omitempty"`
	Inputs   []string `json:"inputs"`
	Expected []string `json:"expected"`
}

// Summary is the flow digest of one analysis record.
type Summary struct {
	Language  string   `json:"language,omitempty"`
	Overview  string   `json:"overview"`
	KeyPaths  []string `json:"key_paths"`
	EdgeCases []string `json:"edge_cases"`
	IOMatrix  []IORow  `json:"io_matrix"`
	Risks     []string `json:"risks"`
}

// Clone returns a deep copy of s.
func (s Summary) Clone() Summary {
	out := s
	out.KeyPaths = append([]string{}, s.KeyPaths...)
	out.EdgeCases = append([]string{}, s.EdgeCases...)
	out.Risks = append([]string{}, s.Risks...)
	out.IOMatrix = make([]IORow, len(s.IOMatrix))
	for i, row := range s.IOMatrix {
		out.IOMatrix[i] = IORow{
			Function: row.Function,
			Inputs:   append([]string{}, row.Inputs...),
			Expected: append([]string{}, row.Expected...),
		}
	}
	return out
}

// Summarizer derives summaries using fixed thresholds.
type Summarizer struct {
	thresholds Thresholds
}

// New creates a Summarizer. Non-positive thresholds fall back to defaults.
func New(t Thresholds) *Summarizer {
	def := DefaultThresholds()
	if t.Complexity <= 0 {
		t.Complexity = def.Complexity
	}
	if t.Branches <= 0 {
		t.Branches = def.Branches
	}
	return &Summarizer{thresholds: t}
}

// Thresholds returns the thresholds in effect.
func (s *Summarizer) Thresholds() Thresholds { return s.thresholds }

// Summarize never fails; a nil or empty record yields an overview saying no
// functions were found and empty lists elsewhere.
func (s *Summarizer) Summarize(rec *analysis.Record) Summary {
	if rec == nil {
		rec = &analysis.Record{}
	}
	sum := Summary{
		Language:  rec.Language,
		KeyPaths:  []string{},
		EdgeCases: []string{},
		IOMatrix:  []IORow{},
		Risks:     []string{},
	}
	if len(rec.Functions) == 0 {
		sum.Overview = "No functions found"
		if rec.Language != "" {
			sum.Overview += " in " + rec.Language + " source"
		}
		sum.Overview += "."
		return sum
	}

	sum.Overview = overview(rec)
	sum.KeyPaths = keyPaths(rec.Functions)
	sum.EdgeCases = edgeCases(rec)
	sum.IOMatrix = ioMatrix(rec.Functions)
	sum.Risks = s.risks(rec)
	return sum
}

func overview(rec *analysis.Record) string {
	var b strings.Builder
	noun := "functions"
	if len(rec.Functions) == 1 {
		noun = "function"
	}
	lang := ""
	if rec.Language != "" {
		lang = rec.Language + " "
	}
	fmt.Fprintf(&b, "Analyzed %d %s%s: %s.", len(rec.Functions), lang, noun, strings.Join(rec.FunctionNames(), ", "))
	fmt.Fprintf(&b, " Inputs: %s.", listOrNone(rec.Inputs))
	fmt.Fprintf(&b, " Outputs: %s.", listOrNone(rec.Outputs))
	fmt.Fprintf(&b, " Complexity %d, branches %d.", rec.Complexity, rec.Branches)
	if len(rec.SideEffects) > 0 {
		fmt.Fprintf(&b, " Side effects: %s.", strings.Join(rec.SideEffects, ", "))
	}
	return b.String()
}

func listOrNone(items []string) string {
	if len(items) == 0 {
		return "none"
	}
	return strings.Join(items, ", ")
}

// keyPaths names one path per unit of local complexity: the base path of
// each function plus one per decision point.
func keyPaths(fns []analysis.Function) []string {
	var paths []string
	for _, fn := range fns {
		n := max(fn.LocalComplexity, 1)
		for i := 1; i <= n; i++ {
			paths = append(paths, fmt.Sprintf("%s#path_%d", fn.Name, i))
		}
	}
	return paths
}

func ioMatrix(fns []analysis.Function) []IORow {
	rows := make([]IORow, 0, len(fns))
	for _, fn := range fns {
		inputs := make([]string, 0, len(fn.Inputs))
		for _, p := range fn.Inputs {
			inputs = append(inputs, analysis.FormatInput(p))
		}
		expected := append([]string{}, fn.Outputs...)
		if len(expected) == 0 {
			expected = []string{analysis.VoidSentinel}
		}
		rows = append(rows, IORow{Function: fn.Name, Inputs: inputs, Expected: expected})
	}
	return rows
}

// riskFamily groups side-effect categories that call for the same kind of
// test isolation.
type riskFamily struct {
	label      string
	categories []effects.Category
}

var riskFamilies = []riskFamily{
	{"network dependency: stub remote calls", []effects.Category{effects.Network}},
	{"database dependency: isolate persistence", []effects.Category{effects.Database}},
	{"filesystem and I/O dependency: use temporary resources", []effects.Category{effects.IO, effects.File, effects.Storage}},
	{"process or system interaction", []effects.Category{effects.System}},
	{"shared state mutation: reset state between tests", []effects.Category{effects.ExternalState, effects.GlobalState, effects.DOM}},
	{"concurrency and timing: control scheduling", []effects.Category{effects.Async, effects.Synchronization, effects.Timer}},
	{"error propagation: assert raised errors", []effects.Category{effects.ExceptionThrowing}},
	{"dynamic dispatch or loading", []effects.Category{effects.Reflection, effects.ModuleLoading}},
	{"object construction: verify created instances", []effects.Category{effects.ObjectCreation}},
}

func (s *Summarizer) risks(rec *analysis.Record) []string {
	risks := []string{}
	if rec.Complexity > s.thresholds.Complexity || rec.Branches > s.thresholds.Branches {
		risks = append(risks, HighComplexityRisk)
	}

	present := make(map[string]bool, len(rec.SideEffects))
	for _, se := range rec.SideEffects {
		present[se] = true
	}
	for _, fam := range riskFamilies {
		var hit []string
		for _, c := range fam.categories {
			if present[string(c)] {
				hit = append(hit, string(c))
			}
		}
		if len(hit) > 0 {
			risks = append(risks, fmt.Sprintf("%s (%s)", fam.label, strings.Join(hit, ", ")))
		}
	}
	return risks
}

// Edge-case labels derived from input types and side effects.
const (
	EdgeNumericBoundary = "numeric boundaries (0, -1, max)"
	EdgeNullValue       = "null or missing value"
	EdgeEmptyString     = "empty string"
	EdgeEmptyCollection = "empty collection"
	EdgeBooleanValues   = "both boolean values"
	EdgeOmittedOptional = "omitted optional argument"
	EdgeNoVariadic      = "no variadic arguments"
	EdgeDependencyFails = "failing external dependency"
	EdgeErrorPath       = "error path raised"
)

// typeRule maps an input type matcher to the edge case it calls for.
type typeRule struct {
	match func(t string) bool
	label string
}

var typeRules = []typeRule{
	{isNumeric, EdgeNumericBoundary},
	{isNullable, EdgeNullValue},
	{isString, EdgeEmptyString},
	{isCollection, EdgeEmptyCollection},
	{isBoolean, EdgeBooleanValues},
}

var numericTypes = map[string]bool{
	"int": true, "int8": true, "int16": true, "int32": true, "int64": true,
	"uint": true, "uint8": true, "uint16": true, "uint32": true, "uint64": true, "uintptr": true,
	"float": true, "float32": true, "float64": true, "double": true, "long": true,
	"short": true, "byte": true, "number": true, "bigint": true, "decimal": true,
	"complex": true, "complex64": true, "complex128": true, "rune": true,
	"integer": true, "biginteger": true, "bigdecimal": true,
}

func baseType(t string) string {
	t = strings.TrimSpace(strings.ToLower(t))
	t = strings.TrimPrefix(t, "*")
	t = strings.TrimPrefix(t, "const ")
	return t
}

func isNumeric(t string) bool {
	return numericTypes[baseType(t)]
}

func isNullable(t string) bool {
	raw := strings.TrimSpace(t)
	lower := strings.ToLower(raw)
	switch {
	case strings.HasPrefix(raw, "*"), strings.HasSuffix(raw, "?"):
		return true
	case strings.Contains(lower, "optional"), strings.Contains(lower, "nullable"):
		return true
	case strings.Contains(lower, "none"), strings.Contains(lower, "null"), strings.Contains(lower, "undefined"):
		return true
	}
	switch lower {
	case "any", "object", "interface{}", "unknown", "error":
		return true
	}
	return false
}

func isString(t string) bool {
	switch baseType(t) {
	case "str", "string", "charsequence", "[]byte", "bytes":
		return true
	}
	return false
}

func isCollection(t string) bool {
	b := baseType(t)
	if strings.HasPrefix(b, "[]") || strings.HasSuffix(b, "[]") || strings.HasPrefix(b, "map[") || strings.HasPrefix(b, "...") {
		return true
	}
	head := b
	if i := strings.IndexAny(head, "<["); i > 0 {
		head = head[:i]
	}
	switch head {
	case "list", "dict", "set", "tuple", "sequence", "iterable", "mapping",
		"array", "arraylist", "collection", "map", "hashmap", "record", "readonlyarray":
		return true
	}
	return false
}

func isBoolean(t string) bool {
	switch baseType(t) {
	case "bool", "boolean":
		return true
	}
	return false
}

// edgeCases tests every distinct input type against the type rules, then
// adds parameter-shape and side-effect cases. Labels are distinct and in
// first-derived order.
func edgeCases(rec *analysis.Record) []string {
	var out []string
	seen := make(map[string]bool)
	add := func(label string) {
		if !seen[label] {
			seen[label] = true
			out = append(out, label)
		}
	}

	seenType := make(map[string]bool)
	for _, fn := range rec.Functions {
		for _, p := range fn.Inputs {
			if !seenType[p.Type] {
				seenType[p.Type] = true
				for _, rule := range typeRules {
					if rule.match(p.Type) {
						add(rule.label)
					}
				}
			}
			if p.Optional {
				add(EdgeOmittedOptional)
			}
			if p.Variadic {
				add(EdgeNoVariadic)
			}
		}
	}

	for _, se := range rec.SideEffects {
		switch effects.Category(se) {
		case effects.Network, effects.Database, effects.File, effects.IO, effects.Storage, effects.System:
			add(EdgeDependencyFails)
		case effects.ExceptionThrowing:
			add(EdgeErrorPath)
		}
	}
	if out == nil {
		out = []string{}
	}
	return out
}
