package analysis

import "sort"

// Normalize merges per-function records into one Record. Aggregate inputs and
// outputs are deduplicated by exact string, keeping first-seen order; totals
// are sums. Side effects are stored sorted so identical input gives identical
// output.
func Normalize(language string, functions []Function, sideEffects []string) Record {
	rec := Record{
		Language:    language,
		Functions:   make([]Function, 0, len(functions)),
		Inputs:      []string{},
		Outputs:     []string{},
		SideEffects: dedupeSorted(sideEffects),
	}

	seenIn := make(map[string]bool)
	seenOut := make(map[string]bool)
	for _, fn := range functions {
		fn = fn.Clone()
		if fn.Inputs == nil {
			fn.Inputs = []Param{}
		}
		if fn.Outputs == nil {
			fn.Outputs = []string{}
		}
		rec.Functions = append(rec.Functions, fn)

		for _, p := range fn.Inputs {
			key := FormatInput(p)
			if !seenIn[key] {
				seenIn[key] = true
				rec.Inputs = append(rec.Inputs, key)
			}
		}
		for _, out := range fn.Outputs {
			if !seenOut[out] {
				seenOut[out] = true
				rec.Outputs = append(rec.Outputs, out)
			}
		}
		rec.Complexity += fn.LocalComplexity
		rec.Branches += fn.Branches
	}

	if len(rec.Functions) > 0 && len(rec.Outputs) == 0 {
		rec.Outputs = []string{VoidSentinel}
	}
	return rec
}

// Sanitize repairs function records received from a collaborator so the
// record invariants hold: branches are non-negative and local complexity is
// at least one plus the branch count.
func Sanitize(functions []Function) []Function {
	out := make([]Function, len(functions))
	for i, fn := range functions {
		fn = fn.Clone()
		if fn.Name == "" {
			fn.Name = AnonymousName
		}
		if fn.Branches < 0 {
			fn.Branches = 0
		}
		if fn.LocalComplexity < 1+fn.Branches {
			fn.LocalComplexity = 1 + fn.Branches
		}
		if fn.LineEnd < fn.LineStart {
			fn.LineEnd = fn.LineStart
		}
		out[i] = fn
	}
	return out
}

// NewFunction builds a Function whose complexity follows the counting rule:
// base 1 plus one per branch.
func NewFunction(name string, inputs []Param, outputs []string, lineStart, lineEnd, branches int) Function {
	if name == "" {
		name = AnonymousName
	}
	if inputs == nil {
		inputs = []Param{}
	}
	if outputs == nil {
		outputs = []string{}
	}
	return Function{
		Name:            name,
		Inputs:          inputs,
		Outputs:         outputs,
		LineStart:       lineStart,
		LineEnd:         lineEnd,
		Branches:        branches,
		LocalComplexity: 1 + branches,
	}
}

func dedupeSorted(items []string) []string {
	seen := make(map[string]bool, len(items))
	out := make([]string, 0, len(items))
	for _, s := range items {
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}
