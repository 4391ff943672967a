// Package python analyzes Python source with the tree-sitter Python grammar.
package python

import (
	"context"
	"unicode"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"

	"github.com/ziadkadry99/mcporch/internal/analysis"
	"github.com/ziadkadry99/mcporch/internal/analyzers/treesitter"
	"github.com/ziadkadry99/mcporch/internal/effects"
)

// Language is the canonical tag served by this analyzer.
const Language = "python"

const unknownType = "Any"

// Analyzer is the AST-based Python analyzer. The zero value is ready to use.
type Analyzer struct{}

// New creates a Python analyzer.
func New() *Analyzer { return &Analyzer{} }

func (a *Analyzer) Language() string { return Language }

func (a *Analyzer) Strategy() analysis.Strategy { return analysis.StrategyAST }

// Analyze parses source and returns its normalized record. Syntax errors are
// reported as parse errors with the position of the first bad node.
func (a *Analyzer) Analyze(ctx context.Context, source string) (*analysis.Record, error) {
	src := []byte(source)
	tree, err := treesitter.Parse(ctx, Language, python.GetLanguage(), src)
	if err != nil {
		return nil, err
	}
	defer tree.Close()

	v := &visitor{src: src}
	treesitter.Walk(tree.RootNode(), v.visit)

	rec := analysis.Normalize(Language, v.functions, effects.Collect(v.sites).Strings())
	return &rec, nil
}

type visitor struct {
	src       []byte
	functions []analysis.Function
	sites     []effects.Site
}

func (v *visitor) visit(n *sitter.Node) bool {
	v.collectSites(n)

	switch n.Type() {
	case "function_definition":
		v.functions = append(v.functions, v.function(n))
	case "assignment":
		right := n.ChildByFieldName("right")
		if right != nil && right.Type() == "lambda" {
			v.functions = append(v.functions, v.lambda(treesitter.Text(n.ChildByFieldName("left"), v.src), n, right))
		}
	}
	return true
}

func (v *visitor) function(n *sitter.Node) analysis.Function {
	name := treesitter.Text(n.ChildByFieldName("name"), v.src)
	inputs := v.params(n.ChildByFieldName("parameters"))
	body := n.ChildByFieldName("body")

	var outputs []string
	if rt := n.ChildByFieldName("return_type"); rt != nil {
		outputs = []string{treesitter.Text(rt, v.src)}
	} else {
		outputs = v.inferReturns(body)
	}

	start, end := treesitter.Lines(n, 0)
	return analysis.NewFunction(name, inputs, outputs, start, end, countBranches(body))
}

func (v *visitor) lambda(name string, assign, fn *sitter.Node) analysis.Function {
	body := fn.ChildByFieldName("body")
	start, end := treesitter.Lines(assign, 0)
	return analysis.NewFunction(name, v.params(fn.ChildByFieldName("parameters")), []string{literalType(body)}, start, end, countBranches(body))
}

func (v *visitor) params(list *sitter.Node) []analysis.Param {
	var out []analysis.Param
	for _, p := range treesitter.NamedChildren(list) {
		switch p.Type() {
		case "identifier":
			out = append(out, analysis.Param{Name: treesitter.Text(p, v.src), Type: unknownType})
		case "list_splat_pattern":
			out = append(out, analysis.Param{Name: treesitter.Text(p, v.src), Type: "tuple", Variadic: true})
		case "dictionary_splat_pattern":
			out = append(out, analysis.Param{Name: treesitter.Text(p, v.src), Type: "dict", Variadic: true})
		case "typed_parameter":
			param := analysis.Param{Type: treesitter.Text(p.ChildByFieldName("type"), v.src)}
			if target := p.NamedChild(0); target != nil {
				param.Name = treesitter.Text(target, v.src)
				switch target.Type() {
				case "list_splat_pattern", "dictionary_splat_pattern":
					param.Variadic = true
				}
			}
			out = append(out, param)
		case "default_parameter":
			out = append(out, analysis.Param{
				Name:     treesitter.Text(p.ChildByFieldName("name"), v.src),
				Type:     unknownType,
				Optional: true,
			})
		case "typed_default_parameter":
			out = append(out, analysis.Param{
				Name:     treesitter.Text(p.ChildByFieldName("name"), v.src),
				Type:     treesitter.Text(p.ChildByFieldName("type"), v.src),
				Optional: true,
			})
		}
	}
	return out
}

// inferReturns derives output types from the valued return statements of
// body, ignoring nested functions. A body without one is void.
func (v *visitor) inferReturns(body *sitter.Node) []string {
	var out []string
	seen := make(map[string]bool)
	generator := false
	treesitter.Walk(body, func(n *sitter.Node) bool {
		switch n.Type() {
		case "function_definition", "lambda", "class_definition":
			return false
		case "yield":
			generator = true
		case "return_statement":
			if n.NamedChildCount() == 0 {
				return false
			}
			t := literalType(n.NamedChild(0))
			if !seen[t] {
				seen[t] = true
				out = append(out, t)
			}
			return false
		}
		return true
	})
	if len(out) == 0 && generator {
		return []string{"Generator"}
	}
	return out
}

func literalType(n *sitter.Node) string {
	if n == nil {
		return unknownType
	}
	switch n.Type() {
	case "integer":
		return "int"
	case "float":
		return "float"
	case "string", "concatenated_string":
		return "str"
	case "true", "false":
		return "bool"
	case "none":
		return "None"
	case "list", "list_comprehension":
		return "list"
	case "dictionary", "dictionary_comprehension":
		return "dict"
	case "tuple", "expression_list":
		return "tuple"
	case "set", "set_comprehension":
		return "set"
	case "parenthesized_expression":
		if n.NamedChildCount() == 1 {
			return literalType(n.NamedChild(0))
		}
	}
	return unknownType
}

// countBranches counts decision points inside body. Nested functions and
// lambdas bound by assignment are separate records and are skipped.
func countBranches(body *sitter.Node) int {
	branches := 0
	treesitter.Walk(body, func(n *sitter.Node) bool {
		switch n.Type() {
		case "function_definition":
			return false
		case "assignment":
			if right := n.ChildByFieldName("right"); right != nil && right.Type() == "lambda" {
				return false
			}
		case "if_statement", "elif_clause", "conditional_expression",
			"for_statement", "while_statement", "for_in_clause", "if_clause",
			"try_statement", "except_clause", "except_group_clause", "finally_clause":
			branches++
		case "match_statement":
			cases := treesitter.CountChildren(n, "case_clause") + treesitter.CountChildren(n.ChildByFieldName("body"), "case_clause")
			branches += max(cases, 1)
		}
		return true
	})
	return branches
}

func (v *visitor) collectSites(n *sitter.Node) {
	switch n.Type() {
	case "call":
		fn := n.ChildByFieldName("function")
		if fn == nil {
			return
		}
		switch fn.Type() {
		case "identifier":
			name := treesitter.Text(fn, v.src)
			v.sites = append(v.sites, effects.Call(name))
			if startsUpper(name) {
				v.sites = append(v.sites, effects.Construct("new"))
			}
		case "attribute":
			v.sites = append(v.sites, effects.Site{
				Trigger:   effects.TriggerCall,
				Name:      treesitter.Text(fn.ChildByFieldName("attribute"), v.src),
				Qualified: treesitter.Text(fn, v.src),
			})
		}
	case "assignment", "augmented_assignment":
		v.assignTargets(n.ChildByFieldName("left"))
	case "raise_statement":
		v.sites = append(v.sites, effects.Construct("raise"))
	case "global_statement":
		v.sites = append(v.sites, effects.Construct("global"))
	case "nonlocal_statement":
		v.sites = append(v.sites, effects.Construct("nonlocal"))
	case "await":
		v.sites = append(v.sites, effects.Construct("await"))
	case "function_definition":
		if treesitter.HasChildType(n, "async") {
			v.sites = append(v.sites, effects.Construct("async"))
		}
	}
}

func (v *visitor) assignTargets(left *sitter.Node) {
	if left == nil {
		return
	}
	switch left.Type() {
	case "attribute":
		v.sites = append(v.sites, effects.Assign(treesitter.Text(left, v.src)))
	case "subscript":
		if value := left.ChildByFieldName("value"); value != nil && value.Type() == "attribute" {
			v.sites = append(v.sites, effects.Assign(treesitter.Text(value, v.src)))
		}
	case "pattern_list", "tuple_pattern", "list_pattern":
		for _, c := range treesitter.NamedChildren(left) {
			v.assignTargets(c)
		}
	}
}

func startsUpper(s string) bool {
	for _, r := range s {
		return unicode.IsUpper(r)
	}
	return false
}
