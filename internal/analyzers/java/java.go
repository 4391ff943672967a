// Package java analyzes Java source with the tree-sitter Java grammar.
package java

import (
	"context"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/java"

	"github.com/ziadkadry99/mcporch/internal/analysis"
	"github.com/ziadkadry99/mcporch/internal/analyzers/treesitter"
	"github.com/ziadkadry99/mcporch/internal/effects"
)

// Language is the canonical tag served by this analyzer.
const Language = "java"

const (
	unknownType = "Object"
	voidType    = "void"

	snippetHeader = "class Snippet {\n"
	snippetFooter = "\n}\n"
)

// Analyzer is the AST-based Java analyzer. Sources that are not a complete
// compilation unit, such as a lone method, are retried inside a synthetic
// class with line numbers kept relative to the original text.
type Analyzer struct{}

// New creates a Java analyzer.
func New() *Analyzer { return &Analyzer{} }

func (a *Analyzer) Language() string { return Language }

func (a *Analyzer) Strategy() analysis.Strategy { return analysis.StrategyAST }

func (a *Analyzer) Analyze(ctx context.Context, source string) (*analysis.Record, error) {
	src := []byte(source)
	rowOffset := 0
	tree, err := treesitter.Parse(ctx, Language, java.GetLanguage(), src)
	if err != nil {
		if !analysis.Is(err, analysis.KindParse) {
			return nil, err
		}
		wrapped := []byte(snippetHeader + source + snippetFooter)
		wtree, werr := treesitter.Parse(ctx, Language, java.GetLanguage(), wrapped)
		if werr != nil {
			return nil, err
		}
		tree, src, rowOffset = wtree, wrapped, 1
	}
	defer tree.Close()

	v := &visitor{src: src, rowOffset: rowOffset}
	treesitter.Walk(tree.RootNode(), v.visit)

	rec := analysis.Normalize(Language, v.functions, effects.Collect(v.sites).Strings())
	return &rec, nil
}

type visitor struct {
	src       []byte
	rowOffset int
	functions []analysis.Function
	sites     []effects.Site
}

func (v *visitor) visit(n *sitter.Node) bool {
	v.collectSites(n)

	switch n.Type() {
	case "method_declaration":
		var outputs []string
		if t := treesitter.Text(n.ChildByFieldName("type"), v.src); t != voidType && t != "" {
			outputs = []string{t}
		}
		v.functions = append(v.functions, v.function(n, outputs))
	case "constructor_declaration":
		v.functions = append(v.functions, v.function(n, []string{treesitter.Text(n.ChildByFieldName("name"), v.src)}))
	case "variable_declarator":
		value := n.ChildByFieldName("value")
		if value != nil && value.Type() == "lambda_expression" {
			v.functions = append(v.functions, v.lambda(treesitter.Text(n.ChildByFieldName("name"), v.src), n, value))
		}
	}
	return true
}

func (v *visitor) function(n *sitter.Node, outputs []string) analysis.Function {
	name := treesitter.Text(n.ChildByFieldName("name"), v.src)
	start, end := treesitter.Lines(n, v.rowOffset)
	return analysis.NewFunction(name, v.params(n.ChildByFieldName("parameters")), outputs, start, end, countBranches(n.ChildByFieldName("body")))
}

func (v *visitor) lambda(name string, decl, fn *sitter.Node) analysis.Function {
	var inputs []analysis.Param
	params := fn.ChildByFieldName("parameters")
	switch {
	case params == nil:
	case params.Type() == "identifier":
		inputs = []analysis.Param{{Name: treesitter.Text(params, v.src), Type: unknownType}}
	case params.Type() == "formal_parameters":
		inputs = v.params(params)
	default:
		for _, p := range treesitter.NamedChildren(params) {
			if p.Type() == "identifier" {
				inputs = append(inputs, analysis.Param{Name: treesitter.Text(p, v.src), Type: unknownType})
			}
		}
	}

	body := fn.ChildByFieldName("body")
	var outputs []string
	if body == nil || body.Type() != "block" || hasValuedReturn(body) {
		outputs = []string{unknownType}
	}

	start, end := treesitter.Lines(decl, v.rowOffset)
	return analysis.NewFunction(name, inputs, outputs, start, end, countBranches(body))
}

func (v *visitor) params(list *sitter.Node) []analysis.Param {
	var out []analysis.Param
	for _, p := range treesitter.NamedChildren(list) {
		switch p.Type() {
		case "formal_parameter":
			out = append(out, analysis.Param{
				Name: treesitter.Text(p.ChildByFieldName("name"), v.src),
				Type: treesitter.Text(p.ChildByFieldName("type"), v.src),
			})
		case "spread_parameter":
			param := analysis.Param{Type: unknownType, Variadic: true}
			for _, c := range treesitter.NamedChildren(p) {
				switch c.Type() {
				case "modifiers":
				case "variable_declarator":
					param.Name = treesitter.Text(c.ChildByFieldName("name"), v.src)
				case "identifier":
					param.Name = treesitter.Text(c, v.src)
				default:
					param.Type = treesitter.Text(c, v.src)
				}
			}
			out = append(out, param)
		}
	}
	return out
}

func hasValuedReturn(body *sitter.Node) bool {
	found := false
	treesitter.Walk(body, func(n *sitter.Node) bool {
		if found || isNestedUnit(n) || n.Type() == "lambda_expression" {
			return false
		}
		if n.Type() == "return_statement" && n.NamedChildCount() > 0 {
			found = true
		}
		return true
	})
	return found
}

func isNestedUnit(n *sitter.Node) bool {
	switch n.Type() {
	case "method_declaration", "constructor_declaration", "class_body":
		return true
	case "variable_declarator":
		value := n.ChildByFieldName("value")
		return value != nil && value.Type() == "lambda_expression"
	}
	return false
}

// countBranches counts decision points in body, skipping nested units that
// are recorded on their own.
func countBranches(body *sitter.Node) int {
	branches := 0
	treesitter.Walk(body, func(n *sitter.Node) bool {
		if isNestedUnit(n) {
			return false
		}
		switch n.Type() {
		case "if_statement", "ternary_expression",
			"for_statement", "enhanced_for_statement", "while_statement", "do_statement",
			"try_statement", "try_with_resources_statement", "catch_clause", "finally_clause":
			branches++
		case "switch_expression", "switch_statement":
			branches += max(countCases(n), 1)
		}
		return true
	})
	return branches
}

func countCases(sw *sitter.Node) int {
	block := sw.ChildByFieldName("body")
	if block == nil {
		return 0
	}
	cases := 0
	for _, c := range treesitter.NamedChildren(block) {
		switch c.Type() {
		case "switch_block_statement_group":
			cases += treesitter.CountChildren(c, "switch_label")
		case "switch_rule", "switch_label":
			cases++
		}
	}
	return cases
}

func (v *visitor) collectSites(n *sitter.Node) {
	switch n.Type() {
	case "method_invocation":
		name := treesitter.Text(n.ChildByFieldName("name"), v.src)
		qualified := name
		if obj := n.ChildByFieldName("object"); obj != nil {
			qualified = treesitter.Text(obj, v.src) + "." + name
		}
		v.sites = append(v.sites, effects.Site{Trigger: effects.TriggerCall, Name: name, Qualified: qualified})
	case "assignment_expression":
		if left := n.ChildByFieldName("left"); left != nil && left.Type() == "field_access" {
			v.sites = append(v.sites, effects.Assign(treesitter.Text(left, v.src)))
		}
	case "update_expression":
		for _, c := range treesitter.NamedChildren(n) {
			if c.Type() == "field_access" {
				v.sites = append(v.sites, effects.Assign(treesitter.Text(c, v.src)))
			}
		}
	case "object_creation_expression", "array_creation_expression":
		v.sites = append(v.sites, effects.Construct("new"))
	case "throw_statement":
		v.sites = append(v.sites, effects.Construct("throw"))
	case "synchronized_statement":
		v.sites = append(v.sites, effects.Construct("synchronized"))
	case "modifiers":
		if treesitter.HasChildType(n, "synchronized") {
			v.sites = append(v.sites, effects.Construct("synchronized"))
		}
	}
}
