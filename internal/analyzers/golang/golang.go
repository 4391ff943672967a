// Package golang analyzes Go source with go/parser.
package golang

import (
	"context"
	"errors"
	"fmt"
	"go/ast"
	"go/parser"
	"go/scanner"
	"go/token"
	"go/types"
	"strings"

	"github.com/ziadkadry99/mcporch/internal/analysis"
	"github.com/ziadkadry99/mcporch/internal/effects"
)

// Language is the canonical tag served by this analyzer.
const Language = "go"

const snippetHeader = "package snippet\n"

// Analyzer is the AST-based Go analyzer. A source without a package clause is
// parsed as if it were the body of a synthetic package.
type Analyzer struct{}

// New creates a Go analyzer.
func New() *Analyzer { return &Analyzer{} }

func (a *Analyzer) Language() string { return Language }

func (a *Analyzer) Strategy() analysis.Strategy { return analysis.StrategyAST }

func (a *Analyzer) Analyze(ctx context.Context, source string) (*analysis.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	fset := token.NewFileSet()
	lineOffset := 0
	f, err := parser.ParseFile(fset, "source.go", source, parser.SkipObjectResolution)
	if err != nil {
		if !missingPackage(err) {
			return nil, parseError(err, 0)
		}
		wrapped, werr := parser.ParseFile(fset, "snippet.go", snippetHeader+source, parser.SkipObjectResolution)
		if werr != nil {
			return nil, parseError(werr, 1)
		}
		f, lineOffset = wrapped, 1
	}

	v := &visitor{fset: fset, lineOffset: lineOffset}
	ast.Inspect(f, v.visit)

	rec := analysis.Normalize(Language, v.functions, effects.Collect(v.sites).Strings())
	return &rec, nil
}

func missingPackage(err error) bool {
	var list scanner.ErrorList
	return errors.As(err, &list) && len(list) > 0 && strings.Contains(list[0].Msg, "expected 'package'")
}

func parseError(err error, lineOffset int) error {
	var list scanner.ErrorList
	if errors.As(err, &list) && len(list) > 0 {
		first := list[0]
		return analysis.NewParseError(Language, fmt.Sprintf("line %d:%d: %s", first.Pos.Line-lineOffset, first.Pos.Column, first.Msg), nil)
	}
	return analysis.NewParseError(Language, "invalid Go source", err)
}

type visitor struct {
	fset       *token.FileSet
	lineOffset int
	functions  []analysis.Function
	sites      []effects.Site
}

func (v *visitor) visit(n ast.Node) bool {
	if n == nil {
		return false
	}
	v.collectSites(n)

	switch x := n.(type) {
	case *ast.FuncDecl:
		name := x.Name.Name
		if x.Recv != nil && len(x.Recv.List) > 0 {
			name = receiverName(x.Recv.List[0].Type) + "." + name
		}
		v.functions = append(v.functions, v.function(name, x, x.Type, x.Body))
	case *ast.AssignStmt:
		for i, rhs := range x.Rhs {
			if lit, ok := rhs.(*ast.FuncLit); ok && i < len(x.Lhs) {
				v.functions = append(v.functions, v.function(types.ExprString(x.Lhs[i]), x, lit.Type, lit.Body))
			}
		}
	case *ast.ValueSpec:
		for i, val := range x.Values {
			if lit, ok := val.(*ast.FuncLit); ok && i < len(x.Names) {
				v.functions = append(v.functions, v.function(x.Names[i].Name, x, lit.Type, lit.Body))
			}
		}
	}
	return true
}

func (v *visitor) function(name string, span ast.Node, typ *ast.FuncType, body *ast.BlockStmt) analysis.Function {
	start := v.fset.Position(span.Pos()).Line - v.lineOffset
	end := v.fset.Position(span.End()).Line - v.lineOffset
	return analysis.NewFunction(name, params(typ.Params), results(typ.Results), start, end, countBranches(body))
}

func receiverName(expr ast.Expr) string {
	switch t := expr.(type) {
	case *ast.StarExpr:
		return receiverName(t.X)
	case *ast.IndexExpr:
		return receiverName(t.X)
	case *ast.IndexListExpr:
		return receiverName(t.X)
	default:
		return types.ExprString(expr)
	}
}

func params(fields *ast.FieldList) []analysis.Param {
	if fields == nil {
		return nil
	}
	var out []analysis.Param
	for _, field := range fields.List {
		typ := field.Type
		variadic := false
		if ell, ok := typ.(*ast.Ellipsis); ok {
			typ, variadic = ell.Elt, true
		}
		typeStr := types.ExprString(typ)
		if len(field.Names) == 0 {
			out = append(out, analysis.Param{Name: "_", Type: typeStr, Variadic: variadic})
			continue
		}
		for _, name := range field.Names {
			out = append(out, analysis.Param{Name: name.Name, Type: typeStr, Variadic: variadic})
		}
	}
	return out
}

func results(fields *ast.FieldList) []string {
	if fields == nil {
		return nil
	}
	var out []string
	for _, field := range fields.List {
		typeStr := types.ExprString(field.Type)
		count := max(len(field.Names), 1)
		for i := 0; i < count; i++ {
			out = append(out, typeStr)
		}
	}
	return out
}

// countBranches counts decision points in body. Function literals bound to
// a name are separate records and are not descended into.
func countBranches(body *ast.BlockStmt) int {
	if body == nil {
		return 0
	}
	branches := 0
	var inspect func(n ast.Node) bool
	inspect = func(n ast.Node) bool {
		switch x := n.(type) {
		case *ast.IfStmt, *ast.ForStmt, *ast.RangeStmt:
			branches++
		case *ast.SwitchStmt:
			branches += max(len(x.Body.List), 1)
		case *ast.TypeSwitchStmt:
			branches += max(len(x.Body.List), 1)
		case *ast.SelectStmt:
			branches += max(len(x.Body.List), 1)
		case *ast.AssignStmt:
			if bindsFuncLit(x.Rhs) {
				for _, rhs := range x.Rhs {
					if _, ok := rhs.(*ast.FuncLit); !ok {
						ast.Inspect(rhs, inspect)
					}
				}
				return false
			}
		case *ast.ValueSpec:
			if bindsFuncLit(x.Values) {
				return false
			}
		}
		return true
	}
	ast.Inspect(body, inspect)
	return branches
}

func bindsFuncLit(exprs []ast.Expr) bool {
	for _, e := range exprs {
		if _, ok := e.(*ast.FuncLit); ok {
			return true
		}
	}
	return false
}

func (v *visitor) collectSites(n ast.Node) {
	switch x := n.(type) {
	case *ast.CallExpr:
		switch fn := x.Fun.(type) {
		case *ast.Ident:
			v.sites = append(v.sites, effects.Call(fn.Name))
		case *ast.SelectorExpr:
			v.sites = append(v.sites, effects.Site{Trigger: effects.TriggerCall, Name: fn.Sel.Name, Qualified: types.ExprString(fn)})
		}
	case *ast.AssignStmt:
		for _, lhs := range x.Lhs {
			if sel, ok := lhs.(*ast.SelectorExpr); ok {
				v.sites = append(v.sites, effects.Assign(types.ExprString(sel)))
			}
		}
	case *ast.IncDecStmt:
		if sel, ok := x.X.(*ast.SelectorExpr); ok {
			v.sites = append(v.sites, effects.Assign(types.ExprString(sel)))
		}
	case *ast.UnaryExpr:
		if _, ok := x.X.(*ast.CompositeLit); ok && x.Op == token.AND {
			v.sites = append(v.sites, effects.Construct("new"))
		}
	case *ast.GoStmt:
		v.sites = append(v.sites, effects.Construct("go"))
	case *ast.SendStmt:
		v.sites = append(v.sites, effects.Construct("chan_send"))
	case *ast.SelectStmt:
		v.sites = append(v.sites, effects.Construct("select"))
	}
}
