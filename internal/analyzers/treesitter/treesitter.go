// Package treesitter holds the parsing and traversal helpers shared by the
// grammar-backed analyzers.
package treesitter

import (
	"context"
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/ziadkadry99/mcporch/internal/analysis"
)

// Parse parses src with grammar and rejects trees that contain syntax
// errors, reporting the first one with its 1-based position.
func Parse(ctx context.Context, lang string, grammar *sitter.Language, src []byte) (*sitter.Tree, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	parser := sitter.NewParser()
	parser.SetLanguage(grammar)

	tree, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, analysis.NewParseError(lang, "tree-sitter parse failed", err)
	}

	root := tree.RootNode()
	if root.HasError() {
		defer tree.Close()
		bad := FirstError(root)
		if bad == nil {
			return nil, analysis.NewParseError(lang, "syntax error", nil)
		}
		pos := bad.StartPoint()
		msg := fmt.Sprintf("syntax error at line %d, column %d", pos.Row+1, pos.Column+1)
		if bad.IsMissing() {
			msg = fmt.Sprintf("missing %q at line %d, column %d", bad.Type(), pos.Row+1, pos.Column+1)
		}
		return nil, analysis.NewParseError(lang, msg, nil)
	}
	return tree, nil
}

// FirstError returns the first ERROR or missing node in document order.
func FirstError(node *sitter.Node) *sitter.Node {
	if node == nil {
		return nil
	}
	if node.Type() == "ERROR" || node.IsMissing() {
		return node
	}
	if !node.HasError() {
		return nil
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		if bad := FirstError(node.Child(i)); bad != nil {
			return bad
		}
	}
	return nil
}

// Text returns the source text of node, or "" for a nil node.
func Text(node *sitter.Node, src []byte) string {
	if node == nil {
		return ""
	}
	return node.Content(src)
}

// Lines returns the 1-based inclusive line span of node. rowOffset is
// subtracted from both ends for sources parsed inside a synthetic wrapper.
func Lines(node *sitter.Node, rowOffset int) (int, int) {
	start := int(node.StartPoint().Row) + 1 - rowOffset
	end := int(node.EndPoint().Row) + 1 - rowOffset
	if end < start {
		end = start
	}
	return start, end
}

// NamedChildren returns the named children of node.
func NamedChildren(node *sitter.Node) []*sitter.Node {
	if node == nil {
		return nil
	}
	out := make([]*sitter.Node, 0, node.NamedChildCount())
	for i := 0; i < int(node.NamedChildCount()); i++ {
		out = append(out, node.NamedChild(i))
	}
	return out
}

// HasChildType reports whether node has a direct child, named or anonymous,
// of the given type.
func HasChildType(node *sitter.Node, typ string) bool {
	for i := 0; i < int(node.ChildCount()); i++ {
		if node.Child(i).Type() == typ {
			return true
		}
	}
	return false
}

// CountChildren counts direct named children of the given type.
func CountChildren(node *sitter.Node, typ string) int {
	n := 0
	for _, c := range NamedChildren(node) {
		if c.Type() == typ {
			n++
		}
	}
	return n
}

// Walk visits node and its descendants in document order. Returning false
// from fn skips the children of the current node.
func Walk(node *sitter.Node, fn func(*sitter.Node) bool) {
	if node == nil {
		return
	}
	if !fn(node) {
		return
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		Walk(node.Child(i), fn)
	}
}
