package script

import (
	"strings"

	"github.com/ziadkadry99/mcporch/internal/analysis"
)

var paramModifiers = []string{"public ", "private ", "protected ", "readonly ", "override "}

// parseParams parses a parameter list. masked and src cover the same bytes;
// structure is read from masked and names and types are sliced from src.
func parseParams(masked, src string) []analysis.Param {
	var out []analysis.Param
	for _, sp := range splitTopLevel(masked, ',') {
		m := masked[sp[0]:sp[1]]
		s := src[sp[0]:sp[1]]
		if strings.TrimSpace(m) == "" {
			continue
		}

		param := analysis.Param{Type: unknownType}
		if i := indexTopLevel(m, '='); i >= 0 {
			param.Optional = true
			m, s = m[:i], s[:i]
		}
		if i := indexTopLevel(m, ':'); i >= 0 {
			param.Type = collapse(s[i+1:])
			m, s = m[:i], s[:i]
		}

		name := strings.TrimSpace(s)
		if strings.HasPrefix(name, "...") {
			param.Variadic = true
			name = strings.TrimSpace(name[3:])
			if param.Type == unknownType {
				param.Type = unknownType + "[]"
			}
		}
		for trimmed := true; trimmed; {
			trimmed = false
			for _, mod := range paramModifiers {
				if strings.HasPrefix(name, mod) {
					name = strings.TrimSpace(name[len(mod):])
					trimmed = true
				}
			}
		}
		if strings.HasSuffix(name, "?") {
			param.Optional = true
			name = strings.TrimSpace(strings.TrimSuffix(name, "?"))
		}
		param.Name = collapse(name)
		out = append(out, param)
	}
	return out
}

// splitTopLevel returns [start, end) spans of s separated by sep at bracket
// depth zero. Angle brackets count as nesting so generic arguments stay whole.
func splitTopLevel(s string, sep byte) [][2]int {
	var spans [][2]int
	depth, start := 0, 0
	for i := 0; i < len(s); i++ {
		switch c := s[i]; {
		case c == '(' || c == '[' || c == '{' || c == '<':
			depth++
		case c == '>' && i > 0 && s[i-1] == '=':
		case c == ')' || c == ']' || c == '}' || c == '>':
			if depth > 0 {
				depth--
			}
		case c == sep && depth == 0:
			spans = append(spans, [2]int{start, i})
			start = i + 1
		}
	}
	return append(spans, [2]int{start, len(s)})
}

// indexTopLevel finds ch at depth zero, ignoring the = of => and ==.
func indexTopLevel(s string, ch byte) int {
	depth := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '(' || c == '[' || c == '{' || c == '<':
			depth++
		case c == '>' && i > 0 && s[i-1] == '=':
		case c == ')' || c == ']' || c == '}' || c == '>':
			if depth > 0 {
				depth--
			}
		case c == ch && depth == 0:
			if ch == '=' && i+1 < len(s) && (s[i+1] == '>' || s[i+1] == '=') {
				i++
				continue
			}
			return i
		}
	}
	return -1
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
