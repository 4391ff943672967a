package script

import (
	"fmt"
	"sort"
	"strings"
)

// syntaxError is a lexical failure with the 1-based line it was found on.
type syntaxError struct {
	line int
	msg  string
}

func (e *syntaxError) Error() string {
	return fmt.Sprintf("line %d: %s", e.line, e.msg)
}

// mask returns src with the contents of comments, string, template and
// regular expression literals replaced by spaces. Quote characters and
// newlines are kept so byte offsets and line numbers stay aligned.
func mask(src string) (string, error) {
	b := []byte(src)
	out := []byte(src)
	blank := func(i int) {
		if out[i] != '\n' {
			out[i] = ' '
		}
	}

	line := 1
	prev := byte(0)
	word := ""
	for i := 0; i < len(b); i++ {
		c := b[i]
		next := byte(0)
		if i+1 < len(b) {
			next = b[i+1]
		}

		switch {
		case c == '\n':
			line++
			continue
		case c == '/' && next == '/':
			for i < len(b) && b[i] != '\n' {
				blank(i)
				i++
			}
			i--
			continue
		case c == '/' && next == '*':
			start := line
			blank(i)
			blank(i + 1)
			i += 2
			for i < len(b) && (b[i] != '*' || i+1 >= len(b) || b[i+1] != '/') {
				if b[i] == '\n' {
					line++
				}
				blank(i)
				i++
			}
			if i >= len(b) {
				return "", &syntaxError{line: start, msg: "unterminated block comment"}
			}
			blank(i)
			blank(i + 1)
			i++
			continue
		case c == '\'' || c == '"' || c == '`':
			start := line
			j := i + 1
			for ; j < len(b) && b[j] != c; j++ {
				switch b[j] {
				case '\\':
					blank(j)
					if j+1 < len(b) {
						if b[j+1] == '\n' {
							line++
						}
						blank(j + 1)
					}
					j++
				case '\n':
					if c != '`' {
						return "", &syntaxError{line: start, msg: "unterminated string literal"}
					}
					line++
				default:
					blank(j)
				}
			}
			if j >= len(b) {
				return "", &syntaxError{line: start, msg: "unterminated string literal"}
			}
			i = j
			prev = c
			word = ""
			continue
		case c == '/' && regexAllowed(prev, word):
			if end := regexEnd(b, i); end > 0 {
				for j := i + 1; j < end; j++ {
					blank(j)
				}
				i = end
				prev = '/'
				word = ""
				continue
			}
		case isIdentByte(c):
			j := i
			for j < len(b) && isIdentByte(b[j]) {
				j++
			}
			word = src[i:j]
			prev = b[j-1]
			i = j - 1
			continue
		}

		if c != ' ' && c != '\t' && c != '\r' {
			prev = c
			word = ""
		}
	}
	return string(out), nil
}

// regexPrefixes are keywords after which a slash starts a regular
// expression rather than a division.
var regexPrefixes = map[string]bool{
	"return": true, "typeof": true, "case": true, "in": true, "of": true, "yield": true,
	"throw": true, "void": true, "delete": true, "instanceof": true, "new": true,
	"do": true, "else": true, "await": true,
}

func regexAllowed(prev byte, word string) bool {
	if word != "" {
		return regexPrefixes[word]
	}
	return prev == 0 || strings.IndexByte("(,=:[!&|?{};+-*%<>~^", prev) >= 0
}

func isIdentByte(c byte) bool {
	return c == '_' || c == '$' || c >= 0x80 ||
		(c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

// regexEnd returns the index of the closing slash of a regular expression
// literal starting at i, or -1 when none closes on the same line.
func regexEnd(b []byte, i int) int {
	inClass := false
	for j := i + 1; j < len(b); j++ {
		switch b[j] {
		case '\n':
			return -1
		case '\\':
			j++
		case '[':
			inClass = true
		case ']':
			inClass = false
		case '/':
			if !inClass {
				return j
			}
		}
	}
	return -1
}

var closers = map[byte]byte{')': '(', ']': '[', '}': '{'}

// matchBrackets pairs every opening bracket in masked code with its closing
// bracket. Mismatched or unclosed brackets are syntax errors.
func matchBrackets(code string, lines *lineIndex) (map[int]int, error) {
	pairs := make(map[int]int)
	var stack []int
	for i := 0; i < len(code); i++ {
		c := code[i]
		switch c {
		case '(', '[', '{':
			stack = append(stack, i)
		case ')', ']', '}':
			if len(stack) == 0 || code[stack[len(stack)-1]] != closers[c] {
				return nil, &syntaxError{line: lines.lineAt(i), msg: fmt.Sprintf("unexpected %q", c)}
			}
			pairs[stack[len(stack)-1]] = i
			stack = stack[:len(stack)-1]
		}
	}
	if len(stack) > 0 {
		open := stack[len(stack)-1]
		return nil, &syntaxError{line: lines.lineAt(open), msg: fmt.Sprintf("unclosed %q", code[open])}
	}
	return pairs, nil
}

// lineIndex maps byte offsets to 1-based line numbers.
type lineIndex struct {
	starts []int
}

func newLineIndex(s string) *lineIndex {
	starts := []int{0}
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			starts = append(starts, i+1)
		}
	}
	return &lineIndex{starts: starts}
}

func (l *lineIndex) lineAt(offset int) int {
	return sort.Search(len(l.starts), func(i int) bool { return l.starts[i] > offset })
}
