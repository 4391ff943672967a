// Package script is the line and token heuristic analyzer for JavaScript and
// TypeScript. Declarations are found with anchored patterns and scopes with
// bracket matching; counts may undercount constructs the patterns miss.
package script

import (
	"context"
	"regexp"
	"sort"
	"strings"

	"github.com/ziadkadry99/mcporch/internal/analysis"
	"github.com/ziadkadry99/mcporch/internal/effects"
)

// Canonical tags served by this package.
const (
	JavaScript = "javascript"
	TypeScript = "typescript"
)

const unknownType = "any"

var (
	declRe = regexp.MustCompile(`(?m)^[ \t]*(?:export[ \t]+(?:default[ \t]+)?)?(?:async[ \t]+)?function\b[ \t]*\*?[ \t]*([A-Za-z_$][\w$]*)?[ \t]*(?:<[^>\n]*>)?[ \t]*\(`)

	boundRe = regexp.MustCompile(`(?m)^[ \t]*(?:export[ \t]+)?(?:const|let|var)[ \t]+([A-Za-z_$][\w$]*)[ \t]*(?::[^=\n]+)?=[ \t]*` +
		`(?:(?:async[ \t]+)?(function)\b[ \t]*\*?[ \t]*(?:[A-Za-z_$][\w$]*)?[ \t]*(?:<[^>\n]*>)?[ \t]*\(` +
		`|(?:async[ \t]*)?(?:<[^>\n]*>)?\(` +
		`|(?:async[ \t]+)?([A-Za-z_$][\w$]*)[ \t]*=>)`)

	methodRe = regexp.MustCompile(`(?m)^[ \t]*(?:(?:public|private|protected|static|async|readonly|override|abstract|get|set)[ \t]+)*\*?[ \t]*([A-Za-z_$][\w$]*)[ \t]*(?:<[^>\n]*>)?[ \t]*\(`)

	returnValueRe = regexp.MustCompile(`\breturn\b[ \t]*[^;\s}]`)
	branchRe      = regexp.MustCompile(`\b(?:if|for|while|case|try)\b`)
	defaultRe     = regexp.MustCompile(`\bdefault[ \t]*:`)
	handlerRe     = regexp.MustCompile(`(?:^|[^.\w$])(?:catch|finally)\b`)
	switchRe      = regexp.MustCompile(`\bswitch\b`)
	caseRe        = regexp.MustCompile(`\bcase\b|\bdefault[ \t]*:`)

	callRe   = regexp.MustCompile(`([A-Za-z_$][\w$]*(?:[ \t]*\.[ \t]*[A-Za-z_$][\w$]*)*)[ \t]*\(`)
	assignRe = regexp.MustCompile(`((?:[A-Za-z_$][\w$]*)?(?:\.[A-Za-z_$][\w$]*)+)[ \t]*(?:\*\*|\?\?|&&|\|\||[-+*/%&|^])?=`)
	incDecRe = regexp.MustCompile(`([A-Za-z_$][\w$]*(?:\.[A-Za-z_$][\w$]*)+)[ \t]*(?:\+\+|--)`)
	newRe    = regexp.MustCompile(`\bnew[ \t]+[A-Za-z_$]`)
	importRe = regexp.MustCompile(`\bimport[ \t]*\(`)

	constructRes = map[string]*regexp.Regexp{
		"throw": regexp.MustCompile(`\bthrow\b`),
		"await": regexp.MustCompile(`\bawait\b`),
		"async": regexp.MustCompile(`\basync\b`),
	}
)

var keywords = map[string]bool{
	"if": true, "for": true, "while": true, "switch": true, "catch": true, "function": true,
	"return": true, "typeof": true, "with": true, "do": true, "else": true, "try": true,
	"new": true, "await": true, "yield": true, "super": true, "import": true, "export": true,
	"throw": true, "delete": true, "void": true, "in": true, "of": true, "case": true,
	"instanceof": true, "async": true,
}

// Analyzer is the heuristic analyzer for one of the two script languages.
type Analyzer struct {
	lang string
}

// NewJavaScript creates the JavaScript analyzer.
func NewJavaScript() *Analyzer { return &Analyzer{lang: JavaScript} }

// NewTypeScript creates the TypeScript analyzer.
func NewTypeScript() *Analyzer { return &Analyzer{lang: TypeScript} }

func (a *Analyzer) Language() string { return a.lang }

func (a *Analyzer) Strategy() analysis.Strategy { return analysis.StrategyHeuristic }

func (a *Analyzer) Analyze(ctx context.Context, source string) (*analysis.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	code, err := mask(source)
	if err != nil {
		return nil, analysis.NewParseError(a.lang, err.Error(), nil)
	}
	lines := newLineIndex(source)
	pairs, err := matchBrackets(code, lines)
	if err != nil {
		return nil, analysis.NewParseError(a.lang, err.Error(), nil)
	}

	u := &unit{src: source, code: code, pairs: pairs, lines: lines}
	units := u.discover()

	fns := make([]analysis.Function, 0, len(units))
	for _, fu := range units {
		start, end := lines.lineAt(fu.start), lines.lineAt(fu.bodyEnd)
		fns = append(fns, analysis.NewFunction(fu.name, fu.params, fu.outputs, start, end, u.countBranches(fu, units)))
	}

	rec := analysis.Normalize(a.lang, fns, effects.Collect(u.sites(units)).Strings())
	return &rec, nil
}

type unit struct {
	src   string
	code  string
	pairs map[int]int
	lines *lineIndex
}

type fnUnit struct {
	name      string
	start     int
	open      int
	bodyStart int
	bodyEnd   int
	exprBody  bool
	returns   string
	params    []analysis.Param
	outputs   []string
}

type candidate struct {
	name     string
	start    int
	open     int
	arrow    bool
	oneParam string
}

// discover finds every declaration the patterns recognize and resolves its
// parameter list and body. Candidates that do not lead to a body are
// dropped.
func (u *unit) discover() []fnUnit {
	var cands []candidate
	for _, m := range declRe.FindAllStringSubmatchIndex(u.code, -1) {
		cands = append(cands, candidate{name: u.group(m, 1), start: m[0], open: m[1] - 1})
	}
	for _, m := range boundRe.FindAllStringSubmatchIndex(u.code, -1) {
		c := candidate{name: u.group(m, 1), start: m[0], open: m[1] - 1}
		switch {
		case m[6] >= 0:
			c.arrow, c.oneParam, c.open = true, u.code[m[6]:m[7]], -1
		case m[4] < 0:
			c.arrow = true
		}
		cands = append(cands, c)
	}
	for _, m := range methodRe.FindAllStringSubmatchIndex(u.code, -1) {
		name := u.group(m, 1)
		if keywords[name] {
			continue
		}
		cands = append(cands, candidate{name: name, start: m[0], open: m[1] - 1})
	}
	sort.SliceStable(cands, func(i, j int) bool { return cands[i].start < cands[j].start })

	var out []fnUnit
	seen := make(map[int]bool)
	for _, c := range cands {
		if seen[c.start] {
			continue
		}
		if fu, ok := u.resolve(c); ok {
			seen[c.start] = true
			out = append(out, fu)
		}
	}
	for i := range out {
		fu := &out[i]
		returnsValue := fu.exprBody || returnValueRe.MatchString(u.ownText(fu.bodyStart, fu.bodyEnd, out))
		fu.outputs = outputsFor(fu.returns, returnsValue)
	}
	return out
}

func (u *unit) group(m []int, n int) string {
	if m[2*n] < 0 {
		return ""
	}
	return u.code[m[2*n]:m[2*n+1]]
}

func (u *unit) resolve(c candidate) (fnUnit, bool) {
	fu := fnUnit{name: c.name, start: c.start, open: c.open}
	if fu.name == "" {
		fu.name = analysis.AnonymousName
	}

	var pos int
	if c.open < 0 {
		fu.params = []analysis.Param{{Name: c.oneParam, Type: unknownType}}
		pos = strings.Index(u.code[c.start:], "=>") + c.start
	} else {
		closeAt, ok := u.pairs[c.open]
		if !ok {
			return fnUnit{}, false
		}
		fu.params = parseParams(u.code[c.open+1:closeAt], u.src[c.open+1:closeAt])
		pos, fu.returns = u.returnAnnotation(closeAt + 1)
	}

	pos = u.skipSpace(pos)
	if c.arrow {
		if !strings.HasPrefix(u.code[pos:], "=>") {
			return fnUnit{}, false
		}
		pos = u.skipSpace(pos + 2)
		if pos < len(u.code) && u.code[pos] != '{' {
			fu.bodyStart, fu.bodyEnd, fu.exprBody = pos, u.expressionEnd(pos), true
			return fu, true
		}
	}
	if pos >= len(u.code) || u.code[pos] != '{' {
		return fnUnit{}, false
	}
	fu.bodyStart, fu.bodyEnd = pos, u.pairs[pos]
	return fu, true
}

func outputsFor(annotation string, returnsValue bool) []string {
	switch {
	case annotation == "void":
		return nil
	case annotation != "":
		return []string{annotation}
	case returnsValue:
		return []string{unknownType}
	default:
		return nil
	}
}

// returnAnnotation reads an optional ": Type" after a parameter list and
// returns the position of what follows it.
func (u *unit) returnAnnotation(pos int) (int, string) {
	p := u.skipSpace(pos)
	if p >= len(u.code) || u.code[p] != ':' {
		return pos, ""
	}
	start := p + 1
	depth := 0
	for i := start; i < len(u.code); i++ {
		c := u.code[i]
		switch {
		case c == '(' || c == '[' || c == '<':
			depth++
		case c == ')' || c == ']' || (c == '>' && u.code[i-1] != '='):
			depth--
		case c == '{' && depth == 0:
			before := strings.TrimSpace(u.code[start:i])
			if before == "" || strings.ContainsAny(before[len(before)-1:], ":|&<,") {
				if end, ok := u.pairs[i]; ok {
					i = end
					continue
				}
			}
			return i, collapse(u.src[start:i])
		case c == '=' && i+1 < len(u.code) && u.code[i+1] == '>' && depth == 0:
			return i, collapse(u.src[start:i])
		case c == ';' && depth == 0:
			return i, collapse(u.src[start:i])
		}
	}
	return len(u.code), collapse(u.src[start:])
}

func (u *unit) skipSpace(pos int) int {
	for pos < len(u.code) && strings.IndexByte(" \t\r\n", u.code[pos]) >= 0 {
		pos++
	}
	return pos
}

// expressionEnd returns the last offset of an arrow function's expression
// body: up to a depth-zero semicolon, comma or line end, or an unmatched
// closing bracket.
func (u *unit) expressionEnd(pos int) int {
	depth := 0
	for i := pos; i < len(u.code); i++ {
		switch c := u.code[i]; c {
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			if depth == 0 {
				return i - 1
			}
			depth--
		case ';', ',', '\n':
			if depth == 0 {
				return i - 1
			}
		}
	}
	return len(u.code) - 1
}

// ownText returns masked code in [from, to] with the spans of nested units
// blanked out.
func (u *unit) ownText(from, to int, units []fnUnit) string {
	if to >= len(u.code) {
		to = len(u.code) - 1
	}
	if to < from {
		return ""
	}
	buf := []byte(u.code[from : to+1])
	for _, other := range units {
		if other.start <= from || other.bodyEnd > to {
			continue
		}
		for i := other.start; i <= other.bodyEnd; i++ {
			if buf[i-from] != '\n' {
				buf[i-from] = ' '
			}
		}
	}
	return string(buf)
}

// countBranches applies the counting rule to the body of fu, excluding the
// bodies of functions declared inside it.
func (u *unit) countBranches(fu fnUnit, units []fnUnit) int {
	text := u.ownText(fu.bodyStart, fu.bodyEnd, units)
	branches := len(branchRe.FindAllStringIndex(text, -1))
	branches += len(handlerRe.FindAllStringIndex(text, -1))
	branches += countTernaries(text)

	var blocks [][2]int
	for _, m := range switchRe.FindAllStringIndex(text, -1) {
		open := strings.IndexByte(text[m[1]:], '{')
		if open < 0 {
			continue
		}
		open += m[1]
		end, ok := u.pairs[fu.bodyStart+open]
		if !ok {
			continue
		}
		end = min(end-fu.bodyStart, len(text))
		blocks = append(blocks, [2]int{open, end})
		if !caseRe.MatchString(text[open:end]) {
			branches++
		}
	}

	// default: is only a clause inside a switch block, not an object key.
	for _, m := range defaultRe.FindAllStringIndex(text, -1) {
		for _, b := range blocks {
			if m[0] > b[0] && m[0] < b[1] {
				branches++
				break
			}
		}
	}
	return branches
}

// countTernaries counts conditional operators, skipping optional chaining,
// nullish coalescing and optional parameter or property markers.
func countTernaries(text string) int {
	n := 0
	for i := 0; i < len(text); i++ {
		if text[i] != '?' {
			continue
		}
		if i > 0 && text[i-1] == '?' {
			continue
		}
		j := i + 1
		if j < len(text) && (text[j] == '?' || text[j] == '.') {
			continue
		}
		for j < len(text) && (text[j] == ' ' || text[j] == '\t') {
			j++
		}
		if j < len(text) && strings.IndexByte(":,)=", text[j]) >= 0 {
			continue
		}
		n++
	}
	return n
}

// sites collects calls, member assignments and keyword constructs from the
// whole unit. Declaration headers are not calls.
func (u *unit) sites(units []fnUnit) []effects.Site {
	declOpens := make(map[int]bool, len(units))
	for _, fu := range units {
		declOpens[fu.open] = true
	}

	var out []effects.Site
	for _, m := range callRe.FindAllStringSubmatchIndex(u.code, -1) {
		if declOpens[m[1]-1] {
			continue
		}
		callee := strings.Join(strings.Fields(u.code[m[2]:m[3]]), "")
		if keywords[callee] {
			continue
		}
		out = append(out, effects.Call(callee))
	}
	for _, m := range assignRe.FindAllStringSubmatchIndex(u.code, -1) {
		if m[1] < len(u.code) && (u.code[m[1]] == '=' || u.code[m[1]] == '>') {
			continue
		}
		out = append(out, effects.Assign(u.code[m[2]:m[3]]))
	}
	for _, m := range incDecRe.FindAllStringSubmatchIndex(u.code, -1) {
		out = append(out, effects.Assign(u.code[m[2]:m[3]]))
	}
	for range newRe.FindAllStringIndex(u.code, -1) {
		out = append(out, effects.Construct("new"))
	}
	for range importRe.FindAllStringIndex(u.code, -1) {
		out = append(out, effects.Construct("dynamic_import"))
	}
	for kw, re := range constructRes {
		if re.MatchString(u.code) {
			out = append(out, effects.Construct(kw))
		}
	}
	return out
}
