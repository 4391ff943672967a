// Package prompt turns a flow summary into a test-generation prompt with a
// token estimate and the guardrails the downstream model must respect.
package prompt

import (
	"strings"
	"text/template"
	"unicode/utf8"

	"github.com/ziadkadry99/mcporch/internal/flow"
)

// Record is a generated prompt.
type Record struct {
	Prompt     string   `json:"prompt"`
	TokensEst  int      `json:"tokens_est"`
	Guardrails []string `json:"guardrails"`
}

// Clone returns a deep copy of r.
func (r Record) Clone() Record {
	out := r
	out.Guardrails = append([]string{}, r.Guardrails...)
	return out
}

// Preview returns the first n runes of the prompt, with an ellipsis when cut.
func (r Record) Preview(n int) string {
	if utf8.RuneCountInString(r.Prompt) <= n {
		return r.Prompt
	}
	runes := []rune(r.Prompt)
	return string(runes[:n]) + "..."
}

// BaselineGuardrails are included in every prompt.
var BaselineGuardrails = []string{
	"Do not invent dependencies; if context is missing, ask for it explicitly.",
	"Cover all branches listed under execution paths.",
	"Cover all edge cases listed.",
	"Use the existing function and type names; do not rename them.",
	"Generate tests that compile and run as written.",
	"Assert on the outcome of every scenario.",
}

// RiskGuardrail is added when the summary carries at least one risk.
const RiskGuardrail = "Address every listed risk: isolate side effects with fakes or mocks and test their failure paths."

// ComplexityGuardrail is added when the summary flags a high complexity path.
const ComplexityGuardrail = "Keep each test focused on a single path through high-complexity functions."

// EstimateTokens approximates the token count as characters / 4, rounded.
func EstimateTokens(s string) int {
	return (utf8.RuneCountInString(s) + 2) / 4
}

type framework struct {
	name string
	hint string
}

var frameworks = map[string]framework{
	"python":     {"pytest", "Python: pytest tests with fixtures and parametrize where appropriate."},
	"java":       {"JUnit 5", "Java: a complete JUnit 5 class with @Test, and @BeforeEach/@AfterEach when needed."},
	"javascript": {"Jest", "JavaScript: Jest tests with describe/it and mocks where needed."},
	"typescript": {"Jest", "TypeScript: Jest tests with describe/it and typed mocks where needed."},
	"go":         {"the standard testing package", "Go: table-driven tests in a _test.go file using the testing package."},
}

var defaultFramework = framework{"the project's existing test framework", "Match the conventions of the project's existing tests."}

var promptTmpl = template.Must(template.New("prompt").Funcs(template.FuncMap{
	"code": func(s string) string {
		if s == "" {
			return ""
		}
		return "`" + s + "`"
	},
	"joinOrNone": func(items []string) string {
		if len(items) == 0 {
			return "none"
		}
		return strings.Join(items, ", ")
	},
}).Parse(promptTemplate))

// Builder renders prompts. It holds no state.
type Builder struct{}

// NewBuilder returns a Builder.
func NewBuilder() *Builder { return &Builder{} }

// Build never fails.
func (b *Builder) Build(sum flow.Summary) Record {
	guardrails := Guardrails(sum)
	fw, ok := frameworks[sum.Language]
	if !ok {
		fw = defaultFramework
	}
	lang := sum.Language
	if lang == "" {
		lang = "source"
	}

	data := struct {
		Summary       flow.Summary
		LanguageName  string
		Framework     string
		FrameworkHint string
		Guardrails    []string
	}{sum, lang, fw.name, fw.hint, guardrails}

	var out strings.Builder
	if err := promptTmpl.Execute(&out, data); err != nil {
		out.Reset()
		out.WriteString(sum.Overview + "\n\n" + strings.Join(guardrails, "\n"))
	}
	text := strings.TrimSpace(out.String())

	return Record{
		Prompt:     text,
		TokensEst:  EstimateTokens(text),
		Guardrails: guardrails,
	}
}

// Guardrails returns the baseline list extended by summary-specific entries.
func Guardrails(sum flow.Summary) []string {
	out := append([]string{}, BaselineGuardrails...)
	if len(sum.Risks) > 0 {
		out = append(out, RiskGuardrail)
	}
	for _, r := range sum.Risks {
		if r == flow.HighComplexityRisk {
			out = append(out, ComplexityGuardrail)
			break
		}
	}
	return out
}
