package prompt

const promptTemplate = `# Unit test generation

You are a test engineer. Write a complete unit test suite for the {{ .LanguageName }} code summarized below, using {{ .Framework }}.

## Analysis overview

{{ .Summary.Overview }}
{{ if .Summary.KeyPaths }}
## Execution paths
{{ range .Summary.KeyPaths }}
- {{ code . }}
{{- end }}
{{ end }}
{{- if .Summary.EdgeCases }}
## Edge cases
{{ range .Summary.EdgeCases }}
- {{ . }}
{{- end }}
{{ end }}
{{- if .Summary.IOMatrix }}
## Input/output matrix

| Function | Inputs | Expected |
|----------|--------|----------|
{{ range .Summary.IOMatrix }}| {{ code .Function }} | {{ joinOrNone .Inputs }} | {{ joinOrNone .Expected }} |
{{ end }}
{{- end }}
{{- if .Summary.Risks }}
## Risks
{{ range .Summary.Risks }}
- {{ . }}
{{- end }}
{{ end }}
## Guardrails
{{ range .Guardrails }}
- {{ . }}
{{- end }}

## Output format

- {{ .FrameworkHint }}
- Return only the test code, including every import it needs.
- Group tests by scenario: happy path, edge cases, error cases.
- Give each test a descriptive name.
`
