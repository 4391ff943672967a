package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/manifoldco/promptui"
)

// projectMarkers maps marker files to the language tag they imply and the
// scan include glob for it.
var projectMarkers = map[string]struct {
	Language string
	Include  string
}{
	"go.mod":           {Language: "go", Include: "**/*.go"},
	"package.json":     {Language: "javascript", Include: "**/*.{js,jsx,mjs,cjs,ts,tsx}"},
	"tsconfig.json":    {Language: "typescript", Include: "**/*.{ts,tsx}"},
	"requirements.txt": {Language: "python", Include: "**/*.py"},
	"pyproject.toml":   {Language: "python", Include: "**/*.py"},
	"setup.py":         {Language: "python", Include: "**/*.py"},
	"pom.xml":          {Language: "java", Include: "**/*.java"},
	"build.gradle":     {Language: "java", Include: "**/*.java"},
}

// detectProject checks dir for well-known project markers and returns the
// detected languages and include globs, both sorted and deduplicated.
func detectProject(dir string) (languages, include []string) {
	langSet := map[string]bool{}
	globSet := map[string]bool{}
	for marker, info := range projectMarkers {
		if _, err := os.Stat(filepath.Join(dir, marker)); err == nil {
			langSet[info.Language] = true
			globSet[info.Include] = true
		}
	}
	for l := range langSet {
		languages = append(languages, l)
	}
	for g := range globSet {
		include = append(include, g)
	}
	sort.Strings(languages)
	sort.Strings(include)
	return languages, include
}

// wizardAnswers are the choices collected by RunWizard.
type wizardAnswers struct {
	JavaRemote   bool
	JavaEndpoint string
	History      bool
	Include      []string
	Exclude      []string
}

// apply folds the answers into cfg.
func (a wizardAnswers) apply(cfg *Config) {
	if a.JavaRemote {
		cfg.Analyzers["java"] = AnalyzerConfig{Mode: ModeRemote, Endpoint: a.JavaEndpoint}
	} else {
		cfg.Analyzers["java"] = AnalyzerConfig{Mode: ModeBuiltin}
	}
	cfg.History.Enabled = a.History
	if len(a.Include) > 0 {
		cfg.Scan.Include = a.Include
	}
	cfg.Scan.Exclude = append(cfg.Scan.Exclude, a.Exclude...)
}

func validateEndpoint(s string) error {
	u, err := url.Parse(s)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("enter an http(s) URL such as http://localhost:8080")
	}
	return nil
}

// RunWizard runs an interactive configuration wizard, saves the result to
// path and returns it.
func RunWizard(path string) (*Config, error) {
	fmt.Println("Welcome to mcporch! Let's configure your project.")
	fmt.Println()

	cfg := DefaultConfig()
	languages, include := detectProject(".")
	if len(languages) > 0 {
		fmt.Printf("Detected languages: %s\n\n", strings.Join(languages, ", "))
	}

	var answers wizardAnswers

	// 1. Java routing.
	javaPrompt := promptui.Select{
		Label: "How should Java be analyzed",
		Items: []string{
			"builtin - in-process tree-sitter analyzer",
			"remote  - HTTP analyzer service (mcporch analyzer-service --language java)",
		},
	}
	javaIdx, _, err := javaPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("java routing: %w", err)
	}
	if javaIdx == 1 {
		answers.JavaRemote = true
		endpointPrompt := promptui.Prompt{
			Label:    "Java analyzer endpoint",
			Default:  fmt.Sprintf("http://localhost:%d", cfg.AnalyzerService.Port),
			Validate: validateEndpoint,
		}
		if answers.JavaEndpoint, err = endpointPrompt.Run(); err != nil {
			return nil, fmt.Errorf("java endpoint: %w", err)
		}
	}

	// 2. Run history.
	historyPrompt := promptui.Select{
		Label: "Record pipeline runs in " + cfg.History.Path,
		Items: []string{"no", "yes"},
	}
	historyIdx, _, err := historyPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("history: %w", err)
	}
	answers.History = historyIdx == 1

	// 3. Scan include patterns.
	defaultInclude := "**"
	if len(include) > 0 {
		defaultInclude = strings.Join(include, ", ")
	}
	includePrompt := promptui.Prompt{
		Label:   "Scan include patterns (comma-separated globs)",
		Default: defaultInclude,
	}
	includeStr, err := includePrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("include patterns: %w", err)
	}
	answers.Include = splitAndTrim(includeStr)

	// 4. Extra exclude patterns.
	excludePrompt := promptui.Prompt{
		Label: "Extra exclude patterns (comma-separated, leave blank for defaults)",
	}
	excludeStr, err := excludePrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("exclude patterns: %w", err)
	}
	answers.Exclude = splitAndTrim(excludeStr)

	answers.apply(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Save(path); err != nil {
		return nil, fmt.Errorf("saving config: %w", err)
	}

	fmt.Printf("\nConfiguration saved to %s\n", path)
	if answers.JavaRemote {
		fmt.Println("Start the Java analyzer with: mcporch analyzer-service --language java")
	}
	return cfg, nil
}

// splitAndTrim splits a comma-separated string and drops empty entries.
// Commas inside braces belong to the glob.
func splitAndTrim(s string) []string {
	var result []string
	depth, start := 0, 0
	for i := 0; i <= len(s); i++ {
		if i < len(s) {
			switch s[i] {
			case '{':
				depth++
			case '}':
				if depth > 0 {
					depth--
				}
			}
			if s[i] != ',' || depth > 0 {
				continue
			}
		}
		if token := strings.TrimSpace(s[start:i]); token != "" {
			result = append(result, token)
		}
		start = i + 1
	}
	return result
}
