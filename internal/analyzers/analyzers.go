// Package analyzers builds the analyzer registry from configuration, routing
// each language to its builtin, remote or exec implementation.
package analyzers

import (
	"fmt"
	"sort"

	"github.com/ziadkadry99/mcporch/internal/analysis"
	"github.com/ziadkadry99/mcporch/internal/analyzers/golang"
	"github.com/ziadkadry99/mcporch/internal/analyzers/java"
	"github.com/ziadkadry99/mcporch/internal/analyzers/python"
	"github.com/ziadkadry99/mcporch/internal/analyzers/remote"
	"github.com/ziadkadry99/mcporch/internal/analyzers/script"
	"github.com/ziadkadry99/mcporch/internal/analyzers/subprocess"
	"github.com/ziadkadry99/mcporch/internal/config"
)

var builtins = map[string]func() analysis.Analyzer{
	golang.Language:   func() analysis.Analyzer { return golang.New() },
	java.Language:     func() analysis.Analyzer { return java.New() },
	python.Language:   func() analysis.Analyzer { return python.New() },
	script.JavaScript: func() analysis.Analyzer { return script.NewJavaScript() },
	script.TypeScript: func() analysis.Analyzer { return script.NewTypeScript() },
}

// Builtin returns the in-process analyzer for lang. Aliases are resolved.
func Builtin(lang string) (analysis.Analyzer, bool) {
	tag := analysis.Canonical(lang)
	if target, ok := analysis.DefaultAliases[tag]; ok {
		tag = target
	}
	ctor, ok := builtins[tag]
	if !ok {
		return nil, false
	}
	return ctor(), true
}

// NewRegistry registers one analyzer per builtin language plus every
// language named under analyzers in cfg. Alias keys such as py route the
// canonical language.
func NewRegistry(cfg *config.Config) (*analysis.Registry, error) {
	reg := analysis.NewRegistry(cfg.Timeout())

	routes, err := routesFor(cfg)
	if err != nil {
		return nil, err
	}
	langs := map[string]bool{}
	for lang := range builtins {
		langs[lang] = true
	}
	for lang := range routes {
		langs[lang] = true
	}
	sorted := make([]string, 0, len(langs))
	for lang := range langs {
		sorted = append(sorted, lang)
	}
	sort.Strings(sorted)

	for _, lang := range sorted {
		ac, ok := routes[lang]
		if !ok {
			ac = config.AnalyzerConfig{Mode: config.ModeBuiltin}
		}
		a, err := build(lang, ac)
		if err != nil {
			return nil, err
		}
		reg.Register(a)
	}
	return reg, nil
}

// routesFor keys the configured analyzers by canonical language. When an
// alias and its canonical key are both set, a builtin entry yields to the
// other; two non-builtin entries conflict.
func routesFor(cfg *config.Config) (map[string]config.AnalyzerConfig, error) {
	keys := make([]string, 0, len(cfg.Analyzers))
	for key := range cfg.Analyzers {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	routes := make(map[string]config.AnalyzerConfig, len(keys))
	from := make(map[string]string, len(keys))
	for _, key := range keys {
		lang := analysis.Canonical(key)
		if target, ok := analysis.DefaultAliases[lang]; ok {
			lang = target
		}
		ac := cfg.Analyzer(key)
		if prev, dup := from[lang]; dup {
			switch {
			case ac.Mode == config.ModeBuiltin:
				continue
			case routes[lang].Mode != config.ModeBuiltin:
				return nil, fmt.Errorf("analyzers.%s and analyzers.%s both configure %s", prev, key, lang)
			}
		}
		from[lang] = key
		routes[lang] = ac
	}
	return routes, nil
}

func build(lang string, ac config.AnalyzerConfig) (analysis.Analyzer, error) {
	switch ac.Mode {
	case config.ModeBuiltin, "":
		a, ok := Builtin(lang)
		if !ok {
			return nil, fmt.Errorf("analyzers.%s: no builtin analyzer; use remote or exec mode", lang)
		}
		return a, nil
	case config.ModeRemote:
		if ac.Endpoint == "" {
			return nil, fmt.Errorf("analyzers.%s: remote mode requires an endpoint", lang)
		}
		return remote.New(lang, ac.Endpoint), nil
	case config.ModeExec:
		if len(ac.Command) == 0 {
			return nil, fmt.Errorf("analyzers.%s: exec mode requires a command", lang)
		}
		return subprocess.New(lang, ac.Command), nil
	default:
		return nil, fmt.Errorf("analyzers.%s: invalid mode %q", lang, ac.Mode)
	}
}

// Remotes returns the remote analyzers in reg, ordered by language.
func Remotes(reg *analysis.Registry) []*remote.Client {
	var out []*remote.Client
	for _, a := range reg.Analyzers() {
		if c, ok := a.(*remote.Client); ok {
			out = append(out, c)
		}
	}
	return out
}
