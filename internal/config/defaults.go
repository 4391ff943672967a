package config

import "github.com/ziadkadry99/mcporch/internal/flow"

// BuiltinLanguages are the tags with an in-process analyzer.
var BuiltinLanguages = []string{"go", "java", "javascript", "python", "typescript"}

// DefaultExcludes are glob patterns skipped by scan in addition to the
// directories the walker never enters.
var DefaultExcludes = []string{
	"**/*.min.js",
	"**/*.bundle.js",
	"**/*.pb.go",
	"**/*_generated.go",
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	analyzers := make(map[string]AnalyzerConfig, len(BuiltinLanguages))
	for _, lang := range BuiltinLanguages {
		analyzers[lang] = AnalyzerConfig{Mode: ModeBuiltin}
	}

	return &Config{
		TimeoutSeconds: 10,
		CacheCapacity:  10,
		Thresholds:     flow.DefaultThresholds(),
		Analyzers:      analyzers,
		Server: ServerConfig{
			Host: "127.0.0.1",
			Port: 8090,
		},
		AnalyzerService: ServiceConfig{
			Host: "127.0.0.1",
			Port: 8080,
		},
		History: HistoryConfig{
			Enabled: false,
			Path:    ".mcporch/history.db",
		},
		Scan: ScanConfig{
			Concurrency: 4,
			Include:     []string{"**"},
			Exclude:     append([]string{}, DefaultExcludes...),
			MaxFileSize: 1 << 20,
		},
	}
}
