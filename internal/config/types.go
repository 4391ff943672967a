package config

import (
	"time"

	"github.com/ziadkadry99/mcporch/internal/flow"
)

// DefaultPath is the config file read when --config is not given.
const DefaultPath = ".mcporch.yml"

// AnalyzerMode selects how a language is analyzed.
type AnalyzerMode string

const (
	// ModeBuiltin uses the in-process analyzer.
	ModeBuiltin AnalyzerMode = "builtin"
	// ModeRemote posts source to an analyzer service over HTTP.
	ModeRemote AnalyzerMode = "remote"
	// ModeExec pipes source through an analyzer process.
	ModeExec AnalyzerMode = "exec"
)

// Config is the top-level mcporch configuration, corresponding to .mcporch.yml.
type Config struct {
	TimeoutSeconds  int                       `yaml:"timeout_seconds" koanf:"timeout_seconds"`
	CacheCapacity   int                       `yaml:"cache_capacity" koanf:"cache_capacity"`
	Thresholds      flow.Thresholds           `yaml:"thresholds" koanf:"thresholds"`
	Analyzers       map[string]AnalyzerConfig `yaml:"analyzers" koanf:"analyzers"`
	Server          ServerConfig              `yaml:"server" koanf:"server"`
	AnalyzerService ServiceConfig             `yaml:"analyzer_service" koanf:"analyzer_service"`
	History         HistoryConfig             `yaml:"history" koanf:"history"`
	Scan            ScanConfig                `yaml:"scan" koanf:"scan"`
}

// AnalyzerConfig routes one language tag.
type AnalyzerConfig struct {
	Mode     AnalyzerMode `yaml:"mode" koanf:"mode"`
	Endpoint string       `yaml:"endpoint,omitempty" koanf:"endpoint"`
	Command  []string     `yaml:"command,omitempty" koanf:"command"`
}

// ServerConfig holds settings for `mcporch server`.
type ServerConfig struct {
	Host     string `yaml:"host" koanf:"host"`
	Port     int    `yaml:"port" koanf:"port"`
	AllowAll bool   `yaml:"allow_all" koanf:"allow_all"`
}

// ServiceConfig holds settings for `mcporch analyzer-service`.
type ServiceConfig struct {
	Host string `yaml:"host" koanf:"host"`
	Port int    `yaml:"port" koanf:"port"`
}

// HistoryConfig controls run history recording.
type HistoryConfig struct {
	Enabled bool   `yaml:"enabled" koanf:"enabled"`
	Path    string `yaml:"path" koanf:"path"`
}

// ScanConfig holds settings for `mcporch scan`.
type ScanConfig struct {
	Concurrency  int      `yaml:"concurrency" koanf:"concurrency"`
	Include      []string `yaml:"include" koanf:"include"`
	Exclude      []string `yaml:"exclude" koanf:"exclude"`
	MaxFileSize  int64    `yaml:"max_file_size" koanf:"max_file_size"`
	IncludeTests bool     `yaml:"include_tests" koanf:"include_tests"`
}

// Timeout is the per-analysis time bound.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// Analyzer returns the routing for lang, builtin when unset.
func (c *Config) Analyzer(lang string) AnalyzerConfig {
	if ac, ok := c.Analyzers[lang]; ok && ac.Mode != "" {
		return ac
	}
	return AnalyzerConfig{Mode: ModeBuiltin}
}
