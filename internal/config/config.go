// Package config loads mcporch settings from .mcporch.yml and MCPORCH_*
// environment variables.
package config

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	yamlv3 "gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "MCPORCH_"

// Load reads configuration from the given YAML file, then overlays
// environment variable overrides. A double underscore separates nesting
// levels: MCPORCH_SERVER__PORT sets server.port.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	// Start from defaults.
	cfg := DefaultConfig()

	// Load YAML file if it exists.
	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("accessing config %s: %w", path, err)
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("loading env overrides: %w", err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	return cfg, nil
}

func envKey(s string) string {
	key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(key, "__", ".")
}

// Save writes the configuration to the given YAML file path.
func (c *Config) Save(path string) error {
	data, err := yamlv3.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

var validModes = map[AnalyzerMode]bool{
	ModeBuiltin: true,
	ModeRemote:  true,
	ModeExec:    true,
}

// Validate checks that the configuration contains valid values.
func (c *Config) Validate() error {
	if c.TimeoutSeconds <= 0 {
		return fmt.Errorf("timeout_seconds must be positive")
	}
	if c.CacheCapacity <= 0 {
		return fmt.Errorf("cache_capacity must be positive")
	}
	if c.Thresholds.Complexity <= 0 || c.Thresholds.Branches <= 0 {
		return fmt.Errorf("thresholds must be positive")
	}

	langs := make([]string, 0, len(c.Analyzers))
	for lang := range c.Analyzers {
		langs = append(langs, lang)
	}
	sort.Strings(langs)
	for _, lang := range langs {
		ac := c.Analyzers[lang]
		if ac.Mode == "" {
			continue
		}
		if !validModes[ac.Mode] {
			return fmt.Errorf("analyzers.%s: invalid mode %q: must be one of builtin, remote, exec", lang, ac.Mode)
		}
		if ac.Mode == ModeRemote && ac.Endpoint == "" {
			return fmt.Errorf("analyzers.%s: remote mode requires an endpoint", lang)
		}
		if ac.Mode == ModeExec && len(ac.Command) == 0 {
			return fmt.Errorf("analyzers.%s: exec mode requires a command", lang)
		}
	}

	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	if c.AnalyzerService.Port < 0 || c.AnalyzerService.Port > 65535 {
		return fmt.Errorf("analyzer_service.port %d out of range", c.AnalyzerService.Port)
	}
	if c.History.Enabled && c.History.Path == "" {
		return fmt.Errorf("history.path is required when history is enabled")
	}
	if c.Scan.Concurrency < 0 {
		return fmt.Errorf("scan.concurrency must be non-negative")
	}

	return nil
}
