package walker

import (
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// DefaultExcludes are directory names never descended into.
var DefaultExcludes = []string{
	".git",
	".hg",
	"node_modules",
	"vendor",
	"__pycache__",
	".mcporch",
	"dist",
	"build",
	"target",
	".venv",
	"venv",
	".idea",
	".vscode",
}

func shouldExcludeDir(name string) bool {
	for _, excl := range DefaultExcludes {
		if strings.EqualFold(name, excl) {
			return true
		}
	}
	return false
}

// MatchesInclude reports whether relPath matches any include pattern. An
// empty pattern list includes everything.
func MatchesInclude(relPath string, patterns []string) bool {
	if len(patterns) == 0 {
		return true
	}
	return matchesAny(relPath, patterns)
}

// MatchesExclude reports whether relPath matches any exclude pattern. An
// empty pattern list excludes nothing.
func MatchesExclude(relPath string, patterns []string) bool {
	if len(patterns) == 0 {
		return false
	}
	return matchesAny(relPath, patterns)
}

// matchesAny tries each doublestar pattern against the slash path and
// against its base name, so "*.py" matches at any depth.
func matchesAny(relPath string, patterns []string) bool {
	normalized := filepath.ToSlash(relPath)
	base := filepath.Base(normalized)
	for _, pattern := range patterns {
		pattern = filepath.ToSlash(pattern)
		if ok, err := doublestar.Match(pattern, normalized); err == nil && ok {
			return true
		}
		if ok, err := doublestar.Match(pattern, base); err == nil && ok {
			return true
		}
	}
	return false
}

// IsTestFile reports whether a path looks like an existing test file.
func IsTestFile(relPath string) bool {
	slash := strings.ToLower(filepath.ToSlash(relPath))
	name := filepath.Base(slash)

	switch {
	case strings.HasSuffix(name, "_test.go"),
		strings.HasPrefix(name, "test_") && strings.HasSuffix(name, ".py"),
		strings.HasSuffix(name, "_test.py"),
		strings.HasSuffix(name, "test.java"), strings.HasSuffix(name, "tests.java"):
		return true
	}
	for _, marker := range []string{".test.", ".spec."} {
		if strings.Contains(name, marker) {
			return true
		}
	}
	return strings.HasPrefix(slash, "test/") || strings.HasPrefix(slash, "tests/") ||
		strings.Contains(slash, "/test/") || strings.Contains(slash, "/tests/") ||
		strings.Contains(slash, "/__tests__/") || strings.HasPrefix(slash, "__tests__/")
}
