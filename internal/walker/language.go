package walker

import (
	"path/filepath"
	"strings"
)

// extensionToLanguage maps file extensions to analyzer language tags.
var extensionToLanguage = map[string]string{
	".go":   "go",
	".py":   "python",
	".pyi":  "python",
	".ts":   "typescript",
	".tsx":  "typescript",
	".mts":  "typescript",
	".cts":  "typescript",
	".js":   "javascript",
	".jsx":  "javascript",
	".mjs":  "javascript",
	".cjs":  "javascript",
	".java": "java",
}

// DetectLanguage returns the analyzer language tag for a file name, or ""
// when no analyzer handles it. Declaration files (.d.ts) carry no bodies and
// are not analyzed.
func DetectLanguage(filename string) string {
	base := strings.ToLower(filepath.Base(filename))
	if strings.HasSuffix(base, ".d.ts") {
		return ""
	}
	return extensionToLanguage[filepath.Ext(base)]
}
