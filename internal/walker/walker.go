package walker

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// DefaultMaxFileSize is the largest file analyzed (1 MB).
const DefaultMaxFileSize int64 = 1 << 20

// File is one source file selected for analysis.
type File struct {
	Path     string `json:"path"`
	RelPath  string `json:"rel_path"`
	Size     int64  `json:"size"`
	Language string `json:"language"`
}

// Config controls which files Walk returns.
type Config struct {
	RootDir     string
	Include     []string
	Exclude     []string
	MaxFileSize int64
	// Languages restricts results to these analyzer tags; empty allows every
	// language DetectLanguage knows.
	Languages []string
	// IncludeTests keeps files that look like existing tests.
	IncludeTests bool
}

// Walk returns the analyzable source files under cfg.RootDir in lexical
// order. It honours the root .gitignore, skips binary and oversized files and
// stops early when ctx is cancelled.
func Walk(ctx context.Context, cfg Config) ([]File, error) {
	root, err := filepath.Abs(cfg.RootDir)
	if err != nil {
		return nil, fmt.Errorf("walker: resolve root: %w", err)
	}
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("walker: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("walker: %s is not a directory", root)
	}

	maxSize := cfg.MaxFileSize
	if maxSize <= 0 {
		maxSize = DefaultMaxFileSize
	}
	allowed := make(map[string]bool, len(cfg.Languages))
	for _, l := range cfg.Languages {
		allowed[strings.ToLower(strings.TrimSpace(l))] = true
	}
	ignored := loadGitignore(filepath.Join(root, ".gitignore"))

	var files []File
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if walkErr != nil {
			return nil
		}
		if d.IsDir() {
			if path != root && shouldExcludeDir(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)

		lang := DetectLanguage(d.Name())
		switch {
		case lang == "":
			return nil
		case len(allowed) > 0 && !allowed[lang]:
			return nil
		case matchesGitignore(rel, ignored):
			return nil
		case !MatchesInclude(rel, cfg.Include), MatchesExclude(rel, cfg.Exclude):
			return nil
		case !cfg.IncludeTests && IsTestFile(rel):
			return nil
		}

		fi, err := d.Info()
		if err != nil || fi.Size() > maxSize || isBinary(path) {
			return nil
		}

		files = append(files, File{Path: path, RelPath: rel, Size: fi.Size(), Language: lang})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walker: traversal: %w", err)
	}
	return files, nil
}

// isBinary reports a NUL byte in the first 512 bytes.
func isBinary(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return true
	}
	defer f.Close()

	buf := make([]byte, 512)
	n, err := f.Read(buf)
	if err != nil && err != io.EOF {
		return true
	}
	for _, b := range buf[:n] {
		if b == 0 {
			return true
		}
	}
	return false
}

// loadGitignore returns the non-empty, non-comment lines of a .gitignore.
func loadGitignore(path string) []string {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	var patterns []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "!") {
			continue
		}
		patterns = append(patterns, line)
	}
	return patterns
}

// matchesGitignore applies slash-free patterns to every path component and
// anchored patterns to the whole relative path.
func matchesGitignore(rel string, patterns []string) bool {
	parts := strings.Split(rel, "/")
	for _, pattern := range patterns {
		pattern = strings.TrimPrefix(strings.TrimSuffix(pattern, "/"), "/")
		if !strings.Contains(pattern, "/") {
			for _, part := range parts {
				if ok, _ := filepath.Match(pattern, part); ok {
					return true
				}
			}
			continue
		}
		if MatchesInclude(rel, []string{pattern, pattern + "/**"}) {
			return true
		}
	}
	return false
}
