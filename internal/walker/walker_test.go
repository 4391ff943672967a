package walker

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return root
}

func relPaths(files []File) []string {
	out := make([]string, 0, len(files))
	for _, f := range files {
		out = append(out, f.RelPath)
	}
	return out
}

func sampleTree(t *testing.T) string {
	return writeTree(t, map[string]string{
		"main.go":                  "package main\n",
		"main_test.go":             "package main\n",
		"app/util.py":              "def f():\n    pass\n",
		"app/test_util.py":         "def test_f():\n    pass\n",
		"web/index.js":             "function a() {}\n",
		"web/index.test.js":        "test('a', () => {})\n",
		"web/types.d.ts":           "declare const x: number;\n",
		"web/app.ts":               "export function b() {}\n",
		"src/Main.java":            "class Main {}\n",
		"README.md":                "# readme\n",
		"node_modules/dep/lib.js":  "function dep() {}\n",
		"generated/out.py":         "x = 1\n",
		".gitignore":               "generated/\n# comment\n",
		"bin/blob.py":              "a\x00b",
	})
}

func TestWalkSelectsAnalyzableSources(t *testing.T) {
	files, err := Walk(context.Background(), Config{RootDir: sampleTree(t)})
	require.NoError(t, err)

	assert.Equal(t, []string{"app/util.py", "main.go", "src/Main.java", "web/app.ts", "web/index.js"}, relPaths(files))
	for _, f := range files {
		assert.NotEmpty(t, f.Language)
		assert.True(t, filepath.IsAbs(f.Path))
		assert.Positive(t, f.Size)
	}
}

func TestWalkIncludeTests(t *testing.T) {
	files, err := Walk(context.Background(), Config{RootDir: sampleTree(t), IncludeTests: true})
	require.NoError(t, err)

	paths := relPaths(files)
	assert.Contains(t, paths, "main_test.go")
	assert.Contains(t, paths, "app/test_util.py")
	assert.Contains(t, paths, "web/index.test.js")
}

func TestWalkLanguageFilter(t *testing.T) {
	files, err := Walk(context.Background(), Config{RootDir: sampleTree(t), Languages: []string{"Python", "go"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"app/util.py", "main.go"}, relPaths(files))
}

func TestWalkIncludeExclude(t *testing.T) {
	root := sampleTree(t)

	files, err := Walk(context.Background(), Config{RootDir: root, Include: []string{"web/**"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"web/app.ts", "web/index.js"}, relPaths(files))

	files, err = Walk(context.Background(), Config{RootDir: root, Exclude: []string{"*.js", "src/**"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"app/util.py", "main.go", "web/app.ts"}, relPaths(files))
}

func TestWalkSkipsLargeFiles(t *testing.T) {
	root := writeTree(t, map[string]string{"big.py": "x = 1\n# padding past the limit\n"})

	files, err := Walk(context.Background(), Config{RootDir: root, MaxFileSize: 8})
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestWalkCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Walk(ctx, Config{RootDir: sampleTree(t)})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestWalkRejectsFile(t *testing.T) {
	root := writeTree(t, map[string]string{"a.py": "x = 1\n"})
	_, err := Walk(context.Background(), Config{RootDir: filepath.Join(root, "a.py")})
	assert.Error(t, err)
}

func TestDetectLanguage(t *testing.T) {
	tests := map[string]string{
		"a.py":        "python",
		"A.JAVA":      "java",
		"x/y/z.tsx":   "typescript",
		"lib.mjs":     "javascript",
		"main.go":     "go",
		"types.d.ts":  "",
		"Makefile":    "",
		"style.css":   "",
	}
	for name, want := range tests {
		assert.Equal(t, want, DetectLanguage(name), name)
	}
}

func TestIsTestFile(t *testing.T) {
	for _, p := range []string{"a_test.go", "test_a.py", "a_test.py", "FooTest.java", "a.spec.ts", "tests/x.py", "pkg/__tests__/a.js"} {
		assert.True(t, IsTestFile(p), p)
	}
	for _, p := range []string{"main.go", "contest.py", "src/Main.java", "latest/x.js"} {
		assert.False(t, IsTestFile(p), p)
	}
}

func TestMatchesIncludeExclude(t *testing.T) {
	assert.True(t, MatchesInclude("a/b/c.py", nil))
	assert.True(t, MatchesInclude("a/b/c.py", []string{"**/*.py"}))
	assert.True(t, MatchesInclude("a/b/c.py", []string{"*.py"}))
	assert.False(t, MatchesInclude("a/b/c.py", []string{"*.go"}))
	assert.False(t, MatchesExclude("a/b/c.py", nil))
	assert.True(t, MatchesExclude("vendor/x.go", []string{"vendor/**"}))
}
