// Package logging builds the process logger. Output always goes to stderr;
// stdout carries MCP framing and analyzer results.
package logging

import (
	"io"
	"log/slog"
	"os"
)

// New returns a text logger on stderr at info level, or debug when verbose.
func New(verbose bool) *slog.Logger {
	return NewWithWriter(os.Stderr, verbose)
}

// NewWithWriter is New with an explicit destination.
func NewWithWriter(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}
