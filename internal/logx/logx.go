// Package logx builds the leveled logger every sample writes to.
package logx

import (
	"io"
	"log/slog"
	"os"
)

// LevelFromFlags maps the -vv, -v and -q flags to a level. The most verbose
// flag wins; with none set only warnings and errors are shown.
func LevelFromFlags(veryVerbose, verbose, quiet bool) slog.Level {
	switch {
	case veryVerbose:
		return slog.LevelDebug
	case verbose:
		return slog.LevelInfo
	case quiet:
		return slog.LevelError
	default:
		return slog.LevelWarn
	}
}

// New returns a text logger writing to w, or stderr if w is nil.
func New(level slog.Level, w io.Writer) *slog.Logger {
	if w == nil {
		w = os.Stderr
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}
