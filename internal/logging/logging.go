// Package logging builds the slog loggers used by the entropy command and the
// trial packages.
package logging

import (
	"io"
	"log/slog"
	"os"
)

// New returns the logger for a run at the given level. Diagnostics go to
// Stderr; Stdout carries the bit stream, prompts and trial summaries.
func New(level slog.Level) *slog.Logger {
	return NewWriter(os.Stderr, level)
}

// NewWriter returns a text logger on w. Attributes logged under "error" are
// written as "err".
func NewWriter(w io.Writer, level slog.Level) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level, ReplaceAttr: shortErrKey}
	return slog.New(slog.NewTextHandler(w, opts))
}

func shortErrKey(_ []string, a slog.Attr) slog.Attr {
	if a.Key == "error" {
		a.Key = "err"
	}
	return a
}

// NewNop is used by trials and runners built without a Logger.
func NewNop() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// OrNop returns l, or a no-op logger when l is nil.
func OrNop(l *slog.Logger) *slog.Logger {
	if l == nil {
		return NewNop()
	}
	return l
}
