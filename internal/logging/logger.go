package logging

import (
	"io"
	"log/slog"
)

// New creates a process logger with JSON output. Commands pass stderr
// because stdout carries the value Zabbix reads.
func New(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
}
