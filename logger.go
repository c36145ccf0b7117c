// SPDX-FileCopyrightText: 2025 2025 Lukas Heindl
//
// SPDX-License-Identifier: MIT

package main

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"
)

// setup the logging options. Logs always go to stderr, stdout belongs to the CGI program.
func setupLogger(format string, level string) *slog.Logger {
	return slog.New(newLogHandler(os.Stderr, format, level))
}

func newLogHandler(w io.Writer, format string, level string) slog.Handler {
	var handler slog.Handler

	var slevel = slog.LevelInfo
	switch strings.ToLower(level) {
	case "debug":
		slevel = slog.LevelDebug
	case "info":
		slevel = slog.LevelInfo
	case "warn":
		slevel = slog.LevelWarn
	case "error":
		slevel = slog.LevelError
	}

	switch strings.ToLower(format) {
	case "json":
		handler = slog.NewJSONHandler(w, &slog.HandlerOptions{
			Level: slevel,
		})
	case "text":
		fallthrough
	default:
		handler = tint.NewHandler(w, &tint.Options{
			Level:      slevel,
			TimeFormat: time.RFC3339,
			NoColor:    false,
		})
	}

	return handler
}
