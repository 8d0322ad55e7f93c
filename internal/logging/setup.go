// Package logging configures slog handlers for the steploop CLI.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/charmbracelet/log"
)

// FormatText and FormatJSON are the supported log output formats.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// textLevel maps a level name to the charm log level, and reports whether
// timestamps should be included (debug output carries them, the quieter
// levels do not).
func textLevel(logLevel string) (log.Level, bool) {
	switch strings.ToLower(logLevel) {
	case "debug":
		return log.DebugLevel, true
	case "warn", "warning":
		return log.WarnLevel, false
	case "error":
		return log.ErrorLevel, false
	default:
		return log.InfoLevel, false
	}
}

// SetupHandlerText configures a text slog handler with the provided writer and log level
func SetupHandlerText(logLevel string, writer io.Writer) slog.Handler {
	if writer == nil {
		writer = os.Stderr
	}

	lvl, timestamps := textLevel(logLevel)
	return log.NewWithOptions(writer, log.Options{
		ReportTimestamp: timestamps,
		Level:           lvl,
	})
}

// SetupHandlerJSON configures a JSON slog handler with the provided writer and log level
func SetupHandlerJSON(logLevel string, writer io.Writer) slog.Handler {
	if writer == nil {
		writer = os.Stdout
	}

	var level slog.Level
	switch strings.ToLower(logLevel) {
	case "debug":
		level = slog.LevelDebug
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	return slog.NewJSONHandler(writer, &slog.HandlerOptions{Level: level})
}

// SetupHandler configures a slog handler for the given level and format,
// falling back to the text format when the format is unrecognized.
func SetupHandler(logLevel, format string, writer io.Writer) slog.Handler {
	if strings.ToLower(format) == FormatJSON {
		return SetupHandlerJSON(logLevel, writer)
	}
	return SetupHandlerText(logLevel, writer)
}

// SetupLogger configures the default logger based on provided log level and format
func SetupLogger(logLevel, format string) {
	handler := SetupHandler(logLevel, format, nil)
	slog.SetDefault(slog.New(handler))
}
