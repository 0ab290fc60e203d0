package slogobs

import (
	"log/slog"
	"os"
	"strings"
)

// Format represents the output format for logs.
type Format string

const (
	// FormatCompact is a single-line format with JSON attributes (default).
	// Example: 2026-03-04 10:40:35 DEBUG node activation started → {"graph.node.name":"classify"}
	FormatCompact Format = "compact"

	// FormatPretty is a multi-line format with one attribute per line.
	FormatPretty Format = "pretty"

	// FormatJSON is one JSON object per record, for log aggregation.
	FormatJSON Format = "json"
)

// LevelTrace sits below slog.LevelDebug and is filtered out unless enabled.
const LevelTrace = slog.LevelDebug - 4

// ParseFormat parses a format name. Unknown values yield FormatCompact.
func ParseFormat(s string) Format {
	switch strings.TrimSpace(strings.ToLower(s)) {
	case "pretty":
		return FormatPretty
	case "json":
		return FormatJSON
	default:
		return FormatCompact
	}
}

// ParseLogLevel parses a level name case-insensitively. Unknown values
// yield slog.LevelInfo.
func ParseLogLevel(s string) slog.Level {
	switch strings.TrimSpace(strings.ToUpper(s)) {
	case "TRACE":
		return LevelTrace
	case "DEBUG":
		return slog.LevelDebug
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// GetFormatFromEnv reads AGENTGRAPH_LOG_FORMAT, then LOG_FORMAT.
func GetFormatFromEnv() Format {
	return ParseFormat(firstEnv("AGENTGRAPH_LOG_FORMAT", "LOG_FORMAT"))
}

// GetLogLevelFromEnv reads AGENTGRAPH_LOG_LEVEL, then LOG_LEVEL.
func GetLogLevelFromEnv() slog.Level {
	return ParseLogLevel(firstEnv("AGENTGRAPH_LOG_LEVEL", "LOG_LEVEL"))
}

func firstEnv(keys ...string) string {
	for _, key := range keys {
		if value := os.Getenv(key); value != "" {
			return value
		}
	}
	return ""
}

// String returns the string representation of the Format.
func (f Format) String() string {
	return string(f)
}
