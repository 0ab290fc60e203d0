package slogobs

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func newTestLogger(format Format, level slog.Level) (*slog.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	handler := NewHandler(&HandlerOptions{Format: format, Level: level, Output: &buf})
	return slog.New(handler), &buf
}

func TestHandler_Compact(t *testing.T) {
	logger, buf := newTestLogger(FormatCompact, slog.LevelDebug)
	logger.Info("node activation completed", "graph.node.name", "classify", "graph.activations", 2)

	output := buf.String()
	if !strings.Contains(output, " INFO node activation completed → ") {
		t.Errorf("Expected level, message and separator, got: %s", output)
	}
	if !strings.Contains(output, `{"graph.activations":2,"graph.node.name":"classify"}`) {
		t.Errorf("Expected sorted JSON attributes, got: %s", output)
	}
	if strings.Count(output, "\n") != 1 {
		t.Errorf("Expected a single line, got: %q", output)
	}
}

func TestHandler_Pretty(t *testing.T) {
	logger, buf := newTestLogger(FormatPretty, slog.LevelDebug)
	logger.Warn("node activation failed", "b", 2, "a", 1)

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("Expected 3 lines, got %d: %q", len(lines), buf.String())
	}
	if !strings.Contains(lines[0], "WARN") || !strings.Contains(lines[0], "node activation failed") {
		t.Errorf("Unexpected header line: %s", lines[0])
	}
	if !strings.Contains(lines[1], "├─ a: 1") {
		t.Errorf("Expected first attribute branch, got: %s", lines[1])
	}
	if !strings.Contains(lines[2], "└─ b: 2") {
		t.Errorf("Expected last attribute branch, got: %s", lines[2])
	}
}

func TestHandler_JSON(t *testing.T) {
	logger, buf := newTestLogger(FormatJSON, slog.LevelDebug)
	logger.Error("graph run failed", "error", errors.New("boom"), "duration", 1500*time.Millisecond)

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("Output is not valid JSON: %v (%s)", err, buf.String())
	}
	if record["level"] != "ERROR" || record["msg"] != "graph run failed" {
		t.Errorf("Unexpected standard fields: %v", record)
	}
	if record["error"] != "boom" {
		t.Errorf("Expected error rendered as text, got %v", record["error"])
	}
	if record["duration"] != "1.5s" {
		t.Errorf("Expected duration rendered as text, got %v", record["duration"])
	}
}

func TestHandler_LevelFiltering(t *testing.T) {
	logger, buf := newTestLogger(FormatCompact, slog.LevelWarn)
	logger.Debug("hidden")
	logger.Info("hidden")
	logger.Warn("visible")

	if strings.Contains(buf.String(), "hidden") {
		t.Errorf("Records below the level should be filtered, got: %s", buf.String())
	}
	if !strings.Contains(buf.String(), "visible") {
		t.Errorf("Expected WARN record, got: %s", buf.String())
	}
}

func TestHandler_WithAttrsAndGroup(t *testing.T) {
	logger, buf := newTestLogger(FormatCompact, slog.LevelInfo)
	logger.With("graph.name", "calculator").WithGroup("tool").Info("called", "name", "sum")

	output := buf.String()
	if !strings.Contains(output, `"graph.name":"calculator"`) {
		t.Errorf("Expected handler attribute, got: %s", output)
	}
	if !strings.Contains(output, `"tool.name":"sum"`) {
		t.Errorf("Expected grouped attribute, got: %s", output)
	}
}

func TestHandler_Colors(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewHandler(&HandlerOptions{Format: FormatCompact, Output: &buf, Colors: true}))
	logger.Error("failed")

	if !strings.Contains(buf.String(), colorRed) || !strings.Contains(buf.String(), colorReset) {
		t.Errorf("Expected ANSI colors, got: %q", buf.String())
	}
}

func TestLevelString(t *testing.T) {
	tests := map[slog.Level]string{
		LevelTrace:      "TRACE",
		slog.LevelDebug: "DEBUG",
		slog.LevelInfo:  "INFO",
		slog.LevelWarn:  "WARN",
		slog.LevelError: "ERROR",
	}
	for level, want := range tests {
		if got := levelString(level); got != want {
			t.Errorf("levelString(%v) = %s, want %s", level, got, want)
		}
	}
}
