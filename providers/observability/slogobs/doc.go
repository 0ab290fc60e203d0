// Package slogobs provides an observability.Provider backed by log/slog.
//
// Spans and metrics are rendered as debug log records, so a single terminal
// shows the whole life of a graph run: run start, every node activation,
// routing decisions and tool calls. The handler emits compact, pretty or
// JSON output; format and level default to AGENTGRAPH_LOG_FORMAT and
// AGENTGRAPH_LOG_LEVEL (falling back to LOG_FORMAT and LOG_LEVEL).
package slogobs
