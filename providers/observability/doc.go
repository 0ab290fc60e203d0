// Package observability defines the tracing, metrics and structured logging
// interfaces shared by graph runs, LLM providers and tools.
//
// [Provider] composes [Tracer], [Metrics] and [Logger] into a single
// injectable dependency. A graph run attaches its provider and its active
// [Span] to the context handed to every step function, so steps can log
// through the same provider with [ObserverFromContext] and [SpanFromContext].
//
// semconv.go holds the attribute keys, span names and metric names used
// across the module.
package observability
