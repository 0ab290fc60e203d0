package graph

import (
	"github.com/AndersonCRodrigues/langgraph-langsmith/providers/observability"
)

// observerProvider is the subset of observability the graph relies on.
type observerProvider = observability.Provider

// Option is a functional option for configuring Graph behavior.
// Options are applied by [NewBuilder] and carried into the compiled graph.
type Option func(*graphConfig)

// NodeOption is a functional option for configuring an individual node.
// Node options are applied via [Builder.AddNode].
type NodeOption func(*node)

// EdgeOption is a functional option for configuring a conditional edge.
// Edge options are applied via [Builder.AddConditionalEdge].
type EdgeOption func(*edge)

// RunOption is a functional option for a single [Graph.Run] invocation.
type RunOption func(*runConfig)

// runConfig is the per-run configuration resolved from RunOptions.
type runConfig struct {
	maxActivations int
	observer       observerProvider
	runID          string
}

// --- Graph Options ---

// WithName labels the graph in logs, spans and metrics.
func WithName(name string) Option {
	return func(config *graphConfig) {
		config.name = name
	}
}

// WithObserver attaches an observability provider to every run of the graph.
// A run-level [WithRunObserver] takes precedence.
func WithObserver(provider observability.Provider) Option {
	return func(config *graphConfig) {
		config.observer = provider
	}
}

// WithDefaultMaxActivations sets the Loop Guard budget used by runs that do
// not pass [WithMaxActivations]. Values <= 0 keep [DefaultMaxActivations].
func WithDefaultMaxActivations(limit int) Option {
	return func(config *graphConfig) {
		if limit > 0 {
			config.maxActivations = limit
		}
	}
}

// --- Node Options ---

// Reads declares the state fields a node consumes. Every listed field must
// be declared in the schema, otherwise [Builder.Compile] fails.
func Reads(fields ...string) NodeOption {
	return func(graphNode *node) {
		graphNode.reads = append(graphNode.reads, fields...)
	}
}

// Writes declares the state fields a node may return in its update. Every
// listed field must be declared in the schema.
func Writes(fields ...string) NodeOption {
	return func(graphNode *node) {
		graphNode.writes = append(graphNode.writes, fields...)
	}
}

// --- Edge Options ---

// RouterReads declares the state fields a router consumes.
func RouterReads(fields ...string) EdgeOption {
	return func(graphEdge *edge) {
		graphEdge.routerReads = append(graphEdge.routerReads, fields...)
	}
}

// WithFallbackKey declares the key the router returns when no category
// matches. The edge's mapping must contain it; omitting it is reported by
// [Builder.Compile].
func WithFallbackKey(key string) EdgeOption {
	return func(graphEdge *edge) {
		graphEdge.fallbackKey = key
	}
}

// --- Run Options ---

// WithMaxActivations sets the Loop Guard budget for one run: the run fails
// with [LoopGuardError] once this many nodes have been activated without
// reaching a terminal condition. Values <= 0 keep the graph default.
func WithMaxActivations(limit int) RunOption {
	return func(config *runConfig) {
		if limit > 0 {
			config.maxActivations = limit
		}
	}
}

// WithRunObserver overrides the graph's observability provider for one run.
func WithRunObserver(provider observability.Provider) RunOption {
	return func(config *runConfig) {
		config.observer = provider
	}
}

// WithRunID sets the identifier reported in [RunResult] and observability
// attributes. A random UUID is used when empty.
func WithRunID(runID string) RunOption {
	return func(config *runConfig) {
		config.runID = runID
	}
}
