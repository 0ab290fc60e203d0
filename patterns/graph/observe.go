package graph

import (
	"context"
	"time"

	"github.com/AndersonCRodrigues/langgraph-langsmith/providers/observability"
)

// Semantic conventions for graph observability attributes.
const (
	// spanGraphRun is the span name for a whole run.
	spanGraphRun = "graph.run"

	// spanGraphNodeActivate is the span name for one node activation.
	spanGraphNodeActivate = "graph.node.activate"

	// attrGraphName is the graph label set with WithName.
	attrGraphName = "graph.name"

	// attrGraphRunID identifies the run.
	attrGraphRunID = "graph.run.id"

	// attrGraphEntry is the entry node of the run.
	attrGraphEntry = "graph.entry"

	// attrGraphMaxActivations is the Loop Guard budget of the run.
	attrGraphMaxActivations = "graph.max_activations"

	// attrGraphActivations is the number of activations performed.
	attrGraphActivations = "graph.activations"

	// attrGraphHistory is the ordered list of activated nodes.
	attrGraphHistory = "graph.history"

	// attrGraphNodeName identifies the node.
	attrGraphNodeName = "graph.node.name"

	// attrGraphNodeActivation is the 1-based activation index within the run.
	attrGraphNodeActivation = "graph.node.activation"

	// attrGraphNodeStatus is "completed" or "failed".
	attrGraphNodeStatus = "graph.node.status"

	// attrGraphNodeNext is the resolved successor of a node.
	attrGraphNodeNext = "graph.node.next"

	// attrGraphRouteKey is the key returned by a router.
	attrGraphRouteKey = "graph.route.key"

	// metricGraphNodeDuration is the histogram of node activation durations.
	metricGraphNodeDuration = "agentgraph.graph.node.duration"

	// metricGraphNodeCount counts node activations by status.
	metricGraphNodeCount = "agentgraph.graph.node.count"

	// metricGraphRunDuration is the histogram of whole-run durations.
	metricGraphRunDuration = "agentgraph.graph.run.duration"

	// metricGraphRunCount counts runs by status.
	metricGraphRunCount = "agentgraph.graph.run.count"
)

// runObserver bundles the observability provider of one run. A nil provider
// makes every method a no-op.
type runObserver struct {
	provider observability.Provider
	base     []observability.Attribute
	rootSpan observability.Span
}

func newRunObserver(provider observability.Provider, graphName, runID string) runObserver {
	if provider == nil {
		return runObserver{}
	}
	return runObserver{
		provider: provider,
		base: []observability.Attribute{
			observability.String(attrGraphName, graphName),
			observability.String(attrGraphRunID, runID),
		},
	}
}

func (obs *runObserver) attrs(extra ...observability.Attribute) []observability.Attribute {
	attrs := make([]observability.Attribute, 0, len(obs.base)+len(extra))
	attrs = append(attrs, obs.base...)
	return append(attrs, extra...)
}

// runStarted opens the root span and returns the context carrying it.
func (obs *runObserver) runStarted(ctx context.Context, entry string, limit int) context.Context {
	if obs.provider == nil {
		return ctx
	}

	ctx, obs.rootSpan = obs.provider.StartSpan(ctx, spanGraphRun, obs.attrs(
		observability.String(attrGraphEntry, entry),
		observability.Int(attrGraphMaxActivations, limit),
	)...)
	ctx = observability.ContextWithSpan(ctx, obs.rootSpan)
	ctx = observability.ContextWithObserver(ctx, obs.provider)

	obs.provider.Debug(ctx, "graph run started", obs.attrs(
		observability.String(attrGraphEntry, entry),
		observability.Int(attrGraphMaxActivations, limit),
	)...)
	return ctx
}

func (obs *runObserver) runCompleted(ctx context.Context, history []string, duration time.Duration) {
	if obs.provider == nil {
		return
	}
	activations := len(history)

	obs.provider.Histogram(metricGraphRunDuration).Record(ctx, duration.Seconds(), obs.base[0])
	obs.provider.Counter(metricGraphRunCount).Add(ctx, 1, obs.base[0], observability.String(observability.AttrStatus, "completed"))
	obs.provider.Info(ctx, "graph run completed", obs.attrs(
		observability.Int(attrGraphActivations, activations),
		observability.StringSlice(attrGraphHistory, history),
		observability.Duration(observability.AttrDuration, duration),
	)...)

	obs.rootSpan.SetAttributes(observability.Int(attrGraphActivations, activations))
	obs.rootSpan.SetStatus(observability.StatusOK, "graph run completed")
	obs.rootSpan.End()
}

func (obs *runObserver) runFailed(ctx context.Context, runErr error, history []string, duration time.Duration) {
	if obs.provider == nil {
		return
	}
	activations := len(history)

	obs.provider.Histogram(metricGraphRunDuration).Record(ctx, duration.Seconds(), obs.base[0])
	obs.provider.Counter(metricGraphRunCount).Add(ctx, 1, obs.base[0], observability.String(observability.AttrStatus, "failed"))
	obs.provider.Error(ctx, "graph run failed", obs.attrs(
		observability.Error(runErr),
		observability.Int(attrGraphActivations, activations),
		observability.StringSlice(attrGraphHistory, history),
		observability.Duration(observability.AttrDuration, duration),
	)...)

	obs.rootSpan.RecordError(runErr)
	obs.rootSpan.SetStatus(observability.StatusError, "graph run failed")
	obs.rootSpan.End()
}

func (obs *runObserver) routed(ctx context.Context, nodeName, key, target string) {
	if obs.provider == nil {
		return
	}
	obs.provider.Debug(ctx, "conditional edge resolved", obs.attrs(
		observability.String(attrGraphNodeName, nodeName),
		observability.String(attrGraphRouteKey, key),
		observability.String(attrGraphNodeNext, target),
	)...)
}

// activation tracks the span and timing of one node activation.
type activation struct {
	obs   *runObserver
	node  string
	start time.Time
	span  observability.Span
}

// nodeStarted opens a child span for the activation.
func (obs *runObserver) nodeStarted(ctx context.Context, nodeName string, index int) (context.Context, *activation) {
	current := &activation{obs: obs, node: nodeName, start: time.Now()}
	if obs.provider == nil {
		return ctx, current
	}

	ctx, current.span = obs.provider.StartSpan(ctx, spanGraphNodeActivate, obs.attrs(
		observability.String(attrGraphNodeName, nodeName),
		observability.Int(attrGraphNodeActivation, index),
	)...)
	ctx = observability.ContextWithSpan(ctx, current.span)

	obs.provider.Debug(ctx, "node activation started", obs.attrs(
		observability.String(attrGraphNodeName, nodeName),
		observability.Int(attrGraphNodeActivation, index),
	)...)
	return ctx, current
}

func (current *activation) completed(ctx context.Context, next string) {
	obs := current.obs
	if obs.provider == nil {
		return
	}

	duration := time.Since(current.start)
	nodeAttr := observability.String(attrGraphNodeName, current.node)

	obs.provider.Histogram(metricGraphNodeDuration).Record(ctx, duration.Seconds(), nodeAttr)
	obs.provider.Counter(metricGraphNodeCount).Add(ctx, 1, nodeAttr,
		observability.String(attrGraphNodeStatus, "completed"))
	obs.provider.Debug(ctx, "node activation completed", obs.attrs(
		nodeAttr,
		observability.String(attrGraphNodeNext, next),
		observability.Duration(observability.AttrDuration, duration),
	)...)

	current.span.SetAttributes(observability.String(attrGraphNodeNext, next))
	current.span.SetStatus(observability.StatusOK, "node completed")
	current.span.End()
}

func (current *activation) failed(ctx context.Context, nodeErr error) {
	obs := current.obs
	if obs.provider == nil {
		return
	}

	duration := time.Since(current.start)
	nodeAttr := observability.String(attrGraphNodeName, current.node)

	obs.provider.Histogram(metricGraphNodeDuration).Record(ctx, duration.Seconds(), nodeAttr)
	obs.provider.Counter(metricGraphNodeCount).Add(ctx, 1, nodeAttr,
		observability.String(attrGraphNodeStatus, "failed"))
	obs.provider.Warn(ctx, "node activation failed", obs.attrs(
		nodeAttr,
		observability.Error(nodeErr),
		observability.Duration(observability.AttrDuration, duration),
	)...)

	current.span.RecordError(nodeErr)
	current.span.SetStatus(observability.StatusError, "node failed")
	current.span.End()
}
