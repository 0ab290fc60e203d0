package graph

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// RunResult is the outcome of a successful run.
type RunResult struct {
	// RunID identifies the run in logs and metrics.
	RunID string

	// State is the final state after the last activation.
	State State

	// History lists the activated node names in order.
	History []string

	// Activations is the number of node activations, equal to len(History).
	Activations int

	// Duration is the wall-clock time of the whole run.
	Duration time.Duration
}

// run is the run-local record. It is created by Run and discarded when the
// run ends; the compiled graph itself is never mutated.
type run struct {
	id      string
	current string
	count   int
	limit   int
	history []string
	state   State
	obs     runObserver
}

// Run executes the graph synchronously from its entry node, starting with
// the given initial state, and returns the final state and the activation
// history.
//
// The execution proceeds as follows:
//  1. current = entry, state = initial, count = 0
//  2. If current is END, stop successfully
//  3. If count has reached the activation budget, fail with [LoopGuardError]
//  4. Invoke the node's step; a step error fails with [NodeExecutionError]
//  5. Merge the update per field policy, record the node in the history
//  6. Resolve the next node: static target, router key lookup on the merged
//     state ([UnmappedRoutingKeyError] when absent), or END for a finish
//     node without an outgoing edge
//  7. Repeat from step 2
//
// The executor never retries and imposes no timeout; a deadline or
// cancellation on ctx is observed between activations and reported as
// [CancelledError]. Every run-time error carries the history of the
// activations completed before the failure.
func (graph *Graph) Run(ctx context.Context, initial State, opts ...RunOption) (*RunResult, error) {
	config := runConfig{
		maxActivations: graph.config.maxActivations,
		observer:       graph.config.observer,
	}
	for _, opt := range opts {
		opt(&config)
	}
	if config.maxActivations <= 0 {
		config.maxActivations = DefaultMaxActivations
	}
	if config.runID == "" {
		config.runID = uuid.NewString()
	}

	if initial.schema == nil {
		initial = State{schema: graph.schema, values: map[string]any{}}
	}
	if initial.schema != graph.schema {
		return nil, errors.New("initial state was built with a different schema")
	}

	current := &run{
		id:      config.runID,
		current: graph.entry,
		limit:   config.maxActivations,
		history: make([]string, 0, 8),
		state:   initial,
		obs:     newRunObserver(config.observer, graph.config.name, config.runID),
	}

	start := time.Now()
	ctx = current.obs.runStarted(ctx, graph.entry, current.limit)

	if err := graph.drive(ctx, current); err != nil {
		current.obs.runFailed(ctx, err, current.snapshot(), time.Since(start))
		return nil, err
	}

	duration := time.Since(start)
	current.obs.runCompleted(ctx, current.history, duration)

	return &RunResult{
		RunID:       current.id,
		State:       current.state,
		History:     current.history,
		Activations: current.count,
		Duration:    duration,
	}, nil
}

// Invoke is a convenience wrapper around [Graph.Run] that builds the initial
// state from a plain map using the graph's schema.
func (graph *Graph) Invoke(ctx context.Context, values map[string]any, opts ...RunOption) (*RunResult, error) {
	initial, err := graph.schema.NewState(values)
	if err != nil {
		return nil, fmt.Errorf("build initial state: %w", err)
	}
	return graph.Run(ctx, initial, opts...)
}

// drive is the activation loop. It mutates only the run record.
func (graph *Graph) drive(ctx context.Context, current *run) error {
	for current.current != END {
		if err := ctx.Err(); err != nil {
			return &CancelledError{Cause: err, History: current.snapshot()}
		}

		if current.count >= current.limit {
			return &LoopGuardError{Limit: current.limit, Next: current.current, History: current.snapshot()}
		}

		graphNode := graph.nodes[current.current]
		nodeCtx, activation := current.obs.nodeStarted(ctx, graphNode.name, current.count+1)

		update, err := graph.invokeStep(nodeCtx, graphNode, current.state)
		if err != nil {
			activation.failed(nodeCtx, err)
			return &NodeExecutionError{Node: graphNode.name, Cause: err, History: current.snapshot()}
		}

		merged, err := current.state.Merge(update)
		if err != nil {
			activation.failed(nodeCtx, err)
			return &NodeExecutionError{Node: graphNode.name, Cause: err, History: current.snapshot()}
		}

		current.state = merged
		current.history = append(current.history, graphNode.name)
		current.count++

		next, err := graph.resolveNext(nodeCtx, current)
		if err != nil {
			activation.failed(nodeCtx, err)
			return err
		}

		activation.completed(nodeCtx, next)
		current.current = next
	}

	return nil
}

// invokeStep calls a node's step function, converting a panic into an error.
func (graph *Graph) invokeStep(ctx context.Context, graphNode *node, state State) (update Update, err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			err = fmt.Errorf("step panicked: %v", recovered)
		}
	}()
	return graphNode.step(ctx, state)
}

// invokeRouter calls a conditional edge's router, converting a panic into an
// error.
func (graph *Graph) invokeRouter(ctx context.Context, graphEdge *edge, state State) (key string, err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			err = fmt.Errorf("router panicked: %v", recovered)
		}
	}()
	return graphEdge.router(ctx, state), nil
}

// resolveNext determines the successor of the node that just completed.
func (graph *Graph) resolveNext(ctx context.Context, current *run) (string, error) {
	graphEdge, hasEdge := graph.edges[current.current]
	if !hasEdge {
		// Compile guarantees reachable nodes without an edge are finish nodes.
		return END, nil
	}

	if !graphEdge.conditional() {
		return graphEdge.to, nil
	}

	key, err := graph.invokeRouter(ctx, graphEdge, current.state)
	if err != nil {
		return "", &NodeExecutionError{Node: current.current, Cause: err, History: current.snapshot()}
	}
	target, mapped := graphEdge.targets[key]
	if !mapped {
		return "", &UnmappedRoutingKeyError{Node: current.current, Key: key, History: current.snapshot()}
	}
	current.obs.routed(ctx, current.current, key, target)
	return target, nil
}

// snapshot copies the history so errors do not alias the run record.
func (current *run) snapshot() []string {
	return append([]string(nil), current.history...)
}
