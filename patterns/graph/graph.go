package graph

import (
	"context"
	"sort"
)

// END is the reserved terminal marker. An edge that targets END finishes the
// run successfully. No node may be registered under this name.
const END = "__end__"

// DefaultMaxActivations is the Loop Guard budget applied when neither the
// graph nor the run specifies one.
const DefaultMaxActivations = 25

// StepFunc is the processing logic of a node. It receives the current state
// snapshot and returns the partial update to merge into it. Returning an
// error aborts the run with a [NodeExecutionError]; failures a workflow can
// recover from (a tool given malformed arguments, for instance) should be
// turned into a regular update by the step itself.
//
// The context carries cancellation and any deadline the caller applied
// around the run; steps that block on I/O should honour it.
type StepFunc func(ctx context.Context, state State) (Update, error)

// RouterFunc selects the outgoing branch of a conditional edge. It receives
// the state after the source node's update has been merged and returns a
// routing key that must be present in the edge's mapping.
type RouterFunc func(ctx context.Context, state State) string

// node is a registered processing step. Created by [Builder.AddNode].
type node struct {
	// name is the unique identifier of the node within the graph.
	name string

	// step contains the processing logic of the node.
	step StepFunc

	// reads lists the state fields the step consumes.
	reads []string

	// writes lists the state fields the step may produce.
	writes []string
}

// edge is the single outgoing routing rule of a node. Exactly one of to or
// router is set.
type edge struct {
	// from is the source node.
	from string

	// to is the static target (a node name or END).
	to string

	// router picks a key at run time; nil for static edges.
	router RouterFunc

	// targets maps routing keys to node names or END.
	targets map[string]string

	// routerReads lists the state fields the router consumes.
	routerReads []string

	// fallbackKey is the key the router returns when nothing else matches.
	// When set, targets must contain it.
	fallbackKey string
}

func (graphEdge *edge) conditional() bool {
	return graphEdge.router != nil
}

// sortedKeys returns the routing keys of a conditional edge in sorted order.
func (graphEdge *edge) sortedKeys() []string {
	keys := make([]string, 0, len(graphEdge.targets))
	for key := range graphEdge.targets {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// graphConfig holds graph-level configuration populated by Options.
type graphConfig struct {
	// maxActivations is the default Loop Guard budget of every run.
	maxActivations int

	// observer receives spans, metrics and logs. Nil disables observability.
	observer observerProvider

	// name labels the graph in logs and metrics.
	name string
}

// Graph is a compiled, validated and immutable workflow. It is produced by
// [Builder.Compile] and carries no run-local state, so concurrent calls to
// [Graph.Run] are safe.
type Graph struct {
	schema    *Schema
	nodes     map[string]*node
	nodeOrder []string
	edges     map[string]*edge
	entry     string
	finish    map[string]bool
	config    graphConfig
}

// Name returns the graph's label (see [WithName]).
func (graph *Graph) Name() string {
	return graph.config.name
}

// Schema returns the state schema of the graph.
func (graph *Graph) Schema() *Schema {
	return graph.schema
}

// Entry returns the entry node name.
func (graph *Graph) Entry() string {
	return graph.entry
}

// TopologyEdge describes one routing rule in a [Topology]. Conditional edges
// are flattened to one TopologyEdge per routing key.
type TopologyEdge struct {
	From        string
	To          string
	Key         string
	Conditional bool
}

// Topology is a read-only description of a compiled graph, used for
// diagnostics and diagram rendering.
type Topology struct {
	Name   string
	Entry  string
	Finish []string
	Nodes  []string
	Edges  []TopologyEdge
}

// Topology returns a description of the graph's structure. Nodes are listed
// in registration order; finish nodes without an outgoing edge get an
// implicit edge to END.
func (graph *Graph) Topology() Topology {
	topology := Topology{
		Name:  graph.config.name,
		Entry: graph.entry,
		Nodes: append([]string(nil), graph.nodeOrder...),
	}

	for _, nodeName := range graph.nodeOrder {
		if graph.finish[nodeName] {
			topology.Finish = append(topology.Finish, nodeName)
		}

		graphEdge, hasEdge := graph.edges[nodeName]
		switch {
		case !hasEdge:
			if graph.finish[nodeName] {
				topology.Edges = append(topology.Edges, TopologyEdge{From: nodeName, To: END})
			}
		case graphEdge.conditional():
			for _, key := range graphEdge.sortedKeys() {
				topology.Edges = append(topology.Edges, TopologyEdge{
					From:        nodeName,
					To:          graphEdge.targets[key],
					Key:         key,
					Conditional: true,
				})
			}
		default:
			topology.Edges = append(topology.Edges, TopologyEdge{From: nodeName, To: graphEdge.to})
		}
	}

	return topology
}
