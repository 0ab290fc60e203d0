package graph

import (
	"errors"
	"fmt"
	"sort"
)

// Builder assembles a [Graph]. Nodes and edges are added incrementally and
// [Builder.Compile] performs full structural validation.
//
// Each builder method returns an error immediately when its own contract is
// violated (duplicate node, unknown source node, ...). The failure is also
// remembered and reported again by Compile, so a graph built while ignoring
// those errors can never run partially validated.
//
// Edge targets are resolved lazily at compile time: an edge may reference
// [END] or a node that is added later.
//
// Example:
//
//	builder := graph.NewBuilder(schema, graph.WithName("calculator"))
//	_ = builder.AddNode("agent", callModel, graph.Reads("messages"), graph.Writes("messages"))
//	_ = builder.AddNode("tool", callTool, graph.Reads("messages"), graph.Writes("messages"))
//	_ = builder.AddConditionalEdge("agent", routeModel, map[string]string{
//	    "call_tool": "tool",
//	    "end":       graph.END,
//	}, graph.RouterReads("messages"))
//	_ = builder.AddEdge("tool", "agent")
//	_ = builder.SetEntry("agent")
//	compiled, err := builder.Compile()
type Builder struct {
	// schema declares the state fields and their merge policies.
	schema *Schema

	// config holds the graph-level configuration populated from Options.
	config graphConfig

	// nodes stores all registered nodes keyed by their name.
	nodes map[string]*node

	// nodeOrder preserves registration order for deterministic diagnostics.
	nodeOrder []string

	// edges stores the single outgoing edge of each source node.
	edges map[string]*edge

	// entry is the node every run starts from.
	entry string

	// finish is the set of nodes allowed to end a run.
	finish map[string]bool

	// buildErrors accumulates failed builder calls, reported by Compile.
	buildErrors []error
}

// NewBuilder creates a builder for a graph over the given schema.
// Graph-level options (WithName, WithObserver, WithDefaultMaxActivations)
// are applied here.
func NewBuilder(schema *Schema, opts ...Option) *Builder {
	config := graphConfig{maxActivations: DefaultMaxActivations}
	for _, opt := range opts {
		opt(&config)
	}

	return &Builder{
		schema: schema,
		config: config,
		nodes:  make(map[string]*node),
		edges:  make(map[string]*edge),
		finish: make(map[string]bool),
	}
}

// AddNode registers a step function under a unique name. Node options
// declare the fields the step reads and writes.
//
// It returns a [*DuplicateNodeError] if the name is already registered, and
// a plain error for an empty or reserved name or a nil step.
func (builder *Builder) AddNode(name string, step StepFunc, opts ...NodeOption) error {
	var err error
	switch {
	case name == "":
		err = errors.New("add_node: node name must not be empty")
	case name == END:
		err = fmt.Errorf("add_node: node name %q is reserved for the terminal marker", END)
	case step == nil:
		err = fmt.Errorf("add_node: step function must not be nil for node %q", name)
	default:
		if _, exists := builder.nodes[name]; exists {
			err = &DuplicateNodeError{Node: name}
		}
	}
	if err != nil {
		builder.buildErrors = append(builder.buildErrors, err)
		return err
	}

	graphNode := &node{name: name, step: step}
	for _, opt := range opts {
		opt(graphNode)
	}

	builder.nodes[name] = graphNode
	builder.nodeOrder = append(builder.nodeOrder, name)
	return nil
}

// AddEdge adds a static edge: after from completes, the run always continues
// with to, which may be [END] or a node registered later.
func (builder *Builder) AddEdge(from, to string) error {
	if err := builder.checkSource("add_edge", from); err != nil {
		return err
	}
	if to == "" {
		err := fmt.Errorf("add_edge: target of node %q must not be empty", from)
		builder.buildErrors = append(builder.buildErrors, err)
		return err
	}

	builder.edges[from] = &edge{from: from, to: to}
	return nil
}

// AddConditionalEdge adds a data-dependent edge: after from completes, router
// is invoked with the merged state and its key is looked up in targets.
// Targets may include [END]. A key returned at run time that is not in
// targets fails the run with [UnmappedRoutingKeyError].
//
// Example:
//
//	builder.AddConditionalEdge("classify", byLabel, map[string]string{
//	    "calculation": "calculate",
//	    "curiosity":   "answer",
//	    "unknown":     "apologize",
//	}, graph.RouterReads("label"), graph.WithFallbackKey("unknown"))
func (builder *Builder) AddConditionalEdge(from string, router RouterFunc, targets map[string]string, opts ...EdgeOption) error {
	if err := builder.checkSource("add_conditional_edge", from); err != nil {
		return err
	}

	var err error
	switch {
	case router == nil:
		err = fmt.Errorf("add_conditional_edge: router must not be nil for node %q", from)
	case len(targets) == 0:
		err = fmt.Errorf("add_conditional_edge: node %q needs at least one routing key", from)
	}
	if err != nil {
		builder.buildErrors = append(builder.buildErrors, err)
		return err
	}

	copied := make(map[string]string, len(targets))
	for key, target := range targets {
		copied[key] = target
	}

	graphEdge := &edge{from: from, router: router, targets: copied}
	for _, opt := range opts {
		opt(graphEdge)
	}

	builder.edges[from] = graphEdge
	return nil
}

// SetEntry designates the node every run starts from.
func (builder *Builder) SetEntry(name string) error {
	if _, exists := builder.nodes[name]; !exists {
		err := &UnknownNodeError{Node: name, Op: "set_entry"}
		builder.buildErrors = append(builder.buildErrors, err)
		return err
	}
	builder.entry = name
	return nil
}

// AddFinish marks nodes as finish points: when a finish node has no
// outgoing edge, the run ends successfully after it completes.
func (builder *Builder) AddFinish(names ...string) error {
	var errs []error
	for _, name := range names {
		if _, exists := builder.nodes[name]; !exists {
			err := &UnknownNodeError{Node: name, Op: "add_finish"}
			builder.buildErrors = append(builder.buildErrors, err)
			errs = append(errs, err)
			continue
		}
		builder.finish[name] = true
	}
	return errors.Join(errs...)
}

// checkSource validates the source node of a new edge.
func (builder *Builder) checkSource(op, from string) error {
	if _, exists := builder.nodes[from]; !exists {
		err := &UnknownNodeError{Node: from, Op: op}
		builder.buildErrors = append(builder.buildErrors, err)
		return err
	}
	if _, exists := builder.edges[from]; exists {
		err := fmt.Errorf("%s: node %q already has an outgoing edge", op, from)
		builder.buildErrors = append(builder.buildErrors, err)
		return err
	}
	return nil
}

// Compile validates the graph structure and produces an immutable [Graph].
// It checks, and reports together in a single [*ValidationError]:
//
//  1. Every error recorded by earlier builder calls
//  2. A schema is present and the entry node is set
//  3. Every edge target exists or is END
//  4. Every conditional edge with a fallback key maps it
//  5. Every field read or written by a node or router is declared
//  6. Every node reachable from the entry has an outgoing edge or is a
//     finish node
func (builder *Builder) Compile() (*Graph, error) {
	var violations []string
	for _, buildErr := range builder.buildErrors {
		violations = append(violations, buildErr.Error())
	}

	if builder.schema == nil {
		violations = append(violations, "graph has no state schema")
	}
	if len(builder.nodes) == 0 {
		violations = append(violations, "graph must contain at least one node")
	}
	if builder.entry == "" {
		violations = append(violations, "entry node is not set")
	}

	violations = append(violations, builder.validateEdges()...)
	violations = append(violations, builder.validateFields()...)
	violations = append(violations, builder.validateReachable()...)

	if len(violations) > 0 {
		sort.Strings(violations)
		return nil, &ValidationError{Violations: violations}
	}

	nodes := make(map[string]*node, len(builder.nodes))
	for name, graphNode := range builder.nodes {
		copied := *graphNode
		nodes[name] = &copied
	}
	edges := make(map[string]*edge, len(builder.edges))
	for from, graphEdge := range builder.edges {
		copied := *graphEdge
		edges[from] = &copied
	}
	finish := make(map[string]bool, len(builder.finish))
	for name := range builder.finish {
		finish[name] = true
	}

	return &Graph{
		schema:    builder.schema,
		nodes:     nodes,
		nodeOrder: append([]string(nil), builder.nodeOrder...),
		edges:     edges,
		entry:     builder.entry,
		finish:    finish,
		config:    builder.config,
	}, nil
}

// validateEdges checks that every edge target is a registered node or END,
// and that declared fallback keys are mapped.
func (builder *Builder) validateEdges() []string {
	var violations []string

	for _, from := range builder.nodeOrder {
		graphEdge, exists := builder.edges[from]
		if !exists {
			continue
		}

		if !graphEdge.conditional() {
			if !builder.isTarget(graphEdge.to) {
				violations = append(violations, fmt.Sprintf("edge %q -> %q references unknown target node", from, graphEdge.to))
			}
			continue
		}

		for _, key := range graphEdge.sortedKeys() {
			target := graphEdge.targets[key]
			if !builder.isTarget(target) {
				violations = append(violations, fmt.Sprintf("conditional edge of %q maps key %q to unknown target node %q", from, key, target))
			}
		}

		if graphEdge.fallbackKey != "" {
			if _, mapped := graphEdge.targets[graphEdge.fallbackKey]; !mapped {
				violations = append(violations, fmt.Sprintf("conditional edge of %q does not map its fallback key %q", from, graphEdge.fallbackKey))
			}
		}
	}

	return violations
}

// validateFields checks that every field read or written by nodes and
// routers has a merge policy in the schema.
func (builder *Builder) validateFields() []string {
	if builder.schema == nil {
		return nil
	}

	var violations []string
	check := func(owner, access string, fields []string) {
		for _, field := range fields {
			if !builder.schema.Has(field) {
				violations = append(violations, fmt.Sprintf("%s %s field %q which has no merge policy", owner, access, field))
			}
		}
	}

	for _, name := range builder.nodeOrder {
		graphNode := builder.nodes[name]
		check(fmt.Sprintf("node %q", name), "reads", graphNode.reads)
		check(fmt.Sprintf("node %q", name), "writes", graphNode.writes)

		if graphEdge, exists := builder.edges[name]; exists && graphEdge.conditional() {
			check(fmt.Sprintf("router of %q", name), "reads", graphEdge.routerReads)
		}
	}

	return violations
}

// validateReachable walks the graph from the entry node and reports every
// reachable node that can neither route onward nor finish the run.
func (builder *Builder) validateReachable() []string {
	if _, exists := builder.nodes[builder.entry]; !exists {
		return nil
	}

	var violations []string
	visited := map[string]bool{builder.entry: true}
	queue := []string{builder.entry}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		graphEdge, hasEdge := builder.edges[current]
		if !hasEdge {
			if !builder.finish[current] {
				violations = append(violations, fmt.Sprintf("node %q is reachable but has no outgoing edge and is not a finish node", current))
			}
			continue
		}

		var successors []string
		if graphEdge.conditional() {
			for _, key := range graphEdge.sortedKeys() {
				successors = append(successors, graphEdge.targets[key])
			}
		} else {
			successors = []string{graphEdge.to}
		}

		for _, successor := range successors {
			if successor == END || visited[successor] {
				continue
			}
			if _, exists := builder.nodes[successor]; !exists {
				continue
			}
			visited[successor] = true
			queue = append(queue, successor)
		}
	}

	return violations
}

// isTarget reports whether name is a valid edge target.
func (builder *Builder) isTarget(name string) bool {
	if name == END {
		return true
	}
	_, exists := builder.nodes[name]
	return exists
}
