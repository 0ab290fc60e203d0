// Package graph implements a state-graph runtime for orchestrating multi-step
// agent workflows. A workflow is a directed graph of named nodes; each node is
// a step function that receives an immutable [State] snapshot and returns a
// partial [Update]. The executor merges every update into the state using the
// per-field merge policy declared in the graph's [Schema] and then follows the
// node's outgoing edge to the next node.
//
// Edges are either static (always go to the same target) or conditional: a
// [RouterFunc] inspects the post-merge state and returns a routing key that is
// looked up in a key-to-target mapping. Targets may be the terminal marker
// [END]. Cycles are allowed, which is what makes tool-calling loops possible;
// a Loop Guard bounds the number of node activations per run so that a cycle
// without a termination condition fails with [ErrLoopGuardExceeded] instead
// of running forever.
//
// The main entry points are [NewSchema] to declare the state fields,
// [NewBuilder] to assemble the graph, [Builder.Compile] to validate it and
// [Graph.Run] to execute it.
//
// Key features:
//   - Declared merge policies per field ([Replace], [Append])
//   - Static and conditional edges, forward references resolved at compile time
//   - Exhaustive compile-time validation reported as a single [ValidationError]
//   - Loop Guard with a configurable activation budget
//   - Typed run-time failures carrying the activation history
//   - Observability integration (spans, counters, histograms, structured logs)
//   - Immutable compiled graphs, safe for concurrent runs
//
// Example (single responder):
//
//	schema := graph.MustSchema(graph.Replace("input"), graph.Replace("output"))
//
//	builder := graph.NewBuilder(schema)
//	_ = builder.AddNode("respond", func(ctx context.Context, state graph.State) (graph.Update, error) {
//	    return graph.Update{"output": graph.Get[string](state, "input")}, nil
//	}, graph.Reads("input"), graph.Writes("output"))
//	_ = builder.SetEntry("respond")
//	_ = builder.AddFinish("respond")
//
//	compiled, err := builder.Compile()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	result, err := compiled.Invoke(ctx, map[string]any{"input": "x"})
//	fmt.Println(result.History) // [respond]
//
// Example (tool loop):
//
//	_ = builder.AddConditionalEdge("agent", routeModel, map[string]string{
//	    "call_tool": "tool",
//	    "end":       graph.END,
//	})
//	_ = builder.AddEdge("tool", "agent")
//
//	result, err := compiled.Run(ctx, initial, graph.WithMaxActivations(10))
//	var guard *graph.LoopGuardError
//	if errors.As(err, &guard) {
//	    fmt.Println("cycle did not terminate:", guard.History)
//	}
package graph
