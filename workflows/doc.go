// Package workflows assembles the ready-made agent workflows on top of
// [graph], [react] and [router]:
//
//   - [NewEcho]: one node copying input to output
//   - [NewResponder]: one node answering the input with a language model
//   - [NewClassifier]: keyword classification dispatching to calculation,
//     curiosity and error nodes
//   - [NewCalculator]: an explicit agent/tool loop with the sum tool
//   - [NewResearcher]: a ReAct agent with a web search tool
//
// Each constructor returns a compiled, immutable [graph.Graph] that can be
// run concurrently. Collaborators (LLM providers, tool catalogs) are passed
// in explicitly.
package workflows
