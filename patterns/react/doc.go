// Package react implements the ReAct (Reasoning + Acting) agentic pattern as a
// cyclic graph on top of [graph]. The model alternates between reasoning steps
// and tool calls until it produces a final answer.
//
// The graph built by [New] has two nodes:
//
//	decide ──has_tool_request──▶ invoke-tool ──▶ decide
//	   └──────final──────▶ END
//
// The decide node sends the message history to an [ai.Provider] and appends
// the assistant reply to the "messages" field. The invoke-tool node runs every
// requested tool from a [tool.Catalog] and appends one tool message per call.
// Unknown tools, malformed arguments and tool failures are reported back to
// the model as [ai.ToolResult] errors in the history, so the run keeps going
// and the model can react to them. Runs are bounded by the graph's Loop Guard.
//
// The step and router constructors ([DecideStep], [InvokeToolsStep],
// [RouteToolRequests]) are exported so that other workflows can assemble the
// same loop under different node names and routing keys.
//
// Example:
//
//	agent, err := react.New(provider, tool.NewCatalogWithTools(calculator.NewSumTool()),
//	    react.WithSystemPrompt("Você é um assistente útil."),
//	    react.WithMaxActivations(10),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	result, err := agent.Invoke(ctx, react.Input("Quanto é 15.5 + 42?"))
//	answer, _ := react.FinalAnswer(result.State)
package react
