// Package ai defines the provider-agnostic chat types shared by the LLM
// providers (openai, gemini) and by the agent nodes that call them.
//
// [Provider] performs one synchronous chat completion. Requests carry the
// conversation as [Message] values and the callable tools as
// [ToolDescription] values; responses may contain [ToolCall] requests, which
// agent loops answer with [NewToolMessage].
package ai
