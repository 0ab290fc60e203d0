package observability

// Attribute keys, span names and metric names shared by the graph executor,
// the LLM providers, the tools and the vector connection. The graph package
// keeps its own graph.* keys next to the executor.

// LLM requests.
const (
	AttrLLMProvider         = "llm.provider"
	AttrLLMModel            = "llm.model"
	AttrLLMEndpoint         = "llm.endpoint"
	AttrLLMResponseID       = "llm.response.id"
	AttrLLMFinishReason     = "llm.finish_reason"
	AttrLLMTokensPrompt     = "llm.tokens.prompt"     // #nosec G101 -- LLM tokens, not credentials
	AttrLLMTokensCompletion = "llm.tokens.completion" // #nosec G101
	AttrLLMTokensTotal      = "llm.tokens.total"      // #nosec G101

	AttrRequestMessagesCount = "request.messages_count"
	AttrRequestToolsCount    = "request.tools_count"
)

// Tool calls. Input and output are truncated with [TruncateStringDefault].
const (
	AttrToolName   = "tool.name"
	AttrToolInput  = "tool.input"
	AttrToolOutput = "tool.output"
	AttrToolError  = "tool.error"
)

// Outbound HTTP.
const (
	AttrHTTPMethod     = "http.method"
	AttrHTTPStatusCode = "http.status_code"
	AttrHTTPURL        = "http.url"
)

// Vector database.
const (
	AttrVectorHost    = "vector.host"
	AttrVectorPort    = "vector.port"
	AttrVectorVersion = "vector.version"
)

// Common keys.
const (
	AttrError             = "error"
	AttrDuration          = "duration"
	AttrStatus            = "status"
	AttrStatusDescription = "status_description"
)

const (
	SpanLLMRequest    = "llm.request"
	SpanToolExecution = "tool.execution"
)

// Metric names. Counters are labelled with AttrStatus, LLM metrics also with
// AttrLLMModel and tool metrics with AttrToolName.
const (
	MetricLLMRequestCount    = "agentgraph.llm.request.count"
	MetricLLMRequestDuration = "agentgraph.llm.request.duration"
	MetricLLMTokensTotal     = "agentgraph.llm.tokens.total" // #nosec G101
	MetricToolCallCount      = "agentgraph.tool.call.count"
)
