// Package tool provides the types for defining tools that language models
// can invoke.
//
// A [Tool] wraps a typed Go function together with its name, description and
// a JSON schema reflected from the input type. [Catalog] is a thread-safe,
// case-insensitive registry that agent loops use to resolve tool calls by
// name.
//
// Subpackages provide ready-made tools: calculator, tavily (web search) and
// webfetch (page to Markdown).
package tool
