// Package utils provides small helpers shared by the LLM providers and tools:
// [DoPostSync] for JSON round-trips over HTTP, [ParseStringAs] for lenient
// parsing of model-produced arguments, [Ptr] and string truncation.
package utils
