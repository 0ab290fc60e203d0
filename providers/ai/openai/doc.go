// Package openai implements [ai.Provider] over the OpenAI Chat Completions
// API (/v1/chat/completions). Any endpoint speaking the same protocol can be
// targeted with WithBaseURL or OPENAI_BASE_URL.
package openai
