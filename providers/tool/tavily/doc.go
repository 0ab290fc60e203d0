// Package tavily provides the "search" web search tool backed by the Tavily
// Search API (https://docs.tavily.com). The API key is read from
// TAVILY_API_KEY unless set explicitly with [WithAPIKey].
//
// Every failure (missing key, empty query, transport or API errors) is
// reported to the model as a textual result, never as a Go error, so an
// agent loop can keep going without the search.
package tavily
