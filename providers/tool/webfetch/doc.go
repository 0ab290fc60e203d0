// Package webfetch provides the "fetch_page" tool, which downloads a web page
// and converts its HTML to Markdown with html-to-markdown so a model can read
// it. Partial URLs such as "go.dev" are normalised to https.
package webfetch
