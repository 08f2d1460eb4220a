// Package openai implements [blueprint.Provider] for the OpenAI Chat
// Completions API and compatible endpoints.
//
// Requests are streamed with usage reporting enabled so the final chunk
// carries the token counts the pipeline prices.
package openai

const (
	defaultModel     = "gpt-4o"
	defaultMaxTokens = 16384
)
