// Package llm provides clients for the external reasoning service.
package llm

import (
	"context"
)

// GenerateResponseResult is the outcome of one chat completion exchange.
type GenerateResponseResult struct {
	Content          string
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// LLMClient is the interface for one-shot reasoning exchanges. Use this
// interface for dependency injection to enable mocking in tests.
type LLMClient interface {
	// GenerateResponse performs one chat completion with the given system
	// and user messages.
	GenerateResponse(ctx context.Context, prompt string, systemMessage string, temperature float64) (*GenerateResponseResult, error)

	// GetModel returns the configured model name.
	GetModel() string
}

// Ensure implementations satisfy LLMClient at compile time.
var (
	_ LLMClient = (*Client)(nil)
	_ LLMClient = (*AnthropicClient)(nil)
	_ LLMClient = (*MockLLMClient)(nil)
)
