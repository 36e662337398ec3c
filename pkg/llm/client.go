package llm

import (
	"context"
	"errors"
)

// ErrEmptyResponse is returned when a provider answers with no text
var ErrEmptyResponse = errors.New("llm returned an empty response")

// Client interface for LLM API interactions
type Client interface {
	// ChatCompletion sends a non-streaming chat completion request
	ChatCompletion(ctx context.Context, req ChatRequest) (*ChatResponse, error)
}
