package deepseek

import (
	"context"
	"sync"

	"github.com/themobileprof/healthtrack-be/pkg/llm"
)

// MockClient implements llm.Client for testing
type MockClient struct {
	mu sync.Mutex

	// ChatFunc allows customizing the completion behavior
	ChatFunc func(context.Context, llm.ChatRequest) (*llm.ChatResponse, error)

	// Tracking for assertions
	ChatCalls []llm.ChatRequest
}

var _ llm.Client = (*MockClient)(nil)

// NewMockClient creates a new mock client with default behavior
func NewMockClient() *MockClient {
	return &MockClient{
		ChatCalls: make([]llm.ChatRequest, 0),
	}
}

// NewMockReply creates a mock that always answers with content
func NewMockReply(content string) *MockClient {
	m := NewMockClient()
	m.ChatFunc = func(_ context.Context, req llm.ChatRequest) (*llm.ChatResponse, error) {
		return Reply(req.Model, content), nil
	}
	return m
}

// ChatCompletion implements llm.Client.ChatCompletion
func (m *MockClient) ChatCompletion(ctx context.Context, req llm.ChatRequest) (*llm.ChatResponse, error) {
	m.mu.Lock()
	m.ChatCalls = append(m.ChatCalls, req)
	m.mu.Unlock()

	if m.ChatFunc != nil {
		return m.ChatFunc(ctx, req)
	}

	return Reply(req.Model, "This is a mock response."), nil
}

// Reply builds a single-choice response
func Reply(model, content string) *llm.ChatResponse {
	return &llm.ChatResponse{
		ID:      "mock-response-1",
		Object:  "chat.completion",
		Created: 1234567890,
		Model:   model,
		Choices: []llm.Choice{{
			Index:        0,
			Message:      llm.ChatMessage{Role: llm.RoleAssistant, Content: content},
			FinishReason: "stop",
		}},
		Usage: llm.Usage{PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15},
	}
}

// Reset clears the call history
func (m *MockClient) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ChatCalls = make([]llm.ChatRequest, 0)
}

// GetChatCallCount returns the number of chat calls made
func (m *MockClient) GetChatCallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.ChatCalls)
}

// LastRequest returns the most recent request, if any
func (m *MockClient) LastRequest() (llm.ChatRequest, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.ChatCalls) == 0 {
		return llm.ChatRequest{}, false
	}
	return m.ChatCalls[len(m.ChatCalls)-1], true
}
