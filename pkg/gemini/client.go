package gemini

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/themobileprof/healthtrack-be/pkg/llm"
	"google.golang.org/genai"
)

// DefaultModel is used when Config.Model is empty
const DefaultModel = "gemini-2.0-flash"

// Client implements llm.Client over the Gemini API
type Client struct {
	genai   *genai.Client
	model   string
	timeout time.Duration
}

var _ llm.Client = (*Client)(nil)

// Config holds configuration for the Gemini client
type Config struct {
	APIKey  string
	Model   string        // Default: gemini-2.0-flash
	Timeout time.Duration // Default: 30s
}

// NewClient creates a Gemini client. An empty APIKey falls back to
// Application Default Credentials.
func NewClient(ctx context.Context, config Config) (*Client, error) {
	if config.Model == "" {
		config.Model = DefaultModel
	}
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}

	gc, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  config.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return &Client{genai: gc, model: config.Model, timeout: config.Timeout}, nil
}

// ChatCompletion implements llm.Client.ChatCompletion
func (c *Client) ChatCompletion(ctx context.Context, req llm.ChatRequest) (*llm.ChatResponse, error) {
	model := req.Model
	if model == "" {
		model = c.model
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	system, contents := toContents(req.Messages)
	cfg := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(float32(req.Temperature)),
	}
	if system != "" {
		cfg.SystemInstruction = genai.NewContentFromText(system, genai.RoleUser)
	}

	resp, err := c.genai.Models.GenerateContent(ctx, model, contents, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to generate content with Gemini: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, fmt.Errorf("no response candidates from Gemini")
	}

	var text strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part != nil && part.Text != "" {
			text.WriteString(part.Text)
		}
	}

	return &llm.ChatResponse{
		Object: "chat.completion",
		Model:  model,
		Choices: []llm.Choice{{
			Message:      llm.ChatMessage{Role: llm.RoleAssistant, Content: text.String()},
			FinishReason: string(resp.Candidates[0].FinishReason),
		}},
	}, nil
}

// toContents splits system messages out as the system instruction and maps
// the rest onto Gemini's user/model roles.
func toContents(messages []llm.ChatMessage) (string, []*genai.Content) {
	var system []string
	contents := make([]*genai.Content, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case llm.RoleSystem:
			system = append(system, m.Content)
		case llm.RoleAssistant:
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleModel))
		default:
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleUser))
		}
	}
	return strings.Join(system, "\n\n"), contents
}
