package deepseek

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/themobileprof/healthtrack-be/pkg/llm"
)

func TestNewHTTPClient(t *testing.T) {
	tests := []struct {
		name        string
		config      Config
		wantBaseURL string
		wantModel   string
		wantTimeout time.Duration
	}{
		{
			name:        "default configuration",
			config:      Config{APIKey: "test-key"},
			wantBaseURL: "https://api.deepseek.com/v1",
			wantModel:   "deepseek-chat",
			wantTimeout: 30 * time.Second,
		},
		{
			name: "openai preset",
			config: Config{
				APIKey:  "test-key",
				BaseURL: OpenAIBaseURL + "/",
				Model:   OpenAIModel,
				Timeout: 60 * time.Second,
			},
			wantBaseURL: "https://api.openai.com/v1",
			wantModel:   "gpt-4o-mini",
			wantTimeout: 60 * time.Second,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := NewHTTPClient(tt.config)

			if client.apiKey != tt.config.APIKey {
				t.Errorf("apiKey = %v, want %v", client.apiKey, tt.config.APIKey)
			}
			if client.baseURL != tt.wantBaseURL {
				t.Errorf("baseURL = %v, want %v", client.baseURL, tt.wantBaseURL)
			}
			if client.model != tt.wantModel {
				t.Errorf("model = %v, want %v", client.model, tt.wantModel)
			}
			if client.timeout != tt.wantTimeout {
				t.Errorf("timeout = %v, want %v", client.timeout, tt.wantTimeout)
			}
		})
	}
}

func TestHTTPClient_ChatCompletion(t *testing.T) {
	tests := []struct {
		name           string
		serverResponse string
		statusCode     int
		wantError      bool
		wantText       string
	}{
		{
			name:       "successful completion",
			statusCode: http.StatusOK,
			serverResponse: `{
				"id": "chatcmpl-123",
				"object": "chat.completion",
				"created": 1234567890,
				"model": "deepseek-chat",
				"choices": [{
					"index": 0,
					"message": {"role": "assistant", "content": "Mostly evening headaches."},
					"finish_reason": "stop"
				}],
				"usage": {"prompt_tokens": 10, "completion_tokens": 8, "total_tokens": 18}
			}`,
			wantText: "Mostly evening headaches.",
		},
		{
			name:           "API error response",
			statusCode:     http.StatusBadRequest,
			serverResponse: `{"error": "Invalid request"}`,
			wantError:      true,
		},
		{
			name:           "malformed JSON response",
			statusCode:     http.StatusOK,
			serverResponse: `{invalid json}`,
			wantError:      true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodPost {
					t.Errorf("Expected POST request, got %s", r.Method)
				}
				if r.URL.Path != "/chat/completions" {
					t.Errorf("path = %s", r.URL.Path)
				}
				if r.Header.Get("Authorization") != "Bearer test-api-key" {
					t.Errorf("Authorization = %q", r.Header.Get("Authorization"))
				}

				var body llm.ChatRequest
				if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
					t.Errorf("request body: %v", err)
				}
				if body.Model != "deepseek-chat" || body.Stream {
					t.Errorf("request = %+v", body)
				}

				w.WriteHeader(tt.statusCode)
				w.Write([]byte(tt.serverResponse))
			}))
			defer server.Close()

			client := NewHTTPClient(Config{
				APIKey:  "test-api-key",
				BaseURL: server.URL,
				Timeout: 5 * time.Second,
			})

			resp, err := client.ChatCompletion(context.Background(), llm.ChatRequest{
				Messages: []llm.ChatMessage{{Role: llm.RoleUser, Content: "Hello"}},
			})

			if tt.wantError {
				if err == nil {
					t.Error("Expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("ChatCompletion() error = %v", err)
			}
			if resp.Text() != tt.wantText {
				t.Errorf("Text() = %q, want %q", resp.Text(), tt.wantText)
			}
			if resp.Usage.TotalTokens != 18 {
				t.Errorf("TotalTokens = %d", resp.Usage.TotalTokens)
			}
		})
	}
}

func TestHTTPClient_ChatCompletion_ContextCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Drain the body so the server notices the client disconnect.
		_, _ = io.Copy(io.Discard, r.Body)
		<-r.Context().Done()
	}))
	defer server.Close()

	client := NewHTTPClient(Config{APIKey: "k", BaseURL: server.URL, Timeout: 5 * time.Second})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := client.ChatCompletion(ctx, llm.ChatRequest{})
	if err == nil || !strings.Contains(err.Error(), "failed to execute request") {
		t.Errorf("error = %v", err)
	}
}
