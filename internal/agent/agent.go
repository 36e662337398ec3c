// Package agent asks an LLM to pick one journal tool for a user message.
package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/themobileprof/healthtrack-be/internal/circuitbreaker"
	"github.com/themobileprof/healthtrack-be/internal/privacy"
	"github.com/themobileprof/healthtrack-be/internal/prompt"
	"github.com/themobileprof/healthtrack-be/pkg/llm"
)

var (
	ErrIndecision  = errors.New("agent could not decide")
	ErrUnknownTool = errors.New("agent chose an unknown tool")
	ErrMalformed   = errors.New("agent reply is not a tool call")
)

// indecisionMarkers are phrases a model uses when it will not commit to a tool
var indecisionMarkers = []string{
	"i don't know",
	"i do not know",
	"not sure",
	"cannot determine",
	"unable to",
	"tool failed",
	"none",
}

const temperature = 0.0

// Choice is the tool the agent picked and the arguments it filled in
type Choice struct {
	Tool      string         `json:"tool"`
	Arguments map[string]any `json:"arguments"`
}

// Agent routes free text to one of a fixed set of tools
type Agent struct {
	llm     llm.Client
	prompts *prompt.Builder
	tools   []prompt.ToolSpec
	known   map[string]bool
	breaker *circuitbreaker.CircuitBreaker
	timeout time.Duration
}

// Config configures an Agent
type Config struct {
	LLM     llm.Client
	Tools   []prompt.ToolSpec
	Breaker *circuitbreaker.CircuitBreaker
	Timeout time.Duration
}

// New creates an agent over the given tool catalog
func New(cfg Config) *Agent {
	if cfg.Timeout == 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.Breaker == nil {
		cfg.Breaker = circuitbreaker.NewCircuitBreaker("agent-llm", 5, 5*time.Minute)
	}

	known := make(map[string]bool, len(cfg.Tools))
	for _, t := range cfg.Tools {
		known[t.Name] = true
	}

	return &Agent{
		llm:     cfg.LLM,
		prompts: prompt.NewBuilder(),
		tools:   cfg.Tools,
		known:   known,
		breaker: cfg.Breaker,
		timeout: cfg.Timeout,
	}
}

// Choose asks the model for a tool call. Every failure is returned as an
// error; callers are expected to fall back to another router.
func (a *Agent) Choose(ctx context.Context, message string) (*Choice, error) {
	messages := a.prompts.BuildAgentPrompt(prompt.AgentRequest{
		UserMessage: message,
		Tools:       a.tools,
	})

	var reply string
	err := a.breaker.Do(ctx, func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, a.timeout)
		defer cancel()

		resp, err := a.llm.ChatCompletion(ctx, llm.ChatRequest{
			Messages:    messages,
			Temperature: temperature,
			MaxTokens:   300,
		})
		if err != nil {
			return err
		}
		reply = resp.Text()
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("agent call failed: %w", err)
	}

	choice, err := a.Parse(reply)
	if err != nil {
		log.WithFields(log.Fields{
			"reply": privacy.SanitizeForLogging(reply),
		}).Debug("Agent reply rejected")
		return nil, err
	}

	return choice, nil
}

// Parse reads a tool call from a model reply. Markdown code fences and text
// around the JSON object are tolerated.
func (a *Agent) Parse(reply string) (*Choice, error) {
	reply = strings.TrimSpace(reply)
	if reply == "" {
		return nil, ErrIndecision
	}

	var choice Choice
	raw, found := extractObject(reply)
	if !found || json.Unmarshal([]byte(raw), &choice) != nil {
		if hasIndecisionMarker(reply) {
			return nil, ErrIndecision
		}
		return nil, ErrMalformed
	}

	choice.Tool = strings.TrimSpace(choice.Tool)
	switch {
	case choice.Tool == "" || strings.EqualFold(choice.Tool, "none"):
		return nil, ErrIndecision
	case !a.known[choice.Tool]:
		return nil, fmt.Errorf("%w: %q", ErrUnknownTool, choice.Tool)
	}

	if choice.Arguments == nil {
		choice.Arguments = map[string]any{}
	}
	return &choice, nil
}

func extractObject(reply string) (string, bool) {
	start := strings.Index(reply, "{")
	end := strings.LastIndex(reply, "}")
	if start < 0 || end <= start {
		return "", false
	}
	return reply[start : end+1], true
}

func hasIndecisionMarker(reply string) bool {
	lower := strings.ToLower(reply)
	for _, marker := range indecisionMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}
