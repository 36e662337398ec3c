package prompt

import (
	"fmt"
	"strings"

	"github.com/themobileprof/healthtrack-be/internal/privacy"
	"github.com/themobileprof/healthtrack-be/pkg/llm"
)

// SummaryRequest contains everything needed to ask for a symptom summary
type SummaryRequest struct {
	Question string
	// Context holds entry documents or retrieved snippets, most relevant first
	Context []string
}

// ParamSpec describes one tool argument
type ParamSpec struct {
	Name        string
	Type        string
	Required    bool
	Description string
}

// ToolSpec describes a callable action offered to the agent
type ToolSpec struct {
	Name        string
	Description string
	Params      []ParamSpec
}

// AgentRequest contains the user's text and the tools the agent may pick from
type AgentRequest struct {
	UserMessage string
	Tools       []ToolSpec
}

// Builder constructs prompts for the LLM providers
type Builder struct{}

// NewBuilder creates a new prompt builder
func NewBuilder() *Builder {
	return &Builder{}
}

// BuildSummaryPrompt asks for a short clinical-style summary grounded only in
// the supplied context. All text is redacted before it leaves the process.
func (b *Builder) BuildSummaryPrompt(req SummaryRequest) []llm.ChatMessage {
	var sb strings.Builder
	sb.Grow(1024)

	sb.WriteString("You summarize a person's own symptom journal so they can share it with a doctor.\n\n")
	sb.WriteString("RULES:\n")
	sb.WriteString("- Use only the journal entries below; never invent symptoms, dates or medicines\n")
	sb.WriteString("- Mention patterns in timing, severity and medicines when they are visible\n")
	sb.WriteString("- Keep it under 120 words, plain language, no diagnosis\n")
	sb.WriteString("- If the entries do not answer the question, say so briefly\n\n")

	sb.WriteString("JOURNAL ENTRIES:\n")
	for i, c := range req.Context {
		fmt.Fprintf(&sb, "[%d]\n%s\n", i+1, strings.TrimSpace(c))
	}

	return []llm.ChatMessage{
		{Role: llm.RoleSystem, Content: privacy.SanitizeForAPI(sb.String())},
		{Role: llm.RoleUser, Content: privacy.SanitizeForAPI(req.Question)},
	}
}

// BuildAgentPrompt asks the model to pick exactly one tool for the message and
// answer with a single JSON object.
func (b *Builder) BuildAgentPrompt(req AgentRequest) []llm.ChatMessage {
	var sb strings.Builder
	sb.Grow(1024)

	sb.WriteString("You route messages for a personal symptom journal. ")
	sb.WriteString("Choose exactly one of the tools below for the user's message.\n\n")

	sb.WriteString("TOOLS:\n")
	for _, t := range req.Tools {
		fmt.Fprintf(&sb, "- %s: %s\n", t.Name, t.Description)
		for _, p := range t.Params {
			need := "optional"
			if p.Required {
				need = "required"
			}
			fmt.Fprintf(&sb, "    %s (%s, %s): %s\n", p.Name, p.Type, need, p.Description)
		}
	}

	sb.WriteString("\nRESPONSE FORMAT:\n")
	sb.WriteString(`Reply with one JSON object and nothing else: {"tool": "<name>", "arguments": {...}}`)
	sb.WriteString("\nThe user id is supplied by the system; do not include it.\n")
	sb.WriteString("If you cannot decide, reply with: I don't know\n")

	return []llm.ChatMessage{
		{Role: llm.RoleSystem, Content: sb.String()},
		{Role: llm.RoleUser, Content: privacy.SanitizeForAPI(req.UserMessage)},
	}
}
