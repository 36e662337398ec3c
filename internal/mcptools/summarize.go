package mcptools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
)

// SummarizeTool handles the summarize MCP tool.
type SummarizeTool struct {
	journal Journal
}

// NewSummarizeTool creates a SummarizeTool.
func NewSummarizeTool(j Journal) *SummarizeTool {
	return &SummarizeTool{journal: j}
}

// Definition returns the MCP tool definition for summarize.
func (t *SummarizeTool) Definition() mcp.Tool {
	return mcp.NewTool(ToolSummarize,
		mcp.WithDescription(
			"Summarize the user's recent symptoms, grounded on their journal entries. "+
				"Falls back to a plain list of recent entries when the language model is unavailable.",
		),
		mcp.WithString("user_id",
			mcp.Required(),
			mcp.Description("Journal owner"),
		),
		mcp.WithString("question",
			mcp.Description("What to focus on, e.g. 'how have my headaches been?'"),
		),
		mcp.WithNumber("days",
			mcp.Description("Only consider entries from the last N days (1-90)"),
		),
	)
}

// Handle processes the summarize tool call.
func (t *SummarizeTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	owner := userArg(req)
	if owner == "" {
		return mcp.NewToolResultError("'user_id' is required"), nil
	}

	args, err := ParseSummarizeArgs(req.GetArguments())
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	text, err := t.journal.Summarize(ctx, owner, args.Question, args.Days)
	if err != nil {
		return errorResult("summarize failed", err), nil
	}

	return mcp.NewToolResultText(text), nil
}
