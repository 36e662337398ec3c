package mcptools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	log "github.com/sirupsen/logrus"

	"github.com/themobileprof/healthtrack-be/internal/journal"
	"github.com/themobileprof/healthtrack-be/internal/symptoms"
)

// ErrNothingToLog is returned when neither a symptom nor free text was given
var ErrNothingToLog = &symptoms.ValidationError{Field: "symptom", Reason: "symptom or text is required"}

// LogSymptomTool handles the log_symptom MCP tool.
type LogSymptomTool struct {
	journal Journal
}

// NewLogSymptomTool creates a LogSymptomTool.
func NewLogSymptomTool(j Journal) *LogSymptomTool {
	return &LogSymptomTool{journal: j}
}

// Definition returns the MCP tool definition for log_symptom.
func (t *LogSymptomTool) Definition() mcp.Tool {
	return mcp.NewTool(ToolLogSymptom,
		mcp.WithDescription(
			"Record a symptom in the user's health journal. Pass either the structured fields "+
				"(symptom, severity or severity_score, started_at) or a free-text message in text.",
		),
		mcp.WithString("user_id",
			mcp.Required(),
			mcp.Description("Journal owner"),
		),
		mcp.WithString("symptom",
			mcp.Description("What the user is experiencing, e.g. headache"),
		),
		mcp.WithString("severity",
			mcp.Description("One of none, mild, moderate, severe. Synonyms like light or intense are accepted"),
		),
		mcp.WithNumber("severity_score",
			mcp.Description("Numeric severity from 0 to 10"),
		),
		mcp.WithString("started_at",
			mcp.Description("When it started: ISO-8601, or phrases like 'yesterday evening' or 'since 8pm'"),
		),
		mcp.WithString("ended_at",
			mcp.Description("When it ended, same formats as started_at"),
		),
		mcp.WithString("location",
			mcp.Description("Body location, e.g. forehead"),
		),
		mcp.WithString("medicines_taken",
			mcp.Description("Comma-separated medicine names"),
		),
		mcp.WithString("notes",
			mcp.Description("Free-form notes"),
		),
		mcp.WithString("text",
			mcp.Description("Free-text message to draft the entry from when no symptom is given"),
		),
		mcp.WithString("timezone",
			mcp.Description("IANA timezone for relative times, e.g. America/New_York"),
		),
	)
}

// Handle processes the log_symptom tool call.
func (t *LogSymptomTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	owner := userArg(req)
	if owner == "" {
		return mcp.NewToolResultError("'user_id' is required"), nil
	}

	args, err := ParseLogArgs(req.GetArguments())
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	entry, err := Log(ctx, t.journal, owner, args)
	if err != nil {
		return errorResult("log failed", err), nil
	}

	return mcp.NewToolResultText(journal.Confirmation(entry)), nil
}

// Log dispatches parsed log_symptom arguments to the journal
func Log(ctx context.Context, j Journal, owner string, args LogArgs) (*symptoms.Entry, error) {
	switch {
	case args.Structured():
		return j.Log(ctx, owner, args.Input, args.Timezone)
	case args.Text != "":
		return j.LogText(ctx, owner, args.Text, args.Timezone)
	default:
		return nil, ErrNothingToLog
	}
}

// errorResult shows user errors verbatim and hides internal ones
func errorResult(action string, err error) *mcp.CallToolResult {
	if journal.IsUserError(err) {
		return mcp.NewToolResultError(err.Error())
	}
	log.WithError(err).Errorf("mcp %s", action)
	return mcp.NewToolResultError(fmt.Sprintf("%s: internal error", action))
}
