package mcptools

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/themobileprof/healthtrack-be/internal/journal"
	"github.com/themobileprof/healthtrack-be/internal/symptoms"
)

// ListEntriesTool handles the list_entries MCP tool.
type ListEntriesTool struct {
	journal Journal
}

// NewListEntriesTool creates a ListEntriesTool.
func NewListEntriesTool(j Journal) *ListEntriesTool {
	return &ListEntriesTool{journal: j}
}

// Definition returns the MCP tool definition for list_entries.
func (t *ListEntriesTool) Definition() mcp.Tool {
	return mcp.NewTool(ToolListEntries,
		mcp.WithDescription("List the user's logged symptom entries in the order they were recorded."),
		mcp.WithString("user_id",
			mcp.Required(),
			mcp.Description("Journal owner"),
		),
		mcp.WithString("since",
			mcp.Description("Only entries that started at or after this time: ISO-8601 or phrases like 'yesterday'"),
		),
		mcp.WithString("timezone",
			mcp.Description("IANA timezone for relative times"),
		),
	)
}

// Handle processes the list_entries tool call.
func (t *ListEntriesTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	owner := userArg(req)
	if owner == "" {
		return mcp.NewToolResultError("'user_id' is required"), nil
	}

	args := ParseListArgs(req.GetArguments())
	entries, err := t.journal.List(ctx, owner, args.Since, args.Timezone)
	if err != nil {
		return errorResult("list failed", err), nil
	}

	return mcp.NewToolResultText(formatEntries(entries)), nil
}

func formatEntries(entries []symptoms.Entry) string {
	var b strings.Builder
	b.WriteString(journal.CountText(len(entries)))

	for i, e := range entries {
		fmt.Fprintf(&b, "\n\n[%d] %s (%s", i+1, e.Symptom, e.Severity)
		if e.SeverityScore != nil {
			fmt.Fprintf(&b, ", %d/10", *e.SeverityScore)
		}
		fmt.Fprintf(&b, ")\n    id: %s\n    started: %s", e.ID, e.StartedAt.UTC().Format(time.RFC3339))
		if e.EndedAt != nil {
			fmt.Fprintf(&b, " | ended: %s", e.EndedAt.UTC().Format(time.RFC3339))
		}
		if e.Location != "" {
			fmt.Fprintf(&b, " | location: %s", e.Location)
		}
		if len(e.MedicinesTaken) > 0 {
			fmt.Fprintf(&b, "\n    medicines: %s", strings.Join(e.MedicinesTaken, ", "))
		}
	}

	return b.String()
}
