package mcptools

import (
	"context"
	"sort"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/themobileprof/healthtrack-be/internal/prompt"
)

const instructions = `HealthTrack keeps a private symptom journal per user.

Use log_symptom whenever the user reports how they feel. A severity from 0 to 10
and a start time are required; relative times like "since 8pm" are resolved in
the given timezone. Use list_entries to show what was recorded and summarize for
an overview to share with a doctor. Never give a diagnosis.`

// Tool is the contract every journal tool satisfies
type Tool interface {
	Definition() mcp.Tool
	Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error)
}

// All returns the journal tools in catalog order
func All(j Journal) []Tool {
	return []Tool{
		NewLogSymptomTool(j),
		NewListEntriesTool(j),
		NewSummarizeTool(j),
	}
}

// NewServer creates an MCP server exposing the journal tools
func NewServer(j Journal, version string) *server.MCPServer {
	s := server.NewMCPServer(
		"healthtrack",
		version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions(instructions),
	)

	for _, tool := range All(j) {
		s.AddTool(tool.Definition(), tool.Handle)
	}

	return s
}

// ServeStdio runs the MCP server over stdin/stdout until the client disconnects
func ServeStdio(j Journal, version string) error {
	return server.ServeStdio(NewServer(j, version))
}

// Specs converts the tool definitions into the catalog offered to the
// routing agent. user_id is left out; the caller always supplies it.
func Specs(tools []Tool) []prompt.ToolSpec {
	specs := make([]prompt.ToolSpec, 0, len(tools))
	for _, tool := range tools {
		def := tool.Definition()

		required := make(map[string]bool, len(def.InputSchema.Required))
		for _, name := range def.InputSchema.Required {
			required[name] = true
		}

		names := make([]string, 0, len(def.InputSchema.Properties))
		for name := range def.InputSchema.Properties {
			if name != "user_id" {
				names = append(names, name)
			}
		}
		sort.Strings(names)

		spec := prompt.ToolSpec{Name: def.Name, Description: def.Description}
		for _, name := range names {
			prop, _ := def.InputSchema.Properties[name].(map[string]any)
			typ, _ := prop["type"].(string)
			desc, _ := prop["description"].(string)
			spec.Params = append(spec.Params, prompt.ParamSpec{
				Name:        name,
				Type:        typ,
				Required:    required[name],
				Description: desc,
			})
		}
		specs = append(specs, spec)
	}
	return specs
}
