package cli

import (
	"github.com/spf13/cobra"

	"github.com/themobileprof/healthtrack-be/internal/mcptools"
)

func newMCPCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the journal tools over MCP stdio",
		Long: `Runs an MCP server on stdin/stdout exposing log_symptom, list_entries
and summarize. Logs go to stderr so they never mix with protocol frames.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			return mcptools.ServeStdio(a.journal, Version)
		},
	}
}
