// Package cli wires the HealthTrack commands.
package cli

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/themobileprof/healthtrack-be/internal/config"
)

// Version is set at build time via ldflags.
var Version = "dev"

var (
	cfgFile string
	v       = viper.New()
	cfg     *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "healthtrack",
	Short: "Personal symptom journal with summaries",
	Long: `HealthTrack records symptoms from short messages like
"/log Headache 6/10 since 8pm, took Advil", lists them back and summarizes
recent entries for a doctor visit. It runs as an HTTP + websocket service,
as an MCP server over stdio, or as one-shot commands.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(v, cfgFile)
		if err != nil {
			return err
		}
		if err := loaded.SetupLogging(); err != nil {
			return err
		}
		cfg = loaded
		return nil
	},
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (yaml, toml or json)")
	flags.String("database-url", "", "SQLite path or postgres:// URL (or set DATABASE_URL)")
	flags.String("llm-provider", "", "deepseek, openai or gemini (or set LLM_PROVIDER)")
	flags.String("default-timezone", "", "IANA timezone used when a request names none (or set DEFAULT_TIMEZONE)")
	flags.String("log-level", "", "debug, info, warn or error (or set LOG_LEVEL)")
	flags.Bool("agent", false, "route messages through the LLM agent first (or set AGENT_MODE)")

	bindFlag("database_url", "database-url")
	bindFlag("llm_provider", "llm-provider")
	bindFlag("default_timezone", "default-timezone")
	bindFlag("log_level", "log-level")
	bindFlag("agent_mode", "agent")

	rootCmd.AddCommand(
		newServeCmd(),
		newMCPCmd(),
		newLogCmd(),
		newEntriesCmd(),
		newSummaryCmd(),
		newRouteCmd(),
	)
}

// bindFlag binds a persistent flag; an unset flag leaves env and defaults in charge
func bindFlag(key, flag string) {
	if err := v.BindPFlag(key, rootCmd.PersistentFlags().Lookup(flag)); err != nil {
		panic(err)
	}
}
