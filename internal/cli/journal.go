package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/themobileprof/healthtrack-be/internal/chat"
	"github.com/themobileprof/healthtrack-be/internal/journal"
)

type journalFlags struct {
	user     string
	timezone string
}

func (f *journalFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.user, "user", "u", "", "journal owner id")
	cmd.Flags().StringVar(&f.timezone, "tz", "", "IANA timezone for relative times")
	_ = cmd.MarkFlagRequired("user")
}

func newLogCmd() *cobra.Command {
	var f journalFlags
	cmd := &cobra.Command{
		Use:     "log <text>",
		Short:   "Log a symptom from free text",
		Example: `  healthtrack log --user u1 --tz America/New_York "Headache 6/10 since 8pm, 2h, took Advil"`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			entry, err := a.journal.LogText(cmd.Context(), f.user, strings.Join(args, " "), f.timezone)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), journal.Confirmation(entry))
			return nil
		},
	}
	f.register(cmd)
	return cmd
}

func newEntriesCmd() *cobra.Command {
	var (
		f      journalFlags
		since  string
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "entries",
		Short: "List logged entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			entries, err := a.journal.List(cmd.Context(), f.user, since, f.timezone)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(entries)
			}

			fmt.Fprintln(out, journal.CountText(len(entries)))
			for _, e := range entries {
				fmt.Fprintf(out, "%s  %s  %s (%s)\n", e.ID, e.StartedAt.UTC().Format("2006-01-02T15:04:05Z"), e.Symptom, e.Severity)
			}
			return nil
		},
	}
	f.register(cmd)
	cmd.Flags().StringVar(&since, "since", "", "only entries at or after this time, e.g. 2024-07-01 or yesterday")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print entries as JSON")
	return cmd
}

func newSummaryCmd() *cobra.Command {
	var (
		f        journalFlags
		question string
		days     int
	)
	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Summarize recent entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			text, err := a.journal.Summarize(cmd.Context(), f.user, question, days)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), text)
			return nil
		},
	}
	f.register(cmd)
	cmd.Flags().StringVarP(&question, "question", "q", "", "what to focus on")
	cmd.Flags().IntVar(&days, "days", 0, "only entries from the last N days (1-90)")
	return cmd
}

func newRouteCmd() *cobra.Command {
	var f journalFlags
	cmd := &cobra.Command{
		Use:     "route <text>",
		Short:   "Route a chat message the way the websocket does",
		Example: `  healthtrack route --user u1 "/entries"`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			resp, err := a.engine.Route(cmd.Context(), chat.Request{
				UserID:   f.user,
				Message:  strings.Join(args, " "),
				Timezone: f.timezone,
			})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), resp.Text)
			return nil
		},
	}
	f.register(cmd)
	return cmd
}
