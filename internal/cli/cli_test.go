package cli

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"
)

func run(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("%v: %v\n%s", args, err, out.String())
	}
	return out.String()
}

func TestJournalCommands(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("DATABASE_URL", filepath.Join(dir, "cli.db"))
	t.Setenv("LLM_PROVIDER", "")
	t.Setenv("LOG_LEVEL", "error")

	out := run(t, "log", "--user", "u1", "--tz", "UTC", "Headache 6/10 since 2024-07-01 20:00, took Advil")
	want := "Logged: Headache 6/10 since 2024-07-01 20:00, took Advil (6/10), since 2024-07-01T20:00:00Z, meds: Advil"
	if strings.TrimSpace(out) != want {
		t.Errorf("log output = %q, want %q", out, want)
	}

	out = run(t, "entries", "--user", "u1", "--json")
	var entries []map[string]any
	if err := json.Unmarshal([]byte(out), &entries); err != nil {
		t.Fatalf("entries --json output %q: %v", out, err)
	}
	if len(entries) != 1 || entries[0]["started_at"] != "2024-07-01T20:00:00Z" {
		t.Errorf("entries = %v", entries)
	}

	out = run(t, "route", "--user", "u1", "/entries summarize please")
	if strings.TrimSpace(out) != "1 entry found." {
		t.Errorf("route output = %q", out)
	}

	// no LLM configured: summary falls back to the bullet list
	out = run(t, "summary", "--user", "u1")
	if !strings.HasPrefix(strings.TrimSpace(out), "- Headache 6/10") {
		t.Errorf("summary output = %q", out)
	}

	out = run(t, "summary", "--user", "nobody")
	if strings.TrimSpace(out) != "No entries found for this user." {
		t.Errorf("empty summary output = %q", out)
	}
}

func TestCommandsRegistered(t *testing.T) {
	want := []string{"serve", "mcp", "log", "entries", "summary", "route"}
	for _, name := range want {
		cmd, _, err := rootCmd.Find([]string{name})
		if err != nil || cmd.Name() != name {
			t.Errorf("command %q not registered", name)
		}
	}
}
