package fallback

import (
	"strings"
	"testing"
	"time"

	"github.com/themobileprof/healthtrack-be/internal/symptoms"
)

func TestGet(t *testing.T) {
	tests := []struct {
		name           string
		reason         Reason
		expectedAction string
		containsText   string
	}{
		{"log rejected", ReasonLogRejected, "rephrase", "severity from 0 to 10"},
		{"internal", ReasonInternal, "retry", "try again"},
		{"llm unavailable", ReasonLLMUnavailable, "none", "recent entries"},
		{"timeout", ReasonTimeout, "retry", "longer than expected"},
		{"unknown reason", Reason(99), "retry", "Something went wrong"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Get(tt.reason)
			if got.Action != tt.expectedAction {
				t.Errorf("Action = %q, want %q", got.Action, tt.expectedAction)
			}
			if !strings.Contains(got.Content, tt.containsText) {
				t.Errorf("Content %q missing %q", got.Content, tt.containsText)
			}
		})
	}
}

func TestGuidance(t *testing.T) {
	g := Guidance()
	for _, want := range []string{"symptom", "0 to 10", "when it started", GuidanceExample} {
		if !strings.Contains(g, want) {
			t.Errorf("guidance missing %q: %s", want, g)
		}
	}
}

func TestNoEntriesInWindow(t *testing.T) {
	if got := NoEntriesInWindow(7); got != "No entries found in the last 7 days." {
		t.Errorf("NoEntriesInWindow(7) = %q", got)
	}
}

func TestBullets(t *testing.T) {
	start := time.Date(2024, 7, 1, 20, 0, 0, 0, time.UTC)
	entries := []symptoms.Entry{
		{Symptom: "Headache", Severity: symptoms.SeverityModerate, StartedAt: start, Location: "temple"},
		{Symptom: "Nausea", Severity: symptoms.SeverityNone, StartedAt: start.Add(-time.Hour)},
	}

	want := "- Headache @ temple (severity: moderate) 2024-07-01T20:00:00Z\n" +
		"- Nausea (severity: none) 2024-07-01T19:00:00Z"
	if got := Bullets(entries); got != want {
		t.Errorf("Bullets() =\n%s\nwant\n%s", got, want)
	}

	if Bullets(nil) != "" {
		t.Error("Bullets(nil) should be empty")
	}
}
