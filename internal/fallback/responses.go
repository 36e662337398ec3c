package fallback

import (
	"fmt"
	"strings"
	"time"

	"github.com/themobileprof/healthtrack-be/internal/symptoms"
)

// Response represents a fixed user-facing reply
type Response struct {
	Content string
	Action  string // "retry", "rephrase", "none"
}

// Reason identifies why a fixed reply is being used
type Reason int

const (
	ReasonLogRejected Reason = iota
	ReasonInternal
	ReasonLLMUnavailable
	ReasonTimeout
)

const (
	// GuidanceExample is the worked example shown when a log cannot be built
	GuidanceExample = "/log Headache 6/10 since 8pm, 2h, took Advil"

	NoEntriesForUser = "No entries found for this user."
)

var responses = map[Reason]Response{
	ReasonLogRejected: {
		Content: "I couldn't log that. Please include the symptom, a severity from 0 to 10 and when it started. " +
			"For example: " + GuidanceExample,
		Action: "rephrase",
	},
	ReasonInternal: {
		Content: "Something went wrong on our side. Please try again in a moment.",
		Action:  "retry",
	},
	ReasonLLMUnavailable: {
		Content: "The summary assistant is unavailable right now, so here are your recent entries instead.",
		Action:  "none",
	},
	ReasonTimeout: {
		Content: "That took longer than expected. Please try again.",
		Action:  "retry",
	},
}

// Get returns the fixed reply for reason
func Get(reason Reason) Response {
	if r, ok := responses[reason]; ok {
		return r
	}
	return responses[ReasonInternal]
}

// Guidance is the message asking the user for a loggable description
func Guidance() string {
	return responses[ReasonLogRejected].Content
}

// NoEntriesInWindow is the reply for a summary window with nothing in it
func NoEntriesInWindow(days int) string {
	return fmt.Sprintf("No entries found in the last %d days.", days)
}

// Bullets renders entries as a plain list, one line per entry:
// "- {symptom}{ @ location} (severity: {severity}) {started}".
func Bullets(entries []symptoms.Entry) string {
	lines := make([]string, 0, len(entries))
	for _, e := range entries {
		var sb strings.Builder
		sb.WriteString("- ")
		sb.WriteString(e.Symptom)
		if e.Location != "" {
			sb.WriteString(" @ ")
			sb.WriteString(e.Location)
		}
		fmt.Fprintf(&sb, " (severity: %s) %s", e.Severity, e.StartedAt.UTC().Format(time.RFC3339))
		lines = append(lines, sb.String())
	}
	return strings.Join(lines, "\n")
}
