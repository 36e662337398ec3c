package journal

import (
	"fmt"
	"strings"
	"time"

	"github.com/themobileprof/healthtrack-be/internal/symptoms"
)

// Confirmation renders the short reply sent after an entry is logged:
// "Logged: {symptom} (n/10), since {started}, meds: a, b". The score part
// falls back to the categorical severity when there is no score and the
// severity is not none.
func Confirmation(e *symptoms.Entry) string {
	var sb strings.Builder
	sb.WriteString("Logged: ")
	sb.WriteString(e.Symptom)

	switch {
	case e.SeverityScore != nil:
		fmt.Fprintf(&sb, " (%d/10)", *e.SeverityScore)
	case e.Severity != "" && e.Severity != symptoms.SeverityNone:
		fmt.Fprintf(&sb, " (%s)", e.Severity)
	}

	if !e.StartedAt.IsZero() {
		sb.WriteString(", since ")
		sb.WriteString(e.StartedAt.UTC().Format(time.RFC3339))
	}

	if len(e.MedicinesTaken) > 0 {
		sb.WriteString(", meds: ")
		sb.WriteString(strings.Join(e.MedicinesTaken, ", "))
	}

	return sb.String()
}

// CountText renders "<n> entry found." or "<n> entries found."
func CountText(n int) string {
	if n == 1 {
		return "1 entry found."
	}
	return fmt.Sprintf("%d entries found.", n)
}
