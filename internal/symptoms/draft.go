package symptoms

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	scorePattern    = regexp.MustCompile(`\b(10|[0-9])\s*/\s*10\b`)
	medicinePattern = regexp.MustCompile(`(?i)\b(?:took|taking|taken)\s+([^.;!?\n]+)`)
	medicineSplit   = regexp.MustCompile(`(?i)\s*(?:,|&|\band\b)\s*`)
)

// DraftFromText builds entry input from a free-text message. The whole message
// is kept as the symptom text and the categorical severity stays "none"; a
// "n/10" figure is carried through as the score. The start is whatever time the
// message mentions, or the current instant when it mentions none.
func (b *Builder) DraftFromText(text string, loc *time.Location) Input {
	text = strings.TrimSpace(text)

	in := Input{
		Symptom:     text,
		SeverityRaw: string(SeverityNone),
		StartedRaw:  "now",
	}

	if t, err := b.times.Normalize(text, loc); err == nil {
		in.StartedRaw = t.Format(time.RFC3339)
	}

	if m := scorePattern.FindStringSubmatch(text); m != nil {
		if score, err := strconv.Atoi(m[1]); err == nil {
			in.SeverityScore = &score
		}
	}

	if meds := extractMedicines(text); len(meds) > 0 {
		in.MedicinesRaw = meds
	}

	return in
}

func extractMedicines(text string) []string {
	m := medicinePattern.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	return keepNonEmpty(medicineSplit.Split(m[1], -1))
}
