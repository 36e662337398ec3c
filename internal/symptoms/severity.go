package symptoms

import (
	"strings"

	"golang.org/x/text/cases"
)

// Severity is the canonical four-level symptom severity
type Severity string

const (
	SeverityNone     Severity = "none"
	SeverityMild     Severity = "mild"
	SeverityModerate Severity = "moderate"
	SeveritySevere   Severity = "severe"
)

var canonicalSeverities = map[string]Severity{
	"none":     SeverityNone,
	"mild":     SeverityMild,
	"moderate": SeverityModerate,
	"severe":   SeveritySevere,
}

var severitySynonyms = map[string]Severity{
	"slight":     SeverityMild,
	"light":      SeverityMild,
	"average":    SeverityModerate,
	"noticeable": SeverityModerate,
	"strong":     SeveritySevere,
	"intense":    SeveritySevere,
	"awful":      SeveritySevere,
	"terrible":   SeveritySevere,
}

// NormalizeSeverity maps a canonical literal or a known synonym to its Severity.
// Matching ignores case and surrounding/repeated whitespace; anything else is rejected.
func NormalizeSeverity(raw string) (Severity, error) {
	key := foldWords(raw)

	if sev, ok := canonicalSeverities[key]; ok {
		return sev, nil
	}
	if sev, ok := severitySynonyms[key]; ok {
		return sev, nil
	}

	return "", &InvalidSeverityError{Raw: raw}
}

// Valid reports whether s is one of the four canonical values
func (s Severity) Valid() bool {
	_, ok := canonicalSeverities[string(s)]
	return ok
}

func (s Severity) String() string {
	return string(s)
}

// foldWords case-folds text and collapses runs of whitespace to one space.
// A Caser holds state, so each call gets its own.
func foldWords(s string) string {
	return strings.Join(strings.Fields(cases.Fold().String(s)), " ")
}
