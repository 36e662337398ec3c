package symptoms

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Entry is one structured symptom observation owned by a single user
type Entry struct {
	ID             string     `json:"id"`
	OwnerID        string     `json:"user_id"`
	CreatedAt      time.Time  `json:"created_at"`
	Symptom        string     `json:"symptom"`
	Severity       Severity   `json:"severity"`
	SeverityScore  *int       `json:"severity_score,omitempty"`
	StartedAt      time.Time  `json:"started_at"`
	EndedAt        *time.Time `json:"ended_at,omitempty"`
	Location       string     `json:"location,omitempty"`
	MedicinesTaken []string   `json:"medicines_taken,omitempty"`
	Notes          string     `json:"notes,omitempty"`
}

// Duration returns ended minus started when both are set
func (e Entry) Duration() (time.Duration, bool) {
	if e.EndedAt == nil {
		return 0, false
	}
	return e.EndedAt.Sub(e.StartedAt), true
}

// MarshalJSON adds the derived duration_seconds field
func (e Entry) MarshalJSON() ([]byte, error) {
	type plain Entry
	out := struct {
		plain
		DurationSeconds *int64 `json:"duration_seconds,omitempty"`
	}{plain: plain(e)}

	if d, ok := e.Duration(); ok {
		secs := int64(d / time.Second)
		out.DurationSeconds = &secs
	}
	return json.Marshal(out)
}

// Document renders the entry as the text indexed for retrieval
func (e Entry) Document() string {
	ended := "N/A"
	if e.EndedAt != nil {
		ended = e.EndedAt.UTC().Format(time.RFC3339)
	}
	location := e.Location
	if location == "" {
		location = "N/A"
	}
	medicines := "None"
	if len(e.MedicinesTaken) > 0 {
		medicines = strings.Join(e.MedicinesTaken, ", ")
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Symptom: %s\n", e.Symptom)
	fmt.Fprintf(&sb, "Severity: %s\n", e.Severity)
	fmt.Fprintf(&sb, "Started: %s\n", e.StartedAt.UTC().Format(time.RFC3339))
	fmt.Fprintf(&sb, "Ended: %s\n", ended)
	fmt.Fprintf(&sb, "Location: %s\n", location)
	fmt.Fprintf(&sb, "Medicines: %s\n", medicines)
	fmt.Fprintf(&sb, "Notes: %s\n", e.Notes)
	return sb.String()
}

// Input carries the raw, unvalidated fields of a new entry
type Input struct {
	Symptom       string
	SeverityRaw   string
	SeverityScore *int
	StartedRaw    string
	EndedRaw      string
	Location      string
	MedicinesRaw  any
	Notes         string
}

// Builder validates Input and produces entries with fresh ids and creation times
type Builder struct {
	times *TimeNormalizer
	now   func() time.Time
	newID func() string
}

// NewBuilder creates an entry builder that resolves timestamps with times
func NewBuilder(times *TimeNormalizer) *Builder {
	if times == nil {
		times = NewTimeNormalizer(nil)
	}
	return &Builder{
		times: times,
		now:   time.Now,
		newID: uuid.NewString,
	}
}

// Times exposes the normalizer used for timestamp fields
func (b *Builder) Times() *TimeNormalizer {
	return b.times
}

// Construct builds an entry for owner. Construction is all-or-nothing: the first
// failing field is reported as a *ValidationError and no entry is returned.
func (b *Builder) Construct(owner string, in Input, loc *time.Location) (*Entry, error) {
	owner = strings.TrimSpace(owner)
	if owner == "" {
		return nil, &ValidationError{Field: "user_id", Reason: "is required"}
	}

	symptom := strings.TrimSpace(in.Symptom)
	if symptom == "" {
		return nil, &ValidationError{Field: "symptom", Reason: "is required"}
	}

	severity, err := NormalizeSeverity(in.SeverityRaw)
	if err != nil {
		return nil, &ValidationError{Field: "severity", Value: in.SeverityRaw, Err: err}
	}

	if in.SeverityScore != nil && (*in.SeverityScore < 0 || *in.SeverityScore > 10) {
		return nil, &ValidationError{
			Field:  "severity_score",
			Value:  fmt.Sprint(*in.SeverityScore),
			Reason: "must be between 0 and 10",
		}
	}

	if strings.TrimSpace(in.StartedRaw) == "" {
		return nil, &ValidationError{Field: "started_at", Reason: "is required"}
	}
	startedAt, err := b.times.Normalize(in.StartedRaw, loc)
	if err != nil {
		return nil, &ValidationError{Field: "started_at", Value: in.StartedRaw, Err: err}
	}

	var endedAt *time.Time
	if strings.TrimSpace(in.EndedRaw) != "" {
		t, err := b.times.Normalize(in.EndedRaw, loc)
		if err != nil {
			return nil, &ValidationError{Field: "ended_at", Value: in.EndedRaw, Err: err}
		}
		endedAt = &t
	}

	medicines, err := ParseMedicines(in.MedicinesRaw)
	if err != nil {
		return nil, err
	}

	if endedAt != nil && startedAt.After(*endedAt) {
		return nil, &ValidationError{Reason: "started_at must be before or equal to ended_at"}
	}

	return &Entry{
		ID:             b.newID(),
		OwnerID:        owner,
		CreatedAt:      b.now().UTC(),
		Symptom:        symptom,
		Severity:       severity,
		SeverityScore:  in.SeverityScore,
		StartedAt:      startedAt,
		EndedAt:        endedAt,
		Location:       strings.TrimSpace(in.Location),
		MedicinesTaken: medicines,
		Notes:          strings.TrimSpace(in.Notes),
	}, nil
}

// ParseMedicines accepts a comma-separated string or a list and returns the
// trimmed, non-empty names in order.
func ParseMedicines(raw any) ([]string, error) {
	switch v := raw.(type) {
	case nil:
		return nil, nil
	case string:
		return keepNonEmpty(strings.Split(v, ",")), nil
	case []string:
		return keepNonEmpty(v), nil
	case []any:
		items := make([]string, 0, len(v))
		for _, item := range v {
			if item == nil {
				continue
			}
			items = append(items, fmt.Sprint(item))
		}
		return keepNonEmpty(items), nil
	default:
		return nil, &ValidationError{
			Field:  "medicines_taken",
			Value:  fmt.Sprintf("%T", raw),
			Reason: "must be a comma-separated string or a list",
		}
	}
}

func keepNonEmpty(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s := strings.TrimSpace(item); s != "" {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
