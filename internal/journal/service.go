package journal

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/themobileprof/healthtrack-be/internal/privacy"
	"github.com/themobileprof/healthtrack-be/internal/summary"
	"github.com/themobileprof/healthtrack-be/internal/symptoms"

	log "github.com/sirupsen/logrus"
)

// InvalidParameterError reports a malformed query parameter such as an
// unparseable since filter
type InvalidParameterError struct {
	Name  string
	Value string
	Err   error
}

func (e *InvalidParameterError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid %s %q: %v", e.Name, e.Value, e.Err)
	}
	return fmt.Sprintf("invalid %s %q", e.Name, e.Value)
}

func (e *InvalidParameterError) Unwrap() error { return e.Err }

// IsUserError reports whether err is something the caller can fix by
// changing the request
func IsUserError(err error) bool {
	var paramErr *InvalidParameterError
	return errors.As(err, &paramErr) || symptoms.IsUserError(err)
}

// Store is the persistence the journal needs
type Store interface {
	AddEntry(ctx context.Context, e *symptoms.Entry) error
	ListEntries(ctx context.Context, owner string, since *time.Time) ([]symptoms.Entry, error)
	GetEntry(ctx context.Context, id string) (*symptoms.Entry, error)
}

// Summarizer produces summary text for a user
type Summarizer interface {
	Summarize(ctx context.Context, req summary.Request) (string, error)
}

// Service is the single entry point for logging, listing and summarizing
type Service struct {
	store      Store
	builder    *symptoms.Builder
	summarizer Summarizer
	defaultLoc *time.Location
}

// NewService creates a journal service. defaultLoc is used when a request
// names no timezone or an unknown one.
func NewService(store Store, builder *symptoms.Builder, summarizer Summarizer, defaultLoc *time.Location) *Service {
	if builder == nil {
		builder = symptoms.NewBuilder(nil)
	}
	if defaultLoc == nil {
		defaultLoc = time.UTC
	}
	return &Service{
		store:      store,
		builder:    builder,
		summarizer: summarizer,
		defaultLoc: defaultLoc,
	}
}

// Location resolves an IANA timezone name, falling back to the default
func (s *Service) Location(tz string) *time.Location {
	return symptoms.LoadLocation(tz, s.defaultLoc)
}

// Log validates a structured entry and persists it
func (s *Service) Log(ctx context.Context, owner string, in symptoms.Input, tz string) (*symptoms.Entry, error) {
	return s.add(ctx, owner, in, s.Location(tz))
}

// LogText builds an entry from a free-text message and persists it
func (s *Service) LogText(ctx context.Context, owner, text, tz string) (*symptoms.Entry, error) {
	loc := s.Location(tz)
	return s.add(ctx, owner, s.builder.DraftFromText(text, loc), loc)
}

func (s *Service) add(ctx context.Context, owner string, in symptoms.Input, loc *time.Location) (*symptoms.Entry, error) {
	entry, err := s.builder.Construct(owner, in, loc)
	if err != nil {
		return nil, err
	}

	if err := s.store.AddEntry(ctx, entry); err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"user":     privacy.MaskOwner(owner),
		"entry_id": entry.ID,
		"severity": entry.Severity,
	}).Info("Logged symptom entry")

	return entry, nil
}

// List returns owner's entries, optionally limited to those at or after since.
// since is any expression the temporal normalizer understands.
func (s *Service) List(ctx context.Context, owner, since, tz string) ([]symptoms.Entry, error) {
	owner = strings.TrimSpace(owner)
	if owner == "" {
		return nil, &InvalidParameterError{Name: "user_id", Value: owner, Err: errors.New("is required")}
	}

	var sinceAt *time.Time
	if strings.TrimSpace(since) != "" {
		t, err := s.builder.Times().Normalize(since, s.Location(tz))
		if err != nil {
			return nil, &InvalidParameterError{Name: "since", Value: since, Err: err}
		}
		sinceAt = &t
	}

	return s.store.ListEntries(ctx, owner, sinceAt)
}

// Get returns one entry by id
func (s *Service) Get(ctx context.Context, id string) (*symptoms.Entry, error) {
	if strings.TrimSpace(id) == "" {
		return nil, &InvalidParameterError{Name: "id", Value: id, Err: errors.New("is required")}
	}
	return s.store.GetEntry(ctx, id)
}

// Summarize returns a summary of owner's recent entries. days of zero means
// no window.
func (s *Service) Summarize(ctx context.Context, owner, question string, days int) (string, error) {
	owner = strings.TrimSpace(owner)
	if owner == "" {
		return "", &InvalidParameterError{Name: "user_id", Value: owner, Err: errors.New("is required")}
	}

	text, err := s.summarizer.Summarize(ctx, summary.Request{Owner: owner, Question: question, Days: days})
	if errors.Is(err, summary.ErrInvalidDays) {
		return "", &InvalidParameterError{Name: "days", Value: fmt.Sprint(days), Err: err}
	}
	return text, err
}
