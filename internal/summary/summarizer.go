package summary

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/themobileprof/healthtrack-be/internal/circuitbreaker"
	"github.com/themobileprof/healthtrack-be/internal/fallback"
	"github.com/themobileprof/healthtrack-be/internal/privacy"
	"github.com/themobileprof/healthtrack-be/internal/prompt"
	"github.com/themobileprof/healthtrack-be/internal/retrieval"
	"github.com/themobileprof/healthtrack-be/internal/symptoms"
	"github.com/themobileprof/healthtrack-be/pkg/llm"

	log "github.com/sirupsen/logrus"
)

const (
	DefaultQuestion = "Summarize my recent symptoms."

	// RecentLimit is how many of the newest entries a summary covers
	RecentLimit = 5
	// RetrievalK is how many snippets are requested from retrieval
	RetrievalK = 8
	// MaxDays bounds the optional look-back window
	MaxDays = 90

	temperature = 0.3
)

// ErrInvalidDays is returned for a window outside 1..MaxDays
var ErrInvalidDays = errors.New("days must be between 1 and 90")

// EntryLister is the slice of the store the summarizer reads from
type EntryLister interface {
	ListEntries(ctx context.Context, owner string, since *time.Time) ([]symptoms.Entry, error)
}

// Request describes one summary. Days of zero means no window.
type Request struct {
	Owner    string
	Question string
	Days     int
}

// Summarizer produces short summaries of a user's recent entries
type Summarizer struct {
	store     EntryLister
	retriever retrieval.Retriever
	llm       llm.Client
	breaker   *circuitbreaker.CircuitBreaker
	prompts   *prompt.Builder
	timeout   time.Duration
	now       func() time.Time
}

// Config configures a Summarizer. LLM may be nil, in which case summaries are
// always the plain bullet list.
type Config struct {
	Store     EntryLister
	Retriever retrieval.Retriever
	LLM       llm.Client
	Breaker   *circuitbreaker.CircuitBreaker
	Timeout   time.Duration
}

// New creates a summarizer
func New(cfg Config) *Summarizer {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.Breaker == nil {
		cfg.Breaker = circuitbreaker.NewCircuitBreaker("summary-llm", 5, 5*time.Minute)
	}
	return &Summarizer{
		store:     cfg.Store,
		retriever: cfg.Retriever,
		llm:       cfg.LLM,
		breaker:   cfg.Breaker,
		prompts:   prompt.NewBuilder(),
		timeout:   cfg.Timeout,
		now:       time.Now,
	}
}

// Summarize returns the summary text for req.Owner. Storage errors are
// returned; retrieval and LLM problems degrade to the bullet list.
func (s *Summarizer) Summarize(ctx context.Context, req Request) (string, error) {
	if req.Days < 0 || req.Days > MaxDays {
		return "", ErrInvalidDays
	}

	entries, err := s.store.ListEntries(ctx, req.Owner, nil)
	if err != nil {
		return "", err
	}
	if len(entries) == 0 {
		return fallback.NoEntriesForUser, nil
	}

	SortRecentFirst(entries)

	var cutoff time.Time
	if req.Days > 0 {
		cutoff = s.now().UTC().Add(-time.Duration(req.Days) * 24 * time.Hour)
		entries = startedSince(entries, cutoff)
		if len(entries) == 0 {
			return fallback.NoEntriesInWindow(req.Days), nil
		}
	}

	recent := entries
	if len(recent) > RecentLimit {
		recent = recent[:RecentLimit]
	}

	question := strings.TrimSpace(req.Question)
	if question == "" {
		question = DefaultQuestion
	}

	grounding := s.groundingContext(ctx, req.Owner, question, cutoff, recent)

	text, err := s.generate(ctx, question, grounding)
	if err != nil {
		log.WithFields(log.Fields{
			"user":  privacy.MaskOwner(req.Owner),
			"error": err,
		}).Warn("summary falling back to bullet list")
		return fallback.Bullets(recent), nil
	}
	return text, nil
}

func (s *Summarizer) groundingContext(ctx context.Context, owner, question string, cutoff time.Time, recent []symptoms.Entry) []string {
	var snippets []retrieval.Snippet
	if s.retriever != nil {
		found, err := s.retriever.Query(ctx, owner, question, RetrievalK)
		if err != nil {
			log.Printf("Retrieval failed, using recent entries: %v", err)
		}
		for _, sn := range found {
			if !cutoff.IsZero() && !withinWindow(sn, cutoff) {
				continue
			}
			snippets = append(snippets, sn)
		}
	}

	var out []string
	if len(snippets) > 0 {
		for i, sn := range snippets {
			if i == RecentLimit {
				break
			}
			out = append(out, sn.Text)
		}
		return out
	}

	for _, e := range recent {
		out = append(out, e.Document())
	}
	return out
}

func (s *Summarizer) generate(ctx context.Context, question string, grounding []string) (string, error) {
	if s.llm == nil {
		return "", errors.New("no llm configured")
	}

	messages := s.prompts.BuildSummaryPrompt(prompt.SummaryRequest{
		Question: question,
		Context:  grounding,
	})

	var text string
	err := s.breaker.Do(ctx, func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, s.timeout)
		defer cancel()

		resp, err := s.llm.ChatCompletion(ctx, llm.ChatRequest{
			Messages:    messages,
			Temperature: temperature,
		})
		if err != nil {
			return err
		}
		text = strings.TrimSpace(resp.Text())
		if text == "" {
			return llm.ErrEmptyResponse
		}
		return nil
	})
	return text, err
}

// SortRecentFirst orders entries by start time descending, using the creation
// time for entries without a start.
func SortRecentFirst(entries []symptoms.Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return effectiveTime(entries[i]).After(effectiveTime(entries[j]))
	})
}

func effectiveTime(e symptoms.Entry) time.Time {
	if e.StartedAt.IsZero() {
		return e.CreatedAt
	}
	return e.StartedAt
}

func startedSince(entries []symptoms.Entry, cutoff time.Time) []symptoms.Entry {
	var out []symptoms.Entry
	for _, e := range entries {
		if !effectiveTime(e).Before(cutoff) {
			out = append(out, e)
		}
	}
	return out
}

func withinWindow(sn retrieval.Snippet, cutoff time.Time) bool {
	started, err := time.Parse(time.RFC3339, sn.Metadata["started_at"])
	if err != nil {
		return true
	}
	return !started.Before(cutoff)
}
