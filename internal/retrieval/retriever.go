package retrieval

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/themobileprof/healthtrack-be/internal/db"
)

// Snippet is one ranked piece of a user's history
type Snippet struct {
	Text     string            `json:"text"`
	Score    float64           `json:"score"`
	Metadata map[string]string `json:"metadata"`
}

// Retriever returns at most k snippets relevant to question, best first
type Retriever interface {
	Query(ctx context.Context, owner, question string, k int) ([]Snippet, error)
}

// Searcher is the slice of the store used for retrieval
type Searcher interface {
	SearchEntries(ctx context.Context, owner string, terms []string, limit int) ([]db.SearchResult, error)
}

// FullText ranks entries with the store's full-text index
type FullText struct {
	store Searcher
}

var _ Retriever = (*FullText)(nil)

// NewFullText creates a retriever over store
func NewFullText(store Searcher) *FullText {
	return &FullText{store: store}
}

// Query implements Retriever
func (r *FullText) Query(ctx context.Context, owner, question string, k int) ([]Snippet, error) {
	terms := Terms(question)
	if len(terms) == 0 || k <= 0 {
		return nil, nil
	}

	results, err := r.store.SearchEntries(ctx, owner, terms, k)
	if err != nil {
		return nil, fmt.Errorf("failed to query snippets: %w", err)
	}

	snippets := make([]Snippet, 0, len(results))
	for _, res := range results {
		snippets = append(snippets, Snippet{
			Text:     res.Document,
			Score:    res.Score,
			Metadata: metadata(res),
		})
	}
	return snippets, nil
}

func metadata(res db.SearchResult) map[string]string {
	e := res.Entry
	md := map[string]string{
		"id":         e.ID,
		"symptom":    e.Symptom,
		"severity":   e.Severity.String(),
		"started_at": e.StartedAt.UTC().Format(time.RFC3339),
	}
	if e.EndedAt != nil {
		md["ended_at"] = e.EndedAt.UTC().Format(time.RFC3339)
	}
	if e.Location != "" {
		md["location"] = e.Location
	}
	return md
}

var stopwords = map[string]bool{
	"the": true, "and": true, "for": true, "are": true, "was": true, "were": true,
	"what": true, "when": true, "how": true, "have": true, "has": true, "had": true,
	"with": true, "this": true, "that": true, "from": true, "about": true, "any": true,
	"all": true, "been": true, "did": true, "does": true, "you": true, "your": true,
	"mine": true, "can": true, "please": true, "give": true, "tell": true, "show": true,
	"recent": true, "recently": true, "last": true, "past": true, "week": true, "weeks": true,
	"day": true, "days": true, "summarize": true, "summary": true, "symptoms": true,
	"symptom": true, "doctor": true, "overview": true, "into": true, "there": true,
}

// Terms splits a question into lower-cased search words, dropping stopwords,
// words under three characters and duplicates.
func Terms(question string) []string {
	words := strings.FieldsFunc(strings.ToLower(question), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	seen := make(map[string]bool, len(words))
	var terms []string
	for _, w := range words {
		if len([]rune(w)) < 3 || stopwords[w] || seen[w] {
			continue
		}
		seen[w] = true
		terms = append(terms, w)
	}
	return terms
}
