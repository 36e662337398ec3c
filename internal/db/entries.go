package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/themobileprof/healthtrack-be/internal/symptoms"
)

var ErrNotFound = errors.New("record not found")

// timeLayout is fixed-width so lexical order matches chronological order
const timeLayout = "2006-01-02T15:04:05.000000000Z"

const entryColumns = `id, owner_id, symptom, severity, severity_score, started_at, ended_at,
	location, medicines, notes, created_at`

// SearchResult is one full-text hit with its stored document and relevance
type SearchResult struct {
	Entry    symptoms.Entry
	Document string
	Score    float64
}

// AddEntry persists a validated entry together with its retrieval document
func (db *DB) AddEntry(ctx context.Context, e *symptoms.Entry) error {
	medicines := e.MedicinesTaken
	if medicines == nil {
		medicines = []string{}
	}
	medsJSON, err := json.Marshal(medicines)
	if err != nil {
		return fmt.Errorf("failed to encode medicines: %w", err)
	}

	var score sql.NullInt64
	if e.SeverityScore != nil {
		score = sql.NullInt64{Int64: int64(*e.SeverityScore), Valid: true}
	}
	var endedAt sql.NullString
	if e.EndedAt != nil {
		endedAt = sql.NullString{String: formatTime(*e.EndedAt), Valid: true}
	}

	query := db.rebind(`
		INSERT INTO symptom_entries
			(id, owner_id, symptom, severity, severity_score, started_at, ended_at,
			 location, medicines, notes, document, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)

	_, err = db.ExecContext(ctx, query,
		e.ID, e.OwnerID, e.Symptom, string(e.Severity), score,
		formatTime(e.StartedAt), endedAt,
		nullString(e.Location), string(medsJSON), nullString(e.Notes),
		e.Document(), formatTime(e.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert entry: %w", err)
	}
	return nil
}

// ListEntries returns owner's entries in insertion order. When since is set only
// entries whose start (or creation time, if unset) is at or after it are returned.
func (db *DB) ListEntries(ctx context.Context, owner string, since *time.Time) ([]symptoms.Entry, error) {
	query := `SELECT ` + entryColumns + ` FROM symptom_entries WHERE owner_id = ?`
	args := []any{owner}
	if since != nil {
		query += ` AND COALESCE(started_at, created_at) >= ?`
		args = append(args, formatTime(*since))
	}
	query += ` ORDER BY created_at, id`

	rows, err := db.QueryContext(ctx, db.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list entries: %w", err)
	}
	defer rows.Close()

	var entries []symptoms.Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read entries: %w", err)
	}

	return entries, nil
}

// GetEntry retrieves a single entry by id
func (db *DB) GetEntry(ctx context.Context, id string) (*symptoms.Entry, error) {
	query := db.rebind(`SELECT ` + entryColumns + ` FROM symptom_entries WHERE id = ?`)

	e, err := scanEntry(db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return e, nil
}

// SearchEntries runs a full-text query over owner's documents, best match first.
// Terms are OR-ed together; an empty term list returns no results.
func (db *DB) SearchEntries(ctx context.Context, owner string, terms []string, limit int) ([]SearchResult, error) {
	if len(terms) == 0 || limit <= 0 {
		return nil, nil
	}

	var (
		query string
		args  []any
	)
	switch db.dialect {
	case DialectPostgres:
		tsquery := strings.Join(terms, " | ")
		query = `
			SELECT ` + entryColumns + `, document,
				ts_rank(to_tsvector('english', document), to_tsquery('english', ?)) AS score
			FROM symptom_entries
			WHERE owner_id = ? AND to_tsvector('english', document) @@ to_tsquery('english', ?)
			ORDER BY score DESC, created_at DESC
			LIMIT ?
		`
		args = []any{tsquery, owner, tsquery, limit}
	default:
		quoted := make([]string, len(terms))
		for i, t := range terms {
			quoted[i] = `"` + strings.ReplaceAll(t, `"`, `""`) + `"`
		}
		query = `
			SELECT ` + prefixColumns("e.") + `, e.document, -entries_fts.rank AS score
			FROM entries_fts
			JOIN symptom_entries e ON e.rowid = entries_fts.rowid
			WHERE entries_fts MATCH ? AND e.owner_id = ?
			ORDER BY entries_fts.rank
			LIMIT ?
		`
		args = []any{strings.Join(quoted, " OR "), owner, limit}
	}

	rows, err := db.QueryContext(ctx, db.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to search entries: %w", err)
	}
	defer rows.Close()

	var results []SearchResult
	for rows.Next() {
		var r SearchResult
		e, err := scanEntry(rows, &r.Document, &r.Score)
		if err != nil {
			return nil, err
		}
		r.Entry = *e
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read search results: %w", err)
	}

	return results, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner, extra ...any) (*symptoms.Entry, error) {
	var (
		e         symptoms.Entry
		severity  string
		score     sql.NullInt64
		startedAt string
		endedAt   sql.NullString
		location  sql.NullString
		medicines string
		notes     sql.NullString
		createdAt string
	)

	dest := append([]any{
		&e.ID, &e.OwnerID, &e.Symptom, &severity, &score, &startedAt, &endedAt,
		&location, &medicines, &notes, &createdAt,
	}, extra...)
	if err := row.Scan(dest...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan entry: %w", err)
	}

	var err error
	e.Severity = symptoms.Severity(severity)
	if score.Valid {
		v := int(score.Int64)
		e.SeverityScore = &v
	}
	if e.StartedAt, err = parseTime(startedAt); err != nil {
		return nil, err
	}
	if endedAt.Valid {
		t, err := parseTime(endedAt.String)
		if err != nil {
			return nil, err
		}
		e.EndedAt = &t
	}
	if e.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	e.Location = location.String
	e.Notes = notes.String
	if medicines != "" {
		if err := json.Unmarshal([]byte(medicines), &e.MedicinesTaken); err != nil {
			return nil, fmt.Errorf("failed to decode medicines for %s: %w", e.ID, err)
		}
		if len(e.MedicinesTaken) == 0 {
			e.MedicinesTaken = nil
		}
	}

	return &e, nil
}

func prefixColumns(prefix string) string {
	cols := strings.Split(entryColumns, ",")
	for i, c := range cols {
		cols[i] = prefix + strings.TrimSpace(c)
	}
	return strings.Join(cols, ", ")
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid stored time %q: %w", s, err)
	}
	return t, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
