package db

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/themobileprof/healthtrack-be/internal/symptoms"
)

func newMockDB(t *testing.T) (*DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	t.Cleanup(func() { sqlDB.Close() })
	return Wrap(sqlDB, DialectPostgres), mock
}

func TestResolveURL(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name        string
		url         string
		wantDialect Dialect
		wantDriver  string
		wantErr     bool
	}{
		{"postgres scheme", "postgres://u:p@localhost/db", DialectPostgres, "postgres", false},
		{"postgresql scheme", "postgresql://localhost/db", DialectPostgres, "postgres", false},
		{"plain path", dir + "/data/health.db", DialectSQLite, "sqlite", false},
		{"sqlite scheme", "sqlite://" + dir + "/x.db", DialectSQLite, "sqlite", false},
		{"empty", "  ", DialectSQLite, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dialect, driver, dsn, err := resolveURL(tt.url)
			if (err != nil) != tt.wantErr {
				t.Fatalf("resolveURL() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if dialect != tt.wantDialect {
				t.Errorf("dialect = %v, want %v", dialect, tt.wantDialect)
			}
			if driver != tt.wantDriver {
				t.Errorf("driver = %q, want %q", driver, tt.wantDriver)
			}
			if dialect == DialectSQLite && !regexp.MustCompile(`_pragma=busy_timeout\(5000\)`).MatchString(dsn) {
				t.Errorf("sqlite dsn missing busy_timeout pragma: %s", dsn)
			}
		})
	}
}

func TestRebind(t *testing.T) {
	pg := Wrap(nil, DialectPostgres)
	lite := Wrap(nil, DialectSQLite)
	q := "SELECT 1 FROM t WHERE a = ? AND b = ? LIMIT ?"

	if got := pg.rebind(q); got != "SELECT 1 FROM t WHERE a = $1 AND b = $2 LIMIT $3" {
		t.Errorf("postgres rebind = %q", got)
	}
	if got := lite.rebind(q); got != q {
		t.Errorf("sqlite rebind changed query: %q", got)
	}
}

func TestNew_OpenFailure(t *testing.T) {
	orig := openDB
	t.Cleanup(func() { openDB = orig })
	openDB = func(driver, dsn string) (*sql.DB, error) {
		return nil, errors.New("boom")
	}

	if _, err := New(Config{URL: "postgres://localhost/db"}); err == nil {
		t.Fatal("expected error when open fails")
	}
}

func TestAddEntry_Postgres(t *testing.T) {
	db, mock := newMockDB(t)
	score := 6
	start := time.Date(2024, 7, 2, 0, 0, 0, 0, time.UTC)
	e := &symptoms.Entry{
		ID:             "e1",
		OwnerID:        "u1",
		CreatedAt:      start.Add(time.Minute),
		Symptom:        "Headache",
		Severity:       symptoms.SeverityModerate,
		SeverityScore:  &score,
		StartedAt:      start,
		MedicinesTaken: []string{"Advil"},
	}

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO symptom_entries")).
		WithArgs("e1", "u1", "Headache", "moderate", sqlmock.AnyArg(),
			"2024-07-02T00:00:00.000000000Z", sqlmock.AnyArg(),
			sqlmock.AnyArg(), `["Advil"]`, sqlmock.AnyArg(),
			e.Document(), "2024-07-02T00:01:00.000000000Z").
		WillReturnResult(sqlmock.NewResult(1, 1))

	if err := db.AddEntry(context.Background(), e); err != nil {
		t.Fatalf("AddEntry error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestListEntries_SinceFilter(t *testing.T) {
	db, mock := newMockDB(t)
	since := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)

	rows := sqlmock.NewRows([]string{
		"id", "owner_id", "symptom", "severity", "severity_score", "started_at", "ended_at",
		"location", "medicines", "notes", "created_at",
	}).AddRow("e1", "u1", "Cough", "mild", nil, "2024-07-01T08:00:00.000000000Z", nil,
		nil, "[]", nil, "2024-07-01T09:00:00.000000000Z").
		AddRow("e2", "u1", "Fever", "severe", 8, "2024-07-02T08:00:00.000000000Z", "2024-07-02T10:00:00.000000000Z",
			"forehead", `["paracetamol"]`, "chills", "2024-07-02T09:00:00.000000000Z")

	mock.ExpectQuery(regexp.QuoteMeta("COALESCE(started_at, created_at) >= $2")).
		WithArgs("u1", "2024-07-01T00:00:00.000000000Z").
		WillReturnRows(rows)

	entries, err := db.ListEntries(context.Background(), "u1", &since)
	if err != nil {
		t.Fatalf("ListEntries error = %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}

	if entries[0].SeverityScore != nil || entries[0].EndedAt != nil || entries[0].MedicinesTaken != nil {
		t.Errorf("first entry should have no optional fields: %+v", entries[0])
	}
	second := entries[1]
	if second.SeverityScore == nil || *second.SeverityScore != 8 {
		t.Errorf("SeverityScore = %v", second.SeverityScore)
	}
	if d, ok := second.Duration(); !ok || d != 2*time.Hour {
		t.Errorf("Duration = %v, %v", d, ok)
	}
	if second.Location != "forehead" || second.Notes != "chills" {
		t.Errorf("optional text fields = %q, %q", second.Location, second.Notes)
	}
	if len(second.MedicinesTaken) != 1 || second.MedicinesTaken[0] != "paracetamol" {
		t.Errorf("MedicinesTaken = %v", second.MedicinesTaken)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestGetEntry_NotFound(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM symptom_entries WHERE id = $1")).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := db.GetEntry(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestSearchEntries_Postgres(t *testing.T) {
	db, mock := newMockDB(t)

	rows := sqlmock.NewRows([]string{
		"id", "owner_id", "symptom", "severity", "severity_score", "started_at", "ended_at",
		"location", "medicines", "notes", "created_at", "document", "score",
	}).AddRow("e1", "u1", "Headache", "mild", nil, "2024-07-01T08:00:00.000000000Z", nil,
		nil, "[]", nil, "2024-07-01T09:00:00.000000000Z", "Symptom: Headache\n", 0.42)

	mock.ExpectQuery(regexp.QuoteMeta("to_tsquery('english', $1)")).
		WithArgs("headache | migraine", "u1", "headache | migraine", 8).
		WillReturnRows(rows)

	results, err := db.SearchEntries(context.Background(), "u1", []string{"headache", "migraine"}, 8)
	if err != nil {
		t.Fatalf("SearchEntries error = %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("got %d results, want 1", len(results))
	}
	if results[0].Score != 0.42 || results[0].Document != "Symptom: Headache\n" {
		t.Errorf("result = %+v", results[0])
	}
}

func TestSearchEntries_NoTerms(t *testing.T) {
	db, mock := newMockDB(t)

	results, err := db.SearchEntries(context.Background(), "u1", nil, 5)
	if err != nil || results != nil {
		t.Errorf("SearchEntries(nil terms) = %v, %v", results, err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("no query expected: %v", err)
	}
}
