package journal

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/themobileprof/healthtrack-be/internal/db"
	"github.com/themobileprof/healthtrack-be/internal/retrieval"
	"github.com/themobileprof/healthtrack-be/internal/summary"
	"github.com/themobileprof/healthtrack-be/internal/symptoms"
)

type countingRetriever struct {
	calls int
}

func (r *countingRetriever) Query(ctx context.Context, owner, question string, k int) ([]retrieval.Snippet, error) {
	r.calls++
	return nil, nil
}

type testStack struct {
	svc       *Service
	store     *db.DB
	retriever *countingRetriever
}

func newTestStack(t *testing.T, now time.Time) *testStack {
	t.Helper()

	store, err := db.New(db.Config{URL: filepath.Join(t.TempDir(), "journal.db")})
	if err != nil {
		t.Fatalf("db.New error = %v", err)
	}
	t.Cleanup(func() { store.Close() })

	r := &countingRetriever{}
	summarizer := summary.New(summary.Config{Store: store, Retriever: r})
	builder := symptoms.NewBuilder(symptoms.NewTimeNormalizer(func() time.Time { return now }))

	return &testStack{
		svc:       NewService(store, builder, summarizer, time.UTC),
		store:     store,
		retriever: r,
	}
}

func TestService_LogText_EndToEnd(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Fatalf("LoadLocation: %v", err)
	}
	now := time.Date(2024, 7, 1, 21, 30, 0, 0, ny)
	st := newTestStack(t, now)
	ctx := context.Background()

	entry, err := st.svc.LogText(ctx, "u1", "Headache 6/10 since 8pm, 2h, took Advil", "America/New_York")
	if err != nil {
		t.Fatalf("LogText error = %v", err)
	}

	stored, err := st.svc.Get(ctx, entry.ID)
	if err != nil {
		t.Fatalf("Get error = %v", err)
	}

	wantStart := time.Date(2024, 7, 1, 20, 0, 0, 0, ny).UTC()
	if !stored.StartedAt.Equal(wantStart) {
		t.Errorf("StartedAt = %v, want %v", stored.StartedAt, wantStart)
	}
	if stored.StartedAt.Location() != time.UTC {
		t.Errorf("StartedAt not UTC: %v", stored.StartedAt.Location())
	}
	if stored.Symptom != "Headache 6/10 since 8pm, 2h, took Advil" {
		t.Errorf("Symptom = %q", stored.Symptom)
	}
	if stored.OwnerID != "u1" || stored.Severity != symptoms.SeverityNone {
		t.Errorf("owner/severity = %q/%q", stored.OwnerID, stored.Severity)
	}
	if stored.SeverityScore == nil || *stored.SeverityScore != 6 {
		t.Errorf("SeverityScore = %v", stored.SeverityScore)
	}
	if len(stored.MedicinesTaken) != 1 || stored.MedicinesTaken[0] != "Advil" {
		t.Errorf("MedicinesTaken = %v", stored.MedicinesTaken)
	}
}

func TestService_Log_SynonymRoundTrip(t *testing.T) {
	st := newTestStack(t, time.Date(2024, 7, 10, 12, 0, 0, 0, time.UTC))
	ctx := context.Background()

	entry, err := st.svc.Log(ctx, "u1", symptoms.Input{
		Symptom:     "Back pain",
		SeverityRaw: "intense",
		StartedRaw:  "yesterday",
	}, "")
	if err != nil {
		t.Fatalf("Log error = %v", err)
	}

	stored, err := st.svc.Get(ctx, entry.ID)
	if err != nil {
		t.Fatalf("Get error = %v", err)
	}
	if stored.Severity != symptoms.SeveritySevere {
		t.Errorf("Severity = %q, want severe", stored.Severity)
	}
}

func TestService_Log_ValidationIsAllOrNothing(t *testing.T) {
	st := newTestStack(t, time.Date(2024, 7, 10, 12, 0, 0, 0, time.UTC))
	ctx := context.Background()

	_, err := st.svc.Log(ctx, "u1", symptoms.Input{
		Symptom:     "Cramp",
		SeverityRaw: "mild",
		StartedRaw:  "2024-07-09 10:00",
		EndedRaw:    "2024-07-09 09:00",
	}, "")
	if !IsUserError(err) {
		t.Fatalf("error = %v, want user error", err)
	}

	entries, err := st.svc.List(ctx, "u1", "", "")
	if err != nil {
		t.Fatalf("List error = %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("rejected entry was stored: %+v", entries)
	}
}

func TestService_List_SinceIsInclusive(t *testing.T) {
	st := newTestStack(t, time.Date(2024, 7, 10, 12, 0, 0, 0, time.UTC))
	ctx := context.Background()

	for _, start := range []string{"2024-06-30 23:59", "2024-07-01 00:00", "2024-07-02 09:00"} {
		if _, err := st.svc.Log(ctx, "u1", symptoms.Input{Symptom: "Cough", SeverityRaw: "mild", StartedRaw: start}, "UTC"); err != nil {
			t.Fatalf("Log(%s) error = %v", start, err)
		}
	}
	if _, err := st.svc.Log(ctx, "u2", symptoms.Input{Symptom: "Rash", SeverityRaw: "mild", StartedRaw: "2024-07-05 09:00"}, "UTC"); err != nil {
		t.Fatalf("Log(u2) error = %v", err)
	}

	entries, err := st.svc.List(ctx, "u1", "2024-07-01T00:00:00", "UTC")
	if err != nil {
		t.Fatalf("List error = %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2: %+v", len(entries), entries)
	}
	since := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)
	for _, e := range entries {
		if e.StartedAt.Before(since) || e.OwnerID != "u1" {
			t.Errorf("unexpected entry %+v", e)
		}
	}
}

func TestService_List_InvalidParameters(t *testing.T) {
	st := newTestStack(t, time.Now())
	ctx := context.Background()

	tests := []struct {
		name      string
		owner     string
		since     string
		wantParam string
	}{
		{"unparseable since", "u1", "whenever-ish", "since"},
		{"missing owner", "  ", "", "user_id"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := st.svc.List(ctx, tt.owner, tt.since, "")
			var paramErr *InvalidParameterError
			if !errors.As(err, &paramErr) {
				t.Fatalf("error = %v, want InvalidParameterError", err)
			}
			if paramErr.Name != tt.wantParam {
				t.Errorf("Name = %q, want %q", paramErr.Name, tt.wantParam)
			}
			if !IsUserError(err) {
				t.Error("expected user error")
			}
		})
	}
}

func TestService_Summarize(t *testing.T) {
	st := newTestStack(t, time.Date(2024, 7, 10, 12, 0, 0, 0, time.UTC))
	ctx := context.Background()

	got, err := st.svc.Summarize(ctx, "u1", "", 0)
	if err != nil {
		t.Fatalf("Summarize error = %v", err)
	}
	if got != "No entries found for this user." {
		t.Errorf("Summarize = %q", got)
	}
	if st.retriever.calls != 0 {
		t.Errorf("retriever called %d times for a user with no entries", st.retriever.calls)
	}

	_, err = st.svc.Summarize(ctx, "u1", "", 91)
	var paramErr *InvalidParameterError
	if !errors.As(err, &paramErr) || paramErr.Name != "days" {
		t.Errorf("days=91 error = %v, want InvalidParameterError(days)", err)
	}
}

func TestService_Get_NotFound(t *testing.T) {
	st := newTestStack(t, time.Now())

	_, err := st.svc.Get(context.Background(), "missing")
	if !errors.Is(err, db.ErrNotFound) {
		t.Errorf("error = %v, want db.ErrNotFound", err)
	}
	if IsUserError(err) {
		t.Error("not-found should not be classified as a user error")
	}
}
