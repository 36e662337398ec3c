package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/themobileprof/healthtrack-be/internal/chat"
	"github.com/themobileprof/healthtrack-be/internal/classifier"
	"github.com/themobileprof/healthtrack-be/internal/db"
	"github.com/themobileprof/healthtrack-be/internal/journal"
	"github.com/themobileprof/healthtrack-be/internal/symptoms"
)

var testStart = time.Date(2024, 7, 2, 0, 0, 0, 0, time.UTC)

type stubJournal struct {
	logInput symptoms.Input
	since    string
	days     int
	question string
	entries  []symptoms.Entry
	err      error
}

func (s *stubJournal) entry(symptom string) *symptoms.Entry {
	return &symptoms.Entry{ID: "e1", OwnerID: "u1", Symptom: symptom, Severity: symptoms.SeverityMild, StartedAt: testStart, CreatedAt: testStart}
}

func (s *stubJournal) Log(_ context.Context, _ string, in symptoms.Input, _ string) (*symptoms.Entry, error) {
	s.logInput = in
	if s.err != nil {
		return nil, s.err
	}
	return s.entry(in.Symptom), nil
}

func (s *stubJournal) LogText(_ context.Context, _ string, text, _ string) (*symptoms.Entry, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.entry(text), nil
}

func (s *stubJournal) List(_ context.Context, owner, since, _ string) ([]symptoms.Entry, error) {
	s.since = since
	if owner == "" {
		return nil, &journal.InvalidParameterError{Name: "user_id", Value: owner}
	}
	return s.entries, s.err
}

func (s *stubJournal) Get(_ context.Context, id string) (*symptoms.Entry, error) {
	if id != "e1" {
		return nil, db.ErrNotFound
	}
	return s.entry("Headache"), nil
}

func (s *stubJournal) Summarize(_ context.Context, _ string, question string, days int) (string, error) {
	s.question, s.days = question, days
	return "All quiet.", s.err
}

func newTestRouter(j *stubJournal, token string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := chat.NewEngine(classifier.NewClassifier(), j, nil)
	return NewRouter(RouterConfig{
		Symptoms:    NewSymptomHandler(j, engine),
		APIToken:    token,
		CORSOrigins: []string{"*"},
	})
}

func do(r http.Handler, method, url, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, url, bytes.NewReader([]byte(body)))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("invalid JSON %q: %v", w.Body.String(), err)
	}
	return out
}

func TestHealth(t *testing.T) {
	w := do(newTestRouter(&stubJournal{}, "secret"), http.MethodGet, "/health", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if decode(t, w)["status"] != "healthy" {
		t.Errorf("body = %s", w.Body.String())
	}
}

func TestAuthRequired(t *testing.T) {
	w := do(newTestRouter(&stubJournal{}, "secret"), http.MethodGet, "/api/entries?user_id=u1", "")
	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
}

func TestQueryTokenOnlyOnWebsocket(t *testing.T) {
	gin.SetMode(gin.TestMode)
	j := &stubJournal{}
	var logs bytes.Buffer
	r := NewRouter(RouterConfig{
		Symptoms:  NewSymptomHandler(j, chat.NewEngine(classifier.NewClassifier(), j, nil)),
		Chat:      func(c *gin.Context) { c.Status(http.StatusOK) },
		APIToken:  "s3cret",
		LogOutput: &logs,
	})

	if w := do(r, http.MethodGet, "/api/entries/x?token=s3cret", ""); w.Code != http.StatusUnauthorized {
		t.Errorf("api with query token status = %d, want 401", w.Code)
	}
	if w := do(r, http.MethodGet, "/ws/chat?user_id=u1&token=s3cret", ""); w.Code != http.StatusOK {
		t.Errorf("websocket with query token status = %d, want 200", w.Code)
	}

	if strings.Contains(logs.String(), "s3cret") {
		t.Errorf("token leaked into access log:\n%s", logs.String())
	}
	if !strings.Contains(logs.String(), "token=[REDACTED]") {
		t.Errorf("access log = %q", logs.String())
	}
}

func TestLogText(t *testing.T) {
	r := newTestRouter(&stubJournal{}, "")

	w := do(r, http.MethodPost, "/api/log", `{"user_id":"u1","text":"Headache 6/10 since 8pm","timezone":"America/New_York"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d body=%s", w.Code, w.Body.String())
	}
	body := decode(t, w)
	if !strings.HasPrefix(body["message"].(string), "Logged: Headache") {
		t.Errorf("message = %v", body["message"])
	}
	entry := body["entry"].(map[string]any)
	if entry["started_at"] != "2024-07-02T00:00:00Z" || entry["severity"] != "mild" {
		t.Errorf("entry = %v", entry)
	}

	w = do(r, http.MethodPost, "/api/log", `{"user_id":"u1"}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("missing text status = %d", w.Code)
	}
}

func TestCreateEntry(t *testing.T) {
	j := &stubJournal{}
	r := newTestRouter(j, "")

	w := do(r, http.MethodPost, "/api/entries",
		`{"user_id":"u1","symptom":"Cough","severity":"light","started_at":"2024-07-02 08:00","medicines":["honey"," "]}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d body=%s", w.Code, w.Body.String())
	}
	if j.logInput.SeverityRaw != "light" || j.logInput.StartedRaw != "2024-07-02 08:00" {
		t.Errorf("input = %+v", j.logInput)
	}
	if meds, ok := j.logInput.MedicinesRaw.([]any); !ok || len(meds) != 2 {
		t.Errorf("MedicinesRaw = %#v", j.logInput.MedicinesRaw)
	}
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantBody   string
	}{
		{"invalid severity", &symptoms.InvalidSeverityError{Raw: "extreme"}, http.StatusBadRequest, "extreme"},
		{"unparseable time", &symptoms.UnparseableTimeError{Text: "someday"}, http.StatusBadRequest, "someday"},
		{"validation", &symptoms.ValidationError{Field: "ended_at", Reason: "started_at must be before or equal to ended_at"}, http.StatusBadRequest, "ended_at"},
		{"internal", errors.New("pq: connection refused"), http.StatusInternalServerError, "Internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newTestRouter(&stubJournal{err: tt.err}, "")
			w := do(r, http.MethodPost, "/api/entries", `{"user_id":"u1","symptom":"x","severity":"mild","started_at":"now"}`)

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			if !strings.Contains(w.Body.String(), tt.wantBody) {
				t.Errorf("body = %s, want it to contain %q", w.Body.String(), tt.wantBody)
			}
			if tt.wantStatus == http.StatusInternalServerError && strings.Contains(w.Body.String(), "pq") {
				t.Errorf("internal error leaked: %s", w.Body.String())
			}
		})
	}
}

func TestListEntries(t *testing.T) {
	j := &stubJournal{}
	j.entries = []symptoms.Entry{*j.entry("Headache"), *j.entry("Cough")}
	r := newTestRouter(j, "")

	w := do(r, http.MethodGet, "/api/entries?user_id=u1&since=2024-07-01T00:00:00", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	body := decode(t, w)
	if body["count"].(float64) != 2 || len(body["entries"].([]any)) != 2 {
		t.Errorf("body = %v", body)
	}
	if j.since != "2024-07-01T00:00:00" {
		t.Errorf("since = %q", j.since)
	}

	empty := newTestRouter(&stubJournal{}, "")
	w = do(empty, http.MethodGet, "/api/entries?user_id=u2", "")
	if !strings.Contains(w.Body.String(), `"entries":[]`) {
		t.Errorf("empty list body = %s", w.Body.String())
	}

	w = do(empty, http.MethodGet, "/api/entries", "")
	if w.Code != http.StatusBadRequest {
		t.Errorf("missing user status = %d", w.Code)
	}
}

func TestGetEntry(t *testing.T) {
	r := newTestRouter(&stubJournal{}, "")

	if w := do(r, http.MethodGet, "/api/entries/e1", ""); w.Code != http.StatusOK {
		t.Errorf("found status = %d", w.Code)
	}
	w := do(r, http.MethodGet, "/api/entries/nope", "")
	if w.Code != http.StatusNotFound {
		t.Errorf("missing status = %d", w.Code)
	}
}

func TestGetSummary(t *testing.T) {
	tests := []struct {
		query      string
		wantStatus int
		wantDays   int
	}{
		{"user_id=u1", http.StatusOK, 0},
		{"user_id=u1&days=7", http.StatusOK, 7},
		{"user_id=u1&days=90", http.StatusOK, 90},
		{"user_id=u1&days=0", http.StatusBadRequest, 0},
		{"user_id=u1&days=91", http.StatusBadRequest, 0},
		{"user_id=u1&days=week", http.StatusBadRequest, 0},
	}

	for _, tt := range tests {
		j := &stubJournal{}
		w := do(newTestRouter(j, ""), http.MethodGet, "/api/summary?"+tt.query, "")
		if w.Code != tt.wantStatus {
			t.Errorf("%s: status = %d, want %d", tt.query, w.Code, tt.wantStatus)
			continue
		}
		if tt.wantStatus == http.StatusOK {
			if decode(t, w)["summary"] != "All quiet." {
				t.Errorf("%s: body = %s", tt.query, w.Body.String())
			}
			if j.days != tt.wantDays {
				t.Errorf("%s: days = %d, want %d", tt.query, j.days, tt.wantDays)
			}
		}
	}
}

func TestRoute(t *testing.T) {
	j := &stubJournal{}
	j.entries = []symptoms.Entry{*j.entry("Headache")}
	r := newTestRouter(j, "")

	w := do(r, http.MethodPost, "/api/route", `{"user_id":"u1","text":"/entries summarize please"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	body := decode(t, w)
	if body["kind"] != "entries" || body["text"] != "1 entry found." {
		t.Errorf("body = %v", body)
	}
	if len(body["entries"].([]any)) != 1 {
		t.Errorf("entries = %v", body["entries"])
	}

	w = do(r, http.MethodPost, "/api/route", `{"user_id":"u1","text":"/sum"}`)
	if body := decode(t, w); body["kind"] != "summary" || body["text"] != "All quiet." {
		t.Errorf("summary body = %v", body)
	}
}
