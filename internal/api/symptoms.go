package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/themobileprof/healthtrack-be/internal/chat"
	"github.com/themobileprof/healthtrack-be/internal/journal"
	"github.com/themobileprof/healthtrack-be/internal/summary"
	"github.com/themobileprof/healthtrack-be/internal/symptoms"
)

// Journal is what the handlers need from the journal service
type Journal interface {
	Log(ctx context.Context, owner string, in symptoms.Input, tz string) (*symptoms.Entry, error)
	LogText(ctx context.Context, owner, text, tz string) (*symptoms.Entry, error)
	List(ctx context.Context, owner, since, tz string) ([]symptoms.Entry, error)
	Get(ctx context.Context, id string) (*symptoms.Entry, error)
	Summarize(ctx context.Context, owner, question string, days int) (string, error)
}

// Router routes free text the way the chat surface does
type Router interface {
	Route(ctx context.Context, req chat.Request) (*chat.Response, error)
}

// SymptomHandler handles symptom journal API endpoints
type SymptomHandler struct {
	journal Journal
	router  Router
}

// NewSymptomHandler creates a new symptom handler
func NewSymptomHandler(j Journal, router Router) *SymptomHandler {
	return &SymptomHandler{
		journal: j,
		router:  router,
	}
}

// TextRequest is the body of POST /api/log and POST /api/route
type TextRequest struct {
	UserID   string `json:"user_id" binding:"required"`
	Text     string `json:"text" binding:"required"`
	Timezone string `json:"timezone"`
}

// EntryRequest is the body of POST /api/entries
type EntryRequest struct {
	UserID        string `json:"user_id" binding:"required"`
	Symptom       string `json:"symptom" binding:"required"`
	Severity      string `json:"severity"`
	SeverityScore *int   `json:"severity_score"`
	StartedAt     string `json:"started_at" binding:"required"`
	EndedAt       string `json:"ended_at"`
	Location      string `json:"location"`
	Medicines     any    `json:"medicines"`
	Notes         string `json:"notes"`
	Timezone      string `json:"timezone"`
}

// LogText drafts an entry from free text
// POST /api/log
func (h *SymptomHandler) LogText(c *gin.Context) {
	var req TextRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id and text are required"})
		return
	}

	entry, err := h.journal.LogText(c.Request.Context(), req.UserID, req.Text, req.Timezone)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"entry":   entry,
		"message": journal.Confirmation(entry),
	})
}

// CreateEntry stores a structured entry
// POST /api/entries
func (h *SymptomHandler) CreateEntry(c *gin.Context) {
	var req EntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id, symptom and started_at are required"})
		return
	}

	entry, err := h.journal.Log(c.Request.Context(), req.UserID, symptoms.Input{
		Symptom:       req.Symptom,
		SeverityRaw:   req.Severity,
		SeverityScore: req.SeverityScore,
		StartedRaw:    req.StartedAt,
		EndedRaw:      req.EndedAt,
		Location:      req.Location,
		MedicinesRaw:  req.Medicines,
		Notes:         req.Notes,
	}, req.Timezone)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, entry)
}

// ListEntries returns a user's entries
// GET /api/entries?user_id=u1&since=yesterday&timezone=Europe/Berlin
func (h *SymptomHandler) ListEntries(c *gin.Context) {
	entries, err := h.journal.List(c.Request.Context(), c.Query("user_id"), c.Query("since"), c.Query("timezone"))
	if err != nil {
		respondError(c, err)
		return
	}
	if entries == nil {
		entries = []symptoms.Entry{}
	}

	c.JSON(http.StatusOK, gin.H{
		"entries": entries,
		"count":   len(entries),
	})
}

// GetEntry returns one entry by id
// GET /api/entries/:id
func (h *SymptomHandler) GetEntry(c *gin.Context) {
	entry, err := h.journal.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, entry)
}

// GetSummary summarizes a user's recent entries
// GET /api/summary?user_id=u1&days=7&question=...
func (h *SymptomHandler) GetSummary(c *gin.Context) {
	days, err := parseDays(c.Query("days"))
	if err != nil {
		respondError(c, err)
		return
	}

	text, err := h.journal.Summarize(c.Request.Context(), c.Query("user_id"), c.Query("question"), days)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"summary": text})
}

// Route runs a message through the intent router
// POST /api/route
func (h *SymptomHandler) Route(c *gin.Context) {
	var req TextRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id and text are required"})
		return
	}

	resp, err := h.router.Route(c.Request.Context(), chat.Request{
		UserID:   req.UserID,
		Message:  req.Text,
		Timezone: req.Timezone,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// Health reports liveness
// GET /health
func Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

// parseDays reads the optional days window. Absent means no window.
func parseDays(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	days, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &journal.InvalidParameterError{Name: "days", Value: raw, Err: err}
	}
	if days < 1 || days > summary.MaxDays {
		return 0, &journal.InvalidParameterError{Name: "days", Value: raw, Err: fmt.Errorf("must be between 1 and %d", summary.MaxDays)}
	}
	return days, nil
}
