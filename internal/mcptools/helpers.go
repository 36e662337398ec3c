// Package mcptools exposes the symptom journal as MCP tools.
//
// Each tool follows the same shape:
//   - a struct holding the journal, injected via constructor
//   - Definition() returns the mcp.Tool schema
//   - Handle() processes the request and returns a text result
//
// The same definitions describe the tool catalog offered to the routing
// agent, so argument parsing lives in exported helpers both paths share.
package mcptools

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/themobileprof/healthtrack-be/internal/symptoms"
)

// Tool names
const (
	ToolLogSymptom  = "log_symptom"
	ToolListEntries = "list_entries"
	ToolSummarize   = "summarize"
)

// Journal is the subset of the journal service the tools call
type Journal interface {
	Log(ctx context.Context, owner string, in symptoms.Input, tz string) (*symptoms.Entry, error)
	LogText(ctx context.Context, owner, text, tz string) (*symptoms.Entry, error)
	List(ctx context.Context, owner, since, tz string) ([]symptoms.Entry, error)
	Summarize(ctx context.Context, owner, question string, days int) (string, error)
}

// LogArgs are the parsed log_symptom arguments. When Input.Symptom is empty
// the entry is drafted from Text.
type LogArgs struct {
	Input    symptoms.Input
	Text     string
	Timezone string
}

// Structured reports whether the caller supplied the fields directly
func (a LogArgs) Structured() bool {
	return strings.TrimSpace(a.Input.Symptom) != ""
}

// ListArgs are the parsed list_entries arguments
type ListArgs struct {
	Since    string
	Timezone string
}

// SummarizeArgs are the parsed summarize arguments
type SummarizeArgs struct {
	Question string
	Days     int
}

// ParseLogArgs reads log_symptom arguments from a JSON-decoded map
func ParseLogArgs(args map[string]any) (LogArgs, error) {
	score, err := optionalInt(args, "severity_score")
	if err != nil {
		return LogArgs{}, err
	}

	return LogArgs{
		Input: symptoms.Input{
			Symptom:       stringArg(args, "symptom"),
			SeverityRaw:   stringArg(args, "severity"),
			SeverityScore: score,
			StartedRaw:    stringArg(args, "started_at"),
			EndedRaw:      stringArg(args, "ended_at"),
			Location:      stringArg(args, "location"),
			MedicinesRaw:  args["medicines_taken"],
			Notes:         stringArg(args, "notes"),
		},
		Text:     stringArg(args, "text"),
		Timezone: stringArg(args, "timezone"),
	}, nil
}

// ParseListArgs reads list_entries arguments
func ParseListArgs(args map[string]any) ListArgs {
	return ListArgs{
		Since:    stringArg(args, "since"),
		Timezone: stringArg(args, "timezone"),
	}
}

// ParseSummarizeArgs reads summarize arguments. A missing days means no window.
func ParseSummarizeArgs(args map[string]any) (SummarizeArgs, error) {
	days, err := optionalInt(args, "days")
	if err != nil {
		return SummarizeArgs{}, err
	}
	out := SummarizeArgs{Question: stringArg(args, "question")}
	if days != nil {
		out.Days = *days
	}
	return out, nil
}

func stringArg(args map[string]any, key string) string {
	switch v := args[key].(type) {
	case string:
		return strings.TrimSpace(v)
	case nil:
		return ""
	default:
		return strings.TrimSpace(fmt.Sprint(v))
	}
}

// optionalInt accepts JSON numbers (float64), ints and numeric strings
func optionalInt(args map[string]any, key string) (*int, error) {
	var n int
	switch v := args[key].(type) {
	case nil:
		return nil, nil
	case float64:
		if v != float64(int(v)) {
			return nil, &symptoms.ValidationError{Field: key, Value: fmt.Sprint(v), Reason: "must be a whole number"}
		}
		n = int(v)
	case int:
		n = v
	case string:
		if strings.TrimSpace(v) == "" {
			return nil, nil
		}
		parsed, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return nil, &symptoms.ValidationError{Field: key, Value: v, Reason: "must be a whole number"}
		}
		n = parsed
	default:
		return nil, &symptoms.ValidationError{Field: key, Value: fmt.Sprintf("%T", v), Reason: "must be a number"}
	}
	return &n, nil
}

func userArg(req mcp.CallToolRequest) string {
	return strings.TrimSpace(req.GetString("user_id", ""))
}
