package chat

import (
	"context"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/themobileprof/healthtrack-be/internal/agent"
	"github.com/themobileprof/healthtrack-be/internal/classifier"
	"github.com/themobileprof/healthtrack-be/internal/fallback"
	"github.com/themobileprof/healthtrack-be/internal/journal"
	"github.com/themobileprof/healthtrack-be/internal/mcptools"
	"github.com/themobileprof/healthtrack-be/internal/privacy"
	"github.com/themobileprof/healthtrack-be/internal/symptoms"
)

// Kind tags which action produced a Response
type Kind string

const (
	KindLogged  Kind = "logged"
	KindEntries Kind = "entries"
	KindSummary Kind = "summary"
)

// Response is the outcome of routing one message. Entry is set for logged
// responses that stored something, Entries for entries responses.
type Response struct {
	Kind    Kind             `json:"kind"`
	Text    string           `json:"text"`
	Entry   *symptoms.Entry  `json:"entry,omitempty"`
	Entries []symptoms.Entry `json:"entries,omitempty"`
}

// Responder defines the interface for sending responses to any transport
type Responder interface {
	SendMessage(content string) error
	SendEntries(entries []symptoms.Entry) error
	SendError(message string) error
	SendDone() error
}

// Request contains all data needed to route a message
type Request struct {
	UserID   string
	Message  string
	Timezone string
}

// ClassifierInterface is the heuristic router
type ClassifierInterface interface {
	Classify(text string) classifier.Decision
}

// AgentInterface is the optional LLM tool chooser
type AgentInterface interface {
	Choose(ctx context.Context, message string) (*agent.Choice, error)
}

// Engine routes chat messages to log, list or summarize independent of transport
type Engine struct {
	classifier ClassifierInterface
	journal    mcptools.Journal
	agent      AgentInterface
}

// NewEngine creates a transport-agnostic engine. ag may be nil, in which case
// only the heuristic router is used.
func NewEngine(cls ClassifierInterface, j mcptools.Journal, ag AgentInterface) *Engine {
	return &Engine{
		classifier: cls,
		journal:    j,
		agent:      ag,
	}
}

// Route decides what the message asks for and carries it out. When an agent
// is configured it goes first; any agent failure is logged and the heuristic
// router handles the same message.
func (e *Engine) Route(ctx context.Context, req Request) (*Response, error) {
	if strings.TrimSpace(req.UserID) == "" {
		return nil, &journal.InvalidParameterError{Name: "user_id", Value: req.UserID, Err: fmt.Errorf("is required")}
	}

	fields := log.Fields{
		"user":   privacy.MaskOwner(req.UserID),
		"length": len(req.Message),
	}

	if e.agent != nil {
		resp, err := e.viaAgent(ctx, req)
		if err == nil {
			log.WithFields(fields).WithField("kind", resp.Kind).Debug("Routed by agent")
			return resp, nil
		}
		log.WithFields(fields).WithError(err).Warn("Agent routing failed, using heuristic router")
	}

	return e.viaClassifier(ctx, req)
}

// ProcessMessage routes a message and sends the result through responder
func (e *Engine) ProcessMessage(ctx context.Context, req Request, responder Responder) error {
	resp, err := e.Route(ctx, req)
	if err != nil {
		if journal.IsUserError(err) {
			if sendErr := responder.SendError(err.Error()); sendErr != nil {
				return sendErr
			}
			return responder.SendDone()
		}
		log.WithError(err).Errorf("Routing failed for user=%s", privacy.MaskOwner(req.UserID))
		if sendErr := responder.SendError(fallback.Get(fallback.ReasonInternal).Content); sendErr != nil {
			return sendErr
		}
		return responder.SendDone()
	}

	if err := responder.SendMessage(resp.Text); err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	if resp.Kind == KindEntries {
		if err := responder.SendEntries(resp.Entries); err != nil {
			return fmt.Errorf("failed to send entries: %w", err)
		}
	}
	return responder.SendDone()
}

func (e *Engine) viaAgent(ctx context.Context, req Request) (*Response, error) {
	choice, err := e.agent.Choose(ctx, req.Message)
	if err != nil {
		return nil, err
	}

	switch choice.Tool {
	case mcptools.ToolLogSymptom:
		args, err := mcptools.ParseLogArgs(choice.Arguments)
		if err != nil {
			return nil, err
		}
		if args.Timezone == "" {
			args.Timezone = req.Timezone
		}
		entry, err := mcptools.Log(ctx, e.journal, req.UserID, args)
		if err != nil {
			return nil, fmt.Errorf("%s failed: %w", choice.Tool, err)
		}
		return logged(entry), nil

	case mcptools.ToolListEntries:
		args := mcptools.ParseListArgs(choice.Arguments)
		if args.Timezone == "" {
			args.Timezone = req.Timezone
		}
		entries, err := e.journal.List(ctx, req.UserID, args.Since, args.Timezone)
		if err != nil {
			return nil, fmt.Errorf("%s failed: %w", choice.Tool, err)
		}
		return listed(entries), nil

	case mcptools.ToolSummarize:
		args, err := mcptools.ParseSummarizeArgs(choice.Arguments)
		if err != nil {
			return nil, err
		}
		text, err := e.journal.Summarize(ctx, req.UserID, args.Question, args.Days)
		if err != nil {
			return nil, fmt.Errorf("%s failed: %w", choice.Tool, err)
		}
		return &Response{Kind: KindSummary, Text: text}, nil
	}

	return nil, fmt.Errorf("%w: %q", agent.ErrUnknownTool, choice.Tool)
}

func (e *Engine) viaClassifier(ctx context.Context, req Request) (*Response, error) {
	d := e.classifier.Classify(req.Message)
	log.WithFields(log.Fields{
		"user":   privacy.MaskOwner(req.UserID),
		"intent": d.Intent,
		"rule":   d.Rule,
	}).Debug("Intent classified")

	switch d.Intent {
	case classifier.IntentLog:
		entry, err := e.journal.LogText(ctx, req.UserID, d.Payload, req.Timezone)
		if err != nil {
			// an inferred log never fails the request; a commanded one only
			// hides mistakes the user can fix
			if !d.Implicit() && !journal.IsUserError(err) {
				return nil, err
			}
			log.WithFields(log.Fields{
				"user": privacy.MaskOwner(req.UserID),
				"rule": d.Rule,
				"text": privacy.SanitizeForLogging(d.Payload),
			}).WithError(err).Info("Could not log entry, sending guidance")
			return &Response{Kind: KindLogged, Text: fallback.Guidance()}, nil
		}
		return logged(entry), nil

	case classifier.IntentList:
		entries, err := e.journal.List(ctx, req.UserID, "", req.Timezone)
		if err != nil {
			return nil, err
		}
		return listed(entries), nil

	default:
		text, err := e.journal.Summarize(ctx, req.UserID, d.Payload, 0)
		if err != nil {
			return nil, err
		}
		return &Response{Kind: KindSummary, Text: text}, nil
	}
}

func logged(entry *symptoms.Entry) *Response {
	return &Response{Kind: KindLogged, Text: journal.Confirmation(entry), Entry: entry}
}

func listed(entries []symptoms.Entry) *Response {
	if entries == nil {
		entries = []symptoms.Entry{}
	}
	return &Response{Kind: KindEntries, Text: journal.CountText(len(entries)), Entries: entries}
}
