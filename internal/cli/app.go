package cli

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/themobileprof/healthtrack-be/internal/agent"
	"github.com/themobileprof/healthtrack-be/internal/chat"
	"github.com/themobileprof/healthtrack-be/internal/classifier"
	"github.com/themobileprof/healthtrack-be/internal/config"
	"github.com/themobileprof/healthtrack-be/internal/db"
	"github.com/themobileprof/healthtrack-be/internal/journal"
	"github.com/themobileprof/healthtrack-be/internal/mcptools"
	"github.com/themobileprof/healthtrack-be/internal/retrieval"
	"github.com/themobileprof/healthtrack-be/internal/summary"
	"github.com/themobileprof/healthtrack-be/internal/symptoms"
	"github.com/themobileprof/healthtrack-be/pkg/deepseek"
	"github.com/themobileprof/healthtrack-be/pkg/gemini"
	"github.com/themobileprof/healthtrack-be/pkg/llm"
)

// app is the composition root shared by every command
type app struct {
	db      *db.DB
	journal *journal.Service
	engine  *chat.Engine
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	database, err := db.New(db.Config{
		URL:             cfg.DatabaseURL,
		MaxConnections:  cfg.DBMaxConnections,
		MaxIdleConns:    cfg.DBMaxConnections / 2,
		ConnMaxLifetime: 30 * time.Minute,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	log.WithField("dialect", database.Dialect()).Info("Database connected")

	client, err := newLLMClient(ctx, cfg)
	if err != nil {
		database.Close()
		return nil, err
	}

	defaultLoc := symptoms.LoadLocation(cfg.DefaultTimezone, time.UTC)

	summarizer := summary.New(summary.Config{
		Store:     database,
		Retriever: retrieval.NewFullText(database),
		LLM:       client,
		Timeout:   cfg.LLMTimeout,
	})
	svc := journal.NewService(database, symptoms.NewBuilder(nil), summarizer, defaultLoc)

	var ag chat.AgentInterface
	if cfg.AgentMode && client != nil {
		ag = agent.New(agent.Config{
			LLM:     client,
			Tools:   mcptools.Specs(mcptools.All(svc)),
			Timeout: cfg.LLMTimeout,
		})
		log.Info("Agent routing enabled")
	}

	return &app{
		db:      database,
		journal: svc,
		engine:  chat.NewEngine(classifier.NewClassifier(), svc, ag),
	}, nil
}

func (a *app) Close() error {
	return a.db.Close()
}

// newLLMClient returns nil when no provider is configured; summaries then
// use the plain entry list.
func newLLMClient(ctx context.Context, cfg *config.Config) (llm.Client, error) {
	switch cfg.LLMProvider {
	case config.ProviderDeepSeek:
		return deepseek.NewHTTPClient(deepseek.Config{
			APIKey:  cfg.LLMAPIKey,
			BaseURL: cfg.LLMBaseURL,
			Model:   cfg.LLMModel,
			Timeout: cfg.LLMTimeout,
		}), nil

	case config.ProviderOpenAI:
		baseURL, model := cfg.LLMBaseURL, cfg.LLMModel
		if baseURL == "" {
			baseURL = deepseek.OpenAIBaseURL
		}
		if model == "" {
			model = deepseek.OpenAIModel
		}
		return deepseek.NewHTTPClient(deepseek.Config{
			APIKey:  cfg.LLMAPIKey,
			BaseURL: baseURL,
			Model:   model,
			Timeout: cfg.LLMTimeout,
		}), nil

	case config.ProviderGemini:
		client, err := gemini.NewClient(ctx, gemini.Config{
			APIKey:  cfg.LLMAPIKey,
			Model:   cfg.LLMModel,
			Timeout: cfg.LLMTimeout,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create gemini client: %w", err)
		}
		return client, nil
	}

	log.Info("No LLM provider configured; summaries use the entry list")
	return nil, nil
}
