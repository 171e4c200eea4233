package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"mindwell/internal/auth"
	"mindwell/internal/chat"
	"mindwell/internal/config"
	"mindwell/internal/db"
	"mindwell/internal/llm"
	"mindwell/internal/risk"
	"mindwell/internal/services"
	"mindwell/internal/store"
)

// app holds the long-lived components shared by the subcommands.
type app struct {
	store  store.Store
	issuer *auth.Issuer
	risk   *risk.Service
	chat   *chat.Service
}

func newApp(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*app, error) {
	encSvc, err := services.FromEncodedKey(cfg.EncryptionKey)
	if err != nil {
		return nil, err
	}
	st, err := newStore(ctx, cfg, encSvc, logger)
	if err != nil {
		return nil, err
	}
	riskSvc := risk.NewService(st, logger).WithOpener(encSvc)
	return &app{
		store:  st,
		issuer: auth.NewIssuer([]byte(cfg.JWTSecret), auth.DefaultTokenTTL),
		risk:   riskSvc,
		chat:   chat.NewService(newLLM(cfg, logger), st, riskSvc, logger),
	}, nil
}

func (a *app) Close() error { return a.store.Close() }

// newStore uses Postgres when DATABASE_URL is set and an in-memory store otherwise.
func newStore(ctx context.Context, cfg *config.Config, encSvc *services.EncryptionService, logger *zap.Logger) (store.Store, error) {
	if cfg.DatabaseURL == "" {
		logger.Warn("DATABASE_URL not set; using in-memory store, data is lost on restart")
		return store.NewMemory(), nil
	}
	if encSvc == nil {
		logger.Warn("ENCRYPTION_KEY not set; mood notes and messages are stored in plaintext")
	}

	conn, err := store.OpenPostgres(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	if err := db.RunMigrations(ctx, conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrations: %w", err)
	}
	return store.NewPostgres(conn, encSvc).WithLogger(logger), nil
}

func newLLM(cfg *config.Config, logger *zap.Logger) llm.Client {
	if cfg.OpenAI.APIKey == "" {
		logger.Warn("OPENAI_API_KEY not set; chat replies fall back to the recovery message")
		return llm.Unavailable{Reason: "OPENAI_API_KEY is not configured"}
	}
	return llm.NewOpenAIClient(llm.Config{
		APIKey:      cfg.OpenAI.APIKey,
		Model:       cfg.OpenAI.Model,
		BaseURL:     cfg.OpenAI.BaseURL,
		MaxTokens:   cfg.OpenAI.MaxTokens,
		Temperature: cfg.OpenAI.Temperature,
		Timeout:     cfg.LLMTimeout(),
	})
}
