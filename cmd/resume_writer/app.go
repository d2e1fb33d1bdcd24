package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/jonathan/resume-writer/internal/config"
	"github.com/jonathan/resume-writer/internal/db"
	"github.com/jonathan/resume-writer/internal/dispatch"
	"github.com/jonathan/resume-writer/internal/llm"
	"github.com/jonathan/resume-writer/internal/observability"
	"github.com/jonathan/resume-writer/internal/usage"
)

// loadConfig reads configuration, applies the logging flag overrides and validates the result.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if logFormat != "" {
		cfg.LogFormat = logFormat
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func newLogger(cfg *config.Config, out io.Writer) (*slog.Logger, error) {
	logger, err := observability.NewLogger(out, cfg.LogFormat, cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	return logger, nil
}

// pipeline holds the collaborators shared by serve and generate.
type pipeline struct {
	client     llm.Client
	counter    *usage.Counter
	dispatcher *dispatch.Dispatcher
	database   *db.DB
	journal    *db.UsageJournal
}

// newPipeline builds the completion client and dispatcher. The usage journal is attached only when a
// database URL is configured; a journal that cannot connect is logged and skipped.
func newPipeline(ctx context.Context, cfg *config.Config, logger *slog.Logger, withJournal bool) (*pipeline, error) {
	client, err := llm.NewClient(ctx, cfg.LLMConfig(), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create completion client: %w", err)
	}

	p := &pipeline{client: client, counter: usage.NewCounter()}

	var journal usage.Journal
	if withJournal && cfg.DatabaseURL != "" {
		database, err := openJournalDB(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Warn("usage journal disabled", "error", err)
		} else {
			p.database = database
			p.journal = db.NewUsageJournal(database)
			journal = p.journal
			logger.Info("usage journal enabled")
		}
	}

	p.dispatcher = dispatch.New(client, p.counter, dispatch.Options{
		Journal: journal,
		Logger:  logger,
	})
	return p, nil
}

// reporter returns the journal as a usage.Reporter, or nil when no journal is attached.
func (p *pipeline) reporter() usage.Reporter {
	if p.journal == nil {
		return nil
	}
	return p.journal
}

// openJournalDB connects to the usage database and makes sure its table exists.
func openJournalDB(ctx context.Context, databaseURL string) (*db.DB, error) {
	database, err := db.Connect(ctx, databaseURL)
	if err != nil {
		return nil, err
	}
	if err := database.EnsureSchema(ctx); err != nil {
		database.Close()
		return nil, err
	}
	return database, nil
}

func (p *pipeline) Close() {
	if p.database != nil {
		p.database.Close()
	}
	_ = p.client.Close()
}
