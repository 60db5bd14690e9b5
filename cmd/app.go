package main

import (
	"context"
	"fmt"
	"log/slog"

	"newsdigest/internal/config"
	"newsdigest/internal/database"
	"newsdigest/internal/feed"
	"newsdigest/internal/llm"
	"newsdigest/internal/locale"
	"newsdigest/internal/logging"
	"newsdigest/internal/metrics"
	"newsdigest/internal/notify"
	"newsdigest/internal/pipeline"
	"newsdigest/internal/report"
	"newsdigest/internal/summarizer"
)

type appOptions struct {
	// cache memoizes provider responses across runs.
	cache   *llm.ResponseCache
	metrics *metrics.Metrics
}

type app struct {
	cfg    config.Config
	db     *database.Database
	runner *pipeline.Runner
	log    *slog.Logger
}

// loadConfig reads .env and the environment and sets up the logger.
func loadConfig(flags *rootFlags) (config.Config, *slog.Logger, error) {
	level, err := logging.ParseLevel(flags.logLevel)
	if err != nil {
		return config.Config{}, nil, err
	}

	log := logging.New(level)
	slog.SetDefault(log)

	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("load config: %w", err)
	}

	cfg.SetProvider(flags.llm)

	return cfg, log, nil
}

func openDatabase(ctx context.Context, cfg config.Config, log *slog.Logger) (*database.Database, error) {
	db, err := database.New(ctx, cfg.DBPath, log)
	if err != nil {
		log.ErrorContext(ctx, "Failed to initialize db",
			"error", err,
			"dbPath", cfg.DBPath)

		return nil, fmt.Errorf("initialize db: %w", err)
	}

	log.InfoContext(ctx, "DB is initialized",
		"dbPath", cfg.DBPath)

	return db, nil
}

// newApp validates the configuration before any network activity and wires
// the pipeline.
func newApp(ctx context.Context, flags *rootFlags, opts appOptions) (*app, error) {
	cfg, log, err := loadConfig(flags)
	if err != nil {
		return nil, err
	}

	if err = cfg.Validate(); err != nil {
		log.ErrorContext(ctx, "Invalid configuration",
			"error", err,
			"provider", cfg.LLMProvider)

		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	schema, err := summarizer.SchemaHint()
	if err != nil {
		return nil, fmt.Errorf("build schema hint: %w", err)
	}

	db, err := openDatabase(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	deps := pipeline.Deps{
		Config:    cfg,
		Locale:    locale.NewResolver(locale.NewDetector(cfg.GeoIPURL, db, log), log),
		Fetcher:   feed.NewFetcher(feed.DefaultTimeout, log),
		Driver:    summarizer.NewDriver(log),
		Providers: pipeline.NewProviderFactory(cfg.LLMSettings(schema), opts.cache),
		Reporter:  report.NewRenderer(),
		Runs:      db,
		Metrics:   opts.metrics,
		Log:       log,
	}

	if cfg.TelegramEnabled() {
		tg, tgErr := notify.NewTelegram(cfg.TelegramToken, cfg.TelegramChatID, log)
		if tgErr != nil {
			log.WarnContext(ctx, "Failed to initialize Telegram so digest will not be sent",
				"error", tgErr,
				"chatID", cfg.TelegramChatID)
		} else {
			deps.Notifier = tg
			log.InfoContext(ctx, "Telegram is initialized",
				"chatID", cfg.TelegramChatID)
		}
	}

	log.InfoContext(ctx, "Pipeline is initialized",
		"provider", cfg.LLMProvider,
		"openAIModel", cfg.OpenAIModel,
		"ollamaModel", cfg.OllamaModel,
		"ollamaTimeout", cfg.OllamaTimeout().String())

	return &app{
		cfg:    cfg,
		db:     db,
		runner: pipeline.NewRunner(deps),
		log:    log,
	}, nil
}

func (a *app) close(ctx context.Context) {
	if err := a.db.Close(); err != nil {
		a.log.ErrorContext(ctx, "Failed to close db",
			"error", err,
			"dbPath", a.cfg.DBPath)
	}
}
