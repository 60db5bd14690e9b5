package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"newsdigest/internal/domain"
	"newsdigest/internal/llm"
	"newsdigest/internal/metrics"
	"newsdigest/internal/summarizer"
)

// Summarizer runs one summarization pass over stories with a single provider.
type Summarizer interface {
	Summarize(
		ctx context.Context,
		provider llm.Provider,
		stories []domain.Story,
		opts summarizer.Options,
	) ([]domain.SummaryRecord, error)
}

// ProviderFactory builds the provider registered under name.
type ProviderFactory func(name string) (llm.Provider, error)

// Result is what a Controller run produced. Provider is the name of the
// provider whose pass produced Items, or was the last one attempted.
type Result struct {
	Items    []domain.SummaryRecord
	Provider string
	FellBack bool
}

// Controller runs the Driver against the primary provider and, when the
// primary is blocked by region, once more against the local provider. It
// never returns an error: every failure is logged and degrades to an empty
// result.
type Controller struct {
	driver   Summarizer
	build    ProviderFactory
	fallback string
	metrics  *metrics.Metrics
	log      *slog.Logger
}

func NewController(
	driver Summarizer,
	build ProviderFactory,
	m *metrics.Metrics,
	log *slog.Logger,
) *Controller {
	return &Controller{
		driver:   driver,
		build:    build,
		fallback: llm.Ollama,
		metrics:  m,
		log:      log,
	}
}

func (c *Controller) Run(
	ctx context.Context,
	primaryName string,
	primary llm.Provider,
	stories []domain.Story,
	opts summarizer.Options,
) Result {
	primaryName = strings.ToLower(strings.TrimSpace(primaryName))

	items, err := c.driver.Summarize(ctx, primary, stories, opts)
	if err == nil {
		return Result{Items: items, Provider: primaryName}
	}

	if !errors.Is(err, llm.ErrRegionBlocked) || primaryName == c.fallback {
		c.log.ErrorContext(ctx, "Summarization failed so report will be empty",
			"error", err,
			"provider", primaryName,
			"kind", summarizer.FailureKind(err))

		return Result{Provider: primaryName}
	}

	c.log.WarnContext(ctx, "Primary provider is blocked by region, falling back",
		"error", err,
		"provider", primaryName,
		"fallback", c.fallback)
	c.metrics.RecordFallback()

	res := Result{Provider: c.fallback, FellBack: true}

	fallback, err := c.build(c.fallback)
	if err != nil {
		c.log.ErrorContext(ctx, "Failed to build fallback provider so report will be empty",
			"error", err,
			"provider", c.fallback)

		return res
	}

	items, err = c.driver.Summarize(ctx, fallback, stories, opts)
	if err != nil {
		c.log.ErrorContext(ctx, "Fallback summarization failed so report will be empty",
			"error", err,
			"provider", c.fallback,
			"kind", summarizer.FailureKind(err))

		return res
	}

	res.Items = items

	return res
}
