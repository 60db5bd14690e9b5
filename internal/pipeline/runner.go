package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"newsdigest/internal/config"
	"newsdigest/internal/domain"
	"newsdigest/internal/locale"
	"newsdigest/internal/metrics"
	"newsdigest/internal/notify"
	"newsdigest/internal/report"
	"newsdigest/internal/summarizer"
)

const (
	DefaultLimit    = 10
	DefaultMaxChars = 450
	DefaultOutput   = "out/index.html"
)

// ErrNoStories is returned when the feed yields nothing to summarize.
var ErrNoStories = errors.New("no stories found")

type LocaleResolver interface {
	Resolve(ctx context.Context, o locale.Overrides, forceRefresh bool) domain.Locale
}

type StoryFetcher interface {
	Fetch(ctx context.Context, feedURL string, limit int) ([]domain.Story, error)
}

type Reporter interface {
	Publish(items []domain.SummaryRecord, meta report.Meta, path string) (string, error)
}

type RunStore interface {
	AddRun(ctx context.Context, run domain.Run) (int64, error)
}

type Notifier interface {
	SendDigest(ctx context.Context, d notify.Digest) error
}

// Deps are the collaborators of a Runner. Runs, Notifier and Metrics are
// optional.
type Deps struct {
	Config    config.Config
	Locale    LocaleResolver
	Fetcher   StoryFetcher
	Driver    Summarizer
	Providers ProviderFactory
	Reporter  Reporter
	Runs      RunStore
	Notifier  Notifier
	Metrics   *metrics.Metrics
	Log       *slog.Logger
}

// Options are the per-run settings.
type Options struct {
	Limit    int
	Output   string
	MaxChars int
	FailFast bool
	// RSSURL overrides both GOOGLE_NEWS_RSS and the localized feed.
	RSSURL       string
	RefreshGeoIP bool
}

// Outcome describes a finished run.
type Outcome struct {
	Items      []domain.SummaryRecord
	Provider   string
	FeedURL    string
	OutputPath string
	Meta       report.Meta
}

// Runner runs the whole fetch → summarize → report pipeline once per call.
type Runner struct {
	cfg        config.Config
	locale     LocaleResolver
	fetcher    StoryFetcher
	controller *Controller
	providers  ProviderFactory
	reporter   Reporter
	runs       RunStore
	notifier   Notifier
	metrics    *metrics.Metrics
	now        func() time.Time
	log        *slog.Logger
}

func NewRunner(d Deps) *Runner {
	return &Runner{
		cfg:        d.Config,
		locale:     d.Locale,
		fetcher:    d.Fetcher,
		controller: NewController(d.Driver, d.Providers, d.Metrics, d.Log),
		providers:  d.Providers,
		reporter:   d.Reporter,
		runs:       d.Runs,
		notifier:   d.Notifier,
		metrics:    d.Metrics,
		now:        time.Now,
		log:        d.Log,
	}
}

// Run returns an error only for failures that leave nothing to report:
// provider configuration, feed download or an empty feed, and writing the
// report. Summarization failures degrade to an empty report.
func (r *Runner) Run(ctx context.Context, opts Options) (Outcome, error) {
	start := r.now()
	opts = opts.withDefaults()

	out, err := r.run(ctx, opts, start)

	elapsed := r.now().Sub(start).Seconds()
	switch {
	case err != nil:
		r.metrics.RecordRun(metrics.OutcomeError, out.Provider, 0, elapsed)
	case len(out.Items) == 0:
		r.metrics.RecordRun(metrics.OutcomeEmpty, out.Provider, 0, elapsed)
	default:
		r.metrics.RecordRun(metrics.OutcomeSuccess, out.Provider, len(out.Items), elapsed)
	}

	return out, err
}

func (r *Runner) run(ctx context.Context, opts Options, start time.Time) (Outcome, error) {
	loc := r.locale.Resolve(ctx, locale.Overrides{
		Country: r.cfg.NewsCountry,
		Lang:    r.cfg.NewsLang,
	}, opts.RefreshGeoIP)

	feedURL := r.feedURL(opts, loc)
	targetLanguage := locale.LanguageInstruction(loc.Lang)

	r.log.InfoContext(ctx, "Locale is resolved",
		"country", loc.Country,
		"lang", loc.Lang,
		"targetLanguage", targetLanguage,
		"feedURL", feedURL)

	primary, err := r.providers(r.cfg.LLMProvider)
	if err != nil {
		return Outcome{}, fmt.Errorf("build provider %q: %w", r.cfg.LLMProvider, err)
	}

	out := Outcome{Provider: r.cfg.LLMProvider, FeedURL: feedURL}

	stories, err := r.fetcher.Fetch(ctx, feedURL, opts.Limit)
	if err != nil {
		return out, fmt.Errorf("fetch stories: %w", err)
	}
	if len(stories) == 0 {
		return out, ErrNoStories
	}

	r.log.InfoContext(ctx, "Stories are fetched",
		"count", len(stories),
		"provider", r.cfg.LLMProvider)

	res := r.controller.Run(ctx, r.cfg.LLMProvider, primary, stories, summarizer.Options{
		MaxChars:       opts.MaxChars,
		TargetLanguage: targetLanguage,
		FailFast:       opts.FailFast,
	})

	out.Items = res.Items
	out.Provider = res.Provider
	out.Meta = report.Meta{
		FeedURL:     feedURL,
		Provider:    res.Provider,
		GeneratedAt: r.now(),
		Lang:        loc.Lang,
		Stories:     stories,
	}

	out.OutputPath, err = r.reporter.Publish(out.Items, out.Meta, opts.Output)
	if err != nil {
		return out, fmt.Errorf("publish report: %w", err)
	}

	r.log.InfoContext(ctx, "Report is written",
		"outputPath", out.OutputPath,
		"items", len(out.Items),
		"stories", len(stories),
		"provider", res.Provider,
		"fellBack", res.FellBack)

	r.recordRun(ctx, start, len(stories), out)
	r.sendDigest(ctx, stories, out)

	return out, nil
}

func (r *Runner) feedURL(opts Options, loc domain.Locale) string {
	switch {
	case opts.RSSURL != "":
		return opts.RSSURL
	case r.cfg.RSSURL != "":
		return r.cfg.RSSURL
	default:
		return locale.GoogleNewsRSSURL(loc)
	}
}

func (r *Runner) recordRun(ctx context.Context, start time.Time, stories int, out Outcome) {
	if r.runs == nil {
		return
	}

	id, err := r.runs.AddRun(ctx, domain.Run{
		StartedAt:  start,
		FeedURL:    out.FeedURL,
		Provider:   out.Provider,
		Stories:    stories,
		Items:      len(out.Items),
		OutputPath: out.OutputPath,
	})
	if err != nil {
		r.log.ErrorContext(ctx, "Failed to record run",
			"error", err,
			"provider", out.Provider)

		return
	}

	r.log.DebugContext(ctx, "Run is recorded",
		"runID", id)
}

func (r *Runner) sendDigest(ctx context.Context, stories []domain.Story, out Outcome) {
	if r.notifier == nil {
		return
	}

	err := r.notifier.SendDigest(ctx, notify.Digest{
		Items:    out.Items,
		Stories:  stories,
		Provider: out.Provider,
		FeedURL:  out.FeedURL,
	})
	if err != nil {
		r.log.ErrorContext(ctx, "Failed to send Telegram digest",
			"error", err,
			"items", len(out.Items))
	}
}

func (o Options) withDefaults() Options {
	if o.Limit <= 0 {
		o.Limit = DefaultLimit
	}
	if o.MaxChars <= 0 {
		o.MaxChars = DefaultMaxChars
	}
	if o.Output == "" {
		o.Output = DefaultOutput
	}

	return o
}
