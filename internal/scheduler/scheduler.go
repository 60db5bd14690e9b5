package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"newsdigest/internal/pipeline"

	"github.com/robfig/cron/v3"
)

const (
	DailyDigestSpec       = "0 7 * * *"
	Timezone              = "UTC"
	TimezoneOffsetSeconds = 0
	runTimeout            = 30 * time.Minute
)

type runner interface {
	Run(ctx context.Context, opts pipeline.Options) (pipeline.Outcome, error)
}

// Scheduler runs the pipeline on a cron spec. A run still in progress when
// the next one is due causes that next run to be skipped.
type Scheduler struct {
	ctx    context.Context
	cron   *cron.Cron
	spec   string
	runner runner
	opts   pipeline.Options
	log    *slog.Logger
}

func New(
	ctx context.Context,
	spec string,
	runner runner,
	opts pipeline.Options,
	log *slog.Logger,
) *Scheduler {
	if spec == "" {
		spec = DailyDigestSpec
	}

	logger := cronLogger{log: log}

	c := cron.New(
		cron.WithLocation(time.FixedZone(Timezone, TimezoneOffsetSeconds)),
		cron.WithLogger(logger),
		cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
	)

	return &Scheduler{
		ctx:    ctx,
		cron:   c,
		spec:   spec,
		runner: runner,
		opts:   opts,
		log:    log,
	}
}

func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.spec, s.runDigest); err != nil {
		return fmt.Errorf("add cron func: %w", err)
	}

	s.cron.Start()

	return nil
}

// Stop stops the scheduler and waits for a running digest to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

// Next returns the time of the next scheduled run.
func (s *Scheduler) Next() time.Time {
	entries := s.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}

	return entries[0].Next
}

func (s *Scheduler) runDigest() {
	ctx, cancel := context.WithTimeout(s.ctx, runTimeout)
	defer cancel()

	select {
	case <-ctx.Done():
		s.log.InfoContext(ctx, "Scheduler context is done",
			"error", ctx.Err())
		return
	default:
	}

	start := time.Now()

	out, err := s.runner.Run(ctx, s.opts)
	if err != nil {
		s.log.ErrorContext(ctx, "Scheduled run failed",
			"error", err,
			"spec", s.spec,
			"feedURL", out.FeedURL,
			"provider", out.Provider)
		return
	}

	s.log.InfoContext(ctx, "Scheduled run is finished",
		"spec", s.spec,
		"items", len(out.Items),
		"provider", out.Provider,
		"outputPath", out.OutputPath,
		"durationSeconds", time.Since(start).Seconds(),
		"next", s.Next())
}

// cronLogger routes cron's own logging to slog.
type cronLogger struct {
	log *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.log.Debug("Cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.log.Error("Cron: "+msg, append([]any{"error", err}, keysAndValues...)...)
}
