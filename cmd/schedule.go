package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"newsdigest/internal/llm"
	"newsdigest/internal/metrics"
	"newsdigest/internal/scheduler"

	"github.com/spf13/cobra"
)

const (
	shutdownTimeout   = 5 * time.Second
	readHeaderTimeout = 10 * time.Second
)

func newScheduleCmd(flags *rootFlags) *cobra.Command {
	var spec string

	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Run the digest on a cron schedule and serve metrics",
		Long: `schedule keeps running and produces a new report on every tick of the cron
spec (UTC). Identical prompts are answered from memory for 24 hours and
Prometheus metrics are served at /metrics on METRICS_ADDR.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSchedule(cmd.Context(), flags, spec)
		},
	}

	cmd.Flags().StringVar(&spec, "cron", scheduler.DailyDigestSpec, "Cron spec of the digest runs")

	return cmd
}

func runSchedule(ctx context.Context, flags *rootFlags, spec string) error {
	start := time.Now()
	m := metrics.New()

	a, err := newApp(ctx, flags, appOptions{
		cache:   llm.NewResponseCache(llm.DefaultCacheMaxEntries, llm.DefaultCacheTTL),
		metrics: m,
	})
	if err != nil {
		return err
	}
	defer a.close(ctx)

	sched := scheduler.New(ctx, spec, a.runner, flags.pipelineOptions(), a.log)
	if err = sched.Start(); err != nil {
		a.log.ErrorContext(ctx, "Failed to start scheduler",
			"error", err,
			"spec", spec)

		return fmt.Errorf("start scheduler: %w", err)
	}
	defer sched.Stop()
	a.log.InfoContext(ctx, "Scheduler is started",
		"spec", spec,
		"timezone", scheduler.Timezone,
		"next", sched.Next())

	srv := &http.Server{
		Addr:              a.cfg.MetricsAddr,
		Handler:           m.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	serverErrors := make(chan error, 1)
	go func() {
		a.log.InfoContext(ctx, "Metrics server is started",
			"addr", srv.Addr)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err = <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve metrics: %w", err)
		}
	case <-ctx.Done():
		a.log.InfoContext(ctx, "Shutdown signal is received",
			"uptimeSeconds", time.Since(start).Seconds())
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()

	if err = srv.Shutdown(shutdownCtx); err != nil {
		a.log.ErrorContext(shutdownCtx, "Failed to shut down metrics server",
			"error", err)
	}

	a.log.InfoContext(shutdownCtx, "Exiting...",
		"uptimeSeconds", time.Since(start).Seconds())

	return nil
}
