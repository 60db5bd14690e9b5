package main

import (
	"fmt"
	"strings"

	"newsdigest/internal/pipeline"
	"newsdigest/internal/report"

	"github.com/pkg/browser"
	"github.com/spf13/cobra"
)

type rootFlags struct {
	limit        int
	output       string
	maxChars     int
	failFast     bool
	noOpen       bool
	rss          string
	llm          string
	logLevel     string
	refreshGeoIP bool
	print        bool
}

func (f *rootFlags) pipelineOptions() pipeline.Options {
	return pipeline.Options{
		Limit:        f.limit,
		Output:       f.output,
		MaxChars:     f.maxChars,
		FailFast:     f.failFast,
		RSSURL:       strings.TrimSpace(f.rss),
		RefreshGeoIP: f.refreshGeoIP,
	}
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	cmd := &cobra.Command{
		Use:   "newsdigest",
		Short: "Summarize today's top news stories with a language model",
		Long: `newsdigest fetches the localized Google News top stories feed, asks a
language model to summarize every story in the reader's language and writes
the result as a standalone HTML report.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runOnce(cmd, flags)
		},
	}

	pf := cmd.PersistentFlags()
	pf.IntVar(&flags.limit, "limit", pipeline.DefaultLimit, "Number of stories to summarize")
	pf.StringVar(&flags.output, "output", pipeline.DefaultOutput, "Output HTML path")
	pf.IntVar(&flags.maxChars, "max-chars", pipeline.DefaultMaxChars, "Approximate summary length limit")
	pf.BoolVar(&flags.failFast, "fail-fast", false, "Abort on the first per-story failure")
	pf.BoolVar(&flags.noOpen, "no-open", false, "Do not open the report in a browser")
	pf.StringVar(&flags.rss, "rss", "", "Override the RSS feed URL")
	pf.StringVar(&flags.llm, "llm", "", "LLM provider: openai or ollama (overrides LLM_PROVIDER)")
	pf.StringVar(&flags.logLevel, "log-level", "INFO", "Log level: DEBUG, INFO, WARN or ERROR")
	pf.BoolVar(&flags.refreshGeoIP, "refresh-geoip", false, "Ignore the cached geo-IP country")
	pf.BoolVar(&flags.print, "print", false, "Print the report to the terminal")

	cmd.AddCommand(newScheduleCmd(flags), newHistoryCmd(flags))

	return cmd
}

func runOnce(cmd *cobra.Command, flags *rootFlags) error {
	ctx := cmd.Context()

	a, err := newApp(ctx, flags, appOptions{})
	if err != nil {
		return err
	}
	defer a.close(ctx)

	out, err := a.runner.Run(ctx, flags.pipelineOptions())
	if err != nil {
		return fmt.Errorf("run: %w", err)
	}

	if flags.print {
		rendered, renderErr := report.RenderTerminal(report.BuildMarkdown(out.Items, out.Meta))
		if renderErr != nil {
			a.log.WarnContext(ctx, "Failed to render report for terminal",
				"error", renderErr)
		} else {
			fmt.Fprint(cmd.OutOrStdout(), rendered)
		}
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Wrote: %s\n", out.OutputPath)

	if !flags.noOpen {
		browser.Stdout = cmd.ErrOrStderr()
		if err = browser.OpenFile(out.OutputPath); err != nil {
			a.log.WarnContext(ctx, "Failed to open report in browser",
				"error", err,
				"outputPath", out.OutputPath)
		}
	}

	return nil
}
