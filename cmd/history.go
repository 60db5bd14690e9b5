package main

import (
	"fmt"
	"strings"

	"newsdigest/internal/domain"
	"newsdigest/internal/markdown"
	"newsdigest/internal/report"

	"github.com/spf13/cobra"
)

const defaultHistorySize = 10

func newHistoryCmd(flags *rootFlags) *cobra.Command {
	var n int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			cfg, log, err := loadConfig(flags)
			if err != nil {
				return err
			}

			db, err := openDatabase(ctx, cfg, log)
			if err != nil {
				return err
			}
			defer func() {
				if err = db.Close(); err != nil {
					log.ErrorContext(ctx, "Failed to close db",
						"error", err,
						"dbPath", cfg.DBPath)
				}
			}()

			runs, err := db.GetRecentRuns(ctx, n)
			if err != nil {
				return fmt.Errorf("get recent runs: %w", err)
			}

			rendered, err := report.RenderTerminal(historyMarkdown(runs))
			if err != nil {
				return fmt.Errorf("render history: %w", err)
			}

			fmt.Fprint(cmd.OutOrStdout(), rendered)

			return nil
		},
	}

	cmd.Flags().IntVar(&n, "n", defaultHistorySize, "Number of runs to list")

	return cmd
}

func historyMarkdown(runs []domain.Run) string {
	var b strings.Builder

	b.WriteString("# Recent runs\n\n")

	if len(runs) == 0 {
		b.WriteString("No runs recorded yet.\n")
		return b.String()
	}

	b.WriteString("| # | Started (UTC) | Provider | Items | Report |\n")
	b.WriteString("|---|---|---|---|---|\n")

	for _, r := range runs {
		fmt.Fprintf(&b, "| %d | %s | %s | %d/%d | %s |\n",
			r.ID,
			r.StartedAt.UTC().Format("2006-01-02 15:04"),
			r.Provider,
			r.Items,
			r.Stories,
			tableCell(r.OutputPath))
	}

	return b.String()
}

// tableCell escapes s so that it renders literally inside a table cell.
func tableCell(s string) string {
	return markdown.EscapeV2(s)
}
