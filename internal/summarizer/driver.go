package summarizer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"newsdigest/internal/domain"
	"newsdigest/internal/llm"
)

const logTitleMaxRunes = 80

type Options struct {
	MaxChars       int
	TargetLanguage string
	// FailFast aborts the whole run on the first per-story failure.
	FailFast bool
}

// Driver summarizes stories one at a time with a single provider.
type Driver struct {
	log *slog.Logger
}

func NewDriver(log *slog.Logger) *Driver {
	return &Driver{log: log}
}

// Summarize returns one record per successfully summarized story, in input
// order. llm.ErrRegionBlocked is always returned immediately; other per-story
// failures are logged and skipped unless opts.FailFast is set.
func (d *Driver) Summarize(
	ctx context.Context,
	provider llm.Provider,
	stories []domain.Story,
	opts Options,
) ([]domain.SummaryRecord, error) {
	var results []domain.SummaryRecord

	for i, story := range stories {
		idx := i + 1

		title := strings.TrimSpace(story.Title)
		if title == "" {
			d.log.WarnContext(ctx, "Skipping story with missing title",
				"index", idx)

			continue
		}

		d.log.InfoContext(ctx, "Summarizing story",
			"index", idx,
			"total", len(stories),
			"title", truncateRunes(title, logTitleMaxRunes))

		rec, err := d.summarizeOne(ctx, provider, story, opts)
		if err != nil {
			if errors.Is(err, llm.ErrRegionBlocked) {
				d.log.WarnContext(ctx, "Provider is blocked by region",
					"index", idx)

				return nil, err
			}

			d.log.ErrorContext(ctx, "Failed to summarize story",
				"error", err,
				"index", idx,
				"kind", FailureKind(err),
				"failFast", opts.FailFast)

			if opts.FailFast {
				return nil, fmt.Errorf("summarize story %d: %w", idx, err)
			}

			continue
		}

		results = append(results, rec)
	}

	return results, nil
}

// summarizeOne runs prompt → provider → extract → parse → validate for one
// story.
func (d *Driver) summarizeOne(
	ctx context.Context,
	provider llm.Provider,
	story domain.Story,
	opts Options,
) (domain.SummaryRecord, error) {
	prompt := BuildPrompt(story, opts.MaxChars, opts.TargetLanguage)

	text, err := provider.GenerateText(ctx, prompt)
	if err != nil {
		return domain.SummaryRecord{}, fmt.Errorf("generate text: %w", err)
	}

	if strings.TrimSpace(text) == "" {
		return domain.SummaryRecord{}, ErrEmptyResponse
	}

	span, err := ExtractJSONObject(text)
	if err != nil {
		return domain.SummaryRecord{}, &ModelOutputNotJSONError{Raw: text, Err: err}
	}

	var raw map[string]any
	if err = json.Unmarshal([]byte(span), &raw); err != nil {
		return domain.SummaryRecord{}, &ModelOutputNotJSONError{Raw: text, Err: err}
	}

	return Validate(raw)
}

func truncateRunes(s string, maxRunes int) string {
	runes := []rune(s)
	if len(runes) <= maxRunes {
		return s
	}

	return string(runes[:maxRunes])
}
