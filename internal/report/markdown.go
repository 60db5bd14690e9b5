package report

import (
	"fmt"
	"strings"
	"time"

	"newsdigest/internal/domain"
)

const reportTitle = "Google News — Top Stories Summary"

// Meta is the run metadata shown in the report header.
type Meta struct {
	FeedURL     string
	Provider    string
	GeneratedAt time.Time
	// Lang is the page language, e.g. "zh-TW".
	Lang string
	// Stories are used to link each record back to its story by title.
	Stories []domain.Story
}

// BuildMarkdown renders the records as a Markdown document in input order.
func BuildMarkdown(items []domain.SummaryRecord, meta Meta) string {
	links := make(map[string]string, len(meta.Stories))
	for _, s := range meta.Stories {
		links[strings.TrimSpace(s.Title)] = strings.TrimSpace(s.Link)
	}

	var b strings.Builder

	b.WriteString("# " + reportTitle + "\n\n")
	b.WriteString("- Generated at: **" + meta.GeneratedAt.UTC().Format("2006-01-02 15:04") + " UTC**\n\n")
	b.WriteString("- RSS: " + meta.FeedURL + "\n\n")
	b.WriteString("- LLM Provider: `" + meta.Provider + "`\n\n")
	b.WriteString("---\n\n")

	for i, item := range items {
		title := strings.TrimSpace(item.Title)
		summary := strings.TrimSpace(item.NewsSummary)

		if link := links[title]; link != "" {
			fmt.Fprintf(&b, "## %d. [%s](%s)\n\n", i+1, title, link)
		} else {
			fmt.Fprintf(&b, "## %d. %s\n\n", i+1, title)
		}

		b.WriteString(summary + "\n\n")
		b.WriteString("---\n\n")
	}

	return b.String()
}
