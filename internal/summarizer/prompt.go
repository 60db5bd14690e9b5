package summarizer

import (
	"strconv"
	"strings"

	"newsdigest/internal/domain"
	"newsdigest/internal/feed"
)

// BuildPrompt renders the summarization prompt for one story. The output only
// depends on its arguments.
func BuildPrompt(story domain.Story, maxChars int, targetLanguage string) string {
	var b strings.Builder

	b.WriteString("You are summarizing a news headline for a daily briefing.\n\n")

	b.WriteString("Return ONLY a JSON object with exactly these keys:\n")
	b.WriteString(`- "` + titleKey + `"` + "\n")
	b.WriteString(`- "` + newsSummaryKey + `"` + "\n\n")

	b.WriteString("Output language requirement:\n")
	b.WriteString(`- Write the "` + newsSummaryKey + `" in ` + targetLanguage + ".\n\n")

	b.WriteString(`Rules for "` + newsSummaryKey + `":` + "\n")
	b.WriteString("- 2-4 sentences\n")
	b.WriteString("- concise, neutral tone\n")
	b.WriteString("- include key context and what's new\n")
	b.WriteString("- avoid speculation\n")
	b.WriteString("- max ~" + strconv.Itoa(maxChars) + " characters\n\n")

	b.WriteString("Story metadata:\n")
	b.WriteString("Title: " + strings.TrimSpace(story.Title) + "\n")
	b.WriteString("Source: " + strings.TrimSpace(story.Source) + "\n")
	b.WriteString("Published: " + strings.TrimSpace(story.Published) + "\n")
	b.WriteString("Link: " + strings.TrimSpace(story.Link) + "\n\n")

	b.WriteString("Snippet (may be incomplete):\n")
	b.WriteString(feed.StripHTML(story.Summary))

	return strings.TrimSpace(b.String())
}
