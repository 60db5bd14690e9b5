package feed_test

import (
	"testing"

	"newsdigest/internal/feed"
)

func TestStripHTML(t *testing.T) {
	raw := `<a href="https://example.com/a" target="_blank">Rates rise</a>&nbsp;&nbsp;<font color="#6f6f6f">Wire</font>`
	got := feed.StripHTML(raw)
	want := "Rates rise  Wire"
	if got != want {
		t.Fatalf("stripped text mismatch: got %q want %q", got, want)
	}
}

func TestStripHTMLPlainText(t *testing.T) {
	if got := feed.StripHTML("  plain text  "); got != "plain text" {
		t.Fatalf("expected trimmed plain text, got %q", got)
	}
}

func TestStripHTMLEmpty(t *testing.T) {
	if got := feed.StripHTML("   "); got != "" {
		t.Fatalf("expected empty text, got %q", got)
	}
}

func TestStripHTMLDecodesEntities(t *testing.T) {
	if got := feed.StripHTML("<p>Q&amp;A &lt;live&gt;</p>"); got != "Q&A <live>" {
		t.Fatalf("expected decoded entities, got %q", got)
	}
}
