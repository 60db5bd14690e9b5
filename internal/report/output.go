package report

import (
	"fmt"
	"os"
	"path/filepath"

	"newsdigest/internal/domain"

	"github.com/charmbracelet/glamour"
)

const terminalWordWrap = 100

// WriteFile stores html at path, creating parent directories, and returns the
// absolute path.
func WriteFile(path string, html string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve path: %w", err)
	}

	if err = os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}

	if err = os.WriteFile(abs, []byte(html), 0o644); err != nil { //nolint:gosec // Report is meant to be readable.
		return "", fmt.Errorf("write file: %w", err)
	}

	return abs, nil
}

// RenderTerminal renders markdown for display in a terminal.
func RenderTerminal(markdown string) (string, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(terminalWordWrap),
	)
	if err != nil {
		return "", fmt.Errorf("create terminal renderer: %w", err)
	}

	out, err := r.Render(markdown)
	if err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}

	return out, nil
}

// Publish builds the report for items and writes the HTML page to path. It
// returns the absolute path of the written file.
func (r *Renderer) Publish(items []domain.SummaryRecord, meta Meta, path string) (string, error) {
	html, err := r.RenderHTML(BuildMarkdown(items, meta), meta.Lang)
	if err != nil {
		return "", fmt.Errorf("render html: %w", err)
	}

	abs, err := WriteFile(path, html)
	if err != nil {
		return "", fmt.Errorf("write report: %w", err)
	}

	return abs, nil
}
