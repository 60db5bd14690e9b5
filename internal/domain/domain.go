package domain

import "time"

// Story is one feed entry as supplied by the feed collaborator.
type Story struct {
	Title     string
	Link      string
	Source    string
	Published string
	// Summary is the raw feed snippet and may contain HTML.
	Summary string
}

// SummaryRecord is the validated output of one summarization attempt.
type SummaryRecord struct {
	Title       string `json:"Title"        jsonschema:"minLength=1" mapstructure:"Title"        validate:"required,min=1"`
	NewsSummary string `json:"News Summary" jsonschema:"minLength=1" mapstructure:"News Summary" validate:"required,min=1"`
}

type Locale struct {
	// Country is an ISO 3166-1 alpha-2 code, e.g. "TW".
	Country string
	// Lang is a UI locale string, e.g. "zh-TW".
	Lang string
}

type Run struct {
	ID         int64
	StartedAt  time.Time
	FeedURL    string
	Provider   string
	Stories    int
	Items      int
	OutputPath string
}
