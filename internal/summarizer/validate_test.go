package summarizer

import (
	"encoding/json"
	"errors"
	"testing"

	"newsdigest/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateAcceptsRecord(t *testing.T) {
	rec, err := Validate(map[string]any{"Title": "T", "News Summary": "S"})
	require.NoError(t, err)
	assert.Equal(t, domain.SummaryRecord{Title: "T", NewsSummary: "S"}, rec)
}

func TestValidateAcceptsInternalLabelAndIgnoresExtraKeys(t *testing.T) {
	rec, err := Validate(map[string]any{"Title": "T", "News_Summary": "S", "Sentiment": 3})
	require.NoError(t, err)
	assert.Equal(t, domain.SummaryRecord{Title: "T", NewsSummary: "S"}, rec)
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name string
		raw  map[string]any
	}{
		{name: "empty title", raw: map[string]any{"Title": "", "News Summary": "S"}},
		{name: "empty summary", raw: map[string]any{"Title": "T", "News Summary": ""}},
		{name: "missing summary", raw: map[string]any{"Title": "T"}},
		{name: "missing title", raw: map[string]any{"News Summary": "S"}},
		{name: "numeric summary", raw: map[string]any{"Title": "T", "News Summary": float64(5)}},
		{name: "null title", raw: map[string]any{"Title": nil, "News Summary": "S"}},
		{name: "nil mapping", raw: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Validate(tt.raw)
			require.Error(t, err)

			var invalid *SchemaInvalidError
			require.True(t, errors.As(err, &invalid))
			assert.Equal(t, tt.raw, invalid.Raw)
		})
	}
}

func TestSummaryRecordSerializesDisplayLabel(t *testing.T) {
	b, err := json.Marshal(domain.SummaryRecord{Title: "T", NewsSummary: "S"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"Title":"T","News Summary":"S"}`, string(b))

	var raw map[string]any
	require.NoError(t, json.Unmarshal(b, &raw))

	rec, err := Validate(raw)
	require.NoError(t, err)
	assert.Equal(t, "S", rec.NewsSummary)
}

func TestSchemaHint(t *testing.T) {
	b, err := SchemaHint()
	require.NoError(t, err)

	var schema struct {
		Type       string                    `json:"type"`
		Required   []string                  `json:"required"`
		Properties map[string]map[string]any `json:"properties"`
	}
	require.NoError(t, json.Unmarshal(b, &schema))

	assert.Equal(t, "object", schema.Type)
	assert.ElementsMatch(t, []string{"Title", "News Summary"}, schema.Required)
	require.Contains(t, schema.Properties, "Title")
	require.Contains(t, schema.Properties, "News Summary")
	assert.Equal(t, "string", schema.Properties["News Summary"]["type"])
	assert.NotContains(t, string(b), "$schema")
}
