package summarizer

import (
	"encoding/json"
	"fmt"

	"newsdigest/internal/domain"

	"github.com/invopop/jsonschema"
)

// SchemaHint returns the JSON schema of a SummaryRecord, suitable as a
// structured output format for the local provider.
func SchemaHint() ([]byte, error) {
	r := &jsonschema.Reflector{
		ExpandedStruct: true,
		DoNotReference: true,
	}

	s := r.Reflect(&domain.SummaryRecord{})
	s.Version = ""
	s.ID = ""
	s.Title = "NewsItem"

	b, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}

	return b, nil
}
