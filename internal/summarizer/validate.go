package summarizer

import (
	"errors"
	"fmt"
	"maps"

	"newsdigest/internal/domain"

	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
)

const (
	titleKey               = "Title"
	newsSummaryKey         = "News Summary"
	newsSummaryInternalKey = "News_Summary"
)

//nolint:gochecknoglobals // validator caches struct metadata and is safe for concurrent use.
var recordValidator = validator.New(validator.WithRequiredStructEnabled())

// Validate turns a generically parsed JSON object into a SummaryRecord. The
// summary may be keyed by its display label or by its internal name. Unknown
// keys are ignored.
func Validate(raw map[string]any) (domain.SummaryRecord, error) {
	if raw == nil {
		return domain.SummaryRecord{}, &SchemaInvalidError{Raw: raw, Err: errors.New("object is null")}
	}

	input := raw
	if _, ok := raw[newsSummaryKey]; !ok {
		if v, internal := raw[newsSummaryInternalKey]; internal {
			input = maps.Clone(raw)
			input[newsSummaryKey] = v
		}
	}

	for _, key := range []string{titleKey, newsSummaryKey} {
		v, ok := input[key]
		if !ok {
			return domain.SummaryRecord{}, &SchemaInvalidError{Raw: raw, Err: fmt.Errorf("missing key %q", key)}
		}
		if _, isString := v.(string); !isString {
			return domain.SummaryRecord{}, &SchemaInvalidError{
				Raw: raw,
				Err: fmt.Errorf("key %q must be a string, got %T", key, v),
			}
		}
	}

	var rec domain.SummaryRecord

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &rec,
		WeaklyTypedInput: false,
		ErrorUnused:      false,
	})
	if err != nil {
		return domain.SummaryRecord{}, fmt.Errorf("create decoder: %w", err)
	}

	if err = decoder.Decode(input); err != nil {
		return domain.SummaryRecord{}, &SchemaInvalidError{Raw: raw, Err: fmt.Errorf("decode: %w", err)}
	}

	if err = recordValidator.Struct(rec); err != nil {
		return domain.SummaryRecord{}, &SchemaInvalidError{Raw: raw, Err: err}
	}

	return rec, nil
}
