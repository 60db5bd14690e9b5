package summarizer

import (
	"errors"
	"fmt"
)

var (
	ErrNoJSONFound   = errors.New("no JSON object found in model output")
	ErrUnclosedJSON  = errors.New("unclosed JSON object in model output")
	ErrEmptyResponse = errors.New("empty model response")
)

// ModelOutputNotJSONError reports model text that did not contain a parsable
// JSON object.
type ModelOutputNotJSONError struct {
	Raw string
	Err error
}

func (e *ModelOutputNotJSONError) Error() string {
	return fmt.Sprintf("model did not return valid JSON: %v", e.Err)
}

func (e *ModelOutputNotJSONError) Unwrap() error {
	return e.Err
}

// SchemaInvalidError reports a parsed object that is not a valid summary
// record. Raw holds the offending mapping.
type SchemaInvalidError struct {
	Raw map[string]any
	Err error
}

func (e *SchemaInvalidError) Error() string {
	return fmt.Sprintf("JSON schema validation failed: %v", e.Err)
}

func (e *SchemaInvalidError) Unwrap() error {
	return e.Err
}

// FailureKind names the failure class of a per-story error for logs and
// metrics.
func FailureKind(err error) string {
	var notJSON *ModelOutputNotJSONError
	var invalid *SchemaInvalidError

	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrEmptyResponse):
		return "empty_response"
	case errors.As(err, &notJSON):
		return "not_json"
	case errors.As(err, &invalid):
		return "schema_invalid"
	default:
		return "generic"
	}
}
