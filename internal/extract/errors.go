package extract

import (
	"errors"
	"fmt"
	"strings"
)

// NoJSONFoundError means the raw text has no brace-bounded region
type NoJSONFoundError struct {
	Raw string
}

func (e *NoJSONFoundError) Error() string {
	return "no JSON object found in model response"
}

// MalformedJSONError means the brace-bounded region is not valid JSON
type MalformedJSONError struct {
	Raw string
	Err error
}

func (e *MalformedJSONError) Error() string {
	return fmt.Sprintf("model response is not valid JSON: %v", e.Err)
}

func (e *MalformedJSONError) Unwrap() error {
	return e.Err
}

// SchemaViolationError means the JSON parsed but does not form a valid
// blueprint. Parsed holds the decoded object for diagnosis.
type SchemaViolationError struct {
	Raw      string
	Parsed   any
	Problems []string
}

func (e *SchemaViolationError) Error() string {
	return "model response does not match the blueprint schema: " + strings.Join(e.Problems, "; ")
}

// RawText returns the raw model output carried by an extraction error, or ""
func RawText(err error) string {
	var (
		noJSON    *NoJSONFoundError
		malformed *MalformedJSONError
		schema    *SchemaViolationError
	)
	switch {
	case errors.As(err, &noJSON):
		return noJSON.Raw
	case errors.As(err, &malformed):
		return malformed.Raw
	case errors.As(err, &schema):
		return schema.Raw
	default:
		return ""
	}
}
