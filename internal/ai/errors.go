// Package ai is the gateway between the pipeline and LLM providers: it owns
// prompt execution, JSON extraction from free-form model text, output schema
// validation, and bounded retry with exponential backoff.
package ai

import (
	"errors"
	"fmt"
	"strings"
)

// TransportError is a network or provider failure calling the model.
// Retryable.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string { return "transport: " + e.Err.Error() }
func (e *TransportError) Unwrap() error { return e.Err }

// ExtractionError means no JSON-shaped content was found in the model
// response. Retryable, since a retry may get a well-formed response.
type ExtractionError struct {
	// Snippet is a truncated excerpt of the offending response.
	Snippet string
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extraction: no JSON found in response %q", e.Snippet)
}

// ParseError is JSON-shaped text that fails to parse. Retryable.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string { return "parse: " + e.Err.Error() }
func (e *ParseError) Unwrap() error { return e.Err }

// FieldError is one schema violation at a specific field path. Type is the
// validator that failed, e.g. "required" or "array_min_items".
type FieldError struct {
	Field   string
	Type    string
	Message string
}

// SchemaValidationError means the response parsed but violates the output
// contract. Retryable at the call site's discretion; Document carries the
// extracted JSON so callers can inspect the payload behind the failure.
type SchemaValidationError struct {
	Fields   []FieldError
	Document string
}

func (e *SchemaValidationError) Error() string {
	var b strings.Builder
	b.WriteString("schema validation failed:")
	for _, f := range e.Fields {
		b.WriteString(" " + f.Field + ": " + f.Message + ";")
	}
	return b.String()
}

// Retryable reports whether an error belongs to the gateway's retryable
// taxonomy. Context cancellation and unknown errors are not retried.
func Retryable(err error) bool {
	var te *TransportError
	var ee *ExtractionError
	var pe *ParseError
	var se *SchemaValidationError
	return errors.As(err, &te) || errors.As(err, &ee) || errors.As(err, &pe) || errors.As(err, &se)
}

func snippet(text string, n int) string {
	text = strings.TrimSpace(text)
	if len(text) > n {
		return text[:n] + "..."
	}
	return text
}
