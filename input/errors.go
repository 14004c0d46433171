package input

import (
	"fmt"

	"github.com/pkg/errors"
)

type UsageError string

func (e *UsageError) Error() string {
	return string(*e)
}

func newUsageError(message string) error {
	u := UsageError(message)
	return errors.WithStack(&u)
}

// SyntaxError reports a request item without any separator.
type SyntaxError struct {
	Item string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%q is not a valid request item", e.Item)
}

// InvalidJSONError reports a ":=" item whose value is not valid JSON.
type InvalidJSONError struct {
	Item string
	Err  error
}

func (e *InvalidJSONError) Error() string {
	return fmt.Sprintf("%q: %v", e.Item, e.Err)
}

func (e *InvalidJSONError) Unwrap() error {
	return e.Err
}

// HeaderSyntaxError reports a header name or value that is not allowed by
// the HTTP grammar.
type HeaderSyntaxError struct {
	Name  string
	Value string
	Field string // "name" or "value"
}

func (e *HeaderSyntaxError) Error() string {
	if e.Field == "value" {
		return fmt.Sprintf("invalid header value for %q: %q", e.Name, e.Value)
	}
	return fmt.Sprintf("invalid header name: %q", e.Name)
}
