package core

import (
	"errors"
	"fmt"

	"github.com/git-pkgs/packument/internal/scanner"
)

var (
	// ErrSyntax is returned when the buffer is not a well-formed JSON object.
	ErrSyntax = scanner.ErrSyntax

	// ErrMissingRequiredField is returned when a required top-level field is
	// absent or has the wrong type.
	ErrMissingRequiredField = errors.New("missing required field")

	// ErrMalformedVersionValue is returned when a recorded version span does
	// not decode to a version object.
	ErrMalformedVersionValue = errors.New("malformed version value")

	// ErrNotFound is returned when a package or version is not found.
	ErrNotFound = errors.New("not found")
)

// SyntaxError reports malformed JSON with a 1-based line and column.
type SyntaxError = scanner.SyntaxError

// MissingFieldError wraps ErrMissingRequiredField with the field name.
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("missing required field %q", e.Field)
}

func (e *MissingFieldError) Unwrap() error {
	return ErrMissingRequiredField
}

// MalformedVersionError wraps ErrMalformedVersionValue.
type MalformedVersionError struct {
	Version string // empty when the span was resolved directly
	Span    ByteSpan
	Reason  string
	Err     error // underlying syntax error, if any
}

func (e *MalformedVersionError) Error() string {
	msg := fmt.Sprintf("malformed version value at [%d, %d)", e.Span.Start, e.Span.End)
	if e.Version != "" {
		msg = fmt.Sprintf("malformed version value for %s at [%d, %d)", e.Version, e.Span.Start, e.Span.End)
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}

func (e *MalformedVersionError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrMalformedVersionValue, e.Err}
	}
	return []error{ErrMalformedVersionValue}
}

// NotFoundError wraps ErrNotFound with additional context.
type NotFoundError struct {
	Name    string
	Version string
}

func (e *NotFoundError) Error() string {
	if e.Version != "" {
		return fmt.Sprintf("npm: package %s version %s not found", e.Name, e.Version)
	}
	return fmt.Sprintf("npm: package %s not found", e.Name)
}

func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}
