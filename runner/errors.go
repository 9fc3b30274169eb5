package runner

import (
	"errors"

	"github.com/c360studio/rmlvalidate/shacl"
)

// ParseError is the failure of a document that could not be resolved or
// read as Turtle.
type ParseError struct {
	Path string
	err  error
}

func (e *ParseError) Error() string {
	return e.err.Error()
}

func (e *ParseError) Unwrap() error {
	return e.err
}

// ValidationError is the failure of a graph that did not conform to the
// shapes, or that the shape engine could not evaluate.
type ValidationError struct {
	// Path is empty for the combined graph.
	Path string
	err  error
}

func (e *ValidationError) Error() string {
	return e.err.Error()
}

func (e *ValidationError) Unwrap() error {
	return e.err
}

// Report returns the SHACL report when the failure is a non-conformance.
func (e *ValidationError) Report() *shacl.Report {
	var nc *shacl.NonConformanceError
	if errors.As(e.err, &nc) {
		return nc.Report
	}
	return nil
}

// IsParseError returns true if err is or wraps a ParseError.
func IsParseError(err error) bool {
	var parseErr *ParseError
	return errors.As(err, &parseErr)
}

// IsValidationError returns true if err is or wraps a ValidationError.
func IsValidationError(err error) bool {
	var validationErr *ValidationError
	return errors.As(err, &validationErr)
}
