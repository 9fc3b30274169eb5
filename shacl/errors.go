package shacl

import "errors"

// NonConformanceError is returned by Validator.Check when the data graph
// does not conform to the shapes.
type NonConformanceError struct {
	Report *Report
}

func (e *NonConformanceError) Error() string {
	return "shapes not satisfied: " + e.Report.Summary()
}

// IsNonConformance reports whether err is or wraps a NonConformanceError.
func IsNonConformance(err error) bool {
	var target *NonConformanceError
	return errors.As(err, &target)
}
