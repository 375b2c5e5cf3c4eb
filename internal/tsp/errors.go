package tsp

import (
	"errors"
	"fmt"
)

// Sentinel errors returned (wrapped) by the search engine. Match them with errors.Is.
var (
	ErrNonSquare         = errors.New("distance matrix is not square")
	ErrDimensionMismatch = errors.New("dimension mismatch")
	ErrTooFewPoints      = errors.New("at least two points are required")
	ErrNegativeDistance  = errors.New("negative distance")
	ErrInvalidDistance   = errors.New("distance is NaN or infinite")
	ErrNonZeroDiagonal   = errors.New("non-zero diagonal entry")
	ErrAsymmetric        = errors.New("distance matrix is not symmetric")
	ErrIndexOutOfRange   = errors.New("point index out of range")
	ErrInvalidTour       = errors.New("invalid tour")
	ErrSamplingRange     = errors.New("sampling range has fewer than two positions")
	ErrInvalidBudget     = errors.New("iteration budget must be positive")
	ErrEntropy           = errors.New("random source failure")
)

// Error represents a search error with context
// that can be wrapped with additional information.
type Error struct {
	// Message describes the error that occurred.
	Message string
	// Op is the operation that caused the error.
	Op string
	// Component is the component where the error occurred.
	Component string
	// Err is the underlying error that triggered this one, if any.
	Err error
}

// Error returns the string representation of the error.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	var prefix string
	if e.Component != "" && e.Op != "" {
		prefix = fmt.Sprintf("%s: %s", e.Component, e.Op)
	} else if e.Component != "" {
		prefix = e.Component
	} else if e.Op != "" {
		prefix = e.Op
	}

	msg := e.Message
	if e.Err != nil {
		if msg == "" {
			msg = e.Err.Error()
		} else {
			msg = fmt.Sprintf("%s: %v", msg, e.Err)
		}
	}

	if prefix != "" {
		return fmt.Sprintf("%s: %s", prefix, msg)
	}
	return msg
}

// Unwrap returns the underlying error, if any.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// newError builds an Error for component/op wrapping a sentinel.
func newError(component, op string, sentinel error, format string, args ...interface{}) *Error {
	return &Error{
		Message:   fmt.Sprintf(format, args...),
		Op:        op,
		Component: component,
		Err:       sentinel,
	}
}

// wrapError attaches component/op context to err. If err is nil, wrapError returns nil.
func wrapError(component, op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{
		Op:        op,
		Component: component,
		Err:       err,
	}
}

// AsError reports whether err carries an *Error and returns it.
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}
