package errors

import (
	"errors"
	"fmt"
)

// TooManyResultsError reports that a search predicate matched more results than
// the configured safety ceiling. It is the trigger condition for query
// decomposition and is never surfaced past the exhaustive search engine.
type TooManyResultsError struct {
	Count   int
	Ceiling int
}

// Error implements the error interface for TooManyResultsError.
func (e *TooManyResultsError) Error() string {
	return fmt.Sprintf("search matched %d results, above the ceiling of %d", e.Count, e.Ceiling)
}

// NewTooManyResultsError creates a TooManyResultsError for the given counts.
func NewTooManyResultsError(count, ceiling int) error {
	return &TooManyResultsError{Count: count, Ceiling: ceiling}
}

// IsTooManyResults reports whether err is a TooManyResultsError, returning it when so.
func IsTooManyResults(err error) (*TooManyResultsError, bool) {
	var tmr *TooManyResultsError
	if errors.As(err, &tmr) {
		return tmr, true
	}
	return nil, false
}

// ObjectNotFoundError reports that the server does not know the requested resource.
// The caller decides whether to skip the item or invalidate its cache entry and retry.
type ObjectNotFoundError struct {
	Kind string
	Key  string
}

// Error implements the error interface for ObjectNotFoundError.
func (e *ObjectNotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.Key)
}

// NewObjectNotFoundError creates an ObjectNotFoundError for the given resource.
func NewObjectNotFoundError(kind, key string) error {
	return &ObjectNotFoundError{Kind: kind, Key: key}
}

// IsObjectNotFound reports whether err is an ObjectNotFoundError.
func IsObjectNotFound(err error) bool {
	var nf *ObjectNotFoundError
	return errors.As(err, &nf)
}

// DecompositionError reports that the query decomposer could not produce a
// strictly smaller sub-predicate. It is fatal: retrying the same split would loop.
type DecompositionError struct {
	Dimension string
	Reason    string
}

// Error implements the error interface for DecompositionError.
func (e *DecompositionError) Error() string {
	return fmt.Sprintf("cannot decompose predicate on %q: %s", e.Dimension, e.Reason)
}

// NewDecompositionError creates a DecompositionError for the given dimension.
func NewDecompositionError(dimension, reason string) error {
	return &DecompositionError{Dimension: dimension, Reason: reason}
}

// CommandError represents an error that occurred during command execution,
// carrying the exit code for the CLI edge.
type CommandError struct {
	ExitCode    int
	CommonError string
}

// Error implements the error interface, returning the message from the common error.
func (e *CommandError) Error() string {
	return e.CommonError
}

// NewCommandError creates a new CommandError encapsulating the cause and exit code.
func NewCommandError(err error, code int) *CommandError {
	return &CommandError{
		ExitCode:    code,
		CommonError: err.Error(),
	}
}
