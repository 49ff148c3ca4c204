// Package command parses and validates slash-command text into typed
// requests. All functions here are pure: text in, request or typed error
// out, no I/O.
package command

import "errors"

// Validation error taxonomy. Handlers wrap these with %w and context; the
// dispatcher classifies anything matching one of them as a validation
// failure that never reaches the brokerage.
var (
	// ErrWrongArgCount reports an arity mismatch for a command.
	ErrWrongArgCount = errors.New("wrong number of arguments")

	// ErrBadArgument reports a malformed or unrecognized token.
	ErrBadArgument = errors.New("bad argument")

	// ErrUnknownChannel reports a stream channel name outside the fixed set.
	ErrUnknownChannel = errors.New("unknown stream channel")

	// ErrAlreadyInState reports a no-op state transition, such as
	// unsubscribing a channel that is not subscribed.
	ErrAlreadyInState = errors.New("already in requested state")
)

// IsValidation reports whether err belongs to the local validation taxonomy,
// as opposed to an upstream (brokerage) failure.
func IsValidation(err error) bool {
	return errors.Is(err, ErrWrongArgCount) ||
		errors.Is(err, ErrBadArgument) ||
		errors.Is(err, ErrUnknownChannel) ||
		errors.Is(err, ErrAlreadyInState)
}
