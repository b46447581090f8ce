package prompt

import "errors"

var (
	// ErrAborted signals the user aborted input (e.g., Ctrl+C).
	ErrAborted = errors.New("prompt: aborted")
	// ErrInvalid is returned when a field or the form stays invalid after the
	// allowed attempts.
	ErrInvalid = errors.New("prompt: invalid input")
	// ErrSettleTimeout is returned when validation does not settle in time.
	ErrSettleTimeout = errors.New("prompt: validation did not settle")
)
