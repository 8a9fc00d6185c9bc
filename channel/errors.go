package channel

import "errors"

// Errors completing a CompletionToken or returned directly, matching the
// error taxonomy in spec.md §7.
var (
	// ErrUnsupportedOperation is used to fail connect/disconnect/flush
	// tokens on a ServerChannel.
	ErrUnsupportedOperation = errors.New("channel: operation unsupported on this channel")

	// ErrAlreadyRegistered is returned by Register when the channel already
	// has an assigned event loop.
	ErrAlreadyRegistered = errors.New("channel: already registered to an event loop")

	// ErrClosed describes an operation attempted on a closed channel. No
	// Channel method returns it.
	ErrClosed = errors.New("channel: closed")

	// ErrNotRegistered describes an operation that needs a bound event loop
	// before one has been assigned. No Channel method returns it: an
	// unregistered Channel runs its operations inline on the caller.
	ErrNotRegistered = errors.New("channel: not registered to an event loop")
)
