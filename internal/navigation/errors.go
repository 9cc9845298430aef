package navigation

import "errors"

// Sentinel errors returned by coordinator operations and the host event
// bridge. Callers match them with errors.Is; wrapped messages carry the
// descriptor and operation detail.
var (
	// ErrInvalidState is returned when an operation targets the null stack
	// sentinel (a plain modal is on top) or a container with an empty page
	// stack.
	ErrInvalidState = errors.New("navigation: invalid state")

	// ErrOutOfRange is returned when an index or count falls outside the
	// current stack's valid bounds, including attempts to pop the last
	// remaining page.
	ErrOutOfRange = errors.New("navigation: out of range")

	// ErrNullArgument is returned when a required descriptor is nil.
	ErrNullArgument = errors.New("navigation: nil descriptor")

	// ErrResolutionFailed is returned when no screen factory is registered
	// for a descriptor kind and contract, or the factory itself fails.
	ErrResolutionFailed = errors.New("navigation: resolution failed")

	// ErrNotAScreen is returned when a registered factory produces a view
	// that is not host-displayable.
	ErrNotAScreen = errors.New("navigation: resolved view is not a screen")

	// ErrStackUnderflow signals a host/model desynchronization: a pop
	// notification arrived for a stack the model believes is empty. It is
	// not recoverable and surfaces through the bridge's error handler.
	ErrStackUnderflow = errors.New("navigation: stack underflow")
)
