package hooks

import "errors"

var (
	// ErrUnknownTiming indicates a timing string outside the closed set.
	ErrUnknownTiming = errors.New("unknown hook timing")

	// ErrUnknownHook indicates a hook type with no registered constructor.
	ErrUnknownHook = errors.New("unknown hook type")
)
