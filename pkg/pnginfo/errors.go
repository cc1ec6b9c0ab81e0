package pnginfo

import "errors"

// Sentinel errors for misuse of the generator. Graph content never
// produces an error.
var (
	// ErrNilContext indicates Generate was called with a nil context.
	ErrNilContext = errors.New("context cannot be nil")

	// ErrNilCollector indicates Generate was called without a collector.
	ErrNilCollector = errors.New("collector cannot be nil")
)
