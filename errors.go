package meter

import "errors"

var (
	// ErrNullLogger is returned by New when the supplied Logger is nil.
	ErrNullLogger = errors.New("meter: logger must not be nil")

	// ErrWrapFailed is the generic wrapping error SafeCall panics with when
	// the supplied wrap function panics or returns nil. With a nil wrap,
	// SafeCall re-panics the original value instead.
	ErrWrapFailed = errors.New("meter: safeCall wrapped exception.")
)
