// Package goroutineid extracts the runtime-assigned goroutine id of the
// calling goroutine, for use as a key into a per-goroutine "current
// instance" stack. Go deliberately has no public API for this; the
// technique below parses the header line of runtime.Stack's output, the
// standard workaround used where a stable per-goroutine key is required
// (see DESIGN.md for why this package is hand-rolled rather than imported).
package goroutineid

import (
	"bytes"
	"runtime"
	"strconv"
)

// Current returns the id of the calling goroutine.
//
// It allocates a small buffer and calls runtime.Stack, so it is not
// suitable for use on a hot path; callers should cache the result for the
// lifetime of the goroutine where possible.
func Current() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	b := buf[:n]

	const prefix = "goroutine "
	if !bytes.HasPrefix(b, []byte(prefix)) {
		return 0
	}
	b = b[len(prefix):]

	i := bytes.IndexByte(b, ' ')
	if i < 0 {
		return 0
	}
	id, err := strconv.ParseUint(string(b[:i]), 10, 64)
	if err != nil {
		return 0
	}
	return id
}
