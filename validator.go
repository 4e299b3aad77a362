package meter

import "fmt"

// verdict is the outcome of a validation predicate: whether the call
// should proceed, and if not, the Marker and reason describing why, logged by
// the caller rather than returned as a Go error (matching the
// fire-and-forget style of the logging facade this package wraps).
type verdict struct {
	ok     bool
	marker Marker
	reason string
}

func allow() verdict { return verdict{ok: true} }

func deny(marker Marker, reason string) verdict {
	return verdict{ok: false, marker: marker, reason: reason}
}

// validateStartable reports whether a Start call is legal: the meter must
// be in StateCreated.
func validateStartable(state State) verdict {
	if state != StateCreated {
		return deny(MarkerInconsistentStart, "meter already started or terminated")
	}
	return allow()
}

// validateStarted reports whether a call that requires a started, not yet
// terminated meter (Inc, IncBy, IncTo, Progress) is legal.
func validateStarted(state State, marker Marker) verdict {
	if state != StateStarted {
		return deny(marker, "meter is not started")
	}
	return allow()
}

// validateTerminable reports whether a termination call (Ok, Reject, Fail)
// is legal. Unlike Start, termination is self-correcting: it is legal from
// either StateCreated (producing an Inconsistent* marker, but still
// proceeding) or StateStarted (the well-formed case). It is never legal
// once already terminal.
func validateTerminable(state State) verdict {
	switch state {
	case StateStarted, StateCreated:
		return allow()
	default:
		return deny(MarkerIllegal, "meter already terminated")
	}
}

// validatePositive reports whether n is usable as an iteration count or
// expected-iterations value: zero and negative values (the type system
// already excludes negative, but overflow from subtraction is possible) are
// rejected.
func validatePositive(n uint64) verdict {
	if n == 0 {
		return deny(MarkerIllegal, "value must be positive")
	}
	return allow()
}

// validateNonDecreasing reports whether next is a legal IncTo argument
// given current: IncTo must strictly advance the iteration count, per
// spec section 4.3.4 — repeating the current value is refused exactly
// like moving backwards.
func validateNonDecreasing(current, next uint64) verdict {
	if next <= current {
		return deny(MarkerIllegal, "iteration count must strictly increase")
	}
	return allow()
}

// validateNotNil reports whether a required argument (an error passed to
// FailErr, or a Logger passed to New) is non-nil.
func validateNotNil(v any) verdict {
	if v == nil {
		return deny(MarkerIllegal, "argument must not be nil")
	}
	return allow()
}

// logBug implements the Validator's log_bug(method_name, cause) operation
// (spec section 4.4): used by ExecutorWrappers when a step they themselves
// own — as opposed to the supplied callback — panics, signalling a defect
// in this package rather than caller misuse. Tagged with MarkerBug so it
// is distinguishable from the ordinary Fail/Reject path a callback's own
// panic takes.
func (m *Meter) logBug(methodName string, cause error) {
	m.emitError(MarkerBug, fmt.Sprintf("internal error in %s: %s", methodName, cause))
}
