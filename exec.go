package meter

import (
	"fmt"
	"reflect"
)

// Run starts m if it is not already started, executes fn, and terminates
// m with Ok if fn returns normally and m is still non-terminal. A panic
// from fn terminates m via Fail (with the recovered value coerced to an
// error as the fail path) and is re-raised.
func Run(m *Meter, fn func()) {
	ensureStarted(m)
	defer func() {
		if r := recover(); r != nil {
			safeTerminate(m, "Run", func() { m.FailWithPath(panicToError(r)) })
			panic(r)
		}
	}()
	fn()
	if !m.state.Terminal() {
		m.Ok()
	}
}

// Call is the value-returning variant of Run. If fn returns without m
// having been terminated, m is terminated with Ok and a synthetic
// description of the form "result=<value>".
func Call[T any](m *Meter, fn func() T) T {
	ensureStarted(m)
	defer func() {
		if r := recover(); r != nil {
			safeTerminate(m, "Call", func() { m.FailWithPath(panicToError(r)) })
			panic(r)
		}
	}()
	result := fn()
	if !m.state.Terminal() {
		m.Description(fmt.Sprintf("result=%v", result))
		m.Ok()
	}
	return result
}

// RunOrReject is Run, except panics whose recovered value's runtime type
// matches one of rejectClasses terminate via Reject (with the type's
// simple name as the reject path) instead of Fail.
func RunOrReject(m *Meter, rejectClasses []reflect.Type, fn func()) {
	ensureStarted(m)
	defer func() {
		if r := recover(); r != nil {
			safeTerminate(m, "RunOrReject", func() { terminateClassified(m, r, rejectClasses) })
			panic(r)
		}
	}()
	fn()
	if !m.state.Terminal() {
		m.Ok()
	}
}

// CallOrReject is the value-returning variant of RunOrReject.
func CallOrReject[T any](m *Meter, rejectClasses []reflect.Type, fn func() T) T {
	ensureStarted(m)
	defer func() {
		if r := recover(); r != nil {
			safeTerminate(m, "CallOrReject", func() { terminateClassified(m, r, rejectClasses) })
			panic(r)
		}
	}()
	result := fn()
	if !m.state.Terminal() {
		m.Description(fmt.Sprintf("result=%v", result))
		m.Ok()
	}
	return result
}

// CallOrRejectChecked is semantically identical to CallOrReject; the
// distinction exists in the originating specification purely as a
// language-ergonomics concern for checked exceptions, which Go has no
// equivalent of.
func CallOrRejectChecked[T any](m *Meter, rejectClasses []reflect.Type, fn func() T) T {
	return CallOrReject(m, rejectClasses, fn)
}

// SafeCall runs fn, and on panic terminates m via Fail, then passes the
// coerced cause through wrap (if non-nil) and panics with the result. If
// wrap is nil, the original recovered value is re-panicked unchanged. If
// wrap itself panics, SafeCall falls back to panicking with ErrWrapFailed
// and additionally emits an InconsistentException record.
func SafeCall[T any](m *Meter, wrap func(cause error) error, fn func() T) (result T) {
	ensureStarted(m)
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		cause := panicToError(r)
		safeTerminate(m, "SafeCall", func() { m.FailWithPath(cause) })
		if wrap == nil {
			panic(r)
		}
		wrapped := safeWrap(m, wrap, cause)
		panic(wrapped)
	}()
	result = fn()
	if !m.state.Terminal() {
		m.Ok()
	}
	return result
}

// safeTerminate runs step, an internal library action taken while already
// unwinding a recovered panic, and converts any panic step itself raises
// into a log_bug record (spec section 4.4) rather than letting it replace
// the panic value the caller is about to re-raise.
func safeTerminate(m *Meter, methodName string, step func()) {
	defer func() {
		if r := recover(); r != nil {
			m.logBug(methodName, panicToError(r))
		}
	}()
	step()
}

func safeWrap(m *Meter, wrap func(cause error) error, cause error) (wrapped error) {
	defer func() {
		if recover() != nil {
			m.emitError(MarkerInconsistentException, "safeCall wrapper could not be instantiated")
			wrapped = ErrWrapFailed
		}
	}()
	if w := wrap(cause); w != nil {
		return w
	}
	return ErrWrapFailed
}

func ensureStarted(m *Meter) {
	if m.state == StateCreated {
		m.Start()
	}
}

func terminateClassified(m *Meter, recovered any, rejectClasses []reflect.Type) {
	t := reflect.TypeOf(recovered)
	for _, rc := range rejectClasses {
		if t == rc {
			m.RejectWithPath(simpleTypeNameOf(t))
			return
		}
	}
	m.FailWithPath(panicToError(recovered))
}

func simpleTypeNameOf(t reflect.Type) string {
	if t == nil {
		return "<nil>"
	}
	name := t.String()
	for i := len(name) - 1; i >= 0; i-- {
		if name[i] == '.' {
			return name[i+1:]
		}
	}
	return name
}

func panicToError(recovered any) error {
	if err, ok := recovered.(error); ok {
		return err
	}
	return fmt.Errorf("%v", recovered)
}
