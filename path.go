package meter

import (
	"fmt"
	"reflect"
	"strings"
)

type (
	// Path is the canonical coercion of a caller-supplied outcome label
	// (an ok_path, reject_path, or fail_path), the closed sum type
	// replacement for the dynamic string/enum/throwable/arbitrary-object
	// dispatch described in spec section 9.
	Path struct {
		value string
		set   bool
	}
)

// NoPath is the zero Path, equivalent to a null argument.
var NoPath = Path{}

// IsSet reports whether the path carries a value.
func (p Path) IsSet() bool { return p.set }

// String returns the coerced value, or "" if unset.
func (p Path) String() string { return p.value }

// NewPath coerces v into a Path using the canonical rules of spec section 6:
// nil -> unset; string -> identity; fmt.Stringer -> its declared name;
// error -> its simple type name (see NewFailPath for the "full name"
// variant fail() requires); anything else -> fmt.Sprint.
func NewPath(v any) Path {
	if v == nil {
		return NoPath
	}
	switch t := v.(type) {
	case string:
		return Path{value: t, set: true}
	case error:
		return Path{value: simpleTypeName(t), set: true}
	case fmt.Stringer:
		return Path{value: t.String(), set: true}
	default:
		return Path{value: fmt.Sprint(v), set: true}
	}
}

// NewFailPath coerces v for use as a fail() path, per spec section 4.3.6:
// error values resolve to their full (package-qualified) type name rather
// than the simple name NewPath uses. Non-error values coerce identically
// to NewPath.
func NewFailPath(v any) Path {
	if err, ok := v.(error); ok {
		return Path{value: fullTypeName(err), set: true}
	}
	return NewPath(v)
}

// simpleTypeName returns the unqualified type name of err's dynamic type,
// e.g. "errorString" for errors created via errors.New.
func simpleTypeName(err error) string {
	name := fullTypeName(err)
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		return name[i+1:]
	}
	return name
}

// fullTypeName returns the package-qualified type name of err's dynamic
// type, e.g. "*errors.errorString".
func fullTypeName(err error) string {
	t := reflect.TypeOf(err)
	if t == nil {
		return "<nil>"
	}
	return t.String()
}

// toCanonicalString coerces an arbitrary value (e.g. a context value, or a
// description argument) to its canonical string form, per spec section 6's
// path-coercion table, which applies uniformly to ok/reject/fail/ctx/
// description values: a throwable coerces to its simple class name, the
// same rule NewPath uses. Unlike NewPath it has no concept of a "path", and
// is used for ctx values where null is substituted with the literal
// "<null>" rather than leaving the entry unset.
func toCanonicalString(v any) string {
	if v == nil {
		return "<null>"
	}
	switch t := v.(type) {
	case string:
		return t
	case error:
		return simpleTypeName(t)
	case fmt.Stringer:
		return t.String()
	default:
		return fmt.Sprint(v)
	}
}
