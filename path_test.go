package meter

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

type stringerThing struct{}

func (stringerThing) String() string { return "named-thing" }

func TestNewPath(t *testing.T) {
	assert.False(t, NewPath(nil).IsSet())
	assert.Equal(t, "abc", NewPath("abc").String())
	assert.Equal(t, "named-thing", NewPath(stringerThing{}).String())
	assert.Equal(t, "42", NewPath(42).String())

	p := NewPath(errors.New("boom"))
	assert.True(t, p.IsSet())
	assert.Equal(t, "errorString", p.String())
}

func TestNewFailPath_usesFullTypeName(t *testing.T) {
	p := NewFailPath(errors.New("boom"))
	assert.Equal(t, "*errors.errorString", p.String())
}

func TestNewFailPath_nonError_matchesNewPath(t *testing.T) {
	assert.Equal(t, NewPath("abc"), NewFailPath("abc"))
}

func TestToCanonicalString(t *testing.T) {
	assert.Equal(t, "<null>", toCanonicalString(nil))
	assert.Equal(t, "abc", toCanonicalString("abc"))
	assert.Equal(t, fmt.Sprint(42), toCanonicalString(42))
	assert.Equal(t, "errorString", toCanonicalString(errors.New("boom")))
}
