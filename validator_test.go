package meter

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateStartable(t *testing.T) {
	assert.True(t, validateStartable(StateCreated).ok)
	v := validateStartable(StateStarted)
	assert.False(t, v.ok)
	assert.Equal(t, MarkerInconsistentStart, v.marker)
}

func TestValidateStarted(t *testing.T) {
	assert.True(t, validateStarted(StateStarted, MarkerInconsistentIncrement).ok)
	v := validateStarted(StateCreated, MarkerInconsistentIncrement)
	assert.False(t, v.ok)
	assert.Equal(t, MarkerInconsistentIncrement, v.marker)
}

func TestValidateTerminable(t *testing.T) {
	assert.True(t, validateTerminable(StateStarted).ok)
	assert.True(t, validateTerminable(StateCreated).ok)

	v := validateTerminable(StateOK)
	assert.False(t, v.ok)
	assert.Equal(t, MarkerIllegal, v.marker)
}

func TestValidatePositive(t *testing.T) {
	assert.True(t, validatePositive(1).ok)
	assert.False(t, validatePositive(0).ok)
}

func TestValidateNonDecreasing(t *testing.T) {
	assert.True(t, validateNonDecreasing(5, 6).ok)

	v := validateNonDecreasing(5, 5)
	assert.False(t, v.ok)
	assert.Equal(t, MarkerIllegal, v.marker)

	assert.False(t, validateNonDecreasing(5, 4).ok)
}

func TestValidateNotNil(t *testing.T) {
	assert.True(t, validateNotNil("x").ok)
	assert.False(t, validateNotNil(nil).ok)
}
