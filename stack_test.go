package meter

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCurrentInstance_emptyReturnsSentinel(t *testing.T) {
	cur := CurrentInstance()
	require := assert.New(t)
	require.NotNil(cur)
	require.Equal(unknownCategory, cur.data.Category)
}

func TestPushPopCurrent(t *testing.T) {
	m1 := &Meter{data: MeterData{Category: "a"}}
	m2 := &Meter{data: MeterData{Category: "b"}}

	pushCurrent(m1)
	defer popCurrent(m1)
	assert.Same(t, m1, CurrentInstance())

	pushCurrent(m2)
	assert.Same(t, m2, CurrentInstance())

	popCurrent(m2)
	assert.Same(t, m1, CurrentInstance())
}
