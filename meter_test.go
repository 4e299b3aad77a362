package meter

import (
	"bytes"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// captureProvider wires every requested logger name to the same zerolog
// sink, backed by buf, so tests can inspect the raw JSON lines emitted.
func captureProvider(buf *bytes.Buffer) LoggerProvider {
	zl := zerolog.New(buf).Level(zerolog.TraceLevel)
	return NewZerologProvider(zl)
}

func newTestMeter(t *testing.T, clock Clock, opts ...Option) (*Meter, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	allOpts := append([]Option{WithClock(clock)}, opts...)
	m, err := New(captureProvider(&buf), "cat", allOpts...)
	require.NoError(t, err)
	return m, &buf
}

func TestNew_nullProviderRejected(t *testing.T) {
	_, err := New(nil, "cat")
	assert.ErrorIs(t, err, ErrNullLogger)
}

func TestNew_capturesIdentity(t *testing.T) {
	clock := NewFakeClock(10)
	m, _ := newTestMeter(t, clock, WithOperation("op"))
	assert.Equal(t, "cat", m.data.Category)
	assert.Equal(t, "op", m.data.Operation)
	assert.Equal(t, StateCreated, m.State())
	assert.Equal(t, uint64(10), m.data.createTime)
}

func TestStart_transitionsAndEmits(t *testing.T) {
	clock := NewFakeClock(10)
	m, buf := newTestMeter(t, clock, WithOperation("op"))
	clock.Set(20)

	m.Start()

	assert.Equal(t, StateStarted, m.State())
	assert.Equal(t, uint64(20), m.data.startTime)
	assert.NotEmpty(t, buf.String())
}

func TestStart_refusedWhenNotCreated(t *testing.T) {
	clock := NewFakeClock(10)
	m, _ := newTestMeter(t, clock)
	m.Start()
	startTime := m.data.startTime

	clock.Advance(100)
	m.Start()

	assert.Equal(t, startTime, m.data.startTime)
	assert.Equal(t, StateStarted, m.State())
}

func TestDescriptionFmt_setsFormattedText(t *testing.T) {
	clock := NewFakeClock(10)
	m, _ := newTestMeter(t, clock)

	m.DescriptionFmt("%s has %d items", "cart", 3)

	assert.Equal(t, "cart has 3 items", m.data.description)
	assert.True(t, m.data.hasDescription)
}

func TestDescriptionFmt_verbArgMismatchRefusedWithoutClearing(t *testing.T) {
	clock := NewFakeClock(10)
	m, buf := newTestMeter(t, clock)

	m.Description("kept")
	buf.Reset()
	m.DescriptionFmt("%d", "not-a-number")

	assert.Equal(t, "kept", m.data.description)
	assert.True(t, m.data.hasDescription)
	assert.Contains(t, buf.String(), "Illegal")
}

func TestOk_happyPath(t *testing.T) {
	clock := NewFakeClock(10)
	m, _ := newTestMeter(t, clock, WithOperation("op"))
	clock.Set(20)
	m.Start()
	clock.Set(200)
	m.Ok()

	assert.Equal(t, StateOK, m.State())
	assert.Equal(t, uint64(200), m.data.stopTime)
	assert.False(t, m.data.okPath.IsSet())
}

func TestOkWithPath_setsPath(t *testing.T) {
	clock := NewFakeClock(10)
	m, _ := newTestMeter(t, clock)
	m.Start()
	m.OkWithPath("abc")

	assert.Equal(t, "abc", m.data.okPath.String())
}

func TestFail_selfCorrectingFromCreated(t *testing.T) {
	clock := NewFakeClock(10)
	m, _ := newTestMeter(t, clock, WithOperation("op"))
	clock.Set(200)
	m.FailWithPath("technical_error")

	assert.Equal(t, StateFailed, m.State())
	assert.Equal(t, uint64(0), m.data.startTime)
	assert.Equal(t, "technical_error", m.data.failPath.String())
	assert.Equal(t, uint64(190), m.data.Elapsed(200))
}

func TestPostTerminalMutationRefused(t *testing.T) {
	clock := NewFakeClock(10)
	m, _ := newTestMeter(t, clock)
	m.Start()
	m.Ok()

	m.Inc()
	m.Ctx("k", "v")

	assert.Equal(t, uint64(0), m.data.currentIteration)
	_, ok := m.Context()["k"]
	assert.False(t, ok)
}

func TestIncToRequiresForwardProgress(t *testing.T) {
	clock := NewFakeClock(10)
	m, _ := newTestMeter(t, clock)
	m.Start()
	m.IncTo(5)
	assert.Equal(t, uint64(5), m.data.currentIteration)

	m.IncTo(3)
	assert.Equal(t, uint64(5), m.data.currentIteration)

	m.IncTo(8)
	assert.Equal(t, uint64(8), m.data.currentIteration)
}

func TestSub_inheritsCategoryAndContext(t *testing.T) {
	clock := NewFakeClock(10)
	parent, _ := newTestMeter(t, clock, WithOperation("parentOp"))
	parent.Ctx("user", "alice")
	parent.Ctx("action", "import")
	parent.Start()

	child, err := parent.Sub("child")
	require.NoError(t, err)

	assert.Equal(t, "parentOp/child", child.data.Operation)
	assert.Equal(t, parent.FullID(), child.data.Parent)
	assert.Equal(t, "cat", child.data.Category)

	v, ok := child.data.context.Get("user")
	assert.True(t, ok)
	assert.Equal(t, "alice", v)
}

func TestSub_doesNotMutateParent(t *testing.T) {
	clock := NewFakeClock(10)
	parent, _ := newTestMeter(t, clock)
	parent.Ctx("k", "v")

	child, err := parent.Sub("child")
	require.NoError(t, err)
	child.Ctx("k", "changed")

	v, _ := parent.data.context.Get("k")
	assert.Equal(t, "v", v)
}

func TestTerminate_outOfOrderReportsIllegal(t *testing.T) {
	clock := NewFakeClock(10)
	outer, buf := newTestMeter(t, clock, WithOperation("outer"))
	inner, err := outer.Sub("inner")
	require.NoError(t, err)

	outer.Start()
	inner.Start()
	buf.Reset()

	outer.Ok() // outer is not the top of the stack; inner is.

	assert.Contains(t, buf.String(), "Illegal")
	assert.Contains(t, buf.String(), "out of order")
}

func TestSub_inheritsSessionUUIDAndIdentity(t *testing.T) {
	clock := NewFakeClock(10)
	parent, _ := newTestMeter(t, clock, WithOperation("parentOp"), WithSessionUUID("fixed-session"))

	child, err := parent.Sub("child")
	require.NoError(t, err)

	assert.Equal(t, "fixed-session", child.data.SessionUUID)
	assert.Same(t, parent.identity, child.identity)
}

func TestCurrentInstance_reflectsStack(t *testing.T) {
	clock := NewFakeClock(10)
	m, _ := newTestMeter(t, clock)

	assert.NotSame(t, m, CurrentInstance())
	m.Start()
	assert.Same(t, m, CurrentInstance())
	m.Ok()
	assert.NotSame(t, m, CurrentInstance())
}

func TestFailErr_setsFailMessageAndFullTypeNamePath(t *testing.T) {
	clock := NewFakeClock(10)
	m, _ := newTestMeter(t, clock)
	m.Start()

	m.FailErr(errors.New("boom"))

	assert.Equal(t, "boom", m.data.failMessage)
	assert.True(t, m.data.hasFailMsg)
	assert.Equal(t, "*errors.errorString", m.data.failPath.String())
}

func TestProgress_rateLimited(t *testing.T) {
	clock := NewFakeClock(10)
	cfg := DefaultConfig()
	cfg.ProgressPeriodMs = 1000
	m, buf := newTestMeter(t, clock, WithConfig(cfg))
	m.Start()
	clock.Set(10 + 1_000_000_000) // one full period after start

	m.Inc()
	m.Progress()
	n1 := buf.Len()

	clock.Advance(10) // well under the 1000ms period
	m.Inc()
	m.Progress()
	n2 := buf.Len()

	assert.Equal(t, n1, n2, "second progress call should have been swallowed")
}

func TestProgress_zeroPeriodAlwaysAllowed(t *testing.T) {
	clock := NewFakeClock(10)
	cfg := DefaultConfig()
	cfg.ProgressPeriodMs = 0
	m, buf := newTestMeter(t, clock, WithConfig(cfg))
	m.Start()
	clock.Set(3020)
	m.IncTo(2)

	buf.Reset()
	m.Progress()
	assert.NotEmpty(t, buf.String())
}
