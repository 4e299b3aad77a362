package meter

import (
	"fmt"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/joeycumines/logiface"
)

// unknownCategory is the reserved category of the sentinel Meter returned
// by CurrentInstance when no meter is active on the calling goroutine.
const unknownCategory = "UNKNOWN"

var (
	// processSessionUUID identifies this process for the lifetime of the
	// MeterData.SessionUUID field of every meter it constructs.
	processSessionUUID = uuid.Must(uuid.NewV7()).String()

	// unknownMeter is the sentinel returned by CurrentInstance for an
	// empty stack.
	unknownMeter = &Meter{
		data:  MeterData{SessionUUID: processSessionUUID, Category: unknownCategory},
		state: StateCreated,
	}
)

type (
	// Meter instruments a single bounded unit of work. See the package
	// doc comment for the state machine it implements.
	//
	// A Meter is single-thread-use: it must be started, progressed, and
	// terminated from the goroutine that constructed it. The zero value
	// is not usable; construct one with New.
	Meter struct {
		data  MeterData
		state State

		provider LoggerProvider
		config   Config
		clock    Clock
		identity *IdentityService

		msgLoggerOnce  sync.Once
		msgLogger      *logiface.Logger[logiface.Event]
		dataLoggerOnce sync.Once
		dataLogger     *logiface.Logger[logiface.Event]

		lastProgress uint64
	}
)

// New constructs a Meter rooted at category, using provider to resolve the
// logger streams it writes to. It captures create_time immediately and
// allocates a position from the default process-wide IdentityService,
// unless overridden via WithIdentityService. No log record is emitted.
func New(provider LoggerProvider, category string, opts ...Option) (*Meter, error) {
	if v := validateNotNil(provider); !v.ok {
		return nil, ErrNullLogger
	}

	var o meterOptions
	for _, opt := range opts {
		opt(&o)
	}

	cfg := DefaultConfig()
	if o.config != nil {
		cfg = *o.config
	}
	clock := Clock(SystemClock{})
	if o.clock != nil {
		clock = o.clock
	}
	identity := defaultIdentity
	if o.identity != nil {
		identity = o.identity
	}
	sessionUUID := processSessionUUID
	if o.sessionUUID != "" {
		sessionUUID = o.sessionUUID
	}

	m := &Meter{
		provider: provider,
		config:   cfg,
		clock:    clock,
		identity: identity,
		state:    StateCreated,
		data: MeterData{
			SessionUUID: sessionUUID,
			Category:    category,
			Operation:   o.operation,
			Parent:      o.parentID,
			Position:    identity.NextPosition(category, o.operation),
			createTime:  clock.NowNanos(),
			okPath:      NoPath,
			rejectPath:  NoPath,
			failPath:    NoPath,
		},
	}

	runtime.SetFinalizer(m, finalizeMeter)

	return m, nil
}

func finalizeMeter(m *Meter) {
	if m.state == StateStarted && m.data.Category != unknownCategory {
		m.emitError(MarkerInconsistentFinalized, "meter finalized while started")
	}
}

// FullID returns this meter's stable identifier.
func (m *Meter) FullID() string {
	if m == nil {
		return ""
	}
	return m.data.FullID()
}

// ParentID returns the full id of the enclosing meter, or "" if none.
func (m *Meter) ParentID() string {
	if m == nil {
		return ""
	}
	return m.data.Parent
}

// State returns the meter's current lifecycle state.
func (m *Meter) State() State {
	if m == nil {
		return StateCreated
	}
	return m.state
}

// IsNotCurrent reports whether m is not the top of its goroutine's
// current-instance stack, diagnosing mis-nested start/stop pairs.
func (m *Meter) IsNotCurrent() bool {
	if m == nil {
		return true
	}
	return CurrentInstance() != m
}

// Context returns a copy of the meter's context entries. Per the decision
// recorded in DESIGN.md, this returns empty once the meter has terminated,
// even though the terminal log record carries the full pre-termination
// context.
func (m *Meter) Context() map[string]string {
	out := make(map[string]string)
	if m == nil || m.data.context == nil || m.state.Terminal() {
		return out
	}
	m.data.context.Range(func(k, v string) { out[k] = v })
	return out
}

func (m *Meter) msgLoggerFor() *logiface.Logger[logiface.Event] {
	m.msgLoggerOnce.Do(func() {
		name := m.config.MessagePrefix + m.data.Category + m.config.MessageSuffix
		m.msgLogger = m.provider.Get(name)
	})
	return m.msgLogger
}

func (m *Meter) dataLoggerFor() *logiface.Logger[logiface.Event] {
	m.dataLoggerOnce.Do(func() {
		name := m.config.DataPrefix + m.data.Category + m.config.DataSuffix
		m.dataLogger = m.provider.Get(name)
	})
	return m.dataLogger
}

// emitError writes a single ERROR record carrying marker and a
// "<reason>; id=<full_id>" message, with the caller's call site attached
// as a string field (Validator's documented contract, spec section 4.4).
func (m *Meter) emitError(marker Marker, reason string) {
	_, file, line, _ := runtime.Caller(2)
	msg := fmt.Sprintf("%s; id=%s", reason, m.FullID())
	m.msgLoggerFor().Build(logiface.LevelError).
		Str("marker", marker.String()).
		Str("caller", fmt.Sprintf("%s:%d", file, line)).
		Log(msg)
}

func (m *Meter) refuse(marker Marker, reason string) *Meter {
	m.emitError(marker, reason)
	return m
}

// ---- configuration (pre-termination) ----

// Description sets the human-readable description, last-write-wins.
func (m *Meter) Description(text string) *Meter {
	if m.state.Terminal() {
		return m.refuse(MarkerIllegal, "meter already terminated")
	}
	m.data.description = text
	m.data.hasDescription = true
	return m
}

// DescriptionFmt sets the description via fmt.Sprintf. Passing an empty
// format string clears a previously set description (per the decision
// recorded in DESIGN.md) and emits Illegal. A format that does not apply
// to args (a verb/argument mismatch) is refused with Illegal and leaves
// any previously set description untouched, per spec section 9.4.
func (m *Meter) DescriptionFmt(format string, args ...any) *Meter {
	if m.state.Terminal() {
		return m.refuse(MarkerIllegal, "meter already terminated")
	}
	if format == "" {
		m.data.description = ""
		m.data.hasDescription = false
		return m.refuse(MarkerIllegal, "description format must not be empty")
	}
	text := fmt.Sprintf(format, args...)
	if strings.Contains(text, "%!") {
		return m.refuse(MarkerIllegal, "description format does not apply to its arguments")
	}
	m.data.description = text
	m.data.hasDescription = true
	return m
}

// Iterations sets the expected iteration count; n must be positive.
func (m *Meter) Iterations(n uint64) *Meter {
	if m.state.Terminal() {
		return m.refuse(MarkerIllegal, "meter already terminated")
	}
	if v := validatePositive(n); !v.ok {
		return m.refuse(v.marker, v.reason)
	}
	m.data.expectedIterations = n
	m.data.hasExpectedIterations = true
	return m
}

// LimitMs sets the time budget, in milliseconds, used to classify Slow
// outcomes; n must be positive.
func (m *Meter) LimitMs(n uint64) *Meter {
	if m.state.Terminal() {
		return m.refuse(MarkerIllegal, "meter already terminated")
	}
	if v := validatePositive(n); !v.ok {
		return m.refuse(v.marker, v.reason)
	}
	m.data.timeLimitMs = n
	m.data.hasTimeLimit = true
	return m
}

// Ctx stores value under key in the meter's context, substituting the
// literal "<null>" for a nil value.
func (m *Meter) Ctx(key string, value any) *Meter {
	if m.state.Terminal() {
		return m.refuse(MarkerIllegal, "meter already terminated")
	}
	if key == "" {
		return m.refuse(MarkerIllegal, "context key must not be empty")
	}
	m.ensureContext().Set(key, toCanonicalString(value))
	return m
}

// CtxFlag stores the literal string "true" under key, a presence marker
// for a boolean-style context entry.
func (m *Meter) CtxFlag(key string) *Meter {
	if m.state.Terminal() {
		return m.refuse(MarkerIllegal, "meter already terminated")
	}
	if key == "" {
		return m.refuse(MarkerIllegal, "context key must not be empty")
	}
	m.ensureContext().Set(key, "true")
	return m
}

// CtxCond stores nameTrue as a presence flag iff cond is true; otherwise
// it returns immediately with no validation, no log, and no mutation, per
// the literal behaviour documented in spec section 4.3.2 (see DESIGN.md's
// open-question decision: this is preserved as-is, not "fixed").
func (m *Meter) CtxCond(cond bool, nameTrue string, nameFalse ...string) *Meter {
	if !cond {
		return m
	}
	return m.CtxFlag(nameTrue)
}

// Path accepts a termination-path hint. In Created it is always refused;
// in Started it is accepted but inert, since the observable ok_path,
// reject_path, and fail_path fields are only ever set by the terminal
// calls themselves (spec section 4.3.2).
func (m *Meter) Path(p any) *Meter {
	if m.state != StateStarted {
		return m.refuse(MarkerIllegal, "path hint not accepted before start")
	}
	return m
}

func (m *Meter) ensureContext() *orderedContext {
	if m.data.context == nil {
		m.data.context = newOrderedContext()
	}
	return m.data.context
}

// ---- lifecycle ----

// Start transitions Created -> Started. It refuses with
// InconsistentStart if the meter is not Created, leaving start_time
// untouched.
func (m *Meter) Start() *Meter {
	if v := validateStartable(m.state); !v.ok {
		return m.refuse(v.marker, v.reason)
	}
	m.data.startTime = m.clock.NowNanos()
	m.state = StateStarted
	pushCurrent(m)
	m.emitPair(StatusStarted, MarkerMsgStart, MarkerDataStart)
	return m
}

// Inc increments current_iteration by one.
func (m *Meter) Inc() *Meter {
	return m.IncBy(1)
}

// IncBy increments current_iteration by n; n must be positive.
func (m *Meter) IncBy(n uint64) *Meter {
	if v := validateStarted(m.state, MarkerInconsistentIncrement); !v.ok {
		return m.refuse(v.marker, v.reason)
	}
	if v := validatePositive(n); !v.ok {
		return m.refuse(v.marker, v.reason)
	}
	m.data.currentIteration += n
	return m
}

// IncTo sets current_iteration to n, which must strictly exceed the
// current value.
func (m *Meter) IncTo(n uint64) *Meter {
	if v := validateStarted(m.state, MarkerInconsistentIncrement); !v.ok {
		return m.refuse(v.marker, v.reason)
	}
	if v := validatePositive(n); !v.ok {
		return m.refuse(v.marker, v.reason)
	}
	if v := validateNonDecreasing(m.data.currentIteration, n); !v.ok {
		return m.refuse(v.marker, v.reason)
	}
	m.data.currentIteration = n
	return m
}

// Progress emits a progress record if at least config.ProgressPeriodMs
// have elapsed since the last one (or since start).
func (m *Meter) Progress() *Meter {
	if v := validateStarted(m.state, MarkerInconsistentProgress); !v.ok {
		return m.refuse(v.marker, v.reason)
	}
	if !m.allowProgress() {
		return m
	}
	status := StatusProgress
	if m.isSlow() {
		status = StatusProgressSlow
	}
	m.emitPair(status, MarkerMsgProgress, MarkerDataProgress)
	return m
}

// allowProgress reports whether config.ProgressPeriodMs have elapsed since
// the last progress record (or since start), per the injected Clock. This
// is deliberately measured against Clock rather than wall time, so it
// respects a FakeClock under test (see DESIGN.md for why go-catrate's
// Limiter, which reads real wall time internally, could not serve this
// component despite being the pack's sliding-window rate limiter).
func (m *Meter) allowProgress() bool {
	now := m.clock.NowNanos()
	if m.config.ProgressPeriodMs == 0 {
		m.lastProgress = now
		return true
	}
	last := m.lastProgress
	if last == 0 {
		last = m.data.startTime
	}
	periodNanos := m.config.ProgressPeriodMs * uint64(time.Millisecond)
	if now-last < periodNanos {
		return false
	}
	m.lastProgress = now
	return true
}

func (m *Meter) isSlow() bool {
	if !m.data.hasTimeLimit {
		return false
	}
	elapsedMs := m.data.Elapsed(m.clock.NowNanos()) / uint64(time.Millisecond)
	return elapsedMs > m.data.timeLimitMs
}

// ---- termination ----

// Ok terminates the meter successfully, with no outcome path.
func (m *Meter) Ok() *Meter { return m.OkWithPath(nil) }

// OkWithPath terminates the meter successfully, coercing path via the
// canonical rules of NewPath.
func (m *Meter) OkWithPath(path any) *Meter {
	return m.terminate(&m.data.okPath, path, false, StateOK,
		MarkerInconsistentOk, StatusOK, MarkerMsgOk, MarkerDataOk)
}

// Reject terminates the meter as rejected, with no outcome path.
func (m *Meter) Reject() *Meter { return m.RejectWithPath(nil) }

// RejectWithPath terminates the meter as rejected, coercing path via the
// canonical rules of NewPath.
func (m *Meter) RejectWithPath(path any) *Meter {
	return m.terminate(&m.data.rejectPath, path, false, StateRejected,
		MarkerInconsistentReject, StatusReject, MarkerMsgReject, MarkerDataReject)
}

// Fail terminates the meter as failed, with no outcome path.
func (m *Meter) Fail() *Meter { return m.FailWithPath(nil) }

// FailWithPath terminates the meter as failed, coercing path via
// NewFailPath (error values resolve to their full type name).
func (m *Meter) FailWithPath(path any) *Meter {
	return m.terminate(&m.data.failPath, path, true, StateFailed,
		MarkerInconsistentFail, StatusFail, MarkerMsgFail, MarkerDataFail)
}

// FailErr is equivalent to FailWithPath(err), additionally populating
// fail_message from err.Error(). err must not be nil.
func (m *Meter) FailErr(err error) *Meter {
	if v := validateNotNil(err); !v.ok {
		m.emitError(v.marker, "fail error must not be nil")
		err = nil
	}
	if m.state.Terminal() {
		return m.refuse(MarkerIllegal, "meter already terminated")
	}
	if err != nil {
		m.data.failMessage = err.Error()
		m.data.hasFailMsg = true
	}
	return m.FailWithPath(err)
}

func (m *Meter) terminate(target *Path, rawPath any, fullErrName bool, to State, inconsistentMarker Marker, status Status, msgMarker, dataMarker Marker) *Meter {
	v := validateTerminable(m.state)
	if !v.ok {
		return m.refuse(v.marker, v.reason)
	}

	wasCreated := m.state == StateCreated

	// The self-correcting edge's diagnostic is emitted first, ahead of the
	// terminal record pair (see spec section 4.3.6). It is the only
	// additional record on that edge: the mis-nesting check in the else
	// branch runs only for started meters.
	if wasCreated {
		m.emitError(inconsistentMarker, "meter terminated without having been started")
	} else {
		// MarkerIllegal is reused here for mis-nested termination: spec
		// section 6's marker enumeration has no dedicated "out of order"
		// marker, and Illegal already covers "refused call against a
		// terminated meter" — both are call-site misuse, not a state the
		// meter itself can self-correct.
		if m.IsNotCurrent() {
			m.emitError(MarkerIllegal, "meter terminated out of order with respect to its goroutine's current-instance stack")
		}
		popCurrent(m)
	}

	if fullErrName {
		*target = NewFailPath(rawPath)
	} else {
		*target = NewPath(rawPath)
	}

	m.data.stopTime = m.clock.NowNanos()
	m.state = to

	slowStatus := status
	if status == StatusOK && m.isSlow() {
		slowStatus = StatusOKSlow
	}

	m.emitPair(slowStatus, msgMarker, dataMarker)

	if m.state.Terminal() {
		m.data.context = nil
	}

	return m
}

// Sub creates a child meter sharing this meter's category, chaining
// childOp onto this meter's operation, with parent set to this meter's
// full id and context copied at the moment of the call. It never mutates
// the parent.
func (m *Meter) Sub(childOp string, opts ...Option) (*Meter, error) {
	op := m.data.Operation
	switch {
	case op != "" && childOp != "":
		op = op + "/" + childOp
	case childOp != "":
		op = childOp
	}

	merged := append([]Option{
		WithOperation(op),
		WithParent(m.FullID()),
		WithConfig(m.config),
		WithClock(m.clock),
		WithIdentityService(m.identity),
		WithSessionUUID(m.data.SessionUUID),
	}, opts...)

	child, err := New(m.provider, m.data.Category, merged...)
	if err != nil {
		return nil, err
	}
	if m.data.context != nil {
		child.data.context = m.data.context.Clone()
	}
	return child, nil
}

// emitPair writes the (level, MsgXxx) human-readable record followed by
// the (TRACE, DataXxx) structured record for status.
func (m *Meter) emitPair(status Status, msgMarker, dataMarker Marker) {
	level := logiface.LevelInformational
	switch msgMarker {
	case MarkerMsgStart:
		level = logiface.LevelDebug
	case MarkerMsgFail:
		level = logiface.LevelError
	}

	renderMessage(m, status, msgMarker, level)
	renderData(m, status, dataMarker)
}
