package meter

import (
	"strconv"
	"strings"
	"time"

	"github.com/joeycumines/logiface"
)

// renderScope builds the "<scope><id>[<path>]" prefix of the human-readable
// message: the category (when print_category is set), the operation, the
// "#position" (when print_position is set), and the outcome path (if any)
// in brackets.
func renderScope(m *Meter, path Path) string {
	var b strings.Builder
	if m.config.PrintCategory {
		b.WriteString(m.data.Category)
		if m.data.Operation != "" {
			b.WriteByte('/')
		}
	}
	b.WriteString(m.data.Operation)
	if m.config.PrintPosition {
		b.WriteByte('#')
		b.WriteString(strconv.FormatUint(m.data.Position, 10))
	}
	if path.IsSet() {
		b.WriteByte('[')
		b.WriteString(path.String())
		b.WriteByte(']')
	}
	return b.String()
}

// outcomePath returns the Path relevant to status, if any.
func outcomePath(m *Meter, status Status) Path {
	switch status {
	case StatusOK, StatusOKSlow:
		return m.data.okPath
	case StatusReject:
		return m.data.rejectPath
	case StatusFail:
		return m.data.failPath
	default:
		return NoPath
	}
}

// renderMessage assembles and emits the human-readable record for status,
// per spec section 4.6.
func renderMessage(m *Meter, status Status, marker Marker, level logiface.Level) {
	b := m.msgLoggerFor().Build(level)
	if b == nil || !b.Enabled() {
		return
	}

	now := m.clock.NowNanos()
	elapsed := m.data.Elapsed(now)

	scope := renderScope(m, outcomePath(m, status))

	var tail []string
	if frag := formatIterFragment(m.data.currentIteration, m.data.expectedIterations, m.data.hasExpectedIterations); frag != "" {
		tail = append(tail, frag)
	}
	if elapsed > 0 {
		tail = append(tail, formatDuration(elapsed))
		if m.data.currentIteration > 0 {
			perSecond := float64(m.data.currentIteration) / (float64(elapsed) / float64(time.Second))
			perUnit := elapsed / m.data.currentIteration
			tail = append(tail, formatRate(perSecond)+" "+formatDuration(perUnit))
		}
	}
	if ctxStr := formatContext(m.data.context); ctxStr != "" {
		tail = append(tail, ctxStr)
	}

	var msg strings.Builder
	if m.config.PrintStatus {
		msg.WriteString(status.String())
		msg.WriteString(": ")
	}
	msg.WriteString(scope)
	msg.WriteByte(' ')
	if len(tail) > 0 {
		msg.WriteString(strings.Join(tail, "; "))
		msg.WriteString("; ")
	}
	msg.WriteString(m.data.SessionUUID)

	b.Str("marker", marker.String()).Log(msg.String())
}

// renderData assembles and emits the structured record for status, per
// spec section 4.6.
func renderData(m *Meter, status Status, marker Marker) {
	b := m.dataLoggerFor().Build(logiface.LevelTrace)
	if b == nil || !b.Enabled() {
		return
	}

	now := m.clock.NowNanos()

	b = b.Str("marker", marker.String()).
		Str("status", status.String()).
		Str("full_id", m.data.FullID()).
		Str("uuid", m.data.SessionUUID).
		Str("category", m.data.Category).
		Str("operation", m.data.Operation).
		Uint64("position", m.data.Position)

	if m.data.Parent != "" {
		b = b.Str("parent", m.data.Parent)
	}
	if m.data.hasDescription {
		b = b.Str("description", m.data.description)
	}
	if m.data.hasExpectedIterations {
		b = b.Uint64("expected_iterations", m.data.expectedIterations)
	}
	b = b.Uint64("current_iteration", m.data.currentIteration)
	if m.data.hasTimeLimit {
		b = b.Uint64("time_limit_ms", m.data.timeLimitMs)
	}

	b = b.Uint64("create_time", m.data.createTime)
	if m.data.startTime != 0 {
		b = b.Uint64("start_time", m.data.startTime)
	}
	if m.data.stopTime != 0 {
		b = b.Uint64("stop_time", m.data.stopTime)
	}
	b = b.Uint64("elapsed_ns", m.data.Elapsed(now))

	if p := outcomePath(m, status); p.IsSet() {
		b = b.Str("path", p.String())
	}
	if m.data.hasFailMsg {
		b = b.Str("fail_message", m.data.failMessage)
	}

	if m.data.context != nil {
		m.data.context.Range(func(k, v string) {
			b = b.Str("ctx."+k, v)
		})
	}

	if m.config.PrintLoad {
		b = b.Str("load", currentLoadSnapshot())
	}
	if m.config.PrintMemory {
		b = b.Str("memory", currentMemorySnapshot())
	}

	b.Log("")
}
