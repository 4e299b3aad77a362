package meter

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// messagesOf decodes each JSON line zerolog wrote to buf and returns the
// "message" field of each, in emission order. Used by the Example tests
// below to compare against the literal renderer output, without coupling
// the assertion to JSON field order.
func messagesOf(buf *bytes.Buffer) []string {
	var out []string
	for _, line := range strings.Split(strings.TrimRight(buf.String(), "\n"), "\n") {
		if line == "" {
			continue
		}
		var rec map[string]any
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			continue
		}
		if msg, ok := rec["message"].(string); ok {
			out = append(out, msg)
		}
	}
	return out
}

// ExampleMeter_happyPath reproduces the "happy-path single operation"
// scenario: construct, start, and terminate successfully, observing the
// human-readable records emitted along the way.
func ExampleMeter_happyPath() {
	var buf bytes.Buffer
	clock := NewFakeClock(10)
	m, err := New(captureProvider(&buf), "cat", WithOperation("op"), WithClock(clock), WithSessionUUID("00000000-0000-0000-0000-000000000000"))
	if err != nil {
		panic(err)
	}

	clock.Set(20)
	m.Start()
	clock.Set(200)
	m.Ok()

	for _, msg := range messagesOf(&buf) {
		fmt.Println(msg)
	}
	// Output:
	// STARTED: op 00000000-0000-0000-0000-000000000000
	// OK: op 180ns; 00000000-0000-0000-0000-000000000000
}

// ExampleMeter_slowOkWithPath reproduces the "Slow OK with path" scenario:
// a time budget set below the observed elapsed duration classifies the
// outcome as Slow. The elapsed duration here is scaled to milliseconds
// (unlike the other scenarios) since LimitMs is itself millisecond-grained:
// a limit in whole milliseconds can never be exceeded by a nanosecond-scale
// elapsed duration, so the classification can only be demonstrated at
// millisecond scale.
func ExampleMeter_slowOkWithPath() {
	var buf bytes.Buffer
	clock := NewFakeClock(10)
	m, err := New(captureProvider(&buf), "cat", WithOperation("op"), WithClock(clock), WithSessionUUID("00000000-0000-0000-0000-000000000000"))
	if err != nil {
		panic(err)
	}

	m.LimitMs(500)
	clock.Set(20)
	m.Start()
	clock.Set(20 + 600_000_000)
	m.OkWithPath("abc")

	msgs := messagesOf(&buf)
	fmt.Println(msgs[len(msgs)-1])
	// Output:
	// OK (Slow): op[abc] 600.0ms; 00000000-0000-0000-0000-000000000000
}

// ExampleMeter_selfCorrectingFail reproduces the "self-correcting fail
// without start" scenario: terminating a meter that was never started
// still proceeds, prefixed by an InconsistentFail diagnostic.
func ExampleMeter_selfCorrectingFail() {
	var buf bytes.Buffer
	clock := NewFakeClock(10)
	m, err := New(captureProvider(&buf), "cat", WithOperation("op"), WithClock(clock), WithSessionUUID("00000000-0000-0000-0000-000000000000"))
	if err != nil {
		panic(err)
	}

	clock.Set(200)
	m.FailWithPath("technical_error")

	msgs := messagesOf(&buf)
	fmt.Println(len(msgs))
	fmt.Println(msgs[len(msgs)-1])
	// Output:
	// 2
	// FAIL: op[technical_error] 190ns; 00000000-0000-0000-0000-000000000000
}
