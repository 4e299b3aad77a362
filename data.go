package meter

import "strconv"

type (
	// MeterData is the value record held exclusively by a single Meter:
	// identity, attributes, timestamps, counters, and outcome. See spec
	// section 3 for the full invariant list.
	MeterData struct {
		SessionUUID string
		Category    string
		Operation   string
		Parent      string
		Position    uint64

		description    string
		hasDescription bool

		expectedIterations    uint64
		hasExpectedIterations bool

		timeLimitMs    uint64
		hasTimeLimit   bool

		context *orderedContext

		createTime uint64
		startTime  uint64
		stopTime   uint64

		currentIteration uint64

		okPath      Path
		rejectPath  Path
		failPath    Path
		failMessage string
		hasFailMsg  bool
	}

	// orderedContext is a string->string map that preserves first-insertion
	// order across overwrites, modeled on a Java LinkedHashMap's default
	// iteration order (the likely backing structure of the Java original
	// this spec derives from; see DESIGN.md).
	orderedContext struct {
		keys   []string
		values map[string]string
	}
)

func newOrderedContext() *orderedContext {
	return &orderedContext{values: make(map[string]string)}
}

// Set stores value under key, preserving key's original position if it was
// already present.
func (c *orderedContext) Set(key, value string) {
	if _, exists := c.values[key]; !exists {
		c.keys = append(c.keys, key)
	}
	c.values[key] = value
}

// Get returns the value stored under key, if any.
func (c *orderedContext) Get(key string) (string, bool) {
	v, ok := c.values[key]
	return v, ok
}

// Len returns the number of entries.
func (c *orderedContext) Len() int { return len(c.keys) }

// Range calls fn for each entry, in insertion order.
func (c *orderedContext) Range(fn func(key, value string)) {
	for _, k := range c.keys {
		fn(k, c.values[k])
	}
}

// Clone returns a deep copy.
func (c *orderedContext) Clone() *orderedContext {
	clone := &orderedContext{
		keys:   append([]string(nil), c.keys...),
		values: make(map[string]string, len(c.values)),
	}
	for k, v := range c.values {
		clone.values[k] = v
	}
	return clone
}

// Clear empties the map in place.
func (c *orderedContext) Clear() {
	c.keys = nil
	c.values = make(map[string]string)
}

// FullID returns the stable identifier of this meter instance:
// session_uuid/category[/operation]#position.
func (d *MeterData) FullID() string {
	s := d.SessionUUID + "/" + d.Category
	if d.Operation != "" {
		s += "/" + d.Operation
	}
	return s + "#" + strconv.FormatUint(d.Position, 10)
}

// Elapsed returns the duration, in nanoseconds, that the renderer should
// attribute to the current state: since start if started, else since
// create (the self-correcting-termination case of spec section 4.3.6).
func (d *MeterData) Elapsed(now uint64) uint64 {
	base := d.createTime
	if d.startTime != 0 {
		base = d.startTime
	}
	end := now
	if d.stopTime != 0 {
		end = d.stopTime
	}
	if end < base {
		return 0
	}
	return end - base
}
