package meter

import (
	"os"
	"strconv"
)

type (
	// Config is a frozen snapshot of formatting and behaviour toggles
	// consumed by the Renderer and the Meter state machine. It is read
	// once per Meter at construction; later updates to a Config value
	// returned by ConfigFromEnv or DefaultConfig never retroactively
	// affect already-constructed meters (spec section 9's "config as a
	// process-global mutable struct" is replaced by per-meter snapshots).
	Config struct {
		// ProgressPeriodMs is the minimum interval, in milliseconds,
		// between Progress emissions. Default 2000.
		ProgressPeriodMs uint64
		// PrintCategory includes the category in the human-readable scope
		// prefix. Default false.
		PrintCategory bool
		// PrintStatus emits the "STATUS:" prefix. Default true.
		PrintStatus bool
		// PrintPosition includes "#position" in the scope. Default false.
		PrintPosition bool
		// PrintLoad appends a process load snapshot to the data record.
		// Default false. Not otherwise specified; see currentLoadSnapshot.
		PrintLoad bool
		// PrintMemory appends a memory snapshot to the data record.
		// Default false.
		PrintMemory bool
		// DataPrefix decorates the structured-stream logger name.
		DataPrefix string
		// DataSuffix decorates the structured-stream logger name.
		DataSuffix string
		// MessagePrefix decorates the human-readable-stream logger name.
		MessagePrefix string
		// MessageSuffix decorates the human-readable-stream logger name.
		MessageSuffix string
	}

	// Option configures a Meter at construction time, following the
	// functional-options pattern used throughout this package's teacher
	// (see logiface.Option).
	Option func(c *meterOptions)

	meterOptions struct {
		operation   string
		parentID    string
		config      *Config
		clock       Clock
		identity    *IdentityService
		sessionUUID string
	}
)

// DefaultConfig returns the spec-mandated defaults (section 4.8).
func DefaultConfig() Config {
	return Config{
		ProgressPeriodMs: 2000,
		PrintStatus:      true,
	}
}

// ConfigFromEnv loads a Config from environment variables, falling back to
// DefaultConfig's value for any variable that is unset or fails to parse.
// An invalid value is not applied: that option keeps its default, and a
// diagnostic naming the variable is appended to errs.
//
// This mirrors spec section 6's slf4jtoys.* system properties, one
// environment variable per option:
//
//	GOMETER_PROGRESS_PERIOD_MS, GOMETER_PRINT_CATEGORY, GOMETER_PRINT_STATUS,
//	GOMETER_PRINT_POSITION, GOMETER_PRINT_LOAD, GOMETER_PRINT_MEMORY,
//	GOMETER_DATA_PREFIX, GOMETER_DATA_SUFFIX, GOMETER_MESSAGE_PREFIX,
//	GOMETER_MESSAGE_SUFFIX
func ConfigFromEnv() (cfg Config, errs []error) {
	cfg = DefaultConfig()

	if v, ok := lookupUint(&errs, "GOMETER_PROGRESS_PERIOD_MS"); ok {
		cfg.ProgressPeriodMs = v
	}
	if v, ok := lookupBool(&errs, "GOMETER_PRINT_CATEGORY"); ok {
		cfg.PrintCategory = v
	}
	if v, ok := lookupBool(&errs, "GOMETER_PRINT_STATUS"); ok {
		cfg.PrintStatus = v
	}
	if v, ok := lookupBool(&errs, "GOMETER_PRINT_POSITION"); ok {
		cfg.PrintPosition = v
	}
	if v, ok := lookupBool(&errs, "GOMETER_PRINT_LOAD"); ok {
		cfg.PrintLoad = v
	}
	if v, ok := lookupBool(&errs, "GOMETER_PRINT_MEMORY"); ok {
		cfg.PrintMemory = v
	}
	if v, ok := os.LookupEnv("GOMETER_DATA_PREFIX"); ok {
		cfg.DataPrefix = v
	}
	if v, ok := os.LookupEnv("GOMETER_DATA_SUFFIX"); ok {
		cfg.DataSuffix = v
	}
	if v, ok := os.LookupEnv("GOMETER_MESSAGE_PREFIX"); ok {
		cfg.MessagePrefix = v
	}
	if v, ok := os.LookupEnv("GOMETER_MESSAGE_SUFFIX"); ok {
		cfg.MessageSuffix = v
	}

	return cfg, errs
}

func lookupUint(errs *[]error, name string) (uint64, bool) {
	raw, ok := os.LookupEnv(name)
	if !ok {
		return 0, false
	}
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		*errs = append(*errs, &configError{name: name, raw: raw, cause: err})
		return 0, false
	}
	return v, true
}

func lookupBool(errs *[]error, name string) (bool, bool) {
	raw, ok := os.LookupEnv(name)
	if !ok {
		return false, false
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		*errs = append(*errs, &configError{name: name, raw: raw, cause: err})
		return false, false
	}
	return v, true
}

type configError struct {
	name  string
	raw   string
	cause error
}

func (e *configError) Error() string {
	return "meter: invalid value " + strconv.Quote(e.raw) + " for " + e.name + ": " + e.cause.Error()
}

func (e *configError) Unwrap() error { return e.cause }

// WithOperation sets the meter's operation name.
func WithOperation(operation string) Option {
	return func(c *meterOptions) { c.operation = operation }
}

// WithParent sets the meter's parent full-id.
func WithParent(parentID string) Option {
	return func(c *meterOptions) { c.parentID = parentID }
}

// WithConfig overrides the frozen Config snapshot used by this meter.
func WithConfig(cfg Config) Option {
	return func(c *meterOptions) { c.config = &cfg }
}

// WithClock overrides the Clock used by this meter. Per spec section 4.2
// this is only meaningful before Start; setting it on an already-started
// meter has no effect (the clock is captured at construction).
func WithClock(clock Clock) Option {
	return func(c *meterOptions) { c.clock = clock }
}

// WithIdentityService overrides the IdentityService used to allocate this
// meter's position, instead of the shared process-wide default.
func WithIdentityService(svc *IdentityService) Option {
	return func(c *meterOptions) { c.identity = svc }
}

// WithSessionUUID overrides the process-wide session identifier normally
// shared by every meter in this process. Primarily useful for
// deterministic tests; production callers should rarely need it.
func WithSessionUUID(id string) Option {
	return func(c *meterOptions) { c.sessionUUID = id }
}
