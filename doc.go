// Package meter implements an operation-meter: a structured observability
// primitive that instruments a bounded unit of work and emits correlated
// log records describing its lifecycle, progress, outcome, and performance
// relative to a declared time budget.
//
// A [Meter] is a small finite state machine: Created, then Started, then
// exactly one of OK, Rejected, or Failed. Configuration methods
// (Description, Iterations, LimitMs, Ctx, ...) are only honored before
// termination; invalid or mistimed calls are refused and logged rather
// than returned as errors, matching the fire-and-forget style of the
// logging facade this package sits on top of (see [LoggerProvider]).
package meter
