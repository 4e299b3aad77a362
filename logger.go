package meter

import (
	"github.com/joeycumines/izerolog"
	"github.com/joeycumines/logiface"
	"github.com/rs/zerolog"
)

type (
	// LoggerProvider resolves a named sink into the logiface.Logger used to
	// write records for that name. A Meter derives two names per category
	// (a structured stream and a human-readable stream, see Config's
	// DataPrefix/DataSuffix/MessagePrefix/MessageSuffix) and resolves each
	// independently, caching the result for the lifetime of the meter.
	LoggerProvider interface {
		Get(name string) *logiface.Logger[logiface.Event]
	}

	// LoggerProviderFunc adapts a function to a LoggerProvider.
	LoggerProviderFunc func(name string) *logiface.Logger[logiface.Event]

	// SingleProvider is a LoggerProvider that returns the same Logger for
	// every name, the common case of a caller who hasn't split the data and
	// message streams into separate sinks.
	SingleProvider struct {
		Logger *logiface.Logger[logiface.Event]
	}
)

// Get implements LoggerProvider.
func (f LoggerProviderFunc) Get(name string) *logiface.Logger[logiface.Event] { return f(name) }

// Get implements LoggerProvider, ignoring name.
func (p SingleProvider) Get(string) *logiface.Logger[logiface.Event] { return p.Logger }

// NewZerologProvider wires a zerolog.Logger as the backing sink for every
// name a Meter requests, via izerolog.WithZerolog. Each distinct name gets
// its own logiface.Logger bound to a zerolog child logger carrying a
// "logger" field set to name, so records can be filtered per stream
// downstream.
func NewZerologProvider(base zerolog.Logger) LoggerProvider {
	return &zerologProvider{base: base}
}

type zerologProvider struct {
	base zerolog.Logger
}

func (p *zerologProvider) Get(name string) *logiface.Logger[logiface.Event] {
	zl := p.base
	if name != "" {
		zl = zl.With().Str("logger", name).Logger()
	}
	return izerolog.L.New(
		izerolog.L.WithZerolog(zl),
		izerolog.L.WithLevel(izerolog.L.LevelTrace()),
	).Logger()
}
