// Command gometerdemo wires a Meter to a zerolog console writer and drives
// it through a representative lifecycle: start, a few progress updates,
// and a successful completion.
//
// Run with: go run ./cmd/gometerdemo/
package main

import (
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/useful-toys/gometer"
)

func main() {
	zl := zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).
		With().Timestamp().Logger()

	provider := meter.NewZerologProvider(zl)

	cfg := meter.DefaultConfig()
	cfg.PrintCategory = true
	cfg.ProgressPeriodMs = 20

	m, err := meter.New(provider, "demo", meter.WithOperation("import"), meter.WithConfig(cfg))
	if err != nil {
		panic(err)
	}

	m.Description("importing widgets").Iterations(100).LimitMs(50)
	m.Start()

	for i := 0; i < 100; i++ {
		m.Inc()
		if i%25 == 24 {
			m.Progress()
		}
		time.Sleep(time.Millisecond)
	}

	m.Ok()
}
