// Package cli implements the fluidcad command-line interface.
//
// This package provides commands for inspecting and routing device
// documents, converting between interchange encodings, rendering netlists,
// managing the document store and serving the HTTP API. The CLI is built
// using cobra and logs via the charmbracelet/log library.
//
// # Commands
//
// The main commands are:
//   - library: List feature sets and show template parameters
//   - inspect: Summarize a device document
//   - route: Add a routed connection to a device document
//   - convert: Convert between JSON and msgpack documents
//   - netlist: Render the component netlist as DOT, SVG, PDF or PNG
//   - store: List, push, pull and delete stored devices
//   - serve: Run the HTTP API
//
// # Configuration
//
// Settings are read from --config or $XDG_CONFIG_HOME/fluidcad/config.toml
// and may be overridden by FLUIDCAD_STORE, FLUIDCAD_STORE_DSN and
// FLUIDCAD_LIBRARY.
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging. Loggers are
// passed through context.Context to allow structured progress tracking.
package cli

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"
)

// newLogger creates a new logger with timestamp formatting.
// Timestamps are formatted as "HH:MM:SS.ms" (e.g., "14:32:01.45").
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// progress tracks the start time of an operation and logs completion with elapsed duration.
type progress struct {
	logger *log.Logger
	start  time.Time
}

func newProgress(l *log.Logger) *progress {
	return &progress{logger: l, start: time.Now()}
}

// done logs msg along with the elapsed time, e.g. "Rendered netlist (12ms)".
func (p *progress) done(msg string) {
	p.logger.Infof("%s (%s)", msg, time.Since(p.start).Round(time.Millisecond))
}

type ctxKey int

const loggerKey ctxKey = 0

// withLogger returns a new context with the given logger attached.
func withLogger(ctx context.Context, l *log.Logger) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, loggerKey, l)
}

// loggerFromContext retrieves the logger from ctx, or log.Default().
func loggerFromContext(ctx context.Context) *log.Logger {
	if ctx != nil {
		if l, ok := ctx.Value(loggerKey).(*log.Logger); ok {
			return l
		}
	}
	return log.Default()
}
