package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
)

func TestNewLogger(t *testing.T) {
	tests := []struct {
		name  string
		level log.Level
		emit  func(*log.Logger)
		want  string
	}{
		{"info at info", log.InfoLevel, func(l *log.Logger) { l.Info("saved", "device", "chip") }, "device=chip"},
		{"warn keeps key values", log.InfoLevel, func(l *log.Logger) {
			l.Warn("tangential intersection", "connection", "c1", "segment", 2)
		}, "segment=2"},
		{"debug at info", log.InfoLevel, func(l *log.Logger) { l.Debug("routed connection") }, ""},
		{"debug at debug", log.DebugLevel, func(l *log.Logger) { l.Debug("routed connection") }, "routed connection"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			tt.emit(newLogger(&buf, tt.level))

			got := buf.String()
			if tt.want == "" {
				if got != "" {
					t.Errorf("output = %q, want nothing", got)
				}
				return
			}
			if !strings.Contains(got, tt.want) {
				t.Errorf("output = %q, want it to contain %q", got, tt.want)
			}
		})
	}
}

func TestSetLogLevel(t *testing.T) {
	var buf bytes.Buffer
	c := New(&buf, LogInfo)

	c.Logger.Debug("hidden")
	c.SetLogLevel(LogDebug)
	c.Logger.Debug("shown")

	if got := buf.String(); strings.Contains(got, "hidden") || !strings.Contains(got, "shown") {
		t.Errorf("output = %q, want only the message logged after SetLogLevel", got)
	}
}

func TestProgress(t *testing.T) {
	var buf bytes.Buffer
	prog := newProgress(newLogger(&buf, log.InfoLevel))
	time.Sleep(5 * time.Millisecond)
	prog.done("Rendered netlist")

	if !strings.Contains(buf.String(), "Rendered netlist (") {
		t.Errorf("output = %q, want message followed by elapsed time", buf.String())
	}
}

func TestLoggerContext(t *testing.T) {
	if got := loggerFromContext(context.Background()); got != log.Default() {
		t.Error("loggerFromContext without a logger should return log.Default()")
	}

	var buf bytes.Buffer
	l := newLogger(&buf, log.InfoLevel)
	ctx := withLogger(context.Background(), l)
	if got := loggerFromContext(ctx); got != l {
		t.Error("loggerFromContext did not return the attached logger")
	}
}
