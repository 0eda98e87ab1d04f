package observability

import (
	"context"
	"log/slog"
	"strings"
	"testing"
)

// SetTestDebugLogging assigns DEBUG level to slog Default logger for test duration
func SetTestDebugLogging(t *testing.T) {
	oldLevel := slog.SetLogLoggerLevel(slog.LevelDebug)
	if oldLevel != slog.LevelDebug {
		t.Logf("Setting slog level to %s", slog.LevelDebug)
		t.Cleanup(func() {
			t.Logf("Restoring slog level to %s", oldLevel)
			slog.SetLogLoggerLevel(oldLevel)
		})
	}
}

// TestContext returns t.Context() with an Observability that forwards DEBUG records to t.Log.
func TestContext(t *testing.T) context.Context {
	logger := NewTextLogger(testWriter{t: t}, slog.LevelDebug)
	return WithLogger(t.Context(), logger)
}

type testWriter struct {
	t *testing.T
}

func (self testWriter) Write(p []byte) (int, error) {
	self.t.Log(strings.TrimRight(string(p), "\n"))
	return len(p), nil
}
