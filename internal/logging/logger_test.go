package logging

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func newTestConsoleLogger(buf *bytes.Buffer, level slog.Level) *slog.Logger {
	lvl := new(slog.LevelVar)
	lvl.Set(level)
	return slog.New(newConsoleHandler(buf, lvl, false))
}

func TestConsoleHandlerFormatsLine(t *testing.T) {
	var buf bytes.Buffer
	logger := newTestConsoleLogger(&buf, slog.LevelInfo)

	logger.Info("volume clamped",
		String(FieldDeviceID, "vc1-abc"),
		Float64(FieldCeiling, 0.5),
	)

	line := buf.String()
	if !strings.Contains(line, " INFO ") {
		t.Fatalf("missing level: %q", line)
	}
	if !strings.Contains(line, "volume clamped") {
		t.Fatalf("missing message: %q", line)
	}
	if !strings.Contains(line, "device_id=vc1-abc") {
		t.Fatalf("missing device id attr: %q", line)
	}
	if !strings.Contains(line, "ceiling=0.5") {
		t.Fatalf("missing ceiling attr: %q", line)
	}
}

func TestConsoleHandlerHoistsComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := NewComponentLogger(newTestConsoleLogger(&buf, slog.LevelInfo), "engine")

	logger.Info("started")

	line := buf.String()
	if !strings.Contains(line, "engine: started") {
		t.Fatalf("component not hoisted into prefix: %q", line)
	}
	if strings.Contains(line, "component=") {
		t.Fatalf("component should not repeat as attr: %q", line)
	}
}

func TestConsoleHandlerQuotesValues(t *testing.T) {
	var buf bytes.Buffer
	logger := newTestConsoleLogger(&buf, slog.LevelInfo)

	logger.Warn("device gone", Error(errors.New("sink not found")))

	if !strings.Contains(buf.String(), `error="sink not found"`) {
		t.Fatalf("error not quoted: %q", buf.String())
	}
}

func TestConsoleHandlerRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := newTestConsoleLogger(&buf, slog.LevelWarn)

	logger.Info("ignored")
	if buf.Len() != 0 {
		t.Fatalf("info should be suppressed, got %q", buf.String())
	}
	logger.Error("kept")
	if !strings.Contains(buf.String(), "kept") {
		t.Fatalf("error should be emitted, got %q", buf.String())
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := New(Options{Format: "yaml"}); err == nil {
		t.Fatal("expected error for unknown format")
	}
}

func TestNopLoggerIsSilent(t *testing.T) {
	logger := NewNop()
	logger.Error("should not panic or emit")
}
