package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func TestLoggerWritesFields(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriter(&buf, "debug").With(String("component", "forecast"))
	l.Warn("history short",
		Int("points", 3),
		Float64("trend", 1.5),
		Duration("took", 1500*time.Millisecond),
		Error(errors.New("boom")),
	)

	var got map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("decode log line: %v (%s)", err, buf.String())
	}
	if got["level"] != "warn" || got["message"] != "history short" {
		t.Fatalf("unexpected header %v", got)
	}
	if got["component"] != "forecast" || got["points"] != float64(3) || got["trend"] != 1.5 {
		t.Fatalf("unexpected fields %v", got)
	}
	if got["took"] != float64(1500) || got["error"] != "boom" {
		t.Fatalf("unexpected duration/error %v", got)
	}
}

func TestLoggerLevelFilter(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriter(&buf, "warn")
	l.Info("dropped")
	l.Debug("dropped")
	if buf.Len() != 0 {
		t.Fatalf("expected nothing below warn, got %q", buf.String())
	}
	Nop().Error("nothing")
}

func TestNewRejectsBadLevel(t *testing.T) {
	if _, err := New(&Config{Level: "loud"}); err == nil {
		t.Fatalf("expected error for bad level")
	}
}
