package log

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestNewLoggerDefaultsToInfo(t *testing.T) {
	t.Parallel()

	logger, err := NewLogger("", &bytes.Buffer{})
	if err != nil {
		t.Fatalf("NewLogger returned error: %v", err)
	}
	if logger.GetLevel() != logrus.InfoLevel {
		t.Fatalf("expected info level, got %s", logger.GetLevel())
	}
}

func TestNewLoggerParsesLevel(t *testing.T) {
	t.Parallel()

	logger, err := NewLogger(" DEBUG ", &bytes.Buffer{})
	if err != nil {
		t.Fatalf("NewLogger returned error: %v", err)
	}
	if logger.GetLevel() != logrus.DebugLevel {
		t.Fatalf("expected debug level, got %s", logger.GetLevel())
	}

	if _, err := NewLogger("chatty", nil); err == nil {
		t.Fatalf("expected error for invalid level")
	}
}

func TestComponentWritesJSONFields(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger, err := NewLogger("info", &buf)
	if err != nil {
		t.Fatalf("NewLogger returned error: %v", err)
	}

	Component(logger, "pages.sync").WithField("page", "home").Info("synced")

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("expected JSON log line, got %q: %v", buf.String(), err)
	}

	expected := map[string]any{
		"message":   "synced",
		"component": "pages.sync",
		"service":   ServiceName,
		"page":      "home",
		"level":     "info",
	}
	for key, want := range expected {
		if line[key] != want {
			t.Fatalf("expected %s=%v, got %v", key, want, line[key])
		}
	}
}

func TestInitSentryWithoutDSNIsNoop(t *testing.T) {
	t.Parallel()

	hub, flush, err := InitSentry(logrus.New(), SentrySettings{})
	if err != nil {
		t.Fatalf("InitSentry returned error: %v", err)
	}
	if hub != nil {
		t.Fatalf("expected nil hub without DSN")
	}
	flush()
}

func TestInitSentryRejectsInvalidDSN(t *testing.T) {
	t.Parallel()

	if _, _, err := InitSentry(logrus.New(), SentrySettings{DSN: "not a dsn"}); err == nil {
		t.Fatalf("expected error for malformed DSN")
	}
}
