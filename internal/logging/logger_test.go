package logging_test

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"scribe/internal/logging"
	"scribe/internal/services"
)

func TestNewForTerminalConsoleOutput(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.NewForTerminal(&buf, "info", "console")
	if err != nil {
		t.Fatalf("NewForTerminal: %v", err)
	}
	logger = logging.NewComponentLogger(logger, "pacing")
	logger.Info("slot granted", logging.String("posture", "balanced"), logging.Int("workers", 3))

	line := buf.String()
	if !strings.Contains(line, "INFO pacing: slot granted") {
		t.Fatalf("unexpected console line: %q", line)
	}
	if !strings.Contains(line, "posture=balanced") || !strings.Contains(line, "workers=3") {
		t.Fatalf("expected flattened attrs in %q", line)
	}
}

func TestNewForTerminalJSONOutput(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.NewForTerminal(&buf, "debug", "json")
	if err != nil {
		t.Fatalf("NewForTerminal: %v", err)
	}
	logger.Debug("ledger loaded", logging.Int("entries", 42))

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("unmarshal json log: %v", err)
	}
	if record["msg"] != "ledger loaded" {
		t.Fatalf("unexpected msg: %v", record["msg"])
	}
	if record["level"] != "debug" {
		t.Fatalf("unexpected level: %v", record["level"])
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.NewForTerminal(&buf, "warn", "console")
	if err != nil {
		t.Fatalf("NewForTerminal: %v", err)
	}
	logger.Info("hidden")
	logger.Warn("visible")
	if strings.Contains(buf.String(), "hidden") {
		t.Fatalf("info line should be filtered: %q", buf.String())
	}
	if !strings.Contains(buf.String(), "visible") {
		t.Fatalf("warn line missing: %q", buf.String())
	}
}

func TestWithContextStampsFields(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.NewForTerminal(&buf, "info", "console")
	if err != nil {
		t.Fatalf("NewForTerminal: %v", err)
	}

	ctx := services.WithCollection(context.Background(), "Some Channel")
	ctx = services.WithItemID(ctx, "vid123")
	ctx = services.WithRequestID(ctx, "req-1")

	logging.WithContext(ctx, logger).Info("fetch started")

	line := buf.String()
	for _, want := range []string{`collection="Some Channel"`, "item_id=vid123", "correlation_id=req-1"} {
		if !strings.Contains(line, want) {
			t.Fatalf("expected %q in %q", want, line)
		}
	}
}

func TestUnsupportedFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}
