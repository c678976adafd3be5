package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoggerWritesJSONLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "hrdesk.log")
	logger, err := New(path)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	logger.Printf("loaded %d employees\n", 3)
	component := logger.Component("refdata")
	component.Warn().Msg("snapshot stale")
	logger.Errorf(errors.New("boom"), "export failed")
	if err := logger.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines: %s", len(lines), data)
	}
	var first map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &first); err != nil {
		t.Fatalf("line is not JSON: %v", err)
	}
	if first["message"] != "loaded 3 employees" || first["level"] != "info" || first["time"] == nil {
		t.Fatalf("first line = %v", first)
	}
	if !strings.Contains(lines[1], `"component":"refdata"`) || !strings.Contains(lines[2], `"error":"boom"`) {
		t.Fatalf("unexpected lines %v", lines[1:])
	}
}

func TestNilLoggerIsSafe(t *testing.T) {
	var logger *Logger
	logger.Printf("ignored")
	logger.Errorf(nil, "ignored")
	zl := logger.Zerolog()
	zl.Info().Msg("ignored")
	if err := logger.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}

func TestNewWriter(t *testing.T) {
	var buf bytes.Buffer
	NewWriter(&buf).Printf("hello")
	if !strings.Contains(buf.String(), `"app":"hrdesk"`) {
		t.Fatalf("output = %s", buf.String())
	}
}
