package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/samvad-hq/mcp-inventory-client/internal/config"
)

func TestJSONLoggerWritesStructuredField(t *testing.T) {
	var buf bytes.Buffer
	log, err := initWithWriter(&config.Config{AppName: "mcp-client", LogLevel: "info", LogFormat: "json"}, &buf)
	if err != nil {
		t.Fatalf("init: %v", err)
	}

	log.ErrorObj("mcp request failed", "mcp_request_error", map[string]any{"path": "/devices"})
	log.DebugObj("hidden", "k", 1)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected 1 line at info level, got %d: %q", len(lines), buf.String())
	}
	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("decode log line: %v", err)
	}
	if entry["msg"] != "mcp request failed" || entry["app"] != "mcp-client" {
		t.Fatalf("unexpected entry %#v", entry)
	}
	field, ok := entry["mcp_request_error"].(map[string]any)
	if !ok || field["path"] != "/devices" {
		t.Fatalf("structured field missing: %#v", entry)
	}
	if _, ok := entry["ts"]; !ok {
		t.Fatalf("expected ts key")
	}
}

func TestParseLevelFallsBackToInfo(t *testing.T) {
	if got := parseLevel("verbose"); got.String() != "info" {
		t.Fatalf("parseLevel = %s", got)
	}
	if got := parseLevel("warning"); got.String() != "warn" {
		t.Fatalf("parseLevel = %s", got)
	}
}

func TestEnsureReturnsNop(t *testing.T) {
	if _, ok := Ensure(nil).(NopLogger); !ok {
		t.Fatalf("expected NopLogger")
	}
}
