package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func TestNewJSON(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, Options{Level: slog.LevelInfo, JSON: true})
	log.Debug("hidden")
	log.Info("turn resolved", "game_id", "g1", "turn", 2)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected one line, got %q", buf.String())
	}
	var rec map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &rec); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if rec["msg"] != "turn resolved" || rec["game_id"] != "g1" {
		t.Fatalf("unexpected record %v", rec)
	}
}

func TestDebugOverridesLevel(t *testing.T) {
	Debug = true
	defer func() { Debug = false }()

	var buf bytes.Buffer
	log := New(&buf, Options{Level: slog.LevelWarn})
	log.Debug("turn pending", "err", errors.New("none"))
	if !strings.Contains(buf.String(), "turn pending") {
		t.Fatalf("expected debug output, got %q", buf.String())
	}
}
