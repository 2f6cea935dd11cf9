package obslog

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestNew_JSONFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "out.log")
	logger, err := New(Options{Level: "debug", Format: "json", File: path})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	logger.Debug("move_prompt", zap.String("attempt_id", "a1"))
	if err := logger.Sync(); err != nil {
		t.Fatalf("Sync: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	var entry map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(string(raw))), &entry); err != nil {
		t.Fatalf("decode log line %q: %v", raw, err)
	}
	if entry["msg"] != "move_prompt" || entry["level"] != "debug" || entry["attempt_id"] != "a1" {
		t.Fatalf("unexpected entry: %v", entry)
	}
}

func TestNew_LevelFilters(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.log")
	logger, err := New(Options{Level: "warn", Format: "legacy", File: path})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	logger.Info("hidden")
	logger.Warn("shown")
	if err := logger.Sync(); err != nil {
		t.Fatalf("Sync: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if strings.Contains(string(raw), "hidden") {
		t.Fatalf("info entry written at warn level: %q", raw)
	}
	if !strings.Contains(string(raw), "WARN | ") {
		t.Fatalf("warn entry missing: %q", raw)
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]zapcore.Level{
		" DEBUG ":  zapcore.DebugLevel,
		"warning":  zapcore.WarnLevel,
		"nonsense": zapcore.InfoLevel,
	}
	for in, want := range cases {
		if got := parseLevel(in); got != want {
			t.Fatalf("parseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestOptionsFromEnv(t *testing.T) {
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("LOG_TO_CONSOLE", "false")
	t.Setenv("LOG_TO_FILE", "true")
	t.Setenv("LOG_FILE", "/tmp/x.log")
	opts := OptionsFromEnv()
	if opts.Level != "error" || opts.Console || opts.File != "/tmp/x.log" {
		t.Fatalf("unexpected options: %+v", opts)
	}

	t.Setenv("LOG_TO_FILE", "false")
	if f := OptionsFromEnv().File; f != "" {
		t.Fatalf("file logging should be off, got %q", f)
	}
}
