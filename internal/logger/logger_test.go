package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestLogPathEnv(t *testing.T) {
	t.Setenv("HTEXT_LOG_FILE", "/tmp/custom.log")
	path, err := getLogPath()
	if err != nil {
		t.Fatalf("getLogPath error: %v", err)
	}
	if path != "/tmp/custom.log" {
		t.Fatalf("path = %q, want %q", path, "/tmp/custom.log")
	}

	t.Setenv("HTEXT_LOG_FILE", "")
	t.Setenv("HTEXT_CONFIG_HOME", "/tmp/htext-config")
	path, err = getLogPath()
	if err != nil {
		t.Fatalf("getLogPath error: %v", err)
	}
	if path != "/tmp/htext-config/htext.log" {
		t.Fatalf("path = %q, want %q", path, "/tmp/htext-config/htext.log")
	}
}

func TestInitWritesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "htext.log")
	t.Setenv("HTEXT_LOG_FILE", path)
	defer Set(nil)

	if err := Init(true); err != nil {
		t.Fatalf("Init error: %v", err)
	}
	Debug("frame reindexed", "lines", 3)
	if err := Close(); err != nil {
		t.Fatalf("Close error: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(data), "frame reindexed") {
		t.Fatalf("log missing debug entry: %q", string(data))
	}
}

func TestHelpersUseInstalledLogger(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	Set(zap.New(core))
	defer Set(nil)

	Warn("unknown command", "cmd", "wq")
	entries := logs.FilterMessage("unknown command").All()
	if len(entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(entries))
	}
	if got := entries[0].ContextMap()["cmd"]; got != "wq" {
		t.Fatalf("cmd field = %v, want %q", got, "wq")
	}
}

func TestHelpersNoopWithoutLogger(t *testing.T) {
	Set(nil)
	Error("ignored")
}
