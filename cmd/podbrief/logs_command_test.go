package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"podbrief/internal/logs"
)

func TestLogsCommandShowsTrailingLines(t *testing.T) {
	env := setupCLITestEnv(t)

	path := filepath.Join(env.cfg.Paths.LogDir, logs.FileName)
	content := "line one\nline two\nline three\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}

	out, _, err := runCLI(t, []string{"logs", "-n", "2"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("logs command failed: %v", err)
	}
	if strings.Contains(out, "line one") {
		t.Fatalf("expected oldest line to be trimmed, got %q", out)
	}
	requireContains(t, out, "line two")
	requireContains(t, out, "line three")
}

func TestLogsCommandMissingFile(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"logs"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("logs command failed: %v", err)
	}
	requireContains(t, out, "No log entries yet")
}

func TestLogsCommandJSON(t *testing.T) {
	env := setupCLITestEnv(t)

	path := filepath.Join(env.cfg.Paths.LogDir, logs.FileName)
	if err := os.WriteFile(path, []byte("hello\n"), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}

	out, _, err := runCLI(t, []string{"--json", "logs"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("logs command failed: %v", err)
	}

	var result logs.TailResult
	if err := json.Unmarshal([]byte(out), &result); err != nil {
		t.Fatalf("parse json output: %v\noutput: %s", err, out)
	}
	if len(result.Lines) != 1 || result.Lines[0] != "hello" {
		t.Fatalf("unexpected lines: %#v", result.Lines)
	}
}

func TestLogsCommandRejectsJSONFollow(t *testing.T) {
	env := setupCLITestEnv(t)

	_, _, err := runCLI(t, []string{"--json", "logs", "--follow"}, env.socketPath, env.configPath)
	if err == nil || !strings.Contains(err.Error(), "--json cannot be combined") {
		t.Fatalf("expected json/follow conflict error, got %v", err)
	}
}
