package logging_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"podbrief/internal/logging"
)

func TestCleanupOldLogsRemovesExpiredFiles(t *testing.T) {
	dir := t.TempDir()

	oldPath := filepath.Join(dir, "podbrief-old.log")
	if err := os.WriteFile(oldPath, []byte("old"), 0o644); err != nil {
		t.Fatalf("write old log: %v", err)
	}
	past := time.Now().AddDate(0, 0, -30)
	if err := os.Chtimes(oldPath, past, past); err != nil {
		t.Fatalf("age old log: %v", err)
	}

	freshPath := filepath.Join(dir, "podbrief-fresh.log")
	if err := os.WriteFile(freshPath, []byte("fresh"), 0o644); err != nil {
		t.Fatalf("write fresh log: %v", err)
	}

	excludedPath := filepath.Join(dir, "podbrief-active.log")
	if err := os.WriteFile(excludedPath, []byte("active"), 0o644); err != nil {
		t.Fatalf("write excluded log: %v", err)
	}
	if err := os.Chtimes(excludedPath, past, past); err != nil {
		t.Fatalf("age excluded log: %v", err)
	}

	logging.CleanupOldLogs(logging.NewNop(), 7, logging.RetentionTarget{
		Dir:     dir,
		Pattern: "podbrief-*.log",
		Exclude: []string{excludedPath},
	})

	if _, err := os.Stat(oldPath); !os.IsNotExist(err) {
		t.Fatalf("expected old log removed, stat err: %v", err)
	}
	if _, err := os.Stat(freshPath); err != nil {
		t.Fatalf("expected fresh log kept: %v", err)
	}
	if _, err := os.Stat(excludedPath); err != nil {
		t.Fatalf("expected excluded log kept: %v", err)
	}
}

func TestCleanupOldLogsDisabledByZeroRetention(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "podbrief-old.log")
	if err := os.WriteFile(path, []byte("old"), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}
	past := time.Now().AddDate(0, 0, -365)
	if err := os.Chtimes(path, past, past); err != nil {
		t.Fatalf("age log: %v", err)
	}

	logging.CleanupOldLogs(logging.NewNop(), 0, logging.RetentionTarget{Dir: dir})

	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected log kept when retention disabled: %v", err)
	}
}
