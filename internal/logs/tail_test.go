package logs_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"podbrief/internal/logs"
	"podbrief/internal/testsupport"
)

func TestTailLastLines(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, logs.FileName)
	if err := os.WriteFile(path, []byte("a\nb\nc\n"), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}

	result, err := logs.Tail(context.Background(), path, logs.TailOptions{Offset: -1, Limit: 2})
	if err != nil {
		t.Fatalf("tail returned error: %v", err)
	}
	if len(result.Lines) != 2 || result.Lines[0] != "b" || result.Lines[1] != "c" {
		t.Fatalf("unexpected lines: %#v", result.Lines)
	}
	if result.Offset == 0 {
		t.Fatal("expected offset to advance")
	}
}

func TestTailMissingFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, logs.FileName)

	result, err := logs.Tail(context.Background(), path, logs.TailOptions{Offset: -1, Limit: 10})
	if err != nil {
		t.Fatalf("tail returned error: %v", err)
	}
	if len(result.Lines) != 0 {
		t.Fatalf("expected no lines, got %#v", result.Lines)
	}
	if result.Offset != 0 {
		t.Fatalf("expected offset reset, got %d", result.Offset)
	}
}

func TestTailReadsForwardFromOffset(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, logs.FileName)
	if err := os.WriteFile(path, []byte("first\n"), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}

	initial, err := logs.Tail(context.Background(), path, logs.TailOptions{Offset: -1, Limit: 1})
	if err != nil {
		t.Fatalf("initial tail: %v", err)
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatalf("open append: %v", err)
	}
	if _, err := f.WriteString("second\n"); err != nil {
		t.Fatalf("append log: %v", err)
	}
	_ = f.Close()

	result, err := logs.Tail(context.Background(), path, logs.TailOptions{Offset: initial.Offset})
	if err != nil {
		t.Fatalf("forward tail: %v", err)
	}
	if len(result.Lines) != 1 || result.Lines[0] != "second" {
		t.Fatalf("unexpected lines: %#v", result.Lines)
	}
}

func TestTailResetsOnTruncatedFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, logs.FileName)
	if err := os.WriteFile(path, []byte("one\ntwo\nthree\n"), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}

	initial, err := logs.Tail(context.Background(), path, logs.TailOptions{Offset: -1, Limit: 1})
	if err != nil {
		t.Fatalf("initial tail: %v", err)
	}

	if err := os.WriteFile(path, []byte("new\n"), 0o644); err != nil {
		t.Fatalf("truncate log: %v", err)
	}

	result, err := logs.Tail(context.Background(), path, logs.TailOptions{Offset: initial.Offset})
	if err != nil {
		t.Fatalf("tail after truncate: %v", err)
	}
	if len(result.Lines) != 1 || result.Lines[0] != "new" {
		t.Fatalf("unexpected lines: %#v", result.Lines)
	}
}

func TestTailFollowWaitsForNewLines(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, logs.FileName)
	if err := os.WriteFile(path, []byte("start\n"), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	initial, err := logs.Tail(ctx, path, logs.TailOptions{Offset: -1, Limit: 1})
	if err != nil {
		t.Fatalf("initial tail: %v", err)
	}
	if len(initial.Lines) != 1 {
		t.Fatalf("expected initial line, got %#v", initial.Lines)
	}

	done := make(chan struct{})
	go func(offset int64) {
		defer close(done)
		res, err := logs.Tail(ctx, path, logs.TailOptions{Offset: offset, Follow: true, Wait: 5 * time.Second})
		if err != nil {
			t.Errorf("follow tail error: %v", err)
			return
		}
		if len(res.Lines) != 1 || res.Lines[0] != "later" {
			t.Errorf("unexpected follow lines: %#v", res.Lines)
		}
	}(initial.Offset)

	time.Sleep(200 * time.Millisecond)
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatalf("open append: %v", err)
	}
	if _, err := f.WriteString("later\n"); err != nil {
		t.Fatalf("append log: %v", err)
	}
	_ = f.Close()

	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("follow tail did not observe appended line")
	}
}

func TestPathFor(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	path := logs.PathFor(cfg)
	if path != filepath.Join(cfg.Paths.LogDir, logs.FileName) {
		t.Fatalf("unexpected log path %q", path)
	}
	if logs.PathFor(nil) != "" {
		t.Fatal("expected empty path for nil config")
	}
}
