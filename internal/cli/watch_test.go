package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"
)

func TestWatchFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ro-crate-metadata.json")
	other := filepath.Join(dir, "other.json")
	if err := os.WriteFile(path, []byte(testCrate), 0o644); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changed := make(chan struct{}, 4)
	w, err := watchFile(ctx, path, newLogger(io.Discard, LogInfo), func() { changed <- struct{}{} })
	if err != nil {
		t.Fatalf("watchFile() error: %v", err)
	}
	defer w.Close()

	if err := os.WriteFile(other, []byte("{}"), 0o644); err != nil {
		t.Fatal(err)
	}
	select {
	case <-changed:
		t.Fatal("a sibling file should not trigger onChange")
	case <-time.After(3 * watchDebounce):
	}

	if err := os.WriteFile(path, []byte(testCrate+"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	select {
	case <-changed:
	case <-time.After(5 * time.Second):
		t.Fatal("onChange not called after write")
	}
}

func TestWatchFileDebounce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "crate.json")
	if err := os.WriteFile(path, []byte("{}"), 0o644); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var calls atomic.Int32
	w, err := watchFile(ctx, path, newLogger(io.Discard, LogInfo), func() { calls.Add(1) })
	if err != nil {
		t.Fatalf("watchFile() error: %v", err)
	}
	defer w.Close()

	for i := 0; i < 5; i++ {
		if err := os.WriteFile(path, []byte("{ }"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	time.Sleep(5 * watchDebounce)

	if got := calls.Load(); got != 1 {
		t.Errorf("onChange called %d times for one burst, want 1", got)
	}
}

func TestWatchFileMissingDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "crate.json")
	if _, err := watchFile(context.Background(), path, newLogger(io.Discard, LogInfo), func() {}); err == nil {
		t.Error("watching a file in a missing directory should fail")
	}
}
