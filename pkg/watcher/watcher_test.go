package watcher

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
)

func TestDebouncerBatches(t *testing.T) {
	input := make(chan ChangeEvent)
	d := NewDebouncer(input, 50*time.Millisecond, time.Second)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	d.Start(ctx)

	now := time.Now()
	input <- ChangeEvent{Type: ChangeTypeRemove, Paths: []string{"/p.toml"}, Timestamp: now}
	input <- ChangeEvent{Type: ChangeTypeWrite, Paths: []string{"/p.toml"}, Timestamp: now}
	input <- ChangeEvent{Type: ChangeTypeWrite, Paths: []string{"/p.toml"}, Timestamp: now}

	select {
	case got := <-d.Output():
		if got.Type != ChangeTypeWrite {
			t.Errorf("Expected last event type write, got %v", got.Type)
		}
		if len(got.Paths) != 1 {
			t.Errorf("Expected deduplicated paths, got %v", got.Paths)
		}
		if !got.NeedsReload() {
			t.Error("Expected write batch to need reload")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Timed out waiting for batch")
	}

	select {
	case got := <-d.Output():
		t.Errorf("Expected a single batch, got another %+v", got)
	case <-time.After(150 * time.Millisecond):
	}
}

func TestDebouncerFlushesOnClose(t *testing.T) {
	input := make(chan ChangeEvent, 1)
	d := NewDebouncer(input, time.Hour, time.Hour)
	d.Start(context.Background())

	input <- ChangeEvent{Type: ChangeTypeRemove, Paths: []string{"/p.toml"}}
	close(input)

	got, ok := <-d.Output()
	if !ok {
		t.Fatal("Expected pending batch before close")
	}
	if got.NeedsReload() {
		t.Error("A removed file must not trigger a reload")
	}
	if _, ok := <-d.Output(); ok {
		t.Error("Expected output to be closed")
	}
}

func TestFileWatcher(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "policy.toml")

	fw, err := NewFileWatcher(path)
	if err != nil {
		t.Fatalf("NewFileWatcher() error = %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := fw.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	// Unrelated files in the same directory are ignored
	if err := os.WriteFile(filepath.Join(dir, "other.txt"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("nodes = []\n"), 0644); err != nil {
		t.Fatal(err)
	}

	select {
	case event := <-fw.Events():
		if event.Type != ChangeTypeWrite || event.Paths[0] != fw.Path() {
			t.Errorf("Unexpected event %+v", event)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Timed out waiting for write event")
	}

	cancel()
	deadline := time.After(5 * time.Second)
	for {
		select {
		case _, ok := <-fw.Events():
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("Expected events channel to close after cancel")
		}
	}
}

func TestNewFileWatcherMissingDir(t *testing.T) {
	fw, err := NewFileWatcher(filepath.Join(t.TempDir(), "missing", "policy.toml"))
	if err != nil {
		t.Fatalf("NewFileWatcher() error = %v", err)
	}
	defer fw.Stop()
	if err := fw.Start(context.Background()); err == nil {
		t.Error("Expected error watching a missing directory")
	}

	// The failed start released the fsnotify watcher
	if err := fw.watcher.Add(t.TempDir()); !errors.Is(err, fsnotify.ErrClosed) {
		t.Errorf("Expected fsnotify.ErrClosed after a failed Start, got %v", err)
	}
}
