// Package watcher reports changes to a single file, such as a conversion
// policy, using fsnotify. The parent directory is watched so that editors
// that replace the file on save are followed.
package watcher

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/ritzau/qconvert/pkg/logging"
)

// ChangeType represents the type of file change detected
type ChangeType int

const (
	// ChangeTypeWrite means the file was created or written.
	ChangeTypeWrite ChangeType = iota
	// ChangeTypeRemove means the file was removed or renamed away.
	ChangeTypeRemove
)

func (t ChangeType) String() string {
	switch t {
	case ChangeTypeWrite:
		return "write"
	case ChangeTypeRemove:
		return "remove"
	}
	return fmt.Sprintf("ChangeType(%d)", int(t))
}

// ChangeEvent represents a batch of file system changes
type ChangeEvent struct {
	Type      ChangeType
	Paths     []string
	Timestamp time.Time
}

// NeedsReload reports whether the watched file should be read again. A
// removed file keeps the last loaded state.
func (e ChangeEvent) NeedsReload() bool {
	return e.Type == ChangeTypeWrite
}

// FileWatcher watches one file for changes
type FileWatcher struct {
	watcher  *fsnotify.Watcher
	path     string
	events   chan ChangeEvent
	stopOnce sync.Once
}

// NewFileWatcher creates a watcher for path. The file does not need to exist
// yet, but its directory does.
func NewFileWatcher(path string) (*FileWatcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", path, err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	return &FileWatcher{
		watcher: watcher,
		path:    abs,
		events:  make(chan ChangeEvent, 16),
	}, nil
}

// Start begins watching. Events stop and the channel is closed when ctx is
// cancelled or Stop is called. If Start fails the watcher is closed.
func (fw *FileWatcher) Start(ctx context.Context) error {
	dir := filepath.Dir(fw.path)
	if err := fw.watcher.Add(dir); err != nil {
		if closeErr := fw.Stop(); closeErr != nil {
			logging.Warn("failed to close watcher", "error", closeErr)
		}
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	logging.Info("started watching file", "path", fw.path)
	go fw.processEvents(ctx)
	return nil
}

// classify maps an fsnotify event on the watched file to a change type.
func (fw *FileWatcher) classify(event fsnotify.Event) (ChangeType, bool) {
	if filepath.Clean(event.Name) != fw.path {
		return 0, false
	}
	switch {
	case event.Has(fsnotify.Write), event.Has(fsnotify.Create):
		return ChangeTypeWrite, true
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		return ChangeTypeRemove, true
	}
	// chmod only
	return 0, false
}

func (fw *FileWatcher) processEvents(ctx context.Context) {
	defer close(fw.events)
	defer fw.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-fw.watcher.Events:
			if !ok {
				return
			}
			changeType, relevant := fw.classify(event)
			if !relevant {
				continue
			}

			logging.Trace("file event", "path", event.Name, "op", event.Op.String())
			select {
			case fw.events <- ChangeEvent{Type: changeType, Paths: []string{fw.path}, Timestamp: time.Now()}:
			case <-ctx.Done():
				return
			}

		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			logging.Error("watcher error", "error", err)
		}
	}
}

// Path returns the absolute path being watched.
func (fw *FileWatcher) Path() string {
	return fw.path
}

// Events returns the channel of change events
func (fw *FileWatcher) Events() <-chan ChangeEvent {
	return fw.events
}

// Stop stops the file watcher. It is safe to call more than once.
func (fw *FileWatcher) Stop() error {
	var err error
	fw.stopOnce.Do(func() {
		err = fw.watcher.Close()
	})
	return err
}
