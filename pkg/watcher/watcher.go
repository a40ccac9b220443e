package watcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/ritzau/infra-diagrams/pkg/logging"
)

// ChangeType represents the type of file change detected
type ChangeType int

const (
	ChangeTypeDefinition ChangeType = iota
	ChangeTypeConfig
	ChangeTypeIcon
)

func (t ChangeType) String() string {
	switch t {
	case ChangeTypeDefinition:
		return "definition"
	case ChangeTypeConfig:
		return "config"
	case ChangeTypeIcon:
		return "icon"
	default:
		return fmt.Sprintf("ChangeType(%d)", int(t))
	}
}

// ChangeEvent represents a batch of file system changes
type ChangeEvent struct {
	Type      ChangeType
	Paths     []string
	Timestamp time.Time
}

// Classify maps a file name to the kind of change it causes. ok is false for
// files that never affect a diagram (editor swap files, rendered artifacts).
func Classify(path string) (ChangeType, bool) {
	name := filepath.Base(path)
	if strings.HasPrefix(name, ".") || strings.HasSuffix(name, "~") {
		return 0, false
	}
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml", ".hcl":
		return ChangeTypeDefinition, true
	case ".toml":
		return ChangeTypeConfig, true
	case ".png", ".svg", ".jpg", ".jpeg":
		return ChangeTypeIcon, true
	}
	return 0, false
}

// FileWatcher watches definition files, the config file and the icon
// directory.
type FileWatcher struct {
	watcher *fsnotify.Watcher
	paths   []string
	iconDir string
	events  chan ChangeEvent
	flush   time.Duration
	mu      sync.Mutex
	stopped bool
}

// NewFileWatcher creates a watcher for the given files or directories. Icon
// changes are only reported for files inside iconDir.
func NewFileWatcher(paths []string, iconDir string) (*FileWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	return &FileWatcher{
		watcher: watcher,
		paths:   paths,
		iconDir: iconDir,
		events:  make(chan ChangeEvent, 100),
		flush:   100 * time.Millisecond,
	}, nil
}

// Start begins watching for file changes
func (fw *FileWatcher) Start(ctx context.Context) error {
	dirs := make(map[string]bool)
	for _, p := range fw.paths {
		info, err := os.Stat(p)
		if err != nil {
			return fmt.Errorf("failed to watch %s: %w", p, err)
		}
		if info.IsDir() {
			dirs[p] = true
		} else {
			// Editors replace files on save; watching the directory survives that.
			dirs[filepath.Dir(p)] = true
		}
	}
	if fw.iconDir != "" {
		if _, err := os.Stat(fw.iconDir); err == nil {
			dirs[fw.iconDir] = true
		}
	}

	for dir := range dirs {
		if err := fw.watcher.Add(dir); err != nil {
			logging.Warn("failed to watch directory", "path", dir, "error", err)
		}
	}
	logging.Info("started watching", "directories", len(dirs))

	go fw.processEvents(ctx)
	return nil
}

func (fw *FileWatcher) relevant(event fsnotify.Event) (ChangeType, bool) {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) && !event.Has(fsnotify.Remove) {
		return 0, false
	}
	t, ok := Classify(event.Name)
	if !ok {
		return 0, false
	}
	if t == ChangeTypeIcon && (fw.iconDir == "" || filepath.Dir(event.Name) != filepath.Clean(fw.iconDir)) {
		return 0, false
	}
	return t, true
}

// processEvents batches raw fsnotify events by change type
func (fw *FileWatcher) processEvents(ctx context.Context) {
	pending := make(map[ChangeType][]string)

	flushTimer := time.NewTimer(fw.flush)
	flushTimer.Stop()

	flush := func() {
		for _, t := range []ChangeType{ChangeTypeConfig, ChangeTypeDefinition, ChangeTypeIcon} {
			if paths := pending[t]; len(paths) > 0 {
				fw.events <- ChangeEvent{Type: t, Paths: paths, Timestamp: time.Now()}
			}
		}
		pending = make(map[ChangeType][]string)
	}

	for {
		select {
		case <-ctx.Done():
			fw.Stop()
			close(fw.events)
			return

		case event, ok := <-fw.watcher.Events:
			if !ok {
				close(fw.events)
				return
			}
			t, ok := fw.relevant(event)
			if !ok {
				continue
			}
			logging.Trace("file changed", "path", event.Name, "type", t.String())
			pending[t] = appendUnique(pending[t], event.Name)
			flushTimer.Reset(fw.flush)

		case <-flushTimer.C:
			flush()

		case err, ok := <-fw.watcher.Errors:
			if !ok {
				continue
			}
			logging.Error("watcher error", "error", err)
		}
	}
}

func appendUnique(paths []string, path string) []string {
	for _, p := range paths {
		if p == path {
			return paths
		}
	}
	return append(paths, path)
}

// Events returns the channel of change events
func (fw *FileWatcher) Events() <-chan ChangeEvent {
	return fw.events
}

// Stop releases the underlying watcher. It is safe to call more than once.
func (fw *FileWatcher) Stop() error {
	fw.mu.Lock()
	defer fw.mu.Unlock()
	if fw.stopped {
		return nil
	}
	fw.stopped = true
	return fw.watcher.Close()
}
