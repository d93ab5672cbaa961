package devserver

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/specialistvlad/bundlego/internal/ctxlog"
)

// debounceWindow batches the burst of events editors produce for one save.
const debounceWindow = 100 * time.Millisecond

// Watcher observes the source files of a build and reports batches of
// changed paths. Directories are watched rather than files so that
// rename-and-replace saves are not lost.
type Watcher struct {
	fs      *fsnotify.Watcher
	changes chan []string

	mu       sync.Mutex
	interest map[string]bool
	dirs     map[string]bool
}

// NewWatcher creates a watcher. Run must be called for Changes to deliver.
func NewWatcher() (*Watcher, error) {
	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{
		fs:       fs,
		changes:  make(chan []string, 1),
		interest: make(map[string]bool),
		dirs:     make(map[string]bool),
	}, nil
}

// SetFiles replaces the set of files the watcher cares about. New parent
// directories are added to the underlying watcher; stale ones are kept,
// which is harmless because events are filtered against the interest set.
func (w *Watcher) SetFiles(ctx context.Context, files []string) error {
	logger := ctxlog.FromContext(ctx)

	w.mu.Lock()
	defer w.mu.Unlock()
	w.interest = make(map[string]bool, len(files))
	for _, file := range files {
		w.interest[file] = true
		dir := filepath.Dir(file)
		if w.dirs[dir] {
			continue
		}
		if err := w.fs.Add(dir); err != nil {
			return err
		}
		w.dirs[dir] = true
		logger.Debug("Watching directory.", "dir", dir)
	}
	return nil
}

// Changes delivers debounced batches of changed source paths.
func (w *Watcher) Changes() <-chan []string {
	return w.changes
}

// Run pumps filesystem events until the context is canceled.
func (w *Watcher) Run(ctx context.Context) {
	logger := ctxlog.FromContext(ctx)

	var pending []string
	var timer *time.Timer
	var fire <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			w.fs.Close()
			return
		case event, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if !event.Op.Has(fsnotify.Write) && !event.Op.Has(fsnotify.Create) &&
				!event.Op.Has(fsnotify.Rename) && !event.Op.Has(fsnotify.Remove) {
				continue
			}
			path := filepath.Clean(event.Name)
			w.mu.Lock()
			relevant := w.interest[path]
			w.mu.Unlock()
			if !relevant {
				continue
			}
			logger.Debug("Source change detected.", "path", path, "op", event.Op.String())
			pending = append(pending, path)
			if timer == nil {
				timer = time.NewTimer(debounceWindow)
				fire = timer.C
			}
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			logger.Warn("Watcher error.", "error", err)
		case <-fire:
			batch := dedupePaths(pending)
			pending = nil
			timer = nil
			fire = nil
			select {
			case w.changes <- batch:
			case <-ctx.Done():
				w.fs.Close()
				return
			}
		}
	}
}

func dedupePaths(paths []string) []string {
	seen := make(map[string]bool, len(paths))
	var out []string
	for _, p := range paths {
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}
	return out
}
