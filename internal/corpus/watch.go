package corpus

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/abhisek/tutor/internal/logger"
)

// DefaultDebounce is how long a watcher waits for a burst of file events
// to settle before reacting.
const DefaultDebounce = 500 * time.Millisecond

// Watcher reports changes to supported documents under a directory tree.
type Watcher struct {
	root     string
	debounce time.Duration
	fw       *fsnotify.Watcher
}

// NewWatcher watches root and every non-hidden directory below it.
func NewWatcher(root string, debounce time.Duration) (*Watcher, error) {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	w := &Watcher{root: root, debounce: debounce, fw: fw}
	if err := w.addTree(root); err != nil {
		fw.Close()
		return nil, err
	}
	return w, nil
}

// Close stops watching.
func (w *Watcher) Close() error {
	return w.fw.Close()
}

func (w *Watcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && isHidden(path) {
			return filepath.SkipDir
		}
		if err := w.fw.Add(path); err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}
		return nil
	})
}

// Run blocks until ctx is done, calling onChange once after each burst of
// relevant events. onChange runs on the Run goroutine, so events arriving
// while it works are coalesced into the next call.
func (w *Watcher) Run(ctx context.Context, onChange func(context.Context)) error {
	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.fw.Events:
			if !ok {
				return nil
			}
			if ev.Has(fsnotify.Create) && !isHidden(ev.Name) {
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
					if err := w.addTree(ev.Name); err != nil {
						logger.Warn("watch: %v", err)
					}
					continue
				}
			}
			if !RelevantEvent(ev) {
				continue
			}
			logger.Debug("watch: %s %s", ev.Op, ev.Name)
			timer.Reset(w.debounce)

		case err, ok := <-w.fw.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watch: %v", err)

		case <-timer.C:
			onChange(ctx)
		}
	}
}

// RelevantEvent reports whether ev can change the corpus: a create, write,
// remove or rename of a visible file with a supported extension.
func RelevantEvent(ev fsnotify.Event) bool {
	if isHidden(ev.Name) || !IsSupported(ev.Name) {
		return false
	}
	return ev.Has(fsnotify.Create) || ev.Has(fsnotify.Write) ||
		ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename)
}

func isHidden(path string) bool {
	return strings.HasPrefix(filepath.Base(path), ".")
}
