package docs

import (
	"context"
	"os"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// Watcher reloads a Library when index files under its roots change.
type Watcher struct {
	roots          []string
	loader         *Loader
	library        *Library
	watcher        *fsnotify.Watcher
	logger         *zap.SugaredLogger
	mu             sync.Mutex
	debounceTimer  *time.Timer
	debouncePeriod time.Duration
}

// NewWatcher watches every directory below roots. fsnotify is not
// recursive, so directories are registered one by one.
func NewWatcher(roots []string, loader *Loader, library *Library, logger *zap.SugaredLogger) (*Watcher, error) {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "failed to create fsnotify watcher")
	}

	w := &Watcher{
		roots:          roots,
		loader:         loader,
		library:        library,
		watcher:        fw,
		logger:         logger,
		debouncePeriod: 300 * time.Millisecond,
	}
	for _, root := range roots {
		if err := w.addTree(root); err != nil {
			_ = fw.Close()
			return nil, err
		}
	}
	return w, nil
}

func (w *Watcher) addTree(root string) error {
	return afero.Walk(w.loader.fs, root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return errors.Wrapf(err, "failed to watch %s", path)
		}
		if !info.IsDir() {
			return nil
		}
		if err := w.watcher.Add(path); err != nil {
			return errors.Wrapf(err, "failed to watch %s", path)
		}
		return nil
	})
}

// Run processes file events until ctx is done.
func (w *Watcher) Run(ctx context.Context) {
	defer func() { _ = w.watcher.Close() }()

	for {
		select {
		case <-ctx.Done():
			w.mu.Lock()
			if w.debounceTimer != nil {
				w.debounceTimer.Stop()
			}
			w.mu.Unlock()
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Has(fsnotify.Create) {
				if w.isDir(event.Name) {
					if err := w.addTree(event.Name); err != nil {
						w.logger.Warnw("Documentation watcher could not follow new directory", "dir", event.Name, "error", err)
					}
					w.scheduleReload(ctx)
					continue
				}
			}
			if _, ok := FormatOf(event.Name); !ok {
				continue
			}
			w.logger.Debugw("Documentation watcher detected change", "file", event.Name, "op", event.Op.String())
			w.scheduleReload(ctx)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warnw("Documentation watcher error", "error", err)
		}
	}
}

func (w *Watcher) isDir(path string) bool {
	info, err := w.loader.fs.Stat(path)
	return err == nil && info.IsDir()
}

// scheduleReload debounces bursts of events into a single reload.
func (w *Watcher) scheduleReload(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
	}
	w.debounceTimer = time.AfterFunc(w.debouncePeriod, func() {
		w.Reload(ctx)
	})
}

// Reload loads the roots again and installs the result.
func (w *Watcher) Reload(ctx context.Context) {
	idx, err := w.loader.Load(ctx, w.roots)
	if err != nil {
		w.logger.Warnw("Documentation reload finished with errors", "error", err)
	}
	if idx != nil {
		w.library.Replace(idx)
	}
}
