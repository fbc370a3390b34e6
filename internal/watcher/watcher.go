package watcher

import (
	"context"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"codegraph/internal/records"
)

// Update is one debounced batch of record-file changes. Paths are absolute.
// A path appears in exactly one of the two lists.
type Update struct {
	Changed []string // written or created record files
	Removed []string // deleted record files
}

// RecordWatcher watches a directory tree of extraction record files and
// delivers debounced change batches. Rapid successive writes to the same
// record (editors, extractors flushing incrementally) coalesce into one
// callback.
type RecordWatcher interface {
	// Start begins watching. The callback runs on the watcher's goroutine;
	// it should hand work off quickly.
	Start(ctx context.Context, callback func(Update)) error

	// Stop shuts the watcher down. Idempotent.
	Stop() error
}

type recordWatcher struct {
	watcher   *fsnotify.Watcher
	root      string
	discovery *records.Discovery
	debounce  time.Duration

	callback func(Update)
	ctx      context.Context
	cancel   context.CancelFunc

	pending   map[string]bool // path -> removed?
	pendingMu sync.Mutex

	timer   *time.Timer
	timerMu sync.Mutex

	stopOnce sync.Once
	doneCh   chan struct{}
}

const defaultDebounce = 500 * time.Millisecond

// NewRecordWatcher creates a watcher over the record tree rooted at root.
// Which files count as records is decided by the discovery's include and
// ignore patterns.
func NewRecordWatcher(root string, discovery *records.Discovery) (RecordWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	rw := &recordWatcher{
		watcher:   watcher,
		root:      root,
		discovery: discovery,
		debounce:  defaultDebounce,
		pending:   make(map[string]bool),
		doneCh:    make(chan struct{}),
	}
	if err := rw.addDirectoriesRecursively(root); err != nil {
		watcher.Close()
		return nil, err
	}
	return rw, nil
}

func (rw *recordWatcher) Start(ctx context.Context, callback func(Update)) error {
	if callback == nil {
		return nil
	}
	rw.callback = callback
	rw.ctx, rw.cancel = context.WithCancel(ctx)
	go rw.watch()
	return nil
}

func (rw *recordWatcher) Stop() error {
	var err error
	rw.stopOnce.Do(func() {
		if rw.cancel != nil {
			rw.cancel()
			<-rw.doneCh
		} else {
			close(rw.doneCh)
		}
		err = rw.watcher.Close()
	})
	return err
}

func (rw *recordWatcher) watch() {
	defer close(rw.doneCh)

	flushCh := make(chan struct{}, 1)

	for {
		select {
		case <-rw.ctx.Done():
			rw.stopTimer()
			return

		case event, ok := <-rw.watcher.Events:
			if !ok {
				return
			}

			// New directories join the watch set.
			if event.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := rw.addDirectoriesRecursively(event.Name); err != nil {
						log.Printf("Warning: failed to watch new directory %s: %v", event.Name, err)
					}
					continue
				}
			}

			if !rw.isRecordEvent(event) {
				continue
			}

			removed := event.Op&(fsnotify.Remove|fsnotify.Rename) != 0
			rw.pendingMu.Lock()
			rw.pending[event.Name] = removed
			rw.pendingMu.Unlock()

			rw.resetTimer(flushCh)

		case <-flushCh:
			rw.flush()

		case err, ok := <-rw.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("Record watcher error: %v", err)
		}
	}
}

// flush delivers the accumulated batch, splitting changed from removed.
func (rw *recordWatcher) flush() {
	rw.pendingMu.Lock()
	if len(rw.pending) == 0 {
		rw.pendingMu.Unlock()
		return
	}
	var update Update
	for path, removed := range rw.pending {
		if removed {
			update.Removed = append(update.Removed, path)
		} else {
			update.Changed = append(update.Changed, path)
		}
	}
	rw.pending = make(map[string]bool)
	rw.pendingMu.Unlock()

	rw.callback(update)
}

func (rw *recordWatcher) resetTimer(flushCh chan struct{}) {
	rw.timerMu.Lock()
	defer rw.timerMu.Unlock()

	if rw.timer != nil {
		if !rw.timer.Stop() {
			select {
			case <-rw.timer.C:
			default:
			}
		}
	}
	rw.timer = time.AfterFunc(rw.debounce, func() {
		select {
		case flushCh <- struct{}{}:
		default:
		}
	})
}

func (rw *recordWatcher) stopTimer() {
	rw.timerMu.Lock()
	defer rw.timerMu.Unlock()
	if rw.timer != nil {
		rw.timer.Stop()
		rw.timer = nil
	}
}

// isRecordEvent reports whether an event concerns a record file we track.
func (rw *recordWatcher) isRecordEvent(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
		return false
	}
	rel, err := filepath.Rel(rw.root, event.Name)
	if err != nil {
		return false
	}
	return rw.discovery.Matches(filepath.ToSlash(rel))
}

func (rw *recordWatcher) addDirectoriesRecursively(rootPath string) error {
	return filepath.Walk(rootPath, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			if path == rootPath {
				return err
			}
			log.Printf("Warning: error accessing %s: %v", path, err)
			return nil
		}
		if !info.IsDir() {
			return nil
		}
		if err := rw.watcher.Add(path); err != nil {
			log.Printf("Warning: failed to watch directory %s: %v", path, err)
		}
		return nil
	})
}
