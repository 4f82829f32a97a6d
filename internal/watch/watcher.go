package watch

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/apex/log"
	"github.com/cockroachdb/errors"
	"github.com/fsnotify/fsnotify"

	"github.com/hochfrequenz/stem-splitter/internal/domain"
)

// ArrivalCallback is called with the audio files that settled in the inbox
type ArrivalCallback func(files []string)

// InboxWatcher reports audio files dropped into a directory. Files are
// reported once they have stopped changing for the debounce period.
type InboxWatcher struct {
	watcher  *fsnotify.Watcher
	dir      string
	callback ArrivalCallback
	debounce time.Duration
	logger   log.Interface

	pending map[string]struct{}
	timer   *time.Timer
	mu      sync.Mutex

	cancel context.CancelFunc
	done   chan struct{}
}

// NewInboxWatcher creates a watcher for dir
func NewInboxWatcher(dir string, callback ArrivalCallback) (*InboxWatcher, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "inbox %s", dir)
	}
	if !info.IsDir() {
		return nil, errors.Newf("inbox %s is not a directory", dir)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "creating file watcher")
	}
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return nil, errors.Wrapf(err, "watching %s", dir)
	}

	return &InboxWatcher{
		watcher:  watcher,
		dir:      dir,
		callback: callback,
		debounce: 2 * time.Second,
		logger:   log.Log,
		pending:  make(map[string]struct{}),
		done:     make(chan struct{}),
	}, nil
}

// SetDebounce sets how long a file must stay quiet before it is reported
func (w *InboxWatcher) SetDebounce(d time.Duration) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.debounce = d
}

// Start begins watching for file changes
func (w *InboxWatcher) Start(ctx context.Context) {
	ctx, w.cancel = context.WithCancel(ctx)

	go func() {
		defer close(w.done)
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-w.watcher.Events:
				if !ok {
					return
				}
				w.handleEvent(event)
			case err, ok := <-w.watcher.Errors:
				if !ok {
					return
				}
				w.logger.WithError(err).Warn("File watcher error")
			}
		}
	}()
}

// Stop stops watching and drops files still waiting for the debounce
func (w *InboxWatcher) Stop() {
	if w.cancel != nil {
		w.cancel()
	}
	w.watcher.Close()

	w.mu.Lock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.pending = make(map[string]struct{})
	w.mu.Unlock()
}

// Done is closed once the event loop has exited
func (w *InboxWatcher) Done() <-chan struct{} {
	return w.done
}

func (w *InboxWatcher) handleEvent(event fsnotify.Event) {
	if !domain.IsAudioFile(event.Name) {
		return
	}

	// Only care about writes and creates
	if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	w.pending[event.Name] = struct{}{}

	// Reset or start debounce timer
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.flush)
}

func (w *InboxWatcher) flush() {
	w.mu.Lock()
	pending := w.pending
	w.pending = make(map[string]struct{})
	w.mu.Unlock()

	if w.callback == nil {
		return
	}

	files := make([]string, 0, len(pending))
	for f := range pending {
		// The file may have been renamed away again before settling
		if info, err := os.Stat(f); err == nil && !info.IsDir() {
			files = append(files, f)
		}
	}
	sort.Strings(files)
	if len(files) > 0 {
		w.callback(files)
	}
}

// OutputDirFor returns the directory results for input are written to: a
// folder named after the track, under outRoot or next to the input.
func OutputDirFor(input, outRoot string) string {
	base := filepath.Base(input)
	track := base[:len(base)-len(filepath.Ext(base))]
	if outRoot == "" {
		outRoot = filepath.Dir(input)
	}
	return filepath.Join(outRoot, track)
}
