package manifest

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// WatchEvent reports a reload of a watched manifest. Exactly one of
// Whitelist and Err is set.
type WatchEvent struct {
	Path      string
	Whitelist *Whitelist
	Digest    string
	Err       error
	Time      time.Time
}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithDebounce sets how long a file must stay quiet before it is reloaded.
// It must be positive.
func WithDebounce(d time.Duration) WatcherOption {
	return func(w *Watcher) { w.debounce = d }
}

// Watcher reloads a manifest file whenever it changes and reports the
// result. It watches the containing directory so editors that save by
// renaming over the file are seen. Edits that leave the whitelist unchanged
// (comments, formatting) are not reported.
type Watcher struct {
	path     string
	debounce time.Duration
	onChange func(WatchEvent)

	fsWatcher *fsnotify.Watcher
	done      chan struct{}
	stopOnce  sync.Once
	wg        sync.WaitGroup

	lastDigest string
	lastErr    string

	mu      sync.Mutex
	pending time.Time
}

// NewWatcher creates a Watcher for the manifest at path.
func NewWatcher(path string, onChange func(WatchEvent), opts ...WatcherOption) *Watcher {
	w := &Watcher{
		path:     filepath.Clean(path),
		debounce: 300 * time.Millisecond,
		onChange: onChange,
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Start loads the manifest once, reports it, then watches for changes.
func (w *Watcher) Start() error {
	if w.debounce <= 0 {
		return fmt.Errorf("manifest watcher: debounce must be positive, got %v", w.debounce)
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("manifest watcher: create fsnotify: %w", err)
	}
	w.fsWatcher = fsw

	dir := filepath.Dir(w.path)
	if err := fsw.Add(dir); err != nil {
		_ = fsw.Close()
		return fmt.Errorf("manifest watcher: watch %s: %w", dir, err)
	}

	w.reload()

	w.wg.Add(1)
	go w.loop()
	return nil
}

// Stop terminates the watcher and waits for the background goroutine to exit.
// It is safe to call Stop multiple times.
func (w *Watcher) Stop() error {
	w.stopOnce.Do(func() { close(w.done) })
	w.wg.Wait()
	if w.fsWatcher != nil {
		return w.fsWatcher.Close()
	}
	return nil
}

func (w *Watcher) loop() {
	defer w.wg.Done()

	ticker := time.NewTicker(w.debounce)
	defer ticker.Stop()

	for {
		select {
		case <-w.done:
			return

		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				w.mu.Lock()
				w.pending = time.Now()
				w.mu.Unlock()
			}

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			logger.Errorf("manifest watcher: %v", err)

		case <-ticker.C:
			w.mu.Lock()
			ready := !w.pending.IsZero() && time.Since(w.pending) >= w.debounce
			if ready {
				w.pending = time.Time{}
			}
			w.mu.Unlock()
			if ready {
				w.reload()
			}
		}
	}
}

func (w *Watcher) reload() {
	ev := WatchEvent{Path: w.path, Time: time.Now()}

	wl, err := Load(w.path)
	if err == nil {
		ev.Whitelist = wl
		ev.Digest, err = Digest(wl)
	}
	if err != nil {
		if err.Error() == w.lastErr {
			return
		}
		w.lastErr = err.Error()
		w.lastDigest = ""
		ev.Whitelist = nil
		ev.Err = err
		logger.Warningf("manifest watcher: %v", err)
		w.onChange(ev)
		return
	}

	w.lastErr = ""
	if ev.Digest == w.lastDigest {
		logger.Debugf("manifest watcher: %s unchanged, skipping", w.path)
		return
	}
	w.lastDigest = ev.Digest
	logger.Infof("manifest watcher: %s digest %s", w.path, ev.Digest[:12])
	w.onChange(ev)
}
