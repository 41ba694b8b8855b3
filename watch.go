package tracelog

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ReloadCallback is called after each reload attempt with the loaded settings
// and the load or reconfigure error
type ReloadCallback func(s Settings, err error)

// Watcher reloads listener settings when their file changes
type Watcher struct {
	path     string
	listener *Listener
	watcher  *fsnotify.Watcher
	callback ReloadCallback
	debounce time.Duration

	done     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// WatchOption configures a Watcher
type WatchOption func(*Watcher)

// WithDebounce sets how long the file must stay quiet before a reload
func WithDebounce(d time.Duration) WatchOption {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithReloadCallback sets a function called after every reload attempt
func WithReloadCallback(fn ReloadCallback) WatchOption {
	return func(w *Watcher) {
		w.callback = fn
	}
}

// WatchSettings watches a settings file and reconfigures l whenever it
// changes. The directory is watched rather than the file so editors that
// replace the file on save are followed. Call Stop to release the watcher.
func WatchSettings(path string, l *Listener, opts ...WatchOption) (*Watcher, error) {
	if l == nil {
		return nil, fmtErrorf("watch requires a listener")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmtErrorf("failed to resolve settings path '%s': %w", path, err)
	}

	w := &Watcher{
		path:     abs,
		listener: l,
		debounce: defaultWatchDebounce,
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmtErrorf("failed to create watcher: %w", err)
	}
	dir := filepath.Dir(abs)
	if err := fsWatcher.Add(dir); err != nil {
		return nil, combineErrors(fmtErrorf("failed to watch directory '%s': %w", dir, err), fsWatcher.Close())
	}
	w.watcher = fsWatcher

	w.wg.Add(1)
	go w.run()
	return w, nil
}

// Stop stops watching and waits for a running reload to finish
func (w *Watcher) Stop() error {
	var err error
	w.stopOnce.Do(func() {
		close(w.done)
		err = w.watcher.Close()
		w.wg.Wait()
	})
	return err
}

// run is the event loop, reloads happen on this goroutine
func (w *Watcher) run() {
	defer w.wg.Done()

	filename := filepath.Base(w.path)
	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-w.done:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != filename {
				continue
			}
			// Write for in-place edits, Create and Rename for editors that replace the file
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			diag := w.listener.diagnostics()
			diag.Warn().Err(err).Str("path", w.path).Msg("settings watcher error")

		case <-fire:
			fire = nil
			w.reload()
		}
	}
}

// reload loads the file and applies it to the listener
func (w *Watcher) reload() {
	s, err := LoadSettings(w.path)
	if err == nil {
		err = w.listener.Reconfigure(s)
	}

	diag := w.listener.diagnostics()
	if err != nil {
		diag.Warn().Err(err).Str("path", w.path).Msg("settings reload failed")
	} else {
		diag.Info().Str("path", w.path).Msg("settings reloaded")
	}

	if w.callback != nil {
		w.callback(s, err)
	}
}
