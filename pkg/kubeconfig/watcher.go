package kubeconfig

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/fleetglass/fleetglass/pkg/log"
)

// defaultDebounce coalesces the burst of filesystem events a single
// kubeconfig rewrite produces into one change notification.
const defaultDebounce = 500 * time.Millisecond

// Watcher notifies when the kubeconfig file changes on disk. A change
// means the set of reachable clusters may have changed, so the caller
// typically broadcasts a refetch of everything.
type Watcher struct {
	path     string
	onChange func()
	debounce time.Duration
	fsw      *fsnotify.Watcher
	stopCh   chan struct{}
	logger   zerolog.Logger
}

// NewWatcher creates a watcher for the kubeconfig at path. onChange
// runs after each debounced change, on the watcher goroutine.
func NewWatcher(path string, onChange func()) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	// Watch the directory, not the file. Most tools rewrite kubeconfig
	// by renaming a temp file over it, which drops a direct file watch.
	if err := fsw.Add(filepath.Dir(path)); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("failed to watch kubeconfig directory: %w", err)
	}

	return &Watcher{
		path:     filepath.Clean(path),
		onChange: onChange,
		debounce: defaultDebounce,
		fsw:      fsw,
		stopCh:   make(chan struct{}),
		logger:   log.WithComponent("kubeconfig"),
	}, nil
}

// SetDebounce overrides the change coalescing window. Tests use short
// windows.
func (w *Watcher) SetDebounce(d time.Duration) {
	w.debounce = d
}

// Start begins watching in a background goroutine.
func (w *Watcher) Start() {
	w.logger.Info().Str("path", w.path).Msg("Watching kubeconfig")
	go w.run()
}

// Stop halts the watcher and releases the inotify handle.
func (w *Watcher) Stop() {
	close(w.stopCh)
	w.fsw.Close()
}

func (w *Watcher) run() {
	var timer *time.Timer
	var timerC <-chan time.Time

	for {
		select {
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if !w.relevant(ev) {
				continue
			}
			w.logger.Debug().Str("op", ev.Op.String()).Msg("Kubeconfig event")
			if timer == nil {
				timer = time.NewTimer(w.debounce)
				timerC = timer.C
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(w.debounce)
			}

		case <-timerC:
			timer = nil
			timerC = nil
			w.logger.Info().Msg("Kubeconfig changed")
			w.onChange()

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn().Err(err).Msg("Kubeconfig watch error")

		case <-w.stopCh:
			if timer != nil {
				timer.Stop()
			}
			return
		}
	}
}

func (w *Watcher) relevant(ev fsnotify.Event) bool {
	if filepath.Clean(ev.Name) != w.path {
		return false
	}
	return ev.Op.Has(fsnotify.Write) || ev.Op.Has(fsnotify.Create) || ev.Op.Has(fsnotify.Rename)
}
