package discovery

import (
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/powerautomation/domainmcp/errors"
)

// Watcher re-scans the discovery paths when manifest files appear or change
// and registers any new domains through the supplied RegisterFunc. Domains
// that are already registered come back as conflicts and are skipped.
type Watcher struct {
	paths    []string
	register RegisterFunc
	logger   *zap.SugaredLogger
	watcher  *fsnotify.Watcher

	mu             sync.Mutex
	debounceTimer  *time.Timer
	debouncePeriod time.Duration
}

// NewWatcher watches every resolvable discovery path. It fails only when no
// path can be watched at all.
func NewWatcher(paths []string, register RegisterFunc, logger *zap.SugaredLogger) (*Watcher, error) {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "failed to create fsnotify watcher")
	}

	watched := 0
	for _, path := range paths {
		expanded, err := expandAndValidatePath(path)
		if err != nil {
			logger.Warnw("Invalid discovery path, not watching",
				"path", path,
				"error", err)
			continue
		}
		if err := fsw.Add(expanded); err != nil {
			logger.Warnw("Cannot watch discovery path",
				"path", expanded,
				"error", err)
			continue
		}
		watched++
	}
	if watched == 0 {
		fsw.Close()
		return nil, errors.New("no watchable discovery paths")
	}

	return &Watcher{
		paths:          paths,
		register:       register,
		logger:         logger,
		watcher:        fsw,
		debouncePeriod: 500 * time.Millisecond, // Debounce rapid manifest writes
	}, nil
}

// Start begins watching for manifest changes.
func (w *Watcher) Start() {
	go w.watchLoop()
}

func (w *Watcher) watchLoop() {
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}

			// Only new or rewritten manifests matter
			if event.Op&fsnotify.Write != fsnotify.Write && event.Op&fsnotify.Create != fsnotify.Create {
				continue
			}
			if !strings.HasSuffix(event.Name, ManifestSuffix) {
				continue
			}

			w.logger.Infow("Discovery watcher detected manifest change",
				"file", event.Name,
				"op", event.Op.String())
			w.scheduleRescan()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warnw("Discovery watcher error",
				"error", err)
		}
	}
}

// scheduleRescan debounces bursts of manifest writes into one re-scan.
func (w *Watcher) scheduleRescan() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
	}

	w.debounceTimer = time.AfterFunc(w.debouncePeriod, w.rescan)
}

func (w *Watcher) rescan() {
	manifests := Scan(w.paths, w.logger)
	registered := RegisterManifests(manifests, w.register, w.logger)
	if registered > 0 {
		w.logger.Infow("Auto-discovery registered new domains",
			"count", registered)
	}
}

// Stop stops watching for manifest changes.
func (w *Watcher) Stop() error {
	return w.watcher.Close()
}
