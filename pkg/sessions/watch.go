package sessions

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/grovetools/ludics/pkg/models"
	"github.com/sirupsen/logrus"
)

// ResultHandler receives the outcome of every pass a Watcher runs.
type ResultHandler func(result *models.DiscoveryResult, err error)

// Watcher reruns a pipeline when agent logs change and on a fixed interval,
// which catches tmux and ttyd changes that leave no trace on disk.
type Watcher struct {
	pipeline *Pipeline
	watcher  *fsnotify.Watcher
	interval time.Duration
	debounce time.Duration
	onResult ResultHandler
	log      *logrus.Entry

	mu      sync.Mutex
	watched map[string]bool
}

// NewWatcher watches the codex sessions tree and the claude projects tree of
// the pipeline's configuration. Missing directories are skipped.
func NewWatcher(p *Pipeline, interval, debounce time.Duration, onResult ResultHandler) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if debounce <= 0 {
		debounce = 500 * time.Millisecond
	}
	w := &Watcher{
		pipeline: p,
		watcher:  fw,
		interval: interval,
		debounce: debounce,
		onResult: onResult,
		log:      p.log.WithField("component", "sessions-watcher"),
		watched:  make(map[string]bool),
	}

	cfg := p.Config()
	w.addTree(filepath.Join(cfg.CodexHome, "sessions"))
	w.addTree(cfg.ClaudeProjectsDir)
	return w, nil
}

// Watched returns the directories currently watched.
func (w *Watcher) Watched() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	dirs := make([]string, 0, len(w.watched))
	for d := range w.watched {
		dirs = append(dirs, d)
	}
	return dirs
}

// addTree watches root and every directory below it. fsnotify is not recursive.
func (w *Watcher) addTree(root string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return nil
		}
		if w.watched[path] {
			return nil
		}
		if err := w.watcher.Add(path); err != nil {
			w.log.WithError(err).WithField("dir", path).Debug("cannot watch directory")
			return nil
		}
		w.watched[path] = true
		return nil
	})
}

// forget drops path and everything below it from the watched set. fsnotify
// has already removed those watches, so a recreated directory is added again.
func (w *Watcher) forget(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	prefix := path + string(filepath.Separator)
	for dir := range w.watched {
		if dir == path || strings.HasPrefix(dir, prefix) {
			delete(w.watched, dir)
		}
	}
}

// Run performs an initial pass and then reruns on changes until ctx is done.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.watcher.Close()

	w.runOnce(ctx)

	var tick <-chan time.Time
	if w.interval > 0 {
		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	var pending <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if !w.relevant(event) {
				continue
			}
			w.log.Debugf("fsnotify event: %s op=%v", event.Name, event.Op)
			pending = time.After(w.debounce)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.log.WithError(err).Warn("watcher error")
		case <-pending:
			pending = nil
			w.runOnce(ctx)
		case <-tick:
			w.runOnce(ctx)
		}
	}
}

// relevant reports whether event may change discovery output. New
// directories are watched as they appear.
func (w *Watcher) relevant(event fsnotify.Event) bool {
	if event.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			w.addTree(event.Name)
			return true
		}
	}
	if event.Op&(fsnotify.Remove|fsnotify.Rename) != 0 {
		w.forget(event.Name)
	}
	if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
		return false
	}
	return strings.HasSuffix(event.Name, ".jsonl") || filepath.Base(event.Name) == claudeIndexFile
}

func (w *Watcher) runOnce(ctx context.Context) {
	result, err := w.pipeline.Run(ctx)
	if err != nil && ctx.Err() != nil {
		return
	}
	if w.onResult != nil {
		w.onResult(result, err)
	}
}
