package profile

import (
	"context"
	"os"
	"path/filepath"
	"time"
)

// FileWatcher polls the modification times of files matching Pattern and calls
// onChange for every file that appeared, changed, or disappeared since the last scan.
type FileWatcher struct {
	Pattern   string // glob, e.g. <dir>/profiles/*.yaml
	Interval  time.Duration
	onChange  func(string) // called with path that changed
	lastMTime map[string]time.Time
}

// NewFileWatcher creates a watcher for pattern and interval.
func NewFileWatcher(pattern string, interval time.Duration, onChange func(string)) *FileWatcher {
	return &FileWatcher{
		Pattern:   pattern,
		Interval:  interval,
		onChange:  onChange,
		lastMTime: make(map[string]time.Time),
	}
}

// WatchLoader returns a watcher that invalidates l's cache whenever a profile file changes.
func WatchLoader(l *Loader, interval time.Duration) *FileWatcher {
	return NewFileWatcher(filepath.Join(l.paths.Dir(), "*.yaml"), interval, func(path string) {
		l.log.WithField("path", path).Info("profile changed, invalidating cache")
		l.Invalidate()
	})
}

// Run polls until ctx is done. The first scan only primes the mtime cache.
func (w *FileWatcher) Run(ctx context.Context) {
	ticker := time.NewTicker(w.Interval)
	defer ticker.Stop()
	w.scan(true)
	for {
		select {
		case <-ticker.C:
			w.scan(false)
		case <-ctx.Done():
			return
		}
	}
}

// scan checks mtimes and invokes onChange for files that changed since last scan.
func (w *FileWatcher) scan(prime bool) {
	paths, err := filepath.Glob(w.Pattern)
	if err != nil {
		return
	}
	seen := make(map[string]bool, len(paths))
	for _, p := range paths {
		fi, err := os.Stat(p)
		if err != nil {
			continue
		}
		seen[p] = true
		mt := fi.ModTime()
		last, ok := w.lastMTime[p]
		w.lastMTime[p] = mt
		if prime {
			continue
		}
		if !ok || mt.After(last) {
			w.notify(p)
		}
	}
	for p := range w.lastMTime {
		if !seen[p] {
			delete(w.lastMTime, p)
			if !prime {
				w.notify(p)
			}
		}
	}
}

func (w *FileWatcher) notify(path string) {
	if w.onChange != nil {
		w.onChange(path)
	}
}
