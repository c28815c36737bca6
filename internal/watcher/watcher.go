// Package watcher turns OS file notifications into change events for watched
// debug log files.
package watcher

import (
	"context"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
)

// Event represents a file change detected by the watcher.
type Event struct {
	Path string
	Op   fsnotify.Op
}

// Watcher monitors trace files matched by glob patterns.
type Watcher struct {
	fsw    *fsnotify.Watcher
	Events chan Event
	paths  []string
}

// New creates a Watcher for the given glob patterns. Patterns are expanded at
// startup; duplicate matches are watched once.
func New(patterns []string) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		fsw:    fsw,
		Events: make(chan Event, 256),
	}

	seen := make(map[string]bool)
	for _, pattern := range patterns {
		matches, err := expandGlob(pattern)
		if err != nil {
			log.Warn().Err(err).Str("pattern", pattern).Msg("failed to expand pattern")
			continue
		}
		for _, m := range matches {
			abs, _ := filepath.Abs(m)
			if seen[abs] {
				continue
			}
			if err := w.fsw.Add(abs); err != nil {
				log.Warn().Err(err).Str("path", abs).Msg("cannot watch file")
				continue
			}
			seen[abs] = true
			w.paths = append(w.paths, abs)
		}
	}

	return w, nil
}

// Start begins listening for file events. It blocks until the context is
// cancelled.
func (w *Watcher) Start(ctx context.Context) {
	defer w.fsw.Close()
	defer close(w.Events)

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			switch {
			case ev.Op&fsnotify.Write != 0,
				ev.Op&fsnotify.Create != 0,
				ev.Op&fsnotify.Remove != 0,
				ev.Op&fsnotify.Rename != 0:
				w.Events <- Event{Path: ev.Name, Op: ev.Op}
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			log.Warn().Err(err).Msg("watcher error")
		}
	}
}

// Paths returns the list of files currently being watched.
func (w *Watcher) Paths() []string {
	return w.paths
}

// ReWatch adds a path back to the watcher after rotation.
func (w *Watcher) ReWatch(path string) error {
	return w.fsw.Add(path)
}

// expandGlob resolves a glob pattern to matching file paths, including
// recursive patterns like logs/**/*.log.
func expandGlob(pattern string) ([]string, error) {
	return doublestar.FilepathGlob(pattern, doublestar.WithFilesOnly(), doublestar.WithFailOnIOErrors())
}
