package main

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// watchDebounce coalesces bursts of events (editors often write a file in
// several steps) into one re-render.
const watchDebounce = 100 * time.Millisecond

// watchLoop re-renders stylesheets when an input or one of the files its
// last map referenced changes.
type watchLoop struct {
	files   []FileToRender
	watched [][]string // per file: absolute paths that trigger a re-render
	render  func(context.Context, []FileToRender) []RenderResult
	log     *zap.Logger
	delay   time.Duration
}

// newWatchLoop creates a loop for files, seeded with the results of the
// initial render (results[i] belongs to files[i]).
func newWatchLoop(files []FileToRender, results []RenderResult, render func(context.Context, []FileToRender) []RenderResult, log *zap.Logger) *watchLoop {
	w := &watchLoop{
		files:   files,
		watched: make([][]string, len(files)),
		render:  render,
		log:     log.Named("watch"),
		delay:   watchDebounce,
	}
	for i := range files {
		var sources []string
		if i < len(results) {
			sources = results[i].Sources
		}
		w.watched[i] = dependencies(files[i].InputPath, sources)
	}
	return w
}

// dependencies returns the cleaned absolute input path plus sources, deduplicated.
// A failed render keeps no sources, so only the input itself is watched until
// it compiles again.
func dependencies(input string, sources []string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, p := range append([]string{input}, sources...) {
		abs, err := filepath.Abs(p)
		if err != nil {
			continue
		}
		if !seen[abs] {
			seen[abs] = true
			out = append(out, abs)
		}
	}
	return out
}

// size returns the number of distinct watched files.
func (w *watchLoop) size() int {
	return len(w.paths())
}

// paths returns every watched file, sorted.
func (w *watchLoop) paths() []string {
	seen := make(map[string]bool)
	var out []string
	for _, deps := range w.watched {
		for _, p := range deps {
			if !seen[p] {
				seen[p] = true
				out = append(out, p)
			}
		}
	}
	sort.Strings(out)
	return out
}

// dirs returns the directories holding watched files, sorted. fsnotify
// watches directories so that files replaced by editors stay tracked.
func (w *watchLoop) dirs() []string {
	seen := make(map[string]bool)
	var out []string
	for _, p := range w.paths() {
		d := filepath.Dir(p)
		if !seen[d] {
			seen[d] = true
			out = append(out, d)
		}
	}
	return out
}

// isWatched reports whether path is a dependency of any file.
func (w *watchLoop) isWatched(path string) bool {
	for _, deps := range w.watched {
		for _, p := range deps {
			if p == path {
				return true
			}
		}
	}
	return false
}

// affected returns the indexes of files depending on any of changed.
func (w *watchLoop) affected(changed map[string]bool) []int {
	var out []int
	for i, deps := range w.watched {
		for _, p := range deps {
			if changed[p] {
				out = append(out, i)
				break
			}
		}
	}
	return out
}

// rerender renders the files at idxs and refreshes their dependencies.
func (w *watchLoop) rerender(ctx context.Context, idxs []int) {
	files := make([]FileToRender, len(idxs))
	for i, idx := range idxs {
		files[i] = w.files[idx]
	}

	results := w.render(ctx, files)
	for i, idx := range idxs {
		if i >= len(results) {
			break
		}
		r := results[i]
		// Keep the previous dependencies when a render fails or embeds its
		// error, so fixing an import triggers the next attempt.
		if r.Err == nil && !r.Embedded {
			w.watched[idx] = dependencies(w.files[idx].InputPath, r.Sources)
		}
	}
}

// run watches until ctx is canceled.
func (w *watchLoop) run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	added := make(map[string]bool)
	syncDirs := func() {
		for _, d := range w.dirs() {
			if added[d] {
				continue
			}
			if err := watcher.Add(d); err != nil {
				w.log.Warn("cannot watch directory", zap.String("dir", d), zap.Error(err))
				continue
			}
			added[d] = true
		}
	}
	syncDirs()

	timer := time.NewTimer(w.delay)
	timer.Stop()
	var fire <-chan time.Time
	pending := make(map[string]bool)

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
				!event.Has(fsnotify.Rename) && !event.Has(fsnotify.Remove) {
				continue
			}
			path, err := filepath.Abs(event.Name)
			if err != nil || !w.isWatched(path) {
				continue
			}
			w.log.Debug("change detected", zap.String("path", path), zap.Stringer("op", event.Op))
			pending[path] = true
			timer.Reset(w.delay)
			fire = timer.C

		case <-fire:
			fire = nil
			idxs := w.affected(pending)
			pending = make(map[string]bool)
			if len(idxs) == 0 {
				continue
			}
			w.log.Info("re-rendering", zap.Int("files", len(idxs)))
			w.rerender(ctx, idxs)
			syncDirs()

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("watch error", zap.Error(err))
		}
	}
}
