package dev

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ChangeType represents the type of file change.
type ChangeType int

const (
	ChangeAsset ChangeType = iota
	ChangeCSS
	ChangeScript
	ChangeManifest
)

func (t ChangeType) String() string {
	switch t {
	case ChangeCSS:
		return "css"
	case ChangeScript:
		return "script"
	case ChangeManifest:
		return "manifest"
	default:
		return "asset"
	}
}

// Change represents a detected file change.
type Change struct {
	Path string
	Type ChangeType
	Op   fsnotify.Op
}

// WatcherConfig configures the file watcher.
type WatcherConfig struct {
	// Paths are the directories to watch. Subdirectories are watched too.
	Paths []string

	// Ignore patterns to skip (globs).
	Ignore []string

	// Debounce is the quiet period after the last event before changes
	// are reported.
	Debounce time.Duration

	Logger *slog.Logger
}

// DefaultIgnore contains default patterns to ignore.
var DefaultIgnore = []string{
	".git",
	"node_modules",
	"tmp",
	"*.tmp",
	"*.swp",
	"*~",
	".DS_Store",
}

// Watcher reports batches of file changes under a set of directories.
type Watcher struct {
	config   WatcherConfig
	logger   *slog.Logger
	mu       sync.Mutex
	onChange func([]Change)
	running  bool
}

// NewWatcher creates a new file watcher.
func NewWatcher(config WatcherConfig) *Watcher {
	if config.Debounce == 0 {
		config.Debounce = 100 * time.Millisecond
	}
	if len(config.Ignore) == 0 {
		config.Ignore = DefaultIgnore
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Watcher{
		config: config,
		logger: logger.With("component", "watcher"),
	}
}

// OnChange sets the callback for file changes. Changes are batched: the
// callback runs once per quiet period with one entry per path.
func (w *Watcher) OnChange(fn func([]Change)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onChange = fn
}

// Run watches until ctx is done.
func (w *Watcher) Run(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()
	defer func() {
		w.mu.Lock()
		w.running = false
		w.mu.Unlock()
	}()

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fsw.Close()

	for _, p := range w.config.Paths {
		w.addTree(fsw, p)
	}

	pending := make(map[string]Change)
	timer := time.NewTimer(w.config.Debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if ev.Op == fsnotify.Chmod || w.shouldIgnore(ev.Name) {
				continue
			}
			if ev.Has(fsnotify.Create) {
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
					w.addTree(fsw, ev.Name)
					continue
				}
			}
			pending[ev.Name] = Change{Path: ev.Name, Type: classifyChange(ev.Name), Op: ev.Op}
			timer.Reset(w.config.Debounce)

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watch error", "error", err)

		case <-timer.C:
			if len(pending) == 0 {
				continue
			}
			changes := make([]Change, 0, len(pending))
			for _, c := range pending {
				changes = append(changes, c)
			}
			sort.Slice(changes, func(i, j int) bool { return changes[i].Path < changes[j].Path })
			pending = make(map[string]Change)

			w.mu.Lock()
			callback := w.onChange
			w.mu.Unlock()
			if callback != nil {
				callback(changes)
			}
		}
	}
}

// IsRunning returns whether the watcher is running.
func (w *Watcher) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

// addTree watches root and every directory below it.
func (w *Watcher) addTree(fsw *fsnotify.Watcher, root string) {
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if p != root && w.shouldIgnore(p) {
			return filepath.SkipDir
		}
		if err := fsw.Add(p); err != nil {
			w.logger.Warn("cannot watch directory", "path", p, "error", err)
		}
		return nil
	})
	if err != nil {
		w.logger.Debug("skipping watch path", "path", root, "error", err)
	}
}

// shouldIgnore checks if a path should be ignored.
func (w *Watcher) shouldIgnore(fullPath string) bool {
	name := filepath.Base(fullPath)
	normalized := filepath.ToSlash(fullPath)

	for _, pattern := range w.config.Ignore {
		pattern = strings.TrimSpace(pattern)
		if pattern == "" {
			continue
		}
		if name == pattern {
			return true
		}

		hasPathSep := strings.ContainsAny(pattern, `/\`)
		if strings.ContainsAny(pattern, "*?[") {
			target, glob := name, pattern
			if hasPathSep {
				target, glob = normalized, filepath.ToSlash(pattern)
			}
			if matched, _ := path.Match(glob, target); matched {
				return true
			}
			continue
		}

		if hasPathSep {
			if containsSegments(normalized, filepath.ToSlash(pattern)) {
				return true
			}
			continue
		}
		if containsSegments(normalized, pattern) {
			return true
		}
	}
	return false
}

// containsSegments reports whether the slash-separated segments of
// pattern appear consecutively in p.
func containsSegments(p, pattern string) bool {
	pathParts := splitSegments(p)
	patternParts := splitSegments(pattern)
	if len(patternParts) == 0 || len(patternParts) > len(pathParts) {
		return false
	}

	for i := 0; i <= len(pathParts)-len(patternParts); i++ {
		match := true
		for j := range patternParts {
			if pathParts[i+j] != patternParts[j] {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}

func splitSegments(p string) []string {
	var result []string
	for _, part := range strings.Split(p, "/") {
		if part != "" && part != "." {
			result = append(result, part)
		}
	}
	return result
}

// classifyChange determines the type of change from the file name.
func classifyChange(p string) ChangeType {
	switch name := filepath.Base(p); name {
	case "manifest.json", "chunk-manifest.json":
		return ChangeManifest
	}
	switch strings.ToLower(filepath.Ext(p)) {
	case ".css":
		return ChangeCSS
	case ".js", ".mjs":
		return ChangeScript
	default:
		return ChangeAsset
	}
}
