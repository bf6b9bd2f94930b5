// Package reload detects edits to the configuration and layout files that a
// generation run was built from.
package reload

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/timzifer/regmapgen/internal/config"
)

// snapshot is the observed state of one source path. A missing path has the
// zero snapshot, so creating it later counts as a change.
type snapshot struct {
	exists  bool
	modTime time.Time
	size    int64
	// entries lists the configuration files of a directory source.
	entries string
}

func (s snapshot) equal(o snapshot) bool {
	return s.exists == o.exists &&
		s.modTime.Equal(o.modTime) &&
		s.size == o.size &&
		s.entries == o.entries
}

func take(path string) snapshot {
	info, err := os.Stat(path)
	if err != nil {
		return snapshot{}
	}
	if info.IsDir() {
		return snapshot{exists: true, entries: configEntries(path)}
	}
	return snapshot{exists: true, modTime: info.ModTime(), size: info.Size()}
}

func configEntries(dir string) string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return ""
	}
	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(entry.Name())) {
		case ".yaml", ".yml":
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)
	return strings.Join(names, "\n")
}

// Watcher remembers a snapshot per source path and reports the paths whose
// state differs from it.
type Watcher struct {
	mu      sync.Mutex
	sources map[string]snapshot
}

// NewWatcher snapshots the sources of cfg and root, which may be the
// configuration file or directory passed on the command line.
func NewWatcher(root string, cfg *config.Config) (*Watcher, error) {
	watcher := &Watcher{}
	if err := watcher.Update(root, cfg); err != nil {
		return nil, err
	}
	return watcher, nil
}

// Update replaces the tracked set with the sources of cfg and root and takes a
// fresh snapshot of each. Paths that do not exist yet are still tracked.
func (w *Watcher) Update(root string, cfg *config.Config) error {
	if w == nil {
		return nil
	}
	paths := config.SourceFiles(cfg)
	if root != "" {
		abs, err := filepath.Abs(root)
		if err != nil {
			return err
		}
		paths = append(paths, abs)
	}
	sources := make(map[string]snapshot, len(paths))
	for _, path := range paths {
		if path == "" {
			continue
		}
		sources[path] = take(path)
	}
	w.mu.Lock()
	w.sources = sources
	w.mu.Unlock()
	return nil
}

// Check returns the sorted paths that were created, modified or removed since
// the last Update. Files appearing in or leaving a watched configuration
// directory are reported as a change of the directory.
func (w *Watcher) Check() ([]string, error) {
	if w == nil {
		return nil, nil
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	changed := make([]string, 0)
	for path, previous := range w.sources {
		if !take(path).equal(previous) {
			changed = append(changed, path)
		}
	}
	sort.Strings(changed)
	return changed, nil
}

// Tracked returns the number of watched paths, including missing ones.
func (w *Watcher) Tracked() int {
	if w == nil {
		return 0
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.sources)
}
