package config

import (
	"path/filepath"
	"sort"
)

// SourceFiles returns the absolute paths of the files that contributed to
// the configuration, including custom layout files.
func SourceFiles(cfg *Config) []string {
	if cfg == nil {
		return nil
	}
	files := make(map[string]struct{})
	add := func(path string) {
		if path == "" {
			return
		}
		abs, err := filepath.Abs(path)
		if err != nil {
			abs = path
		}
		files[abs] = struct{}{}
	}
	for _, src := range cfg.sources {
		add(src)
	}
	for _, layout := range cfg.Layouts {
		add(layout)
	}
	paths := make([]string, 0, len(files))
	for path := range files {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths
}
