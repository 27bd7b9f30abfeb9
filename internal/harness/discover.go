package harness

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// ScenarioNotFoundError is returned when a scenario directory holds no
// scenario matching the filter.
type ScenarioNotFoundError struct {
	Dir    string
	Filter string
}

// Error implements the error interface.
func (e *ScenarioNotFoundError) Error() string {
	if e.Filter == "" {
		return fmt.Sprintf("no scenario files found in %s", e.Dir)
	}
	return fmt.Sprintf("no scenario files in %s match filter %q", e.Dir, e.Filter)
}

// DiscoverScenarios returns the .yaml and .yml files directly inside dir,
// sorted by name. A non-empty filter is a filepath.Match pattern applied to
// the base name without extension.
func DiscoverScenarios(dir, filter string) ([]string, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to access scenario directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", dir)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario directory: %w", err)
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := filepath.Ext(entry.Name())
		if ext != ".yaml" && ext != ".yml" {
			continue
		}
		if filter != "" {
			base := entry.Name()[:len(entry.Name())-len(ext)]
			ok, err := filepath.Match(filter, base)
			if err != nil {
				return nil, fmt.Errorf("invalid filter %q: %w", filter, err)
			}
			if !ok {
				continue
			}
		}
		paths = append(paths, filepath.Join(dir, entry.Name()))
	}

	if len(paths) == 0 {
		return nil, &ScenarioNotFoundError{Dir: dir, Filter: filter}
	}
	sort.Strings(paths)
	return paths, nil
}
