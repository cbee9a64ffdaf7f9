package batch

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// TrimTrailingSeparator drops trailing '/' and '\' while keeping a bare root.
func TrimTrailingSeparator(path string) string {
	for len(path) > 1 && strings.ContainsAny(path[len(path)-1:], `/\`) {
		path = path[:len(path)-1]
	}
	return path
}

func CheckInputDir(dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("failed to find input directory %s: %w", dir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("input path %s is not a directory", dir)
	}
	return nil
}

// PrepareOutputDir creates dir when it is missing. The returned bool reports
// whether it had to be created.
func PrepareOutputDir(dir string) (bool, error) {
	info, err := os.Stat(dir)
	switch {
	case err == nil:
		if !info.IsDir() {
			return false, fmt.Errorf("output path %s is not a directory", dir)
		}
		return false, nil
	case errors.Is(err, fs.ErrNotExist):
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return false, fmt.Errorf("failed to create output directory: %w", err)
		}
		return true, nil
	default:
		return false, fmt.Errorf("stat output directory: %w", err)
	}
}

// Enumerate lists the non-directory entries of dir matching "*.inputFormat",
// without descending into subdirectories. The match is case-sensitive.
func Enumerate(dir, inputFormat string) ([]string, error) {
	pattern := "*." + inputFormat
	if _, err := filepath.Match(pattern, ""); err != nil {
		return nil, fmt.Errorf("invalid input format %q: %w", inputFormat, err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("error while exploring directory: %w", err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if ok, _ := filepath.Match(pattern, e.Name()); ok {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	return files, nil
}

// BuildTasks creates one task per file. Outputs that would land on the same
// path (compared case-insensitively) are returned as collisions keyed by the
// output path; the tasks are still built and the last writer wins.
func BuildTasks(files []string, outputDir, inputFormat, outputFormat string) ([]Task, map[string][]string) {
	tasks := make([]Task, 0, len(files))
	seen := make(map[string][]string, len(files))
	first := make(map[string]string, len(files))

	for _, f := range files {
		t := NewTask(f, outputDir, inputFormat, outputFormat)
		tasks = append(tasks, t)

		key := strings.ToLower(t.Output)
		if _, ok := first[key]; !ok {
			first[key] = t.Output
		}
		seen[key] = append(seen[key], f)
	}

	var collisions map[string][]string
	for key, sources := range seen {
		if len(sources) < 2 {
			continue
		}
		if collisions == nil {
			collisions = make(map[string][]string)
		}
		sort.Strings(sources)
		collisions[first[key]] = sources
	}
	return tasks, collisions
}
