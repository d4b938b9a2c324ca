// Package scanlist turns the input arguments of the CLIs into a concrete,
// ordered list of scan file paths. Inputs arrive in three shapes: a plain
// file path, a directory to sweep, or a glob pattern; a manifest file can
// name many of them at once.
package scanlist

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// DefaultGlob is the pattern used when a directory is given without one.
const DefaultGlob = "*.csv"

// Expand resolves pattern into scan file paths.
//
//   - A path naming an existing file returns just that file.
//   - A path naming a directory returns its DefaultGlob matches, sorted.
//   - Anything else is treated as a glob pattern; matches are sorted and
//     directories among them are skipped.
//
// No matches is not an error: the caller decides whether an empty run is
// worth reporting.
func Expand(pattern string) ([]string, error) {
	if st, err := os.Stat(pattern); err == nil {
		if !st.IsDir() {
			return []string{pattern}, nil
		}
		return ExpandDir(pattern, DefaultGlob)
	}

	matches, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("glob %s: %w", pattern, err)
	}
	return onlyFiles(matches), nil
}

// ExpandDir returns the files under dir matching glob, sorted by name.
func ExpandDir(dir, glob string) ([]string, error) {
	if glob == "" {
		glob = DefaultGlob
	}
	matches, err := filepath.Glob(filepath.Join(dir, glob))
	if err != nil {
		return nil, fmt.Errorf("glob %s: %w", filepath.Join(dir, glob), err)
	}
	return onlyFiles(matches), nil
}

// ReadManifest reads a text file line by line and returns the scan paths it
// names: non-empty, non-comment lines in file order.
//
// Lines that are empty or start with '#' (after trimming leading/trailing
// whitespace) are skipped, so a manifest can carry comments and blank
// separators.
func ReadManifest(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var out []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// onlyFiles drops directories from glob matches and sorts what remains.
func onlyFiles(matches []string) []string {
	out := matches[:0]
	for _, m := range matches {
		if st, err := os.Stat(m); err == nil && !st.IsDir() {
			out = append(out, m)
		}
	}
	sort.Strings(out)
	return out
}
