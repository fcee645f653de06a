// Package discover walks a source tree and returns the Swift files the
// Syntax Inventory should parse, honoring a configurable directory
// exclusion list.
//
// Adapted from the teacher's internal/discover: same filepath.Walk +
// skip-dir pattern and optional ignore-file support, trimmed to a single
// file extension and to the spec's default exclude set (spec.md §6)
// instead of the teacher's multi-language ignore table.
package discover

import (
	"bufio"
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// FileInfo is a discovered source file.
type FileInfo struct {
	Path    string // absolute path
	RelPath string // relative to the project root, slash-separated
}

// Options configures file discovery.
type Options struct {
	Excludes   []string // directory names to skip, in addition to IgnoreFile patterns
	IgnoreFile string   // path to a .symreachignore file (optional)
}

func shouldSkipDir(name, rel string, excludes, extraIgnore []string) bool {
	for _, e := range excludes {
		if name == e {
			return true
		}
	}
	for _, pattern := range extraIgnore {
		if matched, _ := filepath.Match(pattern, name); matched {
			return true
		}
		if matched, _ := filepath.Match(pattern, rel); matched {
			return true
		}
	}
	return false
}

// Discover walks root and returns every .swift file not under an excluded
// directory. Results are sorted by RelPath so downstream sorting (spec.md
// §5: "sort declarations by (file, start_line, start_column)") has a
// deterministic file order to start from.
func Discover(ctx context.Context, root string, opts Options) ([]FileInfo, error) {
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var extraIgnore []string
	if opts.IgnoreFile != "" {
		extraIgnore, _ = loadIgnoreFile(opts.IgnoreFile)
	} else {
		extraIgnore, _ = loadIgnoreFile(filepath.Join(root, ".symreachignore"))
	}

	var files []FileInfo
	walkErr := filepath.Walk(root, func(path string, info os.FileInfo, walkErr error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if walkErr != nil {
			return filepath.SkipDir
		}

		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return nil
		}

		if info.IsDir() {
			if path != root && shouldSkipDir(info.Name(), rel, opts.Excludes, extraIgnore) {
				return filepath.SkipDir
			}
			return nil
		}

		if filepath.Ext(path) != ".swift" {
			return nil
		}
		files = append(files, FileInfo{Path: path, RelPath: filepath.ToSlash(rel)})
		return nil
	})
	if walkErr != nil {
		return nil, walkErr
	}

	sort.Slice(files, func(i, j int) bool { return files[i].RelPath < files[j].RelPath })
	return files, nil
}

// IsTestPath reports whether a relative path looks like a test file, per
// spec.md §4.1 heuristic #8 ("a file whose path contains test,
// case-insensitive").
func IsTestPath(relPath, marker string) bool {
	return strings.Contains(strings.ToLower(relPath), strings.ToLower(marker))
}

func loadIgnoreFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var patterns []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" && !strings.HasPrefix(line, "#") {
			patterns = append(patterns, line)
		}
	}
	return patterns, scanner.Err()
}
