package bundle

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// codeExtensions is the fixed set of C and C++ suffixes picked up by Discover.
var codeExtensions = []string{".c", ".cpp", ".h", ".hpp"}

// IsCode reports whether name carries one of the recognized code extensions.
func IsCode(name string) bool {
	for _, ext := range codeExtensions {
		if strings.HasSuffix(name, ext) {
			return true
		}
	}
	return false
}

// Discover walks root recursively and returns every code file in walk order
// (lexical within each directory). Exclusions are plain substrings matched
// against the slash-separated path relative to root; a matching directory is
// pruned with its whole subtree. Since the relative path ends with the bare
// name, a file named exactly like an entry is skipped too. An empty result
// is not an error.
func Discover(root string, exclude []string) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("bundle: discover %s: %w", root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("bundle: discover %s: not a directory", root)
	}
	var files []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if path == root {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if d.IsDir() {
			if excluded(rel, exclude) {
				return filepath.SkipDir
			}
			return nil
		}
		if !IsCode(d.Name()) || excluded(rel, exclude) {
			return nil
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("bundle: discover %s: %w", root, err)
	}
	return files, nil
}

// ResolveOrdered maps an explicit header list (relative to root) onto paths,
// keeping the caller's order. Every entry must name an existing file.
func ResolveOrdered(root string, names []string) ([]string, error) {
	paths := make([]string, 0, len(names))
	for _, name := range names {
		path := name
		if !filepath.IsAbs(path) {
			path = filepath.Join(root, filepath.FromSlash(name))
		}
		info, err := os.Stat(path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("bundle: header %s: %w", name, err)
			}
			return nil, fmt.Errorf("bundle: stat %s: %w", path, err)
		}
		if info.IsDir() {
			return nil, fmt.Errorf("bundle: header %s is a directory", name)
		}
		paths = append(paths, filepath.Clean(path))
	}
	return paths, nil
}

func excluded(rel string, exclude []string) bool {
	for _, excl := range exclude {
		if excl != "" && strings.Contains(rel, excl) {
			return true
		}
	}
	return false
}
