package release

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/kingrea/objbundle/internal/config"
)

// ErrOutputExists reports that the release directory was already present
// when the run needed to create it.
var ErrOutputExists = errors.New("release: output directory already exists")

// Clean removes a previous release directory. A missing directory is fine.
func Clean(dir string) error {
	if strings.TrimSpace(dir) == "" {
		return fmt.Errorf("release: clean: empty path")
	}
	if err := os.RemoveAll(dir); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("release: clean %s: %w", dir, err)
	}
	return nil
}

// Prepare creates a fresh, empty release directory. With the abort policy a
// pre-existing directory is left untouched and ErrOutputExists is returned;
// with overwrite it is removed first. Creation is exclusive, so a directory
// that reappears between cleanup and creation also yields ErrOutputExists.
func Prepare(dir, onExisting string) error {
	switch onExisting {
	case config.OnExistingAbort:
		if _, err := os.Lstat(dir); err == nil {
			return fmt.Errorf("%w: %s", ErrOutputExists, dir)
		} else if !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("release: stat %s: %w", dir, err)
		}
	case config.OnExistingOverwrite:
		if err := Clean(dir); err != nil {
			return err
		}
	default:
		return fmt.Errorf("release: unknown on-existing policy %q", onExisting)
	}
	if err := os.MkdirAll(filepath.Dir(dir), 0o755); err != nil {
		return fmt.Errorf("release: ensure parent of %s: %w", dir, err)
	}
	if err := os.Mkdir(dir, 0o755); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return fmt.Errorf("%w: %s", ErrOutputExists, dir)
		}
		return fmt.Errorf("release: create %s: %w", dir, err)
	}
	return nil
}

// CopyVendor copies src into dst recursively, byte for byte, keeping the
// directory layout and file modes. It reports whether anything was copied;
// a missing src is skipped silently.
func CopyVendor(src, dst string) (bool, error) {
	if strings.TrimSpace(src) == "" || strings.TrimSpace(dst) == "" {
		return false, nil
	}
	info, err := os.Stat(src)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("release: stat vendor dir %s: %w", src, err)
	}
	if !info.IsDir() {
		return false, fmt.Errorf("release: vendor path %s is not a directory", src)
	}
	err = filepath.WalkDir(src, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		if d.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		if !d.Type().IsRegular() {
			return nil
		}
		return copyFile(path, target)
	})
	if err != nil {
		return false, fmt.Errorf("release: copy vendor dir: %w", err)
	}
	return true, nil
}

func copyFile(src, dst string) error {
	info, err := os.Stat(src)
	if err != nil {
		return fmt.Errorf("release: stat %s: %w", src, err)
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("release: prepare %s: %w", dst, err)
	}
	srcFile, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("release: open %s: %w", src, err)
	}
	defer srcFile.Close()
	dstFile, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return fmt.Errorf("release: create %s: %w", dst, err)
	}
	if _, err := io.Copy(dstFile, srcFile); err != nil {
		dstFile.Close()
		return fmt.Errorf("release: copy %s: %w", filepath.Base(src), err)
	}
	if err := dstFile.Close(); err != nil {
		return fmt.Errorf("release: close %s: %w", dst, err)
	}
	return nil
}
