package release

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ReadmeName is the file written next to the bundle when readme is enabled.
const ReadmeName = "README.txt"

// RenderReadme returns the README banner for a release.
func RenderReadme(project, version, homepage string) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("%s Release %s", strings.TrimSpace(project), version))
	if homepage = strings.TrimSpace(homepage); homepage != "" {
		b.WriteString(fmt.Sprintf("\nFor more info and documentation, visit: %s", homepage))
	}
	return b.String()
}

// WriteReadme replaces dir/README.txt with the rendered banner.
func WriteReadme(dir, project, version, homepage string) (string, error) {
	path := filepath.Join(dir, ReadmeName)
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return "", fmt.Errorf("release: remove old readme: %w", err)
	}
	if err := os.WriteFile(path, []byte(RenderReadme(project, version, homepage)), 0o644); err != nil {
		return "", fmt.Errorf("release: write readme: %w", err)
	}
	return path, nil
}
