package bundle

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Writer produces the amalgamated header: a version banner, the filtered
// headers in order, then the implementation files verbatim inside a
// "#if defined(<Selector>)" block.
type Writer struct {
	Project  string
	Version  string
	Selector string
	Filter   Filter
}

// Stats summarizes one bundle write.
type Stats struct {
	Headers      int
	Sources      int
	DroppedLines int
	Bytes        int64
}

// Banner is the comment line that opens every bundle.
func (w Writer) Banner() string {
	project := strings.TrimSpace(w.Project)
	if project == "" {
		return fmt.Sprintf("// Release %s\n", w.Version)
	}
	return fmt.Sprintf("// %s Release %s\n", project, w.Version)
}

// Write streams the bundle to out. Any unreadable input aborts the write.
func (w Writer) Write(out io.Writer, headers, sources []string) (Stats, error) {
	var stats Stats
	if strings.TrimSpace(w.Selector) == "" {
		return stats, fmt.Errorf("bundle: implementation selector is required")
	}
	counter := &countingWriter{w: out}
	buf := bufio.NewWriter(counter)

	if _, err := buf.WriteString(w.Banner()); err != nil {
		return stats, fmt.Errorf("bundle: write banner: %w", err)
	}
	for _, path := range headers {
		data, err := os.ReadFile(path)
		if err != nil {
			return stats, fmt.Errorf("bundle: read header: %w", err)
		}
		lines := SplitLines(string(data))
		kept := w.Filter.Apply(lines)
		stats.DroppedLines += len(lines) - len(kept)
		for _, line := range kept {
			if _, err := buf.WriteString(line); err != nil {
				return stats, fmt.Errorf("bundle: write %s: %w", filepath.Base(path), err)
			}
		}
		if err := buf.WriteByte('\n'); err != nil {
			return stats, fmt.Errorf("bundle: write separator: %w", err)
		}
		stats.Headers++
	}

	if _, err := fmt.Fprintf(buf, "#if defined(%s)\n", w.Selector); err != nil {
		return stats, fmt.Errorf("bundle: write selector: %w", err)
	}
	for _, path := range sources {
		if err := copySource(buf, path); err != nil {
			return stats, err
		}
		if err := buf.WriteByte('\n'); err != nil {
			return stats, fmt.Errorf("bundle: write separator: %w", err)
		}
		stats.Sources++
	}
	if _, err := buf.WriteString("\n#endif\n"); err != nil {
		return stats, fmt.Errorf("bundle: write footer: %w", err)
	}
	if err := buf.Flush(); err != nil {
		return stats, fmt.Errorf("bundle: flush: %w", err)
	}
	stats.Bytes = counter.n
	return stats, nil
}

// WriteFile writes the bundle to path through a sibling temp file that is
// renamed into place once every input has been read, so a failed run never
// leaves a truncated bundle under the final name.
func (w Writer) WriteFile(path string, headers, sources []string) (Stats, error) {
	tmp := path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0o644)
	if err != nil {
		return Stats{}, fmt.Errorf("bundle: create %s: %w", filepath.Base(tmp), err)
	}
	stats, err := w.Write(f, headers, sources)
	if closeErr := f.Close(); err == nil && closeErr != nil {
		err = fmt.Errorf("bundle: close %s: %w", filepath.Base(tmp), closeErr)
	}
	if err != nil {
		_ = os.Remove(tmp)
		return stats, err
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return stats, fmt.Errorf("bundle: finalize %s: %w", filepath.Base(path), err)
	}
	return stats, nil
}

func copySource(dst io.Writer, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("bundle: read source: %w", err)
	}
	defer f.Close()
	if _, err := io.Copy(dst, f); err != nil {
		return fmt.Errorf("bundle: copy %s: %w", filepath.Base(path), err)
	}
	return nil
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
