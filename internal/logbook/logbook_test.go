package logbook

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestTailReturnsRecentLinesAndTotal(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "logs", "release.log")
	book, err := New(path)
	if err != nil {
		t.Fatalf("new logbook: %v", err)
	}
	for i := 0; i < 5; i++ {
		book.Info("entry-%d", i)
	}
	lines, total := book.Tail(3)
	if total != 5 {
		t.Fatalf("total lines = %d, want 5", total)
	}
	if len(lines) != 3 {
		t.Fatalf("len(lines) = %d, want 3", len(lines))
	}
	for idx, want := range []string{"entry-2", "entry-3", "entry-4"} {
		if !strings.Contains(lines[idx], want) {
			t.Fatalf("line %d = %q, missing %s", idx, lines[idx], want)
		}
	}
}

func TestAppendFormatsLevelAndMirrors(t *testing.T) {
	var mirror bytes.Buffer
	fixed := time.Date(2026, 2, 4, 10, 0, 0, 0, time.UTC)
	book, err := New(filepath.Join(t.TempDir(), "release.log"),
		WithMirror(&mirror),
		WithClock(func() time.Time { return fixed }))
	if err != nil {
		t.Fatalf("new logbook: %v", err)
	}
	book.Warn("output %s exists  \n", "release")
	book.Error("boom")
	want := "2026-02-04T10:00:00Z WARN  output release exists\n2026-02-04T10:00:00Z ERROR boom\n"
	if mirror.String() != want {
		t.Fatalf("mirror = %q, want %q", mirror.String(), want)
	}
	lines, total := book.Tail(10)
	if total != 2 || len(lines) != 2 {
		t.Fatalf("tail = %v (%d)", lines, total)
	}
}

func TestNilLogbookIsNoop(t *testing.T) {
	var book *Logbook
	book.Info("ignored")
	if lines, total := book.Tail(5); lines != nil || total != 0 {
		t.Fatalf("expected empty tail, got %v %d", lines, total)
	}
	if book.Path() != "" {
		t.Fatalf("expected empty path")
	}
}
