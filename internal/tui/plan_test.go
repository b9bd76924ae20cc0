package tui

import (
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/kingrea/objbundle/internal/release"
)

func testPlan(root string) release.Plan {
	return release.Plan{
		Headers:    []string{filepath.Join(root, "include", "PtError.hpp"), filepath.Join(root, "include", "Mesh.hpp")},
		Sources:    []string{filepath.Join(root, "src", "Mesh.cpp")},
		OutputDir:  filepath.Join(root, "release"),
		BundlePath: filepath.Join(root, "release", "obj_parser.hpp"),
		VendorDir:  filepath.Join(root, "include", "ext"),
	}
}

func keyMsg(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestPlanModelListsFilesInOrder(t *testing.T) {
	root := t.TempDir()
	m := NewPlanModel(testPlan(root), "v_1_0_0", root)
	items := m.files.Items()
	if len(items) != 3 {
		t.Fatalf("expected 3 items, got %d", len(items))
	}
	first := items[0].(fileItem)
	if first.rel != "include/PtError.hpp" || first.kind != "header" || first.index != 1 {
		t.Fatalf("unexpected first item: %+v", first)
	}
	last := items[2].(fileItem)
	if last.kind != "implementation" {
		t.Fatalf("expected implementation last, got %+v", last)
	}
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	view := m.View()
	for _, want := range []string{"v_1_0_0", "release/obj_parser.hpp", "ordered list", "include/ext"} {
		if !strings.Contains(view, want) {
			t.Fatalf("view missing %q:\n%s", want, view)
		}
	}
}

func TestPlanModelConfirmAndCancel(t *testing.T) {
	root := t.TempDir()
	for key, want := range map[string]bool{"enter": true, "y": true, "q": false, "esc": false, "n": false} {
		m := NewPlanModel(testPlan(root), "1", root)
		_, cmd := m.Update(keyMsg(key))
		if cmd == nil {
			t.Fatalf("%s: expected quit command", key)
		}
		if m.Confirmed() != want {
			t.Fatalf("%s: confirmed = %v, want %v", key, m.Confirmed(), want)
		}
		if m.View() != "" {
			t.Fatalf("%s: expected empty view after exit", key)
		}
	}
}

func TestRenderSummary(t *testing.T) {
	root := t.TempDir()
	out := RenderSummary(release.Result{
		Version:      "2.0.0",
		BundlePath:   filepath.Join(root, "release", "obj_parser.hpp"),
		ReadmePath:   filepath.Join(root, "release", "README.txt"),
		Headers:      6,
		Sources:      6,
		DroppedLines: 14,
		Bytes:        1024,
		VendorCopied: true,
	}, root)
	for _, want := range []string{"2.0.0", "release/obj_parser.hpp", "1024 bytes", "14 lines stripped", "copied", "release/README.txt"} {
		if !strings.Contains(out, want) {
			t.Fatalf("summary missing %q:\n%s", want, out)
		}
	}
}
