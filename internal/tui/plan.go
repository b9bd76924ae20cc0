// internal/tui/plan.go
//
// Interactive preview of a release. It lists the headers (in include order)
// and the implementation files that are about to be bundled and waits for
// the user to confirm before anything on disk is touched.

package tui

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/kingrea/objbundle/internal/release"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FF6B6B"))
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#5B8DEF")).Bold(true)
	detailStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#A0AEC0"))
	hintStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
	boxStyle    = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#444444")).
			Padding(0, 1)
)

// fileItem implements list.Item for one planned input file
type fileItem struct {
	kind  string
	index int
	rel   string
}

func (i fileItem) Title() string       { return fmt.Sprintf("%02d  %s", i.index, i.rel) }
func (i fileItem) Description() string { return i.kind }
func (i fileItem) FilterValue() string { return i.rel }

// PlanModel is the bubbletea model behind `objbundle -plan`.
type PlanModel struct {
	plan      release.Plan
	version   string
	root      string
	files     list.Model
	width     int
	height    int
	confirmed bool
	done      bool
}

// NewPlanModel builds the preview for plan. root is used to shorten paths.
func NewPlanModel(plan release.Plan, version, root string) *PlanModel {
	items := make([]list.Item, 0, len(plan.Headers)+len(plan.Sources))
	for i, path := range plan.Headers {
		items = append(items, fileItem{kind: "header", index: i + 1, rel: relTo(root, path)})
	}
	for i, path := range plan.Sources {
		items = append(items, fileItem{kind: "implementation", index: i + 1, rel: relTo(root, path)})
	}
	files := list.New(items, list.NewDefaultDelegate(), 0, 0)
	files.Title = "Bundle inputs"
	files.SetShowStatusBar(false)
	files.SetFilteringEnabled(false)
	return &PlanModel{
		plan:    plan,
		version: version,
		root:    root,
		files:   files,
	}
}

// Confirmed reports whether the user accepted the plan.
func (m *PlanModel) Confirmed() bool {
	return m.confirmed
}

// Init implements tea.Model.
func (m *PlanModel) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *PlanModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.files.SetSize(max(0, msg.Width-4), max(0, msg.Height-10))
		return m, nil
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc", "n":
			m.done = true
			return m, tea.Quit
		case "enter", "y":
			m.confirmed = true
			m.done = true
			return m, tea.Quit
		}
	}
	var cmd tea.Cmd
	m.files, cmd = m.files.Update(msg)
	return m, cmd
}

// View implements tea.Model.
func (m *PlanModel) View() string {
	if m.done {
		return ""
	}
	width := m.width
	if width <= 0 {
		width = 80
	}
	source := "discovered"
	if !m.plan.Discovered {
		source = "ordered list"
	}
	vendor := "none"
	if m.plan.VendorDir != "" {
		vendor = relTo(m.root, m.plan.VendorDir)
	}
	summary := lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render(fmt.Sprintf("⬡ RELEASE %s", m.version)),
		row("output", relTo(m.root, m.plan.BundlePath)),
		row("headers", fmt.Sprintf("%d (%s)", len(m.plan.Headers), source)),
		row("sources", fmt.Sprintf("%d", len(m.plan.Sources))),
		row("vendor", vendor),
	)
	header := boxStyle.Width(max(20, width-4)).Render(summary)
	hint := hintStyle.Render("enter/y: build release · q/esc: cancel · ↑/↓: scroll")
	return lipgloss.JoinVertical(lipgloss.Left, header, m.files.View(), hint)
}

// RunPlan shows the preview and returns whether the user confirmed.
func RunPlan(plan release.Plan, version, root string) (bool, error) {
	model := NewPlanModel(plan, version, root)
	if _, err := tea.NewProgram(model, tea.WithAltScreen()).Run(); err != nil {
		return false, fmt.Errorf("tui: %w", err)
	}
	return model.Confirmed(), nil
}

// RenderSummary formats a finished release for the terminal.
func RenderSummary(result release.Result, root string) string {
	lines := []string{
		titleStyle.Render(fmt.Sprintf("⬡ RELEASE %s", result.Version)),
		row("bundle", fmt.Sprintf("%s (%d bytes)", relTo(root, result.BundlePath), result.Bytes)),
		row("headers", fmt.Sprintf("%d, %d lines stripped", result.Headers, result.DroppedLines)),
		row("sources", fmt.Sprintf("%d", result.Sources)),
	}
	if result.VendorCopied {
		lines = append(lines, row("vendor", "copied"))
	}
	if result.ReadmePath != "" {
		lines = append(lines, row("readme", relTo(root, result.ReadmePath)))
	}
	return boxStyle.Render(strings.Join(lines, "\n"))
}

func row(label, value string) string {
	return labelStyle.Render(fmt.Sprintf("%-8s", label)) + " " + detailStyle.Render(value)
}

func relTo(root, path string) string {
	if root == "" {
		return path
	}
	rel, err := filepath.Rel(root, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return path
	}
	return filepath.ToSlash(rel)
}
