package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/mattn/go-runewidth"

	"github.com/matzehuels/cratetree/pkg/collapse"
	"github.com/matzehuels/cratetree/pkg/pipeline"
	"github.com/matzehuels/cratetree/pkg/surface"
	"github.com/matzehuels/cratetree/pkg/tree"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
	listCyclicStyle   = lipgloss.NewStyle().Foreground(colorDim).Italic(true)
	listValueStyle    = lipgloss.NewStyle().Foreground(colorGray)
	detailBorderStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(colorDim).Padding(0, 1)
)

// Node markers
const (
	markerCollapsed = "●"
	markerExpanded  = "○"
	markerLeaf      = "·"
	markerTruncated = "…"
	cursorMarker    = "▸ "
)

// chrome is the number of lines taken by the title, help and status lines.
const chrome = 5

// =============================================================================
// Messages
// =============================================================================

// fileChangedMsg is sent by the file watcher when the document changed.
type fileChangedMsg struct{}

// reloadedMsg carries the result of rebuilding the document.
type reloadedMsg struct {
	doc *pipeline.Document
	err error
}

// =============================================================================
// TreeModel - Interactive collapsible tree
// =============================================================================

// TreeModel is the bubbletea model of the terminal tree viewer. Each row is
// a visible node; toggling a row drives the layout controller exactly as a
// click would.
type TreeModel struct {
	Source     string
	Document   *pipeline.Document
	Controller *collapse.Controller

	Cursor int
	Offset int
	Height int
	Width  int

	// Detail shows the node detail pane instead of the tree.
	Detail bool

	// Status is the one-line message under the tree.
	Status string

	rows   []*tree.Node
	theme  surface.Theme
	detail viewport.Model
	load   func() (*pipeline.Document, error)
}

// NewTreeModel creates a tree model over c. load rebuilds the document on
// reload; it may be nil when reloading is not supported.
func NewTreeModel(source string, doc *pipeline.Document, c *collapse.Controller, load func() (*pipeline.Document, error)) TreeModel {
	m := TreeModel{
		Source:     source,
		Document:   doc,
		Controller: c,
		Height:     20,
		Width:      80,
		theme:      surface.DefaultTheme(),
		detail:     viewport.New(76, 18),
		load:       load,
	}
	m.refresh("")
	return m
}

func (m TreeModel) Init() tea.Cmd {
	return nil
}

func (m TreeModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.Detail {
			return m.updateDetail(msg)
		}
		return m.updateTree(msg)
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = max(msg.Height-chrome, 5)
		m.detail.Width = max(msg.Width-4, 20)
		m.detail.Height = max(msg.Height-chrome-2, 3)
		m.scroll()
	case fileChangedMsg:
		return m, m.reload()
	case reloadedMsg:
		m.applyReload(msg)
	}
	return m, nil
}

// updateTree handles keys while the tree is shown.
func (m TreeModel) updateTree(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c", "esc":
		return m, tea.Quit
	case "up", "k":
		m.move(-1)
	case "down", "j":
		m.move(1)
	case "pgup":
		m.move(-m.Height / 2)
	case "pgdown":
		m.move(m.Height / 2)
	case "home", "g":
		m.move(-len(m.rows))
	case "end", "G":
		m.move(len(m.rows))
	case "enter", " ":
		m.toggle(m.current())
	case "right", "l":
		if n := m.current(); n.HasChildren() && !m.Controller.Expanded(n.Key) {
			m.toggle(n)
		}
	case "left", "h":
		n := m.current()
		if m.Controller.Expanded(n.Key) {
			m.toggle(n)
		} else if p := m.Controller.Parent(n.Key); p != nil {
			m.refresh(p.Key)
		}
	case "e":
		f := m.Controller.ExpandAll()
		m.refresh(m.current().Key)
		m.Status = fmt.Sprintf("Expanded all: %d nodes visible", len(f.Visible()))
	case "c":
		m.Controller.CollapseAll()
		m.refresh(tree.RootKey)
		m.Status = "Collapsed all"
	case "?", "i":
		m.Detail = true
		m.detail.SetContent(m.describe(m.current()))
		m.detail.GotoTop()
	case "r":
		return m, m.reload()
	}
	return m, nil
}

// updateDetail handles keys while the detail pane is shown.
func (m TreeModel) updateDetail(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "q", "esc", "?", "i":
		m.Detail = false
		return m, nil
	}
	var cmd tea.Cmd
	m.detail, cmd = m.detail.Update(msg)
	return m, cmd
}

// current returns the node under the cursor.
func (m TreeModel) current() *tree.Node {
	return m.rows[m.Cursor]
}

// move shifts the cursor by delta rows, clamped to the list.
func (m *TreeModel) move(delta int) {
	m.Cursor = max(0, min(m.Cursor+delta, len(m.rows)-1))
	m.scroll()
}

// scroll keeps the cursor inside the visible window.
func (m *TreeModel) scroll() {
	if m.Cursor < m.Offset {
		m.Offset = m.Cursor
	}
	if m.Cursor >= m.Offset+m.Height {
		m.Offset = m.Cursor - m.Height + 1
	}
}

// toggle flips n and reports how many frames the interaction produced.
func (m *TreeModel) toggle(n *tree.Node) {
	frames, err := m.Controller.Toggle(n.Key)
	if err != nil {
		m.Status = err.Error()
		return
	}
	m.refresh(n.Key)
	switch {
	case len(frames) == 0:
		m.Status = fmt.Sprintf("%s has no children", n.Label())
	case m.Controller.Expanded(n.Key):
		last := frames[len(frames)-1]
		m.Status = fmt.Sprintf("Expanded %s: %d entering, %d frames", n.Key, countEnter(frames), len(frames))
		if last.Resized {
			m.Status += fmt.Sprintf(", canvas %.0fpx", last.Width)
		}
	default:
		m.Status = fmt.Sprintf("Collapsed %s: %d exiting", n.Key, len(frames[0].Nodes.Exit))
	}
}

// refresh rebuilds the row list and puts the cursor on key when it is
// visible.
func (m *TreeModel) refresh(key string) {
	m.rows = m.Controller.VisibleNodes()
	m.Cursor = min(m.Cursor, len(m.rows)-1)
	for i, n := range m.rows {
		if n.Key == key {
			m.Cursor = i
			break
		}
	}
	m.scroll()
}

// reload returns a command rebuilding the document, or nil when the model
// has no loader.
func (m TreeModel) reload() tea.Cmd {
	if m.load == nil {
		return nil
	}
	load := m.load
	return func() tea.Msg {
		doc, err := load()
		return reloadedMsg{doc: doc, err: err}
	}
}

// applyReload swaps in a rebuilt document, carrying the expanded set over.
// Keys that no longer exist are dropped by the controller.
func (m *TreeModel) applyReload(msg reloadedMsg) {
	if msg.err != nil {
		m.Status = "Reload failed: " + msg.err.Error()
		return
	}
	if msg.doc.Hash == m.Document.Hash {
		return
	}
	state := m.Controller.State()
	c, err := pipeline.NewController(msg.doc, pipeline.Options{Config: m.Controller.Config(), State: &state})
	if err != nil {
		m.Status = "Reload failed: " + err.Error()
		return
	}
	key := m.current().Key
	m.Document, m.Controller = msg.doc, c
	m.refresh(key)
	m.Status = "Reloaded " + m.Source
}

func countEnter(frames []collapse.Frame) int {
	n := 0
	for _, f := range frames {
		n += len(f.Nodes.Enter)
	}
	return n
}

// =============================================================================
// Views
// =============================================================================

func (m TreeModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render(m.Document.RootID()))
	b.WriteString(" ")
	b.WriteString(listDimStyle.Render(m.Source))
	b.WriteString("\n")

	if m.Detail {
		b.WriteString(listDimStyle.Render("↑/↓ scroll  ? back  ctrl+c quit"))
		b.WriteString("\n\n")
		b.WriteString(detailBorderStyle.Render(m.detail.View()))
		return b.String()
	}

	b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ toggle  e expand all  c collapse all  ? details  r reload  q quit"))
	b.WriteString("\n\n")

	end := min(m.Offset+m.Height, len(m.rows))
	for i := m.Offset; i < end; i++ {
		b.WriteString(m.renderRow(m.rows[i], i == m.Cursor))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	pos := listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.Cursor+1, len(m.rows)))
	if m.Status != "" {
		pos += "  " + listValueStyle.Render(m.Status)
	}
	b.WriteString(pos)

	return b.String()
}

// renderRow renders one visible node: indentation, a marker coloured like
// the node's circle outline, the label truncated to the window and, for a
// collapsed node, how many children it hides.
func (m TreeModel) renderRow(n *tree.Node, selected bool) string {
	cursor := "  "
	if selected {
		cursor = cursorMarker
	}
	indent := strings.Repeat("  ", n.Depth)

	hidden := len(m.Controller.HiddenChildren(n))
	marker := markerLeaf
	switch {
	case hidden > 0:
		marker = markerCollapsed
	case n.HasChildren():
		marker = markerExpanded
	}
	marker = lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.Stroke(n.IsEntity()))).Render(marker)

	room := m.Width - runewidth.StringWidth(cursor+indent) - 3
	name := runewidth.Truncate(n.Name, max(room, 8), markerTruncated)
	value := ""
	if n.Value != "" {
		value = runewidth.Truncate(": "+n.Value, max(room-runewidth.StringWidth(name), 0), markerTruncated)
	}
	if n.Truncated() {
		value += listDimStyle.Render(" " + markerTruncated)
	}
	if hidden > 0 {
		value += listDimStyle.Render(fmt.Sprintf(" +%d", hidden))
	}

	nameStyle := listNormalStyle
	switch {
	case selected:
		nameStyle = listSelectedStyle
	case n.Kind == tree.KindCyclicReference:
		nameStyle = listCyclicStyle
	case n.IsEntity():
		nameStyle = StyleHighlight
	}
	return cursor + indent + marker + " " + nameStyle.Render(name) + listValueStyle.Render(value)
}

// describe renders the detail pane for n.
func (m TreeModel) describe(n *tree.Node) string {
	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)

	children := "none"
	if n.HasChildren() {
		children = fmt.Sprintf("%d (%d leaves)", len(n.Children), m.Controller.LeafCount(n))
	}
	rows := [][]string{
		{"Key", n.Key},
		{"Kind", n.Kind.String()},
		{"Name", n.Name},
		{"Value", n.Value},
		{"Children", children},
		{"Radius", fmt.Sprintf("%.1f", m.Controller.Radius(n))},
	}
	if pos, ok := m.Controller.Position(n.Key); ok {
		rows = append(rows, []string{"Position", fmt.Sprintf("%.0f, %.0f", pos.X, pos.Y)})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if col == 0 {
				return headerStyle
			}
			return lipgloss.NewStyle().Foreground(colorWhite)
		})

	var b strings.Builder
	b.WriteString(t.Render())
	if n.Truncated() {
		b.WriteString("\n\n")
		b.WriteString(headerStyle.Render("Full value"))
		b.WriteString("\n")
		b.WriteString(lipgloss.NewStyle().Width(max(m.detail.Width-2, 20)).Render(n.FullValue))
	}
	return b.String()
}
