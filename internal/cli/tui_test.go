package cli

import (
	"context"
	"io"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/matzehuels/cratetree/pkg/config"
	"github.com/matzehuels/cratetree/pkg/pipeline"
)

func buildDocument(t *testing.T, doc string) *pipeline.Document {
	t.Helper()
	r := pipeline.NewRunner(nil, nil, log.NewWithOptions(io.Discard, log.Options{}))
	d, err := r.Build(context.Background(), []byte(doc), config.Config{})
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	return d
}

func newTestModel(t *testing.T, load func() (*pipeline.Document, error)) TreeModel {
	t.Helper()
	doc := buildDocument(t, testCrate)
	c, err := pipeline.NewController(doc, pipeline.Options{})
	if err != nil {
		t.Fatalf("NewController() error: %v", err)
	}
	return NewTreeModel("ro-crate-metadata.json", doc, c, load)
}

func keyMsg(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "left":
		return tea.KeyMsg{Type: tea.KeyLeft}
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(m TreeModel, keys ...string) (TreeModel, tea.Cmd) {
	var cmd tea.Cmd
	var next tea.Model = m
	for _, k := range keys {
		next, cmd = next.(TreeModel).Update(keyMsg(k))
	}
	return next.(TreeModel), cmd
}

func rowKeys(m TreeModel) []string {
	keys := make([]string, len(m.rows))
	for i, n := range m.rows {
		keys[i] = n.Key
	}
	return keys
}

func TestTreeModelInitialRows(t *testing.T) {
	m := newTestModel(t, nil)

	if got := strings.Join(rowKeys(m), " "); got != "0 0.0 0.1 0.2 0.3" {
		t.Errorf("rows = %s, want root and its four fields", got)
	}
	if m.Cursor != 0 {
		t.Errorf("Cursor = %d, want 0", m.Cursor)
	}
}

func TestTreeModelNavigation(t *testing.T) {
	m := newTestModel(t, nil)

	m, _ = press(m, "down", "down", "down")
	if m.current().Key != "0.2" {
		t.Fatalf("cursor on %s, want 0.2", m.current().Key)
	}
	m, _ = press(m, "up")
	if m.current().Key != "0.1" {
		t.Errorf("cursor on %s, want 0.1", m.current().Key)
	}
	m, _ = press(m, "G")
	if m.current().Key != "0.3" {
		t.Errorf("end: cursor on %s, want 0.3", m.current().Key)
	}
	m, _ = press(m, "g")
	if m.Cursor != 0 {
		t.Errorf("home: Cursor = %d, want 0", m.Cursor)
	}
	m, _ = press(m, "up")
	if m.Cursor != 0 {
		t.Errorf("cursor moved above the first row: %d", m.Cursor)
	}
}

func TestTreeModelToggle(t *testing.T) {
	m := newTestModel(t, nil)

	m, _ = press(m, "down", "down", "down", "enter")
	if got := strings.Join(rowKeys(m), " "); got != "0 0.0 0.1 0.2 0.2.0 0.3" {
		t.Fatalf("rows after expand = %s", got)
	}
	if m.current().Key != "0.2" {
		t.Errorf("cursor moved to %s, want to stay on 0.2", m.current().Key)
	}
	if !strings.Contains(m.Status, "Expanded 0.2: 1 entering") {
		t.Errorf("Status = %q", m.Status)
	}

	m, _ = press(m, " ")
	if len(m.rows) != 5 {
		t.Errorf("rows after collapse = %d, want 5", len(m.rows))
	}
	if !strings.Contains(m.Status, "Collapsed 0.2") {
		t.Errorf("Status = %q", m.Status)
	}

	// Leaves do not toggle.
	m, _ = press(m, "up", "enter")
	if !strings.Contains(m.Status, "no children") {
		t.Errorf("leaf Status = %q", m.Status)
	}
}

func TestTreeModelRowHiddenCount(t *testing.T) {
	m := newTestModel(t, nil)
	author, _ := m.Controller.Node("0.2")

	if row := m.renderRow(author, false); !strings.Contains(row, "+1") {
		t.Errorf("collapsed row = %q, want hidden count +1", row)
	}
	m, _ = press(m, "down", "down", "down", "enter")
	if row := m.renderRow(author, false); strings.Contains(row, "+1") {
		t.Errorf("expanded row = %q, want no hidden count", row)
	}
	if row := m.renderRow(m.Controller.Root(), false); strings.Contains(row, "+") {
		t.Errorf("root row = %q, want no hidden count", row)
	}
}

func TestTreeModelLeftRight(t *testing.T) {
	m := newTestModel(t, nil)

	m, _ = press(m, "down", "down", "down", "right", "down")
	if m.current().Key != "0.2.0" {
		t.Fatalf("cursor on %s, want 0.2.0", m.current().Key)
	}
	m, _ = press(m, "left")
	if m.current().Key != "0.2" {
		t.Errorf("left on a collapsed node should move to its parent, cursor on %s", m.current().Key)
	}
	m, _ = press(m, "left")
	if m.Controller.Expanded("0.2") {
		t.Error("left on an expanded node should collapse it")
	}
}

func TestTreeModelExpandCollapseAll(t *testing.T) {
	m := newTestModel(t, nil)

	m, _ = press(m, "e")
	if len(m.rows) != 11 {
		t.Errorf("rows after expand all = %d, want 11", len(m.rows))
	}
	m, _ = press(m, "c")
	if len(m.rows) != 1 || m.Cursor != 0 {
		t.Errorf("after collapse all: %d rows, cursor %d; want root only", len(m.rows), m.Cursor)
	}
}

func TestTreeModelDetail(t *testing.T) {
	m := newTestModel(t, nil)

	m, _ = press(m, "down", "down", "i")
	if !m.Detail {
		t.Fatal("i should open the detail pane")
	}
	if view := m.View(); !strings.Contains(view, "0.1") || !strings.Contains(view, "Dataset") {
		t.Errorf("detail view missing node data:\n%s", view)
	}

	m, cmd := press(m, "q")
	if m.Detail {
		t.Error("q should close the detail pane")
	}
	if cmd != nil {
		t.Error("closing the detail pane should not quit")
	}

	_, cmd = press(m, "q")
	if cmd == nil {
		t.Fatal("q should quit")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q should return tea.Quit")
	}
}

func TestTreeModelWindowSize(t *testing.T) {
	m := newTestModel(t, nil)

	next, _ := m.Update(tea.WindowSizeMsg{Width: 40, Height: 12})
	m = next.(TreeModel)
	if m.Height != 12-chrome || m.Width != 40 {
		t.Errorf("size = %dx%d, want 40x%d", m.Width, m.Height, 12-chrome)
	}

	m, _ = press(m, "e")
	m, _ = press(m, "G")
	if m.Offset == 0 {
		t.Error("cursor at the end should scroll the window")
	}
	if !strings.Contains(m.View(), "[11/11]") {
		t.Error("view should show the cursor position")
	}
}

func TestTreeModelReload(t *testing.T) {
	changed := strings.Replace(testCrate, `"name": "Alice"`, `"name": "Alice", "email": "alice@example.org"`, 1)
	load := func() (*pipeline.Document, error) {
		return buildDocument(t, changed), nil
	}
	m := newTestModel(t, load)
	m, _ = press(m, "down", "down", "down", "enter", "down", "enter")
	before := m.Document.Hash

	next, cmd := m.Update(fileChangedMsg{})
	if cmd == nil {
		t.Fatal("file change should trigger a reload")
	}
	next, _ = next.Update(cmd())
	m = next.(TreeModel)

	if m.Document.Hash == before {
		t.Fatal("document was not replaced")
	}
	if !m.Controller.Expanded("0.2") || !m.Controller.Expanded("0.2.0") {
		t.Errorf("expanded set lost on reload: %v", m.Controller.State().Expanded)
	}
	if !strings.Contains(m.Status, "Reloaded") {
		t.Errorf("Status = %q", m.Status)
	}
	found := false
	for _, n := range m.rows {
		if n.Name == "email" {
			found = true
		}
	}
	if !found {
		t.Error("new field not visible after reload")
	}
}

func TestTreeModelNoLoader(t *testing.T) {
	m := newTestModel(t, nil)
	if _, cmd := m.Update(fileChangedMsg{}); cmd != nil {
		t.Error("a model without loader should ignore file changes")
	}
}
