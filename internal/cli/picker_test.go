package cli

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/packraft/packraft/pkg/host"
)

func pressKey(m tea.Model, key string) tea.Model {
	var msg tea.KeyMsg
	switch key {
	case "up", "down", "enter", "esc":
		types := map[string]tea.KeyType{
			"up":    tea.KeyUp,
			"down":  tea.KeyDown,
			"enter": tea.KeyEnter,
			"esc":   tea.KeyEsc,
		}
		msg = tea.KeyMsg{Type: types[key]}
	default:
		msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)}
	}
	next, _ := m.Update(msg)
	return next
}

func testPackages() []host.Package {
	return []host.Package{
		{ID: "alpha", Version: "1.0", SourceName: "local"},
		{ID: "beta", Version: "2.0", SourceName: "local"},
		{ID: "gamma", Version: "0.3", SourceName: "remote"},
	}
}

func TestPickerSelectsUnderCursor(t *testing.T) {
	m := tea.Model(newPackageListModel("pick", testPackages()))
	m = pressKey(m, "down")
	m = pressKey(m, "down")
	m = pressKey(m, "enter")

	got := m.(packageListModel)
	if got.selected == nil || got.selected.ID != "gamma" {
		t.Fatalf("selected = %v, want gamma", got.selected)
	}
}

func TestPickerDismiss(t *testing.T) {
	m := tea.Model(newPackageListModel("pick", testPackages()))
	m = pressKey(m, "esc")
	if got := m.(packageListModel); got.selected != nil {
		t.Fatalf("selected = %v, want nil after dismiss", got.selected)
	}
}

func TestPickerCursorStaysInBounds(t *testing.T) {
	m := tea.Model(newPackageListModel("pick", testPackages()))
	m = pressKey(m, "up")
	if got := m.(packageListModel); got.cursor != 0 {
		t.Errorf("cursor = %d after up at top, want 0", got.cursor)
	}
	for i := 0; i < 10; i++ {
		m = pressKey(m, "down")
	}
	if got := m.(packageListModel); got.cursor != 2 {
		t.Errorf("cursor = %d after overscroll, want 2", got.cursor)
	}
}

func TestPickerViewListsPackages(t *testing.T) {
	m := newPackageListModel("Select a package", testPackages())
	view := m.View()
	for _, want := range []string{"Select a package", "alpha", "beta", "gamma", "[1/3]"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}
