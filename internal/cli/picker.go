package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/packraft/packraft/pkg/host"
)

var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
)

// packageListModel is the bubbletea model for interactive package
// selection.
type packageListModel struct {
	title    string
	packages []host.Package
	cursor   int
	selected *host.Package
	height   int
	offset   int
}

func newPackageListModel(title string, packages []host.Package) packageListModel {
	return packageListModel{
		title:    title,
		packages: packages,
		height:   15,
	}
}

func (m packageListModel) Init() tea.Cmd {
	return nil
}

func (m packageListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
				if m.cursor < m.offset {
					m.offset = m.cursor
				}
			}
		case "down", "j":
			if m.cursor < len(m.packages)-1 {
				m.cursor++
				if m.cursor >= m.offset+m.height {
					m.offset = m.cursor - m.height + 1
				}
			}
		case "enter":
			m.selected = &m.packages[m.cursor]
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.height = msg.Height - 6
		if m.height < 5 {
			m.height = 5
		}
	}
	return m, nil
}

func (m packageListModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render(m.title))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ select  q quit"))
	b.WriteString("\n\n")

	end := m.offset + m.height
	if end > len(m.packages) {
		end = len(m.packages)
	}

	rows := [][]string{}
	for i := m.offset; i < end; i++ {
		p := m.packages[i]
		cursor := "  "
		if i == m.cursor {
			cursor = "▸ "
		}
		installed := ""
		if p.Installed {
			installed = iconSuccess
		}
		rows = append(rows, []string{cursor, p.ID, p.Version, p.SourceName, installed})
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "Package", "Version", "Source", "Installed").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			if m.offset+row == m.cursor {
				return listSelectedStyle
			}
			return lipgloss.NewStyle().Foreground(colorWhite)
		})

	b.WriteString(t.Render())
	b.WriteString("\n\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.cursor+1, len(m.packages))))

	return b.String()
}

// pickPackage runs the interactive picker and returns the selection, or
// nil when the user dismissed it.
func pickPackage(title string, packages []host.Package) (*host.Package, error) {
	final, err := tea.NewProgram(newPackageListModel(title, packages)).Run()
	if err != nil {
		return nil, err
	}
	m, ok := final.(packageListModel)
	if !ok {
		return nil, nil
	}
	return m.selected, nil
}
