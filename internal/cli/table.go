package cli

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/packraft/packraft/pkg/host"
)

// newTable builds a bordered table in the shared palette.
func newTable(headers ...string) *table.Table {
	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return lipgloss.NewStyle().Foreground(colorWhite).Padding(0, 1)
		})
}

// renderPackages formats found packages as a table.
func renderPackages(pkgs []host.Package) string {
	t := newTable("Package", "Version", "Source", "Summary")
	for _, p := range pkgs {
		summary := p.Summary
		if len(summary) > 60 {
			summary = summary[:57] + "..."
		}
		t.Row(p.ID, p.Version, p.SourceName, summary)
	}
	return t.Render()
}

// renderInstalled formats installed packages as a table.
func renderInstalled(pkgs []host.Package) string {
	t := newTable("Package", "Version", "Directory")
	for _, p := range pkgs {
		t.Row(p.ID, p.Version, p.SourceLocation)
	}
	return t.Render()
}

// renderSources formats registry sources as a table.
func renderSources(sources []host.Source) string {
	t := newTable("Name", "Location", "Trusted", "Validated")
	for _, s := range sources {
		t.Row(s.Name, s.Location, yesNo(s.Trusted), yesNo(s.Validated))
	}
	return t.Render()
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
