package tui

import (
	"fmt"
	"strings"

	"github.com/custodia-labs/sercha-kb/internal/adapters/driving/tui/styles"
)

type helpSection struct {
	title string
	rows  [][2]string
}

var helpSections = []helpSection{
	{"Navigation", [][2]string{
		{"esc", "Back"},
		{"ctrl+c", "Quit"},
	}},
	{"Menu", [][2]string{
		{"j/k, ↑/↓", "Navigate options"},
		{"1-4", "Jump to option"},
		{"enter", "Select option"},
		{"q", "Quit"},
	}},
	{"Ask", [][2]string{
		{"(type)", "Enter a question"},
		{"enter", "Ask"},
		{"j/k, ↑/↓", "Browse cited sources"},
		{"n", "New question"},
	}},
	{"Sources", [][2]string{
		{"enter", "Browse documents"},
		{"i", "Ingest selected source"},
		{"r", "Reload"},
	}},
	{"Documents", [][2]string{
		{"enter", "Show chunks"},
		{"r", "Reload"},
		{"g/G", "Top/bottom of chunks"},
	}},
}

func renderHelp(s *styles.Styles) string {
	var b strings.Builder
	b.WriteString(s.Title.Render("Help"))
	b.WriteString("\n")
	for _, sec := range helpSections {
		fmt.Fprintf(&b, "\n%s:\n", sec.title)
		for _, row := range sec.rows {
			fmt.Fprintf(&b, "  %-12s%s\n", row[0], row[1])
		}
	}
	b.WriteString("\n")
	b.WriteString(s.Help.Render("[esc] back to menu"))
	return b.String()
}
