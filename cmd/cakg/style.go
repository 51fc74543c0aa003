package main

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/WessleyAI/cakg/engine/graph"
)

var (
	colorAccent = lipgloss.Color("#20B9B4")
	colorBorder = lipgloss.Color("#16858E")
	colorMuted  = lipgloss.Color("#2C4A54")

	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(colorAccent)
	labelStyle  = lipgloss.NewStyle().Foreground(colorMuted).Width(10)
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(colorAccent).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1).Align(lipgloss.Right)
)

// renderStats prints the graph totals followed by a per-year table.
func renderStats(st graph.Stats) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("graph"))
	b.WriteByte('\n')
	for _, c := range []struct {
		label string
		n     int
	}{
		{"years", st.Years},
		{"catalogs", st.Catalogs},
		{"indexes", st.Indexes},
		{"areas", st.Areas},
		{"records", st.Records},
	} {
		b.WriteString(labelStyle.Render(c.label))
		b.WriteString(strconv.Itoa(c.n))
		b.WriteByte('\n')
	}
	if len(st.PerYear) == 0 {
		return b.String()
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorBorder)).
		Headers("YEAR", "INDEXES", "CATALOGS").
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	for _, y := range st.PerYear {
		t.Row(strconv.Itoa(y.Year), strconv.Itoa(y.Indexes), strconv.Itoa(y.Catalogs))
	}
	b.WriteByte('\n')
	b.WriteString(t.String())
	b.WriteByte('\n')
	return b.String()
}
