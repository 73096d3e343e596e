package ui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"strada/rt"
)

var (
	memHeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("7"))
	memLiveStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	memCleanStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
)

// RenderMemStats formats allocation counters as a table, one row per value
// kind that was ever allocated. With styled false the output is plain text.
func RenderMemStats(s rt.MemStats, styled bool) string {
	render := func(st lipgloss.Style, text string) string {
		if !styled {
			return text
		}
		return st.Render(text)
	}

	header := []string{"kind", "allocs", "frees", "live", "peak"}
	rows := [][]string{}
	for _, k := range s.Kinds {
		if k.Allocs == 0 && k.Current == 0 {
			continue
		}
		rows = append(rows, []string{
			k.Kind.String(),
			strconv.FormatUint(k.Allocs, 10),
			strconv.FormatUint(k.Frees, 10),
			strconv.FormatInt(k.Current, 10),
			strconv.FormatInt(k.Peak, 10),
		})
	}

	widths := make([]int, len(header))
	for i, h := range header {
		widths[i] = runewidth.StringWidth(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			widths[i] = max(widths[i], runewidth.StringWidth(cell))
		}
	}

	var b strings.Builder
	b.WriteString(render(memHeaderStyle, formatRow(header, widths)))
	b.WriteString("\n")
	for _, row := range rows {
		line := formatRow(row, widths)
		if row[3] != "0" {
			line = render(memLiveStyle, line)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "arrays: %d allocated, %d freed\n", s.ArrayAllocs, s.ArrayFrees)
	fmt.Fprintf(&b, "hashes: %d allocated, %d freed\n", s.HashAllocs, s.HashFrees)
	fmt.Fprintf(&b, "refcount ops: %d incref, %d decref\n", s.RCIncr, s.RCDecr)
	live := fmt.Sprintf("live values: %d", s.Live())
	if s.Live() == 0 {
		live = render(memCleanStyle, live)
	} else {
		live = render(memLiveStyle, live)
	}
	b.WriteString(live)
	b.WriteString("\n")
	return b.String()
}

// formatRow left-aligns the first column and right-aligns the counters.
func formatRow(cells []string, widths []int) string {
	parts := make([]string, len(cells))
	for i, cell := range cells {
		pad := strings.Repeat(" ", widths[i]-runewidth.StringWidth(cell))
		if i == 0 {
			parts[i] = cell + pad
		} else {
			parts[i] = pad + cell
		}
	}
	return strings.Join(parts, "  ")
}
