package formatters

import (
	"fmt"
	"math"
	"strings"

	"github.com/mattn/go-runewidth"
)

// maxCellWidth caps a text table column; longer cells are truncated
const maxCellWidth = 48

// textTable renders rows under headers with columns aligned by display width
func textTable(headers []string, rows [][]string) string {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = runewidth.StringWidth(h)
	}
	cells := make([][]string, len(rows))
	for r, row := range rows {
		cells[r] = make([]string, len(headers))
		for i := range headers {
			if i >= len(row) {
				continue
			}
			cell := runewidth.Truncate(strings.ReplaceAll(row[i], "\n", " "), maxCellWidth, "…")
			cells[r][i] = cell
			widths[i] = max(widths[i], runewidth.StringWidth(cell))
		}
	}

	var b strings.Builder
	writeRow := func(row []string) {
		for i, cell := range row {
			if i == len(row)-1 {
				b.WriteString(cell)
				break
			}
			b.WriteString(runewidth.FillRight(cell, widths[i]))
			b.WriteString("  ")
		}
		b.WriteString("\n")
	}

	writeRow(headers)
	rule := make([]string, len(headers))
	for i, w := range widths {
		rule[i] = strings.Repeat("-", w)
	}
	writeRow(rule)
	for _, row := range cells {
		writeRow(row)
	}
	return b.String()
}

// markdownTable renders a GitHub-flavoured markdown table
func markdownTable(headers []string, rows [][]string) string {
	escape := func(s string) string {
		return strings.ReplaceAll(strings.ReplaceAll(s, "|", `\|`), "\n", " ")
	}
	var b strings.Builder
	b.WriteString("| " + strings.Join(headers, " | ") + " |\n")
	b.WriteString("|" + strings.Repeat(" --- |", len(headers)) + "\n")
	for _, row := range rows {
		escaped := make([]string, len(headers))
		for i := range headers {
			if i < len(row) {
				escaped[i] = escape(row[i])
			}
		}
		b.WriteString("| " + strings.Join(escaped, " | ") + " |\n")
	}
	return b.String()
}

// formatScore prints whole scores without decimals
func formatScore(score float64) string {
	if score == math.Trunc(score) {
		return fmt.Sprintf("%d", int64(score))
	}
	return fmt.Sprintf("%.1f", score)
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}
