package report

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"
)

// markdownTable renders a GitHub-flavored markdown table with padded columns
type markdownTable struct {
	writer  io.Writer
	headers []string
	rows    [][]string
}

func newTable(w io.Writer, headers ...string) *markdownTable {
	return &markdownTable{
		writer:  w,
		headers: headers,
		rows:    make([][]string, 0),
	}
}

// Row adds a single row
func (t *markdownTable) Row(cells ...string) {
	t.rows = append(t.rows, cells)
}

// Render outputs the formatted table
func (t *markdownTable) Render() error {
	if len(t.headers) == 0 {
		return nil
	}

	widths := t.calculateWidths()

	if _, err := fmt.Fprintln(t.writer, t.formatRow(t.headers, widths)); err != nil {
		return err
	}
	if _, err := fmt.Fprintln(t.writer, t.buildSeparator(widths)); err != nil {
		return err
	}
	for _, row := range t.rows {
		if _, err := fmt.Fprintln(t.writer, t.formatRow(row, widths)); err != nil {
			return err
		}
	}
	return nil
}

// calculateWidths determines the width needed for each column
func (t *markdownTable) calculateWidths() []int {
	widths := make([]int, len(t.headers))

	for i, h := range t.headers {
		widths[i] = utf8.RuneCountInString(h)
	}
	for _, row := range t.rows {
		for i, cell := range row {
			if i < len(widths) {
				if n := utf8.RuneCountInString(escapeCell(cell)); n > widths[i] {
					widths[i] = n
				}
			}
		}
	}

	// markdown needs at least three dashes per column
	for i := range widths {
		if widths[i] < 3 {
			widths[i] = 3
		}
	}

	return widths
}

func (t *markdownTable) buildSeparator(widths []int) string {
	parts := make([]string, len(widths))
	for i, w := range widths {
		parts[i] = " " + strings.Repeat("-", w) + " "
	}
	return "|" + strings.Join(parts, "|") + "|"
}

func (t *markdownTable) formatRow(row []string, widths []int) string {
	parts := make([]string, len(widths))
	for i, w := range widths {
		cell := ""
		if i < len(row) {
			cell = escapeCell(row[i])
		}
		parts[i] = " " + cell + strings.Repeat(" ", w-utf8.RuneCountInString(cell)) + " "
	}
	return "|" + strings.Join(parts, "|") + "|"
}

// escapeCell keeps a value on one line and away from column separators
func escapeCell(cell string) string {
	cell = strings.ReplaceAll(cell, "|", `\|`)
	return strings.ReplaceAll(cell, "\n", " ")
}
