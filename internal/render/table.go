package render

import (
	"errors"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/nerdneilsfield/go-docmark/pkg/ast"
)

// ErrEmptyTable reports a table block with no rows, which cannot be
// expressed as a pipe table.
var ErrEmptyTable = errors.New("table has no rows")

// table renders a pipe table. The first row is the header; every row is
// padded with empty cells to the widest row so the column count is uniform.
// Column widths use display width, so CJK text lines up in a terminal.
func (r *MarkdownRenderer) table(st *renderState, t *ast.Table) (string, error) {
	if len(t.Rows) == 0 {
		return "", ErrEmptyTable
	}

	rows := make([][]string, 0, len(t.Rows))
	for i := range t.Rows {
		var cells []string
		for j := range t.Rows[i].Cells {
			cell := &t.Rows[i].Cells[j]
			text, err := r.cellText(st, cell)
			if err != nil {
				return "", err
			}
			span := cell.ColSpan
			if span < 1 {
				span = 1
			}
			// A spanning cell repeats its text so the grid stays rectangular.
			for s := 0; s < span; s++ {
				cells = append(cells, text)
			}
		}
		rows = append(rows, cells)
	}

	columns := 0
	for _, cells := range rows {
		if len(cells) > columns {
			columns = len(cells)
		}
	}
	for i := range rows {
		for len(rows[i]) < columns {
			rows[i] = append(rows[i], "")
		}
	}

	widths := make([]int, columns)
	for _, cells := range rows {
		for i, cell := range cells {
			if w := runewidth.StringWidth(cell); w > widths[i] {
				widths[i] = w
			}
		}
	}
	for i := range widths {
		if widths[i] < 3 {
			widths[i] = 3
		}
	}

	var sb strings.Builder
	writeRow := func(cells []string) {
		sb.WriteString("|")
		for i, cell := range cells {
			sb.WriteString(" ")
			sb.WriteString(cell)
			sb.WriteString(strings.Repeat(" ", widths[i]-runewidth.StringWidth(cell)))
			sb.WriteString(" |")
		}
		sb.WriteString("\n")
	}

	writeRow(rows[0])
	separator := make([]string, columns)
	for i := range separator {
		separator[i] = strings.Repeat("-", widths[i])
	}
	writeRow(separator)
	for _, cells := range rows[1:] {
		writeRow(cells)
	}

	return strings.TrimRight(sb.String(), "\n"), nil
}

// cellText flattens a cell's blocks onto one line. Block boundaries and
// embedded newlines become explicit <br> markers; pipes are escaped so the
// table syntax survives.
func (r *MarkdownRenderer) cellText(st *renderState, cell *ast.TableCell) (string, error) {
	var pieces []string
	for _, block := range cell.Blocks {
		text, emit, err := r.block(st, block)
		if err != nil {
			return "", err
		}
		if !emit || text == "" {
			continue
		}
		pieces = append(pieces, text)
	}
	text := strings.Join(pieces, "<br>")
	text = strings.ReplaceAll(text, "\n", "<br>")
	text = strings.ReplaceAll(text, "|", `\|`)
	return strings.TrimSpace(text), nil
}
