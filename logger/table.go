package logger

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

type Table struct {
	headers []string
	rows    [][]string
	out     io.Writer
}

func NewTable(headers []string, out io.Writer) *Table {
	return &Table{
		headers: headers,
		out:     out,
	}
}

// AddRow pads or truncates cells to the header width.
func (t *Table) AddRow(cells ...string) {
	row := make([]string, len(t.headers))
	copy(row, cells)
	t.rows = append(t.rows, row)
}

func (t *Table) Render() string {
	columns := len(t.headers)
	if columns == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, columns)
	for i, h := range t.headers {
		header[i] = h
	}
	tw.AppendHeader(header)

	for _, row := range t.rows {
		r := make(table.Row, columns)
		for i, cell := range row {
			r[i] = cell
		}
		tw.AppendRow(r)
	}

	configs := make([]table.ColumnConfig, 0, columns)
	for i := 0; i < columns; i++ {
		align := text.AlignLeft
		if i > 0 {
			align = text.AlignRight
		}
		configs = append(configs, table.ColumnConfig{
			Number:      i + 1,
			Align:       align,
			AlignHeader: text.AlignLeft,
		})
	}
	tw.SetColumnConfigs(configs)

	return tw.Render()
}

func (t *Table) Print() {
	fmt.Fprintln(t.out, t.Render())
}
