package cli

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// column 表格列；maxWidth 为0时不限制宽度
type column struct {
	title    string
	align    text.Align
	maxWidth int
}

func renderTable(cols []column, rows [][]string) string {
	if len(cols) == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, 0, len(cols))
	configs := make([]table.ColumnConfig, 0, len(cols))
	for i, col := range cols {
		header = append(header, col.title)
		configs = append(configs, table.ColumnConfig{
			Number:      i + 1,
			Align:       col.align,
			AlignHeader: text.AlignLeft,
			WidthMax:    col.maxWidth,
		})
	}
	tw.AppendHeader(header)
	tw.SetColumnConfigs(configs)

	// 缺失的单元格补空
	for _, cells := range rows {
		row := make(table.Row, len(cols))
		for i := range row {
			row[i] = ""
			if i < len(cells) {
				row[i] = cells[i]
			}
		}
		tw.AppendRow(row)
	}
	return tw.Render()
}
