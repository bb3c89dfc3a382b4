package main

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// columnAlign aligns one table column.
type columnAlign int

const (
	alignLeft columnAlign = iota
	alignRight
)

// renderTable renders rows as a rounded table. Short rows are padded and
// columns beyond aligns are left-aligned.
func renderTable(headers []string, rows [][]string, aligns []columnAlign) string {
	if len(headers) == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, len(headers))
	for i, h := range headers {
		header[i] = h
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, len(headers))
		for i := range r {
			r[i] = ""
			if i < len(row) {
				r[i] = row[i]
			}
		}
		tw.AppendRow(r)
	}

	configs := make([]table.ColumnConfig, 0, len(aligns))
	for i, a := range aligns {
		if a != alignRight {
			continue
		}
		configs = append(configs, table.ColumnConfig{
			Number:      i + 1,
			Align:       text.AlignRight,
			AlignHeader: text.AlignRight,
		})
	}
	if len(configs) > 0 {
		tw.SetColumnConfigs(configs)
	}
	return tw.Render()
}
