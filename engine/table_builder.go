package engine

import (
	"fmt"

	"github.com/spektr-org/carbonlens/record"
)

// ============================================================================
// TABLE BUILDER: Raw-record preview and ranked-group tables
// ============================================================================

// BuildPreviewTable renders the first maxRows records and first maxCols
// normalized columns. Zero or negative limits keep everything.
func BuildPreviewTable(records []record.Record, maxRows, maxCols int) *TableData {
	cols := record.Columns()
	if maxCols > 0 && len(cols) > maxCols {
		cols = cols[:maxCols]
	}
	n := len(records)
	if maxRows > 0 && n > maxRows {
		n = maxRows
	}

	columns := make([]Column, len(cols))
	for i, key := range cols {
		columns[i] = Column{Key: key, Label: key, Type: "text", Align: "left"}
	}

	rows := make([][]string, 0, n)
	for _, r := range records[:n] {
		rows = append(rows, r.Values()[:len(cols)])
	}

	return &TableData{
		Title:   "Building Records",
		Columns: columns,
		Rows:    rows,
		Summary: &Summary{
			Label: fmt.Sprintf("Showing %d of %d records", n, len(records)),
			Values: map[string]string{
				"shown": FormatInt(n),
				"total": FormatInt(len(records)),
			},
		},
	}
}

// BuildGroupTable renders a ranked or bucketed view as a two-column table
// with a total row.
func BuildGroupTable(title, groupLabel, valueLabel string, values []NamedValue) *TableData {
	columns := []Column{
		{Key: "group", Label: groupLabel, Type: "text", Align: "left"},
		{Key: "value", Label: valueLabel, Type: "number", Align: "right"},
	}

	rows := make([][]string, 0, len(values))
	var total float64
	for _, v := range values {
		rows = append(rows, []string{v.Name, FormatNumber(v.Value, 2)})
		total += v.Value
	}

	return &TableData{
		Title:   title,
		Columns: columns,
		Rows:    rows,
		Summary: &Summary{
			Label:  "Total",
			Values: map[string]string{"value": FormatNumber(total, 2)},
		},
	}
}
