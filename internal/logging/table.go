// Package logging handles generation of tempo analysis reports and exports.
package logging

import (
	"fmt"
	"strings"
)

// MetricRow is a single row in a metric table. Values are pre-formatted
// strings so rows can mix decimal precisions.
type MetricRow struct {
	Label string
	Value string
	Unit  string // unit suffix, e.g. "BPM", "s", "" for unitless
}

// MetricTable renders aligned label/value/unit columns: labels left-aligned,
// values right-aligned.
type MetricTable struct {
	Rows []MetricRow
}

// Add appends a row with a formatted value.
func (t *MetricTable) Add(label, unit, format string, args ...any) {
	t.Rows = append(t.Rows, MetricRow{
		Label: label,
		Value: fmt.Sprintf(format, args...),
		Unit:  unit,
	})
}

// String renders the table.
func (t *MetricTable) String() string {
	if len(t.Rows) == 0 {
		return ""
	}

	labelWidth, valueWidth := 0, 0
	for _, row := range t.Rows {
		labelWidth = max(labelWidth, len(row.Label))
		valueWidth = max(valueWidth, len(row.Value))
	}

	var b strings.Builder
	for _, row := range t.Rows {
		fmt.Fprintf(&b, "  %-*s  %*s", labelWidth, row.Label, valueWidth, row.Value)
		if row.Unit != "" {
			b.WriteString(" " + row.Unit)
		}
		b.WriteString("\n")
	}
	return b.String()
}
