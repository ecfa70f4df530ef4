// Package pnf implements Point & Figure chart construction and breakout
// pattern detection: percentage-box compression of OHLC series into X/O
// columns, and the breakout/breakdown detectors evaluated on the latest
// column of the resulting chart.
package pnf

import "sort"

// Symbol marks for the two column types.
const (
	SymbolX = 'X' // rising column
	SymbolO = 'O' // falling column
)

// RawPoint is one plotted box on a P&F chart, produced by Compress.
// Points are ordered by column ascending, then plot order within the column.
type RawPoint struct {
	Column int
	Price  float64
	Symbol byte
}

// Column is a contiguous run of same-type marks.
// Values is sorted ascending; High and Low are its extremes.
type Column struct {
	Index  int // chart column number
	Type   byte
	Values []float64
	High   float64
	Low    float64
}

// BuildColumns groups raw chart points into typed columns. A new column
// starts whenever the column index changes from the previous point; the
// reversal logic already happened upstream in Compress, so no merging here.
func BuildColumns(points []RawPoint) []Column {
	if len(points) == 0 {
		return nil
	}

	var cols []Column
	lastIdx := points[0].Column - 1
	for _, p := range points {
		if p.Column != lastIdx {
			cols = append(cols, Column{Index: p.Column, Type: p.Symbol})
			lastIdx = p.Column
		}
		cur := &cols[len(cols)-1]
		cur.Values = append(cur.Values, p.Price)
	}

	for i := range cols {
		sort.Float64s(cols[i].Values)
		cols[i].Low = cols[i].Values[0]
		cols[i].High = cols[i].Values[len(cols[i].Values)-1]
	}
	return cols
}
