package pnf

import (
	"fmt"

	"github.com/BalachandraRaju/finns-sub002/internal/model"
)

// Detector recognizes one breakout/breakdown shape over a full chart's
// points. Detectors are pure: only the most recent column is a signal
// candidate, prior columns supply the resistance/support levels.
type Detector func(points []RawPoint) *model.PatternAlert

// Detectors returns the full detection suite, most specific shapes first.
func Detectors() []Detector {
	return []Detector{
		FindAscendingTripleTop,
		FindDescendingTripleBottom,
		FindTripleTopBreakout,
		FindTripleBottomBreakdown,
		FindDoubleTopBuy,
		FindDoubleBottomSell,
	}
}

// FindDoubleTopBuy fires when a new X column rises above the high of the
// previous X column. The low must sit at or below the resistance so that an
// actual crossing was observed; a column gapping entirely above resistance
// is not a breakout.
func FindDoubleTopBuy(points []RawPoint) *model.PatternAlert {
	cols := BuildColumns(points)
	if len(cols) < 2 || cols[len(cols)-1].Type != SymbolX {
		return nil
	}

	latest := cols[len(cols)-1]
	prevX := columnsOfType(cols[:len(cols)-1], SymbolX)
	if len(prevX) == 0 {
		return nil
	}
	resistance := prevX[len(prevX)-1].High

	if latest.High > resistance && latest.Low <= resistance {
		price := firstAbove(latest.Values, resistance)
		return &model.PatternAlert{
			Name:          "P&F Buy Signal",
			PatternType:   "double_top_buy",
			AlertType:     model.AlertBuy,
			SignalPrice:   price,
			Column:        latest.Index,
			TriggerReason: fmt.Sprintf("DOUBLE TOP BUY: price %.2f breaks above previous top %.2f", price, resistance),
		}
	}
	return nil
}

// FindDoubleBottomSell fires when a new O column drops below the low of the
// previous O column.
func FindDoubleBottomSell(points []RawPoint) *model.PatternAlert {
	cols := BuildColumns(points)
	if len(cols) < 2 || cols[len(cols)-1].Type != SymbolO {
		return nil
	}

	latest := cols[len(cols)-1]
	prevO := columnsOfType(cols[:len(cols)-1], SymbolO)
	if len(prevO) == 0 {
		return nil
	}
	support := prevO[len(prevO)-1].Low

	if latest.Low < support && latest.High >= support {
		price := lastBelow(latest.Values, support)
		return &model.PatternAlert{
			Name:          "P&F Sell Signal",
			PatternType:   "double_bottom_sell",
			AlertType:     model.AlertSell,
			SignalPrice:   price,
			Column:        latest.Index,
			TriggerReason: fmt.Sprintf("DOUBLE BOTTOM SELL: price %.2f breaks below previous bottom %.2f", price, support),
		}
	}
	return nil
}

// FindTripleTopBreakout fires when a new X column rises above the highs of
// the two previous X columns.
func FindTripleTopBreakout(points []RawPoint) *model.PatternAlert {
	cols := BuildColumns(points)
	if len(cols) < 3 || cols[len(cols)-1].Type != SymbolX {
		return nil
	}

	latest := cols[len(cols)-1]
	prevX := columnsOfType(cols[:len(cols)-1], SymbolX)
	if len(prevX) < 2 {
		return nil
	}
	resistance := prevX[len(prevX)-1].High
	if h := prevX[len(prevX)-2].High; h > resistance {
		resistance = h
	}

	if latest.High > resistance && latest.Low <= resistance {
		price := firstAbove(latest.Values, resistance)
		return &model.PatternAlert{
			Name:          "Triple Top Breakout",
			PatternType:   "triple_top_buy",
			AlertType:     model.AlertBuy,
			SignalPrice:   price,
			Column:        latest.Index,
			TriggerReason: fmt.Sprintf("TRIPLE TOP BUY: price %.2f breaks above resistance %.2f from two prior tops", price, resistance),
		}
	}
	return nil
}

// FindTripleBottomBreakdown fires when a new O column drops below the lows
// of the two previous O columns.
func FindTripleBottomBreakdown(points []RawPoint) *model.PatternAlert {
	cols := BuildColumns(points)
	if len(cols) < 3 || cols[len(cols)-1].Type != SymbolO {
		return nil
	}

	latest := cols[len(cols)-1]
	prevO := columnsOfType(cols[:len(cols)-1], SymbolO)
	if len(prevO) < 2 {
		return nil
	}
	support := prevO[len(prevO)-1].Low
	if l := prevO[len(prevO)-2].Low; l < support {
		support = l
	}

	if latest.Low < support && latest.High >= support {
		price := lastBelow(latest.Values, support)
		return &model.PatternAlert{
			Name:          "Triple Bottom Breakdown",
			PatternType:   "triple_bottom_sell",
			AlertType:     model.AlertSell,
			SignalPrice:   price,
			Column:        latest.Index,
			TriggerReason: fmt.Sprintf("TRIPLE BOTTOM SELL: price %.2f breaks below support %.2f from two prior bottoms", price, support),
		}
	}
	return nil
}

// FindAscendingTripleTop fires on three X columns with strictly rising highs
// (h1 < h2 < h3), the last breaking beyond the middle top without a gap.
func FindAscendingTripleTop(points []RawPoint) *model.PatternAlert {
	cols := BuildColumns(points)
	if len(cols) < 5 || cols[len(cols)-1].Type != SymbolX {
		return nil
	}

	xCols := columnsOfType(cols, SymbolX)
	if len(xCols) < 3 {
		return nil
	}
	c1, c2, c3 := xCols[len(xCols)-3], xCols[len(xCols)-2], xCols[len(xCols)-1]

	if c3.High > c2.High && c2.High > c1.High && c3.Low <= c2.High {
		price := firstAbove(c3.Values, c2.High)
		return &model.PatternAlert{
			Name:          "Ascending Triple Top",
			PatternType:   "ascending_triple_top",
			AlertType:     model.AlertBuy,
			SignalPrice:   price,
			Column:        c3.Index,
			TriggerReason: fmt.Sprintf("ASCENDING TRIPLE TOP: price %.2f extends rising tops %.2f < %.2f < %.2f", price, c1.High, c2.High, c3.High),
		}
	}
	return nil
}

// FindDescendingTripleBottom fires on three O columns with strictly falling
// lows (l1 > l2 > l3), the last breaking beyond the middle bottom without a
// gap.
func FindDescendingTripleBottom(points []RawPoint) *model.PatternAlert {
	cols := BuildColumns(points)
	if len(cols) < 5 || cols[len(cols)-1].Type != SymbolO {
		return nil
	}

	oCols := columnsOfType(cols, SymbolO)
	if len(oCols) < 3 {
		return nil
	}
	c1, c2, c3 := oCols[len(oCols)-3], oCols[len(oCols)-2], oCols[len(oCols)-1]

	if c3.Low < c2.Low && c2.Low < c1.Low && c3.High >= c2.Low {
		price := lastBelow(c3.Values, c2.Low)
		return &model.PatternAlert{
			Name:          "Descending Triple Bottom",
			PatternType:   "descending_triple_bottom",
			AlertType:     model.AlertSell,
			SignalPrice:   price,
			Column:        c3.Index,
			TriggerReason: fmt.Sprintf("DESCENDING TRIPLE BOTTOM: price %.2f extends falling bottoms %.2f > %.2f > %.2f", price, c1.Low, c2.Low, c3.Low),
		}
	}
	return nil
}

// columnsOfType filters cols keeping only the given column type, in order.
func columnsOfType(cols []Column, typ byte) []Column {
	var out []Column
	for _, c := range cols {
		if c.Type == typ {
			out = append(out, c)
		}
	}
	return out
}

// firstAbove returns the smallest value strictly above level.
// Values must be sorted ascending and contain at least one such value.
func firstAbove(values []float64, level float64) float64 {
	for _, v := range values {
		if v > level {
			return v
		}
	}
	return values[len(values)-1]
}

// lastBelow returns the largest value strictly below level.
func lastBelow(values []float64, level float64) float64 {
	for i := len(values) - 1; i >= 0; i-- {
		if values[i] < level {
			return values[i]
		}
	}
	return values[0]
}
