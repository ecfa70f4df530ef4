package pnf

import "testing"

// col appends one column's marks to points.
func col(points []RawPoint, index int, typ byte, prices ...float64) []RawPoint {
	for _, p := range prices {
		points = append(points, RawPoint{Column: index, Price: p, Symbol: typ})
	}
	return points
}

func TestFindDoubleTopBuy(t *testing.T) {
	var pts []RawPoint
	pts = col(pts, 1, SymbolX, 99, 100)
	pts = col(pts, 2, SymbolO, 97, 96)
	pts = col(pts, 3, SymbolX, 98, 101, 103)

	alert := FindDoubleTopBuy(pts)
	if alert == nil {
		t.Fatal("expected breakout")
	}
	if alert.PatternType != "double_top_buy" {
		t.Errorf("pattern type = %s", alert.PatternType)
	}
	// Signal is the first box strictly above the prior top, not the column high.
	if alert.SignalPrice != 101 {
		t.Errorf("signal price = %v, want 101", alert.SignalPrice)
	}
	if alert.Column != 3 {
		t.Errorf("column = %d, want 3", alert.Column)
	}
}

func TestFindDoubleTopBuyGapExcluded(t *testing.T) {
	// The latest column sits entirely above the prior top: no observed
	// crossing, no signal.
	var pts []RawPoint
	pts = col(pts, 1, SymbolX, 99, 100)
	pts = col(pts, 2, SymbolO, 97, 96)
	pts = col(pts, 3, SymbolX, 101, 103)

	if alert := FindDoubleTopBuy(pts); alert != nil {
		t.Errorf("expected nil for gapped column, got %+v", alert)
	}
}

func TestFindDoubleTopBuyNoBreak(t *testing.T) {
	var pts []RawPoint
	pts = col(pts, 1, SymbolX, 99, 100)
	pts = col(pts, 2, SymbolO, 97, 96)
	pts = col(pts, 3, SymbolX, 98, 99)

	if alert := FindDoubleTopBuy(pts); alert != nil {
		t.Errorf("expected nil without a break, got %+v", alert)
	}
}

func TestFindDoubleTopBuyRequiresLatestX(t *testing.T) {
	var pts []RawPoint
	pts = col(pts, 1, SymbolX, 99, 100)
	pts = col(pts, 2, SymbolO, 97, 96)

	if alert := FindDoubleTopBuy(pts); alert != nil {
		t.Errorf("expected nil when latest column is O, got %+v", alert)
	}
}

func TestFindDoubleBottomSell(t *testing.T) {
	var pts []RawPoint
	pts = col(pts, 1, SymbolO, 96, 95)
	pts = col(pts, 2, SymbolX, 97, 98)
	pts = col(pts, 3, SymbolO, 96, 94)

	alert := FindDoubleBottomSell(pts)
	if alert == nil {
		t.Fatal("expected breakdown")
	}
	if alert.PatternType != "double_bottom_sell" {
		t.Errorf("pattern type = %s", alert.PatternType)
	}
	if alert.SignalPrice != 94 {
		t.Errorf("signal price = %v, want 94", alert.SignalPrice)
	}
}

func TestFindTripleTopBreakout(t *testing.T) {
	var pts []RawPoint
	pts = col(pts, 1, SymbolX, 99, 100)
	pts = col(pts, 2, SymbolO, 98, 97)
	pts = col(pts, 3, SymbolX, 99, 100)
	pts = col(pts, 4, SymbolO, 98, 97)
	pts = col(pts, 5, SymbolX, 98, 101)

	alert := FindTripleTopBreakout(pts)
	if alert == nil {
		t.Fatal("expected breakout")
	}
	if alert.PatternType != "triple_top_buy" {
		t.Errorf("pattern type = %s", alert.PatternType)
	}
	if alert.SignalPrice != 101 {
		t.Errorf("signal price = %v, want 101", alert.SignalPrice)
	}

	// Resistance is the higher of the two prior tops.
	var uneven []RawPoint
	uneven = col(uneven, 1, SymbolX, 99, 102)
	uneven = col(uneven, 2, SymbolO, 98, 97)
	uneven = col(uneven, 3, SymbolX, 99, 100)
	uneven = col(uneven, 4, SymbolO, 98, 97)
	uneven = col(uneven, 5, SymbolX, 98, 101)
	if alert := FindTripleTopBreakout(uneven); alert != nil {
		t.Errorf("101 does not clear the 102 top, got %+v", alert)
	}
}

func TestFindTripleBottomBreakdown(t *testing.T) {
	var pts []RawPoint
	pts = col(pts, 1, SymbolO, 96, 95)
	pts = col(pts, 2, SymbolX, 97, 98)
	pts = col(pts, 3, SymbolO, 96, 95)
	pts = col(pts, 4, SymbolX, 97, 98)
	pts = col(pts, 5, SymbolO, 97, 94)

	alert := FindTripleBottomBreakdown(pts)
	if alert == nil {
		t.Fatal("expected breakdown")
	}
	if alert.PatternType != "triple_bottom_sell" {
		t.Errorf("pattern type = %s", alert.PatternType)
	}
	if alert.SignalPrice != 94 {
		t.Errorf("signal price = %v, want 94", alert.SignalPrice)
	}
}

func TestFindAscendingTripleTop(t *testing.T) {
	var pts []RawPoint
	pts = col(pts, 1, SymbolX, 99, 100)
	pts = col(pts, 2, SymbolO, 98, 97)
	pts = col(pts, 3, SymbolX, 101, 102)
	pts = col(pts, 4, SymbolO, 100, 99)
	pts = col(pts, 5, SymbolX, 101, 103, 104)

	alert := FindAscendingTripleTop(pts)
	if alert == nil {
		t.Fatal("expected ascending breakout")
	}
	if alert.PatternType != "ascending_triple_top" {
		t.Errorf("pattern type = %s", alert.PatternType)
	}
	if alert.SignalPrice != 103 {
		t.Errorf("signal price = %v, want 103", alert.SignalPrice)
	}
}

func TestFindAscendingTripleTopNotStrictlyRising(t *testing.T) {
	// Equal middle and first tops: not ascending.
	var pts []RawPoint
	pts = col(pts, 1, SymbolX, 99, 100)
	pts = col(pts, 2, SymbolO, 98, 97)
	pts = col(pts, 3, SymbolX, 99, 100)
	pts = col(pts, 4, SymbolO, 98, 97)
	pts = col(pts, 5, SymbolX, 99, 101)

	if alert := FindAscendingTripleTop(pts); alert != nil {
		t.Errorf("expected nil, got %+v", alert)
	}
}

func TestFindDescendingTripleBottom(t *testing.T) {
	var pts []RawPoint
	pts = col(pts, 1, SymbolO, 96, 95)
	pts = col(pts, 2, SymbolX, 97, 98)
	pts = col(pts, 3, SymbolO, 94, 93)
	pts = col(pts, 4, SymbolX, 95, 96)
	pts = col(pts, 5, SymbolO, 94, 92, 91)

	alert := FindDescendingTripleBottom(pts)
	if alert == nil {
		t.Fatal("expected descending breakdown")
	}
	if alert.PatternType != "descending_triple_bottom" {
		t.Errorf("pattern type = %s", alert.PatternType)
	}
	if alert.SignalPrice != 92 {
		t.Errorf("signal price = %v, want 92", alert.SignalPrice)
	}
}

func TestDetectorsOrder(t *testing.T) {
	if got := len(Detectors()); got != 6 {
		t.Fatalf("detector suite has %d entries, want 6", got)
	}
}
