// Package fib computes Fibonacci retracement levels over a chart's price
// range and classifies alert prices against them for super-alert upgrades.
package fib

import "math"

// Level names, top (swing high) to bottom (swing low).
const (
	Level0   = "0.0%"
	Level236 = "23.6%"
	Level382 = "38.2%"
	Level500 = "50.0%"
	Level618 = "61.8%"
	Level786 = "78.6%"
	Level100 = "100.0%"
)

// proximityPct is how close (relative to the level price) an alert price
// must be to count as sitting on a retracement level.
const proximityPct = 0.01

type level struct {
	name  string
	ratio float64 // retracement fraction from the swing high
}

var ratios = []level{
	{Level0, 0.0},
	{Level236, 0.236},
	{Level382, 0.382},
	{Level500, 0.500},
	{Level618, 0.618},
	{Level786, 0.786},
	{Level100, 1.0},
}

// Levels holds the retracement prices between a chart's swing extremes.
type Levels struct {
	SwingLow  float64
	SwingHigh float64
	prices    map[string]float64
}

// Compute derives retracement levels from all plotted prices of a chart.
// Returns nil when the series is empty or flat (no measurable range).
func Compute(prices []float64) *Levels {
	if len(prices) == 0 {
		return nil
	}
	low, high := prices[0], prices[0]
	for _, p := range prices[1:] {
		if p < low {
			low = p
		}
		if p > high {
			high = p
		}
	}
	rng := high - low
	if rng <= 0 {
		return nil
	}

	l := &Levels{SwingLow: low, SwingHigh: high, prices: make(map[string]float64, len(ratios))}
	for _, lv := range ratios {
		l.prices[lv.name] = high - rng*lv.ratio
	}
	return l
}

// Price returns the price of a named level.
func (l *Levels) Price(name string) float64 {
	return l.prices[name]
}

// Closest returns the level the price sits on, if it is within 1% of that
// level's price. Returns "" when the price is between levels.
func (l *Levels) Closest(price float64) string {
	best := ""
	bestDist := math.Inf(1)
	for name, lp := range l.prices {
		if d := math.Abs(price - lp); d < bestDist {
			bestDist = d
			best = name
		}
	}
	if best == "" {
		return ""
	}
	if bestDist <= math.Abs(l.prices[best])*proximityPct {
		return best
	}
	return ""
}

// IsSuperBuyLevel reports whether a retracement level is strong support:
// the golden ratio, the mid-point, or the 38.2% secondary support.
func IsSuperBuyLevel(name string) bool {
	return name == Level618 || name == Level500 || name == Level382
}

// IsSuperSellLevel reports whether a retracement level is strong
// resistance: near or at the swing high.
func IsSuperSellLevel(name string) bool {
	return name == Level382 || name == Level236 || name == Level0
}
