package pnf

import "math"

// Compress builds P&F chart points from high/low series using percentage
// boxes and an N-box reversal. A new mark is plotted each time price covers
// another box in the current direction; a new opposite column starts once
// price retraces reversal boxes from the last plotted level.
//
// Returns nil when fewer than two bars are supplied; one bar cannot
// establish a direction.
func Compress(highs, lows []float64, boxPct float64, reversal int) []RawPoint {
	if len(highs) < 2 || len(highs) != len(lows) {
		return nil
	}

	var points []RawPoint
	col := 1
	dir := 0 // 1 rising, -1 falling, 0 undetermined
	last := highs[0]
	boxUp := last * (1 + boxPct)
	boxDown := last / (1 + boxPct)

	plot := func(price float64, sym byte) {
		points = append(points, RawPoint{Column: col, Price: price, Symbol: sym})
	}

	if highs[0] >= boxUp {
		dir = 1
		plot(last, SymbolX)
		plot(boxUp, SymbolX)
		last = boxUp
	} else if lows[0] <= boxDown {
		dir = -1
		plot(last, SymbolO)
		plot(boxDown, SymbolO)
		last = boxDown
	}

	for i := 1; i < len(highs); i++ {
		high, low := highs[i], lows[i]

		switch dir {
		case 1:
			revLevel := last / math.Pow(1+boxPct, float64(reversal))
			if low <= revLevel {
				dir = -1
				col++
				level := last / (1 + boxPct)
				for low <= level {
					plot(level, SymbolO)
					level /= 1 + boxPct
				}
				if len(points) > 0 {
					last = points[len(points)-1].Price
				}
			} else {
				level := last * (1 + boxPct)
				for high >= level {
					plot(level, SymbolX)
					last = level
					level *= 1 + boxPct
				}
			}

		case -1:
			revLevel := last * math.Pow(1+boxPct, float64(reversal))
			if high >= revLevel {
				dir = 1
				col++
				level := last * (1 + boxPct)
				for high >= level {
					plot(level, SymbolX)
					level *= 1 + boxPct
				}
				if len(points) > 0 {
					last = points[len(points)-1].Price
				}
			} else {
				level := last / (1 + boxPct)
				for low <= level {
					plot(level, SymbolO)
					last = level
					level /= 1 + boxPct
				}
			}

		default:
			// Direction still undetermined: wait for the first bar that
			// clears a full box from the series start.
			if high >= boxUp {
				dir = 1
				last = boxUp
				plot(highs[0], SymbolX)
				plot(boxUp, SymbolX)
			} else if low <= boxDown {
				dir = -1
				last = boxDown
				plot(highs[0], SymbolO)
				plot(boxDown, SymbolO)
			}
		}
	}

	return points
}
