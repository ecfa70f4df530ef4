// Package rsi computes the Relative Strength Index and threshold-crossing
// alerts over a close-price series.
package rsi

import (
	"math"

	"github.com/BalachandraRaju/finns-sub002/internal/model"
)

// Calculate returns the RSI of the price series with the given period.
// Gains and losses are smoothed with an exponential average using
// alpha = 2/(period+1), seeded at zero. The boolean is false when the series
// is shorter than period+1, too little history for a meaningful value.
//
// A zero average loss makes RS undefined; it is reported as RSI 100
// (maximum strength), which also covers a perfectly flat series.
func Calculate(prices []float64, period int) (float64, bool) {
	if period <= 0 || len(prices) < period+1 {
		return 0, false
	}

	alpha := 2.0 / (float64(period) + 1.0)
	var avgGain, avgLoss float64
	for i := 1; i < len(prices); i++ {
		delta := prices[i] - prices[i-1]
		gain, loss := 0.0, 0.0
		if delta > 0 {
			gain = delta
		} else if delta < 0 {
			loss = -delta
		}
		avgGain = alpha*gain + (1-alpha)*avgGain
		avgLoss = alpha*loss + (1-alpha)*avgLoss
	}

	if avgLoss == 0 {
		return 100.0, true
	}
	rs := avgGain / avgLoss
	return 100.0 - 100.0/(1.0+rs), true
}

// FindOverboughtAlert reports an RSI crossing above threshold, or nil.
// It fires only on the tick where the crossing happens: the previous RSI
// (series minus its last point) must have been at or below the threshold,
// so a sustained overbought state does not re-fire. A missing previous RSI
// counts as "not yet in the zone". Requires period+2 candles.
func FindOverboughtAlert(candles []model.Candle, threshold float64, period int) *model.RsiAlert {
	if len(candles) < period+2 {
		return nil
	}
	closes := model.Closes(candles)

	current, ok := Calculate(closes, period)
	if !ok {
		return nil
	}
	previous, prevOK := Calculate(closes[:len(closes)-1], period)

	if current > threshold && (!prevOK || previous <= threshold) {
		return &model.RsiAlert{
			Direction:   model.RsiOverbought,
			SignalPrice: closes[len(closes)-1],
			Value:       round2(current),
			Threshold:   threshold,
			Period:      period,
		}
	}
	return nil
}

// FindOversoldAlert reports an RSI crossing below threshold, or nil.
// Mirror of FindOverboughtAlert.
func FindOversoldAlert(candles []model.Candle, threshold float64, period int) *model.RsiAlert {
	if len(candles) < period+2 {
		return nil
	}
	closes := model.Closes(candles)

	current, ok := Calculate(closes, period)
	if !ok {
		return nil
	}
	previous, prevOK := Calculate(closes[:len(closes)-1], period)

	if current < threshold && (!prevOK || previous >= threshold) {
		return &model.RsiAlert{
			Direction:   model.RsiOversold,
			SignalPrice: closes[len(closes)-1],
			Value:       round2(current),
			Threshold:   threshold,
			Period:      period,
		}
	}
	return nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
