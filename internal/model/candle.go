package model

import (
	"encoding/json"
	"time"
)

// Candle represents a single OHLCV bar for an instrument.
// Prices are in rupees (float64) as delivered by the data provider.
type Candle struct {
	Timestamp time.Time `json:"timestamp"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
	Volume    int64     `json:"volume"`
}

// JSON returns the JSON-encoded candle (ignoring errors for hot-path usage).
func (c *Candle) JSON() []byte {
	b, _ := json.Marshal(c)
	return b
}

// Closes extracts the close-price series from a candle slice, in order.
func Closes(candles []Candle) []float64 {
	out := make([]float64, len(candles))
	for i := range candles {
		out[i] = candles[i].Close
	}
	return out
}

// HighsLows extracts the high and low series from a candle slice, in order.
func HighsLows(candles []Candle) (highs, lows []float64) {
	highs = make([]float64, len(candles))
	lows = make([]float64, len(candles))
	for i := range candles {
		highs[i] = candles[i].High
		lows[i] = candles[i].Low
	}
	return highs, lows
}
