package scanner

import (
	"time"

	"github.com/BalachandraRaju/finns-sub002/internal/model"
)

// Aggregate rolls candles up into fixed buckets of the given width. Input
// must be ordered by timestamp; output buckets are keyed by truncated
// timestamp and carry the usual OHLCV merge (first open, max high, min
// low, last close, summed volume). Gaps produce no filler candles.
func Aggregate(candles []model.Candle, bucket time.Duration) []model.Candle {
	if bucket <= 0 || len(candles) == 0 {
		return candles
	}

	var out []model.Candle
	var cur *model.Candle
	for _, c := range candles {
		ts := c.Timestamp.Truncate(bucket)
		if cur == nil || !cur.Timestamp.Equal(ts) {
			out = append(out, model.Candle{
				Timestamp: ts,
				Open:      c.Open,
				High:      c.High,
				Low:       c.Low,
				Close:     c.Close,
				Volume:    c.Volume,
			})
			cur = &out[len(out)-1]
			continue
		}
		if c.High > cur.High {
			cur.High = c.High
		}
		if c.Low < cur.Low {
			cur.Low = c.Low
		}
		cur.Close = c.Close
		cur.Volume += c.Volume
	}
	return out
}
