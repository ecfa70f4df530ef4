// cmd/pnfdump builds a Point & Figure chart from stored candles and prints
// the columns plus any pattern detections. Useful for tuning box size and
// reversal length against real history without running the scanner.
//
// Usage:
//
//	go run ./cmd/pnfdump --db=data/alerts.db --key="NSE_EQ|INE467B01029" --days=30
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/BalachandraRaju/finns-sub002/internal/fib"
	"github.com/BalachandraRaju/finns-sub002/internal/model"
	"github.com/BalachandraRaju/finns-sub002/internal/pnf"
	sqlitestore "github.com/BalachandraRaju/finns-sub002/internal/store/sqlite"
)

func main() {
	log.SetFlags(0)

	dbPath := flag.String("db", "data/alerts.db", "Path to SQLite database")
	key := flag.String("key", "", "Instrument key to chart (required)")
	interval := flag.String("interval", "1minute", "Candle interval to read")
	days := flag.Int("days", 30, "Lookback window in days")
	boxPct := flag.Float64("box", 0.0025, "Box size as a fraction (0.0025 = 0.25%)")
	reversal := flag.Int("reversal", 3, "Boxes required for a column reversal")
	flag.Parse()

	if *key == "" {
		log.Fatal("[pnfdump] --key is required")
	}

	store, err := sqlitestore.Open(*dbPath)
	if err != nil {
		log.Fatalf("[pnfdump] sqlite open failed: %v", err)
	}
	defer store.Close()

	now := time.Now()
	candles, err := store.Candles(context.Background(), *key, *interval, now.AddDate(0, 0, -*days), now)
	if err != nil {
		log.Fatalf("[pnfdump] load candles failed: %v", err)
	}
	if len(candles) == 0 {
		log.Fatalf("[pnfdump] no candles for %s in the last %d days", *key, *days)
	}

	highs, lows := model.HighsLows(candles)
	points := pnf.Compress(highs, lows, *boxPct, *reversal)
	cols := pnf.BuildColumns(points)

	fmt.Printf("%s: %d candles -> %d boxes in %d columns (box %.4f%%, reversal %d)\n\n",
		*key, len(candles), len(points), len(cols), *boxPct*100, *reversal)
	for _, c := range cols {
		fmt.Printf("  col %3d  %c  %8.2f .. %8.2f  (%d boxes)\n",
			c.Index, c.Type, c.Low, c.High, len(c.Values))
	}

	chartPrices := make([]float64, len(points))
	for i, p := range points {
		chartPrices[i] = p.Price
	}

	fmt.Println()
	var hits int
	for _, detect := range pnf.Detectors() {
		alert := detect(points)
		if alert == nil {
			continue
		}
		hits++
		alert = fib.Upgrade(alert, chartPrices)
		super := ""
		if alert.Super {
			super = fmt.Sprintf("  [SUPER %s]", alert.FibLevel)
		}
		fmt.Printf("  %-28s %s @ %.2f%s\n      %s\n", alert.Name, alert.AlertType, alert.SignalPrice, super, alert.TriggerReason)
	}
	if hits == 0 {
		fmt.Println("  no patterns on the latest column")
	}
}
