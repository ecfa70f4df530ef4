// Package scanner is the orchestrator: on every interval during market
// hours it walks the watchlist, builds each symbol's P&F chart, runs the
// pattern detectors and the RSI crossing checks, and hands every positive
// detection to the deduplicator.
package scanner

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/BalachandraRaju/finns-sub002/internal/dedup"
	"github.com/BalachandraRaju/finns-sub002/internal/fib"
	"github.com/BalachandraRaju/finns-sub002/internal/logger"
	"github.com/BalachandraRaju/finns-sub002/internal/markethours"
	"github.com/BalachandraRaju/finns-sub002/internal/metrics"
	"github.com/BalachandraRaju/finns-sub002/internal/model"
	"github.com/BalachandraRaju/finns-sub002/internal/pnf"
	"github.com/BalachandraRaju/finns-sub002/internal/rsi"
)

// rsiBucket is the candle width the RSI series is computed on. Raw
// 1-minute candles are aggregated up to this width first.
const rsiBucket = 3 * time.Minute

// Config tunes one Scanner.
type Config struct {
	ScanInterval   time.Duration
	LookbackDays   int
	CandleInterval string

	BoxPct      float64
	ReversalLen int

	RSIEnabled    bool
	RSIPeriod     int
	RSIOverbought float64
	RSIOversold   float64
}

// Scanner drives the scan loop. All collaborators are interfaces; tests
// substitute fakes.
type Scanner struct {
	cfg       Config
	watchlist model.WatchlistProvider
	candles   model.CandleProvider
	dedup     *dedup.Deduplicator
	prom      *metrics.Metrics
	health    *metrics.HealthStatus
	slog      *slog.Logger

	now        func() time.Time
	marketOpen func(time.Time) bool
}

// New wires a Scanner. prom and health may be nil.
func New(cfg Config, watchlist model.WatchlistProvider, candles model.CandleProvider, dd *dedup.Deduplicator, prom *metrics.Metrics, health *metrics.HealthStatus, sl *slog.Logger) *Scanner {
	if sl == nil {
		sl = slog.Default()
	}
	return &Scanner{
		cfg:        cfg,
		watchlist:  watchlist,
		candles:    candles,
		dedup:      dd,
		prom:       prom,
		health:     health,
		slog:       sl,
		now:        time.Now,
		marketOpen: markethours.IsMarketOpen,
	}
}

// RunCycle executes one scan pass. Outside market hours it is a cheap
// no-op. Per-symbol failures are isolated: they are logged and counted,
// and never abort the rest of the cycle.
func (s *Scanner) RunCycle(ctx context.Context) error {
	now := s.now()

	if !s.marketOpen(now) {
		if s.prom != nil {
			s.prom.MarketState.Set(0)
			s.prom.ScanSkippedTotal.WithLabelValues("market_closed").Inc()
		}
		s.slog.Debug("scan skipped, market closed", "status", markethours.StatusString(now))
		return nil
	}
	if s.prom != nil {
		s.prom.MarketState.Set(1)
	}

	ctx = logger.WithTraceID(ctx, logger.GenerateTraceID("scan", now))
	start := time.Now()

	instruments, err := s.watchlist.Watchlist(ctx)
	if err != nil {
		if s.prom != nil {
			s.prom.ScanErrorsTotal.Inc()
		}
		return fmt.Errorf("load watchlist: %w", err)
	}

	var failed int
	for _, inst := range instruments {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.scanSymbol(ctx, inst, now); err != nil {
			failed++
			if s.prom != nil {
				s.prom.ScanErrorsTotal.Inc()
			}
			s.slog.Error("symbol scan failed",
				append([]any{"symbol", inst.Symbol, "err", err}, logger.LogWithTrace(ctx)...)...)
		}
		if s.prom != nil {
			s.prom.SymbolsScanned.Inc()
		}
	}

	elapsed := time.Since(start)
	if s.prom != nil {
		s.prom.ScanCyclesTotal.Inc()
		s.prom.ScanCycleDur.Observe(elapsed.Seconds())
	}
	if s.health != nil {
		s.health.SetLastCycle(now)
	}
	s.slog.Info("scan cycle complete",
		append([]any{"symbols", len(instruments), "failed", failed, "elapsed", elapsed.String()},
			logger.LogWithTrace(ctx)...)...)
	return nil
}

// scanSymbol fetches history for one instrument and runs both detection
// families over it.
func (s *Scanner) scanSymbol(ctx context.Context, inst model.Instrument, now time.Time) error {
	start := time.Now()
	from := now.AddDate(0, 0, -s.cfg.LookbackDays)

	candles, err := s.candles.Candles(ctx, inst.InstrumentKey, s.cfg.CandleInterval, from, now)
	if err != nil {
		return fmt.Errorf("fetch candles: %w", err)
	}
	if s.prom != nil {
		s.prom.CandleFetches.Inc()
		defer func() { s.prom.SymbolScanDur.Observe(time.Since(start).Seconds()) }()
	}
	if len(candles) == 0 {
		return nil
	}

	if err := s.scanPatterns(ctx, inst, candles); err != nil {
		return err
	}
	if s.cfg.RSIEnabled {
		if err := s.scanRSI(ctx, inst, candles); err != nil {
			return err
		}
	}
	return nil
}

// scanPatterns builds the P&F chart and forwards every positive detection.
func (s *Scanner) scanPatterns(ctx context.Context, inst model.Instrument, candles []model.Candle) error {
	highs, lows := model.HighsLows(candles)
	points := pnf.Compress(highs, lows, s.cfg.BoxPct, s.cfg.ReversalLen)
	if len(points) == 0 {
		return nil
	}

	chartPrices := make([]float64, len(points))
	for i, p := range points {
		chartPrices[i] = p.Price
	}

	var firstErr error
	for _, detect := range pnf.Detectors() {
		alert := detect(points)
		if alert == nil {
			continue
		}
		alert = fib.Upgrade(alert, chartPrices)
		if _, err := s.dedup.HandlePattern(ctx, inst, alert); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("handle %s: %w", alert.PatternType, err)
		}
	}
	return firstErr
}

// scanRSI aggregates the raw candles to the RSI bucket width and checks
// both threshold crossings.
func (s *Scanner) scanRSI(ctx context.Context, inst model.Instrument, candles []model.Candle) error {
	series := Aggregate(candles, rsiBucket)

	var firstErr error
	if alert := rsi.FindOverboughtAlert(series, s.cfg.RSIOverbought, s.cfg.RSIPeriod); alert != nil {
		if _, err := s.dedup.HandleRsi(ctx, inst, alert); err != nil {
			firstErr = fmt.Errorf("handle overbought: %w", err)
		}
	}
	if alert := rsi.FindOversoldAlert(series, s.cfg.RSIOversold, s.cfg.RSIPeriod); alert != nil {
		if _, err := s.dedup.HandleRsi(ctx, inst, alert); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("handle oversold: %w", err)
		}
	}
	return firstErr
}
