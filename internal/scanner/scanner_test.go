package scanner

import (
	"context"
	"errors"
	"math"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/BalachandraRaju/finns-sub002/internal/dedup"
	"github.com/BalachandraRaju/finns-sub002/internal/model"
)

type fakeWatchlist struct {
	instruments []model.Instrument
	err         error
	calls       atomic.Int32
}

func (f *fakeWatchlist) Watchlist(ctx context.Context) ([]model.Instrument, error) {
	f.calls.Add(1)
	return f.instruments, f.err
}

type fakeCandles struct {
	bySymbol map[string][]model.Candle
	errFor   map[string]error
}

func (f *fakeCandles) Candles(ctx context.Context, instrumentKey, interval string, from, to time.Time) ([]model.Candle, error) {
	if err := f.errFor[instrumentKey]; err != nil {
		return nil, err
	}
	return f.bySymbol[instrumentKey], nil
}

type memKV struct {
	mu   sync.Mutex
	data map[string]string
}

func newMemKV() *memKV { return &memKV{data: make(map[string]string)} }

func (m *memKV) Get(ctx context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *memKV) Set(ctx context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

type captureFeed struct {
	mu     sync.Mutex
	alerts []model.AlertPayload
}

func (c *captureFeed) Publish(symbol string, p model.AlertPayload) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.alerts = append(c.alerts, p)
}

func (c *captureFeed) all() []model.AlertPayload {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]model.AlertPayload, len(c.alerts))
	copy(out, c.alerts)
	return out
}

func testConfig() Config {
	return Config{
		ScanInterval:   time.Minute,
		LookbackDays:   30,
		CandleInterval: "1minute",
		BoxPct:         0.01,
		ReversalLen:    2,
		RSIPeriod:      2,
		RSIOverbought:  60,
		RSIOversold:    40,
	}
}

func bars(hls ...[2]float64) []model.Candle {
	base := time.Date(2026, time.March, 4, 4, 0, 0, 0, time.UTC)
	out := make([]model.Candle, len(hls))
	for i, hl := range hls {
		out[i] = model.Candle{
			Timestamp: base.Add(time.Duration(i) * time.Minute),
			High:      hl[0],
			Low:       hl[1],
			Close:     hl[1],
		}
	}
	return out
}

func newTestScanner(cfg Config, wl *fakeWatchlist, cp *fakeCandles, feed *captureFeed) *Scanner {
	dd := dedup.New(newMemKV(), nil, nil, nil, feed, nil)
	s := New(cfg, wl, cp, dd, nil, nil, nil)
	s.marketOpen = func(time.Time) bool { return true }
	return s
}

func TestRunCycleDoubleTopPipeline(t *testing.T) {
	// Rise one box, reverse down, then break above the first column's top.
	candles := bars(
		[2]float64{100, 100},
		[2]float64{101, 100.5},
		[2]float64{99, 99},
		[2]float64{102.2, 100.2},
	)

	wl := &fakeWatchlist{instruments: []model.Instrument{{Symbol: "TCS", InstrumentKey: "k1"}}}
	cp := &fakeCandles{bySymbol: map[string][]model.Candle{"k1": candles}}
	feed := &captureFeed{}
	s := newTestScanner(testConfig(), wl, cp, feed)

	if err := s.RunCycle(context.Background()); err != nil {
		t.Fatalf("RunCycle: %v", err)
	}

	alerts := feed.all()
	if len(alerts) != 1 {
		t.Fatalf("got %d alerts, want 1: %+v", len(alerts), alerts)
	}
	got := alerts[0]
	if got.PatternType != "double_top_buy" {
		t.Errorf("pattern = %s", got.PatternType)
	}
	// The break box is one percent above the prior top at 101.
	if math.Abs(got.SignalPrice-102.01) > 1e-9 {
		t.Errorf("signal price = %v, want ~102.01", got.SignalPrice)
	}

	// Second cycle with the same chart: dedup suppresses the repeat.
	if err := s.RunCycle(context.Background()); err != nil {
		t.Fatalf("RunCycle: %v", err)
	}
	if alerts := feed.all(); len(alerts) != 1 {
		t.Errorf("repeat cycle delivered again: %+v", alerts)
	}
}

func TestRunCycleRsiPipeline(t *testing.T) {
	// Flat drift down then a sharp rise: RSI(2) crosses above 60 on the
	// final bucket. Candles are spaced a bucket apart so aggregation is 1:1.
	base := time.Date(2026, time.March, 4, 4, 0, 0, 0, time.UTC)
	closes := []float64{100, 99, 99, 105}
	candles := make([]model.Candle, len(closes))
	for i, c := range closes {
		candles[i] = model.Candle{
			Timestamp: base.Add(time.Duration(i) * 3 * time.Minute),
			High:      c, Low: c, Close: c,
		}
	}

	cfg := testConfig()
	cfg.RSIEnabled = true
	wl := &fakeWatchlist{instruments: []model.Instrument{{Symbol: "INFY", InstrumentKey: "k2"}}}
	cp := &fakeCandles{bySymbol: map[string][]model.Candle{"k2": candles}}
	feed := &captureFeed{}
	s := newTestScanner(cfg, wl, cp, feed)

	if err := s.RunCycle(context.Background()); err != nil {
		t.Fatalf("RunCycle: %v", err)
	}

	var rsiAlerts []model.AlertPayload
	for _, a := range feed.all() {
		if a.RsiValue != 0 {
			rsiAlerts = append(rsiAlerts, a)
		}
	}
	if len(rsiAlerts) != 1 {
		t.Fatalf("got %d RSI alerts, want 1: %+v", len(rsiAlerts), feed.all())
	}
	got := rsiAlerts[0]
	if got.Type != "RSI Overbought Alert" || got.AlertType != model.AlertSell {
		t.Errorf("alert = %+v", got)
	}
	if got.SignalPrice != 105 {
		t.Errorf("signal price = %v, want 105", got.SignalPrice)
	}
}

func TestRunCycleMarketClosed(t *testing.T) {
	wl := &fakeWatchlist{instruments: []model.Instrument{{Symbol: "TCS", InstrumentKey: "k1"}}}
	s := newTestScanner(testConfig(), wl, &fakeCandles{}, &captureFeed{})
	s.marketOpen = func(time.Time) bool { return false }

	if err := s.RunCycle(context.Background()); err != nil {
		t.Fatalf("RunCycle: %v", err)
	}
	if wl.calls.Load() != 0 {
		t.Error("watchlist must not be touched outside market hours")
	}
}

func TestRunCycleSymbolErrorIsolation(t *testing.T) {
	candles := bars(
		[2]float64{100, 100},
		[2]float64{101, 100.5},
		[2]float64{99, 99},
		[2]float64{102.2, 100.2},
	)
	wl := &fakeWatchlist{instruments: []model.Instrument{
		{Symbol: "BAD", InstrumentKey: "bad"},
		{Symbol: "TCS", InstrumentKey: "k1"},
	}}
	cp := &fakeCandles{
		bySymbol: map[string][]model.Candle{"k1": candles},
		errFor:   map[string]error{"bad": errors.New("provider timeout")},
	}
	feed := &captureFeed{}
	s := newTestScanner(testConfig(), wl, cp, feed)

	if err := s.RunCycle(context.Background()); err != nil {
		t.Fatalf("cycle must absorb per-symbol failures, got %v", err)
	}
	if len(feed.all()) != 1 {
		t.Errorf("healthy symbol must still alert: %+v", feed.all())
	}
}

func TestRunCycleWatchlistError(t *testing.T) {
	wl := &fakeWatchlist{err: errors.New("sqlite locked")}
	s := newTestScanner(testConfig(), wl, &fakeCandles{}, &captureFeed{})

	if err := s.RunCycle(context.Background()); err == nil {
		t.Error("watchlist failure must surface")
	}
}

func TestRunSingleFlight(t *testing.T) {
	var concurrent, maxConcurrent atomic.Int32
	wl := &fakeWatchlist{}
	cp := &fakeCandles{}
	feed := &captureFeed{}

	cfg := testConfig()
	cfg.ScanInterval = 20 * time.Millisecond

	dd := dedup.New(newMemKV(), nil, nil, nil, feed, nil)
	s := New(cfg, slowWatchlist{wl: wl, concurrent: &concurrent, max: &maxConcurrent, delay: 50 * time.Millisecond}, cp, dd, nil, nil, nil)
	s.marketOpen = func(time.Time) bool { return true }

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	if err := s.Run(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Run returned %v", err)
	}
	// Let any in-flight cycle finish.
	time.Sleep(60 * time.Millisecond)

	if maxConcurrent.Load() > 1 {
		t.Errorf("cycles overlapped: max concurrency %d", maxConcurrent.Load())
	}
	if wl.calls.Load() == 0 {
		t.Error("no cycles ran")
	}
}

func TestRunWaitsForInFlightCycle(t *testing.T) {
	started := make(chan struct{}, 1)
	release := make(chan struct{})
	var finished atomic.Bool

	cfg := testConfig()
	cfg.ScanInterval = 10 * time.Millisecond

	dd := dedup.New(newMemKV(), nil, nil, nil, &captureFeed{}, nil)
	s := New(cfg, blockingWatchlist{started: started, release: release, finished: &finished}, &fakeCandles{}, dd, nil, nil, nil)
	s.marketOpen = func(time.Time) bool { return true }

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	<-started
	cancel()

	// The cycle is still blocked: Run must not come back yet, or the
	// caller would close the stores underneath it.
	select {
	case <-done:
		t.Fatal("Run returned while a cycle was still in flight")
	case <-time.After(30 * time.Millisecond):
	}

	close(release)
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("Run returned %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Run did not return after the cycle finished")
	}
	if !finished.Load() {
		t.Error("cycle must complete before Run returns")
	}
}

// blockingWatchlist parks the first cycle on a channel so tests can hold
// it in flight.
type blockingWatchlist struct {
	started  chan struct{}
	release  chan struct{}
	finished *atomic.Bool
}

func (b blockingWatchlist) Watchlist(ctx context.Context) ([]model.Instrument, error) {
	select {
	case b.started <- struct{}{}:
	default:
	}
	<-b.release
	b.finished.Store(true)
	return nil, nil
}

// slowWatchlist wraps fakeWatchlist with an artificial delay and tracks
// concurrent entries.
type slowWatchlist struct {
	wl         *fakeWatchlist
	concurrent *atomic.Int32
	max        *atomic.Int32
	delay      time.Duration
}

func (s slowWatchlist) Watchlist(ctx context.Context) ([]model.Instrument, error) {
	cur := s.concurrent.Add(1)
	defer s.concurrent.Add(-1)
	for {
		prev := s.max.Load()
		if cur <= prev || s.max.CompareAndSwap(prev, cur) {
			break
		}
	}
	time.Sleep(s.delay)
	return s.wl.Watchlist(ctx)
}
