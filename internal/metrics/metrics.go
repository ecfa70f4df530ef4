// Package metrics exposes Prometheus metrics and the health endpoint for
// the alert scanner.
package metrics

import (
	"context"
	"database/sql"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Pinger probes a dependency. Both stores satisfy this.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Metrics holds all Prometheus metrics for the scanner.
type Metrics struct {
	ScanCyclesTotal  prometheus.Counter
	ScanSkippedTotal *prometheus.CounterVec // labels: reason=market_closed|in_flight
	SymbolsScanned   prometheus.Counter
	ScanErrorsTotal  prometheus.Counter
	ScanCycleDur     prometheus.Histogram
	SymbolScanDur    prometheus.Histogram

	AlertsFiredTotal      *prometheus.CounterVec // labels: kind=pattern|rsi
	AlertsSuppressedTotal *prometheus.CounterVec // labels: kind=pattern|rsi
	NotifyFailuresTotal   prometheus.Counter

	MarketState   prometheus.Gauge // 0=closed, 1=open
	WSClients     prometheus.Gauge
	CandleFetches prometheus.Counter
}

// New registers and returns all scanner metrics.
func New() *Metrics {
	m := &Metrics{
		ScanCyclesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "alertd_scan_cycles_total",
			Help: "Completed scan cycles",
		}),
		ScanSkippedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "alertd_scan_skipped_total",
			Help: "Scan cycles skipped, by reason",
		}, []string{"reason"}),
		SymbolsScanned: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "alertd_symbols_scanned_total",
			Help: "Symbols scanned across all cycles",
		}),
		ScanErrorsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "alertd_scan_errors_total",
			Help: "Per-symbol scan failures",
		}),
		ScanCycleDur: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "alertd_scan_cycle_duration_seconds",
			Help:    "Full cycle wall time",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
		SymbolScanDur: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "alertd_symbol_scan_duration_seconds",
			Help:    "Per-symbol scan time (fetch, chart, detect)",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}),
		AlertsFiredTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "alertd_alerts_fired_total",
			Help: "Alerts that passed dedup and were delivered",
		}, []string{"kind"}),
		AlertsSuppressedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "alertd_alerts_suppressed_total",
			Help: "Alerts suppressed by dedup",
		}, []string{"kind"}),
		NotifyFailuresTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "alertd_notify_failures_total",
			Help: "Notification delivery failures",
		}),
		MarketState: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "alertd_market_state",
			Help: "Market session state (0=closed, 1=open)",
		}),
		WSClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "alertd_ws_clients",
			Help: "Connected websocket clients",
		}),
		CandleFetches: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "alertd_candle_fetches_total",
			Help: "Candle history fetches",
		}),
	}

	prometheus.MustRegister(
		m.ScanCyclesTotal,
		m.ScanSkippedTotal,
		m.SymbolsScanned,
		m.ScanErrorsTotal,
		m.ScanCycleDur,
		m.SymbolScanDur,
		m.AlertsFiredTotal,
		m.AlertsSuppressedTotal,
		m.NotifyFailuresTotal,
		m.MarketState,
		m.WSClients,
		m.CandleFetches,
	)
	return m
}

// AlertFired satisfies the dedup Recorder contract.
func (m *Metrics) AlertFired(kind string) { m.AlertsFiredTotal.WithLabelValues(kind).Inc() }

// AlertSuppressed satisfies the dedup Recorder contract.
func (m *Metrics) AlertSuppressed(kind string) { m.AlertsSuppressedTotal.WithLabelValues(kind).Inc() }

// NotifyFailure satisfies the dedup Recorder contract.
func (m *Metrics) NotifyFailure() { m.NotifyFailuresTotal.Inc() }

// HealthStatus tracks dependency health for /healthz.
type HealthStatus struct {
	mu sync.RWMutex

	RedisConnected  bool
	SQLiteOK        bool
	LastCycleAt     time.Time
	RedisLatencyMs  float64
	SQLiteLatencyMs float64
	LastCheckAt     time.Time
	StartedAt       time.Time
}

func NewHealthStatus() *HealthStatus {
	return &HealthStatus{StartedAt: time.Now()}
}

func (h *HealthStatus) SetLastCycle(t time.Time) {
	h.mu.Lock()
	h.LastCycleAt = t
	h.mu.Unlock()
}

// CheckRedis probes the KV store and records latency.
func (h *HealthStatus) CheckRedis(ctx context.Context, p Pinger) {
	start := time.Now()
	err := p.Ping(ctx)
	latency := time.Since(start)

	h.mu.Lock()
	h.RedisConnected = err == nil
	h.RedisLatencyMs = float64(latency.Microseconds()) / 1000.0
	h.LastCheckAt = time.Now()
	h.mu.Unlock()
}

// CheckSQLite probes the durable store and records latency.
func (h *HealthStatus) CheckSQLite(ctx context.Context, db *sql.DB) {
	start := time.Now()
	err := db.PingContext(ctx)
	latency := time.Since(start)

	h.mu.Lock()
	h.SQLiteOK = err == nil
	h.SQLiteLatencyMs = float64(latency.Microseconds()) / 1000.0
	h.LastCheckAt = time.Now()
	h.mu.Unlock()
}

// StartLivenessChecker runs periodic dependency probes until ctx ends.
func (h *HealthStatus) StartLivenessChecker(ctx context.Context, redis Pinger, db *sql.DB, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				probeCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
				if redis != nil {
					h.CheckRedis(probeCtx, redis)
				}
				if db != nil {
					h.CheckSQLite(probeCtx, db)
				}
				cancel()
			}
		}
	}()
}

// ServeHTTP handles the /healthz endpoint.
func (h *HealthStatus) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	overall := "healthy"
	code := http.StatusOK
	if !h.RedisConnected || !h.SQLiteOK {
		overall = "degraded"
		code = http.StatusServiceUnavailable
	}
	if !h.RedisConnected && !h.SQLiteOK {
		overall = "unhealthy"
	}

	lastCycle := ""
	if !h.LastCycleAt.IsZero() {
		lastCycle = h.LastCycleAt.Format(time.RFC3339)
	}

	status := struct {
		Status          string  `json:"status"`
		Uptime          string  `json:"uptime"`
		RedisConnected  bool    `json:"redis_connected"`
		RedisLatencyMs  float64 `json:"redis_latency_ms"`
		SQLiteOK        bool    `json:"sqlite_ok"`
		SQLiteLatencyMs float64 `json:"sqlite_latency_ms"`
		LastCycleAt     string  `json:"last_cycle_at"`
		LastCheckAt     string  `json:"last_check_at"`
	}{
		Status:          overall,
		Uptime:          time.Since(h.StartedAt).Round(time.Second).String(),
		RedisConnected:  h.RedisConnected,
		RedisLatencyMs:  h.RedisLatencyMs,
		SQLiteOK:        h.SQLiteOK,
		SQLiteLatencyMs: h.SQLiteLatencyMs,
		LastCycleAt:     lastCycle,
		LastCheckAt:     h.LastCheckAt.Format(time.RFC3339),
	}

	w.Header().Set("Content-Type", "application/json")
	if code != http.StatusOK {
		w.WriteHeader(code)
	}
	json.NewEncoder(w).Encode(status)
}

// Server exposes /metrics, /healthz and the websocket alert feed.
type Server struct {
	addr string
	srv  *http.Server
}

// NewServer builds the HTTP server. wsHandler may be nil when the feed is
// disabled.
func NewServer(addr string, health *HealthStatus, wsHandler http.Handler) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", health.ServeHTTP)
	if wsHandler != nil {
		mux.Handle("/ws/alerts", wsHandler)
	}
	return &Server{
		addr: addr,
		srv:  &http.Server{Addr: addr, Handler: mux},
	}
}

// Start launches the HTTP server in a goroutine.
func (s *Server) Start() {
	go func() {
		log.Printf("[metrics] server listening on %s", s.addr)
		if err := s.srv.ListenAndServe(); err != http.ErrServerClosed {
			log.Printf("[metrics] server error: %v", err)
		}
	}()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) {
	s.srv.Shutdown(ctx)
}
