package model

import (
	"context"
	"time"
)

// ── Collaborator Port Interfaces ──
// These interfaces decouple the alert engine from concrete collaborators
// (Redis, SQLite, the data provider). Each implementation satisfies one or
// more of these interfaces; tests substitute in-memory fakes.

// WatchlistProvider returns the ordered list of instruments to scan.
type WatchlistProvider interface {
	// Watchlist returns all watchlist entries in display order.
	Watchlist(ctx context.Context) ([]Instrument, error)
}

// CandleProvider serves historical candles for an instrument.
// A provider may fetch remotely or read a local store; callers must tolerate
// both empty results and errors.
type CandleProvider interface {
	// Candles returns candles for [from, to] at the given interval
	// (e.g. "1minute"), ordered by timestamp ascending.
	Candles(ctx context.Context, instrumentKey, interval string, from, to time.Time) ([]Candle, error)
}

// SettingsProvider loads the user's alert settings.
type SettingsProvider interface {
	Settings(ctx context.Context) (Settings, error)
}

// KVStore is the dedup key-value store: last-alerted signal prices and the
// per-symbol display cache.
type KVStore interface {
	// Get returns the value for key. The boolean reports whether the key
	// exists; a missing key is not an error.
	Get(ctx context.Context, key string) (string, bool, error)

	// Set stores value under key with no expiry.
	Set(ctx context.Context, key, value string) error
}

// AlertStore persists the append-only alert history.
type AlertStore interface {
	// SaveAlert writes one historical alert row and returns its record id.
	SaveAlert(ctx context.Context, symbol, instrumentKey string, p AlertPayload) (int64, error)
}
