// Package sqlite is the durable store: the scan watchlist, user settings,
// historical candles and the persisted alert log.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/BalachandraRaju/finns-sub002/internal/model"

	_ "github.com/mattn/go-sqlite3"
)

// Store owns the SQLite database. A single write connection is enforced;
// WAL mode keeps readers unblocked.
type Store struct {
	db *sql.DB
}

// Open opens (and if needed creates) the database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("sqlite open: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite schema: %w", err)
	}

	log.Printf("[sqlite] opened database at %s", path)
	return &Store{db: db}, nil
}

// DB returns the underlying sql.DB for health checks.
func (s *Store) DB() *sql.DB { return s.db }

func createSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS watchlist (
			symbol         TEXT PRIMARY KEY,
			instrument_key TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS settings (
			name  TEXT PRIMARY KEY,
			value INTEGER NOT NULL
		);

		CREATE TABLE IF NOT EXISTS candles (
			instrument_key TEXT    NOT NULL,
			interval       TEXT    NOT NULL,
			ts             INTEGER NOT NULL,
			open           REAL    NOT NULL,
			high           REAL    NOT NULL,
			low            REAL    NOT NULL,
			close          REAL    NOT NULL,
			volume         INTEGER,
			PRIMARY KEY (instrument_key, interval, ts)
		);

		CREATE TABLE IF NOT EXISTS alerts (
			id             INTEGER PRIMARY KEY AUTOINCREMENT,
			symbol         TEXT    NOT NULL,
			instrument_key TEXT    NOT NULL,
			alert_type     TEXT    NOT NULL,
			signal_price   REAL    NOT NULL,
			payload        TEXT    NOT NULL,
			created_at     INTEGER NOT NULL DEFAULT (strftime('%s', 'now'))
		);
		CREATE INDEX IF NOT EXISTS idx_alerts_symbol ON alerts (symbol, created_at);
	`)
	return err
}

// Watchlist returns all instruments to scan.
func (s *Store) Watchlist(ctx context.Context) ([]model.Instrument, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT symbol, instrument_key FROM watchlist ORDER BY symbol`)
	if err != nil {
		return nil, fmt.Errorf("sqlite watchlist: %w", err)
	}
	defer rows.Close()

	var out []model.Instrument
	for rows.Next() {
		var inst model.Instrument
		if err := rows.Scan(&inst.Symbol, &inst.InstrumentKey); err != nil {
			return nil, err
		}
		out = append(out, inst)
	}
	return out, rows.Err()
}

// UpsertWatchlist adds or replaces a watchlist entry.
func (s *Store) UpsertWatchlist(ctx context.Context, inst model.Instrument) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO watchlist (symbol, instrument_key) VALUES (?, ?)`,
		inst.Symbol, inst.InstrumentKey)
	return err
}

// Settings returns all boolean settings. Names absent from the table fall
// back to defaults at the read site.
func (s *Store) Settings(ctx context.Context) (model.Settings, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name, value FROM settings`)
	if err != nil {
		return nil, fmt.Errorf("sqlite settings: %w", err)
	}
	defer rows.Close()

	out := make(model.Settings)
	for rows.Next() {
		var name string
		var value int
		if err := rows.Scan(&name, &value); err != nil {
			return nil, err
		}
		out[name] = value != 0
	}
	return out, rows.Err()
}

// SetSetting writes a boolean setting.
func (s *Store) SetSetting(ctx context.Context, name string, value bool) error {
	v := 0
	if value {
		v = 1
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO settings (name, value) VALUES (?, ?)`, name, v)
	return err
}

// Candles returns candles for an instrument ordered by timestamp.
func (s *Store) Candles(ctx context.Context, instrumentKey, interval string, from, to time.Time) ([]model.Candle, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT ts, open, high, low, close, COALESCE(volume, 0)
		FROM candles
		WHERE instrument_key = ? AND interval = ? AND ts >= ? AND ts < ?
		ORDER BY ts`,
		instrumentKey, interval, from.Unix(), to.Unix())
	if err != nil {
		return nil, fmt.Errorf("sqlite candles %s: %w", instrumentKey, err)
	}
	defer rows.Close()

	var out []model.Candle
	for rows.Next() {
		var c model.Candle
		var ts int64
		if err := rows.Scan(&ts, &c.Open, &c.High, &c.Low, &c.Close, &c.Volume); err != nil {
			return nil, err
		}
		c.Timestamp = time.Unix(ts, 0).UTC()
		out = append(out, c)
	}
	return out, rows.Err()
}

// InsertCandles writes a batch of candles in one transaction.
func (s *Store) InsertCandles(ctx context.Context, instrumentKey, interval string, candles []model.Candle) error {
	if len(candles) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	stmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO candles (instrument_key, interval, ts, open, high, low, close, volume)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return err
	}
	defer stmt.Close()

	for _, c := range candles {
		if _, err := stmt.Exec(instrumentKey, interval, c.Timestamp.Unix(), c.Open, c.High, c.Low, c.Close, c.Volume); err != nil {
			tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

// SaveAlert persists a delivered alert and returns its row id.
func (s *Store) SaveAlert(ctx context.Context, symbol, instrumentKey string, p model.AlertPayload) (int64, error) {
	payload, err := json.Marshal(p)
	if err != nil {
		return 0, fmt.Errorf("marshal alert payload: %w", err)
	}
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO alerts (symbol, instrument_key, alert_type, signal_price, payload)
		VALUES (?, ?, ?, ?, ?)`,
		symbol, instrumentKey, p.Type, p.SignalPrice, string(payload))
	if err != nil {
		return 0, fmt.Errorf("sqlite insert alert: %w", err)
	}
	return res.LastInsertId()
}

// RecentAlerts returns the newest persisted alerts, most recent first.
func (s *Store) RecentAlerts(ctx context.Context, limit int) ([]model.LatestAlert, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, payload, created_at FROM alerts ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("sqlite recent alerts: %w", err)
	}
	defer rows.Close()

	var out []model.LatestAlert
	for rows.Next() {
		var (
			la      model.LatestAlert
			payload string
			ts      int64
		)
		if err := rows.Scan(&la.RecordID, &payload, &ts); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(payload), &la.AlertPayload); err != nil {
			log.Printf("[sqlite] skip corrupt alert row %d: %v", la.RecordID, err)
			continue
		}
		la.Timestamp = time.Unix(ts, 0).UTC()
		out = append(out, la)
	}
	return out, rows.Err()
}

// Ping probes the database. Used by the health endpoint.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}
