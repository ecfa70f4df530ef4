// Package dedup decides whether a detected alert is new information or a
// repeat of something already delivered, and drives the delivery side
// effects for the ones that pass.
//
// Two suppression policies exist. The exact-match policy suppresses an
// alert whose signal price equals the last delivered price for the same
// key. The minimum-move policy additionally suppresses alerts whose price
// moved less than 0.5% from the last delivered one, so a pattern that
// keeps re-firing one box higher does not spam the channel.
package dedup

import (
	"context"
	"encoding/json"
	"log"
	"math"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/BalachandraRaju/finns-sub002/internal/model"
)

// Policy selects how a stored last-price suppresses a new alert.
type Policy int

const (
	// PolicyExactMatch suppresses only when the new signal price equals
	// the stored one.
	PolicyExactMatch Policy = iota
	// PolicyMinMove suppresses when the price moved less than minMovePct
	// from the stored one.
	PolicyMinMove
)

// minMovePct is the minimum percentage move required by PolicyMinMove.
const minMovePct = 0.5

// Feed receives every delivered alert for live fan-out. The websocket hub
// satisfies this.
type Feed interface {
	Publish(symbol string, payload model.AlertPayload)
}

// Notifier pushes a delivered alert to an external channel.
type Notifier interface {
	Send(ctx context.Context, symbol string, payload model.AlertPayload) error
}

// Recorder counts dedup outcomes. *metrics.Metrics satisfies this.
type Recorder interface {
	AlertFired(kind string)
	AlertSuppressed(kind string)
	NotifyFailure()
}

// Deduplicator owns the alert lifecycle from "detected" to "delivered".
// All dependencies except kv may be nil; nil ones are skipped.
type Deduplicator struct {
	kv       model.KVStore
	alerts   model.AlertStore
	settings model.SettingsProvider
	notifier Notifier
	feed     Feed
	rec      Recorder

	now func() time.Time

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// New returns a Deduplicator backed by kv for fingerprint state.
func New(kv model.KVStore, alerts model.AlertStore, settings model.SettingsProvider, notifier Notifier, feed Feed, rec Recorder) *Deduplicator {
	return &Deduplicator{
		kv:       kv,
		alerts:   alerts,
		settings: settings,
		notifier: notifier,
		feed:     feed,
		rec:      rec,
		now:      time.Now,
		locks:    make(map[string]*sync.Mutex),
	}
}

// keyLock serialises the read-check-write sequence per dedup key so two
// concurrent detections of the same alert cannot both pass the check.
func (d *Deduplicator) keyLock(key string) *sync.Mutex {
	d.mu.Lock()
	defer d.mu.Unlock()
	l, ok := d.locks[key]
	if !ok {
		l = &sync.Mutex{}
		d.locks[key] = l
	}
	return l
}

func (d *Deduplicator) currentSettings(ctx context.Context) model.Settings {
	if d.settings == nil {
		return nil
	}
	s, err := d.settings.Settings(ctx)
	if err != nil {
		log.Printf("[dedup] settings fetch failed, using defaults: %v", err)
		return nil
	}
	return s
}

// HandlePattern runs a pattern alert through the settings gates and the
// minimum-move dedup policy, and performs delivery if it survives.
// The returned bool reports whether the alert was delivered.
func (d *Deduplicator) HandlePattern(ctx context.Context, inst model.Instrument, alert *model.PatternAlert) (bool, error) {
	if alert == nil {
		return false, nil
	}
	s := d.currentSettings(ctx)
	if !s.Enabled(model.SettingPatternAlerts, true) {
		return false, nil
	}
	if s.Enabled(model.SettingSuperAlertsOnly, false) && !alert.Super {
		return false, nil
	}
	if !categoryEnabled(s, alert.PatternType) {
		return false, nil
	}

	key := PatternKey(inst.Symbol, alert.PatternType)
	payload := alert.Payload()
	recordID, passed, err := d.passAndRecord(ctx, key, alert.SignalPrice, PolicyMinMove, inst, payload)
	if err != nil {
		return false, err
	}
	if !passed {
		if d.rec != nil {
			d.rec.AlertSuppressed("pattern")
		}
		return false, nil
	}
	if d.rec != nil {
		d.rec.AlertFired("pattern")
	}
	d.deliver(ctx, inst, payload, s, recordID)
	return true, nil
}

// HandleRsi runs an RSI alert through the exact-match dedup policy and
// performs delivery if it survives. RSI alerts have no per-category gates.
func (d *Deduplicator) HandleRsi(ctx context.Context, inst model.Instrument, alert *model.RsiAlert) (bool, error) {
	if alert == nil {
		return false, nil
	}
	s := d.currentSettings(ctx)

	key := ExactKey(inst.Symbol, alert.Name())
	payload := alert.Payload()
	recordID, passed, err := d.passAndRecord(ctx, key, alert.SignalPrice, PolicyExactMatch, inst, payload)
	if err != nil {
		return false, err
	}
	if !passed {
		if d.rec != nil {
			d.rec.AlertSuppressed("rsi")
		}
		return false, nil
	}
	if d.rec != nil {
		d.rec.AlertFired("rsi")
	}
	d.deliver(ctx, inst, payload, s, recordID)
	return true, nil
}

// passAndRecord holds the per-key lock across the read, the policy check,
// the history write and the fingerprint write. The history row is written
// before the fingerprint: a failure or crash between the two re-alerts on
// the next cycle instead of leaving a fingerprint with no durable record.
// A failed history write alone is logged and does not stop the alert.
func (d *Deduplicator) passAndRecord(ctx context.Context, key string, price float64, policy Policy, inst model.Instrument, payload model.AlertPayload) (int64, bool, error) {
	l := d.keyLock(key)
	l.Lock()
	defer l.Unlock()

	stored, ok, err := d.kv.Get(ctx, key)
	if err != nil {
		log.Printf("[dedup] get %s failed: %v", key, err)
		return 0, false, err
	}
	if ok {
		last, perr := strconv.ParseFloat(stored, 64)
		if perr != nil {
			// Corrupt fingerprint. Treat as absent so the alert
			// flows and the value gets rewritten below.
			log.Printf("[dedup] corrupt value at %s: %q", key, stored)
		} else if suppressed(policy, last, price) {
			return 0, false, nil
		}
	}

	var recordID int64
	if d.alerts != nil {
		id, err := d.alerts.SaveAlert(ctx, inst.Symbol, inst.InstrumentKey, payload)
		if err != nil {
			log.Printf("[dedup] persist alert for %s failed: %v", inst.Symbol, err)
		} else {
			recordID = id
		}
	}

	if err := d.kv.Set(ctx, key, strconv.FormatFloat(price, 'f', -1, 64)); err != nil {
		log.Printf("[dedup] set %s failed: %v", key, err)
		return recordID, false, err
	}
	return recordID, true, nil
}

func suppressed(policy Policy, last, price float64) bool {
	switch policy {
	case PolicyMinMove:
		if last == price {
			return true
		}
		if last == 0 {
			return false
		}
		move := math.Abs(price-last) / last * 100
		return move < minMovePct
	default:
		return last == price
	}
}

// deliver performs the remaining side effects for an alert that passed
// dedup and was recorded. The display cache and feed happen before
// notification, and a notification failure never rolls anything back.
func (d *Deduplicator) deliver(ctx context.Context, inst model.Instrument, payload model.AlertPayload, s model.Settings, recordID int64) {
	latest := model.LatestAlert{
		AlertPayload: payload,
		Timestamp:    d.now().UTC(),
		RecordID:     recordID,
	}
	if data, err := json.Marshal(latest); err == nil {
		if err := d.kv.Set(ctx, LatestKey(inst.Symbol), string(data)); err != nil {
			log.Printf("[dedup] cache latest alert for %s failed: %v", inst.Symbol, err)
		}
	}

	if d.feed != nil {
		d.feed.Publish(inst.Symbol, payload)
	}

	if d.notifier != nil && s.Enabled(model.SettingTelegramAlerts, true) {
		if err := d.notifier.Send(ctx, inst.Symbol, payload); err != nil {
			log.Printf("[dedup] notify %s %s failed: %v", inst.Symbol, payload.Type, err)
			if d.rec != nil {
				d.rec.NotifyFailure()
			}
		}
	}
}

// categoryEnabled maps a pattern type onto its settings toggle. Unknown
// categories are allowed through.
func categoryEnabled(s model.Settings, patternType string) bool {
	switch {
	case strings.Contains(patternType, "quadruple"):
		return s.Enabled(model.SettingQuadrupleTopBottom, true)
	case strings.Contains(patternType, "double"):
		return s.Enabled(model.SettingDoubleTopBottom, true)
	case strings.Contains(patternType, "triple"):
		return s.Enabled(model.SettingTripleTopBottom, true)
	case strings.Contains(patternType, "pole"):
		return s.Enabled(model.SettingPolePatterns, true)
	case strings.Contains(patternType, "catapult"):
		return s.Enabled(model.SettingCatapultPatterns, true)
	}
	return true
}
