package model

import (
	"encoding/json"
	"time"
)

// AlertType classifies the trade direction of an alert.
type AlertType string

const (
	AlertBuy  AlertType = "BUY"
	AlertSell AlertType = "SELL"
)

// PatternAlert is a positive P&F pattern detection on the latest column.
// Produced fresh per detector call, never mutated.
type PatternAlert struct {
	Name          string    // display name, e.g. "Triple Top Breakout"
	PatternType   string    // stable identifier, e.g. "triple_top_buy"
	AlertType     AlertType // BUY for breakouts, SELL for breakdowns
	SignalPrice   float64   // first box beyond resistance/support
	Column        int       // chart column the signal fired on
	TriggerReason string
	Super         bool   // upgraded by the fibonacci classifier
	FibLevel      string // retracement level backing the upgrade, e.g. "61.8%"
}

// RsiDirection tags which threshold an RSI crossing alert refers to.
type RsiDirection string

const (
	RsiOverbought RsiDirection = "overbought"
	RsiOversold   RsiDirection = "oversold"
)

// RsiAlert is a momentum threshold-crossing detection.
type RsiAlert struct {
	Direction   RsiDirection
	SignalPrice float64 // latest close at crossing time
	Value       float64 // current RSI, 0-100
	Threshold   float64
	Period      int
}

// Name returns the display name used as the alert's wire type.
func (a RsiAlert) Name() string {
	if a.Direction == RsiOverbought {
		return "RSI Overbought Alert"
	}
	return "RSI Oversold Alert"
}

// AlertType maps an RSI crossing to a trade direction: oversold recoveries
// are buys, overbought extensions are sells.
func (a RsiAlert) AlertType() AlertType {
	if a.Direction == RsiOversold {
		return AlertBuy
	}
	return AlertSell
}

// AlertPayload is the single wire shape shared by persistence, the display
// cache, the websocket feed, and notification delivery. Pattern and RSI
// variants are converted to it once, at the dedup boundary.
type AlertPayload struct {
	Type          string    `json:"type"`
	SignalPrice   float64   `json:"signal_price"`
	PatternType   string    `json:"pattern_type,omitempty"`
	AlertType     AlertType `json:"alert_type,omitempty"`
	Column        int       `json:"column,omitempty"`
	TriggerReason string    `json:"trigger_reason,omitempty"`
	RsiValue      float64   `json:"rsi_value,omitempty"`
	Threshold     float64   `json:"threshold,omitempty"`
	Period        int       `json:"period,omitempty"`
	IsSuperAlert  bool      `json:"is_super_alert,omitempty"`
}

// Payload serializes a pattern alert to the wire shape.
func (a PatternAlert) Payload() AlertPayload {
	return AlertPayload{
		Type:          a.Name,
		SignalPrice:   a.SignalPrice,
		PatternType:   a.PatternType,
		AlertType:     a.AlertType,
		Column:        a.Column,
		TriggerReason: a.TriggerReason,
		IsSuperAlert:  a.Super,
	}
}

// Payload serializes an RSI alert to the wire shape.
func (a RsiAlert) Payload() AlertPayload {
	return AlertPayload{
		Type:        a.Name(),
		SignalPrice: a.SignalPrice,
		AlertType:   a.AlertType(),
		RsiValue:    a.Value,
		Threshold:   a.Threshold,
		Period:      a.Period,
	}
}

// LatestAlert is the per-symbol display-cache entry stored under
// "latest_alert:<symbol>" for the watchlist UI.
type LatestAlert struct {
	AlertPayload
	Timestamp time.Time `json:"timestamp"`
	RecordID  int64     `json:"record_id,omitempty"`
}

// JSON returns the JSON encoding of the cache entry.
func (l *LatestAlert) JSON() []byte {
	b, _ := json.Marshal(l)
	return b
}
