// Package notification delivers fired alerts to external channels
// (Telegram, generic webhooks) and to the log.
package notification

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/BalachandraRaju/finns-sub002/internal/model"
)

// Notifier is a delivery backend for fired alerts.
type Notifier interface {
	// Send delivers one alert. Returns an error if delivery fails.
	Send(ctx context.Context, symbol string, p model.AlertPayload) error
}

// LogNotifier writes alerts to the process log. Used in development and
// when no external channel is configured.
type LogNotifier struct{}

func NewLogNotifier() *LogNotifier { return &LogNotifier{} }

func (n *LogNotifier) Send(ctx context.Context, symbol string, p model.AlertPayload) error {
	log.Printf("[notify] %s %s @ %.2f (%s)", symbol, p.Type, p.SignalPrice, p.AlertType)
	return nil
}

// Multi fans an alert out to several backends. All backends are attempted;
// the first error is returned.
type Multi []Notifier

func (m Multi) Send(ctx context.Context, symbol string, p model.AlertPayload) error {
	var first error
	for _, n := range m {
		if err := n.Send(ctx, symbol, p); err != nil {
			log.Printf("[notify] backend %T failed for %s: %v", n, symbol, err)
			if first == nil {
				first = err
			}
		}
	}
	return first
}

// FormatMessage renders the human-readable alert text shared by the
// Telegram and webhook backends.
func FormatMessage(symbol string, p model.AlertPayload) string {
	var b strings.Builder

	switch {
	case p.IsSuperAlert:
		b.WriteString("🔥 SUPER ALERT\n")
	case p.AlertType == model.AlertBuy:
		b.WriteString("🟢 BUY ALERT\n")
	case p.AlertType == model.AlertSell:
		b.WriteString("🔴 SELL ALERT\n")
	}

	fmt.Fprintf(&b, "%s: %s\n", symbol, p.Type)
	fmt.Fprintf(&b, "Price: %.2f", p.SignalPrice)
	if p.RsiValue != 0 {
		fmt.Fprintf(&b, "\nRSI(%d): %.2f (threshold %.0f)", p.Period, p.RsiValue, p.Threshold)
	}
	if p.TriggerReason != "" {
		fmt.Fprintf(&b, "\n%s", p.TriggerReason)
	}
	return b.String()
}
