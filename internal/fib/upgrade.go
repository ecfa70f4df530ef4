package fib

import (
	"fmt"

	"github.com/BalachandraRaju/finns-sub002/internal/model"
)

// Upgrade promotes a pattern alert to a super alert when its signal price
// sits on a strong retracement level for the alert's direction. The chart
// prices are all plotted box prices of the chart the alert came from.
// Alerts that do not qualify are returned unchanged.
func Upgrade(alert *model.PatternAlert, chartPrices []float64) *model.PatternAlert {
	if alert == nil {
		return nil
	}
	levels := Compute(chartPrices)
	if levels == nil {
		return alert
	}
	name := levels.Closest(alert.SignalPrice)
	if name == "" {
		return alert
	}

	switch alert.AlertType {
	case model.AlertBuy:
		if !IsSuperBuyLevel(name) {
			return alert
		}
		alert.TriggerReason = fmt.Sprintf("SUPER BUY: %s at fib support %s (%.2f)", alert.TriggerReason, name, levels.Price(name))
	case model.AlertSell:
		if !IsSuperSellLevel(name) {
			return alert
		}
		alert.TriggerReason = fmt.Sprintf("SUPER SELL: %s at fib resistance %s (%.2f)", alert.TriggerReason, name, levels.Price(name))
	default:
		return alert
	}

	alert.Super = true
	alert.FibLevel = name
	return alert
}
