package fib

import (
	"math"
	"strings"
	"testing"

	"github.com/BalachandraRaju/finns-sub002/internal/model"
)

func TestComputeLevels(t *testing.T) {
	prices := []float64{100, 150, 120, 200, 180}
	l := Compute(prices)
	if l == nil {
		t.Fatal("expected levels")
	}
	if l.SwingLow != 100 || l.SwingHigh != 200 {
		t.Errorf("swing = %v..%v, want 100..200", l.SwingLow, l.SwingHigh)
	}
	cases := map[string]float64{
		Level0:   200,
		Level236: 176.4,
		Level382: 161.8,
		Level500: 150,
		Level618: 138.2,
		Level786: 121.4,
		Level100: 100,
	}
	for name, want := range cases {
		if got := l.Price(name); math.Abs(got-want) > 1e-9 {
			t.Errorf("%s = %v, want %v", name, got, want)
		}
	}
}

func TestComputeDegenerate(t *testing.T) {
	if l := Compute(nil); l != nil {
		t.Error("expected nil for empty series")
	}
	if l := Compute([]float64{150, 150, 150}); l != nil {
		t.Error("expected nil for flat series")
	}
}

func TestClosest(t *testing.T) {
	l := Compute([]float64{100, 200})

	// 138.5 is within 1% of the 61.8% level at 138.2.
	if got := l.Closest(138.5); got != Level618 {
		t.Errorf("Closest(138.5) = %q, want %q", got, Level618)
	}
	// 144 sits between levels, outside the 1% proximity of each.
	if got := l.Closest(144); got != "" {
		t.Errorf("Closest(144) = %q, want none", got)
	}
}

func TestSuperLevelSets(t *testing.T) {
	for _, name := range []string{Level618, Level500, Level382} {
		if !IsSuperBuyLevel(name) {
			t.Errorf("%s should be a super buy level", name)
		}
	}
	if IsSuperBuyLevel(Level236) {
		t.Error("23.6% is not a super buy level")
	}
	for _, name := range []string{Level382, Level236, Level0} {
		if !IsSuperSellLevel(name) {
			t.Errorf("%s should be a super sell level", name)
		}
	}
	if IsSuperSellLevel(Level618) {
		t.Error("61.8% is not a super sell level")
	}
}

func TestUpgradeBuyAtGoldenRatio(t *testing.T) {
	chart := []float64{100, 200}
	alert := &model.PatternAlert{
		Name:          "P&F Buy Signal",
		PatternType:   "double_top_buy",
		AlertType:     model.AlertBuy,
		SignalPrice:   138.5,
		TriggerReason: "DOUBLE TOP BUY: price 138.50 breaks above previous top 138.00",
	}

	got := Upgrade(alert, chart)
	if !got.Super {
		t.Fatal("expected super upgrade at the 61.8% level")
	}
	if got.FibLevel != Level618 {
		t.Errorf("fib level = %q, want %q", got.FibLevel, Level618)
	}
	if !strings.HasPrefix(got.TriggerReason, "SUPER BUY: ") {
		t.Errorf("trigger reason = %q", got.TriggerReason)
	}
}

func TestUpgradeDirectionMismatch(t *testing.T) {
	chart := []float64{100, 200}
	// A sell at the golden ratio support is not a super sell.
	alert := &model.PatternAlert{
		AlertType:   model.AlertSell,
		SignalPrice: 138.2,
	}
	got := Upgrade(alert, chart)
	if got.Super {
		t.Errorf("sell at a buy level must not upgrade: %+v", got)
	}
}

func TestUpgradeBetweenLevels(t *testing.T) {
	chart := []float64{100, 200}
	alert := &model.PatternAlert{
		AlertType:   model.AlertBuy,
		SignalPrice: 144,
	}
	if got := Upgrade(alert, chart); got.Super {
		t.Errorf("price between levels must not upgrade: %+v", got)
	}
}

func TestUpgradeFlatChart(t *testing.T) {
	alert := &model.PatternAlert{AlertType: model.AlertBuy, SignalPrice: 100}
	if got := Upgrade(alert, []float64{100, 100}); got.Super {
		t.Error("flat chart has no levels to upgrade against")
	}
}
