package notification

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/BalachandraRaju/finns-sub002/internal/model"
)

func TestWebhookNotifierSend(t *testing.T) {
	var got webhookPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("content type = %q", ct)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n := NewWebhookNotifier(srv.URL)
	p := model.AlertPayload{
		Type:        "Double Top Buy",
		PatternType: "double_top_buy",
		AlertType:   model.AlertBuy,
		SignalPrice: 101.5,
	}
	if err := n.Send(context.Background(), "TCS", p); err != nil {
		t.Fatalf("send: %v", err)
	}

	if got.Symbol != "TCS" || got.SignalPrice != 101.5 {
		t.Errorf("payload = %+v", got)
	}
	if !strings.Contains(got.Message, "Double Top Buy") {
		t.Errorf("message = %q", got.Message)
	}
}

func TestWebhookNotifierNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	n := NewWebhookNotifier(srv.URL)
	if err := n.Send(context.Background(), "TCS", model.AlertPayload{Type: "x"}); err == nil {
		t.Fatal("expected error on 502")
	}
}

func TestFormatMessage(t *testing.T) {
	super := model.AlertPayload{
		Type:          "Triple Top Breakout",
		AlertType:     model.AlertBuy,
		SignalPrice:   250.75,
		TriggerReason: "TRIPLE TOP BUY: price 250.75 breaks above previous tops 250.00",
		IsSuperAlert:  true,
	}
	msg := FormatMessage("INFY", super)
	if !strings.Contains(msg, "SUPER ALERT") {
		t.Errorf("super alert banner missing: %q", msg)
	}
	if !strings.Contains(msg, "INFY: Triple Top Breakout") {
		t.Errorf("headline missing: %q", msg)
	}

	rsi := model.AlertPayload{
		Type:        "RSI Oversold Alert",
		AlertType:   model.AlertBuy,
		SignalPrice: 98.2,
		RsiValue:    37.1,
		Threshold:   40,
		Period:      9,
	}
	msg = FormatMessage("TCS", rsi)
	if !strings.Contains(msg, "RSI(9): 37.10 (threshold 40)") {
		t.Errorf("rsi line missing: %q", msg)
	}
	if !strings.Contains(msg, "BUY ALERT") {
		t.Errorf("buy banner missing: %q", msg)
	}
}
