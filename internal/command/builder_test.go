package command

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"tradebot/internal/domain"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestBuildOrderRequestMarket(t *testing.T) {
	req, err := BuildOrderRequest(SplitArgs("market buy 10 aapl day"), false)
	if err != nil {
		t.Fatalf("BuildOrderRequest() error = %v", err)
	}
	if req.Kind != domain.OrderKindMarket {
		t.Errorf("Kind = %q, want %q", req.Kind, domain.OrderKindMarket)
	}
	if req.Side != domain.OrderSideBuy {
		t.Errorf("Side = %q, want %q", req.Side, domain.OrderSideBuy)
	}
	if req.Qty.String() != "10" {
		t.Errorf("Qty = %s, want 10", req.Qty)
	}
	if req.Symbol != "AAPL" {
		t.Errorf("Symbol = %q, want %q", req.Symbol, "AAPL")
	}
	if req.TimeInForce != "day" {
		t.Errorf("TimeInForce = %q, want %q", req.TimeInForce, "day")
	}
	if req.LimitPrice != nil || req.StopPrice != nil {
		t.Errorf("market order carries prices: limit=%v stop=%v", req.LimitPrice, req.StopPrice)
	}
}

func TestBuildOrderRequestLimit(t *testing.T) {
	req, err := BuildOrderRequest(SplitArgs("limit sell 5 tsla gtc 250.00"), false)
	if err != nil {
		t.Fatalf("BuildOrderRequest() error = %v", err)
	}
	if req.LimitPrice == nil || !req.LimitPrice.Equal(dec("250.00")) {
		t.Errorf("LimitPrice = %v, want 250.00", req.LimitPrice)
	}
	if req.StopPrice != nil {
		t.Errorf("StopPrice = %v, want nil", req.StopPrice)
	}
}

func TestBuildOrderRequestStop(t *testing.T) {
	req, err := BuildOrderRequest(SplitArgs("stop sell 2 nvda day 800"), false)
	if err != nil {
		t.Fatalf("BuildOrderRequest() error = %v", err)
	}
	if req.StopPrice == nil || !req.StopPrice.Equal(dec("800")) {
		t.Errorf("StopPrice = %v, want 800", req.StopPrice)
	}
	if req.LimitPrice != nil {
		t.Errorf("LimitPrice = %v, want nil", req.LimitPrice)
	}
}

func TestBuildOrderRequestStopLimit(t *testing.T) {
	req, err := BuildOrderRequest(SplitArgs("stop_limit buy 3 msft day 300 295"), false)
	if err != nil {
		t.Fatalf("BuildOrderRequest() error = %v", err)
	}
	if req.LimitPrice == nil || !req.LimitPrice.Equal(dec("300")) {
		t.Errorf("LimitPrice = %v, want 300", req.LimitPrice)
	}
	if req.StopPrice == nil || !req.StopPrice.Equal(dec("295")) {
		t.Errorf("StopPrice = %v, want 295", req.StopPrice)
	}
}

func TestBuildOrderRequestArity(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"market one short", "market buy 10 aapl"},
		{"market one long", "market buy 10 aapl day extra"},
		{"limit missing price", "limit sell 5 tsla gtc"},
		{"stop_limit one short", "stop_limit buy 3 msft day 300"},
		{"stop_limit one long", "stop_limit buy 3 msft day 300 295 extra"},
		{"no args", " "},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := BuildOrderRequest(SplitArgs(tt.text), false)
			if !errors.Is(err, ErrWrongArgCount) {
				t.Errorf("BuildOrderRequest(%q) error = %v, want ErrWrongArgCount", tt.text, err)
			}
		})
	}
}

func TestBuildOrderRequestBadArgument(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"unknown kind", "trailing buy 10 aapl day"},
		{"unknown side", "market hold 10 aapl day"},
		{"non-numeric qty", "market buy ten aapl day"},
		{"non-numeric limit", "limit sell 5 tsla gtc cheap"},
		{"negative qty", "market buy -4 aapl day"},
		{"zero limit price", "limit sell 5 tsla gtc 0"},
		{"fractional qty disallowed", "market buy 1.5 aapl day"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := BuildOrderRequest(SplitArgs(tt.text), false)
			if !errors.Is(err, ErrBadArgument) {
				t.Errorf("BuildOrderRequest(%q) error = %v, want ErrBadArgument", tt.text, err)
			}
		})
	}
}

func TestBuildOrderRequestFractional(t *testing.T) {
	req, err := BuildOrderRequest(SplitArgs("market buy 1.5 aapl day"), true)
	if err != nil {
		t.Fatalf("BuildOrderRequest(fractional) error = %v", err)
	}
	if req.Qty.String() != "1.5" {
		t.Errorf("Qty = %s, want 1.5", req.Qty)
	}
}

func TestBuildOrderRequestCaseInsensitiveKeywords(t *testing.T) {
	req, err := BuildOrderRequest(SplitArgs("MARKET Buy 10 aapl DAY"), false)
	if err != nil {
		t.Fatalf("BuildOrderRequest() error = %v", err)
	}
	if req.Kind != domain.OrderKindMarket || req.Side != domain.OrderSideBuy || req.TimeInForce != "day" {
		t.Errorf("keyword normalization failed: %+v", req)
	}
}
