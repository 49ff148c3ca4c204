// Package domain defines the core data model shared across the tradebot:
// order requests, brokerage read views, command results, and stream events.
package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ---------------------------------------------------------------------------
// Order requests
// ---------------------------------------------------------------------------

// OrderKind identifies the order type accepted by the brokerage.
type OrderKind string

const (
	OrderKindMarket    OrderKind = "market"
	OrderKindLimit     OrderKind = "limit"
	OrderKindStop      OrderKind = "stop"
	OrderKindStopLimit OrderKind = "stop_limit"
)

// OrderSide is the direction of an order.
type OrderSide string

const (
	OrderSideBuy  OrderSide = "buy"
	OrderSideSell OrderSide = "sell"
)

// OrderRequest is a fully validated order ready for submission to the
// brokerage. It is constructed per incoming command, consumed once by the
// gateway call, and never persisted.
type OrderRequest struct {
	Kind        OrderKind
	Symbol      string
	Side        OrderSide
	Qty         decimal.Decimal
	TimeInForce string
	LimitPrice  *decimal.Decimal
	StopPrice   *decimal.Decimal
}

// Validate checks the structural invariants of the request: positive
// quantity (integral unless allowFractional), known kind and side, and the
// limit/stop price presence exactly matching the kind.
func (r *OrderRequest) Validate(allowFractional bool) error {
	switch r.Side {
	case OrderSideBuy, OrderSideSell:
	default:
		return fmt.Errorf("unknown order side %q", r.Side)
	}

	if r.Symbol == "" {
		return fmt.Errorf("empty symbol")
	}
	if !r.Qty.IsPositive() {
		return fmt.Errorf("quantity %s is not positive", r.Qty)
	}
	if !allowFractional && !r.Qty.IsInteger() {
		return fmt.Errorf("fractional quantity %s not allowed", r.Qty)
	}

	wantLimit := r.Kind == OrderKindLimit || r.Kind == OrderKindStopLimit
	wantStop := r.Kind == OrderKindStop || r.Kind == OrderKindStopLimit
	switch r.Kind {
	case OrderKindMarket, OrderKindLimit, OrderKindStop, OrderKindStopLimit:
	default:
		return fmt.Errorf("unknown order kind %q", r.Kind)
	}

	if wantLimit != (r.LimitPrice != nil) {
		return fmt.Errorf("%s order: limit price presence mismatch", r.Kind)
	}
	if wantStop != (r.StopPrice != nil) {
		return fmt.Errorf("%s order: stop price presence mismatch", r.Kind)
	}
	if r.LimitPrice != nil && !r.LimitPrice.IsPositive() {
		return fmt.Errorf("limit price %s is not positive", r.LimitPrice)
	}
	if r.StopPrice != nil && !r.StopPrice.IsPositive() {
		return fmt.Errorf("stop price %s is not positive", r.StopPrice)
	}
	return nil
}

// NormalizeSymbol upper-cases and trims a ticker symbol. Idempotent.
func NormalizeSymbol(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// ---------------------------------------------------------------------------
// Brokerage read views
// ---------------------------------------------------------------------------

// Order is the read view of a brokerage order record.
type Order struct {
	ID             string
	Symbol         string
	Side           OrderSide
	Kind           OrderKind
	Qty            decimal.Decimal
	FilledQty      decimal.Decimal
	TimeInForce    string
	LimitPrice     *decimal.Decimal
	StopPrice      *decimal.Decimal
	FilledAvgPrice *decimal.Decimal
	Status         string
	CreatedAt      time.Time
}

// Position is the read view of a brokerage position record.
type Position struct {
	Symbol        string
	Qty           decimal.Decimal
	Side          string // "long" or "short"
	AvgEntryPrice decimal.Decimal
	CurrentPrice  *decimal.Decimal
}

// Account is the read view of the brokerage account snapshot.
type Account struct {
	BuyingPower     decimal.Decimal
	Equity          decimal.Decimal
	PortfolioValue  decimal.Decimal
	Cash            decimal.Decimal
	Currency        string
	ShortingEnabled bool
}

// Quote is the latest pricing snapshot for one symbol.
type Quote struct {
	Symbol    string
	BidPrice  decimal.Decimal
	AskPrice  decimal.Decimal
	LastPrice decimal.Decimal
	Timestamp time.Time
}

// ---------------------------------------------------------------------------
// Command results
// ---------------------------------------------------------------------------

// Outcome classifies how a command invocation ended.
type Outcome string

const (
	OutcomeOK              Outcome = "ok"
	OutcomeValidationError Outcome = "validation_error"
	OutcomeUpstreamError   Outcome = "upstream_error"
)

// Routing selects where a command's response text is delivered.
type Routing string

const (
	// RouteDirectReply returns the text inline to the invoking request.
	RouteDirectReply Routing = "direct_reply"
	// RouteChannelBroadcast posts the text to the configured team channel.
	RouteChannelBroadcast Routing = "channel_broadcast"
	// RoutePrivateReply posts the text to the invoker's ephemeral reply target.
	RoutePrivateReply Routing = "private_reply"
)

// CommandResult is the terminal state of one command invocation. Produced
// and consumed within a single command's handling, never persisted beyond
// the audit log.
type CommandResult struct {
	Outcome Outcome
	Message string
	Routing Routing
}

// ---------------------------------------------------------------------------
// Stream events
// ---------------------------------------------------------------------------

// TradeEvent is one update from the trade-updates stream.
type TradeEvent struct {
	Type        string // "new", "fill", "partial_fill", ...
	Kind        OrderKind
	Side        OrderSide
	Qty         decimal.Decimal
	Symbol      string
	TimeInForce string
	Price       *decimal.Decimal // execution price, set for fills
}

// AccountEvent is one update from the account-updates stream.
type AccountEvent struct {
	Cash     decimal.Decimal
	Currency string
}
