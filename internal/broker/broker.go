// Package broker defines the brokerage gateway interfaces and provides the
// Alpaca implementation plus an in-memory simulator for tests and paper use.
package broker

import (
	"context"

	"tradebot/internal/domain"
)

// QuoteFeed selects the market-data feed for price lookups.
type QuoteFeed string

const (
	// FeedIEX is the free single-exchange feed.
	FeedIEX QuoteFeed = "iex"
	// FeedSIP is the consolidated tape (requires a data subscription).
	FeedSIP QuoteFeed = "sip"
)

// Stream channel names. The set is fixed at startup; requests naming any
// other channel fail.
const (
	ChannelTradeUpdates   = "trade_updates"
	ChannelAccountUpdates = "account_updates"
)

// Channels returns the known stream channels in declaration order.
func Channels() []string {
	return []string{ChannelTradeUpdates, ChannelAccountUpdates}
}

// Broker abstracts brokerage operations for order execution, queries, and
// account management.
type Broker interface {
	// Name returns the broker identifier (e.g. "alpaca", "simulator").
	Name() string

	// SubmitOrder sends a validated order to the brokerage for execution.
	SubmitOrder(ctx context.Context, req *domain.OrderRequest) (*domain.Order, error)

	// CancelOrder requests cancellation of an open order by its ID.
	CancelOrder(ctx context.Context, orderID string) error

	// ListOrders returns orders with the given status ("open", "closed",
	// "all"), newest first, up to limit (0 = brokerage default).
	ListOrders(ctx context.Context, status string, limit int) ([]domain.Order, error)

	// ListPositions returns all current positions held at the brokerage.
	ListPositions(ctx context.Context) ([]domain.Position, error)

	// GetAccount returns a snapshot of the account's financial metrics.
	GetAccount(ctx context.Context) (*domain.Account, error)

	// GetQuote returns the latest pricing snapshot for a symbol from the
	// given feed.
	GetQuote(ctx context.Context, symbol string, feed QuoteFeed) (*domain.Quote, error)
}

// EventSink receives events consumed from a brokerage stream.
type EventSink interface {
	TradeUpdate(ev domain.TradeEvent)
	AccountUpdate(ev domain.AccountEvent)
}

// StreamSource consumes one brokerage event stream at a time. Listen blocks
// delivering the named channel's events to sink until ctx is cancelled or
// the stream fails.
type StreamSource interface {
	Listen(ctx context.Context, channel string, sink EventSink) error
}
