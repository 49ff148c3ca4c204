package broker

import (
	"context"
	"fmt"

	"github.com/alpacahq/alpaca-trade-api-go/v3/alpaca"
	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"
	"github.com/shopspring/decimal"

	"tradebot/internal/domain"
)

// Compile-time interface check.
var _ Broker = (*AlpacaBroker)(nil)

// AlpacaBroker implements the Broker interface against the Alpaca trading
// and market-data APIs.
type AlpacaBroker struct {
	trading *alpaca.Client
	data    *marketdata.Client
}

// NewAlpacaBroker creates an AlpacaBroker configured with the given
// credentials and API endpoints. Empty URLs fall back to the SDK defaults.
func NewAlpacaBroker(apiKey, apiSecret, baseURL, dataURL string) *AlpacaBroker {
	tradingOpts := alpaca.ClientOpts{
		APIKey:    apiKey,
		APISecret: apiSecret,
	}
	if baseURL != "" {
		tradingOpts.BaseURL = baseURL
	}

	dataOpts := marketdata.ClientOpts{
		APIKey:    apiKey,
		APISecret: apiSecret,
	}
	if dataURL != "" {
		dataOpts.BaseURL = dataURL
	}

	return &AlpacaBroker{
		trading: alpaca.NewClient(tradingOpts),
		data:    marketdata.NewClient(dataOpts),
	}
}

// Name returns "alpaca".
func (b *AlpacaBroker) Name() string { return "alpaca" }

// SubmitOrder sends the order to the Alpaca API for execution.
func (b *AlpacaBroker) SubmitOrder(_ context.Context, req *domain.OrderRequest) (*domain.Order, error) {
	qty := req.Qty
	placed, err := b.trading.PlaceOrder(alpaca.PlaceOrderRequest{
		Symbol:      req.Symbol,
		Qty:         &qty,
		Side:        alpaca.Side(req.Side),
		Type:        alpaca.OrderType(req.Kind),
		TimeInForce: alpaca.TimeInForce(req.TimeInForce),
		LimitPrice:  req.LimitPrice,
		StopPrice:   req.StopPrice,
	})
	if err != nil {
		return nil, fmt.Errorf("submitting %s order for %s: %w", req.Kind, req.Symbol, err)
	}
	o := toDomainOrder(placed)
	return &o, nil
}

// CancelOrder requests cancellation of an open order.
func (b *AlpacaBroker) CancelOrder(_ context.Context, orderID string) error {
	if err := b.trading.CancelOrder(orderID); err != nil {
		return fmt.Errorf("cancelling order %s: %w", orderID, err)
	}
	return nil
}

// ListOrders returns orders with the given status, newest first.
func (b *AlpacaBroker) ListOrders(_ context.Context, status string, limit int) ([]domain.Order, error) {
	orders, err := b.trading.GetOrders(alpaca.GetOrdersRequest{
		Status:    status,
		Limit:     limit,
		Direction: "desc",
	})
	if err != nil {
		return nil, fmt.Errorf("listing orders: %w", err)
	}
	out := make([]domain.Order, 0, len(orders))
	for i := range orders {
		out = append(out, toDomainOrder(&orders[i]))
	}
	return out, nil
}

// ListPositions returns all current positions.
func (b *AlpacaBroker) ListPositions(_ context.Context) ([]domain.Position, error) {
	positions, err := b.trading.GetPositions()
	if err != nil {
		return nil, fmt.Errorf("listing positions: %w", err)
	}
	out := make([]domain.Position, 0, len(positions))
	for _, p := range positions {
		out = append(out, domain.Position{
			Symbol:        p.Symbol,
			Qty:           p.Qty,
			Side:          p.Side,
			AvgEntryPrice: p.AvgEntryPrice,
			CurrentPrice:  p.CurrentPrice,
		})
	}
	return out, nil
}

// GetAccount returns the current account snapshot.
func (b *AlpacaBroker) GetAccount(_ context.Context) (*domain.Account, error) {
	acct, err := b.trading.GetAccount()
	if err != nil {
		return nil, fmt.Errorf("fetching account: %w", err)
	}
	return &domain.Account{
		BuyingPower:     acct.BuyingPower,
		Equity:          acct.Equity,
		PortfolioValue:  acct.PortfolioValue,
		Cash:            acct.Cash,
		Currency:        acct.Currency,
		ShortingEnabled: acct.ShortingEnabled,
	}, nil
}

// GetQuote returns the latest quote and trade for a symbol from the given
// feed (IEX by default, SIP for the consolidated tape).
func (b *AlpacaBroker) GetQuote(_ context.Context, symbol string, feed QuoteFeed) (*domain.Quote, error) {
	mdFeed := marketdata.IEX
	if feed == FeedSIP {
		mdFeed = marketdata.SIP
	}

	quote, err := b.data.GetLatestQuote(symbol, marketdata.GetLatestQuoteRequest{Feed: mdFeed})
	if err != nil {
		return nil, fmt.Errorf("fetching quote for %s: %w", symbol, err)
	}
	trade, err := b.data.GetLatestTrade(symbol, marketdata.GetLatestTradeRequest{Feed: mdFeed})
	if err != nil {
		return nil, fmt.Errorf("fetching last trade for %s: %w", symbol, err)
	}

	return &domain.Quote{
		Symbol:    symbol,
		BidPrice:  decimal.NewFromFloat(quote.BidPrice),
		AskPrice:  decimal.NewFromFloat(quote.AskPrice),
		LastPrice: decimal.NewFromFloat(trade.Price),
		Timestamp: trade.Timestamp,
	}, nil
}

func toDomainOrder(o *alpaca.Order) domain.Order {
	var qty decimal.Decimal
	if o.Qty != nil {
		qty = *o.Qty
	}
	return domain.Order{
		ID:             o.ID,
		Symbol:         o.Symbol,
		Side:           domain.OrderSide(o.Side),
		Kind:           domain.OrderKind(o.Type),
		Qty:            qty,
		FilledQty:      o.FilledQty,
		TimeInForce:    string(o.TimeInForce),
		LimitPrice:     o.LimitPrice,
		StopPrice:      o.StopPrice,
		FilledAvgPrice: o.FilledAvgPrice,
		Status:         o.Status,
		CreatedAt:      o.CreatedAt,
	}
}
