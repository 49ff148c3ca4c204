package broker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"tradebot/internal/domain"
)

// Compile-time interface checks.
var _ Broker = (*SimulatorBroker)(nil)
var _ StreamSource = (*SimulatorStreamSource)(nil)

// SimulatorBroker implements the Broker interface in memory, without
// external API calls. Market orders fill immediately at the configured
// price; other kinds rest open. Used by tests and paper mode.
type SimulatorBroker struct {
	mu        sync.Mutex
	nextID    int
	orders    []domain.Order // submission order
	positions map[string]*domain.Position
	prices    map[string]decimal.Decimal
	cash      decimal.Decimal
}

// NewSimulatorBroker creates a SimulatorBroker with no positions and a
// default cash balance.
func NewSimulatorBroker() *SimulatorBroker {
	return &SimulatorBroker{
		positions: make(map[string]*domain.Position),
		prices:    make(map[string]decimal.Decimal),
		cash:      decimal.NewFromInt(100000),
	}
}

// Name returns "simulator".
func (b *SimulatorBroker) Name() string { return "simulator" }

// SetPrice fixes the simulated price for a symbol.
func (b *SimulatorBroker) SetPrice(symbol string, price decimal.Decimal) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.prices[symbol] = price
}

func (b *SimulatorBroker) priceLocked(symbol string) decimal.Decimal {
	if p, ok := b.prices[symbol]; ok {
		return p
	}
	return decimal.NewFromInt(100)
}

// SubmitOrder records the order; market orders fill immediately and adjust
// the simulated position.
func (b *SimulatorBroker) SubmitOrder(_ context.Context, req *domain.OrderRequest) (*domain.Order, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	order := domain.Order{
		ID:          fmt.Sprintf("sim-%d", b.nextID),
		Symbol:      req.Symbol,
		Side:        req.Side,
		Kind:        req.Kind,
		Qty:         req.Qty,
		TimeInForce: req.TimeInForce,
		LimitPrice:  req.LimitPrice,
		StopPrice:   req.StopPrice,
		Status:      "accepted",
		CreatedAt:   time.Now(),
	}

	if req.Kind == domain.OrderKindMarket {
		price := b.priceLocked(req.Symbol)
		order.Status = "filled"
		order.FilledQty = req.Qty
		order.FilledAvgPrice = &price
		b.applyFillLocked(req, price)
	}

	b.orders = append(b.orders, order)
	return &order, nil
}

func (b *SimulatorBroker) applyFillLocked(req *domain.OrderRequest, price decimal.Decimal) {
	signed := req.Qty
	if req.Side == domain.OrderSideSell {
		signed = signed.Neg()
	}

	pos, ok := b.positions[req.Symbol]
	if !ok {
		pos = &domain.Position{Symbol: req.Symbol, AvgEntryPrice: price}
		b.positions[req.Symbol] = pos
	}
	pos.Qty = pos.Qty.Add(signed)
	cur := b.priceLocked(req.Symbol)
	pos.CurrentPrice = &cur
	if pos.Qty.IsZero() {
		delete(b.positions, req.Symbol)
		return
	}
	if pos.Qty.IsNegative() {
		pos.Side = "short"
	} else {
		pos.Side = "long"
	}
}

// CancelOrder marks an open order as cancelled.
func (b *SimulatorBroker) CancelOrder(_ context.Context, orderID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range b.orders {
		if b.orders[i].ID != orderID {
			continue
		}
		if b.orders[i].Status != "accepted" {
			return fmt.Errorf("order %s is %s, not cancellable", orderID, b.orders[i].Status)
		}
		b.orders[i].Status = "canceled"
		return nil
	}
	return fmt.Errorf("order %s not found", orderID)
}

// ListOrders returns recorded orders, newest first.
func (b *SimulatorBroker) ListOrders(_ context.Context, status string, limit int) ([]domain.Order, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	var out []domain.Order
	for i := len(b.orders) - 1; i >= 0; i-- {
		o := b.orders[i]
		switch status {
		case "open":
			if o.Status != "accepted" {
				continue
			}
		case "closed":
			if o.Status == "accepted" {
				continue
			}
		}
		out = append(out, o)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

// ListPositions returns the simulated positions.
func (b *SimulatorBroker) ListPositions(_ context.Context) ([]domain.Position, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]domain.Position, 0, len(b.positions))
	for _, p := range b.positions {
		out = append(out, *p)
	}
	return out, nil
}

// GetAccount returns a synthetic account snapshot.
func (b *SimulatorBroker) GetAccount(_ context.Context) (*domain.Account, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	value := b.cash
	for sym, p := range b.positions {
		value = value.Add(p.Qty.Mul(b.priceLocked(sym)))
	}
	return &domain.Account{
		BuyingPower:     b.cash.Mul(decimal.NewFromInt(2)),
		Equity:          value,
		PortfolioValue:  value,
		Cash:            b.cash,
		Currency:        "USD",
		ShortingEnabled: true,
	}, nil
}

// GetQuote returns the simulated price as bid, ask, and last.
func (b *SimulatorBroker) GetQuote(_ context.Context, symbol string, _ QuoteFeed) (*domain.Quote, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	p := b.priceLocked(symbol)
	return &domain.Quote{
		Symbol:    symbol,
		BidPrice:  p,
		AskPrice:  p,
		LastPrice: p,
		Timestamp: time.Now(),
	}, nil
}

// ---------------------------------------------------------------------------
// SimulatorStreamSource
// ---------------------------------------------------------------------------

// SimulatorStreamSource is a StreamSource fed by in-process Emit calls.
type SimulatorStreamSource struct {
	trades   chan domain.TradeEvent
	accounts chan domain.AccountEvent
}

// NewSimulatorStreamSource creates a stream source with buffered channels.
func NewSimulatorStreamSource() *SimulatorStreamSource {
	return &SimulatorStreamSource{
		trades:   make(chan domain.TradeEvent, 16),
		accounts: make(chan domain.AccountEvent, 16),
	}
}

// EmitTrade queues a trade event for the trade_updates listener.
func (s *SimulatorStreamSource) EmitTrade(ev domain.TradeEvent) { s.trades <- ev }

// EmitAccount queues an account event for the account_updates listener.
func (s *SimulatorStreamSource) EmitAccount(ev domain.AccountEvent) { s.accounts <- ev }

// Listen delivers emitted events for the named channel until ctx ends.
func (s *SimulatorStreamSource) Listen(ctx context.Context, channel string, sink EventSink) error {
	switch channel {
	case ChannelTradeUpdates:
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case ev := <-s.trades:
				sink.TradeUpdate(ev)
			}
		}
	case ChannelAccountUpdates:
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case ev := <-s.accounts:
				sink.AccountUpdate(ev)
			}
		}
	default:
		return fmt.Errorf("unknown stream channel %q", channel)
	}
}
