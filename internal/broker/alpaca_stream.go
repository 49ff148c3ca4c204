package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/alpacahq/alpaca-trade-api-go/v3/alpaca"
	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"

	"tradebot/internal/domain"
)

// Compile-time interface check.
var _ StreamSource = (*AlpacaStreamSource)(nil)

// AlpacaStreamSource consumes Alpaca event streams. Trade updates come from
// the SDK's events API; account updates come from the legacy websocket
// stream endpoint, which the v3 SDK does not expose.
type AlpacaStreamSource struct {
	trading   *alpaca.Client
	apiKey    string
	apiSecret string
	streamURL string
	log       *slog.Logger
}

// NewAlpacaStreamSource creates a stream source. streamURL is the legacy
// websocket endpoint, e.g. "wss://paper-api.alpaca.markets/stream".
func NewAlpacaStreamSource(apiKey, apiSecret, baseURL, streamURL string) *AlpacaStreamSource {
	opts := alpaca.ClientOpts{
		APIKey:    apiKey,
		APISecret: apiSecret,
	}
	if baseURL != "" {
		opts.BaseURL = baseURL
	}
	return &AlpacaStreamSource{
		trading:   alpaca.NewClient(opts),
		apiKey:    apiKey,
		apiSecret: apiSecret,
		streamURL: streamURL,
		log:       slog.Default().With("component", "alpaca-stream"),
	}
}

// Listen blocks consuming the named channel's events until ctx is cancelled.
func (s *AlpacaStreamSource) Listen(ctx context.Context, channel string, sink EventSink) error {
	switch channel {
	case ChannelTradeUpdates:
		return s.listenTradeUpdates(ctx, sink)
	case ChannelAccountUpdates:
		return s.listenAccountUpdates(ctx, sink)
	default:
		return fmt.Errorf("unknown stream channel %q", channel)
	}
}

func (s *AlpacaStreamSource) listenTradeUpdates(ctx context.Context, sink EventSink) error {
	return s.trading.StreamTradeUpdates(ctx, func(tu alpaca.TradeUpdate) {
		sink.TradeUpdate(toTradeEvent(tu))
	}, alpaca.StreamTradeUpdatesRequest{})
}

func toTradeEvent(tu alpaca.TradeUpdate) domain.TradeEvent {
	ev := domain.TradeEvent{
		Type:        tu.Event,
		Kind:        domain.OrderKind(tu.Order.Type),
		Side:        domain.OrderSide(tu.Order.Side),
		Symbol:      tu.Order.Symbol,
		TimeInForce: string(tu.Order.TimeInForce),
		Price:       tu.Price,
	}
	if tu.Order.Qty != nil {
		ev.Qty = *tu.Order.Qty
	} else if tu.Qty != nil {
		ev.Qty = *tu.Qty
	}
	return ev
}

// streamMessage is the envelope of the legacy stream protocol.
type streamMessage struct {
	Stream string          `json:"stream"`
	Data   json.RawMessage `json:"data"`
}

// accountUpdate is the payload of an account_updates message. Monetary
// values arrive as JSON strings.
type accountUpdate struct {
	Cash     decimal.Decimal `json:"cash"`
	Currency string          `json:"currency"`
}

func (s *AlpacaStreamSource) listenAccountUpdates(ctx context.Context, sink EventSink) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, s.streamURL, nil)
	if err != nil {
		return fmt.Errorf("dialing %s: %w", s.streamURL, err)
	}
	defer conn.Close()

	auth := map[string]any{
		"action": "authenticate",
		"data":   map[string]string{"key_id": s.apiKey, "secret_key": s.apiSecret},
	}
	if err := conn.WriteJSON(auth); err != nil {
		return fmt.Errorf("authenticating stream: %w", err)
	}
	listen := map[string]any{
		"action": "listen",
		"data":   map[string][]string{"streams": {ChannelAccountUpdates}},
	}
	if err := conn.WriteJSON(listen); err != nil {
		return fmt.Errorf("subscribing stream: %w", err)
	}

	// ReadJSON has no context form; closing the connection unblocks it.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	for {
		var msg streamMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("reading stream: %w", err)
		}
		if msg.Stream != ChannelAccountUpdates {
			continue
		}
		var upd accountUpdate
		if err := json.Unmarshal(msg.Data, &upd); err != nil {
			s.log.Warn("malformed account update", "error", err)
			continue
		}
		sink.AccountUpdate(domain.AccountEvent{Cash: upd.Cash, Currency: upd.Currency})
	}
}
