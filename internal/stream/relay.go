package stream

import (
	"context"
	"fmt"
	"log/slog"

	"tradebot/internal/broker"
	"tradebot/internal/domain"
	"tradebot/internal/notify"
	"tradebot/internal/store"
)

// Compile-time interface check.
var _ broker.EventSink = (*Relay)(nil)

// Relay formats events from active stream listeners and broadcasts them to
// the configured chat channel. Events are asynchronous and have no
// originating request, so they never go to a private reply target.
type Relay struct {
	notifier notify.Notifier
	channel  string
	audit    store.AuditStore
	log      *slog.Logger
}

// NewRelay creates a Relay posting to the given broadcast channel.
func NewRelay(notifier notify.Notifier, channel string, audit store.AuditStore) *Relay {
	return &Relay{
		notifier: notifier,
		channel:  channel,
		audit:    audit,
		log:      slog.Default().With("component", "relay"),
	}
}

// TradeUpdate renders and broadcasts one trade-updates event. "new" events
// are suppressed to avoid noise on order acceptance.
func (r *Relay) TradeUpdate(ev domain.TradeEvent) {
	text := FormatTradeEvent(ev)
	if text == "" {
		return
	}
	r.deliver(broker.ChannelTradeUpdates, ev.Type, text)
}

// AccountUpdate renders and broadcasts one account-updates event.
func (r *Relay) AccountUpdate(ev domain.AccountEvent) {
	r.deliver(broker.ChannelAccountUpdates, "account_update", FormatAccountEvent(ev))
}

func (r *Relay) deliver(channel, eventType, text string) {
	ctx := context.Background()
	if err := r.notifier.Post(ctx, r.channel, text); err != nil {
		r.log.Error("broadcasting event", "channel", channel, "error", err)
	}
	if err := r.audit.RecordEvent(ctx, channel, eventType, text); err != nil {
		r.log.Warn("recording event", "error", err)
	}
}

// FormatTradeEvent renders a trade event as a single line carrying side,
// quantity, symbol, and time-in-force, with the execution price for fills.
// Returns "" for suppressed event types.
func FormatTradeEvent(ev domain.TradeEvent) string {
	switch ev.Type {
	case "new":
		return ""
	case "fill", "partial_fill":
		if ev.Price != nil {
			return fmt.Sprintf("Event: %s, %s order of | %s %s %s %s | %s at %s",
				ev.Type, ev.Kind, ev.Side, ev.Qty, ev.Symbol, ev.TimeInForce, ev.Type, ev.Price)
		}
		fallthrough
	default:
		return fmt.Sprintf("Event: %s, %s order of | %s %s %s %s | %s",
			ev.Type, ev.Kind, ev.Side, ev.Qty, ev.Symbol, ev.TimeInForce, ev.Type)
	}
}

// FormatAccountEvent renders an account event with the current balance.
func FormatAccountEvent(ev domain.AccountEvent) string {
	return fmt.Sprintf("Account updated. Account balance is currently: %s %s", ev.Cash, ev.Currency)
}
