package bot

import (
	"context"
	"fmt"
	"strings"

	"tradebot/internal/broker"
	"tradebot/internal/command"
	"tradebot/internal/domain"
)

// ---------------------------------------------------------------------------
// order
// ---------------------------------------------------------------------------

func runOrder(ctx context.Context, d *Dispatcher, args []string) (string, error) {
	req, err := command.BuildOrderRequest(args, d.allowFractional)
	if err != nil {
		return "", err
	}

	order, err := d.gateway.SubmitOrder(ctx, req)
	if err != nil {
		return "", err
	}

	switch req.Kind {
	case domain.OrderKindMarket:
		// Current price is informational only; a quote failure does not
		// taint a submitted order.
		if quote, qerr := d.gateway.GetQuote(ctx, req.Symbol, broker.FeedIEX); qerr == nil {
			return fmt.Sprintf("Market order of | %s %s %s | submitted, current equity price at %s. Order id = %s.",
				req.Side, req.Qty, req.Symbol, quote.LastPrice, order.ID), nil
		}
		return fmt.Sprintf("Market order of | %s %s %s | submitted. Order id = %s.",
			req.Side, req.Qty, req.Symbol, order.ID), nil
	case domain.OrderKindLimit:
		return fmt.Sprintf("Limit order of | %s %s %s at limit price %s | submitted. Order id = %s.",
			req.Side, req.Qty, req.Symbol, req.LimitPrice, order.ID), nil
	case domain.OrderKindStop:
		return fmt.Sprintf("Stop order of | %s %s %s at stop price %s | submitted. Order id = %s.",
			req.Side, req.Qty, req.Symbol, req.StopPrice, order.ID), nil
	default:
		return fmt.Sprintf("Stop-Limit order of | %s %s %s at stop price %s and limit price %s | submitted. Order id = %s.",
			req.Side, req.Qty, req.Symbol, req.StopPrice, req.LimitPrice, order.ID), nil
	}
}

// ---------------------------------------------------------------------------
// list
// ---------------------------------------------------------------------------

func runList(ctx context.Context, d *Dispatcher, args []string) (string, error) {
	switch args[0] {
	case "positions":
		return listPositions(ctx, d)
	case "orders":
		return listOrders(ctx, d)
	case "streams":
		return listStreams(d), nil
	default:
		return "", fmt.Errorf("%w: unknown list target %q", command.ErrBadArgument, args[0])
	}
}

func listPositions(ctx context.Context, d *Dispatcher) (string, error) {
	positions, err := d.gateway.ListPositions(ctx)
	if err != nil {
		return "", err
	}
	if len(positions) == 0 {
		return "No positions.", nil
	}

	var b strings.Builder
	b.WriteString("Listing positions...")
	for _, p := range positions {
		fmt.Fprintf(&b, "\nSymbol: %s, Qty: %s, Side: %s, Entry price: %s", p.Symbol, p.Qty, p.Side, p.AvgEntryPrice)
		if p.CurrentPrice != nil {
			fmt.Fprintf(&b, ", Current price: %s", p.CurrentPrice)
		}
	}
	return b.String(), nil
}

func listOrders(ctx context.Context, d *Dispatcher) (string, error) {
	orders, err := d.gateway.ListOrders(ctx, "open", 0)
	if err != nil {
		return "", err
	}
	if len(orders) == 0 {
		return "No orders.", nil
	}

	var b strings.Builder
	b.WriteString("Listing orders...")
	for _, o := range orders {
		fmt.Fprintf(&b, "\nSymbol: %s, Qty: %s, Side: %s, Type: %s, Amount filled: %s",
			o.Symbol, o.Qty, o.Side, o.Kind, o.FilledQty)
		if o.StopPrice != nil {
			fmt.Fprintf(&b, ", Stop price = %s", o.StopPrice)
		}
		if o.LimitPrice != nil {
			fmt.Fprintf(&b, ", Limit price = %s", o.LimitPrice)
		}
	}
	return b.String(), nil
}

func listStreams(d *Dispatcher) string {
	active := d.streams.Active()
	if len(active) == 0 {
		return "No active streams."
	}
	return "Listing active streams...\n" + strings.Join(active, "\n")
}

// ---------------------------------------------------------------------------
// clear
// ---------------------------------------------------------------------------

func runClear(ctx context.Context, d *Dispatcher, args []string) (string, error) {
	switch args[0] {
	case "positions":
		return clearPositions(ctx, d)
	case "orders":
		return clearOrders(ctx, d)
	default:
		return "", fmt.Errorf("%w: unknown clear target %q", command.ErrBadArgument, args[0])
	}
}

// clearPositions liquidates every position by submitting an opposite
// market/day order for its full quantity.
func clearPositions(ctx context.Context, d *Dispatcher) (string, error) {
	positions, err := d.gateway.ListPositions(ctx)
	if err != nil {
		return "", err
	}
	if len(positions) == 0 {
		return "No positions to clear.", nil
	}

	for _, p := range positions {
		side := domain.OrderSideSell
		if p.Side == "short" {
			side = domain.OrderSideBuy
		}
		req := &domain.OrderRequest{
			Kind:        domain.OrderKindMarket,
			Symbol:      p.Symbol,
			Side:        side,
			Qty:         p.Qty.Abs(),
			TimeInForce: "day",
		}
		if _, err := d.gateway.SubmitOrder(ctx, req); err != nil {
			return "", fmt.Errorf("liquidating %s: %w", p.Symbol, err)
		}
	}
	return fmt.Sprintf("Position clear orders sent for %d position(s).", len(positions)), nil
}

func clearOrders(ctx context.Context, d *Dispatcher) (string, error) {
	orders, err := d.gateway.ListOrders(ctx, "open", 0)
	if err != nil {
		return "", err
	}
	if len(orders) == 0 {
		return "No orders to clear.", nil
	}

	for _, o := range orders {
		if err := d.gateway.CancelOrder(ctx, o.ID); err != nil {
			return "", fmt.Errorf("cancelling order %s: %w", o.ID, err)
		}
	}
	return "Orders cleared.", nil
}

// ---------------------------------------------------------------------------
// cancel_order / cancel_recent_order
// ---------------------------------------------------------------------------

func runCancelOrder(ctx context.Context, d *Dispatcher, args []string) (string, error) {
	if err := d.gateway.CancelOrder(ctx, args[0]); err != nil {
		return "", err
	}
	return fmt.Sprintf("Order canceled. Order id = %s.", args[0]), nil
}

func runCancelRecentOrder(ctx context.Context, d *Dispatcher, _ []string) (string, error) {
	orders, err := d.gateway.ListOrders(ctx, "open", 1)
	if err != nil {
		return "", err
	}
	if len(orders) == 0 {
		return "", fmt.Errorf("%w: no open orders to cancel", command.ErrAlreadyInState)
	}
	if err := d.gateway.CancelOrder(ctx, orders[0].ID); err != nil {
		return "", err
	}
	return fmt.Sprintf("Most recent order canceled. Order id = %s.", orders[0].ID), nil
}

// ---------------------------------------------------------------------------
// subscribe_streaming / unsubscribe_streaming
// ---------------------------------------------------------------------------

func runSubscribe(_ context.Context, d *Dispatcher, args []string) (string, error) {
	started, failed := d.streams.Subscribe(args)
	if len(failed) > 0 {
		return "", fmt.Errorf("%w: %d subscription(s) failed: %s",
			command.ErrUnknownChannel, len(failed), strings.Join(failed, ", "))
	}
	return fmt.Sprintf("Subscription%s to %s sent.", plural(len(started)), strings.Join(started, " ")), nil
}

func runUnsubscribe(_ context.Context, d *Dispatcher, args []string) (string, error) {
	stopped, failed := d.streams.Unsubscribe(args)
	if len(failed) > 0 {
		taxon := command.ErrAlreadyInState
		for _, name := range failed {
			if !knownChannel(name) {
				taxon = command.ErrUnknownChannel
				break
			}
		}
		return "", fmt.Errorf("%w: %d unsubscription(s) failed: %s",
			taxon, len(failed), strings.Join(failed, ", "))
	}
	return fmt.Sprintf("Unsubscription%s to %s sent.", plural(len(stopped)), strings.Join(stopped, " ")), nil
}

func knownChannel(name string) bool {
	for _, c := range broker.Channels() {
		if c == name {
			return true
		}
	}
	return false
}

func plural(n int) string {
	if n > 1 {
		return "s"
	}
	return ""
}

// ---------------------------------------------------------------------------
// account_info / get_price
// ---------------------------------------------------------------------------

func runAccountInfo(ctx context.Context, d *Dispatcher, _ []string) (string, error) {
	acct, err := d.gateway.GetAccount(ctx)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Account info...\nBuying power = %s\nEquity = %s\nPortfolio value = %s\nShorting enabled? = %t",
		acct.BuyingPower, acct.Equity, acct.PortfolioValue, acct.ShortingEnabled), nil
}

func runGetPrice(ctx context.Context, d *Dispatcher, args []string) (string, error) {
	var b strings.Builder
	b.WriteString("Listing prices...")
	for _, raw := range args {
		symbol := domain.NormalizeSymbol(raw)
		quote, err := d.gateway.GetQuote(ctx, symbol, broker.FeedIEX)
		if err != nil {
			return "", err
		}
		fmt.Fprintf(&b, "\n%s: Price = %s, Time = %s", symbol, quote.LastPrice, quote.Timestamp.Format("2006-01-02 15:04:05"))
	}
	return b.String(), nil
}

func runGetPricePolygon(ctx context.Context, d *Dispatcher, args []string) (string, error) {
	var b strings.Builder
	b.WriteString("Listing prices...")
	for _, raw := range args {
		symbol := domain.NormalizeSymbol(raw)
		quote, err := d.gateway.GetQuote(ctx, symbol, broker.FeedSIP)
		if err != nil {
			return "", err
		}
		fmt.Fprintf(&b, "\n%s: Bid price = %s, Ask price = %s", symbol, quote.BidPrice, quote.AskPrice)
	}
	return b.String(), nil
}
