package command

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"tradebot/internal/domain"
)

// orderArity maps each order kind to its exact token count, including the
// kind keyword itself: <kind> <side> <qty> <symbol> <tif> [limit] [stop].
var orderArity = map[domain.OrderKind]int{
	domain.OrderKindMarket:    5,
	domain.OrderKindLimit:     6,
	domain.OrderKindStop:      6,
	domain.OrderKindStopLimit: 7,
}

// BuildOrderRequest constructs a validated OrderRequest from the tokens of
// an order command. Token 0 selects the kind and with it the exact arity;
// numeric tokens must parse as decimals; the symbol is normalized to
// upper-case. For stop_limit the limit price precedes the stop price.
func BuildOrderRequest(args []string, allowFractional bool) (*domain.OrderRequest, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("%w: order command takes at least 5 arguments", ErrWrongArgCount)
	}

	kind := domain.OrderKind(normalizeKeyword(args[0]))
	want, ok := orderArity[kind]
	if !ok {
		return nil, fmt.Errorf("%w: unknown order kind %q", ErrBadArgument, args[0])
	}
	if len(args) != want {
		return nil, fmt.Errorf("%w: %s order takes %d arguments, got %d", ErrWrongArgCount, kind, want, len(args))
	}

	side := domain.OrderSide(normalizeKeyword(args[1]))
	if side != domain.OrderSideBuy && side != domain.OrderSideSell {
		return nil, fmt.Errorf("%w: unknown order side %q", ErrBadArgument, args[1])
	}

	qty, err := parsePositiveDecimal("quantity", args[2])
	if err != nil {
		return nil, err
	}

	req := &domain.OrderRequest{
		Kind:        kind,
		Side:        side,
		Qty:         qty,
		Symbol:      domain.NormalizeSymbol(args[3]),
		TimeInForce: normalizeKeyword(args[4]),
	}

	switch kind {
	case domain.OrderKindLimit:
		limit, err := parsePositiveDecimal("limit price", args[5])
		if err != nil {
			return nil, err
		}
		req.LimitPrice = &limit
	case domain.OrderKindStop:
		stop, err := parsePositiveDecimal("stop price", args[5])
		if err != nil {
			return nil, err
		}
		req.StopPrice = &stop
	case domain.OrderKindStopLimit:
		limit, err := parsePositiveDecimal("limit price", args[5])
		if err != nil {
			return nil, err
		}
		stop, err := parsePositiveDecimal("stop price", args[6])
		if err != nil {
			return nil, err
		}
		req.LimitPrice = &limit
		req.StopPrice = &stop
	}

	if err := req.Validate(allowFractional); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadArgument, err)
	}
	return req, nil
}

func parsePositiveDecimal(field, token string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(token)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("%w: %s %q is not a number", ErrBadArgument, field, token)
	}
	if !d.IsPositive() {
		return decimal.Decimal{}, fmt.Errorf("%w: %s %q must be positive", ErrBadArgument, field, token)
	}
	return d, nil
}

func normalizeKeyword(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
