// Package bot routes chat commands to the brokerage gateway and the stream
// registry, producing a CommandResult for every invocation.
package bot

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"tradebot/internal/broker"
	"tradebot/internal/command"
	"tradebot/internal/domain"
	"tradebot/internal/store"
	"tradebot/internal/stream"
)

// Request is one inbound command invocation.
type Request struct {
	// Command is the slash-command name without the leading slash.
	Command string
	// Text is the raw argument blob as sent by the chat platform.
	Text string
	// ResponseURL is the invoker's private reply target.
	ResponseURL string
}

// handlerFunc executes a validated command and returns the response text.
// Errors matching the command package taxonomy are validation failures;
// anything else is an upstream failure.
type handlerFunc func(ctx context.Context, d *Dispatcher, args []string) (string, error)

// commandSpec is one entry of the closed dispatch table: the accepted arity
// set (nil means variadic with at least minArgs tokens), the routing policy
// for successful results, and the executor.
type commandSpec struct {
	arities []int
	minArgs int
	routing domain.Routing
	run     handlerFunc
}

// commands is the full command surface. Durable side effects broadcast to
// the team channel; read-only queries reply directly; every error path is
// routed privately by Dispatch.
var commands = map[string]commandSpec{
	"order":                 {arities: []int{5, 6, 7}, routing: domain.RouteChannelBroadcast, run: runOrder},
	"list":                  {arities: []int{1}, routing: domain.RouteDirectReply, run: runList},
	"clear":                 {arities: []int{1}, routing: domain.RouteChannelBroadcast, run: runClear},
	"cancel_order":          {arities: []int{1}, routing: domain.RouteChannelBroadcast, run: runCancelOrder},
	"cancel_recent_order":   {arities: []int{0}, routing: domain.RouteChannelBroadcast, run: runCancelRecentOrder},
	"subscribe_streaming":   {minArgs: 1, routing: domain.RouteChannelBroadcast, run: runSubscribe},
	"unsubscribe_streaming": {minArgs: 1, routing: domain.RouteChannelBroadcast, run: runUnsubscribe},
	"account_info":          {arities: []int{0}, routing: domain.RouteDirectReply, run: runAccountInfo},
	"get_price":             {minArgs: 1, routing: domain.RouteDirectReply, run: runGetPrice},
	"get_price_polygon":     {minArgs: 1, routing: domain.RouteDirectReply, run: runGetPricePolygon},
	"help":                  {arities: []int{0}, routing: domain.RouteDirectReply, run: runHelp},
}

// CommandNames returns the registered command names, sorted.
func CommandNames() []string {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Dispatcher is the top-level command router. It owns no long-lived state of
// its own; the stream registry is the only shared mutable state it touches.
type Dispatcher struct {
	gateway         broker.Broker
	streams         *stream.Registry
	audit           store.AuditStore
	allowFractional bool
	log             *slog.Logger
}

// NewDispatcher creates a Dispatcher over the given gateway and registry.
func NewDispatcher(gateway broker.Broker, streams *stream.Registry, audit store.AuditStore, allowFractional bool) *Dispatcher {
	return &Dispatcher{
		gateway:         gateway,
		streams:         streams,
		audit:           audit,
		allowFractional: allowFractional,
		log:             slog.Default().With("component", "dispatcher"),
	}
}

// Dispatch runs one command to completion: parse, validate, execute, and
// classify the result. Every branch terminates in a CommandResult; gateway
// failures are wrapped, never re-raised.
func (d *Dispatcher) Dispatch(ctx context.Context, req Request) domain.CommandResult {
	res := d.dispatch(ctx, req)
	if err := d.audit.RecordCommand(ctx, req.Command, strings.TrimSpace(req.Text), string(res.Outcome), res.Message); err != nil {
		d.log.Warn("recording command", "command", req.Command, "error", err)
	}
	return res
}

func (d *Dispatcher) dispatch(ctx context.Context, req Request) domain.CommandResult {
	spec, ok := commands[req.Command]
	if !ok {
		return domain.CommandResult{
			Outcome: domain.OutcomeValidationError,
			Message: fmt.Sprintf("ERROR: unknown command %q.", req.Command),
			Routing: domain.RoutePrivateReply,
		}
	}

	args := command.SplitArgs(req.Text)
	if err := command.CheckArity(args, spec.arities, spec.minArgs); err != nil {
		return d.failure(req, err)
	}

	msg, err := spec.run(ctx, d, args)
	if err != nil {
		return d.failure(req, err)
	}
	return domain.CommandResult{Outcome: domain.OutcomeOK, Message: msg, Routing: spec.routing}
}

// failure classifies an error into a CommandResult. Validation failures
// never reached the gateway; everything else carries the raw upstream
// description. Both are routed privately to keep error noise out of the
// team channel.
func (d *Dispatcher) failure(req Request, err error) domain.CommandResult {
	outcome := domain.OutcomeUpstreamError
	if command.IsValidation(err) {
		outcome = domain.OutcomeValidationError
	} else {
		d.log.Error("command failed upstream", "command", req.Command, "error", err)
	}
	return domain.CommandResult{
		Outcome: outcome,
		Message: fmt.Sprintf("ERROR: %v. Action did not complete.", err),
		Routing: domain.RoutePrivateReply,
	}
}
