// Package stream manages the lifecycle of brokerage event-stream listeners
// and relays their events to the chat channel.
package stream

import (
	"context"
	"log/slog"
	"sync"

	"tradebot/internal/broker"
)

// listener is one running background consumer of a stream channel.
type listener struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// Registry tracks which stream channels have a running listener. The set of
// valid channel names and their enumeration order are fixed at construction.
// All operations are serialized under one mutex so concurrent subscribes
// cannot double-spawn a listener and a subscribe/unsubscribe race cannot
// leak one.
type Registry struct {
	mu        sync.Mutex
	source    broker.StreamSource
	sink      broker.EventSink
	order     []string
	listeners map[string]*listener
	log       *slog.Logger
}

// NewRegistry creates a Registry over the given channels, all initially
// unsubscribed.
func NewRegistry(source broker.StreamSource, sink broker.EventSink, channels []string) *Registry {
	return &Registry{
		source:    source,
		sink:      sink,
		order:     append([]string(nil), channels...),
		listeners: make(map[string]*listener),
		log:       slog.Default().With("component", "stream-registry"),
	}
}

func (r *Registry) known(name string) bool {
	for _, c := range r.order {
		if c == name {
			return true
		}
	}
	return false
}

// Subscribe starts a listener for each named channel. Already-subscribed
// channels count as started without spawning a duplicate; unknown names are
// reported as failed.
func (r *Registry) Subscribe(names []string) (started, failed []string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, name := range names {
		if !r.known(name) {
			failed = append(failed, name)
			continue
		}
		if _, ok := r.listeners[name]; ok {
			// Idempotent: one listener per channel.
			started = append(started, name)
			continue
		}

		ctx, cancel := context.WithCancel(context.Background())
		l := &listener{cancel: cancel, done: make(chan struct{})}
		r.listeners[name] = l
		go r.run(ctx, name, l)
		r.log.Info("listener started", "channel", name)
		started = append(started, name)
	}
	return started, failed
}

func (r *Registry) run(ctx context.Context, name string, l *listener) {
	defer close(l.done)
	err := r.source.Listen(ctx, name, r.sink)
	if err != nil && ctx.Err() == nil {
		// The entry stays registered until an explicit unsubscribe; no
		// retry. The operator sees the failure here and in list streams.
		r.log.Error("stream listener failed", "channel", name, "error", err)
	}
}

// Unsubscribe stops the listener for each named channel, joining it before
// reporting it stopped. Unknown or not-subscribed names are reported as
// failed so no-op unsubscribes are visible to the operator.
func (r *Registry) Unsubscribe(names []string) (stopped, failed []string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, name := range names {
		l, ok := r.listeners[name]
		if !ok {
			failed = append(failed, name)
			continue
		}
		l.cancel()
		<-l.done
		delete(r.listeners, name)
		r.log.Info("listener stopped", "channel", name)
		stopped = append(stopped, name)
	}
	return stopped, failed
}

// Active returns the subscribed channel names in declaration order.
func (r *Registry) Active() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []string
	for _, name := range r.order {
		if _, ok := r.listeners[name]; ok {
			out = append(out, name)
		}
	}
	return out
}

// Subscribed reports whether the named channel currently has a listener.
func (r *Registry) Subscribed(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.listeners[name]
	return ok
}

// Shutdown tears down every running listener. Called at process exit.
func (r *Registry) Shutdown() {
	r.Unsubscribe(r.order)
}
