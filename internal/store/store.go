// Package store provides the audit log recording command invocations and
// relayed stream events. Order and position state stays at the brokerage;
// only the bot's own activity is recorded here.
package store

import (
	"context"
	"time"
)

// CommandRecord is one audited command invocation.
type CommandRecord struct {
	ID      int64
	Command string
	Args    string
	Outcome string
	Message string
	At      time.Time
}

// AuditStore records bot activity. Implementations must be safe for
// concurrent use; recording is best-effort and must never block command
// handling on failure.
type AuditStore interface {
	// RecordCommand appends one command invocation.
	RecordCommand(ctx context.Context, command, args, outcome, message string) error

	// RecordEvent appends one relayed stream event.
	RecordEvent(ctx context.Context, channel, eventType, message string) error

	// RecentCommands returns the newest command records, up to limit.
	RecentCommands(ctx context.Context, limit int) ([]CommandRecord, error)

	// Close releases the underlying resources.
	Close() error
}

// Compile-time interface check.
var _ AuditStore = (*NopStore)(nil)

// NopStore is an AuditStore that discards everything. Used when no database
// path is configured.
type NopStore struct{}

func (NopStore) RecordCommand(context.Context, string, string, string, string) error { return nil }
func (NopStore) RecordEvent(context.Context, string, string, string) error           { return nil }
func (NopStore) RecentCommands(context.Context, int) ([]CommandRecord, error)        { return nil, nil }
func (NopStore) Close() error                                                        { return nil }
