// Package logging is the structured logger shared by the cribfeed client,
// its CLI and the acknowledgement server. Backends are chosen by name with
// New or NewTo.
package logging

import "context"

// Logger writes leveled records with alternating key/value attributes:
//
//	log.Info(ctx, "login succeeded", "account_id", id)
//
// Components scope their records with With, typically once at construction:
//
//	log = log.With("module", "session")
type Logger interface {
	Debug(ctx context.Context, msg string, args ...any)
	Info(ctx context.Context, msg string, args ...any)
	Warn(ctx context.Context, msg string, args ...any)
	Error(ctx context.Context, msg string, args ...any)

	// With returns a child that adds args to every record.
	With(args ...any) Logger
}
