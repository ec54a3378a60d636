// Package logging defines the structured logging contract used across the
// server. The slog adapter below is the only implementation in this repo,
// but services depend on the interface so tests can swap in a recorder.
package logging

import "context"

// Logger logs structured messages at four levels. The variadic args are
// alternating key/value pairs, as in slog:
//
//	log.Info(ctx, "entry saved", "entryId", id, "tenantId", tenantID)
type Logger interface {
	Debug(ctx context.Context, msg string, args ...any)
	Info(ctx context.Context, msg string, args ...any)
	Warn(ctx context.Context, msg string, args ...any)
	Error(ctx context.Context, msg string, args ...any)

	// With returns a logger that attaches the given pairs to every message.
	With(args ...any) Logger
}
