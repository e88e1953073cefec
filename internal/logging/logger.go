// Package logging defines the structured-logging interface both the daybook
// server and client log through. The slog adapter in this package is the
// only implementation; the interface keeps call sites free of a direct
// dependency on it.
package logging

import "context"

// Logger is a context-aware, structured logger. The variadic args are
// key-value pairs:
//
//	log.Info(ctx, "asset uploaded", "asset_id", id, "size", size)
type Logger interface {
	// Debug logs fine-grained detail, off by default in production.
	Debug(ctx context.Context, msg string, args ...any)

	// Info logs an informational message.
	Info(ctx context.Context, msg string, args ...any)

	// Warn logs a warning message for unusual but non-fatal conditions.
	Warn(ctx context.Context, msg string, args ...any)

	// Error logs an error message for failures.
	Error(ctx context.Context, msg string, args ...any)

	// With returns a child logger that always includes the given key-value pairs.
	With(args ...any) Logger
}
