// Package logging is the logging surface of witnesscalc: a small Logger
// interface with slog and zap backends.
//
// # Logger Interface
//
// The Logger interface provides context-aware logging methods:
//
//	type Logger interface {
//	    Debug(ctx context.Context, msg string, args ...any)
//	    Info(ctx context.Context, msg string, args ...any)
//	    Warn(ctx context.Context, msg string, args ...any)
//	    Error(ctx context.Context, msg string, args ...any)
//	    With(args ...any) Logger
//	}
//
// # Implementations
//
// New wraps a *slog.Logger (nil binds to slog.Default()). NewZap wraps a
// *zap.Logger and accepts the same slog-style key/value arguments:
//
//	logger := logging.NewZap(zap.Must(zap.NewProduction()))
//	logger.Info(ctx, "witness calculated", "witness_bytes", n)
//
// # Redaction
//
// Circuit inputs and witnesses carry private signals. Never log them; log
// sizes and codes instead, and use Redacted to record that a value was left
// out:
//
//	logger.Debug(ctx, "calculating witness", logging.Redacted("inputs"), "graph_bytes", len(graph))
//	// Logs: inputs="[redacted]" graph_bytes=...
package logging
