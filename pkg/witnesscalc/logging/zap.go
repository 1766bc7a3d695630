package logging

import (
	"context"
	"fmt"
	"log/slog"

	"go.uber.org/zap"
)

// NewZap returns a Logger that writes through z. Arguments follow the slog
// convention: alternating keys and values, or slog.Attr values.
func NewZap(z *zap.Logger) Logger {
	if z == nil {
		z = zap.NewNop()
	}
	return &zapLogger{logger: z}
}

type zapLogger struct {
	logger *zap.Logger
}

func (l *zapLogger) Debug(_ context.Context, msg string, args ...any) {
	l.logger.Debug(msg, zapFields(args)...)
}

func (l *zapLogger) Info(_ context.Context, msg string, args ...any) {
	l.logger.Info(msg, zapFields(args)...)
}

func (l *zapLogger) Warn(_ context.Context, msg string, args ...any) {
	l.logger.Warn(msg, zapFields(args)...)
}

func (l *zapLogger) Error(_ context.Context, msg string, args ...any) {
	l.logger.Error(msg, zapFields(args)...)
}

func (l *zapLogger) With(args ...any) Logger {
	return &zapLogger{logger: l.logger.With(zapFields(args)...)}
}

// zapFields converts slog-style arguments into zap fields. A trailing key
// without a value is logged under "!BADKEY", as slog does.
func zapFields(args []any) []zap.Field {
	fields := make([]zap.Field, 0, len(args)/2+1)
	for i := 0; i < len(args); i++ {
		switch a := args[i].(type) {
		case slog.Attr:
			fields = append(fields, zap.Any(a.Key, a.Value.Any()))
		case string:
			if i+1 >= len(args) {
				fields = append(fields, zap.String("!BADKEY", a))
				continue
			}
			fields = append(fields, zapField(a, args[i+1]))
			i++
		default:
			fields = append(fields, zap.String("!BADKEY", fmt.Sprint(a)))
		}
	}
	return fields
}

func zapField(key string, v any) zap.Field {
	if err, ok := v.(error); ok {
		return zap.NamedError(key, err)
	}
	return zap.Any(key, v)
}
