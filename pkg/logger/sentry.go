package logger

import (
	"context"
	"log/slog"
)

// SentryCaptured marks a record whose error was already sent to Sentry as an exception, so the
// logger's Sentry leg skips it.
const SentryCaptured = "sentry_captured"

// uncaptured forwards records to next unless they carry SentryCaptured=true.
type uncaptured struct {
	next slog.Handler
}

func (h uncaptured) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h uncaptured) Handle(ctx context.Context, record slog.Record) error {
	captured := false
	record.Attrs(func(attr slog.Attr) bool {
		if attr.Key == SentryCaptured && attr.Value.Kind() == slog.KindBool && attr.Value.Bool() {
			captured = true
			return false
		}
		return true
	})
	if captured {
		return nil
	}

	return h.next.Handle(ctx, record)
}

func (h uncaptured) WithAttrs(attrs []slog.Attr) slog.Handler {
	return uncaptured{next: h.next.WithAttrs(attrs)}
}

func (h uncaptured) WithGroup(name string) slog.Handler {
	return uncaptured{next: h.next.WithGroup(name)}
}
