package logger

import (
	"context"
	"log/slog"
	"regexp"
	"strings"
)

const redacted = "***"

var sensitiveKeys = map[string]struct{}{
	"password":      {},
	"token":         {},
	"bot_token":     {},
	"secret":        {},
	"api_key":       {},
	"authorization": {},
	"dsn":           {},
}

// botToken matches Telegram bot tokens, which leak into transport errors through request URLs.
var botToken = regexp.MustCompile(`\d{6,}:[A-Za-z0-9_-]{30,}`)

// MaskingHandler redacts sensitive attributes and bot tokens before delegating to next.
type MaskingHandler struct {
	next slog.Handler
}

func NewMaskingHandler(next slog.Handler) *MaskingHandler {
	return &MaskingHandler{next: next}
}

func (h *MaskingHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *MaskingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &MaskingHandler{next: h.next.WithAttrs(redactAll(attrs))}
}

func (h *MaskingHandler) WithGroup(name string) slog.Handler {
	return &MaskingHandler{next: h.next.WithGroup(name)}
}

func (h *MaskingHandler) Handle(ctx context.Context, record slog.Record) error {
	out := slog.NewRecord(record.Time, record.Level, scrub(record.Message), record.PC)
	record.Attrs(func(attr slog.Attr) bool {
		out.AddAttrs(redact(attr))
		return true
	})

	return h.next.Handle(ctx, out)
}

func redactAll(attrs []slog.Attr) []slog.Attr {
	out := make([]slog.Attr, len(attrs))
	for i, attr := range attrs {
		out[i] = redact(attr)
	}
	return out
}

func redact(attr slog.Attr) slog.Attr {
	if _, ok := sensitiveKeys[strings.ToLower(attr.Key)]; ok {
		return slog.String(attr.Key, redacted)
	}

	value := attr.Value.Resolve()
	switch value.Kind() {
	case slog.KindGroup:
		return slog.Attr{Key: attr.Key, Value: slog.GroupValue(redactAll(value.Group())...)}
	case slog.KindString:
		return slog.String(attr.Key, scrub(value.String()))
	case slog.KindAny:
		if err, ok := value.Any().(error); ok {
			return slog.String(attr.Key, scrub(err.Error()))
		}
	}

	return slog.Attr{Key: attr.Key, Value: value}
}

func scrub(s string) string {
	return botToken.ReplaceAllString(s, redacted)
}
