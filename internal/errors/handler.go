package errors

import (
	"context"
	"errors"
	"log/slog"

	"github.com/getsentry/sentry-go"

	"github.com/Proton-105/quiz-bot/pkg/logger"
	"github.com/Proton-105/quiz-bot/pkg/metrics"
)

const (
	codeUnknown        = "unknown"
	defaultUserMessage = "Something went wrong. Please try again later."
)

// Handler is the single sink for errors that reach the edge of an update: it logs them at a
// level derived from severity, counts them, and forwards serious ones to Sentry.
type Handler struct {
	log    *slog.Logger
	sentry bool
}

func NewHandler(log *slog.Logger, sentryEnabled bool) *Handler {
	if log == nil {
		log = slog.Default()
	}

	return &Handler{log: log, sentry: sentryEnabled}
}

// Handle reports err and returns the text that may be shown to the chat (possibly empty) and
// whether the failed operation is worth retrying.
func (h *Handler) Handle(ctx context.Context, err error) (string, bool) {
	if err == nil {
		return "", false
	}
	if ctx == nil {
		ctx = context.Background()
	}

	appErr := classify(err)

	args := []any{
		slog.String("code", appErr.Code),
		slog.String("severity", string(appErr.Severity)),
		slog.Bool("retryable", appErr.Retryable),
		slog.Any("error", err),
	}
	if id := logger.CorrelationIDFromContext(ctx); id != "" {
		args = append(args, slog.String("correlation_id", id))
	}

	// The exception event below replaces the message event the logger would also send.
	captured := h.sentry && appErr.Severity.reportable()
	if captured {
		args = append(args, slog.Bool(logger.SentryCaptured, true))
	}

	h.log.Log(ctx, levelFor(appErr.Severity), "update failed", args...)
	metrics.RecordError(appErr.Code, string(appErr.Severity))

	if captured {
		capture(err, appErr)
	}

	return appErr.UserMessage, appErr.Retryable
}

// classify returns the AppError in err's chain, or a high-severity stand-in for foreign errors.
func classify(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) && appErr != nil {
		return appErr
	}

	return &AppError{
		Code:        codeUnknown,
		Message:     err.Error(),
		UserMessage: defaultUserMessage,
		Severity:    SeverityHigh,
		cause:       err,
	}
}

func levelFor(s Severity) slog.Level {
	switch s {
	case SeverityLow:
		return slog.LevelInfo
	case SeverityMedium:
		return slog.LevelWarn
	default:
		return slog.LevelError
	}
}

func (s Severity) reportable() bool {
	return s == SeverityHigh || s == SeverityCritical
}

func capture(err error, appErr *AppError) {
	sentry.WithScope(func(scope *sentry.Scope) {
		scope.SetTag("code", appErr.Code)
		scope.SetTag("severity", string(appErr.Severity))
		scope.SetLevel(sentryLevel(appErr.Severity))
		sentry.CaptureException(err)
	})
}

func sentryLevel(s Severity) sentry.Level {
	if s == SeverityCritical {
		return sentry.LevelFatal
	}
	return sentry.LevelError
}
