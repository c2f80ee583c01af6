package middleware

import (
	"strings"
	"time"

	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/quiz-bot/internal/bot/handlers"
	"github.com/Proton-105/quiz-bot/pkg/metrics"
)

// Metrics measures execution time and status for bot handlers, reporting them to Prometheus.
func Metrics(next handlers.Handler) handlers.Handler {
	if next == nil {
		return nil
	}

	return func(c telebot.Context) error {
		start := time.Now()
		err := next(c)

		status := "ok"
		if err != nil {
			status = "error"
		}

		metrics.RecordUpdate(updateKind(c), status, time.Since(start))

		return err
	}
}

// updateKind keeps label cardinality bounded: free-form answers never become label values.
func updateKind(c telebot.Context) string {
	if c == nil {
		return "unknown"
	}

	text := c.Text()
	switch {
	case text == "":
		return "other"
	case strings.HasPrefix(text, "/"):
		return "command"
	default:
		return "text"
	}
}
