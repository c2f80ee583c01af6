// Package metrics exposes Prometheus instrumentation for the quiz bot.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/Proton-105/quiz-bot/internal/quiz"
)

var (
	botUpdatesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_updates_total",
			Help: "Total number of inbound chat updates labeled by kind and status",
		},
		[]string{"kind", "status"},
	)
	updateDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "update_duration_seconds",
			Help:    "Duration of inbound update handling in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"kind"},
	)
	stateTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quiz_state_transitions_total",
			Help: "Total number of quiz state transitions",
		},
		[]string{"from", "to"},
	)
	answersTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quiz_answers_total",
			Help: "Total number of recorded answers split by correctness",
		},
		[]string{"result"},
	)
	outboundMessagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "outbound_messages_total",
			Help: "Total number of outbound chat messages split by delivery status",
		},
		[]string{"status"},
	)
	errorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "errors_total",
			Help: "Total number of errors split by type and severity",
		},
		[]string{"type", "severity"},
	)
	quizState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "quiz_state",
			Help: "1 for the current quiz state, 0 for the others",
		},
		[]string{"state"},
	)
)

var trackedStates = []quiz.State{
	quiz.StateInitialized,
	quiz.StateAwaitingAnswer,
	quiz.StateCompleted,
}

// RecordUpdate increments update counters and records duration.
func RecordUpdate(kind, status string, duration time.Duration) {
	if kind == "" {
		kind = "unknown"
	}
	if status == "" {
		status = "unknown"
	}

	botUpdatesTotal.WithLabelValues(kind, status).Inc()
	updateDurationSeconds.WithLabelValues(kind).Observe(duration.Seconds())
}

// RecordStateTransition tracks quiz transitions and refreshes the state gauge.
func RecordStateTransition(from, to quiz.State) {
	if from == to {
		return
	}

	stateTransitionsTotal.WithLabelValues(from.String(), to.String()).Inc()
	SetQuizState(to)
}

// RecordAnswer counts a recorded answer.
func RecordAnswer(correct bool) {
	result := "wrong"
	if correct {
		result = "correct"
	}

	answersTotal.WithLabelValues(result).Inc()
}

// RecordOutbound counts an outbound message attempt.
func RecordOutbound(delivered bool) {
	status := "failed"
	if delivered {
		status = "delivered"
	}

	outboundMessagesTotal.WithLabelValues(status).Inc()
}

// RecordError increments error counters with metadata.
func RecordError(errType, severity string) {
	if errType == "" {
		errType = "unknown"
	}
	if severity == "" {
		severity = "unknown"
	}

	errorsTotal.WithLabelValues(errType, severity).Inc()
}

// SetQuizState marks current as the only active state.
func SetQuizState(current quiz.State) {
	for _, tracked := range trackedStates {
		value := 0.0
		if tracked == current {
			value = 1
		}
		quizState.WithLabelValues(tracked.String()).Set(value)
	}
}
