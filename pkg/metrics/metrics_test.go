package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/Proton-105/quiz-bot/internal/quiz"
)

func TestRecordStateTransition(t *testing.T) {
	counter := stateTransitionsTotal.WithLabelValues("initialized", "awaiting_answer")
	before := testutil.ToFloat64(counter)

	RecordStateTransition(quiz.StateInitialized, quiz.StateAwaitingAnswer)
	RecordStateTransition(quiz.StateAwaitingAnswer, quiz.StateAwaitingAnswer)

	assert.Equal(t, before+1, testutil.ToFloat64(counter))
	assert.Equal(t, 1.0, testutil.ToFloat64(quizState.WithLabelValues("awaiting_answer")))
	assert.Equal(t, 0.0, testutil.ToFloat64(quizState.WithLabelValues("initialized")))
	assert.Equal(t, 0.0, testutil.ToFloat64(quizState.WithLabelValues("completed")))
}

func TestRecordAnswer(t *testing.T) {
	correct := answersTotal.WithLabelValues("correct")
	wrong := answersTotal.WithLabelValues("wrong")
	correctBefore, wrongBefore := testutil.ToFloat64(correct), testutil.ToFloat64(wrong)

	RecordAnswer(true)
	RecordAnswer(false)
	RecordAnswer(false)

	assert.Equal(t, correctBefore+1, testutil.ToFloat64(correct))
	assert.Equal(t, wrongBefore+2, testutil.ToFloat64(wrong))
}

func TestRecordUpdate_DefaultsLabels(t *testing.T) {
	counter := botUpdatesTotal.WithLabelValues("unknown", "unknown")
	before := testutil.ToFloat64(counter)

	RecordUpdate("", "", time.Millisecond)

	assert.Equal(t, before+1, testutil.ToFloat64(counter))
}
