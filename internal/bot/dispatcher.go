package bot

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/Proton-105/quiz-bot/internal/bot/handlers"
	apperrors "github.com/Proton-105/quiz-bot/internal/errors"
	"github.com/Proton-105/quiz-bot/internal/i18n"
	"github.com/Proton-105/quiz-bot/internal/quiz"
	"github.com/Proton-105/quiz-bot/pkg/metrics"
)

const keyCompleted = "quiz.completed"

// ErrorReporter surfaces failures to the operator.
type ErrorReporter interface {
	Handle(ctx context.Context, err error) (string, bool)
}

// Dispatcher routes inbound chat messages into the quiz session. It serializes access to the
// manager: each message is handled to completion, reply included, before the next one starts.
type Dispatcher struct {
	mu           sync.Mutex
	manager      *quiz.Manager
	startCommand string
	translator   i18n.Translator
	reporter     ErrorReporter
	log          *slog.Logger
}

// Snapshot is a consistent read of the session used by health checks and logs.
type Snapshot struct {
	State    quiz.State
	Cursor   int
	Answered int
	Correct  int
	Total    int
}

var _ handlers.MessageDispatcher = (*Dispatcher)(nil)

// NewDispatcher builds a dispatcher around an initialized manager.
func NewDispatcher(manager *quiz.Manager, startCommand string, translator i18n.Translator, reporter ErrorReporter, log *slog.Logger) (*Dispatcher, error) {
	if manager == nil || manager.State() == "" {
		return nil, errors.New("dispatcher requires an initialized quiz manager")
	}
	if startCommand == "" {
		return nil, errors.New("dispatcher requires a start command")
	}
	if translator == nil {
		catalog, err := i18n.Builtin(i18n.DefaultLang)
		if err != nil {
			return nil, err
		}
		translator = catalog.Default()
	}
	if log == nil {
		log = slog.Default()
	}

	metrics.SetQuizState(manager.State())

	return &Dispatcher{
		manager:      manager,
		startCommand: startCommand,
		translator:   translator,
		reporter:     reporter,
		log:          log,
	}, nil
}

// OnMessage handles one inbound message and emits at most one reply through out.
//
// In Initialized only the start command has an effect: it presents the first question. In
// AwaitingAnswer the text is recorded as the answer to the active question and the session
// advances, replying with the next prompt or the final score. Everything else is ignored.
// A failed reply is reported but never undoes the state change.
func (d *Dispatcher) OnMessage(ctx context.Context, text string, out handlers.Sender) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	var (
		reply string
		err   error
	)

	switch d.manager.State() {
	case quiz.StateInitialized:
		if text != d.startCommand {
			d.log.DebugContext(ctx, "ignoring message before quiz start")
			return nil
		}
		reply, err = d.start()
	case quiz.StateAwaitingAnswer:
		reply, err = d.answer(ctx, text)
	case quiz.StateCompleted:
		d.log.DebugContext(ctx, "ignoring message after quiz completion")
		return nil
	default:
		err = quiz.ErrInvalidState
	}
	if err != nil {
		return apperrors.NewStateError("dispatch inbound message", err)
	}

	d.emit(ctx, out, reply)
	return nil
}

// Snapshot returns the current session counters.
func (d *Dispatcher) Snapshot() Snapshot {
	d.mu.Lock()
	defer d.mu.Unlock()

	cursor, _ := d.manager.Cursor()
	score := d.manager.Score()

	return Snapshot{
		State:    d.manager.State(),
		Cursor:   cursor,
		Answered: score.Total,
		Correct:  score.Correct,
		Total:    d.manager.Len(),
	}
}

func (d *Dispatcher) start() (string, error) {
	if err := d.advance(); err != nil {
		return "", err
	}

	prompt, ok := d.manager.CurrentPrompt()
	if !ok {
		return "", quiz.ErrInvalidState
	}
	return prompt, nil
}

func (d *Dispatcher) answer(ctx context.Context, text string) (string, error) {
	question, _ := d.manager.ActiveQuestion()

	correct, err := d.manager.RecordAnswer(text)
	if err != nil {
		return "", err
	}
	metrics.RecordAnswer(correct)
	d.log.InfoContext(ctx, "answer recorded", slog.Int("question_id", question.ID), slog.Bool("correct", correct))

	if err := d.advance(); err != nil {
		return "", err
	}

	switch d.manager.State() {
	case quiz.StateAwaitingAnswer:
		prompt, ok := d.manager.CurrentPrompt()
		if !ok {
			return "", quiz.ErrInvalidState
		}
		return prompt, nil
	case quiz.StateCompleted:
		score := d.manager.Score()
		d.log.InfoContext(ctx, "quiz completed", slog.Int("correct", score.Correct), slog.Int("total", score.Total))
		return d.translator.T(keyCompleted, score.Correct, score.Total), nil
	default:
		return "", quiz.ErrInvalidState
	}
}

func (d *Dispatcher) advance() error {
	from := d.manager.State()
	to, err := d.manager.Advance()
	if err != nil {
		return err
	}
	metrics.RecordStateTransition(from, to)
	return nil
}

func (d *Dispatcher) emit(ctx context.Context, out handlers.Sender, text string) {
	if out == nil || text == "" {
		return
	}

	if err := out.Send(ctx, text); err != nil {
		metrics.RecordOutbound(false)
		transportErr := apperrors.NewTransportError("send reply", err)
		if d.reporter != nil {
			d.reporter.Handle(ctx, transportErr)
		} else {
			d.log.ErrorContext(ctx, "failed to send reply", slog.Any("error", transportErr))
		}
		return
	}

	metrics.RecordOutbound(true)
}
