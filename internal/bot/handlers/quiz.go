package handlers

import (
	"context"
	"errors"

	telebot "gopkg.in/telebot.v3"
)

// Sender delivers one outbound text message.
type Sender interface {
	Send(ctx context.Context, text string) error
}

// SenderFunc adapts an ordinary function to Sender.
type SenderFunc func(ctx context.Context, text string) error

func (f SenderFunc) Send(ctx context.Context, text string) error {
	return f(ctx, text)
}

// MessageDispatcher consumes inbound chat text and replies through out.
type MessageDispatcher interface {
	OnMessage(ctx context.Context, text string, out Sender) error
}

// Guard runs a send attempt, typically through a circuit breaker.
type Guard func(fn func() error) error

// NewQuizHandler feeds every text update to d, replying in the update's chat.
func NewQuizHandler(d MessageDispatcher, guard Guard) (Handler, error) {
	if d == nil {
		return nil, errors.New("quiz handler requires a dispatcher")
	}

	return func(c telebot.Context) error {
		if c == nil || c.Message() == nil {
			return nil
		}

		out := SenderFunc(func(_ context.Context, text string) error {
			if guard == nil {
				return c.Send(text)
			}
			return guard(func() error { return c.Send(text) })
		})

		return d.OnMessage(ContextFrom(c), c.Text(), out)
	}, nil
}
