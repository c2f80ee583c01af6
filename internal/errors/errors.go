package errors

import (
	"fmt"

	"github.com/Proton-105/quiz-bot/internal/quiz"
)

type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

const (
	CodeConfiguration = "E100"
	CodeTransport     = "E300"
	CodeState         = "E400"
	CodeRateLimit     = "E500"
)

type AppError struct {
	Code        string
	Message     string
	UserMessage string
	Severity    Severity
	Retryable   bool
	cause       error
}

func (e *AppError) Error() string {
	if e == nil {
		return ""
	}

	return e.Message
}

func (e *AppError) Unwrap() error {
	if e == nil {
		return nil
	}

	return e.cause
}

func (e *AppError) Cause() error {
	return e.Unwrap()
}

// NewConfigurationError reports a question set or config that makes startup impossible.
func NewConfigurationError(cause error) *AppError {
	var underlyingMsg string
	if cause != nil {
		underlyingMsg = cause.Error()
	}

	return &AppError{
		Code:        CodeConfiguration,
		Message:     fmt.Sprintf("Configuration error: %s", underlyingMsg),
		UserMessage: "",
		Severity:    SeverityCritical,
		Retryable:   false,
		cause:       cause,
	}
}

func NewTransportError(operation string, cause error) *AppError {
	return &AppError{
		Code:        CodeTransport,
		Message:     fmt.Sprintf("Transport error: %s: %v", operation, cause),
		UserMessage: "",
		Severity:    SeverityMedium,
		Retryable:   true,
		cause:       cause,
	}
}

// NewStateError wraps a quiz state violation. These are dispatcher bugs, never user mistakes.
func NewStateError(msg string, cause error) *AppError {
	if cause == nil {
		cause = quiz.ErrInvalidState
	}

	return &AppError{
		Code:        CodeState,
		Message:     fmt.Sprintf("%s: %v", msg, cause),
		UserMessage: "Something went wrong with the quiz. The operator has been notified.",
		Severity:    SeverityHigh,
		Retryable:   false,
		cause:       cause,
	}
}

func NewRateLimitError(retryAfter int) *AppError {
	return &AppError{
		Code:        CodeRateLimit,
		Message:     fmt.Sprintf("Rate limit exceeded: retry after %d seconds", retryAfter),
		UserMessage: fmt.Sprintf("Too many messages. Try again in %d seconds.", retryAfter),
		Severity:    SeverityLow,
		Retryable:   false,
		cause:       nil,
	}
}
