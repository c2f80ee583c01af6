package quiz

import "errors"

var (
	// ErrConfiguration indicates an unusable question set: empty or with duplicate ids.
	ErrConfiguration = errors.New("invalid quiz configuration")
	// ErrInvalidState indicates an operation invoked in a state that forbids it.
	ErrInvalidState = errors.New("operation not allowed in current quiz state")
)
