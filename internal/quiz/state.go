package quiz

// State represents the lifecycle state of the quiz session.
type State string

const (
	// StateInitialized indicates that the quiz is loaded and the first question has not been sent.
	StateInitialized State = "initialized"
	// StateAwaitingAnswer indicates that a question has been sent and a reply is expected.
	StateAwaitingAnswer State = "awaiting_answer"
	// StateCompleted indicates that every question has been asked.
	StateCompleted State = "completed"
)

// String implements fmt.Stringer. The zero State reports as "uninitialized".
func (s State) String() string {
	if s == "" {
		return "uninitialized"
	}
	return string(s)
}
