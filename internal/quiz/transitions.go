package quiz

// validTransitions contains the permitted transitions of the quiz session.
var validTransitions = map[State][]State{
	StateInitialized: {
		StateAwaitingAnswer,
	},
	StateAwaitingAnswer: {
		StateAwaitingAnswer,
		StateCompleted,
	},
	StateCompleted: {
		StateCompleted,
	},
}

// IsTransitionAllowed reports whether moving from one state to another is valid.
func IsTransitionAllowed(from, to State) bool {
	allowed, ok := validTransitions[from]
	if !ok {
		return false
	}

	for _, state := range allowed {
		if state == to {
			return true
		}
	}

	return false
}
