package quiz

import "testing"

func TestIsTransitionAllowed(t *testing.T) {
	testCases := []struct {
		name     string
		from     State
		to       State
		expected bool
	}{
		{name: "initialized to awaiting answer", from: StateInitialized, to: StateAwaitingAnswer, expected: true},
		{name: "awaiting answer to next question", from: StateAwaitingAnswer, to: StateAwaitingAnswer, expected: true},
		{name: "awaiting answer to completed", from: StateAwaitingAnswer, to: StateCompleted, expected: true},
		{name: "completed stays completed", from: StateCompleted, to: StateCompleted, expected: true},
		{name: "initialized to completed invalid", from: StateInitialized, to: StateCompleted, expected: false},
		{name: "completed to awaiting answer invalid", from: StateCompleted, to: StateAwaitingAnswer, expected: false},
		{name: "awaiting answer back to initialized invalid", from: StateAwaitingAnswer, to: StateInitialized, expected: false},
		{name: "uninitialized to anything invalid", from: State(""), to: StateAwaitingAnswer, expected: false},
		{name: "unknown state invalid", from: State("unknown"), to: StateCompleted, expected: false},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			if actual := IsTransitionAllowed(tc.from, tc.to); actual != tc.expected {
				t.Errorf("IsTransitionAllowed(%s -> %s) = %t, expected %t", tc.from, tc.to, actual, tc.expected)
			}
		})
	}
}
