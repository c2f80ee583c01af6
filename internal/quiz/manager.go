package quiz

import (
	"fmt"
)

// Manager owns the question sequence, the cursor into it, and the per-question results.
//
// The active question is never stored separately: it is always derived from the cursor, so
// the two cannot disagree. A Manager provides no internal synchronization; callers that share
// it across goroutines must serialize access.
type Manager struct {
	questions []Question
	cursor    int
	results   map[int]bool
	state     State
}

// NewManager builds a Manager initialized with the provided question set.
func NewManager(questions []Question) (*Manager, error) {
	m := &Manager{}
	if err := m.Initialize(questions); err != nil {
		return nil, err
	}

	return m, nil
}

// Initialize loads the question set and resets progress. On failure the manager is left untouched.
func (m *Manager) Initialize(questions []Question) error {
	if len(questions) == 0 {
		return fmt.Errorf("%w: question set is empty", ErrConfiguration)
	}

	seen := make(map[int]struct{}, len(questions))
	for _, q := range questions {
		if _, dup := seen[q.ID]; dup {
			return fmt.Errorf("%w: duplicate question id %d", ErrConfiguration, q.ID)
		}
		seen[q.ID] = struct{}{}
	}

	m.questions = append([]Question(nil), questions...)
	m.cursor = 0
	m.results = make(map[int]bool, len(questions))
	m.state = StateInitialized

	return nil
}

// State returns the current state. The zero State means the manager was never initialized.
func (m *Manager) State() State {
	return m.state
}

// Len returns the number of questions in the set.
func (m *Manager) Len() int {
	return len(m.questions)
}

// Cursor returns the position in the question set and whether it points at an active question.
// Once completed the position equals Len.
func (m *Manager) Cursor() (int, bool) {
	return m.cursor, m.hasActive()
}

// ActiveQuestion returns the question currently in play.
func (m *Manager) ActiveQuestion() (Question, bool) {
	if !m.hasActive() {
		return Question{}, false
	}
	return m.questions[m.cursor], true
}

// Advance moves the session forward and returns the resulting state.
//
// From Initialized it presents the first question without moving the cursor. From AwaitingAnswer
// it moves the cursor to the next question, or to Completed once the last one has been passed.
// On Completed it is a no-op.
func (m *Manager) Advance() (State, error) {
	switch m.state {
	case StateInitialized:
		if err := m.transition(StateAwaitingAnswer); err != nil {
			return m.state, err
		}
	case StateAwaitingAnswer:
		next := m.cursor + 1
		target := StateAwaitingAnswer
		if next >= len(m.questions) {
			target = StateCompleted
		}
		if err := m.transition(target); err != nil {
			return m.state, err
		}
		m.cursor = next
	case StateCompleted:
		return m.state, nil
	default:
		return m.state, fmt.Errorf("%w: advance on %s quiz", ErrInvalidState, m.state)
	}

	return m.state, nil
}

// RecordAnswer compares text with the active question's expected answer and stores the outcome
// under the question id, replacing any earlier outcome. It does not advance the session.
func (m *Manager) RecordAnswer(text string) (bool, error) {
	if m.state != StateAwaitingAnswer {
		return false, fmt.Errorf("%w: record answer while %s", ErrInvalidState, m.state)
	}

	question, ok := m.ActiveQuestion()
	if !ok {
		return false, fmt.Errorf("%w: no active question at cursor %d", ErrInvalidState, m.cursor)
	}

	correct := question.Matches(text)
	m.results[question.ID] = correct

	return correct, nil
}

// CurrentPrompt returns the active question's prompt, or false once the quiz is completed.
func (m *Manager) CurrentPrompt() (string, bool) {
	question, ok := m.ActiveQuestion()
	if !ok {
		return "", false
	}
	return question.Prompt, true
}

// Result returns the recorded outcome for a question id and whether one exists.
func (m *Manager) Result(id int) (correct bool, answered bool) {
	correct, answered = m.results[id]
	return correct, answered
}

// Score counts correct results and total recorded results.
func (m *Manager) Score() Score {
	score := Score{Total: len(m.results)}
	for _, correct := range m.results {
		if correct {
			score.Correct++
		}
	}
	return score
}

func (m *Manager) hasActive() bool {
	if m.state != StateInitialized && m.state != StateAwaitingAnswer {
		return false
	}
	return m.cursor >= 0 && m.cursor < len(m.questions)
}

func (m *Manager) transition(to State) error {
	if !IsTransitionAllowed(m.state, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidState, m.state, to)
	}

	m.state = to
	return nil
}
