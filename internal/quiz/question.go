// Package quiz implements the quiz progression state machine and its answer bookkeeping.
package quiz

// Question is an immutable prompt/expected-answer pair.
type Question struct {
	ID             int    `yaml:"id" validate:"gte=0"`
	Prompt         string `yaml:"prompt" validate:"required"`
	ExpectedAnswer string `yaml:"answer" validate:"required"`
}

// Matches reports whether text is exactly the expected answer.
// Comparison is byte-for-byte: case-sensitive and without trimming.
func (q Question) Matches(text string) bool {
	return text == q.ExpectedAnswer
}

// Score summarises recorded results.
type Score struct {
	Correct int
	Total   int
}

// DefaultQuestions returns the built-in question set used when no file is configured.
func DefaultQuestions() []Question {
	return []Question{
		{ID: 1, Prompt: "test?", ExpectedAnswer: "test"},
		{ID: 2, Prompt: "test2?", ExpectedAnswer: "test2"},
	}
}
