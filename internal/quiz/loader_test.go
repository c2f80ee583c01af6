package quiz

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseQuestions(t *testing.T) {
	testCases := []struct {
		name      string
		data      string
		expected  []Question
		expectErr bool
	}{
		{
			name: "valid set",
			data: `
questions:
  - id: 1
    prompt: "test?"
    answer: "test"
  - id: 2
    prompt: "test2?"
    answer: "test2"
`,
			expected: DefaultQuestions(),
		},
		{name: "blank file", data: "   \n", expectErr: true},
		{name: "no questions", data: "questions: []\n", expectErr: true},
		{name: "malformed yaml", data: "questions: [\n", expectErr: true},
		{
			name: "missing answer",
			data: `
questions:
  - id: 1
    prompt: "test?"
`,
			expectErr: true,
		},
		{
			name: "negative id",
			data: `
questions:
  - id: -1
    prompt: "test?"
    answer: "test"
`,
			expectErr: true,
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			questions, err := ParseQuestions([]byte(tc.data))
			if tc.expectErr {
				require.ErrorIs(t, err, ErrConfiguration)
				assert.Nil(t, questions)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tc.expected, questions)
		})
	}
}

func TestLoadQuestions(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "questions.yaml")
	content := "questions:\n  - id: 3\n    prompt: \"Answer?\"\n    answer: \"42\"\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	questions, err := LoadQuestions(path)
	require.NoError(t, err)
	assert.Equal(t, []Question{{ID: 3, Prompt: "Answer?", ExpectedAnswer: "42"}}, questions)
}

func TestLoadQuestions_MissingFile(t *testing.T) {
	_, err := LoadQuestions(filepath.Join(t.TempDir(), "absent.yaml"))
	require.ErrorIs(t, err, ErrConfiguration)
}
