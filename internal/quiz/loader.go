package quiz

import (
	"fmt"
	"os"
	"strings"

	validator "github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

type questionFile struct {
	Questions []Question `yaml:"questions" validate:"min=1,dive"`
}

// LoadQuestions reads a YAML question set from path.
//
// Expected layout:
//
//	questions:
//	  - id: 1
//	    prompt: "test?"
//	    answer: "test"
func LoadQuestions(path string) ([]Question, error) {
	// #nosec G304: path comes from operator configuration
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read question file %s: %v", ErrConfiguration, path, err)
	}

	questions, err := ParseQuestions(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return questions, nil
}

// ParseQuestions decodes and validates a YAML question set.
func ParseQuestions(data []byte) ([]Question, error) {
	if strings.TrimSpace(string(data)) == "" {
		return nil, fmt.Errorf("%w: question file is empty", ErrConfiguration)
	}

	var file questionFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("%w: parse question file: %v", ErrConfiguration, err)
	}

	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(file); err != nil {
		return nil, fmt.Errorf("%w: validate question file: %v", ErrConfiguration, err)
	}

	return file.Questions, nil
}
