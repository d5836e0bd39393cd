package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validMCQ() *MCQ {
	return &MCQ{
		Question: "How many attendees does the meeting have?",
		Options: []Option{
			{Letter: "A", Text: "4"},
			{Letter: "B", Text: "5"},
			{Letter: "C", Text: "10"},
		},
		CorrectOption: "B",
		Confidence:    0.82,
		Difficulty:    DifficultyMedium,
		QuestionType:  QuestionTypeProcess,
	}
}

func TestMCQ_CorrectAnswer(t *testing.T) {
	m := validMCQ()
	assert.Equal(t, "5", m.CorrectAnswer())

	text, ok := m.OptionText("Z")
	assert.False(t, ok)
	assert.Empty(t, text)

	assert.Equal(t, map[string]string{"A": "4", "B": "5", "C": "10"}, m.OptionMap())
}

func TestValidateMCQ(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(m *MCQ)
		wantErr bool
		errMsg  string
	}{
		{"Valid", func(m *MCQ) {}, false, ""},
		{"EmptyQuestion", func(m *MCQ) { m.Question = "  " }, true, "question is required"},
		{"SingleOption", func(m *MCQ) { m.Options = m.Options[:1]; m.CorrectOption = "A" }, true, "between 2 and 4"},
		{"TooManyOptions", func(m *MCQ) {
			m.Options = append(m.Options, Option{Letter: "D", Text: "6"}, Option{Letter: "E", Text: "7"})
		}, true, "between 2 and 4"},
		{"DuplicateOptionCaseInsensitive", func(m *MCQ) {
			m.Options = []Option{{Letter: "A", Text: "Paris"}, {Letter: "B", Text: "paris"}}
			m.CorrectOption = "A"
		}, true, "duplicates"},
		{"OutOfOrderLetters", func(m *MCQ) { m.Options[1].Letter = "C" }, true, "expected \"B\""},
		{"CorrectLetterMissing", func(m *MCQ) { m.CorrectOption = "D" }, true, "not among the options"},
		{"ConfidenceOutOfRange", func(m *MCQ) { m.Confidence = 1.5 }, true, "confidence"},
		{"BadDifficulty", func(m *MCQ) { m.Difficulty = "Trivial" }, true, "difficulty"},
		{"BadQuestionType", func(m *MCQ) { m.QuestionType = "Other" }, true, "question type"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := validMCQ()
			tt.mutate(m)
			err := ValidateMCQ(m)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
			} else {
				assert.NoError(t, err)
			}
		})
	}

	assert.Error(t, ValidateMCQ(nil))
}
