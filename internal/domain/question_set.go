package domain

import (
	"fmt"
	"strings"
	"time"
)

// QuestionSetStatus tracks where a set is in the generation lifecycle.
type QuestionSetStatus string

const (
	QuestionSetStatusPending    QuestionSetStatus = "pending"
	QuestionSetStatusProcessing QuestionSetStatus = "processing"
	QuestionSetStatusCompleted  QuestionSetStatus = "completed"
	QuestionSetStatusFailed     QuestionSetStatus = "failed"
)

// QuestionSet is one transcript submitted for generation and the MCQs
// produced for it.
type QuestionSet struct {
	ID             string
	Transcript     string
	MaxItems       int
	MinDistractors int
	Status         QuestionSetStatus
	Error          string
	ExportKey      string
	Items          []MCQ
	Statistics     *Statistics
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// ValidateQuestionSet validates a QuestionSet instance
func ValidateQuestionSet(s *QuestionSet) error {
	if s == nil {
		return fmt.Errorf("question set cannot be nil")
	}

	if s.ID == "" {
		return fmt.Errorf("question set ID is required")
	}

	if strings.TrimSpace(s.Transcript) == "" {
		return fmt.Errorf("question set Transcript is required")
	}

	if s.MaxItems <= 0 {
		return fmt.Errorf("question set MaxItems must be positive")
	}

	if s.MinDistractors < 0 || s.MinDistractors > 3 {
		return fmt.Errorf("question set MinDistractors must be between 0 and 3")
	}

	if !IsValidQuestionSetStatus(s.Status) {
		return fmt.Errorf("question set Status is invalid: %s", s.Status)
	}

	return nil
}

// IsValidQuestionSetStatus reports whether s is a known status.
func IsValidQuestionSetStatus(s QuestionSetStatus) bool {
	switch s {
	case QuestionSetStatusPending, QuestionSetStatusProcessing,
		QuestionSetStatusCompleted, QuestionSetStatusFailed:
		return true
	}
	return false
}
