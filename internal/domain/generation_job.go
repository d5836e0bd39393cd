package domain

import (
	"fmt"
	"time"
)

// GenerationJobStatus represents the status of a generation job
type GenerationJobStatus string

const (
	GenerationJobStatusPending    GenerationJobStatus = "pending"
	GenerationJobStatusProcessing GenerationJobStatus = "processing"
	GenerationJobStatusCompleted  GenerationJobStatus = "completed"
	GenerationJobStatusFailed     GenerationJobStatus = "failed"
)

// GenerationJob is a queued request to run the generator for a question set
type GenerationJob struct {
	ID            string
	QuestionSetID string
	Status        GenerationJobStatus
	Retries       int32
	Error         string
	CreatedAt     time.Time
	ProcessedAt   *time.Time
}

// NewGenerationJob creates a new GenerationJob instance
func NewGenerationJob(
	id, questionSetID string,
	status GenerationJobStatus,
	retries int32,
	errMsg string,
	createdAt time.Time,
	processedAt *time.Time,
) *GenerationJob {
	return &GenerationJob{
		ID:            id,
		QuestionSetID: questionSetID,
		Status:        status,
		Retries:       retries,
		Error:         errMsg,
		CreatedAt:     createdAt,
		ProcessedAt:   processedAt,
	}
}

// ValidateGenerationJob validates a GenerationJob instance
func ValidateGenerationJob(j *GenerationJob) error {
	if j == nil {
		return fmt.Errorf("generation job cannot be nil")
	}

	if j.ID == "" {
		return fmt.Errorf("generation job ID is required")
	}

	if j.QuestionSetID == "" {
		return fmt.Errorf("generation job QuestionSetID is required")
	}

	if !isValidGenerationJobStatus(j.Status) {
		return fmt.Errorf("generation job Status is invalid: %s", j.Status)
	}

	if j.Retries < 0 {
		return fmt.Errorf("generation job Retries cannot be negative")
	}

	return nil
}

func isValidGenerationJobStatus(s GenerationJobStatus) bool {
	switch s {
	case GenerationJobStatusPending, GenerationJobStatusProcessing,
		GenerationJobStatusCompleted, GenerationJobStatusFailed:
		return true
	}
	return false
}
