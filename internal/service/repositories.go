package service

import (
	"context"

	"github.com/cloo-solutions/mcqgen/internal/domain"
	"github.com/cloo-solutions/mcqgen/internal/pagination"
	"github.com/google/uuid"
)

// QuestionSetRepositoryInterface defines the repository interface for question set persistence
type QuestionSetRepositoryInterface interface {
	Create(ctx context.Context, s *domain.QuestionSet) error
	GetByID(ctx context.Context, id string) (*domain.QuestionSet, error)
	ListWithCursor(ctx context.Context, cursor *pagination.Cursor, limit int) (*QuestionSetPageResult, error)
	UpdateStatus(ctx context.Context, id string, status domain.QuestionSetStatus, errMsg string) error
	Complete(ctx context.Context, id string, stats domain.Statistics) error
	SetExportKey(ctx context.Context, id, key string) error
}

type QuestionSetPageResult struct {
	Items      []*domain.QuestionSet
	NextCursor string
	HasMore    bool
}

// MCQItemRepositoryInterface defines the repository interface for generated items
type MCQItemRepositoryInterface interface {
	ReplaceItems(ctx context.Context, questionSetID string, items []domain.MCQ) error
	ListBySet(ctx context.Context, questionSetID string) ([]domain.MCQ, error)
	SearchSimilar(ctx context.Context, embedding []float32, limit int) ([]*domain.SimilarQuestion, error)
}

// GenerationJobRepositoryInterface defines the repository interface for generation job persistence
type GenerationJobRepositoryInterface interface {
	Create(ctx context.Context, job *domain.GenerationJob) error
	ClaimPending(ctx context.Context, limit int) ([]*domain.GenerationJob, error)
	UpdateStatus(ctx context.Context, id string, status domain.GenerationJobStatus, errMsg string) error
	IncrementRetries(ctx context.Context, id string) error
}

// UUIDGenerator defines interface for UUID generation (for testing)
type UUIDGenerator interface {
	NewString() string
}

// DefaultUUIDGenerator is the default UUID generator using google/uuid
type DefaultUUIDGenerator struct{}

// NewString generates a new UUID string
func (g *DefaultUUIDGenerator) NewString() string {
	return uuid.NewString()
}
