package service

import (
	"context"
	"fmt"

	"github.com/cloo-solutions/mcqgen/internal/domain"
	"github.com/cloo-solutions/mcqgen/internal/pagination"
	"github.com/stretchr/testify/mock"
)

// MockQuestionSetRepository is a mock implementation of QuestionSetRepositoryInterface
type MockQuestionSetRepository struct {
	mock.Mock
}

func (m *MockQuestionSetRepository) Create(ctx context.Context, s *domain.QuestionSet) error {
	args := m.Called(ctx, s)
	return args.Error(0)
}

func (m *MockQuestionSetRepository) GetByID(ctx context.Context, id string) (*domain.QuestionSet, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.QuestionSet), args.Error(1)
}

func (m *MockQuestionSetRepository) ListWithCursor(ctx context.Context, cursor *pagination.Cursor, limit int) (*QuestionSetPageResult, error) {
	args := m.Called(ctx, cursor, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*QuestionSetPageResult), args.Error(1)
}

func (m *MockQuestionSetRepository) UpdateStatus(ctx context.Context, id string, status domain.QuestionSetStatus, errMsg string) error {
	args := m.Called(ctx, id, status, errMsg)
	return args.Error(0)
}

func (m *MockQuestionSetRepository) Complete(ctx context.Context, id string, stats domain.Statistics) error {
	args := m.Called(ctx, id, stats)
	return args.Error(0)
}

func (m *MockQuestionSetRepository) SetExportKey(ctx context.Context, id, key string) error {
	args := m.Called(ctx, id, key)
	return args.Error(0)
}

// MockMCQItemRepository is a mock implementation of MCQItemRepositoryInterface
type MockMCQItemRepository struct {
	mock.Mock
}

func (m *MockMCQItemRepository) ReplaceItems(ctx context.Context, questionSetID string, items []domain.MCQ) error {
	args := m.Called(ctx, questionSetID, items)
	return args.Error(0)
}

func (m *MockMCQItemRepository) ListBySet(ctx context.Context, questionSetID string) ([]domain.MCQ, error) {
	args := m.Called(ctx, questionSetID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.MCQ), args.Error(1)
}

func (m *MockMCQItemRepository) SearchSimilar(ctx context.Context, embedding []float32, limit int) ([]*domain.SimilarQuestion, error) {
	args := m.Called(ctx, embedding, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.SimilarQuestion), args.Error(1)
}

// MockGenerationJobRepository is a mock implementation of GenerationJobRepositoryInterface
type MockGenerationJobRepository struct {
	mock.Mock
}

func (m *MockGenerationJobRepository) Create(ctx context.Context, job *domain.GenerationJob) error {
	args := m.Called(ctx, job)
	return args.Error(0)
}

func (m *MockGenerationJobRepository) ClaimPending(ctx context.Context, limit int) ([]*domain.GenerationJob, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.GenerationJob), args.Error(1)
}

func (m *MockGenerationJobRepository) UpdateStatus(ctx context.Context, id string, status domain.GenerationJobStatus, errMsg string) error {
	args := m.Called(ctx, id, status, errMsg)
	return args.Error(0)
}

func (m *MockGenerationJobRepository) IncrementRetries(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockGenerator is a mock implementation of MCQGenerator
type MockGenerator struct {
	mock.Mock
}

func (m *MockGenerator) Generate(ctx context.Context, transcript string, maxItems, minDistractors int) ([]domain.MCQ, error) {
	args := m.Called(ctx, transcript, maxItems, minDistractors)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.MCQ), args.Error(1)
}

// MockExporter is a mock implementation of Exporter
type MockExporter struct {
	mock.Mock
}

func (m *MockExporter) Export(ctx context.Context, set *domain.QuestionSet, items []domain.MCQ) (string, error) {
	args := m.Called(ctx, set, items)
	return args.String(0), args.Error(1)
}

// MockObjectStore is a mock implementation of ObjectStore
type MockObjectStore struct {
	mock.Mock
}

func (m *MockObjectStore) PutObject(ctx context.Context, key string, body []byte, contentType string) error {
	args := m.Called(ctx, key, body, contentType)
	return args.Error(0)
}

func (m *MockObjectStore) GenerateDownloadURL(ctx context.Context, key string) (string, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Error(1)
}

// MockQueryEmbedder is a mock implementation of QueryEmbedder
type MockQueryEmbedder struct {
	mock.Mock
}

func (m *MockQueryEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	args := m.Called(ctx, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]float32), args.Error(1)
}

// sequentialUUIDGenerator returns id-1, id-2, ...
type sequentialUUIDGenerator struct {
	n int
}

func (g *sequentialUUIDGenerator) NewString() string {
	g.n++
	return fmt.Sprintf("id-%d", g.n)
}

func sampleMCQs() []domain.MCQ {
	return []domain.MCQ{
		{
			Question:      "Who first walked on the moon?",
			Options:       []domain.Option{{Letter: "A", Text: "Buzz Aldrin"}, {Letter: "B", Text: "Neil Armstrong"}},
			CorrectOption: "B",
			Confidence:    0.9,
			Difficulty:    domain.DifficultyEasy,
			QuestionType:  domain.QuestionTypePerson,
		},
		{
			Question:      "When did Apollo 11 land?",
			Options:       []domain.Option{{Letter: "A", Text: "1969"}, {Letter: "B", Text: "1972"}},
			CorrectOption: "A",
			Confidence:    0.7,
			Difficulty:    domain.DifficultyMedium,
			QuestionType:  domain.QuestionTypeTemporal,
		},
	}
}
