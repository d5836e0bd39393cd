package handlers

import (
	"context"
	"net/http"

	"github.com/cloo-solutions/mcqgen/internal/domain"
	"github.com/cloo-solutions/mcqgen/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/mock"
)

type MockGenerationService struct {
	mock.Mock
}

func (m *MockGenerationService) GenerateSync(ctx context.Context, input service.GenerateInput) (*service.GenerateOutput, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.GenerateOutput), args.Error(1)
}

func (m *MockGenerationService) Submit(ctx context.Context, input service.GenerateInput) (*domain.QuestionSet, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.QuestionSet), args.Error(1)
}

func (m *MockGenerationService) Get(ctx context.Context, id string) (*domain.QuestionSet, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.QuestionSet), args.Error(1)
}

func (m *MockGenerationService) List(ctx context.Context, input service.ListInput) (*service.ListOutput, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ListOutput), args.Error(1)
}

type MockExportService struct {
	mock.Mock
}

func (m *MockExportService) DownloadURL(ctx context.Context, questionSetID string) (string, error) {
	args := m.Called(ctx, questionSetID)
	return args.String(0), args.Error(1)
}

type MockSearchService struct {
	mock.Mock
}

func (m *MockSearchService) Search(ctx context.Context, query string, limit int) ([]*domain.SimilarQuestion, error) {
	args := m.Called(ctx, query, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.SimilarQuestion), args.Error(1)
}

func withURLParam(req *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func sampleMCQ() domain.MCQ {
	return domain.MCQ{
		Question:      "Who first walked on the moon?",
		Options:       []domain.Option{{Letter: "A", Text: "Buzz Aldrin"}, {Letter: "B", Text: "Neil Armstrong"}},
		CorrectOption: "B",
		Explanation:   "The correct answer is 'Neil Armstrong' based on the context provided.",
		Confidence:    0.91,
		Difficulty:    domain.DifficultyEasy,
		QuestionType:  domain.QuestionTypePerson,
	}
}
