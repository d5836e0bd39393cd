package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cloo-solutions/mcqgen/internal/domain"
	"github.com/cloo-solutions/mcqgen/internal/pagination"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type generationFixture struct {
	gen      *MockGenerator
	sets     *MockQuestionSetRepository
	items    *MockMCQItemRepository
	jobs     *MockGenerationJobRepository
	exporter *MockExporter
	tx       *testTxRunner
	svc      *GenerationService
}

func newGenerationFixture(t *testing.T, withExporter bool) *generationFixture {
	f := &generationFixture{
		gen:   new(MockGenerator),
		sets:  new(MockQuestionSetRepository),
		items: new(MockMCQItemRepository),
		jobs:  new(MockGenerationJobRepository),
	}
	f.tx = &testTxRunner{repos: &testTxRepos{questionSets: f.sets, mcqItems: f.items, generationJobs: f.jobs}}

	var exporter Exporter
	if withExporter {
		f.exporter = new(MockExporter)
		exporter = f.exporter
	}
	f.svc = NewGenerationService(f.gen, f.tx, f.sets, f.items, exporter, zaptest.NewLogger(t)).
		WithUUIDGen(&sequentialUUIDGenerator{})
	f.svc.now = func() time.Time { return time.Date(2024, 7, 20, 20, 17, 0, 0, time.UTC) }
	return f
}

func TestGenerationService_GenerateSync(t *testing.T) {
	f := newGenerationFixture(t, false)
	mcqs := sampleMCQs()
	f.gen.On("Generate", mock.Anything, "transcript", 5, 1).Return(mcqs, nil)

	out, err := f.svc.GenerateSync(context.Background(), GenerateInput{Transcript: "transcript", MaxItems: 5, MinDistractors: 1})
	require.NoError(t, err)
	assert.Equal(t, mcqs, out.MCQs)
	assert.Equal(t, 2, out.Statistics.TotalMCQs)
	assert.InDelta(t, 0.8, out.Statistics.AverageConfidence, 1e-9)
	f.gen.AssertExpectations(t)
}

func TestGenerationService_GenerateSync_Validation(t *testing.T) {
	tests := []struct {
		name  string
		input GenerateInput
		want  error
	}{
		{"empty transcript", GenerateInput{Transcript: "   ", MaxItems: 5, MinDistractors: 1}, domain.ErrEmptyTranscript},
		{"zero max", GenerateInput{Transcript: "text", MaxItems: 0, MinDistractors: 1}, domain.ErrInvalidMaxItems},
		{"too many distractors", GenerateInput{Transcript: "text", MaxItems: 5, MinDistractors: 4}, domain.ErrInvalidMinDistractors},
		{"negative distractors", GenerateInput{Transcript: "text", MaxItems: 5, MinDistractors: -1}, domain.ErrInvalidMinDistractors},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newGenerationFixture(t, false)
			_, err := f.svc.GenerateSync(context.Background(), tt.input)
			assert.ErrorIs(t, err, tt.want)
			f.gen.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestGenerationService_GenerateSync_GeneratorError(t *testing.T) {
	f := newGenerationFixture(t, false)
	f.gen.On("Generate", mock.Anything, "text", 3, 1).Return(nil, context.Canceled)

	_, err := f.svc.GenerateSync(context.Background(), GenerateInput{Transcript: "text", MaxItems: 3, MinDistractors: 1})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestGenerationService_Submit(t *testing.T) {
	f := newGenerationFixture(t, false)
	f.sets.On("Create", mock.Anything, mock.MatchedBy(func(s *domain.QuestionSet) bool {
		return s.ID == "id-1" && s.Status == domain.QuestionSetStatusPending && s.MaxItems == 10
	})).Return(nil)
	f.jobs.On("Create", mock.Anything, mock.MatchedBy(func(j *domain.GenerationJob) bool {
		return j.ID == "id-2" && j.QuestionSetID == "id-1" && j.Status == domain.GenerationJobStatusPending
	})).Return(nil)

	set, err := f.svc.Submit(context.Background(), GenerateInput{Transcript: "text", MaxItems: 10, MinDistractors: 2})
	require.NoError(t, err)
	assert.Equal(t, "id-1", set.ID)
	assert.Equal(t, 2, set.MinDistractors)
	assert.True(t, f.tx.called)
	f.sets.AssertExpectations(t)
	f.jobs.AssertExpectations(t)
}

func TestGenerationService_Submit_JobCreateFails(t *testing.T) {
	f := newGenerationFixture(t, false)
	dbErr := errors.New("insert failed")
	f.sets.On("Create", mock.Anything, mock.Anything).Return(nil)
	f.jobs.On("Create", mock.Anything, mock.Anything).Return(dbErr)

	_, err := f.svc.Submit(context.Background(), GenerateInput{Transcript: "text", MaxItems: 10, MinDistractors: 1})
	assert.ErrorIs(t, err, dbErr)
}

func TestGenerationService_Get(t *testing.T) {
	t.Run("pending set has no items", func(t *testing.T) {
		f := newGenerationFixture(t, false)
		f.sets.On("GetByID", mock.Anything, "set-1").Return(&domain.QuestionSet{ID: "set-1", Status: domain.QuestionSetStatusPending}, nil)

		set, err := f.svc.Get(context.Background(), "set-1")
		require.NoError(t, err)
		assert.Empty(t, set.Items)
		f.items.AssertNotCalled(t, "ListBySet", mock.Anything, mock.Anything)
	})

	t.Run("completed set loads items", func(t *testing.T) {
		f := newGenerationFixture(t, false)
		f.sets.On("GetByID", mock.Anything, "set-1").Return(&domain.QuestionSet{ID: "set-1", Status: domain.QuestionSetStatusCompleted}, nil)
		f.items.On("ListBySet", mock.Anything, "set-1").Return(sampleMCQs(), nil)

		set, err := f.svc.Get(context.Background(), "set-1")
		require.NoError(t, err)
		assert.Len(t, set.Items, 2)
	})

	t.Run("not found", func(t *testing.T) {
		f := newGenerationFixture(t, false)
		f.sets.On("GetByID", mock.Anything, "missing").Return(nil, domain.ErrQuestionSetNotFound)

		_, err := f.svc.Get(context.Background(), "missing")
		assert.ErrorIs(t, err, domain.ErrQuestionSetNotFound)
	})
}

func TestGenerationService_List(t *testing.T) {
	f := newGenerationFixture(t, false)
	ts := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	cursor := pagination.EncodeCursor("set-9", ts)

	f.sets.On("ListWithCursor", mock.Anything, mock.MatchedBy(func(c *pagination.Cursor) bool {
		return c != nil && c.LastID == "set-9" && c.Timestamp.Equal(ts)
	}), MaxListLimit).Return(&QuestionSetPageResult{
		Items:      []*domain.QuestionSet{{ID: "set-8"}},
		NextCursor: "next",
		HasMore:    true,
	}, nil)

	out, err := f.svc.List(context.Background(), ListInput{Cursor: cursor, Limit: 500})
	require.NoError(t, err)
	assert.Len(t, out.Items, 1)
	assert.Equal(t, "next", out.Cursor)
	assert.True(t, out.HasMore)
}

func TestGenerationService_List_InvalidCursor(t *testing.T) {
	f := newGenerationFixture(t, false)

	_, err := f.svc.List(context.Background(), ListInput{Cursor: "%%%"})
	var de *domain.DomainError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, domain.ErrCodeValidation, de.Code)
}

func TestGenerationService_ProcessSet(t *testing.T) {
	f := newGenerationFixture(t, true)
	set := &domain.QuestionSet{ID: "set-1", Transcript: "text", MaxItems: 4, MinDistractors: 1, Status: domain.QuestionSetStatusPending}
	mcqs := sampleMCQs()

	f.sets.On("GetByID", mock.Anything, "set-1").Return(set, nil)
	f.sets.On("UpdateStatus", mock.Anything, "set-1", domain.QuestionSetStatusProcessing, "").Return(nil)
	f.gen.On("Generate", mock.Anything, "text", 4, 1).Return(mcqs, nil)
	f.items.On("ReplaceItems", mock.Anything, "set-1", mcqs).Return(nil)
	f.sets.On("Complete", mock.Anything, "set-1", domain.ComputeStatistics(mcqs)).Return(nil)
	f.exporter.On("Export", mock.Anything, set, mcqs).Return("exports/set-1.json", nil)

	require.NoError(t, f.svc.ProcessSet(context.Background(), "set-1"))
	assert.Equal(t, domain.QuestionSetStatusCompleted, set.Status)
	f.sets.AssertExpectations(t)
	f.items.AssertExpectations(t)
	f.exporter.AssertExpectations(t)
}

func TestGenerationService_ProcessSet_ExportFailureIsNotFatal(t *testing.T) {
	f := newGenerationFixture(t, true)
	set := &domain.QuestionSet{ID: "set-1", Transcript: "text", MaxItems: 4, MinDistractors: 1, Status: domain.QuestionSetStatusPending}

	f.sets.On("GetByID", mock.Anything, "set-1").Return(set, nil)
	f.sets.On("UpdateStatus", mock.Anything, "set-1", domain.QuestionSetStatusProcessing, "").Return(nil)
	f.gen.On("Generate", mock.Anything, "text", 4, 1).Return([]domain.MCQ{}, nil)
	f.items.On("ReplaceItems", mock.Anything, "set-1", []domain.MCQ{}).Return(nil)
	f.sets.On("Complete", mock.Anything, "set-1", mock.Anything).Return(nil)
	f.exporter.On("Export", mock.Anything, set, []domain.MCQ{}).Return("", domain.ErrStorageOperationFail)

	assert.NoError(t, f.svc.ProcessSet(context.Background(), "set-1"))
}

func TestGenerationService_ProcessSet_GeneratorError(t *testing.T) {
	f := newGenerationFixture(t, false)
	genErr := errors.New("provider down")

	f.sets.On("GetByID", mock.Anything, "set-1").Return(&domain.QuestionSet{ID: "set-1", Transcript: "text", MaxItems: 4, MinDistractors: 1}, nil)
	f.sets.On("UpdateStatus", mock.Anything, "set-1", domain.QuestionSetStatusProcessing, "").Return(nil)
	f.gen.On("Generate", mock.Anything, "text", 4, 1).Return(nil, genErr)

	err := f.svc.ProcessSet(context.Background(), "set-1")
	assert.ErrorIs(t, err, genErr)
	f.items.AssertNotCalled(t, "ReplaceItems", mock.Anything, mock.Anything, mock.Anything)
}

func TestGenerationService_ProcessSet_AlreadyCompleted(t *testing.T) {
	f := newGenerationFixture(t, false)
	f.sets.On("GetByID", mock.Anything, "set-1").Return(&domain.QuestionSet{ID: "set-1", Status: domain.QuestionSetStatusCompleted}, nil)

	assert.NoError(t, f.svc.ProcessSet(context.Background(), "set-1"))
	f.gen.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestGenerationService_MarkFailed(t *testing.T) {
	f := newGenerationFixture(t, false)
	f.sets.On("UpdateStatus", mock.Anything, "set-1", domain.QuestionSetStatusFailed, "max retries exceeded").Return(nil)

	require.NoError(t, f.svc.MarkFailed(context.Background(), "set-1", "max retries exceeded"))
	f.sets.AssertExpectations(t)
}
