//go:build integration

package repository

import (
	"context"
	"testing"
	"time"

	"github.com/cloo-solutions/mcqgen/internal/domain"
	"github.com/cloo-solutions/mcqgen/internal/pagination"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuestionSetRepository_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	repo := NewQuestionSetRepository(newTestPool(ctx, t))

	now := time.Now().UTC().Truncate(time.Microsecond)
	s := createTestQuestionSet(ctx, t, repo, now)

	got, err := repo.GetByID(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, s.ID, got.ID)
	assert.Equal(t, s.Transcript, got.Transcript)
	assert.Equal(t, 5, got.MaxItems)
	assert.Equal(t, 1, got.MinDistractors)
	assert.Equal(t, domain.QuestionSetStatusPending, got.Status)
	assert.Empty(t, got.Error)
	assert.Empty(t, got.ExportKey)
	assert.Nil(t, got.Statistics)
	assert.True(t, now.Equal(got.CreatedAt))
}

func TestQuestionSetRepository_GetByID_NotFound(t *testing.T) {
	ctx := context.Background()
	repo := NewQuestionSetRepository(newTestPool(ctx, t))

	_, err := repo.GetByID(ctx, uuid.NewString())
	assert.ErrorIs(t, err, domain.ErrQuestionSetNotFound)
}

func TestQuestionSetRepository_UpdateStatus(t *testing.T) {
	ctx := context.Background()
	repo := NewQuestionSetRepository(newTestPool(ctx, t))
	s := createTestQuestionSet(ctx, t, repo, time.Now().UTC())

	require.NoError(t, repo.UpdateStatus(ctx, s.ID, domain.QuestionSetStatusFailed, "provider unavailable"))

	got, err := repo.GetByID(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.QuestionSetStatusFailed, got.Status)
	assert.Equal(t, "provider unavailable", got.Error)

	err = repo.UpdateStatus(ctx, uuid.NewString(), domain.QuestionSetStatusFailed, "")
	assert.ErrorIs(t, err, domain.ErrQuestionSetNotFound)
}

func TestQuestionSetRepository_CompleteStoresStatistics(t *testing.T) {
	ctx := context.Background()
	repo := NewQuestionSetRepository(newTestPool(ctx, t))
	s := createTestQuestionSet(ctx, t, repo, time.Now().UTC())
	require.NoError(t, repo.UpdateStatus(ctx, s.ID, domain.QuestionSetStatusProcessing, "stale"))

	stats := domain.ComputeStatistics([]domain.MCQ{
		{Confidence: 0.8, Difficulty: domain.DifficultyEasy, QuestionType: domain.QuestionTypePerson},
		{Confidence: 0.6, Difficulty: domain.DifficultyHard, QuestionType: domain.QuestionTypeTemporal},
	})
	require.NoError(t, repo.Complete(ctx, s.ID, stats))
	require.NoError(t, repo.SetExportKey(ctx, s.ID, "exports/"+s.ID+".json"))

	got, err := repo.GetByID(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.QuestionSetStatusCompleted, got.Status)
	assert.Empty(t, got.Error)
	assert.Equal(t, "exports/"+s.ID+".json", got.ExportKey)
	require.NotNil(t, got.Statistics)
	assert.Equal(t, 2, got.Statistics.TotalMCQs)
	assert.Equal(t, 1, got.Statistics.DifficultyDistribution[domain.DifficultyHard])
	assert.InDelta(t, 0.7, got.Statistics.AverageConfidence, 1e-9)
}

func TestQuestionSetRepository_ListWithCursor(t *testing.T) {
	ctx := context.Background()
	repo := NewQuestionSetRepository(newTestPool(ctx, t))

	base := time.Now().UTC().Truncate(time.Microsecond)
	var ids []string
	for i := 0; i < 5; i++ {
		s := createTestQuestionSet(ctx, t, repo, base.Add(time.Duration(i)*time.Second))
		ids = append(ids, s.ID)
	}

	first, err := repo.ListWithCursor(ctx, nil, 2)
	require.NoError(t, err)
	require.Len(t, first.Items, 2)
	assert.True(t, first.HasMore)
	assert.Equal(t, ids[4], first.Items[0].ID)
	assert.Equal(t, ids[3], first.Items[1].ID)

	cursor, err := pagination.DecodeCursor(first.NextCursor)
	require.NoError(t, err)

	second, err := repo.ListWithCursor(ctx, cursor, 10)
	require.NoError(t, err)
	require.Len(t, second.Items, 3)
	assert.False(t, second.HasMore)
	assert.Empty(t, second.NextCursor)
	assert.Equal(t, ids[2], second.Items[0].ID)
	assert.Equal(t, ids[0], second.Items[2].ID)
}
