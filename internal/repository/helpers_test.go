//go:build integration

package repository

import (
	"context"
	"testing"
	"time"

	"github.com/cloo-solutions/mcqgen/internal/domain"
	"github.com/cloo-solutions/mcqgen/internal/testutil"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
)

func newTestPool(ctx context.Context, t *testing.T) *pgxpool.Pool {
	t.Helper()
	pc := testutil.NewPostgresContainer(ctx, t)
	t.Cleanup(func() { _ = pc.Terminate(context.Background()) })

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	t.Cleanup(pool.Close)
	return pool
}

func createTestQuestionSet(ctx context.Context, t *testing.T, repo *QuestionSetRepository, createdAt time.Time) *domain.QuestionSet {
	t.Helper()
	s := &domain.QuestionSet{
		ID:             uuid.NewString(),
		Transcript:     "Neil Armstrong walked on the moon in 1969.",
		MaxItems:       5,
		MinDistractors: 1,
		Status:         domain.QuestionSetStatusPending,
		CreatedAt:      createdAt,
		UpdatedAt:      createdAt,
	}
	require.NoError(t, repo.Create(ctx, s))
	return s
}
