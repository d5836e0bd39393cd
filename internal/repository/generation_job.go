package repository

import (
	"context"
	"errors"
	"time"

	"github.com/cloo-solutions/mcqgen/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

type GenerationJobRepository struct {
	db dbtx
}

func NewGenerationJobRepository(pool *pgxpool.Pool) *GenerationJobRepository {
	return &GenerationJobRepository{db: pool}
}

func NewGenerationJobRepositoryWithTx(tx pgx.Tx) *GenerationJobRepository {
	return &GenerationJobRepository{db: tx}
}

func (r *GenerationJobRepository) Create(ctx context.Context, job *domain.GenerationJob) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO generation_jobs (id, question_set_id, status, retries, error, created_at, processed_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		job.ID, job.QuestionSetID, job.Status, job.Retries, nullableString(job.Error), job.CreatedAt, job.ProcessedAt,
	)
	return err
}

func (r *GenerationJobRepository) GetByID(ctx context.Context, id string) (*domain.GenerationJob, error) {
	row := r.db.QueryRow(ctx,
		`SELECT id, question_set_id, status, retries, error, created_at, processed_at
		 FROM generation_jobs WHERE id = $1`,
		id,
	)
	job, err := scanGenerationJob(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrGenerationJobNotFound
		}
		return nil, err
	}
	return job, nil
}

// ClaimPending moves up to limit pending jobs to processing and returns them.
// Concurrent workers never claim the same row.
func (r *GenerationJobRepository) ClaimPending(ctx context.Context, limit int) ([]*domain.GenerationJob, error) {
	rows, err := r.db.Query(ctx,
		`WITH cte AS (
			SELECT id FROM generation_jobs
			WHERE status = $1
			ORDER BY created_at
			LIMIT $2
			FOR UPDATE SKIP LOCKED
		 )
		 UPDATE generation_jobs SET status = $3
		 FROM cte
		 WHERE generation_jobs.id = cte.id
		 RETURNING generation_jobs.id, generation_jobs.question_set_id, generation_jobs.status,
		           generation_jobs.retries, generation_jobs.error, generation_jobs.created_at, generation_jobs.processed_at`,
		domain.GenerationJobStatusPending, limit, domain.GenerationJobStatusProcessing,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []*domain.GenerationJob
	for rows.Next() {
		job, err := scanGenerationJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}

	return jobs, rows.Err()
}

func (r *GenerationJobRepository) UpdateStatus(ctx context.Context, id string, status domain.GenerationJobStatus, errMsg string) error {
	var processedAt *time.Time
	if status == domain.GenerationJobStatusCompleted || status == domain.GenerationJobStatusFailed {
		now := time.Now().UTC()
		processedAt = &now
	}

	cmdTag, err := r.db.Exec(ctx,
		`UPDATE generation_jobs SET status = $1, error = $2, processed_at = $3 WHERE id = $4`,
		status, nullableString(errMsg), processedAt, id,
	)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return domain.ErrGenerationJobNotFound
	}
	return nil
}

func (r *GenerationJobRepository) IncrementRetries(ctx context.Context, id string) error {
	cmdTag, err := r.db.Exec(ctx,
		`UPDATE generation_jobs SET retries = retries + 1 WHERE id = $1`,
		id,
	)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return domain.ErrGenerationJobNotFound
	}
	return nil
}

func scanGenerationJob(row pgx.Row) (*domain.GenerationJob, error) {
	var job domain.GenerationJob
	var errMsg pgtype.Text
	if err := row.Scan(&job.ID, &job.QuestionSetID, &job.Status, &job.Retries, &errMsg, &job.CreatedAt, &job.ProcessedAt); err != nil {
		return nil, err
	}
	if errMsg.Valid {
		job.Error = errMsg.String
	}
	return &job, nil
}
