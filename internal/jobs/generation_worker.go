package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/cloo-solutions/mcqgen/internal/domain"
	"github.com/cloo-solutions/mcqgen/internal/telemetry"
	"go.uber.org/zap"
)

const (
	// MaxRetries is the maximum number of attempts for a generation job
	MaxRetries = 3

	claimBatchSize = 5
	releaseTimeout = 5 * time.Second
)

// GenerationJobRepository defines the job persistence used by the worker
type GenerationJobRepository interface {
	ClaimPending(ctx context.Context, limit int) ([]*domain.GenerationJob, error)
	UpdateStatus(ctx context.Context, id string, status domain.GenerationJobStatus, errMsg string) error
	IncrementRetries(ctx context.Context, id string) error
}

// QuestionSetProcessor runs generation for one question set
type QuestionSetProcessor interface {
	ProcessSet(ctx context.Context, questionSetID string) error
	MarkFailed(ctx context.Context, questionSetID, reason string) error
}

// GenerationWorker claims pending generation jobs and runs them one at a time.
type GenerationWorker struct {
	repo      GenerationJobRepository
	processor QuestionSetProcessor
	log       *zap.Logger
}

// NewGenerationWorker creates a new GenerationWorker instance
func NewGenerationWorker(repo GenerationJobRepository, processor QuestionSetProcessor, log *zap.Logger) *GenerationWorker {
	if log == nil {
		log = zap.NewNop()
	}
	return &GenerationWorker{
		repo:      repo,
		processor: processor,
		log:       log.Named("generation_worker"),
	}
}

// ProcessJobs implements the JobProcessor interface
func (w *GenerationWorker) ProcessJobs(ctx context.Context) error {
	jobs, err := w.repo.ClaimPending(ctx, claimBatchSize)
	if err != nil {
		return fmt.Errorf("failed to claim pending jobs: %w", err)
	}
	if len(jobs) == 0 {
		return nil
	}

	w.log.Info("processing generation jobs", zap.Int("count", len(jobs)))

	for _, job := range jobs {
		if ctx.Err() != nil {
			// Unstarted claims go back to the queue.
			w.release(job)
			continue
		}
		if err := w.processJob(ctx, job); err != nil {
			w.log.Error("error processing job", zap.String("job_id", job.ID), zap.Error(err))
		}
	}

	return nil
}

func (w *GenerationWorker) processJob(ctx context.Context, job *domain.GenerationJob) error {
	ctx, span := telemetry.StartSpan(ctx, "GenerationWorker.processJob", telemetry.SpanAttributes{
		QuestionSetID: job.QuestionSetID,
		JobID:         job.ID,
		Operation:     "generate",
	})
	defer span.End()

	log := w.log.With(zap.String("job_id", job.ID), zap.String("question_set_id", job.QuestionSetID))
	log.Info("processing job")

	if err := w.processor.ProcessSet(ctx, job.QuestionSetID); err != nil {
		if ctx.Err() != nil {
			w.release(job)
			return err
		}
		span.SetError(err)
		return w.handleJobFailure(ctx, job, err)
	}

	if err := w.repo.UpdateStatus(ctx, job.ID, domain.GenerationJobStatusCompleted, ""); err != nil {
		return fmt.Errorf("failed to update job status to completed: %w", err)
	}

	log.Info("job completed")
	return nil
}

// handleJobFailure requeues the job or, once retries are exhausted, fails
// both the job and its question set.
func (w *GenerationWorker) handleJobFailure(ctx context.Context, job *domain.GenerationJob, jobErr error) error {
	log := w.log.With(zap.String("job_id", job.ID), zap.Error(jobErr))
	log.Warn("job failed")

	if err := w.repo.IncrementRetries(ctx, job.ID); err != nil {
		return fmt.Errorf("failed to increment retries: %w", err)
	}

	if job.Retries+1 >= MaxRetries {
		log.Warn("job exceeded max retries, marking as failed", zap.Int("max_retries", MaxRetries))
		errMsg := fmt.Sprintf("max retries exceeded: %v", jobErr)
		if err := w.repo.UpdateStatus(ctx, job.ID, domain.GenerationJobStatusFailed, errMsg); err != nil {
			return fmt.Errorf("failed to update job status to failed: %w", err)
		}
		if err := w.processor.MarkFailed(ctx, job.QuestionSetID, errMsg); err != nil {
			return fmt.Errorf("failed to mark question set failed: %w", err)
		}
		return nil
	}

	log.Info("job will be retried", zap.Int32("attempt", job.Retries+1), zap.Int("max_retries", MaxRetries))
	errMsg := fmt.Sprintf("retry %d: %v", job.Retries+1, jobErr)
	if err := w.repo.UpdateStatus(ctx, job.ID, domain.GenerationJobStatusPending, errMsg); err != nil {
		return fmt.Errorf("failed to reset job status to pending: %w", err)
	}

	return nil
}

func (w *GenerationWorker) release(job *domain.GenerationJob) {
	ctx, cancel := context.WithTimeout(context.Background(), releaseTimeout)
	defer cancel()
	if err := w.repo.UpdateStatus(ctx, job.ID, domain.GenerationJobStatusPending, ""); err != nil {
		w.log.Warn("failed to release job", zap.String("job_id", job.ID), zap.Error(err))
	}
}
