package repository

import (
	"context"

	"github.com/cloo-solutions/mcqgen/internal/service"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// TxRunner provides transactional repositories using a pgx pool.
type TxRunner struct {
	pool *pgxpool.Pool
}

func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

func (r *TxRunner) WithTx(ctx context.Context, fn func(repos service.TxRepositories) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}

	if err := fn(&txRepos{tx: tx}); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}

	return tx.Commit(ctx)
}

type txRepos struct {
	tx pgx.Tx
}

func (r *txRepos) QuestionSets() service.QuestionSetRepositoryInterface {
	return NewQuestionSetRepositoryWithTx(r.tx)
}

func (r *txRepos) MCQItems() service.MCQItemRepositoryInterface {
	return NewMCQItemRepositoryWithTx(r.tx)
}

func (r *txRepos) GenerationJobs() service.GenerationJobRepositoryInterface {
	return NewGenerationJobRepositoryWithTx(r.tx)
}
