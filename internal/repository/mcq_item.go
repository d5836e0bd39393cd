package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/cloo-solutions/mcqgen/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

// EmbeddingDimensions is the width of the mcq_items.embedding column.
const EmbeddingDimensions = 1536

// MCQItemRepository stores the generated items of a question set together
// with their question embeddings.
type MCQItemRepository struct {
	db dbtx
}

func NewMCQItemRepository(pool *pgxpool.Pool) *MCQItemRepository {
	return &MCQItemRepository{db: pool}
}

func NewMCQItemRepositoryWithTx(tx pgx.Tx) *MCQItemRepository {
	return &MCQItemRepository{db: tx}
}

// ReplaceItems deletes existing items for a set and inserts the new ones in order.
func (r *MCQItemRepository) ReplaceItems(ctx context.Context, questionSetID string, items []domain.MCQ) error {
	_, err := r.db.Exec(ctx, `DELETE FROM mcq_items WHERE question_set_id = $1`, questionSetID)
	if err != nil {
		return err
	}

	for i, item := range items {
		options, err := json.Marshal(item.Options)
		if err != nil {
			return fmt.Errorf("encode options: %w", err)
		}
		var embedding *pgvector.Vector
		if len(item.Embedding) > 0 {
			if len(item.Embedding) != EmbeddingDimensions {
				return fmt.Errorf("item %d: embedding has %d dimensions, want %d", i, len(item.Embedding), EmbeddingDimensions)
			}
			v := pgvector.NewVector(item.Embedding)
			embedding = &v
		}
		_, err = r.db.Exec(ctx,
			`INSERT INTO mcq_items
				(question_set_id, position, question, options, correct_option, explanation, confidence, difficulty, question_type, chunk_index, embedding)
			 VALUES
				($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
			questionSetID,
			i,
			item.Question,
			options,
			item.CorrectOption,
			item.Explanation,
			item.Confidence,
			item.Difficulty,
			item.QuestionType,
			item.ChunkIndex,
			embedding,
		)
		if err != nil {
			return err
		}
	}

	return nil
}

func (r *MCQItemRepository) ListBySet(ctx context.Context, questionSetID string) ([]domain.MCQ, error) {
	rows, err := r.db.Query(ctx,
		`SELECT question, options, correct_option, explanation, confidence, difficulty, question_type, chunk_index
		 FROM mcq_items WHERE question_set_id = $1
		 ORDER BY position`,
		questionSetID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]domain.MCQ, 0)
	for rows.Next() {
		item, err := scanMCQ(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

// SearchSimilar returns stored items ordered by cosine similarity of their
// question embedding to the given vector.
func (r *MCQItemRepository) SearchSimilar(ctx context.Context, embedding []float32, limit int) ([]*domain.SimilarQuestion, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := r.db.Query(ctx,
		`SELECT question_set_id, question, options, correct_option, explanation, confidence, difficulty, question_type, chunk_index,
		        1 - (embedding <=> $1) AS similarity
		 FROM mcq_items
		 WHERE embedding IS NOT NULL
		 ORDER BY embedding <=> $1
		 LIMIT $2`,
		pgvector.NewVector(embedding), limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	results := make([]*domain.SimilarQuestion, 0)
	for rows.Next() {
		var result domain.SimilarQuestion
		var options []byte
		m := &result.MCQ
		if err := rows.Scan(&result.QuestionSetID, &m.Question, &options, &m.CorrectOption, &m.Explanation,
			&m.Confidence, &m.Difficulty, &m.QuestionType, &m.ChunkIndex, &result.Similarity); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(options, &m.Options); err != nil {
			return nil, fmt.Errorf("decode options: %w", err)
		}
		results = append(results, &result)
	}
	return results, rows.Err()
}

func scanMCQ(row pgx.Row) (*domain.MCQ, error) {
	var m domain.MCQ
	var options []byte
	if err := row.Scan(&m.Question, &options, &m.CorrectOption, &m.Explanation,
		&m.Confidence, &m.Difficulty, &m.QuestionType, &m.ChunkIndex); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(options, &m.Options); err != nil {
		return nil, fmt.Errorf("decode options: %w", err)
	}
	return &m, nil
}
