package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/cloo-solutions/mcqgen/internal/domain"
	"github.com/cloo-solutions/mcqgen/internal/pagination"
	"github.com/cloo-solutions/mcqgen/internal/service"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

const questionSetColumns = `id, transcript, max_items, min_distractors, status, error, export_key, statistics, created_at, updated_at`

type QuestionSetRepository struct {
	db dbtx
}

func NewQuestionSetRepository(pool *pgxpool.Pool) *QuestionSetRepository {
	return &QuestionSetRepository{db: pool}
}

func NewQuestionSetRepositoryWithTx(tx pgx.Tx) *QuestionSetRepository {
	return &QuestionSetRepository{db: tx}
}

func (r *QuestionSetRepository) Create(ctx context.Context, s *domain.QuestionSet) error {
	stats, err := marshalStatistics(s.Statistics)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx,
		`INSERT INTO question_sets (id, transcript, max_items, min_distractors, status, error, export_key, statistics, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		s.ID, s.Transcript, s.MaxItems, s.MinDistractors, s.Status,
		nullableString(s.Error), nullableString(s.ExportKey), stats, s.CreatedAt, s.UpdatedAt,
	)
	return err
}

func (r *QuestionSetRepository) GetByID(ctx context.Context, id string) (*domain.QuestionSet, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+questionSetColumns+` FROM question_sets WHERE id = $1`,
		id,
	)
	s, err := scanQuestionSet(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrQuestionSetNotFound
		}
		return nil, err
	}
	return s, nil
}

// ListWithCursor pages through question sets newest first.
func (r *QuestionSetRepository) ListWithCursor(ctx context.Context, cursor *pagination.Cursor, limit int) (*service.QuestionSetPageResult, error) {
	if limit <= 0 {
		limit = 20
	}

	var rows pgx.Rows
	var err error

	if cursor != nil {
		rows, err = r.db.Query(ctx,
			`SELECT `+questionSetColumns+`
			 FROM question_sets
			 WHERE (created_at, id) < ($1, $2)
			 ORDER BY created_at DESC, id DESC
			 LIMIT $3`,
			cursor.Timestamp, cursor.LastID, limit+1,
		)
	} else {
		rows, err = r.db.Query(ctx,
			`SELECT `+questionSetColumns+`
			 FROM question_sets
			 ORDER BY created_at DESC, id DESC
			 LIMIT $1`,
			limit+1,
		)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*domain.QuestionSet
	for rows.Next() {
		s, err := scanQuestionSet(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	hasMore := len(items) > limit
	if hasMore {
		items = items[:limit]
	}

	var nextCursor string
	if hasMore && len(items) > 0 {
		last := items[len(items)-1]
		nextCursor = pagination.EncodeCursor(last.ID, last.CreatedAt)
	}

	return &service.QuestionSetPageResult{
		Items:      items,
		NextCursor: nextCursor,
		HasMore:    hasMore,
	}, nil
}

func (r *QuestionSetRepository) UpdateStatus(ctx context.Context, id string, status domain.QuestionSetStatus, errMsg string) error {
	cmdTag, err := r.db.Exec(ctx,
		`UPDATE question_sets SET status = $1, error = $2, updated_at = $3 WHERE id = $4`,
		status, nullableString(errMsg), time.Now().UTC(), id,
	)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return domain.ErrQuestionSetNotFound
	}
	return nil
}

// Complete marks a set completed and stores its summary statistics.
func (r *QuestionSetRepository) Complete(ctx context.Context, id string, stats domain.Statistics) error {
	raw, err := marshalStatistics(&stats)
	if err != nil {
		return err
	}
	cmdTag, err := r.db.Exec(ctx,
		`UPDATE question_sets SET status = $1, error = NULL, statistics = $2, updated_at = $3 WHERE id = $4`,
		domain.QuestionSetStatusCompleted, raw, time.Now().UTC(), id,
	)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return domain.ErrQuestionSetNotFound
	}
	return nil
}

func (r *QuestionSetRepository) SetExportKey(ctx context.Context, id, key string) error {
	cmdTag, err := r.db.Exec(ctx,
		`UPDATE question_sets SET export_key = $1, updated_at = $2 WHERE id = $3`,
		key, time.Now().UTC(), id,
	)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return domain.ErrQuestionSetNotFound
	}
	return nil
}

func scanQuestionSet(row pgx.Row) (*domain.QuestionSet, error) {
	var s domain.QuestionSet
	var errMsg, exportKey pgtype.Text
	var stats []byte
	if err := row.Scan(&s.ID, &s.Transcript, &s.MaxItems, &s.MinDistractors, &s.Status,
		&errMsg, &exportKey, &stats, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return nil, err
	}
	if errMsg.Valid {
		s.Error = errMsg.String
	}
	if exportKey.Valid {
		s.ExportKey = exportKey.String
	}
	if len(stats) > 0 {
		var decoded domain.Statistics
		if err := json.Unmarshal(stats, &decoded); err != nil {
			return nil, fmt.Errorf("decode statistics for %s: %w", s.ID, err)
		}
		s.Statistics = &decoded
	}
	return &s, nil
}

func marshalStatistics(stats *domain.Statistics) ([]byte, error) {
	if stats == nil {
		return nil, nil
	}
	raw, err := json.Marshal(stats)
	if err != nil {
		return nil, fmt.Errorf("encode statistics: %w", err)
	}
	return raw, nil
}
