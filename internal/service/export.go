package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/cloo-solutions/mcqgen/internal/domain"
	"github.com/cloo-solutions/mcqgen/internal/generator"
	"github.com/cloo-solutions/mcqgen/internal/telemetry"
	"go.uber.org/zap"
)

// ObjectStore is the subset of the S3 client used for exports.
type ObjectStore interface {
	PutObject(ctx context.Context, key string, body []byte, contentType string) error
	GenerateDownloadURL(ctx context.Context, key string) (string, error)
}

// ExportMetadata describes an export document.
type ExportMetadata struct {
	GeneratedAt      time.Time `json:"generated_at"`
	TotalMCQs        int       `json:"total_mcqs"`
	GeneratorVersion string    `json:"generator_version"`
	QuestionSetID    string    `json:"question_set_id,omitempty"`
}

// ExportDocument is the JSON document written for a completed set.
type ExportDocument struct {
	Metadata   ExportMetadata    `json:"metadata"`
	Statistics domain.Statistics `json:"statistics"`
	MCQs       []domain.MCQ      `json:"mcqs"`
}

// BuildExportDocument assembles the export document for items.
func BuildExportDocument(questionSetID string, items []domain.MCQ, generatedAt time.Time) ExportDocument {
	if items == nil {
		items = []domain.MCQ{}
	}
	return ExportDocument{
		Metadata: ExportMetadata{
			GeneratedAt:      generatedAt.UTC(),
			TotalMCQs:        len(items),
			GeneratorVersion: generator.Version,
			QuestionSetID:    questionSetID,
		},
		Statistics: domain.ComputeStatistics(items),
		MCQs:       items,
	}
}

// ExportKey is the object key of a set's export document.
func ExportKey(questionSetID string) string {
	return "exports/" + questionSetID + ".json"
}

// ExportService writes export documents to object storage and hands out
// download links for them.
type ExportService struct {
	store   ObjectStore
	setRepo QuestionSetRepositoryInterface
	log     *zap.Logger
	now     func() time.Time
}

// NewExportService creates a new ExportService. store may be nil when
// storage is not configured.
func NewExportService(store ObjectStore, setRepo QuestionSetRepositoryInterface, log *zap.Logger) *ExportService {
	if log == nil {
		log = zap.NewNop()
	}
	return &ExportService{
		store:   store,
		setRepo: setRepo,
		log:     log.Named("export"),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Enabled reports whether exports can be written.
func (s *ExportService) Enabled() bool {
	return s != nil && s.store != nil
}

// Export uploads the document for set and records its key.
func (s *ExportService) Export(ctx context.Context, set *domain.QuestionSet, items []domain.MCQ) (string, error) {
	if !s.Enabled() {
		return "", domain.ErrStorageNotConfigured
	}

	ctx, span := telemetry.StartSpan(ctx, "ExportService.Export", telemetry.SpanAttributes{
		QuestionSetID: set.ID,
		Operation:     "export",
	})
	defer span.End()

	body, err := json.MarshalIndent(BuildExportDocument(set.ID, items, s.now()), "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode export: %w", err)
	}

	key := ExportKey(set.ID)
	if err := s.store.PutObject(ctx, key, body, "application/json"); err != nil {
		span.SetError(err)
		return "", domain.NewDomainErrorWithCause(domain.ErrCodeInternalError, domain.ErrStorageOperationFail.Message, err)
	}
	if err := s.setRepo.SetExportKey(ctx, set.ID, key); err != nil {
		return "", err
	}

	set.ExportKey = key
	s.log.Info("export written", zap.String("question_set_id", set.ID), zap.String("key", key), zap.Int("bytes", len(body)))
	return key, nil
}

// DownloadURL returns a presigned link to the export of a completed set.
func (s *ExportService) DownloadURL(ctx context.Context, questionSetID string) (string, error) {
	if !s.Enabled() {
		return "", domain.ErrStorageNotConfigured
	}

	set, err := s.setRepo.GetByID(ctx, questionSetID)
	if err != nil {
		return "", err
	}
	if set.Status != domain.QuestionSetStatusCompleted {
		return "", domain.ErrQuestionSetNotReady
	}
	if set.ExportKey == "" {
		return "", domain.ErrExportNotFound
	}

	url, err := s.store.GenerateDownloadURL(ctx, set.ExportKey)
	if err != nil {
		return "", domain.NewDomainErrorWithCause(domain.ErrCodeInternalError, domain.ErrStorageOperationFail.Message, err)
	}
	return url, nil
}
