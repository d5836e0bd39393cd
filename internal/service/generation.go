package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cloo-solutions/mcqgen/internal/domain"
	"github.com/cloo-solutions/mcqgen/internal/pagination"
	"github.com/cloo-solutions/mcqgen/internal/telemetry"
	"go.uber.org/zap"
)

const (
	DefaultMaxItems       = 100
	DefaultMinDistractors = 1
	MaxListLimit          = 100
)

// MCQGenerator runs the generation pipeline over one transcript.
type MCQGenerator interface {
	Generate(ctx context.Context, transcript string, maxItems, minDistractors int) ([]domain.MCQ, error)
}

// Exporter publishes a completed question set. It may be nil.
type Exporter interface {
	Export(ctx context.Context, set *domain.QuestionSet, items []domain.MCQ) (string, error)
}

// GenerationService handles synchronous generation and the lifecycle of
// asynchronously generated question sets.
type GenerationService struct {
	generator MCQGenerator
	txRunner  TxRunner
	setRepo   QuestionSetRepositoryInterface
	itemRepo  MCQItemRepositoryInterface
	exporter  Exporter
	uuidGen   UUIDGenerator
	log       *zap.Logger
	now       func() time.Time
}

// NewGenerationService creates a new GenerationService instance
func NewGenerationService(
	generator MCQGenerator,
	txRunner TxRunner,
	setRepo QuestionSetRepositoryInterface,
	itemRepo MCQItemRepositoryInterface,
	exporter Exporter,
	log *zap.Logger,
) *GenerationService {
	if log == nil {
		log = zap.NewNop()
	}
	return &GenerationService{
		generator: generator,
		txRunner:  txRunner,
		setRepo:   setRepo,
		itemRepo:  itemRepo,
		exporter:  exporter,
		uuidGen:   &DefaultUUIDGenerator{},
		log:       log.Named("generation"),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// WithUUIDGen replaces the ID source (for testing)
func (s *GenerationService) WithUUIDGen(gen UUIDGenerator) *GenerationService {
	s.uuidGen = gen
	return s
}

// GenerateInput is a transcript plus the per-request generation limits.
type GenerateInput struct {
	Transcript     string
	MaxItems       int
	MinDistractors int
}

// GenerateOutput holds the MCQs of one synchronous run
type GenerateOutput struct {
	MCQs       []domain.MCQ
	Statistics domain.Statistics
}

type ListInput struct {
	Cursor string
	Limit  int
}

type ListOutput struct {
	Items   []*domain.QuestionSet
	Cursor  string
	HasMore bool
}

func (in GenerateInput) validate() error {
	if strings.TrimSpace(in.Transcript) == "" {
		return domain.ErrEmptyTranscript
	}
	if in.MaxItems <= 0 {
		return domain.ErrInvalidMaxItems
	}
	if in.MinDistractors < 0 || in.MinDistractors > 3 {
		return domain.ErrInvalidMinDistractors
	}
	return nil
}

// GenerateSync runs the generator inline and returns the items with their statistics.
func (s *GenerationService) GenerateSync(ctx context.Context, input GenerateInput) (*GenerateOutput, error) {
	ctx, span := telemetry.StartSpan(ctx, "GenerationService.GenerateSync", telemetry.SpanAttributes{
		Operation: "generate",
		MaxItems:  input.MaxItems,
	})
	defer span.End()

	if err := input.validate(); err != nil {
		return nil, err
	}

	mcqs, err := s.generator.Generate(ctx, input.Transcript, input.MaxItems, input.MinDistractors)
	if err != nil {
		span.SetError(err)
		return nil, err
	}

	s.log.Info("generated mcqs", zap.Int("count", len(mcqs)), zap.Int("max_items", input.MaxItems))
	return &GenerateOutput{
		MCQs:       mcqs,
		Statistics: domain.ComputeStatistics(mcqs),
	}, nil
}

// Submit stores the transcript as a pending question set and queues a generation job.
func (s *GenerationService) Submit(ctx context.Context, input GenerateInput) (*domain.QuestionSet, error) {
	ctx, span := telemetry.StartSpan(ctx, "GenerationService.Submit", telemetry.SpanAttributes{
		Operation: "submit",
		MaxItems:  input.MaxItems,
	})
	defer span.End()

	if err := input.validate(); err != nil {
		return nil, err
	}

	now := s.now()
	set := &domain.QuestionSet{
		ID:             s.uuidGen.NewString(),
		Transcript:     input.Transcript,
		MaxItems:       input.MaxItems,
		MinDistractors: input.MinDistractors,
		Status:         domain.QuestionSetStatusPending,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := domain.ValidateQuestionSet(set); err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeValidation, "invalid question set", err)
	}

	job := &domain.GenerationJob{
		ID:            s.uuidGen.NewString(),
		QuestionSetID: set.ID,
		Status:        domain.GenerationJobStatusPending,
		CreatedAt:     now,
	}

	err := s.txRunner.WithTx(ctx, func(repos TxRepositories) error {
		if err := repos.QuestionSets().Create(ctx, set); err != nil {
			return err
		}
		return repos.GenerationJobs().Create(ctx, job)
	})
	if err != nil {
		span.SetError(err)
		return nil, err
	}

	s.log.Info("question set queued", zap.String("question_set_id", set.ID), zap.String("job_id", job.ID))
	return set, nil
}

// Get returns a question set. Items are loaded once the set is completed.
func (s *GenerationService) Get(ctx context.Context, id string) (*domain.QuestionSet, error) {
	ctx, span := telemetry.StartSpan(ctx, "GenerationService.Get", telemetry.SpanAttributes{
		QuestionSetID: id,
		Operation:     "get",
	})
	defer span.End()

	set, err := s.setRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if set.Status != domain.QuestionSetStatusCompleted {
		return set, nil
	}

	items, err := s.itemRepo.ListBySet(ctx, id)
	if err != nil {
		return nil, err
	}
	set.Items = items
	return set, nil
}

// List pages through question sets, newest first.
func (s *GenerationService) List(ctx context.Context, input ListInput) (*ListOutput, error) {
	cursor, err := pagination.DecodeCursor(input.Cursor)
	if err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeValidation, "invalid cursor", err)
	}

	limit := input.Limit
	if limit <= 0 {
		limit = 20
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}

	page, err := s.setRepo.ListWithCursor(ctx, cursor, limit)
	if err != nil {
		return nil, err
	}

	return &ListOutput{
		Items:   page.Items,
		Cursor:  page.NextCursor,
		HasMore: page.HasMore,
	}, nil
}

// ProcessSet generates the items for a queued set, stores them and marks
// the set completed. A completed set is left untouched.
func (s *GenerationService) ProcessSet(ctx context.Context, id string) error {
	ctx, span := telemetry.StartSpan(ctx, "GenerationService.ProcessSet", telemetry.SpanAttributes{
		QuestionSetID: id,
		Operation:     "process",
	})
	defer span.End()

	set, err := s.setRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if set.Status == domain.QuestionSetStatusCompleted {
		s.log.Debug("question set already completed", zap.String("question_set_id", id))
		return nil
	}

	if err := s.setRepo.UpdateStatus(ctx, id, domain.QuestionSetStatusProcessing, ""); err != nil {
		return err
	}

	mcqs, err := s.generator.Generate(ctx, set.Transcript, set.MaxItems, set.MinDistractors)
	if err != nil {
		span.SetError(err)
		return fmt.Errorf("generate question set %s: %w", id, err)
	}

	stats := domain.ComputeStatistics(mcqs)
	err = s.txRunner.WithTx(ctx, func(repos TxRepositories) error {
		if err := repos.MCQItems().ReplaceItems(ctx, id, mcqs); err != nil {
			return err
		}
		return repos.QuestionSets().Complete(ctx, id, stats)
	})
	if err != nil {
		span.SetError(err)
		return fmt.Errorf("store question set %s: %w", id, err)
	}

	set.Status = domain.QuestionSetStatusCompleted
	set.Statistics = &stats
	s.log.Info("question set completed",
		zap.String("question_set_id", id),
		zap.Int("count", len(mcqs)),
		zap.Float64("average_confidence", stats.AverageConfidence),
	)

	if s.exporter != nil {
		if _, err := s.exporter.Export(ctx, set, mcqs); err != nil {
			s.log.Warn("export failed", zap.String("question_set_id", id), zap.Error(err))
			telemetry.CaptureError(ctx, err)
		}
	}

	return nil
}

// MarkFailed records a terminal generation failure on the set.
func (s *GenerationService) MarkFailed(ctx context.Context, id, reason string) error {
	return s.setRepo.UpdateStatus(ctx, id, domain.QuestionSetStatusFailed, reason)
}
