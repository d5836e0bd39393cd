package service

import (
	"context"
	"strings"

	"github.com/cloo-solutions/mcqgen/internal/domain"
	"github.com/cloo-solutions/mcqgen/internal/telemetry"
)

const (
	defaultSearchLimit = 10
	maxSearchLimit     = 50
)

// QueryEmbedder embeds a search query.
type QueryEmbedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// SearchService finds stored questions similar to a free-text query.
type SearchService struct {
	embedder QueryEmbedder
	itemRepo MCQItemRepositoryInterface
}

func NewSearchService(embedder QueryEmbedder, itemRepo MCQItemRepositoryInterface) *SearchService {
	return &SearchService{embedder: embedder, itemRepo: itemRepo}
}

func (s *SearchService) Search(ctx context.Context, query string, limit int) ([]*domain.SimilarQuestion, error) {
	ctx, span := telemetry.StartSpan(ctx, "SearchService.Search", telemetry.SpanAttributes{
		Operation: "search",
	})
	defer span.End()

	query = strings.TrimSpace(query)
	if query == "" {
		return nil, domain.NewDomainError(domain.ErrCodeValidation, "query is required")
	}
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	if limit > maxSearchLimit {
		limit = maxSearchLimit
	}

	embedding, err := s.embedder.Embed(ctx, query)
	if err != nil {
		span.SetError(err)
		return nil, err
	}
	return s.itemRepo.SearchSimilar(ctx, embedding, limit)
}
