package generator

import (
	"context"
	"fmt"
)

// SeenQuestionSet accumulates the embeddings of accepted questions for one
// Generate call.
type SeenQuestionSet struct {
	embeddings [][]float32
}

// Add records an accepted question embedding.
func (s *SeenQuestionSet) Add(embedding []float32) {
	s.embeddings = append(s.embeddings, embedding)
}

// Len reports the number of accepted questions.
func (s *SeenQuestionSet) Len() int {
	return len(s.embeddings)
}

// Deduplicator rejects questions too similar to ones already accepted.
type Deduplicator struct {
	embedder  Embedder
	threshold float64
}

// NewDeduplicator creates a Deduplicator.
func NewDeduplicator(embedder Embedder, threshold float64) *Deduplicator {
	return &Deduplicator{embedder: embedder, threshold: threshold}
}

// Check embeds question and reports whether it is novel with respect to
// seen. The embedding is returned so the caller can add it on acceptance.
func (d *Deduplicator) Check(ctx context.Context, question string, seen *SeenQuestionSet) ([]float32, bool, error) {
	embedding, err := d.embedder.Embed(ctx, question)
	if err != nil {
		return nil, false, fmt.Errorf("failed to embed question: %w", err)
	}
	if seen.Len() > 0 && maxCosine(embedding, seen.embeddings) > d.threshold {
		return embedding, false, nil
	}
	return embedding, true, nil
}
