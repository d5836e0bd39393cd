package generator

import (
	"context"
	"sort"

	"github.com/cloo-solutions/mcqgen/internal/domain"
	"go.uber.org/zap"
)

// SalienceSelector picks the most central chunks of a transcript.
type SalienceSelector struct {
	embedder Embedder
	topK     int
	log      *zap.Logger
}

// NewSalienceSelector creates a SalienceSelector keeping at most topK chunks.
func NewSalienceSelector(embedder Embedder, topK int, log *zap.Logger) *SalienceSelector {
	return &SalienceSelector{embedder: embedder, topK: topK, log: log}
}

// Select returns at most topK chunks in their original order. A chunk's
// score is its mean cosine similarity to every other chunk.
func (s *SalienceSelector) Select(ctx context.Context, chunks []domain.Chunk) []domain.Chunk {
	if len(chunks) <= s.topK {
		return chunks
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}

	embeddings, err := s.embedder.EmbedBatch(ctx, texts)
	if err != nil || len(embeddings) != len(chunks) {
		s.log.Warn("salience scoring failed, keeping leading chunks",
			zap.Error(err), zap.Int("chunks", len(chunks)), zap.Int("top_k", s.topK))
		return chunks[:s.topK]
	}

	scores := centrality(embeddings)

	ranked := make([]int, len(chunks))
	for i := range ranked {
		ranked[i] = i
	}
	sort.SliceStable(ranked, func(a, b int) bool {
		return scores[ranked[a]] > scores[ranked[b]]
	})

	keep := ranked[:s.topK]
	sort.Ints(keep)

	selected := make([]domain.Chunk, 0, s.topK)
	for _, i := range keep {
		selected = append(selected, chunks[i])
	}
	return selected
}

// centrality scores each vector by its mean similarity to the others.
func centrality(embeddings [][]float32) []float64 {
	n := len(embeddings)
	scores := make([]float64, n)
	if n < 2 {
		return scores
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			sim := cosine(embeddings[i], embeddings[j])
			scores[i] += sim
			scores[j] += sim
		}
	}
	for i := range scores {
		scores[i] /= float64(n - 1)
	}
	return scores
}
