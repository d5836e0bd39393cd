package generator

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloo-solutions/mcqgen/internal/domain"
	"go.uber.org/zap"
)

// sentenceUnit is one sentence, or one word window of an overlong sentence.
type sentenceUnit struct {
	text  string
	words int
}

// Segmenter groups sentences into semantically coherent chunks.
type Segmenter struct {
	embedder  Embedder
	sentences SentenceTokenizer
	opts      Options
	log       *zap.Logger
}

// NewSegmenter creates a Segmenter.
func NewSegmenter(embedder Embedder, sentences SentenceTokenizer, opts Options, log *zap.Logger) *Segmenter {
	return &Segmenter{embedder: embedder, sentences: sentences, opts: opts, log: log}
}

// Segment splits normalized text into chunks whose word counts lie within
// [MinChunkWords, MaxChunkWords]. Chunks keep sentence order and never
// share a sentence unit.
func (s *Segmenter) Segment(ctx context.Context, text string) []domain.Chunk {
	units := s.units(text)
	if len(units) == 0 {
		return nil
	}
	if len(units) == 1 {
		var b chunkBuilder
		b.start(0, units[0])
		return b.flush(nil, s.opts.MinChunkWords)
	}

	chunks, err := s.semantic(ctx, units)
	if err != nil {
		s.log.Warn("semantic chunking failed, falling back to fixed windows", zap.Error(err))
		return s.fixed(units)
	}
	return chunks
}

func (s *Segmenter) units(text string) []sentenceUnit {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	var units []sentenceUnit
	for _, sentence := range s.sentences.TokenizeSentences(text) {
		words := strings.Fields(sentence)
		if len(words) == 0 {
			continue
		}
		if len(words) <= s.opts.MaxChunkWords {
			units = append(units, sentenceUnit{text: strings.Join(words, " "), words: len(words)})
			continue
		}
		for start := 0; start < len(words); start += s.opts.MaxChunkWords {
			end := min(start+s.opts.MaxChunkWords, len(words))
			units = append(units, sentenceUnit{text: strings.Join(words[start:end], " "), words: end - start})
		}
	}
	return units
}

func (s *Segmenter) semantic(ctx context.Context, units []sentenceUnit) ([]domain.Chunk, error) {
	texts := make([]string, len(units))
	for i, u := range units {
		texts[i] = u.text
	}

	embeddings, err := s.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("failed to embed sentences: %w", err)
	}
	if len(embeddings) != len(units) {
		return nil, fmt.Errorf("embedder returned %d vectors for %d sentences", len(embeddings), len(units))
	}

	var chunks []domain.Chunk
	var b chunkBuilder
	b.start(0, units[0])

	for i := 1; i < len(units); i++ {
		chunkEmbedding, err := s.embedder.Embed(ctx, b.text())
		if err != nil {
			return nil, fmt.Errorf("failed to embed chunk: %w", err)
		}

		similarity := cosine(chunkEmbedding, embeddings[i])
		if similarity > s.opts.ChunkSimilarityThreshold && b.words+units[i].words < s.opts.MaxChunkWords {
			b.add(units[i])
			continue
		}

		chunks = b.flush(chunks, s.opts.MinChunkWords)
		b.start(i, units[i])
	}

	return b.flush(chunks, s.opts.MinChunkWords), nil
}

// fixed groups consecutive units into non-overlapping windows of at most
// FallbackSentencesPerChunk units.
func (s *Segmenter) fixed(units []sentenceUnit) []domain.Chunk {
	var chunks []domain.Chunk
	var b chunkBuilder
	b.start(0, units[0])

	for i := 1; i < len(units); i++ {
		if len(b.parts) < s.opts.FallbackSentencesPerChunk && b.words+units[i].words < s.opts.MaxChunkWords {
			b.add(units[i])
			continue
		}
		chunks = b.flush(chunks, s.opts.MinChunkWords)
		b.start(i, units[i])
	}

	return b.flush(chunks, s.opts.MinChunkWords)
}

type chunkBuilder struct {
	first int
	parts []string
	words int
}

func (b *chunkBuilder) start(index int, u sentenceUnit) {
	b.first = index
	b.parts = []string{u.text}
	b.words = u.words
}

func (b *chunkBuilder) add(u sentenceUnit) {
	b.parts = append(b.parts, u.text)
	b.words += u.words
}

func (b *chunkBuilder) text() string {
	return strings.Join(b.parts, " ")
}

// flush appends the current chunk to chunks when it meets the minimum size.
func (b *chunkBuilder) flush(chunks []domain.Chunk, minWords int) []domain.Chunk {
	if len(b.parts) == 0 || b.words < minWords {
		return chunks
	}
	return append(chunks, domain.Chunk{
		Index:         len(chunks),
		Text:          b.text(),
		WordCount:     b.words,
		SentenceStart: b.first,
		SentenceEnd:   b.first + len(b.parts),
	})
}
