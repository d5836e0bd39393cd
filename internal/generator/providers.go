package generator

import (
	"context"
	"errors"

	"github.com/cloo-solutions/mcqgen/internal/domain"
)

// Embedder produces fixed-dimension embeddings comparable by cosine
// similarity.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// SentenceTokenizer splits text into ordered sentences.
type SentenceTokenizer interface {
	TokenizeSentences(text string) []string
}

// EntityRecognizer runs named-entity recognition and noun-phrase chunking.
type EntityRecognizer interface {
	ExtractEntities(ctx context.Context, text string) ([]domain.Entity, error)
	ExtractNounPhrases(ctx context.Context, text string) ([]string, error)
}

// QuestionGenerator turns a highlighted context into a question.
type QuestionGenerator interface {
	GenerateQuestion(ctx context.Context, highlightedContext string) (string, error)
}

// Answerer answers a question over a passage with a confidence in [0,1].
type Answerer interface {
	Answer(ctx context.Context, question, passage string) (domain.Answer, error)
}

// Providers bundles the already-initialized capability providers the
// generator consumes.
type Providers struct {
	Embedder  Embedder
	Sentences SentenceTokenizer
	Entities  EntityRecognizer
	Questions QuestionGenerator
	Answers   Answerer
}

func (p Providers) validate() error {
	switch {
	case p.Embedder == nil:
		return errors.New("embedder provider is required")
	case p.Sentences == nil:
		return errors.New("sentence tokenizer provider is required")
	case p.Entities == nil:
		return errors.New("entity recognizer provider is required")
	case p.Questions == nil:
		return errors.New("question generator provider is required")
	case p.Answers == nil:
		return errors.New("answerer provider is required")
	}
	return nil
}
