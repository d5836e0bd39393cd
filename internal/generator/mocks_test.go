package generator

import (
	"context"
	"math/rand/v2"
	"regexp"
	"sort"
	"strings"

	"github.com/cloo-solutions/mcqgen/internal/domain"
	"github.com/stretchr/testify/mock"
)

type MockEmbedder struct {
	mock.Mock
}

func (m *MockEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	args := m.Called(ctx, text)
	if v := args.Get(0); v != nil {
		return v.([]float32), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	args := m.Called(ctx, texts)
	if v := args.Get(0); v != nil {
		return v.([][]float32), args.Error(1)
	}
	return nil, args.Error(1)
}

type MockEntityRecognizer struct {
	mock.Mock
}

func (m *MockEntityRecognizer) ExtractEntities(ctx context.Context, text string) ([]domain.Entity, error) {
	args := m.Called(ctx, text)
	if v := args.Get(0); v != nil {
		return v.([]domain.Entity), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockEntityRecognizer) ExtractNounPhrases(ctx context.Context, text string) ([]string, error) {
	args := m.Called(ctx, text)
	if v := args.Get(0); v != nil {
		return v.([]string), args.Error(1)
	}
	return nil, args.Error(1)
}

type MockQuestionGenerator struct {
	mock.Mock
}

func (m *MockQuestionGenerator) GenerateQuestion(ctx context.Context, highlighted string) (string, error) {
	args := m.Called(ctx, highlighted)
	return args.String(0), args.Error(1)
}

type MockAnswerer struct {
	mock.Mock
}

func (m *MockAnswerer) Answer(ctx context.Context, question, passage string) (domain.Answer, error) {
	args := m.Called(ctx, question, passage)
	return args.Get(0).(domain.Answer), args.Error(1)
}

// keywordEmbedder embeds text as counts over a fixed vocabulary.
type keywordEmbedder struct {
	vocab []string
}

func (k keywordEmbedder) vector(text string) []float32 {
	v := make([]float32, len(k.vocab))
	for _, w := range strings.Fields(strings.ToLower(text)) {
		w = strings.Trim(w, ".,?!'\"")
		for i, term := range k.vocab {
			if w == term {
				v[i]++
			}
		}
	}
	return v
}

func (k keywordEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	return k.vector(text), nil
}

func (k keywordEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = k.vector(t)
	}
	return out, nil
}

// periodSplitter splits on sentence-ending punctuation followed by space.
type periodSplitter struct{}

var splitPattern = regexp.MustCompile(`[.!?]\s+`)

func (periodSplitter) TokenizeSentences(text string) []string {
	var out []string
	for _, s := range splitPattern.Split(strings.TrimSpace(text), -1) {
		s = strings.TrimRight(strings.TrimSpace(s), ".!?")
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

// dictionaryRecognizer reports every known entity that occurs in the text,
// in text order.
type dictionaryRecognizer struct {
	known []domain.Entity
}

func (d dictionaryRecognizer) ExtractEntities(_ context.Context, text string) ([]domain.Entity, error) {
	type hit struct {
		at int
		e  domain.Entity
	}
	var hits []hit
	for _, e := range d.known {
		if i := strings.Index(text, e.Text); i >= 0 {
			hits = append(hits, hit{at: i, e: e})
		}
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].at < hits[j].at })
	out := make([]domain.Entity, len(hits))
	for i, h := range hits {
		out[i] = h.e
	}
	return out, nil
}

func (dictionaryRecognizer) ExtractNounPhrases(context.Context, string) ([]string, error) {
	return nil, nil
}

var highlightedSpan = regexp.MustCompile(`<hl>(.*?)<hl>`)

// templateQuestions asks about the highlighted span.
type templateQuestions struct{}

func (templateQuestions) GenerateQuestion(_ context.Context, highlighted string) (string, error) {
	m := highlightedSpan.FindStringSubmatch(highlighted)
	if m == nil {
		return "", nil
	}
	return "which answer matches " + m[1] + " in the passage", nil
}

var askedSpan = regexp.MustCompile(`matches (.*) in the passage`)

// echoAnswerer answers a templated question with its span.
type echoAnswerer struct {
	confidence float64
}

func (e echoAnswerer) Answer(_ context.Context, question, _ string) (domain.Answer, error) {
	m := askedSpan.FindStringSubmatch(question)
	if m == nil {
		return domain.Answer{}, nil
	}
	return domain.Answer{Text: m[1], Confidence: e.confidence}, nil
}

type constantQuestions struct {
	question string
}

func (c constantQuestions) GenerateQuestion(context.Context, string) (string, error) {
	return c.question, nil
}

type constantAnswerer struct {
	answer domain.Answer
}

func (c constantAnswerer) Answer(context.Context, string, string) (domain.Answer, error) {
	return c.answer, nil
}

func seededRand() *rand.Rand {
	return rand.New(rand.NewPCG(1, 2))
}

func distractorTexts(ds []domain.Distractor) []string {
	out := make([]string, len(ds))
	for i, d := range ds {
		out[i] = d.Text
	}
	return out
}
