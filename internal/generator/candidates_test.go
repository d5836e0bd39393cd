package generator

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/cloo-solutions/mcqgen/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const apolloText = "In 1969 Neil Armstrong walked on the Moon during the Apollo mission."

var apolloEntities = []domain.Entity{
	{Text: "Neil Armstrong", Label: "PERSON"},
	{Text: "1969", Label: "DATE"},
	{Text: "Moon", Label: "LOC"},
	{Text: "Apollo", Label: "ORG"},
}

func candidateTexts(cands []domain.AnswerCandidate) []string {
	out := make([]string, len(cands))
	for i, c := range cands {
		out[i] = c.Text
	}
	return out
}

func TestCandidateExtractor_Extract(t *testing.T) {
	recognizer := new(MockEntityRecognizer)
	recognizer.On("ExtractEntities", mock.Anything, apolloText).Return(apolloEntities, nil)
	recognizer.On("ExtractNounPhrases", mock.Anything, apolloText).
		Return([]string{"Neil Armstrong", "the Moon", "the Apollo mission", "mission"}, nil)

	e := NewCandidateExtractor(recognizer, DefaultOptions(), zap.NewNop())
	got := e.Extract(context.Background(), domain.Chunk{Index: 4, Text: apolloText})

	assert.Equal(t, []string{
		"Neil Armstrong", "1969", "Moon", "Apollo",
		"the Moon", "the Apollo mission",
		"Neil", "Armstrong",
	}, candidateTexts(got.Candidates))

	assert.Equal(t, domain.CandidateKindEntity, got.Candidates[0].Kind)
	assert.Equal(t, domain.CandidateKindNounPhrase, got.Candidates[4].Kind)
	assert.Equal(t, domain.CandidateKindToken, got.Candidates[6].Kind)
	for _, c := range got.Candidates {
		assert.Equal(t, 4, c.ChunkIndex)
	}

	assert.Equal(t, []string{"Neil Armstrong"}, got.Inventory.Label("PERSON"))
	assert.Empty(t, got.Inventory.Label("DATE"))
	assert.Equal(t, 3, got.Inventory.Len())
	recognizer.AssertExpectations(t)
}

func TestCandidateExtractor_CapsAndFilters(t *testing.T) {
	text := "NASA and nasa met Alpha Beta Gamma Delta Epsilon near Houston."
	recognizer := new(MockEntityRecognizer)
	recognizer.On("ExtractEntities", mock.Anything, text).Return([]domain.Entity{
		{Text: "NASA", Label: "ORG"},
		{Text: "nasa", Label: "ORG"},
		{Text: "Alpha Beta Gamma Delta Epsilon", Label: "ORG"},
		{Text: "   ", Label: "ORG"},
		{Text: strings.Repeat("x", 60), Label: "ORG"},
		{Text: "Houston", Label: "GPE"},
	}, nil)
	recognizer.On("ExtractNounPhrases", mock.Anything, text).Return([]string{}, nil)

	opts := DefaultOptions()
	opts.MaxCandidates = 2
	e := NewCandidateExtractor(recognizer, opts, zap.NewNop())

	got := e.Extract(context.Background(), domain.Chunk{Text: text})
	assert.Equal(t, []string{"NASA", "Houston"}, candidateTexts(got.Candidates))
}

func TestCandidateExtractor_ContinuesWhenEntitiesFail(t *testing.T) {
	recognizer := new(MockEntityRecognizer)
	recognizer.On("ExtractEntities", mock.Anything, apolloText).Return(nil, errors.New("ner down"))
	recognizer.On("ExtractNounPhrases", mock.Anything, apolloText).Return([]string{"the Apollo mission"}, nil)

	e := NewCandidateExtractor(recognizer, DefaultOptions(), zap.NewNop())
	got := e.Extract(context.Background(), domain.Chunk{Text: apolloText})

	assert.Equal(t, []string{"the Apollo mission", "1969", "Neil", "Armstrong", "Moon", "Apollo"},
		candidateTexts(got.Candidates))
	assert.Equal(t, 0, got.Inventory.Len())
}

func TestCandidateExtractor_TranscriptInventory(t *testing.T) {
	recognizer := dictionaryRecognizer{known: apolloEntities}
	e := NewCandidateExtractor(recognizer, DefaultOptions(), zap.NewNop())

	inv := e.TranscriptInventory(context.Background(), apolloText)

	assert.Equal(t, []string{"Neil Armstrong", "Moon", "Apollo"}, inv.All())
}

func TestInventory_Add(t *testing.T) {
	inv := NewInventory()
	inv.Add(domain.Entity{Text: "Paris", Label: "GPE"})
	inv.Add(domain.Entity{Text: "paris", Label: "GPE"})
	inv.Add(domain.Entity{Text: "Paris", Label: "PERSON"})
	inv.Add(domain.Entity{Text: "X", Label: "GPE"})
	inv.Add(domain.Entity{Text: "2024", Label: "DATE"})
	inv.Add(domain.Entity{Text: " Rome ", Label: "GPE"})

	assert.Equal(t, []string{"Paris", "Rome"}, inv.Label("GPE"))
	assert.Equal(t, []string{"Paris"}, inv.Label("PERSON"))
	assert.Equal(t, []string{"Paris", "Rome"}, inv.All())
	assert.Equal(t, 3, inv.Len())
}

func TestInventory_NilSafe(t *testing.T) {
	var inv *Inventory
	assert.Nil(t, inv.Label("GPE"))
	assert.Nil(t, inv.All())
	assert.Equal(t, 0, inv.Len())
}

func TestSalientTokens(t *testing.T) {
	tokens := salientTokens("The 42 rockets left Cape Canaveral. Then 3 more followed in 2020.", nil)
	require.NotEmpty(t, tokens)
	assert.Equal(t, []string{"Cape", "Canaveral", "2020"}, tokens)
}
