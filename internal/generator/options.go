package generator

import (
	"fmt"

	"github.com/cloo-solutions/mcqgen/internal/domain"
)

// Options holds every tunable knob of the pipeline. Zero-value fields are
// not defaulted; start from DefaultOptions and override.
type Options struct {
	FillerWords []string `yaml:"filler_words"`

	ChunkSimilarityThreshold  float64 `yaml:"chunk_similarity_threshold"`
	MinChunkWords             int     `yaml:"min_chunk_words"`
	MaxChunkWords             int     `yaml:"max_chunk_words"`
	FallbackSentencesPerChunk int     `yaml:"fallback_sentences_per_chunk"`

	TopKChunks int `yaml:"top_k_chunks"`

	MaxCandidates      int `yaml:"max_candidates"`
	MaxEntityWords     int `yaml:"max_entity_words"`
	MinNounPhraseWords int `yaml:"min_noun_phrase_words"`
	MaxNounPhraseWords int `yaml:"max_noun_phrase_words"`
	MaxCandidateChars  int `yaml:"max_candidate_chars"`

	QuestionsPerChunk   int     `yaml:"questions_per_chunk"`
	MinQuestionWords    int     `yaml:"min_question_words"`
	ScreeningConfidence float64 `yaml:"screening_confidence"`

	DuplicateThreshold   float64 `yaml:"duplicate_threshold"`
	AcceptanceConfidence float64 `yaml:"acceptance_confidence"`

	DistractorCandidates  int     `yaml:"distractor_candidates"`
	MaxDistractors        int     `yaml:"max_distractors"`
	SimilarityBandLow     float64 `yaml:"similarity_band_low"`
	SimilarityBandHigh    float64 `yaml:"similarity_band_high"`
	MinLengthRatio        float64 `yaml:"min_length_ratio"`
	MaxLengthRatio        float64 `yaml:"max_length_ratio"`
	UseTranscriptEntities bool    `yaml:"use_transcript_entities"`
}

// DefaultFillerWords are stripped from transcripts before segmentation.
var DefaultFillerWords = []string{"um", "uh", "er", "ah", "like", "you know", "so", "well"}

// DefaultOptions returns the reference configuration.
func DefaultOptions() Options {
	fillers := make([]string, len(DefaultFillerWords))
	copy(fillers, DefaultFillerWords)

	return Options{
		FillerWords: fillers,

		ChunkSimilarityThreshold:  0.7,
		MinChunkWords:             20,
		MaxChunkWords:             200,
		FallbackSentencesPerChunk: 5,

		TopKChunks: 15,

		MaxCandidates:      15,
		MaxEntityWords:     4,
		MinNounPhraseWords: 2,
		MaxNounPhraseWords: 5,
		MaxCandidateChars:  50,

		QuestionsPerChunk:   3,
		MinQuestionWords:    4,
		ScreeningConfidence: 0.3,

		DuplicateThreshold:   0.90,
		AcceptanceConfidence: 0.35,

		DistractorCandidates:  4,
		MaxDistractors:        3,
		SimilarityBandLow:     0.2,
		SimilarityBandHigh:    0.8,
		MinLengthRatio:        0.3,
		MaxLengthRatio:        3.0,
		UseTranscriptEntities: true,
	}
}

// Validate reports the first invariant the options break, wrapped in
// domain.ErrInvalidOptions.
func (o Options) Validate() error {
	if err := o.validate(); err != nil {
		return domain.NewDomainErrorWithCause(domain.ErrCodeValidation, domain.ErrInvalidOptions.Message, err)
	}
	return nil
}

func (o Options) validate() error {
	unit := []struct {
		name  string
		value float64
	}{
		{"chunk_similarity_threshold", o.ChunkSimilarityThreshold},
		{"screening_confidence", o.ScreeningConfidence},
		{"duplicate_threshold", o.DuplicateThreshold},
		{"acceptance_confidence", o.AcceptanceConfidence},
		{"similarity_band_low", o.SimilarityBandLow},
		{"similarity_band_high", o.SimilarityBandHigh},
	}
	for _, u := range unit {
		if u.value < 0 || u.value > 1 {
			return fmt.Errorf("%s must be within [0,1], got %v", u.name, u.value)
		}
	}

	positive := []struct {
		name  string
		value int
	}{
		{"min_chunk_words", o.MinChunkWords},
		{"max_chunk_words", o.MaxChunkWords},
		{"fallback_sentences_per_chunk", o.FallbackSentencesPerChunk},
		{"top_k_chunks", o.TopKChunks},
		{"max_candidates", o.MaxCandidates},
		{"max_entity_words", o.MaxEntityWords},
		{"min_noun_phrase_words", o.MinNounPhraseWords},
		{"max_noun_phrase_words", o.MaxNounPhraseWords},
		{"max_candidate_chars", o.MaxCandidateChars},
		{"questions_per_chunk", o.QuestionsPerChunk},
		{"min_question_words", o.MinQuestionWords},
		{"distractor_candidates", o.DistractorCandidates},
		{"max_distractors", o.MaxDistractors},
	}
	for _, p := range positive {
		if p.value <= 0 {
			return fmt.Errorf("%s must be positive, got %d", p.name, p.value)
		}
	}

	if o.MinChunkWords > o.MaxChunkWords {
		return fmt.Errorf("min_chunk_words (%d) exceeds max_chunk_words (%d)", o.MinChunkWords, o.MaxChunkWords)
	}
	if o.MinNounPhraseWords > o.MaxNounPhraseWords {
		return fmt.Errorf("min_noun_phrase_words (%d) exceeds max_noun_phrase_words (%d)", o.MinNounPhraseWords, o.MaxNounPhraseWords)
	}
	if o.SimilarityBandLow >= o.SimilarityBandHigh {
		return fmt.Errorf("similarity_band_low must be below similarity_band_high")
	}
	if o.MaxDistractors > 3 {
		return fmt.Errorf("max_distractors must be at most 3, got %d", o.MaxDistractors)
	}
	if o.MinLengthRatio <= 0 || o.MinLengthRatio > o.MaxLengthRatio {
		return fmt.Errorf("length ratio bounds must satisfy 0 < min <= max")
	}

	return nil
}
