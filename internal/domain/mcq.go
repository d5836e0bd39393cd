package domain

import (
	"fmt"
	"strings"
)

// Chunk is a bounded span of normalized transcript text used as
// generation context. SentenceStart and SentenceEnd form a half-open range
// over the segmenter's sentence units.
type Chunk struct {
	Index         int    `json:"index"`
	Text          string `json:"text"`
	WordCount     int    `json:"word_count"`
	SentenceStart int    `json:"sentence_start"`
	SentenceEnd   int    `json:"sentence_end"`
}

// Entity is one span reported by a named-entity recognizer.
type Entity struct {
	Text  string `json:"text"`
	Label string `json:"label"`
}

// CandidateKind records which extraction path proposed a candidate.
type CandidateKind string

const (
	CandidateKindEntity     CandidateKind = "entity"
	CandidateKindNounPhrase CandidateKind = "noun_phrase"
	CandidateKindToken      CandidateKind = "token"
)

// AnswerCandidate is a span proposed as a possible correct answer.
type AnswerCandidate struct {
	Text       string
	Kind       CandidateKind
	ChunkIndex int
}

// CandidateQuestion is a generated question awaiting validation.
type CandidateQuestion struct {
	Question string
	Answer   string
	Chunk    Chunk
}

// Answer is the output of a question-answering provider.
type Answer struct {
	Text       string  `json:"answer"`
	Confidence float64 `json:"confidence"`
}

// VerifiedQA is a candidate question that passed answer verification.
// PredictedAnswer replaces the candidate span as the correct answer.
type VerifiedQA struct {
	CandidateQuestion
	PredictedAnswer string
	Confidence      float64
}

// DistractorStrategy names the strategy that produced a distractor.
type DistractorStrategy string

const (
	StrategyTypeMatch           DistractorStrategy = "type_match"
	StrategySimilarityBand      DistractorStrategy = "similarity_band"
	StrategyNumericPerturbation DistractorStrategy = "numeric_perturbation"
)

// Distractor is a plausible but wrong option.
type Distractor struct {
	Text     string
	Strategy DistractorStrategy
}

// Difficulty is the estimated difficulty of an MCQ.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "Easy"
	DifficultyMedium Difficulty = "Medium"
	DifficultyHard   Difficulty = "Hard"
)

// QuestionType classifies a question by its leading word.
type QuestionType string

const (
	QuestionTypeFactual  QuestionType = "Factual"
	QuestionTypeTemporal QuestionType = "Temporal"
	QuestionTypeSpatial  QuestionType = "Spatial"
	QuestionTypePerson   QuestionType = "Person"
	QuestionTypeCausal   QuestionType = "Causal"
	QuestionTypeProcess  QuestionType = "Process"
	QuestionTypeGeneral  QuestionType = "General"
)

// Option is one lettered MCQ choice.
type Option struct {
	Letter string `json:"letter"`
	Text   string `json:"text"`
}

// MCQ is a finished multiple-choice question.
type MCQ struct {
	Question      string       `json:"question"`
	Options       []Option     `json:"options"`
	CorrectOption string       `json:"correct_answer"`
	Explanation   string       `json:"explanation"`
	Confidence    float64      `json:"confidence"`
	Difficulty    Difficulty   `json:"difficulty"`
	QuestionType  QuestionType `json:"question_type"`
	ChunkIndex    int          `json:"chunk_index"`

	// Embedding of the question text, kept for storage and search.
	Embedding []float32 `json:"-"`
}

// OptionText returns the text behind a letter.
func (m MCQ) OptionText(letter string) (string, bool) {
	for _, o := range m.Options {
		if o.Letter == letter {
			return o.Text, true
		}
	}
	return "", false
}

// CorrectAnswer returns the text of the correct option.
func (m MCQ) CorrectAnswer() string {
	text, _ := m.OptionText(m.CorrectOption)
	return text
}

// OptionMap returns the options keyed by letter.
func (m MCQ) OptionMap() map[string]string {
	out := make(map[string]string, len(m.Options))
	for _, o := range m.Options {
		out[o.Letter] = o.Text
	}
	return out
}

// ValidateMCQ checks the structural invariants of an assembled MCQ.
func ValidateMCQ(m *MCQ) error {
	if m == nil {
		return fmt.Errorf("mcq cannot be nil")
	}

	if strings.TrimSpace(m.Question) == "" {
		return fmt.Errorf("mcq question is required")
	}

	if len(m.Options) < 2 || len(m.Options) > 4 {
		return fmt.Errorf("mcq must have between 2 and 4 options, got %d", len(m.Options))
	}

	seen := make(map[string]struct{}, len(m.Options))
	for i, o := range m.Options {
		expected := string(rune('A' + i))
		if o.Letter != expected {
			return fmt.Errorf("mcq option %d has letter %q, expected %q", i, o.Letter, expected)
		}
		key := strings.ToLower(strings.TrimSpace(o.Text))
		if key == "" {
			return fmt.Errorf("mcq option %s is empty", o.Letter)
		}
		if _, dup := seen[key]; dup {
			return fmt.Errorf("mcq option %s duplicates another option", o.Letter)
		}
		seen[key] = struct{}{}
	}

	if _, ok := m.OptionText(m.CorrectOption); !ok {
		return fmt.Errorf("mcq correct option %q is not among the options", m.CorrectOption)
	}

	if m.Confidence < 0 || m.Confidence > 1 {
		return fmt.Errorf("mcq confidence must be within [0,1]")
	}

	if !isValidDifficulty(m.Difficulty) {
		return fmt.Errorf("mcq difficulty is invalid: %s", m.Difficulty)
	}

	if !isValidQuestionType(m.QuestionType) {
		return fmt.Errorf("mcq question type is invalid: %s", m.QuestionType)
	}

	return nil
}

func isValidDifficulty(d Difficulty) bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}

func isValidQuestionType(q QuestionType) bool {
	switch q {
	case QuestionTypeFactual, QuestionTypeTemporal, QuestionTypeSpatial,
		QuestionTypePerson, QuestionTypeCausal, QuestionTypeProcess, QuestionTypeGeneral:
		return true
	}
	return false
}

// SimilarQuestion is a stored MCQ returned by a similarity search.
type SimilarQuestion struct {
	QuestionSetID string  `json:"question_set_id"`
	MCQ           MCQ     `json:"mcq"`
	Similarity    float64 `json:"similarity"`
}
