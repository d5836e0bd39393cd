package generator

import (
	"fmt"
	"math"
	"math/rand/v2"
	"regexp"
	"strings"

	"github.com/cloo-solutions/mcqgen/internal/domain"
)

var leadingWordPattern = regexp.MustCompile(`^[a-z]+`)

var analyticalStems = []string{"why", "how", "analyze", "compare"}

var questionTypes = map[string]domain.QuestionType{
	"what":  domain.QuestionTypeFactual,
	"when":  domain.QuestionTypeTemporal,
	"where": domain.QuestionTypeSpatial,
	"who":   domain.QuestionTypePerson,
	"why":   domain.QuestionTypeCausal,
	"how":   domain.QuestionTypeProcess,
}

type taggedOption struct {
	text    string
	correct bool
}

// Assemble builds the lettered MCQ. Options are shuffled as tagged pairs so
// the correct letter always follows the answer. It returns false when fewer
// than two options remain.
func Assemble(qa domain.VerifiedQA, distractors []domain.Distractor, maxDistractors int, rng *rand.Rand) (domain.MCQ, bool) {
	if len(distractors) > maxDistractors {
		distractors = distractors[:maxDistractors]
	}

	tagged := make([]taggedOption, 0, len(distractors)+1)
	tagged = append(tagged, taggedOption{text: qa.PredictedAnswer, correct: true})
	for _, d := range distractors {
		tagged = append(tagged, taggedOption{text: d.Text})
	}
	if len(tagged) < 2 {
		return domain.MCQ{}, false
	}
	rng.Shuffle(len(tagged), func(i, j int) { tagged[i], tagged[j] = tagged[j], tagged[i] })

	mcq := domain.MCQ{
		Question:     qa.Question,
		Options:      make([]domain.Option, len(tagged)),
		Explanation:  fmt.Sprintf("The correct answer is '%s' based on the context provided.", qa.PredictedAnswer),
		Confidence:   math.Round(qa.Confidence*1000) / 1000,
		Difficulty:   Difficulty(qa.Question, qa.PredictedAnswer, len(distractors)),
		QuestionType: ClassifyQuestion(qa.Question),
		ChunkIndex:   qa.Chunk.Index,
	}
	for i, t := range tagged {
		letter := string(rune('A' + i))
		mcq.Options[i] = domain.Option{Letter: letter, Text: t.text}
		if t.correct {
			mcq.CorrectOption = letter
		}
	}
	return mcq, true
}

// Difficulty scores a question by length, answer length, option count and
// analytical wording.
func Difficulty(question, answer string, distractors int) domain.Difficulty {
	score := 0

	switch n := wordCount(question); {
	case n > 15:
		score += 2
	case n > 10:
		score++
	}
	if wordCount(answer) > 3 {
		score++
	}
	if distractors >= 3 {
		score++
	}
	if hasAnalyticalStem(question) {
		score += 2
	}

	switch {
	case score <= 2:
		return domain.DifficultyEasy
	case score <= 4:
		return domain.DifficultyMedium
	default:
		return domain.DifficultyHard
	}
}

func hasAnalyticalStem(question string) bool {
	for _, w := range tokenPattern.FindAllString(strings.ToLower(question), -1) {
		for _, stem := range analyticalStems {
			if w == stem {
				return true
			}
		}
	}
	return false
}

// ClassifyQuestion tags a question by its leading interrogative word.
func ClassifyQuestion(question string) domain.QuestionType {
	lead := leadingWordPattern.FindString(strings.ToLower(strings.TrimSpace(question)))
	if t, ok := questionTypes[lead]; ok {
		return t
	}
	return domain.QuestionTypeGeneral
}
