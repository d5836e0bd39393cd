package generator

import (
	"context"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/cloo-solutions/mcqgen/internal/domain"
	"go.uber.org/zap"
)

const (
	highlightMarker = "<hl>"
	questionPrefix  = "generate question: "
)

// QuestionSynthesizer turns answer candidates into screened questions.
type QuestionSynthesizer struct {
	questions QuestionGenerator
	answers   Answerer
	opts      Options
	log       *zap.Logger
}

// NewQuestionSynthesizer creates a QuestionSynthesizer.
func NewQuestionSynthesizer(questions QuestionGenerator, answers Answerer, opts Options, log *zap.Logger) *QuestionSynthesizer {
	return &QuestionSynthesizer{questions: questions, answers: answers, opts: opts, log: log}
}

// Synthesize tries the leading 2×QuestionsPerChunk candidates and returns
// at most min(QuestionsPerChunk, want) questions that pass the format and
// answerability screens. A non-positive want means QuestionsPerChunk.
func (s *QuestionSynthesizer) Synthesize(ctx context.Context, chunk domain.Chunk, candidates []domain.AnswerCandidate, want int) []domain.CandidateQuestion {
	limit := min(len(candidates), 2*s.opts.QuestionsPerChunk)
	quota := s.opts.QuestionsPerChunk
	if want > 0 {
		quota = min(quota, want)
	}

	var out []domain.CandidateQuestion
	for _, cand := range candidates[:limit] {
		if len(out) >= quota || ctx.Err() != nil {
			break
		}

		highlighted, ok := highlight(chunk.Text, cand.Text)
		if !ok {
			continue
		}

		raw, err := s.questions.GenerateQuestion(ctx, questionPrefix+highlighted)
		if err != nil {
			s.log.Warn("question generation failed",
				zap.Int("chunk", chunk.Index), zap.String("candidate", cand.Text), zap.Error(err))
			continue
		}

		question := cleanQuestion(raw)
		if !s.wellFormed(question) {
			s.log.Debug("rejected malformed question", zap.String("question", question))
			continue
		}

		predicted, err := s.answers.Answer(ctx, question, chunk.Text)
		if err != nil {
			s.log.Warn("question screening failed", zap.String("question", question), zap.Error(err))
			continue
		}
		if !s.answerable(predicted, cand.Text) {
			s.log.Debug("rejected unanswerable question",
				zap.String("question", question), zap.Float64("confidence", predicted.Confidence))
			continue
		}

		out = append(out, domain.CandidateQuestion{Question: question, Answer: cand.Text, Chunk: chunk})
	}
	return out
}

func (s *QuestionSynthesizer) wellFormed(question string) bool {
	return wordCount(question) >= s.opts.MinQuestionWords && strings.HasSuffix(question, "?")
}

func (s *QuestionSynthesizer) answerable(predicted domain.Answer, candidate string) bool {
	got := strings.ToLower(strings.TrimSpace(predicted.Text))
	want := strings.ToLower(strings.TrimSpace(candidate))
	if got != "" && (strings.Contains(got, want) || strings.Contains(want, got)) {
		return true
	}
	return predicted.Confidence > s.opts.ScreeningConfidence
}

// highlight wraps the first case-insensitive occurrence of span in text
// with highlight markers.
func highlight(text, span string) (string, bool) {
	span = strings.TrimSpace(span)
	if span == "" {
		return "", false
	}
	// ToLower can change byte lengths for some scripts; only use the index
	// when the lowered text keeps the original layout.
	lowered := strings.ToLower(text)
	if len(lowered) != len(text) {
		i := strings.Index(text, span)
		if i < 0 {
			return "", false
		}
		return wrapAt(text, i, len(span)), true
	}
	i := strings.Index(lowered, strings.ToLower(span))
	if i < 0 {
		return "", false
	}
	return wrapAt(text, i, len(span)), true
}

func wrapAt(text string, at, n int) string {
	return text[:at] + highlightMarker + text[at:at+n] + highlightMarker + text[at+n:]
}

// cleanQuestion strips prompt echoes and markers and normalizes casing and
// the trailing question mark.
func cleanQuestion(raw string) string {
	q := strings.TrimSpace(raw)
	if strings.HasPrefix(strings.ToLower(q), strings.TrimSpace(questionPrefix)) {
		q = q[len(strings.TrimSpace(questionPrefix)):]
	}
	q = strings.ReplaceAll(q, "</hl>", "")
	q = strings.ReplaceAll(q, highlightMarker, "")
	q = strings.Join(strings.Fields(q), " ")
	if q == "" {
		return ""
	}

	r, size := utf8.DecodeRuneInString(q)
	q = string(unicode.ToUpper(r)) + q[size:]

	if !strings.HasSuffix(q, "?") {
		q += "?"
	}
	return q
}
