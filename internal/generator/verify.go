package generator

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloo-solutions/mcqgen/internal/domain"
)

// AnswerVerifier re-answers a question and keeps it only when the answer
// model is confident.
type AnswerVerifier struct {
	answers   Answerer
	threshold float64
}

// NewAnswerVerifier creates an AnswerVerifier.
func NewAnswerVerifier(answers Answerer, threshold float64) *AnswerVerifier {
	return &AnswerVerifier{answers: answers, threshold: threshold}
}

// Verify returns the verified pair, or ok=false when the predicted answer is
// empty or its confidence falls below the acceptance threshold.
func (v *AnswerVerifier) Verify(ctx context.Context, cq domain.CandidateQuestion) (domain.VerifiedQA, bool, error) {
	predicted, err := v.answers.Answer(ctx, cq.Question, cq.Chunk.Text)
	if err != nil {
		return domain.VerifiedQA{}, false, fmt.Errorf("failed to verify answer: %w", err)
	}

	text := strings.TrimSpace(predicted.Text)
	if text == "" || predicted.Confidence < v.threshold {
		return domain.VerifiedQA{}, false, nil
	}

	return domain.VerifiedQA{
		CandidateQuestion: cq,
		PredictedAnswer:   text,
		Confidence:        predicted.Confidence,
	}, true, nil
}
