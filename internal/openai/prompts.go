package openai

import (
	"context"
	"strings"

	"github.com/cloo-solutions/mcqgen/internal/domain"
)

const questionSystemPrompt = `You write one exam question from a passage.
The input starts with "generate question:" and the target answer is the span wrapped in <hl> markers.
Write a single question whose answer is exactly that span. Do not include the markers.
Respond with JSON: {"question": "..."}`

const answerSystemPrompt = `You answer a question using only the given passage.
Copy the shortest span of the passage that answers the question.
Rate your confidence that the span is correct from 0 to 1.
If the passage does not answer the question, return an empty answer with confidence 0.
Respond with JSON: {"answer": "...", "confidence": 0.0}`

const entitySystemPrompt = `You are a named-entity recognizer.
List every named entity in the text exactly as written, in order of appearance.
Use these labels: PERSON, NORP, FAC, ORG, GPE, LOC, PRODUCT, EVENT, WORK_OF_ART, LAW, LANGUAGE, DATE, TIME, PERCENT, MONEY, QUANTITY, ORDINAL, CARDINAL.
Respond with JSON: {"entities": [{"text": "...", "label": "..."}]}`

const nounPhraseSystemPrompt = `You are a noun-phrase chunker.
List the base noun phrases of the text exactly as written, in order of appearance.
Respond with JSON: {"noun_phrases": ["..."]}`

// GenerateQuestion produces a question whose answer is the highlighted span.
func (c *Client) GenerateQuestion(ctx context.Context, highlighted string) (string, error) {
	if strings.TrimSpace(highlighted) == "" {
		return "", ErrEmptyText
	}
	var resp struct {
		Question string `json:"question"`
	}
	if err := c.completeInto(ctx, questionSystemPrompt, highlighted, &resp); err != nil {
		return "", err
	}
	return resp.Question, nil
}

// Answer extracts an answer span from passage with a confidence in [0,1].
func (c *Client) Answer(ctx context.Context, question, passage string) (domain.Answer, error) {
	if strings.TrimSpace(question) == "" || strings.TrimSpace(passage) == "" {
		return domain.Answer{}, ErrEmptyText
	}
	var resp domain.Answer
	user := "Question: " + question + "\n\nPassage: " + passage
	if err := c.completeInto(ctx, answerSystemPrompt, user, &resp); err != nil {
		return domain.Answer{}, err
	}
	resp.Text = strings.TrimSpace(resp.Text)
	resp.Confidence = min(max(resp.Confidence, 0), 1)
	return resp, nil
}

// ExtractEntities returns the named entities of text. Entities the model
// reports that do not occur in text are dropped.
func (c *Client) ExtractEntities(ctx context.Context, text string) ([]domain.Entity, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	var resp struct {
		Entities []domain.Entity `json:"entities"`
	}
	if err := c.completeInto(ctx, entitySystemPrompt, text, &resp); err != nil {
		return nil, err
	}

	out := make([]domain.Entity, 0, len(resp.Entities))
	for _, e := range resp.Entities {
		e.Text = strings.TrimSpace(e.Text)
		e.Label = strings.ToUpper(strings.TrimSpace(e.Label))
		if e.Text == "" || !strings.Contains(text, e.Text) {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

// ExtractNounPhrases returns the base noun phrases of text.
func (c *Client) ExtractNounPhrases(ctx context.Context, text string) ([]string, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	var resp struct {
		NounPhrases []string `json:"noun_phrases"`
	}
	if err := c.completeInto(ctx, nounPhraseSystemPrompt, text, &resp); err != nil {
		return nil, err
	}

	out := make([]string, 0, len(resp.NounPhrases))
	for _, p := range resp.NounPhrases {
		p = strings.TrimSpace(p)
		if p != "" && strings.Contains(text, p) {
			out = append(out, p)
		}
	}
	return out, nil
}
