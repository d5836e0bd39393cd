// Package generator turns spoken-word transcripts into validated
// multiple-choice questions.
package generator

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/cloo-solutions/mcqgen/internal/domain"
	"github.com/cloo-solutions/mcqgen/internal/telemetry"
	"go.uber.org/zap"
)

// Version is stamped on exported question sets.
const Version = "1.0.0"

// Generator runs the generation pipeline. It holds no per-request state and
// is safe for concurrent use when its providers are.
type Generator struct {
	opts Options
	log  *zap.Logger

	normalizer  *Normalizer
	segmenter   *Segmenter
	salience    *SalienceSelector
	extractor   *CandidateExtractor
	synthesizer *QuestionSynthesizer
	dedup       *Deduplicator
	verifier    *AnswerVerifier
	distractors *DistractorSynthesizer

	newRand func() *rand.Rand
}

// Opt customizes a Generator.
type Opt func(*Generator)

// WithRandFactory overrides the per-request random source, typically with
// a seeded one in tests.
func WithRandFactory(fn func() *rand.Rand) Opt {
	return func(g *Generator) {
		if fn != nil {
			g.newRand = fn
		}
	}
}

// New builds a Generator, failing fast on invalid options or missing
// providers.
func New(p Providers, opts Options, log *zap.Logger, extra ...Opt) (*Generator, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if err := p.validate(); err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeValidation, domain.ErrInvalidOptions.Message, err)
	}
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("generator")

	g := &Generator{
		opts:        opts,
		log:         log,
		normalizer:  NewNormalizer(opts.FillerWords),
		segmenter:   NewSegmenter(p.Embedder, p.Sentences, opts, log),
		salience:    NewSalienceSelector(p.Embedder, opts.TopKChunks, log),
		extractor:   NewCandidateExtractor(p.Entities, opts, log),
		synthesizer: NewQuestionSynthesizer(p.Questions, p.Answers, opts, log),
		dedup:       NewDeduplicator(p.Embedder, opts.DuplicateThreshold),
		verifier:    NewAnswerVerifier(p.Answers, opts.AcceptanceConfidence),
		distractors: NewDistractorSynthesizer(p.Embedder, p.Entities, opts, log),
		newRand: func() *rand.Rand {
			return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
		},
	}
	for _, o := range extra {
		o(g)
	}
	return g, nil
}

// Options returns the pipeline configuration.
func (g *Generator) Options() Options {
	return g.opts
}

// Generate produces up to maxItems MCQs from transcript, each with at least
// minDistractors distractors. An empty transcript or non-positive maxItems
// yields an empty result. When ctx is cancelled the items accepted so far
// are returned along with ctx.Err().
func (g *Generator) Generate(ctx context.Context, transcript string, maxItems, minDistractors int) ([]domain.MCQ, error) {
	results := []domain.MCQ{}
	if strings.TrimSpace(transcript) == "" || maxItems <= 0 {
		return results, nil
	}
	minDistractors = max(minDistractors, 0)

	ctx, span := telemetry.StartSpan(ctx, "generator.generate", telemetry.SpanAttributes{
		Operation: "generate",
		MaxItems:  maxItems,
	})
	defer span.End()

	text := g.normalizer.Normalize(transcript)
	if text == "" {
		return results, nil
	}

	chunks := g.salience.Select(ctx, g.segmenter.Segment(ctx, text))
	g.log.Info("transcript segmented", zap.Int("chunks", len(chunks)), zap.Int("max_items", maxItems))

	var transcriptInv *Inventory
	if g.opts.UseTranscriptEntities {
		transcriptInv = g.extractor.TranscriptInventory(ctx, text)
	}

	run := &request{
		rng:            g.newRand(),
		seen:           &SeenQuestionSet{},
		minDistractors: minDistractors,
		transcriptInv:  transcriptInv,
	}

	for _, chunk := range chunks {
		if err := ctx.Err(); err != nil {
			span.SetData("items", len(results))
			return results, err
		}
		if len(results) >= maxItems {
			break
		}

		extraction := g.extractor.Extract(ctx, chunk)
		if len(extraction.Candidates) == 0 {
			g.log.Debug("chunk has no answer candidates", zap.Int("chunk", chunk.Index))
			continue
		}

		questions := g.synthesizer.Synthesize(ctx, chunk, extraction.Candidates, maxItems-len(results))
		for _, cq := range questions {
			if err := ctx.Err(); err != nil {
				span.SetData("items", len(results))
				return results, err
			}
			if len(results) >= maxItems {
				break
			}

			mcq, ok := g.build(ctx, run, cq, extraction.Inventory)
			if !ok {
				continue
			}
			run.seen.Add(mcq.Embedding)
			results = append(results, mcq)
		}

		g.log.Info("chunk processed",
			zap.Int("chunk", chunk.Index),
			zap.Int("candidates", len(extraction.Candidates)),
			zap.Int("questions", len(questions)),
			zap.Int("accepted", len(results)))
	}

	span.SetData("items", len(results))
	if err := ctx.Err(); err != nil {
		return results, err
	}
	return results, nil
}

// request is the state owned by one Generate call.
type request struct {
	rng            *rand.Rand
	seen           *SeenQuestionSet
	minDistractors int
	transcriptInv  *Inventory
}

// build runs one candidate question through dedup, verification, distractor
// synthesis and assembly.
func (g *Generator) build(ctx context.Context, run *request, cq domain.CandidateQuestion, chunkInv *Inventory) (domain.MCQ, bool) {
	log := g.log.With(zap.String("question", cq.Question), zap.Int("chunk", cq.Chunk.Index))

	embedding, novel, err := g.dedup.Check(ctx, cq.Question, run.seen)
	if err != nil {
		log.Warn("dedup check failed", zap.Error(err))
		return domain.MCQ{}, false
	}
	if !novel {
		log.Debug("rejected duplicate question")
		return domain.MCQ{}, false
	}

	verified, ok, err := g.verifier.Verify(ctx, cq)
	if err != nil {
		log.Warn("answer verification failed", zap.Error(err))
		return domain.MCQ{}, false
	}
	if !ok {
		log.Debug("rejected low-confidence answer")
		return domain.MCQ{}, false
	}

	proposed := g.distractors.Synthesize(ctx, verified.PredictedAnswer, cq.Answer, chunkInv, run.transcriptInv, run.rng)
	valid := ValidateDistractors(verified.PredictedAnswer, verified.Question, proposed, g.opts)
	if len(valid) < run.minDistractors {
		log.Debug("rejected for too few distractors",
			zap.Int("valid", len(valid)), zap.Int("required", run.minDistractors))
		return domain.MCQ{}, false
	}

	mcq, ok := Assemble(verified, valid, g.opts.MaxDistractors, run.rng)
	if !ok {
		log.Debug("rejected with fewer than two options")
		return domain.MCQ{}, false
	}
	if err := domain.ValidateMCQ(&mcq); err != nil {
		log.Warn("assembled mcq is invalid", zap.Error(fmt.Errorf("%w: %v", domain.ErrInvalidMCQ, err)))
		return domain.MCQ{}, false
	}
	mcq.Embedding = embedding
	return mcq, true
}
