package generator

import (
	"context"
	"math"
	"math/rand/v2"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/cloo-solutions/mcqgen/internal/domain"
	"go.uber.org/zap"
)

// Answer types used when NER assigns no label to the answer itself.
const (
	labelCardinal = "CARDINAL"
	labelProper   = "PROPN"
	labelNoun     = "NOUN"
)

// numberPattern matches plain or comma-grouped numbers such as 1,200.5.
var numberPattern = regexp.MustCompile(`\d+(?:,\d{3})*(?:\.\d+)?`)

// perturbations are applied in order to the first number of an answer.
var perturbations = []func(float64) float64{
	func(v float64) float64 { return v * 0.5 },
	func(v float64) float64 { return v * 1.5 },
	func(v float64) float64 { return v * 2 },
	func(v float64) float64 { return v + 1 },
	func(v float64) float64 { return v - 1 },
}

// DistractorSynthesizer proposes wrong options for a verified answer.
type DistractorSynthesizer struct {
	embedder Embedder
	entities EntityRecognizer
	opts     Options
	log      *zap.Logger
}

// NewDistractorSynthesizer creates a DistractorSynthesizer.
func NewDistractorSynthesizer(embedder Embedder, entities EntityRecognizer, opts Options, log *zap.Logger) *DistractorSynthesizer {
	return &DistractorSynthesizer{embedder: embedder, entities: entities, opts: opts, log: log}
}

// Synthesize returns up to DistractorCandidates distractors for answer.
// Type-matched entities come first, then entities in the similarity band,
// then numeric perturbations; later strategies only run while the pool is
// short. The surviving pool is shuffled with rng. span is the extracted
// candidate the question was built from; it is never offered as a wrong
// option even when it differs from answer.
func (d *DistractorSynthesizer) Synthesize(ctx context.Context, answer, span string, chunkInv, transcriptInv *Inventory, rng *rand.Rand) []domain.Distractor {
	pool := newDistractorPool(answer, span)
	want := d.opts.DistractorCandidates

	label := d.answerType(ctx, answer)
	for _, inv := range d.inventories(chunkInv, transcriptInv) {
		for _, text := range inv.Label(label) {
			pool.add(text, domain.StrategyTypeMatch)
		}
	}

	if pool.len() < 2*want {
		for _, text := range d.similarityBand(ctx, answer, pool, chunkInv, transcriptInv) {
			pool.add(text, domain.StrategySimilarityBand)
		}
	}

	if pool.len() < want && numberPattern.MatchString(answer) {
		for _, text := range perturbNumber(answer) {
			pool.add(text, domain.StrategyNumericPerturbation)
		}
	}

	items := pool.items
	if len(items) > 2*want {
		items = items[:2*want]
	}
	rng.Shuffle(len(items), func(i, j int) { items[i], items[j] = items[j], items[i] })
	if len(items) > want {
		items = items[:want]
	}
	return items
}

func (d *DistractorSynthesizer) inventories(chunkInv, transcriptInv *Inventory) []*Inventory {
	out := []*Inventory{chunkInv}
	if d.opts.UseTranscriptEntities && transcriptInv != nil {
		out = append(out, transcriptInv)
	}
	return out
}

// answerType infers the semantic type of an answer.
func (d *DistractorSynthesizer) answerType(ctx context.Context, answer string) string {
	entities, err := d.entities.ExtractEntities(ctx, answer)
	if err != nil {
		d.log.Warn("answer type recognition failed", zap.String("answer", answer), zap.Error(err))
	} else if len(entities) > 0 && entities[0].Label != "" {
		return entities[0].Label
	}

	if isNumeric(answer) {
		return labelCardinal
	}
	for _, w := range strings.Fields(answer) {
		if isCapitalized(w) {
			return labelProper
		}
	}
	return labelNoun
}

// similarityBand returns known entities whose similarity to answer lies
// strictly inside the configured band, most similar first.
func (d *DistractorSynthesizer) similarityBand(ctx context.Context, answer string, pool *distractorPool, chunkInv, transcriptInv *Inventory) []string {
	var candidates []string
	seen := make(map[string]struct{})
	for _, inv := range d.inventories(chunkInv, transcriptInv) {
		for _, text := range inv.All() {
			key := strings.ToLower(text)
			if _, ok := seen[key]; ok || pool.has(text) {
				continue
			}
			seen[key] = struct{}{}
			candidates = append(candidates, text)
		}
	}
	if len(candidates) == 0 {
		return nil
	}

	embeddings, err := d.embedder.EmbedBatch(ctx, append([]string{answer}, candidates...))
	if err != nil || len(embeddings) != len(candidates)+1 {
		d.log.Warn("similarity band scoring failed", zap.String("answer", answer), zap.Error(err))
		return nil
	}

	type scored struct {
		text string
		sim  float64
	}
	var band []scored
	for i, text := range candidates {
		sim := cosine(embeddings[0], embeddings[i+1])
		if sim > d.opts.SimilarityBandLow && sim < d.opts.SimilarityBandHigh {
			band = append(band, scored{text: text, sim: sim})
		}
	}
	sort.SliceStable(band, func(i, j int) bool { return band[i].sim > band[j].sim })

	out := make([]string, len(band))
	for i, b := range band {
		out[i] = b.text
	}
	return out
}

// perturbNumber rewrites the first number in answer with each perturbation,
// skipping non-positive and unchanged values.
func perturbNumber(answer string) []string {
	loc := numberPattern.FindStringIndex(answer)
	if loc == nil {
		return nil
	}
	match := answer[loc[0]:loc[1]]
	grouped := strings.Contains(match, ",")
	value, err := strconv.ParseFloat(strings.ReplaceAll(match, ",", ""), 64)
	if err != nil {
		return nil
	}

	var out []string
	for _, perturb := range perturbations {
		v := math.Round(perturb(value)*1e6) / 1e6
		if v <= 0 || v == value {
			continue
		}
		formatted := strconv.FormatFloat(v, 'f', -1, 64)
		if grouped {
			formatted = groupThousands(formatted)
		}
		out = append(out, answer[:loc[0]]+formatted+answer[loc[1]:])
	}
	return out
}

// groupThousands inserts commas into the integer part of a formatted number.
func groupThousands(num string) string {
	intPart, frac, hasFrac := strings.Cut(num, ".")
	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	if hasFrac {
		b.WriteByte('.')
		b.WriteString(frac)
	}
	return b.String()
}

func isNumeric(s string) bool {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
	if s == "" {
		return false
	}
	_, err := strconv.ParseFloat(s, 64)
	return err == nil
}

type distractorPool struct {
	excluded map[string]struct{}
	seen     map[string]struct{}
	items    []domain.Distractor
}

// newDistractorPool creates a pool that never accepts the answer or any of
// the excluded texts.
func newDistractorPool(answer string, exclude ...string) *distractorPool {
	p := &distractorPool{
		excluded: make(map[string]struct{}, len(exclude)+1),
		seen:     make(map[string]struct{}),
	}
	for _, text := range append([]string{answer}, exclude...) {
		if key := strings.ToLower(strings.TrimSpace(text)); key != "" {
			p.excluded[key] = struct{}{}
		}
	}
	return p
}

func (p *distractorPool) has(text string) bool {
	key := strings.ToLower(strings.TrimSpace(text))
	if _, ok := p.excluded[key]; ok {
		return true
	}
	_, ok := p.seen[key]
	return ok
}

func (p *distractorPool) add(text string, strategy domain.DistractorStrategy) {
	text = strings.TrimSpace(text)
	if text == "" || p.has(text) {
		return
	}
	p.seen[strings.ToLower(text)] = struct{}{}
	p.items = append(p.items, domain.Distractor{Text: text, Strategy: strategy})
}

func (p *distractorPool) len() int {
	return len(p.items)
}

// ValidateDistractors filters distractors that are blank, equal to the
// answer, already present in the question, or far from the answer's
// length.
func ValidateDistractors(answer, question string, distractors []domain.Distractor, opts Options) []domain.Distractor {
	answerKey := strings.ToLower(strings.TrimSpace(answer))
	questionKey := strings.ToLower(question)
	answerLen := float64(len([]rune(strings.TrimSpace(answer))))

	var out []domain.Distractor
	for _, d := range distractors {
		text := strings.TrimSpace(d.Text)
		key := strings.ToLower(text)
		if key == "" || key == answerKey || strings.Contains(questionKey, key) {
			continue
		}
		if answerLen > 0 {
			ratio := float64(len([]rune(text))) / answerLen
			if ratio < opts.MinLengthRatio || ratio > opts.MaxLengthRatio {
				continue
			}
		}
		out = append(out, domain.Distractor{Text: text, Strategy: d.Strategy})
	}
	return out
}
