package generator

import (
	"context"
	"regexp"
	"strings"
	"unicode"

	"github.com/cloo-solutions/mcqgen/internal/domain"
	"go.uber.org/zap"
)

var (
	tokenPattern   = regexp.MustCompile(`[\p{L}\p{N}](?:[\p{L}\p{N}'.\-]*[\p{L}\p{N}])?`)
	numeralPattern = regexp.MustCompile(`^\d+(?:[.,]\d+)*$`)
	digitsPattern  = regexp.MustCompile(`^\d+$`)
)

// minTokenChars is the length a single token must exceed to be salient.
const minTokenChars = 2

// Inventory groups entity texts by NER label, preserving first-seen order.
type Inventory struct {
	labels  []string
	byLabel map[string][]string
	seen    map[string]struct{}
}

// NewInventory creates an empty Inventory.
func NewInventory() *Inventory {
	return &Inventory{
		byLabel: make(map[string][]string),
		seen:    make(map[string]struct{}),
	}
}

// Add records an entity unless it is a single character, pure digits or a
// case-insensitive repeat within its label.
func (inv *Inventory) Add(e domain.Entity) {
	text := strings.TrimSpace(e.Text)
	if len([]rune(text)) <= 1 || digitsPattern.MatchString(text) {
		return
	}
	key := e.Label + "\x00" + strings.ToLower(text)
	if _, ok := inv.seen[key]; ok {
		return
	}
	inv.seen[key] = struct{}{}
	if _, ok := inv.byLabel[e.Label]; !ok {
		inv.labels = append(inv.labels, e.Label)
	}
	inv.byLabel[e.Label] = append(inv.byLabel[e.Label], text)
}

// Label returns the entities recorded under label.
func (inv *Inventory) Label(label string) []string {
	if inv == nil {
		return nil
	}
	return inv.byLabel[label]
}

// All returns every entity across labels, case-insensitively unique, in
// label first-seen order.
func (inv *Inventory) All() []string {
	if inv == nil {
		return nil
	}
	var out []string
	seen := make(map[string]struct{})
	for _, label := range inv.labels {
		for _, text := range inv.byLabel[label] {
			key := strings.ToLower(text)
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, text)
		}
	}
	return out
}

// Len reports the number of recorded entities.
func (inv *Inventory) Len() int {
	if inv == nil {
		return 0
	}
	return len(inv.seen)
}

// Extraction is the result of running the extractor over one chunk.
type Extraction struct {
	Candidates []domain.AnswerCandidate
	Inventory  *Inventory
}

// CandidateExtractor proposes answer spans from a chunk.
type CandidateExtractor struct {
	entities EntityRecognizer
	opts     Options
	log      *zap.Logger
}

// NewCandidateExtractor creates a CandidateExtractor.
func NewCandidateExtractor(entities EntityRecognizer, opts Options, log *zap.Logger) *CandidateExtractor {
	return &CandidateExtractor{entities: entities, opts: opts, log: log}
}

// Extract returns the chunk's ranked answer candidates and entity inventory.
// Candidates are entities first, then noun phrases, then salient tokens.
func (e *CandidateExtractor) Extract(ctx context.Context, chunk domain.Chunk) Extraction {
	entities, err := e.entities.ExtractEntities(ctx, chunk.Text)
	if err != nil {
		e.log.Warn("entity extraction failed", zap.Int("chunk", chunk.Index), zap.Error(err))
		entities = nil
	}

	phrases, err := e.entities.ExtractNounPhrases(ctx, chunk.Text)
	if err != nil {
		e.log.Warn("noun phrase extraction failed", zap.Int("chunk", chunk.Index), zap.Error(err))
		phrases = nil
	}

	inventory := NewInventory()
	for _, ent := range entities {
		inventory.Add(ent)
	}

	pool := newCandidatePool(e.opts, chunk.Index)
	for _, ent := range entities {
		n := wordCount(ent.Text)
		if n > 0 && n <= e.opts.MaxEntityWords {
			pool.add(ent.Text, domain.CandidateKindEntity)
		}
	}
	for _, phrase := range phrases {
		n := wordCount(phrase)
		if n >= e.opts.MinNounPhraseWords && n <= e.opts.MaxNounPhraseWords {
			pool.add(phrase, domain.CandidateKindNounPhrase)
		}
	}
	for _, token := range salientTokens(chunk.Text, entities) {
		pool.add(token, domain.CandidateKindToken)
	}

	return Extraction{Candidates: pool.items, Inventory: inventory}
}

// TranscriptInventory runs NER over the whole normalized transcript.
func (e *CandidateExtractor) TranscriptInventory(ctx context.Context, text string) *Inventory {
	inventory := NewInventory()
	entities, err := e.entities.ExtractEntities(ctx, text)
	if err != nil {
		e.log.Warn("transcript entity extraction failed", zap.Error(err))
		return inventory
	}
	for _, ent := range entities {
		inventory.Add(ent)
	}
	return inventory
}

type candidatePool struct {
	opts  Options
	chunk int
	seen  map[string]struct{}
	items []domain.AnswerCandidate
}

func newCandidatePool(opts Options, chunk int) *candidatePool {
	return &candidatePool{opts: opts, chunk: chunk, seen: make(map[string]struct{})}
}

func (p *candidatePool) add(text string, kind domain.CandidateKind) {
	if len(p.items) >= p.opts.MaxCandidates {
		return
	}
	text = strings.TrimSpace(text)
	n := len([]rune(text))
	if n < 2 || n > p.opts.MaxCandidateChars {
		return
	}
	key := strings.ToLower(text)
	if _, ok := p.seen[key]; ok {
		return
	}
	p.seen[key] = struct{}{}
	p.items = append(p.items, domain.AnswerCandidate{Text: text, Kind: kind, ChunkIndex: p.chunk})
}

// salientTokens returns numerals, mid-sentence capitalized words and words
// inside entity spans, each longer than minTokenChars, in text order.
func salientTokens(text string, entities []domain.Entity) []string {
	entityWords := make(map[string]struct{})
	for _, ent := range entities {
		for _, w := range tokenPattern.FindAllString(ent.Text, -1) {
			entityWords[strings.ToLower(w)] = struct{}{}
		}
	}

	var out []string
	for _, loc := range tokenPattern.FindAllStringIndex(text, -1) {
		token := text[loc[0]:loc[1]]
		if len([]rune(token)) <= minTokenChars {
			continue
		}

		_, inEntity := entityWords[strings.ToLower(token)]
		switch {
		case numeralPattern.MatchString(token):
		case isCapitalized(token) && !sentenceInitial(text[:loc[0]]):
		case inEntity:
		default:
			continue
		}
		out = append(out, token)
	}
	return out
}

func isCapitalized(s string) bool {
	for _, r := range s {
		return unicode.IsUpper(r)
	}
	return false
}

// sentenceInitial reports whether a token preceded by prefix starts a sentence.
func sentenceInitial(prefix string) bool {
	prefix = strings.TrimRightFunc(prefix, func(r rune) bool {
		return unicode.IsSpace(r) || r == '"' || r == '\'' || r == '(' || r == '“'
	})
	if prefix == "" {
		return true
	}
	switch prefix[len(prefix)-1] {
	case '.', '!', '?':
		return true
	}
	return false
}

func wordCount(s string) int {
	return len(strings.Fields(s))
}
