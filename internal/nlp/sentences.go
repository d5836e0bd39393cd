// Package nlp holds the local text helpers used in front of the model
// providers.
package nlp

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/neurosnap/sentences"
	"github.com/neurosnap/sentences/english"
)

// defaultAbbreviations never end a sentence when followed by a period.
var defaultAbbreviations = []string{
	"mr", "mrs", "ms", "dr", "prof", "sr", "jr", "st", "mt", "vs", "etc",
	"e.g", "i.e", "inc", "ltd", "co", "corp", "jan", "feb", "mar", "apr",
	"jun", "jul", "aug", "sep", "sept", "oct", "nov", "dec", "no", "approx",
	"u.s", "u.k", "a.m", "p.m", "fig", "vol",
}

// SentenceSplitter segments text with the Punkt model for English, then
// rejoins breaks that follow a known abbreviation or a single-letter initial.
type SentenceSplitter struct {
	punkt         *sentences.DefaultSentenceTokenizer
	abbreviations map[string]struct{}
}

// NewSentenceSplitter creates a splitter with the default abbreviation list
// plus any extra entries (case-insensitive, without the trailing period).
func NewSentenceSplitter(extra ...string) (*SentenceSplitter, error) {
	punkt, err := english.NewSentenceTokenizer(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to load punkt model: %w", err)
	}

	abbr := make(map[string]struct{}, len(defaultAbbreviations)+len(extra))
	for _, a := range defaultAbbreviations {
		abbr[a] = struct{}{}
	}
	for _, a := range extra {
		a = strings.TrimSuffix(strings.ToLower(strings.TrimSpace(a)), ".")
		if a != "" {
			abbr[a] = struct{}{}
		}
	}
	return &SentenceSplitter{punkt: punkt, abbreviations: abbr}, nil
}

// TokenizeSentences returns the trimmed, non-empty sentences of text in order.
func (s *SentenceSplitter) TokenizeSentences(text string) []string {
	var out []string
	joinNext := false

	for _, sent := range s.punkt.Tokenize(text) {
		t := strings.TrimSpace(sent.Text)
		if t == "" {
			continue
		}
		if joinNext {
			out[len(out)-1] += " " + t
		} else {
			out = append(out, t)
		}
		joinNext = s.endsWithAbbreviation(out[len(out)-1])
	}
	return out
}

func (s *SentenceSplitter) endsWithAbbreviation(sentence string) bool {
	if !strings.HasSuffix(sentence, ".") || strings.HasSuffix(sentence, "..") {
		return false
	}
	return s.isAbbreviation([]rune(strings.TrimSuffix(sentence, ".")))
}

// isAbbreviation reports whether the word ending the prefix is an
// abbreviation or an initial.
func (s *SentenceSplitter) isAbbreviation(prefix []rune) bool {
	j := len(prefix)
	for j > 0 && !unicode.IsSpace(prefix[j-1]) {
		j--
	}
	word := strings.TrimLeftFunc(string(prefix[j:]), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
	if word == "" {
		return false
	}

	w := []rune(word)
	if len(w) == 1 && unicode.IsUpper(w[0]) {
		return true
	}
	_, ok := s.abbreviations[strings.ToLower(word)]
	return ok
}
