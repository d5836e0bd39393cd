package generator

import (
	"regexp"
	"sort"
	"strings"
)

var (
	timestampPattern  = regexp.MustCompile(`\d{1,2}:\d{2}(:\d{2})?`)
	speakerTagPattern = regexp.MustCompile(`(?i)speaker\s+\d+:`)
	bracketPattern    = regexp.MustCompile(`\[.*?\]`)
	whitespacePattern = regexp.MustCompile(`\s+`)
	commaRunPattern   = regexp.MustCompile(`,{2,}`)
	periodRunPattern  = regexp.MustCompile(`\.{2,}`)
)

// Normalizer cleans raw transcript text.
type Normalizer struct {
	filler *regexp.Regexp
}

// NewNormalizer builds a normalizer that strips the given filler words
// (case-insensitive, whole words). An empty list disables filler removal.
func NewNormalizer(fillers []string) *Normalizer {
	words := make([]string, 0, len(fillers))
	for _, f := range fillers {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		parts := strings.Fields(f)
		for i, p := range parts {
			parts[i] = regexp.QuoteMeta(p)
		}
		words = append(words, strings.Join(parts, `\s+`))
	}
	if len(words) == 0 {
		return &Normalizer{}
	}

	// Longer fillers first so "you know" wins over any shorter prefix.
	sort.SliceStable(words, func(i, j int) bool { return len(words[i]) > len(words[j]) })

	return &Normalizer{
		filler: regexp.MustCompile(`(?i)\b(?:` + strings.Join(words, "|") + `)\b`),
	}
}

// Normalize removes timestamps, speaker tags, bracketed annotations and
// filler words, then collapses whitespace and repeated punctuation. The
// result is a fixed point: normalizing it again returns it unchanged.
func (n *Normalizer) Normalize(raw string) string {
	// A pass that changes the text either shortens it or turns other
	// whitespace into spaces, so the loop terminates.
	text := raw
	for {
		next := n.pass(text)
		if next == text {
			return text
		}
		text = next
	}
}

func (n *Normalizer) pass(text string) string {
	text = timestampPattern.ReplaceAllString(text, "")
	text = speakerTagPattern.ReplaceAllString(text, "")
	text = bracketPattern.ReplaceAllString(text, "")
	if n.filler != nil {
		text = n.filler.ReplaceAllString(text, "")
	}
	text = whitespacePattern.ReplaceAllString(text, " ")
	text = commaRunPattern.ReplaceAllString(text, ",")
	text = periodRunPattern.ReplaceAllString(text, ".")
	return strings.TrimSpace(text)
}
