package similarity

import (
	"strings"
	"unicode"
)

// Scorer computes a bounded similarity score between two text spans.
// Implementations must be deterministic, symmetric, and return values in [0,1].
type Scorer interface {
	Similarity(a, b string) float64
}

// DefaultStopwords is the stopword set used when Config.Stopwords is nil.
// Kept deliberately small: the goal is removing glue words that carry no
// signal for overlap scoring, not full linguistic stopword coverage.
var DefaultStopwords = []string{
	"a", "an", "the", "and", "or", "but", "if", "then", "so",
	"of", "to", "in", "on", "at", "by", "for", "with", "from",
	"is", "are", "was", "were", "be", "been", "being",
	"it", "its", "this", "that", "these", "those",
	"i", "you", "he", "she", "we", "they",
	"as", "not", "no", "do", "does", "did", "have", "has", "had",
}

// Config holds keyword scorer settings. A zero Config is usable and applies
// DefaultStopwords.
type Config struct {
	// Stopwords overrides the default stopword set. An empty non-nil slice
	// disables stopword removal entirely.
	Stopwords []string
}

// KeywordScorer is the default offline similarity backend. It scores two
// texts by the Jaccard index (intersection over union) of their distinct
// token sets after lowercasing, punctuation stripping, and stopword removal.
// The measure is documented here and intentionally version-stable: test
// fixtures depend on exact scores.
type KeywordScorer struct {
	stopwords map[string]struct{}
}

// NewKeywordScorer creates a keyword-overlap scorer from cfg.
func NewKeywordScorer(cfg Config) *KeywordScorer {
	words := cfg.Stopwords
	if words == nil {
		words = DefaultStopwords
	}
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[strings.ToLower(w)] = struct{}{}
	}
	return &KeywordScorer{stopwords: set}
}

// Similarity returns the Jaccard index of the two texts' token sets.
// Identical inputs score 1.0 (including the identical-empty case); an empty
// side against a non-empty side scores 0.0. Input that normalizes to nothing
// (all punctuation or all stopwords) carries no signal and scores 0.0 rather
// than erroring.
func (s *KeywordScorer) Similarity(a, b string) float64 {
	if a == b {
		return 1.0
	}

	setA := s.tokenSet(a)
	setB := s.tokenSet(b)
	if len(setA) == 0 || len(setB) == 0 {
		return 0.0
	}

	intersection := 0
	for tok := range setA {
		if _, ok := setB[tok]; ok {
			intersection++
		}
	}
	union := len(setA) + len(setB) - intersection
	return float64(intersection) / float64(union)
}

// tokenSet normalizes text into the distinct token set used for scoring.
// Stopwords are removed before stemming so the stopword list matches
// surface forms.
func (s *KeywordScorer) tokenSet(text string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, tok := range Tokenize(text) {
		if _, stop := s.stopwords[tok]; stop {
			continue
		}
		set[stem(tok)] = struct{}{}
	}
	return set
}

// stem applies a light plural normalization: a trailing "s" is dropped from
// tokens longer than three characters ("refunds" matches "refund", "days"
// matches "day") unless the token ends in "ss". Anything heavier risks
// conflating unrelated words and is deliberately out of scope for the
// offline baseline.
func stem(tok string) string {
	if len(tok) > 3 && strings.HasSuffix(tok, "s") && !strings.HasSuffix(tok, "ss") {
		return tok[:len(tok)-1]
	}
	return tok
}

// Tokenize lowercases text, strips punctuation, and splits on whitespace.
// Intra-word apostrophes and hyphens are dropped rather than treated as
// separators so "don't" tokenizes as "dont", not "don" + "t".
func Tokenize(text string) []string {
	var sb strings.Builder
	sb.Grow(len(text))
	for _, r := range strings.ToLower(text) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			sb.WriteRune(r)
		case unicode.IsSpace(r):
			sb.WriteRune(' ')
		}
		// Everything else (punctuation, symbols) is dropped.
	}
	return strings.Fields(sb.String())
}
