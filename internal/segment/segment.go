package segment

import (
	"strings"
	"unicode"
)

// Sentence is a sentence-like unit cut from a larger text. Text is trimmed
// of surrounding whitespace; Start and End are byte offsets into the
// original untrimmed text, so the original span can always be recovered.
type Sentence struct {
	Text  string `json:"text"`
	Start int    `json:"start"`
	End   int    `json:"end"`
}

// DefaultAbbreviations is the abbreviation guard list applied when
// Config.Abbreviations is nil. Entries are matched case-insensitively
// against the word preceding a period.
var DefaultAbbreviations = []string{
	"mr", "mrs", "ms", "dr", "prof", "sr", "jr", "st",
	"etc", "vs", "inc", "ltd", "co", "corp",
	"e.g", "i.e", "approx", "dept", "est", "fig", "no",
}

// Config holds segmenter settings. The zero value is usable.
type Config struct {
	// Abbreviations overrides the default guard list. An empty non-nil
	// slice disables abbreviation guarding.
	Abbreviations []string
}

// Segmenter splits free text into ordered sentences. It is pure and
// stateless after construction, so a single instance is safe for concurrent
// use.
type Segmenter struct {
	abbreviations map[string]struct{}
}

// New creates a segmenter from cfg.
func New(cfg Config) *Segmenter {
	abbrevs := cfg.Abbreviations
	if abbrevs == nil {
		abbrevs = DefaultAbbreviations
	}
	set := make(map[string]struct{}, len(abbrevs))
	for _, a := range abbrevs {
		set[strings.ToLower(strings.TrimSuffix(a, "."))] = struct{}{}
	}
	return &Segmenter{abbreviations: set}
}

// Segment splits text into sentences on terminal punctuation (. ! ?)
// followed by whitespace or end of string, guarding against abbreviation
// and single-initial false positives. Spans never overlap, appear in
// original order, and cover every non-boundary character of the input.
// Empty or all-whitespace input yields an empty slice.
func (s *Segmenter) Segment(text string) []Sentence {
	var sentences []Sentence
	runes := []rune(text)

	start := 0
	byteStart := 0
	bytePos := 0
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		byteEnd := bytePos + len(string(r))

		if isTerminal(r) && s.isBoundary(runes, i) {
			if sent, ok := makeSentence(text, byteStart, byteEnd); ok {
				sentences = append(sentences, sent)
			}
			start = i + 1
			byteStart = byteEnd
		}
		bytePos = byteEnd
	}

	if start < len(runes) {
		if sent, ok := makeSentence(text, byteStart, len(text)); ok {
			sentences = append(sentences, sent)
		}
	}
	return sentences
}

// isTerminal reports whether r is sentence-terminal punctuation (. ! ?).
func isTerminal(r rune) bool {
	return r == '.' || r == '!' || r == '?'
}

// isBoundary reports whether the terminal rune at index i actually ends a
// sentence: it must be followed by whitespace or end of string, and for a
// period the preceding word must not be a guarded abbreviation or a single
// capital initial ("J. Smith").
func (s *Segmenter) isBoundary(runes []rune, i int) bool {
	if i+1 < len(runes) && !unicode.IsSpace(runes[i+1]) {
		return false
	}
	if runes[i] != '.' {
		return true
	}

	word := precedingWord(runes, i)
	if len(word) == 1 && unicode.IsUpper([]rune(word)[0]) {
		return false
	}
	_, guarded := s.abbreviations[strings.ToLower(strings.TrimSuffix(word, "."))]
	return !guarded
}

// precedingWord extracts the word immediately before runes[i], excluding
// the terminal rune itself.
func precedingWord(runes []rune, i int) string {
	j := i - 1
	for j >= 0 && !unicode.IsSpace(runes[j]) {
		j--
	}
	return string(runes[j+1 : i])
}

// makeSentence trims the span [start,end) of text and reports whether any
// sentence content remains. Offsets are tightened to the trimmed content
// but still index the original text.
func makeSentence(text string, start, end int) (Sentence, bool) {
	span := text[start:end]
	trimmed := strings.TrimSpace(span)
	if trimmed == "" {
		return Sentence{}, false
	}

	lead := len(span) - len(strings.TrimLeftFunc(span, unicode.IsSpace))
	return Sentence{
		Text:  trimmed,
		Start: start + lead,
		End:   start + lead + len(trimmed),
	}, true
}
