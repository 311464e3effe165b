package hallucination

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"unicode"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/a-marczewski/llmprobe/internal/connector"
	"github.com/a-marczewski/llmprobe/internal/segment"
	"github.com/a-marczewski/llmprobe/internal/similarity"
)

const (
	DefaultSupportThreshold = 0.3
	DefaultRiskThreshold    = 0.3
)

// ErrMalformedInput reports an unreadable or undecodable source document.
var ErrMalformedInput = errors.New("malformed source document")

// ErrInvalidConfig reports out-of-range detector parameters.
var ErrInvalidConfig = errors.New("invalid hallucination config")

// defaultSkipPrefixes are sentence openings treated as non-factual filler
// (greetings, transitions). Sentences starting with one of these are exempt
// from grounding checks and counted as supported.
var defaultSkipPrefixes = []string{
	"hello", "hi", "thank", "please", "feel free",
	"if you", "let me", "i hope", "certainly", "of course",
	"sure", "absolutely", "great question",
}

// claimWords mark a sentence as making a checkable factual claim when any
// of them appears as a word.
var claimWords = []string{"is", "are", "was", "were", "will", "can", "cannot"}

// Config holds detector parameters. Zero fields take the package defaults.
type Config struct {
	// SupportThreshold is the minimum best-match similarity for a sentence
	// to count as supported by the source document.
	SupportThreshold float64
	// RiskThreshold is the maximum hallucination score considered passing.
	RiskThreshold float64
	// SkipPrefixes overrides the default non-factual opening list. An empty
	// non-nil slice checks every sentence.
	SkipPrefixes []string
	// CheckAll disables the factual-claim heuristic so every sentence is
	// checked against the source.
	CheckAll bool
	// Abbreviations overrides the segmenter's abbreviation guard list.
	Abbreviations []string
}

func (c Config) withDefaults() Config {
	if c.SupportThreshold == 0 {
		c.SupportThreshold = DefaultSupportThreshold
	}
	if c.RiskThreshold == 0 {
		c.RiskThreshold = DefaultRiskThreshold
	}
	if c.SkipPrefixes == nil {
		c.SkipPrefixes = defaultSkipPrefixes
	}
	return c
}

func (c Config) validate() error {
	if c.SupportThreshold < 0 || c.SupportThreshold > 1 {
		return fmt.Errorf("%w: support threshold must be in [0,1], got %g", ErrInvalidConfig, c.SupportThreshold)
	}
	if c.RiskThreshold < 0 || c.RiskThreshold > 1 {
		return fmt.Errorf("%w: risk threshold must be in [0,1], got %g", ErrInvalidConfig, c.RiskThreshold)
	}
	return nil
}

// FlaggedSentence is a response sentence lacking sufficient support in the
// source document, together with its best-match support score.
type FlaggedSentence struct {
	Sentence string  `json:"sentence"`
	Support  float64 `json:"support_score"`
}

// Result is the outcome of one hallucination check. Flagged preserves the
// original sentence order of the response.
type Result struct {
	HallucinationScore float64           `json:"hallucination_score"`
	Flagged            []FlaggedSentence `json:"flagged_sentences"`
	Verified           []string          `json:"verified_sentences"`
	SourceDocID        string            `json:"source_doc_id"`
	Passed             bool              `json:"passed"`
}

// Detector cross-checks response text against a trusted source document at
// sentence granularity. The source is segmented once at construction and
// never mutated afterwards, so one detector may serve concurrent Check
// calls.
type Detector struct {
	cfg             Config
	scorer          similarity.Scorer
	segmenter       *segment.Segmenter
	sourceSentences []segment.Sentence
	sourceDocID     string
	logger          *zap.Logger
}

// NewDetector creates a detector over an inline source document. An empty
// source is valid: it means "no ground truth provided" and every checked
// sentence will be flagged. A nil scorer gets the default keyword scorer.
func NewDetector(sourceDoc string, cfg Config, scorer similarity.Scorer, logger *zap.Logger) (*Detector, error) {
	return newDetector(sourceDoc, "inline", cfg, scorer, logger)
}

// NewDetectorFromFile creates a detector whose source document is read from
// path. Unreadable files and invalid UTF-8 fail with ErrMalformedInput
// rather than silently corrupting scores.
func NewDetectorFromFile(path string, cfg Config, scorer similarity.Scorer, logger *zap.Logger) (*Detector, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedInput, err)
	}
	if !utf8.Valid(data) {
		return nil, fmt.Errorf("%w: %s is not valid UTF-8", ErrMalformedInput, path)
	}
	return newDetector(string(data), path, cfg, scorer, logger)
}

func newDetector(sourceDoc, docID string, cfg Config, scorer similarity.Scorer, logger *zap.Logger) (*Detector, error) {
	cfg = cfg.withDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if scorer == nil {
		scorer = similarity.NewKeywordScorer(similarity.Config{})
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	segmenter := segment.New(segment.Config{Abbreviations: cfg.Abbreviations})
	return &Detector{
		cfg:             cfg,
		scorer:          scorer,
		segmenter:       segmenter,
		sourceSentences: segmenter.Segment(sourceDoc),
		sourceDocID:     docID,
		logger:          logger,
	}, nil
}

// CheckResponse checks a connector response against the source document.
func (d *Detector) CheckResponse(resp *connector.Response) *Result {
	return d.Check(resp.Text)
}

// Check segments text into sentences, scores each against the source, and
// aggregates into a hallucination score: the fraction of sentences whose
// best-match support falls below the support threshold. Empty text is
// vacuously grounded and scores 0.0.
func (d *Detector) Check(text string) *Result {
	sentences := d.segmenter.Segment(text)
	result := &Result{
		Flagged:     []FlaggedSentence{},
		Verified:    []string{},
		SourceDocID: d.sourceDocID,
	}
	if len(sentences) == 0 {
		result.Passed = true
		return result
	}

	// An empty source means "no ground truth provided": nothing can support
	// anything, so every sentence is flagged, filler included.
	if len(d.sourceSentences) == 0 {
		for _, sent := range sentences {
			result.Flagged = append(result.Flagged, FlaggedSentence{Sentence: sent.Text, Support: 0.0})
		}
		result.HallucinationScore = 1.0
		result.Passed = result.HallucinationScore <= d.cfg.RiskThreshold
		return result
	}

	for _, sent := range sentences {
		if !d.cfg.CheckAll && !d.isFactualClaim(sent.Text) {
			result.Verified = append(result.Verified, sent.Text)
			continue
		}
		support := d.supportScore(sent.Text)
		if support < d.cfg.SupportThreshold {
			result.Flagged = append(result.Flagged, FlaggedSentence{Sentence: sent.Text, Support: support})
		} else {
			result.Verified = append(result.Verified, sent.Text)
		}
	}

	result.HallucinationScore = float64(len(result.Flagged)) / float64(len(sentences))
	result.Passed = result.HallucinationScore <= d.cfg.RiskThreshold

	d.logger.Debug("hallucination check complete",
		zap.String("source_doc", d.sourceDocID),
		zap.Int("sentences", len(sentences)),
		zap.Int("flagged", len(result.Flagged)),
		zap.Float64("score", result.HallucinationScore),
	)
	return result
}

// supportScore is the best-match similarity between the sentence and any
// source sentence. With no source sentences there is nothing to support
// anything: the score is 0.0 and the sentence will be flagged.
func (d *Detector) supportScore(sentence string) float64 {
	best := 0.0
	for _, src := range d.sourceSentences {
		if sim := d.scorer.Similarity(sentence, src.Text); sim > best {
			best = sim
		}
	}
	return best
}

// isFactualClaim reports whether a sentence makes a checkable claim.
// Sentences opening with filler phrases are skipped; sentences containing
// digits or copular/modal claim verbs are checked.
func (d *Detector) isFactualClaim(sentence string) bool {
	lower := strings.ToLower(strings.TrimSpace(sentence))
	for _, prefix := range d.cfg.SkipPrefixes {
		if strings.HasPrefix(lower, prefix) {
			return false
		}
	}

	for _, r := range sentence {
		if unicode.IsDigit(r) {
			return true
		}
	}
	words := similarity.Tokenize(lower)
	for _, w := range words {
		for _, claim := range claimWords {
			if w == claim {
				return true
			}
		}
	}
	return false
}
