package assertions

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/a-marczewski/llmprobe/internal/connector"
)

// sensitivePatterns pair a compiled regex with a human-readable label for
// failure messages.
var sensitivePatterns = []struct {
	re    *regexp.Regexp
	label string
}{
	{regexp.MustCompile(`\b\d{4}[- ]?\d{4}[- ]?\d{4}[- ]?\d{4}\b`), "credit card number"},
	{regexp.MustCompile(`\b\d{3}-\d{2}-\d{4}\b`), "SSN pattern"},
	{regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`), "email address"},
	{regexp.MustCompile(`(?i)\bpassword\s*[:=]\s*\S+`), "password pattern"},
	{regexp.MustCompile(`(?i)\bapi[_-]?key\s*[:=]\s*\S+`), "API key pattern"},
	{regexp.MustCompile(`sk-[a-zA-Z0-9]{20,}`), "OpenAI key pattern"},
	{regexp.MustCompile(`sk-ant-[a-zA-Z0-9\-]{20,}`), "Anthropic key pattern"},
}

// toneIndicators hold positive and negative word banks per recognised tone.
var toneIndicators = map[string]struct {
	positive []string
	negative []string
}{
	"professional": {
		positive: []string{"please", "thank", "appreciate", "assist", "regarding", "kindly"},
		negative: []string{"gonna", "wanna", "lol", "omg", "yeah", "nope"},
	},
	"friendly": {
		positive: []string{"happy", "glad", "great", "wonderful", "love", "awesome"},
		negative: []string{"unfortunately", "regret", "unable", "cannot", "deny"},
	},
	"formal": {
		positive: []string{"hereby", "pursuant", "aforementioned", "notwithstanding", "therein"},
		negative: []string{"hey", "hi there", "sure thing", "no worries", "yep"},
	},
	"empathetic": {
		positive: []string{"understand", "sorry", "appreciate", "hear you", "feel", "support"},
		negative: []string{"not my problem", "irrelevant", "don't care"},
	},
}

// FailedAssertion collects every assertion failure accumulated on an
// Asserter chain.
type FailedAssertion struct {
	Failures []string
}

func (e *FailedAssertion) Error() string {
	return fmt.Sprintf("response assertions failed:\n  - %s", strings.Join(e.Failures, "\n  - "))
}

// Asserter is a fluent checker over a model response. Every method records
// failures and returns the receiver for chaining; Err surfaces them at the
// end of the chain.
//
//	err := assertions.For(resp).
//		ContainsKeywords("refund", "policy").
//		HasNoSensitiveData().
//		LengthBetween(20, 300).
//		Err()
type Asserter struct {
	text      string
	textLower string
	failures  []string
}

// For creates an Asserter over resp.
func For(resp *connector.Response) *Asserter {
	return ForText(resp.Text)
}

// ForText creates an Asserter over raw text.
func ForText(text string) *Asserter {
	return &Asserter{text: text, textLower: strings.ToLower(text)}
}

// Err returns a *FailedAssertion listing every failure in the chain, or nil
// when all assertions held.
func (a *Asserter) Err() error {
	if len(a.failures) == 0 {
		return nil
	}
	return &FailedAssertion{Failures: a.failures}
}

func (a *Asserter) fail(format string, args ...interface{}) *Asserter {
	a.failures = append(a.failures, fmt.Sprintf(format, args...))
	return a
}

// ContainsKeywords asserts that every keyword appears in the response,
// case-insensitively.
func (a *Asserter) ContainsKeywords(keywords ...string) *Asserter {
	var missing []string
	for _, kw := range keywords {
		if !strings.Contains(a.textLower, strings.ToLower(kw)) {
			missing = append(missing, kw)
		}
	}
	if len(missing) > 0 {
		return a.fail("missing required keywords %v in: %s", missing, snippet(a.text))
	}
	return a
}

// ExcludesKeywords asserts that none of the keywords appear in the
// response, case-insensitively.
func (a *Asserter) ExcludesKeywords(keywords ...string) *Asserter {
	var found []string
	for _, kw := range keywords {
		if strings.Contains(a.textLower, strings.ToLower(kw)) {
			found = append(found, kw)
		}
	}
	if len(found) > 0 {
		return a.fail("found banned keywords %v in: %s", found, snippet(a.text))
	}
	return a
}

// MatchesPattern asserts that the response matches the regular expression.
func (a *Asserter) MatchesPattern(pattern string) *Asserter {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return a.fail("invalid pattern %q: %v", pattern, err)
	}
	if !re.MatchString(a.text) {
		return a.fail("response does not match pattern %q", pattern)
	}
	return a
}

// HasNoSensitiveData asserts that the response contains no credit card
// numbers, SSNs, email addresses, passwords, or known API key shapes.
func (a *Asserter) HasNoSensitiveData() *Asserter {
	for _, p := range sensitivePatterns {
		if p.re.MatchString(a.text) {
			a.fail("response leaks sensitive data: %s", p.label)
		}
	}
	return a
}

// ToneIs asserts that the response reads as the given tone (professional,
// friendly, formal, empathetic): at least one positive indicator and no
// negative indicators for that tone.
func (a *Asserter) ToneIs(tone string) *Asserter {
	bank, ok := toneIndicators[strings.ToLower(tone)]
	if !ok {
		return a.fail("unknown tone %q", tone)
	}
	positives := 0
	for _, w := range bank.positive {
		if strings.Contains(a.textLower, w) {
			positives++
		}
	}
	var negatives []string
	for _, w := range bank.negative {
		if strings.Contains(a.textLower, w) {
			negatives = append(negatives, w)
		}
	}
	if positives == 0 {
		a.fail("no %s tone indicators found in: %s", tone, snippet(a.text))
	}
	if len(negatives) > 0 {
		a.fail("anti-%s indicators found: %v", tone, negatives)
	}
	return a
}

// LengthBetween asserts that the response word count lies in [min, max].
func (a *Asserter) LengthBetween(min, max int) *Asserter {
	words := len(strings.Fields(a.text))
	if words < min || words > max {
		return a.fail("response length %d words outside [%d, %d]", words, min, max)
	}
	return a
}

func snippet(s string) string {
	if len(s) <= 120 {
		return s
	}
	return s[:120] + "..."
}
