package segment

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSegmentBasic(t *testing.T) {
	seg := New(Config{})

	sentences := seg.Segment("First sentence. Second one! Third one?")
	require.Len(t, sentences, 3)
	assert.Equal(t, "First sentence.", sentences[0].Text)
	assert.Equal(t, "Second one!", sentences[1].Text)
	assert.Equal(t, "Third one?", sentences[2].Text)
}

func TestSegmentEmptyInput(t *testing.T) {
	seg := New(Config{})

	assert.Empty(t, seg.Segment(""))
	assert.Empty(t, seg.Segment("   \n\t  "))
}

func TestSegmentNoTerminalPunctuation(t *testing.T) {
	seg := New(Config{})

	sentences := seg.Segment("no terminal punctuation here")
	require.Len(t, sentences, 1)
	assert.Equal(t, "no terminal punctuation here", sentences[0].Text)
}

func TestSegmentAbbreviationGuards(t *testing.T) {
	seg := New(Config{})

	sentences := seg.Segment("Dr. Smith arrived late. He apologized.")
	require.Len(t, sentences, 2)
	assert.Equal(t, "Dr. Smith arrived late.", sentences[0].Text)
	assert.Equal(t, "He apologized.", sentences[1].Text)
}

func TestSegmentSingleInitialGuard(t *testing.T) {
	seg := New(Config{})

	sentences := seg.Segment("J. Smith signed the form. It was filed.")
	require.Len(t, sentences, 2)
	assert.Equal(t, "J. Smith signed the form.", sentences[0].Text)
}

func TestSegmentCustomAbbreviations(t *testing.T) {
	seg := New(Config{Abbreviations: []string{"ca"}})

	sentences := seg.Segment("Built ca. 1850 by settlers. Restored later.")
	require.Len(t, sentences, 2)

	// With guarding disabled entirely, "ca." ends a sentence.
	unguarded := New(Config{Abbreviations: []string{}})
	assert.Len(t, unguarded.Segment("Built ca. 1850 by settlers. Restored later."), 3)
}

func TestSegmentOffsetsReferenceOriginalText(t *testing.T) {
	seg := New(Config{})
	text := "  Leading space. Trailing too!  "

	sentences := seg.Segment(text)
	require.Len(t, sentences, 2)
	for _, s := range sentences {
		assert.Equal(t, s.Text, text[s.Start:s.End], "offsets must recover the trimmed sentence from the original")
	}
	assert.Equal(t, "Leading space.", text[sentences[0].Start:sentences[0].End])
	assert.Equal(t, "Trailing too!", text[sentences[1].Start:sentences[1].End])
}

func TestSegmentSpansDoNotOverlap(t *testing.T) {
	seg := New(Config{})
	text := "One. Two. Three. Four!"

	sentences := seg.Segment(text)
	for i := 1; i < len(sentences); i++ {
		assert.GreaterOrEqual(t, sentences[i].Start, sentences[i-1].End)
	}
}

func TestSegmentReconstruction(t *testing.T) {
	seg := New(Config{})
	text := "The refund window is 30 days. Contact support for help! Is that clear?"

	sentences := seg.Segment(text)
	var joined []string
	for _, s := range sentences {
		joined = append(joined, s.Text)
	}
	// Rejoining on single spaces reproduces the original: only boundary
	// whitespace was consumed.
	assert.Equal(t, text, strings.Join(joined, " "))
}

func TestSegmentIdempotent(t *testing.T) {
	seg := New(Config{})
	text := "Same input. Same output! Every time?"

	first := seg.Segment(text)
	second := seg.Segment(text)
	assert.Equal(t, first, second)
}

func TestSegmentUnicode(t *testing.T) {
	seg := New(Config{})
	text := "Héllo wörld. Ça va bien!"

	sentences := seg.Segment(text)
	require.Len(t, sentences, 2)
	assert.Equal(t, "Héllo wörld.", sentences[0].Text)
	assert.Equal(t, "Ça va bien!", sentences[1].Text)
	for _, s := range sentences {
		assert.Equal(t, s.Text, text[s.Start:s.End])
	}
}
