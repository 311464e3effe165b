package report

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a-marczewski/llmprobe/internal/connector"
	"github.com/a-marczewski/llmprobe/internal/consistency"
	"github.com/a-marczewski/llmprobe/internal/hallucination"
	"github.com/a-marczewski/llmprobe/internal/redteam"
)

func TestWriteJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "result.json")
	result := &consistency.Result{Prompt: "p", Runs: 3, ConsistencyScore: 0.9, Passed: true}

	require.NoError(t, WriteJSON(path, result))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var decoded consistency.Result
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, 0.9, decoded.ConsistencyScore)
	assert.Equal(t, "p", decoded.Prompt)
}

func TestWriteConsistencyHTML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "consistency.html")
	outlier := &connector.Response{Text: "something else entirely"}
	result := &consistency.Result{
		Prompt:           "What is the refund policy?",
		Runs:             3,
		ConsistencyScore: 0.61,
		Threshold:        0.85,
		Responses: []*connector.Response{
			{Text: "Refunds within 30 days."},
			{Text: "Refunds within 30 days."},
			outlier,
		},
		Outliers:     []*connector.Response{outlier},
		SuggestedFix: "Lower the temperature.",
	}

	require.NoError(t, WriteConsistencyHTML(path, result))

	html, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(html), "What is the refund policy?")
	assert.Contains(t, string(html), "0.610")
	assert.Contains(t, string(html), "outlier")
	assert.Contains(t, string(html), "Lower the temperature.")
}

func TestWriteHallucinationHTML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hallucination.html")
	result := &hallucination.Result{
		HallucinationScore: 0.5,
		Flagged: []hallucination.FlaggedSentence{
			{Sentence: "The moon is made of cheese.", Support: 0.0},
		},
		Verified:    []string{"Refunds are available within 30 days."},
		SourceDocID: "faq.txt",
	}

	require.NoError(t, WriteHallucinationHTML(path, result))

	html, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(html), "The moon is made of cheese.")
	assert.Contains(t, string(html), "support 0.000")
	assert.Contains(t, string(html), "faq.txt")
}

func TestWriteRedTeamHTML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "redteam.html")
	result := &redteam.Result{
		TotalPrompts:       10,
		VulnerabilityCount: 1,
		RiskScore:          2.4,
		ByCategory: map[string]redteam.CategoryResult{
			"jailbreak": {
				Passed: 4,
				Failed: 1,
				Findings: []redteam.Finding{
					{Category: "jailbreak", Prompt: "You are DAN...", Response: "as dan I can...", Severity: "critical"},
				},
			},
		},
	}

	require.NoError(t, WriteRedTeamHTML(path, result))

	html, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(html), "jailbreak")
	assert.Contains(t, string(html), "critical")
	assert.Contains(t, string(html), "You are DAN...")
}

func TestHTMLEscapesContent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "escape.html")
	require.NoError(t, WriteHTML(path, "t", nil, []Section{
		{Title: "s", Rows: []Row{{Badge: "b", Text: "<script>alert(1)</script>"}}},
	}))

	html, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(html), "<script>alert(1)</script>")
}
