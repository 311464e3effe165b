package report

import (
	"fmt"
	"sort"

	"github.com/a-marczewski/llmprobe/internal/consistency"
	"github.com/a-marczewski/llmprobe/internal/hallucination"
	"github.com/a-marczewski/llmprobe/internal/redteam"
)

// WriteConsistencyHTML renders a consistency result as an HTML report.
func WriteConsistencyHTML(path string, result *consistency.Result) error {
	metrics := []Metric{
		{Label: "Consistency score", Value: fmt.Sprintf("%.3f", result.ConsistencyScore), Bad: !result.Passed},
		{Label: "Runs", Value: fmt.Sprintf("%d", result.Runs)},
		{Label: "Threshold", Value: fmt.Sprintf("%.2f", result.Threshold)},
		{Label: "Outliers", Value: fmt.Sprintf("%d", len(result.Outliers)), Bad: len(result.Outliers) > 0},
	}

	outlierSet := make(map[string]bool, len(result.Outliers))
	for _, o := range result.Outliers {
		outlierSet[o.Text] = true
	}

	rows := make([]Row, 0, len(result.Responses))
	for i, resp := range result.Responses {
		row := Row{
			Badge: fmt.Sprintf("run %d", i),
			Text:  resp.Text,
			Note:  fmt.Sprintf("%.0f ms", resp.LatencyMS),
		}
		if outlierSet[resp.Text] {
			row.Badge = fmt.Sprintf("run %d outlier", i)
			row.Bad = true
		}
		rows = append(rows, row)
	}

	sections := []Section{{Title: "Responses", Rows: rows}}
	if result.SuggestedFix != "" {
		sections = append(sections, Section{
			Title: "Suggested fix",
			Rows:  []Row{{Badge: "hint", Text: result.SuggestedFix}},
		})
	}
	return WriteHTML(path, "Consistency Report: "+result.Prompt, metrics, sections)
}

// WriteHallucinationHTML renders a hallucination result as an HTML report.
func WriteHallucinationHTML(path string, result *hallucination.Result) error {
	metrics := []Metric{
		{Label: "Hallucination score", Value: fmt.Sprintf("%.3f", result.HallucinationScore), Bad: !result.Passed},
		{Label: "Flagged", Value: fmt.Sprintf("%d", len(result.Flagged)), Bad: len(result.Flagged) > 0},
		{Label: "Verified", Value: fmt.Sprintf("%d", len(result.Verified))},
	}

	var sections []Section
	if len(result.Flagged) > 0 {
		rows := make([]Row, 0, len(result.Flagged))
		for _, f := range result.Flagged {
			rows = append(rows, Row{
				Badge: "flagged",
				Text:  f.Sentence,
				Note:  fmt.Sprintf("support %.3f", f.Support),
				Bad:   true,
			})
		}
		sections = append(sections, Section{Title: "Unsupported sentences", Rows: rows})
	}
	if len(result.Verified) > 0 {
		rows := make([]Row, 0, len(result.Verified))
		for _, s := range result.Verified {
			rows = append(rows, Row{Badge: "verified", Text: s})
		}
		sections = append(sections, Section{Title: "Supported sentences", Rows: rows})
	}
	return WriteHTML(path, "Hallucination Report: "+result.SourceDocID, metrics, sections)
}

// WriteRedTeamHTML renders a red-team result as an HTML report.
func WriteRedTeamHTML(path string, result *redteam.Result) error {
	metrics := []Metric{
		{Label: "Risk score / 10", Value: fmt.Sprintf("%.1f", result.RiskScore), Bad: result.RiskScore >= 3},
		{Label: "Prompts", Value: fmt.Sprintf("%d", result.TotalPrompts)},
		{Label: "Vulnerabilities", Value: fmt.Sprintf("%d", result.VulnerabilityCount), Bad: result.VulnerabilityCount > 0},
	}

	var sections []Section
	for _, category := range sortedCategories(result) {
		res := result.ByCategory[category]
		rows := []Row{{
			Badge: "summary",
			Text:  fmt.Sprintf("%d passed, %d failed", res.Passed, res.Failed),
			Bad:   res.Failed > 0,
		}}
		for _, f := range res.Findings {
			note := f.Response
			if f.Error != "" {
				note = "error: " + f.Error
			}
			rows = append(rows, Row{Badge: f.Severity, Text: f.Prompt, Note: note, Bad: true})
		}
		sections = append(sections, Section{Title: category, Rows: rows})
	}
	return WriteHTML(path, "Red Team Report", metrics, sections)
}

func sortedCategories(result *redteam.Result) []string {
	cats := make([]string, 0, len(result.ByCategory))
	for cat := range result.ByCategory {
		cats = append(cats, cat)
	}
	sort.Strings(cats)
	return cats
}
