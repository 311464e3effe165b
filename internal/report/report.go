package report

import (
	"encoding/json"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"time"
)

// WriteJSON marshals any result object to indented JSON at path.
func WriteJSON(path string, result interface{}) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}
	if err := ensureDir(path); err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

// page is the generic HTML report payload: a title, a generation timestamp,
// headline metrics, and detail rows.
type page struct {
	Title     string
	Generated string
	Metrics   []Metric
	Sections  []Section
}

// Metric is a single headline number on a report.
type Metric struct {
	Label string
	Value string
	Bad   bool
}

// Section is a titled list of detail rows.
type Section struct {
	Title string
	Rows  []Row
}

// Row is one detail line: a leading badge, the main text, and a secondary note.
type Row struct {
	Badge string
	Text  string
	Note  string
	Bad   bool
}

var reportTemplate = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body { font-family: -apple-system, "Segoe UI", sans-serif; margin: 2rem auto; max-width: 60rem; color: #1a1a2e; }
h1 { border-bottom: 2px solid #e0e0e0; padding-bottom: .5rem; }
.generated { color: #888; font-size: .85rem; }
.metrics { display: flex; gap: 1rem; margin: 1.5rem 0; }
.metric { background: #f5f6fa; border-radius: 8px; padding: 1rem 1.5rem; }
.metric .value { font-size: 1.6rem; font-weight: 700; }
.metric.bad .value { color: #c0392b; }
.metric .label { color: #666; font-size: .8rem; text-transform: uppercase; }
.section { margin-top: 1.5rem; }
.row { padding: .5rem .75rem; border-left: 4px solid #2ecc71; background: #fafafa; margin: .4rem 0; }
.row.bad { border-left-color: #c0392b; }
.badge { display: inline-block; font-size: .7rem; font-weight: 700; text-transform: uppercase; color: #555; margin-right: .5rem; }
.note { color: #888; font-size: .85rem; }
</style>
</head>
<body>
<h1>{{.Title}}</h1>
<div class="generated">Generated {{.Generated}}</div>
<div class="metrics">
{{range .Metrics}}<div class="metric{{if .Bad}} bad{{end}}"><div class="value">{{.Value}}</div><div class="label">{{.Label}}</div></div>{{end}}
</div>
{{range .Sections}}
<div class="section">
<h2>{{.Title}}</h2>
{{range .Rows}}<div class="row{{if .Bad}} bad{{end}}"><span class="badge">{{.Badge}}</span>{{.Text}}{{if .Note}} <span class="note">{{.Note}}</span>{{end}}</div>{{end}}
</div>
{{end}}
</body>
</html>
`))

// WriteHTML renders a report page to path.
func WriteHTML(path, title string, metrics []Metric, sections []Section) error {
	if err := ensureDir(path); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create report: %w", err)
	}
	defer f.Close()

	return reportTemplate.Execute(f, page{
		Title:     title,
		Generated: time.Now().Format(time.RFC1123),
		Metrics:   metrics,
		Sections:  sections,
	})
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create report directory: %w", err)
	}
	return nil
}
