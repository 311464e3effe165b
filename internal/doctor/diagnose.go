package doctor

import (
	"context"
	"fmt"
	"time"

	"github.com/a-marczewski/llmprobe/internal/config"
	"github.com/a-marczewski/llmprobe/internal/connector"
	"github.com/a-marczewski/llmprobe/internal/storage"
)

// Diagnostics holds diagnostic information
type Diagnostics struct {
	Checks []CheckResult `json:"checks"`
	Issues []string      `json:"issues"`
	Status string        `json:"status"`
}

// CheckResult represents the result of a single check
type CheckResult struct {
	Name     string `json:"name"`
	Status   string `json:"status"` // "pass", "fail", "warn"
	Message  string `json:"message"`
	Severity string `json:"severity"` // "info", "warning", "error"
}

// Runner runs diagnostic checks against the current configuration: is the
// connector reachable, is the history store writable, are the thresholds
// sane.
type Runner struct {
	config *config.Config
	conn   connector.Connector
}

// NewRunner creates a new diagnostic runner. conn may be nil when connector
// construction itself failed; the connectivity check then reports that.
func NewRunner(cfg *config.Config, conn connector.Connector) *Runner {
	return &Runner{
		config: cfg,
		conn:   conn,
	}
}

// RunAll runs all diagnostic checks
func (d *Runner) RunAll(ctx context.Context) *Diagnostics {
	var results []CheckResult
	var issues []string

	results = append(results, d.checkConfiguration()...)
	results = append(results, d.checkHistoryStore()...)
	results = append(results, d.checkConnector(ctx)...)

	for _, result := range results {
		if result.Status == "fail" {
			issues = append(issues, result.Message)
		}
	}

	status := "healthy"
	if len(issues) > 0 {
		status = "issues_found"
	}

	return &Diagnostics{
		Checks: results,
		Issues: issues,
		Status: status,
	}
}

// checkConfiguration validates threshold and run parameters.
func (d *Runner) checkConfiguration() []CheckResult {
	var results []CheckResult

	if d.config.Runs < 2 {
		results = append(results, CheckResult{
			Name:     "consistency_runs",
			Status:   "fail",
			Message:  fmt.Sprintf("consistency runs must be >= 2, configured %d", d.config.Runs),
			Severity: "error",
		})
	} else {
		results = append(results, CheckResult{
			Name:     "consistency_runs",
			Status:   "pass",
			Message:  fmt.Sprintf("%d runs configured", d.config.Runs),
			Severity: "info",
		})
	}

	for name, v := range map[string]float64{
		"consistency_threshold": d.config.Threshold,
		"support_threshold":     d.config.SupportThreshold,
		"risk_threshold":        d.config.RiskThreshold,
	} {
		if v < 0 || v > 1 {
			results = append(results, CheckResult{
				Name:     name,
				Status:   "fail",
				Message:  fmt.Sprintf("%s must be in [0,1], configured %g", name, v),
				Severity: "error",
			})
		} else {
			results = append(results, CheckResult{
				Name:     name,
				Status:   "pass",
				Message:  fmt.Sprintf("%s = %g", name, v),
				Severity: "info",
			})
		}
	}
	return results
}

// checkHistoryStore verifies the history database opens and accepts writes.
func (d *Runner) checkHistoryStore() []CheckResult {
	store, err := storage.Open(d.config.HistoryPath)
	if err != nil {
		return []CheckResult{{
			Name:     "history_store",
			Status:   "fail",
			Message:  fmt.Sprintf("cannot open history store at %s: %v", d.config.HistoryPath, err),
			Severity: "error",
		}}
	}
	defer store.Close()

	return []CheckResult{{
		Name:     "history_store",
		Status:   "pass",
		Message:  fmt.Sprintf("history store at %s is healthy", d.config.HistoryPath),
		Severity: "info",
	}}
}

// checkConnector sends a trivial prompt to verify the endpoint answers.
func (d *Runner) checkConnector(ctx context.Context) []CheckResult {
	if d.conn == nil {
		return []CheckResult{{
			Name:     "connector",
			Status:   "fail",
			Message:  fmt.Sprintf("connector %q could not be constructed; check provider and API key", d.config.Connector),
			Severity: "error",
		}}
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	resp, err := d.conn.Respond(ctx, "Reply with the single word: ok")
	if err != nil {
		return []CheckResult{{
			Name:     "connector",
			Status:   "fail",
			Message:  fmt.Sprintf("connector %q unreachable: %v", d.conn.Name(), err),
			Severity: "error",
		}}
	}

	return []CheckResult{{
		Name:     "connector",
		Status:   "pass",
		Message:  fmt.Sprintf("connector %q responded in %.0f ms", d.conn.Name(), resp.LatencyMS),
		Severity: "info",
	}}
}
