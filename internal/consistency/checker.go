package consistency

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/a-marczewski/llmprobe/internal/connector"
	"github.com/a-marczewski/llmprobe/internal/similarity"
)

const (
	DefaultRuns         = 10
	DefaultThreshold    = 0.85
	DefaultOutlierDelta = 0.25
)

// ErrInvalidConfig reports out-of-range checker parameters. It is raised
// before any collaborator invocation so a bad config never wastes calls.
var ErrInvalidConfig = errors.New("invalid consistency config")

// Config holds checker parameters. Zero fields take the package defaults.
type Config struct {
	// Runs is how many times the prompt is issued. Must be >= 2: a single
	// run carries no agreement signal.
	Runs int
	// Threshold is the minimum consistency score considered passing. It is
	// carried through to the result for caller interpretation; the checker
	// itself never errors on a low score.
	Threshold float64
	// OutlierDelta flags a response as an outlier when its mean similarity
	// to the other responses falls more than this far below the overall
	// mean pairwise similarity.
	OutlierDelta float64
}

func (c Config) withDefaults() Config {
	if c.Runs == 0 {
		c.Runs = DefaultRuns
	}
	if c.Threshold == 0 {
		c.Threshold = DefaultThreshold
	}
	if c.OutlierDelta == 0 {
		c.OutlierDelta = DefaultOutlierDelta
	}
	return c
}

func (c Config) validate() error {
	if c.Runs < 2 {
		return fmt.Errorf("%w: runs must be >= 2, got %d", ErrInvalidConfig, c.Runs)
	}
	if c.Threshold < 0 || c.Threshold > 1 {
		return fmt.Errorf("%w: threshold must be in [0,1], got %g", ErrInvalidConfig, c.Threshold)
	}
	if c.OutlierDelta <= 0 || c.OutlierDelta > 1 {
		return fmt.Errorf("%w: outlier delta must be in (0,1], got %g", ErrInvalidConfig, c.OutlierDelta)
	}
	return nil
}

// Result is the outcome of one consistency check. It reflects exactly
// Config.Runs responses in invocation order and is immutable once returned.
type Result struct {
	Prompt           string                `json:"prompt"`
	Runs             int                   `json:"runs"`
	ConsistencyScore float64               `json:"consistency_score"`
	Threshold        float64               `json:"threshold"`
	Passed           bool                  `json:"passed"`
	Responses        []*connector.Response `json:"responses"`
	Outliers         []*connector.Response `json:"outlier_responses"`
	SuggestedFix     string                `json:"suggested_fix,omitempty"`
}

// Checker measures whether a connector gives stable answers to the same
// prompt across repeated invocations.
type Checker struct {
	conn   connector.Connector
	scorer similarity.Scorer
	cfg    Config
	logger *zap.Logger
}

// NewChecker creates a checker over conn using scorer. A nil scorer gets
// the default keyword scorer.
func NewChecker(conn connector.Connector, scorer similarity.Scorer, cfg Config, logger *zap.Logger) *Checker {
	if scorer == nil {
		scorer = similarity.NewKeywordScorer(similarity.Config{})
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Checker{
		conn:   conn,
		scorer: scorer,
		cfg:    cfg.withDefaults(),
		logger: logger,
	}
}

// TestPrompt issues the prompt Runs times, scores pairwise agreement, and
// flags outliers. Invocations run concurrently but the returned Responses
// keep invocation order: run i lands at index i regardless of completion
// order. Any invocation failure aborts the whole check and surfaces a
// *connector.CollaboratorError; partial results are never returned.
func (c *Checker) TestPrompt(ctx context.Context, prompt string) (*Result, error) {
	if err := c.cfg.validate(); err != nil {
		return nil, err
	}

	responses, err := c.collect(ctx, prompt)
	if err != nil {
		return nil, err
	}

	matrix := c.pairwiseMatrix(responses)
	score := meanPairwise(matrix)
	outliers := c.findOutliers(responses, matrix, score)
	passed := score >= c.cfg.Threshold

	result := &Result{
		Prompt:           prompt,
		Runs:             c.cfg.Runs,
		ConsistencyScore: score,
		Threshold:        c.cfg.Threshold,
		Passed:           passed,
		Responses:        responses,
		Outliers:         outliers,
	}
	if !passed {
		result.SuggestedFix = suggestFix(score)
	}

	c.logger.Info("consistency check complete",
		zap.String("connector", c.conn.Name()),
		zap.Int("runs", c.cfg.Runs),
		zap.Float64("score", score),
		zap.Int("outliers", len(outliers)),
		zap.Bool("passed", passed),
	)
	return result, nil
}

// collect dispatches the runs concurrently, index-tagged into a pre-sized
// slice so the order invariant holds without locking. The first failure
// cancels the group and outstanding invocations.
func (c *Checker) collect(ctx context.Context, prompt string) ([]*connector.Response, error) {
	responses := make([]*connector.Response, c.cfg.Runs)

	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < c.cfg.Runs; i++ {
		run := i
		g.Go(func() error {
			resp, err := c.conn.Respond(gctx, prompt)
			if err != nil {
				return &connector.CollaboratorError{Run: run, Err: err}
			}
			responses[run] = resp
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return responses, nil
}

// pairwiseMatrix fills a symmetric runs x runs similarity matrix with 1.0
// on the diagonal.
func (c *Checker) pairwiseMatrix(responses []*connector.Response) [][]float64 {
	n := len(responses)
	matrix := make([][]float64, n)
	for i := range matrix {
		matrix[i] = make([]float64, n)
		matrix[i][i] = 1.0
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			sim := c.scorer.Similarity(responses[i].Text, responses[j].Text)
			matrix[i][j] = sim
			matrix[j][i] = sim
		}
	}
	return matrix
}

// meanPairwise averages the n(n-1)/2 distinct off-diagonal pairs. This is
// the canonical consistency aggregation.
func meanPairwise(matrix [][]float64) float64 {
	n := len(matrix)
	total := 0.0
	count := 0
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			total += matrix[i][j]
			count++
		}
	}
	if count == 0 {
		return 1.0
	}
	return total / float64(count)
}

// findOutliers flags any response whose mean similarity to its peers falls
// more than OutlierDelta below the overall mean. The returned slice holds
// the same *Response values as the input, not copies.
func (c *Checker) findOutliers(responses []*connector.Response, matrix [][]float64, overallMean float64) []*connector.Response {
	n := len(responses)
	var outliers []*connector.Response
	for i := 0; i < n; i++ {
		total := 0.0
		for j := 0; j < n; j++ {
			if j == i {
				continue
			}
			total += matrix[i][j]
		}
		meanToOthers := total / float64(n-1)
		if overallMean-meanToOthers > c.cfg.OutlierDelta {
			outliers = append(outliers, responses[i])
		}
	}
	return outliers
}

// suggestFix returns a fixed advisory string keyed on the score band.
func suggestFix(score float64) string {
	switch {
	case score < 0.5:
		return "Very low consistency. Consider adding explicit format instructions " +
			"to the prompt, lowering temperature to 0.3 or below, or anchoring the " +
			"response format with few-shot examples."
	case score < 0.7:
		return "Moderate inconsistency. Try lowering temperature and being more " +
			"specific about the expected output format and length."
	default:
		return "Minor inconsistency. Small wording differences are likely acceptable; " +
			"lower temperature to 0.0 if stricter agreement is needed."
	}
}
