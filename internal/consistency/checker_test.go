package consistency

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/a-marczewski/llmprobe/internal/connector"
)

func newTestChecker(conn connector.Connector, cfg Config) *Checker {
	return NewChecker(conn, nil, cfg, zap.NewNop())
}

func TestIdenticalResponsesScorePerfect(t *testing.T) {
	conn := connector.NewScriptedConnector("The refund window is 30 days.")
	checker := newTestChecker(conn, Config{Runs: 5, Threshold: 0.85})

	result, err := checker.TestPrompt(context.Background(), "What is the refund policy?")
	require.NoError(t, err)

	assert.Equal(t, 1.0, result.ConsistencyScore)
	assert.Empty(t, result.Outliers)
	assert.True(t, result.Passed)
	assert.Len(t, result.Responses, 5)
	assert.Equal(t, 5, conn.Calls())
}

func TestUnrelatedResponseFlaggedAsOutlier(t *testing.T) {
	similar := "Our refund policy allows returns within thirty days of purchase."
	unrelated := "Elephants enjoy swimming across tropical lagoons at sunrise."
	conn := connector.NewScriptedConnector(similar, similar, similar, similar, unrelated)
	checker := newTestChecker(conn, Config{Runs: 5, Threshold: 0.85})

	result, err := checker.TestPrompt(context.Background(), "What is the refund policy?")
	require.NoError(t, err)

	assert.Less(t, result.ConsistencyScore, 1.0)
	require.Len(t, result.Outliers, 1, "exactly the unrelated response is an outlier")
	assert.Equal(t, unrelated, result.Outliers[0].Text)
	assert.False(t, result.Passed)
	assert.NotEmpty(t, result.SuggestedFix)
}

func TestOutliersShareIdentityWithResponses(t *testing.T) {
	similar := "Our refund policy allows returns within thirty days of purchase."
	unrelated := "Elephants enjoy swimming across tropical lagoons at sunrise."
	conn := connector.NewScriptedConnector(similar, similar, similar, similar, unrelated)
	checker := newTestChecker(conn, Config{Runs: 5, Threshold: 0.85})

	result, err := checker.TestPrompt(context.Background(), "prompt")
	require.NoError(t, err)
	require.Len(t, result.Outliers, 1)

	found := false
	for _, resp := range result.Responses {
		if resp == result.Outliers[0] {
			found = true
		}
	}
	assert.True(t, found, "outlier must be the same *Response value held in Responses, not a copy")
}

func TestSingleRunIsInvalidConfig(t *testing.T) {
	conn := connector.NewScriptedConnector("hello")
	checker := newTestChecker(conn, Config{Runs: 1, Threshold: 0.85})

	result, err := checker.TestPrompt(context.Background(), "prompt")
	assert.Nil(t, result)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidConfig)
	assert.Equal(t, 0, conn.Calls(), "config is validated before any collaborator call")
}

func TestThresholdOutOfRangeIsInvalidConfig(t *testing.T) {
	conn := connector.NewScriptedConnector("hello")

	for _, threshold := range []float64{-0.1, 1.5} {
		checker := newTestChecker(conn, Config{Runs: 3, Threshold: threshold})
		_, err := checker.TestPrompt(context.Background(), "prompt")
		assert.ErrorIs(t, err, ErrInvalidConfig)
	}
	assert.Equal(t, 0, conn.Calls())
}

func TestCollaboratorFailureAbortsWholeCheck(t *testing.T) {
	conn := connector.NewScriptedConnector("stable answer")
	conn.FailOn(6, fmt.Errorf("provider unavailable"))
	checker := newTestChecker(conn, Config{Runs: 10, Threshold: 0.85})

	result, err := checker.TestPrompt(context.Background(), "prompt")
	assert.Nil(t, result, "partial results are never returned")
	require.Error(t, err)

	var collabErr *connector.CollaboratorError
	require.ErrorAs(t, err, &collabErr)
	assert.GreaterOrEqual(t, collabErr.Run, 0)
	assert.Less(t, collabErr.Run, 10)
}

func TestTimeoutSurfacesAsCollaboratorFailure(t *testing.T) {
	conn := &slowConnector{delay: 200 * time.Millisecond}
	checker := newTestChecker(conn, Config{Runs: 3, Threshold: 0.85})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	result, err := checker.TestPrompt(ctx, "prompt")
	assert.Nil(t, result)
	var collabErr *connector.CollaboratorError
	require.ErrorAs(t, err, &collabErr)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestDefaultsApplied(t *testing.T) {
	conn := connector.NewScriptedConnector("answer")
	checker := newTestChecker(conn, Config{})

	result, err := checker.TestPrompt(context.Background(), "prompt")
	require.NoError(t, err)
	assert.Equal(t, DefaultRuns, result.Runs)
	assert.Equal(t, DefaultThreshold, result.Threshold)
}

// slowConnector blocks until its delay elapses or the context is cancelled.
type slowConnector struct {
	delay time.Duration
}

func (c *slowConnector) Name() string { return "slow" }

func (c *slowConnector) Respond(ctx context.Context, prompt string) (*connector.Response, error) {
	select {
	case <-time.After(c.delay):
		return &connector.Response{Text: "late answer", Prompt: prompt}, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

var _ connector.Connector = (*slowConnector)(nil)

func TestErrorMessageNamesFailedRun(t *testing.T) {
	err := &connector.CollaboratorError{Run: 3, Err: errors.New("boom")}
	assert.Contains(t, err.Error(), "run 3")
	assert.ErrorIs(t, err, err.Err)
}
