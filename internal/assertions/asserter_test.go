package assertions

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a-marczewski/llmprobe/internal/connector"
)

func TestContainsKeywords(t *testing.T) {
	err := ForText("Our refund policy covers 30 days.").
		ContainsKeywords("refund", "30 days").
		Err()
	assert.NoError(t, err)

	err = ForText("We do not discuss returns.").
		ContainsKeywords("refund").
		Err()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "refund")
}

func TestExcludesKeywords(t *testing.T) {
	err := ForText("Happy to help with your order.").
		ExcludesKeywords("guarantee", "lawsuit").
		Err()
	assert.NoError(t, err)

	err = ForText("We guarantee results.").
		ExcludesKeywords("guarantee").
		Err()
	assert.Error(t, err)
}

func TestMatchesPattern(t *testing.T) {
	assert.NoError(t, ForText("Order #12345 confirmed").MatchesPattern(`#\d{5}`).Err())
	assert.Error(t, ForText("no order number").MatchesPattern(`#\d{5}`).Err())
}

func TestHasNoSensitiveData(t *testing.T) {
	assert.NoError(t, ForText("Your order ships tomorrow.").HasNoSensitiveData().Err())

	leaks := []string{
		"Card on file: 4111 1111 1111 1111",
		"Contact me at jane.doe@example.com",
		"password: hunter2",
		"use api_key=abc123 for access",
	}
	for _, leak := range leaks {
		assert.Error(t, ForText(leak).HasNoSensitiveData().Err(), "should flag %q", leak)
	}
}

func TestToneIs(t *testing.T) {
	assert.NoError(t, ForText("Thank you for your patience, we appreciate it.").ToneIs("professional").Err())
	assert.Error(t, ForText("yeah whatever, gonna look into it").ToneIs("professional").Err())
	assert.Error(t, ForText("anything").ToneIs("sarcastic").Err(), "unknown tone fails")
}

func TestLengthBetween(t *testing.T) {
	assert.NoError(t, ForText("one two three four five").LengthBetween(3, 10).Err())
	assert.Error(t, ForText("too short").LengthBetween(5, 10).Err())
	assert.Error(t, ForText("this response has rather more words than the maximum allows here").LengthBetween(1, 5).Err())
}

func TestChainAccumulatesAllFailures(t *testing.T) {
	err := ForText("yeah, email me at bob@example.com").
		ContainsKeywords("refund").
		HasNoSensitiveData().
		ToneIs("professional").
		Err()

	require.Error(t, err)
	var failed *FailedAssertion
	require.ErrorAs(t, err, &failed)
	assert.GreaterOrEqual(t, len(failed.Failures), 3, "every failed assertion in the chain is reported")
}

func TestForResponse(t *testing.T) {
	resp := &connector.Response{Text: "Your refund was processed."}
	assert.NoError(t, For(resp).ContainsKeywords("refund").Err())
}
