package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, DefaultConnector, cfg.Connector)
	assert.Equal(t, DefaultRuns, cfg.Runs)
	assert.Equal(t, DefaultThreshold, cfg.Threshold)
	assert.Equal(t, DefaultSupportThreshold, cfg.SupportThreshold)
	assert.Equal(t, DefaultLogLevel, cfg.LogLevel)
}

func TestLoadMissingFileFallsBackToDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultRuns, cfg.Runs)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "llmprobe.toml")
	content := `
[connector]
provider = "ollama"
model = "llama3.2"

[consistency]
runs = 5
threshold = 0.9

[hallucination]
support_threshold = 0.4

[similarity]
stopwords = ["um", "uh"]

[logging]
level = "debug"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "ollama", cfg.Connector)
	assert.Equal(t, "llama3.2", cfg.Model)
	assert.Equal(t, 5, cfg.Runs)
	assert.Equal(t, 0.9, cfg.Threshold)
	assert.Equal(t, 0.4, cfg.SupportThreshold)
	assert.Equal(t, []string{"um", "uh"}, cfg.Stopwords)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, DefaultOutlierDelta, cfg.OutlierDelta, "unset fields keep defaults")
}

func TestLoadInvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.toml")
	require.NoError(t, os.WriteFile(path, []byte("not [valid toml"), 0644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "llmprobe.toml")
	require.NoError(t, os.WriteFile(path, []byte("[consistency]\nruns = 5\n"), 0644))

	t.Setenv("LLMPROBE_RUNS", "7")
	t.Setenv("LLMPROBE_CONNECTOR", "anthropic")
	t.Setenv("ANTHROPIC_API_KEY", "test-key")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 7, cfg.Runs)
	assert.Equal(t, "anthropic", cfg.Connector)
	assert.Equal(t, "test-key", cfg.APIKey, "provider env key applies when no explicit key is set")
}

func TestDefaultModelPerProvider(t *testing.T) {
	cases := map[string]string{
		"openai":     DefaultOpenAIModel,
		"anthropic":  DefaultAnthropicModel,
		"ollama":     DefaultOllamaModel,
		"openrouter": DefaultOpenRouterModel,
	}
	for provider, want := range cases {
		cfg := &Config{Connector: provider}
		assert.Equal(t, want, cfg.DefaultModel())
	}
}
