package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/pelletier/go-toml/v2"
)

const (
	DefaultConnector        = "openai"
	DefaultOpenAIModel      = "gpt-4o"
	DefaultAnthropicModel   = "claude-3-5-haiku-latest"
	DefaultOllamaModel      = "llama3.2"
	DefaultOllamaBaseURL    = "http://localhost:11434/v1"
	DefaultOpenRouterModel  = "openai/gpt-4o"
	DefaultEmbeddingModel   = "nomic-embed-text"
	DefaultRuns             = 10
	DefaultThreshold        = 0.85
	DefaultOutlierDelta     = 0.25
	DefaultSupportThreshold = 0.3
	DefaultRiskThreshold    = 0.3
	DefaultLogLevel         = "info"
	DefaultHistoryPath      = "llmprobe.db"
)

// Config holds the application configuration. It is assembled once at
// startup from defaults, an optional TOML file, and environment overrides,
// then handed to components as plain values; nothing reads it ambiently.
type Config struct {
	Connector    string
	Model        string
	APIKey       string
	BaseURL      string
	SystemPrompt string

	Runs         int
	Threshold    float64
	OutlierDelta float64

	SupportThreshold float64
	RiskThreshold    float64

	SemanticEnabled  bool
	EmbeddingBaseURL string
	EmbeddingModel   string

	Stopwords     []string
	Abbreviations []string

	LogLevel    string
	HistoryPath string
}

type fileConfig struct {
	Connector struct {
		Provider     string `toml:"provider"`
		Model        string `toml:"model"`
		APIKey       string `toml:"api_key"`
		BaseURL      string `toml:"base_url"`
		SystemPrompt string `toml:"system_prompt"`
	} `toml:"connector"`
	Consistency struct {
		Runs         int     `toml:"runs"`
		Threshold    float64 `toml:"threshold"`
		OutlierDelta float64 `toml:"outlier_delta"`
	} `toml:"consistency"`
	Hallucination struct {
		SupportThreshold float64 `toml:"support_threshold"`
		RiskThreshold    float64 `toml:"risk_threshold"`
	} `toml:"hallucination"`
	Similarity struct {
		SemanticEnabled  bool     `toml:"semantic_enabled"`
		EmbeddingBaseURL string   `toml:"embedding_base_url"`
		EmbeddingModel   string   `toml:"embedding_model"`
		Stopwords        []string `toml:"stopwords"`
	} `toml:"similarity"`
	Segmenter struct {
		Abbreviations []string `toml:"abbreviations"`
	} `toml:"segmenter"`
	Logging struct {
		Level string `toml:"level"`
	} `toml:"logging"`
	History struct {
		Path string `toml:"path"`
	} `toml:"history"`
}

// Load builds the configuration from defaults, the TOML file at path (when
// it exists; an empty path skips the file layer), and LLMPROBE_* environment
// variables, in increasing precedence.
func Load(path string) (*Config, error) {
	cfg := defaults()

	if path != "" {
		if err := applyFile(cfg, path); err != nil {
			return nil, err
		}
	}
	applyEnv(cfg)
	return cfg, nil
}

func defaults() *Config {
	return &Config{
		Connector:        DefaultConnector,
		Runs:             DefaultRuns,
		Threshold:        DefaultThreshold,
		OutlierDelta:     DefaultOutlierDelta,
		SupportThreshold: DefaultSupportThreshold,
		RiskThreshold:    DefaultRiskThreshold,
		EmbeddingBaseURL: DefaultOllamaBaseURL,
		EmbeddingModel:   DefaultEmbeddingModel,
		LogLevel:         DefaultLogLevel,
		HistoryPath:      DefaultHistoryPath,
	}
}

func applyFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}

	var fc fileConfig
	if err := toml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	if fc.Connector.Provider != "" {
		cfg.Connector = fc.Connector.Provider
	}
	if fc.Connector.Model != "" {
		cfg.Model = fc.Connector.Model
	}
	if fc.Connector.APIKey != "" {
		cfg.APIKey = fc.Connector.APIKey
	}
	if fc.Connector.BaseURL != "" {
		cfg.BaseURL = fc.Connector.BaseURL
	}
	if fc.Connector.SystemPrompt != "" {
		cfg.SystemPrompt = fc.Connector.SystemPrompt
	}
	if fc.Consistency.Runs != 0 {
		cfg.Runs = fc.Consistency.Runs
	}
	if fc.Consistency.Threshold != 0 {
		cfg.Threshold = fc.Consistency.Threshold
	}
	if fc.Consistency.OutlierDelta != 0 {
		cfg.OutlierDelta = fc.Consistency.OutlierDelta
	}
	if fc.Hallucination.SupportThreshold != 0 {
		cfg.SupportThreshold = fc.Hallucination.SupportThreshold
	}
	if fc.Hallucination.RiskThreshold != 0 {
		cfg.RiskThreshold = fc.Hallucination.RiskThreshold
	}
	cfg.SemanticEnabled = fc.Similarity.SemanticEnabled
	if fc.Similarity.EmbeddingBaseURL != "" {
		cfg.EmbeddingBaseURL = fc.Similarity.EmbeddingBaseURL
	}
	if fc.Similarity.EmbeddingModel != "" {
		cfg.EmbeddingModel = fc.Similarity.EmbeddingModel
	}
	if fc.Similarity.Stopwords != nil {
		cfg.Stopwords = fc.Similarity.Stopwords
	}
	if fc.Segmenter.Abbreviations != nil {
		cfg.Abbreviations = fc.Segmenter.Abbreviations
	}
	if fc.Logging.Level != "" {
		cfg.LogLevel = fc.Logging.Level
	}
	if fc.History.Path != "" {
		cfg.HistoryPath = fc.History.Path
	}
	return nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("LLMPROBE_CONNECTOR"); v != "" {
		cfg.Connector = v
	}
	if v := os.Getenv("LLMPROBE_MODEL"); v != "" {
		cfg.Model = v
	}
	if v := os.Getenv("LLMPROBE_API_KEY"); v != "" {
		cfg.APIKey = v
	}
	if v := os.Getenv("LLMPROBE_BASE_URL"); v != "" {
		cfg.BaseURL = v
	}
	if v := os.Getenv("LLMPROBE_RUNS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Runs = n
		}
	}
	if v := os.Getenv("LLMPROBE_THRESHOLD"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Threshold = f
		}
	}
	if v := os.Getenv("LLMPROBE_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("LLMPROBE_HISTORY_PATH"); v != "" {
		cfg.HistoryPath = v
	}

	// Provider key env vars follow each vendor's convention as a fallback.
	if cfg.APIKey == "" {
		switch cfg.Connector {
		case "openai":
			cfg.APIKey = os.Getenv("OPENAI_API_KEY")
		case "anthropic":
			cfg.APIKey = os.Getenv("ANTHROPIC_API_KEY")
		case "openrouter":
			cfg.APIKey = os.Getenv("OPENROUTER_API_KEY")
		}
	}
}

// DefaultModel returns the default model for the configured provider.
func (c *Config) DefaultModel() string {
	switch c.Connector {
	case "anthropic":
		return DefaultAnthropicModel
	case "ollama":
		return DefaultOllamaModel
	case "openrouter":
		return DefaultOpenRouterModel
	default:
		return DefaultOpenAIModel
	}
}
