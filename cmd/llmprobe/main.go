package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/a-marczewski/llmprobe/internal/config"
	"github.com/a-marczewski/llmprobe/internal/connector"
	"github.com/a-marczewski/llmprobe/internal/logging"
	"github.com/a-marczewski/llmprobe/internal/similarity"

	"go.uber.org/zap"
)

var (
	flagConfig    string
	flagConnector string
	flagModel     string
	flagAPIKey    string
	flagLogLevel  string
)

var rootCmd = &cobra.Command{
	Use:   "llmprobe",
	Short: "llmprobe - quality and safety testing for conversational AI",
	Long: `llmprobe measures response consistency, detects hallucinations against
trusted source documents, and runs adversarial red-team suites against any
LLM endpoint.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "llmprobe.toml", "Path to config file")
	rootCmd.PersistentFlags().StringVar(&flagConnector, "connector", "", "Connector: openai, anthropic, ollama, openrouter")
	rootCmd.PersistentFlags().StringVar(&flagModel, "model", "", "Model name")
	rootCmd.PersistentFlags().StringVar(&flagAPIKey, "api-key", "", "API key (falls back to provider env vars)")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "Log level: debug, info, warn, error, off")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(consistencyCmd)
	rootCmd.AddCommand(hallucinateCmd)
	rootCmd.AddCommand(redteamCmd)
	rootCmd.AddCommand(categoriesCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(doctorCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("llmprobe v0.1.0")
	},
}

// loadEnv assembles config, logger, and similarity scorer for a command.
func loadEnv() (*config.Config, *zap.Logger, similarity.Scorer, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return nil, nil, nil, err
	}
	if flagConnector != "" {
		cfg.Connector = flagConnector
	}
	if flagModel != "" {
		cfg.Model = flagModel
	}
	if flagAPIKey != "" {
		cfg.APIKey = flagAPIKey
	}
	if flagLogLevel != "" {
		cfg.LogLevel = flagLogLevel
	}

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		return nil, nil, nil, err
	}

	keyword := similarity.NewKeywordScorer(similarity.Config{Stopwords: cfg.Stopwords})
	var scorer similarity.Scorer = keyword
	if cfg.SemanticEnabled {
		embedder := similarity.NewEmbeddingClient(cfg.EmbeddingBaseURL, cfg.APIKey, cfg.EmbeddingModel)
		scorer = similarity.NewSemanticScorer(embedder, keyword, logger)
	}
	return cfg, logger, scorer, nil
}

// buildConnector constructs the configured provider connector.
func buildConnector(cfg *config.Config) (connector.Connector, error) {
	model := cfg.Model
	if model == "" {
		model = cfg.DefaultModel()
	}

	switch cfg.Connector {
	case "openai":
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("openai connector requires an API key (--api-key or OPENAI_API_KEY)")
		}
		opts := []connector.OpenAIOption{}
		if cfg.SystemPrompt != "" {
			opts = append(opts, connector.WithSystemPrompt(cfg.SystemPrompt))
		}
		return connector.NewOpenAIConnector(model, cfg.APIKey, opts...), nil
	case "anthropic":
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("anthropic connector requires an API key (--api-key or ANTHROPIC_API_KEY)")
		}
		c := connector.NewAnthropicConnector(model, cfg.APIKey)
		c.SetSystemPrompt(cfg.SystemPrompt)
		return c, nil
	case "ollama":
		c := connector.NewOllamaConnector(model, cfg.BaseURL)
		c.SetSystemPrompt(cfg.SystemPrompt)
		return c, nil
	case "openrouter":
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("openrouter connector requires an API key (--api-key or OPENROUTER_API_KEY)")
		}
		c := connector.NewOpenRouterConnector(model, cfg.APIKey)
		c.SetSystemPrompt(cfg.SystemPrompt)
		return c, nil
	default:
		return nil, fmt.Errorf("unknown connector %q, use: openai, anthropic, ollama, openrouter", cfg.Connector)
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
