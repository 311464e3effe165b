package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/a-marczewski/llmprobe/internal/consistency"
	"github.com/a-marczewski/llmprobe/internal/hallucination"
	"github.com/a-marczewski/llmprobe/internal/redteam"
	"github.com/a-marczewski/llmprobe/internal/report"
	"github.com/a-marczewski/llmprobe/internal/storage"
)

var (
	flagRuns       int
	flagThreshold  float64
	flagTimeout    time.Duration
	flagOutput     string
	flagSource     string
	flagSupport    float64
	flagCategories []string
	flagMaxPerCat  int
	flagKind       string
	flagLimit      int
)

var consistencyCmd = &cobra.Command{
	Use:   "consistency <prompt>",
	Short: "Measure answer stability for a prompt across repeated runs",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, scorer, err := loadEnv()
		if err != nil {
			return err
		}
		defer logger.Sync()

		conn, err := buildConnector(cfg)
		if err != nil {
			return err
		}

		if flagRuns != 0 {
			cfg.Runs = flagRuns
		}
		if flagThreshold != 0 {
			cfg.Threshold = flagThreshold
		}

		checker := consistency.NewChecker(conn, scorer, consistency.Config{
			Runs:         cfg.Runs,
			Threshold:    cfg.Threshold,
			OutlierDelta: cfg.OutlierDelta,
		}, logger)

		ctx, cancel := context.WithTimeout(cmd.Context(), flagTimeout)
		defer cancel()

		prompt := args[0]
		result, err := checker.TestPrompt(ctx, prompt)
		if err != nil {
			return err
		}

		recordRun(cfg.HistoryPath, storage.KindConsistency, prompt, result.ConsistencyScore, result.Passed, result, logger)

		fmt.Printf("Consistency score: %.3f (threshold %.2f)\n", result.ConsistencyScore, result.Threshold)
		fmt.Printf("Outliers: %d of %d runs\n", len(result.Outliers), result.Runs)
		if result.SuggestedFix != "" {
			fmt.Printf("Hint: %s\n", result.SuggestedFix)
		}

		if flagOutput != "" {
			if err := report.WriteConsistencyHTML(flagOutput, result); err != nil {
				return err
			}
			fmt.Printf("Report saved to: %s\n", flagOutput)
		}
		if !result.Passed {
			os.Exit(1)
		}
		return nil
	},
}

var hallucinateCmd = &cobra.Command{
	Use:   "hallucinate <prompt>",
	Short: "Check a model answer for unsupported claims against a source document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, scorer, err := loadEnv()
		if err != nil {
			return err
		}
		defer logger.Sync()

		conn, err := buildConnector(cfg)
		if err != nil {
			return err
		}

		if flagSupport != 0 {
			cfg.SupportThreshold = flagSupport
		}
		detector, err := hallucination.NewDetectorFromFile(flagSource, hallucination.Config{
			SupportThreshold: cfg.SupportThreshold,
			RiskThreshold:    cfg.RiskThreshold,
			Abbreviations:    cfg.Abbreviations,
		}, scorer, logger)
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), flagTimeout)
		defer cancel()

		resp, err := conn.Respond(ctx, args[0])
		if err != nil {
			return err
		}

		result := detector.CheckResponse(resp)
		recordRun(cfg.HistoryPath, storage.KindHallucination, flagSource, result.HallucinationScore, result.Passed, result, logger)

		fmt.Printf("Hallucination score: %.3f\n", result.HallucinationScore)
		for _, f := range result.Flagged {
			fmt.Printf("  flagged (support %.3f): %s\n", f.Support, f.Sentence)
		}

		if flagOutput != "" {
			if err := report.WriteHallucinationHTML(flagOutput, result); err != nil {
				return err
			}
			fmt.Printf("Report saved to: %s\n", flagOutput)
		}
		if !result.Passed {
			os.Exit(1)
		}
		return nil
	},
}

var redteamCmd = &cobra.Command{
	Use:   "redteam",
	Short: "Run the adversarial red-team suite against the configured endpoint",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, _, err := loadEnv()
		if err != nil {
			return err
		}
		defer logger.Sync()

		conn, err := buildConnector(cfg)
		if err != nil {
			return err
		}

		suite, err := redteam.NewSuite(conn, logger)
		if err != nil {
			return err
		}

		result, err := suite.Run(cmd.Context(), redteam.Options{
			Categories:     flagCategories,
			MaxPerCategory: flagMaxPerCat,
		})
		if err != nil {
			return err
		}

		recordRun(cfg.HistoryPath, storage.KindRedTeam, conn.Name(), result.RiskScore, result.VulnerabilityCount == 0, result, logger)

		fmt.Printf("Red team complete: %d vulnerabilities / %d prompts\n", result.VulnerabilityCount, result.TotalPrompts)
		fmt.Printf("Risk score: %.1f/10\n", result.RiskScore)

		if flagOutput != "" {
			if err := report.WriteRedTeamHTML(flagOutput, result); err != nil {
				return err
			}
			fmt.Printf("Report saved to: %s\n", flagOutput)
		}
		if result.VulnerabilityCount > 0 {
			os.Exit(1)
		}
		return nil
	},
}

var categoriesCmd = &cobra.Command{
	Use:   "categories",
	Short: "List the available red-team categories",
	RunE: func(cmd *cobra.Command, args []string) error {
		suite, err := redteam.NewSuite(nil, nil)
		if err != nil {
			return err
		}
		fmt.Println("Available red team categories:")
		for _, cat := range suite.Categories() {
			fmt.Printf("  - %s\n", cat)
		}
		return nil
	},
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent check runs from the history store",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, _, err := loadEnv()
		if err != nil {
			return err
		}
		defer logger.Sync()

		store, err := storage.Open(cfg.HistoryPath)
		if err != nil {
			return err
		}
		defer store.Close()

		records, err := store.Recent(flagKind, flagLimit)
		if err != nil {
			return err
		}
		if len(records) == 0 {
			fmt.Println("No runs recorded yet.")
			return nil
		}
		for _, rec := range records {
			status := "PASS"
			if !rec.Passed {
				status = "FAIL"
			}
			fmt.Printf("%s  %-13s  %.3f  %s  %s\n",
				rec.CreatedAt.Format("2006-01-02 15:04"), rec.Kind, rec.Score, status, rec.Subject)
		}
		return nil
	},
}

func init() {
	consistencyCmd.Flags().IntVar(&flagRuns, "runs", 0, "Number of runs (default from config)")
	consistencyCmd.Flags().Float64Var(&flagThreshold, "threshold", 0, "Minimum passing score (default from config)")
	consistencyCmd.Flags().DurationVar(&flagTimeout, "timeout", 5*time.Minute, "Overall timeout")
	consistencyCmd.Flags().StringVarP(&flagOutput, "output", "o", "", "HTML report output path")

	hallucinateCmd.Flags().StringVar(&flagSource, "source", "", "Source document path (required)")
	hallucinateCmd.Flags().Float64Var(&flagSupport, "support-threshold", 0, "Minimum support score (default from config)")
	hallucinateCmd.Flags().DurationVar(&flagTimeout, "timeout", 5*time.Minute, "Overall timeout")
	hallucinateCmd.Flags().StringVarP(&flagOutput, "output", "o", "", "HTML report output path")
	hallucinateCmd.MarkFlagRequired("source")

	redteamCmd.Flags().StringSliceVarP(&flagCategories, "categories", "c", nil, "Categories to run (default: all)")
	redteamCmd.Flags().IntVar(&flagMaxPerCat, "max-per-category", 0, "Limit prompts per category")
	redteamCmd.Flags().StringVarP(&flagOutput, "output", "o", "reports/redteam.html", "HTML report output path")

	historyCmd.Flags().StringVar(&flagKind, "kind", "", "Filter by kind: consistency, hallucination, redteam")
	historyCmd.Flags().IntVar(&flagLimit, "limit", 20, "Maximum rows to show")
}

// recordRun persists a run to the history store. History failures are logged
// and swallowed: a broken local database must not fail the check itself.
func recordRun(path, kind, subject string, score float64, passed bool, result interface{}, logger *zap.Logger) {
	store, err := storage.Open(path)
	if err != nil {
		logger.Warn("history store unavailable", zap.Error(err))
		return
	}
	defer store.Close()

	if _, err := store.Record(kind, subject, score, passed, result); err != nil {
		logger.Warn("failed to record run", zap.Error(err))
	}
}
