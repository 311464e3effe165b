package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/a-marczewski/llmprobe/internal/doctor"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Diagnose configuration, history store, and connector health",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, _, err := loadEnv()
		if err != nil {
			return err
		}
		defer logger.Sync()

		// A connector construction error is itself a diagnostic finding.
		conn, err := buildConnector(cfg)
		if err != nil {
			conn = nil
		}

		runner := doctor.NewRunner(cfg, conn)
		diag := runner.RunAll(cmd.Context())

		for _, check := range diag.Checks {
			marker := "ok"
			if check.Status == "fail" {
				marker = "FAIL"
			}
			fmt.Printf("[%-4s] %-22s %s\n", marker, check.Name, check.Message)
		}
		fmt.Printf("\nStatus: %s\n", diag.Status)
		if diag.Status != "healthy" {
			os.Exit(1)
		}
		return nil
	},
}
