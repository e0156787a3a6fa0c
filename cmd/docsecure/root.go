package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/docsecure/docsecure/internal/tools/common"
	"github.com/docsecure/docsecure/internal/tools/loadgen"
)

func newRootCommand() *cobra.Command {
	var envFile string
	cmd := &cobra.Command{
		Use:   "docsecure",
		Short: "Document management backend with audit trail and share links",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return common.LoadEnvFile(envFile)
		},
	}
	cmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before config")
	cmd.AddCommand(newServeCommand())
	cmd.AddCommand(newLoadgenCommand())
	return cmd
}

func newLoadgenCommand() *cobra.Command {
	var (
		baseURL     string
		profile     string
		duration    time.Duration
		rps         int
		concurrency int
		seed        int64
	)
	cmd := &cobra.Command{
		Use:   "loadgen",
		Short: "Generate traffic against a running instance",
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := loadgen.Run(cmd.Context(), loadgen.Config{
				BaseURL:     baseURL,
				Profile:     profile,
				Duration:    duration,
				RPS:         rps,
				Concurrency: concurrency,
				Seed:        seed,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "requests=%d failures=%d\n", result.TotalRequests, result.Failures)
			for class, count := range result.StatusClasses {
				fmt.Fprintf(cmd.OutOrStdout(), "  %s=%d\n", class, count)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&baseURL, "base-url", "http://localhost:8080", "API base URL")
	cmd.Flags().StringVar(&profile, "profile", "mixed", "traffic profile: auth, documents or mixed")
	cmd.Flags().DurationVar(&duration, "duration", 10*time.Second, "how long to run")
	cmd.Flags().IntVar(&rps, "rps", 20, "requests per second")
	cmd.Flags().IntVar(&concurrency, "concurrency", 4, "concurrent workers")
	cmd.Flags().Int64Var(&seed, "seed", 42, "random seed")
	return cmd
}
