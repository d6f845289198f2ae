package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var cfgFile string

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "paragon",
		Short: "Compute PARAGON integrity scores and feed-trust rankings for public figures",
	}

	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./config.yaml)")

	root.AddCommand(importCmd())
	root.AddCommand(ingestCmd())
	root.AddCommand(scoreCmd())
	root.AddCommand(trendsCmd())
	root.AddCommand(rankCmd())
	root.AddCommand(runCmd())

	return root
}

func importCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import scraper metric payloads into the metrics store",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(file)
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "JSON file with scraper payloads")
	cmd.MarkFlagRequired("file")
	return cmd
}

func ingestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ingest",
		Short: "Collect, rank and store evidence from registered feeds",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIngest()
		},
	}
}

func scoreCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "score",
		Short: "Recompute scores and record trend entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScore()
		},
	}
}

func trendsCmd() *cobra.Command {
	var (
		jsonOutput bool
		fallers    bool
		limit      int
	)

	cmd := &cobra.Command{
		Use:   "trends",
		Short: "Show top risers or fallers from the trend window",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrends(jsonOutput, fallers, limit)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	cmd.Flags().BoolVar(&fallers, "fallers", false, "show fallers instead of risers")
	cmd.Flags().IntVar(&limit, "limit", 10, "max entries to show")
	return cmd
}

func rankCmd() *cobra.Command {
	var (
		sourceKey string
		title     string
		text      string
		published string
	)

	cmd := &cobra.Command{
		Use:   "rank",
		Short: "Rate a single news item and print the score breakdown",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRank(sourceKey, title, text, published)
		},
	}

	cmd.Flags().StringVar(&sourceKey, "source", "", "registered source key")
	cmd.Flags().StringVar(&title, "title", "", "headline")
	cmd.Flags().StringVar(&text, "text", "", "article body")
	cmd.Flags().StringVar(&published, "published", "", "publication time (RFC3339)")
	cmd.MarkFlagRequired("title")
	return cmd
}

func runCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Start the ingestion and scoring daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDaemon()
		},
	}
}
