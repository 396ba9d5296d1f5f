package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ppiankov/cohortscan/internal/pipeline"
	"github.com/ppiankov/cohortscan/internal/worker"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var inspectTimeout time.Duration

// inspectCmd represents the inspect command
var inspectCmd = &cobra.Command{
	Use:   "inspect <file>",
	Short: "Check LinkedIn company pages from a file for the cohort marker",
	Long: `Inspect reads LinkedIn company URLs (one per line, # for comments),
fetches each page with a small worker pool and reports whether its
description carries the cohort marker. The CSV file is not touched.

Example:
  cohortscan inspect profiles.txt
  cohortscan inspect profiles.txt --concurrency 4`,
	Args: cobra.ExactArgs(1),
	RunE: runInspect,
}

func init() {
	rootCmd.AddCommand(inspectCmd)

	inspectCmd.Flags().Int("concurrency", 0, "number of concurrent workers")
	inspectCmd.Flags().DurationVar(&inspectTimeout, "total-timeout", 10*time.Minute, "total timeout for the batch")

	_ = viper.BindPFlag("concurrency.workers", inspectCmd.Flags().Lookup("concurrency"))
}

func runInspect(cmd *cobra.Command, args []string) error {
	file := args[0]

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.Output.Verbose)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, inspectTimeout)
	defer cancel()

	p, err := pipeline.NewPipeline(cfg, logger)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "  Input file:   %s\n", file)
	fmt.Fprintf(os.Stderr, "  Workers:      %d\n", cfg.Concurrency.Workers)
	fmt.Fprintf(os.Stderr, "  Markers:      %v\n\n", cfg.Profile.Markers)

	results, err := worker.NewBatchInspector(p.Inspector(), cfg.Concurrency.Workers).InspectFile(ctx, file)
	if err != nil {
		return fmt.Errorf("inspect file: %w", err)
	}

	var withMarker, failures int
	for _, r := range results {
		switch {
		case r.Error != nil:
			failures++
			fmt.Printf("✗ %s: %v\n", r.URL, r.Error)
		case r.Inspection.MarkerPresent:
			withMarker++
			fmt.Printf("✓ %s: marker found (%s)\n", r.URL, r.Inspection.Description)
		default:
			fmt.Printf("- %s: no marker\n", r.URL)
		}
	}

	fmt.Fprintf(os.Stderr, "\n  Total: %d  With marker: %d  Failures: %d\n", len(results), withMarker, failures)
	return nil
}
