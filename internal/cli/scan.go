package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ppiankov/cohortscan/internal/model"
	"github.com/ppiankov/cohortscan/internal/pipeline"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// scanCmd represents the scan command
var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Collect every company in the cohort into a CSV file",
	Long: `Scan renders the directory listing, scrolls until no more companies load,
and then for each company:
- resolves its website from the directory detail page
- finds its LinkedIn company page
- checks the LinkedIn description for the cohort marker
- appends a row to the CSV file

Press Ctrl+C at any time; rows already written stay in the file.

Example:
  cohortscan scan
  cohortscan scan --out s25.csv --engine rod
  cohortscan scan --url "https://www.ycombinator.com/companies?batch=Summer%202025" -v`,
	Args: cobra.NoArgs,
	RunE: runScan,
}

func init() {
	rootCmd.AddCommand(scanCmd)

	f := scanCmd.Flags()
	f.String("url", "", "listing URL to render")
	f.StringP("out", "o", "", "CSV output path")
	f.StringSlice("engine", nil, "browser engines to try in order (chromedp, rod)")
	f.Bool("headless", true, "run the browser headless")
	f.Bool("cache", false, "reuse detail and profile pages cached by earlier runs")
	f.Bool("respect-robots", false, "skip pages disallowed by robots.txt")
	f.Duration("pause", 0, "pause after each company")
	f.Duration("timeout", 0, "per-request timeout for detail and profile pages")
	f.String("http-proxy", "", "HTTP proxy URL (overrides HTTP_PROXY env var)")
	f.String("https-proxy", "", "HTTPS proxy URL (overrides HTTPS_PROXY env var)")

	for key, flag := range map[string]string{
		"source.listing_url":          "url",
		"output.path":                 "out",
		"browser.engines":             "engine",
		"browser.headless":            "headless",
		"cache.enabled":               "cache",
		"http.respect_robots":         "respect-robots",
		"rate_limiting.company_pause": "pause",
		"http.timeout":                "timeout",
		"http.http_proxy":             "http-proxy",
		"http.https_proxy":            "https-proxy",
	} {
		_ = viper.BindPFlag(key, f.Lookup(flag))
	}
}

func runScan(cmd *cobra.Command, args []string) error {
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

	fmt.Fprintf(os.Stderr, "Starting cohort scan...\n")
	fmt.Fprintf(os.Stderr, "Companies are saved to %s as they are processed.\n", cfg.Output.Path)
	fmt.Fprintf(os.Stderr, "You can stop anytime with Ctrl+C and keep the rows written so far.\n\n")
	if cfg.Output.Verbose {
		fmt.Fprintf(os.Stderr, "Listing: %s\n", cfg.Source.ListingURL)
		fmt.Fprintf(os.Stderr, "Engines: %v\n", cfg.Browser.Engines)
		fmt.Fprintf(os.Stderr, "Cache:   %v\n\n", cfg.Cache.Enabled)
	}

	p, err := pipeline.NewPipeline(cfg, logger)
	if err != nil {
		return err
	}

	summary, err := p.Run(ctx)
	switch {
	case errors.Is(err, model.ErrInterrupted):
		fmt.Fprintf(os.Stderr, "\nScan interrupted. %d companies saved; check %s for partial results.\n", summary.Processed, cfg.Output.Path)
		return nil
	case errors.Is(err, model.ErrEngineUnavailable):
		return fmt.Errorf("%w\nInstall Chrome/Chromium or set CHROME_PATH", err)
	case err != nil:
		fmt.Fprintf(os.Stderr, "\nCheck %s for any partial results.\n", cfg.Output.Path)
		return fmt.Errorf("scan failed: %w", err)
	}

	printSummary(summary)
	return nil
}

func printSummary(s *pipeline.Summary) {
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  Scan Complete\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Engine:     %s\n", s.Engine)
	if s.ListingDone {
		fmt.Fprintf(os.Stderr, "  Listing:    %d cards\n", s.ListingCount)
	} else {
		fmt.Fprintf(os.Stderr, "  Listing:    %d cards (still growing when scrolling stopped)\n", s.ListingCount)
	}
	fmt.Fprintf(os.Stderr, "  Companies:  %d of %d unique cards\n", s.Processed, s.UniqueCards)
	fmt.Fprintf(os.Stderr, "  Websites:   %d\n", s.Websites)
	fmt.Fprintf(os.Stderr, "  LinkedIn:   %d (%d with marker)\n", s.Profiles, s.Markers)
	if s.DetailFailures > 0 {
		fmt.Fprintf(os.Stderr, "  Failures:   %d detail pages\n", s.DetailFailures)
	}
	fmt.Fprintf(os.Stderr, "  Duration:   %s\n", s.Duration.Round(time.Second))
	fmt.Fprintf(os.Stderr, "  Output:     %s\n", s.OutputPath)
	fmt.Fprintf(os.Stderr, "\n")
}
