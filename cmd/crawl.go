package main

import (
	"fmt"
	"io"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/vivahvendors/vendor-crawler/internal/config"
	"github.com/vivahvendors/vendor-crawler/internal/pipeline"
)

var crawlCmd = &cobra.Command{
	Use:   "crawl",
	Short: "Scrape vendor listings and ingest them into the catalog",
	Long:  "Runs one crawl over the selected source (or all) and prints a status line per candidate followed by the run summary.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		opts := crawlOptsFromFlags(cmd, cfg)

		out := cmd.OutOrStdout()
		env, err := initCrawler(ctx, pipeline.WithObserver(func(ev pipeline.Event) {
			_, _ = fmt.Fprintln(out, ev.String())
		}))
		if err != nil {
			return err
		}
		defer env.Close()

		printCrawlHeader(out, opts)

		res, err := env.Pipeline.Run(ctx, opts)
		if err != nil {
			zap.L().Error("crawl failed", zap.String("source", opts.Source), zap.Error(err))
			return err
		}

		printCrawlSummary(out, res)
		return nil
	},
}

// crawlOptsFromFlags fills unset flags from the crawl defaults in config.
func crawlOptsFromFlags(cmd *cobra.Command, c *config.Config) pipeline.RunOpts {
	f := cmd.Flags()
	src, _ := f.GetString("source")
	region, _ := f.GetString("region")
	city, _ := f.GetString("city")
	category, _ := f.GetString("category")
	maxResults, _ := f.GetInt("max")
	seed, _ := f.GetBool("seed")

	opts := pipeline.RunOpts{
		Source:     src,
		Region:     region,
		City:       city,
		Category:   category,
		MaxResults: maxResults,
		Seed:       seed,
	}
	if opts.Source == "" {
		opts.Source = c.Crawl.DefaultSource
	}
	if opts.Region == "" {
		opts.Region = c.Crawl.DefaultRegion
	}
	if opts.City == "" {
		opts.City = c.Crawl.DefaultCity
	}
	if opts.MaxResults <= 0 {
		opts.MaxResults = c.Crawl.DefaultMax
	}
	return opts
}

func printCrawlHeader(w io.Writer, opts pipeline.RunOpts) {
	_, _ = fmt.Fprintln(w, "=== Vendor Crawler ===")
	_, _ = fmt.Fprintf(w, "Mode:   %s\n", opts.Mode())
	_, _ = fmt.Fprintf(w, "Source: %s\n", opts.Source)
	_, _ = fmt.Fprintf(w, "Scope:  %s/%s\n", opts.Region, opts.City)
	if opts.Category != "" {
		_, _ = fmt.Fprintf(w, "Filter: %s\n", opts.Category)
	}
	_, _ = fmt.Fprintln(w)
}

func printCrawlSummary(w io.Writer, res *pipeline.RunResult) {
	_, _ = fmt.Fprintln(w)
	_, _ = fmt.Fprintln(w, "=== Summary ===")
	_, _ = fmt.Fprintf(w, "Run:     %s (%s)\n", res.RunID, res.Status)
	_, _ = fmt.Fprintf(w, "Found:   %d\n", res.Found)
	_, _ = fmt.Fprintf(w, "Created: %d\n", res.Created)
	_, _ = fmt.Fprintf(w, "Updated: %d\n", res.Updated)
	_, _ = fmt.Fprintf(w, "Skipped: %d\n", res.Skipped)
	_, _ = fmt.Fprintf(w, "Errors:  %d\n", res.Errors)
	if res.Interrupted {
		_, _ = fmt.Fprintln(w, "Interrupted before all sources finished.")
	}
}

func registerCrawlFlags(cmd *cobra.Command) {
	cmd.Flags().String("source", "", "source to crawl, or \"all\" (default from config)")
	cmd.Flags().String("region", "", "region code, e.g. IN (default from config)")
	cmd.Flags().String("city", "", "city to crawl (default from config)")
	cmd.Flags().String("category", "", "restrict to one vendor category, e.g. photographer")
	cmd.Flags().Int("max", 0, "max results per category (default from config)")
	cmd.Flags().Bool("seed", false, "mark this crawl as an initial seed")
}

func init() {
	registerCrawlFlags(crawlCmd)
	rootCmd.AddCommand(crawlCmd)
}
