package main

import (
	"context"
	"net/http"
	"time"

	"github.com/rotisserie/eris"

	"github.com/vivahvendors/vendor-crawler/internal/catalog"
	"github.com/vivahvendors/vendor-crawler/internal/config"
	"github.com/vivahvendors/vendor-crawler/internal/fetcher"
	"github.com/vivahvendors/vendor-crawler/internal/metrics"
	"github.com/vivahvendors/vendor-crawler/internal/pipeline"
	"github.com/vivahvendors/vendor-crawler/internal/resilience"
	"github.com/vivahvendors/vendor-crawler/internal/source"
	"github.com/vivahvendors/vendor-crawler/internal/taxonomy"
	"github.com/vivahvendors/vendor-crawler/pkg/google"
)

// crawlEnv holds the store, adapters, and pipeline needed by the crawl and
// serve commands.
type crawlEnv struct {
	Store    catalog.Store
	Registry *source.Registry
	Recorder *metrics.Recorder
	Pipeline *pipeline.Pipeline
}

// Close releases resources held by the environment.
func (e *crawlEnv) Close() {
	if e.Store != nil {
		_ = e.Store.Close()
	}
}

// crawlPacing returns the configured delays, never below the default
// 200ms per record and 1s per sub-query.
func crawlPacing(c *config.Config) source.Pacing {
	return source.NewPacingMs(c.Crawl.ItemDelayMs, c.Crawl.BatchDelayMs).AtLeast(source.DefaultPacing())
}

// buildRegistry wires every source adapter from config. Adapters whose
// credentials or inputs are missing are registered but inactive.
func buildRegistry(c *config.Config) *source.Registry {
	pacing := crawlPacing(c)
	retry := resilience.NewPolicy(c.Retry.MaxAttempts, c.Retry.InitialBackoff, c.Retry.MaxBackoff)
	timeout := time.Duration(c.Crawl.TimeoutSecs) * time.Second

	var places google.Client
	if c.Google.Key != "" {
		places = google.NewClient(c.Google.Key,
			google.WithBaseURL(c.Google.BaseURL),
			google.WithHTTPClient(&http.Client{Timeout: timeout}),
		)
	}

	fetch := fetcher.NewHTTPFetcher(fetcher.HTTPOptions{
		UserAgent: c.Directory.UserAgent,
		Timeout:   timeout,
		Retry:     retry,
	})

	return source.NewRegistry(
		source.NewGooglePlaces(places, pacing, retry),
		source.NewDirectory(c.Directory, fetch, pacing),
		source.NewWeb(c.Web.SeedURLs, fetch, pacing),
		source.NewSpreadsheet(c.Spreadsheet.Path, c.Spreadsheet.Sheet, pacing),
	)
}

// loadDictionary returns the configured keyword dictionary, or the built-in
// one when no path is set.
func loadDictionary(c *config.Config) (*taxonomy.Dictionary, error) {
	if c.Crawl.DictionaryPath == "" {
		return taxonomy.DefaultDictionary(), nil
	}
	dict, err := taxonomy.LoadDictionary(c.Crawl.DictionaryPath)
	if err != nil {
		return nil, eris.Wrap(err, "load keyword dictionary")
	}
	return dict, nil
}

// initCrawler opens the catalog and builds the pipeline. Callers should
// defer env.Close().
func initCrawler(ctx context.Context, opts ...pipeline.Option) (*crawlEnv, error) {
	dict, err := loadDictionary(cfg)
	if err != nil {
		return nil, err
	}

	st, err := openCatalog(ctx)
	if err != nil {
		return nil, err
	}

	env := &crawlEnv{
		Store:    st,
		Registry: buildRegistry(cfg),
		Recorder: metrics.NewRecorder(),
	}
	opts = append([]pipeline.Option{pipeline.WithRecorder(env.Recorder)}, opts...)
	env.Pipeline = pipeline.New(st, env.Registry, dict, opts...)
	return env, nil
}
