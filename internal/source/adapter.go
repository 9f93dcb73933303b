// Package source discovers wedding vendors from external listings and yields
// them as raw discovery records.
package source

import (
	"context"
	"iter"
	"strings"
	"time"

	"github.com/vivahvendors/vendor-crawler/internal/model"
)

// ScrapeConfig scopes one adapter invocation.
type ScrapeConfig struct {
	Region string
	City   string
	// Category narrows the crawl to one wedding category. Empty means every
	// category the adapter knows.
	Category   string
	MaxResults int
}

// Adapter discovers vendors from one external source.
//
// Scrape returns a finite, single-use sequence. Failures of a single
// sub-query are logged by the adapter and skipped; the sequence ends early
// when ctx is canceled.
type Adapter interface {
	Name() string
	Active() bool
	Scrape(ctx context.Context, cfg ScrapeConfig) iter.Seq[model.RawVendor]
}

// Pacing holds the minimum delays an adapter observes between yielded
// records and between sub-queries.
type Pacing struct {
	ItemDelay  time.Duration
	BatchDelay time.Duration
}

// DefaultPacing is 200ms between records and 1s between sub-queries.
func DefaultPacing() Pacing {
	return Pacing{
		ItemDelay:  200 * time.Millisecond,
		BatchDelay: time.Second,
	}
}

// NewPacingMs builds a Pacing from millisecond config values. Negative
// values become zero; callers that talk to real sources apply AtLeast.
func NewPacingMs(itemMs, batchMs int) Pacing {
	return Pacing{
		ItemDelay:  time.Duration(max(itemMs, 0)) * time.Millisecond,
		BatchDelay: time.Duration(max(batchMs, 0)) * time.Millisecond,
	}
}

// AtLeast raises each delay of p to the matching delay of floor.
func (p Pacing) AtLeast(floor Pacing) Pacing {
	return Pacing{
		ItemDelay:  max(p.ItemDelay, floor.ItemDelay),
		BatchDelay: max(p.BatchDelay, floor.BatchDelay),
	}
}

// WeddingCategories are the sub-queries issued per city, in order.
var WeddingCategories = []string{
	"wedding photographer",
	"wedding caterer",
	"wedding decorator",
	"wedding venue",
	"wedding planner",
	"wedding florist",
	"wedding makeup artist",
	"wedding DJ",
	"wedding videographer",
	"wedding priest",
}

// categoriesFor returns the categories to crawl for cfg: the requested
// category as given, or every wedding category when none is set.
func categoriesFor(cfg ScrapeConfig) []string {
	c := strings.TrimSpace(cfg.Category)
	if c == "" {
		return WeddingCategories
	}
	return []string{c}
}

// sameCategory compares category names ignoring case and a leading
// "wedding ", so "florist" matches a row tagged "Wedding Florist".
func sameCategory(a, b string) bool {
	return strings.EqualFold(bareCategory(a), bareCategory(b))
}

func bareCategory(c string) string {
	c = strings.TrimSpace(c)
	if len(c) > len("wedding ") && strings.EqualFold(c[:len("wedding ")], "wedding ") {
		return strings.TrimSpace(c[len("wedding "):])
	}
	return c
}

func maxResults(cfg ScrapeConfig) int {
	if cfg.MaxResults <= 0 {
		return 20
	}
	return cfg.MaxResults
}
