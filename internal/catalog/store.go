package catalog

import (
	"context"

	"github.com/vivahvendors/vendor-crawler/internal/taxonomy"
)

// Finder is the read access used by deduplication. Lookups return nil, nil
// when nothing matches.
type Finder interface {
	// FindByPhoneDigits returns a profile whose phone digits contain digits.
	FindByPhoneDigits(ctx context.Context, digits string) (*ProfileRef, error)
	FindByEmail(ctx context.Context, email string) (*ProfileRef, error)
	FindByWebsite(ctx context.Context, website string) (*ProfileRef, error)
	// SearchByCityAndName returns up to limit profiles in city (case-insensitive)
	// whose name contains nameToken (case-insensitive).
	SearchByCityAndName(ctx context.Context, city, nameToken string, limit int) ([]ProfileRef, error)
}

// Store is the full catalog contract used by the ingestion pipeline.
type Store interface {
	Finder

	// Profiles
	GetProfile(ctx context.Context, id string) (*Profile, error)
	ProfileSlugExists(ctx context.Context, slug string) (bool, error)
	ListingSlugExists(ctx context.Context, slug string) (bool, error)
	CreateVendor(ctx context.Context, v *NewVendor) error
	UpdateProfile(ctx context.Context, id string, upd ProfileUpdate, link SourceLink) error
	SetClaimed(ctx context.Context, id string, claimed bool) error
	ProfileTerms(ctx context.Context, profileID string) ([]string, error)
	ProfileCategories(ctx context.Context, profileID string) ([]string, error)

	// Field overrides
	FieldOverrides(ctx context.Context, profileID string) (map[string]bool, error)
	SetFieldOverride(ctx context.Context, profileID, field string) error

	// Provenance
	SourceLinks(ctx context.Context, profileID string) ([]SourceLink, error)

	// Crawl runs
	StartRun(ctx context.Context, source string) (*CrawlRun, error)
	FinishRun(ctx context.Context, id string, status RunStatus, counts RunCounts) error
	GetRun(ctx context.Context, id string) (*CrawlRun, error)
	ListRuns(ctx context.Context, limit int) ([]CrawlRun, error)

	// Vocabulary
	LoadVocabulary(ctx context.Context) (*taxonomy.Vocabulary, error)
	SeedVocabulary(ctx context.Context, seed *taxonomy.Seed) (SeedCounts, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}

var (
	_ Store = (*PostgresStore)(nil)
	_ Store = (*SQLiteStore)(nil)
)
