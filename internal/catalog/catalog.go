// Package catalog holds the vendor catalog data model and its storage
// contract, with Postgres and SQLite implementations.
package catalog

import (
	"time"

	"github.com/rotisserie/eris"
)

// ErrNotFound is returned when a profile or run does not exist.
var ErrNotFound = eris.New("catalog: not found")

// ErrClaimed is returned when a pipeline update targets a claimed profile.
var ErrClaimed = eris.New("catalog: profile is claimed")

// ProfileRef is the minimal profile identity returned by match lookups.
type ProfileRef struct {
	ID           string `json:"id"`
	BusinessName string `json:"business_name"`
	City         string `json:"city"`
}

// Profile is a vendor profile in the catalog.
type Profile struct {
	ID            string    `json:"id"`
	UserID        string    `json:"user_id"`
	BusinessName  string    `json:"business_name"`
	Slug          string    `json:"slug"`
	Description   string    `json:"description,omitempty"`
	ContactPhone  string    `json:"contact_phone,omitempty"`
	ContactEmail  string    `json:"contact_email,omitempty"`
	WebsiteURL    string    `json:"website_url,omitempty"`
	Country       string    `json:"country,omitempty"`
	State         string    `json:"state,omitempty"`
	City          string    `json:"city,omitempty"`
	Address       string    `json:"address,omitempty"`
	PostalCode    string    `json:"postal_code,omitempty"`
	Latitude      *float64  `json:"latitude,omitempty"`
	Longitude     *float64  `json:"longitude,omitempty"`
	AverageRating *float64  `json:"average_rating,omitempty"`
	TotalReviews  *int      `json:"total_reviews,omitempty"`
	Claimed       bool      `json:"claimed"`
	Active        bool      `json:"active"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Listing price types.
const (
	PriceOnRequest = "ON_REQUEST"
)

// NewVendor is everything written by one create: the placeholder owner, the
// profile, its default listing with categories and cultural tags, and the
// provenance link. Stores write it in a single transaction.
type NewVendor struct {
	OwnerID    string
	OwnerEmail string
	OwnerName  string

	Profile Profile

	ListingID          string
	ListingSlug        string
	ListingTitle       string
	ListingDescription string
	PriceType          string
	Published          bool
	Images             []string

	CategoryIDs []string
	TermIDs     []string

	Link SourceLink
}

// ProfileUpdate carries the fields to change on a merge. Nil means unchanged.
type ProfileUpdate struct {
	Description   *string
	ContactPhone  *string
	ContactEmail  *string
	WebsiteURL    *string
	AverageRating *float64
	TotalReviews  *int
}

// IsEmpty reports whether the update changes nothing.
func (u ProfileUpdate) IsEmpty() bool {
	return u.Description == nil && u.ContactPhone == nil && u.ContactEmail == nil &&
		u.WebsiteURL == nil && u.AverageRating == nil && u.TotalReviews == nil
}

// Fields returns the names of the fields the update changes.
func (u ProfileUpdate) Fields() []string {
	var f []string
	if u.Description != nil {
		f = append(f, "description")
	}
	if u.ContactPhone != nil {
		f = append(f, "contact_phone")
	}
	if u.ContactEmail != nil {
		f = append(f, "contact_email")
	}
	if u.WebsiteURL != nil {
		f = append(f, "website_url")
	}
	if u.AverageRating != nil {
		f = append(f, "average_rating")
	}
	if u.TotalReviews != nil {
		f = append(f, "total_reviews")
	}
	return f
}

// SourceLink records which source contributed or last refreshed a profile.
// There is at most one per (profile, source).
type SourceLink struct {
	ProfileID     string    `json:"profile_id"`
	SourceName    string    `json:"source_name"`
	SourceURL     string    `json:"source_url"`
	ExternalID    string    `json:"external_id,omitempty"`
	LastScrapedAt time.Time `json:"last_scraped_at"`
}

// RunStatus is the lifecycle state of a crawl run.
type RunStatus string

// Run statuses.
const (
	RunRunning             RunStatus = "running"
	RunCompleted           RunStatus = "completed"
	RunCompletedWithErrors RunStatus = "completed_with_errors"
)

// RunCounts are the outcome tallies of a crawl run.
type RunCounts struct {
	Found   int `json:"found"`
	Created int `json:"created"`
	Updated int `json:"updated"`
	Skipped int `json:"skipped"`
	Errors  int `json:"errors"`
}

// CrawlRun is the audit record of one crawl.
type CrawlRun struct {
	ID          string     `json:"id"`
	Source      string     `json:"source"`
	Status      RunStatus  `json:"status"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	RunCounts
}

// SeedCounts reports how many vocabulary rows a seed wrote.
type SeedCounts struct {
	Categories int64
	Types      int64
	Terms      int64
}
