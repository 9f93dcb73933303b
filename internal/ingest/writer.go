// Package ingest applies create-or-merge decisions for normalized vendors to
// the catalog.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/vivahvendors/vendor-crawler/internal/catalog"
	"github.com/vivahvendors/vendor-crawler/internal/model"
	"github.com/vivahvendors/vendor-crawler/internal/taxonomy"
)

// Outcome is the result of writing one candidate.
type Outcome string

// Write outcomes.
const (
	Created Outcome = "created"
	Updated Outcome = "updated"
	Skipped Outcome = "skipped"
)

// Catalog is the storage access the writer needs.
type Catalog interface {
	GetProfile(ctx context.Context, id string) (*catalog.Profile, error)
	ProfileSlugExists(ctx context.Context, slug string) (bool, error)
	ListingSlugExists(ctx context.Context, slug string) (bool, error)
	CreateVendor(ctx context.Context, v *catalog.NewVendor) error
	UpdateProfile(ctx context.Context, id string, upd catalog.ProfileUpdate, link catalog.SourceLink) error
	FieldOverrides(ctx context.Context, profileID string) (map[string]bool, error)
}

// Result describes what a write did.
type Result struct {
	Outcome   Outcome
	ProfileID string
	Slug      string
	// Fields lists the profile columns changed by a merge.
	Fields []string
	// Tags are the cultural tags attached on create.
	Tags []taxonomy.Match
	// Reason explains a skip.
	Reason string
}

// Skip reasons.
const (
	ReasonClaimed   = "claimed"
	ReasonUnchanged = "unchanged"
)

const (
	placeholderDomain = "vivahvendors.placeholder"
	listingSuffix     = "-services"
)

// Writer creates new catalog vendors and merges into existing unclaimed ones.
type Writer struct {
	store  Catalog
	mapper *taxonomy.Mapper
	now    func() time.Time
	log    *zap.Logger
}

// NewWriter creates a Writer. mapper resolves categories and cultural tags
// on the create path.
func NewWriter(store Catalog, mapper *taxonomy.Mapper) *Writer {
	return &Writer{
		store:  store,
		mapper: mapper,
		now:    time.Now,
		log:    zap.L().With(zap.String("component", "ingest")),
	}
}

// Write creates v when matchedID is empty, otherwise merges v into the
// matched profile. Each path commits in a single transaction.
func (w *Writer) Write(ctx context.Context, v *model.NormalizedVendor, matchedID string) (Result, error) {
	if matchedID == "" {
		return w.create(ctx, v)
	}
	return w.merge(ctx, v, matchedID)
}

func (w *Writer) link(v *model.NormalizedVendor) catalog.SourceLink {
	return catalog.SourceLink{
		SourceName:    v.Source,
		SourceURL:     v.SourceURL,
		ExternalID:    v.ExternalID,
		LastScrapedAt: w.now().UTC(),
	}
}

func (w *Writer) create(ctx context.Context, v *model.NormalizedVendor) (Result, error) {
	slug, err := catalog.UniqueSlug(ctx, catalog.Slugify(v.BusinessName), w.store.ProfileSlugExists)
	if err != nil {
		return Result{}, eris.Wrap(err, "ingest: profile slug")
	}
	listingSlug, err := catalog.UniqueSlug(ctx, slug+listingSuffix, w.store.ListingSlugExists)
	if err != nil {
		return Result{}, eris.Wrap(err, "ingest: listing slug")
	}

	tags := w.mapper.MapKeywords(v.CulturalKeywords, v.BusinessName)
	termIDs := make([]string, 0, len(tags))
	for _, t := range tags {
		termIDs = append(termIDs, t.TermID)
	}

	description := v.Description
	if description == "" {
		description = defaultDescription(v)
	}

	nv := &catalog.NewVendor{
		OwnerID:    uuid.NewString(),
		OwnerEmail: fmt.Sprintf("unclaimed-%s@%s", slug, placeholderDomain),
		OwnerName:  v.BusinessName,
		Profile: catalog.Profile{
			ID:            uuid.NewString(),
			BusinessName:  v.BusinessName,
			Slug:          slug,
			Description:   v.Description,
			ContactPhone:  v.Phone,
			ContactEmail:  v.Email,
			WebsiteURL:    v.Website,
			Country:       v.Country,
			State:         v.State,
			City:          v.City,
			Address:       v.Address,
			PostalCode:    v.PostalCode,
			Latitude:      v.Latitude,
			Longitude:     v.Longitude,
			AverageRating: v.Rating,
			TotalReviews:  v.ReviewCount,
		},
		ListingID:          uuid.NewString(),
		ListingSlug:        listingSlug,
		ListingTitle:       v.BusinessName + " — Wedding Services",
		ListingDescription: description,
		PriceType:          catalog.PriceOnRequest,
		Published:          true,
		Images:             v.Images,
		CategoryIDs:        w.mapper.MapCategories(v.Categories),
		TermIDs:            termIDs,
		Link:               w.link(v),
	}

	if err := w.store.CreateVendor(ctx, nv); err != nil {
		return Result{}, eris.Wrapf(err, "ingest: create %q", v.BusinessName)
	}

	w.log.Debug("vendor created",
		zap.String("profile_id", nv.Profile.ID),
		zap.String("slug", slug),
		zap.Int("categories", len(nv.CategoryIDs)),
		zap.Int("tags", len(tags)),
	)
	return Result{Outcome: Created, ProfileID: nv.Profile.ID, Slug: slug, Tags: tags}, nil
}

func defaultDescription(v *model.NormalizedVendor) string {
	if v.City == "" {
		return v.BusinessName + " offers wedding services."
	}
	return fmt.Sprintf("%s offers wedding services in %s.", v.BusinessName, v.City)
}

func (w *Writer) merge(ctx context.Context, v *model.NormalizedVendor, id string) (Result, error) {
	p, err := w.store.GetProfile(ctx, id)
	if err != nil {
		return Result{}, eris.Wrapf(err, "ingest: load matched profile %s", id)
	}
	if p.Claimed {
		return Result{Outcome: Skipped, ProfileID: id, Slug: p.Slug, Reason: ReasonClaimed}, nil
	}

	locked, err := w.store.FieldOverrides(ctx, id)
	if err != nil {
		return Result{}, eris.Wrapf(err, "ingest: load overrides %s", id)
	}

	upd := buildUpdate(p, v, locked)
	if upd.IsEmpty() {
		return Result{Outcome: Skipped, ProfileID: id, Slug: p.Slug, Reason: ReasonUnchanged}, nil
	}

	if err := w.store.UpdateProfile(ctx, id, upd, w.link(v)); err != nil {
		// Claimed between the read above and the update.
		if errors.Is(err, catalog.ErrClaimed) {
			return Result{Outcome: Skipped, ProfileID: id, Slug: p.Slug, Reason: ReasonClaimed}, nil
		}
		return Result{}, eris.Wrapf(err, "ingest: update %q", v.BusinessName)
	}
	return Result{Outcome: Updated, ProfileID: id, Slug: p.Slug, Fields: upd.Fields()}, nil
}

// buildUpdate collects incoming values that are present, differ from the
// stored profile and are not locked. Rating and review count ignore locks.
func buildUpdate(p *catalog.Profile, v *model.NormalizedVendor, locked map[string]bool) catalog.ProfileUpdate {
	var upd catalog.ProfileUpdate
	text := func(field, incoming, stored string) *string {
		if incoming == "" || incoming == stored || locked[field] {
			return nil
		}
		return &incoming
	}
	upd.Description = text(model.FieldDescription, v.Description, p.Description)
	upd.ContactPhone = text(model.FieldContactPhone, v.Phone, p.ContactPhone)
	upd.ContactEmail = text(model.FieldContactEmail, v.Email, p.ContactEmail)
	upd.WebsiteURL = text(model.FieldWebsiteURL, v.Website, p.WebsiteURL)

	if v.Rating != nil && (p.AverageRating == nil || *p.AverageRating != *v.Rating) {
		upd.AverageRating = v.Rating
	}
	if v.ReviewCount != nil && (p.TotalReviews == nil || *p.TotalReviews != *v.ReviewCount) {
		upd.TotalReviews = v.ReviewCount
	}
	return upd
}
