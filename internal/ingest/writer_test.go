package ingest

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vivahvendors/vendor-crawler/internal/catalog"
	"github.com/vivahvendors/vendor-crawler/internal/model"
	"github.com/vivahvendors/vendor-crawler/internal/taxonomy"
)

func newTestWriter(t *testing.T) (*Writer, *catalog.SQLiteStore) {
	t.Helper()
	ctx := context.Background()
	st, err := catalog.NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(ctx))
	_, err = st.SeedVocabulary(ctx, taxonomy.DefaultSeed())
	require.NoError(t, err)

	vocab, err := st.LoadVocabulary(ctx)
	require.NoError(t, err)
	return NewWriter(st, taxonomy.NewMapper(taxonomy.DefaultDictionary(), vocab)), st
}

func rajesh() *model.NormalizedVendor {
	return &model.NormalizedVendor{
		Source:           "google-places",
		SourceURL:        "https://maps.google.com/?q=Rajesh+Photography+Studio",
		ExternalID:       "place-1",
		BusinessName:     "Rajesh Photography Studio",
		Phone:            "+91 98400 12345",
		City:             "Chennai",
		Country:          "IN",
		Categories:       []string{"wedding photographer"},
		CulturalKeywords: []string{"hindu", "tamil"},
		Rating:           model.Float64Ptr(4.6),
		ReviewCount:      model.IntPtr(88),
	}
}

func TestWrite_CreatesVendor(t *testing.T) {
	w, st := newTestWriter(t)
	ctx := context.Background()

	res, err := w.Write(ctx, rajesh(), "")
	require.NoError(t, err)
	assert.Equal(t, Created, res.Outcome)
	assert.Equal(t, "rajesh-photography-studio", res.Slug)

	p, err := st.GetProfile(ctx, res.ProfileID)
	require.NoError(t, err)
	assert.False(t, p.Claimed)
	assert.True(t, p.Active)
	assert.Equal(t, "IN", p.Country)

	terms, err := st.ProfileTerms(ctx, res.ProfileID)
	require.NoError(t, err)
	assert.Equal(t, []string{"hindu", "tamil"}, terms)

	cats, err := st.ProfileCategories(ctx, res.ProfileID)
	require.NoError(t, err)
	assert.Equal(t, []string{"photographers"}, cats)

	links, err := st.SourceLinks(ctx, res.ProfileID)
	require.NoError(t, err)
	require.Len(t, links, 1)
	assert.Equal(t, "google-places", links[0].SourceName)
	assert.Equal(t, "place-1", links[0].ExternalID)
}

func TestWrite_SlugCollisionGetsSuffix(t *testing.T) {
	w, st := newTestWriter(t)
	ctx := context.Background()

	first, err := w.Write(ctx, rajesh(), "")
	require.NoError(t, err)

	other := rajesh()
	other.City = "Madurai"
	second, err := w.Write(ctx, other, "")
	require.NoError(t, err)

	assert.Equal(t, "rajesh-photography-studio", first.Slug)
	assert.Equal(t, "rajesh-photography-studio-1", second.Slug)

	taken, err := st.ListingSlugExists(ctx, "rajesh-photography-studio-services-1")
	require.NoError(t, err)
	assert.True(t, taken)
}

func TestWrite_ClaimedProfileIsSkipped(t *testing.T) {
	w, st := newTestWriter(t)
	ctx := context.Background()

	created, err := w.Write(ctx, rajesh(), "")
	require.NoError(t, err)
	require.NoError(t, st.SetClaimed(ctx, created.ProfileID, true))

	incoming := rajesh()
	incoming.Description = "Candid photography."
	incoming.Rating = model.Float64Ptr(4.9)
	res, err := w.Write(ctx, incoming, created.ProfileID)
	require.NoError(t, err)
	assert.Equal(t, Skipped, res.Outcome)
	assert.Equal(t, ReasonClaimed, res.Reason)

	p, err := st.GetProfile(ctx, created.ProfileID)
	require.NoError(t, err)
	assert.Empty(t, p.Description)
	assert.InDelta(t, 4.6, *p.AverageRating, 1e-9)
}

// staleClaimStore reports every profile as unclaimed, like a read that
// happened just before an owner claimed it.
type staleClaimStore struct {
	*catalog.SQLiteStore
}

func (s staleClaimStore) GetProfile(ctx context.Context, id string) (*catalog.Profile, error) {
	p, err := s.SQLiteStore.GetProfile(ctx, id)
	if err != nil {
		return nil, err
	}
	p.Claimed = false
	return p, nil
}

func TestWrite_ClaimRacingMergeIsSkipped(t *testing.T) {
	w, st := newTestWriter(t)
	ctx := context.Background()

	created, err := w.Write(ctx, rajesh(), "")
	require.NoError(t, err)
	before, err := st.GetProfile(ctx, created.ProfileID)
	require.NoError(t, err)
	require.NoError(t, st.SetClaimed(ctx, created.ProfileID, true))

	stale := NewWriter(staleClaimStore{st}, w.mapper)
	incoming := rajesh()
	incoming.Description = "Candid photography."
	res, err := stale.Write(ctx, incoming, created.ProfileID)
	require.NoError(t, err)
	assert.Equal(t, Skipped, res.Outcome)
	assert.Equal(t, ReasonClaimed, res.Reason)

	p, err := st.GetProfile(ctx, created.ProfileID)
	require.NoError(t, err)
	assert.Equal(t, before.Description, p.Description)
	assert.True(t, p.Claimed)
}

func TestWrite_DescriptionOverrideHolds(t *testing.T) {
	w, st := newTestWriter(t)
	ctx := context.Background()

	created, err := w.Write(ctx, rajesh(), "")
	require.NoError(t, err)
	require.NoError(t, st.SetFieldOverride(ctx, created.ProfileID, model.FieldDescription))

	incoming := rajesh()
	incoming.Description = "Overwritten by the crawler."
	incoming.Email = "hello@rajesh.example.com"
	incoming.ReviewCount = model.IntPtr(120)
	res, err := w.Write(ctx, incoming, created.ProfileID)
	require.NoError(t, err)
	assert.Equal(t, Updated, res.Outcome)
	assert.ElementsMatch(t, []string{"contact_email", "total_reviews"}, res.Fields)

	p, err := st.GetProfile(ctx, created.ProfileID)
	require.NoError(t, err)
	assert.Empty(t, p.Description)
	assert.Equal(t, "hello@rajesh.example.com", p.ContactEmail)
	assert.Equal(t, 120, *p.TotalReviews)
}

func TestWrite_UnchangedIsSkipped(t *testing.T) {
	w, _ := newTestWriter(t)
	ctx := context.Background()

	created, err := w.Write(ctx, rajesh(), "")
	require.NoError(t, err)

	res, err := w.Write(ctx, rajesh(), created.ProfileID)
	require.NoError(t, err)
	assert.Equal(t, Skipped, res.Outcome)
	assert.Equal(t, ReasonUnchanged, res.Reason)
}

func TestWrite_MissingMatchIsError(t *testing.T) {
	w, _ := newTestWriter(t)

	_, err := w.Write(context.Background(), rajesh(), "does-not-exist")
	require.Error(t, err)
	assert.True(t, errors.Is(err, catalog.ErrNotFound))
}

func TestBuildUpdate(t *testing.T) {
	stored := &catalog.Profile{
		Description:   "old",
		ContactPhone:  "+91 98400 12345",
		AverageRating: model.Float64Ptr(4.0),
	}
	v := &model.NormalizedVendor{
		Description: "new",
		Phone:       "+91 98400 12345",
		Website:     "https://example.com",
		Rating:      model.Float64Ptr(4.0),
		ReviewCount: model.IntPtr(10),
	}

	upd := buildUpdate(stored, v, map[string]bool{model.FieldWebsiteURL: true})
	require.NotNil(t, upd.Description)
	assert.Equal(t, "new", *upd.Description)
	assert.Nil(t, upd.ContactPhone, "same phone")
	assert.Nil(t, upd.WebsiteURL, "locked")
	assert.Nil(t, upd.AverageRating, "same rating")
	require.NotNil(t, upd.TotalReviews)
	assert.Equal(t, 10, *upd.TotalReviews)
}
