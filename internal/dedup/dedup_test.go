package dedup

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vivahvendors/vendor-crawler/internal/model"
)

func catalogFixture() *mockFinder {
	return &mockFinder{profiles: []mockProfile{
		{id: "p1", name: "Rajesh Photography Studio", city: "Chennai", phone: "+91 98400 12345", email: "hello@rajesh.in", website: "https://rajesh.in"},
		{id: "p2", name: "Lotus Decorators", city: "Mumbai", website: "https://lotusdecor.in"},
		{id: "p3", name: "Anand Caterers", city: "Chennai", email: "anand@caterers.in"},
	}}
}

func TestCheck_PhoneMatchIsDuplicate(t *testing.T) {
	f := catalogFixture()
	d := New(f)

	// Different formatting and a different country prefix, same last 7 digits.
	v := &model.NormalizedVendor{BusinessName: "Totally Different Name", City: "Delhi", Phone: "0 98400-12345"}
	verdict, err := d.Check(context.Background(), v)
	require.NoError(t, err)

	assert.True(t, verdict.IsDuplicate)
	assert.Equal(t, "p1", verdict.MatchedID)
	assert.GreaterOrEqual(t, verdict.Confidence, 40)
	assert.Equal(t, SignalPhone, verdict.Signal)
	assert.Equal(t, []string{"0012345"}, f.phoneQueries)
}

func TestCheck_EmailMatch(t *testing.T) {
	d := New(catalogFixture())

	verdict, err := d.Check(context.Background(), &model.NormalizedVendor{BusinessName: "AC Events", Email: "anand@caterers.in"})
	require.NoError(t, err)
	assert.True(t, verdict.IsDuplicate)
	assert.Equal(t, "p3", verdict.MatchedID)
	assert.Equal(t, EmailScore, verdict.Confidence)
}

func TestCheck_WebsiteAloneBelowThreshold(t *testing.T) {
	d := New(catalogFixture())

	verdict, err := d.Check(context.Background(), &model.NormalizedVendor{BusinessName: "Lotus Events", Website: "https://lotusdecor.in"})
	require.NoError(t, err)
	assert.False(t, verdict.IsDuplicate)
	assert.Empty(t, verdict.MatchedID)
	assert.Equal(t, WebsiteScore, verdict.Confidence)
	assert.Equal(t, SignalWebsite, verdict.Signal)
}

func TestCheck_MaxNotSum(t *testing.T) {
	d := New(catalogFixture())

	// Phone, email and website all match: score stays 40.
	v := &model.NormalizedVendor{
		BusinessName: "Rajesh Photography Studio",
		City:         "Chennai",
		Phone:        "98400 12345",
		Email:        "hello@rajesh.in",
		Website:      "https://rajesh.in",
	}
	verdict, err := d.Check(context.Background(), v)
	require.NoError(t, err)
	assert.True(t, verdict.IsDuplicate)
	assert.Equal(t, 40, verdict.Confidence)
	assert.Equal(t, "p1", verdict.MatchedID)
	// Email ties phone and is evaluated later; website (35) does not displace it.
	assert.Equal(t, SignalEmail, verdict.Signal)
}

func TestCheck_NameOnlyNeverDuplicate(t *testing.T) {
	f := catalogFixture()
	d := New(f)

	verdict, err := d.Check(context.Background(), &model.NormalizedVendor{BusinessName: "Rajesh Photography Studio", City: "chennai"})
	require.NoError(t, err)
	assert.False(t, verdict.IsDuplicate)
	assert.Equal(t, 30, verdict.Confidence)
	assert.Equal(t, SignalName, verdict.Signal)
	assert.Equal(t, []string{"chennai|Rajesh"}, f.nameQueries)
}

func TestCheck_UnrelatedVendor(t *testing.T) {
	d := New(catalogFixture())

	v := &model.NormalizedVendor{
		BusinessName: "Golden Bells Music",
		City:         "Chennai",
		Phone:        "+91 44 2222 3333",
		Email:        "info@goldenbells.in",
		Website:      "https://goldenbells.in",
	}
	verdict, err := d.Check(context.Background(), v)
	require.NoError(t, err)
	assert.False(t, verdict.IsDuplicate)
	assert.Empty(t, verdict.MatchedID)
	assert.Zero(t, verdict.Confidence)
}

func TestCheck_NameBelowSimilarityIgnored(t *testing.T) {
	d := New(catalogFixture())

	// Shares the first token and city but similarity is well under 0.8.
	verdict, err := d.Check(context.Background(), &model.NormalizedVendor{BusinessName: "Rajesh Sweets", City: "Chennai"})
	require.NoError(t, err)
	assert.Zero(t, verdict.Confidence)
}

func TestCheck_ShortPhoneSkipped(t *testing.T) {
	f := catalogFixture()
	d := New(f)

	_, err := d.Check(context.Background(), &model.NormalizedVendor{BusinessName: "Tiny", Phone: "(12) 34-5"})
	require.NoError(t, err)
	assert.Empty(t, f.phoneQueries)
}

func TestCheck_NoCitySkipsNameSignal(t *testing.T) {
	f := catalogFixture()
	d := New(f)

	_, err := d.Check(context.Background(), &model.NormalizedVendor{BusinessName: "Rajesh Photography Studio"})
	require.NoError(t, err)
	assert.Empty(t, f.nameQueries)
}

func TestCheck_StorageError(t *testing.T) {
	f := catalogFixture()
	f.err = errors.New("connection refused")
	d := New(f)

	_, err := d.Check(context.Background(), &model.NormalizedVendor{BusinessName: "Any Vendor", Email: "a@b.c"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dedup: email lookup")
}

func TestWithCandidateLimit(t *testing.T) {
	d := New(&mockFinder{}, WithCandidateLimit(5))
	assert.Equal(t, 5, d.candidateLimit)

	d = New(&mockFinder{}, WithCandidateLimit(0))
	assert.Equal(t, DefaultCandidateLimit, d.candidateLimit)
}
