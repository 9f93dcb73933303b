package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vivahvendors/vendor-crawler/internal/model"
)

func TestNormalize_RejectsShortNames(t *testing.T) {
	for _, name := range []string{"", " ", "A", "  B  ", "\tम\n"} {
		_, ok := Normalize(model.RawVendor{BusinessName: name, City: "Chennai"})
		assert.False(t, ok, "name %q", name)
	}
}

func TestNormalize_AcceptsTwoCharacters(t *testing.T) {
	v, ok := Normalize(model.RawVendor{BusinessName: "  AB "})
	require.True(t, ok)
	assert.Equal(t, "AB", v.BusinessName)
}

func TestNormalize_Rajesh(t *testing.T) {
	v, ok := Normalize(model.RawVendor{
		Source:           "google-places",
		BusinessName:     " Rajesh Photography Studio ",
		City:             " Chennai",
		Country:          "India",
		Categories:       []string{" Wedding Photographer "},
		CulturalKeywords: []string{"Hindu", " TAMIL", " "},
		Phone:            "+91 98765-43210 ext",
		Email:            " Info@Rajesh.IN ",
		Website:          "rajesh.in",
		Rating:           model.Float64Ptr(4.6),
	})
	require.True(t, ok)

	assert.Equal(t, "Rajesh Photography Studio", v.BusinessName)
	assert.Equal(t, "Chennai", v.City)
	assert.Equal(t, "IN", v.Country)
	assert.Equal(t, []string{"wedding photographer"}, v.Categories)
	assert.Equal(t, []string{"hindu", "tamil"}, v.CulturalKeywords)
	assert.Equal(t, "+91 98765-43210", v.Phone)
	assert.Equal(t, "info@rajesh.in", v.Email)
	assert.Equal(t, "https://rajesh.in", v.Website)
	require.NotNil(t, v.Rating)
	assert.InDelta(t, 4.6, *v.Rating, 0.0001)
}

func TestCleanPhone(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"+91 (44) 2345-6789", "+91 (44) 2345-6789"},
		{"Tel: 044.2345.6789", "04423456789"},
		{"12345", ""},
		{"abc", ""},
		{"", ""},
		{"  98765 43210  ", "98765 43210"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, CleanPhone(tt.in))
		})
	}
}

func TestCleanPhone_Idempotent(t *testing.T) {
	for _, in := range []string{"+91 (44) 2345-6789", "Tel: 044.2345.6789", "123", "x+1 555 0100 y"} {
		once := CleanPhone(in)
		assert.Equal(t, once, CleanPhone(once), in)
	}
}

func TestCleanEmail(t *testing.T) {
	assert.Equal(t, "a@b.com", CleanEmail(" A@B.com "))
	assert.Equal(t, "", CleanEmail("not-an-email"))
	assert.Equal(t, "", CleanEmail(""))
}

func TestCleanWebsite(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"example.com", "https://example.com"},
		{"www.example.com/path", "https://www.example.com/path"},
		{"http://example.com", "http://example.com"},
		{"HTTPS://example.com", "HTTPS://example.com"},
		{"//cdn.example.com", "https://cdn.example.com"},
		{"  ", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, CleanWebsite(tt.in))
		})
	}
}

func TestCountryCode(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"India", "IN"},
		{" india ", "IN"},
		{"USA", "US"},
		{"United States", "US"},
		{"UK", "GB"},
		{"United Kingdom", "GB"},
		{"in", "IN"},
		{"France", "FRANCE"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, CountryCode(tt.in))
		})
	}
}

func TestNormalize_Deterministic(t *testing.T) {
	raw := model.RawVendor{BusinessName: "Sri Caterers", Phone: "98400 12345", Categories: []string{"Caterer"}}
	a, okA := Normalize(raw)
	b, okB := Normalize(raw)
	require.True(t, okA)
	require.True(t, okB)
	assert.Equal(t, a, b)
}
