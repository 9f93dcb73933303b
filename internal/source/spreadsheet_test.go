package source

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const vendorCSV = `Business Name,Phone,E-mail,City,Country,Category,Tags,Rating,Total Reviews,Lat,Lng
Rajesh Photography Studio,098400 12345,rajesh@example.in,Chennai,India,wedding photographer,"Hindu, Tamil",4.6,88,13.06,80.26
Annapurna Caterers,022 2345 6789,,Mumbai,India,wedding caterer,Marathi,,,,
,000,,Chennai,,,,,,,
Kolam Decor,,,,,wedding decorator;wedding florist,,,,,
`

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "vendors.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestSpreadsheet_ReadsRows(t *testing.T) {
	path := writeCSV(t, vendorCSV)
	s := NewSpreadsheet(path, "", Pacing{})
	require.True(t, s.Active())

	got := slices.Collect(s.Scrape(context.Background(), ScrapeConfig{Region: "IN", City: "Chennai"}))

	// Mumbai row filtered, nameless row dropped, city-less row takes the run city.
	require.Len(t, got, 2)

	v := got[0]
	assert.Equal(t, "spreadsheet", v.Source)
	assert.Equal(t, "Rajesh Photography Studio", v.BusinessName)
	assert.Equal(t, "098400 12345", v.Phone)
	assert.Equal(t, "rajesh@example.in", v.Email)
	assert.Equal(t, "Chennai", v.City)
	assert.Equal(t, "India", v.Country)
	assert.Equal(t, []string{"wedding photographer"}, v.Categories)
	assert.Equal(t, []string{"hindu", "tamil"}, v.CulturalKeywords)
	require.NotNil(t, v.Rating)
	assert.InDelta(t, 4.6, *v.Rating, 0.0001)
	require.NotNil(t, v.ReviewCount)
	assert.Equal(t, 88, *v.ReviewCount)
	require.NotNil(t, v.Latitude)
	assert.InDelta(t, 80.26, *v.Longitude, 0.0001)
	assert.Contains(t, v.SourceURL, "vendors.csv")

	k := got[1]
	assert.Equal(t, "Kolam Decor", k.BusinessName)
	assert.Equal(t, "Chennai", k.City)
	assert.Equal(t, "IN", k.Country)
	assert.Equal(t, []string{"wedding decorator", "wedding florist"}, k.Categories)
	assert.Nil(t, k.Rating)
}

func TestSpreadsheet_CategoryFilter(t *testing.T) {
	path := writeCSV(t, vendorCSV)
	s := NewSpreadsheet(path, "", Pacing{})

	got := slices.Collect(s.Scrape(context.Background(), ScrapeConfig{City: "Chennai", Category: "florist"}))
	require.Len(t, got, 1)
	assert.Equal(t, "Kolam Decor", got[0].BusinessName)
}

func TestSpreadsheet_MaxResults(t *testing.T) {
	path := writeCSV(t, vendorCSV)
	s := NewSpreadsheet(path, "", Pacing{})

	got := slices.Collect(s.Scrape(context.Background(), ScrapeConfig{MaxResults: 2}))
	require.Len(t, got, 2)
	assert.Equal(t, "Annapurna Caterers", got[1].BusinessName)
}

func TestSpreadsheet_MissingFileYieldsNothing(t *testing.T) {
	s := NewSpreadsheet(filepath.Join(t.TempDir(), "missing.xlsx"), "", Pacing{})
	assert.Empty(t, slices.Collect(s.Scrape(context.Background(), ScrapeConfig{})))
}

func TestSpreadsheet_Inactive(t *testing.T) {
	s := NewSpreadsheet(" ", "", Pacing{})
	assert.False(t, s.Active())
	assert.Equal(t, "spreadsheet", s.Name())
}
