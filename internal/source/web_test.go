package source

import (
	"context"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const jsonLDPage = `<html><head>
<title>Home | Shubh Mandap</title>
<meta name="keywords" content="Punjabi, Sikh">
<script type="application/ld+json">{"@context":"https://schema.org","@type":"WebSite","name":"ignored"}</script>
<script type="application/ld+json">
{"@context":"https://schema.org","@graph":[
  {"@type":"WebPage","name":"Home"},
  {"@type":["EventVenue","LocalBusiness"],
   "name":"Shubh Mandap Banquets",
   "description":"Banquet halls for Punjabi and Sikh weddings.",
   "telephone":"+91 11 2345 6789",
   "email":"mailto:events@shubhmandap.in",
   "url":"/",
   "image":[{"url":"/img/hall.jpg"},"https://cdn.example/lawn.jpg"],
   "keywords":"Punjabi, Sikh, Anand Karaj",
   "address":{"@type":"PostalAddress","streetAddress":"4 Ring Road","addressLocality":"New Delhi","addressRegion":"Delhi","postalCode":"110001","addressCountry":{"@type":"Country","name":"India"}},
   "geo":{"@type":"GeoCoordinates","latitude":"28.61","longitude":77.2},
   "aggregateRating":{"@type":"AggregateRating","ratingValue":"4.4","reviewCount":"312"}}
]}
</script>
</head><body><h1>Welcome</h1></body></html>`

const metaOnlyPage = `<html><head>
<title>  Mehndi Magic  </title>
<meta name="description" content="Bridal mehndi artists in Jaipur.">
<meta property="og:image" content="/og.png">
<meta name="keywords" content="Rajasthani, Marwari ,">
</head><body>
<a href="tel:+91-98290-11111">Call</a>
<a href="mailto:hello@mehndimagic.in?subject=Booking">Mail</a>
</body></html>`

func TestWeb_ExtractsJSONLD(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(jsonLDPage))
	}))
	defer srv.Close()

	web := NewWeb([]string{srv.URL + "/about"}, testFetcher(), Pacing{})
	got := slices.Collect(web.Scrape(context.Background(), ScrapeConfig{Region: "IN", City: "Delhi", Category: "venue"}))

	require.Len(t, got, 1)
	v := got[0]
	assert.Equal(t, "generic-web", v.Source)
	assert.Equal(t, srv.URL+"/about", v.SourceURL)
	assert.Equal(t, "Shubh Mandap Banquets", v.BusinessName)
	assert.Equal(t, "Banquet halls for Punjabi and Sikh weddings.", v.Description)
	assert.Equal(t, "+91 11 2345 6789", v.Phone)
	assert.Equal(t, "events@shubhmandap.in", v.Email)
	assert.Equal(t, srv.URL+"/", v.Website)
	assert.Equal(t, "4 Ring Road", v.Address)
	assert.Equal(t, "New Delhi", v.City)
	assert.Equal(t, "Delhi", v.State)
	assert.Equal(t, "110001", v.PostalCode)
	assert.Equal(t, "India", v.Country)
	assert.Equal(t, []string{"venue"}, v.Categories)
	assert.Equal(t, []string{"punjabi", "sikh", "anand karaj"}, v.CulturalKeywords)
	assert.Equal(t, []string{srv.URL + "/img/hall.jpg", "https://cdn.example/lawn.jpg"}, v.Images)
	require.NotNil(t, v.Latitude)
	assert.InDelta(t, 28.61, *v.Latitude, 0.0001)
	assert.InDelta(t, 77.2, *v.Longitude, 0.0001)
	require.NotNil(t, v.Rating)
	assert.InDelta(t, 4.4, *v.Rating, 0.0001)
	require.NotNil(t, v.ReviewCount)
	assert.Equal(t, 312, *v.ReviewCount)
}

func TestWeb_MetaFallbacks(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(metaOnlyPage))
	require.NoError(t, err)

	v, ok := extractVendor(doc, "https://mehndimagic.in/", ScrapeConfig{Region: "IN", City: "Jaipur"})
	require.True(t, ok)
	assert.Equal(t, "Mehndi Magic", v.BusinessName)
	assert.Equal(t, "Bridal mehndi artists in Jaipur.", v.Description)
	assert.Equal(t, "+91-98290-11111", v.Phone)
	assert.Equal(t, "hello@mehndimagic.in", v.Email)
	assert.Equal(t, "https://mehndimagic.in/", v.Website)
	assert.Equal(t, "Jaipur", v.City)
	assert.Equal(t, "IN", v.Country)
	assert.Equal(t, []string{"https://mehndimagic.in/og.png"}, v.Images)
	assert.Equal(t, []string{"rajasthani", "marwari"}, v.CulturalKeywords)
	assert.Empty(t, v.Categories)
}

func TestWeb_NoNameIsSkipped(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(`<html><body><p>under construction</p></body></html>`))
	require.NoError(t, err)

	_, ok := extractVendor(doc, "https://example.in/", ScrapeConfig{})
	assert.False(t, ok)
}

func TestWeb_FailedSeedSkipped(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/broken" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		_, _ = w.Write([]byte(metaOnlyPage))
	}))
	defer srv.Close()

	web := NewWeb([]string{srv.URL + "/broken", "  ", srv.URL + "/ok"}, testFetcher(), Pacing{})
	got := slices.Collect(web.Scrape(context.Background(), ScrapeConfig{City: "Jaipur"}))

	require.Len(t, got, 1)
	assert.Equal(t, "Mehndi Magic", got[0].BusinessName)
}

func TestWeb_Inactive(t *testing.T) {
	web := NewWeb(nil, testFetcher(), Pacing{})
	assert.False(t, web.Active())
	assert.Equal(t, "generic-web", web.Name())
	assert.Empty(t, slices.Collect(web.Scrape(context.Background(), ScrapeConfig{})))
}

func TestSplitKeywords(t *testing.T) {
	assert.Equal(t, []string{"hindu", "tamil brahmin"}, splitKeywords(" Hindu, Tamil Brahmin ,, "))
	assert.Nil(t, splitKeywords(""))
}
