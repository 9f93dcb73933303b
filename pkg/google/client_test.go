package google

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTextSearch_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/places:searchText", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("X-Goog-Api-Key"))
		assert.Contains(t, r.Header.Get("X-Goog-FieldMask"), "places.nationalPhoneNumber")
		assert.Contains(t, r.Header.Get("X-Goog-FieldMask"), "nextPageToken")

		var body TextSearchRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "wedding photographer in Chennai, IN", body.TextQuery)
		assert.Equal(t, 10, body.PageSize)

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(TextSearchResponse{
			Places: []Place{
				{
					ID:                  "ChIJ-rajesh",
					DisplayName:         DisplayName{Text: "Rajesh Photography Studio"},
					FormattedAddress:    "12 Anna Salai, Chennai, Tamil Nadu 600002, India",
					Location:            &LatLng{Latitude: 13.06, Longitude: 80.26},
					Rating:              4.6,
					UserRatingCount:     88,
					NationalPhoneNumber: "098400 12345",
					AddressComponents: []AddressComponent{
						{LongText: "Chennai", ShortText: "Chennai", Types: []string{"locality", "political"}},
						{LongText: "India", ShortText: "IN", Types: []string{"country", "political"}},
					},
				},
			},
			NextPageToken: "page-2",
		})
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL))
	resp, err := client.TextSearch(context.Background(), TextSearchRequest{
		TextQuery: "wedding photographer in Chennai, IN",
		PageSize:  10,
	})

	require.NoError(t, err)
	require.Len(t, resp.Places, 1)
	p := resp.Places[0]
	assert.Equal(t, "Rajesh Photography Studio", p.DisplayName.Text)
	assert.InDelta(t, 4.6, p.Rating, 0.001)
	assert.Equal(t, 88, p.UserRatingCount)
	require.NotNil(t, p.Location)
	assert.InDelta(t, 80.26, p.Location.Longitude, 0.001)
	assert.Equal(t, "Chennai", p.Component("locality"))
	assert.Equal(t, "IN", p.ShortComponent("country"))
	assert.Empty(t, p.Component("postal_code"))
	assert.Equal(t, "page-2", resp.NextPageToken)
}

func TestTextSearch_PageSizeCapped(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body TextSearchRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, MaxPageSize, body.PageSize)
		_ = json.NewEncoder(w).Encode(TextSearchResponse{})
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL))
	resp, err := client.TextSearch(context.Background(), TextSearchRequest{TextQuery: "caterer", PageSize: 60})

	require.NoError(t, err)
	assert.Empty(t, resp.Places)
}

func TestTextSearch_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error": "rate limit exceeded"}`)) //nolint:errcheck
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL))
	resp, err := client.TextSearch(context.Background(), TextSearchRequest{TextQuery: "test"})

	require.Error(t, err)
	assert.Nil(t, resp)
	assert.Contains(t, err.Error(), "429")

	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusTooManyRequests, se.StatusCode)
}

func TestTextSearch_ContextCanceled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := NewClient("test-key", WithBaseURL(srv.URL))
	resp, err := client.TextSearch(ctx, TextSearchRequest{TextQuery: "test"})

	assert.Error(t, err)
	assert.Nil(t, resp)
}
