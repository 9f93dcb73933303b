package source

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/vivahvendors/vendor-crawler/internal/model"
	"github.com/vivahvendors/vendor-crawler/internal/resilience"
	"github.com/vivahvendors/vendor-crawler/pkg/google"
)

// GooglePlacesName is the registry name of the Places adapter.
const GooglePlacesName = "google-places"

// GooglePlaces discovers vendors through Places Text Search, one sub-query
// per wedding category.
type GooglePlaces struct {
	client google.Client
	pacing Pacing
	retry  resilience.Policy
	log    *zap.Logger
}

// NewGooglePlaces returns the Places adapter. A nil client leaves the
// adapter inactive.
func NewGooglePlaces(client google.Client, pacing Pacing, retry resilience.Policy) *GooglePlaces {
	return &GooglePlaces{
		client: client,
		pacing: pacing,
		retry:  retry,
		log:    zap.L().With(zap.String("component", "source"), zap.String("source", GooglePlacesName)),
	}
}

// Name implements Adapter.
func (g *GooglePlaces) Name() string { return GooglePlacesName }

// Active reports whether an API client is configured.
func (g *GooglePlaces) Active() bool { return g.client != nil }

// Scrape implements Adapter. Each category is paged until MaxResults places
// were yielded or the API has no further page.
func (g *GooglePlaces) Scrape(ctx context.Context, cfg ScrapeConfig) iter.Seq[model.RawVendor] {
	return func(yield func(model.RawVendor) bool) {
		if !g.Active() {
			g.log.Warn("google places adapter inactive: no api key configured")
			return
		}

		pacer := NewPacer(g.pacing)
		limit := maxResults(cfg)
		for _, category := range categoriesFor(cfg) {
			if err := pacer.WaitBatch(ctx); err != nil {
				return
			}
			query := fmt.Sprintf("%s in %s, %s", category, cfg.City, cfg.Region)

			var token string
			for found := 0; found < limit; {
				resp, err := g.search(ctx, google.TextSearchRequest{
					TextQuery:  query,
					PageSize:   min(limit-found, google.MaxPageSize),
					PageToken:  token,
					RegionCode: regionCode(cfg.Region),
				})
				if err != nil {
					if ctx.Err() != nil {
						return
					}
					g.log.Warn("google places query failed, skipping",
						zap.String("query", query),
						zap.Error(err),
					)
					break
				}

				for _, place := range resp.Places {
					if found >= limit {
						break
					}
					if err := pacer.WaitItem(ctx); err != nil {
						return
					}
					if !yield(placeToRaw(place, category, cfg)) {
						return
					}
					found++
				}

				if resp.NextPageToken == "" || len(resp.Places) == 0 {
					break
				}
				token = resp.NextPageToken
			}
		}
	}
}

func (g *GooglePlaces) search(ctx context.Context, req google.TextSearchRequest) (*google.TextSearchResponse, error) {
	policy := g.retry
	if policy.OnRetry == nil {
		policy.OnRetry = resilience.RetryLogger(GooglePlacesName, req.TextQuery)
	}
	return resilience.DoVal(ctx, policy, func(ctx context.Context) (*google.TextSearchResponse, error) {
		resp, err := g.client.TextSearch(ctx, req)
		if err != nil {
			var se *google.StatusError
			if errors.As(err, &se) && resilience.IsTransientHTTPStatus(se.StatusCode) {
				return nil, resilience.NewTransientError(err, se.StatusCode)
			}
			return nil, err
		}
		return resp, nil
	})
}

// regionCode passes two-letter regions through as the Places region bias.
func regionCode(region string) string {
	region = strings.TrimSpace(region)
	if len(region) == 2 {
		return strings.ToUpper(region)
	}
	return ""
}

func placeToRaw(p google.Place, category string, cfg ScrapeConfig) model.RawVendor {
	name := p.DisplayName.Text
	v := model.RawVendor{
		Source:       GooglePlacesName,
		SourceURL:    "https://maps.google.com/?q=" + url.QueryEscape(name),
		ExternalID:   p.ID,
		BusinessName: name,
		Website:      p.WebsiteURI,
		Phone:        p.NationalPhoneNumber,
		Address:      p.FormattedAddress,
		City:         p.Component("locality"),
		State:        p.Component("administrative_area_level_1"),
		PostalCode:   p.Component("postal_code"),
		Country:      p.ShortComponent("country"),
		Categories:   []string{category},
	}
	if v.Phone == "" {
		v.Phone = p.InternationalPhoneNumber
	}
	if v.City == "" {
		v.City = cfg.City
	}
	if v.Country == "" {
		v.Country = cfg.Region
	}
	if p.Location != nil {
		v.Latitude = model.Float64Ptr(p.Location.Latitude)
		v.Longitude = model.Float64Ptr(p.Location.Longitude)
	}
	if p.Rating > 0 {
		v.Rating = model.Float64Ptr(p.Rating)
	}
	if p.UserRatingCount > 0 {
		v.ReviewCount = model.IntPtr(p.UserRatingCount)
	}
	return v
}
