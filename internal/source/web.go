package source

import (
	"context"
	"encoding/json"
	"iter"
	"net/url"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/vivahvendors/vendor-crawler/internal/fetcher"
	"github.com/vivahvendors/vendor-crawler/internal/model"
)

// WebName is the registry name of the generic website adapter.
const WebName = "generic-web"

// businessTypes are schema.org types read as a vendor record. Any type
// ending in "Business" is accepted as well.
var businessTypes = map[string]bool{
	"Organization":        true,
	"LocalBusiness":       true,
	"ProfessionalService": true,
	"FoodEstablishment":   true,
	"EventVenue":          true,
	"Florist":             true,
	"Store":               true,
	"Restaurant":          true,
	"BeautySalon":         true,
}

// Web reads one vendor record from each configured vendor website, using
// schema.org JSON-LD with HTML meta tags as fallback.
type Web struct {
	seeds  []string
	fetch  fetcher.Fetcher
	pacing Pacing
	log    *zap.Logger
}

// NewWeb returns the website adapter. No seed URLs leaves it inactive.
func NewWeb(seeds []string, f fetcher.Fetcher, pacing Pacing) *Web {
	var clean []string
	for _, s := range seeds {
		if s = strings.TrimSpace(s); s != "" {
			clean = append(clean, s)
		}
	}
	return &Web{
		seeds:  clean,
		fetch:  f,
		pacing: pacing,
		log:    zap.L().With(zap.String("component", "source"), zap.String("source", WebName)),
	}
}

// Name implements Adapter.
func (w *Web) Name() string { return WebName }

// Active reports whether any seed URL is configured.
func (w *Web) Active() bool { return len(w.seeds) > 0 && w.fetch != nil }

// Scrape implements Adapter. Every seed site is one sub-query.
func (w *Web) Scrape(ctx context.Context, cfg ScrapeConfig) iter.Seq[model.RawVendor] {
	return func(yield func(model.RawVendor) bool) {
		if !w.Active() {
			w.log.Warn("web adapter inactive: no seed urls configured")
			return
		}

		pacer := NewPacer(w.pacing)
		limit := maxResults(cfg)
		found := 0
		for _, seed := range w.seeds {
			if found >= limit {
				return
			}
			if err := pacer.WaitBatch(ctx); err != nil {
				return
			}
			doc, err := w.fetch.Document(ctx, seed)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				w.log.Warn("web page failed, skipping", zap.String("url", seed), zap.Error(err))
				continue
			}

			v, ok := extractVendor(doc, seed, cfg)
			if !ok {
				w.log.Debug("web page has no business name", zap.String("url", seed))
				continue
			}
			if err := pacer.WaitItem(ctx); err != nil {
				return
			}
			if !yield(v) {
				return
			}
			found++
		}
	}
}

// ldBusiness is the subset of a schema.org LocalBusiness read from JSON-LD.
type ldBusiness struct {
	Type        any    `json:"@type"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Telephone   string `json:"telephone"`
	Email       string `json:"email"`
	URL         string `json:"url"`
	Image       any    `json:"image"`
	Keywords    any    `json:"keywords"`
	Address     any    `json:"address"`
	Geo         *struct {
		Latitude  any `json:"latitude"`
		Longitude any `json:"longitude"`
	} `json:"geo"`
	AggregateRating *struct {
		RatingValue any `json:"ratingValue"`
		ReviewCount any `json:"reviewCount"`
		RatingCount any `json:"ratingCount"`
	} `json:"aggregateRating"`
}

type ldAddress struct {
	StreetAddress   string `json:"streetAddress"`
	AddressLocality string `json:"addressLocality"`
	AddressRegion   string `json:"addressRegion"`
	PostalCode      string `json:"postalCode"`
	AddressCountry  any    `json:"addressCountry"`
}

func extractVendor(doc *goquery.Document, pageURL string, cfg ScrapeConfig) (model.RawVendor, bool) {
	base, _ := url.Parse(pageURL)
	v := model.RawVendor{
		Source:    WebName,
		SourceURL: pageURL,
		Website:   pageURL,
	}
	if cfg.Category != "" {
		v.Categories = categoriesFor(cfg)
	}

	if biz, ok := findBusiness(doc); ok {
		applyBusiness(&v, biz, base)
	}

	if v.BusinessName == "" {
		v.BusinessName = firstNonEmpty(
			metaContent(doc, `meta[property="og:site_name"]`),
			metaContent(doc, `meta[property="og:title"]`),
			cleanText(doc.Find("title").First().Text()),
			cleanText(doc.Find("h1").First().Text()),
		)
	}
	if v.Description == "" {
		v.Description = firstNonEmpty(
			metaContent(doc, `meta[name="description"]`),
			metaContent(doc, `meta[property="og:description"]`),
		)
	}
	if v.Phone == "" {
		v.Phone = hrefValue(doc, `a[href^="tel:"]`, "tel:")
	}
	if v.Email == "" {
		v.Email = hrefValue(doc, `a[href^="mailto:"]`, "mailto:")
	}
	if len(v.Images) == 0 {
		if img := resolve(base, metaContent(doc, `meta[property="og:image"]`)); img != "" {
			v.Images = []string{img}
		}
	}
	if len(v.CulturalKeywords) == 0 {
		v.CulturalKeywords = splitKeywords(metaContent(doc, `meta[name="keywords"]`))
	}
	if v.City == "" {
		v.City = cfg.City
	}
	if v.Country == "" {
		v.Country = cfg.Region
	}

	return v, v.BusinessName != ""
}

// findBusiness returns the first business object across the page's JSON-LD
// blocks, looking into arrays and @graph.
func findBusiness(doc *goquery.Document) (ldBusiness, bool) {
	var found ldBusiness
	var ok bool
	doc.Find(`script[type="application/ld+json"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		var raw any
		if err := json.Unmarshal([]byte(s.Text()), &raw); err != nil {
			return true
		}
		found, ok = searchLD(raw)
		return !ok
	})
	return found, ok
}

func searchLD(node any) (ldBusiness, bool) {
	switch n := node.(type) {
	case []any:
		for _, item := range n {
			if b, ok := searchLD(item); ok {
				return b, true
			}
		}
	case map[string]any:
		if isBusinessType(n["@type"]) {
			data, err := json.Marshal(n)
			if err != nil {
				return ldBusiness{}, false
			}
			var b ldBusiness
			if err := json.Unmarshal(data, &b); err != nil {
				return ldBusiness{}, false
			}
			return b, b.Name != ""
		}
		if g, ok := n["@graph"]; ok {
			return searchLD(g)
		}
	}
	return ldBusiness{}, false
}

func isBusinessType(t any) bool {
	for _, s := range stringsOf(t) {
		if businessTypes[s] || strings.HasSuffix(s, "Business") {
			return true
		}
	}
	return false
}

func applyBusiness(v *model.RawVendor, b ldBusiness, base *url.URL) {
	v.BusinessName = cleanText(b.Name)
	v.Description = strings.TrimSpace(b.Description)
	v.Phone = strings.TrimSpace(b.Telephone)
	v.Email = strings.TrimPrefix(strings.TrimSpace(b.Email), "mailto:")
	if u := resolve(base, b.URL); u != "" {
		v.Website = u
	}

	switch a := b.Address.(type) {
	case string:
		v.Address = strings.TrimSpace(a)
	case map[string]any:
		var addr ldAddress
		if data, err := json.Marshal(a); err == nil && json.Unmarshal(data, &addr) == nil {
			v.Address = strings.TrimSpace(addr.StreetAddress)
			v.City = strings.TrimSpace(addr.AddressLocality)
			v.State = strings.TrimSpace(addr.AddressRegion)
			v.PostalCode = strings.TrimSpace(addr.PostalCode)
			v.Country = countryName(addr.AddressCountry)
		}
	}

	if b.Geo != nil {
		lat, okLat := number(b.Geo.Latitude)
		lng, okLng := number(b.Geo.Longitude)
		if okLat && okLng {
			v.Latitude = model.Float64Ptr(lat)
			v.Longitude = model.Float64Ptr(lng)
		}
	}
	if r := b.AggregateRating; r != nil {
		if val, ok := number(r.RatingValue); ok {
			v.Rating = model.Float64Ptr(val)
		}
		count, ok := number(r.ReviewCount)
		if !ok {
			count, ok = number(r.RatingCount)
		}
		if ok {
			v.ReviewCount = model.IntPtr(int(count))
		}
	}

	for _, img := range imagesOf(b.Image) {
		if u := resolve(base, img); u != "" {
			v.Images = append(v.Images, u)
		}
	}
	switch k := b.Keywords.(type) {
	case string:
		v.CulturalKeywords = splitKeywords(k)
	case []any:
		for _, s := range stringsOf(k) {
			v.CulturalKeywords = append(v.CulturalKeywords, splitKeywords(s)...)
		}
	}
}

func countryName(c any) string {
	switch c := c.(type) {
	case string:
		return strings.TrimSpace(c)
	case map[string]any:
		if name, ok := c["name"].(string); ok {
			return strings.TrimSpace(name)
		}
	}
	return ""
}

func imagesOf(img any) []string {
	switch i := img.(type) {
	case string:
		return []string{i}
	case map[string]any:
		if u, ok := i["url"].(string); ok {
			return []string{u}
		}
	case []any:
		var out []string
		for _, item := range i {
			out = append(out, imagesOf(item)...)
		}
		return out
	}
	return nil
}

func stringsOf(v any) []string {
	switch t := v.(type) {
	case string:
		return []string{t}
	case []any:
		var out []string
		for _, item := range t {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

// number reads a JSON-LD numeric value given as a number or a string.
func number(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	}
	return 0, false
}

func metaContent(doc *goquery.Document, selector string) string {
	content, _ := doc.Find(selector).First().Attr("content")
	return strings.TrimSpace(content)
}

func hrefValue(doc *goquery.Document, selector, scheme string) string {
	href, ok := doc.Find(selector).First().Attr("href")
	if !ok {
		return ""
	}
	value := strings.TrimPrefix(strings.TrimSpace(href), scheme)
	if i := strings.IndexByte(value, '?'); i >= 0 {
		value = value[:i]
	}
	if unescaped, err := url.PathUnescape(value); err == nil {
		value = unescaped
	}
	return strings.TrimSpace(value)
}

// splitKeywords splits a comma-separated keyword list, lower-cased.
func splitKeywords(s string) []string {
	var out []string
	for _, k := range strings.Split(s, ",") {
		if k = strings.ToLower(strings.TrimSpace(k)); k != "" {
			out = append(out, k)
		}
	}
	return out
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
