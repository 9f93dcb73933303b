package source

import (
	"context"
	"fmt"
	"iter"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/vivahvendors/vendor-crawler/internal/catalog"
	"github.com/vivahvendors/vendor-crawler/internal/config"
	"github.com/vivahvendors/vendor-crawler/internal/fetcher"
	"github.com/vivahvendors/vendor-crawler/internal/model"
)

// DirectoryName is the registry name of the wedding directory adapter.
const DirectoryName = "wedmegood"

// directoryMaxPages bounds pagination of one category listing.
const directoryMaxPages = 10

var (
	numberRe = regexp.MustCompile(`\d+(?:\.\d+)?`)
	digitsRe = regexp.MustCompile(`\d[\d,]*`)
)

// Directory scrapes vendor cards from a wedding directory laid out as
// <base>/<city>/<category-slug>?page=N.
type Directory struct {
	baseURL   string
	selectors config.DirectorySelector
	fetch     fetcher.Fetcher
	pacing    Pacing
	log       *zap.Logger
}

// NewDirectory returns the directory adapter. An empty base URL leaves it
// inactive.
func NewDirectory(cfg config.DirectoryConfig, f fetcher.Fetcher, pacing Pacing) *Directory {
	return &Directory{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		selectors: cfg.Selectors,
		fetch:     f,
		pacing:    pacing,
		log:       zap.L().With(zap.String("component", "source"), zap.String("source", DirectoryName)),
	}
}

// Name implements Adapter.
func (d *Directory) Name() string { return DirectoryName }

// Active reports whether a directory base URL is configured.
func (d *Directory) Active() bool { return d.baseURL != "" && d.fetch != nil }

// Scrape implements Adapter.
func (d *Directory) Scrape(ctx context.Context, cfg ScrapeConfig) iter.Seq[model.RawVendor] {
	return func(yield func(model.RawVendor) bool) {
		if !d.Active() {
			d.log.Warn("directory adapter inactive: no base url configured")
			return
		}

		pacer := NewPacer(d.pacing)
		limit := maxResults(cfg)
		for _, category := range categoriesFor(cfg) {
			found := 0
			for page := 1; page <= directoryMaxPages && found < limit; page++ {
				if err := pacer.WaitBatch(ctx); err != nil {
					return
				}
				pageURL := d.pageURL(cfg.City, category, page)
				doc, err := d.fetch.Document(ctx, pageURL)
				if err != nil {
					if ctx.Err() != nil {
						return
					}
					d.log.Warn("directory page failed, skipping",
						zap.String("url", pageURL),
						zap.Error(err),
					)
					break
				}

				vendors := d.parseCards(doc, pageURL, category, cfg)
				if len(vendors) == 0 {
					break
				}
				for _, v := range vendors {
					if found >= limit {
						break
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
	}
}

func (d *Directory) pageURL(city, category string, page int) string {
	slug := catalog.Slugify(bareCategory(category))
	u := fmt.Sprintf("%s/%s/%s", d.baseURL, catalog.Slugify(city), slug)
	if page > 1 {
		u += "?page=" + strconv.Itoa(page)
	}
	return u
}

func (d *Directory) parseCards(doc *goquery.Document, pageURL, category string, cfg ScrapeConfig) []model.RawVendor {
	base, _ := url.Parse(pageURL)
	sel := d.selectors

	var out []model.RawVendor
	doc.Find(sel.Card).Each(func(_ int, card *goquery.Selection) {
		name := cleanText(card.Find(sel.Name).First().Text())
		if name == "" {
			return
		}
		v := model.RawVendor{
			Source:       DirectoryName,
			SourceURL:    pageURL,
			BusinessName: name,
			Address:      cleanText(card.Find(sel.Address).First().Text()),
			City:         cfg.City,
			Country:      cfg.Region,
			Categories:   []string{category},
		}
		if href, ok := card.Find(sel.Link).First().Attr("href"); ok {
			if link := resolve(base, href); link != "" {
				v.SourceURL = link
				v.ExternalID = link
			}
		}
		if r, ok := parseFloat(card.Find(sel.Rating).First().Text()); ok {
			v.Rating = model.Float64Ptr(r)
		}
		if n, ok := parseCount(card.Find(sel.Reviews).First().Text()); ok {
			v.ReviewCount = model.IntPtr(n)
		}
		if src, ok := imageSrc(card.Find(sel.Image).First()); ok {
			if img := resolve(base, src); img != "" {
				v.Images = []string{img}
			}
		}
		out = append(out, v)
	})
	return out
}

func imageSrc(s *goquery.Selection) (string, bool) {
	for _, attr := range []string{"src", "data-src"} {
		if v, ok := s.Attr(attr); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v), true
		}
	}
	return "", false
}

// resolve returns href as an absolute http(s) URL relative to base, or "".
func resolve(base *url.URL, href string) string {
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return ""
	}
	if base != nil {
		ref = base.ResolveReference(ref)
	}
	if ref.Scheme != "http" && ref.Scheme != "https" {
		return ""
	}
	return ref.String()
}

func cleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func parseFloat(s string) (float64, bool) {
	m := numberRe.FindString(s)
	if m == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(m, 64)
	return f, err == nil
}

func parseCount(s string) (int, bool) {
	m := digitsRe.FindString(s)
	if m == "" {
		return 0, false
	}
	n, err := strconv.Atoi(strings.ReplaceAll(m, ",", ""))
	return n, err == nil
}
