package source

import (
	"context"
	"iter"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/vivahvendors/vendor-crawler/internal/fetcher"
	"github.com/vivahvendors/vendor-crawler/internal/model"
)

// SpreadsheetName is the registry name of the sheet import adapter.
const SpreadsheetName = "spreadsheet"

// columnAliases maps a canonical field to the header names accepted for it.
// Headers are compared lower-cased with spaces and dashes folded to "_".
var columnAliases = map[string][]string{
	"name":        {"business_name", "name", "vendor", "vendor_name", "company"},
	"description": {"description", "about", "notes"},
	"website":     {"website", "website_url", "url", "site"},
	"email":       {"email", "contact_email", "e_mail"},
	"phone":       {"phone", "contact_phone", "mobile", "telephone", "phone_number"},
	"address":     {"address", "street", "street_address"},
	"city":        {"city", "town"},
	"state":       {"state", "region", "province"},
	"postal_code": {"postal_code", "pincode", "pin_code", "zip", "zip_code"},
	"country":     {"country"},
	"category":    {"category", "categories", "service", "type"},
	"keywords":    {"keywords", "tags", "cultural_keywords", "communities"},
	"rating":      {"rating"},
	"reviews":     {"reviews", "review_count", "total_reviews"},
	"latitude":    {"latitude", "lat"},
	"longitude":   {"longitude", "lng", "lon"},
	"image":       {"image", "image_url", "images", "photo"},
	"id":          {"id", "external_id", "vendor_id"},
}

// Spreadsheet imports vendors from an XLSX workbook or a CSV file with a
// header row. Each sheet is one sub-query.
type Spreadsheet struct {
	path   string
	sheet  string
	pacing Pacing
	log    *zap.Logger
}

// NewSpreadsheet returns the sheet adapter. An empty path leaves it inactive.
func NewSpreadsheet(path, sheet string, pacing Pacing) *Spreadsheet {
	return &Spreadsheet{
		path:   strings.TrimSpace(path),
		sheet:  sheet,
		pacing: pacing,
		log:    zap.L().With(zap.String("component", "source"), zap.String("source", SpreadsheetName)),
	}
}

// Name implements Adapter.
func (s *Spreadsheet) Name() string { return SpreadsheetName }

// Active reports whether a sheet path is configured.
func (s *Spreadsheet) Active() bool { return s.path != "" }

// Scrape implements Adapter. Rows outside cfg.City (when the row names a
// city) or cfg.Category (when set) are skipped.
func (s *Spreadsheet) Scrape(ctx context.Context, cfg ScrapeConfig) iter.Seq[model.RawVendor] {
	return func(yield func(model.RawVendor) bool) {
		if !s.Active() {
			s.log.Warn("spreadsheet adapter inactive: no path configured")
			return
		}

		sheets, err := fetcher.ReadSheets(s.path, s.sheet)
		if err != nil {
			s.log.Warn("spreadsheet read failed", zap.String("path", s.path), zap.Error(err))
			return
		}

		pacer := NewPacer(s.pacing)
		limit := maxResults(cfg)
		found := 0
		for _, sh := range sheets {
			if err := pacer.WaitBatch(ctx); err != nil {
				return
			}
			for _, rec := range sh.Records() {
				if found >= limit {
					return
				}
				v, ok := s.rowToRaw(foldKeys(rec), sh.Name, cfg)
				if !ok {
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
}

func (s *Spreadsheet) rowToRaw(rec map[string]string, sheetName string, cfg ScrapeConfig) (model.RawVendor, bool) {
	get := func(field string) string {
		for _, alias := range columnAliases[field] {
			if val := rec[alias]; val != "" {
				return val
			}
		}
		return ""
	}

	v := model.RawVendor{
		Source:       SpreadsheetName,
		SourceURL:    "file://" + s.path + "#" + url.PathEscape(sheetName),
		ExternalID:   get("id"),
		BusinessName: get("name"),
		Description:  get("description"),
		Website:      get("website"),
		Email:        get("email"),
		Phone:        get("phone"),
		Address:      get("address"),
		City:         get("city"),
		State:        get("state"),
		PostalCode:   get("postal_code"),
		Country:      get("country"),
	}
	if v.BusinessName == "" {
		return v, false
	}
	if v.City == "" {
		v.City = cfg.City
	} else if cfg.City != "" && !strings.EqualFold(v.City, cfg.City) {
		return v, false
	}
	if v.Country == "" {
		v.Country = cfg.Region
	}

	if cat := get("category"); cat != "" {
		v.Categories = splitList(cat)
	}
	if cfg.Category != "" {
		want := categoriesFor(cfg)[0]
		if len(v.Categories) > 0 && !containsCategory(v.Categories, want) {
			return v, false
		}
		if len(v.Categories) == 0 {
			v.Categories = []string{want}
		}
	}
	v.CulturalKeywords = splitKeywords(get("keywords"))
	v.Images = splitList(get("image"))

	if r, ok := parseFloat(get("rating")); ok {
		v.Rating = model.Float64Ptr(r)
	}
	if n, ok := parseCount(get("reviews")); ok {
		v.ReviewCount = model.IntPtr(n)
	}
	lat, okLat := number(get("latitude"))
	lng, okLng := number(get("longitude"))
	if okLat && okLng {
		v.Latitude = model.Float64Ptr(lat)
		v.Longitude = model.Float64Ptr(lng)
	}
	return v, true
}

func foldKeys(rec map[string]string) map[string]string {
	out := make(map[string]string, len(rec))
	r := strings.NewReplacer(" ", "_", "-", "_")
	for k, v := range rec {
		out[r.Replace(k)] = v
	}
	return out
}

// splitList splits a delimited cell into trimmed values.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ';' || r == '|' }) {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func containsCategory(list []string, want string) bool {
	for _, s := range list {
		if sameCategory(s, want) {
			return true
		}
	}
	return false
}
