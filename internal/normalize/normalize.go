// Package normalize cleans raw discovery records into the canonical vendor
// shape. It performs no I/O.
package normalize

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/vivahvendors/vendor-crawler/internal/model"
)

// MinNameLength is the minimum trimmed business-name length, in characters.
const MinNameLength = 2

// MinPhoneLength is the minimum length of a cleaned phone string.
const MinPhoneLength = 7

var (
	phoneStripRe = regexp.MustCompile(`[^\d+\-() ]`)
	schemeRe     = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9+.\-]*://`)
)

// countrySynonyms maps upper-cased country names to ISO 3166-1 alpha-2 codes.
var countrySynonyms = map[string]string{
	"INDIA":                    "IN",
	"BHARAT":                   "IN",
	"USA":                      "US",
	"U.S.A.":                   "US",
	"U.S.":                     "US",
	"UNITED STATES":            "US",
	"UNITED STATES OF AMERICA": "US",
	"UK":                       "GB",
	"U.K.":                     "GB",
	"UNITED KINGDOM":           "GB",
	"GREAT BRITAIN":            "GB",
	"ENGLAND":                  "GB",
	"UAE":                      "AE",
	"UNITED ARAB EMIRATES":     "AE",
	"CANADA":                   "CA",
	"AUSTRALIA":                "AU",
	"SINGAPORE":                "SG",
	"SRI LANKA":                "LK",
	"NEPAL":                    "NP",
	"MALAYSIA":                 "MY",
}

// Normalize cleans raw and reports whether the record is usable. A record is
// rejected only when its trimmed business name is shorter than MinNameLength.
func Normalize(raw model.RawVendor) (model.NormalizedVendor, bool) {
	name := strings.TrimSpace(raw.BusinessName)
	if utf8.RuneCountInString(name) < MinNameLength {
		return model.NormalizedVendor{}, false
	}

	return model.NormalizedVendor{
		Source:       raw.Source,
		SourceURL:    strings.TrimSpace(raw.SourceURL),
		ExternalID:   strings.TrimSpace(raw.ExternalID),
		BusinessName: name,
		Description:  strings.TrimSpace(raw.Description),
		Website:      CleanWebsite(raw.Website),
		Email:        CleanEmail(raw.Email),
		Phone:        CleanPhone(raw.Phone),

		Country:    CountryCode(raw.Country),
		State:      strings.TrimSpace(raw.State),
		City:       strings.TrimSpace(raw.City),
		Address:    strings.TrimSpace(raw.Address),
		PostalCode: strings.TrimSpace(raw.PostalCode),
		Latitude:   raw.Latitude,
		Longitude:  raw.Longitude,

		Categories:       lowerAll(raw.Categories),
		Rating:           raw.Rating,
		ReviewCount:      raw.ReviewCount,
		CulturalKeywords: lowerAll(raw.CulturalKeywords),
		Images:           trimAll(raw.Images),
	}, true
}

// CleanPhone keeps digits, '+', '-', '(', ')' and spaces. Results shorter than
// MinPhoneLength are treated as absent. CleanPhone is idempotent.
func CleanPhone(phone string) string {
	p := strings.TrimSpace(phoneStripRe.ReplaceAllString(phone, ""))
	if len(p) < MinPhoneLength {
		return ""
	}
	return p
}

// CleanEmail lower-cases the address and drops it when it has no '@'.
func CleanEmail(email string) string {
	e := strings.ToLower(strings.TrimSpace(email))
	if !strings.Contains(e, "@") {
		return ""
	}
	return e
}

// CleanWebsite guarantees an explicit scheme, defaulting to https.
func CleanWebsite(website string) string {
	w := strings.TrimSpace(website)
	if w == "" {
		return ""
	}
	if !schemeRe.MatchString(w) {
		w = "https://" + strings.TrimPrefix(w, "//")
	}
	return w
}

// CountryCode maps a country name through the synonym table and upper-cases
// the result. Unknown values are returned upper-cased.
func CountryCode(country string) string {
	c := strings.ToUpper(strings.TrimSpace(country))
	if code, ok := countrySynonyms[c]; ok {
		return code
	}
	return c
}

func lowerAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.ToLower(strings.TrimSpace(s)); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func trimAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
