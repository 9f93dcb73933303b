package model

import "strings"

// RawVendor is a single discovery record as produced by a source adapter.
// Optional strings are empty when the source did not provide them.
type RawVendor struct {
	Source       string `json:"source"`
	SourceURL    string `json:"source_url"`
	ExternalID   string `json:"external_id,omitempty"`
	BusinessName string `json:"business_name"`
	Description  string `json:"description,omitempty"`
	Website      string `json:"website,omitempty"`
	Email        string `json:"email,omitempty"`
	Phone        string `json:"phone,omitempty"`

	Country    string   `json:"country,omitempty"`
	State      string   `json:"state,omitempty"`
	City       string   `json:"city,omitempty"`
	Address    string   `json:"address,omitempty"`
	PostalCode string   `json:"postal_code,omitempty"`
	Latitude   *float64 `json:"latitude,omitempty"`
	Longitude  *float64 `json:"longitude,omitempty"`

	Categories       []string `json:"categories,omitempty"`
	Rating           *float64 `json:"rating,omitempty"`
	ReviewCount      *int     `json:"review_count,omitempty"`
	CulturalKeywords []string `json:"cultural_keywords,omitempty"`
	Images           []string `json:"images,omitempty"`
}

// NormalizedVendor is a RawVendor that passed normalization: text trimmed,
// phone/email/website cleaned, country reduced to an ISO alpha-2 code,
// categories and keywords lower-cased.
type NormalizedVendor RawVendor

// HasLocation reports whether both coordinates are present.
func (v *NormalizedVendor) HasLocation() bool {
	return v.Latitude != nil && v.Longitude != nil
}

// PhoneDigits returns only the digits of the cleaned phone.
func (v *NormalizedVendor) PhoneDigits() string {
	return Digits(v.Phone)
}

// Digits strips everything but ASCII digits from s.
func Digits(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Field names that can be locked by a field override.
const (
	FieldDescription  = "description"
	FieldContactPhone = "contact_phone"
	FieldContactEmail = "contact_email"
	FieldWebsiteURL   = "website_url"
)

// OverridableFields lists every field name a FieldOverride may lock.
var OverridableFields = []string{
	FieldDescription,
	FieldContactPhone,
	FieldContactEmail,
	FieldWebsiteURL,
}

// Float64Ptr returns a pointer to v.
func Float64Ptr(v float64) *float64 { return &v }

// IntPtr returns a pointer to v.
func IntPtr(v int) *int { return &v }
