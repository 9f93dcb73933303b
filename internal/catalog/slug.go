package catalog

import (
	"context"
	"strconv"
	"strings"
	"unicode"

	"github.com/rotisserie/eris"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// fallbackSlug is used when a name has no slug-safe characters.
const fallbackSlug = "vendor"

// maxSlugAttempts bounds the collision suffix search.
const maxSlugAttempts = 1000

// Slugify folds accents, lower-cases, maps '&' to "and", keeps ASCII letters
// and digits, and joins words with single dashes.
func Slugify(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	folded = strings.ReplaceAll(strings.ToLower(folded), "&", " and ")

	var b strings.Builder
	dash := false
	for _, r := range folded {
		switch {
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'):
			b.WriteRune(r)
			dash = false
		case unicode.IsSpace(r) || r == '-' || r == '_':
			if !dash && b.Len() > 0 {
				b.WriteByte('-')
				dash = true
			}
		}
	}

	slug := strings.TrimRight(b.String(), "-")
	if slug == "" {
		return fallbackSlug
	}
	return slug
}

// UniqueSlug returns base, or base-1, base-2, ... until exists reports false.
func UniqueSlug(ctx context.Context, base string, exists func(ctx context.Context, slug string) (bool, error)) (string, error) {
	candidate := base
	for n := 1; n <= maxSlugAttempts; n++ {
		taken, err := exists(ctx, candidate)
		if err != nil {
			return "", eris.Wrapf(err, "catalog: check slug %q", candidate)
		}
		if !taken {
			return candidate, nil
		}
		candidate = base + "-" + strconv.Itoa(n)
	}
	return "", eris.Errorf("catalog: no free slug for %q after %d attempts", base, maxSlugAttempts)
}
