// Package dedup decides whether a normalized vendor is already in the catalog.
package dedup

import (
	"context"
	"math"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/vivahvendors/vendor-crawler/internal/catalog"
	"github.com/vivahvendors/vendor-crawler/internal/model"
)

// Signal scores. The verdict takes the maximum, never the sum.
const (
	PhoneScore   = 40
	EmailScore   = 40
	WebsiteScore = 35
	NameMaxScore = 30

	// Threshold is the minimum score for a duplicate verdict.
	Threshold = 40

	// NameSimilarityMin is the similarity a name must exceed to score.
	NameSimilarityMin = 0.80

	// PhoneSuffixLen is how many trailing phone digits are matched.
	PhoneSuffixLen = 7

	// DefaultCandidateLimit bounds the city/name pre-filter scan.
	DefaultCandidateLimit = 50
)

// Signal names reported on a Verdict.
const (
	SignalPhone   = "phone"
	SignalEmail   = "email"
	SignalWebsite = "website"
	SignalName    = "name_city"
)

// Verdict is the outcome of a duplicate check.
type Verdict struct {
	IsDuplicate bool
	// MatchedID is set only when IsDuplicate is true.
	MatchedID string
	// Confidence is the raw best score, 0 to 40.
	Confidence int
	// Signal names the signal holding the best score, if any.
	Signal string
}

// Deduplicator scores candidates against the catalog.
type Deduplicator struct {
	finder         catalog.Finder
	candidateLimit int
	log            *zap.Logger
}

// Option configures a Deduplicator.
type Option func(*Deduplicator)

// WithCandidateLimit overrides the city/name pre-filter bound.
func WithCandidateLimit(n int) Option {
	return func(d *Deduplicator) {
		if n > 0 {
			d.candidateLimit = n
		}
	}
}

// New creates a Deduplicator reading from finder.
func New(finder catalog.Finder, opts ...Option) *Deduplicator {
	d := &Deduplicator{
		finder:         finder,
		candidateLimit: DefaultCandidateLimit,
		log:            zap.L().With(zap.String("component", "dedup")),
	}
	for _, o := range opts {
		o(d)
	}
	return d
}

type best struct {
	score  int
	id     string
	signal string
}

// offer records a flat signal; ties go to the later signal.
func (b *best) offer(score int, id, signal string) {
	if score >= b.score {
		b.score, b.id, b.signal = score, id, signal
	}
}

// Check evaluates every signal independently and returns the best one.
// Storage errors are returned as is to the per-candidate boundary.
func (d *Deduplicator) Check(ctx context.Context, v *model.NormalizedVendor) (Verdict, error) {
	var b best

	if digits := v.PhoneDigits(); len(digits) >= PhoneSuffixLen {
		ref, err := d.finder.FindByPhoneDigits(ctx, digits[len(digits)-PhoneSuffixLen:])
		if err != nil {
			return Verdict{}, eris.Wrap(err, "dedup: phone lookup")
		}
		if ref != nil {
			b.offer(PhoneScore, ref.ID, SignalPhone)
		}
	}

	if v.Email != "" {
		ref, err := d.finder.FindByEmail(ctx, v.Email)
		if err != nil {
			return Verdict{}, eris.Wrap(err, "dedup: email lookup")
		}
		if ref != nil {
			b.offer(EmailScore, ref.ID, SignalEmail)
		}
	}

	if v.Website != "" {
		ref, err := d.finder.FindByWebsite(ctx, v.Website)
		if err != nil {
			return Verdict{}, eris.Wrap(err, "dedup: website lookup")
		}
		if ref != nil {
			b.offer(WebsiteScore, ref.ID, SignalWebsite)
		}
	}

	if tokens := strings.Fields(v.BusinessName); v.City != "" && len(tokens) > 0 {
		refs, err := d.finder.SearchByCityAndName(ctx, v.City, tokens[0], d.candidateLimit)
		if err != nil {
			return Verdict{}, eris.Wrap(err, "dedup: name search")
		}
		for _, ref := range refs {
			sim := Similarity(v.BusinessName, ref.BusinessName)
			if sim <= NameSimilarityMin {
				continue
			}
			if score := int(math.Round(sim * NameMaxScore)); score > b.score {
				b.score, b.id, b.signal = score, ref.ID, SignalName
			}
		}
	}

	verdict := Verdict{
		IsDuplicate: b.score >= Threshold,
		Confidence:  b.score,
		Signal:      b.signal,
	}
	if verdict.IsDuplicate {
		verdict.MatchedID = b.id
	}

	d.log.Debug("dedup check",
		zap.String("business_name", v.BusinessName),
		zap.Bool("duplicate", verdict.IsDuplicate),
		zap.Int("confidence", verdict.Confidence),
		zap.String("signal", verdict.Signal),
	)
	return verdict, nil
}
