package catalog

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"

	"github.com/vivahvendors/vendor-crawler/internal/db"
	"github.com/vivahvendors/vendor-crawler/internal/model"
	"github.com/vivahvendors/vendor-crawler/internal/taxonomy"
)

//go:embed schema_postgres.sql
var postgresSchema string

// PostgresStore implements Store using pgx. Profile locations are stored as
// PostGIS points.
type PostgresStore struct {
	pool db.Pool
}

// NewPostgresStore creates a new PostgresStore.
func NewPostgresStore(pool db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Migrate creates the catalog tables if they do not exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresSchema)
	return eris.Wrap(err, "catalog: migrate")
}

// Ping checks connectivity.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return eris.Wrap(s.pool.Ping(ctx), "catalog: ping")
}

// Close releases the pool.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

const refColumns = `id, business_name, COALESCE(city, '')`

func (s *PostgresStore) findOne(ctx context.Context, what, where string, arg any) (*ProfileRef, error) {
	var ref ProfileRef
	err := s.pool.QueryRow(ctx,
		`SELECT `+refColumns+` FROM vendor_profiles WHERE `+where+` ORDER BY created_at LIMIT 1`,
		arg,
	).Scan(&ref.ID, &ref.BusinessName, &ref.City)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "catalog: find by %s", what)
	}
	return &ref, nil
}

// FindByPhoneDigits returns the oldest profile whose phone digits contain digits.
func (s *PostgresStore) FindByPhoneDigits(ctx context.Context, digits string) (*ProfileRef, error) {
	return s.findOne(ctx, "phone", `contact_phone_digits LIKE '%' || $1 || '%'`, digits)
}

// FindByEmail returns the oldest profile with exactly this email.
func (s *PostgresStore) FindByEmail(ctx context.Context, email string) (*ProfileRef, error) {
	return s.findOne(ctx, "email", `contact_email = $1`, email)
}

// FindByWebsite returns the oldest profile with exactly this website.
func (s *PostgresStore) FindByWebsite(ctx context.Context, website string) (*ProfileRef, error) {
	return s.findOne(ctx, "website", `website_url = $1`, website)
}

// SearchByCityAndName returns profiles in city whose name contains nameToken.
func (s *PostgresStore) SearchByCityAndName(ctx context.Context, city, nameToken string, limit int) ([]ProfileRef, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+refColumns+` FROM vendor_profiles
		WHERE lower(city) = lower($1) AND business_name ILIKE '%' || $2 || '%' ESCAPE '\'
		ORDER BY created_at LIMIT $3`,
		city, escapeLike(nameToken), limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "catalog: search by city and name")
	}
	defer rows.Close()

	var refs []ProfileRef
	for rows.Next() {
		var ref ProfileRef
		if err := rows.Scan(&ref.ID, &ref.BusinessName, &ref.City); err != nil {
			return nil, eris.Wrap(err, "catalog: scan profile ref")
		}
		refs = append(refs, ref)
	}
	return refs, eris.Wrap(rows.Err(), "catalog: iterate profile refs")
}

// GetProfile fetches a profile by id. Returns ErrNotFound when missing.
func (s *PostgresStore) GetProfile(ctx context.Context, id string) (*Profile, error) {
	var p Profile
	var location []byte
	err := s.pool.QueryRow(ctx, `
		SELECT id, user_id, business_name, slug,
			COALESCE(description, ''), COALESCE(contact_phone, ''), COALESCE(contact_email, ''), COALESCE(website_url, ''),
			COALESCE(country, ''), COALESCE(state, ''), COALESCE(city, ''), COALESCE(address_line, ''), COALESCE(postal_code, ''),
			ST_AsEWKB(location), average_rating, total_reviews, is_claimed, is_active, created_at, updated_at
		FROM vendor_profiles WHERE id = $1`, id,
	).Scan(
		&p.ID, &p.UserID, &p.BusinessName, &p.Slug,
		&p.Description, &p.ContactPhone, &p.ContactEmail, &p.WebsiteURL,
		&p.Country, &p.State, &p.City, &p.Address, &p.PostalCode,
		&location, &p.AverageRating, &p.TotalReviews, &p.Claimed, &p.Active, &p.CreatedAt, &p.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "catalog: profile %s", id)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "catalog: get profile %s", id)
	}
	if p.Latitude, p.Longitude, err = DecodePoint(location); err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *PostgresStore) exists(ctx context.Context, query, arg string) (bool, error) {
	var ok bool
	if err := s.pool.QueryRow(ctx, query, arg).Scan(&ok); err != nil {
		return false, eris.Wrap(err, "catalog: exists")
	}
	return ok, nil
}

// ProfileSlugExists reports whether a profile already uses slug.
func (s *PostgresStore) ProfileSlugExists(ctx context.Context, slug string) (bool, error) {
	return s.exists(ctx, `SELECT EXISTS (SELECT 1 FROM vendor_profiles WHERE slug = $1)`, slug)
}

// ListingSlugExists reports whether a listing already uses slug.
func (s *PostgresStore) ListingSlugExists(ctx context.Context, slug string) (bool, error) {
	return s.exists(ctx, `SELECT EXISTS (SELECT 1 FROM vendor_listings WHERE slug = $1)`, slug)
}

// CreateVendor writes the owner, profile, listing, listing tags and source
// link in one transaction.
func (s *PostgresStore) CreateVendor(ctx context.Context, v *NewVendor) error {
	p := &v.Profile
	location, err := EncodePoint(p.Latitude, p.Longitude)
	if err != nil {
		return err
	}

	return db.WithTx(ctx, s.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx,
			`INSERT INTO users (id, email, name, role) VALUES ($1, $2, $3, 'VENDOR')`,
			v.OwnerID, v.OwnerEmail, v.OwnerName,
		); err != nil {
			return eris.Wrap(err, "catalog: insert owner")
		}

		if _, err := tx.Exec(ctx, `
			INSERT INTO vendor_profiles (
				id, user_id, business_name, slug, description,
				contact_phone, contact_phone_digits, contact_email, website_url,
				country, state, city, address_line, postal_code, location,
				average_rating, total_reviews, is_claimed, is_active
			) VALUES (
				$1, $2, $3, $4, $5,
				$6, $7, $8, $9,
				$10, $11, $12, $13, $14, ST_GeomFromEWKB($15),
				$16, $17, false, true
			)`,
			p.ID, v.OwnerID, p.BusinessName, p.Slug, nullIfEmpty(p.Description),
			nullIfEmpty(p.ContactPhone), nullIfEmpty(model.Digits(p.ContactPhone)), nullIfEmpty(p.ContactEmail), nullIfEmpty(p.WebsiteURL),
			nullIfEmpty(p.Country), nullIfEmpty(p.State), nullIfEmpty(p.City), nullIfEmpty(p.Address), nullIfEmpty(p.PostalCode), location,
			p.AverageRating, p.TotalReviews,
		); err != nil {
			return eris.Wrapf(err, "catalog: insert profile %s", p.Slug)
		}

		images := v.Images
		if images == nil {
			images = []string{}
		}
		if _, err := tx.Exec(ctx, `
			INSERT INTO vendor_listings (id, profile_id, slug, title, description, price_type, is_published, images)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			v.ListingID, p.ID, v.ListingSlug, v.ListingTitle, v.ListingDescription, v.PriceType, v.Published, images,
		); err != nil {
			return eris.Wrapf(err, "catalog: insert listing %s", v.ListingSlug)
		}

		for _, id := range v.CategoryIDs {
			if _, err := tx.Exec(ctx,
				`INSERT INTO listing_categories (listing_id, category_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
				v.ListingID, id,
			); err != nil {
				return eris.Wrap(err, "catalog: insert listing category")
			}
		}
		for _, id := range v.TermIDs {
			if _, err := tx.Exec(ctx,
				`INSERT INTO listing_cultural_tags (listing_id, term_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
				v.ListingID, id,
			); err != nil {
				return eris.Wrap(err, "catalog: insert cultural tag")
			}
		}

		link := v.Link
		link.ProfileID = p.ID
		return upsertLinkPG(ctx, tx, link)
	})
}

func upsertLinkPG(ctx context.Context, tx pgx.Tx, l SourceLink) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO vendor_source_links (profile_id, source_name, source_url, external_id, last_scraped_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (profile_id, source_name) DO UPDATE SET
			source_url = EXCLUDED.source_url,
			external_id = EXCLUDED.external_id,
			last_scraped_at = EXCLUDED.last_scraped_at`,
		l.ProfileID, l.SourceName, l.SourceURL, nullIfEmpty(l.ExternalID), l.LastScrapedAt,
	)
	return eris.Wrapf(err, "catalog: upsert source link %s/%s", l.ProfileID, l.SourceName)
}

// profileSetClauses renders the SET list for upd with placeholders starting
// at $start, and returns the matching args.
func profileSetClauses(upd ProfileUpdate, start int, placeholder func(n int) string) ([]string, []any) {
	var sets []string
	var args []any
	add := func(col string, val any) {
		sets = append(sets, fmt.Sprintf("%s = %s", col, placeholder(start+len(args))))
		args = append(args, val)
	}
	if upd.Description != nil {
		add("description", *upd.Description)
	}
	if upd.ContactPhone != nil {
		add("contact_phone", *upd.ContactPhone)
		add("contact_phone_digits", model.Digits(*upd.ContactPhone))
	}
	if upd.ContactEmail != nil {
		add("contact_email", *upd.ContactEmail)
	}
	if upd.WebsiteURL != nil {
		add("website_url", *upd.WebsiteURL)
	}
	if upd.AverageRating != nil {
		add("average_rating", *upd.AverageRating)
	}
	if upd.TotalReviews != nil {
		add("total_reviews", *upd.TotalReviews)
	}
	return sets, args
}

// UpdateProfile applies upd and upserts link in one transaction. Only
// unclaimed profiles are updated: it returns ErrClaimed for a claimed profile
// and ErrNotFound when the profile does not exist.
func (s *PostgresStore) UpdateProfile(ctx context.Context, id string, upd ProfileUpdate, link SourceLink) error {
	if upd.IsEmpty() {
		return nil
	}
	sets, args := profileSetClauses(upd, 2, func(n int) string { return fmt.Sprintf("$%d", n) })
	query := `UPDATE vendor_profiles SET ` + strings.Join(sets, ", ") + `, updated_at = now() WHERE id = $1 AND NOT is_claimed`

	return db.WithTx(ctx, s.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, query, append([]any{id}, args...)...)
		if err != nil {
			return eris.Wrapf(err, "catalog: update profile %s", id)
		}
		if tag.RowsAffected() == 0 {
			return noUpdatePG(ctx, tx, id)
		}
		link.ProfileID = id
		return upsertLinkPG(ctx, tx, link)
	})
}

// noUpdatePG explains an update that matched no unclaimed profile.
func noUpdatePG(ctx context.Context, tx pgx.Tx, id string) error {
	var claimed bool
	err := tx.QueryRow(ctx, `SELECT is_claimed FROM vendor_profiles WHERE id = $1`, id).Scan(&claimed)
	if errors.Is(err, pgx.ErrNoRows) {
		return eris.Wrapf(ErrNotFound, "catalog: profile %s", id)
	}
	if err != nil {
		return eris.Wrapf(err, "catalog: check claim %s", id)
	}
	if claimed {
		return eris.Wrapf(ErrClaimed, "catalog: profile %s", id)
	}
	return eris.Errorf("catalog: profile %s was not updated", id)
}

// SetClaimed marks a profile as claimed or unclaimed.
func (s *PostgresStore) SetClaimed(ctx context.Context, id string, claimed bool) error {
	tag, err := s.pool.Exec(ctx, `UPDATE vendor_profiles SET is_claimed = $2, updated_at = now() WHERE id = $1`, id, claimed)
	if err != nil {
		return eris.Wrapf(err, "catalog: set claimed %s", id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(ErrNotFound, "catalog: profile %s", id)
	}
	return nil
}

func (s *PostgresStore) querySlugs(ctx context.Context, what, query, id string) ([]string, error) {
	rows, err := s.pool.Query(ctx, query, id)
	if err != nil {
		return nil, eris.Wrapf(err, "catalog: query %s", what)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, eris.Wrapf(err, "catalog: scan %s", what)
		}
		out = append(out, v)
	}
	return out, eris.Wrapf(rows.Err(), "catalog: iterate %s", what)
}

// ProfileTerms returns the slugs of cultural tags on the profile's listings.
func (s *PostgresStore) ProfileTerms(ctx context.Context, profileID string) ([]string, error) {
	return s.querySlugs(ctx, "profile terms", `
		SELECT DISTINCT t.slug FROM listing_cultural_tags lt
		JOIN vendor_listings l ON l.id = lt.listing_id
		JOIN taxonomy_terms t ON t.id = lt.term_id
		WHERE l.profile_id = $1 ORDER BY t.slug`, profileID)
}

// ProfileCategories returns the slugs of categories on the profile's listings.
func (s *PostgresStore) ProfileCategories(ctx context.Context, profileID string) ([]string, error) {
	return s.querySlugs(ctx, "profile categories", `
		SELECT DISTINCT c.slug FROM listing_categories lc
		JOIN vendor_listings l ON l.id = lc.listing_id
		JOIN categories c ON c.id = lc.category_id
		WHERE l.profile_id = $1 ORDER BY c.slug`, profileID)
}

// FieldOverrides returns the set of locked field names for a profile.
func (s *PostgresStore) FieldOverrides(ctx context.Context, profileID string) (map[string]bool, error) {
	fields, err := s.querySlugs(ctx, "field overrides",
		`SELECT field_name FROM vendor_field_overrides WHERE profile_id = $1`, profileID)
	if err != nil {
		return nil, err
	}
	out := make(map[string]bool, len(fields))
	for _, f := range fields {
		out[f] = true
	}
	return out, nil
}

// SetFieldOverride locks field on a profile against pipeline writes.
func (s *PostgresStore) SetFieldOverride(ctx context.Context, profileID, field string) error {
	if !slices.Contains(model.OverridableFields, field) {
		return eris.Errorf("catalog: field %q cannot be overridden", field)
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO vendor_field_overrides (profile_id, field_name) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
		profileID, field,
	)
	return eris.Wrapf(err, "catalog: set field override %s/%s", profileID, field)
}

// SourceLinks returns the provenance links of a profile.
func (s *PostgresStore) SourceLinks(ctx context.Context, profileID string) ([]SourceLink, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT profile_id, source_name, source_url, COALESCE(external_id, ''), last_scraped_at
		FROM vendor_source_links WHERE profile_id = $1 ORDER BY source_name`, profileID)
	if err != nil {
		return nil, eris.Wrap(err, "catalog: query source links")
	}
	defer rows.Close()

	var links []SourceLink
	for rows.Next() {
		var l SourceLink
		if err := rows.Scan(&l.ProfileID, &l.SourceName, &l.SourceURL, &l.ExternalID, &l.LastScrapedAt); err != nil {
			return nil, eris.Wrap(err, "catalog: scan source link")
		}
		links = append(links, l)
	}
	return links, eris.Wrap(rows.Err(), "catalog: iterate source links")
}

// StartRun inserts a running crawl run.
func (s *PostgresStore) StartRun(ctx context.Context, source string) (*CrawlRun, error) {
	run := &CrawlRun{
		ID:        uuid.New().String(),
		Source:    source,
		Status:    RunRunning,
		StartedAt: time.Now().UTC(),
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO crawl_runs (id, source, status, started_at) VALUES ($1, $2, $3, $4)`,
		run.ID, run.Source, string(run.Status), run.StartedAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "catalog: start run")
	}
	return run, nil
}

// FinishRun records the final status and counts of a run.
func (s *PostgresStore) FinishRun(ctx context.Context, id string, status RunStatus, c RunCounts) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE crawl_runs SET status = $2, found = $3, created = $4, updated = $5, skipped = $6, errors = $7,
			completed_at = now()
		WHERE id = $1`,
		id, string(status), c.Found, c.Created, c.Updated, c.Skipped, c.Errors,
	)
	if err != nil {
		return eris.Wrapf(err, "catalog: finish run %s", id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(ErrNotFound, "catalog: run %s", id)
	}
	return nil
}

const runColumns = `id, source, status, found, created, updated, skipped, errors, started_at, completed_at`

type scannable interface {
	Scan(dest ...any) error
}

func scanRunPG(row scannable) (*CrawlRun, error) {
	var r CrawlRun
	var status string
	if err := row.Scan(&r.ID, &r.Source, &status, &r.Found, &r.Created, &r.Updated, &r.Skipped, &r.Errors, &r.StartedAt, &r.CompletedAt); err != nil {
		return nil, err
	}
	r.Status = RunStatus(status)
	return &r, nil
}

// GetRun fetches a run by id. Returns ErrNotFound when missing.
func (s *PostgresStore) GetRun(ctx context.Context, id string) (*CrawlRun, error) {
	r, err := scanRunPG(s.pool.QueryRow(ctx, `SELECT `+runColumns+` FROM crawl_runs WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "catalog: run %s", id)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "catalog: get run %s", id)
	}
	return r, nil
}

// ListRuns returns the most recent runs first.
func (s *PostgresStore) ListRuns(ctx context.Context, limit int) ([]CrawlRun, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+runColumns+` FROM crawl_runs ORDER BY started_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, eris.Wrap(err, "catalog: list runs")
	}
	defer rows.Close()

	var runs []CrawlRun
	for rows.Next() {
		r, err := scanRunPG(rows)
		if err != nil {
			return nil, eris.Wrap(err, "catalog: scan run")
		}
		runs = append(runs, *r)
	}
	return runs, eris.Wrap(rows.Err(), "catalog: iterate runs")
}

// LoadVocabulary reads active taxonomy terms and all categories.
func (s *PostgresStore) LoadVocabulary(ctx context.Context) (*taxonomy.Vocabulary, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT t.id, t.slug, ty.name FROM taxonomy_terms t
		JOIN taxonomy_types ty ON ty.id = t.taxonomy_type_id
		WHERE t.is_active`)
	if err != nil {
		return nil, eris.Wrap(err, "catalog: load taxonomy terms")
	}
	var terms []taxonomy.Term
	for rows.Next() {
		var t taxonomy.Term
		if err := rows.Scan(&t.ID, &t.Slug, &t.TypeName); err != nil {
			rows.Close()
			return nil, eris.Wrap(err, "catalog: scan taxonomy term")
		}
		terms = append(terms, t)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "catalog: iterate taxonomy terms")
	}

	rows, err = s.pool.Query(ctx, `SELECT id, slug FROM categories`)
	if err != nil {
		return nil, eris.Wrap(err, "catalog: load categories")
	}
	defer rows.Close()
	categories := make(map[string]string)
	for rows.Next() {
		var id, slug string
		if err := rows.Scan(&id, &slug); err != nil {
			return nil, eris.Wrap(err, "catalog: scan category")
		}
		categories[slug] = id
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "catalog: iterate categories")
	}

	return taxonomy.NewVocabulary(terms, categories), nil
}

// SeedVocabulary bulk-upserts the seed's categories, taxonomy types and terms
// in one transaction.
func (s *PostgresStore) SeedVocabulary(ctx context.Context, seed *taxonomy.Seed) (SeedCounts, error) {
	var catRows [][]any
	for _, c := range seed.CategoryRows() {
		catRows = append(catRows, []any{c.ID, c.Slug, c.Name, c.Icon, c.SortOrder})
	}
	var typeRows [][]any
	for _, t := range seed.TypeRows() {
		typeRows = append(typeRows, []any{t.ID, t.Name, t.DisplayName, t.SortOrder})
	}
	var termRows [][]any
	for _, t := range seed.TermRows() {
		termRows = append(termRows, []any{t.ID, t.TypeID, nullIfEmpty(t.ParentID), t.Slug, t.Name, nullIfEmpty(t.Region), t.SortOrder})
	}

	var counts SeedCounts
	err := db.WithTx(ctx, s.pool, func(tx pgx.Tx) error {
		n, err := db.BulkUpsertTx(ctx, tx, db.UpsertConfig{
			Table:        "categories",
			Columns:      []string{"id", "slug", "name", "icon_name", "sort_order"},
			ConflictKeys: []string{"slug"},
			UpdateCols:   []string{"name", "icon_name", "sort_order"},
		}, catRows)
		if err != nil {
			return eris.Wrap(err, "catalog: seed categories")
		}
		counts.Categories = n

		n, err = db.BulkUpsertTx(ctx, tx, db.UpsertConfig{
			Table:        "taxonomy_types",
			Columns:      []string{"id", "name", "display_name", "sort_order"},
			ConflictKeys: []string{"name"},
			UpdateCols:   []string{"display_name", "sort_order"},
		}, typeRows)
		if err != nil {
			return eris.Wrap(err, "catalog: seed taxonomy types")
		}
		counts.Types = n

		n, err = db.BulkUpsertTx(ctx, tx, db.UpsertConfig{
			Table:        "taxonomy_terms",
			Columns:      []string{"id", "taxonomy_type_id", "parent_id", "slug", "name", "region", "sort_order"},
			ConflictKeys: []string{"slug"},
			UpdateCols:   []string{"taxonomy_type_id", "parent_id", "name", "region", "sort_order"},
		}, termRows)
		if err != nil {
			return eris.Wrap(err, "catalog: seed taxonomy terms")
		}
		counts.Terms = n
		return nil
	})
	if err != nil {
		return SeedCounts{}, err
	}
	return counts, nil
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// escapeLike escapes LIKE wildcards so a name token matches literally.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
