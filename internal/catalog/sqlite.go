package catalog

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/vivahvendors/vendor-crawler/internal/model"
	"github.com/vivahvendors/vendor-crawler/internal/taxonomy"
)

//go:embed schema_sqlite.sql
var sqliteSchema string

// SQLiteStore implements Store using modernc.org/sqlite. Locations are kept
// as plain latitude/longitude columns.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	db.SetMaxOpenConns(1)
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

// Migrate creates the catalog tables if they do not exist.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteSchema)
	return eris.Wrap(err, "sqlite: migrate")
}

// Ping checks the database handle.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return eris.Wrap(s.db.PingContext(ctx), "sqlite: ping")
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) findOne(ctx context.Context, what, where string, arg any) (*ProfileRef, error) {
	var ref ProfileRef
	err := s.db.QueryRowContext(ctx,
		`SELECT `+refColumns+` FROM vendor_profiles WHERE `+where+` ORDER BY created_at, rowid LIMIT 1`,
		arg,
	).Scan(&ref.ID, &ref.BusinessName, &ref.City)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: find by %s", what)
	}
	return &ref, nil
}

// FindByPhoneDigits returns the oldest profile whose phone digits contain digits.
func (s *SQLiteStore) FindByPhoneDigits(ctx context.Context, digits string) (*ProfileRef, error) {
	return s.findOne(ctx, "phone", `instr(contact_phone_digits, ?) > 0`, digits)
}

// FindByEmail returns the oldest profile with exactly this email.
func (s *SQLiteStore) FindByEmail(ctx context.Context, email string) (*ProfileRef, error) {
	return s.findOne(ctx, "email", `contact_email = ?`, email)
}

// FindByWebsite returns the oldest profile with exactly this website.
func (s *SQLiteStore) FindByWebsite(ctx context.Context, website string) (*ProfileRef, error) {
	return s.findOne(ctx, "website", `website_url = ?`, website)
}

// SearchByCityAndName returns profiles in city whose name contains nameToken.
func (s *SQLiteStore) SearchByCityAndName(ctx context.Context, city, nameToken string, limit int) ([]ProfileRef, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+refColumns+` FROM vendor_profiles
		WHERE lower(city) = lower(?) AND lower(business_name) LIKE '%' || lower(?) || '%' ESCAPE '\'
		ORDER BY created_at, rowid LIMIT ?`,
		city, escapeLike(nameToken), limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: search by city and name")
	}
	defer rows.Close() //nolint:errcheck

	var refs []ProfileRef
	for rows.Next() {
		var ref ProfileRef
		if err := rows.Scan(&ref.ID, &ref.BusinessName, &ref.City); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan profile ref")
		}
		refs = append(refs, ref)
	}
	return refs, eris.Wrap(rows.Err(), "sqlite: iterate profile refs")
}

// GetProfile fetches a profile by id. Returns ErrNotFound when missing.
func (s *SQLiteStore) GetProfile(ctx context.Context, id string) (*Profile, error) {
	var p Profile
	var rating sql.NullFloat64
	var reviews sql.NullInt64
	var lat, lng sql.NullFloat64
	err := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, business_name, slug,
			COALESCE(description, ''), COALESCE(contact_phone, ''), COALESCE(contact_email, ''), COALESCE(website_url, ''),
			COALESCE(country, ''), COALESCE(state, ''), COALESCE(city, ''), COALESCE(address_line, ''), COALESCE(postal_code, ''),
			latitude, longitude, average_rating, total_reviews, is_claimed, is_active, created_at, updated_at
		FROM vendor_profiles WHERE id = ?`, id,
	).Scan(
		&p.ID, &p.UserID, &p.BusinessName, &p.Slug,
		&p.Description, &p.ContactPhone, &p.ContactEmail, &p.WebsiteURL,
		&p.Country, &p.State, &p.City, &p.Address, &p.PostalCode,
		&lat, &lng, &rating, &reviews, &p.Claimed, &p.Active, &p.CreatedAt, &p.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "catalog: profile %s", id)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get profile %s", id)
	}
	if lat.Valid && lng.Valid {
		p.Latitude, p.Longitude = &lat.Float64, &lng.Float64
	}
	if rating.Valid {
		p.AverageRating = &rating.Float64
	}
	if reviews.Valid {
		n := int(reviews.Int64)
		p.TotalReviews = &n
	}
	return &p, nil
}

func (s *SQLiteStore) exists(ctx context.Context, query, arg string) (bool, error) {
	var ok bool
	if err := s.db.QueryRowContext(ctx, query, arg).Scan(&ok); err != nil {
		return false, eris.Wrap(err, "sqlite: exists")
	}
	return ok, nil
}

// ProfileSlugExists reports whether a profile already uses slug.
func (s *SQLiteStore) ProfileSlugExists(ctx context.Context, slug string) (bool, error) {
	return s.exists(ctx, `SELECT EXISTS (SELECT 1 FROM vendor_profiles WHERE slug = ?)`, slug)
}

// ListingSlugExists reports whether a listing already uses slug.
func (s *SQLiteStore) ListingSlugExists(ctx context.Context, slug string) (bool, error) {
	return s.exists(ctx, `SELECT EXISTS (SELECT 1 FROM vendor_listings WHERE slug = ?)`, slug)
}

func (s *SQLiteStore) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin tx")
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(tx); err != nil {
		return err
	}
	return eris.Wrap(tx.Commit(), "sqlite: commit tx")
}

// CreateVendor writes the owner, profile, listing, listing tags and source
// link in one transaction.
func (s *SQLiteStore) CreateVendor(ctx context.Context, v *NewVendor) error {
	p := &v.Profile
	now := time.Now().UTC()

	images, err := json.Marshal(nonNil(v.Images))
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal images")
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO users (id, email, name, role, created_at) VALUES (?, ?, ?, 'VENDOR', ?)`,
			v.OwnerID, v.OwnerEmail, v.OwnerName, now,
		); err != nil {
			return eris.Wrap(err, "sqlite: insert owner")
		}

		if _, err := tx.ExecContext(ctx, `
			INSERT INTO vendor_profiles (
				id, user_id, business_name, slug, description,
				contact_phone, contact_phone_digits, contact_email, website_url,
				country, state, city, address_line, postal_code, latitude, longitude,
				average_rating, total_reviews, is_claimed, is_active, created_at, updated_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 0, 1, ?, ?)`,
			p.ID, v.OwnerID, p.BusinessName, p.Slug, nullIfEmpty(p.Description),
			nullIfEmpty(p.ContactPhone), nullIfEmpty(model.Digits(p.ContactPhone)), nullIfEmpty(p.ContactEmail), nullIfEmpty(p.WebsiteURL),
			nullIfEmpty(p.Country), nullIfEmpty(p.State), nullIfEmpty(p.City), nullIfEmpty(p.Address), nullIfEmpty(p.PostalCode),
			p.Latitude, p.Longitude, p.AverageRating, p.TotalReviews, now, now,
		); err != nil {
			return eris.Wrapf(err, "sqlite: insert profile %s", p.Slug)
		}

		if _, err := tx.ExecContext(ctx, `
			INSERT INTO vendor_listings (id, profile_id, slug, title, description, price_type, is_published, images, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			v.ListingID, p.ID, v.ListingSlug, v.ListingTitle, v.ListingDescription, v.PriceType, v.Published, string(images), now,
		); err != nil {
			return eris.Wrapf(err, "sqlite: insert listing %s", v.ListingSlug)
		}

		for _, id := range v.CategoryIDs {
			if _, err := tx.ExecContext(ctx,
				`INSERT OR IGNORE INTO listing_categories (listing_id, category_id) VALUES (?, ?)`,
				v.ListingID, id,
			); err != nil {
				return eris.Wrap(err, "sqlite: insert listing category")
			}
		}
		for _, id := range v.TermIDs {
			if _, err := tx.ExecContext(ctx,
				`INSERT OR IGNORE INTO listing_cultural_tags (listing_id, term_id) VALUES (?, ?)`,
				v.ListingID, id,
			); err != nil {
				return eris.Wrap(err, "sqlite: insert cultural tag")
			}
		}

		link := v.Link
		link.ProfileID = p.ID
		return upsertLinkSQLite(ctx, tx, link)
	})
}

func upsertLinkSQLite(ctx context.Context, tx *sql.Tx, l SourceLink) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO vendor_source_links (profile_id, source_name, source_url, external_id, last_scraped_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (profile_id, source_name) DO UPDATE SET
			source_url = excluded.source_url,
			external_id = excluded.external_id,
			last_scraped_at = excluded.last_scraped_at`,
		l.ProfileID, l.SourceName, l.SourceURL, nullIfEmpty(l.ExternalID), l.LastScrapedAt.UTC(),
	)
	return eris.Wrapf(err, "sqlite: upsert source link %s/%s", l.ProfileID, l.SourceName)
}

// UpdateProfile applies upd and upserts link in one transaction. Only
// unclaimed profiles are updated: it returns ErrClaimed for a claimed profile
// and ErrNotFound when the profile does not exist.
func (s *SQLiteStore) UpdateProfile(ctx context.Context, id string, upd ProfileUpdate, link SourceLink) error {
	if upd.IsEmpty() {
		return nil
	}
	sets, args := profileSetClauses(upd, 1, func(int) string { return "?" })
	query := `UPDATE vendor_profiles SET ` + strings.Join(sets, ", ") + `, updated_at = ? WHERE id = ? AND is_claimed = 0`
	args = append(args, time.Now().UTC(), id)

	return s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return eris.Wrapf(err, "sqlite: update profile %s", id)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return eris.Wrap(err, "sqlite: rows affected")
		}
		if n == 0 {
			return noUpdateSQLite(ctx, tx, id)
		}
		link.ProfileID = id
		return upsertLinkSQLite(ctx, tx, link)
	})
}

// noUpdateSQLite explains an update that matched no unclaimed profile.
func noUpdateSQLite(ctx context.Context, tx *sql.Tx, id string) error {
	var claimed bool
	err := tx.QueryRowContext(ctx, `SELECT is_claimed FROM vendor_profiles WHERE id = ?`, id).Scan(&claimed)
	if errors.Is(err, sql.ErrNoRows) {
		return eris.Wrapf(ErrNotFound, "catalog: profile %s", id)
	}
	if err != nil {
		return eris.Wrapf(err, "sqlite: check claim %s", id)
	}
	if claimed {
		return eris.Wrapf(ErrClaimed, "catalog: profile %s", id)
	}
	return eris.Errorf("sqlite: profile %s was not updated", id)
}

// SetClaimed marks a profile as claimed or unclaimed.
func (s *SQLiteStore) SetClaimed(ctx context.Context, id string, claimed bool) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE vendor_profiles SET is_claimed = ?, updated_at = ? WHERE id = ?`,
		claimed, time.Now().UTC(), id,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: set claimed %s", id)
	}
	return checkRowsAffected(res, "profile", id)
}

func checkRowsAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "sqlite: rows affected")
	}
	if n == 0 {
		return eris.Wrapf(ErrNotFound, "catalog: %s %s", entity, id)
	}
	return nil
}

func (s *SQLiteStore) queryStrings(ctx context.Context, what, query, id string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, query, id)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: query %s", what)
	}
	defer rows.Close() //nolint:errcheck

	var out []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, eris.Wrapf(err, "sqlite: scan %s", what)
		}
		out = append(out, v)
	}
	return out, eris.Wrapf(rows.Err(), "sqlite: iterate %s", what)
}

// ProfileTerms returns the slugs of cultural tags on the profile's listings.
func (s *SQLiteStore) ProfileTerms(ctx context.Context, profileID string) ([]string, error) {
	return s.queryStrings(ctx, "profile terms", `
		SELECT DISTINCT t.slug FROM listing_cultural_tags lt
		JOIN vendor_listings l ON l.id = lt.listing_id
		JOIN taxonomy_terms t ON t.id = lt.term_id
		WHERE l.profile_id = ? ORDER BY t.slug`, profileID)
}

// ProfileCategories returns the slugs of categories on the profile's listings.
func (s *SQLiteStore) ProfileCategories(ctx context.Context, profileID string) ([]string, error) {
	return s.queryStrings(ctx, "profile categories", `
		SELECT DISTINCT c.slug FROM listing_categories lc
		JOIN vendor_listings l ON l.id = lc.listing_id
		JOIN categories c ON c.id = lc.category_id
		WHERE l.profile_id = ? ORDER BY c.slug`, profileID)
}

// FieldOverrides returns the set of locked field names for a profile.
func (s *SQLiteStore) FieldOverrides(ctx context.Context, profileID string) (map[string]bool, error) {
	fields, err := s.queryStrings(ctx, "field overrides",
		`SELECT field_name FROM vendor_field_overrides WHERE profile_id = ?`, profileID)
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
func (s *SQLiteStore) SetFieldOverride(ctx context.Context, profileID, field string) error {
	if !slices.Contains(model.OverridableFields, field) {
		return eris.Errorf("catalog: field %q cannot be overridden", field)
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO vendor_field_overrides (profile_id, field_name, created_at) VALUES (?, ?, ?)`,
		profileID, field, time.Now().UTC(),
	)
	return eris.Wrapf(err, "sqlite: set field override %s/%s", profileID, field)
}

// SourceLinks returns the provenance links of a profile.
func (s *SQLiteStore) SourceLinks(ctx context.Context, profileID string) ([]SourceLink, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT profile_id, source_name, source_url, COALESCE(external_id, ''), last_scraped_at
		FROM vendor_source_links WHERE profile_id = ? ORDER BY source_name`, profileID)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: query source links")
	}
	defer rows.Close() //nolint:errcheck

	var links []SourceLink
	for rows.Next() {
		var l SourceLink
		if err := rows.Scan(&l.ProfileID, &l.SourceName, &l.SourceURL, &l.ExternalID, &l.LastScrapedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan source link")
		}
		links = append(links, l)
	}
	return links, eris.Wrap(rows.Err(), "sqlite: iterate source links")
}

// StartRun inserts a running crawl run.
func (s *SQLiteStore) StartRun(ctx context.Context, source string) (*CrawlRun, error) {
	run := &CrawlRun{
		ID:        uuid.New().String(),
		Source:    source,
		Status:    RunRunning,
		StartedAt: time.Now().UTC(),
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO crawl_runs (id, source, status, started_at) VALUES (?, ?, ?, ?)`,
		run.ID, run.Source, string(run.Status), run.StartedAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: start run")
	}
	return run, nil
}

// FinishRun records the final status and counts of a run.
func (s *SQLiteStore) FinishRun(ctx context.Context, id string, status RunStatus, c RunCounts) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE crawl_runs SET status = ?, found = ?, created = ?, updated = ?, skipped = ?, errors = ?,
			completed_at = ?
		WHERE id = ?`,
		string(status), c.Found, c.Created, c.Updated, c.Skipped, c.Errors, time.Now().UTC(), id,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: finish run %s", id)
	}
	return checkRowsAffected(res, "run", id)
}

func scanRunSQLite(row scannable) (*CrawlRun, error) {
	var r CrawlRun
	var status string
	var completed sql.NullTime
	if err := row.Scan(&r.ID, &r.Source, &status, &r.Found, &r.Created, &r.Updated, &r.Skipped, &r.Errors, &r.StartedAt, &completed); err != nil {
		return nil, err
	}
	r.Status = RunStatus(status)
	if completed.Valid {
		r.CompletedAt = &completed.Time
	}
	return &r, nil
}

// GetRun fetches a run by id. Returns ErrNotFound when missing.
func (s *SQLiteStore) GetRun(ctx context.Context, id string) (*CrawlRun, error) {
	r, err := scanRunSQLite(s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM crawl_runs WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "catalog: run %s", id)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get run %s", id)
	}
	return r, nil
}

// ListRuns returns the most recent runs first.
func (s *SQLiteStore) ListRuns(ctx context.Context, limit int) ([]CrawlRun, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+runColumns+` FROM crawl_runs ORDER BY started_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list runs")
	}
	defer rows.Close() //nolint:errcheck

	var runs []CrawlRun
	for rows.Next() {
		r, err := scanRunSQLite(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan run")
		}
		runs = append(runs, *r)
	}
	return runs, eris.Wrap(rows.Err(), "sqlite: iterate runs")
}

// LoadVocabulary reads active taxonomy terms and all categories.
func (s *SQLiteStore) LoadVocabulary(ctx context.Context) (*taxonomy.Vocabulary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT t.id, t.slug, ty.name FROM taxonomy_terms t
		JOIN taxonomy_types ty ON ty.id = t.taxonomy_type_id
		WHERE t.is_active = 1`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: load taxonomy terms")
	}
	var terms []taxonomy.Term
	for rows.Next() {
		var t taxonomy.Term
		if err := rows.Scan(&t.ID, &t.Slug, &t.TypeName); err != nil {
			_ = rows.Close()
			return nil, eris.Wrap(err, "sqlite: scan taxonomy term")
		}
		terms = append(terms, t)
	}
	_ = rows.Close()
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "sqlite: iterate taxonomy terms")
	}

	rows, err = s.db.QueryContext(ctx, `SELECT id, slug FROM categories`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: load categories")
	}
	defer rows.Close() //nolint:errcheck
	categories := make(map[string]string)
	for rows.Next() {
		var id, slug string
		if err := rows.Scan(&id, &slug); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan category")
		}
		categories[slug] = id
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "sqlite: iterate categories")
	}

	return taxonomy.NewVocabulary(terms, categories), nil
}

// SeedVocabulary upserts the seed's categories, taxonomy types and terms in
// one transaction.
func (s *SQLiteStore) SeedVocabulary(ctx context.Context, seed *taxonomy.Seed) (SeedCounts, error) {
	var counts SeedCounts
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		for _, c := range seed.CategoryRows() {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO categories (id, slug, name, icon_name, sort_order) VALUES (?, ?, ?, ?, ?)
				ON CONFLICT (slug) DO UPDATE SET name = excluded.name, icon_name = excluded.icon_name, sort_order = excluded.sort_order`,
				c.ID, c.Slug, c.Name, c.Icon, c.SortOrder,
			); err != nil {
				return eris.Wrapf(err, "sqlite: seed category %s", c.Slug)
			}
			counts.Categories++
		}
		for _, t := range seed.TypeRows() {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO taxonomy_types (id, name, display_name, sort_order) VALUES (?, ?, ?, ?)
				ON CONFLICT (name) DO UPDATE SET display_name = excluded.display_name, sort_order = excluded.sort_order`,
				t.ID, t.Name, t.DisplayName, t.SortOrder,
			); err != nil {
				return eris.Wrapf(err, "sqlite: seed taxonomy type %s", t.Name)
			}
			counts.Types++
		}
		for _, t := range seed.TermRows() {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO taxonomy_terms (id, taxonomy_type_id, parent_id, slug, name, region, sort_order) VALUES (?, ?, ?, ?, ?, ?, ?)
				ON CONFLICT (slug) DO UPDATE SET taxonomy_type_id = excluded.taxonomy_type_id, parent_id = excluded.parent_id,
					name = excluded.name, region = excluded.region, sort_order = excluded.sort_order`,
				t.ID, t.TypeID, nullIfEmpty(t.ParentID), t.Slug, t.Name, nullIfEmpty(t.Region), t.SortOrder,
			); err != nil {
				return eris.Wrapf(err, "sqlite: seed taxonomy term %s", t.Slug)
			}
			counts.Terms++
		}
		return nil
	})
	if err != nil {
		return SeedCounts{}, err
	}
	return counts, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
