package repo

import (
	"context"
	"database/sql"
	"strings"

	"sitedex/internal/domain"
)

const listingColumns = `id,submission_id,url,slug,title,tagline,description,category,logo_url,cover_url,pricing,is_dofollow,published_at,created_at,updated_at`

// IsUniqueViolation reports whether err is a storage uniqueness-constraint
// failure. The materialization path treats it as "already materialized".
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func scanListing(row submissionRow) (domain.Listing, error) {
	var l domain.Listing
	var submissionID, tagline, description, category, logoURL, coverURL sql.NullString
	err := row.Scan(&l.ID, &submissionID, &l.URL, &l.Slug, &l.Title, &tagline, &description, &category,
		&logoURL, &coverURL, &l.Pricing, &l.IsDofollow, &l.PublishedAt, &l.CreatedAt, &l.UpdatedAt)
	if err == sql.ErrNoRows {
		return l, ErrNotFound
	}
	if err != nil {
		return l, err
	}
	l.Tagline = tagline.String
	l.Description = description.String
	if submissionID.Valid {
		l.SubmissionID = &submissionID.String
	}
	if category.Valid {
		l.Category = &category.String
	}
	if logoURL.Valid {
		l.LogoURL = &logoURL.String
	}
	if coverURL.Valid {
		l.CoverURL = &coverURL.String
	}
	return l, nil
}

func (r Repo) InsertListing(ctx context.Context, tx *sql.Tx, l domain.Listing) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO listings(`+listingColumns+`) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		l.ID, nullableStringPtr(l.SubmissionID), l.URL, l.Slug, l.Title, nullable(l.Tagline), nullable(l.Description),
		nullableStringPtr(l.Category), nullableStringPtr(l.LogoURL), nullableStringPtr(l.CoverURL), l.Pricing,
		l.IsDofollow, l.PublishedAt, l.CreatedAt, l.UpdatedAt)
	return err
}

func (r Repo) GetListingByURL(ctx context.Context, rawURL string) (domain.Listing, error) {
	return scanListing(r.DB.QueryRowContext(ctx, `SELECT `+listingColumns+` FROM listings WHERE url=?`, rawURL))
}

func (r Repo) GetListingByURLTx(ctx context.Context, tx *sql.Tx, rawURL string) (domain.Listing, error) {
	return scanListing(tx.QueryRowContext(ctx, `SELECT `+listingColumns+` FROM listings WHERE url=?`, rawURL))
}

func (r Repo) GetListingBySlug(ctx context.Context, slug string) (domain.Listing, error) {
	return scanListing(r.DB.QueryRowContext(ctx, `SELECT `+listingColumns+` FROM listings WHERE slug=?`, slug))
}

func (r Repo) CountListingsWithSlugPrefix(ctx context.Context, tx *sql.Tx, slug string) (int, error) {
	var n int
	err := tx.QueryRowContext(ctx, `SELECT count(*) FROM listings WHERE slug=? OR slug LIKE ?`, slug, slug+"-%").Scan(&n)
	return n, err
}

type ListingFilters struct {
	Category string
	Limit    int
}

func (r Repo) ListListings(ctx context.Context, f ListingFilters) ([]domain.Listing, error) {
	var clauses []string
	var args []any
	if f.Category != "" {
		clauses = append(clauses, "category=?")
		args = append(args, f.Category)
	}
	where := ""
	if len(clauses) > 0 {
		where = "WHERE " + strings.Join(clauses, " AND ")
	}
	query := `SELECT ` + listingColumns + ` FROM listings ` + where + ` ORDER BY published_at DESC, id DESC`
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Listing
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, l)
	}
	return res, rows.Err()
}
