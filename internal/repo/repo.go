package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"sitedex/internal/domain"
)

type Repo struct {
	DB *sql.DB
}

var ErrNotFound = errors.New("not found")

const submissionColumns = `id,url,title,tagline,description,category,user_id,user_email,user_name,user_ip,logo_url,cover_url,pricing,has_badge,badge_verified,badge_verified_at,is_dofollow,publish_at,status,key_features_json,use_cases_json,faq_json,created_at,updated_at`

type submissionRow interface {
	Scan(dest ...any) error
}

func scanSubmission(row submissionRow) (domain.Submission, error) {
	var s domain.Submission
	var tagline, description, category, userID, userEmail, userName, userIP sql.NullString
	var logoURL, coverURL, badgeVerifiedAt, publishAt sql.NullString
	var keyFeatures, useCases, faq sql.NullString
	err := row.Scan(&s.ID, &s.URL, &s.Title, &tagline, &description, &category, &userID, &userEmail, &userName, &userIP,
		&logoURL, &coverURL, &s.Pricing, &s.HasBadge, &s.BadgeVerified, &badgeVerifiedAt, &s.IsDofollow, &publishAt,
		&s.Status, &keyFeatures, &useCases, &faq, &s.CreatedAt, &s.UpdatedAt)
	if err == sql.ErrNoRows {
		return s, ErrNotFound
	}
	if err != nil {
		return s, err
	}
	s.Tagline = tagline.String
	s.Description = description.String
	s.UserEmail = userEmail.String
	s.UserName = userName.String
	s.UserIP = userIP.String
	if category.Valid {
		s.Category = &category.String
	}
	if userID.Valid {
		s.UserID = &userID.String
	}
	if logoURL.Valid {
		s.LogoURL = &logoURL.String
	}
	if coverURL.Valid {
		s.CoverURL = &coverURL.String
	}
	if badgeVerifiedAt.Valid {
		s.BadgeVerifiedAt = &badgeVerifiedAt.String
	}
	if publishAt.Valid {
		s.PublishAt = &publishAt.String
	}
	if keyFeatures.Valid {
		s.KeyFeaturesJSON = &keyFeatures.String
	}
	if useCases.Valid {
		s.UseCasesJSON = &useCases.String
	}
	if faq.Valid {
		s.FAQJSON = &faq.String
	}
	return s, nil
}

func (r Repo) InsertSubmission(ctx context.Context, tx *sql.Tx, s domain.Submission) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO submissions(`+submissionColumns+`)
VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		s.ID, s.URL, s.Title, nullable(s.Tagline), nullable(s.Description), nullableStringPtr(s.Category),
		nullableStringPtr(s.UserID), nullable(s.UserEmail), nullable(s.UserName), nullable(s.UserIP),
		nullableStringPtr(s.LogoURL), nullableStringPtr(s.CoverURL), s.Pricing, s.HasBadge, s.BadgeVerified,
		nullableStringPtr(s.BadgeVerifiedAt), s.IsDofollow, nullableStringPtr(s.PublishAt), s.Status,
		nullableStringPtr(s.KeyFeaturesJSON), nullableStringPtr(s.UseCasesJSON), nullableStringPtr(s.FAQJSON),
		s.CreatedAt, s.UpdatedAt)
	return err
}

func (r Repo) UpdateSubmission(ctx context.Context, tx *sql.Tx, s domain.Submission) error {
	res, err := tx.ExecContext(ctx, `UPDATE submissions SET title=?, tagline=?, description=?, category=?, logo_url=?, cover_url=?, pricing=?, has_badge=?, badge_verified=?, badge_verified_at=?, is_dofollow=?, publish_at=?, status=?, key_features_json=?, use_cases_json=?, faq_json=?, updated_at=? WHERE id=?`,
		s.Title, nullable(s.Tagline), nullable(s.Description), nullableStringPtr(s.Category),
		nullableStringPtr(s.LogoURL), nullableStringPtr(s.CoverURL), s.Pricing, s.HasBadge, s.BadgeVerified,
		nullableStringPtr(s.BadgeVerifiedAt), s.IsDofollow, nullableStringPtr(s.PublishAt), s.Status,
		nullableStringPtr(s.KeyFeaturesJSON), nullableStringPtr(s.UseCasesJSON), nullableStringPtr(s.FAQJSON),
		s.UpdatedAt, s.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r Repo) GetSubmission(ctx context.Context, id string) (domain.Submission, error) {
	return scanSubmission(r.DB.QueryRowContext(ctx, `SELECT `+submissionColumns+` FROM submissions WHERE id=?`, id))
}

func (r Repo) GetSubmissionTx(ctx context.Context, tx *sql.Tx, id string) (domain.Submission, error) {
	return scanSubmission(tx.QueryRowContext(ctx, `SELECT `+submissionColumns+` FROM submissions WHERE id=?`, id))
}

func (r Repo) GetSubmissionByURL(ctx context.Context, rawURL string) (domain.Submission, error) {
	return scanSubmission(r.DB.QueryRowContext(ctx, `SELECT `+submissionColumns+` FROM submissions WHERE url=?`, rawURL))
}

type SubmissionFilters struct {
	Status          string
	UserID          string
	Limit           int
	CursorCreatedAt string
	CursorID        string
}

func (r Repo) ListSubmissions(ctx context.Context, f SubmissionFilters) ([]domain.Submission, error) {
	var clauses []string
	var args []any
	if f.Status != "" {
		clauses = append(clauses, "status=?")
		args = append(args, f.Status)
	}
	if f.UserID != "" {
		clauses = append(clauses, "user_id=?")
		args = append(args, f.UserID)
	}
	if f.CursorCreatedAt != "" && f.CursorID != "" {
		clauses = append(clauses, "(created_at < ? OR (created_at = ? AND id < ?))")
		args = append(args, f.CursorCreatedAt, f.CursorCreatedAt, f.CursorID)
	}
	where := ""
	if len(clauses) > 0 {
		where = "WHERE " + strings.Join(clauses, " AND ")
	}
	query := `SELECT ` + submissionColumns + ` FROM submissions ` + where + ` ORDER BY created_at DESC, id DESC`
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Submission
	for rows.Next() {
		s, err := scanSubmission(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, s)
	}
	return res, rows.Err()
}

// CountSubmissionsSince counts rows created at or after the cutoff by either
// the user id or the originating IP, whichever identity is present.
func (r Repo) CountSubmissionsSince(ctx context.Context, userID, userIP, cutoff string) (int, error) {
	var (
		query string
		arg   string
	)
	switch {
	case userID != "":
		query = `SELECT count(*) FROM submissions WHERE user_id=? AND created_at >= ?`
		arg = userID
	case userIP != "":
		query = `SELECT count(*) FROM submissions WHERE user_ip=? AND created_at >= ?`
		arg = userIP
	default:
		return 0, fmt.Errorf("no identity to count by")
	}
	var n int
	if err := r.DB.QueryRowContext(ctx, query, arg, cutoff).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// ListDuePublishable returns verified submissions whose scheduled publish
// time is at or before now.
func (r Repo) ListDuePublishable(ctx context.Context, now string) ([]domain.Submission, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT `+submissionColumns+` FROM submissions WHERE status=? AND publish_at IS NOT NULL AND publish_at <= ? ORDER BY publish_at ASC, id ASC`,
		domain.StatusVerified, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Submission
	for rows.Next() {
		s, err := scanSubmission(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, s)
	}
	return res, rows.Err()
}

func (r Repo) CountSubmissionsByStatus(ctx context.Context) (map[string]int, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT status, count(*) FROM submissions GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	res := map[string]int{}
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		res[status] = count
	}
	return res, nil
}

func nullable(v string) any {
	if v == "" {
		return nil
	}
	return v
}

func nullableStringPtr(v *string) any {
	if v == nil {
		return nil
	}
	if *v == "" {
		return nil
	}
	return *v
}
