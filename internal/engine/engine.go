package engine

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"sitedex/internal/config"
	"sitedex/internal/domain"
	"sitedex/internal/events"
	"sitedex/internal/ratelimit"
	"sitedex/internal/repo"
	"sitedex/internal/verify"
)

// ErrDuplicateURL signals that a submission with the same URL already
// exists. No state is created for the duplicate attempt.
var ErrDuplicateURL = errors.New("a submission with this url already exists")

// RateLimitedError carries the remaining-quota context back to the caller.
type RateLimitedError struct {
	Reason    string
	Remaining int
}

func (e RateLimitedError) Error() string { return e.Reason }

// ValidationError is an intake rejection with a user-facing reason.
type ValidationError struct {
	Field  string
	Reason string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Engine owns the submission lifecycle: intake, verification, moderation
// transitions, listing materialization, and the scheduled publish cycle.
type Engine struct {
	DB       *sql.DB
	Repo     repo.Repo
	Events   events.Writer
	Config   *config.Config
	Verifier *verify.Verifier
	Limiter  ratelimit.SubmissionLimiter
	Uploads  *ratelimit.WindowLimiter
	Logger   *log.Logger
	Now      func() time.Time
}

func New(db *sql.DB, cfg *config.Config) Engine {
	r := repo.Repo{DB: db}
	v := verify.New(cfg.Site.URL, cfg.Badge.AssetPaths, cfg.Verify.UserAgent, cfg.VerifyTimeout())
	v.BatchDelay = cfg.BatchDelay()
	return Engine{
		DB:       db,
		Repo:     r,
		Events:   events.Writer{DB: db},
		Config:   cfg,
		Verifier: v,
		Limiter: ratelimit.SubmissionLimiter{
			Counter: r,
			PerDay:  cfg.RateLimits.SubmissionsPerDay,
		},
		Uploads: ratelimit.NewWindowLimiter(cfg.RateLimits.UploadsPerHour, time.Hour),
		Now:     time.Now,
	}
}

func (e Engine) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

func (e Engine) logger() *log.Logger {
	if e.Logger != nil {
		return e.Logger
	}
	return log.Default()
}

// SubmitOptions are parameters for website intake.
type SubmitOptions struct {
	URL             string
	Title           string
	Tagline         string
	Description     string
	Category        string
	Pricing         string
	HasBadge        bool
	LogoURL         string
	CoverURL        string
	UserID          string
	UserEmail       string
	UserName        string
	UserIP          string
	KeyFeaturesJSON string
	UseCasesJSON    string
	FAQJSON         string
}

// Submit runs intake: validation, rate limiting, duplicate detection,
// optional synchronous badge verification, then persists the submission in
// the pending state.
func (e Engine) Submit(ctx context.Context, opts SubmitOptions) (domain.Submission, error) {
	if opts.Title == "" {
		return domain.Submission{}, ValidationError{Field: "title", Reason: "required"}
	}
	opts.URL = verify.NormalizeURL(opts.URL)
	if opts.URL == "" {
		return domain.Submission{}, ValidationError{Field: "url", Reason: "required"}
	}
	if u, err := url.Parse(opts.URL); err != nil || u.Scheme == "" || u.Host == "" {
		return domain.Submission{}, ValidationError{Field: "url", Reason: "must be a valid absolute URL"}
	}
	switch opts.Pricing {
	case "":
		opts.Pricing = domain.PricingFree
	case domain.PricingFree, domain.PricingFreemium, domain.PricingPaid:
	default:
		return domain.Submission{}, ValidationError{Field: "pricing", Reason: "must be free, freemium or paid"}
	}

	if d := e.Limiter.Check(ctx, opts.UserID, opts.UserIP); !d.Allowed {
		return domain.Submission{}, RateLimitedError{Reason: d.Reason, Remaining: d.Remaining}
	}

	if _, err := e.Repo.GetSubmissionByURL(ctx, opts.URL); err == nil {
		return domain.Submission{}, ErrDuplicateURL
	} else if !errors.Is(err, repo.ErrNotFound) {
		return domain.Submission{}, err
	}

	now := e.now().UTC().Format(time.RFC3339)
	s := domain.Submission{
		ID:          uuid.New().String(),
		URL:         opts.URL,
		Title:       opts.Title,
		Tagline:     opts.Tagline,
		Description: opts.Description,
		Category:    optionalString(opts.Category),
		UserID:      optionalString(opts.UserID),
		UserEmail:   opts.UserEmail,
		UserName:    opts.UserName,
		UserIP:      opts.UserIP,
		LogoURL:     optionalString(opts.LogoURL),
		CoverURL:    optionalString(opts.CoverURL),
		Pricing:     opts.Pricing,
		HasBadge:    opts.HasBadge,
		Status:      domain.StatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	s.KeyFeaturesJSON = optionalString(opts.KeyFeaturesJSON)
	s.UseCasesJSON = optionalString(opts.UseCasesJSON)
	s.FAQJSON = optionalString(opts.FAQJSON)

	if opts.HasBadge {
		if e.Verifier.VerifyBadge(ctx, s.URL) {
			s.BadgeVerified = true
			s.BadgeVerifiedAt = &now
			// Advisory until publication; rendering downgrades to nofollow
			// for anything not yet published.
			s.IsDofollow = true
		}
	}

	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.Submission{}, err
	}
	defer tx.Rollback()

	if err := e.Repo.InsertSubmission(ctx, tx, s); err != nil {
		if repo.IsUniqueViolation(err) {
			return domain.Submission{}, ErrDuplicateURL
		}
		return domain.Submission{}, fmt.Errorf("insert submission: %w", err)
	}
	if err := e.Events.Append(ctx, tx, "submission.created", "submission", s.ID, actorOrAnon(opts.UserEmail), events.EventPayload{
		"url":            s.URL,
		"has_badge":      s.HasBadge,
		"badge_verified": s.BadgeVerified,
	}); err != nil {
		return domain.Submission{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.Submission{}, err
	}
	return s, nil
}

// ReverifyBadge re-runs badge verification for a submission that is not yet
// published; the submitter may retry after installing the badge.
func (e Engine) ReverifyBadge(ctx context.Context, id string) (domain.Submission, error) {
	s, err := e.Repo.GetSubmission(ctx, id)
	if err != nil {
		return s, err
	}
	if s.Status == domain.StatusPublished || s.Status == domain.StatusRejected {
		return s, fmt.Errorf("submission is %s; verification is closed", s.Status)
	}
	verified := e.Verifier.VerifyBadge(ctx, s.URL)
	now := e.now().UTC().Format(time.RFC3339)
	s.BadgeVerified = verified
	if verified {
		s.BadgeVerifiedAt = &now
		s.IsDofollow = s.HasBadge
	} else {
		s.IsDofollow = false
	}
	s.UpdatedAt = now

	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return s, err
	}
	defer tx.Rollback()
	if err := e.Repo.UpdateSubmission(ctx, tx, s); err != nil {
		return s, err
	}
	if err := e.Events.Append(ctx, tx, "submission.verified", "submission", s.ID, actorOrAnon(s.UserEmail), events.EventPayload{
		"badge_verified": verified,
	}); err != nil {
		return s, err
	}
	if err := tx.Commit(); err != nil {
		return s, err
	}
	return s, nil
}

// ensureStatusTransition validates the lifecycle state machine. The
// verified state is the time-delayed approval track: an administrator sets
// it together with a publish_at, and the scheduler promotes it later.
func ensureStatusTransition(oldStatus, newStatus string) error {
	if oldStatus == newStatus {
		return nil
	}
	switch oldStatus {
	case domain.StatusPending:
		if newStatus == domain.StatusVerified || newStatus == domain.StatusPublished || newStatus == domain.StatusRejected {
			return nil
		}
	case domain.StatusVerified:
		if newStatus == domain.StatusPublished || newStatus == domain.StatusRejected {
			return nil
		}
	}
	return fmt.Errorf("invalid submission status transition %s -> %s", oldStatus, newStatus)
}

// UpdateStatusOptions encapsulates a single-item moderation decision.
type UpdateStatusOptions struct {
	ID     string
	Status string
	// IsDofollow overrides the stored attribution; nil keeps it. The
	// dofollow invariant still applies: it is clamped to false unless the
	// badge was requested and verified.
	IsDofollow *bool
	// PublishAt schedules the promotion for the verified track.
	PublishAt *string
	Actor     string
}

// UpdateSubmissionStatus applies a single admin transition, materializing
// the listing when the target state is published. Persistence errors leave
// the submission in its prior state.
func (e Engine) UpdateSubmissionStatus(ctx context.Context, opts UpdateStatusOptions) (domain.Submission, error) {
	s, err := e.Repo.GetSubmission(ctx, opts.ID)
	if err != nil {
		return s, err
	}
	if err := ensureStatusTransition(s.Status, opts.Status); err != nil {
		return s, err
	}
	original := s.Status
	now := e.now().UTC().Format(time.RFC3339)

	if opts.IsDofollow != nil {
		s.IsDofollow = *opts.IsDofollow && s.HasBadge && s.BadgeVerified
	}
	if opts.PublishAt != nil {
		if *opts.PublishAt == "" {
			s.PublishAt = nil
		} else {
			at, err := time.Parse(time.RFC3339, *opts.PublishAt)
			if err != nil {
				return s, ValidationError{Field: "publish_at", Reason: "must be an RFC3339 timestamp"}
			}
			// Stored timestamps compare lexicographically, so offsets
			// must be normalized before the scheduler reads them back.
			utc := at.UTC().Format(time.RFC3339)
			s.PublishAt = &utc
		}
	}
	if opts.Status == domain.StatusVerified && s.PublishAt == nil {
		return s, ValidationError{Field: "publish_at", Reason: "required when scheduling a verified submission"}
	}
	s.Status = opts.Status
	s.UpdatedAt = now

	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return s, err
	}
	defer tx.Rollback()

	if err := e.Repo.UpdateSubmission(ctx, tx, s); err != nil {
		return s, err
	}
	if s.Status == domain.StatusPublished {
		if err := e.materializeListing(ctx, tx, s, now); err != nil {
			return s, err
		}
	}
	if err := e.Events.Append(ctx, tx, "submission.status.changed", "submission", s.ID, opts.Actor, events.EventPayload{
		"from_status": original,
		"to_status":   s.Status,
		"is_dofollow": s.IsDofollow,
	}); err != nil {
		return s, err
	}
	if err := tx.Commit(); err != nil {
		return s, err
	}
	return s, nil
}

// BatchAction names the decision applied to a batch of submissions.
type BatchAction string

const (
	BatchApprove BatchAction = "approve"
	BatchReject  BatchAction = "reject"
)

// BatchItemResult records one item's outcome within a batch.
type BatchItemResult struct {
	ID    string `json:"id"`
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

// BatchResult tallies a batch operation. The batch is not transactional
// across items; callers must inspect the tally.
type BatchResult struct {
	Succeeded int               `json:"succeeded"`
	Failed    int               `json:"failed"`
	Details   []BatchItemResult `json:"details"`
}

// BatchUpdate applies an approve/reject decision to each id independently.
// Approval forces is_dofollow to the batch default (false) even when badge
// verification had set it.
func (e Engine) BatchUpdate(ctx context.Context, ids []string, action BatchAction, actor string) (BatchResult, error) {
	if action != BatchApprove && action != BatchReject {
		return BatchResult{}, ValidationError{Field: "action", Reason: "must be approve or reject"}
	}
	var res BatchResult
	for _, id := range ids {
		opts := UpdateStatusOptions{ID: id, Actor: actor}
		if action == BatchApprove {
			opts.Status = domain.StatusPublished
			batchDefault := false
			opts.IsDofollow = &batchDefault
		} else {
			opts.Status = domain.StatusRejected
		}
		if _, err := e.UpdateSubmissionStatus(ctx, opts); err != nil {
			e.logger().Printf("batch %s failed for %s: %v", action, id, err)
			res.Failed++
			res.Details = append(res.Details, BatchItemResult{ID: id, Error: err.Error()})
			continue
		}
		res.Succeeded++
		res.Details = append(res.Details, BatchItemResult{ID: id, OK: true})
	}
	return res, nil
}

// CycleStats summarizes one publish cycle.
type CycleStats struct {
	PublishedCount int               `json:"published_count"`
	FailedCount    int               `json:"failed_count"`
	Details        []BatchItemResult `json:"details,omitempty"`
}

// RunPublishCycle promotes every verified submission whose publish_at has
// arrived. Failures are isolated per item; the cycle never aborts early.
// Invoking it twice over an overlapping eligible set is safe: the listing
// guard skips duplicates and already-published rows no longer match the
// selection.
func (e Engine) RunPublishCycle(ctx context.Context, now time.Time) (CycleStats, error) {
	due, err := e.Repo.ListDuePublishable(ctx, now.UTC().Format(time.RFC3339))
	if err != nil {
		return CycleStats{}, fmt.Errorf("select due submissions: %w", err)
	}
	var stats CycleStats
	for _, s := range due {
		if err := e.publishOne(ctx, s); err != nil {
			e.logger().Printf("publish cycle: %s failed: %v", s.ID, err)
			stats.FailedCount++
			stats.Details = append(stats.Details, BatchItemResult{ID: s.ID, Error: err.Error()})
			continue
		}
		stats.PublishedCount++
		stats.Details = append(stats.Details, BatchItemResult{ID: s.ID, OK: true})
	}
	return stats, nil
}

func (e Engine) publishOne(ctx context.Context, s domain.Submission) error {
	if err := ensureStatusTransition(s.Status, domain.StatusPublished); err != nil {
		return err
	}
	now := e.now().UTC().Format(time.RFC3339)
	s.Status = domain.StatusPublished
	s.UpdatedAt = now

	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if err := e.Repo.UpdateSubmission(ctx, tx, s); err != nil {
		return err
	}
	if err := e.materializeListing(ctx, tx, s, now); err != nil {
		return err
	}
	if err := e.Events.Append(ctx, tx, "submission.status.changed", "submission", s.ID, "scheduler", events.EventPayload{
		"from_status": domain.StatusVerified,
		"to_status":   domain.StatusPublished,
	}); err != nil {
		return err
	}
	return tx.Commit()
}

// materializeListing creates the public listing for a published submission.
// It is idempotent by listing URL: an existing listing (or a uniqueness
// violation from a concurrent writer) means the work is already done.
func (e Engine) materializeListing(ctx context.Context, tx *sql.Tx, s domain.Submission, now string) error {
	if _, err := e.Repo.GetListingByURLTx(ctx, tx, s.URL); err == nil {
		return nil
	} else if !errors.Is(err, repo.ErrNotFound) {
		return err
	}
	slug, err := e.uniqueSlug(ctx, tx, s.Title)
	if err != nil {
		return err
	}
	l := domain.Listing{
		ID:           uuid.New().String(),
		SubmissionID: &s.ID,
		URL:          s.URL,
		Slug:         slug,
		Title:        s.Title,
		Tagline:      s.Tagline,
		Description:  s.Description,
		Category:     s.Category,
		LogoURL:      s.LogoURL,
		CoverURL:     s.CoverURL,
		Pricing:      s.Pricing,
		IsDofollow:   s.IsDofollow,
		PublishedAt:  now,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := e.Repo.InsertListing(ctx, tx, l); err != nil {
		if repo.IsUniqueViolation(err) {
			return nil
		}
		return fmt.Errorf("insert listing: %w", err)
	}
	return e.Events.Append(ctx, tx, "listing.materialized", "listing", l.ID, "system", events.EventPayload{
		"url":  l.URL,
		"slug": l.Slug,
	})
}

var nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify lowercases the title, collapses non-alphanumeric runs to single
// hyphens, and trims leading/trailing hyphens.
func Slugify(title string) string {
	slug := nonAlnum.ReplaceAllString(strings.ToLower(title), "-")
	return strings.Trim(slug, "-")
}

func (e Engine) uniqueSlug(ctx context.Context, tx *sql.Tx, title string) (string, error) {
	slug := Slugify(title)
	if slug == "" {
		slug = "listing"
	}
	n, err := e.Repo.CountListingsWithSlugPrefix(ctx, tx, slug)
	if err != nil {
		return "", err
	}
	if n == 0 {
		return slug, nil
	}
	return fmt.Sprintf("%s-%d", slug, n+1), nil
}

// CheckUpload consumes one unit of the identity's hourly upload allowance.
func (e Engine) CheckUpload(identity string) ratelimit.Decision {
	return e.Uploads.Check(identity)
}

// --- helpers ---

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func actorOrAnon(email string) string {
	if email == "" {
		return "anonymous"
	}
	return email
}
