package server

import (
	"encoding/json"

	"sitedex/internal/domain"
	"sitedex/internal/engine"
)

// Request payloads

type SubmitRequest struct {
	URL         string `json:"url"`
	Title       string `json:"title"`
	Tagline     string `json:"tagline,omitempty"`
	Description string `json:"description,omitempty"`
	Category    string `json:"category,omitempty"`
	Pricing     string `json:"pricing,omitempty" enum:"free,freemium,paid"`
	HasBadge    bool   `json:"has_badge,omitempty"`
	LogoURL     string `json:"logo_url,omitempty"`
	CoverURL    string `json:"cover_url,omitempty"`
	Email       string `json:"email,omitempty"`
	Name        string `json:"name,omitempty"`

	KeyFeatures []string          `json:"key_features,omitempty"`
	UseCases    []string          `json:"use_cases,omitempty"`
	FAQ         []json.RawMessage `json:"faq,omitempty"`
}

type UpdateSubmissionRequest struct {
	Status     string  `json:"status" enum:"pending,verified,rejected,published"`
	IsDofollow *bool   `json:"is_dofollow,omitempty"`
	PublishAt  *string `json:"publish_at,omitempty" format:"date-time"`
}

type BatchUpdateRequest struct {
	IDs    []string `json:"ids"`
	Action string   `json:"action" enum:"approve,reject"`
}

type UploadAuthorizeRequest struct {
	// Identity is optional; the authenticated user id or the caller IP is
	// used when absent.
	Identity string `json:"identity,omitempty"`
}

// Response payloads

type SubmissionResponse struct {
	ID              string             `json:"id"`
	URL             string             `json:"url"`
	Title           string             `json:"title"`
	Tagline         string             `json:"tagline,omitempty"`
	Description     string             `json:"description,omitempty"`
	Category        *string            `json:"category,omitempty"`
	Pricing         string             `json:"pricing" enum:"free,freemium,paid"`
	HasBadge        bool               `json:"has_badge"`
	BadgeVerified   bool               `json:"badge_verified"`
	BadgeVerifiedAt *string            `json:"badge_verified_at,omitempty" format:"date-time"`
	IsDofollow      bool               `json:"is_dofollow"`
	PublishAt       *string            `json:"publish_at,omitempty" format:"date-time"`
	Status          string             `json:"status" enum:"pending,verified,rejected,published"`
	Link            engine.Attribution `json:"link"`
	CreatedAt       string             `json:"created_at" format:"date-time"`
	UpdatedAt       string             `json:"updated_at" format:"date-time"`
}

type ListingResponse struct {
	ID          string             `json:"id"`
	URL         string             `json:"url"`
	Slug        string             `json:"slug"`
	Title       string             `json:"title"`
	Tagline     string             `json:"tagline,omitempty"`
	Description string             `json:"description,omitempty"`
	Category    *string            `json:"category,omitempty"`
	LogoURL     *string            `json:"logo_url,omitempty"`
	CoverURL    *string            `json:"cover_url,omitempty"`
	Pricing     string             `json:"pricing" enum:"free,freemium,paid"`
	Link        engine.Attribution `json:"link"`
	PublishedAt string             `json:"published_at" format:"date-time"`
}

type QuotaResponse struct {
	Allowed   bool   `json:"allowed"`
	Remaining int    `json:"remaining"`
	Reason    string `json:"reason,omitempty"`
}

func submissionResponse(s domain.Submission) SubmissionResponse {
	return SubmissionResponse{
		ID:              s.ID,
		URL:             s.URL,
		Title:           s.Title,
		Tagline:         s.Tagline,
		Description:     s.Description,
		Category:        s.Category,
		Pricing:         s.Pricing,
		HasBadge:        s.HasBadge,
		BadgeVerified:   s.BadgeVerified,
		BadgeVerifiedAt: s.BadgeVerifiedAt,
		IsDofollow:      s.IsDofollow,
		PublishAt:       s.PublishAt,
		Status:          s.Status,
		Link:            engine.LinkAttribute(s),
		CreatedAt:       s.CreatedAt,
		UpdatedAt:       s.UpdatedAt,
	}
}

func mapSubmissions(items []domain.Submission) []SubmissionResponse {
	res := make([]SubmissionResponse, 0, len(items))
	for _, s := range items {
		res = append(res, submissionResponse(s))
	}
	return res
}

func listingResponse(l domain.Listing) ListingResponse {
	return ListingResponse{
		ID:          l.ID,
		URL:         l.URL,
		Slug:        l.Slug,
		Title:       l.Title,
		Tagline:     l.Tagline,
		Description: l.Description,
		Category:    l.Category,
		LogoURL:     l.LogoURL,
		CoverURL:    l.CoverURL,
		Pricing:     l.Pricing,
		Link:        engine.ListingLinkAttribute(l),
		PublishedAt: l.PublishedAt,
	}
}

func mapListings(items []domain.Listing) []ListingResponse {
	res := make([]ListingResponse, 0, len(items))
	for _, l := range items {
		res = append(res, listingResponse(l))
	}
	return res
}

func marshalOpaque(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}
