package domain

// Submission statuses.
const (
	StatusPending   = "pending"
	StatusVerified  = "verified"
	StatusRejected  = "rejected"
	StatusPublished = "published"
)

// Pricing classifications.
const (
	PricingFree     = "free"
	PricingFreemium = "freemium"
	PricingPaid     = "paid"
)

type Submission struct {
	ID              string  `json:"id"`
	URL             string  `json:"url"`
	Title           string  `json:"title"`
	Tagline         string  `json:"tagline,omitempty"`
	Description     string  `json:"description,omitempty"`
	Category        *string `json:"category,omitempty"`
	UserID          *string `json:"user_id,omitempty"`
	UserEmail       string  `json:"user_email,omitempty"`
	UserName        string  `json:"user_name,omitempty"`
	UserIP          string  `json:"user_ip,omitempty"`
	LogoURL         *string `json:"logo_url,omitempty"`
	CoverURL        *string `json:"cover_url,omitempty"`
	Pricing         string  `json:"pricing" enum:"free,freemium,paid"`
	HasBadge        bool    `json:"has_badge"`
	BadgeVerified   bool    `json:"badge_verified"`
	BadgeVerifiedAt *string `json:"badge_verified_at,omitempty" format:"date-time"`
	IsDofollow      bool    `json:"is_dofollow"`
	PublishAt       *string `json:"publish_at,omitempty" format:"date-time"`
	Status          string  `json:"status" enum:"pending,verified,rejected,published"`
	KeyFeaturesJSON *string `json:"key_features_json,omitempty"`
	UseCasesJSON    *string `json:"use_cases_json,omitempty"`
	FAQJSON         *string `json:"faq_json,omitempty"`
	CreatedAt       string  `json:"created_at" format:"date-time"`
	UpdatedAt       string  `json:"updated_at" format:"date-time"`
}

// Listing is the durable public directory entry materialized from a
// published submission. It is owned by the directory, not the submitter.
type Listing struct {
	ID           string  `json:"id"`
	SubmissionID *string `json:"submission_id,omitempty"`
	URL          string  `json:"url"`
	Slug         string  `json:"slug"`
	Title        string  `json:"title"`
	Tagline      string  `json:"tagline,omitempty"`
	Description  string  `json:"description,omitempty"`
	Category     *string `json:"category,omitempty"`
	LogoURL      *string `json:"logo_url,omitempty"`
	CoverURL     *string `json:"cover_url,omitempty"`
	Pricing      string  `json:"pricing" enum:"free,freemium,paid"`
	IsDofollow   bool    `json:"is_dofollow"`
	PublishedAt  string  `json:"published_at" format:"date-time"`
	CreatedAt    string  `json:"created_at" format:"date-time"`
	UpdatedAt    string  `json:"updated_at" format:"date-time"`
}

type APIKey struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	Name      string `json:"name,omitempty"`
	KeyHash   string `json:"key_hash"`
	CreatedAt string `json:"created_at" format:"date-time"`
}

type Event struct {
	ID         int64  `json:"id"`
	TS         string `json:"ts" format:"date-time"`
	Type       string `json:"type"`
	EntityKind string `json:"entity_kind"`
	EntityID   string `json:"entity_id,omitempty"`
	Actor      string `json:"actor"`
	Payload    string `json:"payload_json"`
}
