package engine

import "sitedex/internal/domain"

// Rel values emitted for outbound links. Dofollow links still carry the
// user-generated-content qualifier.
const (
	RelDofollow = "ugc"
	RelNofollow = "nofollow ugc"
)

// Attribution is the outbound link treatment a rendering layer must apply.
type Attribution struct {
	Rel             string `json:"rel"`
	ThroughRedirect bool   `json:"through_redirect"`
}

// LinkAttribute decides the outbound link treatment for a submission. Only
// confirmed publication grants attribution: anything not yet published is
// downgraded to nofollow regardless of the stored is_dofollow.
func LinkAttribute(s domain.Submission) Attribution {
	if s.Status != domain.StatusPublished {
		return Attribution{Rel: RelNofollow, ThroughRedirect: true}
	}
	if s.HasBadge && s.BadgeVerified && s.IsDofollow {
		return Attribution{Rel: RelDofollow, ThroughRedirect: false}
	}
	return Attribution{Rel: RelNofollow, ThroughRedirect: true}
}

// ListingLinkAttribute is the listing-side variant; a listing exists only
// for published submissions, so the stored flag decides.
func ListingLinkAttribute(l domain.Listing) Attribution {
	if l.IsDofollow {
		return Attribution{Rel: RelDofollow, ThroughRedirect: false}
	}
	return Attribution{Rel: RelNofollow, ThroughRedirect: true}
}
