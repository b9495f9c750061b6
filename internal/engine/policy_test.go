package engine_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"sitedex/internal/domain"
	"sitedex/internal/engine"
)

func TestLinkAttribute(t *testing.T) {
	dofollow := engine.Attribution{Rel: engine.RelDofollow, ThroughRedirect: false}
	nofollow := engine.Attribution{Rel: engine.RelNofollow, ThroughRedirect: true}

	cases := []struct {
		name string
		s    domain.Submission
		want engine.Attribution
	}{
		{
			name: "published with verified badge and dofollow",
			s:    domain.Submission{Status: domain.StatusPublished, HasBadge: true, BadgeVerified: true, IsDofollow: true},
			want: dofollow,
		},
		{
			name: "published without badge claim",
			s:    domain.Submission{Status: domain.StatusPublished, BadgeVerified: true, IsDofollow: true},
			want: nofollow,
		},
		{
			name: "published with unverified badge",
			s:    domain.Submission{Status: domain.StatusPublished, HasBadge: true, IsDofollow: true},
			want: nofollow,
		},
		{
			name: "published with dofollow revoked",
			s:    domain.Submission{Status: domain.StatusPublished, HasBadge: true, BadgeVerified: true},
			want: nofollow,
		},
		{
			name: "pending is always downgraded",
			s:    domain.Submission{Status: domain.StatusPending, HasBadge: true, BadgeVerified: true, IsDofollow: true},
			want: nofollow,
		},
		{
			name: "verified but not yet published is downgraded",
			s:    domain.Submission{Status: domain.StatusVerified, HasBadge: true, BadgeVerified: true, IsDofollow: true},
			want: nofollow,
		},
		{
			name: "rejected is downgraded",
			s:    domain.Submission{Status: domain.StatusRejected, HasBadge: true, BadgeVerified: true, IsDofollow: true},
			want: nofollow,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := engine.LinkAttribute(tc.s)
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Errorf("attribution mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestListingLinkAttribute(t *testing.T) {
	got := engine.ListingLinkAttribute(domain.Listing{IsDofollow: true})
	if got.Rel != engine.RelDofollow || got.ThroughRedirect {
		t.Fatalf("dofollow listing: %+v", got)
	}
	got = engine.ListingLinkAttribute(domain.Listing{})
	if got.Rel != engine.RelNofollow || !got.ThroughRedirect {
		t.Fatalf("nofollow listing: %+v", got)
	}
}
