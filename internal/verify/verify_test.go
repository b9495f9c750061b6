package verify_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"sitedex/internal/verify"
)

func newVerifier(siteURL string) *verify.Verifier {
	v := verify.New(siteURL, []string{"/badges/sitedex-badge.svg", "/badges/sitedex-badge-dark.svg"}, "SitedexBot/test", 2*time.Second)
	v.Sleep = func(time.Duration) {}
	return v
}

func pageServer(t *testing.T, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestVerifyBadge(t *testing.T) {
	cases := []struct {
		name string
		body string
		want bool
	}{
		{
			name: "badge image and backlink",
			body: `<a href="https://sitedex.io"><img src="https://sitedex.io/badges/sitedex-badge.svg"></a>`,
			want: true,
		},
		{
			name: "dark badge variant",
			body: `<a href="https://www.sitedex.io/"><img src="/badges/sitedex-badge-dark.svg"></a>`,
			want: true,
		},
		{
			name: "single quotes and spacing",
			body: `<img src = '/badges/sitedex-badge.svg'><a href = 'https://sitedex.io'>directory</a>`,
			want: true,
		},
		{
			name: "uppercase markup",
			body: `<IMG SRC="/badges/sitedex-badge.svg"><A HREF="HTTPS://SITEDEX.IO">x</A>`,
			want: true,
		},
		{
			name: "badge without backlink",
			body: `<img src="/badges/sitedex-badge.svg">`,
			want: false,
		},
		{
			name: "backlink without badge",
			body: `<a href="https://sitedex.io">directory</a>`,
			want: false,
		},
		{
			name: "backlink to a different host",
			body: `<img src="/badges/sitedex-badge.svg"><a href="https://sitedex.io.evil.example">x</a>`,
			want: false,
		},
		{
			name: "empty page",
			body: ``,
			want: false,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := pageServer(t, tc.body)
			v := newVerifier("https://sitedex.io")
			if got := v.VerifyBadge(context.Background(), srv.URL); got != tc.want {
				t.Errorf("VerifyBadge = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestVerifyBadgeNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusGone)
	}))
	defer srv.Close()
	v := newVerifier("https://sitedex.io")
	if v.VerifyBadge(context.Background(), srv.URL) {
		t.Fatalf("non-2xx page verified")
	}
}

func TestVerifyBadgeTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)
	v := newVerifier("https://sitedex.io")
	v.Client = &http.Client{Timeout: 50 * time.Millisecond}
	if v.VerifyBadge(context.Background(), srv.URL) {
		t.Fatalf("timed-out fetch verified")
	}
}

func TestVerifyBadgeUnreachable(t *testing.T) {
	v := newVerifier("https://sitedex.io")
	v.Client = &http.Client{Timeout: 200 * time.Millisecond}
	if v.VerifyBadge(context.Background(), "http://127.0.0.1:1") {
		t.Fatalf("unreachable host verified")
	}
}

func TestVerifyBadgeSendsUserAgent(t *testing.T) {
	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
	}))
	defer srv.Close()
	v := newVerifier("https://sitedex.io")
	v.VerifyBadge(context.Background(), srv.URL)
	if gotUA != "SitedexBot/test" {
		t.Fatalf("user agent = %q", gotUA)
	}
}

func TestVerifyBacklinkToleratesSubpath(t *testing.T) {
	srv := pageServer(t, `<a href="https://sitedex.io/listings/my-tool">my listing</a>`)
	v := newVerifier("https://sitedex.io")
	if !v.VerifyBacklink(context.Background(), srv.URL) {
		t.Fatalf("subpath backlink not accepted")
	}
}

func TestVerifyBatch(t *testing.T) {
	linked := pageServer(t, `<a href="https://sitedex.io">x</a>`)
	unlinked := pageServer(t, `<p>nothing</p>`)
	v := newVerifier("https://sitedex.io")
	got := v.VerifyBatch(context.Background(), []string{linked.URL, unlinked.URL})
	want := map[string]bool{linked.URL: true, unlinked.URL: false}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("batch results mismatch (-want +got):\n%s", diff)
	}
}

func TestVerifyBatchHonorsCancellation(t *testing.T) {
	srv := pageServer(t, `<a href="https://sitedex.io">x</a>`)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	v := newVerifier("https://sitedex.io")
	got := v.VerifyBatch(ctx, []string{srv.URL, srv.URL})
	if len(got) != 0 {
		t.Fatalf("results after cancellation: %v", got)
	}
}

func TestNormalizeURL(t *testing.T) {
	cases := map[string]string{
		"example.com":          "https://example.com",
		"https://example.com":  "https://example.com",
		"http://example.com":   "http://example.com",
		" example.com ":        "https://example.com",
		"":                     "",
		"ftp://files.example":  "ftp://files.example",
		"example.com/sub/path": "https://example.com/sub/path",
	}
	for in, want := range cases {
		if got := verify.NormalizeURL(in); got != want {
			t.Errorf("NormalizeURL(%q) = %q, want %q", in, got, want)
		}
	}
}
