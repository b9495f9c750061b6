// Package verify checks a submitter's page for the directory badge image
// and a reciprocal backlink. Matching is best-effort text matching over
// untrusted HTML, not proof of ownership; an administrator can override
// either outcome.
package verify

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"
)

// HTTPClient is the interface for performing HTTP requests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

const maxBodyBytes = 5 * 1024 * 1024

// Verifier fetches remote pages and pattern-matches badge and backlink
// evidence.
type Verifier struct {
	Client     HTTPClient
	SiteURL    string
	BadgePaths []string
	UserAgent  string
	Timeout    time.Duration
	BatchDelay time.Duration
	Logger     *log.Logger
	Sleep      func(time.Duration)
}

// New returns a Verifier with its own timeout-bounded HTTP client.
func New(siteURL string, badgePaths []string, userAgent string, timeout time.Duration) *Verifier {
	return &Verifier{
		Client:     &http.Client{Timeout: timeout},
		SiteURL:    siteURL,
		BadgePaths: badgePaths,
		UserAgent:  userAgent,
		Timeout:    timeout,
		BatchDelay: 500 * time.Millisecond,
	}
}

func (v *Verifier) logger() *log.Logger {
	if v.Logger != nil {
		return v.Logger
	}
	return log.Default()
}

func (v *Verifier) sleep(d time.Duration) {
	if v.Sleep != nil {
		v.Sleep(d)
		return
	}
	time.Sleep(d)
}

// NormalizeURL prefixes https:// when no scheme is given.
func NormalizeURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return raw
	}
	if !strings.Contains(raw, "://") {
		return "https://" + raw
	}
	return raw
}

// fetch retrieves the page body lowercased. All failure paths return an
// error; callers resolve them to a false verification result.
func (v *Verifier) fetch(ctx context.Context, target string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, NormalizeURL(target), nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", v.UserAgent)

	resp, err := v.Client.Do(req)
	if err != nil {
		return "", fmt.Errorf("http get: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}
	return strings.ToLower(string(body)), nil
}

// VerifyBadge reports whether the page at target embeds one of the known
// badge images and links back to the canonical site. It never returns an
// error; failures are logged and resolve to false. No retries: verification
// is re-triggered by re-submission or re-review.
func (v *Verifier) VerifyBadge(ctx context.Context, target string) bool {
	body, err := v.fetch(ctx, target)
	if err != nil {
		v.logger().Printf("badge verification failed for %s: %v", target, err)
		return false
	}
	return v.hasBadgeImage(body) && v.hasBacklink(body)
}

// VerifyBacklink checks only for the reciprocal link, for contexts that do
// not require the badge image.
func (v *Verifier) VerifyBacklink(ctx context.Context, target string) bool {
	body, err := v.fetch(ctx, target)
	if err != nil {
		v.logger().Printf("backlink verification failed for %s: %v", target, err)
		return false
	}
	return v.backlinkPattern().MatchString(body)
}

// VerifyBatch checks many URLs sequentially with a fixed inter-request
// delay. Results are keyed by the input URL.
func (v *Verifier) VerifyBatch(ctx context.Context, targets []string) map[string]bool {
	results := make(map[string]bool, len(targets))
	for i, t := range targets {
		if ctx.Err() != nil {
			break
		}
		if i > 0 {
			v.sleep(v.BatchDelay)
		}
		results[t] = v.VerifyBacklink(ctx, t)
	}
	return results
}

// hasBadgeImage matches any known badge asset path appearing as an image
// source attribute, in any quoting style.
func (v *Verifier) hasBadgeImage(body string) bool {
	for _, p := range v.BadgePaths {
		path := regexp.QuoteMeta(strings.ToLower(p))
		re := regexp.MustCompile(`src\s*=\s*["']?[^"'\s>]*` + path)
		if re.MatchString(body) {
			return true
		}
	}
	return false
}

// hasBacklink matches an href equal to the canonical site URL, tolerating
// a trailing slash and the www. prefix.
func (v *Verifier) hasBacklink(body string) bool {
	u, err := url.Parse(v.SiteURL)
	if err != nil || u.Host == "" {
		return false
	}
	host := strings.ToLower(strings.TrimPrefix(u.Host, "www."))
	re := regexp.MustCompile(`href\s*=\s*["']?https?://(www\.)?` + regexp.QuoteMeta(host) + `/?["'\s>]`)
	return re.MatchString(body)
}

// backlinkPattern tolerates subpaths under the canonical host as well.
func (v *Verifier) backlinkPattern() *regexp.Regexp {
	u, _ := url.Parse(v.SiteURL)
	host := "invalid.invalid"
	if u != nil && u.Host != "" {
		host = strings.ToLower(strings.TrimPrefix(u.Host, "www."))
	}
	return regexp.MustCompile(`href\s*=\s*["']?https?://(www\.)?` + regexp.QuoteMeta(host) + `(/[^"'\s>]*)?["'\s>]`)
}
