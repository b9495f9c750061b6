package sitedexsdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client is a minimal Sitedex HTTP API client.
type Client struct {
	BaseURL       string
	APIKey        string
	BearerToken   string
	PublishSecret string
	HTTPClient    *http.Client
	Timeout       time.Duration
}

// New creates a client with sane defaults.
func New(baseURL string) *Client {
	return &Client{
		BaseURL: baseURL,
		Timeout: 10 * time.Second,
	}
}

// Submission represents the API submission model (partial).
type Submission struct {
	ID            string          `json:"id"`
	URL           string          `json:"url"`
	Title         string          `json:"title"`
	Status        string          `json:"status"`
	HasBadge      bool            `json:"has_badge"`
	BadgeVerified bool            `json:"badge_verified"`
	IsDofollow    bool            `json:"is_dofollow"`
	PublishAt     *string         `json:"publish_at,omitempty"`
	Link          LinkAttribution `json:"link"`
	CreatedAt     string          `json:"created_at"`
	UpdatedAt     string          `json:"updated_at"`
}

// Listing represents a published directory entry.
type Listing struct {
	ID          string          `json:"id"`
	URL         string          `json:"url"`
	Slug        string          `json:"slug"`
	Title       string          `json:"title"`
	Link        LinkAttribution `json:"link"`
	PublishedAt string          `json:"published_at"`
}

// LinkAttribution describes how the outbound link should be rendered.
type LinkAttribution struct {
	Rel             string `json:"rel"`
	ThroughRedirect bool   `json:"through_redirect"`
}

// BatchResult reports per-item outcomes of a batch decision.
type BatchResult struct {
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
	Details   []struct {
		ID    string `json:"id"`
		OK    bool   `json:"ok"`
		Error string `json:"error,omitempty"`
	} `json:"details"`
}

// CycleStats reports the outcome of one publish cycle.
type CycleStats struct {
	PublishedCount int `json:"published_count"`
	FailedCount    int `json:"failed_count"`
}

// APIError wraps non-2xx responses.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error: status=%d body=%s", e.StatusCode, e.Body)
}

// SubmitRequest is the intake payload.
type SubmitRequest struct {
	URL         string   `json:"url"`
	Title       string   `json:"title"`
	Tagline     string   `json:"tagline,omitempty"`
	Description string   `json:"description,omitempty"`
	Category    string   `json:"category,omitempty"`
	Pricing     string   `json:"pricing,omitempty"`
	HasBadge    bool     `json:"has_badge,omitempty"`
	Email       string   `json:"email,omitempty"`
	Name        string   `json:"name,omitempty"`
	KeyFeatures []string `json:"key_features,omitempty"`
	UseCases    []string `json:"use_cases,omitempty"`
}

// Submit sends a website for review.
func (c *Client) Submit(ctx context.Context, req SubmitRequest) (Submission, error) {
	var resp Submission
	err := c.do(ctx, http.MethodPost, "v1/submissions", req, &resp, nil)
	return resp, err
}

// Submission fetches one submission by id. Requires admin credentials.
func (c *Client) Submission(ctx context.Context, id string) (Submission, error) {
	var resp Submission
	err := c.do(ctx, http.MethodGet, "v1/submissions/"+url.PathEscape(id), nil, &resp, nil)
	return resp, err
}

// Submissions lists submissions, optionally filtered by status. Requires
// admin credentials.
func (c *Client) Submissions(ctx context.Context, status string) ([]Submission, error) {
	endpoint := "v1/submissions"
	if status != "" {
		endpoint += "?status=" + url.QueryEscape(status)
	}
	var resp []Submission
	err := c.do(ctx, http.MethodGet, endpoint, nil, &resp, nil)
	return resp, err
}

// UpdateStatus applies a moderation decision. Requires admin credentials.
func (c *Client) UpdateStatus(ctx context.Context, id, status string, isDofollow *bool, publishAt *string) (Submission, error) {
	body := map[string]any{"status": status}
	if isDofollow != nil {
		body["is_dofollow"] = *isDofollow
	}
	if publishAt != nil {
		body["publish_at"] = *publishAt
	}
	var resp Submission
	err := c.do(ctx, http.MethodPatch, "v1/submissions/"+url.PathEscape(id), body, &resp, nil)
	return resp, err
}

// BatchUpdate approves or rejects many submissions. Requires admin
// credentials.
func (c *Client) BatchUpdate(ctx context.Context, ids []string, action string) (BatchResult, error) {
	body := map[string]any{"ids": ids, "action": action}
	var resp BatchResult
	err := c.do(ctx, http.MethodPost, "v1/submissions/batch", body, &resp, nil)
	return resp, err
}

// Reverify re-runs badge verification for a submission.
func (c *Client) Reverify(ctx context.Context, id string) (Submission, error) {
	var resp Submission
	err := c.do(ctx, http.MethodPost, "v1/submissions/"+url.PathEscape(id)+"/verify", nil, &resp, nil)
	return resp, err
}

// RunPublishCycle promotes due verified submissions. Authenticates with the
// client's PublishSecret when set, otherwise with admin credentials.
func (c *Client) RunPublishCycle(ctx context.Context) (CycleStats, error) {
	var headers map[string]string
	if c.PublishSecret != "" {
		headers = map[string]string{"X-Publish-Secret": c.PublishSecret}
	}
	var resp CycleStats
	err := c.do(ctx, http.MethodPost, "v1/publish/run", nil, &resp, headers)
	return resp, err
}

// Listings returns published directory entries.
func (c *Client) Listings(ctx context.Context, category string) ([]Listing, error) {
	endpoint := "v1/listings"
	if category != "" {
		endpoint += "?category=" + url.QueryEscape(category)
	}
	var resp []Listing
	err := c.do(ctx, http.MethodGet, endpoint, nil, &resp, nil)
	return resp, err
}

// Listing fetches one listing by slug.
func (c *Client) Listing(ctx context.Context, slug string) (Listing, error) {
	var resp Listing
	err := c.do(ctx, http.MethodGet, "v1/listings/"+url.PathEscape(slug), nil, &resp, nil)
	return resp, err
}

func (c *Client) do(ctx context.Context, method, endpoint string, body, out any, headers map[string]string) error {
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: c.Timeout}
	}
	target := c.base() + "/" + strings.TrimLeft(endpoint, "/")
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, target, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	switch {
	case c.BearerToken != "":
		req.Header.Set("Authorization", "Bearer "+c.BearerToken)
	case c.APIKey != "":
		req.Header.Set("X-Api-Key", c.APIKey)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return &APIError{StatusCode: resp.StatusCode, Body: string(b)}
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

func (c *Client) base() string {
	return strings.TrimRight(c.BaseURL, "/")
}
