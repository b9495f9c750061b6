package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"sitedex/internal/config"
	"sitedex/internal/db"
	"sitedex/internal/domain"
	"sitedex/internal/engine"
	"sitedex/internal/migrate"
	"sitedex/internal/repo"
)

const (
	testJWTSecret     = "test-secret"
	testPublishSecret = "publish-secret"
	adminEmail        = "admin@sitedex.io"
)

type testServer struct {
	URL    string
	Engine engine.Engine
	client *http.Client
	close  func()
}

func (s *testServer) Client() *http.Client { return s.client }
func (s *testServer) Close()               { s.close() }

func newTestServer(t *testing.T) (*testServer, func()) {
	t.Helper()
	workspace := t.TempDir()
	if _, err := db.EnsureWorkspace(workspace); err != nil {
		t.Fatalf("ensure workspace: %v", err)
	}
	conn, err := db.Open(db.Config{Workspace: workspace})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := migrate.Migrate(conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	cfg := config.Default("https://sitedex.io")
	cfg.Admin.Emails = []string{adminEmail}
	cfg.Publish.Secret = testPublishSecret
	cfg.Auth.JWTSecret = testJWTSecret
	e := engine.New(conn, cfg)
	handler, err := New(Config{Engine: e, BasePath: "/v1", Auth: AuthConfig{JWTSecret: testJWTSecret}})
	if err != nil {
		t.Fatalf("build handler: %v", err)
	}
	ln, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	srv := &http.Server{Handler: handler}
	go srv.Serve(ln)
	testSrv := &testServer{
		URL:    "http://" + ln.Addr().String(),
		Engine: e,
		client: &http.Client{},
		close: func() {
			srv.Shutdown(context.Background())
			ln.Close()
			e.Uploads.Close()
			conn.Close()
		},
	}
	return testSrv, func() { testSrv.Close() }
}

func doJSON(t *testing.T, client *http.Client, method, url string, body any, headers map[string]string) (*http.Response, []byte) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	res, err := client.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer res.Body.Close()
	data, err := io.ReadAll(res.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return res, data
}

func signToken(t *testing.T, subject, email string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwtClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		Email: email,
	})
	signed, err := token.SignedString([]byte(testJWTSecret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func adminHeaders(t *testing.T) map[string]string {
	return map[string]string{"Authorization": "Bearer " + signToken(t, "admin-1", adminEmail)}
}

func TestSubmitAndModerate(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	client := srv.Client()

	res, data := doJSON(t, client, http.MethodPost, srv.URL+"/v1/submissions", map[string]any{
		"url":   "example.com",
		"title": "Example Tool",
		"email": "maker@example.com",
	}, nil)
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("submit status %d: %s", res.StatusCode, string(data))
	}
	var created SubmissionResponse
	if err := json.Unmarshal(data, &created); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if created.Status != domain.StatusPending {
		t.Fatalf("status = %s, want pending", created.Status)
	}
	if created.Link.Rel != engine.RelNofollow || !created.Link.ThroughRedirect {
		t.Fatalf("pending submission link = %+v", created.Link)
	}

	// listing the queue requires admin credentials
	res, _ = doJSON(t, client, http.MethodGet, srv.URL+"/v1/submissions", nil, nil)
	if res.StatusCode != http.StatusUnauthorized {
		t.Fatalf("anonymous list status %d, want 401", res.StatusCode)
	}
	res, data = doJSON(t, client, http.MethodGet, srv.URL+"/v1/submissions?status=pending", nil, adminHeaders(t))
	if res.StatusCode != http.StatusOK {
		t.Fatalf("admin list status %d: %s", res.StatusCode, string(data))
	}
	var queue []SubmissionResponse
	if err := json.Unmarshal(data, &queue); err != nil {
		t.Fatalf("unmarshal queue: %v", err)
	}
	if len(queue) != 1 || queue[0].ID != created.ID {
		t.Fatalf("queue = %+v", queue)
	}

	res, data = doJSON(t, client, http.MethodPatch, srv.URL+"/v1/submissions/"+created.ID, map[string]any{
		"status": domain.StatusPublished,
	}, adminHeaders(t))
	if res.StatusCode != http.StatusOK {
		t.Fatalf("publish status %d: %s", res.StatusCode, string(data))
	}
	var published SubmissionResponse
	if err := json.Unmarshal(data, &published); err != nil {
		t.Fatalf("unmarshal published: %v", err)
	}
	if published.Status != domain.StatusPublished {
		t.Fatalf("status = %s, want published", published.Status)
	}

	// the listing is public
	res, data = doJSON(t, client, http.MethodGet, srv.URL+"/v1/listings/example-tool", nil, nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("listing status %d: %s", res.StatusCode, string(data))
	}
	var listing ListingResponse
	if err := json.Unmarshal(data, &listing); err != nil {
		t.Fatalf("unmarshal listing: %v", err)
	}
	if listing.URL != "https://example.com" {
		t.Fatalf("listing url = %s", listing.URL)
	}
}

func TestSubmitDuplicateConflict(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	client := srv.Client()
	body := map[string]any{"url": "https://dup.example", "title": "Dup"}
	res, data := doJSON(t, client, http.MethodPost, srv.URL+"/v1/submissions", body, nil)
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("first submit status %d: %s", res.StatusCode, string(data))
	}
	res, data = doJSON(t, client, http.MethodPost, srv.URL+"/v1/submissions", body, nil)
	if res.StatusCode != http.StatusConflict {
		t.Fatalf("duplicate status %d: %s", res.StatusCode, string(data))
	}
	var envelope struct {
		Body apiErrorBody `json:"error"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		t.Fatalf("unmarshal error: %v", err)
	}
	if envelope.Body.Code != "duplicate_url" {
		t.Fatalf("error code = %s", envelope.Body.Code)
	}
}

func TestSubmitValidationStatus(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	res, data := doJSON(t, srv.Client(), http.MethodPost, srv.URL+"/v1/submissions", map[string]any{
		"url": "https://notitle.example",
	}, nil)
	if res.StatusCode != http.StatusBadRequest {
		t.Fatalf("status %d, want 400: %s", res.StatusCode, string(data))
	}
}

func TestNonAdminForbidden(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	headers := map[string]string{"Authorization": "Bearer " + signToken(t, "user-1", "mortal@example.com")}
	res, data := doJSON(t, srv.Client(), http.MethodGet, srv.URL+"/v1/submissions", nil, headers)
	if res.StatusCode != http.StatusForbidden {
		t.Fatalf("status %d, want 403: %s", res.StatusCode, string(data))
	}
}

func TestInvalidTokenRejected(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	headers := map[string]string{"Authorization": "Bearer not-a-token"}
	res, _ := doJSON(t, srv.Client(), http.MethodPost, srv.URL+"/v1/submissions", map[string]any{
		"url": "https://tokenless.example", "title": "X",
	}, headers)
	if res.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status %d, want 401", res.StatusCode)
	}
}

func TestAPIKeyAuth(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	raw := uuid.NewString()
	err := srv.Engine.Repo.InsertAPIKey(context.Background(), domain.APIKey{
		ID:      uuid.NewString(),
		Email:   adminEmail,
		KeyHash: repo.HashAPIKey(raw),
	})
	if err != nil {
		t.Fatalf("insert api key: %v", err)
	}
	res, data := doJSON(t, srv.Client(), http.MethodGet, srv.URL+"/v1/submissions", nil, map[string]string{"X-Api-Key": raw})
	if res.StatusCode != http.StatusOK {
		t.Fatalf("status %d: %s", res.StatusCode, string(data))
	}
	res, _ = doJSON(t, srv.Client(), http.MethodGet, srv.URL+"/v1/submissions", nil, map[string]string{"X-Api-Key": "wrong"})
	if res.StatusCode != http.StatusUnauthorized {
		t.Fatalf("bad key status %d, want 401", res.StatusCode)
	}
}

func TestBatchEndpoint(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	client := srv.Client()
	var ids []string
	for _, u := range []string{"https://b1.example", "https://b2.example"} {
		res, data := doJSON(t, client, http.MethodPost, srv.URL+"/v1/submissions", map[string]any{
			"url": u, "title": "Batch",
		}, nil)
		if res.StatusCode != http.StatusCreated {
			t.Fatalf("submit status %d: %s", res.StatusCode, string(data))
		}
		var s SubmissionResponse
		if err := json.Unmarshal(data, &s); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		ids = append(ids, s.ID)
	}
	res, data := doJSON(t, client, http.MethodPost, srv.URL+"/v1/submissions/batch", map[string]any{
		"ids": append(ids, "missing"), "action": "approve",
	}, adminHeaders(t))
	if res.StatusCode != http.StatusOK {
		t.Fatalf("batch status %d: %s", res.StatusCode, string(data))
	}
	var result engine.BatchResult
	if err := json.Unmarshal(data, &result); err != nil {
		t.Fatalf("unmarshal result: %v", err)
	}
	if result.Succeeded != 2 || result.Failed != 1 {
		t.Fatalf("succeeded=%d failed=%d, want 2/1", result.Succeeded, result.Failed)
	}
}

func TestPublishRunSecret(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	client := srv.Client()

	res, data := doJSON(t, client, http.MethodPost, srv.URL+"/v1/submissions", map[string]any{
		"url": "https://cron.example", "title": "Cron Site",
	}, nil)
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("submit status %d: %s", res.StatusCode, string(data))
	}
	var s SubmissionResponse
	if err := json.Unmarshal(data, &s); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	past := time.Now().UTC().Add(-time.Minute).Format(time.RFC3339)
	res, data = doJSON(t, client, http.MethodPatch, srv.URL+"/v1/submissions/"+s.ID, map[string]any{
		"status": domain.StatusVerified, "publish_at": past,
	}, adminHeaders(t))
	if res.StatusCode != http.StatusOK {
		t.Fatalf("schedule status %d: %s", res.StatusCode, string(data))
	}

	res, _ = doJSON(t, client, http.MethodPost, srv.URL+"/v1/publish/run", nil, nil)
	if res.StatusCode != http.StatusUnauthorized {
		t.Fatalf("missing secret status %d, want 401", res.StatusCode)
	}
	res, _ = doJSON(t, client, http.MethodPost, srv.URL+"/v1/publish/run", nil, map[string]string{"X-Publish-Secret": "nope"})
	if res.StatusCode != http.StatusUnauthorized {
		t.Fatalf("wrong secret status %d, want 401", res.StatusCode)
	}
	res, data = doJSON(t, client, http.MethodPost, srv.URL+"/v1/publish/run", nil, map[string]string{"X-Publish-Secret": testPublishSecret})
	if res.StatusCode != http.StatusOK {
		t.Fatalf("publish run status %d: %s", res.StatusCode, string(data))
	}
	var stats engine.CycleStats
	if err := json.Unmarshal(data, &stats); err != nil {
		t.Fatalf("unmarshal stats: %v", err)
	}
	if stats.PublishedCount != 1 {
		t.Fatalf("published=%d, want 1", stats.PublishedCount)
	}
}

func TestUploadAuthorizeQuota(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	client := srv.Client()
	max := srv.Engine.Config.RateLimits.UploadsPerHour
	for i := 0; i < max; i++ {
		res, data := doJSON(t, client, http.MethodPost, srv.URL+"/v1/uploads/authorize", map[string]any{
			"identity": "uploader-1",
		}, nil)
		if res.StatusCode != http.StatusOK {
			t.Fatalf("authorize %d status %d: %s", i, res.StatusCode, string(data))
		}
	}
	res, _ := doJSON(t, client, http.MethodPost, srv.URL+"/v1/uploads/authorize", map[string]any{
		"identity": "uploader-1",
	}, nil)
	if res.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("over-quota status %d, want 429", res.StatusCode)
	}
}

func TestHealth(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	res, data := doJSON(t, srv.Client(), http.MethodGet, srv.URL+"/v1/health", nil, nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("health status %d: %s", res.StatusCode, string(data))
	}
	var body map[string]string
	if err := json.Unmarshal(data, &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if body["status"] != "ok" {
		t.Fatalf("health body = %v", body)
	}
}
