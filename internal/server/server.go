package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"
	humachi "github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"

	"sitedex/internal/engine"
	"sitedex/internal/repo"
)

// Config for the HTTP API handler.
type Config struct {
	Engine   engine.Engine
	BasePath string
	Auth     AuthConfig
}

type apiErrorBody struct {
	Code    string         `json:"code" example:"duplicate_url"`
	Message string         `json:"message" example:"a submission with this url already exists"`
	Details map[string]any `json:"details,omitempty" jsonschema:"type=object,additionalProperties=true"`
}

// apiError models the error envelope.
type apiError struct {
	status int
	Body   apiErrorBody `json:"error"`
}

func (e *apiError) GetStatus() int { return e.status }
func (e *apiError) Error() string  { return e.Body.Message }

type requestKey struct{}

// New returns an HTTP handler exposing the Sitedex API.
func New(cfg Config) (http.Handler, error) {
	basePath := cfg.BasePath
	if basePath == "" {
		basePath = "/v1"
	}
	if !strings.HasPrefix(basePath, "/") {
		basePath = "/" + basePath
	}
	huma.NewError = func(status int, msg string, errs ...error) huma.StatusError {
		return newAPIError(status, "", msg, nil)
	}
	huma.NewErrorWithContext = func(_ huma.Context, status int, msg string, errs ...error) huma.StatusError {
		if status == http.StatusUnprocessableEntity && strings.Contains(strings.ToLower(msg), "validation") {
			status = http.StatusBadRequest
		}
		var details map[string]any
		if len(errs) > 0 {
			details = map[string]any{"errors": errs}
		}
		return newAPIError(status, "", msg, details)
	}

	router := chi.NewRouter()
	router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := context.WithValue(r.Context(), requestKey{}, r)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	})
	router.Use(newAuthMiddleware(basePath, cfg.Auth, cfg.Engine.Repo))
	hcfg := huma.DefaultConfig("Sitedex API", "0.1.0")
	hcfg.OpenAPIPath = "/openapi"
	api := humachi.New(router, hcfg)
	group := huma.NewGroup(api, basePath)

	registerHealth(group)
	registerSubmissions(group, cfg.Engine)
	registerBatch(group, cfg.Engine)
	registerPublish(group, cfg.Engine)
	registerListings(group, cfg.Engine)
	registerUploads(group, cfg.Engine)

	return router, nil
}

func newAPIError(status int, code, message string, details map[string]any) huma.StatusError {
	if code == "" {
		code = defaultCodeForStatus(status)
	}
	return &apiError{
		status: status,
		Body: apiErrorBody{
			Code:    code,
			Message: message,
			Details: details,
		},
	}
}

func handleError(err error) huma.StatusError {
	if err == nil {
		return nil
	}
	var fe ForbiddenError
	if errors.As(err, &fe) {
		return newAPIError(http.StatusForbidden, "forbidden", err.Error(), map[string]any{"email": fe.Email})
	}
	var ve engine.ValidationError
	if errors.As(err, &ve) {
		return newAPIError(http.StatusBadRequest, "bad_request", err.Error(), map[string]any{"field": ve.Field})
	}
	var re engine.RateLimitedError
	if errors.As(err, &re) {
		return newAPIError(http.StatusTooManyRequests, "rate_limited", err.Error(), map[string]any{"remaining": re.Remaining})
	}
	if errors.Is(err, engine.ErrDuplicateURL) {
		return newAPIError(http.StatusConflict, "duplicate_url", err.Error(), nil)
	}
	if errors.Is(err, repo.ErrNotFound) {
		return newAPIError(http.StatusNotFound, "not_found", err.Error(), nil)
	}
	msg := err.Error()
	lowered := strings.ToLower(msg)
	switch {
	case strings.Contains(lowered, "invalid submission status transition"):
		return newAPIError(http.StatusConflict, "invalid_transition", msg, nil)
	case strings.Contains(lowered, "invalid") || strings.Contains(lowered, "required"):
		return newAPIError(http.StatusBadRequest, "bad_request", msg, nil)
	default:
		return newAPIError(http.StatusInternalServerError, "internal_error", "internal error", map[string]any{"error": msg})
	}
}

func defaultCodeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "bad_request"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusConflict:
		return "conflict"
	case http.StatusTooManyRequests:
		return "rate_limited"
	case http.StatusForbidden:
		return "forbidden"
	case http.StatusInternalServerError:
		return "internal_error"
	default:
		return strings.ToLower(strings.ReplaceAll(http.StatusText(status), " ", "_"))
	}
}

// remoteIP returns the originating client address for the request stored by
// the outermost middleware.
func remoteIP(ctx context.Context) string {
	r, ok := ctx.Value(requestKey{}).(*http.Request)
	if !ok {
		return ""
	}
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		parts := strings.Split(fwd, ",")
		return strings.TrimSpace(parts[0])
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func registerHealth(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "health",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Health check",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body map[string]string `json:"body"`
	}, error) {
		return &struct {
			Body map[string]string `json:"body"`
		}{Body: map[string]string{"status": "ok"}}, nil
	})
}

func registerSubmissions(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID:   "submit-website",
		Method:        http.MethodPost,
		Path:          "/submissions",
		Summary:       "Submit a website for review",
		DefaultStatus: http.StatusCreated,
		Errors: []int{
			http.StatusBadRequest,
			http.StatusConflict,
			http.StatusTooManyRequests,
			http.StatusInternalServerError,
		},
	}, func(ctx context.Context, input *struct {
		Body SubmitRequest `json:"body"`
	}) (*struct {
		Body SubmissionResponse `json:"body"`
	}, error) {
		opts := engine.SubmitOptions{
			URL:         input.Body.URL,
			Title:       input.Body.Title,
			Tagline:     input.Body.Tagline,
			Description: input.Body.Description,
			Category:    input.Body.Category,
			Pricing:     input.Body.Pricing,
			HasBadge:    input.Body.HasBadge,
			LogoURL:     input.Body.LogoURL,
			CoverURL:    input.Body.CoverURL,
			UserEmail:   input.Body.Email,
			UserName:    input.Body.Name,
			UserIP:      remoteIP(ctx),
		}
		if p, ok := principalFromContext(ctx); ok {
			opts.UserID = p.UserID
			if opts.UserEmail == "" {
				opts.UserEmail = p.Email
			}
		}
		if len(input.Body.KeyFeatures) > 0 {
			opts.KeyFeaturesJSON = marshalOpaque(input.Body.KeyFeatures)
		}
		if len(input.Body.UseCases) > 0 {
			opts.UseCasesJSON = marshalOpaque(input.Body.UseCases)
		}
		if len(input.Body.FAQ) > 0 {
			opts.FAQJSON = marshalOpaque(input.Body.FAQ)
		}
		s, err := e.Submit(ctx, opts)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body SubmissionResponse `json:"body"`
		}{Body: submissionResponse(s)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-submissions",
		Method:      http.MethodGet,
		Path:        "/submissions",
		Summary:     "List submissions for moderation",
		Errors:      []int{http.StatusUnauthorized, http.StatusForbidden},
	}, func(ctx context.Context, input *struct {
		Status string `query:"status" enum:"pending,verified,rejected,published" required:"false"`
		Limit  int    `query:"limit" required:"false"`
	}) (*struct {
		Body []SubmissionResponse `json:"body"`
	}, error) {
		if _, authErr := requireAdmin(ctx, e.Config); authErr != nil {
			return nil, authErr
		}
		items, err := e.Repo.ListSubmissions(ctx, repo.SubmissionFilters{Status: input.Status, Limit: input.Limit})
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []SubmissionResponse `json:"body"`
		}{Body: mapSubmissions(items)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-submission",
		Method:      http.MethodGet,
		Path:        "/submissions/{id}",
		Summary:     "Get a submission",
		Errors:      []int{http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		ID string `path:"id"`
	}) (*struct {
		Body SubmissionResponse `json:"body"`
	}, error) {
		if _, authErr := requireAdmin(ctx, e.Config); authErr != nil {
			return nil, authErr
		}
		s, err := e.Repo.GetSubmission(ctx, input.ID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body SubmissionResponse `json:"body"`
		}{Body: submissionResponse(s)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-submission-status",
		Method:      http.MethodPatch,
		Path:        "/submissions/{id}",
		Summary:     "Apply a moderation decision",
		Errors: []int{
			http.StatusBadRequest,
			http.StatusUnauthorized,
			http.StatusForbidden,
			http.StatusNotFound,
			http.StatusConflict,
		},
	}, func(ctx context.Context, input *struct {
		ID   string                  `path:"id"`
		Body UpdateSubmissionRequest `json:"body"`
	}) (*struct {
		Body SubmissionResponse `json:"body"`
	}, error) {
		p, authErr := requireAdmin(ctx, e.Config)
		if authErr != nil {
			return nil, authErr
		}
		s, err := e.UpdateSubmissionStatus(ctx, engine.UpdateStatusOptions{
			ID:         input.ID,
			Status:     input.Body.Status,
			IsDofollow: input.Body.IsDofollow,
			PublishAt:  input.Body.PublishAt,
			Actor:      p.Email,
		})
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body SubmissionResponse `json:"body"`
		}{Body: submissionResponse(s)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "reverify-submission",
		Method:      http.MethodPost,
		Path:        "/submissions/{id}/verify",
		Summary:     "Re-run badge verification",
		Errors:      []int{http.StatusNotFound, http.StatusConflict},
	}, func(ctx context.Context, input *struct {
		ID string `path:"id"`
	}) (*struct {
		Body SubmissionResponse `json:"body"`
	}, error) {
		s, err := e.ReverifyBadge(ctx, input.ID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body SubmissionResponse `json:"body"`
		}{Body: submissionResponse(s)}, nil
	})
}

func registerBatch(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "batch-update-submissions",
		Method:      http.MethodPost,
		Path:        "/submissions/batch",
		Summary:     "Approve or reject many submissions",
		Errors: []int{
			http.StatusBadRequest,
			http.StatusUnauthorized,
			http.StatusForbidden,
		},
	}, func(ctx context.Context, input *struct {
		Body BatchUpdateRequest `json:"body"`
	}) (*struct {
		Body engine.BatchResult `json:"body"`
	}, error) {
		p, authErr := requireAdmin(ctx, e.Config)
		if authErr != nil {
			return nil, authErr
		}
		if len(input.Body.IDs) == 0 {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "ids is required", nil)
		}
		res, err := e.BatchUpdate(ctx, input.Body.IDs, engine.BatchAction(input.Body.Action), p.Email)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body engine.BatchResult `json:"body"`
		}{Body: res}, nil
	})
}

func registerPublish(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "run-publish-cycle",
		Method:      http.MethodPost,
		Path:        "/publish/run",
		Summary:     "Promote due verified submissions",
		Errors:      []int{http.StatusUnauthorized, http.StatusForbidden},
	}, func(ctx context.Context, input *struct {
		Secret string `header:"X-Publish-Secret" required:"false"`
	}) (*struct {
		Body engine.CycleStats `json:"body"`
	}, error) {
		if e.Config.Publish.Secret != "" {
			if input.Secret != e.Config.Publish.Secret {
				return nil, newAPIError(http.StatusUnauthorized, "unauthorized", "invalid publish secret", nil)
			}
		} else if _, authErr := requireAdmin(ctx, e.Config); authErr != nil {
			return nil, authErr
		}
		stats, err := e.RunPublishCycle(ctx, time.Now())
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body engine.CycleStats `json:"body"`
		}{Body: stats}, nil
	})
}

func registerListings(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "list-listings",
		Method:      http.MethodGet,
		Path:        "/listings",
		Summary:     "Browse published listings",
	}, func(ctx context.Context, input *struct {
		Category string `query:"category" required:"false"`
		Limit    int    `query:"limit" required:"false"`
	}) (*struct {
		Body []ListingResponse `json:"body"`
	}, error) {
		items, err := e.Repo.ListListings(ctx, repo.ListingFilters{Category: input.Category, Limit: input.Limit})
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []ListingResponse `json:"body"`
		}{Body: mapListings(items)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-listing",
		Method:      http.MethodGet,
		Path:        "/listings/{slug}",
		Summary:     "Get a listing by slug",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		Slug string `path:"slug"`
	}) (*struct {
		Body ListingResponse `json:"body"`
	}, error) {
		l, err := e.Repo.GetListingBySlug(ctx, input.Slug)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body ListingResponse `json:"body"`
		}{Body: listingResponse(l)}, nil
	})
}

func registerUploads(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "authorize-upload",
		Method:      http.MethodPost,
		Path:        "/uploads/authorize",
		Summary:     "Check upload quota before handing off to the upload pipeline",
		Errors:      []int{http.StatusTooManyRequests},
	}, func(ctx context.Context, input *struct {
		Body UploadAuthorizeRequest `json:"body"`
	}) (*struct {
		Body QuotaResponse `json:"body"`
	}, error) {
		identity := input.Body.Identity
		if identity == "" {
			if p, ok := principalFromContext(ctx); ok && p.UserID != "" {
				identity = p.UserID
			} else {
				identity = remoteIP(ctx)
			}
		}
		d := e.CheckUpload(identity)
		if !d.Allowed {
			return nil, newAPIError(http.StatusTooManyRequests, "rate_limited", d.Reason, map[string]any{"remaining": d.Remaining})
		}
		return &struct {
			Body QuotaResponse `json:"body"`
		}{Body: QuotaResponse{Allowed: true, Remaining: d.Remaining}}, nil
	})
}
