package service

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sort"
	"strings"
	"time"

	"link-shortener/internal/biz"
	"link-shortener/internal/conf"
	"link-shortener/internal/domain"
	"link-shortener/pkg/problemdetails"

	"github.com/go-kratos/kratos/v2/log"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/samber/lo"
)

// maxTTLSeconds caps a link's lifetime at ten years.
const maxTTLSeconds = int64(10 * 365 * 24 * time.Hour / time.Second)

// CreateLinkRequest is the body of a create call.
type CreateLinkRequest struct {
	LongURL     string `json:"long_url"`
	CustomAlias string `json:"custom_alias,omitempty"`
	TTLSeconds  *int64 `json:"ttl_seconds,omitempty"`
	TenantID    string `json:"tenant_id,omitempty"`
}

// Validate checks the request shape. Semantic checks happen in the domain.
func (r CreateLinkRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.LongURL, validation.Required, validation.Length(1, 2048)),
		validation.Field(&r.CustomAlias, validation.Length(domain.MinCustomCodeLength, domain.MaxCustomCodeLength)),
		validation.Field(&r.TTLSeconds, validation.Min(int64(1)), validation.Max(maxTTLSeconds)),
	)
}

// validateKey bounds the identifiers that end up in the idempotency ledger.
func validateKey(key biz.IdempotencyKey) error {
	return validation.Errors{
		"tenant_id":       validation.Validate(key.TenantID, validation.Length(0, domain.MaxTenantIDLength)),
		"idempotency_key": validation.Validate(key.Token, validation.Length(0, domain.MaxIdempotencyTokenLength)),
	}.Filter()
}

// LinkReply is the JSON view of a link.
type LinkReply struct {
	ShortCode  string     `json:"short_code"`
	ShortURL   string     `json:"short_url"`
	LongURL    string     `json:"long_url"`
	TenantID   string     `json:"tenant_id"`
	Status     string     `json:"status"`
	ClickCount int64      `json:"click_count"`
	CreatedAt  time.Time  `json:"created_at"`
	ExpiresAt  *time.Time `json:"expires_at,omitempty"`
}

// ListLinksReply is a page of a tenant's links.
type ListLinksReply struct {
	Links []*LinkReply `json:"links"`
	Total int          `json:"total"`
	Page  int          `json:"page"`
}

// LinkService adapts the link usecases to rendered responses. Mutations run
// through the idempotency coordinator with admission control inside, so a
// replay is answered before any budget is spent.
type LinkService struct {
	mutations   *biz.MutationUsecase
	resolution  *biz.ResolutionUsecase
	coordinator *biz.Coordinator
	limiter     *biz.RateLimiter
	baseURL     string
	log         *log.Helper
}

// NewLinkService creates a new LinkService.
func NewLinkService(
	mutations *biz.MutationUsecase,
	resolution *biz.ResolutionUsecase,
	coordinator *biz.Coordinator,
	limiter *biz.RateLimiter,
	c *conf.Shortener,
	logger log.Logger,
) *LinkService {
	var baseURL string
	if c != nil {
		baseURL = strings.TrimRight(c.BaseURL, "/")
	}
	return &LinkService{
		mutations:   mutations,
		resolution:  resolution,
		coordinator: coordinator,
		limiter:     limiter,
		baseURL:     baseURL,
		log:         log.NewHelper(logger),
	}
}

// CreateLink creates a link for the tenant named by tenantHeader, falling back
// to the tenant in the body.
func (s *LinkService) CreateLink(ctx context.Context, tenantHeader, idempotencyKey string, req *CreateLinkRequest) *biz.Response {
	tenantID := lo.Ternary(tenantHeader != "", tenantHeader, req.TenantID)
	key := biz.IdempotencyKey{TenantID: tenantID, Token: idempotencyKey}
	if err := validateKey(key); err != nil {
		return s.invalid(err)
	}

	resp, err := s.coordinator.Execute(ctx, key, func(ctx context.Context) (*biz.Response, error) {
		if tenantID == "" {
			return s.failure(ctx, domain.ErrTenantRequired), nil
		}
		if err := s.limiter.Allow(ctx, tenantID, biz.RouteCreate); err != nil {
			return nil, err
		}
		if err := req.Validate(); err != nil {
			return s.invalid(err), nil
		}

		in := biz.CreateLinkInput{
			TenantID:    tenantID,
			Destination: req.LongURL,
			Alias:       req.CustomAlias,
		}
		if req.TTLSeconds != nil {
			in.TTL = lo.ToPtr(time.Duration(*req.TTLSeconds) * time.Second)
		}

		link, err := s.mutations.Create(ctx, in)
		if err != nil {
			return s.failure(ctx, err), nil
		}
		return s.success(ctx, biz.OutcomeCreated, s.toLinkReply(link)), nil
	})
	if err != nil {
		return s.failure(ctx, err)
	}
	return resp
}

// DeleteLink soft-disables a tenant's link.
func (s *LinkService) DeleteLink(ctx context.Context, tenantID, idempotencyKey, code string) *biz.Response {
	key := biz.IdempotencyKey{TenantID: tenantID, Token: idempotencyKey}
	if err := validateKey(key); err != nil {
		return s.invalid(err)
	}

	resp, err := s.coordinator.Execute(ctx, key, func(ctx context.Context) (*biz.Response, error) {
		if tenantID == "" {
			return s.failure(ctx, domain.ErrTenantRequired), nil
		}
		if err := s.limiter.Allow(ctx, tenantID, biz.RouteDelete); err != nil {
			return nil, err
		}
		if err := s.mutations.Disable(ctx, tenantID, code); err != nil {
			return s.failure(ctx, err), nil
		}
		return &biz.Response{StatusCode: biz.OutcomeDeleted.StatusCode()}, nil
	})
	if err != nil {
		return s.failure(ctx, err)
	}
	return resp
}

// GetLink returns a tenant's link metadata.
func (s *LinkService) GetLink(ctx context.Context, tenantID, code string) *biz.Response {
	link, err := s.mutations.Get(ctx, tenantID, code)
	if err != nil {
		return s.failure(ctx, err)
	}
	return s.success(ctx, biz.OutcomeFound, s.toLinkReply(link))
}

// ListLinks returns a page of a tenant's links.
func (s *LinkService) ListLinks(ctx context.Context, tenantID string, page, pageSize int) *biz.Response {
	links, total, err := s.mutations.List(ctx, tenantID, page, pageSize)
	if err != nil {
		return s.failure(ctx, err)
	}

	return s.success(ctx, biz.OutcomeFound, &ListLinksReply{
		Links: lo.Map(links, func(l *domain.Link, _ int) *LinkReply { return s.toLinkReply(l) }),
		Total: total,
		Page:  max(page, 1),
	})
}

// Redirect resolves code. On success it returns the destination and a nil
// response; otherwise the rendered failure.
func (s *LinkService) Redirect(ctx context.Context, code string) (string, *biz.Response) {
	dest, err := s.resolution.Resolve(ctx, code)
	if err != nil {
		return "", s.failure(ctx, err)
	}
	return dest, nil
}

func (s *LinkService) toLinkReply(l *domain.Link) *LinkReply {
	return &LinkReply{
		ShortCode:  l.ShortCode().String(),
		ShortURL:   s.baseURL + "/" + l.ShortCode().String(),
		LongURL:    l.Destination().String(),
		TenantID:   l.TenantID(),
		Status:     string(l.StatusAt(s.mutations.Now())),
		ClickCount: l.ClickCount(),
		CreatedAt:  l.CreatedAt(),
		ExpiresAt:  l.ExpiresAt(),
	}
}

func (s *LinkService) success(ctx context.Context, outcome biz.Outcome, payload any) *biz.Response {
	body, err := json.Marshal(payload)
	if err != nil {
		return s.failure(ctx, err)
	}
	return &biz.Response{StatusCode: outcome.StatusCode(), Body: body}
}

func (s *LinkService) failure(ctx context.Context, err error) *biz.Response {
	outcome := biz.OutcomeFromError(err)
	status := outcome.StatusCode()

	detail := err.Error()
	switch {
	case outcome == biz.OutcomeServerError:
		s.log.WithContext(ctx).Errorf("request failed: %v", err)
		detail = "internal error"
	case errors.Is(err, domain.ErrInvalidURL):
		problem := problemdetails.New(status, problemdetails.TypeInvalidURL, "Invalid URL", detail)
		return &biz.Response{StatusCode: status, Body: problem.Bytes()}
	}
	return &biz.Response{StatusCode: status, Body: problemdetails.ForStatus(status, detail).Bytes()}
}

func (s *LinkService) invalid(err error) *biz.Response {
	var errs validation.Errors
	if !errors.As(err, &errs) {
		return &biz.Response{
			StatusCode: http.StatusBadRequest,
			Body:       problemdetails.ForStatus(http.StatusBadRequest, err.Error()).Bytes(),
		}
	}

	fields := lo.Keys(map[string]error(errs))
	sort.Strings(fields)
	fieldErrors := lo.Map(fields, func(field string, _ int) problemdetails.FieldError {
		return problemdetails.FieldError{Field: field, Message: errs[field].Error()}
	})
	return &biz.Response{
		StatusCode: http.StatusBadRequest,
		Body:       problemdetails.NewValidation(fieldErrors).Bytes(),
	}
}
