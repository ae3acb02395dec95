package server

import (
	"context"
	nethttp "net/http"
	"strconv"

	"link-shortener/internal/biz"
	"link-shortener/internal/conf"
	"link-shortener/internal/service"
	"link-shortener/pkg/problemdetails"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/go-kratos/kratos/v2/middleware/logging"
	"github.com/go-kratos/kratos/v2/middleware/recovery"
	"github.com/go-kratos/kratos/v2/middleware/tracing"
	"github.com/go-kratos/kratos/v2/transport/http"
)

const (
	HeaderTenantID           = "X-Tenant-Id"
	HeaderIdempotencyKey     = "Idempotency-Key"
	HeaderIdempotentReplayed = "Idempotent-Replayed"
)

const (
	OperationCreateLink = "/link.v1.Links/CreateLink"
	OperationDeleteLink = "/link.v1.Links/DeleteLink"
	OperationGetLink    = "/link.v1.Links/GetLink"
	OperationListLinks  = "/link.v1.Links/ListLinks"
	OperationRedirect   = "/link.v1.Links/Redirect"
)

// NewHTTPServer new an HTTP server.
func NewHTTPServer(c *conf.Server, links *service.LinkService, logger log.Logger) *http.Server {
	var opts = []http.ServerOption{
		http.Middleware(
			recovery.Recovery(),
			tracing.Server(),
			logging.Server(logger),
		),
	}
	if c != nil && c.HTTP != nil {
		if c.HTTP.Network != "" {
			opts = append(opts, http.Network(c.HTTP.Network))
		}
		if c.HTTP.Addr != "" {
			opts = append(opts, http.Address(c.HTTP.Addr))
		}
		if c.HTTP.Timeout.AsDuration() > 0 {
			opts = append(opts, http.Timeout(c.HTTP.Timeout.AsDuration()))
		}
	}
	srv := http.NewServer(opts...)
	registerLinkRoutes(srv, links)
	return srv
}

type linkRoutes struct {
	links *service.LinkService
}

// registerLinkRoutes mounts the link API. /health is registered ahead of the
// catch-all redirect route.
func registerLinkRoutes(srv *http.Server, links *service.LinkService) {
	h := &linkRoutes{links: links}

	r := srv.Route("/")
	r.GET("/health", h.health)
	r.POST("/v1/links", h.create)
	r.GET("/v1/links", h.list)
	r.GET("/v1/links/{code}", h.get)
	r.DELETE("/v1/links/{code}", h.delete)
	r.GET("/{code}", h.redirect)
}

func (h *linkRoutes) health(ctx http.Context) error {
	return ctx.JSON(nethttp.StatusOK, map[string]string{"status": "ok"})
}

func (h *linkRoutes) create(ctx http.Context) error {
	var in service.CreateLinkRequest
	if err := ctx.Bind(&in); err != nil {
		return writeResponse(ctx, badRequest("malformed request body"))
	}

	tenantID, key := tenantOf(ctx), ctx.Header().Get(HeaderIdempotencyKey)
	return h.serve(ctx, OperationCreateLink, &in, func(c context.Context) *biz.Response {
		return h.links.CreateLink(c, tenantID, key, &in)
	})
}

func (h *linkRoutes) delete(ctx http.Context) error {
	tenantID, key, code := tenantOf(ctx), ctx.Header().Get(HeaderIdempotencyKey), ctx.Vars().Get("code")
	return h.serve(ctx, OperationDeleteLink, code, func(c context.Context) *biz.Response {
		return h.links.DeleteLink(c, tenantID, key, code)
	})
}

func (h *linkRoutes) get(ctx http.Context) error {
	tenantID, code := tenantOf(ctx), ctx.Vars().Get("code")
	return h.serve(ctx, OperationGetLink, code, func(c context.Context) *biz.Response {
		return h.links.GetLink(c, tenantID, code)
	})
}

func (h *linkRoutes) list(ctx http.Context) error {
	page, _ := strconv.Atoi(ctx.Query().Get("page"))
	pageSize, _ := strconv.Atoi(ctx.Query().Get("page_size"))
	tenantID := tenantOf(ctx)
	return h.serve(ctx, OperationListLinks, nil, func(c context.Context) *biz.Response {
		return h.links.ListLinks(c, tenantID, page, pageSize)
	})
}

func (h *linkRoutes) redirect(ctx http.Context) error {
	code := ctx.Vars().Get("code")

	http.SetOperation(ctx, OperationRedirect)
	handler := ctx.Middleware(func(c context.Context, _ any) (any, error) {
		dest, resp := h.links.Redirect(c, code)
		if resp != nil {
			return resp, nil
		}
		return dest, nil
	})
	out, err := handler(ctx, code)
	if err != nil {
		return err
	}

	if resp, ok := out.(*biz.Response); ok {
		return writeResponse(ctx, resp)
	}
	nethttp.Redirect(ctx.Response(), ctx.Request(), out.(string), nethttp.StatusTemporaryRedirect)
	return nil
}

// serve runs fn through the server middleware chain and writes its response.
func (h *linkRoutes) serve(ctx http.Context, operation string, req any, fn func(context.Context) *biz.Response) error {
	http.SetOperation(ctx, operation)
	handler := ctx.Middleware(func(c context.Context, _ any) (any, error) {
		return fn(c), nil
	})
	out, err := handler(ctx, req)
	if err != nil {
		return err
	}
	return writeResponse(ctx, out.(*biz.Response))
}

func tenantOf(ctx http.Context) string {
	return ctx.Header().Get(HeaderTenantID)
}

func badRequest(detail string) *biz.Response {
	return &biz.Response{
		StatusCode: nethttp.StatusBadRequest,
		Body:       problemdetails.ForStatus(nethttp.StatusBadRequest, detail).Bytes(),
	}
}

func writeResponse(ctx http.Context, resp *biz.Response) error {
	w := ctx.Response()
	if resp.Replayed {
		w.Header().Set(HeaderIdempotentReplayed, "true")
	}
	if len(resp.Body) == 0 {
		w.WriteHeader(resp.StatusCode)
		return nil
	}

	contentType := "application/json"
	if resp.StatusCode >= nethttp.StatusBadRequest {
		contentType = problemdetails.ContentType
	}
	return ctx.Blob(resp.StatusCode, contentType, resp.Body)
}
