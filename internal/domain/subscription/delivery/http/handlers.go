package http

import (
	"fmt"
	"strconv"

	"github.com/rs/zerolog"
	"github.com/valyala/fasthttp"

	"github.com/yukikm/subly/internal/domain"
	"github.com/yukikm/subly/internal/domain/subscription/deps"
	"github.com/yukikm/subly/internal/domain/subscription/dto"
	"github.com/yukikm/subly/internal/infrastructure/http/server"
	apperrors "github.com/yukikm/subly/pkg/errors"
	"github.com/yukikm/subly/pkg/httputil"
)

type Handler struct {
	uc     deps.SubscriptionUseCase
	mapper *apperrors.Mapper
}

func NewHandler(uc deps.SubscriptionUseCase, mapper *apperrors.Mapper) *Handler {
	return &Handler{uc: uc, mapper: mapper}
}

// RegisterRoutes mounts the subscription endpoints
func RegisterRoutes(srv *server.Server, h *Handler, logger zerolog.Logger) {
	g := httputil.NewMiddlewareGroup(srv.Router.Group("/api/v1/subscriptions")).
		Use(httputil.AccessLog(logger))

	g.GET("/check", h.Check)

	user := g.Group("/me").Use(httputil.RequireCaller())
	user.GET("/subscriptions", h.List)
	user.POST("/subscribe", h.Subscribe)
	user.POST("/unsubscribe", h.Unsubscribe)
	user.GET("/affordable", h.ListAffordable)
}

func (h *Handler) Subscribe(ctx *fasthttp.RequestCtx) {
	var req dto.SubscribeRequest
	if err := httputil.ReadJSON(ctx, &req); err != nil {
		h.mapper.WriteBadRequest(ctx, err)
		return
	}

	res, err := h.uc.Subscribe(ctx, httputil.Caller(ctx), req)
	if err != nil {
		h.mapper.WriteError(ctx, err)
		return
	}
	httputil.WriteResponseWithStatus(ctx, res, fasthttp.StatusCreated)
}

func (h *Handler) Unsubscribe(ctx *fasthttp.RequestCtx) {
	var req dto.SubscribeRequest
	if err := httputil.ReadJSON(ctx, &req); err != nil {
		h.mapper.WriteBadRequest(ctx, err)
		return
	}

	res, err := h.uc.Unsubscribe(ctx, httputil.Caller(ctx), req)
	if err != nil {
		h.mapper.WriteError(ctx, err)
		return
	}
	httputil.WriteResponse(ctx, res)
}

// Check answers ?user=&provider=&service=
func (h *Handler) Check(ctx *fasthttp.RequestCtx) {
	args := ctx.QueryArgs()
	serviceID, err := strconv.ParseUint(string(args.Peek("service")), 10, 64)
	if err != nil {
		h.mapper.WriteBadRequest(ctx, fmt.Errorf("invalid service id: %w", err))
		return
	}

	active, err := h.uc.CheckSubscription(ctx, domain.SubscriptionKey{
		UserID:     string(args.Peek("user")),
		ProviderID: string(args.Peek("provider")),
		ServiceID:  serviceID,
	})
	if err != nil {
		h.mapper.WriteError(ctx, err)
		return
	}
	httputil.WriteResponse(ctx, dto.CheckResult{Active: active})
}

func (h *Handler) List(ctx *fasthttp.RequestCtx) {
	subs, err := h.uc.ListUserSubscriptions(ctx, httputil.Caller(ctx))
	if err != nil {
		h.mapper.WriteError(ctx, err)
		return
	}
	httputil.WriteResponse(ctx, subs)
}

// ListAffordable answers ?apy_bps=
func (h *Handler) ListAffordable(ctx *fasthttp.RequestCtx) {
	apy, err := strconv.ParseUint(string(ctx.QueryArgs().Peek("apy_bps")), 10, 64)
	if err != nil {
		h.mapper.WriteBadRequest(ctx, fmt.Errorf("invalid apy_bps: %w", err))
		return
	}

	services, err := h.uc.ListAffordableServices(ctx, httputil.Caller(ctx), apy)
	if err != nil {
		h.mapper.WriteError(ctx, err)
		return
	}
	httputil.WriteResponse(ctx, services)
}
