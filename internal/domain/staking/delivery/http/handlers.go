package http

import (
	"github.com/rs/zerolog"
	"github.com/valyala/fasthttp"

	"github.com/yukikm/subly/internal/domain/staking/deps"
	"github.com/yukikm/subly/internal/domain/staking/dto"
	"github.com/yukikm/subly/internal/infrastructure/http/server"
	apperrors "github.com/yukikm/subly/pkg/errors"
	"github.com/yukikm/subly/pkg/httputil"
)

type Handler struct {
	uc     deps.StakingUseCase
	mapper *apperrors.Mapper
	logger zerolog.Logger
}

func NewHandler(uc deps.StakingUseCase, mapper *apperrors.Mapper, logger zerolog.Logger) *Handler {
	return &Handler{uc: uc, mapper: mapper, logger: logger}
}

// RegisterRoutes mounts the staking endpoints
func RegisterRoutes(srv *server.Server, h *Handler, logger zerolog.Logger) {
	g := httputil.NewMiddlewareGroup(srv.Router.Group("/api/v1/staking")).
		Use(httputil.AccessLog(logger), httputil.RequireCaller())

	g.POST("/stake", h.Stake)
	g.POST("/unstake", h.Unstake)
	g.POST("/claim", h.ClaimYield)
	g.GET("/position", h.GetPosition)
}

func (h *Handler) Stake(ctx *fasthttp.RequestCtx) {
	var req dto.StakeRequest
	if err := httputil.ReadJSON(ctx, &req); err != nil {
		h.mapper.WriteBadRequest(ctx, err)
		return
	}

	res, err := h.uc.Stake(ctx, httputil.Caller(ctx), req.Amount)
	if err != nil {
		h.mapper.WriteError(ctx, err)
		return
	}

	httputil.WriteResponse(ctx, res)
}

func (h *Handler) Unstake(ctx *fasthttp.RequestCtx) {
	var req dto.UnstakeRequest
	if err := httputil.ReadJSON(ctx, &req); err != nil {
		h.mapper.WriteBadRequest(ctx, err)
		return
	}

	res, err := h.uc.Unstake(ctx, httputil.Caller(ctx), req.ReceiptAmount, req.ApyBps)
	if err != nil {
		h.mapper.WriteError(ctx, err)
		return
	}

	httputil.WriteResponse(ctx, res)
}

func (h *Handler) ClaimYield(ctx *fasthttp.RequestCtx) {
	res, err := h.uc.ClaimYield(ctx, httputil.Caller(ctx))
	if err != nil {
		h.mapper.WriteError(ctx, err)
		return
	}

	httputil.WriteResponse(ctx, res)
}

func (h *Handler) GetPosition(ctx *fasthttp.RequestCtx) {
	pos, err := h.uc.GetPosition(ctx, httputil.Caller(ctx))
	if err != nil {
		h.mapper.WriteError(ctx, err)
		return
	}

	httputil.WriteResponse(ctx, pos)
}
