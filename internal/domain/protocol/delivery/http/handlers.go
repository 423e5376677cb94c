package http

import (
	"github.com/rs/zerolog"
	"github.com/valyala/fasthttp"

	"github.com/yukikm/subly/internal/domain/protocol/deps"
	"github.com/yukikm/subly/internal/domain/protocol/dto"
	"github.com/yukikm/subly/internal/infrastructure/http/server"
	apperrors "github.com/yukikm/subly/pkg/errors"
	"github.com/yukikm/subly/pkg/httputil"
)

type Handler struct {
	uc     deps.ProtocolUseCase
	mapper *apperrors.Mapper
}

func NewHandler(uc deps.ProtocolUseCase, mapper *apperrors.Mapper) *Handler {
	return &Handler{uc: uc, mapper: mapper}
}

// RegisterRoutes mounts the protocol endpoints; reads are public
func RegisterRoutes(srv *server.Server, h *Handler, logger zerolog.Logger) {
	public := httputil.NewMiddlewareGroup(srv.Router.Group("/api/v1")).
		Use(httputil.AccessLog(logger))
	public.GET("/protocol", h.Get)

	admin := public.Group("/protocol").Use(httputil.RequireCaller())
	admin.POST("/initialize", h.Initialize)
	admin.POST("/fee", h.SetFee)
	admin.POST("/pause", h.SetPaused)
}

func (h *Handler) Get(ctx *fasthttp.RequestCtx) {
	cfg, err := h.uc.Get(ctx)
	if err != nil {
		h.mapper.WriteError(ctx, err)
		return
	}
	httputil.WriteResponse(ctx, cfg)
}

func (h *Handler) Initialize(ctx *fasthttp.RequestCtx) {
	var req dto.InitializeRequest
	if err := httputil.ReadJSON(ctx, &req); err != nil {
		h.mapper.WriteBadRequest(ctx, err)
		return
	}

	cfg, err := h.uc.Initialize(ctx, httputil.Caller(ctx), req.OracleRef, req.StakingRef)
	if err != nil {
		h.mapper.WriteError(ctx, err)
		return
	}
	httputil.WriteResponseWithStatus(ctx, cfg, fasthttp.StatusCreated)
}

func (h *Handler) SetFee(ctx *fasthttp.RequestCtx) {
	var req dto.SetFeeRequest
	if err := httputil.ReadJSON(ctx, &req); err != nil {
		h.mapper.WriteBadRequest(ctx, err)
		return
	}

	cfg, err := h.uc.SetProtocolFee(ctx, httputil.Caller(ctx), req.FeeBps)
	if err != nil {
		h.mapper.WriteError(ctx, err)
		return
	}
	httputil.WriteResponse(ctx, cfg)
}

func (h *Handler) SetPaused(ctx *fasthttp.RequestCtx) {
	var req dto.SetPausedRequest
	if err := httputil.ReadJSON(ctx, &req); err != nil {
		h.mapper.WriteBadRequest(ctx, err)
		return
	}

	cfg, err := h.uc.SetPaused(ctx, httputil.Caller(ctx), req.Paused)
	if err != nil {
		h.mapper.WriteError(ctx, err)
		return
	}
	httputil.WriteResponse(ctx, cfg)
}
