package http

import (
	"fmt"
	"strconv"

	"github.com/rs/zerolog"
	"github.com/valyala/fasthttp"

	"github.com/yukikm/subly/internal/domain/settlement/deps"
	"github.com/yukikm/subly/internal/domain/settlement/dto"
	"github.com/yukikm/subly/internal/infrastructure/http/server"
	apperrors "github.com/yukikm/subly/pkg/errors"
	"github.com/yukikm/subly/pkg/httputil"
)

type Handler struct {
	uc     deps.SettlementUseCase
	mapper *apperrors.Mapper
	logger zerolog.Logger
}

func NewHandler(uc deps.SettlementUseCase, mapper *apperrors.Mapper, logger zerolog.Logger) *Handler {
	return &Handler{uc: uc, mapper: mapper, logger: logger}
}

// RegisterRoutes mounts the batch trigger endpoints
func RegisterRoutes(srv *server.Server, h *Handler, logger zerolog.Logger) {
	g := httputil.NewMiddlewareGroup(srv.Router.Group("/api/v1/settlement")).
		Use(httputil.AccessLog(logger), httputil.RequireCaller())

	g.GET("/payments/{subscription_id}", h.ListPayments)

	g.POST("/batch", h.requireAuthority(h.RunBatch))
	g.POST("/execute", h.requireAuthority(h.ExecutePayment))
	g.POST("/run", h.requireAuthority(h.RunCycle))
}

// requireAuthority rejects callers other than the protocol authority
func (h *Handler) requireAuthority(next fasthttp.RequestHandler) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		caller := httputil.Caller(ctx)
		if err := h.uc.Authorize(ctx, caller); err != nil {
			h.logger.Warn().Err(err).Str("caller", caller).Bytes("path", ctx.Path()).Msg("settlement trigger rejected")
			h.mapper.WriteError(ctx, err)
			return
		}
		next(ctx)
	}
}

func (h *Handler) RunBatch(ctx *fasthttp.RequestCtx) {
	res, err := h.uc.RunBatch(ctx)
	if err != nil {
		h.mapper.WriteError(ctx, err)
		return
	}

	h.logger.Info().
		Str("caller", httputil.Caller(ctx)).
		Str("batch_id", res.BatchID.String()).
		Msg("settlement batch triggered over http")

	httputil.WriteResponse(ctx, res)
}

func (h *Handler) ExecutePayment(ctx *fasthttp.RequestCtx) {
	var req dto.ExecuteRequest
	if err := httputil.ReadJSON(ctx, &req); err != nil {
		h.mapper.WriteBadRequest(ctx, err)
		return
	}

	res, err := h.uc.ExecutePayment(ctx, req.Key(), req.BatchID)
	if err != nil {
		h.mapper.WriteError(ctx, err)
		return
	}
	httputil.WriteResponse(ctx, res)
}

func (h *Handler) RunCycle(ctx *fasthttp.RequestCtx) {
	report, err := h.uc.RunCycle(ctx)
	if err != nil && report == nil {
		h.mapper.WriteError(ctx, err)
		return
	}
	httputil.WriteResponse(ctx, report)
}

func (h *Handler) ListPayments(ctx *fasthttp.RequestCtx) {
	raw, _ := ctx.UserValue("subscription_id").(string)
	id, err := strconv.ParseUint(raw, 10, 0)
	if err != nil {
		h.mapper.WriteBadRequest(ctx, fmt.Errorf("invalid subscription id %q", raw))
		return
	}

	records, err := h.uc.ListPayments(ctx, uint(id))
	if err != nil {
		h.mapper.WriteError(ctx, err)
		return
	}
	httputil.WriteResponse(ctx, records)
}
