package http

import (
	"github.com/rs/zerolog"
	"github.com/valyala/fasthttp"

	"github.com/yukikm/subly/internal/domain/ledger/deps"
	"github.com/yukikm/subly/internal/domain/ledger/dto"
	"github.com/yukikm/subly/internal/infrastructure/http/server"
	apperrors "github.com/yukikm/subly/pkg/errors"
	"github.com/yukikm/subly/pkg/httputil"
)

type Handler struct {
	uc     deps.LedgerUseCase
	mapper *apperrors.Mapper
}

func NewHandler(uc deps.LedgerUseCase, mapper *apperrors.Mapper) *Handler {
	return &Handler{uc: uc, mapper: mapper}
}

// RegisterRoutes mounts the ledger endpoints
func RegisterRoutes(srv *server.Server, h *Handler, logger zerolog.Logger) {
	g := httputil.NewMiddlewareGroup(srv.Router.Group("/api/v1/ledger")).
		Use(httputil.AccessLog(logger), httputil.RequireCaller())

	g.POST("/deposit", h.Deposit)
	g.POST("/withdraw", h.Withdraw)
	g.GET("/balance", h.GetBalance)
}

func (h *Handler) Deposit(ctx *fasthttp.RequestCtx) {
	var req dto.DepositRequest
	if err := httputil.ReadJSON(ctx, &req); err != nil {
		h.mapper.WriteBadRequest(ctx, err)
		return
	}

	bal, err := h.uc.Deposit(ctx, httputil.Caller(ctx), req.Amount)
	if err != nil {
		h.mapper.WriteError(ctx, err)
		return
	}

	httputil.WriteResponse(ctx, bal)
}

func (h *Handler) Withdraw(ctx *fasthttp.RequestCtx) {
	var req dto.WithdrawRequest
	if err := httputil.ReadJSON(ctx, &req); err != nil {
		h.mapper.WriteBadRequest(ctx, err)
		return
	}

	res, err := h.uc.Withdraw(ctx, httputil.Caller(ctx), req.Amount, req.ApyBps)
	if err != nil {
		h.mapper.WriteError(ctx, err)
		return
	}

	httputil.WriteResponse(ctx, res)
}

func (h *Handler) GetBalance(ctx *fasthttp.RequestCtx) {
	bal, err := h.uc.GetBalance(ctx, httputil.Caller(ctx))
	if err != nil {
		h.mapper.WriteError(ctx, err)
		return
	}

	httputil.WriteResponse(ctx, bal)
}
