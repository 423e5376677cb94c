package http

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/valyala/fasthttp"

	"github.com/yukikm/subly/internal/domain/certificate/deps"
	"github.com/yukikm/subly/internal/infrastructure/http/server"
	apperrors "github.com/yukikm/subly/pkg/errors"
	"github.com/yukikm/subly/pkg/httputil"
)

type Handler struct {
	uc     deps.CertificateUseCase
	mapper *apperrors.Mapper
}

func NewHandler(uc deps.CertificateUseCase, mapper *apperrors.Mapper) *Handler {
	return &Handler{uc: uc, mapper: mapper}
}

func RegisterRoutes(srv *server.Server, h *Handler, logger zerolog.Logger) {
	g := httputil.NewMiddlewareGroup(srv.Router.Group("/api/v1/certificates")).
		Use(httputil.AccessLog(logger))

	g.GET("/{id}", h.Get)
}

func (h *Handler) Get(ctx *fasthttp.RequestCtx) {
	raw, _ := ctx.UserValue("id").(string)
	id, err := uuid.Parse(raw)
	if err != nil {
		h.mapper.WriteBadRequest(ctx, fmt.Errorf("invalid certificate id: %w", err))
		return
	}

	cert, err := h.uc.Get(ctx, id)
	if err != nil {
		h.mapper.WriteError(ctx, err)
		return
	}
	httputil.WriteResponse(ctx, cert)
}
