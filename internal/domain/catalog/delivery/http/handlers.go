package http

import (
	"fmt"
	"strconv"

	"github.com/rs/zerolog"
	"github.com/valyala/fasthttp"

	"github.com/yukikm/subly/internal/domain/catalog/deps"
	"github.com/yukikm/subly/internal/domain/catalog/dto"
	"github.com/yukikm/subly/internal/infrastructure/http/server"
	apperrors "github.com/yukikm/subly/pkg/errors"
	"github.com/yukikm/subly/pkg/httputil"
)

type Handler struct {
	uc     deps.CatalogUseCase
	mapper *apperrors.Mapper
}

func NewHandler(uc deps.CatalogUseCase, mapper *apperrors.Mapper) *Handler {
	return &Handler{uc: uc, mapper: mapper}
}

// RegisterRoutes mounts the catalog endpoints; reads are public
func RegisterRoutes(srv *server.Server, h *Handler, logger zerolog.Logger) {
	public := httputil.NewMiddlewareGroup(srv.Router.Group("/api/v1/catalog")).
		Use(httputil.AccessLog(logger))
	public.GET("/services", h.ListServices)
	public.GET("/services/{id}", h.GetService)
	public.GET("/providers/{owner}", h.GetProvider)

	owner := public.Group("/owner").Use(httputil.RequireCaller())
	owner.POST("/providers", h.RegisterProvider)
	owner.POST("/services", h.RegisterService)
	owner.POST("/services/{id}/deactivate", h.DeactivateService)
}

func (h *Handler) RegisterProvider(ctx *fasthttp.RequestCtx) {
	var req dto.RegisterProviderRequest
	if err := httputil.ReadJSON(ctx, &req); err != nil {
		h.mapper.WriteBadRequest(ctx, err)
		return
	}

	provider, err := h.uc.RegisterProvider(ctx, httputil.Caller(ctx), req.Name, req.Description)
	if err != nil {
		h.mapper.WriteError(ctx, err)
		return
	}
	httputil.WriteResponseWithStatus(ctx, provider, fasthttp.StatusCreated)
}

func (h *Handler) RegisterService(ctx *fasthttp.RequestCtx) {
	var req dto.RegisterServiceRequest
	if err := httputil.ReadJSON(ctx, &req); err != nil {
		h.mapper.WriteBadRequest(ctx, err)
		return
	}

	service, err := h.uc.RegisterService(ctx, httputil.Caller(ctx), req)
	if err != nil {
		h.mapper.WriteError(ctx, err)
		return
	}
	httputil.WriteResponseWithStatus(ctx, service, fasthttp.StatusCreated)
}

func (h *Handler) DeactivateService(ctx *fasthttp.RequestCtx) {
	id, err := serviceID(ctx)
	if err != nil {
		h.mapper.WriteBadRequest(ctx, err)
		return
	}

	service, err := h.uc.DeactivateService(ctx, httputil.Caller(ctx), id)
	if err != nil {
		h.mapper.WriteError(ctx, err)
		return
	}
	httputil.WriteResponse(ctx, service)
}

func (h *Handler) GetService(ctx *fasthttp.RequestCtx) {
	id, err := serviceID(ctx)
	if err != nil {
		h.mapper.WriteBadRequest(ctx, err)
		return
	}

	service, err := h.uc.GetService(ctx, id)
	if err != nil {
		h.mapper.WriteError(ctx, err)
		return
	}
	httputil.WriteResponse(ctx, service)
}

func (h *Handler) GetProvider(ctx *fasthttp.RequestCtx) {
	owner, _ := ctx.UserValue("owner").(string)

	provider, err := h.uc.GetProvider(ctx, owner)
	if err != nil {
		h.mapper.WriteError(ctx, err)
		return
	}
	httputil.WriteResponse(ctx, provider)
}

// ListServices returns active services unless ?all=true
func (h *Handler) ListServices(ctx *fasthttp.RequestCtx) {
	activeOnly := string(ctx.QueryArgs().Peek("all")) != "true"

	services, err := h.uc.ListServices(ctx, activeOnly)
	if err != nil {
		h.mapper.WriteError(ctx, err)
		return
	}
	httputil.WriteResponse(ctx, services)
}

func serviceID(ctx *fasthttp.RequestCtx) (uint64, error) {
	raw, _ := ctx.UserValue("id").(string)
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid service id %q", raw)
	}
	return id, nil
}
