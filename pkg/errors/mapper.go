package errors

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
	"github.com/valyala/fasthttp"

	"github.com/yukikm/subly/internal/domain"
	"github.com/yukikm/subly/pkg/httputil"
)

// Mapper maps domain errors to HTTP status codes
type Mapper struct {
	logger zerolog.Logger
}

// NewMapper creates a new error mapper
func NewMapper(logger zerolog.Logger) *Mapper {
	return &Mapper{logger: logger}
}

// MapErrorToHTTP maps an error to HTTP status code, error code and message
func (m *Mapper) MapErrorToHTTP(err error) (int, string, string) {
	if err == nil {
		return fasthttp.StatusOK, "", ""
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return fasthttp.StatusGatewayTimeout, "timeout", "request timed out"
	}

	var domainErr *domain.Error
	if !errors.As(err, &domainErr) {
		m.logger.Error().Err(err).Msg("unclassified error")
		return fasthttp.StatusInternalServerError, "internal", "internal server error"
	}

	switch domainErr.Kind {
	case domain.KindValidation:
		return fasthttp.StatusBadRequest, domainErr.Code, domainErr.Message
	case domain.KindAuthorization:
		return fasthttp.StatusForbidden, domainErr.Code, domainErr.Message
	case domain.KindNotFound:
		return fasthttp.StatusNotFound, domainErr.Code, domainErr.Message
	case domain.KindConflict, domain.KindTiming:
		return fasthttp.StatusConflict, domainErr.Code, domainErr.Message
	case domain.KindBalance, domain.KindState:
		return fasthttp.StatusUnprocessableEntity, domainErr.Code, domainErr.Message
	case domain.KindExternal:
		return fasthttp.StatusBadGateway, domainErr.Code, domainErr.Message
	default:
		m.logger.Error().Err(err).Str("code", domainErr.Code).Msg("internal error")
		return fasthttp.StatusInternalServerError, domainErr.Code, "internal server error"
	}
}

// WriteError maps err and writes it as the JSON error response
func (m *Mapper) WriteError(ctx *fasthttp.RequestCtx, err error) {
	status, code, message := m.MapErrorToHTTP(err)
	httputil.WriteErrorResponse(ctx, code, message, status)
}

// WriteBadRequest writes a malformed request response
func (m *Mapper) WriteBadRequest(ctx *fasthttp.RequestCtx, err error) {
	httputil.WriteErrorResponse(ctx, "bad_request", err.Error(), fasthttp.StatusBadRequest)
}
