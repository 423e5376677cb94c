package errors

import (
	"context"
	"fmt"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/valyala/fasthttp"

	"github.com/yukikm/subly/internal/domain"
)

func TestMapper_MapErrorToHTTP(t *testing.T) {
	m := NewMapper(zerolog.Nop())

	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"nil", nil, fasthttp.StatusOK, ""},
		{"validation", domain.ErrNameTooLong, fasthttp.StatusBadRequest, "name_too_long"},
		{"authorization", domain.ErrUnauthorizedAuthority, fasthttp.StatusForbidden, "unauthorized_authority"},
		{"not found", domain.ErrServiceNotFound, fasthttp.StatusNotFound, "service_not_found"},
		{"conflict", domain.ErrSubscriptionAlreadyExists, fasthttp.StatusConflict, "subscription_already_exists"},
		{"timing", domain.ErrPaymentNotDue, fasthttp.StatusConflict, "payment_not_due"},
		{"balance", domain.ErrInsufficientAvailableBalance, fasthttp.StatusUnprocessableEntity, "insufficient_available_balance"},
		{"state", domain.ErrProtocolPaused, fasthttp.StatusUnprocessableEntity, "protocol_paused"},
		{"external", domain.ErrInvalidPrice, fasthttp.StatusBadGateway, "invalid_price"},
		{"wrapped", fmt.Errorf("subscribe: %w", domain.ErrInvalidPrice), fasthttp.StatusBadGateway, "invalid_price"},
		{"arithmetic", domain.ErrArithmeticOverflow, fasthttp.StatusInternalServerError, "arithmetic_overflow"},
		{"timeout", context.DeadlineExceeded, fasthttp.StatusGatewayTimeout, "timeout"},
		{"unknown", assert.AnError, fasthttp.StatusInternalServerError, "internal"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, code, _ := m.MapErrorToHTTP(tt.err)
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.code, code)
		})
	}
}
