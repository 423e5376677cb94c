package business

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yukikm/subly/config"
	"github.com/yukikm/subly/internal/domain"
	"github.com/yukikm/subly/internal/infrastructure/metrics"
)

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

type stubSource struct {
	quote domain.PriceQuote
	err   error
}

func (s stubSource) Latest(ctx context.Context) (domain.PriceQuote, error) {
	return s.quote, s.err
}

var now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newUseCase(src domain.PriceSource) *UseCase {
	cfg := &config.OracleConfig{
		SubscribeMaxAge:  time.Hour,
		SettlementMaxAge: 5 * time.Minute,
		MinPriceCents:    1000,
		MaxPriceCents:    100000,
	}
	return NewUseCase(src, fixedClock{now}, cfg, metrics.NewMetrics(prometheus.NewRegistry()), zerolog.Nop())
}

func TestRate_ConvertsFixedPoint(t *testing.T) {
	// 150.23456789 fiat per native unit
	uc := newUseCase(stubSource{quote: domain.PriceQuote{Price: 15023456789, Expo: -8, PublishTime: now}})

	rate, err := uc.SubscribeRate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(15023), rate.Cents)
	assert.Equal(t, now, rate.PublishTime)
}

func TestRate_PositiveExponent(t *testing.T) {
	uc := newUseCase(stubSource{quote: domain.PriceQuote{Price: 2, Expo: 2, PublishTime: now}})

	rate, err := uc.SubscribeRate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(20000), rate.Cents)
}

func TestRate_Staleness(t *testing.T) {
	uc := newUseCase(stubSource{quote: domain.PriceQuote{Price: 100_00000000, Expo: -8, PublishTime: now.Add(-10 * time.Minute)}})

	_, err := uc.SubscribeRate(context.Background())
	require.NoError(t, err)

	_, err = uc.SettlementRate(context.Background())
	assert.ErrorIs(t, err, domain.ErrPriceNotAvailable)
}

func TestRate_Band(t *testing.T) {
	tests := []struct {
		name  string
		price int64
		err   error
	}{
		{"below band", 999, domain.ErrInvalidPrice},
		{"lower bound", 1000, nil},
		{"upper bound", 100000, nil},
		{"above band", 100001, domain.ErrInvalidPrice},
		{"zero", 0, domain.ErrInvalidPrice},
		{"negative", -5, domain.ErrInvalidPrice},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// expo -2 makes price already expressed in cents
			uc := newUseCase(stubSource{quote: domain.PriceQuote{Price: tt.price, Expo: -2, PublishTime: now}})
			_, err := uc.SettlementRate(context.Background())
			if tt.err == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.err)
		})
	}
}

func TestRate_SourceFailure(t *testing.T) {
	uc := newUseCase(stubSource{err: errors.New("connection refused")})

	_, err := uc.SubscribeRate(context.Background())
	assert.ErrorIs(t, err, domain.ErrPriceNotAvailable)
}
