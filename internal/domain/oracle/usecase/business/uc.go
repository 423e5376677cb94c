package business

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/yukikm/subly/config"
	"github.com/yukikm/subly/internal/domain"
	"github.com/yukikm/subly/internal/infrastructure/metrics"
)

// UseCase validates raw price quotes and converts them to cents
type UseCase struct {
	source  domain.PriceSource
	clock   domain.Clock
	cfg     *config.OracleConfig
	metrics *metrics.Metrics
	logger  zerolog.Logger
}

func NewUseCase(
	source domain.PriceSource,
	clock domain.Clock,
	cfg *config.OracleConfig,
	m *metrics.Metrics,
	logger zerolog.Logger,
) *UseCase {
	return &UseCase{
		source:  source,
		clock:   clock,
		cfg:     cfg,
		metrics: m,
		logger:  logger,
	}
}

func (u *UseCase) SubscribeRate(ctx context.Context) (domain.Rate, error) {
	return u.Rate(ctx, u.cfg.SubscribeMaxAge)
}

func (u *UseCase) SettlementRate(ctx context.Context) (domain.Rate, error) {
	return u.Rate(ctx, u.cfg.SettlementMaxAge)
}

// Rate returns the latest price no older than maxAge, in cents per native unit
func (u *UseCase) Rate(ctx context.Context, maxAge time.Duration) (domain.Rate, error) {
	quote, err := u.source.Latest(ctx)
	if err != nil {
		u.metrics.RecordOracleError("unavailable")
		u.logger.Warn().Err(err).Msg("price feed unavailable")
		return domain.Rate{}, domain.ErrPriceNotAvailable
	}

	age := u.clock.Now().Sub(quote.PublishTime)
	if age > maxAge {
		u.metrics.RecordOracleError("stale")
		u.logger.Warn().
			Dur("age", age).
			Dur("max_age", maxAge).
			Msg("stale price rejected")
		return domain.Rate{}, domain.ErrPriceNotAvailable
	}

	if quote.Price <= 0 {
		u.metrics.RecordOracleError("non_positive")
		return domain.Rate{}, domain.ErrInvalidPrice
	}

	cents := decimal.New(quote.Price, quote.Expo).Shift(2).Truncate(0)
	if cents.LessThan(decimal.NewFromInt(int64(u.cfg.MinPriceCents))) ||
		cents.GreaterThan(decimal.NewFromInt(int64(u.cfg.MaxPriceCents))) {
		u.metrics.RecordOracleError("out_of_band")
		u.logger.Warn().
			Str("cents", cents.String()).
			Msg("price outside accepted band")
		return domain.Rate{}, domain.ErrInvalidPrice
	}

	rate := domain.Rate{
		Cents:       uint64(cents.IntPart()),
		PublishTime: quote.PublishTime,
	}
	u.metrics.RecordOracleRate(rate.Cents)

	return rate, nil
}
