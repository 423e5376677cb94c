package staking

import (
	"time"

	"github.com/rs/zerolog"
	"github.com/valyala/fasthttp"
	"go.uber.org/fx"

	"github.com/yukikm/subly/config"
	"github.com/yukikm/subly/internal/domain"
	stakinghttp "github.com/yukikm/subly/internal/domain/staking/delivery/http"
	"github.com/yukikm/subly/internal/domain/staking/deps"
	"github.com/yukikm/subly/internal/domain/staking/pool"
	"github.com/yukikm/subly/internal/domain/staking/usecase/business"
)

var Module = fx.Module(
	"staking",
	fx.Provide(
		NewStakingPool,
		business.NewUseCase,
		NewUseCase,
		NewUnwinder,
		stakinghttp.NewHandler,
	),
	fx.Invoke(stakinghttp.RegisterRoutes),
)

// NewStakingPool returns the configured pool, or nil when staking is disabled
func NewStakingPool(cfg *config.StakingConfig, log zerolog.Logger) domain.StakingPool {
	switch cfg.Mode {
	case "http":
		client := &fasthttp.Client{
			Name:                "subly-staking",
			ReadTimeout:         cfg.Timeout,
			WriteTimeout:        cfg.Timeout,
			MaxIdleConnDuration: time.Minute,
		}
		log.Info().Str("url", cfg.URL).Msg("using http staking pool")
		return pool.NewHTTPPool(client, cfg.URL, cfg.Timeout)
	case "simulated":
		log.Warn().Msg("using simulated staking pool")
		return pool.NewSimulatedPool()
	default:
		log.Info().Msg("staking disabled")
		return nil
	}
}

func NewUseCase(uc *business.UseCase) deps.StakingUseCase {
	return uc
}

func NewUnwinder(uc *business.UseCase) deps.Unwinder {
	return uc
}
