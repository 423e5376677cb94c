package oracle

import (
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/fx"

	"github.com/yukikm/subly/config"
	"github.com/yukikm/subly/internal/domain"
	"github.com/yukikm/subly/internal/domain/oracle/source"
	"github.com/yukikm/subly/internal/domain/oracle/usecase/business"
)

var Module = fx.Module(
	"oracle",
	fx.Provide(
		NewPriceSource,
		business.NewUseCase,
		NewRateProvider,
	),
)

func NewPriceSource(cfg *config.OracleConfig) domain.PriceSource {
	client := &fasthttp.Client{
		Name:                "subly-oracle",
		ReadTimeout:         cfg.Timeout,
		WriteTimeout:        cfg.Timeout,
		MaxIdleConnDuration: time.Minute,
	}
	return source.NewHermesSource(client, cfg.URL, cfg.FeedID, cfg.Timeout)
}

func NewRateProvider(uc *business.UseCase) domain.RateProvider {
	return uc
}
