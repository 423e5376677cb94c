package protocol

import (
	"context"

	"github.com/rs/zerolog"
	"go.uber.org/fx"
	"google.golang.org/grpc/health"

	"github.com/yukikm/subly/config"
	protocolhttp "github.com/yukikm/subly/internal/domain/protocol/delivery/http"
	"github.com/yukikm/subly/internal/domain/protocol/deps"
	"github.com/yukikm/subly/internal/domain/protocol/usecase/business"
	grpcinfra "github.com/yukikm/subly/internal/infrastructure/grpc"
)

var Module = fx.Module(
	"protocol",
	fx.Provide(
		business.NewUseCase,
		NewUseCase,
		protocolhttp.NewHandler,
	),
	fx.Invoke(
		protocolhttp.RegisterRoutes,
		bootstrap,
		reportPauseState,
	),
)

func NewUseCase(uc *business.UseCase) deps.ProtocolUseCase {
	return uc
}

// bootstrap creates the protocol record on first start
func bootstrap(lc fx.Lifecycle, uc *business.UseCase, cfg *config.ProtocolConfig, log zerolog.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			pc, err := uc.EnsureInitialized(ctx, cfg.AuthorityID, cfg.OracleRef, cfg.StakingRef)
			if err != nil {
				return err
			}
			if pc.AuthorityID != cfg.AuthorityID {
				log.Warn().
					Str("configured", cfg.AuthorityID).
					Str("stored", pc.AuthorityID).
					Msg("stored protocol authority differs from configuration")
			}
			return nil
		},
	})
}

// reportPauseState mirrors the pause flag into the gRPC health status
func reportPauseState(lc fx.Lifecycle, uc *business.UseCase, hs *health.Server) {
	uc.OnPauseChange(func(paused bool) {
		grpcinfra.SetPaused(hs, paused)
	})

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			pc, err := uc.Get(ctx)
			if err != nil {
				return err
			}
			grpcinfra.SetPaused(hs, pc.Paused)
			return nil
		},
	})
}
