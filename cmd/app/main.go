package main

import (
	"context"

	"github.com/rs/zerolog"
	"go.uber.org/fx"

	"github.com/yukikm/subly/config"
	"github.com/yukikm/subly/internal/app"
)

func main() {
	fx.New(
		app.CreateApp(),
		fx.Invoke(run),
	).Run()
}

func run(lc fx.Lifecycle, cfg *config.Config, logger zerolog.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			logger.Info().
				Str("service", cfg.Service.Name).
				Str("port", cfg.Service.Port).
				Str("grpc_port", cfg.Service.GRPCPort).
				Str("store", cfg.Database.Driver).
				Str("staking", cfg.Staking.Mode).
				Msg("Starting billing service")
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info().Msg("Shutting down billing service...")
			return nil
		},
	})
}
