package grpc

import (
	"context"
	"net"

	"github.com/rs/zerolog"
	"go.uber.org/fx"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/yukikm/subly/config"
)

// BillingService is the health check name that reports whether billing
// operations are accepted; it goes NOT_SERVING while the protocol is paused
const BillingService = "subly.billing"

var Module = fx.Module(
	"grpc",
	fx.Provide(NewGRPCServer),
	fx.Invoke(registerGRPCServer),
)

type GRPCServerResult struct {
	fx.Out
	Server *grpc.Server
	Health *health.Server
}

func NewGRPCServer() GRPCServerResult {
	server := grpc.NewServer()
	hs := health.NewServer()
	healthpb.RegisterHealthServer(server, hs)
	reflection.Register(server)

	return GRPCServerResult{
		Server: server,
		Health: hs,
	}
}

// SetPaused flips the billing service health status
func SetPaused(hs *health.Server, paused bool) {
	status := healthpb.HealthCheckResponse_SERVING
	if paused {
		status = healthpb.HealthCheckResponse_NOT_SERVING
	}
	hs.SetServingStatus(BillingService, status)
}

func registerGRPCServer(
	lc fx.Lifecycle,
	cfg *config.ServiceConfig,
	server *grpc.Server,
	hs *health.Server,
	log zerolog.Logger,
) error {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			lis, err := net.Listen("tcp", ":"+cfg.GRPCPort)
			if err != nil {
				log.Error().Err(err).Str("port", cfg.GRPCPort).Msg("failed to listen for gRPC")
				return err
			}

			go func() {
				log.Info().Str("port", cfg.GRPCPort).Msg("gRPC server started")
				if err := server.Serve(lis); err != nil {
					log.Error().Err(err).Msg("gRPC server failed")
				}
			}()

			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info().Msg("stopping gRPC server...")
			hs.Shutdown()
			server.GracefulStop()
			log.Info().Msg("gRPC server stopped")
			return nil
		},
	})

	return nil
}
