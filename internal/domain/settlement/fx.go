package settlement

import (
	"context"

	"github.com/rs/zerolog"
	"go.uber.org/fx"

	"github.com/yukikm/subly/config"
	"github.com/yukikm/subly/internal/domain"
	settlementhttp "github.com/yukikm/subly/internal/domain/settlement/delivery/http"
	settlementkafka "github.com/yukikm/subly/internal/domain/settlement/delivery/kafka"
	"github.com/yukikm/subly/internal/domain/settlement/deps"
	"github.com/yukikm/subly/internal/domain/settlement/usecase/business"
	"github.com/yukikm/subly/internal/domain/settlement/workers"
	"github.com/yukikm/subly/internal/infrastructure/kafka"
)

var Module = fx.Module(
	"settlement",
	fx.Provide(
		business.NewUseCase,
		NewUseCase,
		settlementhttp.NewHandler,
		settlementkafka.NewHandlers,
		workers.NewSchedulerWorker,
	),
	fx.Invoke(
		settlementhttp.RegisterRoutes,
		registerScheduler,
		registerCommandConsumer,
	),
)

func NewUseCase(uc *business.UseCase) deps.SettlementUseCase {
	return uc
}

func registerScheduler(lc fx.Lifecycle, w *workers.SchedulerWorker, cfg *config.SettlementConfig, log zerolog.Logger) {
	if !cfg.Enabled {
		log.Info().Msg("settlement scheduler disabled")
		return
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			w.Start()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			w.Stop()
			return nil
		},
	})
}

// registerCommandConsumer consumes settlement commands when Kafka is enabled
func registerCommandConsumer(
	lc fx.Lifecycle,
	h *settlementkafka.Handlers,
	kafkaCfg *config.KafkaConfig,
	settlementCfg *config.SettlementConfig,
	log zerolog.Logger,
) {
	if !kafkaCfg.Enabled {
		return
	}

	consumer := kafka.NewTopicConsumer(
		kafkaCfg.Brokers,
		kafkaCfg.GroupID,
		domain.TopicSettlementCommands,
		h.HandleCommand,
		settlementCfg.BatchTimeout,
		log,
	)

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			consumer.Start()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return consumer.Stop()
		},
	})
}
