package kafka

import (
	"context"

	"github.com/rs/zerolog"
	"go.uber.org/fx"

	"github.com/yukikm/subly/config"
	"github.com/yukikm/subly/internal/domain"
	"github.com/yukikm/subly/internal/infrastructure/metrics"
)

var Module = fx.Module(
	"kafka",
	fx.Provide(NewPublisher),
)

// NewPublisher provides the domain event publisher
func NewPublisher(lc fx.Lifecycle, cfg *config.KafkaConfig, log zerolog.Logger, m *metrics.Metrics) (domain.EventPublisher, error) {
	if !cfg.Enabled {
		log.Warn().Msg("kafka disabled, domain events will not be published")
		return NewNopPublisher(log), nil
	}

	producer, err := NewKafkaProducer(cfg.Brokers, log, m)
	if err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			log.Info().Msg("closing kafka producer...")
			return producer.Close()
		},
	})

	return producer, nil
}
