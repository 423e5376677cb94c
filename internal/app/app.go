package app

import (
	"go.uber.org/fx"

	"github.com/yukikm/subly/config"
	"github.com/yukikm/subly/internal/domain"
	"github.com/yukikm/subly/internal/domain/catalog"
	"github.com/yukikm/subly/internal/domain/certificate"
	"github.com/yukikm/subly/internal/domain/ledger"
	"github.com/yukikm/subly/internal/domain/oracle"
	"github.com/yukikm/subly/internal/domain/protocol"
	"github.com/yukikm/subly/internal/domain/settlement"
	"github.com/yukikm/subly/internal/domain/staking"
	"github.com/yukikm/subly/internal/domain/subscription"
	"github.com/yukikm/subly/internal/infrastructure/database"
	"github.com/yukikm/subly/internal/infrastructure/grpc"
	"github.com/yukikm/subly/internal/infrastructure/http"
	"github.com/yukikm/subly/internal/infrastructure/kafka"
	"github.com/yukikm/subly/internal/infrastructure/logger"
	"github.com/yukikm/subly/internal/infrastructure/metrics"
	apperrors "github.com/yukikm/subly/pkg/errors"
)

// CreateApp creates the fx application with all dependencies
func CreateApp() fx.Option {
	return fx.Options(
		fx.Provide(config.Out),
		fx.Provide(NewClock),
		logger.Module,
		metrics.Module,
		database.Module,
		kafka.Module,
		http.Module,
		grpc.Module,
		apperrors.Module,

		protocol.Module,
		oracle.Module,
		staking.Module,
		ledger.Module,
		catalog.Module,
		certificate.Module,
		subscription.Module,
		settlement.Module,
	)
}

func NewClock() domain.Clock {
	return domain.SystemClock{}
}
