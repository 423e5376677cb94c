package subscription

import (
	"go.uber.org/fx"

	subscriptionhttp "github.com/yukikm/subly/internal/domain/subscription/delivery/http"
	"github.com/yukikm/subly/internal/domain/subscription/deps"
	"github.com/yukikm/subly/internal/domain/subscription/usecase/business"
)

var Module = fx.Module(
	"subscription",
	fx.Provide(
		business.NewUseCase,
		NewUseCase,
		subscriptionhttp.NewHandler,
	),
	fx.Invoke(subscriptionhttp.RegisterRoutes),
)

func NewUseCase(uc *business.UseCase) deps.SubscriptionUseCase {
	return uc
}
