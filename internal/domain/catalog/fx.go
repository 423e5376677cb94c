package catalog

import (
	"go.uber.org/fx"

	cataloghttp "github.com/yukikm/subly/internal/domain/catalog/delivery/http"
	"github.com/yukikm/subly/internal/domain/catalog/deps"
	"github.com/yukikm/subly/internal/domain/catalog/usecase/business"
)

var Module = fx.Module(
	"catalog",
	fx.Provide(
		business.NewUseCase,
		NewUseCase,
		cataloghttp.NewHandler,
	),
	fx.Invoke(cataloghttp.RegisterRoutes),
)

func NewUseCase(uc *business.UseCase) deps.CatalogUseCase {
	return uc
}
