package ledger

import (
	"go.uber.org/fx"

	ledgerhttp "github.com/yukikm/subly/internal/domain/ledger/delivery/http"
	"github.com/yukikm/subly/internal/domain/ledger/deps"
	"github.com/yukikm/subly/internal/domain/ledger/usecase/business"
)

var Module = fx.Module(
	"ledger",
	fx.Provide(
		business.NewUseCase,
		NewUseCase,
		ledgerhttp.NewHandler,
	),
	fx.Invoke(ledgerhttp.RegisterRoutes),
)

func NewUseCase(uc *business.UseCase) deps.LedgerUseCase {
	return uc
}
