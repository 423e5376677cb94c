package certificate

import (
	"go.uber.org/fx"

	certificatehttp "github.com/yukikm/subly/internal/domain/certificate/delivery/http"
	"github.com/yukikm/subly/internal/domain/certificate/deps"
	"github.com/yukikm/subly/internal/domain/certificate/usecase/business"
)

var Module = fx.Module(
	"certificate",
	fx.Provide(
		business.NewUseCase,
		NewUseCase,
		NewIssuer,
		certificatehttp.NewHandler,
	),
	fx.Invoke(certificatehttp.RegisterRoutes),
)

func NewUseCase(uc *business.UseCase) deps.CertificateUseCase {
	return uc
}

func NewIssuer(uc *business.UseCase) deps.Issuer {
	return uc
}
