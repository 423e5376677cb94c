package deps

import (
	"context"

	"github.com/yukikm/subly/internal/domain"
	"github.com/yukikm/subly/internal/domain/catalog/dto"
)

type CatalogUseCase interface {
	RegisterProvider(ctx context.Context, owner, name, description string) (*domain.Provider, error)
	RegisterService(ctx context.Context, owner string, req dto.RegisterServiceRequest) (*domain.SubscriptionService, error)
	DeactivateService(ctx context.Context, owner string, serviceID uint64) (*domain.SubscriptionService, error)
	GetProvider(ctx context.Context, owner string) (*domain.Provider, error)
	GetService(ctx context.Context, serviceID uint64) (*domain.SubscriptionService, error)
	ListServices(ctx context.Context, activeOnly bool) ([]domain.SubscriptionService, error)
}
