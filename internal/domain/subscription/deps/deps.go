package deps

import (
	"context"

	"github.com/yukikm/subly/internal/domain"
	"github.com/yukikm/subly/internal/domain/subscription/dto"
)

type SubscriptionUseCase interface {
	Subscribe(ctx context.Context, userID string, key dto.SubscribeRequest) (*dto.SubscribeResult, error)
	Unsubscribe(ctx context.Context, userID string, key dto.SubscribeRequest) (*dto.UnsubscribeResult, error)
	CheckSubscription(ctx context.Context, key domain.SubscriptionKey) (bool, error)
	ListAffordableServices(ctx context.Context, userID string, apyBps uint64) ([]dto.AffordableService, error)
	ListUserSubscriptions(ctx context.Context, userID string) ([]domain.Subscription, error)
}
