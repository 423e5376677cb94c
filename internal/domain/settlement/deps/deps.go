package deps

import (
	"context"

	"github.com/google/uuid"

	"github.com/yukikm/subly/internal/domain"
	"github.com/yukikm/subly/internal/domain/settlement/dto"
)

type SettlementUseCase interface {
	Authorize(ctx context.Context, caller string) error
	RunBatch(ctx context.Context) (*dto.BatchResult, error)
	ExecutePayment(ctx context.Context, key domain.SubscriptionKey, batchID *uuid.UUID) (*dto.PaymentResult, error)
	RunCycle(ctx context.Context) (*dto.CycleReport, error)
	ListPayments(ctx context.Context, subscriptionID uint) ([]domain.PaymentRecord, error)
}
