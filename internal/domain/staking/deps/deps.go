package deps

import (
	"context"

	"github.com/yukikm/subly/internal/domain"
	"github.com/yukikm/subly/internal/domain/staking/dto"
)

type StakingUseCase interface {
	Stake(ctx context.Context, userID string, amount uint64) (*dto.StakeResult, error)
	Unstake(ctx context.Context, userID string, receiptAmount, apyBps uint64) (*dto.UnstakeResult, error)
	ClaimYield(ctx context.Context, userID string) (*dto.ClaimResult, error)
	GetPosition(ctx context.Context, userID string) (*domain.StakePosition, error)
}

// Unwinder redeems receipt tokens inside another operation's transaction
type Unwinder interface {
	Available() bool
	UnwindWithin(
		ctx context.Context,
		ledger *domain.UserLedger,
		pos *domain.StakePosition,
		receiptAmount, apyBps uint64,
		check func(*domain.UserLedger) error,
	) (*dto.UnstakeResult, error)
}
