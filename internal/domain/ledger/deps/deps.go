package deps

import (
	"context"

	"github.com/yukikm/subly/internal/domain/ledger/dto"
)

type LedgerUseCase interface {
	Deposit(ctx context.Context, owner string, amount uint64) (*dto.Balance, error)
	Withdraw(ctx context.Context, owner string, amount, apyBps uint64) (*dto.WithdrawResult, error)
	GetBalance(ctx context.Context, owner string) (*dto.Balance, error)
}
