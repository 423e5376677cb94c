package pool

import (
	"context"

	"github.com/yukikm/subly/internal/domain"
)

// SimulatedPool mints receipts with the fixed delegation haircut and redeems them at par
type SimulatedPool struct{}

func NewSimulatedPool() *SimulatedPool {
	return &SimulatedPool{}
}

func (SimulatedPool) Delegate(ctx context.Context, amount uint64) (uint64, error) {
	return domain.MulDiv(amount, domain.BasisPoints-domain.DelegationHaircutBps, domain.BasisPoints)
}

func (SimulatedPool) Undelegate(ctx context.Context, receiptTokens uint64) (uint64, error) {
	return domain.MulDiv(receiptTokens, domain.BasisPoints, domain.BasisPoints-domain.DelegationHaircutBps)
}
