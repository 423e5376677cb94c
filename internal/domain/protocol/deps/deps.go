package deps

import (
	"context"

	"github.com/yukikm/subly/internal/domain"
)

type ProtocolUseCase interface {
	Initialize(ctx context.Context, authority, oracleRef, stakingRef string) (*domain.ProtocolConfig, error)
	SetProtocolFee(ctx context.Context, caller string, feeBps uint64) (*domain.ProtocolConfig, error)
	SetPaused(ctx context.Context, caller string, paused bool) (*domain.ProtocolConfig, error)
	Get(ctx context.Context) (*domain.ProtocolConfig, error)
}
