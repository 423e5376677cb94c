package business

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yukikm/subly/internal/domain"
	"github.com/yukikm/subly/internal/repository/memory"
	"github.com/yukikm/subly/internal/testkit"
)

func newUseCase(store domain.Store) (*UseCase, *testkit.Publisher) {
	pub := &testkit.Publisher{}
	return NewUseCase(store, testkit.NewClock(), pub, testkit.NewMetrics(), zerolog.Nop()), pub
}

func TestInitialize(t *testing.T) {
	uc, pub := newUseCase(memory.NewStore())
	ctx := context.Background()

	cfg, err := uc.Initialize(ctx, "root", "pyth:SOL/USD", "jito")
	require.NoError(t, err)
	assert.Equal(t, uint64(domain.DefaultProtocolFeeBps), cfg.ProtocolFeeBps)
	assert.False(t, cfg.Paused)
	assert.Equal(t, uint64(0), cfg.TotalServicesCounter)
	assert.Equal(t, uint64(domain.DefaultYieldRateBps), cfg.YieldRateBps)

	_, err = uc.Initialize(ctx, "other", "x", "y")
	assert.ErrorIs(t, err, domain.ErrProtocolAlreadyInitialized)

	cfg, err = uc.EnsureInitialized(ctx, "other", "x", "y")
	require.NoError(t, err)
	assert.Equal(t, "root", cfg.AuthorityID)

	assert.Equal(t, []string{domain.TopicProtocolEvents}, pub.Topics())
}

func TestSetProtocolFee(t *testing.T) {
	uc, _ := newUseCase(testkit.NewStore(t))
	ctx := context.Background()

	_, err := uc.SetProtocolFee(ctx, "mallory", 200)
	assert.ErrorIs(t, err, domain.ErrUnauthorizedAuthority)

	_, err = uc.SetProtocolFee(ctx, testkit.Authority, domain.MaxProtocolFeeBps+1)
	assert.ErrorIs(t, err, domain.ErrInvalidProtocolFee)

	cfg, err := uc.SetProtocolFee(ctx, testkit.Authority, domain.MaxProtocolFeeBps)
	require.NoError(t, err)
	assert.Equal(t, uint64(domain.MaxProtocolFeeBps), cfg.ProtocolFeeBps)

	cfg, err = uc.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(domain.MaxProtocolFeeBps), cfg.ProtocolFeeBps)
}

func TestSetPaused_NotifiesListeners(t *testing.T) {
	uc, _ := newUseCase(testkit.NewStore(t))
	ctx := context.Background()

	var seen []bool
	uc.OnPauseChange(func(paused bool) { seen = append(seen, paused) })

	_, err := uc.SetPaused(ctx, "mallory", true)
	assert.ErrorIs(t, err, domain.ErrUnauthorizedAuthority)
	assert.Empty(t, seen)

	cfg, err := uc.SetPaused(ctx, testkit.Authority, true)
	require.NoError(t, err)
	assert.True(t, cfg.Paused)

	_, err = uc.SetPaused(ctx, testkit.Authority, false)
	require.NoError(t, err)

	assert.Equal(t, []bool{true, false}, seen)
}

func TestGet_NotInitialized(t *testing.T) {
	uc, _ := newUseCase(memory.NewStore())

	_, err := uc.Get(context.Background())
	assert.ErrorIs(t, err, domain.ErrProtocolNotInitialized)
}
