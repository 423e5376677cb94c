package business

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yukikm/subly/internal/domain"
	"github.com/yukikm/subly/internal/domain/staking/pool"
	"github.com/yukikm/subly/internal/repository/memory"
	"github.com/yukikm/subly/internal/testkit"
)

type failingPool struct{}

func (failingPool) Delegate(ctx context.Context, amount uint64) (uint64, error) {
	return 0, errors.New("pool offline")
}

func (failingPool) Undelegate(ctx context.Context, receipts uint64) (uint64, error) {
	return 0, errors.New("pool offline")
}

type fixture struct {
	uc    *UseCase
	store *memory.Store
	clock *testkit.Clock
	pub   *testkit.Publisher
}

func newFixture(t *testing.T, p domain.StakingPool) *fixture {
	store := testkit.NewStore(t)
	clock := testkit.NewClock()
	pub := &testkit.Publisher{}
	return &fixture{
		uc:    NewUseCase(store, p, clock, pub, testkit.NewMetrics(), zerolog.Nop()),
		store: store,
		clock: clock,
		pub:   pub,
	}
}

const oneNative = domain.NativeUnit

func TestStake_MinimumNotMet(t *testing.T) {
	f := newFixture(t, pool.NewSimulatedPool())
	testkit.Fund(t, f.store, domain.UserLedger{Owner: "alice", Deposited: 10 * oneNative})

	_, err := f.uc.Stake(context.Background(), "alice", oneNative-1)
	assert.ErrorIs(t, err, domain.ErrMinimumStakeNotMet)
}

func TestStake_InsufficientAvailable(t *testing.T) {
	f := newFixture(t, pool.NewSimulatedPool())
	testkit.Fund(t, f.store, domain.UserLedger{Owner: "alice", Deposited: 3 * oneNative, Locked: 2 * oneNative})

	_, err := f.uc.Stake(context.Background(), "alice", 2*oneNative)
	assert.ErrorIs(t, err, domain.ErrInsufficientAvailableBalance)

	l := testkit.Ledger(t, f.store, "alice")
	assert.Equal(t, uint64(3*oneNative), l.Deposited)
	assert.Equal(t, uint64(0), l.Staked)
}

func TestStake_NoLedger(t *testing.T) {
	f := newFixture(t, pool.NewSimulatedPool())

	_, err := f.uc.Stake(context.Background(), "ghost", oneNative)
	assert.ErrorIs(t, err, domain.ErrInsufficientAvailableBalance)
}

func TestStake_NotAvailableWithoutPool(t *testing.T) {
	f := newFixture(t, nil)
	testkit.Fund(t, f.store, domain.UserLedger{Owner: "alice", Deposited: 10 * oneNative})

	_, err := f.uc.Stake(context.Background(), "alice", oneNative)
	assert.ErrorIs(t, err, domain.ErrStakingNotAvailable)

	_, err = f.uc.Unstake(context.Background(), "alice", 1, 0)
	assert.ErrorIs(t, err, domain.ErrStakingNotAvailable)

	_, err = f.uc.ClaimYield(context.Background(), "alice")
	assert.ErrorIs(t, err, domain.ErrStakingNotAvailable)
}

func TestStake_PoolFailureRollsBack(t *testing.T) {
	f := newFixture(t, failingPool{})
	testkit.Fund(t, f.store, domain.UserLedger{Owner: "alice", Deposited: 10 * oneNative})

	_, err := f.uc.Stake(context.Background(), "alice", 2*oneNative)
	assert.ErrorIs(t, err, domain.ErrStakePoolFailure)

	l := testkit.Ledger(t, f.store, "alice")
	assert.Equal(t, uint64(10*oneNative), l.Deposited)
	assert.Equal(t, uint64(0), l.Staked)
}

func TestStake_ThenFullUnstake(t *testing.T) {
	f := newFixture(t, pool.NewSimulatedPool())
	ctx := context.Background()
	testkit.Fund(t, f.store, domain.UserLedger{Owner: "alice", Deposited: 10 * oneNative})

	res, err := f.uc.Stake(ctx, "alice", 5*oneNative)
	require.NoError(t, err)
	assert.Equal(t, uint64(4_900_000_000), res.ReceiptTokens)

	l := testkit.Ledger(t, f.store, "alice")
	assert.Equal(t, uint64(5*oneNative), l.Deposited)
	assert.Equal(t, uint64(5*oneNative), l.Staked)

	// at 0% apy the 2% delegation haircut is realised on exit
	out, err := f.uc.Unstake(ctx, "alice", res.ReceiptTokens, 0)
	require.NoError(t, err)
	assert.Equal(t, uint64(4_900_000_000), out.Proceeds)
	assert.Equal(t, uint64(100_000_000), out.Loss)

	l = testkit.Ledger(t, f.store, "alice")
	assert.Equal(t, uint64(9_900_000_000), l.Deposited)
	assert.Equal(t, uint64(0), l.Staked)

	pos, err := f.uc.GetPosition(ctx, "alice")
	require.NoError(t, err)
	assert.False(t, pos.Active)
	assert.Equal(t, uint64(0), pos.StakedAmount)

	assert.Equal(t, []string{domain.TopicStakingEvents, domain.TopicStakingEvents}, f.pub.Topics())
}

func TestUnstake_PartialWithApy(t *testing.T) {
	f := newFixture(t, pool.NewSimulatedPool())
	ctx := context.Background()
	testkit.Fund(t, f.store, domain.UserLedger{Owner: "alice", Deposited: 10 * oneNative})

	_, err := f.uc.Stake(ctx, "alice", 10*oneNative)
	require.NoError(t, err)

	// 1e9 receipts at 7% -> 1.07e9 native, all of it principal
	out, err := f.uc.Unstake(ctx, "alice", oneNative, 700)
	require.NoError(t, err)
	assert.Equal(t, uint64(1_070_000_000), out.Proceeds)
	assert.Equal(t, uint64(1_070_000_000), out.PrincipalMoved)

	l := testkit.Ledger(t, f.store, "alice")
	assert.Equal(t, uint64(1_070_000_000), l.Deposited)
	assert.Equal(t, uint64(8_930_000_000), l.Staked)

	pos, err := f.uc.GetPosition(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, pos.Active)
	assert.Equal(t, uint64(8_800_000_000), pos.ReceiptTokenAmount)
}

func TestUnstake_Errors(t *testing.T) {
	f := newFixture(t, pool.NewSimulatedPool())
	ctx := context.Background()
	testkit.Fund(t, f.store, domain.UserLedger{Owner: "alice", Deposited: 10 * oneNative})

	_, err := f.uc.Unstake(ctx, "alice", 0, 0)
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)

	_, err = f.uc.Unstake(ctx, "alice", 1, 0)
	assert.ErrorIs(t, err, domain.ErrNoStakedFunds)

	res, err := f.uc.Stake(ctx, "alice", oneNative)
	require.NoError(t, err)

	_, err = f.uc.Unstake(ctx, "alice", res.ReceiptTokens+1, 0)
	assert.ErrorIs(t, err, domain.ErrInsufficientStakedFunds)
}

func TestClaimYield(t *testing.T) {
	f := newFixture(t, pool.NewSimulatedPool())
	ctx := context.Background()
	testkit.Fund(t, f.store, domain.UserLedger{Owner: "alice", Deposited: 365 * oneNative})

	_, err := f.uc.Stake(ctx, "alice", 365*oneNative)
	require.NoError(t, err)

	f.clock.Advance(23 * time.Hour)
	_, err = f.uc.ClaimYield(ctx, "alice")
	assert.ErrorIs(t, err, domain.ErrPaymentNotDue)

	// one day at 5%/year on 365 native units is 0.05 native units
	f.clock.Advance(time.Hour)
	res, err := f.uc.ClaimYield(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, uint64(50_000_000), res.Yield)

	l := testkit.Ledger(t, f.store, "alice")
	assert.Equal(t, uint64(50_000_000), l.Deposited)

	pos, err := f.uc.GetPosition(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, uint64(50_000_000), pos.TotalYieldEarned)
	assert.Equal(t, f.clock.Now(), pos.LastYieldClaim)

	_, err = f.uc.ClaimYield(ctx, "alice")
	assert.ErrorIs(t, err, domain.ErrPaymentNotDue)
}

func TestClaimYield_NoPosition(t *testing.T) {
	f := newFixture(t, pool.NewSimulatedPool())

	_, err := f.uc.ClaimYield(context.Background(), "alice")
	assert.ErrorIs(t, err, domain.ErrNoStakedFunds)
}

func TestStake_Paused(t *testing.T) {
	f := newFixture(t, pool.NewSimulatedPool())
	testkit.Fund(t, f.store, domain.UserLedger{Owner: "alice", Deposited: 10 * oneNative})
	testkit.SetPaused(t, f.store, true)

	_, err := f.uc.Stake(context.Background(), "alice", oneNative)
	assert.ErrorIs(t, err, domain.ErrProtocolPaused)
}

func TestUnwindWithin_FailedCheckSkipsPool(t *testing.T) {
	p := &testkit.Pool{}
	f := newFixture(t, p)

	ledger := &domain.UserLedger{Owner: "alice", Deposited: oneNative, Locked: oneNative, Staked: 4 * oneNative}
	pos := &domain.StakePosition{UserID: "alice", StakedAmount: 4 * oneNative, ReceiptTokenAmount: 4 * oneNative, Active: true}
	before, beforePos := *ledger, *pos

	var seen domain.UserLedger
	_, err := f.uc.UnwindWithin(context.Background(), ledger, pos, 2*oneNative, 0, func(after *domain.UserLedger) error {
		seen = *after
		return after.Withdraw(3 * oneNative)
	})
	assert.ErrorIs(t, err, domain.ErrInsufficientAvailableBalance)

	// the check saw the post-redemption balances
	assert.Equal(t, uint64(3*oneNative), seen.Deposited)
	assert.Equal(t, uint64(2*oneNative), seen.Staked)

	assert.Equal(t, 0, p.Calls)
	assert.Equal(t, before, *ledger)
	assert.Equal(t, beforePos, *pos)
}

func TestUnwindWithin_AppliesAfterPool(t *testing.T) {
	p := &testkit.Pool{}
	f := newFixture(t, p)

	ledger := &domain.UserLedger{Owner: "alice", Deposited: oneNative, Staked: 4 * oneNative}
	pos := &domain.StakePosition{UserID: "alice", StakedAmount: 4 * oneNative, ReceiptTokenAmount: 4 * oneNative, Active: true}

	res, err := f.uc.UnwindWithin(context.Background(), ledger, pos, 4*oneNative, 0, nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(4*oneNative), res.PrincipalMoved)
	assert.Equal(t, uint64(4*oneNative), p.Undelegated)
	assert.Equal(t, uint64(5*oneNative), ledger.Deposited)
	assert.False(t, pos.Active)
}

func TestStake_RejectedBeforeDelegation(t *testing.T) {
	p := &testkit.Pool{}
	f := newFixture(t, p)
	testkit.Fund(t, f.store, domain.UserLedger{Owner: "alice", Deposited: 3 * oneNative, Locked: 2 * oneNative})

	_, err := f.uc.Stake(context.Background(), "alice", 2*oneNative)
	assert.ErrorIs(t, err, domain.ErrInsufficientAvailableBalance)
	assert.Equal(t, 0, p.Calls)

	res, err := f.uc.Stake(context.Background(), "alice", oneNative)
	require.NoError(t, err)
	assert.Equal(t, uint64(oneNative), res.ReceiptTokens)
	assert.Equal(t, uint64(oneNative), p.Delegated)
}
