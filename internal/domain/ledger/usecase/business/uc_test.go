package business

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yukikm/subly/internal/domain"
	"github.com/yukikm/subly/internal/domain/staking/pool"
	stakinguc "github.com/yukikm/subly/internal/domain/staking/usecase/business"
	"github.com/yukikm/subly/internal/repository/memory"
	"github.com/yukikm/subly/internal/testkit"
)

type fixture struct {
	uc      *UseCase
	staking *stakinguc.UseCase
	store   *memory.Store
	pub     *testkit.Publisher
}

func newFixture(t *testing.T, p domain.StakingPool) *fixture {
	store := testkit.NewStore(t)
	clock := testkit.NewClock()
	pub := &testkit.Publisher{}
	m := testkit.NewMetrics()
	staking := stakinguc.NewUseCase(store, p, clock, pub, m, zerolog.Nop())
	return &fixture{
		uc:      NewUseCase(store, staking, clock, pub, m, zerolog.Nop()),
		staking: staking,
		store:   store,
		pub:     pub,
	}
}

func TestDeposit_CreatesLedger(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	bal, err := f.uc.Deposit(ctx, "alice", 1_250_000_000)
	require.NoError(t, err)
	assert.Equal(t, uint64(1_250_000_000), bal.Deposited)
	assert.Equal(t, "1.25", bal.Display)

	bal, err = f.uc.Deposit(ctx, "alice", 750_000_000)
	require.NoError(t, err)
	assert.Equal(t, uint64(2_000_000_000), bal.Available)

	assert.Equal(t, []string{domain.TopicLedgerEvents, domain.TopicLedgerEvents}, f.pub.Topics())
}

func TestDeposit_Validation(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	_, err := f.uc.Deposit(ctx, "alice", 0)
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)

	_, err = f.uc.Deposit(ctx, "", 10)
	assert.ErrorIs(t, err, domain.ErrInvalidUserID)

	testkit.SetPaused(t, f.store, true)
	_, err = f.uc.Deposit(ctx, "alice", 10)
	assert.ErrorIs(t, err, domain.ErrProtocolPaused)
	assert.Empty(t, f.pub.Messages)
}

func TestWithdraw_RespectsLocked(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	testkit.Fund(t, f.store, domain.UserLedger{Owner: "alice", Deposited: 1000, Locked: 600})

	_, err := f.uc.Withdraw(ctx, "alice", 500, 0)
	assert.ErrorIs(t, err, domain.ErrInsufficientAvailableBalance)

	res, err := f.uc.Withdraw(ctx, "alice", 400, 0)
	require.NoError(t, err)
	assert.Equal(t, uint64(600), res.Deposited)
	assert.Equal(t, uint64(0), res.Available)
}

func TestWithdraw_NoLedgerOrPosition(t *testing.T) {
	f := newFixture(t, pool.NewSimulatedPool())
	ctx := context.Background()

	_, err := f.uc.Withdraw(ctx, "ghost", 1, 0)
	assert.ErrorIs(t, err, domain.ErrInsufficientBalance)

	testkit.Fund(t, f.store, domain.UserLedger{Owner: "alice", Deposited: 100})
	_, err = f.uc.Withdraw(ctx, "alice", 101, 0)
	assert.ErrorIs(t, err, domain.ErrInsufficientBalance)
}

func TestWithdraw_UnstakesShortfall(t *testing.T) {
	f := newFixture(t, pool.NewSimulatedPool())
	ctx := context.Background()
	testkit.Fund(t, f.store, domain.UserLedger{Owner: "alice", Deposited: 10 * domain.NativeUnit})

	_, err := f.staking.Stake(ctx, "alice", 8*domain.NativeUnit)
	require.NoError(t, err)

	// 2 native liquid, need 3: unstake 1 native worth at 0% apy
	res, err := f.uc.Withdraw(ctx, "alice", 3*domain.NativeUnit, 0)
	require.NoError(t, err)
	assert.Equal(t, uint64(domain.NativeUnit), res.UnstakedReceipts)
	assert.Equal(t, uint64(domain.NativeUnit), res.UnstakedProceeds)
	assert.Equal(t, uint64(0), res.Deposited)
	assert.Equal(t, uint64(7*domain.NativeUnit), res.Staked)

	pos, err := f.staking.GetPosition(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, uint64(6_840_000_000), pos.ReceiptTokenAmount)
}

func TestWithdraw_UnstakeCappedByPosition(t *testing.T) {
	f := newFixture(t, pool.NewSimulatedPool())
	ctx := context.Background()
	testkit.Fund(t, f.store, domain.UserLedger{Owner: "alice", Deposited: 2 * domain.NativeUnit})

	_, err := f.staking.Stake(ctx, "alice", domain.NativeUnit)
	require.NoError(t, err)

	// the whole position returns 0.98 native; 1.98 liquid cannot cover 2.5
	_, err = f.uc.Withdraw(ctx, "alice", 2_500_000_000, 0)
	assert.ErrorIs(t, err, domain.ErrInsufficientBalance)

	l := testkit.Ledger(t, f.store, "alice")
	assert.Equal(t, uint64(domain.NativeUnit), l.Deposited)
	assert.Equal(t, uint64(domain.NativeUnit), l.Staked)
}

func TestWithdraw_LockedCollateralLeavesPoolUntouched(t *testing.T) {
	p := &testkit.Pool{}
	f := newFixture(t, p)
	ctx := context.Background()
	testkit.Fund(t, f.store, domain.UserLedger{
		Owner:     "alice",
		Deposited: domain.NativeUnit,
		Locked:    domain.NativeUnit,
		Staked:    5 * domain.NativeUnit,
	})
	testkit.Position(t, f.store, domain.StakePosition{
		UserID:             "alice",
		StakedAmount:       5 * domain.NativeUnit,
		ReceiptTokenAmount: 5 * domain.NativeUnit,
		Active:             true,
	})

	// redeeming 2 would bring deposited to 3 but only 2 of it is unlocked
	_, err := f.uc.Withdraw(ctx, "alice", 3*domain.NativeUnit, 0)
	assert.ErrorIs(t, err, domain.ErrInsufficientAvailableBalance)

	assert.Equal(t, 0, p.Calls)
	assert.Equal(t, uint64(0), p.Undelegated)

	pos, err := f.staking.GetPosition(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, uint64(5*domain.NativeUnit), pos.ReceiptTokenAmount)

	l := testkit.Ledger(t, f.store, "alice")
	assert.Equal(t, uint64(domain.NativeUnit), l.Deposited)
	assert.Equal(t, uint64(5*domain.NativeUnit), l.Staked)
	assert.Empty(t, f.pub.Messages)
}

func TestWithdraw_UndelegatesOnlyTheShortfall(t *testing.T) {
	p := &testkit.Pool{}
	f := newFixture(t, p)
	ctx := context.Background()
	testkit.Fund(t, f.store, domain.UserLedger{Owner: "alice", Deposited: domain.NativeUnit, Staked: 5 * domain.NativeUnit})
	testkit.Position(t, f.store, domain.StakePosition{
		UserID:             "alice",
		StakedAmount:       5 * domain.NativeUnit,
		ReceiptTokenAmount: 5 * domain.NativeUnit,
		Active:             true,
	})

	res, err := f.uc.Withdraw(ctx, "alice", 3*domain.NativeUnit, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, p.Calls)
	assert.Equal(t, uint64(2*domain.NativeUnit), p.Undelegated)
	assert.Equal(t, uint64(0), res.Deposited)
	assert.Equal(t, uint64(3*domain.NativeUnit), res.Staked)

	pos, err := f.staking.GetPosition(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, uint64(3*domain.NativeUnit), pos.ReceiptTokenAmount)
}

func TestGetBalance(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	_, err := f.uc.GetBalance(ctx, "alice")
	assert.ErrorIs(t, err, domain.ErrLedgerNotFound)

	testkit.Fund(t, f.store, domain.UserLedger{Owner: "alice", Deposited: 5, Locked: 2, Staked: 9})
	bal, err := f.uc.GetBalance(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, uint64(3), bal.Available)
	assert.Equal(t, uint64(9), bal.Staked)
}

func TestFormatNative(t *testing.T) {
	assert.Equal(t, "0", FormatNative(0))
	assert.Equal(t, "0.05", FormatNative(50_000_000))
	assert.Equal(t, "12", FormatNative(12*domain.NativeUnit))
}
