package business

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/yukikm/subly/internal/domain"
	"github.com/yukikm/subly/internal/domain/staking/dto"
	"github.com/yukikm/subly/internal/infrastructure/metrics"
)

type UseCase struct {
	store     domain.Store
	pool      domain.StakingPool
	clock     domain.Clock
	publisher domain.EventPublisher
	metrics   *metrics.Metrics
	logger    zerolog.Logger
}

// NewUseCase creates the staking use case. A nil pool disables staking.
func NewUseCase(
	store domain.Store,
	pool domain.StakingPool,
	clock domain.Clock,
	publisher domain.EventPublisher,
	m *metrics.Metrics,
	logger zerolog.Logger,
) *UseCase {
	return &UseCase{
		store:     store,
		pool:      pool,
		clock:     clock,
		publisher: publisher,
		metrics:   m,
		logger:    logger,
	}
}

func (u *UseCase) observe(op string, start time.Time, err error) {
	code := ""
	if err != nil {
		code = domain.CodeOf(err)
	}
	u.metrics.RecordOperation(op, time.Since(start).Seconds(), code)
}

// Available reports whether a staking service is configured
func (u *UseCase) Available() bool {
	return u.pool != nil
}

// Stake delegates amount of the user's available balance
func (u *UseCase) Stake(ctx context.Context, userID string, amount uint64) (res *dto.StakeResult, err error) {
	defer func(start time.Time) { u.observe("stake", start, err) }(time.Now())

	if userID == "" {
		return nil, domain.ErrInvalidUserID
	}
	if amount < domain.MinStakeAmount {
		return nil, domain.ErrMinimumStakeNotMet
	}
	if u.pool == nil {
		return nil, domain.ErrStakingNotAvailable
	}

	now := u.clock.Now()

	err = u.store.WithinTx(ctx, func(ctx context.Context, repos domain.Repositories) error {
		cfg, err := repos.Protocol().Get(ctx)
		if err != nil {
			return err
		}
		if err := cfg.EnsureActive(); err != nil {
			return err
		}

		ledger, err := repos.Ledgers().Get(ctx, userID)
		if errors.Is(err, domain.ErrLedgerNotFound) {
			return domain.ErrInsufficientAvailableBalance
		}
		if err != nil {
			return err
		}
		if ledger.Available() < amount {
			return domain.ErrInsufficientAvailableBalance
		}

		pos, err := repos.Stakes().Get(ctx, userID)
		switch {
		case errors.Is(err, domain.ErrStakePositionNotFound):
			pos = &domain.StakePosition{UserID: userID}
		case err != nil:
			return err
		}
		if !pos.Active {
			pos.StakeDate = now
			pos.LastYieldClaim = now
			pos.Active = true
		}

		staked, err := domain.AddAmount(pos.StakedAmount, amount)
		if err != nil {
			return err
		}
		// delegation carries a haircut, so receipts fit whenever amount does
		if _, err := domain.AddAmount(pos.ReceiptTokenAmount, amount); err != nil {
			return err
		}
		if err := ledger.MoveToStaked(amount); err != nil {
			return err
		}

		receipts, err := u.pool.Delegate(ctx, amount)
		if err != nil {
			u.logger.Error().Err(err).Str("user_id", userID).Uint64("amount", amount).Msg("delegation failed")
			return fmt.Errorf("%w: %v", domain.ErrStakePoolFailure, err)
		}
		totalReceipts, err := domain.AddAmount(pos.ReceiptTokenAmount, receipts)
		if err != nil {
			u.logger.Error().Err(err).Str("user_id", userID).Uint64("receipts", receipts).Msg("pool issued receipts beyond position capacity")
			return err
		}

		pos.StakedAmount = staked
		pos.ReceiptTokenAmount = totalReceipts

		if err := repos.Ledgers().Save(ctx, ledger); err != nil {
			return err
		}
		if err := repos.Stakes().Save(ctx, pos); err != nil {
			return err
		}

		res = &dto.StakeResult{Staked: pos.StakedAmount, ReceiptTokens: receipts}
		return nil
	})
	if err != nil {
		u.logger.Warn().Err(err).Str("user_id", userID).Uint64("amount", amount).Msg("stake rejected")
		return nil, err
	}

	u.publish(ctx, domain.StakingEvent{Type: "staked", UserID: userID, Amount: amount, ReceiptTokens: res.ReceiptTokens, Timestamp: now})

	u.logger.Info().
		Str("user_id", userID).
		Uint64("amount", amount).
		Uint64("receipt_tokens", res.ReceiptTokens).
		Msg("funds staked")

	return res, nil
}

// Unstake redeems receipt tokens and returns the estimated proceeds to the liquid balance
func (u *UseCase) Unstake(ctx context.Context, userID string, receiptAmount, apyBps uint64) (res *dto.UnstakeResult, err error) {
	defer func(start time.Time) { u.observe("unstake", start, err) }(time.Now())

	if userID == "" {
		return nil, domain.ErrInvalidUserID
	}
	if receiptAmount == 0 {
		return nil, domain.ErrInvalidAmount
	}
	if u.pool == nil {
		return nil, domain.ErrStakingNotAvailable
	}

	err = u.store.WithinTx(ctx, func(ctx context.Context, repos domain.Repositories) error {
		pos, err := repos.Stakes().Get(ctx, userID)
		if errors.Is(err, domain.ErrStakePositionNotFound) {
			return domain.ErrNoStakedFunds
		}
		if err != nil {
			return err
		}

		ledger, err := repos.Ledgers().Get(ctx, userID)
		if err != nil {
			return err
		}

		res, err = u.UnwindWithin(ctx, ledger, pos, receiptAmount, apyBps, nil)
		if err != nil {
			return err
		}

		if err := repos.Ledgers().Save(ctx, ledger); err != nil {
			return err
		}
		return repos.Stakes().Save(ctx, pos)
	})
	if err != nil {
		u.logger.Warn().Err(err).Str("user_id", userID).Uint64("receipt_tokens", receiptAmount).Msg("unstake rejected")
		return nil, err
	}

	u.publish(ctx, domain.StakingEvent{Type: "unstaked", UserID: userID, Amount: res.Proceeds, ReceiptTokens: receiptAmount, Timestamp: u.clock.Now()})

	u.logger.Info().
		Str("user_id", userID).
		Uint64("receipt_tokens", receiptAmount).
		Uint64("proceeds", res.Proceeds).
		Uint64("apy_bps", apyBps).
		Msg("funds unstaked")

	return res, nil
}

// UnwindWithin redeems receiptAmount from pos inside the caller's transaction.
// check, when set, receives a copy of the ledger as it will look after the
// redemption; the pool is only called once it passes. ledger and pos are
// mutated on success and the caller saves both.
func (u *UseCase) UnwindWithin(
	ctx context.Context,
	ledger *domain.UserLedger,
	pos *domain.StakePosition,
	receiptAmount, apyBps uint64,
	check func(*domain.UserLedger) error,
) (*dto.UnstakeResult, error) {
	if u.pool == nil {
		return nil, domain.ErrStakingNotAvailable
	}
	if receiptAmount == 0 {
		return nil, domain.ErrInvalidAmount
	}
	if !pos.Active || pos.ReceiptTokenAmount < receiptAmount {
		return nil, domain.ErrInsufficientStakedFunds
	}

	multiplier, err := domain.AddAmount(domain.BasisPoints, apyBps)
	if err != nil {
		return nil, err
	}
	proceeds, err := domain.MulDiv(receiptAmount, multiplier, domain.BasisPoints)
	if err != nil {
		return nil, err
	}

	// a full redemption releases the whole principal
	principal := min(proceeds, pos.StakedAmount)
	if receiptAmount == pos.ReceiptTokenAmount {
		principal = pos.StakedAmount
	}
	principal = min(principal, ledger.Staked)

	res := &dto.UnstakeResult{
		ReceiptTokens:  receiptAmount,
		Proceeds:       proceeds,
		PrincipalMoved: principal,
	}
	if proceeds > principal {
		res.Gain = proceeds - principal
	} else {
		res.Loss = principal - proceeds
	}

	nextLedger, nextPos := *ledger, *pos
	if err := applyUnwind(&nextLedger, &nextPos, res); err != nil {
		return nil, err
	}
	if check != nil {
		after := nextLedger
		if err := check(&after); err != nil {
			return nil, err
		}
	}

	returned, err := u.pool.Undelegate(ctx, receiptAmount)
	if err != nil {
		u.logger.Error().Err(err).Str("user_id", pos.UserID).Uint64("receipt_tokens", receiptAmount).Msg("undelegation failed")
		return nil, fmt.Errorf("%w: %v", domain.ErrStakePoolFailure, err)
	}
	if returned != proceeds {
		u.logger.Debug().
			Str("user_id", pos.UserID).
			Uint64("estimated", proceeds).
			Uint64("returned", returned).
			Msg("undelegation proceeds differ from estimate")
	}

	*ledger, *pos = nextLedger, nextPos
	return res, nil
}

func applyUnwind(ledger *domain.UserLedger, pos *domain.StakePosition, res *dto.UnstakeResult) error {
	earned, err := domain.AddAmount(pos.TotalYieldEarned, res.Gain)
	if err != nil {
		return err
	}
	if err := ledger.MoveFromStaked(res.PrincipalMoved); err != nil {
		return err
	}
	if res.Gain > 0 {
		if err := ledger.Credit(res.Gain); err != nil {
			return err
		}
	}
	if res.Loss > 0 {
		if err := ledger.Debit(res.Loss); err != nil {
			return err
		}
	}

	pos.StakedAmount -= res.PrincipalMoved
	pos.ReceiptTokenAmount -= res.ReceiptTokens
	pos.TotalYieldEarned = earned
	if pos.StakedAmount == 0 {
		pos.Active = false
		pos.ReceiptTokenAmount = 0
	}
	return nil
}

// ClaimYield credits linear yield accrued since the last claim
func (u *UseCase) ClaimYield(ctx context.Context, userID string) (res *dto.ClaimResult, err error) {
	defer func(start time.Time) { u.observe("claim_yield", start, err) }(time.Now())

	if userID == "" {
		return nil, domain.ErrInvalidUserID
	}
	if u.pool == nil {
		return nil, domain.ErrStakingNotAvailable
	}

	now := u.clock.Now()

	err = u.store.WithinTx(ctx, func(ctx context.Context, repos domain.Repositories) error {
		pos, err := repos.Stakes().Get(ctx, userID)
		if errors.Is(err, domain.ErrStakePositionNotFound) {
			return domain.ErrNoStakedFunds
		}
		if err != nil {
			return err
		}
		if !pos.Active || pos.StakedAmount == 0 {
			return domain.ErrNoStakedFunds
		}

		elapsed := now.Sub(pos.LastYieldClaim)
		if elapsed < domain.YieldPeriod {
			return domain.ErrPaymentNotDue
		}

		cfg, err := repos.Protocol().Get(ctx)
		if err != nil {
			return err
		}

		seconds := uint64(elapsed / time.Second)
		rateTime, err := domain.MulAmount(cfg.YieldRateBps, seconds)
		if err != nil {
			return err
		}
		yield, err := domain.MulDiv(pos.StakedAmount, rateTime, domain.BasisPoints*domain.SecondsPerYear)
		if err != nil {
			return err
		}

		res = &dto.ClaimResult{Yield: yield, ElapsedSeconds: int64(seconds)}
		if yield == 0 {
			return nil
		}

		ledger, err := repos.Ledgers().Get(ctx, userID)
		if err != nil {
			return err
		}
		earned, err := domain.AddAmount(pos.TotalYieldEarned, yield)
		if err != nil {
			return err
		}
		if err := ledger.Credit(yield); err != nil {
			return err
		}
		pos.TotalYieldEarned = earned
		pos.LastYieldClaim = now

		if err := repos.Ledgers().Save(ctx, ledger); err != nil {
			return err
		}
		return repos.Stakes().Save(ctx, pos)
	})
	if err != nil {
		return nil, err
	}

	if res.Yield > 0 {
		u.publish(ctx, domain.StakingEvent{Type: "yield_claimed", UserID: userID, Amount: res.Yield, Timestamp: now})
	}

	u.logger.Info().
		Str("user_id", userID).
		Uint64("yield", res.Yield).
		Int64("elapsed_seconds", res.ElapsedSeconds).
		Msg("yield claimed")

	return res, nil
}

// GetPosition returns the user's stake position
func (u *UseCase) GetPosition(ctx context.Context, userID string) (*domain.StakePosition, error) {
	return u.store.Reader().Stakes().Get(ctx, userID)
}

func (u *UseCase) publish(ctx context.Context, event domain.StakingEvent) {
	if err := u.publisher.SendToTopic(ctx, domain.TopicStakingEvents, event.UserID, event); err != nil {
		u.logger.Error().Err(err).Str("user_id", event.UserID).Str("type", event.Type).Msg("failed to publish staking event")
	}
}
