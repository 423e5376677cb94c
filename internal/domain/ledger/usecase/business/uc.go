package business

import (
	"context"
	"errors"
	"math/big"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/yukikm/subly/internal/domain"
	"github.com/yukikm/subly/internal/domain/ledger/dto"
	stakingdeps "github.com/yukikm/subly/internal/domain/staking/deps"
	"github.com/yukikm/subly/internal/infrastructure/metrics"
)

type UseCase struct {
	store     domain.Store
	unwinder  stakingdeps.Unwinder
	clock     domain.Clock
	publisher domain.EventPublisher
	metrics   *metrics.Metrics
	logger    zerolog.Logger
}

func NewUseCase(
	store domain.Store,
	unwinder stakingdeps.Unwinder,
	clock domain.Clock,
	publisher domain.EventPublisher,
	m *metrics.Metrics,
	logger zerolog.Logger,
) *UseCase {
	return &UseCase{
		store:     store,
		unwinder:  unwinder,
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

// Deposit credits amount to the owner's ledger, creating it on first use
func (u *UseCase) Deposit(ctx context.Context, owner string, amount uint64) (res *dto.Balance, err error) {
	defer func(start time.Time) { u.observe("deposit", start, err) }(time.Now())

	if owner == "" {
		return nil, domain.ErrInvalidUserID
	}
	if amount == 0 {
		return nil, domain.ErrInvalidAmount
	}

	var ledger *domain.UserLedger
	err = u.store.WithinTx(ctx, func(ctx context.Context, repos domain.Repositories) error {
		cfg, err := repos.Protocol().Get(ctx)
		if err != nil {
			return err
		}
		if err := cfg.EnsureActive(); err != nil {
			return err
		}

		ledger, err = repos.Ledgers().Get(ctx, owner)
		if errors.Is(err, domain.ErrLedgerNotFound) {
			ledger = &domain.UserLedger{Owner: owner}
		} else if err != nil {
			return err
		}

		if err := ledger.Deposit(amount); err != nil {
			return err
		}
		return repos.Ledgers().Save(ctx, ledger)
	})
	if err != nil {
		u.logger.Warn().Err(err).Str("owner", owner).Uint64("amount", amount).Msg("deposit rejected")
		return nil, err
	}

	u.publish(ctx, "deposit", ledger, amount)

	u.logger.Info().
		Str("owner", owner).
		Uint64("amount", amount).
		Uint64("deposited", ledger.Deposited).
		Msg("deposit accepted")

	return toBalance(ledger), nil
}

// Withdraw debits amount from the available balance, unstaking first
// when the liquid deposited balance cannot cover it.
func (u *UseCase) Withdraw(ctx context.Context, owner string, amount, apyBps uint64) (res *dto.WithdrawResult, err error) {
	defer func(start time.Time) { u.observe("withdraw", start, err) }(time.Now())

	if owner == "" {
		return nil, domain.ErrInvalidUserID
	}
	if amount == 0 {
		return nil, domain.ErrInvalidAmount
	}

	res = &dto.WithdrawResult{Withdrawn: amount}
	var ledger *domain.UserLedger

	err = u.store.WithinTx(ctx, func(ctx context.Context, repos domain.Repositories) error {
		ledger, err = repos.Ledgers().Get(ctx, owner)
		if errors.Is(err, domain.ErrLedgerNotFound) {
			return domain.ErrInsufficientBalance
		}
		if err != nil {
			return err
		}

		if ledger.Deposited < amount {
			if err := u.unstakeShortfall(ctx, repos, ledger, amount, apyBps, res); err != nil {
				return err
			}
		}

		if err := ledger.Withdraw(amount); err != nil {
			return err
		}
		return repos.Ledgers().Save(ctx, ledger)
	})
	if err != nil {
		u.logger.Warn().Err(err).Str("owner", owner).Uint64("amount", amount).Msg("withdrawal rejected")
		return nil, err
	}

	u.publish(ctx, "withdraw", ledger, amount)

	u.logger.Info().
		Str("owner", owner).
		Uint64("amount", amount).
		Uint64("unstaked_receipts", res.UnstakedReceipts).
		Msg("withdrawal completed")

	res.Balance = *toBalance(ledger)
	return res, nil
}

// unstakeShortfall redeems enough receipt tokens to bring the liquid balance
// up to withdrawal, capped by the position. Nothing is redeemed unless the
// withdrawal would then succeed.
func (u *UseCase) unstakeShortfall(
	ctx context.Context,
	repos domain.Repositories,
	ledger *domain.UserLedger,
	withdrawal, apyBps uint64,
	res *dto.WithdrawResult,
) error {
	shortfall := withdrawal - ledger.Deposited

	pos, err := repos.Stakes().Get(ctx, ledger.Owner)
	if errors.Is(err, domain.ErrStakePositionNotFound) {
		return domain.ErrInsufficientBalance
	}
	if err != nil {
		return err
	}
	if !pos.Active || pos.ReceiptTokenAmount == 0 {
		return domain.ErrInsufficientBalance
	}
	if !u.unwinder.Available() {
		return domain.ErrStakingNotAvailable
	}

	divisor, err := domain.AddAmount(domain.BasisPoints, apyBps)
	if err != nil {
		return err
	}
	// round up so the redemption covers the shortfall
	scaled, err := domain.MulAmount(shortfall, domain.BasisPoints)
	if err != nil {
		return err
	}
	needed := scaled / divisor
	if scaled%divisor != 0 {
		needed++
	}
	needed = min(needed, pos.ReceiptTokenAmount)

	out, err := u.unwinder.UnwindWithin(ctx, ledger, pos, needed, apyBps, func(after *domain.UserLedger) error {
		return after.Withdraw(withdrawal)
	})
	if err != nil {
		return err
	}
	if err := repos.Stakes().Save(ctx, pos); err != nil {
		return err
	}

	res.UnstakedReceipts = out.ReceiptTokens
	res.UnstakedProceeds = out.Proceeds

	u.logger.Info().
		Str("owner", ledger.Owner).
		Uint64("shortfall", shortfall).
		Uint64("receipt_tokens", needed).
		Uint64("proceeds", out.Proceeds).
		Msg("unstaked to cover withdrawal")

	return nil
}

// GetBalance returns the owner's balances
func (u *UseCase) GetBalance(ctx context.Context, owner string) (*dto.Balance, error) {
	ledger, err := u.store.Reader().Ledgers().Get(ctx, owner)
	if err != nil {
		return nil, err
	}
	return toBalance(ledger), nil
}

func (u *UseCase) publish(ctx context.Context, kind string, ledger *domain.UserLedger, amount uint64) {
	event := domain.LedgerEvent{
		Type:      kind,
		Owner:     ledger.Owner,
		Amount:    amount,
		Deposited: ledger.Deposited,
		Locked:    ledger.Locked,
		Timestamp: u.clock.Now(),
	}
	if err := u.publisher.SendToTopic(ctx, domain.TopicLedgerEvents, ledger.Owner, event); err != nil {
		u.logger.Error().Err(err).Str("owner", ledger.Owner).Str("type", kind).Msg("failed to publish ledger event")
	}
}

func toBalance(l *domain.UserLedger) *dto.Balance {
	available := l.Available()
	return &dto.Balance{
		Owner:     l.Owner,
		Deposited: l.Deposited,
		Locked:    l.Locked,
		Staked:    l.Staked,
		Available: available,
		Display:   FormatNative(available),
	}
}

// FormatNative renders base units as a decimal native amount
func FormatNative(amount uint64) string {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(amount), -9).String()
}
