package business

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/yukikm/subly/config"
	"github.com/yukikm/subly/internal/domain"
	"github.com/yukikm/subly/internal/domain/settlement/dto"
	"github.com/yukikm/subly/internal/infrastructure/metrics"
)

type UseCase struct {
	store     domain.Store
	rates     domain.RateProvider
	clock     domain.Clock
	publisher domain.EventPublisher
	metrics   *metrics.Metrics
	cfg       *config.SettlementConfig
	logger    zerolog.Logger
}

func NewUseCase(
	store domain.Store,
	rates domain.RateProvider,
	clock domain.Clock,
	publisher domain.EventPublisher,
	m *metrics.Metrics,
	cfg *config.SettlementConfig,
	logger zerolog.Logger,
) *UseCase {
	return &UseCase{
		store:     store,
		rates:     rates,
		clock:     clock,
		publisher: publisher,
		metrics:   m,
		cfg:       cfg,
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

// Authorize accepts only the protocol authority as an external settlement trigger
func (u *UseCase) Authorize(ctx context.Context, caller string) error {
	cfg, err := u.store.Reader().Protocol().Get(ctx)
	if err != nil {
		return err
	}
	if caller == "" || caller != cfg.AuthorityID {
		return domain.ErrUnauthorizedAuthority
	}
	return nil
}

// RunBatch validates that settlement may run, checkpoints the price and
// returns the subscriptions currently due. It moves no funds.
func (u *UseCase) RunBatch(ctx context.Context) (res *dto.BatchResult, err error) {
	start := time.Now()
	defer func() { u.observe("run_batch", start, err) }()

	now := u.clock.Now()
	var rate domain.Rate

	err = u.store.WithinTx(ctx, func(ctx context.Context, repos domain.Repositories) error {
		cfg, err := repos.Protocol().GetForUpdate(ctx)
		if err != nil {
			return err
		}
		if err := cfg.EnsureActive(); err != nil {
			return err
		}

		rate, err = u.rates.SettlementRate(ctx)
		if err != nil {
			return err
		}

		cfg.LastSettlementRun = &now
		return repos.Protocol().Save(ctx, cfg)
	})
	if err != nil {
		return nil, err
	}

	due, err := u.store.Reader().Subscriptions().ListDue(ctx, now, u.cfg.BatchSize)
	if err != nil {
		return nil, err
	}

	res = &dto.BatchResult{
		BatchID:   uuid.New(),
		RateCents: rate.Cents,
		StartedAt: now,
		Due:       make([]domain.SubscriptionKey, 0, len(due)),
	}
	for i := range due {
		res.Due = append(res.Due, due[i].Key())
	}

	u.metrics.RecordBatch(len(res.Due), time.Since(start).Seconds())
	u.logger.Info().
		Str("batch_id", res.BatchID.String()).
		Uint64("rate_cents", rate.Cents).
		Int("due", len(res.Due)).
		Msg("settlement batch opened")

	return res, nil
}

// ExecutePayment settles one billing cycle of the subscription. A cycle that
// was already settled fails with ErrPaymentNotDue.
func (u *UseCase) ExecutePayment(ctx context.Context, key domain.SubscriptionKey, batchID *uuid.UUID) (res *dto.PaymentResult, err error) {
	defer func(start time.Time) { u.observe("execute_payment", start, err) }(time.Now())
	defer func() {
		if err != nil {
			u.metrics.RecordPaymentFailure(domain.CodeOf(err))
		}
	}()

	now := u.clock.Now()

	err = u.store.WithinTx(ctx, func(ctx context.Context, repos domain.Repositories) error {
		cfg, err := repos.Protocol().Get(ctx)
		if err != nil {
			return err
		}
		if err := cfg.EnsureActive(); err != nil {
			return err
		}

		sub, err := repos.Subscriptions().GetLatest(ctx, key)
		if err != nil {
			return err
		}
		if now.Before(sub.NextPaymentDue) {
			return domain.ErrPaymentNotDue
		}
		if !sub.Active {
			return domain.ErrSubscriptionNotActive
		}

		service, err := repos.Services().Get(ctx, sub.ServiceID)
		if err != nil {
			return err
		}
		if !service.Active {
			return domain.ErrServiceNotActive
		}

		rate, err := u.rates.SettlementRate(ctx)
		if err != nil {
			return err
		}
		fee, err := domain.FiatToNative(service.FeeFiatCents, rate.Cents)
		if err != nil {
			return err
		}
		protocolFee, err := domain.ApplyBps(fee, cfg.ProtocolFeeBps)
		if err != nil {
			return err
		}
		share := fee - protocolFee

		payer, err := repos.Ledgers().Get(ctx, sub.UserID)
		if errors.Is(err, domain.ErrLedgerNotFound) {
			return domain.ErrInsufficientBalance
		}
		if err != nil {
			return err
		}
		if err := payer.Debit(fee); err != nil {
			return err
		}

		payee, err := repos.Ledgers().Get(ctx, sub.ProviderID)
		switch {
		case errors.Is(err, domain.ErrLedgerNotFound):
			payee = &domain.UserLedger{Owner: sub.ProviderID}
		case err != nil:
			return err
		}
		if err := payee.Credit(share); err != nil {
			return err
		}

		if sub.PaymentsMade, err = domain.AddAmount(sub.PaymentsMade, 1); err != nil {
			return err
		}
		sub.LastPaymentAt = &now
		sub.NextPaymentDue = now.Add(service.BillingPeriod())

		if err := repos.Ledgers().Save(ctx, payer); err != nil {
			return err
		}
		if err := repos.Ledgers().Save(ctx, payee); err != nil {
			return err
		}
		if err := repos.Subscriptions().Save(ctx, sub); err != nil {
			return err
		}

		record := func(amount uint64, kind domain.PaymentKind) *domain.PaymentRecord {
			return &domain.PaymentRecord{
				ID:             uuid.New(),
				SubscriptionID: sub.ID,
				UserID:         sub.UserID,
				ProviderID:     sub.ProviderID,
				ServiceID:      sub.ServiceID,
				Amount:         amount,
				Kind:           kind,
				RateCents:      rate.Cents,
				BatchID:        batchID,
				PaidAt:         now,
			}
		}
		if err := repos.Payments().Create(ctx,
			record(share, domain.PaymentKindSubscription),
			record(protocolFee, domain.PaymentKindProtocolFee),
		); err != nil {
			return err
		}
		// last, so the shared protocol row stays locked only until commit
		if err := repos.Protocol().AddTreasury(ctx, protocolFee); err != nil {
			return err
		}

		res = &dto.PaymentResult{
			SubscriptionID: sub.ID,
			Key:            key,
			FeeNative:      fee,
			ProviderShare:  share,
			ProtocolFee:    protocolFee,
			RateCents:      rate.Cents,
			PaymentsMade:   sub.PaymentsMade,
			NextPaymentDue: sub.NextPaymentDue,
		}
		return nil
	})
	if err != nil {
		u.logger.Warn().
			Err(err).
			Str("user_id", key.UserID).
			Str("provider_id", key.ProviderID).
			Uint64("service_id", key.ServiceID).
			Msg("payment not executed")
		return nil, err
	}

	u.metrics.RecordPayment(res.ProviderShare, res.ProtocolFee)

	event := domain.PaymentEvent{
		SubscriptionID: res.SubscriptionID,
		Key:            key,
		FeeNative:      res.FeeNative,
		ProviderShare:  res.ProviderShare,
		ProtocolFee:    res.ProtocolFee,
		RateCents:      res.RateCents,
		BatchID:        batchID,
		NextPaymentDue: res.NextPaymentDue,
		Timestamp:      now,
	}
	if err := u.publisher.SendToTopic(ctx, domain.TopicPaymentEvents, key.UserID, event); err != nil {
		u.logger.Error().Err(err).Uint("subscription_id", res.SubscriptionID).Msg("failed to publish payment event")
	}

	u.logger.Info().
		Uint("subscription_id", res.SubscriptionID).
		Uint64("fee_native", res.FeeNative).
		Uint64("protocol_fee", res.ProtocolFee).
		Uint64("payments_made", res.PaymentsMade).
		Msg("payment executed")

	return res, nil
}

// RunCycle opens a batch and executes every due payment with bounded
// concurrency. Payments not reached before the batch timeout stay due.
func (u *UseCase) RunCycle(ctx context.Context) (*dto.CycleReport, error) {
	if u.cfg.BatchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, u.cfg.BatchTimeout)
		defer cancel()
	}

	batch, err := u.RunBatch(ctx)
	if err != nil {
		return nil, err
	}

	report := &dto.CycleReport{
		BatchID:  batch.BatchID,
		Due:      len(batch.Due),
		Failures: make(map[string]int),
	}
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	if u.cfg.Concurrency > 0 {
		g.SetLimit(u.cfg.Concurrency)
	}

	for _, key := range batch.Due {
		g.Go(func() error {
			if gctx.Err() != nil {
				mu.Lock()
				report.Skipped++
				mu.Unlock()
				return gctx.Err()
			}

			_, err := u.ExecutePayment(gctx, key, &batch.BatchID)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				report.Failed++
				report.Failures[domain.CodeOf(err)]++
				return nil
			}
			report.Settled++
			return nil
		})
	}

	err = g.Wait()

	u.logger.Info().
		Str("batch_id", batch.BatchID.String()).
		Int("due", report.Due).
		Int("settled", report.Settled).
		Int("failed", report.Failed).
		Int("skipped", report.Skipped).
		Msg("settlement cycle finished")

	return report, err
}

func (u *UseCase) ListPayments(ctx context.Context, subscriptionID uint) ([]domain.PaymentRecord, error) {
	return u.store.Reader().Payments().ListBySubscription(ctx, subscriptionID)
}
