package business

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/yukikm/subly/internal/domain"
	certdeps "github.com/yukikm/subly/internal/domain/certificate/deps"
	"github.com/yukikm/subly/internal/domain/subscription/dto"
	"github.com/yukikm/subly/internal/infrastructure/metrics"
)

// monthsPerYear divides annual yield into the monthly figure used for affordability
const monthsPerYear = 12

type UseCase struct {
	store     domain.Store
	rates     domain.RateProvider
	issuer    certdeps.Issuer
	clock     domain.Clock
	publisher domain.EventPublisher
	metrics   *metrics.Metrics
	logger    zerolog.Logger
}

func NewUseCase(
	store domain.Store,
	rates domain.RateProvider,
	issuer certdeps.Issuer,
	clock domain.Clock,
	publisher domain.EventPublisher,
	m *metrics.Metrics,
	logger zerolog.Logger,
) *UseCase {
	return &UseCase{
		store:     store,
		rates:     rates,
		issuer:    issuer,
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

// Subscribe locks twelve periods of the service fee as collateral and
// opens a subscription with a fresh certificate
func (u *UseCase) Subscribe(ctx context.Context, userID string, req dto.SubscribeRequest) (res *dto.SubscribeResult, err error) {
	defer func(start time.Time) { u.observe("subscribe", start, err) }(time.Now())

	if userID == "" {
		return nil, domain.ErrInvalidUserID
	}
	if req.ProviderID == "" {
		return nil, domain.ErrInvalidProvider
	}
	if userID == req.ProviderID {
		return nil, domain.ErrCannotSubscribeToOwnService
	}

	key := domain.SubscriptionKey{UserID: userID, ProviderID: req.ProviderID, ServiceID: req.ServiceID}
	now := u.clock.Now()

	err = u.store.WithinTx(ctx, func(ctx context.Context, repos domain.Repositories) error {
		cfg, err := repos.Protocol().Get(ctx)
		if err != nil {
			return err
		}
		if err := cfg.EnsureActive(); err != nil {
			return err
		}

		service, err := repos.Services().Get(ctx, req.ServiceID)
		if err != nil {
			return err
		}
		if service.ProviderID != req.ProviderID {
			return domain.ErrInvalidProvider
		}
		if !service.Active {
			return domain.ErrServiceNotActive
		}

		_, err = repos.Subscriptions().GetActive(ctx, key)
		if err == nil {
			return domain.ErrSubscriptionAlreadyExists
		}
		if !errors.Is(err, domain.ErrSubscriptionNotFound) {
			return err
		}

		rate, err := u.rates.SubscribeRate(ctx)
		if err != nil {
			return err
		}
		lock, err := lockAmount(service.FeeFiatCents, rate.Cents)
		if err != nil {
			return err
		}

		ledger, err := repos.Ledgers().Get(ctx, userID)
		if errors.Is(err, domain.ErrLedgerNotFound) {
			return domain.ErrInsufficientAvailableBalance
		}
		if err != nil {
			return err
		}
		if err := ledger.Lock(lock); err != nil {
			return err
		}

		provider, err := repos.Providers().Get(ctx, req.ProviderID)
		if err != nil {
			return err
		}
		if provider.TotalSubscribers, err = domain.AddAmount(provider.TotalSubscribers, 1); err != nil {
			return err
		}
		if service.CurrentSubscribers, err = domain.AddAmount(service.CurrentSubscribers, 1); err != nil {
			return err
		}

		sub := &domain.Subscription{
			UserID:         userID,
			ProviderID:     req.ProviderID,
			ServiceID:      req.ServiceID,
			SubscribedAt:   now,
			NextPaymentDue: now.Add(service.BillingPeriod()),
			LockedAmount:   lock,
			Active:         true,
		}
		if err := repos.Subscriptions().Create(ctx, sub); err != nil {
			return err
		}

		cert, err := u.issuer.IssueWithin(ctx, repos, userID, sub.ID)
		if err != nil {
			return err
		}
		sub.CertificateID = &cert.ID

		if err := repos.Subscriptions().Save(ctx, sub); err != nil {
			return err
		}
		if err := repos.Ledgers().Save(ctx, ledger); err != nil {
			return err
		}
		if err := repos.Services().Save(ctx, service); err != nil {
			return err
		}
		if err := repos.Providers().Save(ctx, provider); err != nil {
			return err
		}

		res = &dto.SubscribeResult{Subscription: sub, Certificate: cert, RateCents: rate.Cents}
		return nil
	})
	if err != nil {
		u.logger.Debug().Err(err).Str("user_id", userID).Uint64("service_id", req.ServiceID).Msg("subscribe rejected")
		return nil, err
	}

	u.publish(ctx, "subscribed", res.Subscription)
	u.logger.Info().
		Str("user_id", userID).
		Str("provider_id", req.ProviderID).
		Uint64("service_id", req.ServiceID).
		Uint64("locked", res.Subscription.LockedAmount).
		Uint64("rate_cents", res.RateCents).
		Msg("subscribed")

	return res, nil
}

// Unsubscribe cancels the active subscription and releases its collateral
func (u *UseCase) Unsubscribe(ctx context.Context, userID string, req dto.SubscribeRequest) (res *dto.UnsubscribeResult, err error) {
	defer func(start time.Time) { u.observe("unsubscribe", start, err) }(time.Now())

	if userID == "" {
		return nil, domain.ErrInvalidUserID
	}

	key := domain.SubscriptionKey{UserID: userID, ProviderID: req.ProviderID, ServiceID: req.ServiceID}
	now := u.clock.Now()

	err = u.store.WithinTx(ctx, func(ctx context.Context, repos domain.Repositories) error {
		cfg, err := repos.Protocol().Get(ctx)
		if err != nil {
			return err
		}
		if err := cfg.EnsureActive(); err != nil {
			return err
		}

		sub, err := repos.Subscriptions().GetActive(ctx, key)
		if errors.Is(err, domain.ErrSubscriptionNotFound) {
			return domain.ErrSubscriptionNotActive
		}
		if err != nil {
			return err
		}

		ledger, err := repos.Ledgers().Get(ctx, userID)
		if err != nil {
			return err
		}
		unlocked := min(sub.LockedAmount, ledger.Locked)
		if err := ledger.Unlock(unlocked); err != nil {
			return err
		}

		if sub.CertificateID != nil {
			if err := u.issuer.RevokeWithin(ctx, repos, *sub.CertificateID); err != nil {
				return err
			}
		}

		service, err := repos.Services().Get(ctx, sub.ServiceID)
		if err != nil {
			return err
		}
		provider, err := repos.Providers().Get(ctx, sub.ProviderID)
		if err != nil {
			return err
		}
		service.CurrentSubscribers = saturatingDec(service.CurrentSubscribers)
		provider.TotalSubscribers = saturatingDec(provider.TotalSubscribers)

		sub.Active = false
		sub.CancelledAt = &now

		if err := repos.Subscriptions().Save(ctx, sub); err != nil {
			return err
		}
		if err := repos.Ledgers().Save(ctx, ledger); err != nil {
			return err
		}
		if err := repos.Services().Save(ctx, service); err != nil {
			return err
		}
		if err := repos.Providers().Save(ctx, provider); err != nil {
			return err
		}

		res = &dto.UnsubscribeResult{Subscription: sub, Unlocked: unlocked}
		return nil
	})
	if err != nil {
		return nil, err
	}

	u.publish(ctx, "unsubscribed", res.Subscription)
	u.logger.Info().
		Str("user_id", userID).
		Str("provider_id", req.ProviderID).
		Uint64("service_id", req.ServiceID).
		Uint64("unlocked", res.Unlocked).
		Msg("unsubscribed")

	return res, nil
}

// CheckSubscription reports whether the triple has an active subscription.
// A stored record whose fields disagree with the query is rejected.
func (u *UseCase) CheckSubscription(ctx context.Context, key domain.SubscriptionKey) (bool, error) {
	sub, err := u.store.Reader().Subscriptions().GetLatest(ctx, key)
	if errors.Is(err, domain.ErrSubscriptionNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	switch {
	case sub.ProviderID != key.ProviderID:
		return false, domain.ErrInvalidProvider
	case sub.ServiceID != key.ServiceID:
		return false, domain.ErrInvalidServiceID
	case sub.UserID != key.UserID:
		return false, domain.ErrUnauthorizedUser
	}

	return sub.Active, nil
}

// ListAffordableServices ranks active services by whether the user's
// expected monthly staking yield covers the fee, cheapest first
func (u *UseCase) ListAffordableServices(ctx context.Context, userID string, apyBps uint64) (_ []dto.AffordableService, err error) {
	defer func(start time.Time) { u.observe("list_affordable_services", start, err) }(time.Now())

	reader := u.store.Reader()

	var available uint64
	ledger, err := reader.Ledgers().Get(ctx, userID)
	switch {
	case err == nil:
		available = ledger.Available()
	case !errors.Is(err, domain.ErrLedgerNotFound):
		return nil, err
	}

	services, err := reader.Services().List(ctx, true)
	if err != nil {
		return nil, err
	}
	if len(services) == 0 {
		return []dto.AffordableService{}, nil
	}

	rate, err := u.rates.SubscribeRate(ctx)
	if err != nil {
		return nil, err
	}

	annual, err := domain.ApplyBps(available, apyBps)
	if err != nil {
		return nil, err
	}
	monthlyYield := annual / monthsPerYear

	result := make([]dto.AffordableService, 0, len(services))
	for _, s := range services {
		fee, err := domain.FiatToNative(s.FeeFiatCents, rate.Cents)
		if err != nil {
			return nil, err
		}
		result = append(result, dto.AffordableService{
			Service:              s,
			MonthlyFeeNative:     fee,
			ExpectedMonthlyYield: monthlyYield,
			CanAfford:            monthlyYield >= fee,
		})
	}

	sort.SliceStable(result, func(i, j int) bool {
		if result[i].CanAfford != result[j].CanAfford {
			return result[i].CanAfford
		}
		return result[i].Service.FeeFiatCents < result[j].Service.FeeFiatCents
	})

	return result, nil
}

func (u *UseCase) ListUserSubscriptions(ctx context.Context, userID string) ([]domain.Subscription, error) {
	if userID == "" {
		return nil, domain.ErrInvalidUserID
	}
	return u.store.Reader().Subscriptions().ListByUser(ctx, userID)
}

func (u *UseCase) publish(ctx context.Context, kind string, sub *domain.Subscription) {
	event := domain.SubscriptionEvent{
		Type:           kind,
		SubscriptionID: sub.ID,
		Key:            sub.Key(),
		LockedAmount:   sub.LockedAmount,
		CertificateID:  sub.CertificateID,
		Timestamp:      u.clock.Now(),
	}
	if err := u.publisher.SendToTopic(ctx, domain.TopicSubscriptionEvents, sub.UserID, event); err != nil {
		u.logger.Error().Err(err).Uint("subscription_id", sub.ID).Msg("failed to publish subscription event")
	}
}

// lockAmount is the collateral reserved on subscribe
func lockAmount(feeCents, rateCents uint64) (uint64, error) {
	perPeriod, err := domain.FiatToNative(feeCents, rateCents)
	if err != nil {
		return 0, err
	}
	return domain.MulAmount(perPeriod, domain.LockPeriods)
}

func saturatingDec(n uint64) uint64 {
	if n == 0 {
		return 0
	}
	return n - 1
}
