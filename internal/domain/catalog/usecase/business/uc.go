package business

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/yukikm/subly/internal/domain"
	"github.com/yukikm/subly/internal/domain/catalog/dto"
	"github.com/yukikm/subly/internal/infrastructure/metrics"
)

type UseCase struct {
	store   domain.Store
	clock   domain.Clock
	metrics *metrics.Metrics
	logger  zerolog.Logger
}

func NewUseCase(store domain.Store, clock domain.Clock, m *metrics.Metrics, logger zerolog.Logger) *UseCase {
	return &UseCase{
		store:   store,
		clock:   clock,
		metrics: m,
		logger:  logger,
	}
}

func (u *UseCase) observe(op string, start time.Time, err error) {
	code := ""
	if err != nil {
		code = domain.CodeOf(err)
	}
	u.metrics.RecordOperation(op, time.Since(start).Seconds(), code)
}

// RegisterProvider registers the caller as a provider
func (u *UseCase) RegisterProvider(ctx context.Context, owner, name, description string) (provider *domain.Provider, err error) {
	defer func(start time.Time) { u.observe("register_provider", start, err) }(time.Now())

	if owner == "" {
		return nil, domain.ErrInvalidProvider
	}
	if len(name) > domain.MaxNameLength {
		return nil, domain.ErrNameTooLong
	}
	if len(description) > domain.MaxDescriptionLength {
		return nil, domain.ErrDescriptionTooLong
	}

	err = u.store.WithinTx(ctx, func(ctx context.Context, repos domain.Repositories) error {
		cfg, err := repos.Protocol().Get(ctx)
		if err != nil {
			return err
		}
		if err := cfg.EnsureActive(); err != nil {
			return err
		}

		provider = &domain.Provider{
			Owner:       owner,
			Name:        name,
			Description: description,
			CreatedAt:   u.clock.Now(),
		}
		return repos.Providers().Create(ctx, provider)
	})
	if err != nil {
		return nil, err
	}

	u.logger.Info().Str("provider", owner).Str("name", name).Msg("provider registered")
	return provider, nil
}

// RegisterService creates a service under the caller's provider and
// assigns it the next value of the protocol's service counter
func (u *UseCase) RegisterService(ctx context.Context, owner string, req dto.RegisterServiceRequest) (service *domain.SubscriptionService, err error) {
	defer func(start time.Time) { u.observe("register_service", start, err) }(time.Now())

	if err := req.Validate(); err != nil {
		return nil, err
	}

	err = u.store.WithinTx(ctx, func(ctx context.Context, repos domain.Repositories) error {
		cfg, err := repos.Protocol().GetForUpdate(ctx)
		if err != nil {
			return err
		}
		if err := cfg.EnsureActive(); err != nil {
			return err
		}

		if _, err := repos.Providers().Get(ctx, owner); err != nil {
			return err
		}

		next, err := domain.AddAmount(cfg.TotalServicesCounter, 1)
		if err != nil {
			return err
		}

		service = &domain.SubscriptionService{
			ID:                cfg.TotalServicesCounter,
			ProviderID:        owner,
			Name:              req.Name,
			Description:       req.Description,
			ImageURL:          req.ImageURL,
			FeeFiatCents:      req.FeeFiatCents,
			BillingPeriodDays: req.BillingPeriodDays,
			Active:            true,
			CreatedAt:         u.clock.Now(),
		}
		if err := repos.Services().Create(ctx, service); err != nil {
			return err
		}

		cfg.TotalServicesCounter = next
		return repos.Protocol().Save(ctx, cfg)
	})
	if err != nil {
		return nil, err
	}

	u.logger.Info().
		Str("provider", owner).
		Uint64("service_id", service.ID).
		Uint64("fee_fiat_cents", service.FeeFiatCents).
		Uint64("billing_period_days", service.BillingPeriodDays).
		Msg("service registered")

	return service, nil
}

// DeactivateService retires a service; existing subscriptions keep their state
func (u *UseCase) DeactivateService(ctx context.Context, owner string, serviceID uint64) (service *domain.SubscriptionService, err error) {
	defer func(start time.Time) { u.observe("deactivate_service", start, err) }(time.Now())

	err = u.store.WithinTx(ctx, func(ctx context.Context, repos domain.Repositories) error {
		var err error
		service, err = repos.Services().Get(ctx, serviceID)
		if err != nil {
			return err
		}
		if service.ProviderID != owner {
			return domain.ErrUnauthorizedProvider
		}
		if !service.Active {
			return nil
		}
		service.Active = false
		return repos.Services().Save(ctx, service)
	})
	if err != nil {
		return nil, err
	}

	u.logger.Info().Str("provider", owner).Uint64("service_id", serviceID).Msg("service deactivated")
	return service, nil
}

func (u *UseCase) GetProvider(ctx context.Context, owner string) (*domain.Provider, error) {
	return u.store.Reader().Providers().Get(ctx, owner)
}

func (u *UseCase) GetService(ctx context.Context, serviceID uint64) (*domain.SubscriptionService, error) {
	return u.store.Reader().Services().Get(ctx, serviceID)
}

func (u *UseCase) ListServices(ctx context.Context, activeOnly bool) ([]domain.SubscriptionService, error) {
	return u.store.Reader().Services().List(ctx, activeOnly)
}
