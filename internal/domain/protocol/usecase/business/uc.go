package business

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/yukikm/subly/internal/domain"
	"github.com/yukikm/subly/internal/infrastructure/metrics"
)

type UseCase struct {
	store     domain.Store
	clock     domain.Clock
	publisher domain.EventPublisher
	metrics   *metrics.Metrics
	logger    zerolog.Logger

	mu        sync.Mutex
	listeners []func(paused bool)
}

func NewUseCase(
	store domain.Store,
	clock domain.Clock,
	publisher domain.EventPublisher,
	m *metrics.Metrics,
	logger zerolog.Logger,
) *UseCase {
	return &UseCase{
		store:     store,
		clock:     clock,
		publisher: publisher,
		metrics:   m,
		logger:    logger,
	}
}

// OnPauseChange registers fn to be called after the pause flag is committed
func (u *UseCase) OnPauseChange(fn func(paused bool)) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.listeners = append(u.listeners, fn)
}

func (u *UseCase) observe(op string, start time.Time, err error) {
	code := ""
	if err != nil {
		code = domain.CodeOf(err)
	}
	u.metrics.RecordOperation(op, time.Since(start).Seconds(), code)
}

// Initialize creates the protocol record with default fee, unpaused
func (u *UseCase) Initialize(ctx context.Context, authority, oracleRef, stakingRef string) (cfg *domain.ProtocolConfig, err error) {
	defer func(start time.Time) { u.observe("protocol_initialize", start, err) }(time.Now())

	if authority == "" {
		return nil, domain.ErrInvalidUserID
	}
	if len(oracleRef) > domain.MaxURLLength || len(stakingRef) > domain.MaxURLLength {
		return nil, domain.ErrURLTooLong
	}

	err = u.store.WithinTx(ctx, func(ctx context.Context, repos domain.Repositories) error {
		_, err := repos.Protocol().GetForUpdate(ctx)
		if err == nil {
			return domain.ErrProtocolAlreadyInitialized
		}
		if !errors.Is(err, domain.ErrProtocolNotInitialized) {
			return err
		}

		cfg = &domain.ProtocolConfig{
			AuthorityID:    authority,
			ProtocolFeeBps: domain.DefaultProtocolFeeBps,
			OracleRef:      oracleRef,
			StakingRef:     stakingRef,
			YieldRateBps:   domain.DefaultYieldRateBps,
		}
		return repos.Protocol().Save(ctx, cfg)
	})
	if err != nil {
		return nil, err
	}

	u.publish(ctx, "initialized", cfg)
	u.logger.Info().Str("authority", authority).Msg("protocol initialized")

	return cfg, nil
}

// EnsureInitialized initializes the protocol on first start and is a no-op afterwards
func (u *UseCase) EnsureInitialized(ctx context.Context, authority, oracleRef, stakingRef string) (*domain.ProtocolConfig, error) {
	cfg, err := u.Initialize(ctx, authority, oracleRef, stakingRef)
	if errors.Is(err, domain.ErrProtocolAlreadyInitialized) {
		return u.Get(ctx)
	}
	return cfg, err
}

// SetProtocolFee changes the protocol fee; only the authority may call it
func (u *UseCase) SetProtocolFee(ctx context.Context, caller string, feeBps uint64) (cfg *domain.ProtocolConfig, err error) {
	defer func(start time.Time) { u.observe("protocol_set_fee", start, err) }(time.Now())

	if feeBps > domain.MaxProtocolFeeBps {
		return nil, domain.ErrInvalidProtocolFee
	}

	cfg, err = u.update(ctx, caller, func(cfg *domain.ProtocolConfig) {
		cfg.ProtocolFeeBps = feeBps
	})
	if err != nil {
		return nil, err
	}

	u.publish(ctx, "fee_changed", cfg)
	u.logger.Info().Str("caller", caller).Uint64("fee_bps", feeBps).Msg("protocol fee changed")

	return cfg, nil
}

// SetPaused toggles the pause flag; only the authority may call it
func (u *UseCase) SetPaused(ctx context.Context, caller string, paused bool) (cfg *domain.ProtocolConfig, err error) {
	defer func(start time.Time) { u.observe("protocol_set_paused", start, err) }(time.Now())

	cfg, err = u.update(ctx, caller, func(cfg *domain.ProtocolConfig) {
		cfg.Paused = paused
	})
	if err != nil {
		return nil, err
	}

	u.publish(ctx, "pause_changed", cfg)
	u.notify(paused)
	u.logger.Warn().Str("caller", caller).Bool("paused", paused).Msg("protocol pause flag changed")

	return cfg, nil
}

// Get returns the committed protocol record
func (u *UseCase) Get(ctx context.Context) (*domain.ProtocolConfig, error) {
	return u.store.Reader().Protocol().Get(ctx)
}

func (u *UseCase) update(ctx context.Context, caller string, mutate func(cfg *domain.ProtocolConfig)) (*domain.ProtocolConfig, error) {
	var cfg *domain.ProtocolConfig
	err := u.store.WithinTx(ctx, func(ctx context.Context, repos domain.Repositories) error {
		var err error
		cfg, err = repos.Protocol().GetForUpdate(ctx)
		if err != nil {
			return err
		}
		if caller != cfg.AuthorityID {
			return domain.ErrUnauthorizedAuthority
		}
		mutate(cfg)
		return repos.Protocol().Save(ctx, cfg)
	})
	return cfg, err
}

func (u *UseCase) notify(paused bool) {
	u.mu.Lock()
	listeners := append([]func(bool){}, u.listeners...)
	u.mu.Unlock()

	for _, fn := range listeners {
		fn(paused)
	}
}

func (u *UseCase) publish(ctx context.Context, kind string, cfg *domain.ProtocolConfig) {
	event := domain.ProtocolEvent{
		Type:           kind,
		ProtocolFeeBps: cfg.ProtocolFeeBps,
		Paused:         cfg.Paused,
		Timestamp:      u.clock.Now(),
	}
	if err := u.publisher.SendToTopic(ctx, domain.TopicProtocolEvents, "protocol", event); err != nil {
		u.logger.Error().Err(err).Str("type", kind).Msg("failed to publish protocol event")
	}
}
