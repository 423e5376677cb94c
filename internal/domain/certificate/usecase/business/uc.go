package business

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/yukikm/subly/internal/domain"
)

type UseCase struct {
	store  domain.Store
	clock  domain.Clock
	logger zerolog.Logger
}

func NewUseCase(store domain.Store, clock domain.Clock, logger zerolog.Logger) *UseCase {
	return &UseCase{store: store, clock: clock, logger: logger}
}

// IssueWithin mints a certificate for subscriptionID using the caller's transaction
func (u *UseCase) IssueWithin(ctx context.Context, repos domain.Repositories, owner string, subscriptionID uint) (*domain.Certificate, error) {
	if owner == "" {
		return nil, domain.ErrInvalidUserID
	}

	cert := &domain.Certificate{
		ID:             uuid.New(),
		SubscriptionID: subscriptionID,
		Owner:          owner,
		IssuedAt:       u.clock.Now(),
	}
	if err := repos.Certificates().Create(ctx, cert); err != nil {
		return nil, err
	}

	u.logger.Debug().
		Str("certificate_id", cert.ID.String()).
		Uint("subscription_id", subscriptionID).
		Msg("certificate issued")

	return cert, nil
}

// RevokeWithin destroys a certificate using the caller's transaction
func (u *UseCase) RevokeWithin(ctx context.Context, repos domain.Repositories, id uuid.UUID) error {
	cert, err := repos.Certificates().Get(ctx, id.String())
	if errors.Is(err, domain.ErrCertificateNotFound) {
		return domain.ErrNoCertificateToDestroy
	}
	if err != nil {
		return err
	}
	if cert.Revoked() {
		return domain.ErrNoCertificateToDestroy
	}

	now := u.clock.Now()
	cert.RevokedAt = &now
	if err := repos.Certificates().Save(ctx, cert); err != nil {
		return err
	}

	u.logger.Debug().Str("certificate_id", id.String()).Msg("certificate revoked")
	return nil
}

// Get returns a certificate, revoked or not
func (u *UseCase) Get(ctx context.Context, id uuid.UUID) (*domain.Certificate, error) {
	return u.store.Reader().Certificates().Get(ctx, id.String())
}
