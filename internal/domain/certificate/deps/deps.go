package deps

import (
	"context"

	"github.com/google/uuid"

	"github.com/yukikm/subly/internal/domain"
)

// Issuer mints and destroys certificates inside a caller's transaction
type Issuer interface {
	IssueWithin(ctx context.Context, repos domain.Repositories, owner string, subscriptionID uint) (*domain.Certificate, error)
	RevokeWithin(ctx context.Context, repos domain.Repositories, id uuid.UUID) error
}

// CertificateUseCase is the read side; certificates change only with their subscription
type CertificateUseCase interface {
	Get(ctx context.Context, id uuid.UUID) (*domain.Certificate, error)
}
