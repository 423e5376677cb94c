package postgres

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yukikm/subly/internal/domain"
)

// Store implements domain.Store on top of gorm
type Store struct {
	db *gorm.DB
}

// NewStore creates a new postgres-backed store
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// WithinTx runs fn in a database transaction. Reads made through the
// transactional repositories take row locks (SELECT ... FOR UPDATE).
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, repos domain.Repositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(ctx, &repositories{db: tx, lock: true})
	})
}

// Reader returns non-locking repositories on the shared pool
func (s *Store) Reader() domain.Repositories {
	return &repositories{db: s.db}
}

type repositories struct {
	db   *gorm.DB
	lock bool
}

func (r *repositories) Ledgers() domain.LedgerRepository     { return &ledgerRepository{r} }
func (r *repositories) Providers() domain.ProviderRepository { return &providerRepository{r} }
func (r *repositories) Services() domain.ServiceRepository   { return &serviceRepository{r} }
func (r *repositories) Subscriptions() domain.SubscriptionRepository {
	return &subscriptionRepository{r}
}
func (r *repositories) Stakes() domain.StakeRepository             { return &stakeRepository{r} }
func (r *repositories) Protocol() domain.ProtocolRepository        { return &protocolRepository{r} }
func (r *repositories) Payments() domain.PaymentRepository         { return &paymentRepository{r} }
func (r *repositories) Certificates() domain.CertificateRepository { return &certificateRepository{r} }

// query returns a session bound to ctx, locking selected rows inside a transaction
func (r *repositories) query(ctx context.Context) *gorm.DB {
	db := r.db.WithContext(ctx)
	if r.lock {
		db = db.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return db
}

func (r *repositories) exec(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx)
}

// mapError translates gorm errors into domain errors
func mapError(err error, notFound error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return notFound
	default:
		return fmt.Errorf("%w: %v", domain.ErrDatabaseOperation, err)
	}
}
