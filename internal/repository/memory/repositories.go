package memory

import (
	"context"
	"sort"
	"time"

	"github.com/yukikm/subly/internal/domain"
)

// ledgerRepository implements domain.LedgerRepository
type ledgerRepository struct {
	access access
}

func (r *ledgerRepository) Get(ctx context.Context, owner string) (*domain.UserLedger, error) {
	var (
		ledger domain.UserLedger
		ok     bool
	)
	r.access.read(func(st *state) { ledger, ok = st.ledgers[owner] })
	if !ok {
		return nil, domain.ErrLedgerNotFound
	}
	return &ledger, nil
}

func (r *ledgerRepository) Save(ctx context.Context, ledger *domain.UserLedger) error {
	return r.access.write(func(st *state) error {
		now := time.Now().UTC()
		if ledger.CreatedAt.IsZero() {
			ledger.CreatedAt = now
		}
		ledger.UpdatedAt = now
		st.ledgers[ledger.Owner] = *ledger
		return nil
	})
}

// providerRepository implements domain.ProviderRepository
type providerRepository struct {
	access access
}

func (r *providerRepository) Get(ctx context.Context, owner string) (*domain.Provider, error) {
	var (
		provider domain.Provider
		ok       bool
	)
	r.access.read(func(st *state) { provider, ok = st.providers[owner] })
	if !ok {
		return nil, domain.ErrProviderNotFound
	}
	return &provider, nil
}

func (r *providerRepository) Create(ctx context.Context, provider *domain.Provider) error {
	return r.access.write(func(st *state) error {
		if _, exists := st.providers[provider.Owner]; exists {
			return domain.ErrProviderAlreadyExists
		}
		st.providers[provider.Owner] = *provider
		return nil
	})
}

func (r *providerRepository) Save(ctx context.Context, provider *domain.Provider) error {
	return r.access.write(func(st *state) error {
		if _, exists := st.providers[provider.Owner]; !exists {
			return domain.ErrProviderNotFound
		}
		st.providers[provider.Owner] = *provider
		return nil
	})
}

// serviceRepository implements domain.ServiceRepository
type serviceRepository struct {
	access access
}

func (r *serviceRepository) Get(ctx context.Context, id uint64) (*domain.SubscriptionService, error) {
	var (
		service domain.SubscriptionService
		ok      bool
	)
	r.access.read(func(st *state) { service, ok = st.services[id] })
	if !ok {
		return nil, domain.ErrServiceNotFound
	}
	return &service, nil
}

func (r *serviceRepository) Create(ctx context.Context, service *domain.SubscriptionService) error {
	return r.access.write(func(st *state) error {
		if _, exists := st.services[service.ID]; exists {
			return domain.ErrDatabaseOperation
		}
		st.services[service.ID] = *service
		return nil
	})
}

func (r *serviceRepository) Save(ctx context.Context, service *domain.SubscriptionService) error {
	return r.access.write(func(st *state) error {
		if _, exists := st.services[service.ID]; !exists {
			return domain.ErrServiceNotFound
		}
		st.services[service.ID] = *service
		return nil
	})
}

func (r *serviceRepository) List(ctx context.Context, activeOnly bool) ([]domain.SubscriptionService, error) {
	var services []domain.SubscriptionService
	r.access.read(func(st *state) {
		services = make([]domain.SubscriptionService, 0, len(st.services))
		for _, s := range st.services {
			if activeOnly && !s.Active {
				continue
			}
			services = append(services, s)
		}
	})
	sort.Slice(services, func(i, j int) bool { return services[i].ID < services[j].ID })
	return services, nil
}

// subscriptionRepository implements domain.SubscriptionRepository
type subscriptionRepository struct {
	access access
}

func (r *subscriptionRepository) GetActive(ctx context.Context, key domain.SubscriptionKey) (*domain.Subscription, error) {
	var (
		sub   domain.Subscription
		found bool
	)
	r.access.read(func(st *state) {
		for _, s := range st.subscriptions {
			if s.Active && s.Key() == key {
				sub, found = s, true
				return
			}
		}
	})
	if !found {
		return nil, domain.ErrSubscriptionNotFound
	}
	return &sub, nil
}

func (r *subscriptionRepository) GetLatest(ctx context.Context, key domain.SubscriptionKey) (*domain.Subscription, error) {
	var (
		sub   domain.Subscription
		found bool
	)
	r.access.read(func(st *state) {
		for _, s := range st.subscriptions {
			if s.Key() == key && (!found || s.ID > sub.ID) {
				sub, found = s, true
			}
		}
	})
	if !found {
		return nil, domain.ErrSubscriptionNotFound
	}
	return &sub, nil
}

func (r *subscriptionRepository) Create(ctx context.Context, sub *domain.Subscription) error {
	return r.access.write(func(st *state) error {
		for _, s := range st.subscriptions {
			if s.Active && s.Key() == sub.Key() {
				return domain.ErrSubscriptionAlreadyExists
			}
		}
		st.nextSubID++
		sub.ID = st.nextSubID
		st.subscriptions[sub.ID] = *sub
		return nil
	})
}

func (r *subscriptionRepository) Save(ctx context.Context, sub *domain.Subscription) error {
	return r.access.write(func(st *state) error {
		if _, exists := st.subscriptions[sub.ID]; !exists {
			return domain.ErrSubscriptionNotFound
		}
		st.subscriptions[sub.ID] = *sub
		return nil
	})
}

func (r *subscriptionRepository) ListByUser(ctx context.Context, userID string) ([]domain.Subscription, error) {
	var subs []domain.Subscription
	r.access.read(func(st *state) {
		for _, s := range st.subscriptions {
			if s.UserID == userID {
				subs = append(subs, s)
			}
		}
	})
	sort.Slice(subs, func(i, j int) bool { return subs[i].ID < subs[j].ID })
	return subs, nil
}

func (r *subscriptionRepository) ListDue(ctx context.Context, now time.Time, limit int) ([]domain.Subscription, error) {
	var subs []domain.Subscription
	r.access.read(func(st *state) {
		for _, s := range st.subscriptions {
			if s.Active && !s.NextPaymentDue.After(now) {
				subs = append(subs, s)
			}
		}
	})
	sort.Slice(subs, func(i, j int) bool {
		if subs[i].NextPaymentDue.Equal(subs[j].NextPaymentDue) {
			return subs[i].ID < subs[j].ID
		}
		return subs[i].NextPaymentDue.Before(subs[j].NextPaymentDue)
	})
	if limit > 0 && len(subs) > limit {
		subs = subs[:limit]
	}
	return subs, nil
}

// stakeRepository implements domain.StakeRepository
type stakeRepository struct {
	access access
}

func (r *stakeRepository) Get(ctx context.Context, userID string) (*domain.StakePosition, error) {
	var (
		pos domain.StakePosition
		ok  bool
	)
	r.access.read(func(st *state) { pos, ok = st.stakes[userID] })
	if !ok {
		return nil, domain.ErrStakePositionNotFound
	}
	return &pos, nil
}

func (r *stakeRepository) Save(ctx context.Context, position *domain.StakePosition) error {
	return r.access.write(func(st *state) error {
		st.stakes[position.UserID] = *position
		return nil
	})
}

// protocolRepository implements domain.ProtocolRepository
type protocolRepository struct {
	access access
}

func (r *protocolRepository) Get(ctx context.Context) (*domain.ProtocolConfig, error) {
	var cfg *domain.ProtocolConfig
	r.access.read(func(st *state) {
		if st.protocol != nil {
			c := *st.protocol
			cfg = &c
		}
	})
	if cfg == nil {
		return nil, domain.ErrProtocolNotInitialized
	}
	return cfg, nil
}

// GetForUpdate is Get; transactions are already serialized
func (r *protocolRepository) GetForUpdate(ctx context.Context) (*domain.ProtocolConfig, error) {
	return r.Get(ctx)
}

func (r *protocolRepository) AddTreasury(ctx context.Context, amount uint64) error {
	return r.access.write(func(st *state) error {
		if st.protocol == nil {
			return domain.ErrProtocolNotInitialized
		}
		balance, err := domain.AddAmount(st.protocol.TreasuryBalance, amount)
		if err != nil {
			return err
		}
		c := *st.protocol
		c.TreasuryBalance = balance
		st.protocol = &c
		return nil
	})
}

func (r *protocolRepository) Save(ctx context.Context, cfg *domain.ProtocolConfig) error {
	return r.access.write(func(st *state) error {
		c := *cfg
		c.ID = domain.ProtocolConfigID
		st.protocol = &c
		return nil
	})
}

// paymentRepository implements domain.PaymentRepository
type paymentRepository struct {
	access access
}

func (r *paymentRepository) Create(ctx context.Context, records ...*domain.PaymentRecord) error {
	return r.access.write(func(st *state) error {
		for _, rec := range records {
			st.payments = append(st.payments, *rec)
		}
		return nil
	})
}

func (r *paymentRepository) ListBySubscription(ctx context.Context, subscriptionID uint) ([]domain.PaymentRecord, error) {
	var records []domain.PaymentRecord
	r.access.read(func(st *state) {
		for _, rec := range st.payments {
			if rec.SubscriptionID == subscriptionID {
				records = append(records, rec)
			}
		}
	})
	return records, nil
}

// certificateRepository implements domain.CertificateRepository
type certificateRepository struct {
	access access
}

func (r *certificateRepository) Get(ctx context.Context, id string) (*domain.Certificate, error) {
	var (
		cert domain.Certificate
		ok   bool
	)
	r.access.read(func(st *state) { cert, ok = st.certificates[id] })
	if !ok {
		return nil, domain.ErrCertificateNotFound
	}
	return &cert, nil
}

func (r *certificateRepository) Create(ctx context.Context, cert *domain.Certificate) error {
	return r.access.write(func(st *state) error {
		st.certificates[cert.ID.String()] = *cert
		return nil
	})
}

func (r *certificateRepository) Save(ctx context.Context, cert *domain.Certificate) error {
	return r.access.write(func(st *state) error {
		if _, exists := st.certificates[cert.ID.String()]; !exists {
			return domain.ErrCertificateNotFound
		}
		st.certificates[cert.ID.String()] = *cert
		return nil
	})
}
