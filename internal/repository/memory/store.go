package memory

import (
	"context"
	"maps"
	"slices"
	"sync"

	"github.com/yukikm/subly/internal/domain"
)

type state struct {
	ledgers       map[string]domain.UserLedger
	providers     map[string]domain.Provider
	services      map[uint64]domain.SubscriptionService
	subscriptions map[uint]domain.Subscription
	nextSubID     uint
	stakes        map[string]domain.StakePosition
	protocol      *domain.ProtocolConfig
	payments      []domain.PaymentRecord
	certificates  map[string]domain.Certificate
}

func newState() *state {
	return &state{
		ledgers:       make(map[string]domain.UserLedger),
		providers:     make(map[string]domain.Provider),
		services:      make(map[uint64]domain.SubscriptionService),
		subscriptions: make(map[uint]domain.Subscription),
		stakes:        make(map[string]domain.StakePosition),
		certificates:  make(map[string]domain.Certificate),
	}
}

// clone copies every table so a failed transaction can be discarded.
// Records are stored by value; pointer fields are replaced, never mutated.
func (s *state) clone() *state {
	c := &state{
		ledgers:       maps.Clone(s.ledgers),
		providers:     maps.Clone(s.providers),
		services:      maps.Clone(s.services),
		subscriptions: maps.Clone(s.subscriptions),
		nextSubID:     s.nextSubID,
		stakes:        maps.Clone(s.stakes),
		payments:      slices.Clone(s.payments),
		certificates:  maps.Clone(s.certificates),
	}
	if s.protocol != nil {
		p := *s.protocol
		c.protocol = &p
	}
	return c
}

// Store implements domain.Store in process memory. Transactions are
// serialised and commit by swapping in the working copy.
type Store struct {
	mu sync.RWMutex
	st *state
}

// NewStore creates an empty in-memory store
func NewStore() *Store {
	return &Store{st: newState()}
}

// WithinTx runs fn against a private copy of the state and commits it when fn succeeds
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, repos domain.Repositories) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	work := s.st.clone()
	if err := fn(ctx, &repositories{access: txAccess{st: work}}); err != nil {
		return err
	}

	s.st = work
	return nil
}

// Reader returns repositories reading the committed state.
// It must not be used from inside WithinTx.
func (s *Store) Reader() domain.Repositories {
	return &repositories{access: storeAccess{store: s}}
}

type access interface {
	read(fn func(st *state))
	write(fn func(st *state) error) error
}

type txAccess struct {
	st *state
}

func (a txAccess) read(fn func(st *state))              { fn(a.st) }
func (a txAccess) write(fn func(st *state) error) error { return fn(a.st) }

type storeAccess struct {
	store *Store
}

func (a storeAccess) read(fn func(st *state)) {
	a.store.mu.RLock()
	defer a.store.mu.RUnlock()
	fn(a.store.st)
}

func (a storeAccess) write(fn func(st *state) error) error {
	a.store.mu.Lock()
	defer a.store.mu.Unlock()
	return fn(a.store.st)
}

type repositories struct {
	access access
}

func (r *repositories) Ledgers() domain.LedgerRepository     { return &ledgerRepository{r.access} }
func (r *repositories) Providers() domain.ProviderRepository { return &providerRepository{r.access} }
func (r *repositories) Services() domain.ServiceRepository   { return &serviceRepository{r.access} }
func (r *repositories) Subscriptions() domain.SubscriptionRepository {
	return &subscriptionRepository{r.access}
}
func (r *repositories) Stakes() domain.StakeRepository      { return &stakeRepository{r.access} }
func (r *repositories) Protocol() domain.ProtocolRepository { return &protocolRepository{r.access} }
func (r *repositories) Payments() domain.PaymentRepository  { return &paymentRepository{r.access} }
func (r *repositories) Certificates() domain.CertificateRepository {
	return &certificateRepository{r.access}
}
