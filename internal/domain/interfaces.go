package domain

import (
	"context"
	"time"
)

// LedgerRepository defines data access for user ledgers.
// Inside a transaction Get locks the returned row.
type LedgerRepository interface {
	Get(ctx context.Context, owner string) (*UserLedger, error)
	Save(ctx context.Context, ledger *UserLedger) error
}

// ProviderRepository defines data access for providers
type ProviderRepository interface {
	Get(ctx context.Context, owner string) (*Provider, error)
	Create(ctx context.Context, provider *Provider) error
	Save(ctx context.Context, provider *Provider) error
}

// ServiceRepository defines data access for catalog services
type ServiceRepository interface {
	Get(ctx context.Context, id uint64) (*SubscriptionService, error)
	Create(ctx context.Context, service *SubscriptionService) error
	Save(ctx context.Context, service *SubscriptionService) error
	List(ctx context.Context, activeOnly bool) ([]SubscriptionService, error)
}

// SubscriptionRepository defines data access for subscriptions
type SubscriptionRepository interface {
	// GetActive returns the active subscription for the triple
	GetActive(ctx context.Context, key SubscriptionKey) (*Subscription, error)

	// GetLatest returns the most recent subscription for the triple, active or not
	GetLatest(ctx context.Context, key SubscriptionKey) (*Subscription, error)

	Create(ctx context.Context, sub *Subscription) error
	Save(ctx context.Context, sub *Subscription) error
	ListByUser(ctx context.Context, userID string) ([]Subscription, error)

	// ListDue returns active subscriptions with nextPaymentDue <= now, oldest first
	ListDue(ctx context.Context, now time.Time, limit int) ([]Subscription, error)
}

// StakeRepository defines data access for stake positions
type StakeRepository interface {
	Get(ctx context.Context, userID string) (*StakePosition, error)
	Save(ctx context.Context, position *StakePosition) error
}

// ProtocolRepository defines data access for the protocol config row.
// Get never locks the row; writers load it with GetForUpdate.
type ProtocolRepository interface {
	Get(ctx context.Context) (*ProtocolConfig, error)
	GetForUpdate(ctx context.Context) (*ProtocolConfig, error)
	Save(ctx context.Context, cfg *ProtocolConfig) error

	// AddTreasury credits amount to the treasury without a read-modify-write
	AddTreasury(ctx context.Context, amount uint64) error
}

// PaymentRepository defines data access for payment records
type PaymentRepository interface {
	Create(ctx context.Context, records ...*PaymentRecord) error
	ListBySubscription(ctx context.Context, subscriptionID uint) ([]PaymentRecord, error)
}

// CertificateRepository defines data access for certificates
type CertificateRepository interface {
	Get(ctx context.Context, id string) (*Certificate, error)
	Create(ctx context.Context, cert *Certificate) error
	Save(ctx context.Context, cert *Certificate) error
}

// Repositories groups every repository bound to one connection or transaction
type Repositories interface {
	Ledgers() LedgerRepository
	Providers() ProviderRepository
	Services() ServiceRepository
	Subscriptions() SubscriptionRepository
	Stakes() StakeRepository
	Protocol() ProtocolRepository
	Payments() PaymentRepository
	Certificates() CertificateRepository
}

// Store runs operations atomically. A non-nil error from fn rolls back
// every write made through the transactional repositories.
type Store interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error
	Reader() Repositories
}

// Clock supplies the current time
type Clock interface {
	Now() time.Time
}

// SystemClock is the wall clock in UTC
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now().UTC() }

// EventPublisher publishes domain events after commit
type EventPublisher interface {
	SendToTopic(ctx context.Context, topic string, key string, event any) error
}

// PriceQuote is a fixed-point price: Price * 10^Expo fiat units per native unit
type PriceQuote struct {
	Price       int64
	Expo        int32
	PublishTime time.Time
}

// PriceSource returns the latest native/fiat quote
type PriceSource interface {
	Latest(ctx context.Context) (PriceQuote, error)
}

// StakingPool is the external liquid staking service
type StakingPool interface {
	// Delegate deposits native units and returns the receipt tokens minted
	Delegate(ctx context.Context, amount uint64) (uint64, error)

	// Undelegate redeems receipt tokens and returns the native units released
	Undelegate(ctx context.Context, receiptTokens uint64) (uint64, error)
}

// Rate is an accepted oracle price in fiat cents per native unit
type Rate struct {
	Cents       uint64    `json:"cents"`
	PublishTime time.Time `json:"publish_time"`
}

// RateProvider returns validated rates with the staleness bound of each consumer
type RateProvider interface {
	// SubscribeRate is used by subscribe and affordability queries
	SubscribeRate(ctx context.Context) (Rate, error)

	// SettlementRate is used by settlement with a tighter staleness bound
	SettlementRate(ctx context.Context) (Rate, error)
}
