package domain

import (
	"time"

	"github.com/google/uuid"
)

// UserLedger is a user's native-unit balance sheet
type UserLedger struct {
	Owner     string    `gorm:"column:owner;primaryKey;size:64" json:"owner"`
	Deposited uint64    `gorm:"column:deposited;type:numeric(20,0);not null;default:0" json:"deposited"`
	Locked    uint64    `gorm:"column:locked;type:numeric(20,0);not null;default:0" json:"locked"`
	Staked    uint64    `gorm:"column:staked;type:numeric(20,0);not null;default:0" json:"staked"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (UserLedger) TableName() string { return "user_ledgers" }

// Provider is a registered service provider
type Provider struct {
	Owner            string    `gorm:"column:owner;primaryKey;size:64" json:"owner"`
	Name             string    `gorm:"column:name;size:64;not null" json:"name"`
	Description      string    `gorm:"column:description;size:200;not null" json:"description"`
	TotalSubscribers uint64    `gorm:"column:total_subscribers;type:numeric(20,0);not null;default:0" json:"total_subscribers"`
	Verified         bool      `gorm:"column:verified;not null;default:false" json:"verified"`
	CreatedAt        time.Time `gorm:"column:created_at" json:"created_at"`
}

func (Provider) TableName() string { return "providers" }

// SubscriptionService is a billable offering of a provider
type SubscriptionService struct {
	ID                 uint64    `gorm:"column:id;primaryKey;autoIncrement:false" json:"id"`
	ProviderID         string    `gorm:"column:provider_id;size:64;not null;index" json:"provider_id"`
	Name               string    `gorm:"column:name;size:64;not null" json:"name"`
	Description        string    `gorm:"column:description;size:200;not null" json:"description"`
	ImageURL           string    `gorm:"column:image_url;size:200;not null" json:"image_url"`
	FeeFiatCents       uint64    `gorm:"column:fee_fiat_cents;type:numeric(20,0);not null" json:"fee_fiat_cents"`
	BillingPeriodDays  uint64    `gorm:"column:billing_period_days;not null" json:"billing_period_days"`
	Active             bool      `gorm:"column:active;not null;default:true" json:"active"`
	CurrentSubscribers uint64    `gorm:"column:current_subscribers;type:numeric(20,0);not null;default:0" json:"current_subscribers"`
	CreatedAt          time.Time `gorm:"column:created_at" json:"created_at"`
}

func (SubscriptionService) TableName() string { return "services" }

// BillingPeriod returns the billing period as a duration
func (s *SubscriptionService) BillingPeriod() time.Duration {
	return time.Duration(s.BillingPeriodDays) * 24 * time.Hour
}

// Subscription binds a user to a provider's service
type Subscription struct {
	ID             uint       `gorm:"column:id;primaryKey" json:"id"`
	UserID         string     `gorm:"column:user_id;size:64;not null;index" json:"user_id"`
	ProviderID     string     `gorm:"column:provider_id;size:64;not null" json:"provider_id"`
	ServiceID      uint64     `gorm:"column:service_id;not null" json:"service_id"`
	SubscribedAt   time.Time  `gorm:"column:subscribed_at;not null" json:"subscribed_at"`
	LastPaymentAt  *time.Time `gorm:"column:last_payment_at" json:"last_payment_at,omitempty"`
	NextPaymentDue time.Time  `gorm:"column:next_payment_due;not null;index" json:"next_payment_due"`
	PaymentsMade   uint64     `gorm:"column:payments_made;type:numeric(20,0);not null;default:0" json:"payments_made"`
	LockedAmount   uint64     `gorm:"column:locked_amount;type:numeric(20,0);not null;default:0" json:"locked_amount"`
	CertificateID  *uuid.UUID `gorm:"column:certificate_id;type:uuid" json:"certificate_id,omitempty"`
	Active         bool       `gorm:"column:active;not null;default:true" json:"active"`
	CancelledAt    *time.Time `gorm:"column:cancelled_at" json:"cancelled_at,omitempty"`
}

func (Subscription) TableName() string { return "subscriptions" }

// Key identifies a subscription by its (user, provider, service) triple
func (s *Subscription) Key() SubscriptionKey {
	return SubscriptionKey{UserID: s.UserID, ProviderID: s.ProviderID, ServiceID: s.ServiceID}
}

// SubscriptionKey is the (user, provider, service) triple
type SubscriptionKey struct {
	UserID     string `json:"user_id"`
	ProviderID string `json:"provider_id"`
	ServiceID  uint64 `json:"service_id"`
}

// StakePosition tracks a user's delegation to the liquid staking service
type StakePosition struct {
	UserID             string    `gorm:"column:user_id;primaryKey;size:64" json:"user_id"`
	StakedAmount       uint64    `gorm:"column:staked_amount;type:numeric(20,0);not null;default:0" json:"staked_amount"`
	ReceiptTokenAmount uint64    `gorm:"column:receipt_token_amount;type:numeric(20,0);not null;default:0" json:"receipt_token_amount"`
	StakeDate          time.Time `gorm:"column:stake_date;not null" json:"stake_date"`
	LastYieldClaim     time.Time `gorm:"column:last_yield_claim;not null" json:"last_yield_claim"`
	TotalYieldEarned   uint64    `gorm:"column:total_yield_earned;type:numeric(20,0);not null;default:0" json:"total_yield_earned"`
	Active             bool      `gorm:"column:active;not null;default:true" json:"active"`
}

func (StakePosition) TableName() string { return "stake_positions" }

// ProtocolConfig is the single global protocol record
type ProtocolConfig struct {
	ID                   uint       `gorm:"column:id;primaryKey" json:"-"`
	AuthorityID          string     `gorm:"column:authority_id;size:64;not null" json:"authority_id"`
	ProtocolFeeBps       uint64     `gorm:"column:protocol_fee_bps;not null" json:"protocol_fee_bps"`
	Paused               bool       `gorm:"column:paused;not null;default:false" json:"paused"`
	OracleRef            string     `gorm:"column:oracle_ref;size:200;not null" json:"oracle_ref"`
	StakingRef           string     `gorm:"column:staking_ref;size:200;not null" json:"staking_ref"`
	TotalServicesCounter uint64     `gorm:"column:total_services_counter;type:numeric(20,0);not null;default:0" json:"total_services_counter"`
	TreasuryBalance      uint64     `gorm:"column:treasury_balance;type:numeric(20,0);not null;default:0" json:"treasury_balance"`
	YieldRateBps         uint64     `gorm:"column:yield_rate_bps;not null" json:"yield_rate_bps"`
	LastSettlementRun    *time.Time `gorm:"column:last_settlement_run" json:"last_settlement_run,omitempty"`
}

func (ProtocolConfig) TableName() string { return "protocol_config" }

// PaymentKind distinguishes provider payments from protocol fees
type PaymentKind string

const (
	PaymentKindSubscription PaymentKind = "subscription"
	PaymentKindProtocolFee  PaymentKind = "protocol_fee"
)

// PaymentRecord is an audit entry written by settlement
type PaymentRecord struct {
	ID             uuid.UUID   `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	SubscriptionID uint        `gorm:"column:subscription_id;not null;index" json:"subscription_id"`
	UserID         string      `gorm:"column:user_id;size:64;not null" json:"user_id"`
	ProviderID     string      `gorm:"column:provider_id;size:64;not null" json:"provider_id"`
	ServiceID      uint64      `gorm:"column:service_id;not null" json:"service_id"`
	Amount         uint64      `gorm:"column:amount;type:numeric(20,0);not null" json:"amount"`
	Kind           PaymentKind `gorm:"column:kind;size:32;not null" json:"kind"`
	RateCents      uint64      `gorm:"column:rate_cents;not null" json:"rate_cents"`
	BatchID        *uuid.UUID  `gorm:"column:batch_id;type:uuid" json:"batch_id,omitempty"`
	PaidAt         time.Time   `gorm:"column:paid_at;not null" json:"paid_at"`
}

func (PaymentRecord) TableName() string { return "payment_records" }

// Certificate is the transferable proof of an active subscription
type Certificate struct {
	ID             uuid.UUID  `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	SubscriptionID uint       `gorm:"column:subscription_id;not null;index" json:"subscription_id"`
	Owner          string     `gorm:"column:owner;size:64;not null" json:"owner"`
	IssuedAt       time.Time  `gorm:"column:issued_at;not null" json:"issued_at"`
	RevokedAt      *time.Time `gorm:"column:revoked_at" json:"revoked_at,omitempty"`
}

func (Certificate) TableName() string { return "certificates" }

// Revoked reports whether the certificate was destroyed
func (c *Certificate) Revoked() bool {
	return c.RevokedAt != nil
}

// EnsureActive fails with ErrProtocolPaused while the protocol is paused
func (c *ProtocolConfig) EnsureActive() error {
	if c.Paused {
		return ErrProtocolPaused
	}
	return nil
}
