package domain

import (
	"time"

	"github.com/google/uuid"
)

// Kafka topics for domain events
const (
	TopicLedgerEvents       = "subly.ledger.events"
	TopicSubscriptionEvents = "subly.subscription.events"
	TopicPaymentEvents      = "subly.payment.events"
	TopicStakingEvents      = "subly.staking.events"
	TopicProtocolEvents     = "subly.protocol.events"
	TopicSettlementCommands = "subly.settlement.commands"
)

// LedgerEvent is published after a deposit or withdrawal
type LedgerEvent struct {
	Type      string    `json:"type"`
	Owner     string    `json:"owner"`
	Amount    uint64    `json:"amount"`
	Deposited uint64    `json:"deposited"`
	Locked    uint64    `json:"locked"`
	Timestamp time.Time `json:"timestamp"`
}

// SubscriptionEvent is published on subscribe and unsubscribe
type SubscriptionEvent struct {
	Type           string          `json:"type"`
	SubscriptionID uint            `json:"subscription_id"`
	Key            SubscriptionKey `json:"key"`
	LockedAmount   uint64          `json:"locked_amount"`
	CertificateID  *uuid.UUID      `json:"certificate_id,omitempty"`
	Timestamp      time.Time       `json:"timestamp"`
}

// PaymentEvent is published after a settled payment
type PaymentEvent struct {
	SubscriptionID uint            `json:"subscription_id"`
	Key            SubscriptionKey `json:"key"`
	FeeNative      uint64          `json:"fee_native"`
	ProviderShare  uint64          `json:"provider_share"`
	ProtocolFee    uint64          `json:"protocol_fee"`
	RateCents      uint64          `json:"rate_cents"`
	BatchID        *uuid.UUID      `json:"batch_id,omitempty"`
	NextPaymentDue time.Time       `json:"next_payment_due"`
	Timestamp      time.Time       `json:"timestamp"`
}

// StakingEvent is published after stake, unstake and yield claims
type StakingEvent struct {
	Type          string    `json:"type"`
	UserID        string    `json:"user_id"`
	Amount        uint64    `json:"amount"`
	ReceiptTokens uint64    `json:"receipt_tokens"`
	Timestamp     time.Time `json:"timestamp"`
}

// ProtocolEvent is published after an admin change
type ProtocolEvent struct {
	Type           string    `json:"type"`
	ProtocolFeeBps uint64    `json:"protocol_fee_bps"`
	Paused         bool      `json:"paused"`
	Timestamp      time.Time `json:"timestamp"`
}

// SettlementCommand triggers settlement phases from the message bus
type SettlementCommand struct {
	Action  string           `json:"action"` // "run_batch" or "execute"
	BatchID *uuid.UUID       `json:"batch_id,omitempty"`
	Key     *SubscriptionKey `json:"key,omitempty"`
}
